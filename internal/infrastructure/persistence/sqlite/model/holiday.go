package model

type Holiday struct {
	Day     string `gorm:"column:day;type:text;primaryKey"`
	Name    string `gorm:"column:name;type:text;not null"`
	Workday bool   `gorm:"column:workday;not null;default:0"`
}

func (Holiday) TableName() string {
	return "holidays"
}
