package model

import "time"

type TimeOff struct {
	TimeOffID uint64    `gorm:"column:time_off_id;primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"column:user_id;not null;uniqueIndex:ux_timeoff_user_day"`
	Day       string    `gorm:"column:day;type:text;not null;uniqueIndex:ux_timeoff_user_day"`
	Kind      string    `gorm:"column:kind;type:text;not null"`
	Note      string    `gorm:"column:note;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (TimeOff) TableName() string {
	return "time_offs"
}
