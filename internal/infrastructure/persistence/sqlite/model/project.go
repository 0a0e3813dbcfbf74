package model

import "time"

type Project struct {
	ProjectID uint64    `gorm:"column:project_id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (Project) TableName() string {
	return "projects"
}
