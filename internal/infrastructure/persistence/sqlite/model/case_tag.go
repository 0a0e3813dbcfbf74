package model

import "time"

type CaseTag struct {
	CaseID    uint64    `gorm:"column:case_id;not null;primaryKey"`
	Tag       string    `gorm:"column:tag;type:text;not null;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (CaseTag) TableName() string {
	return "case_tags"
}
