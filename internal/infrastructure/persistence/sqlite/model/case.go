package model

import "time"

type Case struct {
	CaseID         uint64     `gorm:"column:case_id;primaryKey;autoIncrement"`
	CaseUID        string     `gorm:"column:case_uid;type:text;not null;uniqueIndex"`
	DisplayName    string     `gorm:"column:display_name;type:text;not null"`
	Hospital       string     `gorm:"column:hospital;type:text;not null"`
	ProjectID      uint64     `gorm:"column:project_id;not null;index"`
	Difficulty     string     `gorm:"column:difficulty;type:text;not null"`
	Status         string     `gorm:"column:status;type:text;not null;index"`
	Revision       int64      `gorm:"column:revision;not null;default:1"`
	AssignedUserID *uint64    `gorm:"column:assigned_user_id;index"`
	MetadataJSON   string     `gorm:"column:metadata_json;type:text;not null"`
	StartedAt      *time.Time `gorm:"column:started_at"`
	SubmittedAt    *time.Time `gorm:"column:submitted_at"`
	AcceptedAt     *time.Time `gorm:"column:accepted_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;not null"`
}

func (Case) TableName() string {
	return "cases"
}
