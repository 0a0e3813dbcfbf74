package model

import "time"

type WorkLog struct {
	WorkLogID uint64     `gorm:"column:work_log_id;primaryKey;autoIncrement"`
	CaseID    uint64     `gorm:"column:case_id;not null;index"`
	UserID    uint64     `gorm:"column:user_id;not null;index"`
	Action    string     `gorm:"column:action;type:text;not null"`
	StartedAt time.Time  `gorm:"column:started_at;not null;index"`
	EndedAt   *time.Time `gorm:"column:ended_at"`
	Seconds   int64      `gorm:"column:seconds;not null;default:0"`
	CreatedAt time.Time  `gorm:"column:created_at;not null"`
}

func (WorkLog) TableName() string {
	return "work_logs"
}
