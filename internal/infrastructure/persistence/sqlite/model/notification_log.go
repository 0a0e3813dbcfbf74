package model

import "time"

type NotificationLog struct {
	NotificationLogID uint64    `gorm:"column:notification_log_id;primaryKey;autoIncrement"`
	CaseID            uint64    `gorm:"column:case_id;not null;index"`
	Channel           string    `gorm:"column:channel;type:text;not null"`
	EventType         string    `gorm:"column:event_type;type:text;not null"`
	Ok                bool      `gorm:"column:ok;not null"`
	Detail            string    `gorm:"column:detail;type:text;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;not null"`
}

func (NotificationLog) TableName() string {
	return "notification_logs"
}
