package model

import "time"

type Event struct {
	EventID        uint64    `gorm:"column:event_id;primaryKey;autoIncrement"`
	CaseID         uint64    `gorm:"column:case_id;not null;index"`
	ActorID        uint64    `gorm:"column:actor_id;not null;index"`
	EventType      string    `gorm:"column:event_type;type:text;not null"`
	IdempotencyKey string    `gorm:"column:idempotency_key;type:text;not null;uniqueIndex"`
	StatusBefore   string    `gorm:"column:status_before;type:text;not null"`
	StatusAfter    string    `gorm:"column:status_after;type:text;not null"`
	PayloadJSON    string    `gorm:"column:payload_json;type:text;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;index"`
}

func (Event) TableName() string {
	return "events"
}
