package ports

import (
	"context"
	"time"
)

// Notification is a side effect emitted after a transition commits. Delivery
// is best effort: a failed channel is logged and never rolls back the
// transition that produced it.
type Notification struct {
	CaseID    uint64
	CaseUID   string
	EventType string
	Status    string
	ActorName string
	At        time.Time
}

type Notifier interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}

type NotificationLog struct {
	ID        uint64
	CaseID    uint64
	Channel   string
	EventType string
	Ok        bool
	Detail    string
	CreatedAt time.Time
}

type NotificationLogRepository interface {
	Record(ctx context.Context, log NotificationLog) error
	ListForCase(ctx context.Context, caseID uint64) ([]NotificationLog, error)
}
