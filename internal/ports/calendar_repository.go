package ports

import (
	"context"
	"time"

	"casetrack/internal/domain/workflow"
)

type TimeOff struct {
	ID        uint64
	UserID    uint64
	Day       string
	Kind      workflow.TimeOffKind
	Note      string
	CreatedAt time.Time
}

type TimeOffCreate struct {
	UserID uint64
	Day    string
	Kind   workflow.TimeOffKind
	Note   string
}

// Holiday overrides the weekday rule for a single calendar date. A date may
// also be marked as a makeup workday (a working Saturday or Sunday).
type Holiday struct {
	Day     string
	Name    string
	Workday bool
}

type CalendarRepository interface {
	CreateTimeOff(ctx context.Context, input TimeOffCreate) (TimeOff, error)
	DeleteTimeOff(ctx context.Context, id uint64) (bool, error)
	ListTimeOffs(ctx context.Context, userID uint64, from, to string) ([]TimeOff, error)
	ListAllTimeOffs(ctx context.Context, from, to string) ([]TimeOff, error)

	ReplaceHolidays(ctx context.Context, year int, entries []Holiday) error
	ListHolidays(ctx context.Context, from, to string) ([]Holiday, error)
}
