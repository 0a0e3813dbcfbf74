package ports

import (
	"context"
	"time"

	"casetrack/internal/domain/workflow"
)

type WorkLog struct {
	ID        uint64
	CaseID    uint64
	UserID    uint64
	Action    workflow.Action
	StartedAt time.Time
	EndedAt   *time.Time
	Seconds   int64
	CreatedAt time.Time
}

type WorkLogCreate struct {
	CaseID    uint64
	UserID    uint64
	Action    workflow.Action
	StartedAt time.Time
}

// WorkSlice is a per-day aggregate used by the capacity reports.
type WorkSlice struct {
	UserID  uint64
	Day     string
	Seconds int64
}

type WorkLogRepository interface {
	Append(ctx context.Context, input WorkLogCreate) (WorkLog, error)
	LastForCase(ctx context.Context, caseID uint64) (WorkLog, bool, error)

	// OpenSegment returns the most recent opening entry of the case that has
	// not been closed yet, if any.
	OpenSegment(ctx context.Context, caseID uint64, userID uint64) (WorkLog, bool, error)
	CloseSegment(ctx context.Context, id uint64, endedAt time.Time, seconds int64) error

	ListForCase(ctx context.Context, caseID uint64) ([]WorkLog, error)
	SumSecondsForCase(ctx context.Context, caseID uint64) (int64, error)
	SumSecondsByUserDay(ctx context.Context, from, to time.Time) ([]WorkSlice, error)

	// CountOpenByUser counts cases the user has started and not yet closed a
	// segment on. Feeds the work-in-progress limit.
	CountOpenByUser(ctx context.Context, userID uint64) (int64, error)
}
