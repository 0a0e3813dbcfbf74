package ports

import (
	"context"
	"time"

	"casetrack/internal/domain/workflow"
)

type QcSummary struct {
	ID             uint64
	CaseID         uint64
	Kind           workflow.QcKind
	Classification workflow.QcClassification
	RuleHits       int
	DetailJSON     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type QcSummaryUpsert struct {
	CaseID         uint64
	Kind           workflow.QcKind
	Classification workflow.QcClassification
	RuleHits       int
	DetailJSON     string
	At             time.Time
}

// QcRepository keeps at most one summary per (case, kind); a re-run replaces
// the previous verdict in place.
type QcRepository interface {
	Upsert(ctx context.Context, input QcSummaryUpsert) (QcSummary, error)
	Get(ctx context.Context, caseID uint64, kind workflow.QcKind) (QcSummary, bool, error)
	ListForCase(ctx context.Context, caseID uint64) ([]QcSummary, error)
	ListSince(ctx context.Context, since time.Time) ([]QcSummary, error)
}
