package ports

import (
	"context"
	"time"

	"casetrack/internal/domain/workflow"
)

type Case struct {
	ID             uint64
	CaseUID        string
	DisplayName    string
	Hospital       string
	ProjectID      uint64
	ProjectName    string
	Difficulty     workflow.Difficulty
	Status         workflow.CaseStatus
	Revision       int64
	AssignedUserID *uint64
	MetadataJSON   string
	StartedAt      *time.Time
	SubmittedAt    *time.Time
	AcceptedAt     *time.Time
	CreatedAt      time.Time
}

type CaseCreate struct {
	CaseUID      string
	DisplayName  string
	Hospital     string
	ProjectID    uint64
	Difficulty   workflow.Difficulty
	MetadataJSON string
	CreatedAt    time.Time
}

type CaseFilter struct {
	Status         *workflow.CaseStatus
	Statuses       []workflow.CaseStatus
	ProjectID      *uint64
	AssignedUserID *uint64
	Limit          int
	Offset         int
}

// CaseTimestamps carries the lifecycle marks an accepted transition may stamp.
// Nil fields are left untouched.
type CaseTimestamps struct {
	StartedAt   *time.Time
	SubmittedAt *time.Time
	AcceptedAt  *time.Time
}

type Event struct {
	ID             uint64
	CaseID         uint64
	ActorID        uint64
	EventType      workflow.EventType
	IdempotencyKey string
	StatusBefore   workflow.CaseStatus
	StatusAfter    workflow.CaseStatus
	PayloadJSON    string
	CreatedAt      time.Time
}

type EventCreate struct {
	CaseID         uint64
	ActorID        uint64
	EventType      workflow.EventType
	IdempotencyKey string
	StatusBefore   workflow.CaseStatus
	StatusAfter    workflow.CaseStatus
	PayloadJSON    string
	CreatedAt      time.Time
}

// CaseRepository owns cases and their event history. Events are append-only;
// case status and revision are written only through UpdateStatusChecked.
type CaseRepository interface {
	Create(ctx context.Context, input CaseCreate) (Case, error)
	GetByID(ctx context.Context, id uint64) (Case, error)
	GetByUID(ctx context.Context, caseUID string) (Case, error)
	List(ctx context.Context, filter CaseFilter) ([]Case, int64, error)
	SetAssignee(ctx context.Context, caseID uint64, userID uint64) error

	// UpdateStatusChecked performs the revision compare-and-swap: the row is
	// updated only when its persisted revision still equals observedRevision,
	// and the revision is advanced by exactly one. Returns false when another
	// writer got there first.
	UpdateStatusChecked(ctx context.Context, caseID uint64, observedRevision int64, next workflow.CaseStatus, marks CaseTimestamps) (bool, error)

	// AppendEvent inserts under the idempotency_key unique constraint.
	// inserted=false means the key already existed; the stored row is returned.
	AppendEvent(ctx context.Context, input EventCreate) (event Event, inserted bool, err error)
	GetEventByIdempotencyKey(ctx context.Context, key string) (Event, bool, error)
	ListEvents(ctx context.Context, caseID uint64) ([]Event, error)
	ListRecentEvents(ctx context.Context, limit int) ([]Event, error)
}

type ProjectRepository interface {
	GetOrCreate(ctx context.Context, name string) (id uint64, err error)
	GetName(ctx context.Context, id uint64) (string, error)
}

type TagRepository interface {
	Apply(ctx context.Context, caseID uint64, tag string, at time.Time) (applied bool, err error)
	Remove(ctx context.Context, caseID uint64, tag string) (removed bool, err error)
	ListTags(ctx context.Context) ([]string, error)
	ListCaseIDsByTag(ctx context.Context, tag string) ([]uint64, error)
	ListCaseTags(ctx context.Context, caseID uint64) ([]string, error)
}
