package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"casetrack/internal/domain/workflow"
	"casetrack/internal/infrastructure/cache"
	"casetrack/internal/infrastructure/persistence/sqlite/model"
	"casetrack/internal/infrastructure/persistence/sqlite/repository"
	"casetrack/internal/infrastructure/persistence/sqlite/uow"
	"casetrack/internal/ports"
	"casetrack/internal/usecase/settings"
)

type fixture struct {
	engine *Service
	cases  ports.CaseRepository
	users  ports.UserRepository
}

func setup(t *testing.T) *fixture {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Project{},
		&model.User{},
		&model.Case{},
		&model.Event{},
		&model.WorkLog{},
		&model.NotificationLog{},
		&model.SettingsKV{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	cases := repository.NewCaseRepository(db)
	users := repository.NewUserRepository(db)
	notifyLogs := repository.NewNotificationLogRepository(db)
	store := settings.NewStore(cache.NewSQLiteCache(db), settings.Defaults{
		WorkdayHours:       8,
		WIPLimit:           3,
		AutoTimeoutMinutes: 30,
	})

	return &fixture{
		engine: NewService(uow.NewUnitOfWork(db), cases, users, store, notifyLogs, nil, time.Second),
		cases:  cases,
		users:  users,
	}
}

func (f *fixture) addUser(t *testing.T, username string, role workflow.Role) ports.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), ports.UserCreate{
		Username:    username,
		DisplayName: username,
		Role:        role,
		APIKey:      "key-" + username,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func (f *fixture) addCase(t *testing.T, uid string, assignee uint64) ports.Case {
	t.Helper()
	ctx := context.Background()
	c, err := f.cases.Create(ctx, ports.CaseCreate{
		CaseUID:      uid,
		DisplayName:  uid,
		Hospital:     "general",
		ProjectID:    1,
		Difficulty:   workflow.DifficultyNormal,
		MetadataJSON: "{}",
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create case: %v", err)
	}
	if assignee != 0 {
		if err := f.cases.SetAssignee(ctx, c.ID, assignee); err != nil {
			t.Fatalf("assign case: %v", err)
		}
		c, err = f.cases.GetByID(ctx, c.ID)
		if err != nil {
			t.Fatalf("reload case: %v", err)
		}
	}
	return c
}

func (f *fixture) apply(t *testing.T, caseID, actorID uint64, event workflow.EventType, key string) TransitionResult {
	t.Helper()
	result, err := f.engine.ApplyTransition(context.Background(), TransitionInput{
		CaseID:         caseID,
		EventType:      event,
		IdempotencyKey: key,
		ActorID:        actorID,
	})
	if err != nil {
		t.Fatalf("apply %s: %v", event, err)
	}
	return result
}

func TestApplyTransitionFullLifecycle(t *testing.T) {
	f := setup(t)
	worker := f.addUser(t, "worker", workflow.RoleWorker)
	admin := f.addUser(t, "admin", workflow.RoleAdmin)
	c := f.addCase(t, "CT-3001", worker.ID)

	steps := []struct {
		actor uint64
		event workflow.EventType
		want  workflow.CaseStatus
	}{
		{worker.ID, workflow.EventStart, workflow.StatusInProgress},
		{worker.ID, workflow.EventSubmit, workflow.StatusSubmitted},
		{admin.ID, workflow.EventCheckFail, workflow.StatusRework},
		{worker.ID, workflow.EventStart, workflow.StatusInProgress},
		{worker.ID, workflow.EventSubmit, workflow.StatusSubmitted},
		{admin.ID, workflow.EventCheckPass, workflow.StatusReviewPending},
		{admin.ID, workflow.EventApprove, workflow.StatusAccepted},
	}
	for i, step := range steps {
		result := f.apply(t, c.ID, step.actor, step.event, fmt.Sprintf("%s-%d", step.event, i))
		if result.Case.Status != step.want {
			t.Fatalf("step %d: expected %s, got %s", i, step.want, result.Case.Status)
		}
		if result.Case.Revision != int64(i+2) {
			t.Fatalf("step %d: expected revision %d, got %d", i, i+2, result.Case.Revision)
		}
	}

	current, err := f.cases.GetByID(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("get case: %v", err)
	}
	if current.StartedAt == nil || current.SubmittedAt == nil || current.AcceptedAt == nil {
		t.Fatalf("lifecycle timestamps missing: %+v", current)
	}

	events, err := f.cases.ListEvents(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != len(steps) {
		t.Fatalf("expected %d events, got %d", len(steps), len(events))
	}
}

func TestApplyTransitionTerminalGuard(t *testing.T) {
	f := setup(t)
	worker := f.addUser(t, "worker", workflow.RoleWorker)
	admin := f.addUser(t, "admin", workflow.RoleAdmin)
	c := f.addCase(t, "CT-3002", worker.ID)

	f.apply(t, c.ID, worker.ID, workflow.EventStart, "k1")
	f.apply(t, c.ID, worker.ID, workflow.EventSubmit, "k2")
	f.apply(t, c.ID, admin.ID, workflow.EventCheckPass, "k3")
	f.apply(t, c.ID, admin.ID, workflow.EventApprove, "k4")

	_, err := f.engine.ApplyTransition(context.Background(), TransitionInput{
		CaseID:         c.ID,
		EventType:      workflow.EventReject,
		IdempotencyKey: "k5",
		ActorID:        admin.ID,
	})
	if !errors.Is(err, workflow.ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}
}

func TestApplyTransitionInvalidPair(t *testing.T) {
	f := setup(t)
	worker := f.addUser(t, "worker", workflow.RoleWorker)
	c := f.addCase(t, "CT-3003", worker.ID)

	_, err := f.engine.ApplyTransition(context.Background(), TransitionInput{
		CaseID:         c.ID,
		EventType:      workflow.EventSubmit,
		IdempotencyKey: "k1",
		ActorID:        worker.ID,
	})
	if !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestApplyTransitionReplay(t *testing.T) {
	f := setup(t)
	worker := f.addUser(t, "worker", workflow.RoleWorker)
	c := f.addCase(t, "CT-3004", worker.ID)

	first := f.apply(t, c.ID, worker.ID, workflow.EventStart, "start-once")
	if first.Replayed {
		t.Fatal("first delivery must not be a replay")
	}

	second := f.apply(t, c.ID, worker.ID, workflow.EventStart, "start-once")
	if !second.Replayed {
		t.Fatal("second delivery must be a replay")
	}
	if second.Event.ID != first.Event.ID {
		t.Fatalf("replay must return stored event %d, got %d", first.Event.ID, second.Event.ID)
	}
	if second.Case.Revision != first.Case.Revision {
		t.Fatalf("replay must not advance revision: %d vs %d", first.Case.Revision, second.Case.Revision)
	}
}

func TestApplyTransitionIdempotencyMismatch(t *testing.T) {
	f := setup(t)
	worker := f.addUser(t, "worker", workflow.RoleWorker)
	c := f.addCase(t, "CT-3005", worker.ID)

	f.apply(t, c.ID, worker.ID, workflow.EventStart, "shared-key")

	_, err := f.engine.ApplyTransition(context.Background(), TransitionInput{
		CaseID:         c.ID,
		EventType:      workflow.EventSubmit,
		IdempotencyKey: "shared-key",
		ActorID:        worker.ID,
	})
	if !errors.Is(err, workflow.ErrIdempotencyMismatch) {
		t.Fatalf("expected ErrIdempotencyMismatch, got %v", err)
	}
}

func TestApplyTransitionExpectedRevision(t *testing.T) {
	f := setup(t)
	worker := f.addUser(t, "worker", workflow.RoleWorker)
	c := f.addCase(t, "CT-3006", worker.ID)

	stale := int64(5)
	_, err := f.engine.ApplyTransition(context.Background(), TransitionInput{
		CaseID:           c.ID,
		EventType:        workflow.EventStart,
		IdempotencyKey:   "k1",
		ActorID:          worker.ID,
		ExpectedRevision: &stale,
	})
	if !errors.Is(err, workflow.ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}

	current := int64(1)
	result, err := f.engine.ApplyTransition(context.Background(), TransitionInput{
		CaseID:           c.ID,
		EventType:        workflow.EventStart,
		IdempotencyKey:   "k2",
		ActorID:          worker.ID,
		ExpectedRevision: &current,
	})
	if err != nil {
		t.Fatalf("apply with matching revision: %v", err)
	}
	if result.Case.Revision != 2 {
		t.Fatalf("expected revision 2, got %d", result.Case.Revision)
	}
}

func TestApplyTransitionAuthorization(t *testing.T) {
	f := setup(t)
	worker := f.addUser(t, "worker", workflow.RoleWorker)
	other := f.addUser(t, "other", workflow.RoleWorker)
	c := f.addCase(t, "CT-3007", worker.ID)

	// Not the assignee.
	_, err := f.engine.ApplyTransition(context.Background(), TransitionInput{
		CaseID:         c.ID,
		EventType:      workflow.EventStart,
		IdempotencyKey: "k1",
		ActorID:        other.ID,
	})
	if !errors.Is(err, workflow.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-assignee, got %v", err)
	}

	// Reviewer events are never worker-triggered.
	f.apply(t, c.ID, worker.ID, workflow.EventStart, "k2")
	f.apply(t, c.ID, worker.ID, workflow.EventSubmit, "k3")
	_, err = f.engine.ApplyTransition(context.Background(), TransitionInput{
		CaseID:         c.ID,
		EventType:      workflow.EventCheckPass,
		IdempotencyKey: "k4",
		ActorID:        worker.ID,
	})
	if !errors.Is(err, workflow.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for worker check event, got %v", err)
	}

	// Inactive actors are rejected outright.
	if err := f.users.SetActive(context.Background(), worker.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err = f.engine.ApplyTransition(context.Background(), TransitionInput{
		CaseID:         c.ID,
		EventType:      workflow.EventSubmit,
		IdempotencyKey: "k5",
		ActorID:        worker.ID,
	})
	if !errors.Is(err, workflow.ErrInactiveUser) {
		t.Fatalf("expected ErrInactiveUser, got %v", err)
	}
}

func TestApplyTransitionWIPLimit(t *testing.T) {
	f := setup(t)
	worker := f.addUser(t, "worker", workflow.RoleWorker)

	for i := 0; i < 3; i++ {
		c := f.addCase(t, fmt.Sprintf("CT-310%d", i), worker.ID)
		f.apply(t, c.ID, worker.ID, workflow.EventStart, "start-"+c.CaseUID)
	}

	extra := f.addCase(t, "CT-3199", worker.ID)
	_, err := f.engine.ApplyTransition(context.Background(), TransitionInput{
		CaseID:         extra.ID,
		EventType:      workflow.EventStart,
		IdempotencyKey: "start-extra",
		ActorID:        worker.ID,
	})
	if !errors.Is(err, workflow.ErrWIPLimitExceeded) {
		t.Fatalf("expected ErrWIPLimitExceeded, got %v", err)
	}
}
