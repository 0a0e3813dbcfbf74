package caseadmin

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"casetrack/internal/domain/workflow"
	"casetrack/internal/infrastructure/persistence/sqlite/model"
	"casetrack/internal/infrastructure/persistence/sqlite/repository"
	"casetrack/internal/infrastructure/persistence/sqlite/uow"
	"casetrack/internal/ports"
)

type fixture struct {
	service  *Service
	users    ports.UserRepository
	worklogs ports.WorkLogRepository
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
		&model.QcSummary{},
		&model.CaseTag{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	users := repository.NewUserRepository(db)
	worklogs := repository.NewWorkLogRepository(db)
	return &fixture{
		service: NewService(
			uow.NewUnitOfWork(db),
			repository.NewCaseRepository(db),
			repository.NewProjectRepository(db),
			repository.NewTagRepository(db),
			users,
			worklogs,
			repository.NewQcRepository(db),
		),
		users:    users,
		worklogs: worklogs,
	}
}

func TestRegisterCaseDefaults(t *testing.T) {
	f := setup(t)

	created, err := f.service.RegisterCase(context.Background(), RegisterCaseInput{
		CaseUID: "CT-6001",
		Project: "lung-ct",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.Status != workflow.StatusTodo || created.Revision != 1 {
		t.Fatalf("expected fresh TODO case, got %+v", created)
	}
	if created.Difficulty != workflow.DifficultyNormal {
		t.Fatalf("expected NORMAL default, got %s", created.Difficulty)
	}
	if created.MetadataJSON != "{}" {
		t.Fatalf("expected empty metadata object, got %q", created.MetadataJSON)
	}

	if _, err := f.service.RegisterCase(context.Background(), RegisterCaseInput{CaseUID: "CT-6001"}); !errors.Is(err, workflow.ErrDuplicateCaseUID) {
		t.Fatalf("expected ErrDuplicateCaseUID, got %v", err)
	}
}

func TestImportCSVCountsOutcomes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.service.RegisterCase(ctx, RegisterCaseInput{CaseUID: "CT-6101"}); err != nil {
		t.Fatalf("seed case: %v", err)
	}

	input := strings.Join([]string{
		"case_uid,display_name,hospital,project,difficulty",
		"CT-6101,dup,general,lung-ct,NORMAL",
		"CT-6102,fresh,general,lung-ct,HARD",
		"CT-6103,fresh too,general,lung-ct,EASY",
		",missing uid,general,lung-ct,NORMAL",
	}, "\n")

	summary, err := f.service.ImportCSV(ctx, strings.NewReader(input))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if summary.Created != 2 {
		t.Fatalf("expected 2 created, got %d", summary.Created)
	}
	if summary.Duplicates != 1 {
		t.Fatalf("expected 1 duplicate, got %d", summary.Duplicates)
	}
	if len(summary.Failed) != 1 {
		t.Fatalf("expected 1 failed row, got %v", summary.Failed)
	}
}

func TestImportCSVRequiresCaseUIDColumn(t *testing.T) {
	f := setup(t)

	_, err := f.service.ImportCSV(context.Background(), strings.NewReader("uid,name\nCT-1,x\n"))
	if err == nil {
		t.Fatal("expected an error for a headerless uid column")
	}
}

func TestAssignOnlyActiveWorkers(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.service.RegisterCase(ctx, RegisterCaseInput{CaseUID: "CT-6201"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	admin, err := f.service.RegisterUser(ctx, RegisterUserInput{Username: "boss", Role: "ADMIN"})
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	if _, err := f.service.Assign(ctx, created.ID, admin.ID); !errors.Is(err, workflow.ErrNotAssignableRole) {
		t.Fatalf("expected ErrNotAssignableRole, got %v", err)
	}

	worker, err := f.service.RegisterUser(ctx, RegisterUserInput{Username: "worker"})
	if err != nil {
		t.Fatalf("register worker: %v", err)
	}
	if worker.Role != workflow.RoleWorker {
		t.Fatalf("expected WORKER default role, got %s", worker.Role)
	}

	assigned, err := f.service.Assign(ctx, created.ID, worker.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.AssignedUserID == nil || *assigned.AssignedUserID != worker.ID {
		t.Fatalf("assignee not set: %+v", assigned)
	}

	if err := f.service.SetUserActive(ctx, worker.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := f.service.Assign(ctx, created.ID, worker.ID); !errors.Is(err, workflow.ErrInactiveUser) {
		t.Fatalf("expected ErrInactiveUser, got %v", err)
	}
}

func TestTagsAndFilteredList(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.service.RegisterCase(ctx, RegisterCaseInput{CaseUID: "CT-6301"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := f.service.RegisterCase(ctx, RegisterCaseInput{CaseUID: "CT-6302"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	added, err := f.service.AddTag(ctx, first.ID, "urgent")
	if err != nil || !added {
		t.Fatalf("add tag: added=%v err=%v", added, err)
	}
	added, err = f.service.AddTag(ctx, first.ID, "urgent")
	if err != nil {
		t.Fatalf("re-add tag: %v", err)
	}
	if added {
		t.Fatal("re-adding the same tag must be a no-op")
	}

	items, total, err := f.service.List(ctx, ports.CaseFilter{}, "urgent")
	if err != nil {
		t.Fatalf("list by tag: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != first.ID {
		t.Fatalf("expected only the tagged case, got total=%d items=%+v", total, items)
	}

	removed, err := f.service.RemoveTag(ctx, first.ID, "urgent")
	if err != nil || !removed {
		t.Fatalf("remove tag: removed=%v err=%v", removed, err)
	}
}

func TestDetailAssemblesView(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.service.RegisterCase(ctx, RegisterCaseInput{
		CaseUID: "CT-6401",
		Project: "lung-ct",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := f.service.AddTag(ctx, created.ID, "pilot"); err != nil {
		t.Fatalf("tag: %v", err)
	}

	detail, err := f.service.Detail(ctx, created.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.ProjectName != "lung-ct" {
		t.Fatalf("expected project name, got %q", detail.ProjectName)
	}
	if len(detail.Tags) != 1 || detail.Tags[0] != "pilot" {
		t.Fatalf("expected pilot tag, got %v", detail.Tags)
	}
	if detail.TotalSeconds != 0 {
		t.Fatalf("fresh case must carry no time, got %d", detail.TotalSeconds)
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.service.EnsureAdmin(ctx, "bootstrap-key")
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if first.Role != workflow.RoleAdmin || first.APIKey != "bootstrap-key" {
		t.Fatalf("unexpected admin: %+v", first)
	}

	second, err := f.service.EnsureAdmin(ctx, "different-key")
	if err != nil {
		t.Fatalf("ensure admin again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("ensure must return the existing admin")
	}
	if second.APIKey != "bootstrap-key" {
		t.Fatal("an existing admin keeps its key")
	}
}

func TestListUsersReportsOpenSessions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	worker, err := f.service.RegisterUser(ctx, RegisterUserInput{Username: "worker", Role: "WORKER"})
	if err != nil {
		t.Fatalf("register worker: %v", err)
	}
	idle, err := f.service.RegisterUser(ctx, RegisterUserInput{Username: "idle", Role: "WORKER"})
	if err != nil {
		t.Fatalf("register idle: %v", err)
	}

	c, err := f.service.RegisterCase(ctx, RegisterCaseInput{CaseUID: "CT-6501"})
	if err != nil {
		t.Fatalf("register case: %v", err)
	}
	if _, err := f.worklogs.Append(ctx, ports.WorkLogCreate{
		CaseID:    c.ID,
		UserID:    worker.ID,
		Action:    workflow.ActionStart,
		StartedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("append worklog: %v", err)
	}

	overviews, err := f.service.ListUsers(ctx, false)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}

	sessions := make(map[uint64]int64, len(overviews))
	for _, o := range overviews {
		sessions[o.User.ID] = o.OpenSessions
	}
	if sessions[worker.ID] != 1 {
		t.Fatalf("worker open sessions = %d, want 1", sessions[worker.ID])
	}
	if sessions[idle.ID] != 0 {
		t.Fatalf("idle open sessions = %d, want 0", sessions[idle.ID])
	}
}
