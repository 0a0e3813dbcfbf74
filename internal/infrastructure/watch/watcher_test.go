package watch

import (
	"context"
	"os"
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
	"casetrack/internal/usecase/engine"
	"casetrack/internal/usecase/qc"
	"casetrack/internal/usecase/settings"
)

type fixture struct {
	watcher *Watcher
	dir     string
	cases   ports.CaseRepository
	qc      ports.QcRepository
}

func setup(t *testing.T) *fixture {
	t.Helper()

	base := t.TempDir()
	db, err := gorm.Open(gormsqlite.Open(filepath.Join(base, "test.sqlite")), &gorm.Config{})
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
		&model.NotificationLog{},
		&model.SettingsKV{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	cases := repository.NewCaseRepository(db)
	users := repository.NewUserRepository(db)
	qcRepo := repository.NewQcRepository(db)
	unit := uow.NewUnitOfWork(db)
	store := settings.NewStore(cache.NewSQLiteCache(db), settings.Defaults{
		WorkdayHours:       8,
		WIPLimit:           3,
		AutoTimeoutMinutes: 30,
	})
	eng := engine.NewService(unit, cases, users, store, repository.NewNotificationLogRepository(db), nil, time.Second)
	qcSvc := qc.NewService(unit, qcRepo, cases, eng)

	admin, err := users.Create(context.Background(), ports.UserCreate{
		Username:    "admin",
		DisplayName: "admin",
		Role:        workflow.RoleAdmin,
		APIKey:      "key-admin",
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}

	dir := filepath.Join(base, "drops")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	return &fixture{
		watcher: New(dir, qcSvc, admin.ID),
		dir:     dir,
		cases:   cases,
		qc:      qcRepo,
	}
}

func (f *fixture) addCase(t *testing.T, uid string) ports.Case {
	t.Helper()
	c, err := f.cases.Create(context.Background(), ports.CaseCreate{
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
	return c
}

func (f *fixture) drop(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write drop file: %v", err)
	}
	return path
}

func TestSweepIngestsAndMarksDone(t *testing.T) {
	f := setup(t)
	c := f.addCase(t, "CT-9001")

	path := f.drop(t, "ct-9001.json", `{
		"case_uid": "CT-9001",
		"kind": "precheck",
		"classification": "warn",
		"rule_hits": 3,
		"detail": {"rules": ["R1", "R2", "R3"]}
	}`)

	f.watcher.sweep(context.Background())

	if _, err := os.Stat(path + ".done"); err != nil {
		t.Fatalf("expected %s.done: %v", path, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("original file must be renamed away")
	}

	stored, found, err := f.qc.Get(context.Background(), c.ID, workflow.QcKindPreCheck)
	if err != nil || !found {
		t.Fatalf("summary not stored: found=%v err=%v", found, err)
	}
	if stored.Classification != workflow.QcWarn || stored.RuleHits != 3 {
		t.Fatalf("unexpected summary: %+v", stored)
	}
}

func TestSweepMarksFailuresErr(t *testing.T) {
	f := setup(t)

	malformed := f.drop(t, "broken.json", "{not json")
	unknownCase := f.drop(t, "missing.json", `{"case_uid":"CT-nope","kind":"AUTOCHECK","classification":"PASS"}`)

	f.watcher.sweep(context.Background())

	if _, err := os.Stat(malformed + ".err"); err != nil {
		t.Fatalf("expected malformed file marked .err: %v", err)
	}
	if _, err := os.Stat(unknownCase + ".err"); err != nil {
		t.Fatalf("expected unknown-case file marked .err: %v", err)
	}
}

func TestSweepIgnoresNonJSONAndProcessedFiles(t *testing.T) {
	f := setup(t)
	f.addCase(t, "CT-9002")

	ignored := f.drop(t, "notes.txt", "not a summary")
	done := f.drop(t, "old.json.done", `{"case_uid":"CT-9002","kind":"AUTOCHECK","classification":"PASS"}`)

	f.watcher.sweep(context.Background())

	if _, err := os.Stat(ignored); err != nil {
		t.Fatalf("non-json file must be untouched: %v", err)
	}
	if _, err := os.Stat(done); err != nil {
		t.Fatalf("already processed file must be untouched: %v", err)
	}
}
