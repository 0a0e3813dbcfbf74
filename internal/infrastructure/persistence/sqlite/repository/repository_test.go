package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"casetrack/internal/domain/workflow"
	"casetrack/internal/infrastructure/persistence/sqlite/model"
	"casetrack/internal/ports"
)

func setupDB(t *testing.T) *gorm.DB {
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
		&model.TimeOff{},
		&model.Holiday{},
		&model.NotificationLog{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func mustCreateCase(t *testing.T, repo *CaseRepository, uid string) ports.Case {
	t.Helper()

	created, err := repo.Create(context.Background(), ports.CaseCreate{
		CaseUID:      uid,
		DisplayName:  "case " + uid,
		Hospital:     "general",
		ProjectID:    1,
		Difficulty:   workflow.DifficultyNormal,
		MetadataJSON: "{}",
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create case %s: %v", uid, err)
	}
	return created
}
