package settings

import (
	"context"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"casetrack/internal/infrastructure/cache"
	"casetrack/internal/infrastructure/persistence/sqlite/model"
)

func newStore(t *testing.T) *Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.SettingsKV{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	return NewStore(cache.NewSQLiteCache(db), Defaults{
		WorkdayHours:       8,
		WIPLimit:           3,
		AutoTimeoutMinutes: 30,
	})
}

func TestStoreFallsBackToDefaults(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if got := store.WorkdayHours(ctx); got != 8 {
		t.Fatalf("expected default 8, got %v", got)
	}
	if got := store.WIPLimit(ctx); got != 3 {
		t.Fatalf("expected default 3, got %d", got)
	}
	if got := store.AutoTimeoutMinutes(ctx); got != 30 {
		t.Fatalf("expected default 30, got %d", got)
	}
}

func TestStoreOverridesWinOverDefaults(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, KeyWIPLimit, "5"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, KeyWorkdayHours, "7.5"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if got := store.WIPLimit(ctx); got != 5 {
		t.Fatalf("expected override 5, got %d", got)
	}
	if got := store.WorkdayHours(ctx); got != 7.5 {
		t.Fatalf("expected override 7.5, got %v", got)
	}
}

func TestStoreMalformedOverrideFallsBack(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, KeyWIPLimit, "lots"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := store.WIPLimit(ctx); got != 3 {
		t.Fatalf("malformed override must fall back to 3, got %d", got)
	}

	if err := store.Set(ctx, KeyAutoTimeoutMinutes, "-10"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := store.AutoTimeoutMinutes(ctx); got != 30 {
		t.Fatalf("negative override must fall back to 30, got %d", got)
	}
}
