package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"casetrack/internal/errs"
	"casetrack/internal/infrastructure/persistence/sqlite/model"
	"casetrack/internal/ports"
)

// SQLiteCache keeps key-value pairs in the settings_kv table. It backs the
// settings store, so writes must be visible to every process sharing the
// database file.
type SQLiteCache struct {
	db *gorm.DB
}

var _ ports.Cache = (*SQLiteCache)(nil)

func NewSQLiteCache(db *gorm.DB) *SQLiteCache {
	return &SQLiteCache{db: db}
}

func normalizeKey(ctx context.Context, key string) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return "", errs.Wrap(err, "check context")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("key is required")
	}
	return key, nil
}

func (c *SQLiteCache) Get(ctx context.Context, key string) (string, bool, error) {
	key, err := normalizeKey(ctx, key)
	if err != nil {
		return "", false, err
	}

	var row model.SettingsKV
	if err := c.db.WithContext(ctx).Where("key = ?", key).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, errs.Wrap(err, "query settings key")
	}
	return row.Value, true, nil
}

func (c *SQLiteCache) Set(ctx context.Context, key string, value string) error {
	key, err := normalizeKey(ctx, key)
	if err != nil {
		return err
	}

	row := model.SettingsKV{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      row.Value,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert settings key")
	}
	return nil
}

func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	key, err := normalizeKey(ctx, key)
	if err != nil {
		return err
	}

	if err := c.db.WithContext(ctx).Where("key = ?", key).Delete(&model.SettingsKV{}).Error; err != nil {
		return errs.Wrap(err, "delete settings key")
	}
	return nil
}
