package settings

import (
	"context"
	"strconv"
	"strings"

	"casetrack/internal/ports"
)

const (
	KeyWorkdayHours       = "workday_hours"
	KeyWIPLimit           = "wip_limit"
	KeyAutoTimeoutMinutes = "auto_timeout_minutes"
)

// Defaults come from the static config and apply when no override has been
// written to the database.
type Defaults struct {
	WorkdayHours       float64
	WIPLimit           int
	AutoTimeoutMinutes int
}

// Store reads workflow knobs with database overrides taking precedence over
// config defaults. A malformed override falls back to the default.
type Store struct {
	cache    ports.Cache
	defaults Defaults
}

func NewStore(cache ports.Cache, defaults Defaults) *Store {
	return &Store{cache: cache, defaults: defaults}
}

func (s *Store) WorkdayHours(ctx context.Context) float64 {
	if v, ok := s.lookupFloat(ctx, KeyWorkdayHours); ok && v > 0 {
		return v
	}
	return s.defaults.WorkdayHours
}

func (s *Store) WIPLimit(ctx context.Context) int {
	if v, ok := s.lookupInt(ctx, KeyWIPLimit); ok && v >= 0 {
		return v
	}
	return s.defaults.WIPLimit
}

func (s *Store) AutoTimeoutMinutes(ctx context.Context) int {
	if v, ok := s.lookupInt(ctx, KeyAutoTimeoutMinutes); ok && v > 0 {
		return v
	}
	return s.defaults.AutoTimeoutMinutes
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.cache.Set(ctx, key, strings.TrimSpace(value))
}

func (s *Store) lookupInt(ctx context.Context, key string) (int, bool) {
	raw, found, err := s.cache.Get(ctx, key)
	if err != nil || !found {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return v, true
}

func (s *Store) lookupFloat(ctx context.Context, key string) (float64, bool) {
	raw, found, err := s.cache.Get(ctx, key)
	if err != nil || !found {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
