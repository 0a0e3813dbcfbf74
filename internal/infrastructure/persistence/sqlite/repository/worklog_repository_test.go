package repository

import (
	"context"
	"testing"
	"time"

	"casetrack/internal/domain/workflow"
	"casetrack/internal/ports"
)

func TestWorkLogRepositoryOpenAndCloseSegment(t *testing.T) {
	db := setupDB(t)
	cases := NewCaseRepository(db)
	repo := NewWorkLogRepository(db)
	ctx := context.Background()

	created := mustCreateCase(t, cases, "CT-1001")
	startedAt := time.Now().UTC().Add(-10 * time.Minute)

	opened, err := repo.Append(ctx, ports.WorkLogCreate{
		CaseID:    created.ID,
		UserID:    3,
		Action:    workflow.ActionStart,
		StartedAt: startedAt,
	})
	if err != nil {
		t.Fatalf("append start: %v", err)
	}

	segment, found, err := repo.OpenSegment(ctx, created.ID, 3)
	if err != nil {
		t.Fatalf("open segment: %v", err)
	}
	if !found || segment.ID != opened.ID {
		t.Fatalf("expected open segment %d, found=%v got=%d", opened.ID, found, segment.ID)
	}

	endedAt := startedAt.Add(10 * time.Minute)
	if err := repo.CloseSegment(ctx, opened.ID, endedAt, 600); err != nil {
		t.Fatalf("close segment: %v", err)
	}

	if _, found, err = repo.OpenSegment(ctx, created.ID, 3); err != nil {
		t.Fatalf("open segment after close: %v", err)
	}
	if found {
		t.Fatal("closed segment must not be reported open")
	}

	total, err := repo.SumSecondsForCase(ctx, created.ID)
	if err != nil {
		t.Fatalf("sum seconds: %v", err)
	}
	if total != 600 {
		t.Fatalf("expected 600 seconds, got %d", total)
	}
}

func TestWorkLogRepositoryClosingActionIsNeverOpen(t *testing.T) {
	db := setupDB(t)
	cases := NewCaseRepository(db)
	repo := NewWorkLogRepository(db)
	ctx := context.Background()

	created := mustCreateCase(t, cases, "CT-1002")

	if _, err := repo.Append(ctx, ports.WorkLogCreate{
		CaseID:    created.ID,
		UserID:    3,
		Action:    workflow.ActionPause,
		StartedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("append pause: %v", err)
	}

	_, found, err := repo.OpenSegment(ctx, created.ID, 3)
	if err != nil {
		t.Fatalf("open segment: %v", err)
	}
	if found {
		t.Fatal("a PAUSE row is not an open segment")
	}
}

func TestWorkLogRepositorySumSecondsByUserDay(t *testing.T) {
	db := setupDB(t)
	cases := NewCaseRepository(db)
	repo := NewWorkLogRepository(db)
	ctx := context.Background()

	created := mustCreateCase(t, cases, "CT-1003")

	day := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)
	for i, seconds := range []int64{600, 300} {
		row, err := repo.Append(ctx, ports.WorkLogCreate{
			CaseID:    created.ID,
			UserID:    3,
			Action:    workflow.ActionStart,
			StartedAt: day.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if err := repo.CloseSegment(ctx, row.ID, row.StartedAt.Add(time.Duration(seconds)*time.Second), seconds); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	slices, err := repo.SumSecondsByUserDay(ctx, day.AddDate(0, 0, -1), day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("sum by user day: %v", err)
	}
	if len(slices) != 1 {
		t.Fatalf("expected one slice, got %d", len(slices))
	}
	if slices[0].UserID != 3 || slices[0].Seconds != 900 {
		t.Fatalf("unexpected slice %+v", slices[0])
	}
	if slices[0].Day != "2026-08-03" {
		t.Fatalf("expected day 2026-08-03, got %s", slices[0].Day)
	}
}

func TestWorkLogRepositoryCountOpenByUser(t *testing.T) {
	db := setupDB(t)
	cases := NewCaseRepository(db)
	repo := NewWorkLogRepository(db)
	ctx := context.Background()

	first := mustCreateCase(t, cases, "CT-1004")
	second := mustCreateCase(t, cases, "CT-1005")

	for _, id := range []uint64{first.ID, second.ID} {
		if _, err := repo.Append(ctx, ports.WorkLogCreate{
			CaseID:    id,
			UserID:    3,
			Action:    workflow.ActionStart,
			StartedAt: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	count, err := repo.CountOpenByUser(ctx, 3)
	if err != nil {
		t.Fatalf("count open: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 open cases, got %d", count)
	}
}
