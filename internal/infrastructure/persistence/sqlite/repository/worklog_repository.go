package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"casetrack/internal/domain/workflow"
	"casetrack/internal/errs"
	"casetrack/internal/infrastructure/persistence/sqlite/model"
	"casetrack/internal/ports"
)

type WorkLogRepository struct {
	db *gorm.DB
}

func NewWorkLogRepository(db *gorm.DB) *WorkLogRepository {
	return &WorkLogRepository{db: db}
}

func (r *WorkLogRepository) Append(ctx context.Context, input ports.WorkLogCreate) (ports.WorkLog, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.WorkLog{}, err
	}

	row := model.WorkLog{
		CaseID:    input.CaseID,
		UserID:    input.UserID,
		Action:    string(input.Action),
		StartedAt: input.StartedAt,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.WorkLog{}, errs.Wrap(err, "insert work log")
	}
	return mapWorkLog(row), nil
}

func (r *WorkLogRepository) LastForCase(ctx context.Context, caseID uint64) (ports.WorkLog, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.WorkLog{}, false, err
	}

	var row model.WorkLog
	if err := db.
		Where("case_id = ?", caseID).
		Order("work_log_id desc").
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.WorkLog{}, false, nil
		}
		return ports.WorkLog{}, false, errs.Wrap(err, "query last work log")
	}
	return mapWorkLog(row), true, nil
}

func (r *WorkLogRepository) OpenSegment(ctx context.Context, caseID uint64, userID uint64) (ports.WorkLog, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.WorkLog{}, false, err
	}

	openActions := []string{
		string(workflow.ActionStart),
		string(workflow.ActionResume),
		string(workflow.ActionReworkStart),
	}

	var row model.WorkLog
	if err := db.
		Where("case_id = ? AND user_id = ? AND action IN ? AND ended_at IS NULL", caseID, userID, openActions).
		Order("work_log_id desc").
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.WorkLog{}, false, nil
		}
		return ports.WorkLog{}, false, errs.Wrap(err, "query open segment")
	}
	return mapWorkLog(row), true, nil
}

func (r *WorkLogRepository) CloseSegment(ctx context.Context, id uint64, endedAt time.Time, seconds int64) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	if err := db.Model(&model.WorkLog{}).
		Where("work_log_id = ?", id).
		Updates(map[string]any{
			"ended_at": endedAt,
			"seconds":  seconds,
		}).Error; err != nil {
		return errs.Wrap(err, "close work-log segment")
	}
	return nil
}

func (r *WorkLogRepository) ListForCase(ctx context.Context, caseID uint64) ([]ports.WorkLog, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.WorkLog
	if err := db.
		Where("case_id = ?", caseID).
		Order("work_log_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query work logs")
	}

	items := make([]ports.WorkLog, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapWorkLog(row))
	}
	return items, nil
}

func (r *WorkLogRepository) SumSecondsForCase(ctx context.Context, caseID uint64) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var total int64
	if err := db.Model(&model.WorkLog{}).
		Where("case_id = ?", caseID).
		Select("coalesce(sum(seconds), 0)").
		Scan(&total).Error; err != nil {
		return 0, errs.Wrap(err, "sum work seconds")
	}
	return total, nil
}

func (r *WorkLogRepository) SumSecondsByUserDay(ctx context.Context, from, to time.Time) ([]ports.WorkSlice, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []ports.WorkSlice
	if err := db.Model(&model.WorkLog{}).
		Select("user_id, date(started_at) AS day, coalesce(sum(seconds), 0) AS seconds").
		Where("started_at >= ? AND started_at < ?", from, to).
		Group("user_id, date(started_at)").
		Order("user_id asc, day asc").
		Scan(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "sum work seconds by user and day")
	}
	return rows, nil
}

func (r *WorkLogRepository) CountOpenByUser(ctx context.Context, userID uint64) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	openActions := []string{
		string(workflow.ActionStart),
		string(workflow.ActionResume),
		string(workflow.ActionReworkStart),
	}

	var count int64
	if err := db.Model(&model.WorkLog{}).
		Where("user_id = ? AND action IN ? AND ended_at IS NULL", userID, openActions).
		Distinct("case_id").
		Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count open segments")
	}
	return count, nil
}

func mapWorkLog(row model.WorkLog) ports.WorkLog {
	return ports.WorkLog{
		ID:        row.WorkLogID,
		CaseID:    row.CaseID,
		UserID:    row.UserID,
		Action:    workflow.Action(row.Action),
		StartedAt: row.StartedAt,
		EndedAt:   row.EndedAt,
		Seconds:   row.Seconds,
		CreatedAt: row.CreatedAt,
	}
}
