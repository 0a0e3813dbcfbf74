package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"casetrack/internal/domain/workflow"
	"casetrack/internal/errs"
	"casetrack/internal/infrastructure/persistence/sqlite/model"
	"casetrack/internal/ports"
)

type CaseRepository struct {
	db *gorm.DB
}

func NewCaseRepository(db *gorm.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

func (r *CaseRepository) Create(ctx context.Context, input ports.CaseCreate) (ports.Case, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Case{}, err
	}

	row := model.Case{
		CaseUID:      strings.TrimSpace(input.CaseUID),
		DisplayName:  input.DisplayName,
		Hospital:     input.Hospital,
		ProjectID:    input.ProjectID,
		Difficulty:   string(input.Difficulty),
		Status:       string(workflow.StatusTodo),
		Revision:     1,
		MetadataJSON: input.MetadataJSON,
		CreatedAt:    input.CreatedAt,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "case_uid"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return ports.Case{}, errs.Wrap(result.Error, "insert case")
	}
	if result.RowsAffected == 0 {
		return ports.Case{}, workflow.ErrDuplicateCaseUID
	}
	return mapCase(row), nil
}

func (r *CaseRepository) GetByID(ctx context.Context, id uint64) (ports.Case, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Case{}, err
	}

	var row model.Case
	if err := db.Where("case_id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Case{}, workflow.ErrCaseNotFound
		}
		return ports.Case{}, errs.Wrap(err, "query case")
	}
	return mapCase(row), nil
}

func (r *CaseRepository) GetByUID(ctx context.Context, caseUID string) (ports.Case, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Case{}, err
	}

	var row model.Case
	if err := db.Where("case_uid = ?", strings.TrimSpace(caseUID)).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Case{}, workflow.ErrCaseNotFound
		}
		return ports.Case{}, errs.Wrap(err, "query case by uid")
	}
	return mapCase(row), nil
}

func (r *CaseRepository) List(ctx context.Context, filter ports.CaseFilter) ([]ports.Case, int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, 0, err
	}

	query := db.Model(&model.Case{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if len(filter.Statuses) > 0 {
		values := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			values = append(values, string(s))
		}
		query = query.Where("status IN ?", values)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.AssignedUserID != nil {
		query = query.Where("assigned_user_id = ?", *filter.AssignedUserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errs.Wrap(err, "count cases")
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rows []model.Case
	if err := query.Order("case_id asc").Find(&rows).Error; err != nil {
		return nil, 0, errs.Wrap(err, "query cases")
	}

	items := make([]ports.Case, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapCase(row))
	}
	return items, total, nil
}

func (r *CaseRepository) SetAssignee(ctx context.Context, caseID uint64, userID uint64) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Model(&model.Case{}).
		Where("case_id = ?", caseID).
		Update("assigned_user_id", userID)
	if result.Error != nil {
		return errs.Wrap(result.Error, "update case assignee")
	}
	if result.RowsAffected == 0 {
		return workflow.ErrCaseNotFound
	}
	return nil
}

func (r *CaseRepository) UpdateStatusChecked(ctx context.Context, caseID uint64, observedRevision int64, next workflow.CaseStatus, marks ports.CaseTimestamps) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	updates := map[string]any{
		"status":   string(next),
		"revision": gorm.Expr("revision + 1"),
	}
	if marks.StartedAt != nil {
		updates["started_at"] = *marks.StartedAt
	}
	if marks.SubmittedAt != nil {
		updates["submitted_at"] = *marks.SubmittedAt
	}
	if marks.AcceptedAt != nil {
		updates["accepted_at"] = *marks.AcceptedAt
	}

	result := db.Model(&model.Case{}).
		Where("case_id = ? AND revision = ?", caseID, observedRevision).
		Updates(updates)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "update case status")
	}
	return result.RowsAffected > 0, nil
}

func (r *CaseRepository) AppendEvent(ctx context.Context, input ports.EventCreate) (ports.Event, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Event{}, false, err
	}

	row := model.Event{
		CaseID:         input.CaseID,
		ActorID:        input.ActorID,
		EventType:      string(input.EventType),
		IdempotencyKey: input.IdempotencyKey,
		StatusBefore:   string(input.StatusBefore),
		StatusAfter:    string(input.StatusAfter),
		PayloadJSON:    input.PayloadJSON,
		CreatedAt:      input.CreatedAt,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return ports.Event{}, false, errs.Wrap(result.Error, "insert event")
	}
	if result.RowsAffected == 0 {
		existing, found, err := r.GetEventByIdempotencyKey(ctx, input.IdempotencyKey)
		if err != nil {
			return ports.Event{}, false, err
		}
		if !found {
			return ports.Event{}, false, errors.New("event vanished after conflict")
		}
		return existing, false, nil
	}
	return mapEvent(row), true, nil
}

func (r *CaseRepository) GetEventByIdempotencyKey(ctx context.Context, key string) (ports.Event, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Event{}, false, err
	}

	var row model.Event
	if err := db.Where("idempotency_key = ?", key).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Event{}, false, nil
		}
		return ports.Event{}, false, errs.Wrap(err, "query event by idempotency key")
	}
	return mapEvent(row), true, nil
}

func (r *CaseRepository) ListEvents(ctx context.Context, caseID uint64) ([]ports.Event, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Event
	if err := db.
		Where("case_id = ?", caseID).
		Order("event_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query events")
	}

	items := make([]ports.Event, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapEvent(row))
	}
	return items, nil
}

func (r *CaseRepository) ListRecentEvents(ctx context.Context, limit int) ([]ports.Event, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Event{}).Order("event_id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.Event
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query recent events")
	}

	items := make([]ports.Event, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapEvent(row))
	}
	return items, nil
}

func mapCase(row model.Case) ports.Case {
	return ports.Case{
		ID:             row.CaseID,
		CaseUID:        row.CaseUID,
		DisplayName:    row.DisplayName,
		Hospital:       row.Hospital,
		ProjectID:      row.ProjectID,
		Difficulty:     workflow.Difficulty(row.Difficulty),
		Status:         workflow.CaseStatus(row.Status),
		Revision:       row.Revision,
		AssignedUserID: row.AssignedUserID,
		MetadataJSON:   row.MetadataJSON,
		StartedAt:      row.StartedAt,
		SubmittedAt:    row.SubmittedAt,
		AcceptedAt:     row.AcceptedAt,
		CreatedAt:      row.CreatedAt,
	}
}

func mapEvent(row model.Event) ports.Event {
	return ports.Event{
		ID:             row.EventID,
		CaseID:         row.CaseID,
		ActorID:        row.ActorID,
		EventType:      workflow.EventType(row.EventType),
		IdempotencyKey: row.IdempotencyKey,
		StatusBefore:   workflow.CaseStatus(row.StatusBefore),
		StatusAfter:    workflow.CaseStatus(row.StatusAfter),
		PayloadJSON:    row.PayloadJSON,
		CreatedAt:      row.CreatedAt,
	}
}
