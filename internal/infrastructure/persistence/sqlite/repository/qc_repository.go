package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"casetrack/internal/domain/workflow"
	"casetrack/internal/errs"
	"casetrack/internal/infrastructure/persistence/sqlite/model"
	"casetrack/internal/ports"
)

type QcRepository struct {
	db *gorm.DB
}

func NewQcRepository(db *gorm.DB) *QcRepository {
	return &QcRepository{db: db}
}

func (r *QcRepository) Upsert(ctx context.Context, input ports.QcSummaryUpsert) (ports.QcSummary, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.QcSummary{}, err
	}

	row := model.QcSummary{
		CaseID:         input.CaseID,
		Kind:           string(input.Kind),
		Classification: string(input.Classification),
		RuleHits:       input.RuleHits,
		DetailJSON:     input.DetailJSON,
		CreatedAt:      input.At,
		UpdatedAt:      input.At,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "case_id"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"classification", "rule_hits", "detail_json", "updated_at",
		}),
	}).Create(&row).Error; err != nil {
		return ports.QcSummary{}, errs.Wrap(err, "upsert qc summary")
	}

	stored, found, err := r.Get(ctx, input.CaseID, input.Kind)
	if err != nil {
		return ports.QcSummary{}, err
	}
	if !found {
		return ports.QcSummary{}, errors.New("qc summary vanished after upsert")
	}
	return stored, nil
}

func (r *QcRepository) Get(ctx context.Context, caseID uint64, kind workflow.QcKind) (ports.QcSummary, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.QcSummary{}, false, err
	}

	var row model.QcSummary
	if err := db.Where("case_id = ? AND kind = ?", caseID, string(kind)).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.QcSummary{}, false, nil
		}
		return ports.QcSummary{}, false, errs.Wrap(err, "query qc summary")
	}
	return mapQcSummary(row), true, nil
}

func (r *QcRepository) ListForCase(ctx context.Context, caseID uint64) ([]ports.QcSummary, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.QcSummary
	if err := db.
		Where("case_id = ?", caseID).
		Order("kind asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query qc summaries")
	}

	items := make([]ports.QcSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapQcSummary(row))
	}
	return items, nil
}

func (r *QcRepository) ListSince(ctx context.Context, since time.Time) ([]ports.QcSummary, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.QcSummary
	if err := db.
		Where("updated_at >= ?", since).
		Order("qc_summary_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query qc summaries since")
	}

	items := make([]ports.QcSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapQcSummary(row))
	}
	return items, nil
}

func mapQcSummary(row model.QcSummary) ports.QcSummary {
	return ports.QcSummary{
		ID:             row.QcSummaryID,
		CaseID:         row.CaseID,
		Kind:           workflow.QcKind(row.Kind),
		Classification: workflow.QcClassification(row.Classification),
		RuleHits:       row.RuleHits,
		DetailJSON:     row.DetailJSON,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
