package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"casetrack/internal/errs"
	"casetrack/internal/infrastructure/persistence/sqlite/model"
)

type TagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) Apply(ctx context.Context, caseID uint64, tag string, at time.Time) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false, nil
	}

	row := model.CaseTag{CaseID: caseID, Tag: tag, CreatedAt: at}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "insert case tag")
	}
	return result.RowsAffected > 0, nil
}

func (r *TagRepository) Remove(ctx context.Context, caseID uint64, tag string) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	result := db.Where("case_id = ? AND tag = ?", caseID, strings.TrimSpace(tag)).Delete(&model.CaseTag{})
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "delete case tag")
	}
	return result.RowsAffected > 0, nil
}

func (r *TagRepository) ListTags(ctx context.Context) ([]string, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var tags []string
	if err := db.Model(&model.CaseTag{}).
		Distinct("tag").
		Order("tag asc").
		Pluck("tag", &tags).Error; err != nil {
		return nil, errs.Wrap(err, "query tags")
	}
	return tags, nil
}

func (r *TagRepository) ListCaseIDsByTag(ctx context.Context, tag string) ([]uint64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var ids []uint64
	if err := db.Model(&model.CaseTag{}).
		Where("tag = ?", strings.TrimSpace(tag)).
		Order("case_id asc").
		Pluck("case_id", &ids).Error; err != nil {
		return nil, errs.Wrap(err, "query cases by tag")
	}
	return ids, nil
}

func (r *TagRepository) ListCaseTags(ctx context.Context, caseID uint64) ([]string, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var tags []string
	if err := db.Model(&model.CaseTag{}).
		Where("case_id = ?", caseID).
		Order("tag asc").
		Pluck("tag", &tags).Error; err != nil {
		return nil, errs.Wrap(err, "query case tags")
	}
	return tags, nil
}
