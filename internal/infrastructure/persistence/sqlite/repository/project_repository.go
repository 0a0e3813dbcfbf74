package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"casetrack/internal/errs"
	"casetrack/internal/infrastructure/persistence/sqlite/model"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) GetOrCreate(ctx context.Context, name string) (uint64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "default"
	}

	row := model.Project{Name: name, CreatedAt: time.Now().UTC()}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&row).Error; err != nil {
		return 0, errs.Wrap(err, "insert project")
	}
	if row.ProjectID != 0 {
		return row.ProjectID, nil
	}

	var existing model.Project
	if err := db.Where("name = ?", name).Take(&existing).Error; err != nil {
		return 0, errs.Wrap(err, "query project")
	}
	return existing.ProjectID, nil
}

func (r *ProjectRepository) GetName(ctx context.Context, id uint64) (string, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return "", err
	}

	var row model.Project
	if err := db.Where("project_id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", errs.Wrap(err, "query project")
	}
	return row.Name, nil
}
