package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"casetrack/internal/domain/workflow"
	"casetrack/internal/errs"
	"casetrack/internal/infrastructure/persistence/sqlite/model"
	"casetrack/internal/ports"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, input ports.UserCreate) (ports.User, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.User{}, err
	}

	row := model.User{
		Username:    strings.TrimSpace(input.Username),
		DisplayName: input.DisplayName,
		Role:        string(input.Role),
		APIKey:      input.APIKey,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.User{}, errs.Wrap(err, "insert user")
	}
	return mapUser(row), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint64) (ports.User, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.User{}, err
	}

	var row model.User
	if err := db.Where("user_id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.User{}, workflow.ErrUserNotFound
		}
		return ports.User{}, errs.Wrap(err, "query user")
	}
	return mapUser(row), nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (ports.User, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.User{}, false, err
	}

	var row model.User
	if err := db.Where("username = ?", strings.TrimSpace(username)).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.User{}, false, nil
		}
		return ports.User{}, false, errs.Wrap(err, "query user by username")
	}
	return mapUser(row), true, nil
}

func (r *UserRepository) GetByAPIKey(ctx context.Context, apiKey string) (ports.User, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.User{}, false, err
	}

	var row model.User
	if err := db.Where("api_key = ?", apiKey).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.User{}, false, nil
		}
		return ports.User{}, false, errs.Wrap(err, "query user by api key")
	}
	return mapUser(row), true, nil
}

func (r *UserRepository) List(ctx context.Context, activeOnly bool) ([]ports.User, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.User{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var rows []model.User
	if err := query.Order("user_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query users")
	}

	items := make([]ports.User, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapUser(row))
	}
	return items, nil
}

func (r *UserRepository) SetActive(ctx context.Context, id uint64, active bool) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Model(&model.User{}).
		Where("user_id = ?", id).
		Update("active", active)
	if result.Error != nil {
		return errs.Wrap(result.Error, "update user active flag")
	}
	if result.RowsAffected == 0 {
		return workflow.ErrUserNotFound
	}
	return nil
}

func mapUser(row model.User) ports.User {
	return ports.User{
		ID:          row.UserID,
		Username:    row.Username,
		DisplayName: row.DisplayName,
		Role:        workflow.Role(row.Role),
		APIKey:      row.APIKey,
		Active:      row.Active,
		CreatedAt:   row.CreatedAt,
	}
}
