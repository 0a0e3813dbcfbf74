package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"casetrack/internal/domain/workflow"
	"casetrack/internal/errs"
	"casetrack/internal/infrastructure/persistence/sqlite/model"
	"casetrack/internal/ports"
)

type CalendarRepository struct {
	db *gorm.DB
}

func NewCalendarRepository(db *gorm.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

func (r *CalendarRepository) CreateTimeOff(ctx context.Context, input ports.TimeOffCreate) (ports.TimeOff, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.TimeOff{}, err
	}

	row := model.TimeOff{
		UserID:    input.UserID,
		Day:       input.Day,
		Kind:      string(input.Kind),
		Note:      input.Note,
		CreatedAt: time.Now().UTC(),
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return ports.TimeOff{}, errs.Wrap(result.Error, "insert time-off")
	}
	if result.RowsAffected == 0 {
		return ports.TimeOff{}, workflow.ErrDuplicateTimeOff
	}
	return mapTimeOff(row), nil
}

func (r *CalendarRepository) DeleteTimeOff(ctx context.Context, id uint64) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	result := db.Where("time_off_id = ?", id).Delete(&model.TimeOff{})
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "delete time-off")
	}
	return result.RowsAffected > 0, nil
}

func (r *CalendarRepository) ListTimeOffs(ctx context.Context, userID uint64, from, to string) ([]ports.TimeOff, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.TimeOff{}).Where("user_id = ?", userID)
	query = timeOffRange(query, from, to)

	var rows []model.TimeOff
	if err := query.Order("day asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query time-offs")
	}
	return mapTimeOffs(rows), nil
}

func (r *CalendarRepository) ListAllTimeOffs(ctx context.Context, from, to string) ([]ports.TimeOff, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := timeOffRange(db.Model(&model.TimeOff{}), from, to)

	var rows []model.TimeOff
	if err := query.Order("user_id asc, day asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query time-offs")
	}
	return mapTimeOffs(rows), nil
}

func (r *CalendarRepository) ReplaceHolidays(ctx context.Context, year int, entries []ports.Holiday) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	run := func(tx *gorm.DB) error {
		prefix := yearPrefix(year)
		if err := tx.Where("day LIKE ?", prefix+"%").Delete(&model.Holiday{}).Error; err != nil {
			return errs.Wrap(err, "delete year holidays")
		}
		if len(entries) == 0 {
			return nil
		}

		rows := make([]model.Holiday, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, model.Holiday{Day: e.Day, Name: e.Name, Workday: e.Workday})
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "workday"}),
		}).Create(&rows).Error; err != nil {
			return errs.Wrap(err, "insert holidays")
		}
		return nil
	}

	if ports.TxFromContext(ctx) != nil {
		return run(db)
	}
	return db.Transaction(run)
}

func (r *CalendarRepository) ListHolidays(ctx context.Context, from, to string) ([]ports.Holiday, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Holiday{})
	if from != "" {
		query = query.Where("day >= ?", from)
	}
	if to != "" {
		query = query.Where("day <= ?", to)
	}

	var rows []model.Holiday
	if err := query.Order("day asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query holidays")
	}

	items := make([]ports.Holiday, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.Holiday{Day: row.Day, Name: row.Name, Workday: row.Workday})
	}
	return items, nil
}

func timeOffRange(query *gorm.DB, from, to string) *gorm.DB {
	if from != "" {
		query = query.Where("day >= ?", from)
	}
	if to != "" {
		query = query.Where("day <= ?", to)
	}
	return query
}

func yearPrefix(year int) string {
	return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")
}

func mapTimeOff(row model.TimeOff) ports.TimeOff {
	return ports.TimeOff{
		ID:        row.TimeOffID,
		UserID:    row.UserID,
		Day:       row.Day,
		Kind:      workflow.TimeOffKind(row.Kind),
		Note:      row.Note,
		CreatedAt: row.CreatedAt,
	}
}

func mapTimeOffs(rows []model.TimeOff) []ports.TimeOff {
	items := make([]ports.TimeOff, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapTimeOff(row))
	}
	return items
}
