package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"casetrack/internal/errs"
	"casetrack/internal/infrastructure/persistence/sqlite/model"
	"casetrack/internal/ports"
)

type NotificationLogRepository struct {
	db *gorm.DB
}

func NewNotificationLogRepository(db *gorm.DB) *NotificationLogRepository {
	return &NotificationLogRepository{db: db}
}

func (r *NotificationLogRepository) Record(ctx context.Context, log ports.NotificationLog) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.NotificationLog{
		CaseID:    log.CaseID,
		Channel:   log.Channel,
		EventType: log.EventType,
		Ok:        log.Ok,
		Detail:    log.Detail,
		CreatedAt: log.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert notification log")
	}
	return nil
}

func (r *NotificationLogRepository) ListForCase(ctx context.Context, caseID uint64) ([]ports.NotificationLog, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.NotificationLog
	if err := db.
		Where("case_id = ?", caseID).
		Order("notification_log_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query notification logs")
	}

	items := make([]ports.NotificationLog, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.NotificationLog{
			ID:        row.NotificationLogID,
			CaseID:    row.CaseID,
			Channel:   row.Channel,
			EventType: row.EventType,
			Ok:        row.Ok,
			Detail:    row.Detail,
			CreatedAt: row.CreatedAt,
		})
	}
	return items, nil
}
