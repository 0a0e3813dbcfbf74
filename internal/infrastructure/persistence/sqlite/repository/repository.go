package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"casetrack/internal/ports"
)

// dbFromContext resolves the handle to run queries on: the transaction stored
// in context when a unit of work is active, the fallback connection otherwise.
func dbFromContext(ctx context.Context, fallback *gorm.DB) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return fallback.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}
