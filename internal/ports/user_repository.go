package ports

import (
	"context"
	"time"

	"casetrack/internal/domain/workflow"
)

type User struct {
	ID          uint64
	Username    string
	DisplayName string
	Role        workflow.Role
	APIKey      string
	Active      bool
	CreatedAt   time.Time
}

type UserCreate struct {
	Username    string
	DisplayName string
	Role        workflow.Role
	APIKey      string
}

type UserRepository interface {
	Create(ctx context.Context, input UserCreate) (User, error)
	GetByID(ctx context.Context, id uint64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, bool, error)
	GetByAPIKey(ctx context.Context, apiKey string) (User, bool, error)
	List(ctx context.Context, activeOnly bool) ([]User, error)
	SetActive(ctx context.Context, id uint64, active bool) error
}
