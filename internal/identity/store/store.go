package store

import (
	"context"

	"github.com/google/uuid"

	"subgate/internal/identity/models"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return sentinel.ErrNotFound (wrapped) when the requested entity does not exist
// - Return sentinel.ErrDuplicate (wrapped) when a unique constraint is violated
// - Return wrapped errors with context for infrastructure failures
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	SetPlan(ctx context.Context, userID uuid.UUID, planName string) error
}
