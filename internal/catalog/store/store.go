package store

import (
	"context"

	"github.com/google/uuid"

	"subgate/internal/catalog/models"
)

// Store holds the service and plan catalog and their many-to-many mapping.
//
// Error Contract:
// - sentinel.ErrNotFound (wrapped) when the requested entity does not exist
// - sentinel.ErrDuplicate (wrapped) on unique name violations
// - wrapped errors with context for infrastructure failures
//
// Deleting a service or plan cascades to its association rows.
type Store interface {
	CreateService(ctx context.Context, svc *models.Service) error
	FindServiceByName(ctx context.Context, name string) (*models.Service, error)
	UpdateService(ctx context.Context, svc *models.Service) error
	DeleteService(ctx context.Context, serviceID uuid.UUID) error

	CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error
	FindPlanByName(ctx context.Context, name string) (*models.SubscriptionPlan, error)
	UpdatePlan(ctx context.Context, plan *models.SubscriptionPlan) error
	DeletePlan(ctx context.Context, planID uuid.UUID) error

	Associate(ctx context.Context, planID, serviceID uuid.UUID) error
	ReplacePlanServices(ctx context.Context, planID uuid.UUID, serviceIDs []uuid.UUID) error
	PlanIncludesService(ctx context.Context, planID, serviceID uuid.UUID) (bool, error)
	ServicesForPlan(ctx context.Context, planID uuid.UUID) ([]*models.Service, error)
}
