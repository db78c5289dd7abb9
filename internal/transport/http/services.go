package httptransport

import (
	"context"

	"github.com/google/uuid"

	catalogmodels "subgate/internal/catalog/models"
	catalogservice "subgate/internal/catalog/service"
	identitymodels "subgate/internal/identity/models"
	identityservice "subgate/internal/identity/service"
	"subgate/internal/quota/enforcer"
)

// IdentityService covers registration and login.
type IdentityService interface {
	Register(ctx context.Context, in identityservice.RegisterInput) (*identitymodels.User, error)
	Login(ctx context.Context, username, password string) (string, error)
}

// CatalogService covers catalog administration and plan views.
type CatalogService interface {
	CreateService(ctx context.Context, in catalogservice.ServiceInput) (*catalogmodels.Service, error)
	UpdateService(ctx context.Context, oldName string, in catalogservice.ServiceInput) (*catalogmodels.Service, error)
	DeleteService(ctx context.Context, name string) error
	CreatePlan(ctx context.Context, in catalogservice.PlanInput) (*catalogmodels.SubscriptionPlan, error)
	UpdatePlan(ctx context.Context, oldName string, in catalogservice.PlanInput) (*catalogmodels.SubscriptionPlan, error)
	DeletePlan(ctx context.Context, name string) error
	AssociateService(ctx context.Context, serviceName string, planNames []string) error
	PlanWithServices(ctx context.Context, planName string) (*catalogmodels.SubscriptionPlan, []*catalogmodels.Service, error)
}

// SubscriptionService covers plan transitions.
type SubscriptionService interface {
	Subscribe(ctx context.Context, userID uuid.UUID, planName string) (*identitymodels.User, error)
	AdminChangePlan(ctx context.Context, username, planName string) (*identitymodels.User, error)
}

// AccessService decides whether a service call is admitted and charges it.
type AccessService interface {
	Access(ctx context.Context, userID uuid.UUID, planName, serviceName string) (*enforcer.Result, error)
}

// UsageReader exposes a user's current usage counters.
type UsageReader interface {
	CountsForUser(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error)
}
