// Package seeder populates the in-memory stores with demo data so the server
// is usable out of the box when no database is configured.
package seeder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	catalogmodels "subgate/internal/catalog/models"
	identitymodels "subgate/internal/identity/models"
	"subgate/pkg/secrets"
)

// UserStore defines methods for seeding users.
type UserStore interface {
	Create(ctx context.Context, user *identitymodels.User) error
}

// CatalogStore defines methods for seeding services, plans, and associations.
type CatalogStore interface {
	CreateService(ctx context.Context, svc *catalogmodels.Service) error
	CreatePlan(ctx context.Context, plan *catalogmodels.SubscriptionPlan) error
	Associate(ctx context.Context, planID, serviceID uuid.UUID) error
}

// Seeder populates in-memory stores with demo data.
type Seeder struct {
	users   UserStore
	catalog CatalogStore
	logger  *slog.Logger
}

// New creates a new seeder.
func New(users UserStore, catalog CatalogStore, logger *slog.Logger) *Seeder {
	return &Seeder{
		users:   users,
		catalog: catalog,
		logger:  logger,
	}
}

// SeedAll populates the stores with an admin account, a demo customer, two
// services, and the default plan covering them.
func (s *Seeder) SeedAll(ctx context.Context) error {
	services, err := s.seedServices(ctx)
	if err != nil {
		return fmt.Errorf("seed services: %w", err)
	}
	if err := s.seedPlans(ctx, services); err != nil {
		return fmt.Errorf("seed plans: %w", err)
	}
	if err := s.seedUsers(ctx); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	s.logger.InfoContext(ctx, "demo data seeded",
		"services", len(services),
		"admin_username", "admin",
	)
	return nil
}

func (s *Seeder) seedServices(ctx context.Context) ([]*catalogmodels.Service, error) {
	services := []*catalogmodels.Service{
		{
			ID:          uuid.New(),
			Name:        "storage",
			Endpoint:    "https://storage.internal",
			Description: "Object storage access",
		},
		{
			ID:          uuid.New(),
			Name:        "compute",
			Endpoint:    "https://compute.internal",
			Description: "Batch compute jobs",
		},
	}
	for _, svc := range services {
		if err := s.catalog.CreateService(ctx, svc); err != nil {
			return nil, err
		}
	}
	return services, nil
}

func (s *Seeder) seedPlans(ctx context.Context, services []*catalogmodels.Service) error {
	basic := &catalogmodels.SubscriptionPlan{
		ID:          uuid.New(),
		Name:        identitymodels.DefaultPlanName,
		CallLimit:   10,
		Description: "Default plan with a small daily allowance",
	}
	if err := s.catalog.CreatePlan(ctx, basic); err != nil {
		return err
	}
	for _, svc := range services {
		if err := s.catalog.Associate(ctx, basic.ID, svc.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedUsers(ctx context.Context) error {
	accounts := []struct {
		username string
		password string
		role     identitymodels.Role
	}{
		{"admin", "admin", identitymodels.RoleAdmin},
		{"demo", "demo", identitymodels.RoleCustomer},
	}
	for _, a := range accounts {
		hash, err := secrets.Hash(a.password)
		if err != nil {
			return err
		}
		user := &identitymodels.User{
			ID:           uuid.New(),
			Username:     a.username,
			PasswordHash: hash,
			Role:         a.role,
			PlanName:     identitymodels.DefaultPlanName,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
	}
	return nil
}
