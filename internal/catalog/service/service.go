package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"subgate/internal/catalog/models"
	"subgate/internal/catalog/store"
	"subgate/internal/sentinel"
	dErrors "subgate/pkg/domain-errors"
)

// Service implements catalog administration: CRUD over services and plans
// plus their associations, with referential-integrity checks. The quota
// enforcer reads the same store, so every change here takes effect on the
// next access with no cache to invalidate.
type Service struct {
	catalog store.Store
	logger  *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs the catalog service.
func New(catalog store.Store, opts ...Option) *Service {
	svc := &Service{
		catalog: catalog,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// ServiceInput carries a service definition for create and update.
type ServiceInput struct {
	Name        string
	Endpoint    string
	Description string
}

// PlanInput carries a plan definition for create and update, including the
// names of the services it grants access to.
type PlanInput struct {
	Name        string
	Limit       int
	Description string
	Services    []string
}

func (in ServiceInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "service name is required")
	}
	return nil
}

func (in PlanInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "plan name is required")
	}
	if in.Limit < 0 {
		return dErrors.New(dErrors.CodeValidation, "plan limit must not be negative")
	}
	return nil
}

// CreateService adds a new service to the catalog.
func (s *Service) CreateService(ctx context.Context, in ServiceInput) (*models.Service, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	svc := &models.Service{
		ID:          uuid.New(),
		Name:        in.Name,
		Endpoint:    in.Endpoint,
		Description: in.Description,
	}
	if err := s.catalog.CreateService(ctx, svc); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, fmt.Sprintf("service %q already exists", in.Name))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not create service")
	}

	s.logger.InfoContext(ctx, "service created", "service", svc.Name, "service_id", svc.ID)
	return svc, nil
}

// UpdateService redefines the service currently named oldName.
// The new name is checked for clashes before the old name is resolved.
func (s *Service) UpdateService(ctx context.Context, oldName string, in ServiceInput) (*models.Service, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	if in.Name != oldName {
		if _, err := s.catalog.FindServiceByName(ctx, in.Name); err == nil {
			return nil, dErrors.New(dErrors.CodeConflict, fmt.Sprintf("service %q already exists", in.Name))
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not check service name")
		}
	}

	svc, err := s.catalog.FindServiceByName(ctx, oldName)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("service %q does not exist", oldName))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load service")
	}

	svc.Name = in.Name
	svc.Endpoint = in.Endpoint
	svc.Description = in.Description
	if err := s.catalog.UpdateService(ctx, svc); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, fmt.Sprintf("service %q already exists", in.Name))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not update service")
	}

	s.logger.InfoContext(ctx, "service updated", "service", svc.Name, "previous_name", oldName)
	return svc, nil
}

// DeleteService removes a service by name; its plan associations go with it.
func (s *Service) DeleteService(ctx context.Context, name string) error {
	svc, err := s.catalog.FindServiceByName(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("service %q does not exist", name))
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not load service")
	}
	if err := s.catalog.DeleteService(ctx, svc.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not delete service")
	}

	s.logger.InfoContext(ctx, "service deleted", "service", name)
	return nil
}

// CreatePlan adds a new plan and associates the named services with it.
// Every referenced service must already exist.
func (s *Service) CreatePlan(ctx context.Context, in PlanInput) (*models.SubscriptionPlan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	if _, err := s.catalog.FindPlanByName(ctx, in.Name); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, fmt.Sprintf("plan %q already exists", in.Name))
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not check plan name")
	}

	serviceIDs, err := s.resolveServices(ctx, in.Services)
	if err != nil {
		return nil, err
	}

	plan := &models.SubscriptionPlan{
		ID:          uuid.New(),
		Name:        in.Name,
		CallLimit:   in.Limit,
		Description: in.Description,
	}
	if err := s.catalog.CreatePlan(ctx, plan); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, fmt.Sprintf("plan %q already exists", in.Name))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not create plan")
	}
	for _, serviceID := range serviceIDs {
		if err := s.catalog.Associate(ctx, plan.ID, serviceID); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not associate service with plan")
		}
	}

	s.logger.InfoContext(ctx, "plan created",
		"plan", plan.Name,
		"limit", plan.CallLimit,
		"services", len(serviceIDs),
	)
	return plan, nil
}

// UpdatePlan redefines the plan currently named oldName and replaces its
// service associations with the given set.
func (s *Service) UpdatePlan(ctx context.Context, oldName string, in PlanInput) (*models.SubscriptionPlan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	plan, err := s.catalog.FindPlanByName(ctx, oldName)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("plan %q does not exist", oldName))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load plan")
	}

	serviceIDs, err := s.resolveServices(ctx, in.Services)
	if err != nil {
		return nil, err
	}

	plan.Name = in.Name
	plan.CallLimit = in.Limit
	plan.Description = in.Description
	if err := s.catalog.UpdatePlan(ctx, plan); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, fmt.Sprintf("plan %q already exists", in.Name))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not update plan")
	}
	if err := s.catalog.ReplacePlanServices(ctx, plan.ID, serviceIDs); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not replace plan services")
	}

	s.logger.InfoContext(ctx, "plan updated",
		"plan", plan.Name,
		"previous_name", oldName,
		"limit", plan.CallLimit,
	)
	return plan, nil
}

// DeletePlan removes a plan by name; its service associations go with it.
func (s *Service) DeletePlan(ctx context.Context, name string) error {
	plan, err := s.catalog.FindPlanByName(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("plan %q does not exist", name))
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not load plan")
	}
	if err := s.catalog.DeletePlan(ctx, plan.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not delete plan")
	}

	s.logger.InfoContext(ctx, "plan deleted", "plan", name)
	return nil
}

// AssociateService adds the named service to each of the named plans.
// Already-present pairs are left as they are.
func (s *Service) AssociateService(ctx context.Context, serviceName string, planNames []string) error {
	svc, err := s.catalog.FindServiceByName(ctx, serviceName)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("service %q does not exist", serviceName))
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not load service")
	}

	plans := make([]*models.SubscriptionPlan, 0, len(planNames))
	var missing []string
	for _, name := range planNames {
		plan, err := s.catalog.FindPlanByName(ctx, name)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				missing = append(missing, name)
				continue
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "could not load plan")
		}
		plans = append(plans, plan)
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeNotFound,
			fmt.Sprintf("the following plans do not exist: %s", strings.Join(missing, ", ")))
	}

	for _, plan := range plans {
		if err := s.catalog.Associate(ctx, plan.ID, svc.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "could not associate service with plan")
		}
	}

	s.logger.InfoContext(ctx, "service associated",
		"service", serviceName,
		"plans", len(plans),
	)
	return nil
}

// PlanWithServices returns a plan and its associated services by plan name.
// Used by the subscription views.
func (s *Service) PlanWithServices(ctx context.Context, planName string) (*models.SubscriptionPlan, []*models.Service, error) {
	plan, err := s.catalog.FindPlanByName(ctx, planName)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("plan %q does not exist", planName))
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load plan")
	}
	services, err := s.catalog.ServicesForPlan(ctx, plan.ID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not list plan services")
	}
	return plan, services, nil
}

// resolveServices maps service names to ids, reporting every missing name.
func (s *Service) resolveServices(ctx context.Context, names []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(names))
	var missing []string
	for _, name := range names {
		svc, err := s.catalog.FindServiceByName(ctx, name)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				missing = append(missing, name)
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load service")
		}
		ids = append(ids, svc.ID)
	}
	if len(missing) > 0 {
		return nil, dErrors.New(dErrors.CodeNotFound,
			fmt.Sprintf("the following services do not exist: %s", strings.Join(missing, ", ")))
	}
	return ids, nil
}
