package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"subgate/internal/catalog/models"
	"subgate/internal/sentinel"
)

// InMemoryStore keeps the catalog in process memory for tests and
// database-less dev mode.
type InMemoryStore struct {
	mu           sync.RWMutex
	services     map[uuid.UUID]*models.Service
	plans        map[uuid.UUID]*models.SubscriptionPlan
	associations map[uuid.UUID]map[uuid.UUID]bool // plan id -> service id set
}

// NewInMemory constructs an empty in-memory catalog store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		services:     make(map[uuid.UUID]*models.Service),
		plans:        make(map[uuid.UUID]*models.SubscriptionPlan),
		associations: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (s *InMemoryStore) CreateService(_ context.Context, svc *models.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.serviceByNameLocked(svc.Name) != nil {
		return fmt.Errorf("service %q: %w", svc.Name, sentinel.ErrDuplicate)
	}
	clone := *svc
	s.services[svc.ID] = &clone
	return nil
}

func (s *InMemoryStore) FindServiceByName(_ context.Context, name string) (*models.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if svc := s.serviceByNameLocked(name); svc != nil {
		clone := *svc
		return &clone, nil
	}
	return nil, fmt.Errorf("service %q: %w", name, sentinel.ErrNotFound)
}

func (s *InMemoryStore) UpdateService(_ context.Context, svc *models.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.services[svc.ID]
	if !ok {
		return fmt.Errorf("service %s: %w", svc.ID, sentinel.ErrNotFound)
	}
	if other := s.serviceByNameLocked(svc.Name); other != nil && other.ID != svc.ID {
		return fmt.Errorf("service %q: %w", svc.Name, sentinel.ErrDuplicate)
	}
	*current = *svc
	return nil
}

func (s *InMemoryStore) DeleteService(_ context.Context, serviceID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.services[serviceID]; !ok {
		return fmt.Errorf("service %s: %w", serviceID, sentinel.ErrNotFound)
	}
	delete(s.services, serviceID)
	for _, set := range s.associations {
		delete(set, serviceID)
	}
	return nil
}

func (s *InMemoryStore) CreatePlan(_ context.Context, plan *models.SubscriptionPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.planByNameLocked(plan.Name) != nil {
		return fmt.Errorf("plan %q: %w", plan.Name, sentinel.ErrDuplicate)
	}
	clone := *plan
	s.plans[plan.ID] = &clone
	return nil
}

func (s *InMemoryStore) FindPlanByName(_ context.Context, name string) (*models.SubscriptionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if plan := s.planByNameLocked(name); plan != nil {
		clone := *plan
		return &clone, nil
	}
	return nil, fmt.Errorf("plan %q: %w", name, sentinel.ErrNotFound)
}

func (s *InMemoryStore) UpdatePlan(_ context.Context, plan *models.SubscriptionPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.plans[plan.ID]
	if !ok {
		return fmt.Errorf("plan %s: %w", plan.ID, sentinel.ErrNotFound)
	}
	if other := s.planByNameLocked(plan.Name); other != nil && other.ID != plan.ID {
		return fmt.Errorf("plan %q: %w", plan.Name, sentinel.ErrDuplicate)
	}
	*current = *plan
	return nil
}

func (s *InMemoryStore) DeletePlan(_ context.Context, planID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[planID]; !ok {
		return fmt.Errorf("plan %s: %w", planID, sentinel.ErrNotFound)
	}
	delete(s.plans, planID)
	delete(s.associations, planID)
	return nil
}

func (s *InMemoryStore) Associate(_ context.Context, planID, serviceID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[planID]; !ok {
		return fmt.Errorf("plan %s: %w", planID, sentinel.ErrNotFound)
	}
	if _, ok := s.services[serviceID]; !ok {
		return fmt.Errorf("service %s: %w", serviceID, sentinel.ErrNotFound)
	}
	set, ok := s.associations[planID]
	if !ok {
		set = make(map[uuid.UUID]bool)
		s.associations[planID] = set
	}
	set[serviceID] = true
	return nil
}

func (s *InMemoryStore) ReplacePlanServices(_ context.Context, planID uuid.UUID, serviceIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[planID]; !ok {
		return fmt.Errorf("plan %s: %w", planID, sentinel.ErrNotFound)
	}
	set := make(map[uuid.UUID]bool, len(serviceIDs))
	for _, serviceID := range serviceIDs {
		if _, ok := s.services[serviceID]; !ok {
			return fmt.Errorf("service %s: %w", serviceID, sentinel.ErrNotFound)
		}
		set[serviceID] = true
	}
	s.associations[planID] = set
	return nil
}

func (s *InMemoryStore) PlanIncludesService(_ context.Context, planID, serviceID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.associations[planID][serviceID], nil
}

func (s *InMemoryStore) ServicesForPlan(_ context.Context, planID uuid.UUID) ([]*models.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var services []*models.Service
	for serviceID := range s.associations[planID] {
		if svc, ok := s.services[serviceID]; ok {
			clone := *svc
			services = append(services, &clone)
		}
	}
	sort.Slice(services, func(i, j int) bool { return services[i].Name < services[j].Name })
	return services, nil
}

func (s *InMemoryStore) serviceByNameLocked(name string) *models.Service {
	for _, svc := range s.services {
		if svc.Name == name {
			return svc
		}
	}
	return nil
}

func (s *InMemoryStore) planByNameLocked(name string) *models.SubscriptionPlan {
	for _, plan := range s.plans {
		if plan.Name == name {
			return plan
		}
	}
	return nil
}
