package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"subgate/internal/identity/models"
	"subgate/internal/sentinel"
)

// InMemoryUserStore stores users in memory for tests and database-less dev mode.
type InMemoryUserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*models.User
}

// NewInMemory constructs an empty in-memory user store.
func NewInMemory() *InMemoryUserStore {
	return &InMemoryUserStore{users: make(map[uuid.UUID]*models.User)}
}

func (s *InMemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return fmt.Errorf("username %q: %w", user.Username, sentinel.ErrDuplicate)
		}
	}
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[userID]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
}

func (s *InMemoryUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, sentinel.ErrNotFound)
}

func (s *InMemoryUserStore) SetPlan(_ context.Context, userID uuid.UUID, planName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	user.PlanName = planName
	return nil
}
