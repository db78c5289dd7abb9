package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"subgate/internal/identity/models"
	"subgate/internal/sentinel"
)

type InMemoryUserStoreSuite struct {
	suite.Suite
	store *InMemoryUserStore
}

func (s *InMemoryUserStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func (s *InMemoryUserStoreSuite) TestCreateAndFind() {
	user := &models.User{
		ID:           uuid.New(),
		Username:     "jane",
		PasswordHash: "$2a$10$hash",
		Role:         models.RoleCustomer,
		PlanName:     models.DefaultPlanName,
	}

	err := s.store.Create(context.Background(), user)
	require.NoError(s.T(), err)

	foundByID, err := s.store.FindByID(context.Background(), user.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), user, foundByID)

	foundByName, err := s.store.FindByUsername(context.Background(), "jane")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), user, foundByName)
}

func (s *InMemoryUserStoreSuite) TestCreateDuplicateUsername() {
	first := &models.User{ID: uuid.New(), Username: "jane", Role: models.RoleCustomer, PlanName: "basic"}
	require.NoError(s.T(), s.store.Create(context.Background(), first))

	second := &models.User{ID: uuid.New(), Username: "jane", Role: models.RoleCustomer, PlanName: "basic"}
	err := s.store.Create(context.Background(), second)
	assert.ErrorIs(s.T(), err, sentinel.ErrDuplicate)
}

func (s *InMemoryUserStoreSuite) TestFindNotFound() {
	_, err := s.store.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)

	_, err = s.store.FindByUsername(context.Background(), "missing")
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *InMemoryUserStoreSuite) TestSetPlan() {
	user := &models.User{ID: uuid.New(), Username: "jane", Role: models.RoleCustomer, PlanName: "basic"}
	require.NoError(s.T(), s.store.Create(context.Background(), user))

	require.NoError(s.T(), s.store.SetPlan(context.Background(), user.ID, "pro"))

	found, err := s.store.FindByID(context.Background(), user.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "pro", found.PlanName)

	err = s.store.SetPlan(context.Background(), uuid.New(), "pro")
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *InMemoryUserStoreSuite) TestReturnsCopies() {
	user := &models.User{ID: uuid.New(), Username: "jane", Role: models.RoleCustomer, PlanName: "basic"}
	require.NoError(s.T(), s.store.Create(context.Background(), user))

	found, err := s.store.FindByID(context.Background(), user.ID)
	require.NoError(s.T(), err)
	found.PlanName = "mutated"

	again, err := s.store.FindByID(context.Background(), user.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "basic", again.PlanName)
}

func TestInMemoryUserStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryUserStoreSuite))
}
