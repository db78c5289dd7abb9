package transition

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	catalogmodels "subgate/internal/catalog/models"
	catalogstore "subgate/internal/catalog/store"
	identitymodels "subgate/internal/identity/models"
	identitystore "subgate/internal/identity/store"
	"subgate/internal/quota/ledger"
	domainerrors "subgate/pkg/domain-errors"
)

type TransitionSuite struct {
	suite.Suite
	ctx     context.Context
	users   *identitystore.InMemoryUserStore
	catalog *catalogstore.InMemoryStore
	usage   *ledger.InMemoryStore
	svc     *Service

	user *identitymodels.User
	pro  *catalogmodels.SubscriptionPlan
}

func TestTransitionSuite(t *testing.T) {
	suite.Run(t, new(TransitionSuite))
}

func (s *TransitionSuite) SetupTest() {
	s.ctx = context.Background()
	s.users = identitystore.NewInMemory()
	s.catalog = catalogstore.NewInMemory()
	s.usage = ledger.NewInMemory()
	s.svc = New(s.users, s.catalog, s.usage, nil,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	s.user = &identitymodels.User{
		ID:           uuid.New(),
		Username:     "alice",
		PasswordHash: "x",
		Role:         identitymodels.RoleCustomer,
		PlanName:     "basic",
	}
	s.Require().NoError(s.users.Create(s.ctx, s.user))

	basic := &catalogmodels.SubscriptionPlan{ID: uuid.New(), Name: "basic", CallLimit: 5}
	s.Require().NoError(s.catalog.CreatePlan(s.ctx, basic))
	s.pro = &catalogmodels.SubscriptionPlan{ID: uuid.New(), Name: "pro", CallLimit: 100}
	s.Require().NoError(s.catalog.CreatePlan(s.ctx, s.pro))
}

func (s *TransitionSuite) charge(serviceID uuid.UUID, times int) {
	for range times {
		_, err := s.usage.Increment(s.ctx, ledger.Key{UserID: s.user.ID, ServiceID: serviceID}, 1000)
		s.Require().NoError(err)
	}
}

func (s *TransitionSuite) TestSubscribeChangesPlanAndResetsUsage() {
	serviceID := uuid.New()
	s.charge(serviceID, 3)

	updated, err := s.svc.Subscribe(s.ctx, s.user.ID, "pro")
	s.Require().NoError(err)
	s.Equal("pro", updated.PlanName)

	counts, err := s.usage.CountsForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(0, counts[serviceID])
}

func (s *TransitionSuite) TestSubscribeToCurrentPlanStillResets() {
	serviceID := uuid.New()
	s.charge(serviceID, 2)

	updated, err := s.svc.Subscribe(s.ctx, s.user.ID, "basic")
	s.Require().NoError(err)
	s.Equal("basic", updated.PlanName)

	counts, err := s.usage.CountsForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(0, counts[serviceID])
}

func (s *TransitionSuite) TestSubscribeUnknownPlanRejectedBeforeAnyWrite() {
	serviceID := uuid.New()
	s.charge(serviceID, 2)

	_, err := s.svc.Subscribe(s.ctx, s.user.ID, "platinum")
	s.True(domainerrors.HasCode(err, domainerrors.CodeNotFound))

	// Nothing changed: plan intact, counters intact.
	u, err := s.users.FindByID(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal("basic", u.PlanName)
	counts, err := s.usage.CountsForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(2, counts[serviceID])
}

func (s *TransitionSuite) TestSubscribeEmptyPlanIsValidationError() {
	_, err := s.svc.Subscribe(s.ctx, s.user.ID, "")
	s.True(domainerrors.HasCode(err, domainerrors.CodeValidation))
}

func (s *TransitionSuite) TestAdminChangePlanByUsername() {
	serviceID := uuid.New()
	s.charge(serviceID, 4)

	updated, err := s.svc.AdminChangePlan(s.ctx, "alice", "pro")
	s.Require().NoError(err)
	s.Equal("pro", updated.PlanName)

	counts, err := s.usage.CountsForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(0, counts[serviceID])
}

func (s *TransitionSuite) TestAdminChangePlanUnknownUser() {
	_, err := s.svc.AdminChangePlan(s.ctx, "mallory", "pro")
	s.True(domainerrors.HasCode(err, domainerrors.CodeNotFound))
	s.Contains(err.Error(), "user")
}

func (s *TransitionSuite) TestAdminChangePlanValidatesPlan() {
	_, err := s.svc.AdminChangePlan(s.ctx, "alice", "platinum")
	s.True(domainerrors.HasCode(err, domainerrors.CodeNotFound))
	s.Contains(err.Error(), "plan")

	u, err := s.users.FindByID(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal("basic", u.PlanName)
}
