package enforcer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"subgate/internal/catalog/models"
	catalogstore "subgate/internal/catalog/store"
	"subgate/internal/quota/ledger"
	domainerrors "subgate/pkg/domain-errors"
)

type EnforcerSuite struct {
	suite.Suite
	ctx     context.Context
	catalog *catalogstore.InMemoryStore
	usage   *ledger.InMemoryStore
	enf     *Enforcer

	userID uuid.UUID
	svc    *models.Service
	basic  *models.SubscriptionPlan
	free   *models.SubscriptionPlan
}

func TestEnforcerSuite(t *testing.T) {
	suite.Run(t, new(EnforcerSuite))
}

func (s *EnforcerSuite) SetupTest() {
	s.ctx = context.Background()
	s.catalog = catalogstore.NewInMemory()
	s.usage = ledger.NewInMemory()
	s.enf = New(s.catalog, s.usage,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	s.userID = uuid.New()
	s.svc = &models.Service{ID: uuid.New(), Name: "reports", Endpoint: "https://reports.internal"}
	s.Require().NoError(s.catalog.CreateService(s.ctx, s.svc))

	s.basic = &models.SubscriptionPlan{ID: uuid.New(), Name: "basic", CallLimit: 2}
	s.Require().NoError(s.catalog.CreatePlan(s.ctx, s.basic))
	s.Require().NoError(s.catalog.Associate(s.ctx, s.basic.ID, s.svc.ID))

	s.free = &models.SubscriptionPlan{ID: uuid.New(), Name: "free", CallLimit: 0}
	s.Require().NoError(s.catalog.CreatePlan(s.ctx, s.free))
	s.Require().NoError(s.catalog.Associate(s.ctx, s.free.ID, s.svc.ID))
}

func (s *EnforcerSuite) TestAdmitsUpToLimitThenDenies() {
	for want := 1; want <= 2; want++ {
		res, err := s.enf.Access(s.ctx, s.userID, "basic", "reports")
		s.Require().NoError(err)
		s.Equal(want, res.CallsMade)
		s.Equal(2, res.CallLimit)
		s.Equal(s.svc.ID, res.Service.ID)
	}

	res, err := s.enf.Access(s.ctx, s.userID, "basic", "reports")
	s.Nil(res)
	s.True(domainerrors.HasCode(err, domainerrors.CodeQuotaExceeded))
	s.ErrorIs(err, ledger.ErrLimitReached)
}

func (s *EnforcerSuite) TestFirstCallAdmittedEvenOnZeroLimitPlan() {
	res, err := s.enf.Access(s.ctx, s.userID, "free", "reports")
	s.Require().NoError(err)
	s.Equal(1, res.CallsMade)

	_, err = s.enf.Access(s.ctx, s.userID, "free", "reports")
	s.True(domainerrors.HasCode(err, domainerrors.CodeQuotaExceeded))
}

func (s *EnforcerSuite) TestUnknownServiceIsNotFound() {
	_, err := s.enf.Access(s.ctx, s.userID, "basic", "nope")
	s.True(domainerrors.HasCode(err, domainerrors.CodeNotFound))
	s.Contains(err.Error(), "service")
}

func (s *EnforcerSuite) TestVanishedPlanIsNotFound() {
	_, err := s.enf.Access(s.ctx, s.userID, "deleted-plan", "reports")
	s.True(domainerrors.HasCode(err, domainerrors.CodeNotFound))
	s.Contains(err.Error(), "plan")
}

func (s *EnforcerSuite) TestUnassociatedServiceIsForbidden() {
	other := &models.Service{ID: uuid.New(), Name: "exports"}
	s.Require().NoError(s.catalog.CreateService(s.ctx, other))

	_, err := s.enf.Access(s.ctx, s.userID, "basic", "exports")
	s.True(domainerrors.HasCode(err, domainerrors.CodeForbidden))
}

func (s *EnforcerSuite) TestDenialDoesNotChargeUsage() {
	_, err := s.enf.Access(s.ctx, s.userID, "basic", "exports-missing")
	s.Require().Error(err)

	counts, err := s.usage.CountsForUser(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Empty(counts)
}

func (s *EnforcerSuite) TestPlanChangeVisibleOnNextAccess() {
	_, err := s.enf.Access(s.ctx, s.userID, "basic", "reports")
	s.Require().NoError(err)

	// Tighten the limit below the current counter; the next call must see it.
	s.basic.CallLimit = 1
	s.Require().NoError(s.catalog.UpdatePlan(s.ctx, s.basic))

	_, err = s.enf.Access(s.ctx, s.userID, "basic", "reports")
	s.True(domainerrors.HasCode(err, domainerrors.CodeQuotaExceeded))
}

// flakyCatalog fails FindServiceByName a fixed number of times before
// delegating, to exercise the retry loop.
type flakyCatalog struct {
	CatalogReader
	failures int
	calls    int
}

func (f *flakyCatalog) FindServiceByName(ctx context.Context, name string) (*models.Service, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset")
	}
	return f.CatalogReader.FindServiceByName(ctx, name)
}

func (s *EnforcerSuite) TestTransientFailuresAreRetried() {
	flaky := &flakyCatalog{CatalogReader: s.catalog, failures: 2}
	enf := New(flaky, s.usage, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	res, err := enf.Access(s.ctx, s.userID, "basic", "reports")
	s.Require().NoError(err)
	s.Equal(1, res.CallsMade)
	s.Equal(3, flaky.calls)
}

func (s *EnforcerSuite) TestPersistentFailureSurfacesAfterRetries() {
	flaky := &flakyCatalog{CatalogReader: s.catalog, failures: 10}
	enf := New(flaky, s.usage, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	_, err := enf.Access(s.ctx, s.userID, "basic", "reports")
	s.Require().Error(err)
	s.False(domainerrors.IsDomain(err))
	s.Equal(maxAttempts, flaky.calls)
}

func (s *EnforcerSuite) TestDomainDenialIsNotRetried() {
	_, err := s.enf.Access(s.ctx, s.userID, "basic", "missing-service")
	s.Require().Error(err)

	// A second identical call proves denials are terminal and repeatable.
	_, again := s.enf.Access(s.ctx, s.userID, "basic", "missing-service")
	s.Equal(err.Error(), again.Error())
}
