package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"subgate/internal/catalog/store"
	dErrors "subgate/pkg/domain-errors"
)

type CatalogServiceSuite struct {
	suite.Suite
	svc *Service
}

func (s *CatalogServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = New(store.NewInMemory(), WithLogger(logger))
}

func (s *CatalogServiceSuite) TestCreateServiceAndDuplicate() {
	ctx := context.Background()

	created, err := s.svc.CreateService(ctx, ServiceInput{Name: "storage", Endpoint: "/storage"})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "storage", created.Name)

	_, err = s.svc.CreateService(ctx, ServiceInput{Name: "storage"})
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.svc.CreateService(ctx, ServiceInput{Name: "  "})
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *CatalogServiceSuite) TestUpdateServiceChecksNewNameFirst() {
	ctx := context.Background()
	_, err := s.svc.CreateService(ctx, ServiceInput{Name: "storage"})
	require.NoError(s.T(), err)
	_, err = s.svc.CreateService(ctx, ServiceInput{Name: "compute"})
	require.NoError(s.T(), err)

	// Renaming a missing service onto an existing name reports the clash,
	// matching the check order of the admin API.
	_, err = s.svc.UpdateService(ctx, "missing", ServiceInput{Name: "compute"})
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.svc.UpdateService(ctx, "missing", ServiceInput{Name: "brand-new"})
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))

	updated, err := s.svc.UpdateService(ctx, "storage", ServiceInput{Name: "blob", Endpoint: "/blob"})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "blob", updated.Name)
}

func (s *CatalogServiceSuite) TestCreatePlanValidatesServices() {
	ctx := context.Background()
	_, err := s.svc.CreateService(ctx, ServiceInput{Name: "storage"})
	require.NoError(s.T(), err)

	_, err = s.svc.CreatePlan(ctx, PlanInput{Name: "basic", Limit: 5, Services: []string{"storage", "compute"}})
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.Contains(s.T(), err.Error(), "compute")

	plan, err := s.svc.CreatePlan(ctx, PlanInput{Name: "basic", Limit: 5, Services: []string{"storage"}})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 5, plan.CallLimit)

	_, err = s.svc.CreatePlan(ctx, PlanInput{Name: "basic", Limit: 5})
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.svc.CreatePlan(ctx, PlanInput{Name: "negative", Limit: -1})
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *CatalogServiceSuite) TestUpdatePlanReplacesServices() {
	ctx := context.Background()
	_, err := s.svc.CreateService(ctx, ServiceInput{Name: "storage"})
	require.NoError(s.T(), err)
	_, err = s.svc.CreateService(ctx, ServiceInput{Name: "compute"})
	require.NoError(s.T(), err)
	_, err = s.svc.CreatePlan(ctx, PlanInput{Name: "basic", Limit: 5, Services: []string{"storage"}})
	require.NoError(s.T(), err)

	updated, err := s.svc.UpdatePlan(ctx, "basic", PlanInput{Name: "pro", Limit: 100, Services: []string{"compute"}})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 100, updated.CallLimit)

	plan, services, err := s.svc.PlanWithServices(ctx, "pro")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), updated.ID, plan.ID)
	require.Len(s.T(), services, 1)
	assert.Equal(s.T(), "compute", services[0].Name)

	_, _, err = s.svc.PlanWithServices(ctx, "basic")
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *CatalogServiceSuite) TestAssociateService() {
	ctx := context.Background()
	_, err := s.svc.CreateService(ctx, ServiceInput{Name: "storage"})
	require.NoError(s.T(), err)
	_, err = s.svc.CreatePlan(ctx, PlanInput{Name: "basic", Limit: 5})
	require.NoError(s.T(), err)
	_, err = s.svc.CreatePlan(ctx, PlanInput{Name: "pro", Limit: 100})
	require.NoError(s.T(), err)

	err = s.svc.AssociateService(ctx, "storage", []string{"basic", "pro"})
	require.NoError(s.T(), err)

	_, services, err := s.svc.PlanWithServices(ctx, "basic")
	require.NoError(s.T(), err)
	require.Len(s.T(), services, 1)

	err = s.svc.AssociateService(ctx, "storage", []string{"basic", "ghost", "phantom"})
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.Contains(s.T(), err.Error(), "ghost")
	assert.Contains(s.T(), err.Error(), "phantom")

	err = s.svc.AssociateService(ctx, "missing", []string{"basic"})
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *CatalogServiceSuite) TestDeleteCascades() {
	ctx := context.Background()
	_, err := s.svc.CreateService(ctx, ServiceInput{Name: "storage"})
	require.NoError(s.T(), err)
	_, err = s.svc.CreatePlan(ctx, PlanInput{Name: "basic", Limit: 5, Services: []string{"storage"}})
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.svc.DeleteService(ctx, "storage"))

	_, services, err := s.svc.PlanWithServices(ctx, "basic")
	require.NoError(s.T(), err)
	assert.Empty(s.T(), services)

	err = s.svc.DeleteService(ctx, "storage")
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))

	require.NoError(s.T(), s.svc.DeletePlan(ctx, "basic"))
	err = s.svc.DeletePlan(ctx, "basic")
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestCatalogServiceSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceSuite))
}
