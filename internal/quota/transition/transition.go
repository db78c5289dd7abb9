// Package transition moves a user between subscription plans.
//
// A plan change zeroes the user's usage counters in the same unit of work that
// records the new plan, so no request ever runs under the new plan against
// counters accumulated under the old one.
package transition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	catalogmodels "subgate/internal/catalog/models"
	identitymodels "subgate/internal/identity/models"
	"subgate/internal/platform/metrics"
	"subgate/internal/sentinel"
	domainerrors "subgate/pkg/domain-errors"
)

// Actor labels who initiated a plan change, for logs and metrics.
type Actor string

const (
	ActorSelf  Actor = "self"
	ActorAdmin Actor = "admin"
)

// PlanReader resolves the target plan. The change is rejected before any write
// when the plan does not exist.
type PlanReader interface {
	FindPlanByName(ctx context.Context, name string) (*catalogmodels.SubscriptionPlan, error)
}

// UserStore is the slice of the identity store the transition needs.
type UserStore interface {
	FindByID(ctx context.Context, userID uuid.UUID) (*identitymodels.User, error)
	FindByUsername(ctx context.Context, username string) (*identitymodels.User, error)
	SetPlan(ctx context.Context, userID uuid.UUID, planName string) error
}

// UsageResetter zeroes a user's usage counters.
type UsageResetter interface {
	ResetUser(ctx context.Context, userID uuid.UUID) error
}

// TxRunner executes fn atomically. The postgres pool provides a real
// transaction; the in-memory runner relies on the write ordering inside fn.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PassthroughRunner runs fn directly. Used with in-memory stores, where the
// reset-before-write ordering keeps readers consistent.
type PassthroughRunner struct{}

func (PassthroughRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Service performs plan transitions for customers and administrators.
type Service struct {
	users   UserStore
	plans   PlanReader
	usage   UsageResetter
	tx      TxRunner
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates a plan-transition service.
func New(users UserStore, plans PlanReader, usage UsageResetter, tx TxRunner, opts ...Option) *Service {
	s := &Service{
		users:  users,
		plans:  plans,
		usage:  usage,
		tx:     tx,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = PassthroughRunner{}
	}
	return s
}

// Subscribe switches the calling user to planName. Changing to the current
// plan is a valid transition and still resets the counters.
func (s *Service) Subscribe(ctx context.Context, userID uuid.UUID, planName string) (*identitymodels.User, error) {
	return s.change(ctx, ActorSelf, userID, planName)
}

// AdminChangePlan switches the user identified by username to planName.
func (s *Service) AdminChangePlan(ctx context.Context, username, planName string) (*identitymodels.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, fmt.Sprintf("user %q not found", username))
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return s.change(ctx, ActorAdmin, user.ID, planName)
}

func (s *Service) change(ctx context.Context, actor Actor, userID uuid.UUID, planName string) (*identitymodels.User, error) {
	if planName == "" {
		return nil, domainerrors.New(domainerrors.CodeValidation, "plan name is required")
	}

	plan, err := s.plans.FindPlanByName(ctx, planName)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, fmt.Sprintf("subscription plan %q not found", planName))
		}
		return nil, fmt.Errorf("resolve plan: %w", err)
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		// Reset first: a reader racing the in-memory path may see the old
		// plan with zeroed counters, never the new plan with stale ones.
		if err := s.usage.ResetUser(ctx, userID); err != nil {
			return fmt.Errorf("reset usage counters: %w", err)
		}
		if err := s.users.SetPlan(ctx, userID, plan.Name); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return domainerrors.New(domainerrors.CodeNotFound, "user not found")
			}
			return fmt.Errorf("set plan: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}

	if s.metrics != nil {
		s.metrics.PlanChanges.WithLabelValues(string(actor)).Inc()
	}
	s.logger.InfoContext(ctx, "plan changed",
		"user_id", userID,
		"plan", plan.Name,
		"actor", actor,
	)
	return user, nil
}
