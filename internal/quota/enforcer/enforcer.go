// Package enforcer makes the admit-or-deny decision for a single service call.
//
// Every access resolves the caller's entitlement fresh from the catalog, so a
// plan or association change is visible on the very next request, then charges
// a single call against the usage ledger. The ledger increment is atomic, so
// two concurrent calls can never both consume the last remaining slot.
package enforcer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"subgate/internal/catalog/models"
	"subgate/internal/platform/metrics"
	"subgate/internal/quota/ledger"
	"subgate/internal/sentinel"
	domainerrors "subgate/pkg/domain-errors"
)

// maxAttempts bounds retries of the resolve-check-charge sequence when the
// failure is infrastructural rather than a business outcome.
const maxAttempts = 3

// CatalogReader is the slice of the catalog the enforcer needs to resolve an
// entitlement: the target service, the caller's plan, and their association.
type CatalogReader interface {
	FindServiceByName(ctx context.Context, name string) (*models.Service, error)
	FindPlanByName(ctx context.Context, name string) (*models.SubscriptionPlan, error)
	PlanIncludesService(ctx context.Context, planID, serviceID uuid.UUID) (bool, error)
}

// Result describes an admitted access.
type Result struct {
	Service   *models.Service
	CallLimit int
	CallsMade int
}

// Enforcer decides whether a user may call a service right now.
type Enforcer struct {
	catalog CatalogReader
	ledger  ledger.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures the Enforcer.
type Option func(*Enforcer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enforcer) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Enforcer) {
		e.metrics = m
	}
}

// WithTracer sets the tracer used for access spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Enforcer) {
		e.tracer = t
	}
}

// New creates an Enforcer over the given catalog and usage ledger.
func New(catalog CatalogReader, usage ledger.Store, opts ...Option) *Enforcer {
	e := &Enforcer{
		catalog: catalog,
		ledger:  usage,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer("subgate/quota")
	}
	return e
}

// Access resolves the caller's entitlement to serviceName under planName and,
// if entitled, charges one call against the usage ledger.
//
// Denials are terminal:
//   - not_found when the service does not exist or the caller's plan is gone
//   - forbidden when the plan does not include the service
//   - quota_exceeded when the counter already sits at the plan's limit
//
// Infrastructure failures are retried as a whole, so a retry re-reads the
// catalog and never charges against a stale limit.
func (e *Enforcer) Access(ctx context.Context, userID uuid.UUID, planName, serviceName string) (*Result, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "quota.Access", trace.WithAttributes(
		attribute.String("service", serviceName),
		attribute.String("plan", planName),
	))

	var res *Result
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err = e.attempt(ctx, userID, planName, serviceName)
		if err == nil || domainerrors.IsDomain(err) {
			break
		}
		e.logger.WarnContext(ctx, "access attempt failed",
			"service", serviceName,
			"user_id", userID,
			"attempt", attempt,
			"error", err,
		)
	}

	if e.metrics != nil {
		e.metrics.AccessLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		if e.metrics != nil {
			e.metrics.AccessDenied.WithLabelValues(serviceName, denialReason(err)).Inc()
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("calls_made", res.CallsMade))
	span.End()
	if e.metrics != nil {
		e.metrics.AccessAdmitted.WithLabelValues(serviceName).Inc()
	}
	e.logger.InfoContext(ctx, "access admitted",
		"service", serviceName,
		"user_id", userID,
		"calls_made", res.CallsMade,
		"call_limit", res.CallLimit,
	)
	return res, nil
}

// attempt runs one full resolve-check-charge pass.
func (e *Enforcer) attempt(ctx context.Context, userID uuid.UUID, planName, serviceName string) (*Result, error) {
	svc, err := e.catalog.FindServiceByName(ctx, serviceName)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, fmt.Sprintf("service %q not found", serviceName))
		}
		return nil, fmt.Errorf("resolve service: %w", err)
	}

	plan, err := e.catalog.FindPlanByName(ctx, planName)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, fmt.Sprintf("subscription plan %q not found", planName))
		}
		return nil, fmt.Errorf("resolve plan: %w", err)
	}

	included, err := e.catalog.PlanIncludesService(ctx, plan.ID, svc.ID)
	if err != nil {
		return nil, fmt.Errorf("check entitlement: %w", err)
	}
	if !included {
		return nil, domainerrors.New(domainerrors.CodeForbidden,
			fmt.Sprintf("plan %q does not include service %q", planName, serviceName))
	}

	calls, err := e.ledger.Increment(ctx, ledger.Key{UserID: userID, ServiceID: svc.ID}, plan.CallLimit)
	if err != nil {
		if errors.Is(err, ledger.ErrLimitReached) {
			return nil, domainerrors.Wrap(err, domainerrors.CodeQuotaExceeded,
				fmt.Sprintf("call limit reached for service %q", serviceName))
		}
		return nil, fmt.Errorf("charge usage: %w", err)
	}

	return &Result{Service: svc, CallLimit: plan.CallLimit, CallsMade: calls}, nil
}

// denialReason maps a denial to a bounded metric label.
func denialReason(err error) string {
	switch {
	case domainerrors.HasCode(err, domainerrors.CodeQuotaExceeded):
		return "quota_exceeded"
	case domainerrors.HasCode(err, domainerrors.CodeForbidden):
		return "forbidden"
	case domainerrors.HasCode(err, domainerrors.CodeNotFound):
		return "not_found"
	default:
		return "error"
	}
}
