// Package worker hosts the periodic usage reset sweep.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"subgate/internal/platform/metrics"
)

// UsageResetter zeroes every usage counter and reports how many changed.
type UsageResetter interface {
	ResetAll(ctx context.Context) (int, error)
}

// ResetService periodically returns all usage counters to zero, giving every
// user a fresh allowance each billing window.
type ResetService struct {
	usage    UsageResetter
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// ResetOption configures ResetService.
type ResetOption func(*ResetService)

// WithResetInterval overrides the sweep interval when greater than zero.
func WithResetInterval(interval time.Duration) ResetOption {
	return func(s *ResetService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithResetLogger overrides the logger used for sweep errors.
func WithResetLogger(logger *slog.Logger) ResetOption {
	return func(s *ResetService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithResetMetrics sets the metrics collector.
func WithResetMetrics(m *metrics.Metrics) ResetOption {
	return func(s *ResetService) {
		s.metrics = m
	}
}

// New constructs a ResetService with the required resetter and options applied.
func New(usage UsageResetter, opts ...ResetOption) (*ResetService, error) {
	if usage == nil {
		return nil, fmt.Errorf("usage resetter is required")
	}
	svc := &ResetService{
		usage:    usage,
		interval: 24 * time.Hour,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Start runs the sweep periodically until ctx is cancelled.
func (s *ResetService) Start(ctx context.Context) error {
	s.logger.InfoContext(ctx, "usage reset worker started", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "usage reset sweep failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single sweep and returns the number of counters reset.
func (s *ResetService) RunOnce(ctx context.Context) (int, error) {
	reset, err := s.usage.ResetAll(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ResetSweepFailures.Inc()
		}
		return 0, fmt.Errorf("reset usage counters: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ResetSweeps.Inc()
		s.metrics.CountersReset.Add(float64(reset))
	}
	s.logger.InfoContext(ctx, "usage reset sweep completed", "counters_reset", reset)
	return reset, nil
}
