package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	UsersRegistered prometheus.Counter
	LoginFailures   prometheus.Counter

	AccessAdmitted *prometheus.CounterVec
	AccessDenied   *prometheus.CounterVec
	AccessLatency  prometheus.Histogram

	PlanChanges *prometheus.CounterVec

	ResetSweeps        prometheus.Counter
	ResetSweepFailures prometheus.Counter
	CountersReset      prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subgate_users_registered_total",
			Help: "Total number of users registered",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subgate_login_failures_total",
			Help: "Total number of failed login attempts",
		}),
		AccessAdmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "subgate_access_admitted_total",
			Help: "Total number of admitted service accesses",
		}, []string{"service"}),
		AccessDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "subgate_access_denied_total",
			Help: "Total number of denied service accesses by reason",
		}, []string{"service", "reason"}),
		AccessLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "subgate_access_latency_seconds",
			Help:    "Latency of quota-enforced access decisions in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		PlanChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "subgate_plan_changes_total",
			Help: "Total number of plan transitions by actor kind",
		}, []string{"actor"}),
		ResetSweeps: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subgate_reset_sweeps_total",
			Help: "Total number of completed usage reset sweeps",
		}),
		ResetSweepFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subgate_reset_sweep_failures_total",
			Help: "Total number of failed usage reset sweeps",
		}),
		CountersReset: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subgate_usage_counters_reset_total",
			Help: "Total number of usage counters set back to zero by sweeps",
		}),
	}
}
