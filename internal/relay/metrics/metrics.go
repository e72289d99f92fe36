package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for relay operations.
type Metrics struct {
	Mints                 prometheus.Counter
	MintsDeduplicated     prometheus.Counter
	Fetches               prometheus.Counter
	ReconcilePasses       prometheus.Counter
	ReconcileOpsApplied   *prometheus.CounterVec
	ReconcileOpsUnapplied *prometheus.CounterVec
	Retires               prometheus.Counter
	UnsafeRetireRefusals  prometheus.Counter
	LifecycleActions      *prometheus.CounterVec
	UpstreamFailures      *prometheus.CounterVec
	OperationDurationMs   *prometheus.HistogramVec
}

// New registers and returns relay metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the collectors on the given registerer.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Mints: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_mints_total",
			Help: "Total number of keys minted",
		}),
		MintsDeduplicated: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_mints_deduplicated_total",
			Help: "Total number of mint requests resolved to an existing key",
		}),
		Fetches: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_fetches_total",
			Help: "Total number of key list fetches",
		}),
		ReconcilePasses: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_reconcile_passes_total",
			Help: "Total number of reconciliation passes",
		}),
		ReconcileOpsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_reconcile_ops_applied_total",
			Help: "Total number of controller operations applied, by kind",
		}, []string{"kind"}),
		ReconcileOpsUnapplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_reconcile_ops_unapplied_total",
			Help: "Total number of controller operations that did not apply, by kind",
		}, []string{"kind"}),
		Retires: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_retires_total",
			Help: "Total number of keys retired",
		}),
		UnsafeRetireRefusals: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_unsafe_retire_refusals_total",
			Help: "Total number of retires refused because controllers remained",
		}),
		LifecycleActions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_lifecycle_actions_total",
			Help: "Total number of lifecycle actions executed, by kind and outcome",
		}, []string{"kind", "outcome"}),
		UpstreamFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_upstream_failures_total",
			Help: "Total number of registry and authorization failures, by cause",
		}, []string{"cause"}),
		OperationDurationMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relay_operation_duration_ms",
			Help:    "Duration of relay operations in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementMints()             { m.Mints.Inc() }
func (m *Metrics) IncrementMintsDeduplicated() { m.MintsDeduplicated.Inc() }
func (m *Metrics) IncrementFetches()           { m.Fetches.Inc() }
func (m *Metrics) IncrementRetires()           { m.Retires.Inc() }
func (m *Metrics) IncrementUnsafeRetireRefusals() {
	m.UnsafeRetireRefusals.Inc()
}

// CountReconcileOps records the applied/unapplied op counts of one pass.
func (m *Metrics) CountReconcileOps(appliedByKind, unappliedByKind map[string]int) {
	m.ReconcilePasses.Inc()
	for kind, n := range appliedByKind {
		m.ReconcileOpsApplied.WithLabelValues(kind).Add(float64(n))
	}
	for kind, n := range unappliedByKind {
		m.ReconcileOpsUnapplied.WithLabelValues(kind).Add(float64(n))
	}
}

func (m *Metrics) IncrementLifecycleAction(kind, outcome string) {
	m.LifecycleActions.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) IncrementUpstreamFailures(cause string) {
	m.UpstreamFailures.WithLabelValues(cause).Inc()
}

func (m *Metrics) ObserveOperationDuration(operation string, durationMs float64) {
	m.OperationDurationMs.WithLabelValues(operation).Observe(durationMs)
}
