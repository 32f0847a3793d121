package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Deletion reasons used as metric labels
const (
	ReasonExpired   = "expired"
	ReasonExhausted = "exhausted"
	ReasonStale     = "stale"
	ReasonSweep     = "sweep"
)

// Metrics prometheus collectors of the share engines
// A nil *Metrics is valid and records nothing.
// Metrics 分享引擎的 prometheus 指标，nil 可直接使用
type Metrics struct {
	registry *prometheus.Registry

	created         *prometheus.CounterVec
	consumed        *prometheus.CounterVec
	deleted         *prometheus.CounterVec
	blobDeletions   *prometheus.CounterVec
	deferredPending *prometheus.GaugeVec
	sweepDuration   *prometheus.HistogramVec
}

// NewMetrics creates collectors registered on a private registry
// NewMetrics 创建指标并注册到独立的 registry
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "gift_share"
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "share",
			Name:      "created_total",
			Help:      "Share records created",
		}, []string{"artifact", "tier"}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "share",
			Name:      "consumed_total",
			Help:      "Share read attempts by result",
		}, []string{"artifact", "result"}),
		deleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "share",
			Name:      "deleted_total",
			Help:      "Share records deleted by reason",
		}, []string{"artifact", "reason"}),
		blobDeletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blob",
			Name:      "deletions_total",
			Help:      "Media blob deletions by result",
		}, []string{"backend", "result"}),
		deferredPending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "share",
			Name:      "deferred_deletions_pending",
			Help:      "Deferred deletions waiting for their grace period",
		}, []string{"artifact"}),
		sweepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "duration_seconds",
			Help:      "Garbage collector sweep duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"artifact"}),
	}

	m.registry.MustRegister(
		m.created,
		m.consumed,
		m.deleted,
		m.blobDeletions,
		m.deferredPending,
		m.sweepDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry to expose over /metrics
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) shareCreated(artifact, tier string) {
	if m != nil {
		m.created.WithLabelValues(artifact, tier).Inc()
	}
}

func (m *Metrics) shareConsumed(artifact, result string) {
	if m != nil {
		m.consumed.WithLabelValues(artifact, result).Inc()
	}
}

func (m *Metrics) shareDeleted(artifact, reason string) {
	if m != nil {
		m.deleted.WithLabelValues(artifact, reason).Inc()
	}
}

func (m *Metrics) blobDeleted(backend, result string) {
	if m != nil {
		m.blobDeletions.WithLabelValues(backend, result).Inc()
	}
}

func (m *Metrics) deferredAdd(artifact string, delta float64) {
	if m != nil {
		m.deferredPending.WithLabelValues(artifact).Add(delta)
	}
}

func (m *Metrics) observeSweep(artifact string, seconds float64) {
	if m != nil {
		m.sweepDuration.WithLabelValues(artifact).Observe(seconds)
	}
}
