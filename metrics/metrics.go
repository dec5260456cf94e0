// Package metrics exposes Prometheus instrumentation for the ledger service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector instruments the savings service. It satisfies savings.Metrics.
type Collector struct {
	registry             *prometheus.Registry
	transactionsApplied  *prometheus.CounterVec
	transactionsRejected *prometheus.CounterVec
	applyDuration        prometheus.Histogram
	retryDepth           prometheus.Histogram
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		transactionsApplied: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transactions_applied_total",
			Help: "Transactions applied, by type",
		}, []string{"type"}),
		transactionsRejected: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transactions_rejected_total",
			Help: "Transactions rejected, by type and reason",
		}, []string{"type", "reason"}),
		applyDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_apply_duration_seconds",
			Help:    "Time from request submission to acknowledged write",
			Buckets: prometheus.DefBuckets,
		}),
		retryDepth: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_write_attempts",
			Help:    "Optimistic write attempts needed per applied transaction",
			Buckets: []float64{1, 2, 3, 4, 5},
		}),
	}
}

func (c *Collector) TransactionApplied(txType string, duration time.Duration) {
	c.transactionsApplied.WithLabelValues(txType).Inc()
	c.applyDuration.Observe(duration.Seconds())
}

func (c *Collector) TransactionRejected(txType, reason string) {
	c.transactionsRejected.WithLabelValues(txType, reason).Inc()
}

func (c *Collector) RetryDepth(attempts int) {
	c.retryDepth.Observe(float64(attempts))
}

// Handler returns the /metrics HTTP handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
