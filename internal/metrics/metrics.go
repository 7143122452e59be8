// Package metrics holds the Prometheus collectors of the client engine and
// the server. Collectors are registered on the default registry at init,
// so /metrics exposes them without further wiring.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Event bus
	EventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediakeeper_events_emitted_total",
			Help: "Events emitted on the in-process bus",
		},
		[]string{"event"},
	)

	HandlerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediakeeper_event_handler_failures_total",
			Help: "Event handlers that returned an error or panicked",
		},
		[]string{"event"},
	)

	// Network monitor
	NetworkOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediakeeper_network_online",
			Help: "1 when the authoritative store is considered reachable",
		},
	)

	ProbeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediakeeper_probe_duration_seconds",
			Help:    "Reachability probe latency",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"result"},
	)

	// Pending change queue
	PendingChanges = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediakeeper_pending_changes",
			Help: "Writes waiting to be replayed",
		},
	)

	// Cache
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediakeeper_cache_lookups_total",
			Help: "Cache reads by outcome (hit, miss, expired, schema_mismatch, corrupt)",
		},
		[]string{"outcome"},
	)

	// Sync coordinator
	SyncPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediakeeper_sync_passes_total",
			Help: "Replay passes by outcome (completed, failed)",
		},
		[]string{"outcome"},
	)

	SyncChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediakeeper_sync_changes_total",
			Help: "Replayed pending changes by outcome (success, failed, deferred)",
		},
		[]string{"outcome"},
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mediakeeper_sync_duration_seconds",
			Help:    "Duration of a replay pass",
			Buckets: []float64{.05, .1, .5, 1, 5, 10, 30, 60, 120},
		},
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediakeeper_sync_last_success_timestamp",
			Help: "Unix time of the last pass that completed",
		},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediakeeper_circuit_breaker_state",
			Help: "Breaker state: 0=closed, 1=half-open, 2=open",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediakeeper_circuit_breaker_requests_total",
			Help: "Calls through the breaker by result (success, failure, rejected)",
		},
		[]string{"name", "result"},
	)

	// Server
	RPCRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediakeeper_rpc_requests_total",
			Help: "Handled gRPC requests",
		},
		[]string{"method", "code"},
	)
)

// RecordProbe records one reachability probe.
func RecordProbe(online bool, d time.Duration) {
	result := "offline"
	if online {
		result = "online"
	}
	ProbeDuration.WithLabelValues(result).Observe(d.Seconds())
}

// SetOnline mirrors the monitor state into the gauge.
func SetOnline(online bool) {
	if online {
		NetworkOnline.Set(1)
		return
	}
	NetworkOnline.Set(0)
}

// RecordSyncPass records the outcome of one replay pass.
func RecordSyncPass(completed bool, succeeded, failed, deferred int, d time.Duration) {
	SyncDuration.Observe(d.Seconds())
	SyncChanges.WithLabelValues("success").Add(float64(succeeded))
	SyncChanges.WithLabelValues("failed").Add(float64(failed - deferred))
	SyncChanges.WithLabelValues("deferred").Add(float64(deferred))
	if completed {
		SyncPasses.WithLabelValues("completed").Inc()
		SyncLastSuccess.SetToCurrentTime()
		return
	}
	SyncPasses.WithLabelValues("failed").Inc()
}
