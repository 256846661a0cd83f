// Package metrics exposes Prometheus gauges/counters for the server's
// background subsystems, served on the command port's sibling /metrics
// endpoint (SPEC_FULL.md ambient stack).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles every metric this server publishes. A single instance
// is created at startup and handed to the database manager, which records
// shard, reaper, snapshot-save and replication-pull metrics.
type Registry struct {
	ShardSize        *prometheus.GaugeVec
	ReaperSweeps     prometheus.Counter
	ReaperEvictions  prometheus.Counter
	PersistenceSaves *prometheus.CounterVec
	SaveDuration     *prometheus.HistogramVec
	ReplicationPulls *prometheus.CounterVec
	GossipNodeStatus *prometheus.GaugeVec
}

// NewRegistry creates and registers every metric against a fresh
// prometheus.Registry, returning both.
func NewRegistry() (*Registry, *prometheus.Registry) {
	reg := prometheus.NewRegistry()

	r := &Registry{
		ShardSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "redikv",
			Name:      "shard_keys",
			Help:      "Number of keys currently held by a shard.",
		}, []string{"shard"}),
		ReaperSweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "redikv",
			Name:      "reaper_sweeps_total",
			Help:      "Number of expiration reaper sweep passes run.",
		}),
		ReaperEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "redikv",
			Name:      "reaper_evictions_total",
			Help:      "Number of keys evicted by the expiration reaper.",
		}),
		PersistenceSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "redikv",
			Name:      "persistence_saves_total",
			Help:      "Number of persistence save operations, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		SaveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "redikv",
			Name:      "persistence_save_duration_seconds",
			Help:      "Duration of persistence save operations.",
		}, []string{"kind"}),
		ReplicationPulls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "redikv",
			Name:      "replication_pulls_total",
			Help:      "Number of replication pull attempts, by outcome.",
		}, []string{"outcome"}),
		GossipNodeStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "redikv",
			Name:      "cluster_nodes",
			Help:      "Number of known cluster nodes, by status.",
		}, []string{"status"}),
	}

	reg.MustRegister(
		r.ShardSize,
		r.ReaperSweeps,
		r.ReaperEvictions,
		r.PersistenceSaves,
		r.SaveDuration,
		r.ReplicationPulls,
		r.GossipNodeStatus,
	)

	return r, reg
}

// Handler returns the /metrics HTTP handler for reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
