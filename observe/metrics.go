// Package observe declares the prometheus metrics exported by the
// novelaire engine. Watch mode serves them on /metrics.
package observe

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// GateRuns counts gate evaluations by gate type and result.
	GateRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "novelaire",
		Subsystem: "gate",
		Name:      "runs_total",
		Help:      "Gate evaluations by gate type and result.",
	}, []string{"gate", "result"})

	// ProposalsApplied counts applied spec proposals.
	ProposalsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "novelaire",
		Subsystem: "spec",
		Name:      "proposals_applied_total",
		Help:      "Spec proposals applied to canon.",
	})

	// BackfillDrained counts backfill items drained into proposals.
	BackfillDrained = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "novelaire",
		Subsystem: "backfill",
		Name:      "items_drained_total",
		Help:      "Backfill queue items drained for promotion.",
	})

	// SnapshotsCreated counts snapshots by scope.
	SnapshotsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "novelaire",
		Subsystem: "snapshot",
		Name:      "created_total",
		Help:      "Snapshots created by scope.",
	}, []string{"scope"})

	// WatchEvents counts file watch events by operation.
	WatchEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "novelaire",
		Subsystem: "watch",
		Name:      "events_total",
		Help:      "Artifact file events seen by the watcher.",
	}, []string{"op"})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
