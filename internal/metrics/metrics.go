// Package metrics declares the Prometheus collectors of the catalog and
// helpers that record into them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Lookup sources.
const (
	SourceIndex  = "index"
	SourceRemote = "remote"
	SourceMiss   = "miss"
)

var (
	// Reads
	Lookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "filecatalog_lookups_total",
		Help: "File lookups by the store that answered them",
	}, []string{"source"})

	// Tag mutation
	TagMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "filecatalog_tag_mutations_total",
		Help: "Tag mutations by mode and result",
	}, []string{"mode", "result"})

	ConflictRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "filecatalog_conflict_retries_total",
		Help: "Version conflicts retried by the tag mutator",
	})

	// Reconciliation
	ReconcileRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "filecatalog_reconcile_runs_total",
		Help: "Reconciliation runs by outcome",
	}, []string{"result"})

	ReconcileRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "filecatalog_reconcile_records_total",
		Help: "Records handled by reconciliation",
	}, []string{"outcome"})

	ReconcileDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "filecatalog_reconcile_duration_seconds",
		Help:    "Duration of reconciliation runs",
		Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
	})

	// Search
	SearchRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "filecatalog_search_requests_total",
		Help: "Search requests by mode",
	}, []string{"mode"})

	// Events
	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "filecatalog_events_published_total",
		Help: "Catalog events handed to the message stream by result",
	}, []string{"result"})

	// Store latency
	StoreLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "filecatalog_store_op_duration_seconds",
		Help:    "Latency of index and remote store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"store", "op", "result"})
)

func init() {
	prometheus.MustRegister(Lookups)
	prometheus.MustRegister(TagMutations)
	prometheus.MustRegister(ConflictRetries)
	prometheus.MustRegister(ReconcileRuns)
	prometheus.MustRegister(ReconcileRecords)
	prometheus.MustRegister(ReconcileDuration)
	prometheus.MustRegister(SearchRequests)
	prometheus.MustRegister(EventsPublished)
	prometheus.MustRegister(StoreLatency)
}

// ObserveStoreOp records the latency of one store call started at start.
func ObserveStoreOp(store, op string, start time.Time, err error) {
	StoreLatency.WithLabelValues(store, op, result(err)).Observe(time.Since(start).Seconds())
}

// ObservePublish records one event publication. Its signature matches the
// publisher OnPublish hook.
func ObservePublish(_ string, err error, latency time.Duration) {
	EventsPublished.WithLabelValues(result(err)).Inc()
	StoreLatency.WithLabelValues("events", "publish", result(err)).Observe(latency.Seconds())
}

// RecordMutation counts one tag mutation.
func RecordMutation(mode string, err error) {
	TagMutations.WithLabelValues(mode, result(err)).Inc()
}

// RecordReconcile records the outcome of one reconciliation run.
func RecordReconcile(created, skipped, failed int, d time.Duration, err error) {
	ReconcileRuns.WithLabelValues(result(err)).Inc()
	ReconcileRecords.WithLabelValues("created").Add(float64(created))
	ReconcileRecords.WithLabelValues("skipped").Add(float64(skipped))
	ReconcileRecords.WithLabelValues("failed").Add(float64(failed))
	ReconcileDuration.Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
