// Package metrics exposes Prometheus collectors for the watcher.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesTotal         prometheus.Counter
	rowsSkippedTotal   prometheus.Counter
	recordsFoundTotal  prometheus.Counter
	degradationsTotal  *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	commitsTotal       *prometheus.CounterVec
	runDurationSeconds prometheus.Histogram

	once sync.Once
)

// Init registers the collectors. It is safe to call multiple times.
func Init() {
	once.Do(func() {
		pagesTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "albowatch_pages_total",
			Help: "Total number of register pages fetched.",
		})
		rowsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "albowatch_rows_skipped_total",
			Help: "Total number of malformed listing rows skipped.",
		})
		recordsFoundTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "albowatch_records_found_total",
			Help: "Total number of new records discovered.",
		})
		degradationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "albowatch_enrichment_degradations_total",
				Help: "Total enrichment steps that fell back to a placeholder, labeled by step.",
			},
			[]string{"step"},
		)
		notificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "albowatch_notifications_total",
				Help: "Total notification dispatches, labeled by outcome.",
			},
			[]string{"outcome"},
		)
		commitsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "albowatch_commits_total",
				Help: "Total seen-state commits, labeled by outcome.",
			},
			[]string{"outcome"},
		)
		runDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "albowatch_run_duration_seconds",
			Help:    "Duration of a full pipeline run.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		})
	})
}

// ObservePages adds fetched pages to the counter.
func ObservePages(n int) {
	if pagesTotal != nil && n > 0 {
		pagesTotal.Add(float64(n))
	}
}

// ObserveRowSkipped counts one malformed listing row.
func ObserveRowSkipped() {
	if rowsSkippedTotal != nil {
		rowsSkippedTotal.Inc()
	}
}

// ObserveRecordsFound adds newly discovered records to the counter.
func ObserveRecordsFound(n int) {
	if recordsFoundTotal != nil && n > 0 {
		recordsFoundTotal.Add(float64(n))
	}
}

// ObserveDegradation counts one degraded enrichment step.
func ObserveDegradation(step string) {
	if degradationsTotal != nil {
		degradationsTotal.WithLabelValues(step).Inc()
	}
}

// ObserveNotification counts one dispatch by outcome.
func ObserveNotification(delivered bool) {
	if notificationsTotal == nil {
		return
	}
	outcome := "delivered"
	if !delivered {
		outcome = "failed"
	}
	notificationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveCommit counts one commit attempt by outcome.
func ObserveCommit(ok bool) {
	if commitsTotal == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	commitsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRunDuration records how long a pipeline run took.
func ObserveRunDuration(d time.Duration) {
	if runDurationSeconds != nil {
		runDurationSeconds.Observe(d.Seconds())
	}
}
