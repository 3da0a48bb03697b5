package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Analysis pipeline Prometheus metrics.
var (
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kwcluster",
			Name:      "analyses_total",
			Help:      "Total number of pipeline runs",
		},
		[]string{"source", "status"},
	)

	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kwcluster",
			Name:      "analysis_duration_seconds",
			Help:      "Pipeline run duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"source"},
	)

	RowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kwcluster",
			Name:      "rows_total",
			Help:      "Rows seen per pipeline stage",
		},
		[]string{"stage"}, // "loaded" / "cluster" / "filtered"
	)

	RemoteFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kwcluster",
			Name:      "remote_fetch_duration_seconds",
			Help:      "Remote keyword API call duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	RemoteFetchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kwcluster",
			Name:      "remote_fetch_errors_total",
			Help:      "Total failed remote keyword API calls",
		},
		[]string{"status"},
	)

	TableCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kwcluster",
			Name:      "table_cache_total",
			Help:      "Normalized table cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

func init() {
	prometheus.MustRegister(AnalysesTotal)
	prometheus.MustRegister(AnalysisDuration)
	prometheus.MustRegister(RowsTotal)
	prometheus.MustRegister(RemoteFetchDuration)
	prometheus.MustRegister(RemoteFetchErrorsTotal)
	prometheus.MustRegister(TableCacheTotal)
}

// ObserveAnalysis records one pipeline run.
func ObserveAnalysis(source string, err error, started time.Time) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	AnalysesTotal.WithLabelValues(source, status).Inc()
	AnalysisDuration.WithLabelValues(source).Observe(time.Since(started).Seconds())
}

// ObserveRows adds n rows to a pipeline stage.
func ObserveRows(stage string, n int) {
	RowsTotal.WithLabelValues(stage).Add(float64(n))
}

// ObserveCache counts a table cache lookup.
func ObserveCache(hit bool) {
	if hit {
		TableCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	TableCacheTotal.WithLabelValues("miss").Inc()
}
