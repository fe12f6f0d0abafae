// Package metrics provides Prometheus metrics for analyses, simulations and Jira traffic.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guesstimate_analyses_total",
			Help: "Total number of analyses by outcome",
		},
		[]string{"outcome"},
	)
	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guesstimate_analysis_duration_seconds",
			Help:    "Analysis pipeline duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"outcome"},
	)
	MemoLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guesstimate_memo_lookups_total",
			Help: "Memo cache lookups by result",
		},
		[]string{"result"},
	)
	SimulationTrials = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guesstimate_simulation_trials_total",
			Help: "Total number of Monte-Carlo trials executed",
		},
	)
	JiraRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guesstimate_jira_requests_total",
			Help: "Total number of Jira REST requests",
		},
		[]string{"endpoint", "status"},
	)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guesstimate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guesstimate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

func RecordAnalysis(outcome string, duration time.Duration) {
	AnalysesTotal.WithLabelValues(outcome).Inc()
	AnalysisDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func RecordMemoLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	MemoLookups.WithLabelValues(result).Inc()
}

func RecordSimulationTrials(n int) {
	SimulationTrials.Add(float64(n))
}

func RecordJiraRequest(endpoint, status string) {
	JiraRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
