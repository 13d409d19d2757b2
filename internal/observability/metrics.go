package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	httpErrorsTotal      *prometheus.CounterVec
	votesCastTotal       *prometheus.CounterVec
	moderationActions    *prometheus.CounterVec
	reportsFiledTotal    *prometheus.CounterVec
	reportsResolvedTotal prometheus.Counter
	scoreCacheRequests   *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the forum.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forum_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		votesCastTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_votes_cast_total",
			Help: "Vote toggles by target kind and outcome.",
		}, []string{"target", "outcome"})

		moderationActions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_moderation_actions_total",
			Help: "Effective moderation transitions by action.",
		}, []string{"action"})

		reportsFiledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_reports_filed_total",
			Help: "Reports filed by target kind.",
		}, []string{"target"})

		reportsResolvedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forum_reports_resolved_total",
			Help: "Reports moved from pending to resolved.",
		})

		scoreCacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_score_cache_requests_total",
			Help: "Score cache lookups by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			votesCastTotal,
			moderationActions,
			reportsFiledTotal,
			reportsResolvedTotal,
			scoreCacheRequests,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// VotesCast exposes the vote toggle counter.
func VotesCast() *prometheus.CounterVec {
	RegisterMetrics()
	return votesCastTotal
}

// ModerationActions exposes the moderation transition counter.
func ModerationActions() *prometheus.CounterVec {
	RegisterMetrics()
	return moderationActions
}

// ReportsFiled exposes the filed report counter.
func ReportsFiled() *prometheus.CounterVec {
	RegisterMetrics()
	return reportsFiledTotal
}

// ReportsResolved exposes the resolved report counter.
func ReportsResolved() prometheus.Counter {
	RegisterMetrics()
	return reportsResolvedTotal
}

// ScoreCacheRequests exposes the score cache hit/miss counter.
func ScoreCacheRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return scoreCacheRequests
}
