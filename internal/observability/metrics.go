package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the literature search service.
// Metrics are organized by subsystem: aggregate searches, per-engine searches,
// upstream sources, events and the HTTP surface.
type Metrics struct {
	// AggregateRequests counts aggregated searches, labeled by outcome (ok, error).
	AggregateRequests *prometheus.CounterVec

	// AggregateDuration observes the end-to-end duration of aggregated searches in seconds.
	AggregateDuration prometheus.Histogram

	// ArticlesPerAggregate observes the number of merged articles per aggregated search.
	ArticlesPerAggregate prometheus.Histogram

	// DuplicatesRemoved counts articles dropped by per-engine and global duplicate passes.
	DuplicatesRemoved prometheus.Counter

	// SearchesStarted counts per-engine searches initiated, labeled by engine.
	SearchesStarted *prometheus.CounterVec

	// SearchesCompleted counts per-engine searches that returned, labeled by engine.
	SearchesCompleted *prometheus.CounterVec

	// SearchesFailed counts per-engine searches that failed, labeled by engine.
	SearchesFailed *prometheus.CounterVec

	// SearchesDegraded counts per-engine searches whose payload was malformed, labeled by engine.
	SearchesDegraded *prometheus.CounterVec

	// SearchDuration observes per-engine search duration in seconds, labeled by engine.
	SearchDuration *prometheus.HistogramVec

	// ArticlesPerSearch observes the articles kept per engine search, labeled by engine.
	ArticlesPerSearch *prometheus.HistogramVec

	// SourceRequestsTotal counts HTTP requests to upstream sources, labeled by source and endpoint.
	SourceRequestsTotal *prometheus.CounterVec

	// SourceRequestsFailed counts failed HTTP requests to upstream sources, labeled by source, endpoint, and error type.
	SourceRequestsFailed *prometheus.CounterVec

	// SourceRequestDuration observes HTTP request duration to upstream sources in seconds.
	SourceRequestDuration *prometheus.HistogramVec

	// SourceRateLimited counts rate-limited responses from upstream sources, labeled by source.
	SourceRateLimited *prometheus.CounterVec

	// EventsPublished counts search events written to the broker.
	EventsPublished prometheus.Counter

	// EventsFailed counts search events that could not be written.
	EventsFailed prometheus.Counter

	// HTTPRequests counts API requests, labeled by route and status code.
	HTTPRequests *prometheus.CounterVec

	// HTTPRequestDuration observes API request duration in seconds, labeled by route.
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance registered with the default
// Prometheus registry. The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer creates a Metrics instance registered with reg.
func NewMetricsWithRegisterer(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Aggregate
		AggregateRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_requests_total",
			Help:      "Total number of aggregated searches by outcome",
		}, []string{"outcome"}),
		AggregateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregate_duration_seconds",
			Help:      "Duration of aggregated searches in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		ArticlesPerAggregate: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "articles_per_aggregate",
			Help:      "Number of merged articles per aggregated search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		DuplicatesRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_removed_total",
			Help:      "Total number of duplicate articles removed",
		}),

		// Searches
		SearchesStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_started_total",
			Help:      "Total number of engine searches started by engine",
		}, []string{"engine"}),
		SearchesCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Total number of engine searches completed by engine",
		}, []string{"engine"}),
		SearchesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of engine searches that failed by engine",
		}, []string{"engine"}),
		SearchesDegraded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_degraded_total",
			Help:      "Total number of engine searches with a malformed response by engine",
		}, []string{"engine"}),
		SearchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of engine searches in seconds by engine",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"engine"}),
		ArticlesPerSearch: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "articles_per_search",
			Help:      "Number of articles returned per engine search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200, 500},
		}, []string{"engine"}),

		// Sources
		SourceRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of requests to upstream sources",
		}, []string{"source", "endpoint"}),
		SourceRequestsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_failed_total",
			Help:      "Total number of failed requests to upstream sources",
		}, []string{"source", "endpoint", "error_type"}),
		SourceRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of requests to upstream sources in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source", "endpoint"}),
		SourceRateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rate_limited_total",
			Help:      "Total number of rate limit responses from upstream sources",
		}, []string{"source"}),

		// Events
		EventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of search events published",
		}),
		EventsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_failed_total",
			Help:      "Total number of search events that failed to publish",
		}),

		// HTTP
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of API requests by route and status",
		}, []string{"route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of API requests in seconds by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// RecordAggregateCompleted records a successful aggregated search.
func (m *Metrics) RecordAggregateCompleted(articleCount, duplicates int, durationSeconds float64) {
	m.AggregateRequests.WithLabelValues("ok").Inc()
	m.AggregateDuration.Observe(durationSeconds)
	m.ArticlesPerAggregate.Observe(float64(articleCount))
	m.DuplicatesRemoved.Add(float64(duplicates))
}

// RecordAggregateFailed records an aggregated search that returned an error.
func (m *Metrics) RecordAggregateFailed(durationSeconds float64) {
	m.AggregateRequests.WithLabelValues("error").Inc()
	m.AggregateDuration.Observe(durationSeconds)
}

// RecordSearchStarted records that an engine search has started.
func (m *Metrics) RecordSearchStarted(engine string) {
	m.SearchesStarted.WithLabelValues(engine).Inc()
}

// RecordSearchCompleted records that an engine search has completed.
func (m *Metrics) RecordSearchCompleted(engine string, articleCount int, durationSeconds float64) {
	m.SearchesCompleted.WithLabelValues(engine).Inc()
	m.SearchDuration.WithLabelValues(engine).Observe(durationSeconds)
	m.ArticlesPerSearch.WithLabelValues(engine).Observe(float64(articleCount))
}

// RecordSearchFailed records that an engine search has failed.
func (m *Metrics) RecordSearchFailed(engine string, durationSeconds float64) {
	m.SearchesFailed.WithLabelValues(engine).Inc()
	m.SearchDuration.WithLabelValues(engine).Observe(durationSeconds)
}

// RecordSearchDegraded records an engine search whose payload was malformed.
func (m *Metrics) RecordSearchDegraded(engine string) {
	m.SearchesDegraded.WithLabelValues(engine).Inc()
}

// RecordSourceRequest records a request to an upstream source.
func (m *Metrics) RecordSourceRequest(source, endpoint string, durationSeconds float64) {
	m.SourceRequestsTotal.WithLabelValues(source, endpoint).Inc()
	m.SourceRequestDuration.WithLabelValues(source, endpoint).Observe(durationSeconds)
}

// RecordSourceRequestFailed records a failed request to an upstream source.
func (m *Metrics) RecordSourceRequestFailed(source, endpoint, errorType string) {
	m.SourceRequestsFailed.WithLabelValues(source, endpoint, errorType).Inc()
}

// RecordSourceRateLimited records a rate limit response from a source.
func (m *Metrics) RecordSourceRateLimited(source string) {
	m.SourceRateLimited.WithLabelValues(source).Inc()
}

// RecordEventPublished records a search event written to the broker.
func (m *Metrics) RecordEventPublished() {
	m.EventsPublished.Inc()
}

// RecordEventFailed records a search event that could not be written.
func (m *Metrics) RecordEventFailed() {
	m.EventsFailed.Inc()
}

// RecordHTTPRequest records a served API request.
func (m *Metrics) RecordHTTPRequest(route string, status int, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(route, statusLabel(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(durationSeconds)
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
