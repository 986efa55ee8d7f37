package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "archivefeed"

// Feed Prometheus metrics.
var (
	FeedQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_query_duration_seconds",
			Help:      "Content query duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"feed"},
	)

	FeedQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_queries_total",
			Help:      "Total number of content queries",
		},
		[]string{"feed", "status"}, // "ok" / "error"
	)

	FeedSessionMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_session_misses_total",
			Help:      "Async requests whose session could not be loaded",
		},
		[]string{"feed"},
	)

	FeedPersistFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_persist_failures_total",
			Help:      "Sessions that could not be written to the store",
		},
		[]string{"feed"},
	)
)

func init() {
	prometheus.MustRegister(FeedQueryDuration)
	prometheus.MustRegister(FeedQueriesTotal)
	prometheus.MustRegister(FeedSessionMissesTotal)
	prometheus.MustRegister(FeedPersistFailuresTotal)
}

// Recorder reports feed service events to Prometheus.
type Recorder struct{}

// NewRecorder creates a Recorder backed by the package metrics.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// QueryExecuted observes one content query.
func (*Recorder) QueryExecuted(feed string, seconds float64, failed bool) {
	FeedQueryDuration.WithLabelValues(feed).Observe(seconds)
	status := "ok"
	if failed {
		status = "error"
	}
	FeedQueriesTotal.WithLabelValues(feed, status).Inc()
}

// SessionMissed counts a session that was not found or could not be read.
func (*Recorder) SessionMissed(feed string) {
	FeedSessionMissesTotal.WithLabelValues(feed).Inc()
}

// PersistFailed counts a session write failure.
func (*Recorder) PersistFailed(feed string) {
	FeedPersistFailuresTotal.WithLabelValues(feed).Inc()
}
