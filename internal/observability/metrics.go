package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreQueryLatency records user store latency by backend and operation.
	StoreQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "exercisetracker_store_query_latency_seconds",
		Help:    "User store query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation"})

	// UsersCreated counts users persisted since process start.
	UsersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exercisetracker_users_created_total",
		Help: "Total number of users created",
	})

	// ExercisesLogged counts exercises appended to user logs.
	ExercisesLogged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exercisetracker_exercises_logged_total",
		Help: "Total number of exercises appended to user logs",
	})

	// CacheLookups counts user cache lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exercisetracker_cache_lookups_total",
		Help: "User cache lookups by result",
	}, []string{"result"})

	// EventPublishFailures counts domain events that could not be published.
	EventPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exercisetracker_event_publish_failures_total",
		Help: "Domain events that failed to publish, by event type",
	}, []string{"event_type"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(backend, operation string) func() {
	start := time.Now()
	return func() {
		StoreQueryLatency.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
	}
}
