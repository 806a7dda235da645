package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quill_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// SessionsTotal counts session lifecycle events.
	SessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_sessions_total",
		Help: "Total number of session events by type",
	}, []string{"event"})

	// AvatarOperationsTotal counts avatar operations by type and outcome.
	AvatarOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_avatar_operations_total",
		Help: "Total number of avatar operations by type and outcome",
	}, []string{"operation", "outcome"})

	// AvatarProcessingLatency records image processing latency by operation.
	AvatarProcessingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quill_avatar_processing_latency_seconds",
		Help:    "Avatar image processing latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// PostMutationsTotal counts post create, update and delete operations.
	PostMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_post_mutations_total",
		Help: "Total number of post mutations by type",
	}, []string{"mutation"})
)

// RecordSessionEvent increments the session event counter.
func RecordSessionEvent(event string) {
	SessionsTotal.WithLabelValues(event).Inc()
}

// RecordAvatarOperation increments the avatar operation counter.
func RecordAvatarOperation(operation, outcome string) {
	AvatarOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// TrackAvatarProcessing returns a function that records processing latency when called (e.g. defer).
func TrackAvatarProcessing(operation string) func() {
	start := time.Now()
	return func() {
		AvatarProcessingLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// RecordPostMutation increments the post mutation counter.
func RecordPostMutation(mutation string) {
	PostMutationsTotal.WithLabelValues(mutation).Inc()
}

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}
