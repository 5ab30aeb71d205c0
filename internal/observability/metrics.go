package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cadence_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// LikesTotal counts like attempts by outcome.
	LikesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cadence_likes_total",
		Help: "Like attempts by result",
	}, []string{"result"})

	// NotificationsCreated counts fan-out writes by notification type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cadence_notifications_created_total",
		Help: "Notifications written by type",
	}, []string{"type"})

	// BlobOperations counts blob store calls by operation and result.
	BlobOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cadence_blob_operations_total",
		Help: "Blob store operations by operation and result",
	}, []string{"operation", "result"})

	// EnrollmentsTotal counts enrollment lifecycle events.
	EnrollmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cadence_enrollments_total",
		Help: "Enrollment lifecycle events by action",
	}, []string{"action"})

	// CacheOperations counts cache-aside lookups by result.
	CacheOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cadence_cache_operations_total",
		Help: "Cache lookups by result",
	}, []string{"result"})
)

// BlobResult labels a blob operation outcome.
func BlobResult(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

const queryStartKey = "cadence:query_start"

// RegisterGormMetrics installs gorm callbacks that observe query latency per table.
func RegisterGormMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "raw"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		op       string
		register func(string, func(*gorm.DB)) error
		after    func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, s := range steps {
		if err := s.register("metrics:before_"+s.op, before); err != nil {
			return err
		}
		if err := s.after("metrics:after_"+s.op, after(s.op)); err != nil {
			return err
		}
	}
	return nil
}
