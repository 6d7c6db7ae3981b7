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
		Name: "nestling_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by outcome (hit, miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nestling_cache_lookups_total",
		Help: "Cache-aside lookups by outcome",
	}, []string{"outcome"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nestling_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// BlobOperations counts blob-store calls by operation and result.
	BlobOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nestling_blob_operations_total",
		Help: "Blob store operations by operation and result",
	}, []string{"operation", "result"})
)

const queryStartKey = "observability:query_start"

// QueryMetricsPlugin is a gorm plugin that feeds DatabaseQueryLatency.
type QueryMetricsPlugin struct{}

func (QueryMetricsPlugin) Name() string {
	return "nestling:query_metrics"
}

func (QueryMetricsPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, h := range hooks {
		op := h.op
		if err := h.before("metrics:before_"+op, startQueryTimer); err != nil {
			return err
		}
		if err := h.after("metrics:after_"+op, func(tx *gorm.DB) { observeQuery(tx, op) }); err != nil {
			return err
		}
	}
	return nil
}

func startQueryTimer(tx *gorm.DB) {
	tx.InstanceSet(queryStartKey, time.Now())
}

func observeQuery(tx *gorm.DB, op string) {
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
		table = "unknown"
	}
	DatabaseQueryLatency.WithLabelValues(op, table).Observe(time.Since(start).Seconds())
}

// TrackBlob records the outcome of a blob-store call.
func TrackBlob(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	BlobOperations.WithLabelValues(operation, result).Inc()
}
