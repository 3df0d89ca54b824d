package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal - 총 요청 수
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planets_api_requests_total",
			Help: "Total number of requests to the planets API",
		},
		[]string{"endpoint", "status"},
	)

	// RequestDuration - 요청 처리 시간
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planets_api_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// StoreErrors - DB 오류 수 (acquire/query 단계별)
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planets_api_store_errors_total",
			Help: "Total number of store errors by endpoint and stage",
		},
		[]string{"endpoint", "stage"},
	)

	// ReleaseErrors - 커넥션 반환 실패 수
	ReleaseErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planets_api_connection_release_errors_total",
			Help: "Total number of suppressed connection release failures",
		},
		[]string{"endpoint"},
	)

	// RowsReturned - 조회된 행 수
	RowsReturned = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planets_api_rows_fetched",
			Help:    "Number of planet rows fetched per request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"endpoint"},
	)
)

// RegisterDBStats exports database/sql pool statistics (open, in use, idle,
// wait count) under the given db_name label.
func RegisterDBStats(reg prometheus.Registerer, db *sql.DB, dbName string) error {
	return reg.Register(collectors.NewDBStatsCollector(db, dbName))
}
