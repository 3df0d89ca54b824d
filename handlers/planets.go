package handlers

import (
	"context"
	"net/http"
	"time"

	"planets-api/logger"
	"planets-api/metrics"
	"planets-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// LogFieldKeys for structured logging
	LogFieldEndpoint   = "endpoint"
	LogFieldStage      = "stage"
	LogFieldRows       = "rows"
	LogFieldLatitude   = "galactic_latitude"
	LogFieldLongitude  = "galactic_longitude"
	LogFieldDurationMs = "duration_ms"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Endpoint names used in logs and metric labels
	EndpointPlanets = "planets"
	EndpointNearest = "nearest_planet"
	EndpointHealth  = "healthz"

	// Store stages used in logs and metric labels
	StageAcquire = "acquire"
	StageQuery   = "query"

	// SelectPlanetsQuery is the only data query the service issues
	SelectPlanetsQuery = "SELECT * FROM planets;"
	// HealthQuery is issued by the health check; its result is discarded
	HealthQuery = "SELECT 1;"

	storeErrorPrefix = "MySQL error: "
)

// PlanetHandler serves the planets endpoints from a shared connection pool.
type PlanetHandler struct {
	pool services.Pool
}

// NewPlanetHandler - 커넥션 풀을 주입받아 핸들러 생성
func NewPlanetHandler(pool services.Pool) *PlanetHandler {
	return &PlanetHandler{pool: pool}
}

// Register mounts the handler's routes.
func (h *PlanetHandler) Register(r gin.IRoutes) {
	r.GET("/planets", h.ListPlanets)
	r.GET("/nearest_planet", h.NearestPlanet)
	r.GET("/healthz", h.Healthz)
}

// ListPlanets - 전체 행성 목록 핸들러
// GET /planets
//
// Response:
//
//	200: [{...}, ...] (empty array when the table is empty)
//	500: {"error": "MySQL error: ..."}
func (h *PlanetHandler) ListPlanets(c *gin.Context) {
	startTime := time.Now()

	rows, stage, err := h.fetchPlanets(c.Request.Context(), EndpointPlanets)
	if err != nil {
		handleStoreError(c, startTime, EndpointPlanets, stage, err)
		return
	}

	logger.Logger.Debug("행성 목록 조회 완료",
		zap.String(LogFieldEndpoint, EndpointPlanets),
		zap.Int(LogFieldRows, len(rows)),
	)
	metrics.RowsReturned.WithLabelValues(EndpointPlanets).Observe(float64(len(rows)))
	recordMetrics(EndpointPlanets, StatusSuccess, startTime)

	c.JSON(http.StatusOK, services.CoerceRows(rows))
}

// fetchPlanets acquires a connection, reads the whole planets table and
// releases the connection before returning. On failure it also reports the
// stage that failed; the driver error itself is passed through untouched.
func (h *PlanetHandler) fetchPlanets(ctx context.Context, endpoint string) ([]services.Row, string, error) {
	conn, err := h.pool.Acquire(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues(endpoint, StageAcquire).Inc()
		return nil, StageAcquire, err
	}
	defer release(conn, endpoint)

	rows, err := conn.QueryRows(ctx, SelectPlanetsQuery)
	if err != nil {
		metrics.StoreErrors.WithLabelValues(endpoint, StageQuery).Inc()
		return nil, StageQuery, err
	}
	return rows, "", nil
}

// release returns conn to the pool. Failures, including panics, are logged
// and swallowed so they never replace the response.
func release(conn services.Conn, endpoint string) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ReleaseErrors.WithLabelValues(endpoint).Inc()
			logger.Logger.Warn("커넥션 반환 중 panic",
				zap.String(LogFieldEndpoint, endpoint),
				zap.Any("panic", r),
			)
		}
	}()

	if err := conn.Release(); err != nil {
		metrics.ReleaseErrors.WithLabelValues(endpoint).Inc()
		logger.Logger.Warn("커넥션 반환 실패",
			zap.String(LogFieldEndpoint, endpoint),
			zap.Error(err),
		)
	}
}

// handleStoreError handles acquire and query failures for data endpoints
func handleStoreError(c *gin.Context, startTime time.Time, endpoint, stage string, err error) {
	logger.Logger.Error("MySQL 오류",
		zap.String(LogFieldEndpoint, endpoint),
		zap.String(LogFieldStage, stage),
		zap.Error(err),
	)
	recordMetrics(endpoint, StatusError, startTime)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: storeErrorPrefix + err.Error(),
	})
}

// recordMetrics records request count and duration
func recordMetrics(endpoint, status string, startTime time.Time) {
	metrics.RequestsTotal.WithLabelValues(endpoint, status).Inc()
	metrics.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
}
