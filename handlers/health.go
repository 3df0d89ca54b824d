package handlers

import (
	"net/http"
	"time"

	"planets-api/logger"
	"planets-api/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Healthz returns the health status of the service and its database
// GET /healthz
//
// Response:
//
//	200: {"status": "ok"}
//	500: {"status": "down", "error": "..."}
func (h *PlanetHandler) Healthz(c *gin.Context) {
	startTime := time.Now()
	ctx := c.Request.Context()

	conn, err := h.pool.Acquire(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues(EndpointHealth, StageAcquire).Inc()
		handleHealthDown(c, startTime, StageAcquire, err)
		return
	}
	defer release(conn, EndpointHealth)

	if err := conn.Exec(ctx, HealthQuery); err != nil {
		metrics.StoreErrors.WithLabelValues(EndpointHealth, StageQuery).Inc()
		handleHealthDown(c, startTime, StageQuery, err)
		return
	}

	recordMetrics(EndpointHealth, StatusSuccess, startTime)
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleHealthDown reports the database as unreachable
func handleHealthDown(c *gin.Context, startTime time.Time, stage string, err error) {
	logger.Logger.Warn("헬스체크 실패",
		zap.String(LogFieldEndpoint, EndpointHealth),
		zap.String(LogFieldStage, stage),
		zap.Error(err),
	)
	recordMetrics(EndpointHealth, StatusError, startTime)
	c.JSON(http.StatusInternalServerError, HealthResponse{
		Status: "down",
		Error:  err.Error(),
	})
}
