package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"planets-api/logger"
	"planets-api/metrics"
	"planets-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	invalidParamsMessage = "Invalid or missing query parameters"
	nearestUsageExample  = "/nearest_planet?galactic_latitude=12.5&galactic_longitude=-45.2"
	noPlanetsMessage     = "No planets found"
)

var errMissingParams = errors.New("galactic_latitude and galactic_longitude are required")

// NearestPlanet - 좌표에 가장 가까운 행성 핸들러
// GET /nearest_planet?galactic_latitude=12.5&galactic_longitude=-45.2
//
// Response:
//
//	200: {...} nearest row
//	400: missing or non-numeric parameters
//	404: {"error": "No planets found"}
//	500: {"error": "MySQL error: ..."}
func (h *PlanetHandler) NearestPlanet(c *gin.Context) {
	startTime := time.Now()

	req, err := parseNearestRequest(c)
	if err != nil {
		handleNearestValidationError(c, startTime, err)
		return
	}

	rows, stage, err := h.fetchPlanets(c.Request.Context(), EndpointNearest)
	if err != nil {
		handleStoreError(c, startTime, EndpointNearest, stage, err)
		return
	}
	metrics.RowsReturned.WithLabelValues(EndpointNearest).Observe(float64(len(rows)))

	idx, err := services.Nearest(rows, req.Latitude, req.Longitude)
	if errors.Is(err, services.ErrNoPlanets) {
		handleNoPlanets(c, startTime, &req)
		return
	}
	if err != nil {
		handleCoordinateError(c, startTime, &req, err)
		return
	}

	logger.Logger.Debug("최근접 행성 계산 완료",
		zap.String(LogFieldEndpoint, EndpointNearest),
		zap.Float64(LogFieldLatitude, req.Latitude),
		zap.Float64(LogFieldLongitude, req.Longitude),
		zap.Int(LogFieldRows, len(rows)),
		zap.Int64(LogFieldDurationMs, time.Since(startTime).Milliseconds()),
	)
	recordMetrics(EndpointNearest, StatusSuccess, startTime)

	c.JSON(http.StatusOK, services.CoerceRow(rows[idx]))
}

// parseNearestRequest extracts and parses the coordinate query parameters
func parseNearestRequest(c *gin.Context) (NearestRequest, error) {
	rawLat, okLat := c.GetQuery(services.ColumnLatitude)
	rawLong, okLong := c.GetQuery(services.ColumnLongitude)
	if !okLat || !okLong {
		return NearestRequest{}, errMissingParams
	}

	lat, err := services.ParseFloat(rawLat)
	if err != nil {
		return NearestRequest{}, fmt.Errorf("galactic_latitude: %w", err)
	}
	long, err := services.ParseFloat(rawLong)
	if err != nil {
		return NearestRequest{}, fmt.Errorf("galactic_longitude: %w", err)
	}

	return NearestRequest{Latitude: lat, Longitude: long}, nil
}

// handleNearestValidationError handles bad query parameters; the store is never touched
func handleNearestValidationError(c *gin.Context, startTime time.Time, err error) {
	logger.Logger.Info("잘못된 쿼리 파라미터",
		zap.String(LogFieldEndpoint, EndpointNearest),
		zap.String("query", c.Request.URL.RawQuery),
		zap.Error(err),
	)
	recordMetrics(EndpointNearest, StatusError, startTime)
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   invalidParamsMessage,
		Example: nearestUsageExample,
	})
}

// handleNoPlanets handles an empty planets table
func handleNoPlanets(c *gin.Context, startTime time.Time, req *NearestRequest) {
	logger.Logger.Info("행성 데이터 없음",
		zap.String(LogFieldEndpoint, EndpointNearest),
		zap.Float64(LogFieldLatitude, req.Latitude),
		zap.Float64(LogFieldLongitude, req.Longitude),
	)
	recordMetrics(EndpointNearest, StatusError, startTime)
	c.JSON(http.StatusNotFound, ErrorResponse{Error: noPlanetsMessage})
}

// handleCoordinateError handles rows whose coordinates are not numeric
func handleCoordinateError(c *gin.Context, startTime time.Time, req *NearestRequest, err error) {
	logger.Logger.Error("행성 좌표 변환 실패",
		zap.String(LogFieldEndpoint, EndpointNearest),
		zap.Float64(LogFieldLatitude, req.Latitude),
		zap.Float64(LogFieldLongitude, req.Longitude),
		zap.Error(err),
	)
	recordMetrics(EndpointNearest, StatusError, startTime)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: fmt.Sprintf("Invalid planet coordinates: %v", err),
	})
}
