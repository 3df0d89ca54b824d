// Package main provides the planets API service.
//
// This service exposes a read-only REST API over the MySQL "planets" table:
//   - GET /planets: every row of the table
//   - GET /nearest_planet: the row closest to a galactic coordinate
//   - GET /healthz: database round-trip check
//   - GET /metrics: Prometheus metrics
//
// Usage:
//
//	./planets-api [--port 8080]
//
// Environment:
//
//	PORT: Server port (default: 8080)
//	DB_HOST, DB_NAME, DB_USER, DB_PASSWORD, DB_PORT: MySQL connection
//	LOG_LEVEL: zap level (default: info)
//	ENVIRONMENT: "development" for console logs (default: production)
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"planets-api/handlers"
	"planets-api/logger"
	"planets-api/metrics"
	"planets-api/middleware"
	"planets-api/services"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout = 30 * time.Second
)

var portFlag string

var rootCmd = &cobra.Command{
	Use:   "planets-api",
	Short: "Read-only HTTP API over the planets table",
	Long: `planets-api serves the MySQL planets table as JSON, finds the planet
nearest to a galactic coordinate and reports database health.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.Flags().StringVar(&portFlag, "port", "", "Port to listen on (overrides PORT)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := services.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if portFlag != "" {
		cfg.Port = portFlag
	}

	// Initialize logger
	logger.Init(cfg.LogLevel, cfg.Environment)
	defer logger.Sync()

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := mysql.SetLogger(zap.NewStdLog(logger.Logger.Named("mysql"))); err != nil {
		logger.Logger.Warn("MySQL 드라이버 로거 설정 실패", zap.Error(err))
	}

	pool, err := services.NewMySQLPool(cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := metrics.RegisterDBStats(prometheus.DefaultRegisterer, pool.DB(), cfg.DB.Name); err != nil {
		logger.Logger.Warn("DB 통계 메트릭 등록 실패", zap.Error(err))
	}

	addr := ":" + cfg.Port
	logger.Logger.Info("Starting planets API",
		zap.String("addr", addr),
		zap.String("db_addr", cfg.DB.Addr()),
		zap.String("db_name", cfg.DB.Name),
		zap.Int("pool_size", cfg.DB.PoolSize),
	)

	server := &http.Server{
		Addr:    addr,
		Handler: setupRouter(handlers.NewPlanetHandler(pool)),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Logger.Info("Server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	return gracefulShutdown(server, serverErr)
}

// setupRouter configures and returns the Gin router with all routes and middleware
func setupRouter(h *handlers.PlanetHandler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h.Register(router)

	return router
}

// gracefulShutdown waits for a signal or a server failure, then drains in-flight requests
func gracefulShutdown(server *http.Server, serverErr <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok && err != nil {
			logger.Logger.Error("Server failed", zap.Error(err))
			return err
		}
		return nil
	case sig := <-quit:
		logger.Logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Logger.Info("Server exited")
	return nil
}
