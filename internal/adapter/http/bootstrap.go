package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"tasklist/internal/adapter/database"
	"tasklist/internal/adapter/http/routes"
	"tasklist/internal/adapter/telemetry"
	"tasklist/internal/config"
	"tasklist/internal/core/port"
	coretelemetry "tasklist/internal/core/telemetry"
)

const shutdownTimeout = 10 * time.Second

// StartServerWithConfig serves the API until ctx is cancelled, then drains
// in-flight requests and releases the store.
func StartServerWithConfig(ctx context.Context, cfg *config.AppConfig, logger *otelzap.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	var (
		probe   port.Telemetry = coretelemetry.NewNoOpProbe()
		metrics *coretelemetry.AppMetrics
	)

	if cfg.Telemetry.Enabled {
		tc, err := telemetry.NewContainer(ctx, telemetry.Config{
			ServiceName:    cfg.ServiceName,
			ServiceVersion: "1.0.0",
			Environment:    cfg.Environment,
			MetricsPort:    cfg.Telemetry.MetricsPort,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		}, logger)

		if err != nil {
			return err
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := tc.Shutdown(shutdownCtx); err != nil {
				logger.Error("Telemetry shutdown failed", zap.Error(err))
			}
		}()

		probe = tc.NewTelemetryProbe()
		metrics = tc.AppMetrics

		metrics.StartSystemMetrics(ctx, 15*time.Second)
	}

	store, err := database.Connect(ctx, cfg.Database, probe, logger)

	if err != nil {
		return err
	}

	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	container, err := NewContainer(ctx, cfg, store, probe, logger)

	if err != nil {
		return err
	}

	defer container.Close()

	router := routes.SetupRouterWithConfig(container.Handlers, metrics, logger, cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	logger.Info("Server starting",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("database", cfg.Database.Driver),
		zap.Bool("rate_limit_enabled", cfg.RateLimitEnabled),
		zap.Bool("https_enforced", cfg.EnforceHTTPS))

	serveErr := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
