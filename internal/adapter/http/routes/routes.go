package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"tasklist/internal/adapter/http/handler"
	"tasklist/internal/adapter/http/middleware"
	"tasklist/internal/config"
	"tasklist/internal/core/port"
	"tasklist/internal/core/telemetry"
)

type HandlersConfig struct {
	AuthHandler   *handler.AuthHandler
	UserHandler   *handler.UserHandler
	TodoHandler   *handler.TodoHandler
	HealthHandler *handler.HealthHandler
	Sessions      port.SessionResolver
}

func SetupRouterWithConfig(handlers HandlersConfig, metrics *telemetry.AppMetrics, logger *otelzap.Logger, cfg *config.AppConfig) *gin.Engine {
	router := gin.New()

	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Error("Ignoring invalid trusted proxies", zap.Strings("trusted_proxies", cfg.TrustedProxies), zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}

	router.Use(gin.Recovery())
	router.Use(middleware.NewHTTPSEnforcer(cfg.EnforceHTTPS, logger).HTTPSMiddleware())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.RequestID())
	router.Use(middleware.LoggingMiddleware(logger))

	if metrics != nil {
		router.Use(middleware.MetricsMiddleware(metrics))
	}

	router.Use(middleware.CORS(cfg.AllowedOrigins))

	var limiter gin.HandlerFunc
	if cfg.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimitConfigs, logger, metrics).RateLimitMiddleware()
	}

	setupRoutes(router, handlers, metrics, logger, limiter)

	return router
}

// SetupRouterForTests wires the routes without telemetry, HTTPS redirects or
// rate limiting.
func SetupRouterForTests(handlers HandlersConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	_ = router.SetTrustedProxies(nil)
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())

	setupRoutes(router, handlers, nil, otelzap.New(zap.NewNop()), nil)

	return router
}

func setupRoutes(router *gin.Engine, handlers HandlersConfig, metrics *telemetry.AppMetrics, logger *otelzap.Logger, limiter gin.HandlerFunc) {
	if handlers.HealthHandler != nil {
		router.GET("/healthz", handlers.HealthHandler.Health)
	}

	public := router.Group("/")
	if limiter != nil {
		public.Use(limiter)
	}

	if handlers.AuthHandler != nil {
		public.POST("/users/", handlers.AuthHandler.Register)
		public.POST("/token", handlers.AuthHandler.Login)
	}

	protected := router.Group("/")
	protected.Use(middleware.Authenticate(handlers.Sessions, metrics, logger))
	if limiter != nil {
		protected.Use(limiter)
	}

	if handlers.UserHandler != nil {
		protected.GET("/users/me/", handlers.UserHandler.Me)
	}

	if handlers.TodoHandler != nil {
		protected.GET("/todos/", handlers.TodoHandler.List)
		protected.POST("/todos/", handlers.TodoHandler.Create)
		protected.DELETE("/todos/completed", handlers.TodoHandler.DeleteCompleted)
		protected.PUT("/todos/:id", handlers.TodoHandler.Update)
		protected.DELETE("/todos/:id", handlers.TodoHandler.Delete)
	}
}
