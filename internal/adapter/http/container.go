package http

import (
	"context"
	"errors"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"tasklist/internal/adapter/cache"
	"tasklist/internal/adapter/database"
	"tasklist/internal/adapter/http/handler"
	"tasklist/internal/adapter/http/routes"
	"tasklist/internal/config"
	"tasklist/internal/core/port"
	"tasklist/internal/core/service"
	"tasklist/internal/core/util"
	"tasklist/pkg/auth"
)

type Container struct {
	Store *database.Store
	Cache port.CacheRepository

	AuthService    *service.AuthService
	SessionService *service.SessionService
	TodoService    *service.TodoService

	Handlers routes.HandlersConfig

	closers []func() error
}

// NewContainer wires services and handlers around an opened store.
func NewContainer(ctx context.Context, cfg *config.AppConfig, store *database.Store, telemetry port.Telemetry, logger *otelzap.Logger) (*Container, error) {
	tokens := auth.NewJWT(cfg.Auth.Secret)
	hasher := util.NewPasswordHasher(cfg.Auth.BcryptCost)

	authSvc := service.NewAuthService(store.Users, hasher, tokens, cfg.Auth.TokenTTL, telemetry, logger)
	sessionSvc := service.NewSessionService(tokens, store.Users)

	todoOpts := []service.TodoOption{
		service.WithTelemetry(telemetry),
		service.WithLogger(logger),
	}

	c := &Container{Store: store}

	if cfg.Cache.Enabled {
		listCache, closer, err := newListCache(ctx, cfg.Cache)

		if err != nil {
			return nil, err
		}

		if closer != nil {
			c.closers = append(c.closers, closer)
		}

		c.Cache = listCache
		todoOpts = append(todoOpts, service.WithListCache(listCache, cfg.Cache.TTL))

		logger.Info("Todo list cache enabled",
			zap.Bool("redis", cfg.Cache.RedisURL != ""),
			zap.Duration("ttl", cfg.Cache.TTL))
	}

	todoSvc := service.NewTodoService(store.Todos, todoOpts...)

	c.AuthService = authSvc
	c.SessionService = sessionSvc
	c.TodoService = todoSvc
	c.Handlers = routes.HandlersConfig{
		AuthHandler:   handler.NewAuthHandler(authSvc, logger),
		UserHandler:   handler.NewUserHandler(),
		TodoHandler:   handler.NewTodoHandler(todoSvc, logger),
		HealthHandler: handler.NewHealthHandler(store, logger),
		Sessions:      sessionSvc,
	}

	return c, nil
}

func newListCache(ctx context.Context, cfg config.CacheConfig) (port.CacheRepository, func() error, error) {
	if cfg.RedisURL == "" {
		return cache.NewMemoryCache(cfg.TTL, 2*cfg.TTL), nil, nil
	}

	redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL)

	if err != nil {
		return nil, nil, err
	}

	return redisCache, redisCache.Close, nil
}

func (c *Container) Close() error {
	var errs []error

	for _, closer := range c.closers {
		errs = append(errs, closer())
	}

	return errors.Join(errs...)
}
