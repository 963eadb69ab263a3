package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"tasklist/internal/adapter/database/postgres"
	pgrepository "tasklist/internal/adapter/database/postgres/repository"
	"tasklist/internal/adapter/database/sqlite"
	sqliterepository "tasklist/internal/adapter/database/sqlite/repository"
	"tasklist/internal/config"
	"tasklist/internal/core/port"
)

// Store bundles the repositories of whichever backend is configured.
type Store struct {
	Driver string
	Users  port.UserRepository
	Todos  port.TodoRepository

	ping    func(context.Context) error
	migrate func(context.Context) error
	close   func() error
}

func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Migrate applies the schema migrations and the phone number column change.
func (s *Store) Migrate(ctx context.Context) error {
	return s.migrate(ctx)
}

func (s *Store) Close() error {
	return s.close()
}

// Connect opens the configured backend, retrying with exponential backoff
// until it answers or cfg.ConnectTimeout elapses. Only startup is retried.
func Connect(ctx context.Context, cfg config.DatabaseConfig, telemetry port.Telemetry, logger *otelzap.Logger) (*Store, error) {
	if cfg.Driver != config.DriverSQLite && cfg.Driver != config.DriverPostgres {
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := retry.WithCappedDuration(5*time.Second, retry.NewExponential(250*time.Millisecond))

	var store *Store

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		s, err := open(ctx, cfg, telemetry)

		if err != nil {
			logger.Warn("Database not ready",
				zap.String("driver", cfg.Driver),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return retry.RetryableError(err)
		}

		store = s
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Driver, err)
	}

	logger.Info("Database connected", zap.String("driver", cfg.Driver), zap.Int("attempts", attempt))

	return store, nil
}

func open(ctx context.Context, cfg config.DatabaseConfig, telemetry port.Telemetry) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.New(ctx, postgres.Config{URL: cfg.URL, MaxConns: int32(cfg.MaxConns)})

		if err != nil {
			return nil, err
		}

		return &Store{
			Driver:  cfg.Driver,
			Users:   pgrepository.NewUserRepository(db, telemetry),
			Todos:   pgrepository.NewTodoRepository(db, telemetry),
			ping:    db.Ping,
			migrate: db.RunMigrations,
			close:   db.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.New(ctx, sqlite.Config{Path: cfg.Path, LogQueries: cfg.LogQueries, MaxConns: cfg.MaxConns})

		if err != nil {
			return nil, err
		}

		return &Store{
			Driver:  cfg.Driver,
			Users:   sqliterepository.NewUserRepository(db, telemetry),
			Todos:   sqliterepository.NewTodoRepository(db, telemetry),
			ping:    db.PingContext,
			migrate: db.RunMigrations,
			close:   db.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}
