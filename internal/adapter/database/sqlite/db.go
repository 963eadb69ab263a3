package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"go.opentelemetry.io/otel"
)

const MemoryPath = ":memory:"

type Config struct {
	Path       string
	LogQueries bool
	MaxConns   int
}

type DB struct {
	*sql.DB
	QueryBuilder sq.StatementBuilderType
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func New(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.Path == "" {
		cfg.Path = "todos.db"
	}

	source := dsn(cfg.Path)

	sqlDB, err := otelsql.Open("sqlite3", source,
		otelsql.WithDBSystem("sqlite"),
		otelsql.WithDBName("tasklist"),
		otelsql.WithTracerProvider(otel.GetTracerProvider()),
	)

	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if cfg.LogQueries {
		logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "sqlite").Logger()
		wrapped := sqldblogger.OpenDriver(source, sqlDB.Driver(), zerologadapter.New(logger),
			sqldblogger.WithSQLQueryAsMessage(true),
			sqldblogger.WithExecerLevel(sqldblogger.LevelDebug),
			sqldblogger.WithQueryerLevel(sqldblogger.LevelDebug),
		)
		_ = sqlDB.Close()
		sqlDB = wrapped
	}

	// every connection to :memory: is a separate database, so the single
	// connection must never be recycled
	if cfg.Path == MemoryPath {
		cfg.MaxConns = 1
	} else {
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
		sqlDB.SetMaxIdleConns(cfg.MaxConns)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	return &DB{
		DB:           sqlDB,
		QueryBuilder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

// Wrap adapts an already opened handle, used with sqlmock in tests.
func Wrap(db *sql.DB) *DB {
	return &DB{
		DB:           db,
		QueryBuilder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}
