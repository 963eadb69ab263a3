package sqlite

import (
	"context"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies the embedded schema and then the phone number
// column. The migrator is not closed: closing it would close db.
func (db *DB) RunMigrations(ctx context.Context) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return oops.Code("MIGRATION_SOURCE_FAILED").Wrap(err)
	}

	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		return oops.Code("MIGRATION_DRIVER_FAILED").Wrap(err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").Wrap(err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_UP_FAILED").Wrap(err)
	}

	return db.EnsurePhoneNumberColumn(ctx)
}

// EnsurePhoneNumberColumn adds users.phone_number with its unique index when
// missing. SQLite cannot add a UNIQUE column, so uniqueness comes from the
// index. Safe to run any number of times.
func (db *DB) EnsurePhoneNumberColumn(ctx context.Context) error {
	var exists int

	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info('users') WHERE name = 'phone_number'`,
	).Scan(&exists)

	if err != nil {
		return oops.Code("PHONE_COLUMN_CHECK_FAILED").Wrap(err)
	}

	if exists == 0 {
		if _, err := db.ExecContext(ctx, `ALTER TABLE users ADD COLUMN phone_number VARCHAR(20) DEFAULT NULL`); err != nil {
			return oops.Code("PHONE_COLUMN_ADD_FAILED").Wrap(err)
		}
	}

	if _, err := db.ExecContext(ctx, `CREATE UNIQUE INDEX IF NOT EXISTS users_phone_number_key ON users (phone_number)`); err != nil {
		return oops.Code("PHONE_INDEX_CREATE_FAILED").Wrap(err)
	}

	return nil
}
