package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/samber/oops"

	"tasklist/internal/adapter/database/dbtrace"
	"tasklist/internal/adapter/database/sqlite"
	"tasklist/internal/core/domain"
	"tasklist/internal/core/port"
	tel "tasklist/internal/core/telemetry"
)

const system = "sqlite"

var userColumns = []string{"id", "username", "password_hash", "phone_number", "created_at"}

type UserRepository struct {
	db        *sqlite.DB
	telemetry port.Telemetry
}

func NewUserRepository(db *sqlite.DB, telemetry port.Telemetry) port.UserRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &UserRepository{
		db:        db,
		telemetry: telemetry,
	}
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		user  domain.User
		phone sql.NullString
	)

	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &phone, &user.CreatedAt); err != nil {
		return domain.User{}, err
	}

	if phone.Valid {
		user.PhoneNumber = &phone.String
	}

	return user, nil
}

func (ur *UserRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return ur.getBy(ctx, "GetByID", sq.Eq{"id": id})
}

func (ur *UserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return ur.getBy(ctx, "GetByUsername", sq.Eq{"username": username})
}

func (ur *UserRepository) GetByPhoneNumber(ctx context.Context, phone string) (domain.User, error) {
	return ur.getBy(ctx, "GetByPhoneNumber", sq.Eq{"phone_number": phone})
}

func (ur *UserRepository) getBy(ctx context.Context, name string, where sq.Eq) (user domain.User, err error) {
	op := dbtrace.Begin(ctx, ur.telemetry, system, name, "user", map[string]interface{}{"db.table": "users"})
	defer func() { op.End(err) }()

	query, args, err := ur.db.QueryBuilder.Select(userColumns...).
		From("users").
		Where(where).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.User{}, oops.Code("USER_QUERY_BUILD_FAILED").Wrap(err)
	}

	op.Query(query, args)

	user, err = scanUser(ur.db.QueryRowContext(op.Ctx, query, args...))

	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}

	if err != nil {
		return domain.User{}, oops.Code("USER_GET_FAILED").With("operation", name).Wrap(err)
	}

	return user, nil
}

// Create inserts the user. Uniqueness of username and phone number is left
// to the database; a violation comes back as *domain.ConflictError.
func (ur *UserRepository) Create(ctx context.Context, user domain.User) (created domain.User, err error) {
	op := dbtrace.Begin(ctx, ur.telemetry, system, "Create", "user", map[string]interface{}{
		"db.table":     "users",
		"db.operation": "INSERT",
	})
	defer func() { op.End(err) }()
	ctx = op.Ctx

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	tx, err := ur.db.BeginTx(ctx, nil)

	if err != nil {
		return domain.User{}, oops.Code("USER_TX_BEGIN_FAILED").Wrap(err)
	}

	defer func() { _ = tx.Rollback() }()

	query, args, err := ur.db.QueryBuilder.Insert("users").
		Columns("username", "password_hash", "phone_number", "created_at").
		Values(user.Username, user.PasswordHash, user.PhoneNumber, user.CreatedAt).
		ToSql()

	if err != nil {
		return domain.User{}, oops.Code("USER_QUERY_BUILD_FAILED").Wrap(err)
	}

	result, err := tx.ExecContext(ctx, query, args...)

	if err != nil {
		if field, ok := sqlite.ConflictField(err); ok {
			return domain.User{}, domain.NewConflict(field)
		}

		return domain.User{}, oops.Code("USER_CREATE_FAILED").Wrap(err)
	}

	id, err := result.LastInsertId()

	if err != nil {
		return domain.User{}, oops.Code("USER_CREATE_FAILED").Wrap(err)
	}

	query, args, err = ur.db.QueryBuilder.Select(userColumns...).
		From("users").
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return domain.User{}, oops.Code("USER_QUERY_BUILD_FAILED").Wrap(err)
	}

	created, err = scanUser(tx.QueryRowContext(ctx, query, args...))

	if err != nil {
		return domain.User{}, oops.Code("USER_CREATE_FAILED").Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return domain.User{}, oops.Code("USER_TX_COMMIT_FAILED").Wrap(err)
	}

	return created, nil
}
