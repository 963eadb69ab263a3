package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"tasklist/internal/adapter/database/dbtrace"
	"tasklist/internal/adapter/database/postgres"
	"tasklist/internal/core/domain"
	"tasklist/internal/core/port"
	tel "tasklist/internal/core/telemetry"
)

const system = "postgresql"

var userColumns = []string{"id", "username", "password_hash", "phone_number", "created_at"}

type UserRepository struct {
	db        *postgres.DB
	telemetry port.Telemetry
}

func NewUserRepository(db *postgres.DB, telemetry port.Telemetry) port.UserRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &UserRepository{db: db, telemetry: telemetry}
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User

	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.PhoneNumber, &user.CreatedAt)

	return user, err
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return r.getBy(ctx, "GetByID", sq.Eq{"id": id})
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getBy(ctx, "GetByUsername", sq.Eq{"username": username})
}

func (r *UserRepository) GetByPhoneNumber(ctx context.Context, phone string) (domain.User, error) {
	return r.getBy(ctx, "GetByPhoneNumber", sq.Eq{"phone_number": phone})
}

func (r *UserRepository) getBy(ctx context.Context, name string, where sq.Eq) (user domain.User, err error) {
	op := dbtrace.Begin(ctx, r.telemetry, system, name, "user", map[string]interface{}{"db.table": "users"})
	defer func() { op.End(err) }()

	query, args, err := r.db.QueryBuilder.Select(userColumns...).
		From("users").
		Where(where).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.User{}, oops.Code("USER_QUERY_BUILD_FAILED").Wrap(err)
	}

	op.Query(query, args)

	user, err = scanUser(r.db.Pool.QueryRow(op.Ctx, query, args...))

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}

	if err != nil {
		return domain.User{}, oops.Code("USER_GET_FAILED").With("operation", name).Wrap(err)
	}

	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (created domain.User, err error) {
	op := dbtrace.Begin(ctx, r.telemetry, system, "Create", "user", map[string]interface{}{
		"db.table":     "users",
		"db.operation": "INSERT",
	})
	defer func() { op.End(err) }()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query, args, err := r.db.QueryBuilder.Insert("users").
		Columns("username", "password_hash", "phone_number", "created_at").
		Values(user.Username, user.PasswordHash, user.PhoneNumber, user.CreatedAt).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()

	if err != nil {
		return domain.User{}, oops.Code("USER_QUERY_BUILD_FAILED").Wrap(err)
	}

	op.Query(query, args)

	created, err = scanUser(r.db.Pool.QueryRow(op.Ctx, query, args...))

	if err != nil {
		if field, ok := postgres.ConflictField(err); ok {
			return domain.User{}, domain.NewConflict(field)
		}

		return domain.User{}, oops.Code("USER_CREATE_FAILED").Wrap(err)
	}

	return created, nil
}
