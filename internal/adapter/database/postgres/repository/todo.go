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

var todoColumns = []string{"id", "title", "description", "completed", "priority", "category", "created_at", "due_date", `"order"`, "owner_id"}

var returningTodo = "RETURNING " + strings.Join(todoColumns, ", ")

type TodoRepository struct {
	db        *postgres.DB
	telemetry port.Telemetry
}

func NewTodoRepository(db *postgres.DB, telemetry port.Telemetry) port.TodoRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoRepository{db: db, telemetry: telemetry}
}

func scanTodo(row pgx.Row) (domain.Todo, error) {
	var (
		todo     domain.Todo
		priority string
	)

	err := row.Scan(&todo.ID, &todo.Title, &todo.Description, &todo.Completed, &priority,
		&todo.Category, &todo.CreatedAt, &todo.DueDate, &todo.Order, &todo.OwnerID)

	if err != nil {
		return domain.Todo{}, err
	}

	todo.Priority = domain.Priority(priority)
	todo.CreatedAt = todo.CreatedAt.UTC()

	if todo.DueDate != nil {
		due := todo.DueDate.UTC()
		todo.DueDate = &due
	}

	return todo, nil
}

func (r *TodoRepository) Create(ctx context.Context, todo domain.Todo) (created domain.Todo, err error) {
	op := dbtrace.Begin(ctx, r.telemetry, system, "Create", "todo", map[string]interface{}{
		"db.table":     "todos",
		"db.operation": "INSERT",
		"user.id":      todo.OwnerID,
	})
	defer func() { op.End(err) }()

	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = time.Now().UTC()
	}

	query, args, err := r.db.QueryBuilder.Insert("todos").
		Columns("title", "description", "completed", "priority", "category", "created_at", "due_date", `"order"`, "owner_id").
		Values(todo.Title, todo.Description, todo.Completed, string(todo.Priority), todo.Category, todo.CreatedAt, todo.DueDate, todo.Order, todo.OwnerID).
		Suffix(returningTodo).
		ToSql()

	if err != nil {
		return domain.Todo{}, oops.Code("TODO_QUERY_BUILD_FAILED").Wrap(err)
	}

	op.Query(query, args)

	created, err = scanTodo(r.db.Pool.QueryRow(op.Ctx, query, args...))

	if err != nil {
		return domain.Todo{}, oops.Code("TODO_CREATE_FAILED").With("owner_id", todo.OwnerID).Wrap(err)
	}

	return created, nil
}

func (r *TodoRepository) ListByOwner(ctx context.Context, ownerID int64, skip, limit int) (todos []domain.Todo, err error) {
	op := dbtrace.Begin(ctx, r.telemetry, system, "ListByOwner", "todo", map[string]interface{}{
		"db.table":         "todos",
		"user.id":          ownerID,
		"pagination.skip":  skip,
		"pagination.limit": limit,
	})
	defer func() { op.End(err) }()

	todos = []domain.Todo{}

	if limit <= 0 {
		return todos, nil
	}

	query, args, err := r.db.QueryBuilder.Select(todoColumns...).
		From("todos").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("id ASC").
		Limit(uint64(limit)).
		Offset(uint64(skip)).
		ToSql()

	if err != nil {
		return nil, oops.Code("TODO_QUERY_BUILD_FAILED").Wrap(err)
	}

	op.Query(query, args)

	rows, err := r.db.Pool.Query(op.Ctx, query, args...)

	if err != nil {
		return nil, oops.Code("TODO_LIST_FAILED").With("owner_id", ownerID).Wrap(err)
	}

	defer rows.Close()

	for rows.Next() {
		todo, err := scanTodo(rows)

		if err != nil {
			return nil, oops.Code("TODO_SCAN_FAILED").Wrap(err)
		}

		todos = append(todos, todo)
	}

	if err := rows.Err(); err != nil {
		return nil, oops.Code("TODO_LIST_FAILED").Wrap(err)
	}

	return todos, nil
}

// Update replaces the mutable fields in a single statement scoped by
// (ID, OwnerID).
func (r *TodoRepository) Update(ctx context.Context, todo domain.Todo) (updated domain.Todo, err error) {
	op := dbtrace.Begin(ctx, r.telemetry, system, "Update", "todo", map[string]interface{}{
		"db.table":     "todos",
		"db.operation": "UPDATE",
		"todo.id":      todo.ID,
		"user.id":      todo.OwnerID,
	})
	defer func() { op.End(err) }()

	query, args, err := r.db.QueryBuilder.Update("todos").
		Set("title", todo.Title).
		Set("description", todo.Description).
		Set("completed", todo.Completed).
		Set("priority", string(todo.Priority)).
		Set("category", todo.Category).
		Set("due_date", todo.DueDate).
		Set(`"order"`, todo.Order).
		Where(sq.Eq{"id": todo.ID, "owner_id": todo.OwnerID}).
		Suffix(returningTodo).
		ToSql()

	if err != nil {
		return domain.Todo{}, oops.Code("TODO_QUERY_BUILD_FAILED").Wrap(err)
	}

	op.Query(query, args)

	updated, err = scanTodo(r.db.Pool.QueryRow(op.Ctx, query, args...))

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Todo{}, domain.ErrNotFound
	}

	if err != nil {
		return domain.Todo{}, oops.Code("TODO_UPDATE_FAILED").With("todo_id", todo.ID).Wrap(err)
	}

	return updated, nil
}

func (r *TodoRepository) Delete(ctx context.Context, ownerID, id int64) (err error) {
	op := dbtrace.Begin(ctx, r.telemetry, system, "Delete", "todo", map[string]interface{}{
		"db.table":     "todos",
		"db.operation": "DELETE",
		"todo.id":      id,
		"user.id":      ownerID,
	})
	defer func() { op.End(err) }()

	query, args, err := r.db.QueryBuilder.Delete("todos").
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		ToSql()

	if err != nil {
		return oops.Code("TODO_QUERY_BUILD_FAILED").Wrap(err)
	}

	tag, err := r.db.Pool.Exec(op.Ctx, query, args...)

	if err != nil {
		return oops.Code("TODO_DELETE_FAILED").With("todo_id", id).Wrap(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *TodoRepository) DeleteCompleted(ctx context.Context, ownerID int64) (count int64, err error) {
	op := dbtrace.Begin(ctx, r.telemetry, system, "DeleteCompleted", "todo", map[string]interface{}{
		"db.table":     "todos",
		"db.operation": "DELETE",
		"user.id":      ownerID,
	})
	defer func() { op.End(err) }()

	query, args, err := r.db.QueryBuilder.Delete("todos").
		Where(sq.Eq{"owner_id": ownerID, "completed": true}).
		ToSql()

	if err != nil {
		return 0, oops.Code("TODO_QUERY_BUILD_FAILED").Wrap(err)
	}

	tag, err := r.db.Pool.Exec(op.Ctx, query, args...)

	if err != nil {
		return 0, oops.Code("TODO_DELETE_COMPLETED_FAILED").With("owner_id", ownerID).Wrap(err)
	}

	return tag.RowsAffected(), nil
}
