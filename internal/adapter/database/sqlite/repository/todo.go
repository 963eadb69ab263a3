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

type rowScanner interface {
	Scan(dest ...any) error
}

var todoColumns = []string{"id", "title", "description", "completed", "priority", "category", "created_at", "due_date", `"order"`, "owner_id"}

type TodoRepository struct {
	db        *sqlite.DB
	telemetry port.Telemetry
}

func NewTodoRepository(db *sqlite.DB, telemetry port.Telemetry) port.TodoRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoRepository{
		db:        db,
		telemetry: telemetry,
	}
}

func scanTodo(row rowScanner) (domain.Todo, error) {
	var (
		todo        domain.Todo
		description sql.NullString
		priority    string
		dueDate     sql.NullTime
	)

	err := row.Scan(&todo.ID, &todo.Title, &description, &todo.Completed, &priority,
		&todo.Category, &todo.CreatedAt, &dueDate, &todo.Order, &todo.OwnerID)

	if err != nil {
		return domain.Todo{}, err
	}

	todo.Priority = domain.Priority(priority)

	if description.Valid {
		todo.Description = &description.String
	}

	if dueDate.Valid {
		due := dueDate.Time.UTC()
		todo.DueDate = &due
	}

	todo.CreatedAt = todo.CreatedAt.UTC()

	return todo, nil
}

// mutableFields lists the columns an update replaces.
func mutableFields(todo domain.Todo) map[string]interface{} {
	return map[string]interface{}{
		"title":       todo.Title,
		"description": todo.Description,
		"completed":   todo.Completed,
		"priority":    string(todo.Priority),
		"category":    todo.Category,
		"due_date":    todo.DueDate,
		`"order"`:     todo.Order,
	}
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (tr *TodoRepository) selectOne(ctx context.Context, q queryRower, id, ownerID int64) (domain.Todo, error) {
	query, args, err := tr.db.QueryBuilder.Select(todoColumns...).
		From("todos").
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		ToSql()

	if err != nil {
		return domain.Todo{}, oops.Code("TODO_QUERY_BUILD_FAILED").Wrap(err)
	}

	todo, err := scanTodo(q.QueryRowContext(ctx, query, args...))

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Todo{}, domain.ErrNotFound
	}

	return todo, err
}

func (tr *TodoRepository) Create(ctx context.Context, todo domain.Todo) (created domain.Todo, err error) {
	op := dbtrace.Begin(ctx, tr.telemetry, system, "Create", "todo", map[string]interface{}{
		"db.table":     "todos",
		"db.operation": "INSERT",
		"user.id":      todo.OwnerID,
	})
	defer func() { op.End(err) }()
	ctx = op.Ctx

	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = time.Now().UTC()
	}

	tx, err := tr.db.BeginTx(ctx, nil)

	if err != nil {
		return domain.Todo{}, oops.Code("TODO_TX_BEGIN_FAILED").Wrap(err)
	}

	defer func() { _ = tx.Rollback() }()

	query, args, err := tr.db.QueryBuilder.Insert("todos").
		Columns("title", "description", "completed", "priority", "category", "created_at", "due_date", `"order"`, "owner_id").
		Values(todo.Title, todo.Description, todo.Completed, string(todo.Priority), todo.Category, todo.CreatedAt, todo.DueDate, todo.Order, todo.OwnerID).
		ToSql()

	if err != nil {
		return domain.Todo{}, oops.Code("TODO_QUERY_BUILD_FAILED").Wrap(err)
	}

	op.Query(query, args)

	result, err := tx.ExecContext(ctx, query, args...)

	if err != nil {
		return domain.Todo{}, oops.Code("TODO_CREATE_FAILED").With("owner_id", todo.OwnerID).Wrap(err)
	}

	id, err := result.LastInsertId()

	if err != nil {
		return domain.Todo{}, oops.Code("TODO_CREATE_FAILED").Wrap(err)
	}

	created, err = tr.selectOne(ctx, tx, id, todo.OwnerID)

	if err != nil {
		return domain.Todo{}, oops.Code("TODO_CREATE_FAILED").Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Todo{}, oops.Code("TODO_TX_COMMIT_FAILED").Wrap(err)
	}

	return created, nil
}

func (tr *TodoRepository) ListByOwner(ctx context.Context, ownerID int64, skip, limit int) (todos []domain.Todo, err error) {
	op := dbtrace.Begin(ctx, tr.telemetry, system, "ListByOwner", "todo", map[string]interface{}{
		"db.table":         "todos",
		"user.id":          ownerID,
		"pagination.skip":  skip,
		"pagination.limit": limit,
	})
	defer func() { op.End(err) }()
	ctx = op.Ctx

	todos = []domain.Todo{}

	if limit <= 0 {
		return todos, nil
	}

	query, args, err := tr.db.QueryBuilder.Select(todoColumns...).
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

	rows, err := tr.db.QueryContext(ctx, query, args...)

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

	op.Span.SetAttributes(map[string]interface{}{"db.rows_returned": len(todos)})

	return todos, nil
}

// Update replaces the mutable fields of the todo identified by (ID, OwnerID).
func (tr *TodoRepository) Update(ctx context.Context, todo domain.Todo) (updated domain.Todo, err error) {
	op := dbtrace.Begin(ctx, tr.telemetry, system, "Update", "todo", map[string]interface{}{
		"db.table":     "todos",
		"db.operation": "UPDATE",
		"todo.id":      todo.ID,
		"user.id":      todo.OwnerID,
	})
	defer func() { op.End(err) }()
	ctx = op.Ctx

	tx, err := tr.db.BeginTx(ctx, nil)

	if err != nil {
		return domain.Todo{}, oops.Code("TODO_TX_BEGIN_FAILED").Wrap(err)
	}

	defer func() { _ = tx.Rollback() }()

	query, args, err := tr.db.QueryBuilder.Update("todos").
		SetMap(mutableFields(todo)).
		Where(sq.Eq{"id": todo.ID, "owner_id": todo.OwnerID}).
		ToSql()

	if err != nil {
		return domain.Todo{}, oops.Code("TODO_QUERY_BUILD_FAILED").Wrap(err)
	}

	op.Query(query, args)

	result, err := tx.ExecContext(ctx, query, args...)

	if err != nil {
		return domain.Todo{}, oops.Code("TODO_UPDATE_FAILED").With("todo_id", todo.ID).Wrap(err)
	}

	affected, err := result.RowsAffected()

	if err != nil {
		return domain.Todo{}, oops.Code("TODO_UPDATE_FAILED").Wrap(err)
	}

	if affected == 0 {
		return domain.Todo{}, domain.ErrNotFound
	}

	updated, err = tr.selectOne(ctx, tx, todo.ID, todo.OwnerID)

	if err != nil {
		return domain.Todo{}, oops.Code("TODO_UPDATE_FAILED").Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Todo{}, oops.Code("TODO_TX_COMMIT_FAILED").Wrap(err)
	}

	return updated, nil
}

func (tr *TodoRepository) Delete(ctx context.Context, ownerID, id int64) (err error) {
	op := dbtrace.Begin(ctx, tr.telemetry, system, "Delete", "todo", map[string]interface{}{
		"db.table":     "todos",
		"db.operation": "DELETE",
		"todo.id":      id,
		"user.id":      ownerID,
	})
	defer func() { op.End(err) }()

	query, args, err := tr.db.QueryBuilder.Delete("todos").
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		ToSql()

	if err != nil {
		return oops.Code("TODO_QUERY_BUILD_FAILED").Wrap(err)
	}

	result, err := tr.db.ExecContext(op.Ctx, query, args...)

	if err != nil {
		return oops.Code("TODO_DELETE_FAILED").With("todo_id", id).Wrap(err)
	}

	affected, err := result.RowsAffected()

	if err != nil {
		return oops.Code("TODO_DELETE_FAILED").Wrap(err)
	}

	if affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (tr *TodoRepository) DeleteCompleted(ctx context.Context, ownerID int64) (count int64, err error) {
	op := dbtrace.Begin(ctx, tr.telemetry, system, "DeleteCompleted", "todo", map[string]interface{}{
		"db.table":     "todos",
		"db.operation": "DELETE",
		"user.id":      ownerID,
	})
	defer func() { op.End(err) }()

	query, args, err := tr.db.QueryBuilder.Delete("todos").
		Where(sq.Eq{"owner_id": ownerID, "completed": true}).
		ToSql()

	if err != nil {
		return 0, oops.Code("TODO_QUERY_BUILD_FAILED").Wrap(err)
	}

	result, err := tr.db.ExecContext(op.Ctx, query, args...)

	if err != nil {
		return 0, oops.Code("TODO_DELETE_COMPLETED_FAILED").With("owner_id", ownerID).Wrap(err)
	}

	count, err = result.RowsAffected()

	if err != nil {
		return 0, oops.Code("TODO_DELETE_COMPLETED_FAILED").Wrap(err)
	}

	return count, nil
}
