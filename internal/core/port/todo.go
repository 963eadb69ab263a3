package port

import (
	"context"

	"tasklist/internal/core/domain"
)

// TodoRepository persists todos. Every lookup and mutation is scoped by
// owner id; a todo owned by someone else is reported as domain.ErrNotFound.
type TodoRepository interface {
	Create(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	ListByOwner(ctx context.Context, ownerID int64, skip, limit int) ([]domain.Todo, error)
	Update(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	Delete(ctx context.Context, ownerID, id int64) error
	DeleteCompleted(ctx context.Context, ownerID int64) (int64, error)
}

type TodoService interface {
	Create(ctx context.Context, owner domain.User, fields domain.TodoFields) (domain.Todo, error)
	List(ctx context.Context, owner domain.User, skip, limit int) ([]domain.Todo, error)
	Update(ctx context.Context, owner domain.User, id int64, fields domain.TodoFields) (domain.Todo, error)
	Delete(ctx context.Context, owner domain.User, id int64) error
	DeleteCompleted(ctx context.Context, owner domain.User) (int64, error)
}
