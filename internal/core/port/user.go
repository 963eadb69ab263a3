package port

import (
	"context"

	"tasklist/internal/core/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	GetByPhoneNumber(ctx context.Context, phone string) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
}
