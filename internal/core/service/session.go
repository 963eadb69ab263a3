package service

import (
	"context"
	"errors"
	"fmt"

	"tasklist/internal/core/domain"
	"tasklist/internal/core/port"
)

// SessionService turns a bearer token into the account it was issued for.
type SessionService struct {
	tokens port.TokenService
	users  port.UserRepository
}

func NewSessionService(tokens port.TokenService, users port.UserRepository) *SessionService {
	return &SessionService{tokens: tokens, users: users}
}

// Resolve fails with domain.ErrUnauthenticated when the token is expired or
// invalid, or when its subject no longer exists. The token error stays in
// the chain so callers can tell expiry apart.
func (s *SessionService) Resolve(ctx context.Context, token string) (domain.User, error) {
	username, err := s.tokens.Validate(token)

	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}

	user, err := s.users.GetByUsername(ctx, username)

	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthenticated
		}

		return domain.User{}, err
	}

	user.PasswordHash = ""

	return user, nil
}
