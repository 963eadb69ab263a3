package port

import (
	"context"
	"time"

	"tasklist/internal/core/domain"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encrypted string) bool
	// VerifyDummy performs a comparison whose result is discarded, so that
	// unknown users cost the same as known ones.
	VerifyDummy(password string)
}

type TokenService interface {
	Issue(subject string, ttl time.Duration) (string, error)
	Validate(token string) (string, error)
}

type AccessToken struct {
	Token     string
	TokenType string
}

type AuthService interface {
	Register(ctx context.Context, reg domain.Registration) (domain.User, error)
	Authenticate(ctx context.Context, username, password string) (domain.User, error)
	Login(ctx context.Context, username, password string) (AccessToken, error)
}

type SessionResolver interface {
	Resolve(ctx context.Context, token string) (domain.User, error)
}
