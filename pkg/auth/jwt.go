package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tasklist/internal/core/domain"
)

// JWT issues and validates HS256 session tokens whose subject is the
// username. The secret is fixed for the lifetime of the process.
type JWT struct {
	secret []byte
	now    func() time.Time
}

type Option func(*JWT)

// WithClock overrides the time source used for iat/exp.
func WithClock(now func() time.Time) Option {
	return func(j *JWT) {
		j.now = now
	}
}

func NewJWT(secret string, opts ...Option) *JWT {
	j := &JWT{
		secret: []byte(secret),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(j)
	}

	return j
}

func (j *JWT) Issue(subject string, ttl time.Duration) (string, error) {
	now := j.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	return token.SignedString(j.secret)
}

// Validate returns the subject of a well-formed, correctly signed and
// unexpired token. Expiry is reported as domain.ErrTokenExpired; every other
// failure as domain.ErrTokenInvalid.
func (j *JWT) Validate(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domain.ErrTokenExpired
		}

		return "", domain.ErrTokenInvalid
	}

	if claims.Subject == "" {
		return "", domain.ErrTokenInvalid
	}

	return claims.Subject, nil
}
