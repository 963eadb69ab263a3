package util

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"tasklist/internal/core/domain"
)

const maxPasswordBytes = 72

// PasswordHasher produces salted bcrypt digests.
type PasswordHasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", domain.NewValidationError("password", domain.ErrPasswordTooLong)
	}

	encrypted, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)

	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.NewValidationError("password", domain.ErrPasswordTooLong)
		}

		return "", err
	}

	return string(encrypted), nil
}

func (h *PasswordHasher) Verify(password, encrypted string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encrypted), []byte(password)) == nil
}

// VerifyDummy burns the same amount of work as Verify against a real digest.
func (h *PasswordHasher) VerifyDummy(password string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), h.cost)
	})

	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}
