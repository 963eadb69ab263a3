package factory

import (
	"fmt"
	"math/rand/v2"
	"time"

	fab "github.com/Goldziher/fabricator"
	"golang.org/x/crypto/bcrypt"
)

const DefaultPassword = "12345678"

// RandomPhone returns a number accepted by the mobile validator.
func RandomPhone() string {
	return fmt.Sprintf("13%09d", rand.IntN(1_000_000_000))
}

func RandomUsername() string {
	return fmt.Sprintf("user_%d", rand.IntN(1_000_000_000))
}

// NewUser builds a user with a bcrypt digest of DefaultPassword unless
// PasswordHash is given.
func NewUser[T any](customData ...map[string]any) T {
	instance := fab.New(*new(T))

	phone := RandomPhone()
	defaults := map[string]any{
		"ID":          int64(0),
		"Username":    RandomUsername(),
		"PhoneNumber": &phone,
		"CreatedAt":   time.Now().UTC(),
	}

	hasPassword := false
	for _, data := range customData {
		if _, exists := data["PasswordHash"]; exists {
			hasPassword = true
			break
		}
	}

	if !hasPassword {
		encrypted, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
		defaults["PasswordHash"] = string(encrypted)
	}

	return instance.Build(append([]map[string]any{defaults}, customData...)...)
}
