package sqlite

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"

	"tasklist/internal/core/domain"
)

// ConflictField reports which users column a UNIQUE violation hit.
func ConflictField(err error) (string, bool) {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return "", false
	}

	if strings.Contains(sqliteErr.Error(), "users.phone_number") {
		return domain.FieldPhoneNumber, true
	}

	return domain.FieldUsername, true
}
