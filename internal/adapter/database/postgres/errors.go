package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"tasklist/internal/core/domain"
)

// ConflictField reports which users column a unique violation hit.
func ConflictField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return "", false
	}

	if strings.Contains(pgErr.ConstraintName, "phone") {
		return domain.FieldPhoneNumber, true
	}

	return domain.FieldUsername, true
}
