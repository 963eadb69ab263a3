package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConflict        = errors.New("already registered")
	ErrUnauthorized    = errors.New("incorrect username or password")
	ErrUnauthenticated = errors.New("could not validate credentials")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrTokenExpired    = errors.New("token has expired")
	ErrTokenInvalid    = errors.New("token is invalid")
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

const (
	FieldUsername    = "username"
	FieldPhoneNumber = "phone_number"
)

// ConflictError reports a uniqueness violation on a user field.
type ConflictError struct {
	Field string
}

func NewConflict(field string) *ConflictError {
	return &ConflictError{Field: field}
}

func (e *ConflictError) Error() string {
	switch e.Field {
	case FieldUsername:
		return "username already registered"
	case FieldPhoneNumber:
		return "phone number already registered"
	}

	return fmt.Sprintf("%s already registered", e.Field)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ValidationError wraps the underlying validator failure.
type ValidationError struct {
	Field string
	Err   error
}

func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}

	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
