package services

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated       = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	ErrEmailTaken            = errors.New("email already registered")
	ErrNotFound              = errors.New("not found")
	ErrUnknownProvider       = errors.New("unknown sign-in provider")
)

// ValidationError is a client input problem. Message is safe to return as-is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
