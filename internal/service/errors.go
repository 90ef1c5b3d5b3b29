package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateIdentity  = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("user not found")
	ErrTokenExpired       = errors.New("reset token has expired")
	ErrTokenInvalid       = errors.New("reset token is invalid")
	ErrInternal           = errors.New("internal error")
)

// internal marks err as a server-side failure. The cause stays in the
// chain for logging.
func internal(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
