package repository

import "errors"

var (
	ErrDuplicateIdentity = errors.New("username or email already exists")
	ErrNotFound          = errors.New("not found")
)
