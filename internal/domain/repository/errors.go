package repository

import "errors"

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned on a unique violation of users.email.
	ErrDuplicateEmail = errors.New("email already registered")
)
