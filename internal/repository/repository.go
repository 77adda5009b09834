package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateUsername is returned when an insert collides on username.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrDuplicateAccount is returned when a user already has an account.
	ErrDuplicateAccount = errors.New("account already exists for user")
)
