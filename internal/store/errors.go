package store

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("row changed since it was read")
	ErrLoginTaken = errors.New("login already taken")
	ErrConstraint = errors.New("constraint violation")
)
