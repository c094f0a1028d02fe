package kothdb

import "errors"

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoRowsAffected is returned when a guarded update matched nothing.
	ErrNoRowsAffected = errors.New("no rows affected")
)
