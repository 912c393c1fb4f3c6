package storage

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an insert targets an existing key
	// with different write-once identity fields. The prior record is
	// never silently overwritten.
	ErrConflict = errors.New("conflicting record for existing key")
)
