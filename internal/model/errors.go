package model

import "errors"

var (
	// ErrValidation marks input rejected before any state change.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown id or one not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a write that kept losing to concurrent writers.
	ErrConflict = errors.New("concurrency conflict")
	// ErrDelivery marks a notification that could not be delivered.
	ErrDelivery = errors.New("delivery failed")
)
