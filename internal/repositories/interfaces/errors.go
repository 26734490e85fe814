package interfaces

import "errors"

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrStaleState is returned when a conditional update matched no document.
	ErrStaleState = errors.New("record changed or not in expected state")
)
