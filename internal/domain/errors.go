package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrOrderNotFound = fmt.Errorf("order %w", ErrNotFound)
	ErrTableNotFound = fmt.Errorf("table %w", ErrNotFound)

	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrInvalidTable      = errors.New("invalid table")

	ErrTableUnavailable = errors.New("table unavailable")
	ErrTableOccupied    = errors.New("table occupied")
	ErrNotCombined      = errors.New("table is not combined")
	ErrInvalidMerge     = errors.New("invalid merge")

	// ErrStoreUnavailable marks transient storage failures. Scheduler ticks
	// abandon on it and retry on the next period.
	ErrStoreUnavailable = errors.New("store unavailable")
)
