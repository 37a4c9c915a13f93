package shortener

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for a malformed URL or id.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidConfig is returned when no valid base URL can be derived.
	ErrInvalidConfig = errors.New("invalid base url configuration")
	// ErrNotFound is returned when no link matches the id or code.
	ErrNotFound = errors.New("link not found")
	// ErrConflict is returned when a short code is already taken.
	ErrConflict = errors.New("short code already exists")
	// ErrStoreUnavailable is returned while the store is disconnected or failing.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrStoreTimeout is returned when a store call exceeds its deadline.
	// It matches ErrStoreUnavailable under errors.Is.
	ErrStoreTimeout = fmt.Errorf("%w: operation timed out", ErrStoreUnavailable)
)
