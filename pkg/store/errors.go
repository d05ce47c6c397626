package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a missing record on read or update paths. Deletes
	// never return it.
	ErrNotFound = errors.New("record not found")
	// ErrStoreUnavailable wraps every failure of the primary store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrIndexUnavailable wraps every failure of the search index.
	ErrIndexUnavailable = errors.New("search index unavailable")
	// ErrReadOnly rejects writes while the application is in read-only mode.
	ErrReadOnly = errors.New("operation denied: application is in read-only mode")
)

// StoreError tags err as a store failure of op unless it already is one.
func StoreError(op string, err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// IndexError tags err as an index failure of op unless it already is one.
func IndexError(op string, err error) error {
	if err == nil || errors.Is(err, ErrIndexUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrIndexUnavailable, op, err)
}
