package storage

import "errors"

// Storage errors for the key-addressed stores.
var (
	// ErrNotFound is returned when no record exists at the given address.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned by create-if-absent operations when a
	// record already exists at the address. Records are never overwritten.
	ErrDuplicateKey = errors.New("duplicate key: record already exists at address")

	// ErrStaleCounter is returned by CompareAndIncrement when the stored
	// trade count no longer equals the expected value, i.e. a concurrent
	// increment won.
	ErrStaleCounter = errors.New("stale counter: trade count changed since read")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
