package domain

import (
	"errors"
	"fmt"
)

// ErrAuthRequired indicates a mutation was attempted without an
// authenticated owner.
var ErrAuthRequired = errors.New("authentication required")

// ErrTaskNotFound indicates the referenced task is unknown to the store or
// the board snapshot.
var ErrTaskNotFound = errors.New("task not found")

// ValidationError rejects malformed task fields before any store call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StoreError wraps a persistence failure. It is transient and retryable by
// user action; the board never treats it as fatal.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
