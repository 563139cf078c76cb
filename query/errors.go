package query

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized means the database file or its schema is missing. Run Init first.
	ErrNotInitialized = errors.New("activity store not initialized")
	// ErrIOFailure wraps any failure of the underlying database.
	ErrIOFailure = errors.New("activity store unavailable")
	// ErrCorruptRecord marks a stored row that cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt activity record")
)

// StoreError carries the failing operation and one of the Err* kinds above.
// errors.Is matches it against its kind as well as the underlying cause.
type StoreError struct {
	Kind error
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func notInitialized(op string) error {
	return &StoreError{Kind: ErrNotInitialized, Op: op}
}

func ioFailure(op string, err error) error {
	return &StoreError{Kind: ErrIOFailure, Op: op, Err: err}
}

func corrupt(id int64, err error) error {
	return &StoreError{Kind: ErrCorruptRecord, Op: fmt.Sprintf("decode record %d", id), Err: err}
}
