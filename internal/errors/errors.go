// Package errors provides the error taxonomy shared by the index store and the
// reconciler. Store failures are reported as *StoreError, malformed input as
// *RecordError; both match the sentinels below with errors.Is.
package errors

import (
	"errors"
	"fmt"
)

// New is an alias for the standard library errors.New.
var New = errors.New

// Is, As and Unwrap are re-exported so callers need a single errors import.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

var (
	// ErrNotFound indicates that a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRecord indicates a caller supplied a malformed link record.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrTransactionFailed indicates the store could not begin or commit a unit of work.
	// Nothing from the failed unit of work is visible; callers retry from scratch.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrConstraintViolation indicates a key conflict the store refused to resolve.
	ErrConstraintViolation = errors.New("constraint violation")
)

// StoreError wraps a failure of the persisted record store.
type StoreError struct {
	Op   string // operation that failed, e.g. "commit" or "insert snapshot"
	Kind error  // one of the sentinels above, or nil for an unclassified failure
	Err  error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.Kind != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *StoreError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// NewStoreError creates a StoreError of the given kind.
func NewStoreError(op string, kind error, err error) *StoreError {
	return &StoreError{Op: op, Kind: kind, Err: err}
}

// TransactionFailed wraps err as an ErrTransactionFailed store error.
func TransactionFailed(op string, err error) *StoreError {
	return NewStoreError(op, ErrTransactionFailed, err)
}

// ConstraintViolation wraps err as an ErrConstraintViolation store error.
func ConstraintViolation(op string, err error) *StoreError {
	return NewStoreError(op, ErrConstraintViolation, err)
}

// RecordError reports a malformed record at a position in a caller's input.
type RecordError struct {
	Index   int
	URL     string
	Message string
}

// Error implements the error interface
func (e *RecordError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("invalid record %d (%s): %s", e.Index, e.URL, e.Message)
	}
	return fmt.Sprintf("invalid record %d: %s", e.Index, e.Message)
}

// Is implements errors.Is support
func (e *RecordError) Is(target error) bool {
	return target == ErrInvalidRecord
}

// NewRecordError creates a RecordError.
func NewRecordError(index int, url, message string) *RecordError {
	return &RecordError{Index: index, URL: url, Message: message}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransactionFailed checks if an error is a transaction failure
func IsTransactionFailed(err error) bool {
	return errors.Is(err, ErrTransactionFailed)
}

// IsConstraintViolation checks if an error is a constraint violation
func IsConstraintViolation(err error) bool {
	return errors.Is(err, ErrConstraintViolation)
}

// IsInvalidRecord checks if an error is an invalid record error
func IsInvalidRecord(err error) bool {
	return errors.Is(err, ErrInvalidRecord)
}
