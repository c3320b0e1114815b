/*
errors.go - Centralized error types for the generic engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The lease package wraps these errors with domain context.

ERROR CATEGORIES:
  1. Schedule errors - Degenerate interval generator input
  2. Store errors - Persistence failures and conflicts
  3. Lookup errors - Missing records

USAGE:
  if errors.Is(err, generic.ErrInvalidFrequency) {
      // reject before touching storage
  }

SEE ALSO:
  - period.go: Returns IntervalError
  - lease/errors.go: Domain validation errors
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidStart is returned when a schedule has no start instant.
	ErrInvalidStart = errors.New("invalid start date")

	// ErrInvalidPeriod is returned when the charge period is not positive.
	ErrInvalidPeriod = errors.New("invalid period: value must be positive")

	// ErrInvalidFrequency is returned when the period count is not positive.
	ErrInvalidFrequency = errors.New("invalid frequency: must be at least 1")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateReference is returned when a ledger entry reuses a
	// reference code. Expected for client retries.
	ErrDuplicateReference = errors.New("duplicate reference code")

	// ErrTransactionFailed is returned when an atomic unit cannot commit.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrConcurrentModification is returned when the store detects a
	// conflicting write to the same row.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// IntervalError names the schedule input that was rejected.
type IntervalError struct {
	Field string
	Err   error
}

func (e *IntervalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *IntervalError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsScheduleError returns true for degenerate schedule input.
func IsScheduleError(err error) bool {
	return errors.Is(err, ErrInvalidStart) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidFrequency)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
