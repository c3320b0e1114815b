package lease

import (
	"errors"
	"fmt"

	"github.com/warp/lease-engine/generic"
)

var (
	// ErrValidation is the root of every input rejection. Nothing is
	// persisted when it is returned.
	ErrValidation = errors.New("validation failed")

	// ErrLeaseNotFound is returned when the lease id does not resolve.
	ErrLeaseNotFound = fmt.Errorf("lease %w", generic.ErrNotFound)

	// ErrPaymentNotFound is returned when the payment id does not resolve.
	ErrPaymentNotFound = fmt.Errorf("payment %w", generic.ErrNotFound)

	// ErrInvalidTransition is returned for a status change the lifecycle
	// does not allow (e.g. expired -> active).
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError names the rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// TransitionError provides details about a rejected status change.
type TransitionError struct {
	LeaseID LeaseID
	From    Status
	To      Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("lease %s: cannot move from %s to %s", e.LeaseID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, generic.ErrDuplicateReference) ||
		generic.IsScheduleError(err)
}
