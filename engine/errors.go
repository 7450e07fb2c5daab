/*
errors.go - Centralized error types for the shift engine

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Callers match with errors.Is/errors.As; the API layer maps these to
  HTTP status codes via the classifier helpers.

ERROR CATEGORIES:
  1. Reconciliation errors - Invalid, overlapping, or surplus ranges
  2. Pay errors - Missing hourly rate
  3. Store errors - Missing records, unavailable backing store

SEE ALSO:
  - shift.go: Raises the reconciliation errors
  - store/sqlite: Wraps database failures in ErrStoreUnavailable
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when a complete range has its exit at or
	// before its entry after overnight resolution, or a clock string is
	// malformed.
	ErrInvalidRange = errors.New("invalid range: exit not after entry")

	// ErrOverlap is returned when a candidate range intersects a complete
	// range already on the record. Never silently merged.
	ErrOverlap = errors.New("range overlaps an existing turn")

	// ErrSlotConflict is returned when an earlier-starting candidate cannot
	// displace the first turn because the second slot is already occupied.
	ErrSlotConflict = errors.New("second turn already occupied")

	// ErrCapacityExceeded is returned when a record already holds two turns.
	// Callers must edit an existing turn instead of submitting a third.
	ErrCapacityExceeded = errors.New("shift already has two turns")

	// ErrMissingRate is returned when pay is requested for an employee with
	// no hourly rate assigned. Reported, never silently zeroed.
	ErrMissingRate = errors.New("employee has no hourly rate")

	// ErrNotFound is returned when a referenced employee or record does
	// not exist.
	ErrNotFound = errors.New("record not found")

	// ErrStoreUnavailable is returned when the backing store times out or
	// the connection fails. Retryable by the caller, not by the engine.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// OverlapError reports which existing turn the candidate collided with.
type OverlapError struct {
	Candidate TimeRange
	Existing  TimeRange
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("range %s overlaps existing turn %s", e.Candidate, e.Existing)
}

func (e *OverlapError) Unwrap() error { return ErrOverlap }

// SlotConflictError reports a displacement attempt with no free slot.
type SlotConflictError struct {
	Candidate TimeRange
	Occupied  TimeRange
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("cannot reorder %s as first turn: second slot already holds %s",
		e.Candidate, e.Occupied)
}

func (e *SlotConflictError) Unwrap() error { return ErrSlotConflict }

// MissingRateError identifies the employee whose pay could not be computed.
type MissingRateError struct {
	EmployeeID EmployeeID
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("employee %s has no hourly rate assigned", e.EmployeeID)
}

func (e *MissingRateError) Unwrap() error { return ErrMissingRate }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrOverlap) ||
		errors.Is(err, ErrSlotConflict) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrMissingRate)
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
