/*
shift.go - Daily shift record and the reconciliation state machine

PURPOSE:
  One DailyShift holds one employee's clock data for one calendar day:
  up to two turns (TimeRanges) and a paid flag. This file owns the one
  canonical implementation of the rules for merging a newly submitted
  range into an existing record.

RECONCILIATION STATES:
  Empty -> OneRange(open|complete) -> TwoRanges(open|complete)
  capped at two turns per day.

INVARIANTS:
  - Identity key is (EmployeeID, Date) with Date truncated to midnight UTC
  - Turn 1 starts no later than turn 2 when both are present
  - Two complete turns on the same record never overlap
  - A candidate that overlaps a complete turn is a validation failure,
    never a silent overwrite

SEE ALSO:
  - reconciler.go: Serializes read-reconcile-write against the store
  - timerange.go: Range construction and overlap test
*/
package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type ShiftID string

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee is a staff member. A nil HourlyRate means "rate not yet
// assigned" and blocks pay computation wherever it is needed.
type Employee struct {
	ID         EmployeeID
	Name       string
	HourlyRate *decimal.Decimal
	CreatedAt  time.Time
}

// =============================================================================
// DAILY SHIFT RECORD
// =============================================================================

// Slot addresses one of the two turns on a record.
type Slot int

const (
	Slot1 Slot = 1
	Slot2 Slot = 2
)

// DailyShift is one employee's clock-in/out data for one calendar day.
type DailyShift struct {
	ID         ShiftID
	EmployeeID EmployeeID
	Date       time.Time // midnight UTC; identity key with EmployeeID
	Range1     *TimeRange
	Range2     *TimeRange
	Paid       bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewDailyShift creates an empty record for an employee+date.
func NewDailyShift(id ShiftID, employeeID EmployeeID, date time.Time) *DailyShift {
	now := time.Now().UTC()
	return &DailyShift{
		ID:         id,
		EmployeeID: employeeID,
		Date:       Midnight(date),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Clone returns a deep copy. The reconciler mutates copies so a failed
// validation or write leaves the original record untouched.
func (s *DailyShift) Clone() *DailyShift {
	c := *s
	if s.Range1 != nil {
		r := *s.Range1
		c.Range1 = &r
	}
	if s.Range2 != nil {
		r := *s.Range2
		c.Range2 = &r
	}
	return &c
}

func (s *DailyShift) rangeCount() int {
	n := 0
	if s.Range1 != nil {
		n++
	}
	if s.Range2 != nil {
		n++
	}
	return n
}

// SubmitRange slots a candidate range into the record:
//
//  1. An empty record takes the candidate as turn 1.
//  2. With one turn present, a candidate overlapping it fails with
//     OverlapError. A candidate starting strictly before it becomes the
//     new turn 1 and the old turn moves to slot 2; otherwise the
//     candidate becomes turn 2.
//  3. With two turns present, an earlier-starting candidate fails with
//     SlotConflictError (nowhere to push the displaced turn); any other
//     candidate fails with ErrCapacityExceeded.
//
// The candidate must come from ResolveClock or pass Validate.
func (s *DailyShift) SubmitRange(candidate TimeRange) error {
	if err := candidate.Validate(); err != nil {
		return err
	}

	switch s.rangeCount() {
	case 0:
		c := candidate
		s.Range1 = &c
		return nil

	case 1:
		existing := s.Range1
		if existing == nil {
			existing = s.Range2
		}
		if candidate.Overlaps(*existing) {
			return &OverlapError{Candidate: candidate, Existing: *existing}
		}
		c := candidate
		if candidate.Entry.Before(existing.Entry) {
			s.Range1 = &c
			s.Range2 = existing
		} else {
			s.Range1 = existing
			s.Range2 = &c
		}
		return nil

	default:
		if candidate.Entry.Before(s.Range1.Entry) {
			return &SlotConflictError{Candidate: candidate, Occupied: *s.Range2}
		}
		return fmt.Errorf("%w: edit an existing turn instead", ErrCapacityExceeded)
	}
}

// UpdateRange replaces one slot directly, re-validating ordering and
// overlap against the other slot. Filling an empty slot is allowed.
func (s *DailyShift) UpdateRange(slot Slot, nr TimeRange) error {
	if err := nr.Validate(); err != nil {
		return err
	}

	var other *TimeRange
	switch slot {
	case Slot1:
		other = s.Range2
	case Slot2:
		other = s.Range1
	default:
		return fmt.Errorf("%w: unknown slot %d", ErrInvalidRange, slot)
	}

	if other != nil {
		if nr.Overlaps(*other) {
			return &OverlapError{Candidate: nr, Existing: *other}
		}
		// Turn 1 starts no later than turn 2.
		if slot == Slot1 && nr.Entry.After(other.Entry) {
			return fmt.Errorf("%w: turn 1 must not start after turn 2", ErrInvalidRange)
		}
		if slot == Slot2 && nr.Entry.Before(other.Entry) {
			return fmt.Errorf("%w: turn 2 must not start before turn 1", ErrInvalidRange)
		}
	}

	r := nr
	if slot == Slot1 {
		s.Range1 = &r
	} else {
		s.Range2 = &r
	}
	return nil
}

// ClearRange empties a slot. Clearing slot 1 promotes turn 2 so a single
// remaining turn always lives in slot 1.
func (s *DailyShift) ClearRange(slot Slot) {
	switch slot {
	case Slot1:
		s.Range1 = s.Range2
		s.Range2 = nil
	case Slot2:
		s.Range2 = nil
	}
}

// TotalHours sums both turns' durations, rounded to two decimal places.
// Pay is always computed from this rounded figure so reports and totals
// agree to the cent.
func (s *DailyShift) TotalHours() decimal.Decimal {
	total := decimal.Zero
	if s.Range1 != nil {
		total = total.Add(s.Range1.Hours())
	}
	if s.Range2 != nil {
		total = total.Add(s.Range2.Hours())
	}
	return total.Round(2)
}

// TotalPay multiplies total hours by the hourly rate, rounded to cents.
// A nil rate is a MissingRateError, never a silent zero.
func (s *DailyShift) TotalPay(rate *decimal.Decimal) (decimal.Decimal, error) {
	if rate == nil {
		return decimal.Zero, &MissingRateError{EmployeeID: s.EmployeeID}
	}
	return s.TotalHours().Mul(*rate).Round(2), nil
}

// Incomplete reports whether any turn has an entry with no exit yet.
func (s *DailyShift) Incomplete() bool {
	return (s.Range1 != nil && s.Range1.Exit == nil) ||
		(s.Range2 != nil && s.Range2.Exit == nil)
}

// HasDoubleTurn reports whether both turns are present and complete.
func (s *DailyShift) HasDoubleTurn() bool {
	return s.Range1 != nil && s.Range1.Complete() &&
		s.Range2 != nil && s.Range2.Complete()
}
