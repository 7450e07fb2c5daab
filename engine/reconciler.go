/*
reconciler.go - Serialized read-reconcile-write over the shift store

PURPOSE:
  The reconciliation rules in shift.go are read-then-write and unsafe
  under naive concurrent execution: two submissions for the same
  (employee, date) could both read "empty", both become turn 1, and the
  second write would clobber the first. The Reconciler wraps every
  mutation in a per-key critical section; the store's unique constraint
  on the same key is the durable backstop underneath.

AUDIT:
  Every successful mutation emits one audit event. Audit recording is
  best-effort: a failure is logged at warn and never rolls back or fails
  the originating mutation.

ALL-OR-NOTHING:
  Mutations work on a clone of the loaded record and issue a single
  Upsert, so an interrupted operation leaves the stored record in its
  prior state.
*/
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// =============================================================================
// RECONCILER
// =============================================================================

// Reconciler owns all shift mutations. Construct one per store; report
// reads do not go through it and need no locking.
type Reconciler struct {
	Shifts    ShiftStore
	Employees EmployeeStore
	Audit     AuditLog

	mu    sync.Mutex
	locks map[shiftKey]*sync.Mutex
}

type shiftKey struct {
	EmployeeID EmployeeID
	Date       time.Time
}

func NewReconciler(shifts ShiftStore, employees EmployeeStore, audit AuditLog) *Reconciler {
	return &Reconciler{
		Shifts:    shifts,
		Employees: employees,
		Audit:     audit,
		locks:     make(map[shiftKey]*sync.Mutex),
	}
}

// lockKey acquires the per-key mutex, creating it on first use. Key
// mutexes are never removed; the key space is employees x days actually
// touched, which stays small for this system's scale.
func (r *Reconciler) lockKey(k shiftKey) func() {
	r.mu.Lock()
	m, ok := r.locks[k]
	if !ok {
		m = &sync.Mutex{}
		r.locks[k] = m
	}
	r.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// =============================================================================
// MUTATIONS
// =============================================================================

// TurnInput is one candidate turn as clock strings. Exit may be empty for
// an open shift.
type TurnInput struct {
	Entry string
	Exit  string
}

// SubmitShift reconciles one or two candidate turns into the record for
// employee+date, creating the record on first submission. All candidates
// are validated against the working copy before the single atomic write.
// The returned flag reports whether the record was created by this call;
// it is decided under the per-key lock so concurrent first submissions
// see exactly one creation.
func (r *Reconciler) SubmitShift(ctx context.Context, employeeID EmployeeID, date time.Time, turns []TurnInput, paid *bool) (*DailyShift, bool, error) {
	if len(turns) == 0 && paid == nil {
		return nil, false, fmt.Errorf("%w: no turns submitted", ErrInvalidRange)
	}
	date = Midnight(date)

	unlock := r.lockKey(shiftKey{EmployeeID: employeeID, Date: date})
	defer unlock()

	emp, err := r.Employees.FindEmployee(ctx, employeeID)
	if err != nil {
		return nil, false, err
	}
	if emp == nil {
		return nil, false, fmt.Errorf("%w: employee %s", ErrNotFound, employeeID)
	}

	existing, err := r.Shifts.Find(ctx, employeeID, date)
	if err != nil {
		return nil, false, err
	}

	created := existing == nil
	var work *DailyShift
	if created {
		work = NewDailyShift(ShiftID(uuid.NewString()), employeeID, date)
	} else {
		work = existing.Clone()
	}

	for _, turn := range turns {
		candidate, err := ResolveClock(date, turn.Entry, turn.Exit)
		if err != nil {
			return nil, false, err
		}
		if err := work.SubmitRange(candidate); err != nil {
			return nil, false, err
		}
	}
	if paid != nil {
		work.Paid = *paid
	}
	work.UpdatedAt = time.Now().UTC()

	if err := r.Shifts.Upsert(ctx, *work); err != nil {
		return nil, false, err
	}

	action := AuditUpdateShift
	if created {
		action = AuditCreateShift
	}
	r.audit(ctx, action, &employeeID,
		fmt.Sprintf("shift recorded for %s", date.Format("2006-01-02")))

	return work, created, nil
}

// SlotUpdate describes one slot edit: replace the turn with the given
// clocks, or clear the slot when Clear is set.
type SlotUpdate struct {
	Slot  Slot
	Entry string
	Exit  string
	Clear bool
}

// UpdateShift edits an existing record's slots and/or paid flag directly.
func (r *Reconciler) UpdateShift(ctx context.Context, id ShiftID, updates []SlotUpdate, paid *bool) (*DailyShift, error) {
	shift, err := r.Shifts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, fmt.Errorf("%w: shift %s", ErrNotFound, id)
	}

	unlock := r.lockKey(shiftKey{EmployeeID: shift.EmployeeID, Date: shift.Date})
	defer unlock()

	// Re-read under the lock; the record may have changed while waiting.
	shift, err = r.Shifts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, fmt.Errorf("%w: shift %s", ErrNotFound, id)
	}

	work := shift.Clone()
	for _, u := range updates {
		if u.Clear {
			work.ClearRange(u.Slot)
			continue
		}
		nr, err := ResolveClock(work.Date, u.Entry, u.Exit)
		if err != nil {
			return nil, err
		}
		if err := work.UpdateRange(u.Slot, nr); err != nil {
			return nil, err
		}
	}
	if paid != nil {
		work.Paid = *paid
	}
	work.UpdatedAt = time.Now().UTC()

	if err := r.Shifts.Upsert(ctx, *work); err != nil {
		return nil, err
	}

	empID := work.EmployeeID
	r.audit(ctx, AuditUpdateShift, &empID,
		fmt.Sprintf("shift updated for %s", work.Date.Format("2006-01-02")))
	return work, nil
}

// TogglePaid flips the paid flag on a record.
func (r *Reconciler) TogglePaid(ctx context.Context, id ShiftID) (*DailyShift, error) {
	shift, err := r.Shifts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, fmt.Errorf("%w: shift %s", ErrNotFound, id)
	}

	unlock := r.lockKey(shiftKey{EmployeeID: shift.EmployeeID, Date: shift.Date})
	defer unlock()

	shift, err = r.Shifts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, fmt.Errorf("%w: shift %s", ErrNotFound, id)
	}

	work := shift.Clone()
	work.Paid = !work.Paid
	work.UpdatedAt = time.Now().UTC()

	if err := r.Shifts.Upsert(ctx, *work); err != nil {
		return nil, err
	}

	state := "cleared"
	if work.Paid {
		state = "marked"
	}
	empID := work.EmployeeID
	r.audit(ctx, AuditTogglePayment, &empID,
		fmt.Sprintf("payment %s for %s", state, work.Date.Format("2006-01-02")))
	return work, nil
}

// DeleteShift removes a record.
func (r *Reconciler) DeleteShift(ctx context.Context, id ShiftID) error {
	shift, err := r.Shifts.Get(ctx, id)
	if err != nil {
		return err
	}
	if shift == nil {
		return fmt.Errorf("%w: shift %s", ErrNotFound, id)
	}

	unlock := r.lockKey(shiftKey{EmployeeID: shift.EmployeeID, Date: shift.Date})
	defer unlock()

	if err := r.Shifts.Delete(ctx, id); err != nil {
		return err
	}

	empID := shift.EmployeeID
	r.audit(ctx, AuditDeleteShift, &empID,
		fmt.Sprintf("shift deleted for %s", shift.Date.Format("2006-01-02")))
	return nil
}

// =============================================================================
// AUDIT EMISSION
// =============================================================================

// audit records one event, best-effort. Failures are logged, not returned.
func (r *Reconciler) audit(ctx context.Context, action AuditAction, employeeID *EmployeeID, details string) {
	if r.Audit == nil {
		return
	}
	entry := AuditEntry{
		ID:         uuid.NewString(),
		Action:     action,
		EmployeeID: employeeID,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}
	if err := r.Audit.Record(ctx, entry); err != nil {
		log.Warn().Err(err).Str("action", string(action)).Msg("audit record failed")
	}
}
