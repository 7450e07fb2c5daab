/*
store.go - Persistence contracts for shift records and the audit trail

PURPOSE:
  Defines the interface between the engine and the backing store. The
  engine never issues raw queries; it depends only on these narrow
  contracts. Different implementations can use SQLite or in-memory
  storage.

KEY INTERFACES:
  ShiftStore:    Record persistence keyed on (EmployeeID, Date)
  EmployeeStore: Employee lookup for rate/name resolution
  AuditLog:      Append-only record of administrative actions

ATOMICITY:
  Upsert must be atomic per identity key: the store's unique constraint
  on (employee_id, date) is the durable backstop for the reconciler's
  per-key critical section.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - engine/store: In-memory for testing
*/
package engine

import (
	"context"
	"time"
)

// =============================================================================
// SHIFT STORE
// =============================================================================

// ShiftFilter narrows a Query. Nil fields are ignored; From/To are
// inclusive calendar-date bounds.
type ShiftFilter struct {
	EmployeeID *EmployeeID
	From       *time.Time
	To         *time.Time
	Paid       *bool
}

// ShiftStore persists daily shift records.
type ShiftStore interface {
	// Find returns the record for an employee+date, or nil when absent.
	Find(ctx context.Context, employeeID EmployeeID, date time.Time) (*DailyShift, error)

	// Get returns a record by ID, or nil when absent.
	Get(ctx context.Context, id ShiftID) (*DailyShift, error)

	// Upsert writes a record, atomic with respect to (EmployeeID, Date).
	Upsert(ctx context.Context, shift DailyShift) error

	// Delete removes a record by ID.
	Delete(ctx context.Context, id ShiftID) error

	// Query returns records matching the filter, ordered by date then ID.
	Query(ctx context.Context, filter ShiftFilter) ([]DailyShift, error)
}

// EmployeeStore resolves employee metadata for pay computation.
type EmployeeStore interface {
	// FindEmployee returns the employee, or nil when absent.
	FindEmployee(ctx context.Context, id EmployeeID) (*Employee, error)
}

// =============================================================================
// AUDIT LOG - Append-only, best-effort, never fails a mutation
// =============================================================================

type AuditAction string

const (
	AuditCreateEmployee AuditAction = "CREATE_EMPLOYEE"
	AuditUpdateEmployee AuditAction = "UPDATE_EMPLOYEE"
	AuditDeleteEmployee AuditAction = "DELETE_EMPLOYEE"
	AuditCreateShift    AuditAction = "CREATE_SHIFT"
	AuditUpdateShift    AuditAction = "UPDATE_SHIFT"
	AuditDeleteShift    AuditAction = "DELETE_SHIFT"
	AuditTogglePayment  AuditAction = "TOGGLE_PAYMENT"
)

// AuditEntry records one administrative action. The employee reference is
// nulled, never cascaded-deleted, when the employee is removed.
type AuditEntry struct {
	ID         string
	Action     AuditAction
	EmployeeID *EmployeeID
	Details    string
	Timestamp  time.Time
}

// AuditFilter narrows a Query. Limit caps how many of the most recent
// entries are read; zero means the implementation's default cap.
type AuditFilter struct {
	EmployeeID *EmployeeID
	Action     *AuditAction
	From       *time.Time
	To         *time.Time
	Limit      int
}

// AuditLog stores audit entries. Append-only; entries are never mutated.
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry) error
	QueryAudit(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}
