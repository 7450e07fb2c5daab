// Package store provides in-memory implementations of the engine's
// persistence contracts, for testing and development.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lucero/shiftpay/engine"
)

// =============================================================================
// MEMORY STORE - ShiftStore + EmployeeStore + AuditLog in one
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	shifts    map[engine.ShiftID]engine.DailyShift
	byKey     map[recordKey]engine.ShiftID
	employees map[engine.EmployeeID]engine.Employee
	audit     []engine.AuditEntry
}

type recordKey struct {
	EmployeeID engine.EmployeeID
	Date       time.Time
}

func NewMemory() *Memory {
	return &Memory{
		shifts:    make(map[engine.ShiftID]engine.DailyShift),
		byKey:     make(map[recordKey]engine.ShiftID),
		employees: make(map[engine.EmployeeID]engine.Employee),
	}
}

// =============================================================================
// SHIFT STORE
// =============================================================================

func (m *Memory) Find(_ context.Context, employeeID engine.EmployeeID, date time.Time) (*engine.DailyShift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byKey[recordKey{EmployeeID: employeeID, Date: engine.Midnight(date)}]
	if !ok {
		return nil, nil
	}
	s := m.shifts[id]
	return s.Clone(), nil
}

func (m *Memory) Get(_ context.Context, id engine.ShiftID) (*engine.DailyShift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.shifts[id]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

func (m *Memory) Upsert(_ context.Context, shift engine.DailyShift) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := recordKey{EmployeeID: shift.EmployeeID, Date: engine.Midnight(shift.Date)}
	if existingID, ok := m.byKey[k]; ok && existingID != shift.ID {
		// Same key, different ID: keep the stored record's identity so the
		// unique constraint semantics match the SQLite backstop.
		shift.ID = existingID
	}
	m.shifts[shift.ID] = *shift.Clone()
	m.byKey[k] = shift.ID
	return nil
}

func (m *Memory) Delete(_ context.Context, id engine.ShiftID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shifts[id]
	if !ok {
		return nil
	}
	delete(m.shifts, id)
	delete(m.byKey, recordKey{EmployeeID: s.EmployeeID, Date: engine.Midnight(s.Date)})
	return nil
}

func (m *Memory) Query(_ context.Context, filter engine.ShiftFilter) ([]engine.DailyShift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []engine.DailyShift
	for _, s := range m.shifts {
		if filter.EmployeeID != nil && s.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.From != nil && s.Date.Before(engine.Midnight(*filter.From)) {
			continue
		}
		if filter.To != nil && s.Date.After(engine.Midnight(*filter.To)) {
			continue
		}
		if filter.Paid != nil && s.Paid != *filter.Paid {
			continue
		}
		out = append(out, *s.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

func (m *Memory) SaveEmployee(_ context.Context, emp engine.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = emp
	return nil
}

func (m *Memory) FindEmployee(_ context.Context, id engine.EmployeeID) (*engine.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	emp, ok := m.employees[id]
	if !ok {
		return nil, nil
	}
	return &emp, nil
}

// DeleteEmployee removes the employee, cascades their shifts, and nulls
// their audit references, mirroring the SQLite foreign-key behavior.
func (m *Memory) DeleteEmployee(_ context.Context, id engine.EmployeeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.employees, id)
	for sid, s := range m.shifts {
		if s.EmployeeID == id {
			delete(m.shifts, sid)
			delete(m.byKey, recordKey{EmployeeID: id, Date: engine.Midnight(s.Date)})
		}
	}
	for i := range m.audit {
		if m.audit[i].EmployeeID != nil && *m.audit[i].EmployeeID == id {
			m.audit[i].EmployeeID = nil
		}
	}
	return nil
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (m *Memory) Record(_ context.Context, entry engine.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}

func (m *Memory) QueryAudit(_ context.Context, filter engine.AuditFilter) ([]engine.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []engine.AuditEntry
	for _, e := range m.audit {
		if filter.EmployeeID != nil && (e.EmployeeID == nil || *e.EmployeeID != *filter.EmployeeID) {
			continue
		}
		if filter.Action != nil && e.Action != *filter.Action {
			continue
		}
		if filter.From != nil && e.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.Timestamp.After(*filter.To) {
			continue
		}
		out = append(out, e)
	}

	// Most recent first, like the SQLite implementation.
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
