/*
Package planning manages future weekly shift rosters.

A PlanWeek is keyed by its Monday date and owns zero or more PlanEntries
(employee, date within the week, start/end time-of-day, optional note).
Entries are wholesale-replaced on every save of the parent week, not
diffed: the store deletes all existing entries and inserts the new set in
one transaction.

Plans are forward-looking roster intentions; they never feed salary
computation, which works only off recorded daily shifts.
*/
package planning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lucero/shiftpay/engine"
)

var (
	// ErrNotMonday is returned when a week start date is not a Monday.
	ErrNotMonday = errors.New("week start must be a Monday")

	// ErrOutsideWeek is returned when an entry's date falls outside its
	// parent week's Monday-through-Sunday span.
	ErrOutsideWeek = errors.New("entry date outside plan week")

	// ErrBadClock is returned for unparseable start/end times.
	ErrBadClock = errors.New("invalid clock time")
)

// =============================================================================
// TYPES
// =============================================================================

// PlanWeek is one week's roster, keyed by its Monday date.
type PlanWeek struct {
	ID          string
	WeekStart   time.Time // Monday, midnight UTC
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PlanEntry is one planned turn. Times stay as clock strings: plans are
// roster intentions, not recorded work.
type PlanEntry struct {
	ID         string
	PlanWeekID string
	EmployeeID engine.EmployeeID
	Date       time.Time // within [WeekStart, WeekStart+6]
	StartTime  string    // "15:04"
	EndTime    string
	Note       string
}

// =============================================================================
// STORE CONTRACT
// =============================================================================

// Store persists plan weeks. ReplaceWeek must upsert the week and swap
// its entire entry set atomically.
type Store interface {
	// FindWeek returns the plan for a Monday date, or nil when absent.
	FindWeek(ctx context.Context, weekStart time.Time) (*PlanWeek, error)

	// GetEntries returns a week's entries ordered by date, start, end.
	GetEntries(ctx context.Context, planWeekID string) ([]PlanEntry, error)

	// ReplaceWeek upserts the week and wholesale-replaces its entries.
	ReplaceWeek(ctx context.Context, week PlanWeek, entries []PlanEntry) error

	// DeleteWeek removes a plan week and, by cascade, its entries.
	DeleteWeek(ctx context.Context, id string) error
}

// =============================================================================
// SERVICE
// =============================================================================

// Service validates and saves weekly plans over a Store.
type Service struct {
	Store Store
}

func NewService(store Store) *Service {
	return &Service{Store: store}
}

// EntryInput is one roster line as submitted by the client.
type EntryInput struct {
	EmployeeID engine.EmployeeID
	Date       time.Time
	StartTime  string
	EndTime    string
	Note       string
}

// SaveWeek validates the week and replaces its entries wholesale.
// An existing plan for the same Monday keeps its identity.
func (s *Service) SaveWeek(ctx context.Context, weekStart time.Time, name, description string, inputs []EntryInput) (*PlanWeek, []PlanEntry, error) {
	weekStart = engine.Midnight(weekStart)
	if weekStart.Weekday() != time.Monday {
		return nil, nil, fmt.Errorf("%w: got %s", ErrNotMonday, weekStart.Weekday())
	}
	weekEnd := weekStart.AddDate(0, 0, 6)

	existing, err := s.Store.FindWeek(ctx, weekStart)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	week := PlanWeek{
		ID:          uuid.NewString(),
		WeekStart:   weekStart,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if existing != nil {
		week.ID = existing.ID
		week.CreatedAt = existing.CreatedAt
	}

	entries := make([]PlanEntry, 0, len(inputs))
	for _, in := range inputs {
		date := engine.Midnight(in.Date)
		if date.Before(weekStart) || date.After(weekEnd) {
			return nil, nil, fmt.Errorf("%w: %s not in week of %s",
				ErrOutsideWeek, date.Format("2006-01-02"), weekStart.Format("2006-01-02"))
		}
		for _, clock := range []string{in.StartTime, in.EndTime} {
			if _, err := time.Parse(engine.ClockLayout, clock); err != nil {
				return nil, nil, fmt.Errorf("%w: %q", ErrBadClock, clock)
			}
		}
		entries = append(entries, PlanEntry{
			ID:         uuid.NewString(),
			PlanWeekID: week.ID,
			EmployeeID: in.EmployeeID,
			Date:       date,
			StartTime:  in.StartTime,
			EndTime:    in.EndTime,
			Note:       in.Note,
		})
	}

	if err := s.Store.ReplaceWeek(ctx, week, entries); err != nil {
		return nil, nil, err
	}

	saved, err := s.Store.GetEntries(ctx, week.ID)
	if err != nil {
		return nil, nil, err
	}
	return &week, saved, nil
}

// GetWeek returns the plan and its ordered entries for a Monday date.
// A week with no plan yet returns (nil, nil, nil).
func (s *Service) GetWeek(ctx context.Context, weekStart time.Time) (*PlanWeek, []PlanEntry, error) {
	weekStart = engine.Midnight(weekStart)
	if weekStart.Weekday() != time.Monday {
		return nil, nil, fmt.Errorf("%w: got %s", ErrNotMonday, weekStart.Weekday())
	}

	week, err := s.Store.FindWeek(ctx, weekStart)
	if err != nil {
		return nil, nil, err
	}
	if week == nil {
		return nil, nil, nil
	}

	entries, err := s.Store.GetEntries(ctx, week.ID)
	if err != nil {
		return nil, nil, err
	}
	return week, entries, nil
}
