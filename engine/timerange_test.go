package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lucero/shiftpay/engine"
)

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC) // a Monday

func mustRange(t *testing.T, entry, exit string) engine.TimeRange {
	t.Helper()
	r, err := engine.ResolveClock(day, entry, exit)
	if err != nil {
		t.Fatalf("ResolveClock(%s, %s): %v", entry, exit, err)
	}
	return r
}

// =============================================================================
// CLOCK RESOLUTION
// =============================================================================

func TestResolveClock_SameDay(t *testing.T) {
	// GIVEN: entry 09:00, exit 17:30 on the same day
	// WHEN: resolved
	// THEN: both ends land on the anchor date, 8.5 hours apart

	r := mustRange(t, "09:00", "17:30")

	if r.Entry.Day() != 10 || r.Exit.Day() != 10 {
		t.Errorf("expected both ends on day 10, got entry=%v exit=%v", r.Entry, r.Exit)
	}
	if !r.Hours().Equal(decimal.RequireFromString("8.5")) {
		t.Errorf("expected 8.5 hours, got %v", r.Hours())
	}
}

func TestResolveClock_Overnight(t *testing.T) {
	// GIVEN: entry 22:00, exit 02:00
	// WHEN: resolved
	// THEN: the exit spills into the next calendar day, 4 hours total

	r := mustRange(t, "22:00", "02:00")

	if r.Exit.Day() != 11 {
		t.Errorf("expected exit on day 11, got %v", r.Exit)
	}
	if !r.Hours().Equal(decimal.NewFromInt(4)) {
		t.Errorf("expected 4 hours, got %v", r.Hours())
	}
}

func TestResolveClock_ExitEqualsEntry(t *testing.T) {
	// GIVEN: exit clock equal to entry clock
	// WHEN: resolved
	// THEN: treated as a full 24h overnight spill, never a zero-width range

	r := mustRange(t, "08:00", "08:00")

	if !r.Hours().Equal(decimal.NewFromInt(24)) {
		t.Errorf("expected 24 hours, got %v", r.Hours())
	}
}

func TestResolveClock_OpenShift(t *testing.T) {
	// GIVEN: an entry with no exit
	// WHEN: resolved
	// THEN: the range is open and contributes zero hours

	r := mustRange(t, "09:00", "")

	if r.Complete() {
		t.Error("expected open range")
	}
	if !r.Hours().IsZero() {
		t.Errorf("open range should be zero-width, got %v", r.Hours())
	}
}

func TestResolveClock_BadClock(t *testing.T) {
	for _, clock := range []string{"25:00", "9am", "abc", "12:60"} {
		_, err := engine.ResolveClock(day, clock, "17:00")
		if !errors.Is(err, engine.ErrInvalidRange) {
			t.Errorf("entry %q: expected ErrInvalidRange, got %v", clock, err)
		}
	}
}

// =============================================================================
// OVERLAP
// =============================================================================

func TestOverlaps_HalfOpen(t *testing.T) {
	// GIVEN: 09:00-13:00 and 13:00-17:00
	// WHEN: tested for overlap
	// THEN: back-to-back turns sharing a boundary do not overlap

	a := mustRange(t, "09:00", "13:00")
	b := mustRange(t, "13:00", "17:00")

	if a.Overlaps(b) || b.Overlaps(a) {
		t.Error("adjacent ranges must not overlap")
	}
}

func TestOverlaps_Intersecting(t *testing.T) {
	a := mustRange(t, "09:00", "13:00")
	b := mustRange(t, "12:00", "15:00")

	// Symmetric in both directions.
	if !a.Overlaps(b) || !b.Overlaps(a) {
		t.Error("intersecting ranges must overlap symmetrically")
	}
}

func TestOverlaps_Contained(t *testing.T) {
	outer := mustRange(t, "08:00", "18:00")
	inner := mustRange(t, "10:00", "11:00")

	if !outer.Overlaps(inner) || !inner.Overlaps(outer) {
		t.Error("containment is an overlap")
	}
}

func TestOverlaps_OpenRangeNeverOverlaps(t *testing.T) {
	// GIVEN: an open shift starting inside a complete turn
	// WHEN: tested for overlap
	// THEN: zero-width ranges never overlap anything

	open := mustRange(t, "10:00", "")
	complete := mustRange(t, "09:00", "13:00")

	if open.Overlaps(complete) || complete.Overlaps(open) {
		t.Error("open ranges must never overlap")
	}
}

func TestValidate_ExitBeforeEntry(t *testing.T) {
	exit := day.Add(8 * time.Hour)
	r := engine.TimeRange{Entry: day.Add(10 * time.Hour), Exit: &exit}

	if err := r.Validate(); !errors.Is(err, engine.ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
}

// =============================================================================
// DATE HELPERS
// =============================================================================

func TestWeekStart_MondayFirst(t *testing.T) {
	monday := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		date time.Time
	}{
		{"monday itself", monday},
		{"midweek", time.Date(2025, 3, 5, 14, 30, 0, 0, time.UTC)},
		{"saturday", time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)},
		// Sunday belongs to the week that started six days earlier,
		// not the one starting the next day.
		{"sunday", time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := engine.WeekStart(tc.date); !got.Equal(monday) {
				t.Errorf("WeekStart(%v) = %v, want %v", tc.date, got, monday)
			}
		})
	}
}

func TestMidnight(t *testing.T) {
	ts := time.Date(2025, 3, 10, 18, 45, 12, 999, time.UTC)
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if got := engine.Midnight(ts); !got.Equal(want) {
		t.Errorf("Midnight = %v, want %v", got, want)
	}
}
