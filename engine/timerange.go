/*
Package engine provides the shift reconciliation and salary aggregation core.

PURPOSE:
  This package contains the domain types and algorithms for daily shift
  records: slotting clock-in/clock-out ranges into a day, detecting
  overlapping turns, and aggregating hours and pay across day/week/month
  buckets for salary reports.

KEY CONCEPTS IN THIS FILE (timerange.go):
  - TimeRange: A single entry-to-exit interval, half-open [Entry, Exit)
  - Overnight resolution: an exit clock at or before the entry clock
    spills into the following calendar day
  - Incomplete ranges: an entry with no exit is a valid open shift

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for hours and pay, never raw floats
  2. Purity: All computation here is side-effect free
  3. Explicit failure: A missing rate or a malformed range is an error,
     never a silent zero

SEE ALSO:
  - shift.go: Daily shift record and the reconciliation rules
  - bucket.go: Day/week/month aggregation
  - report.go: Salary report assembly
*/
package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ClockLayout is the wire format for time-of-day values ("09:30").
const ClockLayout = "15:04"

var minutesPerHour = decimal.NewFromInt(60)

// =============================================================================
// TIME RANGE - One entry/exit pair within a daily shift
// =============================================================================

// TimeRange is a half-open interval [Entry, Exit). A nil Exit means the
// shift is still open (clock-in recorded, clock-out pending).
type TimeRange struct {
	Entry time.Time
	Exit  *time.Time
}

// ResolveClock builds a TimeRange anchored on the given calendar day from
// clock strings. An exit clock at or before the entry clock is an overnight
// shift and resolves onto the following day. exitClock may be empty for an
// open shift.
func ResolveClock(date time.Time, entryClock, exitClock string) (TimeRange, error) {
	day := Midnight(date)

	entry, err := atClock(day, entryClock)
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: entry time %q", ErrInvalidRange, entryClock)
	}
	if exitClock == "" {
		return TimeRange{Entry: entry}, nil
	}

	exit, err := atClock(day, exitClock)
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: exit time %q", ErrInvalidRange, exitClock)
	}
	if !exit.After(entry) {
		exit = exit.AddDate(0, 0, 1)
	}
	return TimeRange{Entry: entry, Exit: &exit}, nil
}

func atClock(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

// Complete reports whether the range has both an entry and an exit.
func (r TimeRange) Complete() bool { return r.Exit != nil }

// Validate checks the exit-after-entry invariant for complete ranges.
// ResolveClock output always passes; ranges built from raw timestamps
// (store scans, direct slot updates) go through here.
func (r TimeRange) Validate() error {
	if r.Exit != nil && !r.Exit.After(r.Entry) {
		return fmt.Errorf("%w: exit %s not after entry %s",
			ErrInvalidRange, r.Exit.Format(time.RFC3339), r.Entry.Format(time.RFC3339))
	}
	return nil
}

// Hours returns the duration of the range in hours. Open ranges contribute
// zero. Positive by construction for any validated complete range.
func (r TimeRange) Hours() decimal.Decimal {
	if r.Exit == nil {
		return decimal.Zero
	}
	minutes := r.Exit.Sub(r.Entry).Minutes()
	return decimal.NewFromFloat(minutes).Div(minutesPerHour)
}

// Overlaps reports whether two ranges intersect, using the half-open test
// a.Entry < b.Exit && b.Entry < a.Exit. Open ranges are zero-width and
// never overlap anything.
func (r TimeRange) Overlaps(other TimeRange) bool {
	if r.Exit == nil || other.Exit == nil {
		return false
	}
	return r.Entry.Before(*other.Exit) && other.Entry.Before(*r.Exit)
}

// String renders the range as "09:00-13:00" ("09:00-" when open).
func (r TimeRange) String() string {
	if r.Exit == nil {
		return r.Entry.Format(ClockLayout) + "-"
	}
	return r.Entry.Format(ClockLayout) + "-" + r.Exit.Format(ClockLayout)
}

// =============================================================================
// DATE HELPERS
// =============================================================================

// Midnight truncates a timestamp to its calendar date at midnight UTC.
// Shift identity keys always use midnight dates.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday of the week containing the date.
// Weeks group Monday through Sunday, deliberately Monday-first.
func WeekStart(t time.Time) time.Time {
	d := Midnight(t)
	wd := int(d.Weekday())
	if wd == 0 { // Sunday belongs to the week that started six days earlier
		wd = 7
	}
	return d.AddDate(0, 0, 1-wd)
}
