package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SALARY REPORT BUILDER - Presentation-ready summary from bucketed data
// =============================================================================
// Read-only: no persistence side effects, safe to invoke repeatedly and
// concurrently against the same record set.

// SortKey selects the ordering of detail rows.
type SortKey string

const (
	SortByDate     SortKey = "date"
	SortByEmployee SortKey = "employee"
	SortByHours    SortKey = "hours"
	SortByPay      SortKey = "pay"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Period is the date range the report was filtered by; nil bounds mean
// unbounded. Echoed into the summary.
type Period struct {
	Start *time.Time
	End   *time.Time
}

// ReportSummary carries the totals for summary cards.
type ReportSummary struct {
	TotalHours  decimal.Decimal
	TotalPay    decimal.Decimal
	ShiftCount  int
	Granularity Granularity
	Period      Period
}

// DetailRow is one shift rendered for the report table. Rows with a
// missing rate or an open turn are flagged, stay visible, and keep their
// hours in totals while their pay is excluded.
type DetailRow struct {
	ShiftID      ShiftID
	EmployeeID   EmployeeID
	EmployeeName string
	HourlyRate   *decimal.Decimal
	Date         time.Time
	Weekday      string
	Range1       *TimeRange
	Range2       *TimeRange
	Hours        decimal.Decimal
	Pay          decimal.Decimal // zero and meaningless when RateMissing or Incomplete
	Paid         bool
	RateMissing  bool
	Incomplete   bool
}

// Report is the full presentation-ready structure the rendering surface
// consumes (JSON, xlsx, UI table).
type Report struct {
	Summary   ReportSummary
	Employees []EmployeeBuckets
	Details   []DetailRow
}

// BuildReport combines bucketed aggregates with per-shift detail rows.
func BuildReport(records []ShiftWithEmployee, g Granularity, period Period, key SortKey, order SortOrder) Report {
	bucketed := Bucket(records, g)

	details := make([]DetailRow, 0, len(records))
	for _, rec := range records {
		row := DetailRow{
			ShiftID:      rec.Shift.ID,
			EmployeeID:   rec.Employee.ID,
			EmployeeName: rec.Employee.Name,
			HourlyRate:   rec.Employee.HourlyRate,
			Date:         rec.Shift.Date,
			Weekday:      rec.Shift.Date.Weekday().String(),
			Range1:       rec.Shift.Range1,
			Range2:       rec.Shift.Range2,
			Hours:        rec.Shift.TotalHours(),
			Paid:         rec.Shift.Paid,
			Incomplete:   rec.Shift.Incomplete(),
		}
		if pay, err := rec.Shift.TotalPay(rec.Employee.HourlyRate); err == nil {
			row.Pay = pay
		} else {
			row.RateMissing = true
			row.Pay = decimal.Zero
		}
		if row.Incomplete {
			// Pay is withheld from flagged rows the same way the bucketer
			// withholds it from totals.
			row.Pay = decimal.Zero
		}
		details = append(details, row)
	}

	sortDetails(details, key, order)

	return Report{
		Summary: ReportSummary{
			TotalHours:  bucketed.Totals.Hours,
			TotalPay:    bucketed.Totals.Pay,
			ShiftCount:  bucketed.Totals.ShiftCount,
			Granularity: g,
			Period:      period,
		},
		Employees: bucketed.Employees,
		Details:   details,
	}
}

// sortDetails orders rows by the chosen key with a stable tie-break on
// shift ID: the pre-sort by ID plus SliceStable makes equal-key runs
// deterministic.
func sortDetails(rows []DetailRow, key SortKey, order SortOrder) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].ShiftID < rows[j].ShiftID })

	less := func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) }
	switch key {
	case SortByEmployee:
		less = func(i, j int) bool { return rows[i].EmployeeName < rows[j].EmployeeName }
	case SortByHours:
		less = func(i, j int) bool { return rows[i].Hours.LessThan(rows[j].Hours) }
	case SortByPay:
		less = func(i, j int) bool { return rows[i].Pay.LessThan(rows[j].Pay) }
	}

	if order == SortDesc {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(rows, less)
}
