package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AGGREGATION BUCKETER - Groups shifts by day/week/month and sums pay
// =============================================================================

// Granularity selects the bucket key for salary aggregation.
type Granularity string

const (
	GranularityDay   Granularity = "daily"
	GranularityWeek  Granularity = "weekly"  // ISO week, Monday through Sunday
	GranularityMonth Granularity = "monthly" // calendar month
)

// ParseGranularity maps a query-string value; anything unknown falls back
// to monthly, matching the default period of the salary views.
func ParseGranularity(s string) Granularity {
	switch Granularity(s) {
	case GranularityDay, GranularityWeek:
		return Granularity(s)
	default:
		return GranularityMonth
	}
}

// BucketKey returns the aggregation key for a shift date:
// "2006-01-02" for day and week (Monday of the week), "2006-01" for month.
func BucketKey(date time.Time, g Granularity) string {
	switch g {
	case GranularityDay:
		return Midnight(date).Format("2006-01-02")
	case GranularityWeek:
		return WeekStart(date).Format("2006-01-02")
	default:
		return Midnight(date).Format("2006-01")
	}
}

// ShiftWithEmployee pairs a record with its owning employee, the input
// shape for bucketing and report building.
type ShiftWithEmployee struct {
	Shift    DailyShift
	Employee Employee
}

// BucketEntry is one aggregation cell: bucket key -> summed pay.
type BucketEntry struct {
	Key string
	Pay decimal.Decimal
}

// EmployeeBuckets is one employee's aggregated row. RateMissing employees
// are flagged and excluded from pay sums, as are records with an open
// turn; their hours still count.
type EmployeeBuckets struct {
	EmployeeID   EmployeeID
	EmployeeName string
	HourlyRate   *decimal.Decimal
	RateMissing  bool
	TotalHours   decimal.Decimal
	TotalPay     decimal.Decimal
	Buckets      []BucketEntry // ordered by key
}

// BucketTotals aggregates across the whole filtered set, for summary cards.
type BucketTotals struct {
	Hours      decimal.Decimal
	Pay        decimal.Decimal
	ShiftCount int
}

// BucketResult is the full output of one Bucket call.
type BucketResult struct {
	Granularity Granularity
	Employees   []EmployeeBuckets // ordered by name, then ID
	Totals      BucketTotals
}

// Bucket groups the records by employee and bucket key and sums pay.
// Pure function of its inputs: identical record sets always produce
// identical results, regardless of input order.
func Bucket(records []ShiftWithEmployee, g Granularity) BucketResult {
	type accum struct {
		emp     Employee
		hours   decimal.Decimal
		pay     decimal.Decimal
		buckets map[string]decimal.Decimal
	}

	byEmployee := make(map[EmployeeID]*accum)
	totals := BucketTotals{Hours: decimal.Zero, Pay: decimal.Zero}

	for _, rec := range records {
		a, ok := byEmployee[rec.Employee.ID]
		if !ok {
			a = &accum{
				emp:     rec.Employee,
				hours:   decimal.Zero,
				pay:     decimal.Zero,
				buckets: make(map[string]decimal.Decimal),
			}
			byEmployee[rec.Employee.ID] = a
		}

		hours := rec.Shift.TotalHours()
		a.hours = a.hours.Add(hours)
		totals.Hours = totals.Hours.Add(hours)
		totals.ShiftCount++

		// An open turn suppresses the whole record's pay until the exit
		// is recorded; its hours still count.
		if rec.Shift.Incomplete() {
			continue
		}
		pay, err := rec.Shift.TotalPay(rec.Employee.HourlyRate)
		if err != nil {
			// Missing rate: the employee stays flagged, never zeroed in.
			continue
		}
		a.pay = a.pay.Add(pay)
		totals.Pay = totals.Pay.Add(pay)

		key := BucketKey(rec.Shift.Date, g)
		a.buckets[key] = a.buckets[key].Add(pay)
	}

	result := BucketResult{Granularity: g, Totals: totals}
	for _, a := range byEmployee {
		row := EmployeeBuckets{
			EmployeeID:   a.emp.ID,
			EmployeeName: a.emp.Name,
			HourlyRate:   a.emp.HourlyRate,
			RateMissing:  a.emp.HourlyRate == nil,
			TotalHours:   a.hours,
			TotalPay:     a.pay,
		}
		keys := make([]string, 0, len(a.buckets))
		for k := range a.buckets {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			row.Buckets = append(row.Buckets, BucketEntry{Key: k, Pay: a.buckets[k]})
		}
		result.Employees = append(result.Employees, row)
	}

	sort.Slice(result.Employees, func(i, j int) bool {
		a, b := result.Employees[i], result.Employees[j]
		if a.EmployeeName != b.EmployeeName {
			return a.EmployeeName < b.EmployeeName
		}
		return a.EmployeeID < b.EmployeeID
	})

	return result
}
