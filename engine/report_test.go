package engine_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucero/shiftpay/engine"
)

func TestBuildReport_FlagsAndTotals(t *testing.T) {
	// GIVEN: two rated shifts and one shift for a rateless employee
	// WHEN: the report is built
	// THEN: the rateless row is flagged and visible; its hours count in
	//       the summary while its pay does not

	ana := engine.Employee{ID: "emp-1", Name: "Ana", HourlyRate: rate("10")}
	bruno := engine.Employee{ID: "emp-2", Name: "Bruno"}
	date := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

	records := []engine.ShiftWithEmployee{
		record(t, ana, date, [2]string{"09:00", "13:00"}),
		record(t, ana, date.AddDate(0, 0, 1), [2]string{"09:00", "13:00"}),
		record(t, bruno, date, [2]string{"08:00", "16:00"}),
	}

	rep := engine.BuildReport(records, engine.GranularityMonth, engine.Period{},
		engine.SortByDate, engine.SortAsc)

	assert.Equal(t, 3, rep.Summary.ShiftCount)
	assert.True(t, rep.Summary.TotalHours.Equal(decimal.NewFromInt(16)))
	assert.True(t, rep.Summary.TotalPay.Equal(decimal.NewFromInt(80)))

	require.Len(t, rep.Details, 3)
	var flagged *engine.DetailRow
	for i := range rep.Details {
		if rep.Details[i].EmployeeID == "emp-2" {
			flagged = &rep.Details[i]
		}
	}
	require.NotNil(t, flagged, "rateless shift must stay visible")
	assert.True(t, flagged.RateMissing)
	assert.True(t, flagged.Pay.IsZero())
	assert.True(t, flagged.Hours.Equal(decimal.NewFromInt(8)))
}

func TestBuildReport_IncompleteFlag(t *testing.T) {
	emp := engine.Employee{ID: "emp-1", Name: "Ana", HourlyRate: rate("10")}
	date := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

	records := []engine.ShiftWithEmployee{
		record(t, emp, date, [2]string{"09:00", ""}),
	}
	rep := engine.BuildReport(records, engine.GranularityDay, engine.Period{},
		engine.SortByDate, engine.SortAsc)

	require.Len(t, rep.Details, 1)
	assert.True(t, rep.Details[0].Incomplete)
	assert.True(t, rep.Details[0].Hours.IsZero())
	assert.Equal(t, "Wednesday", rep.Details[0].Weekday)
}

func TestBuildReport_OpenTurnWithholdsPartialPay(t *testing.T) {
	// GIVEN: a rated employee whose record holds a closed morning turn
	//        and a still-open afternoon turn
	// WHEN: the report is built
	// THEN: the row stays visible and flagged, its hours count in the
	//       summary and per-employee rows, and no pay - not even the
	//       closed morning turn's - reaches any total or the detail row

	emp := engine.Employee{ID: "emp-1", Name: "Ana", HourlyRate: rate("10")}
	date := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

	records := []engine.ShiftWithEmployee{
		record(t, emp, date, [2]string{"09:00", "13:00"}, [2]string{"14:00", ""}),
	}
	rep := engine.BuildReport(records, engine.GranularityDay, engine.Period{},
		engine.SortByDate, engine.SortAsc)

	assert.Equal(t, 1, rep.Summary.ShiftCount)
	assert.True(t, rep.Summary.TotalHours.Equal(decimal.NewFromInt(4)))
	assert.True(t, rep.Summary.TotalPay.IsZero(), "pay = %v", rep.Summary.TotalPay)

	require.Len(t, rep.Employees, 1)
	assert.False(t, rep.Employees[0].RateMissing)
	assert.True(t, rep.Employees[0].TotalHours.Equal(decimal.NewFromInt(4)))
	assert.True(t, rep.Employees[0].TotalPay.IsZero())
	assert.Empty(t, rep.Employees[0].Buckets)

	require.Len(t, rep.Details, 1)
	row := rep.Details[0]
	assert.True(t, row.Incomplete)
	assert.False(t, row.RateMissing)
	assert.True(t, row.Hours.Equal(decimal.NewFromInt(4)))
	assert.True(t, row.Pay.IsZero())
}

func TestBuildReport_SortByHoursDesc(t *testing.T) {
	// GIVEN: shifts of 2h, 8h, 4h
	// WHEN: sorted by hours descending
	// THEN: 8h, 4h, 2h

	emp := engine.Employee{ID: "emp-1", Name: "Ana", HourlyRate: rate("10")}
	base := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	records := []engine.ShiftWithEmployee{
		record(t, emp, base, [2]string{"09:00", "11:00"}),
		record(t, emp, base.AddDate(0, 0, 1), [2]string{"09:00", "17:00"}),
		record(t, emp, base.AddDate(0, 0, 2), [2]string{"09:00", "13:00"}),
	}

	rep := engine.BuildReport(records, engine.GranularityDay, engine.Period{},
		engine.SortByHours, engine.SortDesc)

	require.Len(t, rep.Details, 3)
	assert.True(t, rep.Details[0].Hours.Equal(decimal.NewFromInt(8)))
	assert.True(t, rep.Details[1].Hours.Equal(decimal.NewFromInt(4)))
	assert.True(t, rep.Details[2].Hours.Equal(decimal.NewFromInt(2)))
}

func TestBuildReport_EqualKeysDeterministic(t *testing.T) {
	// GIVEN: three same-length shifts submitted in scrambled order
	// WHEN: sorted by hours
	// THEN: ties break on shift ID, so the order is stable across runs

	emp := engine.Employee{ID: "emp-1", Name: "Ana", HourlyRate: rate("10")}
	base := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	r1 := record(t, emp, base, [2]string{"09:00", "13:00"})
	r2 := record(t, emp, base.AddDate(0, 0, 1), [2]string{"09:00", "13:00"})
	r3 := record(t, emp, base.AddDate(0, 0, 2), [2]string{"09:00", "13:00"})

	a := engine.BuildReport([]engine.ShiftWithEmployee{r3, r1, r2},
		engine.GranularityDay, engine.Period{}, engine.SortByHours, engine.SortAsc)
	b := engine.BuildReport([]engine.ShiftWithEmployee{r2, r3, r1},
		engine.GranularityDay, engine.Period{}, engine.SortByHours, engine.SortAsc)

	require.Len(t, a.Details, 3)
	for i := range a.Details {
		assert.Equal(t, a.Details[i].ShiftID, b.Details[i].ShiftID)
	}
}

func TestBuildReport_PeriodCarriedThrough(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	rep := engine.BuildReport(nil, engine.GranularityMonth,
		engine.Period{Start: &from, End: &to}, engine.SortByDate, engine.SortAsc)

	require.NotNil(t, rep.Summary.Period.Start)
	require.NotNil(t, rep.Summary.Period.End)
	assert.True(t, rep.Summary.Period.Start.Equal(from))
	assert.True(t, rep.Summary.Period.End.Equal(to))
	assert.Empty(t, rep.Details)
}
