package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lucero/shiftpay/engine"
	"github.com/lucero/shiftpay/export"
)

func clock(day time.Time, hour, min int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, time.UTC)
}

// sampleReport mirrors a weekly run over two employees: Ana has a rate
// and a closed turn, Bruno has no rate and a still-open turn.
func sampleReport() engine.Report {
	day := time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC)
	start := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC)
	rate := decimal.NewFromInt(10)

	anaExit := clock(day, 13, 0)
	return engine.Report{
		Summary: engine.ReportSummary{
			TotalHours:  decimal.NewFromFloat(11.67),
			TotalPay:    decimal.NewFromFloat(36.7),
			ShiftCount:  2,
			Granularity: engine.GranularityWeek,
			Period:      engine.Period{Start: &start, End: &end},
		},
		Employees: []engine.EmployeeBuckets{
			{
				EmployeeID:   "emp-1",
				EmployeeName: "Ana",
				HourlyRate:   &rate,
				TotalHours:   decimal.NewFromFloat(3.67),
				TotalPay:     decimal.NewFromFloat(36.7),
				Buckets:      []engine.BucketEntry{{Key: "2025-03-10", Pay: decimal.NewFromFloat(36.7)}},
			},
			{
				EmployeeID:   "emp-2",
				EmployeeName: "Bruno",
				RateMissing:  true,
				TotalHours:   decimal.NewFromInt(8),
				Buckets:      []engine.BucketEntry{{Key: "2025-03-10"}},
			},
		},
		Details: []engine.DetailRow{
			{
				ShiftID:      "shift-1",
				EmployeeID:   "emp-1",
				EmployeeName: "Ana",
				HourlyRate:   &rate,
				Date:         day,
				Weekday:      "Wednesday",
				Range1:       &engine.TimeRange{Entry: clock(day, 9, 20), Exit: &anaExit},
				Hours:        decimal.NewFromFloat(3.67),
				Pay:          decimal.NewFromFloat(36.7),
				Paid:         true,
			},
			{
				ShiftID:      "shift-2",
				EmployeeID:   "emp-2",
				EmployeeName: "Bruno",
				Date:         day,
				Weekday:      "Wednesday",
				Range1:       &engine.TimeRange{Entry: clock(day, 9, 0)},
				Hours:        decimal.NewFromInt(8),
				RateMissing:  true,
				Incomplete:   true,
			},
		},
	}
}

// excelizeRaw skips number-format rendering so cells compare by their
// stored value.
func excelizeRaw() excelize.Options {
	return excelize.Options{RawCellValue: true}
}

func TestReportWorkbookSheets(t *testing.T) {
	// GIVEN a populated report
	// WHEN the workbook is built
	f, err := export.ReportWorkbook(sampleReport())
	require.NoError(t, err)
	defer f.Close()

	// THEN the three sheets exist and the summary is active
	assert.ElementsMatch(t, []string{"Summary", "Employees", "Shifts"}, f.GetSheetList())
	idx, err := f.GetSheetIndex("Summary")
	require.NoError(t, err)
	assert.Equal(t, idx, f.GetActiveSheetIndex())
}

func TestReportWorkbookSummary(t *testing.T) {
	f, err := export.ReportWorkbook(sampleReport())
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		v, err := f.GetCellValue("Summary", cell, excelizeRaw())
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Salary report", get("A1"))
	assert.Equal(t, "2025-03-10 to 2025-03-16", get("B3"))
	assert.Equal(t, "weekly", get("B4"))
	assert.Equal(t, "11.67", get("B6"))
	assert.Equal(t, "36.7", get("B7"))
	assert.Equal(t, "2", get("B8"))
}

func TestReportWorkbookEmployees(t *testing.T) {
	f, err := export.ReportWorkbook(sampleReport())
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		v, err := f.GetCellValue("Employees", cell, excelizeRaw())
		require.NoError(t, err)
		return v
	}

	// Header carries the bucket key as a dynamic column.
	assert.Equal(t, "Employee", get("A1"))
	assert.Equal(t, "2025-03-10", get("E1"))

	// Ana: numeric rate, hours, total, and the bucket column.
	assert.Equal(t, "Ana", get("A2"))
	assert.Equal(t, "10", get("B2"))
	assert.Equal(t, "3.67", get("C2"))
	assert.Equal(t, "36.7", get("D2"))
	assert.Equal(t, "36.7", get("E2"))

	// Bruno: hours stay visible, every pay cell says "no rate".
	assert.Equal(t, "Bruno", get("A3"))
	assert.Equal(t, "no rate", get("B3"))
	assert.Equal(t, "8", get("C3"))
	assert.Equal(t, "no rate", get("D3"))
	assert.Equal(t, "no rate", get("E3"))
}

func TestReportWorkbookShifts(t *testing.T) {
	f, err := export.ReportWorkbook(sampleReport())
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		v, err := f.GetCellValue("Shifts", cell, excelizeRaw())
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "2025-03-12", get("A2"))
	assert.Equal(t, "Wednesday", get("B2"))
	assert.Equal(t, "09:20-13:00", get("D2"))
	assert.Equal(t, "", get("E2"))
	assert.Equal(t, "yes", get("H2"))
	assert.Equal(t, "", get("I2"))

	// The open, rateless row carries both flags and a dangling range.
	assert.Equal(t, "09:00-", get("D3"))
	assert.Equal(t, "no rate", get("G3"))
	assert.Equal(t, "no", get("H3"))
	assert.Equal(t, "no rate, open turn", get("I3"))
}

func TestWriteReportProducesWorkbookBytes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteReport(&buf, sampleReport()))

	// xlsx files are zip archives.
	require.Greater(t, buf.Len(), 2)
	assert.Equal(t, []byte("PK"), buf.Bytes()[:2])
}
