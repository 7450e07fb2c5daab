/*
Package export renders salary reports as downloadable xlsx workbooks.

SHEETS:
  Summary:   totals for the filtered period (hours, pay, shift count)
  Employees: one row per employee with per-bucket pay columns
  Shifts:    the detail table, one row per daily record

FORMATTING:
  Money cells carry a two-decimal number format; hours cells likewise.
  Employees with no hourly rate render "no rate" in the pay column so
  the omission is visible in the spreadsheet, never a silent zero.

USAGE:
  var buf bytes.Buffer
  if err := export.WriteReport(&buf, report); err != nil { ... }
  w.Header().Set("Content-Type", export.ContentType)
  w.Write(buf.Bytes())
*/
package export

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lucero/shiftpay/engine"
)

// ContentType is the MIME type for xlsx downloads.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetSummary   = "Summary"
	sheetEmployees = "Employees"
	sheetShifts    = "Shifts"

	moneyFormat = "#,##0.00"
	hoursFormat = "0.00"
	noRateCell  = "no rate"
)

// WriteReport renders the report as an xlsx workbook on w.
func WriteReport(w io.Writer, rep engine.Report) error {
	f, err := ReportWorkbook(rep)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// ReportWorkbook builds the workbook. Callers own closing the file.
func ReportWorkbook(rep engine.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr(moneyFormat)})
	if err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}
	hoursStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr(hoursFormat)})
	if err != nil {
		return nil, fmt.Errorf("create hours style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	styles := workbookStyles{money: moneyStyle, hours: hoursStyle, header: headerStyle}

	if err := writeSummarySheet(f, rep, styles); err != nil {
		return nil, err
	}
	if err := writeEmployeesSheet(f, rep, styles); err != nil {
		return nil, err
	}
	if err := writeShiftsSheet(f, rep, styles); err != nil {
		return nil, err
	}

	// The default sheet excelize creates gets renamed into the summary.
	idx, err := f.GetSheetIndex(sheetSummary)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	return f, nil
}

type workbookStyles struct {
	money  int
	hours  int
	header int
}

func writeSummarySheet(f *excelize.File, rep engine.Report, styles workbookStyles) error {
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return err
	}

	period := "all dates"
	if rep.Summary.Period.Start != nil || rep.Summary.Period.End != nil {
		from, to := "...", "..."
		if rep.Summary.Period.Start != nil {
			from = rep.Summary.Period.Start.Format("2006-01-02")
		}
		if rep.Summary.Period.End != nil {
			to = rep.Summary.Period.End.Format("2006-01-02")
		}
		period = from + " to " + to
	}

	rows := [][]any{
		{"Salary report"},
		{"Generated", time.Now().Format("2006-01-02 15:04")},
		{"Period", period},
		{"Granularity", string(rep.Summary.Granularity)},
		{},
		{"Total hours", rep.Summary.TotalHours.InexactFloat64()},
		{"Total pay", rep.Summary.TotalPay.InexactFloat64()},
		{"Shifts", rep.Summary.ShiftCount},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return err
		}
	}

	f.SetCellStyle(sheetSummary, "A1", "A1", styles.header)
	f.SetCellStyle(sheetSummary, "B6", "B6", styles.hours)
	f.SetCellStyle(sheetSummary, "B7", "B7", styles.money)
	f.SetColWidth(sheetSummary, "A", "A", 16)
	f.SetColWidth(sheetSummary, "B", "B", 24)
	return nil
}

func writeEmployeesSheet(f *excelize.File, rep engine.Report, styles workbookStyles) error {
	if _, err := f.NewSheet(sheetEmployees); err != nil {
		return err
	}

	// Union of bucket keys across employees forms the dynamic columns.
	keySet := map[string]bool{}
	var keys []string
	for _, emp := range rep.Employees {
		for _, b := range emp.Buckets {
			if !keySet[b.Key] {
				keySet[b.Key] = true
				keys = append(keys, b.Key)
			}
		}
	}
	sort.Strings(keys)

	header := []any{"Employee", "Rate", "Hours", "Total pay"}
	for _, k := range keys {
		header = append(header, k)
	}
	if err := f.SetSheetRow(sheetEmployees, "A1", &header); err != nil {
		return err
	}

	for i, emp := range rep.Employees {
		row := []any{emp.EmployeeName}
		if emp.RateMissing {
			row = append(row, noRateCell, emp.TotalHours.InexactFloat64(), noRateCell)
		} else {
			row = append(row, emp.HourlyRate.InexactFloat64(),
				emp.TotalHours.InexactFloat64(), emp.TotalPay.InexactFloat64())
		}
		perKey := map[string]float64{}
		for _, b := range emp.Buckets {
			perKey[b.Key] = b.Pay.InexactFloat64()
		}
		for _, k := range keys {
			if emp.RateMissing {
				row = append(row, noRateCell)
			} else {
				row = append(row, perKey[k])
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetEmployees, cell, &row); err != nil {
			return err
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(header))
	f.SetCellStyle(sheetEmployees, "A1", lastCol+"1", styles.header)
	if n := len(rep.Employees); n > 0 {
		f.SetCellStyle(sheetEmployees, "B2", "B"+itoa(n+1), styles.money)
		f.SetCellStyle(sheetEmployees, "C2", "C"+itoa(n+1), styles.hours)
		f.SetCellStyle(sheetEmployees, "D2", lastCol+itoa(n+1), styles.money)
	}
	f.SetColWidth(sheetEmployees, "A", "A", 28)
	return nil
}

func writeShiftsSheet(f *excelize.File, rep engine.Report, styles workbookStyles) error {
	if _, err := f.NewSheet(sheetShifts); err != nil {
		return err
	}

	header := []any{"Date", "Weekday", "Employee", "Turn 1", "Turn 2", "Hours", "Pay", "Paid", "Flags"}
	if err := f.SetSheetRow(sheetShifts, "A1", &header); err != nil {
		return err
	}

	for i, row := range rep.Details {
		pay := any(row.Pay.InexactFloat64())
		if row.RateMissing {
			pay = noRateCell
		}
		paid := "no"
		if row.Paid {
			paid = "yes"
		}
		flags := ""
		switch {
		case row.RateMissing && row.Incomplete:
			flags = "no rate, open turn"
		case row.RateMissing:
			flags = "no rate"
		case row.Incomplete:
			flags = "open turn"
		}
		cells := []any{
			row.Date.Format("2006-01-02"),
			row.Weekday,
			row.EmployeeName,
			formatRange(row.Range1),
			formatRange(row.Range2),
			row.Hours.InexactFloat64(),
			pay,
			paid,
			flags,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetShifts, cell, &cells); err != nil {
			return err
		}
	}

	f.SetCellStyle(sheetShifts, "A1", "I1", styles.header)
	if n := len(rep.Details); n > 0 {
		f.SetCellStyle(sheetShifts, "F2", "F"+itoa(n+1), styles.hours)
		f.SetCellStyle(sheetShifts, "G2", "G"+itoa(n+1), styles.money)
	}
	f.SetColWidth(sheetShifts, "C", "C", 28)
	f.SetColWidth(sheetShifts, "D", "E", 16)
	return nil
}

// formatRange renders a turn as "09:00-13:30", or "09:00-" while the
// exit is still open.
func formatRange(r *engine.TimeRange) string {
	if r == nil {
		return ""
	}
	out := r.Entry.Format(engine.ClockLayout) + "-"
	if r.Exit != nil {
		out += r.Exit.Format(engine.ClockLayout)
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func itoa(n int) string { return fmt.Sprintf("%d", n) }
