/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY AND HOURS:
  Computation happens on decimals inside the engine; DTOs carry float64
  of already-rounded values, so the floats are exact for two decimals.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - engine/report.go: Source of ReportDTO data
*/
package api

import (
	"time"

	"github.com/lucero/shiftpay/engine"
	"github.com/lucero/shiftpay/planning"
)

// =============================================================================
// EMPLOYEE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	HourlyRate *float64 `json:"hourly_rate"` // null when no rate configured
	CreatedAt  string   `json:"created_at,omitempty"`
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	HourlyRate *string `json:"hourly_rate"` // decimal string; null/empty = no rate
}

// UpdateEmployeeRequest patches an employee. Absent fields are left
// untouched; an explicitly empty hourly_rate clears the rate.
type UpdateEmployeeRequest struct {
	Name       *string `json:"name"`
	HourlyRate *string `json:"hourly_rate"`
}

// =============================================================================
// SHIFT TYPES
// =============================================================================

// TurnDTO is one turn rendered as clock strings.
type TurnDTO struct {
	Entry string  `json:"entry"`
	Exit  *string `json:"exit"` // null while the turn is open
	Hours float64 `json:"hours"`
}

// ShiftDTO represents a daily record in API responses.
type ShiftDTO struct {
	ID         string   `json:"id"`
	EmployeeID string   `json:"employee_id"`
	Date       string   `json:"date"`
	Turn1      *TurnDTO `json:"turn1"`
	Turn2      *TurnDTO `json:"turn2"`
	Hours      float64  `json:"hours"`
	Paid       bool     `json:"paid"`
	Incomplete bool     `json:"incomplete"`
	CreatedAt  string   `json:"created_at,omitempty"`
	UpdatedAt  string   `json:"updated_at,omitempty"`
}

// TurnRequest is one candidate turn in a submission.
type TurnRequest struct {
	Entry string `json:"entry"`
	Exit  string `json:"exit"` // empty = open shift
}

// SubmitShiftRequest creates or extends the record for employee+date.
type SubmitShiftRequest struct {
	EmployeeID string        `json:"employee_id"`
	Date       string        `json:"date"`
	Turns      []TurnRequest `json:"turns"`
	Paid       *bool         `json:"paid"`
}

// SlotUpdateRequest edits one slot of an existing record.
type SlotUpdateRequest struct {
	Slot  int    `json:"slot"` // 1 or 2
	Entry string `json:"entry"`
	Exit  string `json:"exit"`
	Clear bool   `json:"clear"`
}

// UpdateShiftRequest edits slots and/or the paid flag.
type UpdateShiftRequest struct {
	Updates []SlotUpdateRequest `json:"updates"`
	Paid    *bool               `json:"paid"`
}

// =============================================================================
// REPORT TYPES
// =============================================================================

// BucketDTO is one aggregation cell.
type BucketDTO struct {
	Key string  `json:"key"`
	Pay float64 `json:"pay"`
}

// EmployeeReportDTO is one employee's aggregated report row.
type EmployeeReportDTO struct {
	EmployeeID   string      `json:"employee_id"`
	EmployeeName string      `json:"employee_name"`
	HourlyRate   *float64    `json:"hourly_rate"`
	RateMissing  bool        `json:"rate_missing"`
	TotalHours   float64     `json:"total_hours"`
	TotalPay     float64     `json:"total_pay"`
	Buckets      []BucketDTO `json:"buckets"`
}

// DetailRowDTO is one shift in the report detail table.
type DetailRowDTO struct {
	ShiftID      string   `json:"shift_id"`
	EmployeeID   string   `json:"employee_id"`
	EmployeeName string   `json:"employee_name"`
	Date         string   `json:"date"`
	Weekday      string   `json:"weekday"`
	Turn1        *TurnDTO `json:"turn1"`
	Turn2        *TurnDTO `json:"turn2"`
	Hours        float64  `json:"hours"`
	Pay          *float64 `json:"pay"` // null when the rate is missing
	Paid         bool     `json:"paid"`
	RateMissing  bool     `json:"rate_missing"`
	Incomplete   bool     `json:"incomplete"`
}

// ReportDTO is the full salary report response.
type ReportDTO struct {
	Granularity string              `json:"granularity"`
	PeriodStart *string             `json:"period_start"`
	PeriodEnd   *string             `json:"period_end"`
	TotalHours  float64             `json:"total_hours"`
	TotalPay    float64             `json:"total_pay"`
	ShiftCount  int                 `json:"shift_count"`
	Employees   []EmployeeReportDTO `json:"employees"`
	Details     []DetailRowDTO      `json:"details"`
}

// =============================================================================
// AUDIT, PLAN, DASHBOARD TYPES
// =============================================================================

// AuditEntryDTO is one activity-log line.
type AuditEntryDTO struct {
	ID           string  `json:"id"`
	Action       string  `json:"action"`
	EmployeeID   *string `json:"employee_id"` // null when the employee was deleted
	EmployeeName string  `json:"employee_name,omitempty"`
	Details      string  `json:"details,omitempty"`
	Timestamp    string  `json:"timestamp"`
}

// PlanEntryDTO is one roster line.
type PlanEntryDTO struct {
	ID         string `json:"id,omitempty"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Note       string `json:"note,omitempty"`
}

// PlanWeekDTO is a weekly roster plan with its entries.
type PlanWeekDTO struct {
	ID          string         `json:"id"`
	WeekStart   string         `json:"week_start"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Entries     []PlanEntryDTO `json:"entries"`
	UpdatedAt   string         `json:"updated_at,omitempty"`
}

// SavePlanRequest replaces a week's roster wholesale.
type SavePlanRequest struct {
	WeekStart   string         `json:"week_start"` // must be a Monday
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Entries     []PlanEntryDTO `json:"entries"`
}

// DashboardEmployeeDTO is one row of the month's hours ranking.
type DashboardEmployeeDTO struct {
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	Hours        float64 `json:"hours"`
	ShiftCount   int     `json:"shift_count"`
	DoubleTurns  int     `json:"double_turns"`
}

// DashboardDTO summarizes the current month.
type DashboardDTO struct {
	Month       string                 `json:"month"`
	TotalHours  float64                `json:"total_hours"`
	ShiftCount  int                    `json:"shift_count"`
	DoubleTurns int                    `json:"double_turns"`
	Employees   []DashboardEmployeeDTO `json:"employees"` // ordered by hours desc
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toEmployeeDTO(e engine.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:        string(e.ID),
		Name:      e.Name,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
	if e.HourlyRate != nil {
		v := e.HourlyRate.InexactFloat64()
		dto.HourlyRate = &v
	}
	return dto
}

func toTurnDTO(r *engine.TimeRange) *TurnDTO {
	if r == nil {
		return nil
	}
	dto := &TurnDTO{
		Entry: r.Entry.Format(engine.ClockLayout),
		Hours: r.Hours().InexactFloat64(),
	}
	if r.Exit != nil {
		s := r.Exit.Format(engine.ClockLayout)
		dto.Exit = &s
	}
	return dto
}

func toShiftDTO(s *engine.DailyShift) ShiftDTO {
	return ShiftDTO{
		ID:         string(s.ID),
		EmployeeID: string(s.EmployeeID),
		Date:       s.Date.Format("2006-01-02"),
		Turn1:      toTurnDTO(s.Range1),
		Turn2:      toTurnDTO(s.Range2),
		Hours:      s.TotalHours().InexactFloat64(),
		Paid:       s.Paid,
		Incomplete: s.Incomplete(),
		CreatedAt:  s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  s.UpdatedAt.Format(time.RFC3339),
	}
}

func toReportDTO(rep engine.Report) ReportDTO {
	dto := ReportDTO{
		Granularity: string(rep.Summary.Granularity),
		TotalHours:  rep.Summary.TotalHours.InexactFloat64(),
		TotalPay:    rep.Summary.TotalPay.InexactFloat64(),
		ShiftCount:  rep.Summary.ShiftCount,
		Employees:   make([]EmployeeReportDTO, 0, len(rep.Employees)),
		Details:     make([]DetailRowDTO, 0, len(rep.Details)),
	}
	if rep.Summary.Period.Start != nil {
		s := rep.Summary.Period.Start.Format("2006-01-02")
		dto.PeriodStart = &s
	}
	if rep.Summary.Period.End != nil {
		s := rep.Summary.Period.End.Format("2006-01-02")
		dto.PeriodEnd = &s
	}

	for _, emp := range rep.Employees {
		row := EmployeeReportDTO{
			EmployeeID:   string(emp.EmployeeID),
			EmployeeName: emp.EmployeeName,
			RateMissing:  emp.RateMissing,
			TotalHours:   emp.TotalHours.InexactFloat64(),
			TotalPay:     emp.TotalPay.InexactFloat64(),
			Buckets:      make([]BucketDTO, 0, len(emp.Buckets)),
		}
		if emp.HourlyRate != nil {
			v := emp.HourlyRate.InexactFloat64()
			row.HourlyRate = &v
		}
		for _, b := range emp.Buckets {
			row.Buckets = append(row.Buckets, BucketDTO{Key: b.Key, Pay: b.Pay.InexactFloat64()})
		}
		dto.Employees = append(dto.Employees, row)
	}

	for _, d := range rep.Details {
		row := DetailRowDTO{
			ShiftID:      string(d.ShiftID),
			EmployeeID:   string(d.EmployeeID),
			EmployeeName: d.EmployeeName,
			Date:         d.Date.Format("2006-01-02"),
			Weekday:      d.Weekday,
			Turn1:        toTurnDTO(d.Range1),
			Turn2:        toTurnDTO(d.Range2),
			Hours:        d.Hours.InexactFloat64(),
			Paid:         d.Paid,
			RateMissing:  d.RateMissing,
			Incomplete:   d.Incomplete,
		}
		if !d.RateMissing {
			v := d.Pay.InexactFloat64()
			row.Pay = &v
		}
		dto.Details = append(dto.Details, row)
	}
	return dto
}

func toPlanWeekDTO(week *planning.PlanWeek, entries []planning.PlanEntry) PlanWeekDTO {
	dto := PlanWeekDTO{
		ID:          week.ID,
		WeekStart:   week.WeekStart.Format("2006-01-02"),
		Name:        week.Name,
		Description: week.Description,
		Entries:     make([]PlanEntryDTO, 0, len(entries)),
		UpdatedAt:   week.UpdatedAt.Format(time.RFC3339),
	}
	for _, e := range entries {
		dto.Entries = append(dto.Entries, PlanEntryDTO{
			ID:         e.ID,
			EmployeeID: string(e.EmployeeID),
			Date:       e.Date.Format("2006-01-02"),
			StartTime:  e.StartTime,
			EndTime:    e.EndTime,
			Note:       e.Note,
		})
	}
	return dto
}
