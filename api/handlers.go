/*
handlers.go - HTTP API handlers for the shift reconciliation engine

PURPOSE:
  Exposes the reconciliation and salary aggregation engine via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees              List all employees
    POST   /api/employees              Create employee
    GET    /api/employees/{id}         Get employee details
    PATCH  /api/employees/{id}         Update name and/or hourly rate
    DELETE /api/employees/{id}         Delete (shifts cascade, log refs null)

  Shifts:
    GET    /api/shifts                 List shifts (filters)
    POST   /api/shifts                 Submit turns for employee+date
    GET    /api/shifts/{id}            Get one record
    PUT    /api/shifts/{id}            Edit slots / paid flag
    DELETE /api/shifts/{id}            Delete record
    POST   /api/shifts/{id}/payment    Toggle paid flag

  Salaries:
    GET    /api/salaries               Aggregated report JSON
    GET    /api/salaries/export        xlsx download

  Other:
    GET    /api/logs                   Activity log
    GET    /api/shift-plans            Weekly roster plan
    POST   /api/shift-plans            Replace a week's roster
    GET    /api/dashboard              Current-month stats

ERROR HANDLING:
  Domain errors map to HTTP status via the engine classifiers:
  - 400: validation failures (invalid range, overlap, conflict, capacity)
  - 404: unknown employee or shift
  - 503: store unavailable (timeouts, dead connections)
  - 500: everything else

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - engine/reconciler.go: Write-path domain logic
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/lucero/shiftpay/engine"
	"github.com/lucero/shiftpay/export"
	"github.com/lucero/shiftpay/planning"
	"github.com/lucero/shiftpay/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Reconciler *engine.Reconciler
	Plans      *planning.Service

	// now is stubbed in tests to pin the future-date check and the
	// dashboard month.
	now func() time.Time
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:      store,
		Reconciler: engine.NewReconciler(store, store, store),
		Plans:      planning.NewService(store),
		now:        time.Now,
	}
}

// SetClock overrides the handler's time source. Tests use it to pin the
// future-date check and the dashboard month.
func SetClock(h *Handler, now func() time.Time) {
	h.now = now
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Store.FindEmployee(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee creates a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}

	rate, err := parseRate(req.HourlyRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hourly_rate", err)
		return
	}

	id := engine.EmployeeID(req.ID)
	if id == "" {
		id = engine.EmployeeID(uuid.NewString())
	}

	emp := engine.Employee{
		ID:         id,
		Name:       req.Name,
		HourlyRate: rate,
		CreatedAt:  h.now().UTC(),
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeDomainError(w, "Failed to create employee", err)
		return
	}
	h.recordAudit(r, engine.AuditCreateEmployee, &emp.ID, "created "+emp.Name)

	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// UpdateEmployee patches name and/or hourly rate. An explicit empty
// hourly_rate clears the rate; the employee is then flagged, not zeroed,
// in every report.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))

	var req UpdateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	emp, err := h.Store.FindEmployee(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	if req.Name != nil {
		if *req.Name == "" {
			writeError(w, http.StatusBadRequest, "Name cannot be empty", nil)
			return
		}
		emp.Name = *req.Name
	}
	if req.HourlyRate != nil {
		rate, err := parseRate(req.HourlyRate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid hourly_rate", err)
			return
		}
		emp.HourlyRate = rate
	}

	if err := h.Store.SaveEmployee(r.Context(), *emp); err != nil {
		writeDomainError(w, "Failed to update employee", err)
		return
	}
	h.recordAudit(r, engine.AuditUpdateEmployee, &emp.ID, "updated "+emp.Name)

	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// DeleteEmployee removes an employee; shifts and plan entries cascade,
// activity-log references are nulled.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Store.FindEmployee(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	if err := h.Store.DeleteEmployee(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete employee", err)
		return
	}
	// The reference nulls on delete, so the details string carries the name.
	h.recordAudit(r, engine.AuditDeleteEmployee, nil, "deleted "+emp.Name)

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

// ListShifts returns shifts matching the query filters.
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	filter, err := shiftFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}

	shifts, err := h.Store.Query(r.Context(), filter)
	if err != nil {
		writeDomainError(w, "Failed to list shifts", err)
		return
	}

	dtos := make([]ShiftDTO, len(shifts))
	for i := range shifts {
		dtos[i] = toShiftDTO(&shifts[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetShift returns a single record.
func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	id := engine.ShiftID(chi.URLParam(r, "id"))

	shift, err := h.Store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get shift", err)
		return
	}
	if shift == nil {
		writeError(w, http.StatusNotFound, "Shift not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(shift))
}

// SubmitShift reconciles candidate turns into the record for
// employee+date. Future dates are rejected here; the engine itself is
// date-agnostic.
func (h *Handler) SubmitShift(w http.ResponseWriter, r *http.Request) {
	var req SubmitShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if date.After(engine.Midnight(h.now())) {
		writeError(w, http.StatusBadRequest, "Cannot register shifts for future dates", nil)
		return
	}

	turns := make([]engine.TurnInput, len(req.Turns))
	for i, t := range req.Turns {
		turns[i] = engine.TurnInput{Entry: t.Entry, Exit: t.Exit}
	}

	shift, created, err := h.Reconciler.SubmitShift(r.Context(), engine.EmployeeID(req.EmployeeID), date, turns, req.Paid)
	if err != nil {
		writeDomainError(w, "Failed to submit shift", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toShiftDTO(shift))
}

// UpdateShift edits slots and/or the paid flag of an existing record.
func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	id := engine.ShiftID(chi.URLParam(r, "id"))

	var req UpdateShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	updates := make([]engine.SlotUpdate, len(req.Updates))
	for i, u := range req.Updates {
		if u.Slot != 1 && u.Slot != 2 {
			writeError(w, http.StatusBadRequest, "Slot must be 1 or 2", nil)
			return
		}
		updates[i] = engine.SlotUpdate{
			Slot:  engine.Slot(u.Slot),
			Entry: u.Entry,
			Exit:  u.Exit,
			Clear: u.Clear,
		}
	}

	shift, err := h.Reconciler.UpdateShift(r.Context(), id, updates, req.Paid)
	if err != nil {
		writeDomainError(w, "Failed to update shift", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(shift))
}

// DeleteShift removes a record.
func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	id := engine.ShiftID(chi.URLParam(r, "id"))

	if err := h.Reconciler.DeleteShift(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete shift", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TogglePayment flips the paid flag.
func (h *Handler) TogglePayment(w http.ResponseWriter, r *http.Request) {
	id := engine.ShiftID(chi.URLParam(r, "id"))

	shift, err := h.Reconciler.TogglePaid(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to toggle payment", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(shift))
}

// =============================================================================
// SALARY REPORT HANDLERS
// =============================================================================

// GetSalaries returns the aggregated salary report.
//
// Query parameters:
//
//	period     daily|weekly|monthly (default monthly)
//	employeeId filter to one employee
//	startDate  YYYY-MM-DD inclusive
//	endDate    YYYY-MM-DD inclusive
//	isPaid     true|false|all (default true: settled records only)
//	sort       date|employee|hours|pay (default date)
//	order      asc|desc (default asc)
func (h *Handler) GetSalaries(w http.ResponseWriter, r *http.Request) {
	rep, err := h.buildReport(r)
	if err != nil {
		writeDomainError(w, "Failed to build report", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(*rep))
}

// ExportSalaries streams the report as an xlsx attachment.
func (h *Handler) ExportSalaries(w http.ResponseWriter, r *http.Request) {
	rep, err := h.buildReport(r)
	if err != nil {
		writeDomainError(w, "Failed to build report", err)
		return
	}

	filename := "salaries-" + h.now().Format("2006-01-02") + ".xlsx"
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := export.WriteReport(w, *rep); err != nil {
		// Headers are gone at this point; log and give up on the body.
		log.Error().Err(err).Msg("xlsx export failed mid-stream")
	}
}

func (h *Handler) buildReport(r *http.Request) (*engine.Report, error) {
	filter, err := shiftFilterFromQuery(r)
	if err != nil {
		return nil, errors.Join(engine.ErrInvalidRange, err)
	}
	// Settled records only unless the caller asks otherwise.
	if r.URL.Query().Get("isPaid") == "" {
		paid := true
		filter.Paid = &paid
	}

	records, err := h.Store.QueryWithEmployees(r.Context(), filter)
	if err != nil {
		return nil, err
	}

	g := engine.ParseGranularity(r.URL.Query().Get("period"))
	key := engine.SortKey(r.URL.Query().Get("sort"))
	switch key {
	case engine.SortByDate, engine.SortByEmployee, engine.SortByHours, engine.SortByPay:
	default:
		key = engine.SortByDate
	}
	order := engine.SortAsc
	if r.URL.Query().Get("order") == string(engine.SortDesc) {
		order = engine.SortDesc
	}

	rep := engine.BuildReport(records, g, engine.Period{Start: filter.From, End: filter.To}, key, order)
	return &rep, nil
}

// =============================================================================
// ACTIVITY LOG HANDLERS
// =============================================================================

// ListLogs returns activity-log entries, most recent first.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := engine.AuditFilter{}
	if v := q.Get("employeeId"); v != "" {
		id := engine.EmployeeID(v)
		filter.EmployeeID = &id
	}
	if v := q.Get("action"); v != "" {
		a := engine.AuditAction(v)
		filter.Action = &a
	}
	if v := q.Get("startDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid startDate", err)
			return
		}
		filter.From = &t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid endDate", err)
			return
		}
		end := t.AddDate(0, 0, 1).Add(-time.Second)
		filter.To = &end
	}

	records, err := h.Store.QueryAuditWithNames(r.Context(), filter)
	if err != nil {
		writeDomainError(w, "Failed to query logs", err)
		return
	}

	dtos := make([]AuditEntryDTO, len(records))
	for i, rec := range records {
		dto := AuditEntryDTO{
			ID:           rec.ID,
			Action:       string(rec.Action),
			EmployeeName: rec.EmployeeName,
			Details:      rec.Details,
			Timestamp:    rec.Timestamp.Format(time.RFC3339),
		}
		if rec.EmployeeID != nil {
			s := string(*rec.EmployeeID)
			dto.EmployeeID = &s
		}
		dtos[i] = dto
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SHIFT PLAN HANDLERS
// =============================================================================

// GetShiftPlan returns the roster plan for the week of ?weekStart=.
func (h *Handler) GetShiftPlan(w http.ResponseWriter, r *http.Request) {
	weekStart, err := time.Parse("2006-01-02", r.URL.Query().Get("weekStart"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid weekStart (use YYYY-MM-DD)", err)
		return
	}

	week, entries, err := h.Plans.GetWeek(r.Context(), weekStart)
	if err != nil {
		writeDomainError(w, "Failed to get shift plan", err)
		return
	}
	if week == nil {
		writeError(w, http.StatusNotFound, "No plan for that week", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPlanWeekDTO(week, entries))
}

// SaveShiftPlan replaces a week's roster wholesale.
func (h *Handler) SaveShiftPlan(w http.ResponseWriter, r *http.Request) {
	var req SavePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	weekStart, err := time.Parse("2006-01-02", req.WeekStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week_start (use YYYY-MM-DD)", err)
		return
	}

	inputs := make([]planning.EntryInput, len(req.Entries))
	for i, e := range req.Entries {
		date, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid entry date", err)
			return
		}
		inputs[i] = planning.EntryInput{
			EmployeeID: engine.EmployeeID(e.EmployeeID),
			Date:       date,
			StartTime:  e.StartTime,
			EndTime:    e.EndTime,
			Note:       e.Note,
		}
	}

	week, entries, err := h.Plans.SaveWeek(r.Context(), weekStart, req.Name, req.Description, inputs)
	if err != nil {
		switch {
		case errors.Is(err, planning.ErrNotMonday),
			errors.Is(err, planning.ErrOutsideWeek),
			errors.Is(err, planning.ErrBadClock):
			writeError(w, http.StatusBadRequest, "Invalid plan", err)
		default:
			writeDomainError(w, "Failed to save shift plan", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, toPlanWeekDTO(week, entries))
}

// =============================================================================
// DASHBOARD HANDLER
// =============================================================================

// GetDashboard summarizes the current month: total hours, shift counts,
// the double-turn count, and a per-employee hours ranking.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	records, err := h.Store.QueryWithEmployees(r.Context(), engine.ShiftFilter{From: &from, To: &to})
	if err != nil {
		writeDomainError(w, "Failed to query shifts", err)
		return
	}

	type accum struct {
		name    string
		hours   decimal.Decimal
		count   int
		doubles int
	}
	perEmployee := map[engine.EmployeeID]*accum{}
	dto := DashboardDTO{Month: from.Format("2006-01"), Employees: []DashboardEmployeeDTO{}}
	total := decimal.Zero

	for _, rec := range records {
		a, ok := perEmployee[rec.Employee.ID]
		if !ok {
			a = &accum{name: rec.Employee.Name}
			perEmployee[rec.Employee.ID] = a
		}
		hours := rec.Shift.TotalHours()
		a.hours = a.hours.Add(hours)
		a.count++
		dto.ShiftCount++
		total = total.Add(hours)
		if rec.Shift.HasDoubleTurn() {
			a.doubles++
			dto.DoubleTurns++
		}
	}
	dto.TotalHours = total.InexactFloat64()

	for id, a := range perEmployee {
		dto.Employees = append(dto.Employees, DashboardEmployeeDTO{
			EmployeeID:   string(id),
			EmployeeName: a.name,
			Hours:        a.hours.InexactFloat64(),
			ShiftCount:   a.count,
			DoubleTurns:  a.doubles,
		})
	}
	sort.Slice(dto.Employees, func(i, j int) bool {
		if dto.Employees[i].Hours != dto.Employees[j].Hours {
			return dto.Employees[i].Hours > dto.Employees[j].Hours
		}
		return dto.Employees[i].EmployeeName < dto.Employees[j].EmployeeName
	})

	writeJSON(w, http.StatusOK, dto)
}

// ResetDatabase clears all data (dev/demo only).
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeDomainError(w, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

func shiftFilterFromQuery(r *http.Request) (engine.ShiftFilter, error) {
	q := r.URL.Query()
	filter := engine.ShiftFilter{}

	if v := q.Get("employeeId"); v != "" {
		id := engine.EmployeeID(v)
		filter.EmployeeID = &id
	}
	if v := q.Get("startDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, err
		}
		filter.From = &t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, err
		}
		filter.To = &t
	}
	switch q.Get("isPaid") {
	case "true":
		paid := true
		filter.Paid = &paid
	case "false":
		paid := false
		filter.Paid = &paid
	}
	return filter, nil
}

func parseRate(s *string) (*decimal.Decimal, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	if d.IsNegative() {
		return nil, errors.New("hourly rate cannot be negative")
	}
	return &d, nil
}

// recordAudit logs employee-level admin actions; shift-level actions are
// audited inside the reconciler. Best effort, same as there.
func (h *Handler) recordAudit(r *http.Request, action engine.AuditAction, employeeID *engine.EmployeeID, details string) {
	entry := engine.AuditEntry{
		ID:         uuid.NewString(),
		Action:     action,
		EmployeeID: employeeID,
		Details:    details,
		Timestamp:  h.now().UTC(),
	}
	if err := h.Store.Record(r.Context(), entry); err != nil {
		log.Warn().Err(err).Str("action", string(action)).Msg("audit record failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case engine.IsRetryable(err):
		writeError(w, http.StatusServiceUnavailable, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
