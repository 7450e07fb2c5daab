/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

INTERFACES IMPLEMENTED:
  engine.ShiftStore:    Daily shift persistence
  engine.EmployeeStore: Employee lookup for the reconciler
  engine.AuditLog:      Append-only activity log
  planning.Store:       Weekly roster plans

KEY CONSTRAINTS:
  - UNIQUE(employee_id, date) on shifts: the durable backstop for the
    reconciler's per-key critical section. Two writers racing on the
    same key can never produce divergent records.
  - Foreign keys: deleting an employee cascades their shifts and plan
    entries and nulls their activity-log references.

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE statements exist for the activity_log table;
  entries only accumulate.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

ERROR MAPPING:
  Context timeouts and dead connections are wrapped in
  engine.ErrStoreUnavailable so callers can tell retryable store
  trouble apart from domain validation failures.

USAGE:
  store, err := sqlite.New("./data/shiftpay.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  // Use with reconciler
  rec := engine.NewReconciler(store, store, store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/reconciler.go: Higher-level reconciler using these stores
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/lucero/shiftpay/engine"
	"github.com/lucero/shiftpay/planning"
)

const dateLayout = "2006-01-02"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		hourly_rate TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		entry1 TEXT,
		exit1 TEXT,
		entry2 TEXT,
		exit2 TEXT,
		paid BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- One record per employee per day. Concurrent submissions for the
	-- same key serialize on this constraint.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_employee_date
		ON shifts(employee_id, date);
	CREATE INDEX IF NOT EXISTS idx_shifts_date
		ON shifts(date);
	CREATE INDEX IF NOT EXISTS idx_shifts_paid
		ON shifts(paid);

	CREATE TABLE IF NOT EXISTS activity_log (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		employee_id TEXT REFERENCES employees(id) ON DELETE SET NULL,
		details TEXT,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_activity_log_timestamp
		ON activity_log(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_activity_log_employee
		ON activity_log(employee_id);

	CREATE TABLE IF NOT EXISTS plan_weeks (
		id TEXT PRIMARY KEY,
		week_start TEXT NOT NULL UNIQUE,
		name TEXT,
		description TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS plan_entries (
		id TEXT PRIMARY KEY,
		plan_week_id TEXT NOT NULL REFERENCES plan_weeks(id) ON DELETE CASCADE,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		note TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_plan_entries_week
		ON plan_entries(plan_week_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

// SaveEmployee inserts or updates an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp engine.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := emp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO employees (id, name, hourly_rate, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			hourly_rate = excluded.hourly_rate
	`

	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.Name, nullDecimal(emp.HourlyRate),
		createdAt.Format(time.RFC3339),
	)
	return storeErr("save employee", err)
}

// FindEmployee retrieves an employee, or nil when absent.
func (s *Store) FindEmployee(ctx context.Context, id engine.EmployeeID) (*engine.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		emp       engine.Employee
		rate      sql.NullString
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, hourly_rate, created_at FROM employees WHERE id = ?", id,
	).Scan(&emp.ID, &emp.Name, &rate, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("find employee", err)
	}

	emp.HourlyRate = parseDecimal(rate)
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &emp, nil
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]engine.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, hourly_rate, created_at FROM employees ORDER BY name, id")
	if err != nil {
		return nil, storeErr("list employees", err)
	}
	defer rows.Close()

	var employees []engine.Employee
	for rows.Next() {
		var (
			emp       engine.Employee
			rate      sql.NullString
			createdAt string
		)
		if err := rows.Scan(&emp.ID, &emp.Name, &rate, &createdAt); err != nil {
			return nil, storeErr("scan employee", err)
		}
		emp.HourlyRate = parseDecimal(rate)
		emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// DeleteEmployee removes an employee. Their shifts and plan entries
// cascade; activity-log references are nulled by the foreign key.
func (s *Store) DeleteEmployee(ctx context.Context, id engine.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	if err != nil {
		return storeErr("delete employee", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: employee %s", engine.ErrNotFound, id)
	}
	return nil
}

// =============================================================================
// SHIFT STORE
// =============================================================================

const shiftColumns = "id, employee_id, date, entry1, exit1, entry2, exit2, paid, created_at, updated_at"

// Find returns the record for an employee and date, or nil when absent.
func (s *Store) Find(ctx context.Context, employeeID engine.EmployeeID, date time.Time) (*engine.DailyShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+shiftColumns+" FROM shifts WHERE employee_id = ? AND date = ?",
		employeeID, engine.Midnight(date).Format(dateLayout))
	return scanShiftRow(row)
}

// Get returns a shift by ID, or nil when absent.
func (s *Store) Get(ctx context.Context, id engine.ShiftID) (*engine.DailyShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+shiftColumns+" FROM shifts WHERE id = ?", id)
	return scanShiftRow(row)
}

// Upsert writes a shift, keyed on (employee_id, date). The unique index
// makes the write atomic per key.
func (s *Store) Upsert(ctx context.Context, shift engine.DailyShift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO shifts (id, employee_id, date, entry1, exit1, entry2, exit2, paid, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO UPDATE SET
			entry1 = excluded.entry1,
			exit1 = excluded.exit1,
			entry2 = excluded.entry2,
			exit2 = excluded.exit2,
			paid = excluded.paid,
			updated_at = excluded.updated_at
	`

	entry1, exit1 := splitRange(shift.Range1)
	entry2, exit2 := splitRange(shift.Range2)

	_, err := s.db.ExecContext(ctx, query,
		shift.ID,
		shift.EmployeeID,
		engine.Midnight(shift.Date).Format(dateLayout),
		entry1, exit1, entry2, exit2,
		shift.Paid,
		shift.CreatedAt.UTC().Format(time.RFC3339),
		shift.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return storeErr("upsert shift", err)
}

// Delete removes a shift by ID.
func (s *Store) Delete(ctx context.Context, id engine.ShiftID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM shifts WHERE id = ?", id)
	return storeErr("delete shift", err)
}

// Query returns shifts matching the filter, ordered by date then ID.
func (s *Store) Query(ctx context.Context, filter engine.ShiftFilter) ([]engine.DailyShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args := buildShiftQuery("SELECT "+shiftColumns+" FROM shifts", "", filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query shifts", err)
	}
	defer rows.Close()

	var shifts []engine.DailyShift
	for rows.Next() {
		shift, err := scanShiftFrom(rows)
		if err != nil {
			return nil, storeErr("scan shift", err)
		}
		shifts = append(shifts, *shift)
	}
	return shifts, rows.Err()
}

// QueryWithEmployees joins each shift with its owning employee, the
// input shape the bucketer and report builder consume.
func (s *Store) QueryWithEmployees(ctx context.Context, filter engine.ShiftFilter) ([]engine.ShiftWithEmployee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	base := `
		SELECT s.id, s.employee_id, s.date, s.entry1, s.exit1, s.entry2, s.exit2,
		       s.paid, s.created_at, s.updated_at,
		       e.name, e.hourly_rate, e.created_at
		FROM shifts s
		JOIN employees e ON e.id = s.employee_id
	`
	query, args := buildShiftQuery(base, "s.", filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query shifts with employees", err)
	}
	defer rows.Close()

	var out []engine.ShiftWithEmployee
	for rows.Next() {
		var (
			shift                        engine.DailyShift
			date, createdAt, updatedAt   string
			entry1, exit1, entry2, exit2 sql.NullString
			emp                          engine.Employee
			rate                         sql.NullString
			empCreatedAt                 string
		)
		if err := rows.Scan(
			&shift.ID, &shift.EmployeeID, &date, &entry1, &exit1, &entry2, &exit2,
			&shift.Paid, &createdAt, &updatedAt,
			&emp.Name, &rate, &empCreatedAt,
		); err != nil {
			return nil, storeErr("scan shift row", err)
		}
		fillShiftTimes(&shift, date, entry1, exit1, entry2, exit2, createdAt, updatedAt)
		emp.ID = shift.EmployeeID
		emp.HourlyRate = parseDecimal(rate)
		emp.CreatedAt, _ = time.Parse(time.RFC3339, empCreatedAt)
		out = append(out, engine.ShiftWithEmployee{Shift: shift, Employee: emp})
	}
	return out, rows.Err()
}

func buildShiftQuery(base, prefix string, filter engine.ShiftFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.EmployeeID != nil {
		conds = append(conds, prefix+"employee_id = ?")
		args = append(args, *filter.EmployeeID)
	}
	if filter.From != nil {
		conds = append(conds, prefix+"date >= ?")
		args = append(args, engine.Midnight(*filter.From).Format(dateLayout))
	}
	if filter.To != nil {
		conds = append(conds, prefix+"date <= ?")
		args = append(args, engine.Midnight(*filter.To).Format(dateLayout))
	}
	if filter.Paid != nil {
		conds = append(conds, prefix+"paid = ?")
		args = append(args, *filter.Paid)
	}

	query := base
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY " + prefix + "date ASC, " + prefix + "id ASC"
	return query, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShiftRow(row *sql.Row) (*engine.DailyShift, error) {
	shift, err := scanShiftFrom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("scan shift", err)
	}
	return shift, nil
}

func scanShiftFrom(r rowScanner) (*engine.DailyShift, error) {
	var (
		shift                        engine.DailyShift
		date, createdAt, updatedAt   string
		entry1, exit1, entry2, exit2 sql.NullString
	)
	err := r.Scan(&shift.ID, &shift.EmployeeID, &date,
		&entry1, &exit1, &entry2, &exit2, &shift.Paid, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	fillShiftTimes(&shift, date, entry1, exit1, entry2, exit2, createdAt, updatedAt)
	return &shift, nil
}

func fillShiftTimes(shift *engine.DailyShift, date string, entry1, exit1, entry2, exit2 sql.NullString, createdAt, updatedAt string) {
	shift.Date, _ = time.Parse(dateLayout, date)
	shift.Range1 = parseRange(entry1, exit1)
	shift.Range2 = parseRange(entry2, exit2)
	shift.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	shift.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
}

// =============================================================================
// AUDIT LOG
// =============================================================================

// defaultAuditLimit caps how many entries a query reads when the caller
// does not say; the log itself is retained indefinitely.
const defaultAuditLimit = 1000

// Record appends an activity-log entry.
func (s *Store) Record(ctx context.Context, entry engine.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var employeeID any
	if entry.EmployeeID != nil {
		employeeID = string(*entry.EmployeeID)
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO activity_log (id, action, employee_id, details, timestamp) VALUES (?, ?, ?, ?, ?)",
		entry.ID, entry.Action, employeeID, entry.Details,
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	return storeErr("record audit entry", err)
}

// QueryAudit returns entries matching the filter, most recent first.
func (s *Store) QueryAudit(ctx context.Context, filter engine.AuditFilter) ([]engine.AuditEntry, error) {
	records, err := s.QueryAuditWithNames(ctx, filter)
	if err != nil {
		return nil, err
	}
	entries := make([]engine.AuditEntry, len(records))
	for i, r := range records {
		entries[i] = r.AuditEntry
	}
	return entries, nil
}

// AuditRecord pairs an entry with the (possibly deleted) employee's name.
type AuditRecord struct {
	engine.AuditEntry
	EmployeeName string
}

// QueryAuditWithNames joins entries with employee names for display.
// Entries whose employee was deleted keep a null reference and no name.
func (s *Store) QueryAuditWithNames(ctx context.Context, filter engine.AuditFilter) ([]AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		conds []string
		args  []any
	)
	if filter.EmployeeID != nil {
		conds = append(conds, "a.employee_id = ?")
		args = append(args, *filter.EmployeeID)
	}
	if filter.Action != nil {
		conds = append(conds, "a.action = ?")
		args = append(args, *filter.Action)
	}
	if filter.From != nil {
		conds = append(conds, "a.timestamp >= ?")
		args = append(args, filter.From.UTC().Format(time.RFC3339))
	}
	if filter.To != nil {
		conds = append(conds, "a.timestamp <= ?")
		args = append(args, filter.To.UTC().Format(time.RFC3339))
	}

	query := `
		SELECT a.id, a.action, a.employee_id, a.details, a.timestamp, e.name
		FROM activity_log a
		LEFT JOIN employees e ON e.id = a.employee_id
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	query += " ORDER BY a.timestamp DESC, a.id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query audit log", err)
	}
	defer rows.Close()

	var records []AuditRecord
	for rows.Next() {
		var (
			rec        AuditRecord
			employeeID sql.NullString
			details    sql.NullString
			name       sql.NullString
			timestamp  string
		)
		if err := rows.Scan(&rec.ID, &rec.Action, &employeeID, &details, &timestamp, &name); err != nil {
			return nil, storeErr("scan audit entry", err)
		}
		if employeeID.Valid {
			id := engine.EmployeeID(employeeID.String)
			rec.EmployeeID = &id
		}
		rec.Details = details.String
		rec.EmployeeName = name.String
		rec.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// PLAN STORE
// =============================================================================

// FindWeek returns the plan for a Monday date, or nil when absent.
func (s *Store) FindWeek(ctx context.Context, weekStart time.Time) (*planning.PlanWeek, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		week                 planning.PlanWeek
		ws                   string
		name, description    sql.NullString
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, week_start, name, description, created_at, updated_at FROM plan_weeks WHERE week_start = ?",
		engine.Midnight(weekStart).Format(dateLayout),
	).Scan(&week.ID, &ws, &name, &description, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("find plan week", err)
	}

	week.WeekStart, _ = time.Parse(dateLayout, ws)
	week.Name = name.String
	week.Description = description.String
	week.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	week.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &week, nil
}

// GetEntries returns a week's entries ordered by date, start, end.
func (s *Store) GetEntries(ctx context.Context, planWeekID string) ([]planning.PlanEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, plan_week_id, employee_id, date, start_time, end_time, note
		FROM plan_entries
		WHERE plan_week_id = ?
		ORDER BY date ASC, start_time ASC, end_time ASC
	`, planWeekID)
	if err != nil {
		return nil, storeErr("get plan entries", err)
	}
	defer rows.Close()

	var entries []planning.PlanEntry
	for rows.Next() {
		var (
			e    planning.PlanEntry
			date string
			note sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.PlanWeekID, &e.EmployeeID, &date, &e.StartTime, &e.EndTime, &note); err != nil {
			return nil, storeErr("scan plan entry", err)
		}
		e.Date, _ = time.Parse(dateLayout, date)
		e.Note = note.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReplaceWeek upserts the week and wholesale-replaces its entries
// (delete all, then insert) within one transaction.
func (s *Store) ReplaceWeek(ctx context.Context, week planning.PlanWeek, entries []planning.PlanEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin plan transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO plan_weeks (id, week_start, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(week_start) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			updated_at = excluded.updated_at
	`,
		week.ID,
		engine.Midnight(week.WeekStart).Format(dateLayout),
		week.Name, week.Description,
		week.CreatedAt.UTC().Format(time.RFC3339),
		week.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return storeErr("upsert plan week", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM plan_entries WHERE plan_week_id = ?", week.ID); err != nil {
		return storeErr("clear plan entries", err)
	}

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO plan_entries (id, plan_week_id, employee_id, date, start_time, end_time, note)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, e.ID, e.PlanWeekID, e.EmployeeID,
			engine.Midnight(e.Date).Format(dateLayout),
			e.StartTime, e.EndTime, e.Note)
		if err != nil {
			return storeErr("insert plan entry", err)
		}
	}

	return storeErr("commit plan transaction", tx.Commit())
}

// DeleteWeek removes a plan week; its entries cascade.
func (s *Store) DeleteWeek(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM plan_weeks WHERE id = ?", id)
	return storeErr("delete plan week", err)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"plan_entries", "plan_weeks", "activity_log", "shifts", "employees"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return storeErr("reset "+table, err)
		}
	}
	return nil
}

func splitRange(r *engine.TimeRange) (entry, exit sql.NullString) {
	if r == nil {
		return
	}
	entry = sql.NullString{String: r.Entry.UTC().Format(time.RFC3339), Valid: true}
	if r.Exit != nil {
		exit = sql.NullString{String: r.Exit.UTC().Format(time.RFC3339), Valid: true}
	}
	return
}

func parseRange(entry, exit sql.NullString) *engine.TimeRange {
	if !entry.Valid {
		return nil
	}
	r := engine.TimeRange{}
	r.Entry, _ = time.Parse(time.RFC3339, entry.String)
	if exit.Valid {
		t, _ := time.Parse(time.RFC3339, exit.String)
		r.Exit = &t
	}
	return &r
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

// storeErr wraps database failures; timeouts and dead connections become
// engine.ErrStoreUnavailable so callers know the operation is retryable.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %s: %v", engine.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func parseDecimal(s sql.NullString) *decimal.Decimal {
	if !s.Valid || s.String == "" {
		return nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil
	}
	return &d
}
