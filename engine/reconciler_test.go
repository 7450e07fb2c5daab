package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucero/shiftpay/engine"
	"github.com/lucero/shiftpay/engine/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestReconciler(t *testing.T) (*engine.Reconciler, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	rec := engine.NewReconciler(mem, mem, mem)

	d := decimal.NewFromInt(10)
	require.NoError(t, mem.SaveEmployee(context.Background(), engine.Employee{
		ID: "emp-1", Name: "Ana", HourlyRate: &d,
	}))
	return rec, mem
}

// =============================================================================
// SUBMISSION
// =============================================================================

func TestSubmitShift_CreatesRecord(t *testing.T) {
	rec, mem := newTestReconciler(t)
	ctx := context.Background()

	shift, created, err := rec.SubmitShift(ctx, "emp-1", day,
		[]engine.TurnInput{{Entry: "09:00", Exit: "13:00"}}, nil)
	require.NoError(t, err)
	require.NotNil(t, shift)
	assert.NotEmpty(t, shift.ID)
	assert.True(t, created)

	// The record is durably keyed by employee+date.
	stored, err := mem.Find(ctx, "emp-1", day)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, shift.ID, stored.ID)

	entries, err := mem.QueryAudit(ctx, engine.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, engine.AuditCreateShift, entries[0].Action)
}

func TestSubmitShift_SecondTurnMergesIntoSameRecord(t *testing.T) {
	// GIVEN: a morning turn already recorded
	// WHEN: the afternoon turn is submitted separately
	// THEN: the same record gains a second turn; no duplicate key appears

	rec, mem := newTestReconciler(t)
	ctx := context.Background()

	first, created, err := rec.SubmitShift(ctx, "emp-1", day,
		[]engine.TurnInput{{Entry: "09:00", Exit: "13:00"}}, nil)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := rec.SubmitShift(ctx, "emp-1", day,
		[]engine.TurnInput{{Entry: "15:00", Exit: "19:00"}}, nil)
	require.NoError(t, err)
	assert.False(t, created, "merge into an existing record is not a creation")

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.HasDoubleTurn())

	all, err := mem.Query(ctx, engine.ShiftFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSubmitShift_UnknownEmployee(t *testing.T) {
	rec, _ := newTestReconciler(t)

	_, _, err := rec.SubmitShift(context.Background(), "ghost", day,
		[]engine.TurnInput{{Entry: "09:00", Exit: "13:00"}}, nil)
	assert.True(t, errors.Is(err, engine.ErrNotFound))
}

func TestSubmitShift_FailedValidationWritesNothing(t *testing.T) {
	// GIVEN: a record holding 09:00-13:00
	// WHEN: a batch with one valid and one overlapping turn is submitted
	// THEN: all-or-nothing - the stored record keeps exactly one turn

	rec, mem := newTestReconciler(t)
	ctx := context.Background()

	_, _, err := rec.SubmitShift(ctx, "emp-1", day,
		[]engine.TurnInput{{Entry: "09:00", Exit: "13:00"}}, nil)
	require.NoError(t, err)

	_, _, err = rec.SubmitShift(ctx, "emp-1", day, []engine.TurnInput{
		{Entry: "15:00", Exit: "17:00"}, // valid alone
		{Entry: "12:00", Exit: "16:00"}, // overlaps both
	}, nil)
	require.Error(t, err)

	stored, err := mem.Find(ctx, "emp-1", day)
	require.NoError(t, err)
	assert.NotNil(t, stored.Range1)
	assert.Nil(t, stored.Range2, "partial batch must not persist")
}

func TestSubmitShift_EmptySubmission(t *testing.T) {
	rec, _ := newTestReconciler(t)

	_, _, err := rec.SubmitShift(context.Background(), "emp-1", day, nil, nil)
	assert.True(t, errors.Is(err, engine.ErrInvalidRange))
}

func TestSubmitShift_ConcurrentSameKey(t *testing.T) {
	// GIVEN: two goroutines submitting different turns for the same
	//        employee and date
	// WHEN: both run
	// THEN: exactly one record exists holding both turns, and exactly one
	//       submission reports the creation; the per-key lock serializes
	//       the read-reconcile-write sequences

	rec, mem := newTestReconciler(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	turns := [][]engine.TurnInput{
		{{Entry: "09:00", Exit: "13:00"}},
		{{Entry: "15:00", Exit: "19:00"}},
	}
	errs := make([]error, len(turns))
	createds := make([]bool, len(turns))
	for i := range turns {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, createds[i], errs[i] = rec.SubmitShift(ctx, "emp-1", day, turns[i], nil)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.NotEqual(t, createds[0], createds[1],
		"exactly one concurrent submission may observe the creation")

	all, err := mem.Query(ctx, engine.ShiftFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1, "concurrent submissions must converge on one record")
	assert.True(t, all[0].HasDoubleTurn())
}

// =============================================================================
// EDITS
// =============================================================================

func TestUpdateShift_EditAndClear(t *testing.T) {
	rec, _ := newTestReconciler(t)
	ctx := context.Background()

	shift, _, err := rec.SubmitShift(ctx, "emp-1", day, []engine.TurnInput{
		{Entry: "09:00", Exit: "11:00"},
		{Entry: "12:00", Exit: "14:00"},
	}, nil)
	require.NoError(t, err)

	updated, err := rec.UpdateShift(ctx, shift.ID, []engine.SlotUpdate{
		{Slot: engine.Slot2, Entry: "13:00", Exit: "18:00"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "13:00-18:00", updated.Range2.String())

	cleared, err := rec.UpdateShift(ctx, shift.ID, []engine.SlotUpdate{
		{Slot: engine.Slot1, Clear: true},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, cleared.Range1, "clearing slot 1 promotes turn 2")
	assert.Equal(t, "13:00-18:00", cleared.Range1.String())
	assert.Nil(t, cleared.Range2)
}

func TestTogglePaid_RoundTrip(t *testing.T) {
	rec, _ := newTestReconciler(t)
	ctx := context.Background()

	shift, _, err := rec.SubmitShift(ctx, "emp-1", day,
		[]engine.TurnInput{{Entry: "09:00", Exit: "13:00"}}, nil)
	require.NoError(t, err)
	assert.False(t, shift.Paid)

	on, err := rec.TogglePaid(ctx, shift.ID)
	require.NoError(t, err)
	assert.True(t, on.Paid)

	off, err := rec.TogglePaid(ctx, shift.ID)
	require.NoError(t, err)
	assert.False(t, off.Paid)
}

func TestDeleteShift(t *testing.T) {
	rec, mem := newTestReconciler(t)
	ctx := context.Background()

	shift, _, err := rec.SubmitShift(ctx, "emp-1", day,
		[]engine.TurnInput{{Entry: "09:00", Exit: "13:00"}}, nil)
	require.NoError(t, err)

	require.NoError(t, rec.DeleteShift(ctx, shift.ID))

	stored, err := mem.Get(ctx, shift.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	err = rec.DeleteShift(ctx, shift.ID)
	assert.True(t, errors.Is(err, engine.ErrNotFound))
}

// =============================================================================
// AUDIT IS BEST-EFFORT
// =============================================================================

type failingAudit struct{}

func (failingAudit) Record(context.Context, engine.AuditEntry) error {
	return errors.New("audit sink down")
}

func (failingAudit) QueryAudit(context.Context, engine.AuditFilter) ([]engine.AuditEntry, error) {
	return nil, errors.New("audit sink down")
}

func TestSubmitShift_AuditFailureDoesNotBlock(t *testing.T) {
	// GIVEN: an audit sink that always fails
	// WHEN: a shift is submitted
	// THEN: the write succeeds anyway; auditing is fire-and-forget

	mem := store.NewMemory()
	d := decimal.NewFromInt(10)
	require.NoError(t, mem.SaveEmployee(context.Background(), engine.Employee{
		ID: "emp-1", Name: "Ana", HourlyRate: &d,
	}))
	rec := engine.NewReconciler(mem, mem, failingAudit{})

	shift, _, err := rec.SubmitShift(context.Background(), "emp-1",
		time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		[]engine.TurnInput{{Entry: "09:00", Exit: "13:00"}}, nil)
	require.NoError(t, err)
	require.NotNil(t, shift)
}
