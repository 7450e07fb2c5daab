package planning_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucero/shiftpay/engine"
	"github.com/lucero/shiftpay/planning"
	"github.com/lucero/shiftpay/store/sqlite"
)

var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *planning.Service {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.SaveEmployee(context.Background(), engine.Employee{
		ID: "emp-1", Name: "Ana", CreatedAt: time.Now().UTC(),
	}))
	return planning.NewService(store)
}

func entry(day int, start, end string) planning.EntryInput {
	return planning.EntryInput{
		EmployeeID: "emp-1",
		Date:       monday.AddDate(0, 0, day),
		StartTime:  start,
		EndTime:    end,
	}
}

func TestSaveWeek_CreateAndRead(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	week, entries, err := svc.SaveWeek(ctx, monday, "week 10", "", []planning.EntryInput{
		entry(0, "09:00", "13:00"),
		entry(4, "14:00", "18:00"),
	})
	require.NoError(t, err)
	require.NotNil(t, week)
	assert.Equal(t, "week 10", week.Name)
	require.Len(t, entries, 2)
	// Ordered by date.
	assert.True(t, entries[0].Date.Before(entries[1].Date))

	gotWeek, gotEntries, err := svc.GetWeek(ctx, monday)
	require.NoError(t, err)
	require.NotNil(t, gotWeek)
	assert.Equal(t, week.ID, gotWeek.ID)
	assert.Len(t, gotEntries, 2)
}

func TestSaveWeek_RejectsNonMonday(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.SaveWeek(context.Background(), monday.AddDate(0, 0, 2), "", "", nil)
	assert.True(t, errors.Is(err, planning.ErrNotMonday))
}

func TestSaveWeek_RejectsEntryOutsideWeek(t *testing.T) {
	// GIVEN: a week starting Monday Mar 3
	// WHEN: an entry dated the following Monday is included
	// THEN: rejected; entries must fall on the seven days of the week

	svc := newTestService(t)

	_, _, err := svc.SaveWeek(context.Background(), monday, "", "", []planning.EntryInput{
		entry(7, "09:00", "13:00"),
	})
	assert.True(t, errors.Is(err, planning.ErrOutsideWeek))
}

func TestSaveWeek_RejectsBadClock(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.SaveWeek(context.Background(), monday, "", "", []planning.EntryInput{
		entry(0, "9am", "13:00"),
	})
	assert.True(t, errors.Is(err, planning.ErrBadClock))
}

func TestSaveWeek_ReplacesWholesaleKeepingIdentity(t *testing.T) {
	// GIVEN: a saved plan for a week
	// WHEN: the same week is saved again with different entries
	// THEN: the week keeps its ID, the old entries are gone

	svc := newTestService(t)
	ctx := context.Background()

	first, _, err := svc.SaveWeek(ctx, monday, "v1", "", []planning.EntryInput{
		entry(0, "09:00", "13:00"),
		entry(1, "09:00", "13:00"),
	})
	require.NoError(t, err)

	second, entries, err := svc.SaveWeek(ctx, monday, "v2", "", []planning.EntryInput{
		entry(5, "10:00", "16:00"),
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "v2", second.Name)
	require.Len(t, entries, 1)
	assert.Equal(t, "10:00", entries[0].StartTime)
}

func TestGetWeek_AbsentReturnsNil(t *testing.T) {
	svc := newTestService(t)

	week, entries, err := svc.GetWeek(context.Background(), monday)
	require.NoError(t, err)
	assert.Nil(t, week)
	assert.Nil(t, entries)
}
