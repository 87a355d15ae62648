package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/echoapp/echo/internal/profile"
	"github.com/echoapp/echo/store"
)

func newTestDriver(t *testing.T) store.Driver {
	t.Helper()

	driver, err := NewDB(&profile.Profile{
		DSN: filepath.Join(t.TempDir(), "echo_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })

	require.NoError(t, driver.Migrate(context.Background()))
	return driver
}

func createTestHabit(t *testing.T, driver store.Driver) *store.Habit {
	t.Helper()

	habit, err := driver.CreateHabit(context.Background(), &store.Habit{
		ID:          uuid.New().String(),
		Name:        "morning run",
		Frequency:   store.HabitFrequencyDaily,
		TargetCount: 1,
	})
	require.NoError(t, err)
	return habit
}

func getTestHabit(t *testing.T, driver store.Driver, id string) *store.Habit {
	t.Helper()

	habits, err := driver.ListHabits(context.Background(), &store.FindHabit{ID: &id})
	require.NoError(t, err)
	require.Len(t, habits, 1)
	return habits[0]
}

func logOn(t *testing.T, driver store.Driver, habitID string, date time.Time) *store.HabitLog {
	t.Helper()

	log, err := driver.LogHabitCompletion(context.Background(), &store.UpsertHabitLog{
		HabitID:       habitID,
		CompletedDate: date,
		Count:         1,
	})
	require.NoError(t, err)
	return log
}

func TestLogHabitCompletionUpsert(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)
	habit := createTestHabit(t, driver)

	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	first := logOn(t, driver, habit.ID, date)

	notes := "double session"
	second, err := driver.LogHabitCompletion(ctx, &store.UpsertHabitLog{
		HabitID:       habit.ID,
		CompletedDate: date,
		Count:         3,
		Notes:         &notes,
	})
	require.NoError(t, err)

	// Same (habit, date) pair overwrites in place instead of adding a row.
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 3, second.Count)
	require.NotNil(t, second.Notes)
	require.Equal(t, notes, *second.Notes)

	logs, err := driver.ListHabitLogs(ctx, &store.FindHabitLog{HabitID: &habit.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, 3, logs[0].Count)
}

func TestLogHabitCompletionUnknownHabit(t *testing.T) {
	driver := newTestDriver(t)

	_, err := driver.LogHabitCompletion(context.Background(), &store.UpsertHabitLog{
		HabitID:       uuid.New().String(),
		CompletedDate: time.Now().UTC(),
		Count:         1,
	})
	require.Error(t, err)
}

func TestLogHabitCompletionStreaks(t *testing.T) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	yesterday := today.AddDate(0, 0, -1)

	t.Run("consecutive days in order", func(t *testing.T) {
		driver := newTestDriver(t)
		habit := createTestHabit(t, driver)

		logOn(t, driver, habit.ID, yesterday)
		logOn(t, driver, habit.ID, today)

		stored := getTestHabit(t, driver, habit.ID)
		require.Equal(t, 2, stored.CurrentStreak)
		require.Equal(t, 2, stored.LongestStreak)
	})

	t.Run("consecutive days out of order", func(t *testing.T) {
		driver := newTestDriver(t)
		habit := createTestHabit(t, driver)

		logOn(t, driver, habit.ID, today)
		logOn(t, driver, habit.ID, yesterday)

		stored := getTestHabit(t, driver, habit.ID)
		require.Equal(t, 2, stored.CurrentStreak)
		require.Equal(t, 2, stored.LongestStreak)
	})

	t.Run("concurrent writers see each other's logs", func(t *testing.T) {
		driver := newTestDriver(t)
		habit := createTestHabit(t, driver)

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for _, date := range []time.Time{yesterday, today} {
			wg.Add(1)
			go func(date time.Time) {
				defer wg.Done()
				_, err := driver.LogHabitCompletion(context.Background(), &store.UpsertHabitLog{
					HabitID:       habit.ID,
					CompletedDate: date,
					Count:         1,
				})
				errs <- err
			}(date)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		// Each write recomputes from the full log set inside its own
		// transaction, so the result does not depend on arrival order.
		stored := getTestHabit(t, driver, habit.ID)
		require.Equal(t, 2, stored.CurrentStreak)
		require.Equal(t, 2, stored.LongestStreak)
	})
}

func TestDeleteHabitLogKeepsLongestStreak(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)
	habit := createTestHabit(t, driver)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	var logs []*store.HabitLog
	for offset := -2; offset <= 0; offset++ {
		logs = append(logs, logOn(t, driver, habit.ID, today.AddDate(0, 0, offset)))
	}

	stored := getTestHabit(t, driver, habit.ID)
	require.Equal(t, 3, stored.CurrentStreak)
	require.Equal(t, 3, stored.LongestStreak)

	// Deleting the middle day breaks the run but keeps the record.
	require.NoError(t, driver.DeleteHabitLog(ctx, habit.ID, logs[1].ID))
	stored = getTestHabit(t, driver, habit.ID)
	require.Equal(t, 1, stored.CurrentStreak)
	require.Equal(t, 3, stored.LongestStreak)

	// Re-logging the gap restores the run; the record never decreased in
	// between, so MAX leaves it untouched.
	logOn(t, driver, habit.ID, today.AddDate(0, 0, -1))
	stored = getTestHabit(t, driver, habit.ID)
	require.Equal(t, 3, stored.CurrentStreak)
	require.Equal(t, 3, stored.LongestStreak)
}

func TestDeleteHabitLogNotFound(t *testing.T) {
	driver := newTestDriver(t)
	habit := createTestHabit(t, driver)

	err := driver.DeleteHabitLog(context.Background(), habit.ID, uuid.New().String())
	require.Error(t, err)
}

func TestDeleteHabitRemovesLogs(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)
	habit := createTestHabit(t, driver)

	logOn(t, driver, habit.ID, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	logOn(t, driver, habit.ID, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC))

	require.NoError(t, driver.DeleteHabit(ctx, habit.ID))

	logs, err := driver.ListHabitLogs(ctx, &store.FindHabitLog{HabitID: &habit.ID})
	require.NoError(t, err)
	require.Empty(t, logs)

	habits, err := driver.ListHabits(ctx, &store.FindHabit{ID: &habit.ID})
	require.NoError(t, err)
	require.Empty(t, habits)
}
