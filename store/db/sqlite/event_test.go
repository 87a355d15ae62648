package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/echoapp/echo/store"
)

func createTestEvent(t *testing.T, driver store.Driver, eventType store.EventType, status store.EventStatus, start time.Time) *store.Event {
	t.Helper()

	event, err := driver.CreateEvent(context.Background(), &store.Event{
		ID:        uuid.New().String(),
		Title:     "standup",
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
		EventType: eventType,
		Status:    status,
	})
	require.NoError(t, err)
	return event
}

func addReminder(t *testing.T, driver store.Driver, eventID string, minutesBefore int) *store.EventReminder {
	t.Helper()

	reminder, err := driver.CreateEventReminder(context.Background(), &store.EventReminder{
		ID:            uuid.New().String(),
		EventID:       eventID,
		MinutesBefore: minutesBefore,
		Method:        "notification",
	})
	require.NoError(t, err)
	return reminder
}

func TestCountEventsByType(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)

	start := time.Now().UTC().Add(time.Hour)
	createTestEvent(t, driver, store.EventTypePersonal, store.EventStatusScheduled, start)
	createTestEvent(t, driver, store.EventTypePersonal, store.EventStatusScheduled, start.Add(time.Hour))
	createTestEvent(t, driver, store.EventTypeWork, store.EventStatusScheduled, start.Add(2*time.Hour))

	counts, err := driver.CountEventsByType(ctx)
	require.NoError(t, err)
	require.Equal(t, map[store.EventType]int{
		store.EventTypePersonal: 2,
		store.EventTypeWork:     1,
	}, counts)
}

func TestListEventRemindersOrdering(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)
	event := createTestEvent(t, driver, store.EventTypeMeeting, store.EventStatusScheduled, time.Now().UTC().Add(time.Hour))

	addReminder(t, driver, event.ID, 60)
	addReminder(t, driver, event.ID, 5)
	addReminder(t, driver, event.ID, 15)

	reminders, err := driver.ListEventReminders(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, reminders, 3)
	require.Equal(t, 5, reminders[0].MinutesBefore)
	require.Equal(t, 15, reminders[1].MinutesBefore)
	require.Equal(t, 60, reminders[2].MinutesBefore)
	for _, reminder := range reminders {
		require.False(t, reminder.Sent)
		require.Nil(t, reminder.SentAt)
	}
}

func TestListPendingEventReminders(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)
	now := time.Now().UTC()

	soon := createTestEvent(t, driver, store.EventTypeMeeting, store.EventStatusScheduled, now.Add(30*time.Minute))
	due := addReminder(t, driver, soon.ID, 60)
	addReminder(t, driver, soon.ID, 10) // lead window not reached yet

	past := createTestEvent(t, driver, store.EventTypeMeeting, store.EventStatusScheduled, now.Add(-time.Hour))
	addReminder(t, driver, past.ID, 60)

	cancelled := createTestEvent(t, driver, store.EventTypeMeeting, store.EventStatusCancelled, now.Add(30*time.Minute))
	addReminder(t, driver, cancelled.ID, 60)

	pending, err := driver.ListPendingEventReminders(ctx, now)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, due.ID, pending[0].ID)

	require.NoError(t, driver.MarkEventReminderSent(ctx, due.ID, now))

	pending, err = driver.ListPendingEventReminders(ctx, now)
	require.NoError(t, err)
	require.Empty(t, pending)

	reminders, err := driver.ListEventReminders(ctx, soon.ID)
	require.NoError(t, err)
	require.Len(t, reminders, 2)
	require.True(t, reminders[1].Sent)
	require.NotNil(t, reminders[1].SentAt)
}

func TestMarkEventReminderSentNotFound(t *testing.T) {
	driver := newTestDriver(t)

	err := driver.MarkEventReminderSent(context.Background(), uuid.New().String(), time.Now().UTC())
	require.Error(t, err)
}

func TestDeleteEventRemovesReminders(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)
	event := createTestEvent(t, driver, store.EventTypePersonal, store.EventStatusScheduled, time.Now().UTC().Add(time.Hour))
	addReminder(t, driver, event.ID, 30)

	require.NoError(t, driver.DeleteEvent(ctx, event.ID))

	reminders, err := driver.ListEventReminders(ctx, event.ID)
	require.NoError(t, err)
	require.Empty(t, reminders)
}
