package gcal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoapp/echo/store"
)

var testNow = time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

func TestAuthURL(t *testing.T) {
	s := NewService("client-id", "client-secret", "http://localhost:8088/callback")
	got := s.AuthURL("state-token")

	assert.Contains(t, got, "accounts.google.com")
	assert.Contains(t, got, "access_type=offline")
	assert.Contains(t, got, "prompt=consent")
	assert.Contains(t, got, "state=state-token")
	assert.Contains(t, got, "calendar.events")
}

func TestEventFromTask(t *testing.T) {
	due := time.Date(2026, 3, 20, 14, 0, 0, 0, time.UTC)
	description := "quarterly numbers"
	task := &store.Task{
		Title:       "Prepare report",
		Description: &description,
		Priority:    store.TaskPriorityHigh,
		DueDate:     &due,
	}

	event := EventFromTask(task, testNow)

	assert.Equal(t, "Task: Prepare report", event.Summary)
	assert.Contains(t, event.Description, "quarterly numbers")
	assert.Contains(t, event.Description, "Priority: high")
	assert.Equal(t, due.Format(time.RFC3339), event.Start.DateTime)
	assert.Equal(t, due.Add(time.Hour).Format(time.RFC3339), event.End.DateTime)

	// High priority adds the one hour reminder.
	require.NotNil(t, event.Reminders)
	require.Len(t, event.Reminders.Overrides, 2)
	assert.Equal(t, 15, event.Reminders.Overrides[0].Minutes)
	assert.Equal(t, 60, event.Reminders.Overrides[1].Minutes)
}

func TestEventFromTask_NoDueDate(t *testing.T) {
	task := &store.Task{Title: "Untimed", Priority: store.TaskPriorityMedium}

	event := EventFromTask(task, testNow)

	assert.Equal(t, testNow.Add(time.Hour).Format(time.RFC3339), event.Start.DateTime)
	assert.Equal(t, testNow.Add(2*time.Hour).Format(time.RFC3339), event.End.DateTime)
	require.Len(t, event.Reminders.Overrides, 1)
}

func TestEventFromHabit(t *testing.T) {
	habit := &store.Habit{
		Name:          "Morning run",
		Frequency:     store.HabitFrequencyDaily,
		CurrentStreak: 6,
	}

	event := EventFromHabit(habit, testNow)

	assert.Equal(t, "Habit: Morning run", event.Summary)
	assert.Contains(t, event.Description, "Frequency: daily")
	assert.Contains(t, event.Description, "Current Streak: 6 days")
	assert.Equal(t, testNow.Add(time.Hour).Format(time.RFC3339), event.Start.DateTime)
	assert.Equal(t, testNow.Add(90*time.Minute).Format(time.RFC3339), event.End.DateTime)
	require.Len(t, event.Reminders.Overrides, 1)
	assert.Equal(t, 10, event.Reminders.Overrides[0].Minutes)
}
