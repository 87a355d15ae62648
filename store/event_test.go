package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func timedEvent(start, end time.Time) *Event {
	return &Event{StartTime: start, EndTime: end}
}

func TestEventDurationMinutes(t *testing.T) {
	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	require.Equal(t, 90, timedEvent(start, start.Add(90*time.Minute)).DurationMinutes())

	allDay := &Event{StartTime: start, EndTime: start.Add(time.Hour), AllDay: true}
	require.Equal(t, 24*60, allDay.DurationMinutes())
}

func TestEventConflictsWith(t *testing.T) {
	base := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	meeting := timedEvent(base, base.Add(time.Hour))

	t.Run("overlapping", func(t *testing.T) {
		other := timedEvent(base.Add(30*time.Minute), base.Add(2*time.Hour))
		require.True(t, meeting.ConflictsWith(other))
		require.True(t, other.ConflictsWith(meeting))
	})

	t.Run("contained", func(t *testing.T) {
		other := timedEvent(base.Add(10*time.Minute), base.Add(20*time.Minute))
		require.True(t, meeting.ConflictsWith(other))
	})

	t.Run("back to back does not conflict", func(t *testing.T) {
		other := timedEvent(base.Add(time.Hour), base.Add(2*time.Hour))
		require.False(t, meeting.ConflictsWith(other))
	})

	t.Run("disjoint", func(t *testing.T) {
		other := timedEvent(base.Add(3*time.Hour), base.Add(4*time.Hour))
		require.False(t, meeting.ConflictsWith(other))
	})

	t.Run("all day conflicts with anything that date", func(t *testing.T) {
		allDay := &Event{StartTime: base, EndTime: base.Add(time.Hour), AllDay: true}
		sameDay := timedEvent(base.Add(8*time.Hour), base.Add(9*time.Hour))
		require.True(t, allDay.ConflictsWith(sameDay))
		require.True(t, sameDay.ConflictsWith(allDay))

		nextDay := timedEvent(base.AddDate(0, 0, 1), base.AddDate(0, 0, 1).Add(time.Hour))
		require.False(t, allDay.ConflictsWith(nextDay))
	})
}
