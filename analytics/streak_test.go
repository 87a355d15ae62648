package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testToday = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

// day returns testToday shifted by the given number of days.
func day(offset int) time.Time {
	return testToday.AddDate(0, 0, offset)
}

func TestComputeStreaks(t *testing.T) {
	tests := []struct {
		name        string
		dates       []time.Time
		wantCurrent int
		wantLongest int
	}{
		{"empty history", nil, 0, 0},
		{"single completion today", []time.Time{day(0)}, 1, 1},
		{"three consecutive days ending today", []time.Time{day(0), day(-1), day(-2)}, 3, 3},
		{"yesterday only, no log today", []time.Time{day(-1)}, 0, 1},
		{"last completed three days ago", []time.Time{day(-5), day(-4), day(-3)}, 0, 3},
		{"gap resets current but not longest", []time.Time{day(-5), day(-4), day(-3), day(-1), day(0)}, 2, 3},
		{"unordered input", []time.Time{day(0), day(-2), day(-1)}, 3, 3},
		{"two separate runs, older is longer", []time.Time{day(-10), day(-9), day(-8), day(-7), day(0), day(-1)}, 2, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ComputeStreaks(tt.dates, testToday)
			assert.Equal(t, tt.wantCurrent, s.Current, "current streak")
			assert.Equal(t, tt.wantLongest, s.Longest, "longest streak")
		})
	}
}

func TestComputeStreaks_CollapsesDuplicateDates(t *testing.T) {
	// Same calendar day logged with different time components counts once.
	dates := []time.Time{
		time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC),
		time.Date(2026, 3, 15, 22, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	s := ComputeStreaks(dates, testToday)
	assert.Equal(t, 2, s.Current)
	assert.Equal(t, 2, s.Longest)
}

func TestComputeStreaks_TodayInjected(t *testing.T) {
	// Five consecutive completions ending at the injected today.
	dates := []time.Time{day(-4), day(-3), day(-2), day(-1), day(0)}

	s := ComputeStreaks(dates, testToday)
	require.Equal(t, 5, s.Current)
	require.Equal(t, 5, s.Longest)

	// Two days later with no new logs the current streak collapses to zero
	// while the history is preserved.
	s = ComputeStreaks(dates, day(2))
	assert.Equal(t, 0, s.Current)
	assert.Equal(t, 5, s.Longest)
}

func TestNextStreaks_LongestIsMonotonic(t *testing.T) {
	dates := []time.Time{day(-2), day(-1), day(0)}

	s := NextStreaks(0, dates, testToday)
	require.Equal(t, 3, s.Current)
	require.Equal(t, 3, s.Longest)

	// Deleting history may shrink the computed longest streak, but the
	// persisted record keeps its previous high-water mark.
	s = NextStreaks(s.Longest, []time.Time{day(0)}, testToday)
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 3, s.Longest)

	// An empty history still keeps the record.
	s = NextStreaks(s.Longest, nil, testToday)
	assert.Equal(t, 0, s.Current)
	assert.Equal(t, 3, s.Longest)
}

func TestNextStreaks_RelogSameDateIsIdempotent(t *testing.T) {
	dates := []time.Time{day(-1), day(0)}

	first := NextStreaks(0, dates, testToday)
	// Re-logging an existing date changes count/notes on the log but not the
	// set of distinct dates, so the streak pair stays identical.
	second := NextStreaks(first.Longest, dates, testToday)

	assert.Equal(t, first, second)
}
