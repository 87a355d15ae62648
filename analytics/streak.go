// Package analytics implements the streak computation and productivity
// aggregation engine. Everything in this package is a pure function over
// already-loaded rows: no clock reads, no database access, no side effects.
package analytics

import (
	"sort"
	"time"
)

// Streaks holds the two streak counters derived from a habit's history.
type Streaks struct {
	Current int
	Longest int
}

// ComputeStreaks derives the current and longest streak from a habit's
// completion dates. Duplicate dates are collapsed, only the calendar day of
// each entry matters. "today" is injected by the caller so the computation
// stays deterministic.
//
// The current streak counts consecutive days ending at today inclusive; it is
// 0 when today itself has no completion, even if yesterday does. The longest
// streak is the best consecutive run anywhere in the history. An empty
// history yields (0, 0).
//
// Note the returned Longest is the longest streak of the supplied dates only.
// The monotonic "never decreases" policy for the persisted counter is applied
// at the write site (max of stored and computed), not here.
func ComputeStreaks(completionDates []time.Time, today time.Time) Streaks {
	if len(completionDates) == 0 {
		return Streaks{}
	}

	dateSet := make(map[time.Time]struct{}, len(completionDates))
	for _, d := range completionDates {
		dateSet[dateOf(d)] = struct{}{}
	}

	// Current streak: walk backward from today until the first missing day.
	current := 0
	for day := dateOf(today); ; day = day.AddDate(0, 0, -1) {
		if _, ok := dateSet[day]; !ok {
			break
		}
		current++
	}

	// Longest streak: scan the sorted distinct dates and track runs of
	// exactly-one-day gaps.
	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	longest, run := 1, 1
	for i := 1; i < len(dates); i++ {
		if dates[i-1].AddDate(0, 0, 1).Equal(dates[i]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	return Streaks{Current: current, Longest: longest}
}

// NextStreaks returns the counter pair to persist after a log write. The
// current streak is always the freshly computed value; the longest streak is
// the maximum of the stored value and the freshly computed one, so the record
// never decreases even when historical logs were deleted.
func NextStreaks(storedLongest int, completionDates []time.Time, today time.Time) Streaks {
	s := ComputeStreaks(completionDates, today)
	if storedLongest > s.Longest {
		s.Longest = storedLongest
	}
	return s
}

// dateOf truncates a timestamp to its calendar day. The day is taken from the
// timestamp's own location and re-anchored in UTC so that map lookups and
// AddDate arithmetic are exact.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the inclusive day count of the window [start, end].
func daysBetween(start, end time.Time) int {
	return int(dateOf(end).Sub(dateOf(start))/(24*time.Hour)) + 1
}
