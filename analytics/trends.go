package analytics

import (
	"math"
	"strings"
	"time"

	"github.com/echoapp/echo/store"
)

// Momentum directions.
const (
	MomentumImproving = "improving"
	MomentumDeclining = "declining"
	MomentumStable    = "stable"
)

func computeTrends(tasks []*store.Task, logs []*store.HabitLog, start, end time.Time) TrendAnalysis {
	return TrendAnalysis{
		WeeklyTrends:      weeklyTrends(tasks, logs, start, end),
		DayOfWeekPatterns: dayOfWeekPatterns(tasks, logs, start, end),
		Momentum:          computeMomentum(tasks, logs, start, end),
	}
}

// weeklyTrends buckets activity into Monday-aligned weeks spanning the
// window. The first bucket may begin before the window start; the last is
// clamped to the window end.
func weeklyTrends(tasks []*store.Task, logs []*store.HabitLog, start, end time.Time) []WeeklyTrend {
	trends := []WeeklyTrend{}
	if end.Before(start) {
		return trends
	}

	for weekStart := MondayOf(start); !weekStart.After(end); weekStart = weekStart.AddDate(0, 0, 7) {
		weekEnd := weekStart.AddDate(0, 0, 6)
		if weekEnd.After(end) {
			weekEnd = end
		}

		tasksCompleted := countTasksCompletedIn(tasks, weekStart, weekEnd)
		habitCompletions := sumHabitCompletionsIn(logs, weekStart, weekEnd)

		trends = append(trends, WeeklyTrend{
			WeekStart:         weekStart.Format(time.DateOnly),
			WeekEnd:           weekEnd.Format(time.DateOnly),
			TasksCompleted:    tasksCompleted,
			HabitCompletions:  habitCompletions,
			ProductivityScore: weightedScore(tasksCompleted, habitCompletions),
		})
	}
	return trends
}

// dayOfWeekPatterns aggregates the weighted score across all occurrences of
// each weekday inside the window, keyed by lowercase weekday name.
func dayOfWeekPatterns(tasks []*store.Task, logs []*store.HabitLog, start, end time.Time) map[string]DayPattern {
	patterns := make(map[string]DayPattern, 7)
	for i := 0; i < 7; i++ {
		weekday := time.Weekday((int(time.Monday) + i) % 7)
		tasksCompleted := 0
		for _, t := range tasks {
			if t.Status == store.TaskStatusCompleted && t.CompletedAt != nil &&
				dateInRange(*t.CompletedAt, start, end) && t.CompletedAt.Weekday() == weekday {
				tasksCompleted++
			}
		}
		habitCompletions := 0
		for _, l := range logs {
			if dateInRange(l.CompletedDate, start, end) && l.CompletedDate.Weekday() == weekday {
				habitCompletions += l.Count
			}
		}
		patterns[strings.ToLower(weekday.String())] = DayPattern{
			TasksCompleted:    tasksCompleted,
			HabitCompletions:  habitCompletions,
			ProductivityScore: weightedScore(tasksCompleted, habitCompletions),
		}
	}
	return patterns
}

// computeMomentum splits the window at its midpoint by day count and
// compares the weighted score of the halves. The first half is [start, mid),
// the second [mid, end]. A zero first half is classified without dividing:
// improving when the second half is positive, stable otherwise, with a
// reported change of 0.
func computeMomentum(tasks []*store.Task, logs []*store.HabitLog, start, end time.Time) Momentum {
	periodDays := 0
	if !end.Before(start) {
		periodDays = daysBetween(start, end)
	}
	mid := start.AddDate(0, 0, periodDays/2)

	firstHalf := weightedScore(
		countTasksCompletedIn(tasks, start, mid.AddDate(0, 0, -1)),
		sumHabitCompletionsIn(logs, start, mid.AddDate(0, 0, -1)),
	)
	secondHalf := weightedScore(
		countTasksCompletedIn(tasks, mid, end),
		sumHabitCompletionsIn(logs, mid, end),
	)

	if firstHalf == 0 {
		direction := MomentumStable
		if secondHalf > 0 {
			direction = MomentumImproving
		}
		return Momentum{
			Direction:        direction,
			PercentageChange: 0,
			FirstHalfScore:   firstHalf,
			SecondHalfScore:  secondHalf,
		}
	}

	// Classify on the raw change; rounding is presentation only.
	change := (secondHalf - firstHalf) / firstHalf * 100
	direction := MomentumStable
	switch {
	case change > 5:
		direction = MomentumImproving
	case change < -5:
		direction = MomentumDeclining
	}
	return Momentum{
		Direction:        direction,
		PercentageChange: round2(change),
		FirstHalfScore:   firstHalf,
		SecondHalfScore:  secondHalf,
	}
}

func countTasksCompletedIn(tasks []*store.Task, start, end time.Time) int {
	count := 0
	for _, t := range tasks {
		if t.Status == store.TaskStatusCompleted && t.CompletedAt != nil && dateInRange(*t.CompletedAt, start, end) {
			count++
		}
	}
	return count
}

func sumHabitCompletionsIn(logs []*store.HabitLog, start, end time.Time) int {
	sum := 0
	for _, l := range logs {
		if dateInRange(l.CompletedDate, start, end) {
			sum += l.Count
		}
	}
	return sum
}

// weightedScore is the trend comparison metric: completed tasks count full,
// habit completions half.
func weightedScore(tasksCompleted, habitCompletions int) float64 {
	return float64(tasksCompleted) + 0.5*float64(habitCompletions)
}

// MondayOf returns the Monday of the week containing the given date.
func MondayOf(t time.Time) time.Time {
	d := dateOf(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
