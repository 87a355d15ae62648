package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoapp/echo/store"
)

func taskFixture(created time.Time, status store.TaskStatus, priority store.TaskPriority, mutate ...func(*store.Task)) *store.Task {
	t := &store.Task{
		ID:        "task-" + created.Format("20060102-150405"),
		Title:     "fixture",
		Status:    status,
		Priority:  priority,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, m := range mutate {
		m(t)
	}
	return t
}

func completedAt(ts time.Time) func(*store.Task) {
	return func(t *store.Task) { t.CompletedAt = &ts }
}

func dueAt(ts time.Time) func(*store.Task) {
	return func(t *store.Task) { t.DueDate = &ts }
}

func habitFixture(id string, frequency store.HabitFrequency, current, longest int) *store.Habit {
	return &store.Habit{
		ID:            id,
		Name:          id,
		Frequency:     frequency,
		TargetCount:   1,
		CurrentStreak: current,
		LongestStreak: longest,
	}
}

func logFixture(habitID string, date time.Time, count int) *store.HabitLog {
	return &store.HabitLog{
		ID:            habitID + "-" + date.Format(time.DateOnly),
		HabitID:       habitID,
		CompletedDate: date,
		Count:         count,
	}
}

func TestComputeOverview_EmptyInput(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC)

	o := ComputeOverview(nil, nil, nil, start, end, end)
	require.NotNil(t, o)

	assert.Equal(t, 30, o.Period.Days)
	assert.Equal(t, 0.0, o.Tasks.CompletionRate)
	assert.Equal(t, 0, o.Tasks.TotalTasks)
	assert.Empty(t, o.Tasks.ByPriority)
	assert.Empty(t, o.Tasks.ByStatus)
	assert.Nil(t, o.Tasks.AverageCompletionTimeHours)
	assert.Equal(t, 0.0, o.Habits.ConsistencyRate)
	assert.Equal(t, 0, o.Habits.TotalHabits)
	assert.Equal(t, 0.0, o.OverallScore.OverallScore)
	assert.Equal(t, "D", o.OverallScore.Grade)
	assert.NotEmpty(t, o.Recommendations)
}

func TestComputeOverview_SingleCompletedTask(t *testing.T) {
	start := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	done := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)

	tasks := []*store.Task{
		taskFixture(created, store.TaskStatusCompleted, store.TaskPriorityHigh, completedAt(done)),
	}

	o := ComputeOverview(tasks, nil, nil, start, end, end)

	assert.Equal(t, 1, o.Tasks.TotalTasks)
	assert.Equal(t, 1, o.Tasks.CompletedTasks)
	assert.Equal(t, 100.0, o.Tasks.CompletionRate)
	assert.Equal(t, 0, o.Tasks.OverdueTasks)
	assert.Equal(t, 0, o.Habits.TotalHabits)

	// Task half contributes its full 50 points, habit half nothing.
	assert.Equal(t, 50.0, o.OverallScore.OverallScore)
	assert.Equal(t, 50.0, o.OverallScore.TaskScore)
	assert.Equal(t, 0.0, o.OverallScore.HabitScore)
	assert.Equal(t, "D", o.OverallScore.Grade)

	require.NotNil(t, o.Tasks.AverageCompletionTimeHours)
	assert.InDelta(t, 24.0, *o.Tasks.AverageCompletionTimeHours, 0.001)

	// Dense series: one row per window day, completion on the right one.
	require.Len(t, o.Tasks.ProductivityByDay, 7)
	assert.Equal(t, "Monday", o.Tasks.ProductivityByDay[0].DayOfWeek)
	assert.Equal(t, 1, o.Tasks.ProductivityByDay[1].TasksCreated)
	assert.Equal(t, 1, o.Tasks.ProductivityByDay[2].TasksCompleted)
	assert.Equal(t, 0, o.Tasks.ProductivityByDay[6].TasksCompleted)
}

func TestComputeOverview_ScoreBounds(t *testing.T) {
	start := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	var tasks []*store.Task
	var logs []*store.HabitLog
	habit := habitFixture("h1", store.HabitFrequencyDaily, 7, 12)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		tasks = append(tasks, taskFixture(d, store.TaskStatusCompleted, store.TaskPriorityMedium, completedAt(d)))
		logs = append(logs, logFixture("h1", d, 1))
	}

	o := ComputeOverview(tasks, []*store.Habit{habit}, logs, start, end, end)

	assert.Equal(t, 50.0, o.OverallScore.TaskScore)
	assert.Equal(t, 50.0, o.OverallScore.HabitScore)
	assert.Equal(t, 100.0, o.OverallScore.OverallScore)
	assert.Equal(t, "A+", o.OverallScore.Grade)
	assert.LessOrEqual(t, o.OverallScore.TaskScore, 50.0)
	assert.LessOrEqual(t, o.OverallScore.HabitScore, 50.0)
	assert.LessOrEqual(t, o.OverallScore.OverallScore, 100.0)
}

func TestComputeOverview_OverdueAndBreakdowns(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)

	tasks := []*store.Task{
		taskFixture(start, store.TaskStatusCompleted, store.TaskPriorityHigh, completedAt(start.AddDate(0, 0, 1))),
		taskFixture(start, store.TaskStatusTodo, store.TaskPriorityHigh, dueAt(start.AddDate(0, 0, 2))),
		taskFixture(start, store.TaskStatusInProgress, store.TaskPriorityLow),
		// Completed before the due date: not overdue even though due is past.
		taskFixture(start, store.TaskStatusCompleted, store.TaskPriorityLow, dueAt(start.AddDate(0, 0, 3)), completedAt(start.AddDate(0, 0, 2))),
	}

	o := ComputeOverview(tasks, nil, nil, start, end, now)

	assert.Equal(t, 4, o.Tasks.TotalTasks)
	assert.Equal(t, 2, o.Tasks.CompletedTasks)
	assert.Equal(t, 50.0, o.Tasks.CompletionRate)
	assert.Equal(t, 1, o.Tasks.OverdueTasks)

	high := o.Tasks.ByPriority[store.TaskPriorityHigh]
	assert.Equal(t, 2, high.Total)
	assert.Equal(t, 1, high.Completed)
	assert.Equal(t, 50.0, high.CompletionRate)

	// Every status key is present, even with a zero count.
	assert.Equal(t, 1, o.Tasks.ByStatus[store.TaskStatusTodo])
	assert.Equal(t, 1, o.Tasks.ByStatus[store.TaskStatusInProgress])
	assert.Equal(t, 2, o.Tasks.ByStatus[store.TaskStatusCompleted])
	assert.Equal(t, 0, o.Tasks.ByStatus[store.TaskStatusCancelled])
}

func TestComputeOverview_AverageCompletionTimeDenominator(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)

	// A completed task without a completed_at timestamp is silently excluded
	// from the average rather than treated as an error.
	tasks := []*store.Task{
		taskFixture(start, store.TaskStatusCompleted, store.TaskPriorityMedium),
	}
	o := ComputeOverview(tasks, nil, nil, start, end, end)
	assert.Nil(t, o.Tasks.AverageCompletionTimeHours)

	tasks = append(tasks, taskFixture(start, store.TaskStatusCompleted, store.TaskPriorityMedium, completedAt(start.Add(12*time.Hour))))
	o = ComputeOverview(tasks, nil, nil, start, end, end)
	require.NotNil(t, o.Tasks.AverageCompletionTimeHours)
	assert.InDelta(t, 12.0, *o.Tasks.AverageCompletionTimeHours, 0.001)
}

func TestComputeOverview_HabitMetrics(t *testing.T) {
	start := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	habits := []*store.Habit{
		habitFixture("h1", store.HabitFrequencyDaily, 3, 10),
		habitFixture("h2", store.HabitFrequencyDaily, 0, 4),
		habitFixture("h3", store.HabitFrequencyWeekly, 1, 1),
	}
	logs := []*store.HabitLog{
		logFixture("h1", start, 1),
		logFixture("h2", start, 2),
		logFixture("h1", start.AddDate(0, 0, 3), 1),
	}

	o := ComputeOverview(nil, habits, logs, start, end, end)

	assert.Equal(t, 3, o.Habits.TotalHabits)
	assert.Equal(t, 2, o.Habits.ActiveHabits)
	assert.Equal(t, 4, o.Habits.TotalCompletions)
	assert.Equal(t, 10, o.Habits.BestStreak)
	assert.InDelta(t, 1.33, o.Habits.AverageStreak, 0.001)

	// Two distinct days with completions in a 7-day window.
	assert.InDelta(t, 28.57, o.Habits.ConsistencyRate, 0.001)

	daily := o.Habits.ByFrequency[store.HabitFrequencyDaily]
	assert.Equal(t, 2, daily.Count)
	assert.InDelta(t, 1.5, daily.AverageStreak, 0.001)
	assert.Equal(t, 0, o.Habits.ByFrequency[store.HabitFrequencyMonthly].Count)

	require.Len(t, o.Habits.HabitDetails, 3)
	assert.Equal(t, 2, o.Habits.HabitDetails[0].CompletionsInPeriod)

	require.Len(t, o.Habits.CompletionByDay, 7)
	assert.Equal(t, 3, o.Habits.CompletionByDay[0].TotalCompletions)
	assert.Equal(t, 2, o.Habits.CompletionByDay[0].UniqueHabitsCompleted)
	assert.Equal(t, 0, o.Habits.CompletionByDay[6].TotalCompletions)
}

func TestComputeOverview_WeeklyTrendsMondayAligned(t *testing.T) {
	// Window starts on a Wednesday: the first bucket is anchored on the
	// Monday before it and the last is clamped to the window end.
	start := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC) // Wednesday
	end := time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC)   // Sunday next week

	done := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	tasks := []*store.Task{
		taskFixture(start, store.TaskStatusCompleted, store.TaskPriorityMedium, completedAt(done)),
	}
	logs := []*store.HabitLog{
		logFixture("h1", time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC), 2),
	}

	o := ComputeOverview(tasks, nil, logs, start, end, end)

	require.Len(t, o.Trends.WeeklyTrends, 2)
	first, second := o.Trends.WeeklyTrends[0], o.Trends.WeeklyTrends[1]

	assert.Equal(t, "2026-03-09", first.WeekStart)
	assert.Equal(t, "2026-03-15", first.WeekEnd)
	assert.Equal(t, 1, first.TasksCompleted)
	assert.Equal(t, 1.0, first.ProductivityScore)

	assert.Equal(t, "2026-03-16", second.WeekStart)
	assert.Equal(t, "2026-03-22", second.WeekEnd)
	assert.Equal(t, 2, second.HabitCompletions)
	assert.Equal(t, 1.0, second.ProductivityScore)
}

func TestComputeOverview_DayOfWeekPatterns(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // Monday
	end := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)  // Sunday, two full weeks

	logs := []*store.HabitLog{
		logFixture("h1", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 1),
		logFixture("h1", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), 1),
	}
	done := time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC)
	tasks := []*store.Task{
		taskFixture(start, store.TaskStatusCompleted, store.TaskPriorityMedium, completedAt(done)),
	}

	o := ComputeOverview(tasks, nil, logs, start, end, end)

	require.Len(t, o.Trends.DayOfWeekPatterns, 7)
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		require.Contains(t, o.Trends.DayOfWeekPatterns, day)
	}
	monday := o.Trends.DayOfWeekPatterns["monday"]
	assert.Equal(t, 1, monday.TasksCompleted)
	assert.Equal(t, 2, monday.HabitCompletions)
	assert.Equal(t, 2.0, monday.ProductivityScore)
	assert.Equal(t, 0.0, o.Trends.DayOfWeekPatterns["sunday"].ProductivityScore)
}

func TestComputeOverview_Momentum(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("zero first half is improving without dividing", func(t *testing.T) {
		done := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
		tasks := []*store.Task{
			taskFixture(start, store.TaskStatusCompleted, store.TaskPriorityMedium, completedAt(done)),
		}

		o := ComputeOverview(tasks, nil, nil, start, end, end)
		m := o.Trends.Momentum

		assert.Equal(t, MomentumImproving, m.Direction)
		assert.Equal(t, 0.0, m.PercentageChange)
		assert.Equal(t, 0.0, m.FirstHalfScore)
		assert.Equal(t, 1.0, m.SecondHalfScore)
	})

	t.Run("both halves empty is stable", func(t *testing.T) {
		o := ComputeOverview(nil, nil, nil, start, end, end)
		assert.Equal(t, MomentumStable, o.Trends.Momentum.Direction)
		assert.Equal(t, 0.0, o.Trends.Momentum.PercentageChange)
	})

	t.Run("direction classifies on the unrounded change", func(t *testing.T) {
		// Raw change 100*1000/19990 = 5.0025..% is over the threshold even
		// though it rounds to exactly 5.0.
		logs := []*store.HabitLog{
			logFixture("h1", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 39980),
			logFixture("h1", time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), 41980),
		}

		m := computeMomentum(nil, logs, start, end)

		assert.Equal(t, MomentumImproving, m.Direction)
		assert.Equal(t, 5.0, m.PercentageChange)
		assert.Equal(t, 19990.0, m.FirstHalfScore)
		assert.Equal(t, 20990.0, m.SecondHalfScore)
	})

	t.Run("declining second half", func(t *testing.T) {
		d1 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
		d2 := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
		tasks := []*store.Task{
			taskFixture(start, store.TaskStatusCompleted, store.TaskPriorityMedium, completedAt(d1)),
			taskFixture(start, store.TaskStatusCompleted, store.TaskPriorityMedium, completedAt(d2)),
		}

		o := ComputeOverview(tasks, nil, nil, start, end, end)
		m := o.Trends.Momentum

		assert.Equal(t, MomentumDeclining, m.Direction)
		assert.Equal(t, -100.0, m.PercentageChange)
		assert.Equal(t, 2.0, m.FirstHalfScore)
		assert.Equal(t, 0.0, m.SecondHalfScore)
	})
}

func TestBuildRecommendations(t *testing.T) {
	t.Run("rules fire in fixed order", func(t *testing.T) {
		tasks := TaskMetrics{
			CompletionRate: 40,
			OverdueTasks:   3,
			ByPriority: map[store.TaskPriority]PriorityBreakdown{
				store.TaskPriorityHigh: {Total: 2, Completed: 1, CompletionRate: 50},
			},
		}
		habits := HabitMetrics{ActiveHabits: 0, AverageStreak: 2}

		recs := buildRecommendations(tasks, habits)
		require.Len(t, recs, 5)
		assert.Equal(t, "Focus on completing existing tasks before creating new ones", recs[0])
		assert.Equal(t, "You have 3 overdue tasks - prioritize these first", recs[1])
		assert.Equal(t, "Focus more on high-priority tasks for better productivity", recs[2])
		assert.Equal(t, "Start building habits! Even one small daily habit can make a big difference", recs[3])
		assert.Equal(t, "Focus on building longer habit streaks - aim for at least 7 days in a row", recs[4])
	})

	t.Run("habit rules are mutually exclusive", func(t *testing.T) {
		tasks := TaskMetrics{
			CompletionRate: 90,
			ByPriority: map[store.TaskPriority]PriorityBreakdown{
				store.TaskPriorityHigh: {CompletionRate: 100},
			},
		}
		habits := HabitMetrics{ActiveHabits: 2, ConsistencyRate: 30, AverageStreak: 10}

		recs := buildRecommendations(tasks, habits)
		require.Len(t, recs, 1)
		assert.Contains(t, recs[0], "more consistent")
	})

	t.Run("fallback encouragement when nothing fires", func(t *testing.T) {
		tasks := TaskMetrics{
			CompletionRate: 95,
			ByPriority: map[store.TaskPriority]PriorityBreakdown{
				store.TaskPriorityHigh: {CompletionRate: 100},
			},
		}
		habits := HabitMetrics{ActiveHabits: 3, ConsistencyRate: 80, AverageStreak: 12}

		recs := buildRecommendations(tasks, habits)
		require.Len(t, recs, 1)
		assert.Equal(t, "You're doing great! Keep maintaining your excellent productivity habits", recs[0])
	})
}
