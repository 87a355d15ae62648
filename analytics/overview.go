package analytics

import (
	"time"

	"github.com/echoapp/echo/store"
)

// ComputeOverview turns the raw rows of an analysis window into the full
// productivity report. The window is the inclusive date range [start, end];
// now is the evaluation instant for overdue checks. The computation is pure:
// callers supply every task whose created_at or completed_at falls in the
// window, every habit, and every log with completed_date in the window.
//
// Degenerate input (no tasks, no habits, inverted window) yields a well
// formed zeroed report, never an error.
func ComputeOverview(tasks []*store.Task, habits []*store.Habit, logs []*store.HabitLog, start, end, now time.Time) *Overview {
	start, end = dateOf(start), dateOf(end)

	taskMetrics := computeTaskMetrics(tasks, start, end, now)
	habitMetrics := computeHabitMetrics(habits, logs, start, end)
	trends := computeTrends(tasks, logs, start, end)
	score := computeScore(taskMetrics, habitMetrics)

	days := 0
	if !end.Before(start) {
		days = daysBetween(start, end)
	}

	return &Overview{
		Period: Period{
			StartDate: start.Format(time.DateOnly),
			EndDate:   end.Format(time.DateOnly),
			Days:      days,
		},
		Tasks:           taskMetrics,
		Habits:          habitMetrics,
		Trends:          trends,
		Recommendations: buildRecommendations(taskMetrics, habitMetrics),
		OverallScore:    score,
	}
}

func computeTaskMetrics(tasks []*store.Task, start, end, now time.Time) TaskMetrics {
	// Headline metrics cover tasks created inside the window; the input may
	// carry extra tasks that only completed inside it (needed for the daily
	// series and trends).
	var inWindow []*store.Task
	for _, t := range tasks {
		if dateInRange(t.CreatedAt, start, end) {
			inWindow = append(inWindow, t)
		}
	}

	if len(inWindow) == 0 {
		return TaskMetrics{
			ByPriority:        map[store.TaskPriority]PriorityBreakdown{},
			ByStatus:          map[store.TaskStatus]int{},
			ProductivityByDay: []DailyTaskActivity{},
		}
	}

	total := len(inWindow)
	completed, overdue := 0, 0
	for _, t := range inWindow {
		if t.Status == store.TaskStatusCompleted {
			completed++
		}
		if t.DueDate != nil && t.DueDate.Before(now) && t.Status != store.TaskStatusCompleted {
			overdue++
		}
	}

	byPriority := make(map[store.TaskPriority]PriorityBreakdown, len(store.TaskPriorities))
	for _, priority := range store.TaskPriorities {
		pTotal, pCompleted := 0, 0
		for _, t := range inWindow {
			if t.Priority != priority {
				continue
			}
			pTotal++
			if t.Status == store.TaskStatusCompleted {
				pCompleted++
			}
		}
		byPriority[priority] = PriorityBreakdown{
			Total:          pTotal,
			Completed:      pCompleted,
			CompletionRate: ratio(pCompleted, pTotal),
		}
	}

	byStatus := make(map[store.TaskStatus]int, len(store.TaskStatuses))
	for _, status := range store.TaskStatuses {
		count := 0
		for _, t := range inWindow {
			if t.Status == status {
				count++
			}
		}
		byStatus[status] = count
	}

	// The denominator counts only completed tasks carrying both timestamps.
	var avgCompletionHours *float64
	var hours []float64
	for _, t := range inWindow {
		if t.Status == store.TaskStatusCompleted && t.CompletedAt != nil && !t.CreatedAt.IsZero() {
			hours = append(hours, t.CompletedAt.Sub(t.CreatedAt).Hours())
		}
	}
	if len(hours) > 0 {
		avg := round2(mean(hours))
		avgCompletionHours = &avg
	}

	return TaskMetrics{
		TotalTasks:                 total,
		CompletedTasks:             completed,
		CompletionRate:             ratio(completed, total),
		OverdueTasks:               overdue,
		ByPriority:                 byPriority,
		ByStatus:                   byStatus,
		AverageCompletionTimeHours: avgCompletionHours,
		ProductivityByDay:          dailyTaskSeries(tasks, start, end),
	}
}

// dailyTaskSeries builds a dense per-day series, one row per calendar day in
// the window including days with zero activity. Completion counts use the
// completed_at date regardless of when the task was created.
func dailyTaskSeries(tasks []*store.Task, start, end time.Time) []DailyTaskActivity {
	series := []DailyTaskActivity{}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		completedCount, createdCount := 0, 0
		for _, t := range tasks {
			if t.Status == store.TaskStatusCompleted && t.CompletedAt != nil && dateOf(*t.CompletedAt).Equal(day) {
				completedCount++
			}
			if dateOf(t.CreatedAt).Equal(day) {
				createdCount++
			}
		}
		series = append(series, DailyTaskActivity{
			Date:           day.Format(time.DateOnly),
			TasksCompleted: completedCount,
			TasksCreated:   createdCount,
			DayOfWeek:      day.Weekday().String(),
		})
	}
	return series
}

func computeHabitMetrics(habits []*store.Habit, logs []*store.HabitLog, start, end time.Time) HabitMetrics {
	if len(habits) == 0 {
		return HabitMetrics{
			ByFrequency:     map[store.HabitFrequency]FrequencyBreakdown{},
			HabitDetails:    []HabitDetail{},
			CompletionByDay: []DailyHabitActivity{},
		}
	}

	inWindow := make([]*store.HabitLog, 0, len(logs))
	for _, l := range logs {
		if dateInRange(l.CompletedDate, start, end) {
			inWindow = append(inWindow, l)
		}
	}

	active, totalCompletions, bestStreak := 0, 0, 0
	streaks := make([]float64, 0, len(habits))
	for _, h := range habits {
		if h.CurrentStreak > 0 {
			active++
		}
		if h.LongestStreak > bestStreak {
			bestStreak = h.LongestStreak
		}
		streaks = append(streaks, float64(h.CurrentStreak))
	}
	for _, l := range inWindow {
		totalCompletions += l.Count
	}

	// Consistency: share of window days with at least one completion.
	daysWithCompletions := map[time.Time]struct{}{}
	for _, l := range inWindow {
		daysWithCompletions[dateOf(l.CompletedDate)] = struct{}{}
	}
	periodDays := daysBetween(start, end)
	consistency := 0.0
	if periodDays > 0 {
		consistency = round2(float64(len(daysWithCompletions)) / float64(periodDays) * 100)
	}

	byFrequency := make(map[store.HabitFrequency]FrequencyBreakdown, len(store.HabitFrequencies))
	for _, frequency := range store.HabitFrequencies {
		var freqStreaks []float64
		for _, h := range habits {
			if h.Frequency == frequency {
				freqStreaks = append(freqStreaks, float64(h.CurrentStreak))
			}
		}
		avg := 0.0
		if len(freqStreaks) > 0 {
			avg = round2(mean(freqStreaks))
		}
		byFrequency[frequency] = FrequencyBreakdown{
			Count:         len(freqStreaks),
			AverageStreak: avg,
		}
	}

	details := make([]HabitDetail, 0, len(habits))
	for _, h := range habits {
		completions := 0
		for _, l := range inWindow {
			if l.HabitID == h.ID {
				completions++
			}
		}
		details = append(details, HabitDetail{
			ID:                  h.ID,
			Name:                h.Name,
			Frequency:           h.Frequency,
			CurrentStreak:       h.CurrentStreak,
			LongestStreak:       h.LongestStreak,
			CompletionsInPeriod: completions,
		})
	}

	return HabitMetrics{
		TotalHabits:      len(habits),
		ActiveHabits:     active,
		TotalCompletions: totalCompletions,
		AverageStreak:    round2(mean(streaks)),
		BestStreak:       bestStreak,
		ConsistencyRate:  consistency,
		ByFrequency:      byFrequency,
		HabitDetails:     details,
		CompletionByDay:  dailyHabitSeries(inWindow, start, end),
	}
}

// dailyHabitSeries builds the dense per-day habit completion series.
func dailyHabitSeries(logs []*store.HabitLog, start, end time.Time) []DailyHabitActivity {
	series := []DailyHabitActivity{}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		completions := 0
		uniqueHabits := map[string]struct{}{}
		for _, l := range logs {
			if dateOf(l.CompletedDate).Equal(day) {
				completions += l.Count
				uniqueHabits[l.HabitID] = struct{}{}
			}
		}
		series = append(series, DailyHabitActivity{
			Date:                  day.Format(time.DateOnly),
			TotalCompletions:      completions,
			UniqueHabitsCompleted: len(uniqueHabits),
			DayOfWeek:             day.Weekday().String(),
		})
	}
	return series
}

// ratio returns completed/total as a percentage rounded to two decimals,
// 0 when total is 0.
func ratio(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(completed) / float64(total) * 100)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// dateInRange reports whether the calendar day of t falls inside the
// inclusive window [start, end].
func dateInRange(t, start, end time.Time) bool {
	d := dateOf(t)
	return !d.Before(start) && !d.After(end)
}
