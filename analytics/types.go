package analytics

import (
	"github.com/echoapp/echo/store"
)

// Overview is the full productivity report for one analysis window.
type Overview struct {
	Period          Period            `json:"period"`
	Tasks           TaskMetrics       `json:"tasks"`
	Habits          HabitMetrics      `json:"habits"`
	Trends          TrendAnalysis     `json:"trends"`
	Recommendations []string          `json:"recommendations"`
	OverallScore    ProductivityScore `json:"overall_score"`
}

// Period describes the inclusive analysis window.
type Period struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      int    `json:"days"`
}

// TaskMetrics aggregates tasks created inside the window.
type TaskMetrics struct {
	TotalTasks     int                                      `json:"total_tasks"`
	CompletedTasks int                                      `json:"completed_tasks"`
	CompletionRate float64                                  `json:"completion_rate"`
	OverdueTasks   int                                      `json:"overdue_tasks"`
	ByPriority     map[store.TaskPriority]PriorityBreakdown `json:"by_priority"`
	ByStatus       map[store.TaskStatus]int                 `json:"by_status"`
	// AverageCompletionTimeHours is the mean of completed_at-created_at over
	// completed tasks that carry both timestamps; nil when none qualify.
	AverageCompletionTimeHours *float64            `json:"average_completion_time_hours"`
	ProductivityByDay          []DailyTaskActivity `json:"productivity_by_day"`
}

// PriorityBreakdown is the per-priority slice of the task metrics.
type PriorityBreakdown struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	CompletionRate float64 `json:"completion_rate"`
}

// DailyTaskActivity is one row of the dense per-day task series.
type DailyTaskActivity struct {
	Date           string `json:"date"`
	TasksCompleted int    `json:"tasks_completed"`
	TasksCreated   int    `json:"tasks_created"`
	DayOfWeek      string `json:"day_of_week"`
}

// HabitMetrics aggregates all habits plus the window's completion logs.
// Habits are not window-filtered: a habit does not expire.
type HabitMetrics struct {
	TotalHabits      int                                        `json:"total_habits"`
	ActiveHabits     int                                        `json:"active_habits"`
	TotalCompletions int                                        `json:"total_completions"`
	AverageStreak    float64                                    `json:"average_streak"`
	BestStreak       int                                        `json:"best_streak"`
	ConsistencyRate  float64                                    `json:"consistency_rate"`
	ByFrequency      map[store.HabitFrequency]FrequencyBreakdown `json:"by_frequency"`
	HabitDetails     []HabitDetail                              `json:"habit_details"`
	CompletionByDay  []DailyHabitActivity                       `json:"completion_by_day"`
}

// FrequencyBreakdown is the per-frequency slice of the habit metrics.
type FrequencyBreakdown struct {
	Count         int     `json:"count"`
	AverageStreak float64 `json:"average_streak"`
}

// HabitDetail is the per-habit row of the habit metrics.
type HabitDetail struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name"`
	Frequency           store.HabitFrequency `json:"frequency"`
	CurrentStreak       int                  `json:"current_streak"`
	LongestStreak       int                  `json:"longest_streak"`
	CompletionsInPeriod int                  `json:"completions_in_period"`
}

// DailyHabitActivity is one row of the dense per-day habit series.
type DailyHabitActivity struct {
	Date                  string `json:"date"`
	TotalCompletions      int    `json:"total_completions"`
	UniqueHabitsCompleted int    `json:"unique_habits_completed"`
	DayOfWeek             string `json:"day_of_week"`
}

// TrendAnalysis groups the derived trend views.
type TrendAnalysis struct {
	WeeklyTrends      []WeeklyTrend         `json:"weekly_trends"`
	DayOfWeekPatterns map[string]DayPattern `json:"day_of_week_patterns"`
	Momentum          Momentum              `json:"momentum"`
}

// WeeklyTrend is one Monday-aligned week bucket.
type WeeklyTrend struct {
	WeekStart         string  `json:"week_start"`
	WeekEnd           string  `json:"week_end"`
	TasksCompleted    int     `json:"tasks_completed"`
	HabitCompletions  int     `json:"habit_completions"`
	ProductivityScore float64 `json:"productivity_score"`
}

// DayPattern aggregates activity across all occurrences of one weekday.
type DayPattern struct {
	TasksCompleted    int     `json:"tasks_completed"`
	HabitCompletions  int     `json:"habit_completions"`
	ProductivityScore float64 `json:"productivity_score"`
}

// Momentum compares the weighted score of the window's two halves.
type Momentum struct {
	Direction        string  `json:"direction"` // improving, declining, stable
	PercentageChange float64 `json:"percentage_change"`
	FirstHalfScore   float64 `json:"first_half_score"`
	SecondHalfScore  float64 `json:"second_half_score"`
}

// ProductivityScore is the 0-100 weighted overall score with letter grade.
type ProductivityScore struct {
	OverallScore float64 `json:"overall_score"`
	TaskScore    float64 `json:"task_score"`
	HabitScore   float64 `json:"habit_score"`
	Grade        string  `json:"grade"`
	Description  string  `json:"description"`
}
