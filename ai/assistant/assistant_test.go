package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testContext() *userContext {
	return &userContext{
		CurrentDate: "2026-03-15",
		CurrentTime: "09:30",
		Tasks:       taskContext{Total: 4, Completed: 2, Pending: 1, Overdue: 1},
		Habits:      habitContext{Total: 2, Active: 1, BestStreak: 5},
		Insights:    insights{HasOverdueTasks: true, OverdueCount: 1, CompletionRate: 50},
		RecentTasks: []recentTask{{Title: "Write report", Status: "in_progress", Priority: "high"}},
		HabitList:   []habitInList{{Name: "Morning run", Frequency: "daily", CurrentStreak: 5, LongestStreak: 9}},
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := buildSystemPrompt(testContext())

	assert.Contains(t, prompt, "You are ECHO")
	assert.Contains(t, prompt, "Date: 2026-03-15")
	assert.Contains(t, prompt, "Total tasks: 4")
	assert.Contains(t, prompt, "Write report (in_progress, high priority)")
	assert.Contains(t, prompt, "Morning run (daily) - 5 day streak")
	assert.Contains(t, prompt, "User has 1 overdue tasks")
}

func TestBuildSystemPrompt_EmptyState(t *testing.T) {
	prompt := buildSystemPrompt(&userContext{CurrentDate: "2026-03-15", CurrentTime: "09:30"})

	assert.Contains(t, prompt, "No recent tasks")
	assert.Contains(t, prompt, "No habits tracked yet")
	assert.NotContains(t, prompt, "ATTENTION")
}

func TestContextualFallback(t *testing.T) {
	a := &Assistant{}
	uc := testContext()

	t.Run("task query reports counts", func(t *testing.T) {
		got := a.contextualFallback("what tasks do I have?", uc)
		assert.Contains(t, got, "4 tasks")
		assert.Contains(t, got, "2 completed, 1 pending")
		assert.Contains(t, got, "overdue tasks first")
	})

	t.Run("habit query reports streak", func(t *testing.T) {
		got := a.contextualFallback("show my habit streaks", uc)
		assert.Contains(t, got, "tracking 2 habits")
		assert.Contains(t, got, "5 days")
	})

	t.Run("status query builds overview", func(t *testing.T) {
		got := a.contextualFallback("how am I doing?", uc)
		assert.Contains(t, got, "Tasks: 2/4 completed")
		assert.Contains(t, got, "Habits: 1/2 active")
	})

	t.Run("empty state nudges creation", func(t *testing.T) {
		empty := &userContext{}
		got := a.contextualFallback("any tasks?", empty)
		assert.Contains(t, got, "don't have any tasks yet")

		got = a.contextualFallback("my habits", empty)
		assert.Contains(t, got, "haven't created any habits yet")
	})

	t.Run("greeting and unknown input", func(t *testing.T) {
		got := a.contextualFallback("hello there", uc)
		assert.Contains(t, got, "Hello!")

		got = a.contextualFallback("tell me a joke", uc)
		assert.Contains(t, got, "productivity assistant")
	})
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 50.0, percent(2, 4))
	assert.Equal(t, 0.0, percent(0, 0))
	assert.Equal(t, 33.3, percent(1, 3))
}
