package analytics

import (
	"fmt"

	"github.com/echoapp/echo/store"
)

const maxRecommendations = 5

// buildRecommendations evaluates fixed threshold rules in priority order and
// returns at most five human-readable suggestions. When no rule fires, a
// single encouragement message is returned. The order is part of the API
// contract: clients render the list as-is.
func buildRecommendations(tasks TaskMetrics, habits HabitMetrics) []string {
	recommendations := []string{}

	if tasks.CompletionRate < 70 {
		recommendations = append(recommendations, "Focus on completing existing tasks before creating new ones")
	}
	if tasks.OverdueTasks > 0 {
		recommendations = append(recommendations, fmt.Sprintf("You have %d overdue tasks - prioritize these first", tasks.OverdueTasks))
	}
	if tasks.ByPriority[store.TaskPriorityHigh].CompletionRate < 80 {
		recommendations = append(recommendations, "Focus more on high-priority tasks for better productivity")
	}

	// The two habit rules are mutually exclusive: a user with no active
	// habits gets the starter nudge, not the consistency one.
	if habits.ActiveHabits == 0 {
		recommendations = append(recommendations, "Start building habits! Even one small daily habit can make a big difference")
	} else if habits.ConsistencyRate < 50 {
		recommendations = append(recommendations, "Try to be more consistent with your habits - small daily actions compound over time")
	}
	if habits.AverageStreak < 7 {
		recommendations = append(recommendations, "Focus on building longer habit streaks - aim for at least 7 days in a row")
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, "You're doing great! Keep maintaining your excellent productivity habits")
	}
	if len(recommendations) > maxRecommendations {
		recommendations = recommendations[:maxRecommendations]
	}
	return recommendations
}
