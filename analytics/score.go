package analytics

// computeScore combines the task completion rate and the habit consistency
// rate into the 0-100 overall score. Each half contributes at most 50 points.
func computeScore(tasks TaskMetrics, habits HabitMetrics) ProductivityScore {
	taskScore := tasks.CompletionRate * 0.5
	if taskScore > 50 {
		taskScore = 50
	}
	habitScore := habits.ConsistencyRate * 0.5
	if habitScore > 50 {
		habitScore = 50
	}
	overall := taskScore + habitScore

	var grade string
	switch {
	case overall >= 90:
		grade = "A+"
	case overall >= 80:
		grade = "A"
	case overall >= 70:
		grade = "B"
	case overall >= 60:
		grade = "C"
	default:
		grade = "D"
	}

	return ProductivityScore{
		OverallScore: round1(overall),
		TaskScore:    round1(taskScore),
		HabitScore:   round1(habitScore),
		Grade:        grade,
		Description:  scoreDescription(overall),
	}
}

func scoreDescription(score float64) string {
	switch {
	case score >= 90:
		return "Outstanding productivity! You're crushing your goals!"
	case score >= 80:
		return "Excellent productivity! Keep up the great work!"
	case score >= 70:
		return "Good productivity! You're on the right track!"
	case score >= 60:
		return "Fair productivity. There's room for improvement!"
	default:
		return "Let's work on building better productivity habits!"
	}
}
