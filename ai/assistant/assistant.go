// Package assistant implements the productivity chat assistant. It grounds
// every reply in the user's live task and habit state and degrades to
// data-driven canned responses when no LLM is configured or reachable.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/echoapp/echo/ai/llm"
	"github.com/echoapp/echo/store"
)

// historyTurns is how many past exchanges are replayed into the prompt.
const historyTurns = 3

// Assistant answers chat messages with productivity context.
type Assistant struct {
	store *store.Store
	llm   llm.Service // nil when AI is disabled
}

// New creates an assistant. llmService may be nil; the assistant then always
// answers from the contextual fallback.
func New(st *store.Store, llmService llm.Service) *Assistant {
	return &Assistant{store: st, llm: llmService}
}

// userContext is the snapshot of productivity state a reply is grounded on.
// It is persisted as JSON alongside the chat message.
type userContext struct {
	CurrentDate string        `json:"current_date"`
	CurrentTime string        `json:"current_time"`
	Tasks       taskContext   `json:"tasks"`
	Habits      habitContext  `json:"habits"`
	Insights    insights      `json:"insights"`
	RecentTasks []recentTask  `json:"recent_tasks"`
	HabitList   []habitInList `json:"habit_list"`
}

type taskContext struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
}

type habitContext struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	BestStreak int `json:"best_streak"`
}

type insights struct {
	HasOverdueTasks   bool    `json:"has_overdue_tasks"`
	OverdueCount      int     `json:"overdue_count"`
	CompletionRate    float64 `json:"completion_rate"`
	ActiveHabitsRatio float64 `json:"active_habits_ratio"`
}

type recentTask struct {
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

type habitInList struct {
	Name          string `json:"name"`
	Frequency     string `json:"frequency"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

// Chat answers one user message and persists the exchange. The returned
// message carries the generated response and its latency.
func (a *Assistant) Chat(ctx context.Context, message string) (*store.ChatMessage, error) {
	start := time.Now()

	uc, err := a.buildContext(ctx, start)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build chat context")
	}

	response := a.respond(ctx, message, uc)

	contextJSON, err := json.Marshal(uc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode chat context")
	}
	contextData := string(contextJSON)
	responseTimeMs := int(time.Since(start).Milliseconds())

	saved, err := a.store.CreateChatMessage(ctx, &store.ChatMessage{
		ID:             shortuuid.New(),
		Message:        message,
		Response:       response,
		ContextData:    &contextData,
		ResponseTimeMs: &responseTimeMs,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to save chat message")
	}
	return saved, nil
}

// History returns the most recent exchanges in chronological order.
func (a *Assistant) History(ctx context.Context, limit int) ([]*store.ChatMessage, error) {
	messages, err := a.store.ListChatMessages(ctx, &store.FindChatMessage{Limit: &limit})
	if err != nil {
		return nil, err
	}
	// The store lists newest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (a *Assistant) respond(ctx context.Context, message string, uc *userContext) string {
	if a.llm == nil {
		return a.contextualFallback(message, uc)
	}

	messages := []llm.Message{{Role: "system", Content: buildSystemPrompt(uc)}}
	history, err := a.History(ctx, historyTurns)
	if err != nil {
		slog.Warn("assistant: failed to load chat history", "error", err)
	}
	for _, m := range history {
		messages = append(messages,
			llm.Message{Role: "user", Content: m.Message},
			llm.Message{Role: "assistant", Content: m.Response},
		)
	}
	messages = append(messages, llm.Message{Role: "user", Content: message})

	content, stats, err := a.llm.Chat(ctx, messages)
	if err != nil {
		slog.Warn("assistant: llm unavailable, using contextual fallback", "error", err)
		return a.contextualFallback(message, uc)
	}
	slog.Debug("assistant: llm reply", "total_tokens", stats.TotalTokens, "duration_ms", stats.TotalDurationMs)
	return content
}

func (a *Assistant) buildContext(ctx context.Context, now time.Time) (*userContext, error) {
	taskStats, err := a.store.GetTaskStatistics(ctx, now)
	if err != nil {
		return nil, err
	}
	habitStats, err := a.store.GetHabitStatistics(ctx)
	if err != nil {
		return nil, err
	}

	recentLimit := 5
	tasks, err := a.store.ListTasks(ctx, &store.FindTask{Limit: &recentLimit})
	if err != nil {
		return nil, err
	}
	habitLimit := 10
	habits, err := a.store.ListHabits(ctx, &store.FindHabit{Limit: &habitLimit})
	if err != nil {
		return nil, err
	}

	uc := &userContext{
		CurrentDate: now.Format(time.DateOnly),
		CurrentTime: now.Format("15:04"),
		Tasks: taskContext{
			Total:     taskStats.Total,
			Completed: taskStats.Completed,
			Pending:   taskStats.Pending,
			Overdue:   taskStats.Overdue,
		},
		Habits: habitContext{
			Total:      habitStats.TotalHabits,
			Active:     habitStats.ActiveHabits,
			BestStreak: habitStats.BestCurrentStreak,
		},
		Insights: insights{
			HasOverdueTasks:   taskStats.Overdue > 0,
			OverdueCount:      taskStats.Overdue,
			CompletionRate:    percent(taskStats.Completed, taskStats.Total),
			ActiveHabitsRatio: percent(habitStats.ActiveHabits, habitStats.TotalHabits),
		},
	}
	for i, t := range tasks {
		if i == 3 {
			break
		}
		uc.RecentTasks = append(uc.RecentTasks, recentTask{
			Title:    t.Title,
			Status:   string(t.Status),
			Priority: string(t.Priority),
		})
	}
	for i, h := range habits {
		if i == 5 {
			break
		}
		uc.HabitList = append(uc.HabitList, habitInList{
			Name:          h.Name,
			Frequency:     string(h.Frequency),
			CurrentStreak: h.CurrentStreak,
			LongestStreak: h.LongestStreak,
		})
	}
	return uc, nil
}

func buildSystemPrompt(uc *userContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are ECHO, an AI productivity assistant. You are helpful, encouraging, and focused on helping users achieve their goals.

CURRENT USER CONTEXT:
- Date: %s
- Time: %s

TASKS STATUS:
- Total tasks: %d
- Completed: %d
- Pending: %d
- Overdue: %d

HABITS STATUS:
- Total habits: %d
- Active habits (with streaks): %d
- Best current streak: %d days

RECENT TASKS:`,
		uc.CurrentDate, uc.CurrentTime,
		uc.Tasks.Total, uc.Tasks.Completed, uc.Tasks.Pending, uc.Tasks.Overdue,
		uc.Habits.Total, uc.Habits.Active, uc.Habits.BestStreak,
	)

	if len(uc.RecentTasks) == 0 {
		b.WriteString("\n- No recent tasks")
	}
	for _, t := range uc.RecentTasks {
		fmt.Fprintf(&b, "\n- %s (%s, %s priority)", t.Title, t.Status, t.Priority)
	}

	b.WriteString("\n\nHABITS:")
	if len(uc.HabitList) == 0 {
		b.WriteString("\n- No habits tracked yet")
	}
	for _, h := range uc.HabitList {
		fmt.Fprintf(&b, "\n- %s (%s) - %d day streak", h.Name, h.Frequency, h.CurrentStreak)
	}

	if uc.Insights.HasOverdueTasks {
		fmt.Fprintf(&b, "\n\nATTENTION: User has %d overdue tasks that need attention.", uc.Insights.OverdueCount)
	}

	b.WriteString(`

PERSONALITY GUIDELINES:
- Be encouraging and positive
- Provide actionable advice
- Reference specific tasks and habits when relevant
- Keep responses concise but helpful
- If asked about tasks or habits, refer to the specific data above
- Help with productivity strategies, time management, and motivation
- If the user seems overwhelmed, suggest breaking things down into smaller steps

CAPABILITIES:
- You can discuss the user's current tasks and habits
- You can provide productivity advice and motivation
- You can suggest strategies for building habits and completing tasks
- You cannot directly modify tasks or habits (user must use the app interface)
- You cannot access external information beyond what's provided in this context

Remember: You are ECHO, the user's personal productivity companion. Be helpful, encouraging, and focus on their success!`)

	return b.String()
}

// contextualFallback answers from the live data when no LLM reply is
// available. Keyword buckets are checked in order; the first match wins.
func (a *Assistant) contextualFallback(message string, uc *userContext) string {
	lower := strings.ToLower(message)

	switch {
	case containsAny(lower, "task", "todo", "work", "complete"):
		if uc.Tasks.Total == 0 {
			return "You don't have any tasks yet! Creating tasks is a great way to stay organized and productive. Try adding some tasks to get started."
		}
		response := fmt.Sprintf("You currently have %d tasks: %d completed, %d pending", uc.Tasks.Total, uc.Tasks.Completed, uc.Tasks.Pending)
		if uc.Tasks.Overdue > 0 {
			response += fmt.Sprintf(", and %d overdue", uc.Tasks.Overdue)
		}
		response += ". "
		switch {
		case uc.Tasks.Overdue > 0:
			response += "I'd recommend focusing on those overdue tasks first!"
		case uc.Tasks.Pending > 0:
			response += "Keep up the great work on your remaining tasks!"
		default:
			response += "Excellent! All your tasks are complete!"
		}
		return response

	case containsAny(lower, "habit", "streak", "daily", "routine"):
		if uc.Habits.Total == 0 {
			return "You haven't created any habits yet! Building good habits is key to long-term success. Try creating a habit to track something you want to do regularly."
		}
		response := fmt.Sprintf("You're tracking %d habits, with %d currently active", uc.Habits.Total, uc.Habits.Active)
		if uc.Habits.BestStreak > 0 {
			response += fmt.Sprintf(". Your best current streak is %d days!", uc.Habits.BestStreak)
		} else {
			response += ". Try logging some completions to build your streaks!"
		}
		return response

	case containsAny(lower, "how", "progress", "doing", "status"):
		response := "Here's your productivity overview:\n\n"
		response += fmt.Sprintf("Tasks: %d/%d completed", uc.Tasks.Completed, uc.Tasks.Total)
		if uc.Insights.HasOverdueTasks {
			response += fmt.Sprintf(" (%d overdue)", uc.Insights.OverdueCount)
		}
		response += fmt.Sprintf("\nHabits: %d/%d active", uc.Habits.Active, uc.Habits.Total)
		if uc.Habits.BestStreak > 0 {
			response += fmt.Sprintf(" (best streak: %d days)", uc.Habits.BestStreak)
		}
		switch {
		case uc.Insights.CompletionRate > 80:
			response += "\n\nYou're doing great! Keep up the excellent work!"
		case uc.Insights.HasOverdueTasks:
			response += "\n\nFocus on those overdue tasks to get back on track!"
		default:
			response += "\n\nYou're making good progress! Keep it up!"
		}
		return response

	case containsAny(lower, "hello", "hi", "hey"):
		return "Hello! I'm ECHO, your productivity assistant. I can help you manage tasks, build habits, and stay on top of your goals."

	default:
		return "I'm ECHO, your productivity assistant! Ask me about your tasks, habits, or progress, or use the app to manage them directly."
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func percent(part, total int) float64 {
	if total < 1 {
		total = 1
	}
	return float64(int(float64(part)/float64(total)*1000+0.5)) / 10
}
