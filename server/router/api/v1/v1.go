// Package v1 implements the REST API surface.
package v1

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/echoapp/echo/ai/assistant"
	"github.com/echoapp/echo/ai/llm"
	"github.com/echoapp/echo/internal/profile"
	"github.com/echoapp/echo/plugin/gcal"
	"github.com/echoapp/echo/server/metrics"
	"github.com/echoapp/echo/store"
)

type APIV1Service struct {
	Profile   *profile.Profile
	Store     *store.Store
	Assistant *assistant.Assistant
	Calendar  *gcal.Service // nil when Google credentials are absent
	Metrics   *metrics.Exporter

	// overviewSemaphore bounds concurrent analytics computations; the
	// aggregation walks every task and log of the window.
	overviewSemaphore *semaphore.Weighted

	// chatLimiter throttles assistant calls, which fan out to a paid API.
	chatLimiter *rate.Limiter

	// calendarToken is the single-user Google Calendar session.
	tokenMu       sync.RWMutex
	calendarToken *oauth2.Token
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, exporter *metrics.Exporter) *APIV1Service {
	service := &APIV1Service{
		Profile:           profile,
		Store:             store,
		Metrics:           exporter,
		overviewSemaphore: semaphore.NewWeighted(4),
		chatLimiter:       rate.NewLimiter(rate.Every(2*time.Second), 5),
	}

	var llmService llm.Service
	if profile.IsAIEnabled() {
		var err error
		llmService, err = llm.NewService(&llm.Config{
			Provider: profile.AIProvider,
			Model:    profile.AIModel,
			APIKey:   profile.AIAPIKey,
			BaseURL:  profile.AIBaseURL,
			Timeout:  profile.AITimeout,
		})
		if err != nil {
			slog.Warn("failed to initialize LLM service",
				"provider", profile.AIProvider,
				"error", err,
				"note", "chat falls back to contextual responses",
			)
			llmService = nil
		} else {
			slog.Info("LLM service initialized", "provider", profile.AIProvider, "model", profile.AIModel)
			// Warm up asynchronously to cut first-request latency.
			go func() {
				warmupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				llmService.Warmup(warmupCtx)
			}()
		}
	}
	service.Assistant = assistant.New(store, llmService)

	if profile.IsGoogleCalendarEnabled() {
		service.Calendar = gcal.NewService(
			profile.GoogleClientID,
			profile.GoogleClientSecret,
			profile.InstanceURL+"/api/v1/calendar/google/callback",
		)
		slog.Info("Google Calendar integration enabled")
	}

	return service
}

// RegisterRoutes wires every v1 endpoint onto the echo server.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	tasks := api.Group("/tasks")
	tasks.POST("", s.CreateTask)
	tasks.GET("", s.ListTasks)
	tasks.GET("/statistics", s.GetTaskStatistics)
	tasks.GET("/:id", s.GetTask)
	tasks.PATCH("/:id", s.UpdateTask)
	tasks.DELETE("/:id", s.DeleteTask)

	habits := api.Group("/habits")
	habits.POST("", s.CreateHabit)
	habits.GET("", s.ListHabits)
	habits.GET("/statistics", s.GetHabitStatistics)
	habits.GET("/:id", s.GetHabit)
	habits.GET("/:id/statistics", s.GetHabitDetailStatistics)
	habits.PATCH("/:id", s.UpdateHabit)
	habits.DELETE("/:id", s.DeleteHabit)
	habits.POST("/:id/logs", s.LogHabitCompletion)
	habits.GET("/:id/logs", s.ListHabitLogs)
	habits.DELETE("/:id/logs/:logID", s.DeleteHabitLog)

	events := api.Group("/events")
	events.POST("", s.CreateEvent)
	events.POST("/bulk", s.BulkCreateEvents)
	events.GET("", s.ListEvents)
	events.GET("/upcoming", s.ListUpcomingEvents)
	events.GET("/conflicts", s.CheckEventConflicts)
	events.GET("/stats/by-type", s.GetEventTypeStatistics)
	events.GET("/month/:year/:month", s.ListMonthEvents)
	events.GET("/day/:date", s.ListDayEvents)
	events.GET("/:id", s.GetEvent)
	events.PATCH("/:id", s.UpdateEvent)
	events.DELETE("/:id", s.DeleteEvent)
	events.POST("/:id/reminders", s.CreateEventReminder)
	events.GET("/:id/reminders", s.ListEventReminders)

	api.GET("/analytics/overview", s.GetAnalyticsOverview)

	chat := api.Group("/chat")
	chat.POST("", s.Chat)
	chat.GET("/history", s.GetChatHistory)

	calendar := api.Group("/calendar/google")
	calendar.GET("/auth-url", s.GetGoogleAuthURL)
	calendar.GET("/callback", s.HandleGoogleCallback)
	calendar.GET("/status", s.GetGoogleCalendarStatus)
	calendar.POST("/sync/tasks/:id", s.SyncTaskToCalendar)
	calendar.POST("/sync/habits/:id", s.SyncHabitToCalendar)
}

func (s *APIV1Service) setCalendarToken(token *oauth2.Token) {
	s.tokenMu.Lock()
	s.calendarToken = token
	s.tokenMu.Unlock()
}

func (s *APIV1Service) getCalendarToken() *oauth2.Token {
	s.tokenMu.RLock()
	defer s.tokenMu.RUnlock()
	return s.calendarToken
}
