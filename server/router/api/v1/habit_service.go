package v1

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/echoapp/echo/store"
)

type createHabitRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Frequency   *string `json:"frequency"`
	TargetCount *int    `json:"target_count"`
}

type updateHabitRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Frequency   *string `json:"frequency"`
	TargetCount *int    `json:"target_count"`
}

type logCompletionRequest struct {
	CompletedDate *string `json:"completed_date"` // YYYY-MM-DD, defaults to today
	Count         *int    `json:"count"`
	Notes         *string `json:"notes"`
}

type habitResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	Frequency     string    `json:"frequency"`
	TargetCount   int       `json:"target_count"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type habitLogResponse struct {
	ID            string    `json:"id"`
	HabitID       string    `json:"habit_id"`
	CompletedDate string    `json:"completed_date"`
	Count         int       `json:"count"`
	Notes         *string   `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
}

func convertHabit(habit *store.Habit) *habitResponse {
	return &habitResponse{
		ID:            habit.ID,
		Name:          habit.Name,
		Description:   habit.Description,
		Frequency:     string(habit.Frequency),
		TargetCount:   habit.TargetCount,
		CurrentStreak: habit.CurrentStreak,
		LongestStreak: habit.LongestStreak,
		CreatedAt:     habit.CreatedAt,
		UpdatedAt:     habit.UpdatedAt,
	}
}

func convertHabitLog(log *store.HabitLog) *habitLogResponse {
	return &habitLogResponse{
		ID:            log.ID,
		HabitID:       log.HabitID,
		CompletedDate: log.CompletedDate.Format(time.DateOnly),
		Count:         log.Count,
		Notes:         log.Notes,
		CreatedAt:     log.CreatedAt,
	}
}

func (s *APIV1Service) CreateHabit(c echo.Context) error {
	request := &createHabitRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if err := validateTitle(request.Name); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "name cannot be empty")
	}

	habit := &store.Habit{
		ID:          uuid.New().String(),
		Name:        request.Name,
		Description: request.Description,
		Frequency:   store.HabitFrequencyDaily,
		TargetCount: 1,
	}
	if request.Frequency != nil {
		frequency := store.HabitFrequency(*request.Frequency)
		if !frequency.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid frequency")
		}
		habit.Frequency = frequency
	}
	if request.TargetCount != nil {
		if *request.TargetCount < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "target_count must be positive")
		}
		habit.TargetCount = *request.TargetCount
	}

	created, err := s.Store.CreateHabit(c.Request().Context(), habit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create habit").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, convertHabit(created))
}

func (s *APIV1Service) ListHabits(c echo.Context) error {
	find := &store.FindHabit{}
	if frequency := c.QueryParam("frequency"); frequency != "" {
		typed := store.HabitFrequency(frequency)
		if !typed.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid frequency")
		}
		find.Frequency = &typed
	}
	limit, offset, err := parsePagination(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	find.Limit, find.Offset = limit, offset

	habits, err := s.Store.ListHabits(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list habits").SetInternal(err)
	}

	response := make([]*habitResponse, 0, len(habits))
	for _, habit := range habits {
		response = append(response, convertHabit(habit))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) GetHabit(c echo.Context) error {
	habit, err := s.Store.GetHabit(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get habit").SetInternal(err)
	}
	if habit == nil {
		return echo.NewHTTPError(http.StatusNotFound, "habit not found")
	}
	return c.JSON(http.StatusOK, convertHabit(habit))
}

func (s *APIV1Service) UpdateHabit(c echo.Context) error {
	request := &updateHabitRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	update := &store.UpdateHabit{
		ID:          c.Param("id"),
		Name:        request.Name,
		Description: request.Description,
	}
	if request.Name != nil {
		if err := validateTitle(*request.Name); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "name cannot be empty")
		}
	}
	if request.Frequency != nil {
		frequency := store.HabitFrequency(*request.Frequency)
		if !frequency.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid frequency")
		}
		update.Frequency = &frequency
	}
	if request.TargetCount != nil {
		if *request.TargetCount < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "target_count must be positive")
		}
		update.TargetCount = request.TargetCount
	}

	habit, err := s.Store.UpdateHabit(c.Request().Context(), update)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "habit not found").SetInternal(err)
	}
	return c.JSON(http.StatusOK, convertHabit(habit))
}

func (s *APIV1Service) DeleteHabit(c echo.Context) error {
	if err := s.Store.DeleteHabit(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "habit not found").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// LogHabitCompletion records a completion. The store recomputes the habit's
// streak counters from its log history in the same transaction as the log
// write.
func (s *APIV1Service) LogHabitCompletion(c echo.Context) error {
	ctx := c.Request().Context()
	habitID := c.Param("id")

	request := &logCompletionRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	completedDate := time.Now().UTC().Truncate(24 * time.Hour)
	if request.CompletedDate != nil {
		parsed, err := time.Parse(time.DateOnly, *request.CompletedDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "completed_date must be a YYYY-MM-DD date")
		}
		completedDate = parsed
	}
	count := 1
	if request.Count != nil {
		if *request.Count < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "count must be positive")
		}
		count = *request.Count
	}

	habit, err := s.Store.GetHabit(ctx, habitID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get habit").SetInternal(err)
	}
	if habit == nil {
		return echo.NewHTTPError(http.StatusNotFound, "habit not found")
	}

	log, err := s.Store.LogHabitCompletion(ctx, &store.UpsertHabitLog{
		HabitID:       habitID,
		CompletedDate: completedDate,
		Count:         count,
		Notes:         request.Notes,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to log completion").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, convertHabitLog(log))
}

func (s *APIV1Service) ListHabitLogs(c echo.Context) error {
	habitID := c.Param("id")
	find := &store.FindHabitLog{HabitID: &habitID}

	if raw := c.QueryParam("start_date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "start_date must be a YYYY-MM-DD date")
		}
		find.StartDate = &parsed
	}
	if raw := c.QueryParam("end_date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "end_date must be a YYYY-MM-DD date")
		}
		find.EndDate = &parsed
	}

	logs, err := s.Store.ListHabitLogs(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list habit logs").SetInternal(err)
	}

	response := make([]*habitLogResponse, 0, len(logs))
	for _, log := range logs {
		response = append(response, convertHabitLog(log))
	}
	return c.JSON(http.StatusOK, response)
}

// DeleteHabitLog removes a completion. The store recomputes the current
// streak from the remaining dates in the same transaction as the delete; the
// longest streak keeps its recorded value.
func (s *APIV1Service) DeleteHabitLog(c echo.Context) error {
	ctx := c.Request().Context()
	habitID, logID := c.Param("id"), c.Param("logID")

	if err := s.Store.DeleteHabitLog(ctx, habitID, logID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "habit log not found").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type habitStatisticsResponse struct {
	HabitID           string  `json:"habit_id"`
	HabitName         string  `json:"habit_name"`
	TotalCompletions  int     `json:"total_completions"`
	CompletionRate    float64 `json:"completion_rate"`
	CurrentStreak     int     `json:"current_streak"`
	LongestStreak     int     `json:"longest_streak"`
	DaysSinceCreation int     `json:"days_since_creation"`
	LastCompleted     *string `json:"last_completed"`
}

// GetHabitDetailStatistics reports per-habit insights. The completion rate is
// unique completion days over days since creation, inclusive of the creation
// day.
func (s *APIV1Service) GetHabitDetailStatistics(c echo.Context) error {
	ctx := c.Request().Context()
	habitID := c.Param("id")

	habit, err := s.Store.GetHabit(ctx, habitID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get habit").SetInternal(err)
	}
	if habit == nil {
		return echo.NewHTTPError(http.StatusNotFound, "habit not found")
	}

	logs, err := s.Store.ListHabitLogs(ctx, &store.FindHabitLog{HabitID: &habitID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list habit logs").SetInternal(err)
	}

	totalCompletions := 0
	uniqueDays := make(map[string]struct{}, len(logs))
	var lastCompleted *string
	for _, log := range logs {
		totalCompletions += log.Count
		day := log.CompletedDate.Format(time.DateOnly)
		uniqueDays[day] = struct{}{}
		if lastCompleted == nil || day > *lastCompleted {
			d := day
			lastCompleted = &d
		}
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	created := habit.CreatedAt.UTC().Truncate(24 * time.Hour)
	daysSinceCreation := int(today.Sub(created)/(24*time.Hour)) + 1

	completionRate := 0.0
	if len(logs) > 0 && daysSinceCreation > 0 {
		completionRate = round2(float64(len(uniqueDays)) / float64(daysSinceCreation) * 100)
	}

	return c.JSON(http.StatusOK, &habitStatisticsResponse{
		HabitID:           habit.ID,
		HabitName:         habit.Name,
		TotalCompletions:  totalCompletions,
		CompletionRate:    completionRate,
		CurrentStreak:     habit.CurrentStreak,
		LongestStreak:     habit.LongestStreak,
		DaysSinceCreation: daysSinceCreation,
		LastCompleted:     lastCompleted,
	})
}

func (s *APIV1Service) GetHabitStatistics(c echo.Context) error {
	stats, err := s.Store.GetHabitStatistics(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get habit statistics").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]int{
		"total_habits":        stats.TotalHabits,
		"active_habits":       stats.ActiveHabits,
		"total_completions":   stats.TotalCompletions,
		"best_current_streak": stats.BestCurrentStreak,
	})
}
