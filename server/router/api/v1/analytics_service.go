package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/echoapp/echo/analytics"
	"github.com/echoapp/echo/store"
)

const defaultOverviewDays = 30

// GetAnalyticsOverview computes the productivity overview for a date window.
// Results are cached per window; any task or habit write invalidates the
// cache. Concurrent computations are bounded by a semaphore since a single
// overview touches every table.
func (s *APIV1Service) GetAnalyticsOverview(c echo.Context) error {
	ctx := c.Request().Context()
	now := time.Now().UTC()

	end, err := parseDateParam(c, "end_date", now)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	start, err := parseDateParam(c, "start_date", end.AddDate(0, 0, -(defaultOverviewDays-1)))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	start = startOfDay(start)
	end = endOfDay(end)
	if end.Before(start) {
		return echo.NewHTTPError(http.StatusBadRequest, "end_date must not be before start_date")
	}

	cacheKey := fmt.Sprintf("overview:%s:%s", start.Format(time.DateOnly), end.Format(time.DateOnly))
	if cached, ok := s.Store.GetCachedOverview(cacheKey); ok {
		s.Metrics.CacheHit()
		return c.JSON(http.StatusOK, cached)
	}
	s.Metrics.CacheMiss()

	if err := s.overviewSemaphore.Acquire(ctx, 1); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "analytics temporarily unavailable").SetInternal(err)
	}
	defer s.overviewSemaphore.Release(1)

	began := time.Now()

	// Fetch from the Monday of the start week so the first weekly trend
	// bucket, which may begin before the window, has its data.
	fetchStart := analytics.MondayOf(start)
	tasks, err := s.Store.ListTasks(ctx, &store.FindTask{WindowStart: &fetchStart, WindowEnd: &end})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list tasks").SetInternal(err)
	}
	habits, err := s.Store.ListHabits(ctx, &store.FindHabit{})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list habits").SetInternal(err)
	}
	logs, err := s.Store.ListHabitLogs(ctx, &store.FindHabitLog{StartDate: &fetchStart, EndDate: &end})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list habit logs").SetInternal(err)
	}

	overview := analytics.ComputeOverview(tasks, habits, logs, start, end, now)
	s.Metrics.ObserveOverview(time.Since(began))
	s.Store.SetCachedOverview(cacheKey, overview)
	return c.JSON(http.StatusOK, overview)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
