package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/echoapp/echo/plugin/gcal"
)

type authURLResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

type calendarStatusResponse struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

type syncResponse struct {
	EventID  string `json:"event_id"`
	HTMLLink string `json:"html_link,omitempty"`
	Summary  string `json:"summary"`
}

// GetGoogleAuthURL returns the consent page URL to start the OAuth flow.
func (s *APIV1Service) GetGoogleAuthURL(c echo.Context) error {
	if s.Calendar == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "Google Calendar integration is not configured")
	}
	state := shortuuid.New()
	return c.JSON(http.StatusOK, &authURLResponse{
		AuthURL: s.Calendar.AuthURL(state),
		State:   state,
	})
}

// HandleGoogleCallback exchanges the OAuth code and stores the session token.
func (s *APIV1Service) HandleGoogleCallback(c echo.Context) error {
	if s.Calendar == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "Google Calendar integration is not configured")
	}
	code := c.QueryParam("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing authorization code")
	}

	token, err := s.Calendar.Exchange(c.Request().Context(), code)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "failed to exchange authorization code").SetInternal(err)
	}
	s.setCalendarToken(token)
	return c.JSON(http.StatusOK, &calendarStatusResponse{Enabled: true, Connected: true})
}

func (s *APIV1Service) GetGoogleCalendarStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, &calendarStatusResponse{
		Enabled:   s.Calendar != nil,
		Connected: s.getCalendarToken() != nil,
	})
}

// SyncTaskToCalendar creates a Google Calendar event for the task.
func (s *APIV1Service) SyncTaskToCalendar(c echo.Context) error {
	client, httpErr := s.calendarClient(c)
	if httpErr != nil {
		return httpErr
	}

	task, err := s.Store.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get task").SetInternal(err)
	}
	if task == nil {
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	}

	created, err := client.CreateEvent(c.Request().Context(), "primary", gcal.EventFromTask(task, time.Now().UTC()))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "failed to create calendar event").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, &syncResponse{
		EventID:  created.ID,
		HTMLLink: created.HTMLLink,
		Summary:  created.Summary,
	})
}

// SyncHabitToCalendar creates a Google Calendar event for the habit.
func (s *APIV1Service) SyncHabitToCalendar(c echo.Context) error {
	client, httpErr := s.calendarClient(c)
	if httpErr != nil {
		return httpErr
	}

	habit, err := s.Store.GetHabit(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get habit").SetInternal(err)
	}
	if habit == nil {
		return echo.NewHTTPError(http.StatusNotFound, "habit not found")
	}

	created, err := client.CreateEvent(c.Request().Context(), "primary", gcal.EventFromHabit(habit, time.Now().UTC()))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "failed to create calendar event").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, &syncResponse{
		EventID:  created.ID,
		HTMLLink: created.HTMLLink,
		Summary:  created.Summary,
	})
}

func (s *APIV1Service) calendarClient(c echo.Context) (*gcal.Client, *echo.HTTPError) {
	if s.Calendar == nil {
		return nil, echo.NewHTTPError(http.StatusNotImplemented, "Google Calendar integration is not configured")
	}
	token := s.getCalendarToken()
	if token == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Google Calendar is not connected")
	}
	return s.Calendar.Client(c.Request().Context(), token), nil
}
