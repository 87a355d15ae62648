package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/echoapp/echo/store"
)

type createEventRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	AllDay      *bool   `json:"all_day"`
	EventType   *string `json:"event_type"`
	Status      *string `json:"status"`
	TaskID      *string `json:"task_id"`
	HabitID     *string `json:"habit_id"`
}

type updateEventRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	AllDay      *bool   `json:"all_day"`
	EventType   *string `json:"event_type"`
	Status      *string `json:"status"`
}

type eventResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description"`
	Location        *string   `json:"location"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	AllDay          bool      `json:"all_day"`
	EventType       string    `json:"event_type"`
	Status          string    `json:"status"`
	TaskID          *string   `json:"task_id"`
	HabitID         *string   `json:"habit_id"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type conflictResponse struct {
	HasConflicts bool             `json:"has_conflicts"`
	Conflicts    []*eventResponse `json:"conflicts"`
}

func convertEvent(event *store.Event) *eventResponse {
	return &eventResponse{
		ID:              event.ID,
		Title:           event.Title,
		Description:     event.Description,
		Location:        event.Location,
		StartTime:       event.StartTime,
		EndTime:         event.EndTime,
		AllDay:          event.AllDay,
		EventType:       string(event.EventType),
		Status:          string(event.Status),
		TaskID:          event.TaskID,
		HabitID:         event.HabitID,
		DurationMinutes: event.DurationMinutes(),
		CreatedAt:       event.CreatedAt,
		UpdatedAt:       event.UpdatedAt,
	}
}

// buildEvent validates a creation request and assembles the store row. The
// returned error message is safe to hand back to the client.
func buildEvent(request *createEventRequest) (*store.Event, error) {
	if err := validateTitle(request.Title); err != nil {
		return nil, errors.New("title cannot be empty")
	}
	startTime, err := time.Parse(time.RFC3339, request.StartTime)
	if err != nil {
		return nil, errors.New("start_time must be an RFC 3339 timestamp")
	}
	endTime, err := time.Parse(time.RFC3339, request.EndTime)
	if err != nil {
		return nil, errors.New("end_time must be an RFC 3339 timestamp")
	}
	if !endTime.After(startTime) {
		return nil, errors.New("end_time must be after start_time")
	}

	event := &store.Event{
		ID:          uuid.New().String(),
		Title:       request.Title,
		Description: request.Description,
		Location:    request.Location,
		StartTime:   startTime,
		EndTime:     endTime,
		EventType:   store.EventTypePersonal,
		Status:      store.EventStatusScheduled,
		TaskID:      request.TaskID,
		HabitID:     request.HabitID,
	}
	if request.AllDay != nil {
		event.AllDay = *request.AllDay
	}
	if request.EventType != nil {
		eventType := store.EventType(*request.EventType)
		if !eventType.Valid() {
			return nil, errors.New("invalid event_type")
		}
		event.EventType = eventType
	}
	if request.Status != nil {
		status := store.EventStatus(*request.Status)
		if !status.Valid() {
			return nil, errors.New("invalid status")
		}
		event.Status = status
	}
	return event, nil
}

func (s *APIV1Service) CreateEvent(c echo.Context) error {
	request := &createEventRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	event, err := buildEvent(request)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := s.Store.CreateEvent(c.Request().Context(), event)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create event").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, convertEvent(created))
}

func (s *APIV1Service) ListEvents(c echo.Context) error {
	find := &store.FindEvent{}
	if raw := c.QueryParam("event_type"); raw != "" {
		eventType := store.EventType(raw)
		if !eventType.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid event_type")
		}
		find.EventType = &eventType
	}
	if raw := c.QueryParam("status"); raw != "" {
		status := store.EventStatus(raw)
		if !status.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		find.Status = &status
	}
	if c.QueryParam("from") != "" {
		from, err := parseTimeParam(c, "from", time.Time{})
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		find.From = &from
	}
	if c.QueryParam("to") != "" {
		to, err := parseTimeParam(c, "to", time.Time{})
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		find.To = &to
	}
	limit, offset, err := parsePagination(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	find.Limit, find.Offset = limit, offset

	events, err := s.Store.ListEvents(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list events").SetInternal(err)
	}

	response := make([]*eventResponse, 0, len(events))
	for _, event := range events {
		response = append(response, convertEvent(event))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) GetEvent(c echo.Context) error {
	event, err := s.Store.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get event").SetInternal(err)
	}
	if event == nil {
		return echo.NewHTTPError(http.StatusNotFound, "event not found")
	}
	return c.JSON(http.StatusOK, convertEvent(event))
}

func (s *APIV1Service) UpdateEvent(c echo.Context) error {
	request := &updateEventRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	update := &store.UpdateEvent{
		ID:          c.Param("id"),
		Description: request.Description,
		Location:    request.Location,
		AllDay:      request.AllDay,
	}
	if request.Title != nil {
		if err := validateTitle(*request.Title); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "title cannot be empty")
		}
		update.Title = request.Title
	}
	if request.StartTime != nil {
		parsed, err := time.Parse(time.RFC3339, *request.StartTime)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "start_time must be an RFC 3339 timestamp")
		}
		update.StartTime = &parsed
	}
	if request.EndTime != nil {
		parsed, err := time.Parse(time.RFC3339, *request.EndTime)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "end_time must be an RFC 3339 timestamp")
		}
		update.EndTime = &parsed
	}
	if request.EventType != nil {
		eventType := store.EventType(*request.EventType)
		if !eventType.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid event_type")
		}
		update.EventType = &eventType
	}
	if request.Status != nil {
		status := store.EventStatus(*request.Status)
		if !status.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		update.Status = &status
	}
	if update.StartTime != nil && update.EndTime != nil && !update.EndTime.After(*update.StartTime) {
		return echo.NewHTTPError(http.StatusBadRequest, "end_time must be after start_time")
	}

	event, err := s.Store.UpdateEvent(c.Request().Context(), update)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "event not found").SetInternal(err)
	}
	return c.JSON(http.StatusOK, convertEvent(event))
}

func (s *APIV1Service) DeleteEvent(c echo.Context) error {
	if err := s.Store.DeleteEvent(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "event not found").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type monthEventsResponse struct {
	Year        int              `json:"year"`
	Month       int              `json:"month"`
	Events      []*eventResponse `json:"events"`
	TotalEvents int              `json:"total_events"`
}

// ListMonthEvents returns every event overlapping the given calendar month.
func (s *APIV1Service) ListMonthEvents(c echo.Context) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1900 || year > 3000 {
		return echo.NewHTTPError(http.StatusBadRequest, "year must be between 1900 and 3000")
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		return echo.NewHTTPError(http.StatusBadRequest, "month must be between 1 and 12")
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	events, err := s.Store.ListEvents(c.Request().Context(), &store.FindEvent{OverlapFrom: &from, OverlapTo: &to})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list events").SetInternal(err)
	}

	response := make([]*eventResponse, 0, len(events))
	for _, event := range events {
		response = append(response, convertEvent(event))
	}
	return c.JSON(http.StatusOK, &monthEventsResponse{
		Year:        year,
		Month:       month,
		Events:      response,
		TotalEvents: len(response),
	})
}

// ListDayEvents returns every event overlapping the given calendar day.
func (s *APIV1Service) ListDayEvents(c echo.Context) error {
	day, err := time.Parse(time.DateOnly, c.Param("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be a YYYY-MM-DD date")
	}

	from := day
	to := day.AddDate(0, 0, 1)
	events, err := s.Store.ListEvents(c.Request().Context(), &store.FindEvent{OverlapFrom: &from, OverlapTo: &to})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list events").SetInternal(err)
	}

	response := make([]*eventResponse, 0, len(events))
	for _, event := range events {
		response = append(response, convertEvent(event))
	}
	return c.JSON(http.StatusOK, response)
}

// ListUpcomingEvents returns non-cancelled events starting within the next
// N days, nearest first.
func (s *APIV1Service) ListUpcomingEvents(c echo.Context) error {
	days := 7
	if raw := c.QueryParam("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be a positive integer")
		}
		days = parsed
	}

	now := time.Now().UTC()
	until := now.AddDate(0, 0, days)
	events, err := s.Store.ListEvents(c.Request().Context(), &store.FindEvent{From: &now, To: &until})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list events").SetInternal(err)
	}

	response := make([]*eventResponse, 0, len(events))
	for _, event := range events {
		if event.Status == store.EventStatusCancelled {
			continue
		}
		response = append(response, convertEvent(event))
	}
	return c.JSON(http.StatusOK, response)
}

// CheckEventConflicts reports events overlapping the given time range.
// Cancelled events never conflict.
func (s *APIV1Service) CheckEventConflicts(c echo.Context) error {
	startTime, err := time.Parse(time.RFC3339, c.QueryParam("start_time"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "start_time must be an RFC 3339 timestamp")
	}
	endTime, err := time.Parse(time.RFC3339, c.QueryParam("end_time"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "end_time must be an RFC 3339 timestamp")
	}
	if !endTime.After(startTime) {
		return echo.NewHTTPError(http.StatusBadRequest, "end_time must be after start_time")
	}

	events, err := s.Store.ListEvents(c.Request().Context(), &store.FindEvent{})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list events").SetInternal(err)
	}

	candidate := &store.Event{StartTime: startTime, EndTime: endTime}
	conflicts := make([]*eventResponse, 0)
	for _, event := range events {
		if event.Status == store.EventStatusCancelled {
			continue
		}
		if event.ConflictsWith(candidate) {
			conflicts = append(conflicts, convertEvent(event))
		}
	}
	return c.JSON(http.StatusOK, &conflictResponse{
		HasConflicts: len(conflicts) > 0,
		Conflicts:    conflicts,
	})
}

type bulkCreateEventsRequest struct {
	Events []*createEventRequest `json:"events"`
}

type bulkEventFailure struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Error string `json:"error"`
}

type bulkCreateEventsResponse struct {
	CreatedEvents []*eventResponse    `json:"created_events"`
	FailedEvents  []*bulkEventFailure `json:"failed_events"`
	TotalCreated  int                 `json:"total_created"`
	TotalFailed   int                 `json:"total_failed"`
}

const maxBulkEvents = 100

// BulkCreateEvents creates many events in one request, for calendar imports
// and recurring-event expansion. Failures are reported per entry and do not
// abort the rest of the batch.
func (s *APIV1Service) BulkCreateEvents(c echo.Context) error {
	request := &bulkCreateEventsRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if len(request.Events) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "events cannot be empty")
	}
	if len(request.Events) > maxBulkEvents {
		return echo.NewHTTPError(http.StatusBadRequest, "at most 100 events per request")
	}

	ctx := c.Request().Context()
	response := &bulkCreateEventsResponse{
		CreatedEvents: []*eventResponse{},
		FailedEvents:  []*bulkEventFailure{},
	}
	for i, entry := range request.Events {
		event, err := buildEvent(entry)
		if err == nil {
			event, err = s.Store.CreateEvent(ctx, event)
		}
		if err != nil {
			response.FailedEvents = append(response.FailedEvents, &bulkEventFailure{
				Index: i,
				Title: entry.Title,
				Error: err.Error(),
			})
			continue
		}
		response.CreatedEvents = append(response.CreatedEvents, convertEvent(event))
	}
	response.TotalCreated = len(response.CreatedEvents)
	response.TotalFailed = len(response.FailedEvents)
	return c.JSON(http.StatusOK, response)
}

type createReminderRequest struct {
	MinutesBefore *int    `json:"minutes_before"`
	Method        *string `json:"method"`
}

type reminderResponse struct {
	ID            string     `json:"id"`
	EventID       string     `json:"event_id"`
	MinutesBefore int        `json:"minutes_before"`
	Method        string     `json:"method"`
	Sent          bool       `json:"sent"`
	SentAt        *time.Time `json:"sent_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

func convertReminder(reminder *store.EventReminder) *reminderResponse {
	return &reminderResponse{
		ID:            reminder.ID,
		EventID:       reminder.EventID,
		MinutesBefore: reminder.MinutesBefore,
		Method:        reminder.Method,
		Sent:          reminder.Sent,
		SentAt:        reminder.SentAt,
		CreatedAt:     reminder.CreatedAt,
	}
}

// One week is the longest supported reminder lead time.
const maxReminderLeadMinutes = 7 * 24 * 60

// CreateEventReminder attaches a reminder to an event.
func (s *APIV1Service) CreateEventReminder(c echo.Context) error {
	ctx := c.Request().Context()
	eventID := c.Param("id")

	request := &createReminderRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.MinutesBefore == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "minutes_before is required")
	}
	if *request.MinutesBefore < 0 || *request.MinutesBefore > maxReminderLeadMinutes {
		return echo.NewHTTPError(http.StatusBadRequest, "minutes_before must be between 0 and 10080")
	}
	method := "notification"
	if request.Method != nil && *request.Method != "" {
		method = *request.Method
	}

	event, err := s.Store.GetEvent(ctx, eventID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get event").SetInternal(err)
	}
	if event == nil {
		return echo.NewHTTPError(http.StatusNotFound, "event not found")
	}

	reminder, err := s.Store.CreateEventReminder(ctx, &store.EventReminder{
		ID:            uuid.New().String(),
		EventID:       eventID,
		MinutesBefore: *request.MinutesBefore,
		Method:        method,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create reminder").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, convertReminder(reminder))
}

// ListEventReminders returns the event's reminders, shortest lead time first.
func (s *APIV1Service) ListEventReminders(c echo.Context) error {
	ctx := c.Request().Context()
	eventID := c.Param("id")

	event, err := s.Store.GetEvent(ctx, eventID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get event").SetInternal(err)
	}
	if event == nil {
		return echo.NewHTTPError(http.StatusNotFound, "event not found")
	}

	reminders, err := s.Store.ListEventReminders(ctx, eventID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list reminders").SetInternal(err)
	}
	response := make([]*reminderResponse, 0, len(reminders))
	for _, reminder := range reminders {
		response = append(response, convertReminder(reminder))
	}
	return c.JSON(http.StatusOK, response)
}

type eventTypeStatisticsResponse struct {
	StatsByType map[string]int `json:"stats_by_type"`
	TotalEvents int            `json:"total_events"`
}

// GetEventTypeStatistics reports how many events exist per type.
func (s *APIV1Service) GetEventTypeStatistics(c echo.Context) error {
	counts, err := s.Store.CountEventsByType(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count events").SetInternal(err)
	}

	response := &eventTypeStatisticsResponse{StatsByType: map[string]int{}}
	for eventType, count := range counts {
		response.StatsByType[string(eventType)] = count
		response.TotalEvents += count
	}
	return c.JSON(http.StatusOK, response)
}
