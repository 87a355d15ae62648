// Package gcal syncs tasks, habits and events to Google Calendar over its
// REST API, with the OAuth 2.0 authorization code flow for access.
package gcal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/echoapp/echo/store"
)

const apiBase = "https://www.googleapis.com/calendar/v3"

// Scopes requested for calendar access.
var Scopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/calendar.events",
}

// googleEndpoint is spelled out so the token URL matches the credential
// configuration exactly.
var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// Service drives the OAuth flow and produces authenticated clients.
type Service struct {
	config *oauth2.Config
}

// NewService creates a calendar service from OAuth client credentials.
func NewService(clientID, clientSecret, redirectURL string) *Service {
	return &Service{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       Scopes,
			Endpoint:     googleEndpoint,
		},
	}
}

// AuthURL returns the consent page URL. Offline access is requested so a
// refresh token comes back with the first exchange.
func (s *Service) AuthURL(state string) string {
	return s.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades an authorization code for tokens.
func (s *Service) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "failed to exchange authorization code")
	}
	return token, nil
}

// Client returns an API client that refreshes the token as needed.
func (s *Service) Client(ctx context.Context, token *oauth2.Token) *Client {
	return &Client{http: s.config.Client(ctx, token)}
}

// Client calls the calendar REST API with an authenticated HTTP client.
type Client struct {
	http *http.Client
}

// Calendar is one entry of the user's calendar list.
type Calendar struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Primary bool   `json:"primary,omitempty"`
}

// Event is the calendar event payload in API form.
type Event struct {
	ID          string     `json:"id,omitempty"`
	HTMLLink    string     `json:"htmlLink,omitempty"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Start       EventTime  `json:"start"`
	End         EventTime  `json:"end"`
	Reminders   *Reminders `json:"reminders,omitempty"`
}

// EventTime is either a timed instant or an all-day date.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Reminders configures popup notifications before the event.
type Reminders struct {
	UseDefault bool               `json:"useDefault"`
	Overrides  []ReminderOverride `json:"overrides,omitempty"`
}

type ReminderOverride struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

// ListCalendars returns the user's calendar list.
func (c *Client) ListCalendars(ctx context.Context) ([]Calendar, error) {
	var result struct {
		Items []Calendar `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, apiBase+"/users/me/calendarList", nil, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// ListEvents returns events of one calendar between from and to.
func (c *Client) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]Event, error) {
	query := url.Values{}
	query.Set("timeMin", from.Format(time.RFC3339))
	query.Set("timeMax", to.Format(time.RFC3339))
	query.Set("singleEvents", "true")
	query.Set("orderBy", "startTime")

	endpoint := fmt.Sprintf("%s/calendars/%s/events?%s", apiBase, url.PathEscape(calendarID), query.Encode())
	var result struct {
		Items []Event `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// CreateEvent inserts an event into the calendar.
func (c *Client) CreateEvent(ctx context.Context, calendarID string, event *Event) (*Event, error) {
	endpoint := fmt.Sprintf("%s/calendars/%s/events", apiBase, url.PathEscape(calendarID))
	var created Event
	if err := c.do(ctx, http.MethodPost, endpoint, event, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateEvent patches an existing event.
func (c *Client) UpdateEvent(ctx context.Context, calendarID, eventID string, event *Event) (*Event, error) {
	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s", apiBase, url.PathEscape(calendarID), url.PathEscape(eventID))
	var updated Event
	if err := c.do(ctx, http.MethodPatch, endpoint, event, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteEvent removes an event from the calendar.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s", apiBase, url.PathEscape(calendarID), url.PathEscape(eventID))
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.Wrap(err, "failed to build calendar request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "calendar request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(resp.Body)
		return errors.Errorf("calendar API error: status %d, body %s", resp.StatusCode, payload)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode calendar response")
	}
	return nil
}

// EventFromTask converts a task into a calendar event anchored on its due
// date, or one hour from now when none is set. High priority tasks get an
// extra early reminder.
func EventFromTask(task *store.Task, now time.Time) *Event {
	start := now.Add(time.Hour)
	if task.DueDate != nil {
		start = *task.DueDate
	}
	end := start.Add(time.Hour)

	description := "ECHO Task"
	if task.Description != nil && *task.Description != "" {
		description += "\n\n" + *task.Description
	}
	description += "\n\nPriority: " + string(task.Priority)

	reminders := []ReminderOverride{{Method: "popup", Minutes: 15}}
	if task.Priority == store.TaskPriorityHigh {
		reminders = append(reminders, ReminderOverride{Method: "popup", Minutes: 60})
	}

	return &Event{
		Summary:     "Task: " + task.Title,
		Description: description,
		Start:       EventTime{DateTime: start.Format(time.RFC3339)},
		End:         EventTime{DateTime: end.Format(time.RFC3339)},
		Reminders:   &Reminders{UseDefault: false, Overrides: reminders},
	}
}

// EventFromHabit converts a habit into a half-hour reminder slot starting an
// hour from now.
func EventFromHabit(habit *store.Habit, now time.Time) *Event {
	start := now.Add(time.Hour)
	end := start.Add(30 * time.Minute)

	description := "ECHO Habit Reminder"
	if habit.Description != nil && *habit.Description != "" {
		description += "\n\n" + *habit.Description
	}
	description += fmt.Sprintf("\n\nFrequency: %s\nCurrent Streak: %d days", habit.Frequency, habit.CurrentStreak)

	return &Event{
		Summary:     "Habit: " + habit.Name,
		Description: description,
		Start:       EventTime{DateTime: start.Format(time.RFC3339)},
		End:         EventTime{DateTime: end.Format(time.RFC3339)},
		Reminders:   &Reminders{UseDefault: false, Overrides: []ReminderOverride{{Method: "popup", Minutes: 10}}},
	}
}
