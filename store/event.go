package store

import (
	"context"
	"time"
)

// EventType classifies what a calendar event is about.
type EventType string

const (
	EventTypePersonal EventType = "personal"
	EventTypeWork     EventType = "work"
	EventTypeMeeting  EventType = "meeting"
	EventTypeReminder EventType = "reminder"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTypePersonal, EventTypeWork, EventTypeMeeting, EventTypeReminder:
		return true
	}
	return false
}

// EventStatus is the scheduling state of an event.
type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusConfirmed EventStatus = "confirmed"
	EventStatusCancelled EventStatus = "cancelled"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusScheduled, EventStatusConfirmed, EventStatusCancelled:
		return true
	}
	return false
}

// Event represents a calendar entry, optionally linked to the task or habit
// it was created from.
type Event struct {
	ID          string
	Title       string
	Description *string
	Location    *string
	StartTime   time.Time
	EndTime     time.Time
	AllDay      bool
	EventType   EventType
	Status      EventStatus
	TaskID      *string
	HabitID     *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DurationMinutes returns the event length in minutes; all-day events count
// as a full day.
func (e *Event) DurationMinutes() int {
	if e.AllDay {
		return 24 * 60
	}
	return int(e.EndTime.Sub(e.StartTime) / time.Minute)
}

// ConflictsWith reports whether two events overlap in time. All-day events
// conflict with anything on the same calendar date.
func (e *Event) ConflictsWith(other *Event) bool {
	if e.AllDay || other.AllDay {
		y1, m1, d1 := e.StartTime.Date()
		y2, m2, d2 := other.StartTime.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	}
	return e.StartTime.Before(other.EndTime) && e.EndTime.After(other.StartTime)
}

// FindEvent filters event listings. From/To bound the event start time
// inclusively. OverlapFrom/OverlapTo select events overlapping the half-open
// range [OverlapFrom, OverlapTo): start before OverlapTo and end at or after
// OverlapFrom. Nil fields are ignored.
type FindEvent struct {
	ID          *string
	EventType   *EventType
	Status      *EventStatus
	From        *time.Time
	To          *time.Time
	OverlapFrom *time.Time
	OverlapTo   *time.Time
	Limit       *int
	Offset      *int
}

// EventReminder schedules a notification a number of minutes before its
// event starts. A reminder fires at most once; Sent flips when it is
// dispatched and SentAt records when.
type EventReminder struct {
	ID            string
	EventID       string
	MinutesBefore int
	Method        string
	Sent          bool
	SentAt        *time.Time
	CreatedAt     time.Time
}

// UpdateEvent carries a partial event update. Nil fields are left untouched.
type UpdateEvent struct {
	ID          string
	Title       *string
	Description *string
	Location    *string
	StartTime   *time.Time
	EndTime     *time.Time
	AllDay      *bool
	EventType   *EventType
	Status      *EventStatus
}

func (s *Store) CreateEvent(ctx context.Context, create *Event) (*Event, error) {
	return s.driver.CreateEvent(ctx, create)
}

func (s *Store) ListEvents(ctx context.Context, find *FindEvent) ([]*Event, error) {
	return s.driver.ListEvents(ctx, find)
}

// GetEvent returns the event with the given ID, or nil when it does not exist.
func (s *Store) GetEvent(ctx context.Context, id string) (*Event, error) {
	events, err := s.driver.ListEvents(ctx, &FindEvent{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return events[0], nil
}

func (s *Store) UpdateEvent(ctx context.Context, update *UpdateEvent) (*Event, error) {
	return s.driver.UpdateEvent(ctx, update)
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	return s.driver.DeleteEvent(ctx, id)
}

// CountEventsByType returns how many events exist per event type. Types with
// no events are absent from the map.
func (s *Store) CountEventsByType(ctx context.Context) (map[EventType]int, error) {
	return s.driver.CountEventsByType(ctx)
}

func (s *Store) CreateEventReminder(ctx context.Context, create *EventReminder) (*EventReminder, error) {
	return s.driver.CreateEventReminder(ctx, create)
}

func (s *Store) ListEventReminders(ctx context.Context, eventID string) ([]*EventReminder, error) {
	return s.driver.ListEventReminders(ctx, eventID)
}

// ListPendingEventReminders returns unsent reminders whose scheduled event
// has not started yet and starts within the reminder's lead window after
// checkTime.
func (s *Store) ListPendingEventReminders(ctx context.Context, checkTime time.Time) ([]*EventReminder, error) {
	return s.driver.ListPendingEventReminders(ctx, checkTime)
}

func (s *Store) MarkEventReminderSent(ctx context.Context, id string, sentAt time.Time) error {
	return s.driver.MarkEventReminderSent(ctx, id, sentAt)
}
