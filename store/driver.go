package store

import (
	"context"
	"database/sql"
	"time"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates the schema when it does not exist yet.
	Migrate(ctx context.Context) error

	// Task model related methods.
	CreateTask(ctx context.Context, create *Task) (*Task, error)
	ListTasks(ctx context.Context, find *FindTask) ([]*Task, error)
	UpdateTask(ctx context.Context, update *UpdateTask) (*Task, error)
	DeleteTask(ctx context.Context, id string) error
	GetTaskStatistics(ctx context.Context, now time.Time) (*TaskStatistics, error)

	// Habit model related methods.
	CreateHabit(ctx context.Context, create *Habit) (*Habit, error)
	ListHabits(ctx context.Context, find *FindHabit) ([]*Habit, error)
	UpdateHabit(ctx context.Context, update *UpdateHabit) (*Habit, error)
	DeleteHabit(ctx context.Context, id string) error
	GetHabitStatistics(ctx context.Context) (*HabitStatistics, error)

	// HabitLog model related methods. LogHabitCompletion upserts the log and
	// recomputes both streak counters from the habit's log history inside the
	// same transaction, so the log write and its streak update are observed
	// as a unit; the stored longest streak stays monotonic. DeleteHabitLog
	// removes one log and recomputes the current streak the same way, leaving
	// the longest streak as the standing record.
	LogHabitCompletion(ctx context.Context, upsert *UpsertHabitLog) (*HabitLog, error)
	ListHabitLogs(ctx context.Context, find *FindHabitLog) ([]*HabitLog, error)
	DeleteHabitLog(ctx context.Context, habitID, logID string) error

	// Event model related methods.
	CreateEvent(ctx context.Context, create *Event) (*Event, error)
	ListEvents(ctx context.Context, find *FindEvent) ([]*Event, error)
	UpdateEvent(ctx context.Context, update *UpdateEvent) (*Event, error)
	DeleteEvent(ctx context.Context, id string) error
	CountEventsByType(ctx context.Context) (map[EventType]int, error)

	// EventReminder model related methods. ListPendingEventReminders selects
	// unsent reminders of scheduled events that start after checkTime but
	// within the reminder's lead window.
	CreateEventReminder(ctx context.Context, create *EventReminder) (*EventReminder, error)
	ListEventReminders(ctx context.Context, eventID string) ([]*EventReminder, error)
	ListPendingEventReminders(ctx context.Context, checkTime time.Time) ([]*EventReminder, error)
	MarkEventReminderSent(ctx context.Context, id string, sentAt time.Time) error

	// ChatMessage model related methods.
	CreateChatMessage(ctx context.Context, create *ChatMessage) (*ChatMessage, error)
	ListChatMessages(ctx context.Context, find *FindChatMessage) ([]*ChatMessage, error)
}
