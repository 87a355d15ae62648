package store

import (
	"context"
	"time"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskStatuses lists all valid statuses in a stable order.
var TaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

// TaskPriority is the urgency bucket of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// TaskPriorities lists all valid priorities in a stable order.
var TaskPriorities = []TaskPriority{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent}

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// Task represents a one-off work item.
type Task struct {
	ID          string
	Title       string
	Description *string
	Status      TaskStatus
	Priority    TaskPriority
	DueDate     *time.Time
	// CompletedAt is non-nil if and only if Status is completed. The pair is
	// set and cleared together on every status transition.
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FindTask filters task listings. Nil fields are ignored.
type FindTask struct {
	ID       *string
	Status   *TaskStatus
	Priority *TaskPriority

	// WindowStart/WindowEnd select tasks whose created_at OR completed_at
	// falls inside the inclusive window. This is the analytics read: the
	// aggregator needs tasks created in the window for headline metrics and
	// tasks completed in the window for the daily/weekly series.
	WindowStart *time.Time
	WindowEnd   *time.Time

	Limit  *int
	Offset *int
}

// UpdateTask carries a partial task update. Nil fields are left untouched.
// The completed_at rule is enforced by the driver: transitioning to completed
// stamps completed_at (if not already set), any other status clears it.
type UpdateTask struct {
	ID          string
	Title       *string
	Description *string
	Status      *TaskStatus
	Priority    *TaskPriority
	DueDate     *time.Time
}

// TaskStatistics is the compact counter set used by the chat assistant's
// context builder.
type TaskStatistics struct {
	Total     int
	Completed int
	Pending   int
	Overdue   int
}

func (s *Store) CreateTask(ctx context.Context, create *Task) (*Task, error) {
	task, err := s.driver.CreateTask(ctx, create)
	if err != nil {
		return nil, err
	}
	s.invalidateOverviews()
	return task, nil
}

func (s *Store) ListTasks(ctx context.Context, find *FindTask) ([]*Task, error) {
	return s.driver.ListTasks(ctx, find)
}

// GetTask returns the task with the given ID, or nil when it does not exist.
func (s *Store) GetTask(ctx context.Context, id string) (*Task, error) {
	tasks, err := s.driver.ListTasks(ctx, &FindTask{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return tasks[0], nil
}

func (s *Store) UpdateTask(ctx context.Context, update *UpdateTask) (*Task, error) {
	task, err := s.driver.UpdateTask(ctx, update)
	if err != nil {
		return nil, err
	}
	s.invalidateOverviews()
	return task, nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if err := s.driver.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.invalidateOverviews()
	return nil
}

// GetTaskStatistics counts tasks by completion state. Overdue means due
// before now and not completed.
func (s *Store) GetTaskStatistics(ctx context.Context, now time.Time) (*TaskStatistics, error) {
	return s.driver.GetTaskStatistics(ctx, now)
}
