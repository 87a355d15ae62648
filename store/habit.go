package store

import (
	"context"
	"time"
)

// HabitFrequency is how often a habit is meant to recur.
type HabitFrequency string

const (
	HabitFrequencyDaily   HabitFrequency = "daily"
	HabitFrequencyWeekly  HabitFrequency = "weekly"
	HabitFrequencyMonthly HabitFrequency = "monthly"
	HabitFrequencyCustom  HabitFrequency = "custom"
)

// HabitFrequencies lists all valid frequencies in a stable order.
var HabitFrequencies = []HabitFrequency{HabitFrequencyDaily, HabitFrequencyWeekly, HabitFrequencyMonthly, HabitFrequencyCustom}

func (f HabitFrequency) Valid() bool {
	switch f {
	case HabitFrequencyDaily, HabitFrequencyWeekly, HabitFrequencyMonthly, HabitFrequencyCustom:
		return true
	}
	return false
}

// Habit represents a recurring activity definition.
//
// CurrentStreak and LongestStreak are owned exclusively by the streak engine:
// they are written only through LogHabitCompletion (and the recompute path on
// log deletion), never by habit updates. LongestStreak never decreases once
// recorded, even when logs are later deleted.
type Habit struct {
	ID            string
	Name          string
	Description   *string
	Frequency     HabitFrequency
	TargetCount   int
	CurrentStreak int
	LongestStreak int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HabitLog is a single completion record. At most one log exists per
// (habit, completed_date) pair; logging the same date again overwrites the
// count and notes in place.
type HabitLog struct {
	ID            string
	HabitID       string
	CompletedDate time.Time
	Count         int
	Notes         *string
	CreatedAt     time.Time
}

// FindHabit filters habit listings. Nil fields are ignored.
type FindHabit struct {
	ID        *string
	Frequency *HabitFrequency
	Limit     *int
	Offset    *int
}

// UpdateHabit carries a partial habit update. Streak counters are
// intentionally absent, see Habit.
type UpdateHabit struct {
	ID          string
	Name        *string
	Description *string
	Frequency   *HabitFrequency
	TargetCount *int
}

// UpsertHabitLog creates or overwrites the completion log for one date.
type UpsertHabitLog struct {
	HabitID       string
	CompletedDate time.Time
	Count         int
	Notes         *string
}

// FindHabitLog filters completion logs. Nil fields are ignored.
type FindHabitLog struct {
	HabitID   *string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     *int
}

// HabitStatistics is the compact counter set used by the chat assistant's
// context builder.
type HabitStatistics struct {
	TotalHabits       int
	ActiveHabits      int
	TotalCompletions  int
	BestCurrentStreak int
}

func (s *Store) CreateHabit(ctx context.Context, create *Habit) (*Habit, error) {
	habit, err := s.driver.CreateHabit(ctx, create)
	if err != nil {
		return nil, err
	}
	s.invalidateOverviews()
	return habit, nil
}

func (s *Store) ListHabits(ctx context.Context, find *FindHabit) ([]*Habit, error) {
	return s.driver.ListHabits(ctx, find)
}

// GetHabit returns the habit with the given ID, or nil when it does not exist.
func (s *Store) GetHabit(ctx context.Context, id string) (*Habit, error) {
	habits, err := s.driver.ListHabits(ctx, &FindHabit{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(habits) == 0 {
		return nil, nil
	}
	return habits[0], nil
}

func (s *Store) UpdateHabit(ctx context.Context, update *UpdateHabit) (*Habit, error) {
	habit, err := s.driver.UpdateHabit(ctx, update)
	if err != nil {
		return nil, err
	}
	s.invalidateOverviews()
	return habit, nil
}

// DeleteHabit removes a habit and cascades to all of its logs.
func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	if err := s.driver.DeleteHabit(ctx, id); err != nil {
		return err
	}
	s.invalidateOverviews()
	return nil
}

// LogHabitCompletion upserts the completion log for one date. The driver
// recomputes both streak counters from the habit's log history inside the
// same transaction and applies the monotonic rule for the longest streak:
// the stored value never decreases.
//
// The write is atomic: no reader can observe the new log alongside stale
// streak counters, concurrent writes to the same habit serialize, and a
// failed streak write fails the whole log operation.
func (s *Store) LogHabitCompletion(ctx context.Context, upsert *UpsertHabitLog) (*HabitLog, error) {
	log, err := s.driver.LogHabitCompletion(ctx, upsert)
	if err != nil {
		return nil, err
	}
	s.invalidateOverviews()
	return log, nil
}

func (s *Store) ListHabitLogs(ctx context.Context, find *FindHabitLog) ([]*HabitLog, error) {
	return s.driver.ListHabitLogs(ctx, find)
}

// DeleteHabitLog removes one completion log; the driver refreshes the
// habit's current streak from the remaining dates in the same transaction.
// The longest streak is left untouched (monotonic record).
func (s *Store) DeleteHabitLog(ctx context.Context, habitID, logID string) error {
	if err := s.driver.DeleteHabitLog(ctx, habitID, logID); err != nil {
		return err
	}
	s.invalidateOverviews()
	return nil
}

func (s *Store) GetHabitStatistics(ctx context.Context) (*HabitStatistics, error) {
	return s.driver.GetHabitStatistics(ctx)
}
