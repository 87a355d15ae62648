package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/echoapp/echo/analytics"
	"github.com/echoapp/echo/store"
)

func (d *DB) CreateHabit(ctx context.Context, create *store.Habit) (*store.Habit, error) {
	now := time.Now()
	query := `
		INSERT INTO habit (id, name, description, frequency, target_count, current_streak, longest_streak, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, 0, 0, $6, $7)
	`
	if _, err := d.db.ExecContext(ctx, query,
		create.ID,
		create.Name,
		nullString(create.Description),
		create.Frequency,
		create.TargetCount,
		now.Unix(),
		now.Unix(),
	); err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}

	create.CurrentStreak = 0
	create.LongestStreak = 0
	create.CreatedAt = now.UTC()
	create.UpdatedAt = now.UTC()
	return create, nil
}

func (d *DB) ListHabits(ctx context.Context, find *store.FindHabit) ([]*store.Habit, error) {
	where, args := []string{"1 = 1"}, []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if find.ID != nil {
		where = append(where, "id = "+arg(*find.ID))
	}
	if find.Frequency != nil {
		where = append(where, "frequency = "+arg(*find.Frequency))
	}

	query := `
		SELECT id, name, description, frequency, target_count, current_streak, longest_streak, created_ts, updated_ts
		FROM habit
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC`
	if find.Limit != nil {
		query += " LIMIT " + arg(*find.Limit)
		if find.Offset != nil {
			query += " OFFSET " + arg(*find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	list := []*store.Habit{}
	for rows.Next() {
		var habit store.Habit
		var description sql.NullString
		var createdTs, updatedTs int64
		if err := rows.Scan(
			&habit.ID,
			&habit.Name,
			&description,
			&habit.Frequency,
			&habit.TargetCount,
			&habit.CurrentStreak,
			&habit.LongestStreak,
			&createdTs,
			&updatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habit.Description = stringPtr(description)
		habit.CreatedAt = time.Unix(createdTs, 0).UTC()
		habit.UpdatedAt = time.Unix(updatedTs, 0).UTC()
		list = append(list, &habit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate habits: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateHabit(ctx context.Context, update *store.UpdateHabit) (*store.Habit, error) {
	set, args := []string{}, []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	set = append(set, "updated_ts = "+arg(time.Now().Unix()))

	if update.Name != nil {
		set = append(set, "name = "+arg(*update.Name))
	}
	if update.Description != nil {
		set = append(set, "description = "+arg(*update.Description))
	}
	if update.Frequency != nil {
		set = append(set, "frequency = "+arg(*update.Frequency))
	}
	if update.TargetCount != nil {
		set = append(set, "target_count = "+arg(*update.TargetCount))
	}

	query := "UPDATE habit SET " + strings.Join(set, ", ") + " WHERE id = " + arg(update.ID)
	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update habit: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("habit %s not found", update.ID)
	}

	habits, err := d.ListHabits(ctx, &store.FindHabit{ID: &update.ID})
	if err != nil {
		return nil, err
	}
	if len(habits) == 0 {
		return nil, fmt.Errorf("habit %s not found", update.ID)
	}
	return habits[0], nil
}

// DeleteHabit removes the habit; the foreign key cascades to its logs.
func (d *DB) DeleteHabit(ctx context.Context, id string) error {
	result, err := d.db.ExecContext(ctx, "DELETE FROM habit WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("habit %s not found", id)
	}
	return nil
}

func (d *DB) GetHabitStatistics(ctx context.Context) (*store.HabitStatistics, error) {
	stats := store.HabitStatistics{}
	var active, best sql.NullInt64
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE current_streak > 0),
			MAX(current_streak)
		FROM habit
	`).Scan(&stats.TotalHabits, &active, &best)
	if err != nil {
		return nil, fmt.Errorf("failed to get habit statistics: %w", err)
	}
	stats.ActiveHabits = int(active.Int64)
	stats.BestCurrentStreak = int(best.Int64)

	var completions sql.NullInt64
	if err := d.db.QueryRowContext(ctx, "SELECT SUM(count) FROM habit_log").Scan(&completions); err != nil {
		return nil, fmt.Errorf("failed to count habit completions: %w", err)
	}
	stats.TotalCompletions = int(completions.Int64)
	return &stats, nil
}

// LogHabitCompletion upserts the completion log for one date and writes the
// streak counters in the same transaction. GREATEST keeps the stored longest
// streak monotonic regardless of what the caller computed.
// LogHabitCompletion upserts the completion log for one date and recomputes
// the streak counters from the habit's full log history inside the same
// transaction. The habit row is locked first so concurrent writers to the
// same habit serialize instead of computing from stale log sets; GREATEST
// keeps the stored longest streak monotonic.
func (d *DB) LogHabitCompletion(ctx context.Context, upsert *store.UpsertHabitLog) (*store.HabitLog, error) {
	now := time.Now()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var storedLongest int
	if err := tx.QueryRowContext(ctx, "SELECT longest_streak FROM habit WHERE id = $1 FOR UPDATE", upsert.HabitID).Scan(&storedLongest); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("habit %s not found", upsert.HabitID)
		}
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}

	query := `
		INSERT INTO habit_log (id, habit_id, completed_date, count, notes, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (habit_id, completed_date) DO UPDATE SET
			count = EXCLUDED.count,
			notes = EXCLUDED.notes
		RETURNING id, habit_id, completed_date, count, notes, created_ts
	`
	var log store.HabitLog
	var completedDate string
	var notes sql.NullString
	var createdTs int64
	if err := tx.QueryRowContext(ctx, query,
		uuid.New().String(),
		upsert.HabitID,
		formatDate(upsert.CompletedDate),
		upsert.Count,
		nullString(upsert.Notes),
		now.Unix(),
	).Scan(
		&log.ID,
		&log.HabitID,
		&completedDate,
		&log.Count,
		&notes,
		&createdTs,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert habit log: %w", err)
	}
	log.CompletedDate, err = parseDate(completedDate)
	if err != nil {
		return nil, err
	}
	log.Notes = stringPtr(notes)
	log.CreatedAt = time.Unix(createdTs, 0).UTC()

	dates, err := logDatesTx(ctx, tx, upsert.HabitID)
	if err != nil {
		return nil, err
	}
	streaks := analytics.NextStreaks(storedLongest, dates, now.UTC())

	if _, err := tx.ExecContext(ctx, `
		UPDATE habit
		SET current_streak = $1, longest_streak = GREATEST(longest_streak, $2), updated_ts = $3
		WHERE id = $4
	`, streaks.Current, streaks.Longest, now.Unix(), upsert.HabitID); err != nil {
		return nil, fmt.Errorf("failed to update streaks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &log, nil
}

// logDatesTx reads every completion date of the habit within the
// transaction, so the streak computation sees the log write it follows.
func logDatesTx(ctx context.Context, tx *sql.Tx, habitID string) ([]time.Time, error) {
	rows, err := tx.QueryContext(ctx, "SELECT completed_date FROM habit_log WHERE habit_id = $1", habitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habit log dates: %w", err)
	}
	defer rows.Close()

	dates := []time.Time{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan habit log date: %w", err)
		}
		date, err := parseDate(raw)
		if err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate habit log dates: %w", err)
	}
	return dates, nil
}

func (d *DB) ListHabitLogs(ctx context.Context, find *store.FindHabitLog) ([]*store.HabitLog, error) {
	where, args := []string{"1 = 1"}, []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if find.HabitID != nil {
		where = append(where, "habit_id = "+arg(*find.HabitID))
	}
	if find.StartDate != nil {
		where = append(where, "completed_date >= "+arg(formatDate(*find.StartDate)))
	}
	if find.EndDate != nil {
		where = append(where, "completed_date <= "+arg(formatDate(*find.EndDate)))
	}

	query := `
		SELECT id, habit_id, completed_date, count, notes, created_ts
		FROM habit_log
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY completed_date DESC`
	if find.Limit != nil {
		query += " LIMIT " + arg(*find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list habit logs: %w", err)
	}
	defer rows.Close()

	list := []*store.HabitLog{}
	for rows.Next() {
		var log store.HabitLog
		var completedDate string
		var notes sql.NullString
		var createdTs int64
		if err := rows.Scan(&log.ID, &log.HabitID, &completedDate, &log.Count, &notes, &createdTs); err != nil {
			return nil, fmt.Errorf("failed to scan habit log: %w", err)
		}
		log.CompletedDate, err = parseDate(completedDate)
		if err != nil {
			return nil, err
		}
		log.Notes = stringPtr(notes)
		log.CreatedAt = time.Unix(createdTs, 0).UTC()
		list = append(list, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate habit logs: %w", err)
	}
	return list, nil
}

// DeleteHabitLog removes one log row and writes the recomputed current
// streak. The longest streak column is left as the standing record.
// DeleteHabitLog removes one log row and recomputes the current streak from
// the remaining dates in the same transaction, behind the same habit row
// lock as LogHabitCompletion. The longest streak column is left as the
// standing record.
func (d *DB) DeleteHabitLog(ctx context.Context, habitID, logID string) error {
	now := time.Now()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var storedLongest int
	if err := tx.QueryRowContext(ctx, "SELECT longest_streak FROM habit WHERE id = $1 FOR UPDATE", habitID).Scan(&storedLongest); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("habit %s not found", habitID)
		}
		return fmt.Errorf("failed to get habit: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM habit_log WHERE id = $1 AND habit_id = $2", logID, habitID)
	if err != nil {
		return fmt.Errorf("failed to delete habit log: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("habit log %s not found", logID)
	}

	dates, err := logDatesTx(ctx, tx, habitID)
	if err != nil {
		return err
	}
	streaks := analytics.ComputeStreaks(dates, now.UTC())

	if _, err := tx.ExecContext(ctx, `
		UPDATE habit SET current_streak = $1, updated_ts = $2 WHERE id = $3
	`, streaks.Current, now.Unix(), habitID); err != nil {
		return fmt.Errorf("failed to update streaks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
