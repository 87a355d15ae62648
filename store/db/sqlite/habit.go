package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/echoapp/echo/analytics"
	"github.com/echoapp/echo/store"
)

func (d *DB) CreateHabit(ctx context.Context, create *store.Habit) (*store.Habit, error) {
	now := time.Now()
	query := `
		INSERT INTO habit (id, name, description, frequency, target_count, current_streak, longest_streak, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, 0, 0, ?, ?)
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
		return nil, errors.Wrap(err, "failed to create habit")
	}

	create.CurrentStreak = 0
	create.LongestStreak = 0
	create.CreatedAt = now.UTC()
	create.UpdatedAt = now.UTC()
	return create, nil
}

func (d *DB) ListHabits(ctx context.Context, find *store.FindHabit) ([]*store.Habit, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.Frequency != nil {
		where, args = append(where, "frequency = ?"), append(args, *find.Frequency)
	}

	query := `
		SELECT id, name, description, frequency, target_count, current_streak, longest_streak, created_ts, updated_ts
		FROM habit
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
		if find.Offset != nil {
			query += " OFFSET ?"
			args = append(args, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list habits")
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
			return nil, errors.Wrap(err, "failed to scan habit")
		}
		habit.Description = stringPtr(description)
		habit.CreatedAt = time.Unix(createdTs, 0).UTC()
		habit.UpdatedAt = time.Unix(updatedTs, 0).UTC()
		list = append(list, &habit)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate habits")
	}
	return list, nil
}

func (d *DB) UpdateHabit(ctx context.Context, update *store.UpdateHabit) (*store.Habit, error) {
	set, args := []string{"updated_ts = ?"}, []any{time.Now().Unix()}

	if update.Name != nil {
		set, args = append(set, "name = ?"), append(args, *update.Name)
	}
	if update.Description != nil {
		set, args = append(set, "description = ?"), append(args, *update.Description)
	}
	if update.Frequency != nil {
		set, args = append(set, "frequency = ?"), append(args, *update.Frequency)
	}
	if update.TargetCount != nil {
		set, args = append(set, "target_count = ?"), append(args, *update.TargetCount)
	}

	args = append(args, update.ID)
	result, err := d.db.ExecContext(ctx, "UPDATE habit SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update habit")
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, errors.Errorf("habit %s not found", update.ID)
	}

	habits, err := d.ListHabits(ctx, &store.FindHabit{ID: &update.ID})
	if err != nil {
		return nil, err
	}
	if len(habits) == 0 {
		return nil, errors.Errorf("habit %s not found", update.ID)
	}
	return habits[0], nil
}

// DeleteHabit removes the habit and its logs in one transaction. The cascade
// is explicit because the connection runs with foreign keys off.
func (d *DB) DeleteHabit(ctx context.Context, id string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM habit_log WHERE habit_id = ?", id); err != nil {
		return errors.Wrap(err, "failed to delete habit logs")
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM habit WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "failed to delete habit")
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return errors.Errorf("habit %s not found", id)
	}

	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}

func (d *DB) GetHabitStatistics(ctx context.Context) (*store.HabitStatistics, error) {
	stats := store.HabitStatistics{}
	var active, best sql.NullInt64
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			SUM(CASE WHEN current_streak > 0 THEN 1 ELSE 0 END),
			MAX(current_streak)
		FROM habit
	`).Scan(&stats.TotalHabits, &active, &best)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get habit statistics")
	}
	stats.ActiveHabits = int(active.Int64)
	stats.BestCurrentStreak = int(best.Int64)

	var completions sql.NullInt64
	if err := d.db.QueryRowContext(ctx, "SELECT SUM(count) FROM habit_log").Scan(&completions); err != nil {
		return nil, errors.Wrap(err, "failed to count habit completions")
	}
	stats.TotalCompletions = int(completions.Int64)
	return &stats, nil
}

// LogHabitCompletion upserts the completion log for one date and recomputes
// the streak counters from the habit's full log history inside the same
// transaction, so the log write and its streak update are observed as a
// unit. MAX keeps the stored longest streak monotonic.
func (d *DB) LogHabitCompletion(ctx context.Context, upsert *store.UpsertHabitLog) (*store.HabitLog, error) {
	now := time.Now()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var storedLongest int
	if err := tx.QueryRowContext(ctx, "SELECT longest_streak FROM habit WHERE id = ?", upsert.HabitID).Scan(&storedLongest); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Errorf("habit %s not found", upsert.HabitID)
		}
		return nil, errors.Wrap(err, "failed to get habit")
	}

	query := `
		INSERT INTO habit_log (id, habit_id, completed_date, count, notes, created_ts)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (habit_id, completed_date) DO UPDATE SET
			count = excluded.count,
			notes = excluded.notes
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
		return nil, errors.Wrap(err, "failed to upsert habit log")
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
		SET current_streak = ?, longest_streak = MAX(longest_streak, ?), updated_ts = ?
		WHERE id = ?
	`, streaks.Current, streaks.Longest, now.Unix(), upsert.HabitID); err != nil {
		return nil, errors.Wrap(err, "failed to update streaks")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return &log, nil
}

// logDatesTx reads every completion date of the habit within the
// transaction, so the streak computation sees the log write it follows.
func logDatesTx(ctx context.Context, tx *sql.Tx, habitID string) ([]time.Time, error) {
	rows, err := tx.QueryContext(ctx, "SELECT completed_date FROM habit_log WHERE habit_id = ?", habitID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list habit log dates")
	}
	defer rows.Close()

	dates := []time.Time{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.Wrap(err, "failed to scan habit log date")
		}
		date, err := parseDate(raw)
		if err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate habit log dates")
	}
	return dates, nil
}

func (d *DB) ListHabitLogs(ctx context.Context, find *store.FindHabitLog) ([]*store.HabitLog, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.HabitID != nil {
		where, args = append(where, "habit_id = ?"), append(args, *find.HabitID)
	}
	if find.StartDate != nil {
		where, args = append(where, "completed_date >= ?"), append(args, formatDate(*find.StartDate))
	}
	if find.EndDate != nil {
		where, args = append(where, "completed_date <= ?"), append(args, formatDate(*find.EndDate))
	}

	query := `
		SELECT id, habit_id, completed_date, count, notes, created_ts
		FROM habit_log
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY completed_date DESC`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list habit logs")
	}
	defer rows.Close()

	list := []*store.HabitLog{}
	for rows.Next() {
		var log store.HabitLog
		var completedDate string
		var notes sql.NullString
		var createdTs int64
		if err := rows.Scan(&log.ID, &log.HabitID, &completedDate, &log.Count, &notes, &createdTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan habit log")
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
		return nil, errors.Wrap(err, "failed to iterate habit logs")
	}
	return list, nil
}

// DeleteHabitLog removes one log row and recomputes the current streak from
// the remaining dates in the same transaction. The longest streak column is
// left as the standing record.
func (d *DB) DeleteHabitLog(ctx context.Context, habitID, logID string) error {
	now := time.Now()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, "DELETE FROM habit_log WHERE id = ? AND habit_id = ?", logID, habitID)
	if err != nil {
		return errors.Wrap(err, "failed to delete habit log")
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return errors.Errorf("habit log %s not found", logID)
	}

	dates, err := logDatesTx(ctx, tx, habitID)
	if err != nil {
		return err
	}
	streaks := analytics.ComputeStreaks(dates, now.UTC())

	if _, err := tx.ExecContext(ctx, `
		UPDATE habit SET current_streak = ?, updated_ts = ? WHERE id = ?
	`, streaks.Current, now.Unix(), habitID); err != nil {
		return errors.Wrap(err, "failed to update streaks")
	}

	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}
