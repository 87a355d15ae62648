package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/echoapp/echo/store"
)

func (d *DB) CreateTask(ctx context.Context, create *store.Task) (*store.Task, error) {
	now := time.Now()
	query := `
		INSERT INTO task (id, title, description, status, priority, due_ts, completed_ts, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := d.db.ExecContext(ctx, query,
		create.ID,
		create.Title,
		nullString(create.Description),
		create.Status,
		create.Priority,
		nullTime(create.DueDate),
		nullTime(create.CompletedAt),
		now.Unix(),
		now.Unix(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to create task")
	}

	create.CreatedAt = now.UTC()
	create.UpdatedAt = now.UTC()
	return create, nil
}

func (d *DB) ListTasks(ctx context.Context, find *store.FindTask) ([]*store.Task, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.Status != nil {
		where, args = append(where, "status = ?"), append(args, *find.Status)
	}
	if find.Priority != nil {
		where, args = append(where, "priority = ?"), append(args, *find.Priority)
	}
	if find.WindowStart != nil && find.WindowEnd != nil {
		where = append(where, "(created_ts BETWEEN ? AND ? OR (completed_ts IS NOT NULL AND completed_ts BETWEEN ? AND ?))")
		args = append(args, find.WindowStart.Unix(), find.WindowEnd.Unix(), find.WindowStart.Unix(), find.WindowEnd.Unix())
	}

	query := `
		SELECT id, title, description, status, priority, due_ts, completed_ts, created_ts, updated_ts
		FROM task
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
		return nil, errors.Wrap(err, "failed to list tasks")
	}
	defer rows.Close()

	list := []*store.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, task)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate tasks")
	}
	return list, nil
}

func (d *DB) UpdateTask(ctx context.Context, update *store.UpdateTask) (*store.Task, error) {
	now := time.Now()
	set, args := []string{"updated_ts = ?"}, []any{now.Unix()}

	if update.Title != nil {
		set, args = append(set, "title = ?"), append(args, *update.Title)
	}
	if update.Description != nil {
		set, args = append(set, "description = ?"), append(args, *update.Description)
	}
	if update.Priority != nil {
		set, args = append(set, "priority = ?"), append(args, *update.Priority)
	}
	if update.DueDate != nil {
		set, args = append(set, "due_ts = ?"), append(args, update.DueDate.Unix())
	}
	if update.Status != nil {
		set, args = append(set, "status = ?"), append(args, *update.Status)
		// Completing stamps completed_ts once; leaving the completed state
		// clears it.
		if *update.Status == store.TaskStatusCompleted {
			set, args = append(set, "completed_ts = COALESCE(completed_ts, ?)"), append(args, now.Unix())
		} else {
			set = append(set, "completed_ts = NULL")
		}
	}

	args = append(args, update.ID)
	result, err := d.db.ExecContext(ctx, "UPDATE task SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update task")
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, errors.Errorf("task %s not found", update.ID)
	}

	tasks, err := d.ListTasks(ctx, &store.FindTask{ID: &update.ID})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, errors.Errorf("task %s not found", update.ID)
	}
	return tasks[0], nil
}

func (d *DB) DeleteTask(ctx context.Context, id string) error {
	result, err := d.db.ExecContext(ctx, "DELETE FROM task WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "failed to delete task")
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return errors.Errorf("task %s not found", id)
	}
	return nil
}

func (d *DB) GetTaskStatistics(ctx context.Context, now time.Time) (*store.TaskStatistics, error) {
	query := `
		SELECT
			COUNT(*),
			SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status IN ('todo', 'in_progress') THEN 1 ELSE 0 END),
			SUM(CASE WHEN due_ts IS NOT NULL AND due_ts < ? AND status != 'completed' THEN 1 ELSE 0 END)
		FROM task
	`
	stats := store.TaskStatistics{}
	var completed, pending, overdue sql.NullInt64
	if err := d.db.QueryRowContext(ctx, query, now.Unix()).Scan(&stats.Total, &completed, &pending, &overdue); err != nil {
		return nil, errors.Wrap(err, "failed to get task statistics")
	}
	stats.Completed = int(completed.Int64)
	stats.Pending = int(pending.Int64)
	stats.Overdue = int(overdue.Int64)
	return &stats, nil
}

func scanTask(rows *sql.Rows) (*store.Task, error) {
	var task store.Task
	var description sql.NullString
	var dueTs, completedTs sql.NullInt64
	var createdTs, updatedTs int64
	if err := rows.Scan(
		&task.ID,
		&task.Title,
		&description,
		&task.Status,
		&task.Priority,
		&dueTs,
		&completedTs,
		&createdTs,
		&updatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan task")
	}
	task.Description = stringPtr(description)
	task.DueDate = timePtr(dueTs)
	task.CompletedAt = timePtr(completedTs)
	task.CreatedAt = time.Unix(createdTs, 0).UTC()
	task.UpdatedAt = time.Unix(updatedTs, 0).UTC()
	return &task, nil
}
