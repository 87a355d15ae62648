package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/echoapp/echo/store"
)

func (d *DB) CreateTask(ctx context.Context, create *store.Task) (*store.Task, error) {
	now := time.Now()
	query := `
		INSERT INTO task (id, title, description, status, priority, due_ts, completed_ts, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
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
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	create.CreatedAt = now.UTC()
	create.UpdatedAt = now.UTC()
	return create, nil
}

func (d *DB) ListTasks(ctx context.Context, find *store.FindTask) ([]*store.Task, error) {
	where, args := []string{"1 = 1"}, []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if find.ID != nil {
		where = append(where, "id = "+arg(*find.ID))
	}
	if find.Status != nil {
		where = append(where, "status = "+arg(*find.Status))
	}
	if find.Priority != nil {
		where = append(where, "priority = "+arg(*find.Priority))
	}
	if find.WindowStart != nil && find.WindowEnd != nil {
		startArg, endArg := arg(find.WindowStart.Unix()), arg(find.WindowEnd.Unix())
		where = append(where, fmt.Sprintf(
			"(created_ts BETWEEN %s AND %s OR (completed_ts IS NOT NULL AND completed_ts BETWEEN %s AND %s))",
			startArg, endArg, startArg, endArg,
		))
	}

	query := `
		SELECT id, title, description, status, priority, due_ts, completed_ts, created_ts, updated_ts
		FROM task
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
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	list := []*store.Task{}
	for rows.Next() {
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
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		task.Description = stringPtr(description)
		task.DueDate = timePtr(dueTs)
		task.CompletedAt = timePtr(completedTs)
		task.CreatedAt = time.Unix(createdTs, 0).UTC()
		task.UpdatedAt = time.Unix(updatedTs, 0).UTC()
		list = append(list, &task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateTask(ctx context.Context, update *store.UpdateTask) (*store.Task, error) {
	now := time.Now()
	set, args := []string{}, []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	set = append(set, "updated_ts = "+arg(now.Unix()))

	if update.Title != nil {
		set = append(set, "title = "+arg(*update.Title))
	}
	if update.Description != nil {
		set = append(set, "description = "+arg(*update.Description))
	}
	if update.Priority != nil {
		set = append(set, "priority = "+arg(*update.Priority))
	}
	if update.DueDate != nil {
		set = append(set, "due_ts = "+arg(update.DueDate.Unix()))
	}
	if update.Status != nil {
		set = append(set, "status = "+arg(*update.Status))
		// Completing stamps completed_ts once; leaving the completed state
		// clears it.
		if *update.Status == store.TaskStatusCompleted {
			set = append(set, "completed_ts = COALESCE(completed_ts, "+arg(now.Unix())+")")
		} else {
			set = append(set, "completed_ts = NULL")
		}
	}

	query := "UPDATE task SET " + strings.Join(set, ", ") + " WHERE id = " + arg(update.ID)
	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("task %s not found", update.ID)
	}

	tasks, err := d.ListTasks(ctx, &store.FindTask{ID: &update.ID})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("task %s not found", update.ID)
	}
	return tasks[0], nil
}

func (d *DB) DeleteTask(ctx context.Context, id string) error {
	result, err := d.db.ExecContext(ctx, "DELETE FROM task WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("task %s not found", id)
	}
	return nil
}

func (d *DB) GetTaskStatistics(ctx context.Context, now time.Time) (*store.TaskStatistics, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status IN ('todo', 'in_progress')),
			COUNT(*) FILTER (WHERE due_ts IS NOT NULL AND due_ts < $1 AND status != 'completed')
		FROM task
	`
	stats := store.TaskStatistics{}
	if err := d.db.QueryRowContext(ctx, query, now.Unix()).Scan(
		&stats.Total,
		&stats.Completed,
		&stats.Pending,
		&stats.Overdue,
	); err != nil {
		return nil, fmt.Errorf("failed to get task statistics: %w", err)
	}
	return &stats, nil
}
