package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/echoapp/echo/store"
)

func (d *DB) CreateEvent(ctx context.Context, create *store.Event) (*store.Event, error) {
	now := time.Now()
	query := `
		INSERT INTO event (id, title, description, location, start_ts, end_ts, all_day, event_type, status, task_id, habit_id, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if _, err := d.db.ExecContext(ctx, query,
		create.ID,
		create.Title,
		nullString(create.Description),
		nullString(create.Location),
		create.StartTime.Unix(),
		create.EndTime.Unix(),
		create.AllDay,
		create.EventType,
		create.Status,
		nullString(create.TaskID),
		nullString(create.HabitID),
		now.Unix(),
		now.Unix(),
	); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	create.CreatedAt = now.UTC()
	create.UpdatedAt = now.UTC()
	return create, nil
}

func (d *DB) ListEvents(ctx context.Context, find *store.FindEvent) ([]*store.Event, error) {
	where, args := []string{"1 = 1"}, []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if find.ID != nil {
		where = append(where, "id = "+arg(*find.ID))
	}
	if find.EventType != nil {
		where = append(where, "event_type = "+arg(*find.EventType))
	}
	if find.Status != nil {
		where = append(where, "status = "+arg(*find.Status))
	}
	if find.From != nil {
		where = append(where, "start_ts >= "+arg(find.From.Unix()))
	}
	if find.To != nil {
		where = append(where, "start_ts <= "+arg(find.To.Unix()))
	}
	if find.OverlapFrom != nil {
		where = append(where, "end_ts >= "+arg(find.OverlapFrom.Unix()))
	}
	if find.OverlapTo != nil {
		where = append(where, "start_ts < "+arg(find.OverlapTo.Unix()))
	}

	query := `
		SELECT id, title, description, location, start_ts, end_ts, all_day, event_type, status, task_id, habit_id, created_ts, updated_ts
		FROM event
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY start_ts ASC`
	if find.Limit != nil {
		query += " LIMIT " + arg(*find.Limit)
		if find.Offset != nil {
			query += " OFFSET " + arg(*find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	list := []*store.Event{}
	for rows.Next() {
		var event store.Event
		var description, location, taskID, habitID sql.NullString
		var startTs, endTs, createdTs, updatedTs int64
		if err := rows.Scan(
			&event.ID,
			&event.Title,
			&description,
			&location,
			&startTs,
			&endTs,
			&event.AllDay,
			&event.EventType,
			&event.Status,
			&taskID,
			&habitID,
			&createdTs,
			&updatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		event.Description = stringPtr(description)
		event.Location = stringPtr(location)
		event.TaskID = stringPtr(taskID)
		event.HabitID = stringPtr(habitID)
		event.StartTime = time.Unix(startTs, 0).UTC()
		event.EndTime = time.Unix(endTs, 0).UTC()
		event.CreatedAt = time.Unix(createdTs, 0).UTC()
		event.UpdatedAt = time.Unix(updatedTs, 0).UTC()
		list = append(list, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateEvent(ctx context.Context, update *store.UpdateEvent) (*store.Event, error) {
	set, args := []string{}, []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	set = append(set, "updated_ts = "+arg(time.Now().Unix()))

	if update.Title != nil {
		set = append(set, "title = "+arg(*update.Title))
	}
	if update.Description != nil {
		set = append(set, "description = "+arg(*update.Description))
	}
	if update.Location != nil {
		set = append(set, "location = "+arg(*update.Location))
	}
	if update.StartTime != nil {
		set = append(set, "start_ts = "+arg(update.StartTime.Unix()))
	}
	if update.EndTime != nil {
		set = append(set, "end_ts = "+arg(update.EndTime.Unix()))
	}
	if update.AllDay != nil {
		set = append(set, "all_day = "+arg(*update.AllDay))
	}
	if update.EventType != nil {
		set = append(set, "event_type = "+arg(*update.EventType))
	}
	if update.Status != nil {
		set = append(set, "status = "+arg(*update.Status))
	}

	query := "UPDATE event SET " + strings.Join(set, ", ") + " WHERE id = " + arg(update.ID)
	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("event %s not found", update.ID)
	}

	events, err := d.ListEvents(ctx, &store.FindEvent{ID: &update.ID})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("event %s not found", update.ID)
	}
	return events[0], nil
}

func (d *DB) DeleteEvent(ctx context.Context, id string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM event_reminder WHERE event_id = $1", id); err != nil {
		return fmt.Errorf("failed to delete event reminders: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM event WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("event %s not found", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (d *DB) CountEventsByType(ctx context.Context) (map[store.EventType]int, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT event_type, COUNT(*) FROM event GROUP BY event_type")
	if err != nil {
		return nil, fmt.Errorf("failed to count events by type: %w", err)
	}
	defer rows.Close()

	counts := map[store.EventType]int{}
	for rows.Next() {
		var eventType store.EventType
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[eventType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event counts: %w", err)
	}
	return counts, nil
}

func (d *DB) CreateEventReminder(ctx context.Context, create *store.EventReminder) (*store.EventReminder, error) {
	now := time.Now()
	query := `
		INSERT INTO event_reminder (id, event_id, minutes_before, method, sent, sent_ts, created_ts)
		VALUES ($1, $2, $3, $4, FALSE, NULL, $5)
	`
	if _, err := d.db.ExecContext(ctx, query,
		create.ID,
		create.EventID,
		create.MinutesBefore,
		create.Method,
		now.Unix(),
	); err != nil {
		return nil, fmt.Errorf("failed to create event reminder: %w", err)
	}

	create.Sent = false
	create.SentAt = nil
	create.CreatedAt = now.UTC()
	return create, nil
}

func (d *DB) ListEventReminders(ctx context.Context, eventID string) ([]*store.EventReminder, error) {
	query := `
		SELECT id, event_id, minutes_before, method, sent, sent_ts, created_ts
		FROM event_reminder
		WHERE event_id = $1
		ORDER BY minutes_before ASC`
	rows, err := d.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event reminders: %w", err)
	}
	defer rows.Close()
	return scanEventReminders(rows)
}

// ListPendingEventReminders selects unsent reminders of scheduled events
// whose start lies after checkTime but within the reminder's lead window.
func (d *DB) ListPendingEventReminders(ctx context.Context, checkTime time.Time) ([]*store.EventReminder, error) {
	query := `
		SELECT r.id, r.event_id, r.minutes_before, r.method, r.sent, r.sent_ts, r.created_ts
		FROM event_reminder r
		JOIN event e ON e.id = r.event_id
		WHERE NOT r.sent
			AND e.status = $1
			AND e.start_ts > $2
			AND e.start_ts - $2 <= r.minutes_before * 60
		ORDER BY e.start_ts ASC`
	rows, err := d.db.QueryContext(ctx, query, store.EventStatusScheduled, checkTime.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list pending event reminders: %w", err)
	}
	defer rows.Close()
	return scanEventReminders(rows)
}

func (d *DB) MarkEventReminderSent(ctx context.Context, id string, sentAt time.Time) error {
	result, err := d.db.ExecContext(ctx,
		"UPDATE event_reminder SET sent = TRUE, sent_ts = $1 WHERE id = $2",
		sentAt.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to mark event reminder sent: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("event reminder %s not found", id)
	}
	return nil
}

func scanEventReminders(rows *sql.Rows) ([]*store.EventReminder, error) {
	list := []*store.EventReminder{}
	for rows.Next() {
		var reminder store.EventReminder
		var sentTs sql.NullInt64
		var createdTs int64
		if err := rows.Scan(
			&reminder.ID,
			&reminder.EventID,
			&reminder.MinutesBefore,
			&reminder.Method,
			&reminder.Sent,
			&sentTs,
			&createdTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event reminder: %w", err)
		}
		reminder.SentAt = timePtr(sentTs)
		reminder.CreatedAt = time.Unix(createdTs, 0).UTC()
		list = append(list, &reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event reminders: %w", err)
	}
	return list, nil
}
