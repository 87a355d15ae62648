package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/echoapp/echo/store"
)

func (d *DB) CreateEvent(ctx context.Context, create *store.Event) (*store.Event, error) {
	now := time.Now()
	query := `
		INSERT INTO event (id, title, description, location, start_ts, end_ts, all_day, event_type, status, task_id, habit_id, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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
		return nil, errors.Wrap(err, "failed to create event")
	}

	create.CreatedAt = now.UTC()
	create.UpdatedAt = now.UTC()
	return create, nil
}

func (d *DB) ListEvents(ctx context.Context, find *store.FindEvent) ([]*store.Event, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.EventType != nil {
		where, args = append(where, "event_type = ?"), append(args, *find.EventType)
	}
	if find.Status != nil {
		where, args = append(where, "status = ?"), append(args, *find.Status)
	}
	if find.From != nil {
		where, args = append(where, "start_ts >= ?"), append(args, find.From.Unix())
	}
	if find.To != nil {
		where, args = append(where, "start_ts <= ?"), append(args, find.To.Unix())
	}
	if find.OverlapFrom != nil {
		where, args = append(where, "end_ts >= ?"), append(args, find.OverlapFrom.Unix())
	}
	if find.OverlapTo != nil {
		where, args = append(where, "start_ts < ?"), append(args, find.OverlapTo.Unix())
	}

	query := `
		SELECT id, title, description, location, start_ts, end_ts, all_day, event_type, status, task_id, habit_id, created_ts, updated_ts
		FROM event
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY start_ts ASC`
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
		return nil, errors.Wrap(err, "failed to list events")
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
			return nil, errors.Wrap(err, "failed to scan event")
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
		return nil, errors.Wrap(err, "failed to iterate events")
	}
	return list, nil
}

func (d *DB) UpdateEvent(ctx context.Context, update *store.UpdateEvent) (*store.Event, error) {
	set, args := []string{"updated_ts = ?"}, []any{time.Now().Unix()}

	if update.Title != nil {
		set, args = append(set, "title = ?"), append(args, *update.Title)
	}
	if update.Description != nil {
		set, args = append(set, "description = ?"), append(args, *update.Description)
	}
	if update.Location != nil {
		set, args = append(set, "location = ?"), append(args, *update.Location)
	}
	if update.StartTime != nil {
		set, args = append(set, "start_ts = ?"), append(args, update.StartTime.Unix())
	}
	if update.EndTime != nil {
		set, args = append(set, "end_ts = ?"), append(args, update.EndTime.Unix())
	}
	if update.AllDay != nil {
		set, args = append(set, "all_day = ?"), append(args, *update.AllDay)
	}
	if update.EventType != nil {
		set, args = append(set, "event_type = ?"), append(args, *update.EventType)
	}
	if update.Status != nil {
		set, args = append(set, "status = ?"), append(args, *update.Status)
	}

	args = append(args, update.ID)
	result, err := d.db.ExecContext(ctx, "UPDATE event SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update event")
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, errors.Errorf("event %s not found", update.ID)
	}

	events, err := d.ListEvents(ctx, &store.FindEvent{ID: &update.ID})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, errors.Errorf("event %s not found", update.ID)
	}
	return events[0], nil
}

func (d *DB) DeleteEvent(ctx context.Context, id string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM event_reminder WHERE event_id = ?", id); err != nil {
		return errors.Wrap(err, "failed to delete event reminders")
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM event WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "failed to delete event")
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return errors.Errorf("event %s not found", id)
	}

	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}

func (d *DB) CountEventsByType(ctx context.Context) (map[store.EventType]int, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT event_type, COUNT(*) FROM event GROUP BY event_type")
	if err != nil {
		return nil, errors.Wrap(err, "failed to count events by type")
	}
	defer rows.Close()

	counts := map[store.EventType]int{}
	for rows.Next() {
		var eventType store.EventType
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, errors.Wrap(err, "failed to scan event count")
		}
		counts[eventType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate event counts")
	}
	return counts, nil
}

func (d *DB) CreateEventReminder(ctx context.Context, create *store.EventReminder) (*store.EventReminder, error) {
	now := time.Now()
	query := `
		INSERT INTO event_reminder (id, event_id, minutes_before, method, sent, sent_ts, created_ts)
		VALUES (?, ?, ?, ?, 0, NULL, ?)
	`
	if _, err := d.db.ExecContext(ctx, query,
		create.ID,
		create.EventID,
		create.MinutesBefore,
		create.Method,
		now.Unix(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to create event reminder")
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
		WHERE event_id = ?
		ORDER BY minutes_before ASC`
	rows, err := d.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list event reminders")
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
		WHERE r.sent = 0
			AND e.status = ?
			AND e.start_ts > ?
			AND e.start_ts - ? <= r.minutes_before * 60
		ORDER BY e.start_ts ASC`
	rows, err := d.db.QueryContext(ctx, query, store.EventStatusScheduled, checkTime.Unix(), checkTime.Unix())
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending event reminders")
	}
	defer rows.Close()
	return scanEventReminders(rows)
}

func (d *DB) MarkEventReminderSent(ctx context.Context, id string, sentAt time.Time) error {
	result, err := d.db.ExecContext(ctx,
		"UPDATE event_reminder SET sent = 1, sent_ts = ? WHERE id = ?",
		sentAt.Unix(), id)
	if err != nil {
		return errors.Wrap(err, "failed to mark event reminder sent")
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return errors.Errorf("event reminder %s not found", id)
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
			return nil, errors.Wrap(err, "failed to scan event reminder")
		}
		reminder.SentAt = timePtr(sentTs)
		reminder.CreatedAt = time.Unix(createdTs, 0).UTC()
		list = append(list, &reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate event reminders")
	}
	return list, nil
}
