package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/echoapp/echo/store"
)

func (d *DB) CreateChatMessage(ctx context.Context, create *store.ChatMessage) (*store.ChatMessage, error) {
	now := time.Now()
	query := `
		INSERT INTO chat_message (id, message, response, context_data, response_time_ms, created_ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	var responseTimeMs sql.NullInt64
	if create.ResponseTimeMs != nil {
		responseTimeMs = sql.NullInt64{Int64: int64(*create.ResponseTimeMs), Valid: true}
	}
	if _, err := d.db.ExecContext(ctx, query,
		create.ID,
		create.Message,
		create.Response,
		nullString(create.ContextData),
		responseTimeMs,
		now.Unix(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to create chat message")
	}

	create.CreatedAt = now.UTC()
	return create, nil
}

func (d *DB) ListChatMessages(ctx context.Context, find *store.FindChatMessage) ([]*store.ChatMessage, error) {
	query := `
		SELECT id, message, response, context_data, response_time_ms, created_ts
		FROM chat_message
		ORDER BY created_ts DESC`
	args := []any{}
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chat messages")
	}
	defer rows.Close()

	list := []*store.ChatMessage{}
	for rows.Next() {
		var message store.ChatMessage
		var contextData sql.NullString
		var responseTimeMs sql.NullInt64
		var createdTs int64
		if err := rows.Scan(
			&message.ID,
			&message.Message,
			&message.Response,
			&contextData,
			&responseTimeMs,
			&createdTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan chat message")
		}
		message.ContextData = stringPtr(contextData)
		if responseTimeMs.Valid {
			ms := int(responseTimeMs.Int64)
			message.ResponseTimeMs = &ms
		}
		message.CreatedAt = time.Unix(createdTs, 0).UTC()
		list = append(list, &message)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate chat messages")
	}
	return list, nil
}
