package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/echoapp/echo/store"
)

func (d *DB) CreateChatMessage(ctx context.Context, create *store.ChatMessage) (*store.ChatMessage, error) {
	now := time.Now()
	query := `
		INSERT INTO chat_message (id, message, response, context_data, response_time_ms, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6)
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
		return nil, fmt.Errorf("failed to create chat message: %w", err)
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
		query += " LIMIT $1"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
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
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
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
		return nil, fmt.Errorf("failed to iterate chat messages: %w", err)
	}
	return list, nil
}
