package store

import (
	"context"
	"time"
)

// ChatMessage is one exchange with the assistant: the user's message, the
// generated response, and the JSON-encoded productivity context the response
// was grounded on.
type ChatMessage struct {
	ID             string
	Message        string
	Response       string
	ContextData    *string
	ResponseTimeMs *int
	CreatedAt      time.Time
}

// FindChatMessage filters chat history, newest first.
type FindChatMessage struct {
	Limit *int
}

func (s *Store) CreateChatMessage(ctx context.Context, create *ChatMessage) (*ChatMessage, error) {
	return s.driver.CreateChatMessage(ctx, create)
}

func (s *Store) ListChatMessages(ctx context.Context, find *FindChatMessage) ([]*ChatMessage, error) {
	return s.driver.ListChatMessages(ctx, find)
}
