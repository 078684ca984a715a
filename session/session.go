// Package session abstracts chat-history storage behind a small interface so
// handlers never touch process-wide shared state directly.
package session

import (
	"context"
	"time"
)

// Roles used in stored chat history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one stored chat turn.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists per-session chat history. Get on an unknown session returns
// an empty history, not an error; sessions come into existence on first
// Append.
type Store interface {
	Get(ctx context.Context, id string) ([]Message, error)
	Append(ctx context.Context, id string, msgs ...Message) error
}
