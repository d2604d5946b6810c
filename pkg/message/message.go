// Package message holds the per-task message thread. Delivery is
// polling-style REST; there is no push transport.
package message

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound means no message exists with the given id.
var ErrNotFound = errors.New("message not found")

// Message is one entry in a task's thread.
type Message struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	Type      string    `json:"type"` // text, image, system
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the contract for message persistence.
type Store interface {
	Create(ctx context.Context, m *Message) (*Message, error)
	ByTask(ctx context.Context, taskID string) ([]Message, error)
	MarkRead(ctx context.Context, id string) error
	EnsureTable(ctx context.Context) error
}
