// Package notify records user-facing notifications. Records are written by a
// task-bus watcher and read back over polling REST; nothing is pushed.
package notify

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound means no notification exists with the given id.
var ErrNotFound = errors.New("notification not found")

// Notification is one entry in a user's notification feed.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Priority  string    `json:"priority"` // low, normal, high
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the contract for notification persistence.
type Store interface {
	Create(ctx context.Context, n *Notification) (*Notification, error)
	ByUser(ctx context.Context, userID string, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, id string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
	EnsureTable(ctx context.Context) error
}
