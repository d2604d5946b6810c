package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed notification store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the notifications table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS notifications (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			type       TEXT NOT NULL,
			title      TEXT NOT NULL,
			message    TEXT NOT NULL DEFAULT '',
			priority   TEXT NOT NULL DEFAULT 'normal',
			is_read    BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC)`)
	return err
}

// Create records a notification.
func (s *PgStore) Create(ctx context.Context, n *Notification) (*Notification, error) {
	cp := *n
	cp.ID = uuid.Must(uuid.NewV7()).String()
	cp.CreatedAt = time.Now().Truncate(time.Microsecond)
	if cp.Priority == "" {
		cp.Priority = "normal"
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, priority, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		cp.ID, cp.UserID, cp.Type, cp.Title, cp.Message, cp.Priority, cp.IsRead, cp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return &cp, nil
}

// ByUser returns a user's notifications, newest first.
func (s *PgStore) ByUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, type, title, message, priority, is_read, created_at
		FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("notifications by user: %w", err)
	}
	defer rows.Close()

	notes := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Priority, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return notes, nil
}

// MarkRead flags a notification as read.
func (s *PgStore) MarkRead(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark read %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UnreadCount returns how many of a user's notifications are unread.
func (s *PgStore) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID).Scan(&n)
	return n, err
}
