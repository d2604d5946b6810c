package message

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed message store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the messages table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id         TEXT PRIMARY KEY,
			task_id    TEXT NOT NULL,
			sender_id  TEXT NOT NULL,
			content    TEXT NOT NULL,
			type       TEXT NOT NULL DEFAULT 'text',
			is_read    BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_messages_task ON messages(task_id, created_at)`)
	return err
}

// Create appends a message to its task's thread.
func (s *PgStore) Create(ctx context.Context, m *Message) (*Message, error) {
	cp := *m
	cp.ID = uuid.Must(uuid.NewV7()).String()
	cp.CreatedAt = time.Now().Truncate(time.Microsecond)
	if cp.Type == "" {
		cp.Type = "text"
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, task_id, sender_id, content, type, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cp.ID, cp.TaskID, cp.SenderID, cp.Content, cp.Type, cp.IsRead, cp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &cp, nil
}

// ByTask returns a task's thread in chronological order.
func (s *PgStore) ByTask(ctx context.Context, taskID string) ([]Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, task_id, sender_id, content, type, is_read, created_at
		FROM messages WHERE task_id = $1 ORDER BY created_at ASC, id ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("messages by task: %w", err)
	}
	defer rows.Close()

	msgs := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.TaskID, &m.SenderID, &m.Content, &m.Type, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return msgs, nil
}

// MarkRead flags a message as read.
func (s *PgStore) MarkRead(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE messages SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark read %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
