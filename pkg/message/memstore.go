package message

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory message store for tests and database-less runs.
type MemStore struct {
	mu     sync.Mutex
	byTask map[string][]*Message
	byID   map[string]*Message
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	s := &MemStore{}
	s.reset()
	return s
}

func (s *MemStore) reset() {
	s.byTask = make(map[string][]*Message)
	s.byID = make(map[string]*Message)
}

// Reset discards all messages.
func (s *MemStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// EnsureTable is a no-op for the in-memory store.
func (s *MemStore) EnsureTable(ctx context.Context) error { return nil }

// Create appends a message to its task's thread.
func (s *MemStore) Create(ctx context.Context, m *Message) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *m
	cp.ID = uuid.Must(uuid.NewV7()).String()
	cp.CreatedAt = time.Now().Truncate(time.Microsecond)
	if cp.Type == "" {
		cp.Type = "text"
	}
	s.byTask[cp.TaskID] = append(s.byTask[cp.TaskID], &cp)
	s.byID[cp.ID] = &cp

	out := cp
	return &out, nil
}

// ByTask returns a task's thread in chronological order.
func (s *MemStore) ByTask(ctx context.Context, taskID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.byTask[taskID]
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = *m
	}
	return out, nil
}

// MarkRead flags a message as read.
func (s *MemStore) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	m.IsRead = true
	return nil
}
