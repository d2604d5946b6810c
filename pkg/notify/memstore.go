package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory notification store for tests and database-less
// runs.
type MemStore struct {
	mu     sync.Mutex
	byUser map[string][]*Notification
	byID   map[string]*Notification
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	s := &MemStore{}
	s.reset()
	return s
}

func (s *MemStore) reset() {
	s.byUser = make(map[string][]*Notification)
	s.byID = make(map[string]*Notification)
}

// Reset discards all notifications.
func (s *MemStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// EnsureTable is a no-op for the in-memory store.
func (s *MemStore) EnsureTable(ctx context.Context) error { return nil }

// Create records a notification.
func (s *MemStore) Create(ctx context.Context, n *Notification) (*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *n
	cp.ID = uuid.Must(uuid.NewV7()).String()
	cp.CreatedAt = time.Now().Truncate(time.Microsecond)
	if cp.Priority == "" {
		cp.Priority = "normal"
	}
	s.byUser[cp.UserID] = append(s.byUser[cp.UserID], &cp)
	s.byID[cp.ID] = &cp

	out := cp
	return &out, nil
}

// ByUser returns a user's notifications, newest first.
func (s *MemStore) ByUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes := s.byUser[userID]
	out := make([]Notification, 0, len(notes))
	for i := len(notes) - 1; i >= 0; i-- {
		out = append(out, *notes[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// MarkRead flags a notification as read.
func (s *MemStore) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	n.IsRead = true
	return nil
}

// UnreadCount returns how many of a user's notifications are unread.
func (s *MemStore) UnreadCount(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, n := range s.byUser[userID] {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}
