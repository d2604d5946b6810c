package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store. Every mutation runs under a single mutex,
// so no two read-modify-write sequences interleave on the same record. Reads
// return copies, never aliases into the store.
//
// Intended for tests and for running the server without a database; Reset
// empties it between test cases.
type MemStore struct {
	mu      sync.Mutex
	order   []string // insertion order, preserved by List
	byID    map[string]*Task
	history map[string][]HistoryEntry
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	s := &MemStore{}
	s.reset()
	return s
}

func (s *MemStore) reset() {
	s.order = nil
	s.byID = make(map[string]*Task)
	s.history = make(map[string][]HistoryEntry)
}

// Reset discards all tasks and history.
func (s *MemStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// EnsureTable is a no-op for the in-memory store.
func (s *MemStore) EnsureTable(ctx context.Context) error { return nil }

// Create inserts a new task, assigning its id, status and timestamps.
func (s *MemStore) Create(ctx context.Context, t *Task) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Truncate(time.Microsecond)
	cp := *t
	cp.ID = uuid.Must(uuid.NewV7()).String()
	cp.Status = StatusCreated
	cp.TaskerID = nil
	cp.CreatedAt = now
	cp.UpdatedAt = now
	if cp.Priority == "" {
		cp.Priority = DefaultPriority
	}
	if cp.Currency == "" {
		cp.Currency = Currency
	}

	s.byID[cp.ID] = &cp
	s.order = append(s.order, cp.ID)
	s.appendHistory(cp.ID, "", StatusCreated, "", now)

	out := cp
	return &out, nil
}

// Get retrieves a single task by id.
func (s *MemStore) Get(ctx context.Context, id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// List filters the store snapshot and returns one page in insertion order.
func (s *MemStore) List(ctx context.Context, f Filter, p PageRequest) (*Page, error) {
	p, err := p.normalize()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Task
	for _, id := range s.order {
		if t := s.byID[id]; f.matches(t) {
			matched = append(matched, *t)
		}
	}

	total := len(matched)
	start := (p.Page - 1) * p.Limit
	end := start + p.Limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	items := make([]Task, end-start)
	copy(items, matched[start:end])

	return &Page{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: totalPages(total, p.Limit),
	}, nil
}

// Update applies field changes. Status is not updatable here; see UpdateStatus.
func (s *MemStore) Update(ctx context.Context, id string, u Update) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.ScheduledAt != nil {
		t.ScheduledAt = *u.ScheduledAt
	}
	if u.DurationEstMins != nil {
		t.DurationEstMins = *u.DurationEstMins
	}
	if u.PriceGHS != nil {
		t.PriceGHS = *u.PriceGHS
	}
	if u.PlatformFeeGHS != nil {
		t.PlatformFeeGHS = *u.PlatformFeeGHS
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.IsUrgent != nil {
		t.IsUrgent = *u.IsUrgent
	}
	if u.Location != nil {
		t.Location = *u.Location
	}
	t.UpdatedAt = time.Now().Truncate(time.Microsecond)

	cp := *t
	return &cp, nil
}

// UpdateStatus moves a task along the lifecycle. A target that is not an
// allowed next status fails with a TransitionError and leaves the task
// unmodified.
func (s *MemStore) UpdateStatus(ctx context.Context, id string, next Status, note string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !t.Status.CanTransition(next) {
		return nil, &TransitionError{From: t.Status, To: next}
	}

	now := time.Now().Truncate(time.Microsecond)
	s.appendHistory(id, t.Status, next, note, now)
	t.Status = next
	t.UpdatedAt = now

	cp := *t
	return &cp, nil
}

// Assign sets the tasker and advances CREATED -> ASSIGNED. Any other current
// status fails with a TransitionError.
func (s *MemStore) Assign(ctx context.Context, id, taskerID string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if t.Status != StatusCreated {
		return nil, &TransitionError{From: t.Status, To: StatusAssigned}
	}

	now := time.Now().Truncate(time.Microsecond)
	s.appendHistory(id, t.Status, StatusAssigned, "assigned to "+taskerID, now)
	t.TaskerID = &taskerID
	t.Status = StatusAssigned
	t.UpdatedAt = now

	cp := *t
	return &cp, nil
}

// Delete removes a task. Only tasks that never started (CREATED) or already
// ended in cancellation may be deleted.
func (s *MemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if t.Status != StatusCreated && t.Status != StatusCancelled {
		return &StateError{Status: t.Status, Op: "delete"}
	}

	delete(s.byID, id)
	delete(s.history, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// History returns the task's audit trail in chronological order.
func (s *MemStore) History(ctx context.Context, id string) ([]HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return nil, ErrNotFound
	}
	entries := s.history[id]
	out := make([]HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// Count returns the number of stored tasks.
func (s *MemStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID), nil
}

func (s *MemStore) appendHistory(taskID string, from, to Status, note string, at time.Time) {
	s.history[taskID] = append(s.history[taskID], HistoryEntry{
		ID:     uuid.Must(uuid.NewV7()).String(),
		TaskID: taskID,
		From:   from,
		To:     to,
		Note:   note,
		At:     at,
	})
}
