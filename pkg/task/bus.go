package task

import (
	"context"
	"sync"
)

// EventKind classifies a task change.
type EventKind string

const (
	EventCreated       EventKind = "task.created"
	EventAssigned      EventKind = "task.assigned"
	EventStatusChanged EventKind = "task.status_changed"
)

// Event describes one committed task mutation.
type Event struct {
	Kind EventKind
	Task Task
	From Status
	To   Status
}

// Bus wraps a Store with in-process fan-out notification. Subscribers receive
// an Event after each successful create, assign or status change.
type Bus struct {
	Store
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewBus creates a Bus wrapping the given store.
func NewBus(store Store) *Bus {
	return &Bus{
		Store: store,
		subs:  make(map[chan Event]struct{}),
	}
}

// Create delegates to the underlying store, then fans out.
func (b *Bus) Create(ctx context.Context, t *Task) (*Task, error) {
	created, err := b.Store.Create(ctx, t)
	if err != nil {
		return nil, err
	}
	b.publish(Event{Kind: EventCreated, Task: *created, To: created.Status})
	return created, nil
}

// Assign delegates to the underlying store, then fans out.
func (b *Bus) Assign(ctx context.Context, id, taskerID string) (*Task, error) {
	t, err := b.Store.Assign(ctx, id, taskerID)
	if err != nil {
		return nil, err
	}
	b.publish(Event{Kind: EventAssigned, Task: *t, From: StatusCreated, To: t.Status})
	return t, nil
}

// UpdateStatus delegates to the underlying store, then fans out.
func (b *Bus) UpdateStatus(ctx context.Context, id string, next Status, note string) (*Task, error) {
	before, err := b.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := b.Store.UpdateStatus(ctx, id, next, note)
	if err != nil {
		return nil, err
	}
	b.publish(Event{Kind: EventStatusChanged, Task: *t, From: before.Status, To: t.Status})
	return t, nil
}

func (b *Bus) publish(e Event) {
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// subscriber is behind; drop to avoid blocking the mutation
		}
	}
	b.mu.RUnlock()
}

// Subscribe returns a buffered channel that receives all new events.
func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, 64)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}
