package notify

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"taskhub/pkg/task"
)

func runWatch(t *testing.T, store Store, events []task.Event) {
	t.Helper()
	ch := make(chan task.Event)
	done := make(chan struct{})
	log := logrus.New()
	log.SetOutput(io.Discard)

	go func() {
		Watch(context.Background(), ch, store, log)
		close(done)
	}()
	for _, e := range events {
		ch <- e
	}
	close(ch)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop after channel close")
	}
}

func TestWatchCreatedNotifiesClient(t *testing.T) {
	store := NewMemStore()
	runWatch(t, store, []task.Event{{
		Kind: task.EventCreated,
		Task: task.Task{ID: "t1", ClientID: "c1", Title: "Fix leaking tap"},
	}})

	notes, _ := store.ByUser(context.Background(), "c1", 0)
	if len(notes) != 1 {
		t.Fatalf("client should get one notification, got %d", len(notes))
	}
	if notes[0].Type != string(task.EventCreated) || notes[0].Priority != "normal" {
		t.Fatalf("unexpected notification: %+v", notes[0])
	}
}

func TestWatchAssignedNotifiesBothParties(t *testing.T) {
	store := NewMemStore()
	tasker := "w1"
	runWatch(t, store, []task.Event{{
		Kind: task.EventAssigned,
		Task: task.Task{ID: "t1", ClientID: "c1", TaskerID: &tasker, Title: "Fix leaking tap"},
		From: task.StatusCreated,
		To:   task.StatusAssigned,
	}})

	ctx := context.Background()
	if notes, _ := store.ByUser(ctx, "c1", 0); len(notes) != 1 {
		t.Fatalf("client should get one notification, got %d", len(notes))
	}
	notes, _ := store.ByUser(ctx, "w1", 0)
	if len(notes) != 1 {
		t.Fatalf("tasker should get one notification, got %d", len(notes))
	}
	if notes[0].Title != "Task assigned to you" {
		t.Fatalf("unexpected tasker notification: %+v", notes[0])
	}
}

func TestWatchUrgentTaskIsHighPriority(t *testing.T) {
	store := NewMemStore()
	runWatch(t, store, []task.Event{{
		Kind: task.EventCreated,
		Task: task.Task{ID: "t1", ClientID: "c1", Title: "Burst pipe", IsUrgent: true},
	}})

	notes, _ := store.ByUser(context.Background(), "c1", 0)
	if len(notes) != 1 || notes[0].Priority != "high" {
		t.Fatalf("urgent task should raise a high-priority notification: %+v", notes)
	}
}

func TestWatchStatusChangeBeforeAssignment(t *testing.T) {
	store := NewMemStore()
	runWatch(t, store, []task.Event{{
		Kind: task.EventStatusChanged,
		Task: task.Task{ID: "t1", ClientID: "c1", Title: "Fix leaking tap"},
		From: task.StatusAssigned,
		To:   task.StatusCancelled,
	}})

	// no tasker on record means only the client hears about it
	notes, _ := store.ByUser(context.Background(), "c1", 0)
	if len(notes) != 1 {
		t.Fatalf("client should get one notification, got %d", len(notes))
	}
}

func TestWatchStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan task.Event)
	done := make(chan struct{})
	log := logrus.New()
	log.SetOutput(io.Discard)

	go func() {
		Watch(ctx, ch, NewMemStore(), log)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}
