package message

import (
	"context"
	"testing"
)

func TestCreateAndListThread(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	first, err := s.Create(ctx, &Message{TaskID: "t1", SenderID: "client-1", Content: "hello"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Fatalf("id and timestamp should be assigned: %+v", first)
	}
	if first.Type != "text" {
		t.Errorf("type should default to text, got %q", first.Type)
	}
	if first.IsRead {
		t.Error("new message should be unread")
	}

	if _, err := s.Create(ctx, &Message{TaskID: "t1", SenderID: "tasker-1", Content: "hi", Type: "image"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create(ctx, &Message{TaskID: "t2", SenderID: "client-2", Content: "other thread"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	msgs, err := s.ByTask(ctx, "t1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("thread t1 should have 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "hello" || msgs[1].Content != "hi" {
		t.Fatalf("thread should be chronological: %+v", msgs)
	}
	if msgs[1].Type != "image" {
		t.Errorf("explicit type should be kept, got %q", msgs[1].Type)
	}
}

func TestByTaskEmpty(t *testing.T) {
	s := NewMemStore()
	msgs, err := s.ByTask(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("unknown task should have an empty thread, got %d", len(msgs))
	}
}

func TestMarkRead(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	m, err := s.Create(ctx, &Message{TaskID: "t1", SenderID: "client-1", Content: "hello"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.MarkRead(ctx, m.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	msgs, _ := s.ByTask(ctx, "t1")
	if !msgs[0].IsRead {
		t.Error("message should be read")
	}

	if err := s.MarkRead(ctx, "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListDoesNotAlias(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	if _, err := s.Create(ctx, &Message{TaskID: "t1", SenderID: "client-1", Content: "hello"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	msgs, _ := s.ByTask(ctx, "t1")
	msgs[0].Content = "tampered"

	again, _ := s.ByTask(ctx, "t1")
	if again[0].Content != "hello" {
		t.Fatal("caller mutation leaked into the store")
	}
}
