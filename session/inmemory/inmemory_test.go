package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/seniormts/seniormts/session"
)

func TestGetUnknownSessionIsEmpty(t *testing.T) {
	s := New()
	msgs, err := s.Get(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("unknown session returned %d messages", len(msgs))
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()
	if err := s.Append(ctx, "abc",
		session.Message{Role: session.RoleUser, Content: "삼성전자 어때?", CreatedAt: now},
		session.Message{Role: session.RoleAssistant, Content: "실적이 좋습니다.", CreatedAt: now},
	); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(ctx, "abc",
		session.Message{Role: session.RoleUser, Content: "더 알려줘", CreatedAt: now},
	); err != nil {
		t.Fatalf("Append: %v", err)
	}

	msgs, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	if msgs[0].Content != "삼성전자 어때?" || msgs[2].Content != "더 알려줘" {
		t.Fatalf("order lost: %v", msgs)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.Append(ctx, "a", session.Message{Role: session.RoleUser, Content: "one"})
	_ = s.Append(ctx, "b", session.Message{Role: session.RoleUser, Content: "two"})

	a, _ := s.Get(ctx, "a")
	b, _ := s.Get(ctx, "b")
	if len(a) != 1 || len(b) != 1 || a[0].Content == b[0].Content {
		t.Fatalf("sessions leaked: a=%v b=%v", a, b)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.Append(ctx, "a", session.Message{Role: session.RoleUser, Content: "original"})

	msgs, _ := s.Get(ctx, "a")
	msgs[0].Content = "mutated"

	again, _ := s.Get(ctx, "a")
	if again[0].Content != "original" {
		t.Fatal("Get must return a copy, not the backing slice")
	}
}

func TestEmptyIDRejected(t *testing.T) {
	s := New()
	if _, err := s.Get(context.Background(), ""); err == nil {
		t.Fatal("expected error for an empty session id on Get")
	}
	if err := s.Append(context.Background(), ""); err == nil {
		t.Fatal("expected error for an empty session id on Append")
	}
}
