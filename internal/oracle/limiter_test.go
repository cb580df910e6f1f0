package oracle

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewRateLimited_DisabledReturnsNext(t *testing.T) {
	next := &MockClient{}
	if got := NewRateLimited(next, 0, 5); got != Client(next) {
		t.Errorf("NewRateLimited with rate 0 = %T, want the wrapped client", got)
	}
}

func TestRateLimited_WaitHonoursContext(t *testing.T) {
	next := &MockClient{GenerateFunc: reply("ok")}
	c := NewRateLimited(next, 0.01, 1)

	if out, err := c.Generate(context.Background(), Prompt{}); err != nil || out != "ok" {
		t.Fatalf("first call = %q, %v", out, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Generate(ctx, Prompt{})
	if err == nil {
		t.Fatal("second call should fail waiting for a token")
	}
	if len(next.calls) != 1 {
		t.Errorf("wrapped client called %d times, want 1", len(next.calls))
	}
}

func TestRateLimited_CancelledContext(t *testing.T) {
	next := &MockClient{}
	c := NewRateLimited(next, 1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Generate(ctx, Prompt{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
