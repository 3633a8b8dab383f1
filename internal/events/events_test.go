package events

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestEventJSONKeepsAmountAsString(t *testing.T) {
	e := New(TransactionRecorded, "user-1", "transaction", "tx-1")
	e.Amount = "1500.25"
	body, err := e.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := FromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Amount != "1500.25" || got.Type != TransactionRecorded || got.EntityID != "tx-1" {
		t.Fatalf("unexpected event: %#v", got)
	}
	if _, err := FromJSON([]byte("{")); err == nil {
		t.Fatal("expected malformed json to fail")
	}
}

func TestLocalPublishesToEverySubscriber(t *testing.T) {
	bus := NewLocal()
	var calls int32
	boom := errors.New("boom")
	bus.Subscribe(func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return boom
	})
	bus.Subscribe(func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	err := bus.Publish(context.Background(), New(GoalContributed, "user-1", "goal", "goal-1"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined handler error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected both handlers to run, got %d", calls)
	}
}

func TestDiscardPublisher(t *testing.T) {
	var p Publisher = Discard{}
	if err := p.Publish(context.Background(), Event{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{12, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{nil, false},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("unexpected EOF"), true},
		{errors.New("write: broken pipe"), true},
		{errors.New("invalid input"), false},
	}
	for _, tt := range tests {
		if got := isConnectionError(tt.err); got != tt.expected {
			t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
		}
	}
}

func TestCircuitBreaker(t *testing.T) {
	client := &AMQPClient{exchangeName: "auditline", queueName: "ledger_events"}

	if client.isCircuitOpen() {
		t.Fatal("circuit should start closed")
	}
	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	if !client.isCircuitOpen() {
		t.Fatal("circuit should open after max failures")
	}
	err := client.Publish(context.Background(), New(TransactionRecorded, "user-1", "transaction", "tx-1"))
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	if client.isCircuitOpen() {
		t.Fatal("circuit should half-open after the timeout")
	}
	if atomic.LoadInt32(&client.state) != StateHalfOpen {
		t.Fatalf("expected half-open state, got %d", client.state)
	}
	client.recordFailure()
	if atomic.LoadInt32(&client.state) != StateOpen {
		t.Fatal("a failure while half-open should reopen the circuit")
	}
	client.recordSuccess()
	if client.isCircuitOpen() || atomic.LoadInt64(&client.failureCount) != 0 {
		t.Fatal("success should close the circuit and reset failures")
	}
}
