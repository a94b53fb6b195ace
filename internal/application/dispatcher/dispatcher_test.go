package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/garyjia/expense-workflow/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu      sync.Mutex
	infos   []string
	errors  []string
	entries []map[string]interface{}
}

func (m *mockLogger) record(level, msg string, keysAndValues []interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := map[string]interface{}{"msg": msg, "level": level}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		entry[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	m.entries = append(m.entries, entry)

	if level == "error" {
		m.errors = append(m.errors, msg)
	} else {
		m.infos = append(m.infos, msg)
	}
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.record("info", msg, keysAndValues)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.record("error", msg, keysAndValues)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func (m *mockLogger) find(msg string) map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e["msg"] == msg {
			return e
		}
	}
	return nil
}

func newTestEvent(t event.Type) *event.Event {
	return event.NewEvent(t, "tenant-a", "expense-1", map[string]interface{}{"actor_id": "u2", "status": "APPROVED"})
}

func TestSubscribe(t *testing.T) {
	t.Run("generates distinct names", func(t *testing.T) {
		d := NewDispatcher()
		noop := func(ctx context.Context, evt *event.Event) error { return nil }

		d.Subscribe(event.TypeExpenseApproved, noop)
		d.Subscribe(event.TypeExpenseApproved, noop)

		handlers := d.ListHandlers(event.TypeExpenseApproved)
		if len(handlers) != 2 {
			t.Fatalf("expected 2 handlers, got %d", len(handlers))
		}
		if handlers[0].Name == handlers[1].Name {
			t.Errorf("expected distinct names, got %q twice", handlers[0].Name)
		}
		if handlers[0].Handler != nil {
			t.Error("ListHandlers should not expose handler funcs")
		}
	})

	t.Run("routes by event type", func(t *testing.T) {
		d := NewDispatcher()
		var approved, rejected int

		d.Subscribe(event.TypeExpenseApproved, func(ctx context.Context, evt *event.Event) error {
			approved++
			return nil
		})
		d.Subscribe(event.TypeExpenseRejected, func(ctx context.Context, evt *event.Event) error {
			rejected++
			return nil
		})

		if err := d.Dispatch(context.Background(), newTestEvent(event.TypeExpenseApproved)); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if approved != 1 || rejected != 0 {
			t.Errorf("approved=%d rejected=%d, want 1 and 0", approved, rejected)
		}
	})
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher()
	var calls []string

	d.SubscribeNamed(event.TypeExpenseSubmitted, "first", func(ctx context.Context, evt *event.Event) error {
		calls = append(calls, "first")
		return nil
	})
	d.SubscribeNamed(event.TypeExpenseSubmitted, "second", func(ctx context.Context, evt *event.Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Unsubscribe(event.TypeExpenseSubmitted, "first")

	if err := d.Dispatch(context.Background(), newTestEvent(event.TypeExpenseSubmitted)); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if len(calls) != 1 || calls[0] != "second" {
		t.Errorf("calls = %v, want [second]", calls)
	}
}

func TestDispatch(t *testing.T) {
	t.Run("runs every handler and joins errors", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		errBoom := errors.New("boom")
		var ran int

		d.Subscribe(event.TypeExpenseRejected, func(ctx context.Context, evt *event.Event) error {
			ran++
			return errBoom
		})
		d.Subscribe(event.TypeExpenseRejected, func(ctx context.Context, evt *event.Event) error {
			ran++
			return nil
		})

		err := d.Dispatch(context.Background(), newTestEvent(event.TypeExpenseRejected))
		if !errors.Is(err, errBoom) {
			t.Fatalf("expected joined error to contain boom, got %v", err)
		}
		if ran != 2 {
			t.Errorf("expected both handlers to run, got %d", ran)
		}
		if logger.ErrorCount() != 1 {
			t.Errorf("expected 1 logged error, got %d", logger.ErrorCount())
		}
	})

	t.Run("recovers from handler panic", func(t *testing.T) {
		d := NewDispatcher()
		d.Subscribe(event.TypeExpenseApproved, func(ctx context.Context, evt *event.Event) error {
			panic("kaboom")
		})

		err := d.Dispatch(context.Background(), newTestEvent(event.TypeExpenseApproved))
		if err == nil {
			t.Fatal("expected panic to surface as error")
		}
	})

	t.Run("no handlers is not an error", func(t *testing.T) {
		d := NewDispatcher()
		if err := d.Dispatch(context.Background(), newTestEvent(event.TypeExpenseDeleted)); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("closed dispatcher refuses", func(t *testing.T) {
		d := NewDispatcher()
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		if err := d.Dispatch(context.Background(), newTestEvent(event.TypeExpenseApproved)); !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	})
}

func TestDispatchAsync(t *testing.T) {
	t.Run("close waits for handlers", func(t *testing.T) {
		d := NewDispatcher()
		var called atomic.Int32

		for i := 0; i < 3; i++ {
			d.Subscribe(event.TypeExpenseReimbursed, func(ctx context.Context, evt *event.Event) error {
				called.Add(1)
				return nil
			})
		}

		d.DispatchAsync(context.Background(), newTestEvent(event.TypeExpenseReimbursed))

		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		if called.Load() != 3 {
			t.Errorf("expected 3 handlers to be called, got %d", called.Load())
		}
	})

	t.Run("handlers survive caller cancellation", func(t *testing.T) {
		d := NewDispatcher()
		var ctxErr atomic.Value

		d.Subscribe(event.TypeExpenseApproved, func(ctx context.Context, evt *event.Event) error {
			ctxErr.Store(fmt.Sprint(ctx.Err()))
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		d.DispatchAsync(ctx, newTestEvent(event.TypeExpenseApproved))

		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		if got := ctxErr.Load(); got != "<nil>" {
			t.Errorf("handler saw ctx.Err() = %v, want nil", got)
		}
	})

	t.Run("errors and panics are logged", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))

		d.Subscribe(event.TypeExpenseApproved, func(ctx context.Context, evt *event.Event) error {
			return errors.New("handler error")
		})
		d.Subscribe(event.TypeExpenseApproved, func(ctx context.Context, evt *event.Event) error {
			panic("async panic")
		})

		d.DispatchAsync(context.Background(), newTestEvent(event.TypeExpenseApproved))
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		if logger.ErrorCount() != 2 {
			t.Errorf("expected 2 logged errors, got %d", logger.ErrorCount())
		}
	})

	t.Run("closed dispatcher drops event", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		var called atomic.Int32
		d.Subscribe(event.TypeExpenseApproved, func(ctx context.Context, evt *event.Event) error {
			called.Add(1)
			return nil
		})

		_ = d.Close()
		d.DispatchAsync(context.Background(), newTestEvent(event.TypeExpenseApproved))

		if called.Load() != 0 {
			t.Error("handler ran after close")
		}
		if logger.ErrorCount() != 1 {
			t.Errorf("expected drop to be logged, got %d errors", logger.ErrorCount())
		}
	})
}

func TestClose_Twice(t *testing.T) {
	d := NewDispatcher()
	if err := d.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := d.Close(); err == nil {
		t.Error("expected second close to fail")
	}
}

func TestRegisterActivityLog(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher()
	RegisterActivityLog(d, logger)

	if n := len(d.ListHandlers(event.TypeExpenseReimbursed)); n != 1 {
		t.Fatalf("expected activity log on reimbursed events, got %d handlers", n)
	}

	evt := newTestEvent(event.TypeExpenseApproved).WithPayload("version", int64(3))
	if err := d.Dispatch(context.Background(), evt); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	entry := logger.find("Expense activity")
	if entry == nil {
		t.Fatal("expected activity entry")
	}
	if entry["tenant_id"] != "tenant-a" || entry["expense_id"] != "expense-1" || entry["actor_id"] != "u2" {
		t.Errorf("unexpected entry %v", entry)
	}
	if entry["version"] != int64(3) {
		t.Errorf("version = %v, want 3", entry["version"])
	}
}
