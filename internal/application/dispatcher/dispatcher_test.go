package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/lotflow/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) HasError(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.errors {
		if e == msg {
			return true
		}
	}
	return false
}

func statusChanged(entityType string, id int64) *event.Event {
	return event.NewEvent(event.TypeLotStatusChanged, entityType, id, map[string]interface{}{
		event.KeyPreviousStatus: "Open",
		event.KeyNewStatus:      "Closed_Collected",
	})
}

func TestSubscribe(t *testing.T) {
	t.Run("auto-generated names are unique per event type", func(t *testing.T) {
		d := NewDispatcher()
		noop := func(ctx context.Context, evt *event.Event) error { return nil }

		d.Subscribe(event.TypeLotStatusChanged, noop)
		d.Subscribe(event.TypeLotStatusChanged, noop)

		handlers := d.ListHandlers(event.TypeLotStatusChanged)
		require.Len(t, handlers, 2)
		assert.NotEqual(t, handlers[0].Name, handlers[1].Name)
	})

	t.Run("handlers only receive their event type", func(t *testing.T) {
		d := NewDispatcher()
		var lotCalls, requestCalls int

		d.Subscribe(event.TypeLotStatusChanged, func(ctx context.Context, evt *event.Event) error {
			lotCalls++
			return nil
		})
		d.Subscribe(event.TypeRequestStatusChanged, func(ctx context.Context, evt *event.Event) error {
			requestCalls++
			return nil
		})

		require.NoError(t, d.Dispatch(context.Background(), statusChanged("cm_lot", 1)))
		assert.Equal(t, 1, lotCalls)
		assert.Equal(t, 0, requestCalls)
	})
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher()
	var order []string

	d.SubscribeNamed(event.TypeLotCreated, "keep", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "keep")
		return nil
	})
	d.SubscribeNamed(event.TypeLotCreated, "drop", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "drop")
		return nil
	})

	d.Unsubscribe(event.TypeLotCreated, "drop")

	require.NoError(t, d.Dispatch(context.Background(), event.NewEvent(event.TypeLotCreated, "cm_lot", 1, nil)))
	assert.Equal(t, []string{"keep"}, order)
}

func TestDispatch(t *testing.T) {
	t.Run("runs handlers in registration order", func(t *testing.T) {
		d := NewDispatcher()
		var order []int

		for i := 0; i < 3; i++ {
			i := i
			d.Subscribe(event.TypeLotStatusChanged, func(ctx context.Context, evt *event.Event) error {
				order = append(order, i)
				return nil
			})
		}

		require.NoError(t, d.Dispatch(context.Background(), statusChanged("cm_lot", 1)))
		assert.Equal(t, []int{0, 1, 2}, order)
	})

	t.Run("keeps running after a handler fails and joins errors", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		boom := errors.New("boom")
		secondCalled := false

		d.SubscribeNamed(event.TypeLotStatusChanged, "failing", func(ctx context.Context, evt *event.Event) error {
			return boom
		})
		d.SubscribeNamed(event.TypeLotStatusChanged, "second", func(ctx context.Context, evt *event.Event) error {
			secondCalled = true
			return nil
		})

		err := d.Dispatch(context.Background(), statusChanged("cm_lot", 1))
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "failing")
		assert.True(t, secondCalled)
		assert.True(t, logger.HasError("Handler error"))
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		d := NewDispatcher()
		called := false
		d.Subscribe(event.TypeLotStatusChanged, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := d.Dispatch(ctx, statusChanged("cm_lot", 1))
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("recovers from handler panic", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		d.Subscribe(event.TypeLotStatusChanged, func(ctx context.Context, evt *event.Event) error {
			panic("unexpected")
		})

		err := d.Dispatch(context.Background(), statusChanged("cm_lot", 1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "handler panic")
		assert.True(t, logger.HasError("Handler panic recovered"))
	})

	t.Run("returns ErrClosed after close", func(t *testing.T) {
		d := NewDispatcher()
		require.NoError(t, d.Close())

		err := d.Dispatch(context.Background(), statusChanged("cm_lot", 1))
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestForEntity(t *testing.T) {
	d := NewDispatcher()
	var seen []int64

	d.Subscribe(event.TypeLotStatusChanged, ForEntity("pack_lot", func(ctx context.Context, evt *event.Event) error {
		seen = append(seen, evt.EntityID)
		return nil
	}))

	require.NoError(t, d.Dispatch(context.Background(), statusChanged("cm_lot", 1)))
	require.NoError(t, d.Dispatch(context.Background(), statusChanged("pack_lot", 2)))

	assert.Equal(t, []int64{2}, seen)
}

func TestDispatchAsync(t *testing.T) {
	t.Run("close waits for in-flight handlers", func(t *testing.T) {
		d := NewDispatcher()
		var done atomic.Int32

		for i := 0; i < 3; i++ {
			d.Subscribe(event.TypeLotStatusChanged, func(ctx context.Context, evt *event.Event) error {
				time.Sleep(10 * time.Millisecond)
				done.Add(1)
				return nil
			})
		}

		d.DispatchAsync(context.Background(), statusChanged("cm_lot", 1))
		require.NoError(t, d.Close())

		assert.Equal(t, int32(3), done.Load())
	})

	t.Run("logs handler errors without blocking", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		d.Subscribe(event.TypeLotStatusChanged, func(ctx context.Context, evt *event.Event) error {
			return fmt.Errorf("write failed")
		})

		d.DispatchAsync(context.Background(), statusChanged("cm_lot", 1))
		require.NoError(t, d.Close())

		assert.True(t, logger.HasError("Async handler error"))
	})

	t.Run("does nothing after close", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		called := atomic.Bool{}
		d.Subscribe(event.TypeLotStatusChanged, func(ctx context.Context, evt *event.Event) error {
			called.Store(true)
			return nil
		})
		require.NoError(t, d.Close())

		d.DispatchAsync(context.Background(), statusChanged("cm_lot", 1))

		assert.False(t, called.Load())
		assert.True(t, logger.HasError("Cannot dispatch async event, dispatcher is closed"))
	})
}

func TestClose_Twice(t *testing.T) {
	d := NewDispatcher()
	require.NoError(t, d.Close())
	assert.Error(t, d.Close())
}

func TestListHandlers_HidesFunctions(t *testing.T) {
	d := NewDispatcher()
	d.SubscribeNamed(event.TypeEvidenceRecorded, "audit", func(ctx context.Context, evt *event.Event) error { return nil })

	handlers := d.ListHandlers(event.TypeEvidenceRecorded)
	require.Len(t, handlers, 1)
	assert.Equal(t, "audit", handlers[0].Name)
	assert.Equal(t, event.TypeEvidenceRecorded, handlers[0].EventType)
	assert.Nil(t, handlers[0].Handler)

	assert.Empty(t, d.ListHandlers(event.TypeLotCreated))
}

func TestConcurrentSubscribeAndDispatch(t *testing.T) {
	d := NewDispatcher()
	var calls atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			d.Subscribe(event.TypeLotStatusChanged, func(ctx context.Context, evt *event.Event) error {
				calls.Add(1)
				return nil
			})
		}()
		go func(id int64) {
			defer wg.Done()
			_ = d.Dispatch(context.Background(), statusChanged("cm_lot", id))
		}(int64(i))
	}
	wg.Wait()

	assert.Len(t, d.ListHandlers(event.TypeLotStatusChanged), 20)
}
