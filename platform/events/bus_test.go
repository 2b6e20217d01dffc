package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestPublishSyncDeliversToAllHandlers(t *testing.T) {
	bus := NewInMemoryBus(nil)

	var calls int
	handler := HandlerFunc(func(_ context.Context, event Event) error {
		calls++
		return nil
	})

	bus.Subscribe("lead.created", handler)
	bus.Subscribe("lead.created", handler)
	bus.Subscribe("other.event", handler)

	if err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "lead.created"}); err != nil {
		t.Fatalf("PublishSync returned error: %v", err)
	}

	if calls != 2 {
		t.Errorf("expected 2 handler calls, got %d", calls)
	}
}

func TestPublishSyncReturnsFirstError(t *testing.T) {
	bus := NewInMemoryBus(nil)
	wantErr := errors.New("handler failed")

	bus.Subscribe("lead.created", HandlerFunc(func(context.Context, Event) error {
		return wantErr
	}))
	bus.Subscribe("lead.created", HandlerFunc(func(context.Context, Event) error {
		t.Error("handler after failure should not run")
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "lead.created"})
	if !errors.Is(err, wantErr) {
		t.Errorf("PublishSync error = %v, want %v", err, wantErr)
	}
}

func TestPublishIsAsynchronous(t *testing.T) {
	bus := NewInMemoryBus(nil)
	done := make(chan struct{})

	bus.Subscribe("lead.created", HandlerFunc(func(context.Context, Event) error {
		close(done)
		return nil
	}))

	bus.Publish(context.Background(), testEvent{NewBaseEvent(), "lead.created"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("async handler was not invoked")
	}
}
