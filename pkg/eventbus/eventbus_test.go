package eventbus

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/insightpilot/insightpilot/pkg/types"
	"github.com/insightpilot/insightpilot/pkg/utils"
)

func TestMain(m *testing.M) {
	utils.SetupIDWorker(1)
	m.Run()
}

func waitFor(t *testing.T, ch <-chan types.ContextEvent) types.ContextEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return types.ContextEvent{}
	}
}

func TestPublishSubscribe(t *testing.T) {
	bus := New()

	got := make(chan types.ContextEvent, 1)
	id := bus.Subscribe(func(event types.ContextEvent) error {
		got <- event
		return nil
	})
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, bus.SubscriberCount())

	bus.Publish(types.ContextEvent{Type: types.EVENT_CONTEXT_UPDATED, SessionID: "s1"})

	ev := waitFor(t, got)
	assert.Equal(t, types.EVENT_CONTEXT_UPDATED, ev.Type)
	assert.Equal(t, "s1", ev.SessionID)
	assert.Equal(t, int64(1), bus.Published())
}

func TestSubscribeFilter(t *testing.T) {
	bus := New()

	got := make(chan types.ContextEvent, 2)
	bus.Subscribe(func(event types.ContextEvent) error {
		got <- event
		return nil
	}, types.EVENT_USAGE_RECORDED)

	bus.Publish(types.ContextEvent{Type: types.EVENT_CONTEXT_UPDATED, SessionID: "skip"})
	bus.Publish(types.ContextEvent{Type: types.EVENT_USAGE_RECORDED, SessionID: "take"})

	ev := waitFor(t, got)
	assert.Equal(t, "take", ev.SessionID)

	select {
	case ev := <-got:
		t.Fatalf("filtered event delivered: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := New()

	id := bus.Subscribe(func(event types.ContextEvent) error { return nil })
	bus.Unsubscribe(id)
	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestDeliveryOrderPerSubscriber(t *testing.T) {
	const events = 60
	const rounds = 50

	for round := 0; round < rounds; round++ {
		bus := New()

		var received []string
		done := make(chan struct{})
		bus.Subscribe(func(event types.ContextEvent) error {
			received = append(received, event.SessionID)
			if len(received) == events {
				close(done)
			}
			return nil
		})

		expect := make([]string, 0, events)
		for i := 0; i < events; i++ {
			id := strconv.Itoa(i)
			expect = append(expect, id)
			bus.Publish(types.ContextEvent{Type: types.EVENT_CONTEXT_UPDATED, SessionID: id})
		}

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("round %d: only %d of %d events delivered", round, len(received), events)
		}
		assert.Equal(t, expect, received, "round %d", round)
	}
}

func TestOrderSurvivesFailingHandler(t *testing.T) {
	bus := New()

	var received []string
	done := make(chan struct{})
	bus.Subscribe(func(event types.ContextEvent) error {
		received = append(received, event.SessionID)
		if len(received) == 3 {
			close(done)
		}
		if event.SessionID == "b" {
			panic("handler blew up")
		}
		return nil
	})

	for _, id := range []string{"a", "b", "c"} {
		bus.Publish(types.ContextEvent{Type: types.EVENT_CONTEXT_UPDATED, SessionID: id})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("delivery stalled after handler panic")
	}
	assert.Equal(t, []string{"a", "b", "c"}, received)
}

func TestSubscriberIsolation(t *testing.T) {
	bus := New()

	bus.Subscribe(func(event types.ContextEvent) error {
		panic("bad subscriber")
	})
	got := make(chan types.ContextEvent, 1)
	bus.Subscribe(func(event types.ContextEvent) error {
		got <- event
		return nil
	})

	// a panicking sibling must not stop delivery
	bus.Publish(types.ContextEvent{Type: types.EVENT_CONTEXT_VALIDATED, SessionID: "s1"})
	waitFor(t, got)
}
