// Package eventbus is the typed publish/subscribe channel used by the
// context state manager. Each subscriber drains its own queue on a single
// worker goroutine, so one subscriber always observes events in publish
// order; fan-out across subscribers stays concurrent, and a panicking or
// erroring subscriber never blocks the others and never propagates to the
// emitting operation.
package eventbus

import (
	"log/slog"
	"sync"
	"sync/atomic"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/samber/lo"

	"github.com/insightpilot/insightpilot/pkg/safe"
	"github.com/insightpilot/insightpilot/pkg/types"
	"github.com/insightpilot/insightpilot/pkg/utils"
)

// Handler consumes one event. Returned errors are logged, nothing more.
type Handler func(event types.ContextEvent) error

const subscriberQueueSize = 128

type subscription struct {
	id      string
	handler Handler
	// empty filter means all event types
	filter []types.EventType

	queue chan types.ContextEvent

	mu     sync.Mutex
	closed bool
}

// enqueue hands the event to the subscriber's worker. Blocks only when the
// queue is full, which keeps delivery lossless without unbounded buffering.
func (s *subscription) enqueue(event types.ContextEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue <- event
}

func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.queue)
}

// run drains the queue one event at a time. Panics are contained per event
// so the worker survives a misbehaving handler.
func (s *subscription) run() {
	for event := range s.queue {
		event := event
		safe.RunWithLog(func() {
			if err := s.handler(event); err != nil {
				slog.Error("event subscriber failed",
					slog.String("subscription_id", s.id),
					slog.String("event_type", string(event.Type)),
					slog.String("session_id", event.SessionID),
					slog.String("error", err.Error()))
			}
		}, "eventbus.subscription")
	}
}

type Bus struct {
	subscribers cmap.ConcurrentMap[string, *subscription]
	published   atomic.Int64
}

func New() *Bus {
	return &Bus{
		subscribers: cmap.New[*subscription](),
	}
}

// Subscribe registers a handler for the given event types (all types when
// none are given) and returns the subscription id.
func (b *Bus) Subscribe(handler Handler, eventTypes ...types.EventType) string {
	sub := &subscription{
		id:      utils.GenUniqIDStr(),
		handler: handler,
		filter:  eventTypes,
		queue:   make(chan types.ContextEvent, subscriberQueueSize),
	}
	b.subscribers.Set(sub.id, sub)
	go sub.run()
	return sub.id
}

func (b *Bus) Unsubscribe(id string) {
	if sub, ok := b.subscribers.Get(id); ok {
		sub.close()
	}
	b.subscribers.Remove(id)
}

// Publish appends the event to every matching subscriber's queue and
// returns. The caller's operation never waits on subscriber completion.
func (b *Bus) Publish(event types.ContextEvent) {
	b.published.Add(1)
	for _, sub := range b.subscribers.Items() {
		if len(sub.filter) > 0 && !lo.Contains(sub.filter, event.Type) {
			continue
		}
		sub.enqueue(event)
	}
}

// SubscriberCount reports the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	return b.subscribers.Count()
}

// Published reports the number of events published, for tests and metrics.
func (b *Bus) Published() int64 {
	return b.published.Load()
}
