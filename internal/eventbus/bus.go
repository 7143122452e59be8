package eventbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/mediakeeper/internal/logging"
	"github.com/dmitrijs2005/mediakeeper/internal/metrics"
)

// Handler receives one event. A returned error is logged, nothing more.
type Handler func(Event) error

type subscription struct {
	id uint64
	h  Handler
}

// Bus is safe for concurrent use.
type Bus struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[Kind][]subscription
	logger   logging.Logger
}

func New(l logging.Logger) *Bus {
	return &Bus{
		handlers: make(map[Kind][]subscription),
		logger:   l.With("module", "eventbus"),
	}
}

// Subscribe registers h for kind and returns its unsubscribe function.
// Calling the returned function more than once is a no-op.
func (b *Bus) Subscribe(kind Kind, h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[kind] = append(b.handlers[kind], subscription{id: id, h: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(kind, id) })
	}
}

// Once registers h for a single delivery. The subscription is removed
// before h runs, so a re-entrant Emit from h does not call it again.
func (b *Bus) Once(kind Kind, h Handler) func() {
	var (
		mu    sync.Mutex
		fired bool
		unsub func()
	)
	unsub = b.Subscribe(kind, func(e Event) error {
		mu.Lock()
		if fired {
			mu.Unlock()
			return nil
		}
		fired = true
		mu.Unlock()
		unsub()
		return h(e)
	})
	return unsub
}

// Emit delivers e to every handler subscribed to e.Kind() at the moment of
// the call.
func (b *Bus) Emit(e Event) {
	kind := e.Kind()

	b.mu.Lock()
	subs := make([]subscription, len(b.handlers[kind]))
	copy(subs, b.handlers[kind])
	b.mu.Unlock()

	metrics.EventsEmitted.WithLabelValues(string(kind)).Inc()

	for _, s := range subs {
		b.dispatch(kind, s.h, e)
	}
}

// RemoveAll drops all handlers for the given kinds, or every handler when
// no kind is given.
func (b *Bus) RemoveAll(kinds ...Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(kinds) == 0 {
		b.handlers = make(map[Kind][]subscription)
		return
	}
	for _, k := range kinds {
		delete(b.handlers, k)
	}
}

// Count returns the number of handlers subscribed to kind.
func (b *Bus) Count(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[kind])
}

func (b *Bus) remove(kind Kind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[kind]
	for i, s := range subs {
		if s.id == id {
			b.handlers[kind] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

func (b *Bus) dispatch(kind Kind, h Handler, e Event) {
	defer func() {
		if p := recover(); p != nil {
			metrics.HandlerFailures.WithLabelValues(string(kind)).Inc()
			b.logger.Error(context.Background(), "event handler panicked",
				"event", kind, "panic", fmt.Sprint(p))
		}
	}()

	if err := h(e); err != nil {
		metrics.HandlerFailures.WithLabelValues(string(kind)).Inc()
		b.logger.Warn(context.Background(), "event handler failed", "event", kind, "error", err)
	}
}
