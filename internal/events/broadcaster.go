package events

import (
	"log/slog"
	"sync"
)

// Listener receives values published through a Broadcaster.
type Listener[T any] func(T)

// Broadcaster delivers published values to all registered listeners,
// isolating each delivery so one failing listener cannot block the rest.
// The zero value is not usable; construct with NewBroadcaster.
type Broadcaster[T any] struct {
	mu        sync.RWMutex
	listeners map[int]Listener[T]
	nextID    int
	logger    *slog.Logger
}

// NewBroadcaster creates a Broadcaster that logs listener failures to the
// given logger.
func NewBroadcaster[T any](logger *slog.Logger) *Broadcaster[T] {
	return &Broadcaster[T]{
		listeners: make(map[int]Listener[T]),
		logger:    logger.With(slog.String("component", "broadcaster")),
	}
}

// Subscribe registers a listener and returns a function that removes it.
// The returned function is idempotent.
func (b *Broadcaster[T]) Subscribe(listener Listener[T]) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = listener
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// Publish delivers value to every registered listener, synchronously on
// the caller's goroutine. Delivery order is unspecified. A panicking
// listener is recovered and logged.
func (b *Broadcaster[T]) Publish(value T) {
	b.mu.RLock()
	listeners := make([]Listener[T], 0, len(b.listeners))
	for _, l := range b.listeners {
		listeners = append(listeners, l)
	}
	b.mu.RUnlock()

	for _, listener := range listeners {
		b.deliver(listener, value)
	}
}

// Len returns the number of registered listeners.
func (b *Broadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Clear removes all listeners.
func (b *Broadcaster[T]) Clear() {
	b.mu.Lock()
	b.listeners = make(map[int]Listener[T])
	b.mu.Unlock()
}

func (b *Broadcaster[T]) deliver(listener Listener[T], value T) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("listener panicked during event delivery",
				"panic", r)
		}
	}()
	listener(value)
}
