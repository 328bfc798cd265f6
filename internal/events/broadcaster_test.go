package events

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBroadcasterDeliversToAllListeners(t *testing.T) {
	b := NewBroadcaster[int](testLogger())

	var first, second []int
	b.Subscribe(func(v int) { first = append(first, v) })
	b.Subscribe(func(v int) { second = append(second, v) })

	b.Publish(1)
	b.Publish(2)

	assert.Equal(t, []int{1, 2}, first)
	assert.Equal(t, []int{1, 2}, second)
}

func TestBroadcasterIsolatesPanickingListener(t *testing.T) {
	b := NewBroadcaster[string](testLogger())

	var received []string
	b.Subscribe(func(string) { panic("bad listener") })
	b.Subscribe(func(v string) { received = append(received, v) })

	assert.NotPanics(t, func() { b.Publish("hello") })
	assert.Equal(t, []string{"hello"}, received)
}

func TestBroadcasterUnsubscribe(t *testing.T) {
	b := NewBroadcaster[int](testLogger())

	count := 0
	unsubscribe := b.Subscribe(func(int) { count++ })

	b.Publish(1)
	unsubscribe()
	b.Publish(2)

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, b.Len())

	// A second call is a no-op.
	assert.NotPanics(t, unsubscribe)
}

func TestBroadcasterClear(t *testing.T) {
	b := NewBroadcaster[int](testLogger())

	count := 0
	b.Subscribe(func(int) { count++ })
	b.Subscribe(func(int) { count++ })
	b.Clear()
	b.Publish(1)

	assert.Equal(t, 0, count)
	assert.Equal(t, 0, b.Len())
}
