package eventbus

import (
	evbus "github.com/asaskevich/EventBus"
)

// Bus wraps the underlying event bus behind an injected handle; it is
// constructed once at process start and passed to publishers and subscribers.
type Bus struct {
	bus evbus.Bus
}

// New creates a fresh event bus.
func New() *Bus {
	return &Bus{bus: evbus.New()}
}

// Publish delivers an event synchronously to all subscribers.
func (b *Bus) Publish(topic string, event AuthEvent) {
	b.bus.Publish(topic, event)
}

// Subscribe registers a synchronous handler for the topic.
func (b *Bus) Subscribe(topic string, fn func(AuthEvent)) error {
	return b.bus.Subscribe(topic, fn)
}

// SubscribeAsync registers a handler invoked on its own goroutine.
func (b *Bus) SubscribeAsync(topic string, fn func(AuthEvent)) error {
	return b.bus.SubscribeAsync(topic, fn, false)
}

// Unsubscribe removes a previously registered handler.
func (b *Bus) Unsubscribe(topic string, fn func(AuthEvent)) error {
	return b.bus.Unsubscribe(topic, fn)
}

// WaitAsync blocks until all async handlers have drained.
func (b *Bus) WaitAsync() {
	b.bus.WaitAsync()
}
