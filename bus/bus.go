// Package bus is the typed publish/subscribe mediator shared by a screen's
// components. Each screen instance owns its own Bus; nothing is global.
package bus

import "sync"

// Topic is a typed channel of messages.
type Topic[T any] struct {
	mu       sync.RWMutex
	nextID   int
	handlers []subscription[T]
}

type subscription[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns a func that removes it.
func (t *Topic[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	t.handlers = append(t.handlers, subscription[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			for i, h := range t.handlers {
				if h.id == id {
					t.handlers = append(t.handlers[:i:i], t.handlers[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers msg synchronously to every subscriber in subscription
// order. Handlers may publish or subscribe re-entrantly.
func (t *Topic[T]) Publish(msg T) {
	t.mu.RLock()
	handlers := make([]subscription[T], len(t.handlers))
	copy(handlers, t.handlers)
	t.mu.RUnlock()

	for _, h := range handlers {
		h.fn(msg)
	}
}

// Len returns the number of current subscribers.
func (t *Topic[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handlers)
}

// Bus groups the topics used by the console screens.
type Bus struct {
	Notification Topic[Notification]
	App          Topic[AppEvent]
	ModPlugin    Topic[ModPluginEvent]
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{}
}

// Notify publishes a notification with the given level and message.
func (b *Bus) Notify(level Level, message string) {
	b.Notification.Publish(Notification{Level: level, Message: message})
}
