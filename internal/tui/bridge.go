package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/initializ/glewlwyd-console/bus"
)

// Bridge carries messages from bus handlers and background goroutines into a
// running program. Post never blocks, so it is safe to call from inside
// Update; messages are delivered in posting order.
type Bridge struct {
	mu     sync.Mutex
	queue  []tea.Msg
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// NewBridge creates an idle Bridge. Start delivery with Run.
func NewBridge() *Bridge {
	return &Bridge{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post queues msg for delivery. Messages posted after Close are dropped.
func (b *Bridge) Post(msg tea.Msg) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.queue = append(b.queue, msg)
	b.mu.Unlock()
	b.signal()
}

func (b *Bridge) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Run delivers queued messages to send until Close is called and the queue
// is drained. Typically send is (*tea.Program).Send.
func (b *Bridge) Run(send func(tea.Msg)) {
	defer close(b.done)
	for {
		b.mu.Lock()
		batch := b.queue
		b.queue = nil
		closed := b.closed
		b.mu.Unlock()

		for _, msg := range batch {
			send(msg)
		}
		if closed {
			return
		}
		<-b.wake
	}
}

// Close stops Run once the pending messages are delivered.
func (b *Bridge) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.signal()
}

// Wait blocks until Run has returned.
func (b *Bridge) Wait() {
	<-b.done
}

// Attach forwards the bus notification and app topics. The returned func
// unsubscribes both.
func (b *Bridge) Attach(events *bus.Bus) (detach func()) {
	unNotify := events.Notification.Subscribe(func(n bus.Notification) {
		b.Post(NotificationMsg(n))
	})
	unApp := events.App.Subscribe(func(ev bus.AppEvent) {
		switch ev.Type {
		case bus.AppConfirm:
			b.Post(ConfirmMsg{Title: ev.Title, Message: ev.Message, Callback: ev.Callback})
		case bus.AppCloseConfirm:
			b.Post(CloseConfirmMsg{})
		default:
			b.Post(StateChangedMsg{})
		}
	})
	return func() {
		unNotify()
		unApp()
	}
}
