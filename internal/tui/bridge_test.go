package tui

import (
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/initializ/glewlwyd-console/bus"
)

type recorder struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recorder) send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func TestBridge_DeliversInOrder(t *testing.T) {
	b := NewBridge()
	rec := &recorder{}
	for i := 0; i < 50; i++ {
		b.Post(OpResultMsg{Op: string(rune('a' + i%26))})
	}
	go b.Run(rec.send)
	for i := 0; i < 50; i++ {
		b.Post(OpResultMsg{Op: string(rune('a' + i%26))})
	}
	b.Close()
	b.Wait()

	if len(rec.msgs) != 100 {
		t.Fatalf("delivered %d messages, want 100", len(rec.msgs))
	}
	for i, m := range rec.msgs {
		want := string(rune('a' + i%50%26))
		if got := m.(OpResultMsg).Op; got != want {
			t.Fatalf("msg[%d] = %q, want %q", i, got, want)
		}
	}

	b.Post(StateChangedMsg{})
	if len(rec.msgs) != 100 {
		t.Error("message posted after Close was delivered")
	}
}

func TestBridge_Attach(t *testing.T) {
	b := NewBridge()
	events := bus.New()
	detach := b.Attach(events)

	called := false
	events.Notify(bus.LevelWarning, "careful")
	events.App.Publish(bus.AppEvent{Type: bus.AppConfirm, Title: "t", Message: "m", Callback: func(bool) { called = true }})
	events.App.Publish(bus.AppEvent{Type: bus.AppCloseConfirm})
	events.App.Publish(bus.AppEvent{Type: bus.AppRegistration})
	detach()
	events.Notify(bus.LevelInfo, "ignored")

	rec := &recorder{}
	b.Close()
	b.Run(rec.send)

	if len(rec.msgs) != 4 {
		t.Fatalf("delivered %d messages, want 4: %#v", len(rec.msgs), rec.msgs)
	}
	if n, ok := rec.msgs[0].(NotificationMsg); !ok || n.Level != bus.LevelWarning || n.Message != "careful" {
		t.Errorf("msg[0] = %#v, want warning notification", rec.msgs[0])
	}
	c, ok := rec.msgs[1].(ConfirmMsg)
	if !ok || c.Title != "t" || c.Message != "m" {
		t.Fatalf("msg[1] = %#v, want ConfirmMsg", rec.msgs[1])
	}
	c.Callback(true)
	if !called {
		t.Error("confirm callback not carried")
	}
	if _, ok := rec.msgs[2].(CloseConfirmMsg); !ok {
		t.Errorf("msg[2] = %#v, want CloseConfirmMsg", rec.msgs[2])
	}
	if _, ok := rec.msgs[3].(StateChangedMsg); !ok {
		t.Errorf("msg[3] = %#v, want StateChangedMsg", rec.msgs[3])
	}
	if events.Notification.Len() != 0 || events.App.Len() != 0 {
		t.Error("detach left subscribers behind")
	}
}
