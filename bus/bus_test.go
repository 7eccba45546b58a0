package bus

import (
	"sync"
	"testing"
)

func TestTopic_PublishInOrder(t *testing.T) {
	b := New()
	var got []string
	b.Notification.Subscribe(func(n Notification) { got = append(got, "first:"+n.Message) })
	b.Notification.Subscribe(func(n Notification) { got = append(got, "second:"+n.Message) })

	b.Notify(LevelInfo, "saved")

	want := []string{"first:saved", "second:saved"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTopic_Unsubscribe(t *testing.T) {
	b := New()
	calls := 0
	unsub := b.App.Subscribe(func(AppEvent) { calls++ })

	b.App.Publish(AppEvent{Type: AppRegistration})
	unsub()
	unsub()
	b.App.Publish(AppEvent{Type: AppRegistration})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if b.App.Len() != 0 {
		t.Errorf("Len() = %d, want 0", b.App.Len())
	}
}

func TestTopic_ReentrantPublish(t *testing.T) {
	b := New()
	var answers []ModPluginEventType
	b.ModPlugin.Subscribe(func(e ModPluginEvent) {
		if e.Type == ModCheck {
			b.ModPlugin.Publish(ModPluginEvent{Type: ModValid})
		}
	})
	b.ModPlugin.Subscribe(func(e ModPluginEvent) {
		if e.Type != ModCheck {
			answers = append(answers, e.Type)
		}
	})

	b.ModPlugin.Publish(ModPluginEvent{Type: ModCheck})

	if len(answers) != 1 || answers[0] != ModValid {
		t.Errorf("answers = %v, want [modValid]", answers)
	}
}

func TestTopic_ConcurrentPublish(t *testing.T) {
	b := New()
	var mu sync.Mutex
	count := 0
	b.Notification.Subscribe(func(Notification) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Notify(LevelDanger, "error-api-connect")
		}()
	}
	wg.Wait()

	if count != 20 {
		t.Errorf("count = %d, want 20", count)
	}
}
