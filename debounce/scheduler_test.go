package debounce

import (
	"testing"
	"time"
)

func TestScheduler_RescheduleCancelsPrevious(t *testing.T) {
	clock := NewFakeClock()
	s := NewScheduler(clock)

	var ran []string
	s.Schedule("username", time.Second, func() { ran = append(ran, "a") })
	clock.Advance(400 * time.Millisecond)
	s.Schedule("username", time.Second, func() { ran = append(ran, "b") })
	clock.Advance(400 * time.Millisecond)
	s.Schedule("username", time.Second, func() { ran = append(ran, "c") })

	clock.Advance(999 * time.Millisecond)
	if len(ran) != 0 {
		t.Fatalf("ran = %v before delay elapsed", ran)
	}
	clock.Advance(time.Millisecond)

	if len(ran) != 1 || ran[0] != "c" {
		t.Errorf("ran = %v, want [c]", ran)
	}
	if s.Pending("username") {
		t.Error("expected no pending task after it ran")
	}
}

func TestScheduler_KeysAreIndependent(t *testing.T) {
	clock := NewFakeClock()
	s := NewScheduler(clock)

	var ran []string
	s.Schedule("username", time.Second, func() { ran = append(ran, "username") })
	s.Schedule("email", time.Second, func() { ran = append(ran, "email") })
	clock.Advance(time.Second)

	if len(ran) != 2 {
		t.Errorf("ran = %v, want both keys", ran)
	}
}

func TestScheduler_Cancel(t *testing.T) {
	clock := NewFakeClock()
	s := NewScheduler(clock)

	ran := false
	s.Schedule("username", time.Second, func() { ran = true })
	if !s.Cancel("username") {
		t.Error("Cancel() = false, want true")
	}
	if s.Cancel("username") {
		t.Error("second Cancel() = true, want false")
	}
	clock.Advance(2 * time.Second)
	if ran {
		t.Error("cancelled task ran")
	}
}

func TestScheduler_Stop(t *testing.T) {
	clock := NewFakeClock()
	s := NewScheduler(clock)

	count := 0
	s.Schedule("a", time.Second, func() { count++ })
	s.Schedule("b", time.Second, func() { count++ })
	s.Stop()
	clock.Advance(time.Second)

	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	if clock.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", clock.Pending())
	}
}

func TestScheduler_RealClock(t *testing.T) {
	s := NewScheduler(nil)
	done := make(chan struct{})
	s.Schedule("k", 5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
}
