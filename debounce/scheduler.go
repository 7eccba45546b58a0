// Package debounce schedules cancellable tasks keyed by field identity.
package debounce

import (
	"sync"
	"time"
)

// Timer is a pending task handle.
type Timer interface {
	// Stop prevents the task from running. It reports whether the call
	// stopped the task before it ran.
	Stop() bool
}

// Clock abstracts time.AfterFunc so tests can drive time.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock uses the runtime timers.
type RealClock struct{}

// AfterFunc implements Clock.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Scheduler keeps at most one pending task per key. Scheduling a key again
// cancels the previous task for that key.
type Scheduler struct {
	clock Clock

	mu    sync.Mutex
	seq   uint64
	tasks map[string]task
}

type task struct {
	seq   uint64
	timer Timer
}

// NewScheduler returns a Scheduler on clock. A nil clock uses RealClock.
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	return &Scheduler{clock: clock, tasks: make(map[string]task)}
}

// Schedule runs fn after delay unless key is scheduled again or cancelled
// first.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.tasks[key]; ok {
		prev.timer.Stop()
	}
	s.seq++
	seq := s.seq
	timer := s.clock.AfterFunc(delay, func() {
		s.mu.Lock()
		cur, ok := s.tasks[key]
		if !ok || cur.seq != seq {
			s.mu.Unlock()
			return
		}
		delete(s.tasks, key)
		s.mu.Unlock()
		fn()
	})
	s.tasks[key] = task{seq: seq, timer: timer}
}

// Cancel drops the pending task for key. It reports whether one was pending.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[key]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(s.tasks, key)
	return true
}

// Pending reports whether key has a task waiting to run.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[key]
	return ok
}

// Stop cancels every pending task.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, k)
	}
}
