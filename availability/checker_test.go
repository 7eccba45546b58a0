package availability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/initializ/glewlwyd-console/api"
	"github.com/initializ/glewlwyd-console/debounce"
)

type fakeProber struct {
	mu     sync.Mutex
	calls  []string
	answer func(username string) error
}

func (p *fakeProber) CheckUsername(_ context.Context, username string) error {
	p.mu.Lock()
	p.calls = append(p.calls, username)
	p.mu.Unlock()
	if p.answer == nil {
		return nil
	}
	return p.answer(username)
}

func (p *fakeProber) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

var errTaken = &api.StatusError{Status: 400, Body: "username already exists"}

type recorder struct {
	results     []Result
	suggestions []SuggestionResult
}

func newTestChecker(p *fakeProber, clock *debounce.FakeClock, rec *recorder, rnd func(int) int) *Checker {
	return NewChecker(Options{
		Prober:       p,
		Clock:        clock,
		Rand:         rnd,
		OnResult:     func(r Result) { rec.results = append(rec.results, r) },
		OnSuggestion: func(s SuggestionResult) { rec.suggestions = append(rec.suggestions, s) },
	})
}

func TestChecker_EditsWithinWindowIssueOneCheck(t *testing.T) {
	clock := debounce.NewFakeClock()
	p := &fakeProber{}
	rec := &recorder{}
	c := newTestChecker(p, clock, rec, nil)

	c.Edit("username", "a", true)
	clock.Advance(300 * time.Millisecond)
	c.Edit("username", "ab", true)
	clock.Advance(300 * time.Millisecond)
	gen := c.Edit("username", "abc", true)
	clock.Advance(DefaultDelay)

	calls := p.Calls()
	if len(calls) != 1 || calls[0] != "abc" {
		t.Fatalf("calls = %v, want [abc]", calls)
	}
	if len(rec.results) != 1 {
		t.Fatalf("results = %v, want 1", rec.results)
	}
	r := rec.results[0]
	if r.Outcome != OutcomeAvailable || r.Generation != gen || r.Value != "abc" {
		t.Errorf("result = %+v, want available abc gen %d", r, gen)
	}
}

func TestChecker_EditsAfterWindowIssueTwoChecks(t *testing.T) {
	clock := debounce.NewFakeClock()
	p := &fakeProber{}
	rec := &recorder{}
	c := newTestChecker(p, clock, rec, nil)

	c.Edit("username", "a", true)
	clock.Advance(DefaultDelay)
	c.Edit("username", "ab", true)
	clock.Advance(DefaultDelay)

	calls := p.Calls()
	if len(calls) != 2 || calls[0] != "a" || calls[1] != "ab" {
		t.Errorf("calls = %v, want [a ab]", calls)
	}
}

func TestChecker_EmptyValueCancels(t *testing.T) {
	clock := debounce.NewFakeClock()
	p := &fakeProber{}
	rec := &recorder{}
	c := newTestChecker(p, clock, rec, nil)

	c.Edit("username", "abc", true)
	c.Edit("username", "", true)
	clock.Advance(DefaultDelay)

	if len(p.Calls()) != 0 {
		t.Errorf("calls = %v, want none", p.Calls())
	}
	if len(rec.results) != 0 {
		t.Errorf("results = %v, want none", rec.results)
	}
}

func TestChecker_StaleResultDropped(t *testing.T) {
	clock := debounce.NewFakeClock()
	rec := &recorder{}
	var c *Checker
	p := &fakeProber{}
	p.answer = func(username string) error {
		if username == "old" {
			// A newer edit arrives while the request is in flight.
			c.Edit("username", "new", true)
		}
		return nil
	}
	c = newTestChecker(p, clock, rec, nil)

	c.Edit("username", "old", true)
	clock.Advance(DefaultDelay)

	if len(rec.results) != 0 {
		t.Fatalf("stale result delivered: %+v", rec.results)
	}
	clock.Advance(DefaultDelay)
	if len(rec.results) != 1 || rec.results[0].Value != "new" {
		t.Errorf("results = %+v, want one for new", rec.results)
	}
}

func TestChecker_ConnectivityErrorIsUnknown(t *testing.T) {
	clock := debounce.NewFakeClock()
	p := &fakeProber{answer: func(string) error { return errors.New("connection refused") }}
	rec := &recorder{}
	c := newTestChecker(p, clock, rec, nil)

	c.Edit("username", "abc", true)
	clock.Advance(DefaultDelay)

	if len(rec.results) != 1 {
		t.Fatalf("results = %v", rec.results)
	}
	if rec.results[0].Outcome != OutcomeUnknown || rec.results[0].Err == nil {
		t.Errorf("result = %+v, want unknown with error", rec.results[0])
	}
	if len(rec.suggestions) != 0 {
		t.Errorf("suggestion search started on connectivity error")
	}
}

func TestChecker_SuggestionStopsAtFirstSuccess(t *testing.T) {
	for k := 1; k <= DefaultMaxSuggestions; k++ {
		t.Run(fmt.Sprintf("probe %d succeeds", k), func(t *testing.T) {
			clock := debounce.NewFakeClock()
			n := 0
			rnd := func(int) int { n++; return n }
			p := &fakeProber{}
			p.answer = func(username string) error {
				if username == fmt.Sprintf("bob%02d", k) {
					return nil
				}
				return errTaken
			}
			rec := &recorder{}
			c := newTestChecker(p, clock, rec, rnd)

			c.Edit("username", "bob", true)
			clock.Advance(DefaultDelay)

			if rec.results[0].Outcome != OutcomeTaken {
				t.Fatalf("outcome = %v, want taken", rec.results[0].Outcome)
			}
			if len(rec.suggestions) != 1 {
				t.Fatalf("suggestions = %v", rec.suggestions)
			}
			s := rec.suggestions[0]
			if s.Probes != k {
				t.Errorf("Probes = %d, want %d", s.Probes, k)
			}
			if want := fmt.Sprintf("bob%02d", k); s.Username != want {
				t.Errorf("Username = %q, want %q", s.Username, want)
			}
			// One check for "bob" plus k probes.
			if got := len(p.Calls()); got != k+1 {
				t.Errorf("calls = %d, want %d", got, k+1)
			}
		})
	}
}

func TestChecker_SuggestionBudgetExhausted(t *testing.T) {
	clock := debounce.NewFakeClock()
	p := &fakeProber{answer: func(string) error { return errTaken }}
	rec := &recorder{}
	c := newTestChecker(p, clock, rec, func(int) int { return 7 })

	c.Edit("username", "bob", true)
	clock.Advance(DefaultDelay)

	s := rec.suggestions[0]
	if s.Username != "" {
		t.Errorf("Username = %q, want none", s.Username)
	}
	if s.Probes != DefaultMaxSuggestions {
		t.Errorf("Probes = %d, want %d", s.Probes, DefaultMaxSuggestions)
	}
	if got := len(p.Calls()); got != DefaultMaxSuggestions+1 {
		t.Errorf("calls = %d, want %d", got, DefaultMaxSuggestions+1)
	}
}

func TestChecker_SuggestionConnectivityErrorStopsSearch(t *testing.T) {
	clock := debounce.NewFakeClock()
	p := &fakeProber{}
	p.answer = func(username string) error {
		if username == "bob" {
			return errTaken
		}
		return &api.StatusError{Status: 502}
	}
	rec := &recorder{}
	c := newTestChecker(p, clock, rec, nil)

	c.Edit("username", "bob", true)
	clock.Advance(DefaultDelay)

	s := rec.suggestions[0]
	if s.Err == nil || s.Probes != 1 || s.Username != "" {
		t.Errorf("suggestion = %+v, want error after one probe", s)
	}
}

func TestChecker_NoSuggestionWhenDisabled(t *testing.T) {
	clock := debounce.NewFakeClock()
	p := &fakeProber{answer: func(string) error { return errTaken }}
	rec := &recorder{}
	c := newTestChecker(p, clock, rec, nil)

	c.Edit("email", "a@example.com", false)
	clock.Advance(DefaultDelay)

	if len(p.Calls()) != 1 {
		t.Errorf("calls = %v, want only the check", p.Calls())
	}
	if len(rec.suggestions) != 0 {
		t.Errorf("suggestions = %v, want none", rec.suggestions)
	}
}

func TestChecker_CheckNowSkipsDelay(t *testing.T) {
	clock := debounce.NewFakeClock()
	p := &fakeProber{}
	rec := &recorder{}
	c := newTestChecker(p, clock, rec, nil)

	c.CheckNow("username", "bob42", true)
	clock.Advance(0)

	if calls := p.Calls(); len(calls) != 1 || calls[0] != "bob42" {
		t.Errorf("calls = %v, want [bob42]", calls)
	}
}

func TestChecker_CloseDropsPending(t *testing.T) {
	clock := debounce.NewFakeClock()
	p := &fakeProber{}
	rec := &recorder{}
	c := newTestChecker(p, clock, rec, nil)

	c.Edit("username", "abc", true)
	c.Close()
	clock.Advance(DefaultDelay)

	if len(p.Calls()) != 0 {
		t.Errorf("calls = %v, want none", p.Calls())
	}
}
