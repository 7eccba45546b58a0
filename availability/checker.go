// Package availability debounces identifier edits and asks the server
// whether the identifier is free, proposing an alternative when it is not.
package availability

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/initializ/glewlwyd-console/api"
	"github.com/initializ/glewlwyd-console/debounce"
)

// DefaultDelay is the quiet period before a check is issued.
const DefaultDelay = 1000 * time.Millisecond

// DefaultMaxSuggestions bounds the suggestion search.
const DefaultMaxSuggestions = 10

// Prober asks the server whether an identifier is available. A nil error
// means available; a 400-class *api.StatusError means taken or invalid.
type Prober interface {
	CheckUsername(ctx context.Context, username string) error
}

// Outcome is the result of a single availability check.
type Outcome int

const (
	// OutcomeAvailable: the server accepted the identifier.
	OutcomeAvailable Outcome = iota
	// OutcomeTaken: the server rejected it with a client error.
	OutcomeTaken
	// OutcomeUnknown: the server could not be reached; Err is set.
	OutcomeUnknown
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAvailable:
		return "available"
	case OutcomeTaken:
		return "taken"
	default:
		return "unknown"
	}
}

// Result reports a check for the edit tagged Generation.
type Result struct {
	Key        string
	Value      string
	Generation uint64
	Outcome    Outcome
	Err        error
}

// SuggestionResult ends a suggestion search. Username is empty when the
// attempt budget ran out or Err interrupted the search.
type SuggestionResult struct {
	Key        string
	Generation uint64
	Username   string
	Probes     int
	Err        error
}

// Options configures a Checker.
type Options struct {
	Prober         Prober
	Clock          debounce.Clock
	Delay          time.Duration
	MaxSuggestions int
	// Rand returns a number in [0, n). Defaults to math/rand/v2.
	Rand func(n int) int
	// Context bounds every remote call. Defaults to context.Background.
	Context      context.Context
	OnResult     func(Result)
	OnSuggestion func(SuggestionResult)
}

// Checker runs debounced availability checks for any number of keyed
// fields. Only the latest edit of a field may deliver results.
type Checker struct {
	prober         Prober
	sched          *debounce.Scheduler
	delay          time.Duration
	maxSuggestions int
	rand           func(int) int
	ctx            context.Context
	onResult       func(Result)
	onSuggestion   func(SuggestionResult)

	mu   sync.Mutex
	gens map[string]uint64
}

// NewChecker creates a Checker.
func NewChecker(opts Options) *Checker {
	c := &Checker{
		prober:         opts.Prober,
		sched:          debounce.NewScheduler(opts.Clock),
		delay:          opts.Delay,
		maxSuggestions: opts.MaxSuggestions,
		rand:           opts.Rand,
		ctx:            opts.Context,
		onResult:       opts.OnResult,
		onSuggestion:   opts.OnSuggestion,
		gens:           make(map[string]uint64),
	}
	if c.delay <= 0 {
		c.delay = DefaultDelay
	}
	if c.maxSuggestions <= 0 {
		c.maxSuggestions = DefaultMaxSuggestions
	}
	if c.rand == nil {
		c.rand = rand.IntN
	}
	if c.ctx == nil {
		c.ctx = context.Background()
	}
	if c.onResult == nil {
		c.onResult = func(Result) {}
	}
	if c.onSuggestion == nil {
		c.onSuggestion = func(SuggestionResult) {}
	}
	return c
}

// Edit records a new value for key and returns its generation. Any pending
// check for key is cancelled; a new one runs after the debounce delay. An
// empty value cancels without scheduling. When suggest is set, a taken value
// starts a suggestion search.
func (c *Checker) Edit(key, value string, suggest bool) uint64 {
	return c.schedule(key, value, suggest, c.delay)
}

// CheckNow is Edit without the debounce delay.
func (c *Checker) CheckNow(key, value string, suggest bool) uint64 {
	return c.schedule(key, value, suggest, 0)
}

// Close cancels every pending check. In-flight calls finish but their
// results are dropped.
func (c *Checker) Close() {
	c.sched.Stop()
	c.mu.Lock()
	for k := range c.gens {
		c.gens[k]++
	}
	c.mu.Unlock()
}

func (c *Checker) schedule(key, value string, suggest bool, delay time.Duration) uint64 {
	c.mu.Lock()
	c.gens[key]++
	gen := c.gens[key]
	c.mu.Unlock()

	if value == "" {
		c.sched.Cancel(key)
		return gen
	}

	c.sched.Schedule(key, delay, func() {
		c.run(key, value, gen, suggest)
	})
	return gen
}

func (c *Checker) current(key string, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key] == gen
}

func (c *Checker) run(key, value string, gen uint64, suggest bool) {
	if !c.current(key, gen) {
		return
	}
	err := c.prober.CheckUsername(c.ctx, value)
	if !c.current(key, gen) {
		return
	}

	res := Result{Key: key, Value: value, Generation: gen}
	switch {
	case err == nil:
		res.Outcome = OutcomeAvailable
	case api.IsClientError(err):
		res.Outcome = OutcomeTaken
	default:
		res.Outcome = OutcomeUnknown
		res.Err = err
	}
	c.onResult(res)

	if res.Outcome == OutcomeTaken && suggest {
		c.onSuggestion(c.suggest(key, value, gen))
	}
}
