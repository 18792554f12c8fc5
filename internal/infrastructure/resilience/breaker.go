package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen rejects calls while the breaker cools down.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ErrTooManyProbes rejects calls beyond the half-open probe budget.
var ErrTooManyProbes = errors.New("circuit breaker probe limit reached")

// State is the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings tunes a Breaker. Zero values fall back to defaults sized
// for the document service client.
type Settings struct {
	// FailureThreshold is the consecutive-failure count that opens
	// the breaker.
	FailureThreshold uint32
	// Cooldown is how long an open breaker rejects calls before
	// admitting probes again.
	Cooldown time.Duration
	// Probes is how many trial calls may run half-open; that many
	// consecutive successes close the breaker.
	Probes uint32
	// OnStateChange, when set, observes every transition. It runs
	// with the breaker lock held and must not call back into it.
	OnStateChange func(name string, from, to State)
}

// Breaker fails calls fast once the document service keeps erroring,
// instead of stacking timed-out requests behind one another.
type Breaker struct {
	name     string
	settings Settings

	mu        sync.Mutex
	state     State
	epoch     uint64 // Bumped on every transition; stale call results are dropped
	failures  uint32 // Consecutive failures while closed
	successes uint32 // Consecutive probe successes while half-open
	probes    uint32 // Probes admitted in the current half-open window
	reopenAt  time.Time
}

// New creates a breaker in the closed state.
func New(name string, settings Settings) *Breaker {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 5
	}
	if settings.Cooldown == 0 {
		settings.Cooldown = 30 * time.Second
	}
	if settings.Probes == 0 {
		settings.Probes = 1
	}
	return &Breaker{name: name, settings: settings}
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.name
}

// State reports the current state, promoting open to half-open once
// the cooldown has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh(time.Now())
	return b.state
}

// Failures reports the current consecutive-failure count.
func (b *Breaker) Failures() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Execute runs req unless the breaker rejects it. A panic inside req
// counts as a failure and is re-raised.
func (b *Breaker) Execute(req func() (interface{}, error)) (interface{}, error) {
	epoch, err := b.admit()
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			b.settle(epoch, false)
			panic(r)
		}
	}()

	result, err := req()
	b.settle(epoch, err == nil)
	return result, err
}

func (b *Breaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh(time.Now())

	switch b.state {
	case StateOpen:
		return b.epoch, ErrCircuitOpen
	case StateHalfOpen:
		if b.probes >= b.settings.Probes {
			return b.epoch, ErrTooManyProbes
		}
		b.probes++
	}
	return b.epoch, nil
}

func (b *Breaker) settle(epoch uint64, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh(time.Now())

	if epoch != b.epoch {
		return // Call outlived a transition; its window is already settled
	}

	switch b.state {
	case StateClosed:
		if success {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.settings.FailureThreshold {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		if !success {
			b.transition(StateOpen)
			return
		}
		b.successes++
		if b.successes >= b.settings.Probes {
			b.transition(StateClosed)
		}
	}
}

// refresh promotes an expired open state to half-open. Callers hold mu.
func (b *Breaker) refresh(now time.Time) {
	if b.state == StateOpen && now.After(b.reopenAt) {
		b.transition(StateHalfOpen)
	}
}

// transition moves to next and resets the window counters. Callers
// hold mu.
func (b *Breaker) transition(next State) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	b.epoch++
	b.failures = 0
	b.successes = 0
	b.probes = 0
	if next == StateOpen {
		b.reopenAt = time.Now().Add(b.settings.Cooldown)
	}

	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, prev, next)
	}
}
