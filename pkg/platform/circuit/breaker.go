// Package circuit provides a small circuit breaker for calls to upstream
// identity providers.
package circuit

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Do while the circuit is open and the cool-down has
// not elapsed yet.
var ErrOpen = errors.New("circuit open")

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the upstream is healthy and calls flow normally.
	StateClosed State = iota
	// StateOpen means the circuit has tripped and calls fail fast.
	StateOpen
	// StateHalfOpen means the cool-down elapsed and probe calls are allowed.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Breaker trips after FailureThreshold consecutive failures, fails fast for
// the cool-down period, then lets probes through. SuccessThreshold
// consecutive probe successes close it again; any probe failure reopens it.
type Breaker struct {
	mu               sync.Mutex
	name             string
	state            State
	failureCount     int
	successCount     int
	failureThreshold int
	successThreshold int
	coolDown         time.Duration
	openedAt         time.Time
	now              func() time.Time
	onChange         func(name string, from, to State)
}

// Option configures a Breaker instance.
type Option func(*Breaker)

// WithFailureThreshold sets the number of consecutive failures to open the circuit.
// Default is 5.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets the number of consecutive probe successes to close the circuit.
// Default is 2.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// WithCoolDown sets how long the circuit stays open before probing. Default 30s.
func WithCoolDown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.coolDown = d
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// WithStateChange registers a callback invoked (outside the lock) on every transition.
func WithStateChange(fn func(name string, from, to State)) Option {
	return func(b *Breaker) {
		b.onChange = fn
	}
}

// New creates a circuit breaker with the given name and options.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		state:            StateClosed,
		failureThreshold: 5,
		successThreshold: 2,
		coolDown:         30 * time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Name returns the circuit breaker's name for logging/metrics.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current circuit state, accounting for an elapsed cool-down.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.coolDown {
		return StateHalfOpen
	}
	return b.state
}

// Do runs fn unless the circuit is open. The outcome of fn is recorded.
// Errors for which ignore returns true (e.g. client mistakes such as an
// invalid authorization code) are returned without counting as failures.
func (b *Breaker) Do(fn func() error, ignore func(error) bool) error {
	if !b.allow() {
		return ErrOpen
	}
	err := fn()
	switch {
	case err == nil:
		b.record(true)
	case ignore != nil && ignore(err):
		b.record(true)
	default:
		b.record(false)
	}
	return err
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	if b.state != StateOpen {
		b.mu.Unlock()
		return true
	}
	if b.now().Sub(b.openedAt) < b.coolDown {
		b.mu.Unlock()
		return false
	}
	from := b.state
	b.state = StateHalfOpen
	b.successCount = 0
	b.mu.Unlock()
	b.notify(from, StateHalfOpen)
	return true
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	from := b.state
	if success {
		b.failureCount = 0
		if b.state == StateHalfOpen {
			b.successCount++
			if b.successCount >= b.successThreshold {
				b.state = StateClosed
				b.successCount = 0
			}
		}
	} else {
		b.successCount = 0
		b.failureCount++
		if b.state == StateHalfOpen || b.failureCount >= b.failureThreshold {
			b.state = StateOpen
			b.openedAt = b.now()
		}
	}
	to := b.state
	b.mu.Unlock()
	if from != to {
		b.notify(from, to)
	}
}

func (b *Breaker) notify(from, to State) {
	if b.onChange != nil {
		b.onChange(b.name, from, to)
	}
}

// Reset resets the circuit breaker to closed state with zero counts.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
}
