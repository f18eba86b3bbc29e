// Package circuitbreaker stops calling a failing dependency for a while
// after repeated errors.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

type Settings struct {
	Name string
	// MaxFailures consecutive errors open the breaker.
	MaxFailures int
	// Timeout is how long the breaker stays open before one trial call.
	Timeout time.Duration
	// OnStateChange is called with the lock released.
	OnStateChange func(name string, from, to State)
}

type CircuitBreaker struct {
	settings Settings
	now      func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	trial    bool
}

func New(settings Settings) *CircuitBreaker {
	if settings.MaxFailures <= 0 {
		settings.MaxFailures = 5
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}
	return &CircuitBreaker{settings: settings, now: time.Now}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState()
}

// Execute runs fn unless the breaker is open. While half-open only one
// caller at a time gets through.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.before(); err != nil {
		return err
	}
	err := fn()
	cb.after(err)
	return err
}

func (cb *CircuitBreaker) currentState() State {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.settings.Timeout {
		return StateHalfOpen
	}
	return cb.state
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	from := cb.state
	to := cb.currentState()
	if to == StateHalfOpen {
		if cb.trial {
			cb.mu.Unlock()
			return ErrOpen
		}
		cb.trial = true
	}
	cb.state = to
	cb.mu.Unlock()

	if to == StateOpen {
		return ErrOpen
	}
	cb.notify(from, to)
	return nil
}

func (cb *CircuitBreaker) after(err error) {
	cb.mu.Lock()
	from := cb.state
	cb.trial = false
	if err != nil {
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.settings.MaxFailures {
			cb.state = StateOpen
			cb.openedAt = cb.now()
		}
	} else {
		cb.failures = 0
		cb.state = StateClosed
	}
	to := cb.state
	cb.mu.Unlock()

	cb.notify(from, to)
}

func (cb *CircuitBreaker) notify(from, to State) {
	if from != to && cb.settings.OnStateChange != nil {
		cb.settings.OnStateChange(cb.settings.Name, from, to)
	}
}
