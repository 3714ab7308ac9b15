// Package circuitbreaker stops calling a dependency that keeps failing and
// lets a single trial call through once a cooldown has passed.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"github.com/vesting-console/internal/logging"
)

// State represents the circuit breaker state
type State string

const (
	// StateClosed means calls flow normally
	StateClosed State = "closed"
	// StateOpen means calls are rejected without reaching the dependency
	StateOpen State = "open"
	// StateHalfOpen means one trial call is allowed through
	StateHalfOpen State = "half_open"
)

// ErrCircuitOpen is returned when the breaker rejects a call
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config configures a circuit breaker
type Config struct {
	Name        string
	MaxFailures int           // Consecutive failures before opening, 0 disables the breaker
	Cooldown    time.Duration // Time spent open before a trial call is allowed
	// IsFailure decides which errors count against the dependency. Nil counts every error.
	IsFailure func(error) bool
	Logger    *logging.Logger
}

// DefaultConfig returns a default circuit breaker configuration
func DefaultConfig(name string) *Config {
	return &Config{
		Name:        name,
		MaxFailures: 5,
		Cooldown:    30 * time.Second,
	}
}

// CircuitBreaker implements the circuit breaker pattern
type CircuitBreaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration
	isFailure   func(error) bool
	logger      *logging.Logger
	now         func() time.Time

	mu               sync.Mutex
	state            State
	consecutiveFails int
	probing          bool
	openedAt         time.Time
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(config *Config) *CircuitBreaker {
	if config == nil {
		config = DefaultConfig("default")
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	isFailure := config.IsFailure
	if isFailure == nil {
		isFailure = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{
		name:        config.Name,
		maxFailures: config.MaxFailures,
		cooldown:    config.Cooldown,
		isFailure:   isFailure,
		logger:      logger.WithField("circuitBreaker", config.Name),
		now:         time.Now,
		state:       StateClosed,
	}
}

// Execute runs fn unless the breaker is open
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}
	err := fn()
	cb.afterRequest(err)
	return err
}

func (cb *CircuitBreaker) beforeRequest() error {
	if cb.maxFailures <= 0 {
		return nil
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.cooldown {
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.probing = true
		cb.logger.Info("Circuit breaker half-open, probing")
		return nil
	case StateHalfOpen:
		if cb.probing {
			return ErrCircuitOpen
		}
		cb.probing = true
		return nil
	default:
		return nil
	}
}

func (cb *CircuitBreaker) afterRequest(err error) {
	if cb.maxFailures <= 0 {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.probing = false
	if err == nil || !cb.isFailure(err) {
		if cb.state != StateClosed {
			cb.logger.Info("Circuit breaker closed after successful trial call")
		}
		cb.state = StateClosed
		cb.consecutiveFails = 0
		return
	}

	cb.consecutiveFails++
	if cb.state == StateHalfOpen || cb.consecutiveFails >= cb.maxFailures {
		if cb.state != StateOpen {
			cb.logger.WithFields(map[string]interface{}{
				"consecutiveFails": cb.consecutiveFails,
				"cooldown":         cb.cooldown.String(),
			}).Warn("Circuit breaker opened")
		}
		cb.state = StateOpen
		cb.openedAt = cb.now()
	}
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats represents circuit breaker statistics
type Stats struct {
	Name             string    `json:"name"`
	State            State     `json:"state"`
	ConsecutiveFails int       `json:"consecutiveFails"`
	OpenedAt         time.Time `json:"openedAt,omitempty"`
}

// GetStats returns statistics about the circuit breaker
func (cb *CircuitBreaker) GetStats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return Stats{
		Name:             cb.name,
		State:            cb.state,
		ConsecutiveFails: cb.consecutiveFails,
		OpenedAt:         cb.openedAt,
	}
}

// Reset manually closes the breaker
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.consecutiveFails = 0
	cb.probing = false
	cb.logger.Info("Circuit breaker manually reset")
}
