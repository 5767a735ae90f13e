package circuitbreaker

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/transferpeer/peerconnect/pkg/logger"
	"github.com/transferpeer/peerconnect/pkg/metrics"
	"go.uber.org/zap"
)

// ErrRejected marks calls the breaker refused without running them
var ErrRejected = errors.New("circuit breaker rejected call")

// Settings tunes when a Breaker opens and how it recovers
type Settings struct {
	Name string

	// Trip once MinRequests have been seen in a window and at least
	// FailureRatio of them failed.
	MinRequests  uint32
	FailureRatio float64
	Window       time.Duration

	// OpenFor is how long calls are rejected before probing again,
	// with at most Probes calls let through while half-open.
	OpenFor time.Duration
	Probes  uint32

	// Healthy decides which errors still count as a working dependency.
	// nil means only a nil error does.
	Healthy func(err error) bool
}

// Defaults returns the settings used for upstream HTTP dependencies
func Defaults(name string) Settings {
	return Settings{
		Name:         name,
		MinRequests:  5,
		FailureRatio: 0.6,
		Window:       time.Minute,
		OpenFor:      30 * time.Second,
		Probes:       3,
	}
}

// Breaker guards calls to one dependency
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

// New builds a Breaker and publishes its initial state
func New(s Settings) *Breaker {
	b := &Breaker{name: s.Name}
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.Probes,
		Interval:    s.Window,
		Timeout:     s.OpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < s.MinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= s.FailureRatio
		},
		IsSuccessful:  s.Healthy,
		OnStateChange: b.stateChanged,
	})
	metrics.BreakerState.WithLabelValues(s.Name).Set(stateValue(gobreaker.StateClosed))
	return b
}

// Do runs fn unless the breaker is open. A refused call returns an
// error matching both ErrRejected and the underlying gobreaker error.
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %w", ErrRejected, b.name, err)
	}
	return err
}

// State reports "closed", "half-open" or "open"
func (b *Breaker) State() string {
	return b.cb.State().String()
}

func (b *Breaker) stateChanged(name string, from, to gobreaker.State) {
	metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
	log := logger.Info
	if to == gobreaker.StateOpen {
		log = logger.Warn
	}
	log("Circuit breaker state changed",
		zap.String("breaker", name),
		zap.String("from", from.String()),
		zap.String("to", to.String()))
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// IsOpen reports whether err was produced by a breaker refusing the call
func IsOpen(err error) bool {
	return errors.Is(err, ErrRejected)
}
