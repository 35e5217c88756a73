package timectrl

import (
	"context"
	"sync"
	"time"
)

// DefaultRate is the host's fixed update rate in ticks per second.
const DefaultRate = 20

// DefaultInterval is the wall time of one tick at DefaultRate.
const DefaultInterval = time.Second / DefaultRate

// TickSource is an interface for reading the current tick number. Components
// depend on it rather than on a concrete controller so tests can drive time
// by hand.
type TickSource interface {
	// Ticks returns the number of ticks elapsed so far.
	Ticks() uint64
}

// Mode describes how the TickController advances.
type Mode int

const (
	// RealTime advances one tick per Interval of wall-clock time.
	RealTime Mode = iota
	// Accelerated advances as quickly as the listeners allow.
	Accelerated
)

// ParseMode maps a config string onto a Mode. Unknown values yield RealTime.
func ParseMode(s string) Mode {
	if s == "accelerated" {
		return Accelerated
	}
	return RealTime
}

// TickController drives a fixed-rate tick loop and notifies registered
// listeners on every tick. It implements TickSource.
type TickController struct {
	mu       sync.RWMutex
	Interval time.Duration
	Mode     Mode

	tick uint64

	listeners []func(uint64)
}

// NewTickController constructs a controller. A non-positive interval falls
// back to DefaultInterval.
func NewTickController(interval time.Duration, mode Mode) *TickController {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &TickController{
		Interval: interval,
		Mode:     mode,
	}
}

// Ticks returns the number of ticks elapsed. Implements TickSource.
func (tc *TickController) Ticks() uint64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.tick
}

// SetTicks overrides the tick counter without notifying listeners.
func (tc *TickController) SetTicks(n uint64) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.tick = n
}

// AddListener registers a callback invoked with the new tick number on every
// tick. Listeners run on the controller's goroutine, in registration order.
func (tc *TickController) AddListener(fn func(tick uint64)) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// Step advances a single tick synchronously and returns the new tick number.
func (tc *TickController) Step() uint64 {
	tc.mu.Lock()
	tc.tick++
	n := tc.tick
	listeners := append([]func(uint64){}, tc.listeners...)
	tc.mu.Unlock()

	for _, fn := range listeners {
		fn(n)
	}
	return n
}

// Start runs the controller in a separate goroutine until maxTicks ticks
// have been produced (zero means unbounded) or ctx is cancelled. It returns
// a channel that is closed when the controller finishes.
func (tc *TickController) Start(ctx context.Context, maxTicks uint64) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		var ticker *time.Ticker
		if tc.Mode == RealTime {
			ticker = time.NewTicker(tc.Interval)
			defer ticker.Stop()
		}

		for produced := uint64(0); maxTicks == 0 || produced < maxTicks; produced++ {
			if ticker != nil {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			} else if ctx.Err() != nil {
				return
			}
			tc.Step()
		}
	}()
	return done
}
