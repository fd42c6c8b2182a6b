package session

import (
	"time"

	"github.com/kreid06/pirate-game-4/internal/sim/rules"
)

// Clock is an interface for time abstraction, allowing deterministic testing
// with fake clocks.
type Clock interface {
	Now() time.Time
}

// FakeClock is a deterministic clock implementation for testing. It allows
// precise control over time advancement, which testing the simulator's
// determinism property requires.
type FakeClock struct {
	startTime   time.Time
	currentTime time.Time
}

// NewFakeClock creates a new fake clock starting at the current time.
func NewFakeClock() *FakeClock {
	now := time.Now()
	return &FakeClock{startTime: now, currentTime: now}
}

// Now returns the current fake time.
func (f *FakeClock) Now() time.Time {
	return f.currentTime
}

// Advance moves the fake clock forward by the specified duration.
func (f *FakeClock) Advance(d time.Duration) {
	f.currentTime = f.currentTime.Add(d)
}

// SetTime sets the fake clock to a specific time.
func (f *FakeClock) SetTime(t time.Time) {
	f.currentTime = t
}

// RealClock is a wrapper around the real time package for production use.
type RealClock struct{}

// NewRealClock creates a new real clock.
func NewRealClock() *RealClock {
	return &RealClock{}
}

// Now returns the current real time.
func (r *RealClock) Now() time.Time {
	return time.Now()
}

// Ticker generates ticks at a fixed rate, using a Clock so tests can drive
// it deterministically instead of sleeping real wall-clock time.
type Ticker struct {
	clock    Clock
	interval time.Duration
	lastTick time.Time
}

// NewTicker creates a new ticker with the specified clock and interval.
func NewTicker(clock Clock, interval time.Duration) *Ticker {
	return &Ticker{clock: clock, interval: interval, lastTick: clock.Now()}
}

// NewFixedRateTicker creates a ticker at rules.TickRate (30 Hz).
func NewFixedRateTicker(clock Clock) *Ticker {
	interval := time.Duration(float64(time.Second) / rules.TickRate)
	return NewTicker(clock, interval)
}

// ShouldTick returns true if enough time has passed since the last tick.
func (t *Ticker) ShouldTick(now time.Time) bool {
	return now.Sub(t.lastTick) >= t.interval
}

// Tick advances the ticker if enough time has passed, returning true if a
// tick occurred.
func (t *Ticker) Tick(now time.Time) bool {
	if !t.ShouldTick(now) {
		return false
	}
	t.lastTick = now
	return true
}

// Reset sets lastTick to the clock's current time.
func (t *Ticker) Reset() {
	t.lastTick = t.clock.Now()
}
