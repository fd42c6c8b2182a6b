package session

import "time"

// InputRateLimit is the maximum sustained rate of inbound input messages
// accepted from a single session, across every message kind combined.
const InputRateLimit = 120.0

const minInputInterval = time.Second / time.Duration(InputRateLimit)

// RateLimiter enforces a minimum spacing between accepted events. Its zero
// value allows the first call through, so it needs no constructor and can
// be embedded directly in PlayerSession.
type RateLimiter struct {
	last time.Time
}

// Allow reports whether an event at time now arrives no sooner than
// minInputInterval after the last accepted one, recording now as the new
// last-accepted time when it does.
func (r *RateLimiter) Allow(now time.Time) bool {
	if !r.last.IsZero() && now.Sub(r.last) < minInputInterval {
		return false
	}
	r.last = now
	return true
}
