package session

import "time"

// Broadcast rates (Hz), adaptive to session activity.
const (
	BroadcastRateIdleNoPlayers = 5
	BroadcastRateIdleDefault   = 20
	BroadcastRateOnePlayer     = 25
	BroadcastRateMultiPlayer   = 30
)

// BroadcastScheduler recomputes its effective snapshot-emission interval
// from the active session count, so the broadcast rate adapts as players
// join and leave instead of ticking at one fixed rate.
type BroadcastScheduler struct {
	lastSent time.Time
}

// NewBroadcastScheduler creates a scheduler with no prior send recorded.
func NewBroadcastScheduler() *BroadcastScheduler {
	return &BroadcastScheduler{}
}

// RateFor returns the broadcast rate in Hz for the given count of active
// (currently inputting) players out of the total connected session count.
func RateFor(activePlayers, totalConnected int) float64 {
	switch {
	case totalConnected == 0:
		return BroadcastRateIdleNoPlayers
	case activePlayers == 0:
		return BroadcastRateIdleDefault
	case activePlayers == 1:
		return BroadcastRateOnePlayer
	default:
		return BroadcastRateMultiPlayer
	}
}

// IntervalFor converts a Hz rate into a broadcast interval.
func IntervalFor(hz float64) time.Duration {
	return time.Duration(float64(time.Second) / hz)
}

// ShouldBroadcast reports whether enough time has passed since the last
// broadcast for the current activity level, and if so records now as the
// new last-sent time.
func (b *BroadcastScheduler) ShouldBroadcast(now time.Time, activePlayers, totalConnected int) bool {
	interval := IntervalFor(RateFor(activePlayers, totalConnected))
	if b.lastSent.IsZero() || now.Sub(b.lastSent) >= interval {
		b.lastSent = now
		return true
	}
	return false
}
