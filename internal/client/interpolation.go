package client

import (
	"math"
	"sort"
	"time"

	"github.com/kreid06/pirate-game-4/internal/sim/entities"
)

// MinInterpolationSnapshots is the interpolation buffer's minimum retained
// size: at least 8 recent authoritative snapshots.
const MinInterpolationSnapshots = 8

// interpolationBufferFloor/Ceil bound the render-delay window computed
// from estimated network delay.
const (
	interpolationBufferFloor = 50 * time.Millisecond
	interpolationBufferCeil  = 300 * time.Millisecond
	interpolationBufferSlack = 30 * time.Millisecond
)

// snapshotFrame is one authoritative world received from the server,
// stamped with the local arrival time it should be played back at.
type snapshotFrame struct {
	Timestamp time.Time
	World     entities.World
}

// InterpolationBuffer holds recent authoritative snapshots sorted by
// arrival timestamp, used to render remote entities smoothly between
// ticks instead of snapping to each new snapshot.
type InterpolationBuffer struct {
	frames   []snapshotFrame
	capacity int
}

// NewInterpolationBuffer creates a buffer retaining at least
// MinInterpolationSnapshots frames.
func NewInterpolationBuffer(capacity int) *InterpolationBuffer {
	if capacity < MinInterpolationSnapshots {
		capacity = MinInterpolationSnapshots
	}
	return &InterpolationBuffer{capacity: capacity}
}

// Add inserts a snapshot, keeping the buffer sorted by timestamp and
// trimmed to capacity (oldest dropped first). The world is deep-copied so
// a caller reusing its snapshot buffer afterward can't retroactively
// change what's stored here.
func (b *InterpolationBuffer) Add(world entities.World, timestamp time.Time) {
	b.frames = append(b.frames, snapshotFrame{Timestamp: timestamp, World: copyWorld(world)})
	sort.Slice(b.frames, func(i, j int) bool { return b.frames[i].Timestamp.Before(b.frames[j].Timestamp) })
	if len(b.frames) > b.capacity {
		b.frames = b.frames[len(b.frames)-b.capacity:]
	}
}

// Len returns the number of frames currently buffered.
func (b *InterpolationBuffer) Len() int {
	return len(b.frames)
}

// RenderDelay computes the interpolation window:
// clamp(oneWayLatency + serverTickMs + 30ms, 50ms, 300ms).
func RenderDelay(oneWayLatency, serverTick time.Duration) time.Duration {
	delay := oneWayLatency + serverTick + interpolationBufferSlack
	if delay < interpolationBufferFloor {
		return interpolationBufferFloor
	}
	if delay > interpolationBufferCeil {
		return interpolationBufferCeil
	}
	return delay
}

// Sample produces an interpolated world at render time R = now - delay: it
// lerps positions/velocities, uses shortest-path angular lerp for
// rotations, and takes the later snapshot's projectiles verbatim (too
// fast-moving to interpolate). If R precedes the oldest buffered snapshot
// or follows the newest, the respective boundary snapshot is returned
// rather than extrapolating.
func (b *InterpolationBuffer) Sample(now time.Time, delay time.Duration) (entities.World, bool) {
	if len(b.frames) == 0 {
		return entities.World{}, false
	}
	renderTime := now.Add(-delay)

	if !renderTime.After(b.frames[0].Timestamp) {
		return b.frames[0].World, true
	}
	last := b.frames[len(b.frames)-1]
	if !renderTime.Before(last.Timestamp) {
		return last.World, true
	}

	for i := 0; i < len(b.frames)-1; i++ {
		a, bb := b.frames[i], b.frames[i+1]
		if !renderTime.Before(a.Timestamp) && !renderTime.After(bb.Timestamp) {
			span := bb.Timestamp.Sub(a.Timestamp)
			alpha := 0.0
			if span > 0 {
				alpha = float64(renderTime.Sub(a.Timestamp)) / float64(span)
			}
			if alpha < 0 {
				alpha = 0
			}
			if alpha > 1 {
				alpha = 1
			}
			return lerpWorld(a.World, bb.World, alpha), true
		}
	}
	return last.World, true
}

// lerpWorld blends two worlds by matching entity ids; entities present in
// only one of the two worlds are carried through unblended. Projectiles
// are taken from the later world verbatim, not interpolated.
func lerpWorld(a, b entities.World, alpha float64) entities.World {
	out := b

	out.Ships = make([]entities.Ship, len(b.Ships))
	copy(out.Ships, b.Ships)
	for i := range out.Ships {
		if prev := findShip(a, out.Ships[i].ID); prev != nil {
			out.Ships[i].Pos = prev.Pos.Lerp(out.Ships[i].Pos, alpha)
			out.Ships[i].Vel = prev.Vel.Lerp(out.Ships[i].Vel, alpha)
			out.Ships[i].Rot = lerpAngle(prev.Rot, out.Ships[i].Rot, alpha)
		}
	}

	out.Players = make([]entities.Player, len(b.Players))
	copy(out.Players, b.Players)
	for i := range out.Players {
		if prev := findPlayer(a, out.Players[i].ID); prev != nil {
			out.Players[i].Pos = prev.Pos.Lerp(out.Players[i].Pos, alpha)
			out.Players[i].Vel = prev.Vel.Lerp(out.Players[i].Vel, alpha)
			out.Players[i].Rot = lerpAngle(prev.Rot, out.Players[i].Rot, alpha)
		}
	}

	return out
}

func findShip(w entities.World, id uint32) *entities.Ship {
	for i := range w.Ships {
		if w.Ships[i].ID == id {
			return &w.Ships[i]
		}
	}
	return nil
}

func findPlayer(w entities.World, id uint32) *entities.Player {
	for i := range w.Players {
		if w.Players[i].ID == id {
			return &w.Players[i]
		}
	}
	return nil
}

// lerpAngle interpolates from a to b by the shortest angular path,
// wrapping into [0, 2π).
func lerpAngle(a, b, t float64) float64 {
	diff := math.Mod(b-a+math.Pi, 2*math.Pi) - math.Pi
	if diff < -math.Pi {
		diff += 2 * math.Pi
	}
	result := a + diff*t
	result = math.Mod(result, 2*math.Pi)
	if result < 0 {
		result += 2 * math.Pi
	}
	return result
}
