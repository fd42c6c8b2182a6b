package client

import (
	"time"

	"github.com/kreid06/pirate-game-4/internal/sim/entities"
)

// RewindCapacity is the rewind buffer's fixed capacity: at least 16 frames
// (≈533ms at the 30Hz server rate); the client runs its local physics at
// the same 30Hz rate as the server's rules.Step, so 32 entries gives a
// full second of replay headroom.
const RewindCapacity = 32

// RewindEntry is one frame of predicted state, kept so a later correction
// can restore and replay from it.
type RewindEntry struct {
	ClientTick      uint64
	ServerTick      uint64
	Timestamp       time.Time
	Input           InputFrame
	World           entities.World
	NetworkDelay    time.Duration
	ServerConfirmed bool
	PredictionError float64
}

// RewindBuffer is a fixed-capacity ring of RewindEntry, oldest evicted when
// full, grounded on session.SnapshotManager's capture/restore shape but
// keyed by position in a bounded ring instead of an unbounded tick map,
// since the client only ever needs to look a few dozen frames back.
type RewindBuffer struct {
	entries  []RewindEntry
	capacity int
}

// NewRewindBuffer creates an empty rewind buffer with the given capacity.
func NewRewindBuffer(capacity int) *RewindBuffer {
	if capacity <= 0 {
		capacity = RewindCapacity
	}
	return &RewindBuffer{capacity: capacity}
}

// Push appends entry, evicting the oldest entry if the ring is full.
func (b *RewindBuffer) Push(entry RewindEntry) {
	b.entries = append(b.entries, entry)
	if len(b.entries) > b.capacity {
		b.entries = b.entries[len(b.entries)-b.capacity:]
	}
}

// Len returns the number of entries currently held.
func (b *RewindBuffer) Len() int {
	return len(b.entries)
}

// Utilization returns the fraction of capacity currently in use, for the
// rewind-buffer-utilization metric.
func (b *RewindBuffer) Utilization() float64 {
	return float64(len(b.entries)) / float64(b.capacity)
}

// FindByClientTick returns the index of the entry with the given client
// tick, or -1 if not found.
func (b *RewindBuffer) FindByClientTick(tick uint64) int {
	for i, e := range b.entries {
		if e.ClientTick == tick {
			return i
		}
	}
	return -1
}

// FindByServerTick returns the index of the entry whose ServerTick matches,
// or -1 if not found. ServerTick is left at zero on entries that were never
// tagged with a server tick, so a query for tick 0 also matches those.
func (b *RewindBuffer) FindByServerTick(tick uint64) int {
	for i, e := range b.entries {
		if e.ServerTick == tick {
			return i
		}
	}
	return -1
}

// At returns the entry at index i.
func (b *RewindBuffer) At(i int) RewindEntry {
	return b.entries[i]
}

// Set overwrites the entry at index i, used during replay to update each
// subsequent entry's World after a rollback restore.
func (b *RewindBuffer) Set(i int, entry RewindEntry) {
	b.entries[i] = entry
}

// MarkConfirmedThrough marks every entry with ClientTick <= tick as
// server-confirmed.
func (b *RewindBuffer) MarkConfirmedThrough(tick uint64) {
	for i := range b.entries {
		if b.entries[i].ClientTick <= tick {
			b.entries[i].ServerConfirmed = true
		}
	}
}

// Latest returns the most recently pushed entry, if any.
func (b *RewindBuffer) Latest() (RewindEntry, bool) {
	if len(b.entries) == 0 {
		return RewindEntry{}, false
	}
	return b.entries[len(b.entries)-1], true
}

// EntriesFrom returns every entry from index i (inclusive) to the end, in
// order, for replay after a rollback restore.
func (b *RewindBuffer) EntriesFrom(i int) []RewindEntry {
	if i < 0 || i >= len(b.entries) {
		return nil
	}
	out := make([]RewindEntry, len(b.entries)-i)
	copy(out, b.entries[i:])
	return out
}

// copyWorld deep-copies a world's entity slices, grounded on
// session.SnapshotManager's copyWorld: a correction must never mutate the
// authoritative snapshot a caller handed in, since Go slices alias their
// backing array across a plain struct assignment.
func copyWorld(world entities.World) entities.World {
	shipsCopy := make([]entities.Ship, len(world.Ships))
	copy(shipsCopy, world.Ships)
	for i := range shipsCopy {
		modulesCopy := make([]entities.Module, len(shipsCopy[i].Modules))
		copy(modulesCopy, shipsCopy[i].Modules)
		shipsCopy[i].Modules = modulesCopy
		hullCopy := make([]entities.Vec2, len(shipsCopy[i].Hull))
		copy(hullCopy, shipsCopy[i].Hull)
		shipsCopy[i].Hull = hullCopy
	}

	playersCopy := make([]entities.Player, len(world.Players))
	copy(playersCopy, world.Players)

	cannonballsCopy := make([]entities.Cannonball, len(world.Cannonballs))
	copy(cannonballsCopy, world.Cannonballs)

	return entities.World{
		Tick:         world.Tick,
		TimestampMs:  world.TimestampMs,
		Ships:        shipsCopy,
		Players:      playersCopy,
		Cannonballs:  cannonballsCopy,
		NextEntityID: world.NextEntityID,
	}
}
