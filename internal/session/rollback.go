package session

import (
	"time"

	"github.com/kreid06/pirate-game-4/internal/sim/entities"
)

// Snapshot captures the world state at a specific tick for later restore.
type Snapshot struct {
	World entities.World
	Tick  uint64
	Time  time.Time
}

// RollbackHook lets components react to snapshot capture/restore.
type RollbackHook interface {
	BeforeSnapshot(snapshot *Snapshot)
	AfterRestore(snapshot *Snapshot)
}

// SnapshotManager keeps captured world states keyed by tick. The session
// captures one every tick and clears the older ones first, so the map holds
// only the latest tick; the numeric-anomaly reset reads the session's
// separate lastGood world, not this manager.
type SnapshotManager struct {
	snapshots map[uint64]*Snapshot
	hooks     []RollbackHook
}

// NewSnapshotManager creates a new snapshot manager.
func NewSnapshotManager() *SnapshotManager {
	return &SnapshotManager{
		snapshots: make(map[uint64]*Snapshot),
		hooks:     make([]RollbackHook, 0),
	}
}

// RegisterHook registers a rollback hook invoked during capture/restore.
func (sm *SnapshotManager) RegisterHook(hook RollbackHook) {
	sm.hooks = append(sm.hooks, hook)
}

// CaptureSnapshot captures and stores a deep copy of world at tick.
func (sm *SnapshotManager) CaptureSnapshot(world entities.World, tick uint64, clock Clock) *Snapshot {
	snapshot := &Snapshot{World: copyWorld(world), Tick: tick, Time: clock.Now()}

	for _, hook := range sm.hooks {
		hook.BeforeSnapshot(snapshot)
	}

	sm.snapshots[tick] = snapshot
	return snapshot
}

// RestoreSnapshot returns a deep copy of the snapshot's world.
func (sm *SnapshotManager) RestoreSnapshot(snapshot *Snapshot) entities.World {
	for _, hook := range sm.hooks {
		hook.AfterRestore(snapshot)
	}
	return copyWorld(snapshot.World)
}

// GetSnapshot retrieves a stored snapshot by tick.
func (sm *SnapshotManager) GetSnapshot(tick uint64) (*Snapshot, bool) {
	snapshot, exists := sm.snapshots[tick]
	return snapshot, exists
}

// Latest returns the most recently captured snapshot, if any.
func (sm *SnapshotManager) Latest() (*Snapshot, bool) {
	var latest *Snapshot
	for _, snap := range sm.snapshots {
		if latest == nil || snap.Tick > latest.Tick {
			latest = snap
		}
	}
	return latest, latest != nil
}

// ClearSnapshots removes all stored snapshots.
func (sm *SnapshotManager) ClearSnapshots() {
	sm.snapshots = make(map[uint64]*Snapshot)
}

// copyWorld deep-copies a World so restoring it never aliases the live
// simulator's slices.
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
