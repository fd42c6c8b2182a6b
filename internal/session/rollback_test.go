package session

import (
	"testing"

	"github.com/kreid06/pirate-game-4/internal/sim/entities"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRollback(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Rollback Infrastructure Suite")
}

var _ = Describe("Rollback Infrastructure", Label("scope:unit", "loop:g3-orch", "layer:sim", "double:fake-io", "b:rollback-infrastructure", "r:medium"), func() {
	Describe("Snapshot Capture and Restore", func() {
		It("captures snapshot and restores state correctly", func() {
			clock := NewFakeClock()
			world := entities.NewWorld()
			world.AddShip(entities.NewBrigantine(1, entities.NewVec2(10, 0), 0))
			world.Tick = 5

			manager := NewSnapshotManager()
			snapshot := manager.CaptureSnapshot(world, 5, clock)

			world.Ships[0].Pos = entities.NewVec2(20, 10)
			world.Tick = 10

			restored := manager.RestoreSnapshot(snapshot)

			Expect(restored.Tick).To(Equal(uint64(5)))
			Expect(restored.Ships[0].Pos).To(Equal(entities.NewVec2(10, 0)))
		})

		It("snapshot preserves all world state fields", func() {
			clock := NewFakeClock()
			world := entities.NewWorld()
			ship := entities.NewBrigantine(1, entities.NewVec2(10, 5), 1.5)
			ship.AddModule(entities.NewModule(1, entities.ModuleHelm, entities.Zero(), 0))
			world.AddShip(ship)
			world.AddPlayer(entities.NewPlayer(1, entities.NewVec2(1, 1)))
			world.SpawnCannonball(entities.Zero(), entities.NewVec2(1, 0), 1, 1, 1, 100)
			world.Tick = 42

			manager := NewSnapshotManager()
			snapshot := manager.CaptureSnapshot(world, 42, clock)
			restored := manager.RestoreSnapshot(snapshot)

			Expect(restored.Tick).To(Equal(uint64(42)))
			Expect(restored.Ships[0].Pos).To(Equal(entities.NewVec2(10, 5)))
			Expect(restored.Ships[0].Rot).To(Equal(1.5))
			Expect(restored.Ships[0].Modules).To(HaveLen(1))
			Expect(restored.Players).To(HaveLen(1))
			Expect(restored.Cannonballs).To(HaveLen(1))
		})

		It("snapshot isolation - modifying restored state doesn't affect the snapshot", func() {
			clock := NewFakeClock()
			world := entities.NewWorld()
			world.AddShip(entities.NewBrigantine(1, entities.NewVec2(10, 0), 0))

			manager := NewSnapshotManager()
			snapshot := manager.CaptureSnapshot(world, 1, clock)

			restored := manager.RestoreSnapshot(snapshot)
			restored.Ships[0].Pos = entities.NewVec2(999, 999)

			again := manager.RestoreSnapshot(snapshot)
			Expect(again.Ships[0].Pos).To(Equal(entities.NewVec2(10, 0)))
		})
	})

	Describe("GetSnapshot and Latest", func() {
		It("retrieves a stored snapshot by tick", func() {
			clock := NewFakeClock()
			manager := NewSnapshotManager()
			world := entities.NewWorld()
			manager.CaptureSnapshot(world, 3, clock)

			snap, ok := manager.GetSnapshot(3)
			Expect(ok).To(BeTrue())
			Expect(snap.Tick).To(Equal(uint64(3)))
		})

		It("reports missing snapshots", func() {
			manager := NewSnapshotManager()
			_, ok := manager.GetSnapshot(99)
			Expect(ok).To(BeFalse())
		})

		It("returns the highest-tick snapshot as latest", func() {
			clock := NewFakeClock()
			manager := NewSnapshotManager()
			world := entities.NewWorld()
			manager.CaptureSnapshot(world, 1, clock)
			manager.CaptureSnapshot(world, 5, clock)
			manager.CaptureSnapshot(world, 3, clock)

			latest, ok := manager.Latest()
			Expect(ok).To(BeTrue())
			Expect(latest.Tick).To(Equal(uint64(5)))
		})
	})

	Describe("Hooks", func() {
		It("invokes BeforeSnapshot and AfterRestore hooks", func() {
			clock := NewFakeClock()
			manager := NewSnapshotManager()
			hook := &recordingHook{}
			manager.RegisterHook(hook)

			world := entities.NewWorld()
			snapshot := manager.CaptureSnapshot(world, 1, clock)
			manager.RestoreSnapshot(snapshot)

			Expect(hook.beforeCalled).To(BeTrue())
			Expect(hook.afterCalled).To(BeTrue())
		})
	})

	Describe("ClearSnapshots", func() {
		It("removes every stored snapshot", func() {
			clock := NewFakeClock()
			manager := NewSnapshotManager()
			manager.CaptureSnapshot(entities.NewWorld(), 1, clock)
			manager.ClearSnapshots()

			_, ok := manager.GetSnapshot(1)
			Expect(ok).To(BeFalse())
		})
	})
})

type recordingHook struct {
	beforeCalled bool
	afterCalled  bool
}

func (r *recordingHook) BeforeSnapshot(snapshot *Snapshot) { r.beforeCalled = true }
func (r *recordingHook) AfterRestore(snapshot *Snapshot)   { r.afterCalled = true }
