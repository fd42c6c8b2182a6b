package transport

import (
	"testing"

	"github.com/kreid06/pirate-game-4/internal/proto"
	"github.com/kreid06/pirate-game-4/internal/sim/entities"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestConvert(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Entity-to-Protocol Conversion Suite")
}

var _ = Describe("Entity-to-Protocol Conversion", Label("scope:unit", "loop:g5-adapter", "layer:server", "b:entity-conversion", "r:medium"), func() {
	Describe("Vec2ToWire", func() {
		It("converts zero vector correctly", func() {
			result := Vec2ToWire(entities.Zero())
			Expect(result.X).To(Equal(0.0))
			Expect(result.Y).To(Equal(0.0))
		})

		It("converts arbitrary coordinates correctly", func() {
			result := Vec2ToWire(entities.NewVec2(10.5, -20.3))
			Expect(result.X).To(Equal(10.5))
			Expect(result.Y).To(Equal(-20.3))
		})
	})

	Describe("ShipToSnapshot", func() {
		It("carries pose, velocity and rudder angle", func() {
			ship := entities.NewBrigantine(7, entities.NewVec2(1, 2), 0.5)
			ship.Vel = entities.NewVec2(3, 4)
			ship.AngularVel = 0.1
			ship.RudderAngle = 0.2

			snap := ShipToSnapshot(ship)
			Expect(snap.ID).To(Equal(uint32(7)))
			Expect(snap.Pos).To(Equal(proto.Vec2Wire{X: 1, Y: 2}))
			Expect(snap.Rotation).To(Equal(0.5))
			Expect(snap.Velocity).To(Equal(proto.Vec2Wire{X: 3, Y: 4}))
			Expect(snap.AngularVel).To(Equal(0.1))
			Expect(snap.RudderAngle).To(Equal(0.2))
		})

		It("reports the first mast's sail openness", func() {
			ship := entities.NewBrigantine(1, entities.Zero(), 0)
			mast := entities.NewModule(1, entities.ModuleMast, entities.Zero(), 0)
			mast.Mast.SailOpenness = 0.75
			ship.AddModule(mast)

			snap := ShipToSnapshot(ship)
			Expect(snap.SailOpen).To(Equal(0.75))
		})
	})

	Describe("PlayerToSnapshot", func() {
		It("reports world pose directly when not on a carrier", func() {
			player := entities.NewPlayer(5, entities.NewVec2(10, 20))
			player.Rot = 1.0

			snap := PlayerToSnapshot(player, nil)
			Expect(snap.WorldX).To(Equal(10.0))
			Expect(snap.WorldY).To(Equal(20.0))
			Expect(snap.Rotation).To(Equal(1.0))
			Expect(snap.ParentShip).To(Equal(uint32(0)))
		})

		It("resolves world pose through the carrier ship when mounted", func() {
			ship := entities.NewBrigantine(1, entities.NewVec2(100, 0), 0)
			player := entities.NewPlayer(5, entities.Zero())
			player.CarrierShipID = ship.ID

			snap := PlayerToSnapshot(player, &ship)
			Expect(snap.ParentShip).To(Equal(uint32(1)))
			Expect(snap.WorldX).To(Equal(100.0))
			Expect(snap.WorldY).To(Equal(0.0))
		})

		It("maps movement state to the wire state label", func() {
			walking := entities.NewPlayer(1, entities.Zero())
			walking.State = entities.MovementWalking
			Expect(PlayerToSnapshot(walking, nil).State).To(Equal(proto.StateWalking))

			falling := entities.NewPlayer(1, entities.Zero())
			falling.State = entities.MovementFalling
			Expect(PlayerToSnapshot(falling, nil).State).To(Equal(proto.StateFalling))

			swimming := entities.NewPlayer(1, entities.Zero())
			Expect(PlayerToSnapshot(swimming, nil).State).To(Equal(proto.StateSwimming))
		})
	})

	Describe("ProjectileToSnapshot", func() {
		It("carries position and velocity", func() {
			cb := entities.NewCannonball(9, entities.NewVec2(1, 1), entities.NewVec2(2, 2), 1, 1, 1, 100)
			snap := ProjectileToSnapshot(cb)
			Expect(snap.ID).To(Equal(uint32(9)))
			Expect(snap.Pos).To(Equal(proto.Vec2Wire{X: 1, Y: 1}))
			Expect(snap.Vel).To(Equal(proto.Vec2Wire{X: 2, Y: 2}))
		})
	})

	Describe("WorldToGameState", func() {
		It("produces non-nil empty slices for an empty world", func() {
			world := entities.NewWorld()
			state := WorldToGameState(world)

			Expect(state.Type).To(Equal(proto.TypeGameState))
			Expect(state.Ships).NotTo(BeNil())
			Expect(state.Ships).To(BeEmpty())
			Expect(state.Players).NotTo(BeNil())
			Expect(state.Projectiles).NotTo(BeNil())
		})

		It("carries the world tick and timestamp through", func() {
			world := entities.NewWorld()
			world.Tick = 42
			world.TimestampMs = 1400

			state := WorldToGameState(world)
			Expect(state.Tick).To(Equal(uint64(42)))
			Expect(state.Timestamp).To(Equal(int64(1400)))
		})

		It("converts every ship, player and projectile present", func() {
			world := entities.NewWorld()
			world.AddShip(entities.NewBrigantine(1, entities.Zero(), 0))
			world.AddPlayer(entities.NewPlayer(1, entities.Zero()))
			world.SpawnCannonball(entities.Zero(), entities.NewVec2(1, 0), 1, 1, 1, 100)

			state := WorldToGameState(world)
			Expect(state.Ships).To(HaveLen(1))
			Expect(state.Players).To(HaveLen(1))
			Expect(state.Projectiles).To(HaveLen(1))
		})
	})
})
