package rules

import (
	"github.com/kreid06/pirate-game-4/internal/sim/entities"
	"github.com/kreid06/pirate-game-4/internal/sim/physics"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Carrier hysteresis", Label("scope:integration", "loop:g2-rules", "layer:sim", "dep:none", "b:carrier-hysteresis", "r:high", "double:fake"), func() {
	noWind := physics.Wind{}

	It("does not attach a player standing on deck for fewer than CarrierInTicks", func() {
		world := entities.NewWorld()
		world.AddShip(entities.NewBrigantine(1, entities.Zero(), 0))
		world.AddPlayer(entities.NewPlayer(1, entities.NewVec2(10, 10)))
		lastGood := world

		for i := 0; i < CarrierInTicks-1; i++ {
			world = Step(world, nil, noWind, &lastGood)
		}
		Expect(world.Players[0].IsOnCarrier()).To(BeFalse())
	})

	It("attaches a player after CarrierInTicks consecutive ticks on deck", func() {
		world := entities.NewWorld()
		world.AddShip(entities.NewBrigantine(1, entities.Zero(), 0))
		world.AddPlayer(entities.NewPlayer(1, entities.NewVec2(10, 10)))
		lastGood := world

		for i := 0; i < CarrierInTicks; i++ {
			world = Step(world, nil, noWind, &lastGood)
		}
		Expect(world.Players[0].IsOnCarrier()).To(BeTrue())
		Expect(world.Players[0].CarrierShipID).To(Equal(uint32(1)))
	})

	It("detaches a player after CarrierOutTicks consecutive ticks off deck", func() {
		world := entities.NewWorld()
		world.AddShip(entities.NewBrigantine(1, entities.Zero(), 0))
		player := entities.NewPlayer(1, entities.NewVec2(10, 10))
		player.CarrierShipID = 1
		player.LocalPos = entities.NewVec2(10, 10)
		player.State = entities.MovementWalking
		world.AddPlayer(player)
		lastGood := world

		// Put the player's local position past the deck edge; locomotion
		// clamps it to the slightly inflated deck bound, which still lies
		// outside the deck itself, so every tick counts as off deck.
		world.Players[0].LocalPos = entities.NewVec2(10, 200)

		for i := 0; i < CarrierOutTicks; i++ {
			world = Step(world, nil, noWind, &lastGood)
		}
		Expect(world.Players[0].IsOnCarrier()).To(BeFalse())
		Expect(world.Players[0].State).To(Equal(entities.MovementFalling))
	})

	It("starts the transition cooldown when a player attaches", func() {
		world := entities.NewWorld()
		world.AddShip(entities.NewBrigantine(1, entities.Zero(), 0))
		world.AddPlayer(entities.NewPlayer(1, entities.NewVec2(10, 10)))
		lastGood := world

		for i := 0; i < CarrierInTicks; i++ {
			world = Step(world, nil, noWind, &lastGood)
		}
		Expect(world.Players[0].IsOnCarrier()).To(BeTrue())
		Expect(world.Players[0].CooldownRemaining).To(BeNumerically(">", 0))
	})
})

var _ = Describe("Cannon aim tolerance", Label("scope:unit", "loop:g2-rules", "layer:sim", "dep:none", "b:combat", "r:medium"), func() {
	It("accepts a candidate direction within tolerance", func() {
		Expect(WithinAimTolerance(0, 0.1)).To(BeTrue())
	})

	It("rejects a candidate direction outside tolerance", func() {
		Expect(WithinAimTolerance(0, 1.0)).To(BeFalse())
	})
})
