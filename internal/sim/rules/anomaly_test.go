package rules

import (
	"math"

	"github.com/kreid06/pirate-game-4/internal/sim/entities"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Anomaly detection", Label("scope:unit", "loop:g2-rules", "layer:sim", "dep:none", "b:numeric-anomaly", "r:high", "double:fake"), func() {
	Describe("DetectAndResetAnomalies", func() {
		It("leaves a clean world untouched", func() {
			world := entities.NewWorld()
			world.AddShip(entities.NewBrigantine(1, entities.NewVec2(10, 10), 0))
			lastGood := world

			counters := DetectAndResetAnomalies(&world, &lastGood)
			Expect(counters.Ships).To(Equal(0))
			Expect(world.Ships[0].Pos).To(Equal(entities.NewVec2(10, 10)))
		})

		It("resets a ship with a NaN position to its last good state", func() {
			lastGood := entities.NewWorld()
			lastGood.AddShip(entities.NewBrigantine(1, entities.NewVec2(5, 5), 0.1))

			world := lastGood
			world.Ships = append([]entities.Ship{}, lastGood.Ships...)
			world.Ships[0].Pos = entities.NewVec2(math.NaN(), 0)

			counters := DetectAndResetAnomalies(&world, &lastGood)
			Expect(counters.Ships).To(Equal(1))
			Expect(world.Ships[0].Pos).To(Equal(entities.NewVec2(5, 5)))
		})

		It("drops a cannonball with an infinite velocity", func() {
			world := entities.NewWorld()
			id := world.SpawnCannonball(entities.Zero(), entities.NewVec2(1, 0), 1, 2, 3, 100)
			cb := findCannonball(&world, id)
			cb.Vel = entities.NewVec2(math.Inf(1), 0)

			lastGood := entities.NewWorld()
			counters := DetectAndResetAnomalies(&world, &lastGood)

			Expect(counters.Cannonballs).To(Equal(1))
			Expect(world.Cannonballs).To(BeEmpty())
		})

		It("resets a player with a non-finite local position", func() {
			lastGood := entities.NewWorld()
			lastGood.AddPlayer(entities.NewPlayer(1, entities.NewVec2(1, 1)))

			world := lastGood
			world.Players = append([]entities.Player{}, lastGood.Players...)
			world.Players[0].LocalPos = entities.NewVec2(math.NaN(), math.NaN())

			counters := DetectAndResetAnomalies(&world, &lastGood)
			Expect(counters.Players).To(Equal(1))
		})
	})
})
