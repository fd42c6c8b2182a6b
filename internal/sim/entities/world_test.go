package entities

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("World", Label("scope:unit", "loop:g1-physics", "layer:sim", "dep:none", "b:entity-types", "r:low"), func() {
	Describe("NewWorld", func() {
		It("starts empty", func() {
			world := NewWorld()
			Expect(world.Ships).To(BeEmpty())
			Expect(world.Players).To(BeEmpty())
			Expect(world.Cannonballs).To(BeEmpty())
			Expect(world.Tick).To(Equal(uint64(0)))
		})

		It("seeds the entity id counter above the ship/player range", func() {
			world := NewWorld()
			Expect(world.NextEntityID).To(Equal(uint32(ProjectileIDFloor)))
		})
	})

	Describe("Ship and player lookup", func() {
		It("finds a ship by id", func() {
			world := NewWorld()
			world.AddShip(NewBrigantine(7, Zero(), 0))

			found := world.FindShip(7)
			Expect(found).NotTo(BeNil())
			Expect(found.ID).To(Equal(uint32(7)))
		})

		It("returns nil for an unknown ship id", func() {
			world := NewWorld()
			Expect(world.FindShip(99)).To(BeNil())
		})

		It("finds and removes a player by id", func() {
			world := NewWorld()
			world.AddPlayer(NewPlayer(3, Zero()))
			Expect(world.FindPlayer(3)).NotTo(BeNil())

			world.RemovePlayer(3)
			Expect(world.FindPlayer(3)).To(BeNil())
			Expect(world.Players).To(BeEmpty())
		})
	})

	Describe("Cannonball lifecycle", func() {
		It("assigns increasing ids starting at ProjectileIDFloor", func() {
			world := NewWorld()
			id1 := world.SpawnCannonball(Zero(), NewVec2(1, 0), 1, 2, 3, 100)
			id2 := world.SpawnCannonball(Zero(), NewVec2(1, 0), 1, 2, 3, 100)

			Expect(id1).To(Equal(uint32(ProjectileIDFloor)))
			Expect(id2).To(Equal(uint32(ProjectileIDFloor + 1)))
			Expect(world.Cannonballs).To(HaveLen(2))
		})

		It("removes a cannonball by id", func() {
			world := NewWorld()
			id := world.SpawnCannonball(Zero(), NewVec2(1, 0), 1, 2, 3, 100)
			world.RemoveCannonball(id)
			Expect(world.Cannonballs).To(BeEmpty())
		})

		It("prunes only expired cannonballs", func() {
			world := NewWorld()
			world.SpawnCannonball(Zero(), NewVec2(10, 0), 1, 2, 3, 100)
			world.SpawnCannonball(Zero(), NewVec2(10, 0), 1, 2, 3, 100)

			for i := range world.Cannonballs {
				world.Cannonballs[i].Advance(1.0)
			}
			world.Cannonballs[0].DistanceTraveled = 100

			world.PruneExpiredCannonballs()
			Expect(world.Cannonballs).To(HaveLen(1))
		})
	})
})
