package entities

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Ship", Label("scope:unit", "loop:g1-physics", "layer:sim", "dep:none", "b:entity-types", "r:low"), func() {
	Describe("NewBrigantine", func() {
		It("sets the brigantine class constants", func() {
			ship := NewBrigantine(1, NewVec2(10, 20), 0.5)

			Expect(ship.ID).To(Equal(uint32(1)))
			Expect(ship.Pos).To(Equal(NewVec2(10, 20)))
			Expect(ship.Rot).To(Equal(0.5))
			Expect(ship.Mass).To(Equal(BrigantineMass))
			Expect(ship.MomentOfInertia).To(Equal(BrigantineMomentOfInertia))
			Expect(ship.MaxSpeed).To(Equal(BrigantineMaxSpeed))
			Expect(ship.TurnRate).To(Equal(BrigantineTurnRate))
			Expect(ship.WaterDrag).To(Equal(BrigantineWaterDrag))
			Expect(ship.AngularDrag).To(Equal(BrigantineAngularDrag))
		})

		It("generates a HullPointCount-vertex hull", func() {
			ship := NewBrigantine(1, Zero(), 0)
			Expect(ship.Hull).To(HaveLen(HullPointCount))
		})

		It("starts with zero velocity, rudder and no modules", func() {
			ship := NewBrigantine(1, Zero(), 0)
			Expect(ship.Vel).To(Equal(Zero()))
			Expect(ship.AngularVel).To(Equal(0.0))
			Expect(ship.RudderAngle).To(Equal(0.0))
			Expect(ship.Modules).To(BeEmpty())
		})
	})

	Describe("ToWorld and ToLocal", func() {
		It("round-trips a local point through world space", func() {
			ship := NewBrigantine(1, NewVec2(100, -50), 0.3)
			local := NewVec2(20, 5)
			world := ship.ToWorld(local)
			roundTripped := ship.ToLocal(world)

			Expect(roundTripped.X).To(BeNumerically("~", local.X, 1e-9))
			Expect(roundTripped.Y).To(BeNumerically("~", local.Y, 1e-9))
		})

		It("places local origin at the ship position", func() {
			ship := NewBrigantine(1, NewVec2(7, 9), 1.0)
			Expect(ship.ToWorld(Zero())).To(Equal(ship.Pos))
		})
	})

	Describe("WorldHull", func() {
		It("translates the hull by the ship position", func() {
			ship := NewBrigantine(1, NewVec2(1000, 2000), 0)
			world := ship.WorldHull()
			Expect(world).To(HaveLen(len(ship.Hull)))
			for i, p := range ship.Hull {
				Expect(world[i]).To(Equal(p.Add(ship.Pos)))
			}
		})
	})

	Describe("ContainsDeckPoint", func() {
		It("reports true for a point inside the deck bounds", func() {
			ship := NewBrigantine(1, Zero(), 0)
			Expect(ship.ContainsDeckPoint(NewVec2(0, 0))).To(BeTrue())
		})

		It("reports false for a point far outside the deck bounds", func() {
			ship := NewBrigantine(1, Zero(), 0)
			Expect(ship.ContainsDeckPoint(NewVec2(10000, 10000))).To(BeFalse())
		})

		It("accounts for ship rotation and translation", func() {
			ship := NewBrigantine(1, NewVec2(500, 500), math.Pi)
			// (300,0) in world space is (-300,0) in ship-local after a pi rotation,
			// which is outside MinX=-260.
			Expect(ship.ContainsDeckPoint(NewVec2(800, 500))).To(BeFalse())
			Expect(ship.ContainsDeckPoint(NewVec2(500, 500))).To(BeTrue())
		})
	})

	Describe("Modules", func() {
		It("adds and finds modules by id", func() {
			ship := NewBrigantine(1, Zero(), 0)
			ship.AddModule(NewModule(42, ModuleCannon, NewVec2(10, 0), 0))

			found := ship.FindModule(42)
			Expect(found).NotTo(BeNil())
			Expect(found.Type).To(Equal(ModuleCannon))
		})

		It("returns nil for an unknown module id", func() {
			ship := NewBrigantine(1, Zero(), 0)
			Expect(ship.FindModule(99)).To(BeNil())
		})

		It("computes a module's world position from the ship pose", func() {
			ship := NewBrigantine(1, NewVec2(100, 0), math.Pi/2)
			m := NewModule(1, ModuleHelm, NewVec2(10, 0), 0)
			world := ship.ModuleWorldPos(m)

			Expect(world.X).To(BeNumerically("~", 100, 1e-9))
			Expect(world.Y).To(BeNumerically("~", 10, 1e-9))
		})
	})

	Describe("StepRudder", func() {
		It("slews toward the target at the configured rate", func() {
			ship := NewBrigantine(1, Zero(), 0)
			ship.RudderTarget = 1.0
			ship.StepRudder(0.1)

			Expect(ship.RudderAngle).To(BeNumerically("~", BrigantineRudderSlewRate*0.1, 1e-9))
		})

		It("clamps the target to the max rudder angle", func() {
			ship := NewBrigantine(1, Zero(), 0)
			ship.RudderTarget = 100.0
			for i := 0; i < 1000; i++ {
				ship.StepRudder(0.1)
			}
			Expect(ship.RudderAngle).To(BeNumerically("~", ship.MaxRudderAngle, 1e-9))
		})

		It("does not overshoot the target in a single step", func() {
			ship := NewBrigantine(1, Zero(), 0)
			ship.RudderTarget = 0.01
			ship.StepRudder(1.0)
			Expect(ship.RudderAngle).To(Equal(0.01))
		})
	})
})
