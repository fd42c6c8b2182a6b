package entities

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Player", Label("scope:unit", "loop:g1-physics", "layer:sim", "dep:none", "b:entity-types", "r:low"), func() {
	Describe("NewPlayer", func() {
		It("starts swimming at the given position", func() {
			p := NewPlayer(1, NewVec2(5, 5))
			Expect(p.State).To(Equal(MovementSwimming))
			Expect(p.Pos).To(Equal(NewVec2(5, 5)))
			Expect(p.Radius).To(Equal(PlayerRadius))
			Expect(p.IsOnCarrier()).To(BeFalse())
			Expect(p.IsMounted()).To(BeFalse())
		})
	})

	Describe("Carrier attach and detach", func() {
		It("round-trips world position through attach and detach", func() {
			ship := NewBrigantine(1, NewVec2(200, 100), 0.7)
			p := NewPlayer(1, NewVec2(210, 105))
			p.Rot = 1.1

			originalPos, originalRot := p.Pos, p.Rot
			p.AttachToCarrier(&ship)
			Expect(p.IsOnCarrier()).To(BeTrue())

			p.DetachFromCarrier(&ship)
			Expect(p.IsOnCarrier()).To(BeFalse())
			Expect(p.Pos.X).To(BeNumerically("~", originalPos.X, 1e-9))
			Expect(p.Pos.Y).To(BeNumerically("~", originalPos.Y, 1e-9))
			Expect(p.Rot).To(BeNumerically("~", originalRot, 1e-9))
		})

		It("resolves WorldPos through the carrier when attached", func() {
			ship := NewBrigantine(1, NewVec2(0, 0), math.Pi/2)
			p := NewPlayer(1, Zero())
			p.LocalPos = NewVec2(10, 0)
			p.CarrierShipID = ship.ID

			world := p.WorldPos(&ship)
			Expect(world.X).To(BeNumerically("~", 0, 1e-9))
			Expect(world.Y).To(BeNumerically("~", 10, 1e-9))
		})

		It("falls back to Pos when not on a carrier", func() {
			p := NewPlayer(1, NewVec2(3, 4))
			Expect(p.WorldPos(nil)).To(Equal(NewVec2(3, 4)))
		})
	})
})
