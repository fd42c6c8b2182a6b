package entities

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Cannonball", Label("scope:unit", "loop:g1-physics", "layer:sim", "dep:none", "b:entity-types", "r:low"), func() {
	It("advances position by velocity times dt", func() {
		cb := NewCannonball(ProjectileIDFloor, Zero(), NewVec2(10, 0), 1, 2, 3, 100)
		cb.Advance(0.5)

		Expect(cb.Pos).To(Equal(NewVec2(5, 0)))
		Expect(cb.DistanceTraveled).To(Equal(5.0))
		Expect(cb.TimeAlive).To(Equal(0.5))
	})

	It("is not expired before reaching max range", func() {
		cb := NewCannonball(ProjectileIDFloor, Zero(), NewVec2(10, 0), 1, 2, 3, 100)
		cb.Advance(1.0)
		Expect(cb.Expired()).To(BeFalse())
	})

	It("expires once distance traveled reaches max range", func() {
		cb := NewCannonball(ProjectileIDFloor, Zero(), NewVec2(10, 0), 1, 2, 3, 100)
		for i := 0; i < 10; i++ {
			cb.Advance(1.0)
		}
		Expect(cb.Expired()).To(BeTrue())
	})
})
