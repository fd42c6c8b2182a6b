package physics

import (
	"github.com/kreid06/pirate-game-4/internal/sim/entities"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func square(cx, cy, halfSize float64) []entities.Vec2 {
	return []entities.Vec2{
		entities.NewVec2(cx-halfSize, cy-halfSize),
		entities.NewVec2(cx+halfSize, cy-halfSize),
		entities.NewVec2(cx+halfSize, cy+halfSize),
		entities.NewVec2(cx-halfSize, cy+halfSize),
	}
}

var _ = Describe("SAT", Label("scope:unit", "loop:g1-physics", "layer:sim", "dep:none", "b:collision-detection", "r:high", "double:fake"), func() {
	Describe("PolygonsOverlap", func() {
		It("detects overlap between two intersecting squares", func() {
			a := square(0, 0, 10)
			b := square(15, 0, 10)
			overlap := PolygonsOverlap(a, b)

			Expect(overlap.Colliding).To(BeTrue())
			Expect(overlap.Depth).To(BeNumerically("~", 5.0, 1e-9))
		})

		It("reports no overlap for distant squares", func() {
			a := square(0, 0, 10)
			b := square(1000, 1000, 10)
			Expect(PolygonsOverlap(a, b).Colliding).To(BeFalse())
		})

		It("reports overlap for identical squares with full depth", func() {
			a := square(0, 0, 10)
			b := square(0, 0, 10)
			overlap := PolygonsOverlap(a, b)
			Expect(overlap.Colliding).To(BeTrue())
			Expect(overlap.Depth).To(BeNumerically("~", 20.0, 1e-9))
		})

		It("is symmetric in its colliding verdict", func() {
			a := square(0, 0, 10)
			b := square(15, 0, 10)
			Expect(PolygonsOverlap(a, b).Colliding).To(Equal(PolygonsOverlap(b, a).Colliding))
		})
	})

	Describe("CircleOverlapsPolygon", func() {
		poly := square(0, 0, 10)

		It("reports true when the circle center is inside the polygon", func() {
			Expect(CircleOverlapsPolygon(entities.NewVec2(0, 0), 1, poly)).To(BeTrue())
		})

		It("reports true when the circle touches an edge from outside", func() {
			Expect(CircleOverlapsPolygon(entities.NewVec2(12, 0), 2.5, poly)).To(BeTrue())
		})

		It("reports false when the circle is far from the polygon", func() {
			Expect(CircleOverlapsPolygon(entities.NewVec2(1000, 1000), 1, poly)).To(BeFalse())
		})
	})

	Describe("CirclesOverlap", func() {
		It("detects overlapping circles", func() {
			Expect(CirclesOverlap(entities.NewVec2(0, 0), 5, entities.NewVec2(8, 0), 4)).To(BeTrue())
		})

		It("detects non-overlapping circles", func() {
			Expect(CirclesOverlap(entities.NewVec2(0, 0), 5, entities.NewVec2(100, 0), 4)).To(BeFalse())
		})

		It("detects exact tangency as overlapping", func() {
			Expect(CirclesOverlap(entities.NewVec2(0, 0), 5, entities.NewVec2(9, 0), 4)).To(BeTrue())
		})
	})
})
