package entities

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Hull generation", Label("scope:unit", "loop:g1-physics", "layer:sim", "dep:none", "b:hull-geometry", "r:low"), func() {
	brigantineControlPoints := [6]Vec2{
		NewVec2(260, 0),
		NewVec2(120, 90),
		NewVec2(-200, 90),
		NewVec2(-260, 0),
		NewVec2(-200, -90),
		NewVec2(120, -90),
	}

	It("produces exactly HullPointCount points", func() {
		hull := GenerateHull(brigantineControlPoints)
		Expect(hull).To(HaveLen(HullPointCount))
	})

	It("is deterministic for identical control points", func() {
		a := GenerateHull(brigantineControlPoints)
		b := GenerateHull(brigantineControlPoints)
		Expect(a).To(Equal(b))
	})

	It("passes through each control point at a segment boundary", func() {
		hull := GenerateHull(brigantineControlPoints)
		for _, cp := range brigantineControlPoints {
			found := false
			for _, p := range hull {
				if p.DistanceTo(cp) < 1e-6 {
					found = true
					break
				}
			}
			Expect(found).To(BeTrue())
		}
	})

	Describe("PointInPolygon", func() {
		square := []Vec2{
			NewVec2(-10, -10),
			NewVec2(10, -10),
			NewVec2(10, 10),
			NewVec2(-10, 10),
		}

		It("reports points inside the polygon", func() {
			Expect(PointInPolygon(NewVec2(0, 0), square)).To(BeTrue())
		})

		It("reports points outside the polygon", func() {
			Expect(PointInPolygon(NewVec2(50, 50), square)).To(BeFalse())
		})

		It("reports false for degenerate polygons", func() {
			Expect(PointInPolygon(NewVec2(0, 0), []Vec2{NewVec2(0, 0), NewVec2(1, 1)})).To(BeFalse())
		})
	})
})
