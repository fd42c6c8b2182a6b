package rules

import (
	"math"

	"github.com/kreid06/pirate-game-4/internal/sim/entities"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Input processing",Label("scope:unit", "loop:g1-physics", "layer:sim", "dep:none", "b:input-handling", "r:high", "double:fake"), func() {
	const epsilon = 1e-9

	Describe("ClampUnit and ClampSigned", func() {
		It("clamps to [0,1]", func() {
			Expect(ClampUnit(-0.5)).To(Equal(0.0))
			Expect(ClampUnit(1.5)).To(Equal(1.0))
			Expect(ClampUnit(0.3)).To(Equal(0.3))
		})

		It("clamps to [-limit,limit]", func() {
			Expect(ClampSigned(-5, 2)).To(Equal(-2.0))
			Expect(ClampSigned(5, 2)).To(Equal(2.0))
			Expect(ClampSigned(1, 2)).To(Equal(1.0))
		})
	})

	Describe("ApplyRotationUpdate", func() {
		It("applies a small delta directly", func() {
			result := ApplyRotationUpdate(0, 0.1, 1.0/30.0)
			Expect(result).To(BeNumerically("~", 0.1, epsilon))
		})

		It("bounds a large delta to the per-tick rate", func() {
			result := ApplyRotationUpdate(0, 100.0, 1.0/30.0)
			Expect(result).To(BeNumerically("~", RotationDeltaRate/30.0, epsilon))
		})

		It("wraps past 2*pi", func() {
			result := ApplyRotationUpdate(2*math.Pi-0.01, 0.02, 1.0/30.0)
			Expect(result).To(BeNumerically("~", 0.01, epsilon))
		})
	})

	Describe("ApplyMovementState", func() {
		It("does not move with a zero input vector", func() {
			pos := entities.NewVec2(5, 5)
			result := ApplyMovementState(pos, entities.MovementWalking, entities.Zero(), false, 1.0/30.0)
			Expect(result).To(Equal(pos))
		})

		It("moves at walk speed in the input direction", func() {
			result := ApplyMovementState(entities.Zero(), entities.MovementWalking, entities.NewVec2(1, 0), false, 1.0)
			Expect(result.X).To(BeNumerically("~", entities.WalkSpeed, epsilon))
		})

		It("normalizes a non-unit input direction", func() {
			result := ApplyMovementState(entities.Zero(), entities.MovementWalking, entities.NewVec2(10, 0), false, 1.0)
			Expect(result.X).To(BeNumerically("~", entities.WalkSpeed, epsilon))
		})

		It("sprints faster than the base speed", func() {
			normal := ApplyMovementState(entities.Zero(), entities.MovementWalking, entities.NewVec2(1, 0), false, 1.0)
			sprint := ApplyMovementState(entities.Zero(), entities.MovementWalking, entities.NewVec2(1, 0), true, 1.0)
			Expect(sprint.X).To(BeNumerically(">", normal.X))
		})

		It("does not move a falling player", func() {
			result := ApplyMovementState(entities.Zero(), entities.MovementFalling, entities.NewVec2(1, 0), false, 1.0)
			Expect(result).To(Equal(entities.Zero()))
		})
	})

	Describe("StepSailOpenness", func() {
		It("slews toward the target at the configured rate", func() {
			result := StepSailOpenness(0, 1.0, 0.1)
			Expect(result).To(BeNumerically("~", SailSlewRate*0.1, epsilon))
		})

		It("clamps the target to [0,1] first", func() {
			result := StepSailOpenness(0, 5.0, 100.0)
			Expect(result).To(Equal(1.0))
		})
	})

	Describe("ClampSailAngle", func() {
		It("clamps to the maximum boom travel limits", func() {
			Expect(ClampSailAngle(10)).To(BeNumerically("~", math.Pi/3, epsilon))
			Expect(ClampSailAngle(-10)).To(BeNumerically("~", -math.Pi/3, epsilon))
		})
	})
})
