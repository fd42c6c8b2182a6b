package physics

import (
	"math"

	"github.com/kreid06/pirate-game-4/internal/sim/entities"
)

// Wind is the world's uniform wind field: a single direction and speed,
// not spatially varying. Direction is the angle, in radians, the wind
// blows toward.
type Wind struct {
	Direction float64
	Speed     float64
}

// Vector returns the wind's velocity vector.
func (w Wind) Vector() entities.Vec2 {
	return entities.NewVec2(math.Cos(w.Direction), math.Sin(w.Direction)).Scale(w.Speed)
}

// ForwardThrust computes the propulsive force a single sail contributes to
// its ship. sailWorldAngle is the sail's outward-facing normal direction
// in world space; openness is how far the sail is unfurled, in [0,1].
//
// Thrust scales with how much the wind is blowing into the sail (the dot
// product of wind velocity and sail normal) and with openness. A sail
// luffing into the wind (negative alignment) produces no thrust rather
// than reverse thrust.
func (w Wind) ForwardThrust(sailWorldAngle, openness float64) entities.Vec2 {
	if openness <= 0 {
		return entities.Zero()
	}
	sailNormal := entities.NewVec2(math.Cos(sailWorldAngle), math.Sin(sailWorldAngle))
	alignment := w.Vector().Dot(sailNormal)
	if alignment < 0 {
		return entities.Zero()
	}
	return sailNormal.Scale(alignment * openness)
}

// WaterDrag returns a linear drag deceleration vector opposing vel,
// scaled by the ship's per-tick drag coefficient (e.g. Ship.WaterDrag,
// applied multiplicatively rather than additively: callers typically do
// vel = vel.Scale(dragCoeff) directly; this helper is for code that needs
// the drag as a force rather than a multiplier).
func WaterDrag(vel entities.Vec2, dragCoeff float64) entities.Vec2 {
	return vel.Scale(dragCoeff - 1.0)
}

// RudderTorque computes the angular acceleration a ship's rudder produces
// at the given forward speed. Rudder effectiveness scales with forward
// speed: a stationary ship's rudder produces no turning torque.
func RudderTorque(rudderAngle, forwardSpeed, turnRate float64) float64 {
	return rudderAngle * forwardSpeed * turnRate
}
