package rules

import (
	"math"

	"github.com/kreid06/pirate-game-4/internal/sim/entities"
)

// InputKind discriminates which hybrid-protocol command a PlayerInput
// carries; only the fields relevant to that kind are populated.
type InputKind int

const (
	InputMovementState InputKind = iota
	InputRotationUpdate
	InputActionEvent
	InputShipSailControl
	InputShipRudderControl
	InputShipSailAngleControl
	InputCannonAim
	InputCannonFire
)

// ActionType enumerates the discrete, event-based player actions carried
// by an InputActionEvent.
type ActionType int

const (
	ActionMount ActionType = iota
	ActionDismount
	ActionJump
)

// Movement tuning constants.
const (
	// RotationDeltaRate bounds how many radians a single rotation_update
	// delta may apply per second of elapsed client time, guarding against
	// a malicious or desynced client spamming large deltas.
	RotationDeltaRate = 6.0
	// SailSlewRate bounds how fast a mast's sail openness can move toward
	// its commanded target, in units/second.
	SailSlewRate = 0.5
)

// PlayerInput is one decoded command from a connected player for the
// current tick. The simulator applies every input it is given, in order,
// including several of one kind for the same player; InputCommand-level
// sequencing and dedup happens upstream in the session layer.
type PlayerInput struct {
	PlayerID uint32
	Kind     InputKind

	// InputMovementState
	MoveDir  entities.Vec2 // desired movement direction, not required to be normalized
	Sprint   bool
	IsMoving bool // client-reported movement flag, independent of MoveDir's magnitude

	// InputRotationUpdate
	RotationDelta float64

	// InputActionEvent
	Action   ActionType
	TargetID uint32 // module id on the player's carrier ship to mount; other actions ignore it

	// Ship/module control kinds (InputShipSailControl, InputShipRudderControl,
	// InputShipSailAngleControl, InputCannonAim, InputCannonFire)
	ShipID       uint32
	ModuleID     uint32
	SailOpenness float64
	RudderTarget float64
	SailAngle    float64
	AimDirection float64
}

// ClampUnit clamps v to [0,1].
func ClampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampSigned clamps v to [-limit, limit].
func ClampSigned(v, limit float64) float64 {
	if v < -limit {
		return -limit
	}
	if v > limit {
		return limit
	}
	return v
}

// NormalizeRotation wraps an angle into [0, 2π).
func NormalizeRotation(rot float64) float64 {
	rot = math.Mod(rot, 2*math.Pi)
	if rot < 0 {
		rot += 2 * math.Pi
	}
	return rot
}

// ApplyRotationUpdate applies a bounded rotation delta to a player's
// facing, clamping the per-tick delta to RotationDeltaRate*dt before
// wrapping the result into [0, 2π).
func ApplyRotationUpdate(currentRot, delta, dt float64) float64 {
	bounded := ClampSigned(delta, RotationDeltaRate*dt)
	return NormalizeRotation(currentRot + bounded)
}

// ApplyMovementState advances a swimming or walking player's world (or
// carrier-local, for a mounted player — the caller passes whichever frame
// is authoritative) position by one tick of movement input.
func ApplyMovementState(pos entities.Vec2, state entities.MovementState, moveDir entities.Vec2, sprint bool, dt float64) entities.Vec2 {
	if moveDir.LengthSq() == 0 {
		return pos
	}
	dir := moveDir.Normalize()

	speed := SwimSpeedFor(state)
	if sprint {
		speed *= 1.5
	}
	return pos.Add(dir.Scale(speed * dt))
}

// SwimSpeedFor returns the base locomotion speed for a movement state.
// Falling players do not self-propel.
func SwimSpeedFor(state entities.MovementState) float64 {
	switch state {
	case entities.MovementSwimming:
		return entities.SwimSpeed
	case entities.MovementWalking:
		return entities.WalkSpeed
	default:
		return 0
	}
}

// StepSailOpenness slews a mast's current openness toward its target at
// SailSlewRate, clamped to [0,1].
func StepSailOpenness(current, target float64, dt float64) float64 {
	target = ClampUnit(target)
	delta := target - current
	maxStep := SailSlewRate * dt
	if delta > maxStep {
		delta = maxStep
	} else if delta < -maxStep {
		delta = -maxStep
	}
	return ClampUnit(current + delta)
}

const maxSailAngle = math.Pi / 3

// ClampSailAngle bounds a mast's boom angle to [-π/3, π/3].
func ClampSailAngle(angle float64) float64 {
	return ClampSigned(angle, maxSailAngle)
}
