package proto

import (
	"fmt"
	"math"
)

// MovementMagnitudeLimit is the maximum accepted length of a movement_state
// vector; 1.5 itself is accepted, anything above is rejected outright.
const MovementMagnitudeLimit = 1.5

// SailOpennessMin/Max bound ship_sail_control's desired_openness field.
const (
	SailOpennessMin = 0.0
	SailOpennessMax = 100.0
)

// SailAngleLimit bounds ship_sail_angle_control's desired_angle field to
// [-60deg, 60deg].
const SailAngleLimit = math.Pi / 3

// ValidateHandshakeMessage validates a HandshakeMessage.
func ValidateHandshakeMessage(msg *HandshakeMessage) error {
	if msg == nil {
		return fmt.Errorf("handshake message is nil")
	}
	if msg.Type != TypeHandshake {
		return fmt.Errorf("invalid type: expected %q, got %q", TypeHandshake, msg.Type)
	}
	if msg.PlayerName == "" || len(msg.PlayerName) > 31 {
		return fmt.Errorf("invalid playerName: must be 1-31 chars, got %d", len(msg.PlayerName))
	}
	if msg.ProtocolVersion <= 0 {
		return fmt.Errorf("invalid protocolVersion: must be positive, got %d", msg.ProtocolVersion)
	}
	return nil
}

// ValidateMovementStateMessage validates a MovementStateMessage.
func ValidateMovementStateMessage(msg *MovementStateMessage) error {
	if msg == nil {
		return fmt.Errorf("movement_state message is nil")
	}
	if msg.Type != TypeMovementState {
		return fmt.Errorf("invalid type: expected %q, got %q", TypeMovementState, msg.Type)
	}
	if err := validateVec2Wire(&msg.Movement); err != nil {
		return fmt.Errorf("invalid movement: %w", err)
	}
	magnitude := math.Hypot(msg.Movement.X, msg.Movement.Y)
	if magnitude > MovementMagnitudeLimit {
		return fmt.Errorf("invalid movement: magnitude %f exceeds limit %f", magnitude, MovementMagnitudeLimit)
	}
	return nil
}

// ValidateRotationUpdateMessage validates a RotationUpdateMessage.
func ValidateRotationUpdateMessage(msg *RotationUpdateMessage) error {
	if msg == nil {
		return fmt.Errorf("rotation_update message is nil")
	}
	if msg.Type != TypeRotationUpdate {
		return fmt.Errorf("invalid type: expected %q, got %q", TypeRotationUpdate, msg.Type)
	}
	if math.IsNaN(msg.Rotation) || math.IsInf(msg.Rotation, 0) {
		return fmt.Errorf("invalid rotation: must be finite, got %f", msg.Rotation)
	}
	if msg.Rotation < -math.Pi || msg.Rotation > math.Pi {
		return fmt.Errorf("invalid rotation: must be in range [-pi, pi], got %f", msg.Rotation)
	}
	return nil
}

// ValidateActionEventMessage validates an ActionEventMessage.
func ValidateActionEventMessage(msg *ActionEventMessage) error {
	if msg == nil {
		return fmt.Errorf("action_event message is nil")
	}
	if msg.Type != TypeActionEvent {
		return fmt.Errorf("invalid type: expected %q, got %q", TypeActionEvent, msg.Type)
	}
	switch msg.Action {
	case ActionFireCannon, ActionJump, ActionInteract, ActionReload, ActionMount, ActionDismount:
	default:
		return fmt.Errorf("invalid action: %q", msg.Action)
	}
	return nil
}

// ValidateShipSailControlMessage validates a ShipSailControlMessage.
func ValidateShipSailControlMessage(msg *ShipSailControlMessage) error {
	if msg == nil {
		return fmt.Errorf("ship_sail_control message is nil")
	}
	if msg.Type != TypeShipSailControl {
		return fmt.Errorf("invalid type: expected %q, got %q", TypeShipSailControl, msg.Type)
	}
	if msg.DesiredOpenness < SailOpennessMin || msg.DesiredOpenness > SailOpennessMax {
		return fmt.Errorf("invalid desired_openness: must be in range [%f, %f], got %f", SailOpennessMin, SailOpennessMax, msg.DesiredOpenness)
	}
	return nil
}

// ValidateShipRudderControlMessage validates a ShipRudderControlMessage.
func ValidateShipRudderControlMessage(msg *ShipRudderControlMessage) error {
	if msg == nil {
		return fmt.Errorf("ship_rudder_control message is nil")
	}
	if msg.Type != TypeShipRudderControl {
		return fmt.Errorf("invalid type: expected %q, got %q", TypeShipRudderControl, msg.Type)
	}
	return nil
}

// ValidateShipSailAngleControlMessage validates a ShipSailAngleControlMessage.
func ValidateShipSailAngleControlMessage(msg *ShipSailAngleControlMessage) error {
	if msg == nil {
		return fmt.Errorf("ship_sail_angle_control message is nil")
	}
	if msg.Type != TypeShipSailAngle {
		return fmt.Errorf("invalid type: expected %q, got %q", TypeShipSailAngle, msg.Type)
	}
	if msg.DesiredAngle < -SailAngleLimit || msg.DesiredAngle > SailAngleLimit {
		return fmt.Errorf("invalid desired_angle: must be in range [-%f, %f], got %f", SailAngleLimit, SailAngleLimit, msg.DesiredAngle)
	}
	return nil
}

// ValidateCannonAimMessage validates a CannonAimMessage.
func ValidateCannonAimMessage(msg *CannonAimMessage) error {
	if msg == nil {
		return fmt.Errorf("cannon_aim message is nil")
	}
	if msg.Type != TypeCannonAim {
		return fmt.Errorf("invalid type: expected %q, got %q", TypeCannonAim, msg.Type)
	}
	if math.IsNaN(msg.AimAngle) || math.IsInf(msg.AimAngle, 0) {
		return fmt.Errorf("invalid aim_angle: must be finite, got %f", msg.AimAngle)
	}
	return nil
}

// ValidateCannonFireMessage validates a CannonFireMessage.
func ValidateCannonFireMessage(msg *CannonFireMessage) error {
	if msg == nil {
		return fmt.Errorf("cannon_fire message is nil")
	}
	if msg.Type != TypeCannonFire {
		return fmt.Errorf("invalid type: expected %q, got %q", TypeCannonFire, msg.Type)
	}
	return nil
}

// ValidateGameStateMessage validates a GameStateMessage before it is sent,
// guarding against NaN/Inf leaking onto the wire from a corrupted world.
func ValidateGameStateMessage(msg *GameStateMessage) error {
	if msg == nil {
		return fmt.Errorf("GAME_STATE message is nil")
	}
	if msg.Type != TypeGameState {
		return fmt.Errorf("invalid type: expected %q, got %q", TypeGameState, msg.Type)
	}
	for i, ship := range msg.Ships {
		if err := validateVec2Wire(&ship.Pos); err != nil {
			return fmt.Errorf("invalid ship[%d].pos: %w", i, err)
		}
		if err := validateVec2Wire(&ship.Velocity); err != nil {
			return fmt.Errorf("invalid ship[%d].velocity: %w", i, err)
		}
	}
	for i, player := range msg.Players {
		if math.IsNaN(player.WorldX) || math.IsNaN(player.WorldY) {
			return fmt.Errorf("invalid player[%d]: NaN world position", i)
		}
	}
	return nil
}

// validateVec2Wire rejects non-finite components.
func validateVec2Wire(vec *Vec2Wire) error {
	if vec == nil {
		return fmt.Errorf("vec2 is nil")
	}
	if math.IsNaN(vec.X) || math.IsInf(vec.X, 0) {
		return fmt.Errorf("invalid x: must be finite, got %f", vec.X)
	}
	if math.IsNaN(vec.Y) || math.IsInf(vec.Y, 0) {
		return fmt.Errorf("invalid y: must be finite, got %f", vec.Y)
	}
	return nil
}
