package rules

import "github.com/kreid06/pirate-game-4/internal/sim/entities"

// Carrier hysteresis tuning: a player must remain inside
// a ship's deck bounds for CarrierInTicks consecutive ticks before being
// attached to it, and outside for CarrierOutTicks consecutive ticks
// before being detached, with a cooldown after any transition to damp
// flicker at deck boundaries.
const (
	CarrierInTicks      = 3
	CarrierOutTicks     = 8
	CarrierCooldownSecs = 0.2
)

// findCandidateCarrier returns the first ship (other than excludeID) whose
// deck bounds contain the player's current world position, or nil.
func findCandidateCarrier(world *entities.World, worldPos entities.Vec2, excludeID uint32) *entities.Ship {
	for i := range world.Ships {
		ship := &world.Ships[i]
		if ship.ID == excludeID {
			continue
		}
		if ship.ContainsDeckPoint(worldPos) {
			return ship
		}
	}
	return nil
}

// StepCarrierHysteresis advances one player's carrier attach/detach state
// machine by one tick. For a player that is not falling it resolves the
// player's current world position itself (via Player.WorldPos against its
// current carrier, if any) before deciding on any carrier transition.
func StepCarrierHysteresis(world *entities.World, player *entities.Player, dt float64) {
	if player.CooldownRemaining > 0 {
		player.CooldownRemaining -= dt
		if player.CooldownRemaining < 0 {
			player.CooldownRemaining = 0
		}
	}

	if player.State == entities.MovementFalling {
		stepFallingLanding(world, player)
		return
	}

	worldPos := player.WorldPos(world.FindShip(player.CarrierShipID))
	currentShip := world.FindShip(player.CarrierShipID)

	if player.IsOnCarrier() && currentShip != nil && currentShip.ContainsDeckPoint(worldPos) {
		player.OutCounter = 0
		return
	}

	if player.IsOnCarrier() {
		player.OutCounter++
		if player.OutCounter >= CarrierOutTicks && player.CooldownRemaining <= 0 {
			player.DetachFromCarrier(currentShip)
			player.State = entities.MovementFalling
			player.FallTimer = fallDuration
			player.OutCounter = 0
			player.InCounter = 0
			player.CandidateShipID = 0
			player.CooldownRemaining = CarrierCooldownSecs
		}
		return
	}

	candidate := findCandidateCarrier(world, worldPos, 0)
	if candidate == nil {
		player.CandidateShipID = 0
		player.InCounter = 0
		return
	}

	if player.CandidateShipID == candidate.ID {
		player.InCounter++
	} else {
		player.CandidateShipID = candidate.ID
		player.InCounter = 1
	}

	if player.InCounter >= CarrierInTicks && player.CooldownRemaining <= 0 {
		player.AttachToCarrier(candidate)
		player.State = entities.MovementWalking
		player.InCounter = 0
		player.CandidateShipID = 0
		player.CooldownRemaining = CarrierCooldownSecs
	}
}

// stepFallingLanding implements the FALLING -> WALKING transition: landing
// on any ship's deck attaches the player immediately, a single-tick test
// rather than the multi-tick SWIMMING -> WALKING hysteresis above.
func stepFallingLanding(world *entities.World, player *entities.Player) {
	candidate := findCandidateCarrier(world, player.Pos, 0)
	if candidate == nil {
		return
	}
	player.AttachToCarrier(candidate)
	player.State = entities.MovementWalking
	player.FallTimer = 0
	player.InCounter = 0
	player.OutCounter = 0
	player.CandidateShipID = 0
	player.CooldownRemaining = CarrierCooldownSecs
}

// fallDuration is how long a player spends in MovementFalling after being
// knocked off a deck before splashing down into MovementSwimming.
const fallDuration = 0.5

// StepFallTimer counts a falling player's timer down and transitions them
// to swimming once it expires.
func StepFallTimer(player *entities.Player, dt float64) {
	if player.State != entities.MovementFalling {
		return
	}
	player.FallTimer -= dt
	if player.FallTimer <= 0 {
		player.FallTimer = 0
		player.State = entities.MovementSwimming
	}
}
