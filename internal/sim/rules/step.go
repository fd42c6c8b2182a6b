package rules

import (
	"math"

	"github.com/kreid06/pirate-game-4/internal/sim/entities"
	"github.com/kreid06/pirate-game-4/internal/sim/physics"
)

// TickRate is the fixed server simulation frequency.
const TickRate = 30
const TickDuration = 1.0 / TickRate

// shipRestitution is the coefficient of restitution used for ship-ship
// collision impulses: low, since hulls are meant to bump and scrape rather
// than bounce.
const shipRestitution = 0.2

// positionalSlop and positionalCorrection bound the Baumgarte-style
// positional correction applied after a ship-ship impulse, so overlapping
// hulls separate over a couple of ticks instead of snapping or jittering.
const (
	positionalSlop       = 0.5
	positionalCorrection = 0.2
)

// Step advances world by exactly one tick, applying (in order): queued
// player/ship inputs, ship rigid-body integration under wind, player
// locomotion with carrier attach/detach hysteresis, projectile
// integration, ship-ship hull collisions, cannon reload, projectile hull
// hits, and numeric-anomaly detection against lastGood. It returns the
// advanced world; lastGood is not modified.
//
// The multiplayer session has no terminal state at the simulation layer,
// only at the session layer (handshake/disconnect), so there is no
// "game over" flag for Step to check here.
func Step(world entities.World, inputs []PlayerInput, wind physics.Wind, lastGood *entities.World) entities.World {
	applyInputs(&world, inputs)

	integrateShips(&world, wind, TickDuration)
	integratePlayers(&world, TickDuration)
	integrateCannonballs(&world, TickDuration)

	resolveShipCollisions(&world)

	StepCannonReload(&world, TickDuration)
	resolveCannonballHits(&world)

	DetectAndResetAnomalies(&world, lastGood)

	world.Tick++
	world.TimestampMs += int64(TickDuration * 1000)

	return world
}

func applyInputs(world *entities.World, inputs []PlayerInput) {
	for _, in := range inputs {
		switch in.Kind {
		case InputMovementState:
			applyMovementInput(world, in)
		case InputRotationUpdate:
			applyRotationInput(world, in)
		case InputActionEvent:
			applyActionInput(world, in)
		case InputShipRudderControl:
			if ship := world.FindShip(in.ShipID); ship != nil {
				ship.RudderTarget = ClampSigned(in.RudderTarget, ship.MaxRudderAngle)
			}
		case InputShipSailControl:
			if ship := world.FindShip(in.ShipID); ship != nil {
				if m := ship.FindModule(in.ModuleID); m != nil && m.Type == entities.ModuleMast {
					m.Mast.SailOpennessTarget = ClampUnit(in.SailOpenness)
				}
			}
		case InputShipSailAngleControl:
			if ship := world.FindShip(in.ShipID); ship != nil {
				if m := ship.FindModule(in.ModuleID); m != nil && m.Type == entities.ModuleMast {
					m.Mast.SailAngle = ClampSailAngle(in.SailAngle)
				}
			}
		case InputCannonAim:
			if ship := world.FindShip(in.ShipID); ship != nil {
				if m := ship.FindModule(in.ModuleID); m != nil && m.Type == entities.ModuleCannon {
					m.Cannon.AimDirection = NormalizeRotation(in.AimDirection)
				}
			}
		case InputCannonFire:
			if ship := world.FindShip(in.ShipID); ship != nil {
				FireCannon(world, ship, in.ModuleID, in.PlayerID)
			}
		}
	}
}

// applyMovementInput replaces a player's standing locomotion intent. Per
// the movement_state wire message, this intent persists across ticks until
// the next movement_state arrives, so it is only recorded here; it is
// re-applied every tick by stepPlayerMovement.
func applyMovementInput(world *entities.World, in PlayerInput) {
	player := world.FindPlayer(in.PlayerID)
	if player == nil {
		return
	}
	player.MovementDir = entities.NewVec2(ClampSigned(in.MoveDir.X, 1), ClampSigned(in.MoveDir.Y, 1))
	player.Sprint = in.Sprint
	player.IsMoving = in.IsMoving
}

func applyRotationInput(world *entities.World, in PlayerInput) {
	player := world.FindPlayer(in.PlayerID)
	if player == nil {
		return
	}
	if player.IsOnCarrier() {
		player.LocalRot = ApplyRotationUpdate(player.LocalRot, in.RotationDelta, TickDuration)
	} else {
		player.Rot = ApplyRotationUpdate(player.Rot, in.RotationDelta, TickDuration)
	}
}

func applyActionInput(world *entities.World, in PlayerInput) {
	player := world.FindPlayer(in.PlayerID)
	if player == nil {
		return
	}
	switch in.Action {
	case ActionMount:
		ship := world.FindShip(player.CarrierShipID)
		if ship == nil {
			return
		}
		module := ship.FindModule(in.TargetID)
		if module == nil || module.IsOccupied() {
			return
		}
		module.OccupiedBy = player.ID
		player.MountedModuleID = module.ID
	case ActionDismount:
		if !player.IsMounted() {
			return
		}
		if ship := world.FindShip(player.CarrierShipID); ship != nil {
			if m := ship.FindModule(player.MountedModuleID); m != nil {
				m.OccupiedBy = 0
			}
		}
		player.MountedModuleID = 0
	case ActionJump:
		if player.IsOnCarrier() {
			ship := world.FindShip(player.CarrierShipID)
			player.DetachFromCarrier(ship)
			player.State = entities.MovementFalling
			player.FallTimer = fallDuration
		}
	}
}

// integrateShips applies wind thrust from each ship's masts, water/angular
// drag, rudder slewing and rigid-body integration.
func integrateShips(world *entities.World, wind physics.Wind, dt float64) {
	for i := range world.Ships {
		ship := &world.Ships[i]
		ship.StepRudder(dt)

		var thrust entities.Vec2
		for j := range ship.Modules {
			m := &ship.Modules[j]
			if m.Type != entities.ModuleMast {
				continue
			}
			m.Mast.SailOpenness = StepSailOpenness(m.Mast.SailOpenness, m.Mast.SailOpennessTarget, dt)
			sailWorldAngle := ship.ModuleWorldRot(*m) + m.Mast.SailAngle
			thrust = thrust.Add(wind.ForwardThrust(sailWorldAngle, m.Mast.SailOpenness))
		}

		acc := thrust.Scale(1.0 / ship.Mass)
		newPos, newVel := physics.SemiImplicitEuler(ship.Pos, ship.Vel, acc, dt)
		ship.Pos = newPos
		ship.Vel = newVel.Scale(ship.WaterDrag)
		if speed := ship.Vel.Length(); speed > ship.MaxSpeed {
			ship.Vel = ship.Vel.Scale(ship.MaxSpeed / speed)
		}

		forwardSpeed := ship.Vel.Length()
		angularAcc := physics.RudderTorque(ship.RudderAngle, forwardSpeed, ship.TurnRate) / ship.MomentOfInertia
		ship.AngularVel = (ship.AngularVel + angularAcc*dt) * ship.AngularDrag
		ship.AngularVel = ClampSigned(ship.AngularVel, ship.TurnRate)
		ship.Rot = NormalizeRotation(ship.Rot + ship.AngularVel*dt)
	}
}

// integratePlayers re-applies each player's standing movement intent,
// then advances carrier attach/detach hysteresis and fall timers.
func integratePlayers(world *entities.World, dt float64) {
	for i := range world.Players {
		player := &world.Players[i]
		stepPlayerMovement(world, player, dt)
		StepCarrierHysteresis(world, player, dt)
		StepFallTimer(player, dt)
	}
}

// stepPlayerMovement applies the player's persisted MovementDir/Sprint
// intent for this tick, records the resulting velocity (for the broadcast
// activity gate and reconciliation), and, for a walking player on a
// carrier, clamps the result to the ship's deck bounds.
func stepPlayerMovement(world *entities.World, player *entities.Player, dt float64) {
	if player.State == entities.MovementFalling {
		player.Vel = entities.Zero()
		return
	}

	if player.IsOnCarrier() {
		before := player.LocalPos
		player.LocalPos = ApplyMovementState(player.LocalPos, player.State, player.MovementDir, player.Sprint, dt)
		player.Vel = player.LocalPos.Sub(before).Scale(1 / dt)
		if ship := world.FindShip(player.CarrierShipID); ship != nil {
			clampToDeck(ship, player)
		}
		return
	}

	before := player.Pos
	player.Pos = ApplyMovementState(player.Pos, player.State, player.MovementDir, player.Sprint, dt)
	player.Vel = player.Pos.Sub(before).Scale(1 / dt)
}

// deckClampEpsilonFactor scales a player's radius into the deck AABB's
// inflation margin, so a player's edge rather than center may touch the
// rail before being pushed back.
const deckClampEpsilonFactor = 0.03

// clampToDeck keeps a walking player's local position within the ship's
// deck bounds (inflated by a small radius-scaled margin), zeroing the
// velocity component normal to any edge it would otherwise cross.
func clampToDeck(ship *entities.Ship, player *entities.Player) {
	bounds := ship.DeckAABB.Inflate(deckClampEpsilonFactor * player.Radius)
	clamped, hitX, hitY := bounds.Clamp(player.LocalPos)
	player.LocalPos = clamped
	if hitX {
		player.Vel.X = 0
	}
	if hitY {
		player.Vel.Y = 0
	}
}

func integrateCannonballs(world *entities.World, dt float64) {
	for i := range world.Cannonballs {
		world.Cannonballs[i].Advance(dt)
	}
	world.PruneExpiredCannonballs()
}

// resolveCannonballHits removes cannonballs that strike a ship hull (other
// than the one they were fired from) or a player.
func resolveCannonballHits(world *entities.World) {
	var live []entities.Cannonball
	for _, cb := range world.Cannonballs {
		hit := false
		for i := range world.Ships {
			ship := &world.Ships[i]
			if ship.ID == cb.FiredFromShipID {
				continue
			}
			if physics.CircleOverlapsPolygon(cb.Pos, cb.Radius, ship.WorldHull()) {
				hit = true
				break
			}
		}
		if !hit {
			for i := range world.Players {
				p := &world.Players[i]
				if p.ID == cb.FiredByPlayerID {
					continue
				}
				if physics.CirclesOverlap(cb.Pos, cb.Radius, p.WorldPos(world.FindShip(p.CarrierShipID)), p.Radius) {
					hit = true
					break
				}
			}
		}
		if !hit {
			live = append(live, cb)
		}
	}
	world.Cannonballs = live
}

// resolveShipCollisions detects and resolves ship-ship overlap: pairs are
// first filtered by bounding-circle broadphase, then tested exactly via
// SAT on their world-space hulls, and any overlap is resolved with an
// impulse and a positional correction.
func resolveShipCollisions(world *entities.World) {
	for i := 0; i < len(world.Ships); i++ {
		for j := i + 1; j < len(world.Ships); j++ {
			a, b := &world.Ships[i], &world.Ships[j]

			reach := a.BoundingRadius() + b.BoundingRadius()
			if a.Pos.DistanceTo(b.Pos) > reach {
				continue
			}

			overlap := physics.PolygonsOverlap(a.WorldHull(), b.WorldHull())
			if !overlap.Colliding {
				continue
			}
			resolveShipImpulse(a, b, overlap)
		}
	}
}

// resolveShipImpulse applies a 2D rigid-body collision impulse (using each
// ship's mass and moment of inertia) plus a positional correction, pushing
// the two hulls apart. The contact point is approximated as the midpoint
// between the two ships' centers: PolygonsOverlap reports only a
// separating normal and penetration depth, not an exact contact manifold.
func resolveShipImpulse(a, b *entities.Ship, overlap physics.Overlap) {
	normal := overlap.Normal
	if normal.Dot(b.Pos.Sub(a.Pos)) < 0 {
		normal = normal.Scale(-1)
	}

	contact := a.Pos.Lerp(b.Pos, 0.5)
	rA := contact.Sub(a.Pos)
	rB := contact.Sub(b.Pos)

	velAtA := a.Vel.Add(rA.Perp().Scale(a.AngularVel))
	velAtB := b.Vel.Add(rB.Perp().Scale(b.AngularVel))
	relVel := velAtB.Sub(velAtA)

	velAlongNormal := relVel.Dot(normal)
	if velAlongNormal > 0 {
		// Already separating; only the positional correction below applies.
	} else {
		invMassA, invMassB := 1/a.Mass, 1/b.Mass
		raCrossN := rA.Cross(normal)
		rbCrossN := rB.Cross(normal)
		invMassSum := invMassA + invMassB +
			(raCrossN*raCrossN)/a.MomentOfInertia +
			(rbCrossN*rbCrossN)/b.MomentOfInertia

		j := -(1 + shipRestitution) * velAlongNormal / invMassSum
		impulse := normal.Scale(j)

		a.Vel = a.Vel.Sub(impulse.Scale(invMassA))
		b.Vel = b.Vel.Add(impulse.Scale(invMassB))
		a.AngularVel -= raCrossN * j / a.MomentOfInertia
		b.AngularVel += rbCrossN * j / b.MomentOfInertia

		if speed := a.Vel.Length(); speed > a.MaxSpeed {
			a.Vel = a.Vel.Scale(a.MaxSpeed / speed)
		}
		if speed := b.Vel.Length(); speed > b.MaxSpeed {
			b.Vel = b.Vel.Scale(b.MaxSpeed / speed)
		}
		a.AngularVel = ClampSigned(a.AngularVel, a.TurnRate)
		b.AngularVel = ClampSigned(b.AngularVel, b.TurnRate)
	}

	invMassA, invMassB := 1/a.Mass, 1/b.Mass
	correctionMag := math.Max(overlap.Depth-positionalSlop, 0) / (invMassA + invMassB) * positionalCorrection
	correction := normal.Scale(correctionMag)
	a.Pos = a.Pos.Sub(correction.Scale(invMassA))
	b.Pos = b.Pos.Add(correction.Scale(invMassB))
}
