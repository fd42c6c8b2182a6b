package rules

import "github.com/kreid06/pirate-game-4/internal/sim/entities"

// AnomalyCounters tracks how many numeric-anomaly resets the simulator has
// performed, by entity kind, for observability.
type AnomalyCounters struct {
	Ships   int
	Players int
	Cannonballs int
}

// DetectAndResetAnomalies scans every entity in world for non-finite
// position or velocity components (NaN/Inf), which should never occur in
// a correct simulation step but can result from pathological client
// input or floating-point edge cases. An offending ship or player has its
// pose and velocity reset to its value in lastGood (or to zero if lastGood
// does not hold it); an offending cannonball is removed. Each offender
// increments the counter for its kind.
func DetectAndResetAnomalies(world *entities.World, lastGood *entities.World) AnomalyCounters {
	var counters AnomalyCounters

	for i := range world.Ships {
		ship := &world.Ships[i]
		if ship.Pos.IsFinite() && ship.Vel.IsFinite() && !isNaNOrInf(ship.AngularVel) && !isNaNOrInf(ship.Rot) {
			continue
		}
		if good := lastGood.FindShip(ship.ID); good != nil {
			ship.Pos, ship.Vel, ship.Rot, ship.AngularVel = good.Pos, good.Vel, good.Rot, good.AngularVel
		} else {
			ship.Pos, ship.Vel, ship.Rot, ship.AngularVel = entities.Zero(), entities.Zero(), 0, 0
		}
		counters.Ships++
	}

	for i := range world.Players {
		p := &world.Players[i]
		if p.Pos.IsFinite() && p.Vel.IsFinite() && p.LocalPos.IsFinite() {
			continue
		}
		if good := lastGood.FindPlayer(p.ID); good != nil {
			p.Pos, p.Vel, p.LocalPos, p.LocalRot = good.Pos, good.Vel, good.LocalPos, good.LocalRot
		} else {
			p.Pos, p.Vel, p.LocalPos = entities.Zero(), entities.Zero(), entities.Zero()
		}
		counters.Players++
	}

	live := world.Cannonballs[:0]
	for _, cb := range world.Cannonballs {
		if !cb.Pos.IsFinite() || !cb.Vel.IsFinite() {
			counters.Cannonballs++
			continue
		}
		live = append(live, cb)
	}
	world.Cannonballs = live

	return counters
}

func isNaNOrInf(f float64) bool {
	return f != f || f > maxFinite || f < -maxFinite
}

const maxFinite = 1.7976931348623157e+308
