package rules

import (
	"math"

	"github.com/kreid06/pirate-game-4/internal/sim/entities"
)

// Cannon tuning constants.
const (
	// CannonballMuzzleSpeed is the world-space speed a fired cannonball
	// leaves the muzzle at, before the firing ship's own velocity is added.
	CannonballMuzzleSpeed = 45.0
	// CannonballRange is the maximum travel distance of a cannonball
	// before it expires.
	CannonballRange = 600.0
	// CannonAimTolerance bounds how far off-axis from a cannon's current
	// aim a fire_all broadside may diverge, in radians.
	CannonAimTolerance = math.Pi / 12 // 15 degrees
)

// FireCannon attempts to fire the cannon module with the given id aboard
// ship. It returns false (and spawns nothing) if the module does not
// exist, is not a cannon, is out of ammunition, or is still reloading.
// On success it decrements ammunition, resets the reload timer, and
// spawns a cannonball in world.
func FireCannon(world *entities.World, ship *entities.Ship, moduleID, playerID uint32) (entities.Cannonball, bool) {
	module := ship.FindModule(moduleID)
	if module == nil || module.Type != entities.ModuleCannon {
		return entities.Cannonball{}, false
	}
	if module.Cannon.Ammunition <= 0 {
		return entities.Cannonball{}, false
	}
	if module.Cannon.TimeSinceFire < module.Cannon.ReloadTime {
		return entities.Cannonball{}, false
	}

	worldAngle := ship.ModuleWorldRot(*module) + module.Cannon.AimDirection
	muzzlePos := ship.ModuleWorldPos(*module)
	muzzleVel := entities.NewVec2(math.Cos(worldAngle), math.Sin(worldAngle)).Scale(CannonballMuzzleSpeed).Add(ship.Vel)

	module.Cannon.Ammunition--
	module.Cannon.TimeSinceFire = 0

	id := world.SpawnCannonball(muzzlePos, muzzleVel, ship.ID, moduleID, playerID, CannonballRange)
	cb := *findCannonball(world, id)
	return cb, true
}

func findCannonball(world *entities.World, id uint32) *entities.Cannonball {
	for i := range world.Cannonballs {
		if world.Cannonballs[i].ID == id {
			return &world.Cannonballs[i]
		}
	}
	return nil
}

// WithinAimTolerance reports whether a candidate fire direction is within
// CannonAimTolerance of the cannon's current aim, used by fire_all
// broadsides to decide which cannons on a firing edge actually discharge.
func WithinAimTolerance(aimed, candidate float64) bool {
	diff := math.Abs(NormalizeRotation(aimed) - NormalizeRotation(candidate))
	if diff > math.Pi {
		diff = 2*math.Pi - diff
	}
	return diff <= CannonAimTolerance
}

// StepCannonReload advances every cannon module's time-since-fire
// counter by dt, across every ship in the world.
func StepCannonReload(world *entities.World, dt float64) {
	for i := range world.Ships {
		for j := range world.Ships[i].Modules {
			m := &world.Ships[i].Modules[j]
			if m.Type == entities.ModuleCannon {
				m.Cannon.TimeSinceFire += dt
			}
		}
	}
}
