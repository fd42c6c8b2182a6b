package entities

// ProjectileIDFloor is the smallest id assigned to a cannonball. Player ids
// from session.Registry also start at 1000, so a cannonball id and a player
// id can be equal; ids are unique only within one entity kind.
const ProjectileIDFloor = 1000

// CannonballRadius is the collision radius of a fired cannonball.
const CannonballRadius = 4.0

// Cannonball is a server-simulated projectile fired from a cannon module.
type Cannonball struct {
	ID uint32

	Pos Vec2
	Vel Vec2

	Radius float64

	FiredFromShipID   uint32
	FiredFromModuleID uint32
	FiredByPlayerID   uint32

	MaxRange         float64
	DistanceTraveled float64
	TimeAlive        float64
}

// NewCannonball creates a cannonball at pos moving at vel, fired from the
// given ship/module/player, with the given maximum travel range.
func NewCannonball(id uint32, pos, vel Vec2, shipID, moduleID, playerID uint32, maxRange float64) Cannonball {
	return Cannonball{
		ID:                id,
		Pos:               pos,
		Vel:               vel,
		Radius:            CannonballRadius,
		FiredFromShipID:   shipID,
		FiredFromModuleID: moduleID,
		FiredByPlayerID:   playerID,
		MaxRange:          maxRange,
	}
}

// Advance moves the cannonball by vel*dt and accumulates its traveled
// distance and airtime.
func (c *Cannonball) Advance(dt float64) {
	step := c.Vel.Scale(dt)
	c.Pos = c.Pos.Add(step)
	c.DistanceTraveled += step.Length()
	c.TimeAlive += dt
}

// Expired reports whether the cannonball has traveled its full range and
// should be removed from the world.
func (c Cannonball) Expired() bool {
	return c.DistanceTraveled >= c.MaxRange
}
