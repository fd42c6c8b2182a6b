package entities

import "math"

// AABB is an axis-aligned bounding box in some local coordinate frame.
type AABB struct {
	MinX, MaxX, MinY, MaxY float64
}

// Contains reports whether point p lies within the box.
func (b AABB) Contains(p Vec2) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Inflate grows the box by eps on every side.
func (b AABB) Inflate(eps float64) AABB {
	return AABB{MinX: b.MinX - eps, MaxX: b.MaxX + eps, MinY: b.MinY - eps, MaxY: b.MaxY + eps}
}

// Clamp returns the point in the box nearest to p, along with which axes (if
// any) the point was pushed back along, so the caller can drop the
// corresponding velocity component at the edge.
func (b AABB) Clamp(p Vec2) (clamped Vec2, hitX, hitY bool) {
	clamped = p
	if clamped.X < b.MinX {
		clamped.X = b.MinX
		hitX = true
	} else if clamped.X > b.MaxX {
		clamped.X = b.MaxX
		hitX = true
	}
	if clamped.Y < b.MinY {
		clamped.Y = b.MinY
		hitY = true
	} else if clamped.Y > b.MaxY {
		clamped.Y = b.MaxY
		hitY = true
	}
	return clamped, hitX, hitY
}

// Brigantine physical constants, the only hull class currently defined.
const (
	BrigantineMass            = 5000.0
	BrigantineMomentOfInertia = 500000.0
	BrigantineMaxSpeed        = 30.0
	BrigantineTurnRate        = 0.5
	BrigantineWaterDrag       = 0.98
	BrigantineAngularDrag     = 0.95

	// BrigantineRudderSlewRate bounds how fast the rudder can move toward
	// its commanded angle, in radians/second.
	BrigantineRudderSlewRate = 1.2
	// BrigantineMaxRudderAngle is the rudder's travel limit in either
	// direction, in radians.
	BrigantineMaxRudderAngle = math.Pi / 4
)

// brigantineDeckAABB is the walkable-deck bounding box in ship-local
// coordinates, used for carrier containment hysteresis.
var brigantineDeckAABB = AABB{MinX: -260, MaxX: 415, MinY: -90, MaxY: 90}

// brigantineHullControlPoints are the 6 control points the hull polygon is
// generated from: bow tip, two starboard shoulders, stern tip, two port
// shoulders, going counter-clockwise.
var brigantineHullControlPoints = [6]Vec2{
	NewVec2(415, 0),
	NewVec2(150, 100),
	NewVec2(-260, 100),
	NewVec2(-330, 0),
	NewVec2(-260, -100),
	NewVec2(150, -100),
}

// Ship is a server-authoritative rigid body carrying modules and players.
// Position, rotation and velocities are in world space; Hull and Modules'
// LocalPos/LocalRot are in ship-local space and must be transformed by
// Pos/Rot to place them in the world.
type Ship struct {
	ID uint32

	Pos        Vec2
	Vel        Vec2
	Rot        float64
	AngularVel float64

	Mass            float64
	MomentOfInertia float64
	MaxSpeed        float64
	TurnRate        float64
	WaterDrag       float64
	AngularDrag     float64

	RudderAngle    float64
	RudderTarget   float64
	RudderSlewRate float64
	MaxRudderAngle float64

	Hull     []Vec2
	DeckAABB AABB
	Modules  []Module
}

// NewBrigantine creates a ship of the brigantine hull class at the given
// pose, with its hull polygon and deck bounds set from the class defaults
// and no modules attached.
func NewBrigantine(id uint32, pos Vec2, rot float64) Ship {
	return Ship{
		ID:  id,
		Pos: pos,
		Rot: rot,

		Mass:            BrigantineMass,
		MomentOfInertia: BrigantineMomentOfInertia,
		MaxSpeed:        BrigantineMaxSpeed,
		TurnRate:        BrigantineTurnRate,
		WaterDrag:       BrigantineWaterDrag,
		AngularDrag:     BrigantineAngularDrag,

		RudderSlewRate: BrigantineRudderSlewRate,
		MaxRudderAngle: BrigantineMaxRudderAngle,

		Hull:     GenerateHull(brigantineHullControlPoints),
		DeckAABB: brigantineDeckAABB,
	}
}

// ToWorld transforms a ship-local point into world space.
func (s Ship) ToWorld(local Vec2) Vec2 {
	return s.Pos.Add(local.Rotate(s.Rot))
}

// ToLocal transforms a world-space point into ship-local space, the
// inverse of ToWorld.
func (s Ship) ToLocal(world Vec2) Vec2 {
	return world.Sub(s.Pos).Rotate(-s.Rot)
}

// WorldHull returns the ship's hull polygon transformed into world space.
func (s Ship) WorldHull() []Vec2 {
	out := make([]Vec2, len(s.Hull))
	for i, p := range s.Hull {
		out[i] = s.ToWorld(p)
	}
	return out
}

// BoundingRadius returns the largest distance from the ship's local origin
// to any hull vertex, used as a cheap broadphase circle test before the
// more expensive SAT polygon overlap.
func (s Ship) BoundingRadius() float64 {
	var maxSq float64
	for _, v := range s.Hull {
		if d := v.LengthSq(); d > maxSq {
			maxSq = d
		}
	}
	return math.Sqrt(maxSq)
}

// ContainsDeckPoint reports whether a world-space point falls within the
// ship's walkable deck bounds, used by carrier hysteresis to decide
// whether a player is standing on this ship.
func (s Ship) ContainsDeckPoint(world Vec2) bool {
	return s.DeckAABB.Contains(s.ToLocal(world))
}

// AddModule appends a module to the ship's module list.
func (s *Ship) AddModule(m Module) {
	s.Modules = append(s.Modules, m)
}

// FindModule returns a pointer to the module with the given id, or nil if
// no such module exists on this ship.
func (s *Ship) FindModule(id uint32) *Module {
	for i := range s.Modules {
		if s.Modules[i].ID == id {
			return &s.Modules[i]
		}
	}
	return nil
}

// ModuleWorldPos returns the world-space position of a module mounted on
// this ship.
func (s Ship) ModuleWorldPos(m Module) Vec2 {
	return s.ToWorld(m.LocalPos)
}

// ModuleWorldRot returns the world-space orientation of a module mounted
// on this ship.
func (s Ship) ModuleWorldRot(m Module) float64 {
	return s.Rot + m.LocalRot
}

// StepRudder slews RudderAngle toward RudderTarget at RudderSlewRate,
// clamped to [-MaxRudderAngle, MaxRudderAngle], over a tick of dt seconds.
func (s *Ship) StepRudder(dt float64) {
	if s.RudderTarget > s.MaxRudderAngle {
		s.RudderTarget = s.MaxRudderAngle
	} else if s.RudderTarget < -s.MaxRudderAngle {
		s.RudderTarget = -s.MaxRudderAngle
	}

	delta := s.RudderTarget - s.RudderAngle
	maxStep := s.RudderSlewRate * dt
	if delta > maxStep {
		delta = maxStep
	} else if delta < -maxStep {
		delta = -maxStep
	}
	s.RudderAngle += delta
}
