package entities

// ModuleType is the wire-stable numeric tag identifying a module's kind.
// Values 0-7 and 255 are wire-stable per the protocol's tagged-union layout.
type ModuleType uint8

const (
	ModuleHelm   ModuleType = 0
	ModuleSeat   ModuleType = 1
	ModuleCannon ModuleType = 2
	ModuleMast   ModuleType = 3
	ModuleLadder ModuleType = 4
	ModulePlank  ModuleType = 5
	ModuleDeck   ModuleType = 6
	ModuleCustom ModuleType = 255
)

// State bitfield flags for Module.StateBits.
const (
	ModuleStateDamaged uint8 = 1 << iota
	ModuleStateActive
)

// CannonData is the type-specific payload for a ModuleCannon.
type CannonData struct {
	AimDirection   float64 // ship-relative radians
	Ammunition     int
	TimeSinceFire  float64 // seconds
	ReloadTime     float64 // seconds, minimum time between shots
}

// MastData is the type-specific payload for a ModuleMast.
type MastData struct {
	SailOpennessTarget float64 // [0,1]
	SailOpenness       float64 // [0,1], slewed toward target
	SailAngle          float64 // [-pi/3, pi/3]
	Integrity          float64
}

// PlankData is the type-specific payload for a ModulePlank.
type PlankData struct {
	Health  float64 // [0,100]
	Segment int
}

// HelmData is the type-specific payload for a ModuleHelm.
type HelmData struct {
	WheelRotation float64
}

// Module is a fixture placed on a ship deck. It is a tagged union over
// {helm, seat, cannon, mast, ladder, plank, deck, custom}: Type selects
// which of Cannon/Mast/Plank/Helm holds the type-specific record. Module id
// is immutable once assigned and unique world-wide.
type Module struct {
	ID          uint32
	Type        ModuleType
	LocalPos    Vec2
	LocalRot    float64
	OccupiedBy  uint32 // 0 = unoccupied
	StateBits   uint8

	Cannon CannonData
	Mast   MastData
	Plank  PlankData
	Helm   HelmData
}

// NewModule creates a new Module of the given type at the given local pose.
func NewModule(id uint32, t ModuleType, localPos Vec2, localRot float64) Module {
	return Module{
		ID:       id,
		Type:     t,
		LocalPos: localPos,
		LocalRot: localRot,
	}
}

// IsOccupied reports whether a player currently occupies this module.
func (m Module) IsOccupied() bool {
	return m.OccupiedBy != 0
}

// IsDamaged reports whether the module's damaged bit is set.
func (m Module) IsDamaged() bool {
	return m.StateBits&ModuleStateDamaged != 0
}

// IsActive reports whether the module's active bit is set.
func (m Module) IsActive() bool {
	return m.StateBits&ModuleStateActive != 0
}
