package proto

// Message type discriminators for the text/JSON wire protocol. Field names
// below use "type" literally (not the abbreviated "t" of older wire
// formats).
const (
	TypeHandshake         = "handshake"
	TypeHandshakeResponse = "handshake_response"
	TypeMovementState     = "movement_state"
	TypeRotationUpdate    = "rotation_update"
	TypeActionEvent       = "action_event"
	TypeShipSailControl   = "ship_sail_control"
	TypeShipRudderControl = "ship_rudder_control"
	TypeShipSailAngle     = "ship_sail_angle_control"
	TypeCannonAim         = "cannon_aim"
	TypeCannonFire        = "cannon_fire"
	TypePing              = "ping"
	TypePong              = "pong"
	TypeMessageAck        = "message_ack"
	TypeGameState         = "GAME_STATE"
)

// Handshake statuses carried in HandshakeResponseMessage.Status.
const (
	StatusConnected   = "connected"
	StatusReconnected = "reconnected"
	StatusError       = "error"
)

// Acknowledgment statuses carried in MessageAck.Status.
const (
	AckInputReceived  = "input_received"
	AckNoPlayer       = "no_player"
	AckPlayerNotFound = "player_not_found"
	AckInvalid        = "invalid"
	AckRateLimited    = "rate_limited"
	AckUnknownType    = "unknown_type"
)

// HandshakeMessage is sent client -> server to open a session.
type HandshakeMessage struct {
	Type            string `json:"type"`
	PlayerName      string `json:"playerName"`
	ProtocolVersion int    `json:"protocolVersion"`
	Timestamp       int64  `json:"timestamp"`
}

// HandshakeResponseMessage is sent server -> client in reply to a handshake.
type HandshakeResponseMessage struct {
	Type       string `json:"type"`
	PlayerID   uint32 `json:"player_id"`
	PlayerName string `json:"playerName"`
	ServerTime int64  `json:"server_time"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
}

// Vec2Wire is a plain 2-component vector as it appears on the wire.
type Vec2Wire struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MovementStateMessage replaces a player's standing movement intent.
type MovementStateMessage struct {
	Type     string   `json:"type"`
	Movement Vec2Wire `json:"movement"`
	IsMoving bool     `json:"is_moving"`
}

// RotationUpdateMessage replaces a player's stored aim rotation.
type RotationUpdateMessage struct {
	Type     string  `json:"type"`
	Rotation float64 `json:"rotation"`
}

// ActionEventMessage queues a discrete action for the next tick.
type ActionEventMessage struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Target uint32 `json:"target,omitempty"`
}

// Action name constants carried in ActionEventMessage.Action.
const (
	ActionFireCannon = "fire_cannon"
	ActionJump       = "jump"
	ActionInteract   = "interact"
	ActionReload     = "reload"
	ActionMount      = "mount"
	ActionDismount   = "dismount"
)

// ShipSailControlMessage sets a ship's sail openness target. Valid only
// when the sending player is mounted at a helm.
type ShipSailControlMessage struct {
	Type            string  `json:"type"`
	DesiredOpenness float64 `json:"desired_openness"`
}

// ShipRudderControlMessage sets rudder input; both flags true means 0.
type ShipRudderControlMessage struct {
	Type         string `json:"type"`
	TurningLeft  bool   `json:"turning_left"`
	TurningRight bool   `json:"turning_right"`
}

// ShipSailAngleControlMessage sets a sail's angle target.
type ShipSailAngleControlMessage struct {
	Type         string  `json:"type"`
	DesiredAngle float64 `json:"desired_angle"`
}

// CannonAimMessage stores a ship-relative aim angle on the player.
type CannonAimMessage struct {
	Type     string  `json:"type"`
	AimAngle float64 `json:"aim_angle"`
}

// CannonFireMessage fires one or more cannons.
type CannonFireMessage struct {
	Type      string `json:"type"`
	FireAll   bool   `json:"fire_all"`
	CannonIDs []int  `json:"cannon_ids,omitempty"`
}

// PingMessage requests a pong with server time.
type PingMessage struct {
	Type string `json:"type"`
}

// PongMessage replies to a ping.
type PongMessage struct {
	Type       string `json:"type"`
	Timestamp  int64  `json:"timestamp"`
	ServerTime int64  `json:"server_time"`
}

// MessageAck acknowledges an inbound message's processing outcome.
type MessageAck struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

// ShipSnapshot is one ship's pose within a GAME_STATE snapshot.
type ShipSnapshot struct {
	ID          uint32   `json:"id"`
	Pos         Vec2Wire `json:"pos"`
	Rotation    float64  `json:"rotation"`
	Velocity    Vec2Wire `json:"velocity"`
	AngularVel  float64  `json:"angular_velocity"`
	SailOpen    float64  `json:"sail_openness,omitempty"`
	RudderAngle float64  `json:"rudder_angle,omitempty"`
}

// PlayerSnapshot is one player's state within a GAME_STATE snapshot, using
// flattened field names rather than a nested pose object.
type PlayerSnapshot struct {
	ID           uint32  `json:"id"`
	Name         string  `json:"name"`
	WorldX       float64 `json:"world_x"`
	WorldY       float64 `json:"world_y"`
	Rotation     float64 `json:"rotation"`
	VelocityX    float64 `json:"velocity_x"`
	VelocityY    float64 `json:"velocity_y"`
	IsMoving     bool    `json:"is_moving"`
	MovementDirX float64 `json:"movement_direction_x"`
	MovementDirY float64 `json:"movement_direction_y"`
	ParentShip   uint32  `json:"parent_ship"`
	LocalX       float64 `json:"local_x"`
	LocalY       float64 `json:"local_y"`
	State        string  `json:"state"`
}

// Player movement state labels carried in PlayerSnapshot.State.
const (
	StateWalking  = "WALKING"
	StateSwimming = "SWIMMING"
	StateFalling  = "FALLING"
)

// ProjectileSnapshot is one in-flight cannonball within a GAME_STATE snapshot.
type ProjectileSnapshot struct {
	ID  uint32   `json:"id"`
	Pos Vec2Wire `json:"pos"`
	Vel Vec2Wire `json:"vel"`
}

// GameStateMessage is the full-state server -> client snapshot. Delta
// compression is a planned extension; every snapshot here is a full
// state dump.
type GameStateMessage struct {
	Type        string               `json:"type"`
	Tick        uint64               `json:"tick"`
	Timestamp   int64                `json:"timestamp"`
	Ships       []ShipSnapshot       `json:"ships"`
	Players     []PlayerSnapshot     `json:"players"`
	Projectiles []ProjectileSnapshot `json:"projectiles"`
}
