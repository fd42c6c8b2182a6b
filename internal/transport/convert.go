package transport

import (
	"github.com/kreid06/pirate-game-4/internal/proto"
	"github.com/kreid06/pirate-game-4/internal/sim/entities"
)

// Vec2ToWire converts an entities.Vec2 to a proto.Vec2Wire.
func Vec2ToWire(v entities.Vec2) proto.Vec2Wire {
	return proto.Vec2Wire{X: v.X, Y: v.Y}
}

// ShipToSnapshot converts a server-authoritative entities.Ship to its
// GAME_STATE wire shape. SailOpen/RudderAngle report the first mast/the
// ship's own rudder, since a GAME_STATE ship row carries one of each.
func ShipToSnapshot(s entities.Ship) proto.ShipSnapshot {
	snap := proto.ShipSnapshot{
		ID:          s.ID,
		Pos:         Vec2ToWire(s.Pos),
		Rotation:    s.Rot,
		Velocity:    Vec2ToWire(s.Vel),
		AngularVel:  s.AngularVel,
		RudderAngle: s.RudderAngle,
	}
	for _, m := range s.Modules {
		if m.Type == entities.ModuleMast {
			snap.SailOpen = m.Mast.SailOpenness
			break
		}
	}
	return snap
}

// PlayerToSnapshot converts a Player into the flattened GAME_STATE shape
// clients rely on, resolving carrier-relative pose through ship when the
// player is mounted on a deck.
func PlayerToSnapshot(p entities.Player, ship *entities.Ship) proto.PlayerSnapshot {
	worldPos := p.WorldPos(ship)
	worldRot := p.WorldRot(ship)

	state := proto.StateSwimming
	switch p.State {
	case entities.MovementWalking:
		state = proto.StateWalking
	case entities.MovementFalling:
		state = proto.StateFalling
	}

	return proto.PlayerSnapshot{
		ID:           p.ID,
		WorldX:       worldPos.X,
		WorldY:       worldPos.Y,
		Rotation:     worldRot,
		VelocityX:    p.Vel.X,
		VelocityY:    p.Vel.Y,
		IsMoving:     p.IsMoving,
		MovementDirX: p.MovementDir.X,
		MovementDirY: p.MovementDir.Y,
		ParentShip:   p.CarrierShipID,
		LocalX:       p.LocalPos.X,
		LocalY:       p.LocalPos.Y,
		State:        state,
	}
}

// ProjectileToSnapshot converts a Cannonball to its GAME_STATE wire shape.
func ProjectileToSnapshot(c entities.Cannonball) proto.ProjectileSnapshot {
	return proto.ProjectileSnapshot{
		ID:  c.ID,
		Pos: Vec2ToWire(c.Pos),
		Vel: Vec2ToWire(c.Vel),
	}
}

// WorldToGameState converts the full entities.World into a GAME_STATE
// message. Every slice is allocated non-nil so an empty world still
// produces empty JSON arrays, not nulls.
func WorldToGameState(w entities.World) proto.GameStateMessage {
	ships := make([]proto.ShipSnapshot, len(w.Ships))
	for i, s := range w.Ships {
		ships[i] = ShipToSnapshot(s)
	}

	players := make([]proto.PlayerSnapshot, len(w.Players))
	for i, p := range w.Players {
		players[i] = PlayerToSnapshot(p, w.FindShip(p.CarrierShipID))
	}

	projectiles := make([]proto.ProjectileSnapshot, len(w.Cannonballs))
	for i, c := range w.Cannonballs {
		projectiles[i] = ProjectileToSnapshot(c)
	}

	return proto.GameStateMessage{
		Type:        proto.TypeGameState,
		Tick:        w.Tick,
		Timestamp:   w.TimestampMs,
		Ships:       ships,
		Players:     players,
		Projectiles: projectiles,
	}
}
