package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/kreid06/pirate-game-4/internal/observability"
	"github.com/kreid06/pirate-game-4/internal/proto"
	"github.com/kreid06/pirate-game-4/internal/session"
	"github.com/kreid06/pirate-game-4/internal/sim/entities"
	"github.com/kreid06/pirate-game-4/internal/sim/physics"
	"github.com/kreid06/pirate-game-4/internal/sim/rules"
)

// Server owns the single server-authoritative session shared by every
// connected player, plus the WebSocket and health HTTP handlers driving
// it. One Server backs both the /ws and /healthz routes on the WebSocket
// listener.
type Server struct {
	session   *session.Session
	broadcast *session.BroadcastScheduler
	logger    logr.Logger
	done      chan struct{}
	recorder  EventRecorder
}

// EventRecorder receives connect/disconnect/handshake debug events for the
// admin /api/messages endpoint. Optional; a nil recorder (the default)
// means events are simply not recorded.
type EventRecorder interface {
	Record(kind string, playerID uint32, detail string)
}

// SetRecorder wires an admin debug-event recorder into the server. Safe to
// call before Run; not safe for concurrent use once connections are live.
func (srv *Server) SetRecorder(recorder EventRecorder) {
	srv.recorder = recorder
}

func (srv *Server) record(kind string, playerID uint32, detail string) {
	if srv.recorder != nil {
		srv.recorder.Record(kind, playerID, detail)
	}
}

// NewServer creates a Server around a freshly constructed session with
// the given initial world and wind, using a real wall-clock.
func NewServer(world entities.World, wind physics.Wind, logger logr.Logger) *Server {
	clock := session.NewRealClock()
	sess := session.NewSession(clock, world, wind)
	if logger.Enabled() {
		sess.SetLogger(logger)
	}
	return &Server{
		session:   sess,
		broadcast: session.NewBroadcastScheduler(),
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Run starts the fixed-rate tick loop in a background goroutine. It
// returns immediately; call Stop to shut the loop down.
func (srv *Server) Run() {
	interval := time.Duration(float64(time.Second) / rules.TickRate)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-srv.done:
				return
			case <-ticker.C:
				srv.session.Run(10)
			}
		}
	}()
}

// Stop halts the tick loop.
func (srv *Server) Stop() {
	close(srv.done)
}

// Session exposes the underlying session, chiefly for tests and the admin
// read-only endpoints.
func (srv *Server) Session() *session.Session {
	return srv.session
}

// HandleWS upgrades the HTTP connection, performs the handshake, then
// services inbound hybrid-protocol messages and outbound GAME_STATE
// snapshots for the lifetime of the connection.
func (srv *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	logger := srv.logger.WithValues("component", "transport", "handler", "websocket")

	conn, err := UpgradeConnection(w, r)
	if err != nil {
		logger.Error(err, "WebSocket upgrade failed")
		if eventsCounter := observability.GetConnectionEventsCounter(); eventsCounter != nil {
			eventsCounter.WithLabelValues("error").Inc()
		}
		return
	}
	wsConn := NewConnection(conn)
	defer wsConn.Close()

	if eventsCounter := observability.GetConnectionEventsCounter(); eventsCounter != nil {
		eventsCounter.WithLabelValues("connect").Inc()
	}
	if activeGauge := observability.GetActiveConnectionsGauge(); activeGauge != nil {
		activeGauge.Inc()
	}
	defer func() {
		duration := time.Since(wsConn.GetStartTime()).Seconds()
		if eventsCounter := observability.GetConnectionEventsCounter(); eventsCounter != nil {
			eventsCounter.WithLabelValues("disconnect").Inc()
		}
		if activeGauge := observability.GetActiveConnectionsGauge(); activeGauge != nil {
			activeGauge.Dec()
		}
		if durationHist := observability.GetConnectionDurationHistogram(); durationHist != nil {
			durationHist.Observe(duration)
		}
	}()

	ps, err := srv.handshake(wsConn, logger)
	if err != nil {
		logger.Error(err, "handshake failed")
		return
	}
	connLogger := logger.WithValues("player_id", ps.PlayerID, "player_name", ps.Name)
	connLogger.Info("player connected")
	srv.record("connect", ps.PlayerID, ps.Name)

	done := make(chan struct{})
	defer close(done)
	go srv.broadcastLoop(wsConn, ps.PlayerID, done)

	var nextSeq uint32
	for {
		data, err := wsConn.ReadMessage()
		if err != nil {
			break
		}

		msg, err := ParseMessage(data)
		if err != nil {
			connLogger.Error(err, "failed to parse message")
			srv.record("invalid_message", ps.PlayerID, err.Error())
			_ = wsConn.WriteMessage(NewErrorMessage(proto.AckInvalid))
			continue
		}

		if _, isPing := msg.(*proto.PingMessage); isPing {
			now := time.Now().UnixMilli()
			pong, _ := json.Marshal(proto.PongMessage{Type: proto.TypePong, Timestamp: now, ServerTime: now})
			_ = wsConn.WriteMessage(pong)
			continue
		}

		if !ps.Limiter.Allow(time.Now()) {
			if eventsCounter := observability.GetConnectionEventsCounter(); eventsCounter != nil {
				eventsCounter.WithLabelValues("rate_limited").Inc()
			}
			ack, _ := json.Marshal(proto.MessageAck{Type: proto.TypeMessageAck, Status: proto.AckRateLimited})
			_ = wsConn.WriteMessage(ack)
			continue
		}

		nextSeq++
		status := srv.applyMessage(ps.PlayerID, nextSeq, msg)
		ack, _ := json.Marshal(proto.MessageAck{Type: proto.TypeMessageAck, Status: status})
		_ = wsConn.WriteMessage(ack)
	}

	srv.session.Registry().Disconnect(ps.PlayerID, time.Now())
	connLogger.Info("player disconnected")
	srv.record("disconnect", ps.PlayerID, ps.Name)
}

// handshake reads exactly one message, requires it to be a handshake, and
// registers the player in the session registry, adding a fresh Player
// entity to the world on first connect.
func (srv *Server) handshake(conn *Connection, logger logr.Logger) (*session.PlayerSession, error) {
	data, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read handshake: %w", err)
	}
	msg, err := ParseMessage(data)
	if err != nil {
		_ = conn.WriteMessage(handshakeError(err))
		return nil, err
	}
	hs, ok := msg.(*proto.HandshakeMessage)
	if !ok {
		err := fmt.Errorf("expected handshake, got %T", msg)
		_ = conn.WriteMessage(handshakeError(err))
		return nil, err
	}

	clientVersion, err := proto.ParseVersion(hs.ProtocolVersion)
	if err != nil || !proto.IsCompatible(clientVersion, proto.CurrentProtocolVersion) {
		err := fmt.Errorf("incompatible protocol version %d", hs.ProtocolVersion)
		_ = conn.WriteMessage(handshakeError(err))
		return nil, err
	}

	now := time.Now()
	ps, err := srv.session.Registry().Handshake(hs.PlayerName, conn.RemoteAddr(), session.ProtocolJSON, now)
	if err != nil {
		_ = conn.WriteMessage(handshakeError(err))
		return nil, err
	}
	reconnecting := !ps.DisconnectedAt.IsZero()

	world := srv.session.World()
	if world.FindPlayer(ps.PlayerID) == nil {
		srv.session.AddPlayer(entities.NewPlayer(ps.PlayerID, entities.NewVec2(0, 120)))
	}

	status := proto.StatusConnected
	if reconnecting {
		status = proto.StatusReconnected
	}
	resp, _ := json.Marshal(proto.HandshakeResponseMessage{
		Type:       proto.TypeHandshakeResponse,
		PlayerID:   ps.PlayerID,
		PlayerName: hs.PlayerName,
		ServerTime: now.UnixMilli(),
		Status:     status,
	})
	if err := conn.WriteMessage(resp); err != nil {
		return nil, err
	}
	return ps, nil
}

func handshakeError(err error) []byte {
	data, _ := json.Marshal(proto.HandshakeResponseMessage{
		Type:    proto.TypeHandshakeResponse,
		Status:  proto.StatusError,
		Message: err.Error(),
	})
	return data
}

// broadcastLoop sends GAME_STATE snapshots to conn at the adaptive rate
// the BroadcastScheduler computes, until done is closed.
func (srv *Server) broadcastLoop(conn *Connection, playerID uint32, done <-chan struct{}) {
	ticker := time.NewTicker(20 * time.Millisecond) // finest supported rate; ShouldBroadcast throttles further
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			active := 0
			total := len(srv.session.Registry().Connected())
			for _, p := range srv.session.World().Players {
				if p.IsMoving {
					active++
				}
			}
			if !srv.broadcast.ShouldBroadcast(time.Now(), active, total) {
				continue
			}
			state := WorldToGameState(srv.session.World())
			if err := proto.ValidateGameStateMessage(&state); err != nil {
				srv.logger.Error(err, "refusing to send corrupted GAME_STATE")
				continue
			}
			data, err := json.Marshal(state)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(data); err != nil {
				return
			}
		}
	}
}

// applyMessage converts a parsed wire message into the zero or more
// rules.PlayerInput values it implies, enqueues them on the player's
// session mailbox, and returns the message_ack status to send back.
func (srv *Server) applyMessage(playerID uint32, seq uint32, msg interface{}) string {
	world := srv.session.World()
	player := world.FindPlayer(playerID)
	if player == nil {
		return proto.AckNoPlayer
	}

	switch m := msg.(type) {
	case *proto.MovementStateMessage:
		srv.enqueue(playerID, seq, rules.PlayerInput{
			PlayerID: playerID,
			Kind:     rules.InputMovementState,
			MoveDir:  entities.NewVec2(m.Movement.X, m.Movement.Y),
			IsMoving: m.IsMoving,
		})

	case *proto.RotationUpdateMessage:
		srv.enqueue(playerID, seq, rules.PlayerInput{
			PlayerID:      playerID,
			Kind:          rules.InputRotationUpdate,
			RotationDelta: m.Rotation,
		})

	case *proto.ActionEventMessage:
		return srv.applyAction(world, player, seq, m)

	case *proto.ShipSailControlMessage:
		shipID, moduleID, ok := mountedModule(&world, player, entities.ModuleMast)
		if !ok {
			return proto.AckPlayerNotFound
		}
		srv.enqueue(playerID, seq, rules.PlayerInput{
			PlayerID: playerID, Kind: rules.InputShipSailControl,
			ShipID: shipID, ModuleID: moduleID,
			SailOpenness: m.DesiredOpenness / proto.SailOpennessMax,
		})

	case *proto.ShipRudderControlMessage:
		ship := world.FindShip(player.CarrierShipID)
		if ship == nil {
			return proto.AckPlayerNotFound
		}
		dir := 0.0
		switch {
		case m.TurningLeft && !m.TurningRight:
			dir = -1
		case m.TurningRight && !m.TurningLeft:
			dir = 1
		}
		srv.enqueue(playerID, seq, rules.PlayerInput{
			PlayerID: playerID, Kind: rules.InputShipRudderControl,
			ShipID: ship.ID, RudderTarget: dir * ship.MaxRudderAngle,
		})

	case *proto.ShipSailAngleControlMessage:
		shipID, moduleID, ok := mountedModule(&world, player, entities.ModuleMast)
		if !ok {
			return proto.AckPlayerNotFound
		}
		srv.enqueue(playerID, seq, rules.PlayerInput{
			PlayerID: playerID, Kind: rules.InputShipSailAngleControl,
			ShipID: shipID, ModuleID: moduleID, SailAngle: m.DesiredAngle,
		})

	case *proto.CannonAimMessage:
		shipID, moduleID, ok := mountedModule(&world, player, entities.ModuleCannon)
		if !ok {
			return proto.AckPlayerNotFound
		}
		srv.enqueue(playerID, seq, rules.PlayerInput{
			PlayerID: playerID, Kind: rules.InputCannonAim,
			ShipID: shipID, ModuleID: moduleID, AimDirection: m.AimAngle,
		})

	case *proto.CannonFireMessage:
		ship := world.FindShip(player.CarrierShipID)
		if ship == nil {
			return proto.AckPlayerNotFound
		}
		for _, moduleID := range readyCannonTargets(ship, player, m.FireAll) {
			srv.enqueue(playerID, seq, rules.PlayerInput{
				PlayerID: playerID, Kind: rules.InputCannonFire,
				ShipID: ship.ID, ModuleID: moduleID,
			})
		}

	default:
		return proto.AckUnknownType
	}

	return proto.AckInputReceived
}

// applyAction converts a mount/dismount/jump/fire_cannon action_event into
// the corresponding PlayerInput(s). interact and reload have no simulator
// effect yet (reload is automatic; interact has no target object type) and
// are acknowledged without enqueuing anything.
func (srv *Server) applyAction(world entities.World, player *entities.Player, seq uint32, m *proto.ActionEventMessage) string {
	switch m.Action {
	case proto.ActionMount:
		srv.enqueue(player.ID, seq, rules.PlayerInput{
			PlayerID: player.ID, Kind: rules.InputActionEvent,
			Action: rules.ActionMount, TargetID: m.Target,
		})
	case proto.ActionDismount:
		srv.enqueue(player.ID, seq, rules.PlayerInput{
			PlayerID: player.ID, Kind: rules.InputActionEvent,
			Action: rules.ActionDismount,
		})
	case proto.ActionJump:
		srv.enqueue(player.ID, seq, rules.PlayerInput{
			PlayerID: player.ID, Kind: rules.InputActionEvent,
			Action: rules.ActionJump,
		})
	case proto.ActionFireCannon:
		ship := world.FindShip(player.CarrierShipID)
		if ship == nil {
			return proto.AckPlayerNotFound
		}
		for _, moduleID := range readyCannonTargets(ship, player, false) {
			srv.enqueue(player.ID, seq, rules.PlayerInput{
				PlayerID: player.ID, Kind: rules.InputCannonFire,
				ShipID: ship.ID, ModuleID: moduleID,
			})
		}
	case proto.ActionInteract, proto.ActionReload:
		// no simulator effect: reload is automatic (StepCannonReload),
		// and there is no interactable object model yet.
	}
	return proto.AckInputReceived
}

func (srv *Server) enqueue(playerID uint32, seq uint32, input rules.PlayerInput) {
	srv.session.EnqueueInput(playerID, seq, input)
}

// mountedModule resolves the ship/module id pair a control message
// implicitly targets: the module the player currently occupies, provided
// it matches the expected type.
func mountedModule(world *entities.World, player *entities.Player, want entities.ModuleType) (shipID, moduleID uint32, ok bool) {
	if !player.IsMounted() {
		return 0, 0, false
	}
	ship := world.FindShip(player.CarrierShipID)
	if ship == nil {
		return 0, 0, false
	}
	module := ship.FindModule(player.MountedModuleID)
	if module == nil || module.Type != want {
		return 0, 0, false
	}
	return ship.ID, module.ID, true
}

// readyCannonTargets resolves which cannon module ids aboard ship should
// discharge for a cannon_fire/fire_cannon action: every loaded, reloaded
// cannon when fireAll is true, otherwise only those whose current aim is
// within rules.CannonAimTolerance of the player's own mounted cannon.
func readyCannonTargets(ship *entities.Ship, player *entities.Player, fireAll bool) []uint32 {
	var myAim float64
	if m := ship.FindModule(player.MountedModuleID); m != nil && m.Type == entities.ModuleCannon {
		myAim = m.Cannon.AimDirection
	}

	var targets []uint32
	for _, m := range ship.Modules {
		if m.Type != entities.ModuleCannon {
			continue
		}
		if m.Cannon.Ammunition <= 0 || m.Cannon.TimeSinceFire < m.Cannon.ReloadTime {
			continue
		}
		if fireAll || rules.WithinAimTolerance(myAim, m.Cannon.AimDirection) {
			targets = append(targets, m.ID)
		}
	}
	return targets
}

// HealthzHandler handles health check requests at the /healthz endpoint.
// Returns a JSON response with status and observability metrics summary.
func HealthzHandler(w http.ResponseWriter, r *http.Request) {
	logger := observability.NewLogger().WithValues("component", "transport", "handler", "healthz")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	healthMetrics := observability.GetHealthMetrics()

	response := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": healthMetrics.UptimeSeconds,
		"metrics": map[string]interface{}{
			"active_connections": healthMetrics.ActiveConnections,
			"queue_depth":        healthMetrics.QueueDepth,
			"tick_time": map[string]interface{}{
				"average_ms": healthMetrics.TickTime.AverageMs,
				"count":      healthMetrics.TickTime.Count,
			},
			"gc_pause": map[string]interface{}{
				"average_ms": healthMetrics.GCPause.AverageMs,
				"count":      healthMetrics.GCPause.Count,
			},
		},
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error(err, "Error encoding healthz response", "message_type", "encode_error")
	}
}
