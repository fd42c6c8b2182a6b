package transport

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/kreid06/pirate-game-4/internal/observability"
	"github.com/kreid06/pirate-game-4/internal/proto"
	"github.com/kreid06/pirate-game-4/internal/quantize"
	"github.com/kreid06/pirate-game-4/internal/session"
	"github.com/kreid06/pirate-game-4/internal/sim/entities"
	"github.com/kreid06/pirate-game-4/internal/sim/rules"
)

// binaryProtocolVersion is the Version byte stamped on every packet this
// listener sends; it tracks proto.CurrentProtocolVersion's major number.
var binaryProtocolVersion = uint8(proto.CurrentProtocolVersion.Major())

// snapshotInterval is the fixed binary broadcast cadence. The JSON skin
// adapts its rate to session load (session.BroadcastScheduler); the
// binary skin targets game clients willing to pay for a steadier tick
// instead, so it always sends at the tick rate.
const snapshotInterval = time.Duration(float64(time.Second) / rules.TickRate)

// maxSnapshotEntities bounds EntityCount, a single byte in Header.
const maxSnapshotEntities = 255

// BinaryServer serves a compact UDP binary transport skin, driving the
// same shared session.Session a Server's WebSocket listener
// runs. UDP carries no persistent connection object, so BinaryServer keeps
// its own address<->player-id table alongside the registry's own.
type BinaryServer struct {
	conn   *net.UDPConn
	srv    *Server
	logger logr.Logger

	mu       sync.RWMutex
	addrToID map[string]uint32
	idToAddr map[uint32]*net.UDPAddr

	done chan struct{}
}

// NewBinaryServer opens a UDP socket on addr (e.g. ":7777") bound to srv's
// shared session.
func NewBinaryServer(addr string, srv *Server, logger logr.Logger) (*BinaryServer, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve udp addr: %w", err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen udp: %w", err)
	}
	return &BinaryServer{
		conn:     conn,
		srv:      srv,
		logger:   logger,
		addrToID: make(map[string]uint32),
		idToAddr: make(map[uint32]*net.UDPAddr),
		done:     make(chan struct{}),
	}, nil
}

// LocalAddr returns the UDP socket's bound address, chiefly for tests that
// listen on ":0".
func (b *BinaryServer) LocalAddr() net.Addr {
	return b.conn.LocalAddr()
}

// Run starts the inbound packet loop and the outbound snapshot broadcast
// loop as background goroutines. Returns immediately; call Close to stop
// both.
func (b *BinaryServer) Run() {
	go b.readLoop()
	go b.broadcastLoop()
}

// Close shuts the UDP socket down, unblocking readLoop and stopping
// broadcastLoop.
func (b *BinaryServer) Close() error {
	close(b.done)
	return b.conn.Close()
}

func (b *BinaryServer) readLoop() {
	buf := make([]byte, proto.MaxPacketSize)
	for {
		n, addr, err := b.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-b.done:
				return
			default:
				continue
			}
		}
		packet := make([]byte, n)
		copy(packet, buf[:n])
		b.handlePacket(packet, addr)
	}
}

func (b *BinaryServer) handlePacket(data []byte, addr *net.UDPAddr) {
	if len(data) == 0 {
		return
	}
	if counter := observability.GetConnectionBytesCounter(); counter != nil {
		counter.WithLabelValues("in").Add(float64(len(data)))
	}

	switch data[0] {
	case proto.PacketClientHandshake:
		b.handleHandshake(data, addr)
	case proto.PacketClientInput:
		b.handleInput(data, addr)
	case proto.PacketClientAck:
		b.touch(addr)
	case proto.PacketHeartbeat:
		b.handleHeartbeat(data, addr)
	default:
		b.logger.Info("dropping unrecognized binary packet type", "type", data[0])
	}
}

func (b *BinaryServer) handleHandshake(data []byte, addr *net.UDPAddr) {
	req, err := proto.UnmarshalBinaryHandshakeRequest(data)
	if err != nil {
		b.logger.Error(err, "rejecting malformed binary handshake")
		return
	}

	clientVersion, err := proto.ParseVersion(int(req.ProtocolVersion))
	if err != nil || !proto.IsCompatible(clientVersion, proto.CurrentProtocolVersion) {
		b.sendHandshakeError(addr)
		return
	}

	now := time.Now()
	ps, err := b.srv.session.Registry().Handshake(req.PlayerName, addr, session.ProtocolBinary, now)
	if err != nil {
		b.sendHandshakeError(addr)
		return
	}
	reconnecting := !ps.DisconnectedAt.IsZero()

	world := b.srv.session.World()
	if world.FindPlayer(ps.PlayerID) == nil {
		b.srv.session.AddPlayer(entities.NewPlayer(ps.PlayerID, entities.NewVec2(0, 120)))
	}

	b.bind(ps.PlayerID, addr)

	status := proto.BinaryStatusConnected
	if reconnecting {
		status = proto.BinaryStatusReconnected
	}
	resp := proto.BinaryHandshakeResponse{
		Type:       proto.PacketServerHandshake,
		Version:    binaryProtocolVersion,
		PlayerID:   ps.PlayerID,
		ServerTime: uint32(now.UnixMilli()),
		Status:     status,
	}
	b.sendTo(addr, resp)
}

func (b *BinaryServer) sendHandshakeError(addr *net.UDPAddr) {
	resp := proto.BinaryHandshakeResponse{
		Type:    proto.PacketServerHandshake,
		Version: binaryProtocolVersion,
		Status:  proto.BinaryStatusError,
	}
	b.sendTo(addr, resp)
}

// handleInput decodes an InputPacket and translates its fixed-point
// thrust/turn fields into the movement-state and rotation-update
// PlayerInputs the simulator already understands; the binary skin has no
// room for the JSON skin's richer per-module control messages, so mounted
// players steering ship modules must still use the text transport.
func (b *BinaryServer) handleInput(data []byte, addr *net.UDPAddr) {
	playerID, ok := b.playerFor(addr)
	if !ok {
		return
	}
	packet, err := proto.UnmarshalInputPacket(data)
	if err != nil {
		b.logger.Error(err, "dropping malformed input packet")
		return
	}
	b.srv.session.Registry().Touch(playerID, time.Now())

	dtSeconds := float64(packet.DtMs) / 1000.0
	thrust := quantize.Q15ToFloat(packet.ThrustQ15)
	turn := quantize.Q15ToFloat(packet.TurnQ15)

	seq := uint32(packet.Seq)
	b.srv.enqueue(playerID, seq, rules.PlayerInput{
		PlayerID: playerID,
		Kind:     rules.InputMovementState,
		MoveDir:  entities.NewVec2(thrust, 0),
	})
	if turn != 0 {
		b.srv.enqueue(playerID, seq, rules.PlayerInput{
			PlayerID:      playerID,
			Kind:          rules.InputRotationUpdate,
			RotationDelta: turn * rules.RotationDeltaRate * dtSeconds,
		})
	}
}

func (b *BinaryServer) handleHeartbeat(data []byte, addr *net.UDPAddr) {
	hb, err := proto.UnmarshalBinaryHeartbeat(data)
	if err != nil {
		b.logger.Error(err, "dropping malformed heartbeat")
		return
	}
	b.touch(addr)

	if _, ok := b.playerFor(addr); !ok {
		return
	}
	reply := proto.BinaryHeartbeat{
		Type:       proto.PacketHeartbeat,
		Version:    binaryProtocolVersion,
		ClientTime: hb.ClientTime,
	}
	b.sendTo(addr, reply)
}

func (b *BinaryServer) touch(addr *net.UDPAddr) {
	if playerID, ok := b.playerFor(addr); ok {
		b.srv.session.Registry().Touch(playerID, time.Now())
	}
}

func (b *BinaryServer) bind(playerID uint32, addr *net.UDPAddr) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addrToID[addr.String()] = playerID
	b.idToAddr[playerID] = addr
}

func (b *BinaryServer) playerFor(addr *net.UDPAddr) (uint32, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	id, ok := b.addrToID[addr.String()]
	return id, ok
}

// broadcastLoop sends a quantized snapshot to every bound UDP peer at a
// fixed cadence.
func (b *BinaryServer) broadcastLoop() {
	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()
	var snapID uint16
	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			snapID++
			b.broadcastSnapshot(snapID)
		}
	}
}

func (b *BinaryServer) broadcastSnapshot(snapID uint16) {
	b.mu.RLock()
	peers := make([]*net.UDPAddr, 0, len(b.idToAddr))
	for _, addr := range b.idToAddr {
		peers = append(peers, addr)
	}
	b.mu.RUnlock()
	if len(peers) == 0 {
		return
	}

	world := b.srv.session.World()
	header, records := WorldToBinarySnapshot(world, snapID)
	headerBytes, err := header.MarshalBinary()
	if err != nil {
		return
	}
	payload := make([]byte, 0, len(headerBytes)+len(records)*proto.EntitySize)
	payload = append(payload, headerBytes...)
	for _, e := range records {
		eb, err := e.MarshalBinary()
		if err != nil {
			continue
		}
		payload = append(payload, eb...)
	}

	for _, addr := range peers {
		if _, err := b.conn.WriteToUDP(payload, addr); err != nil {
			continue
		}
		if counter := observability.GetConnectionBytesCounter(); counter != nil {
			counter.WithLabelValues("out").Add(float64(len(payload)))
		}
	}
}

func (b *BinaryServer) sendTo(addr *net.UDPAddr, m interface{ MarshalBinary() ([]byte, error) }) {
	data, err := m.MarshalBinary()
	if err != nil {
		return
	}
	if _, err := b.conn.WriteToUDP(data, addr); err != nil {
		return
	}
	if counter := observability.GetConnectionBytesCounter(); counter != nil {
		counter.WithLabelValues("out").Add(float64(len(data)))
	}
}

// WorldToBinarySnapshot quantizes a world into the Header/Entity records
// carried by a SERVER_SNAPSHOT packet. Ships are encoded first, then
// players, then cannonballs, truncated to maxSnapshotEntities (Header's
// EntityCount is a single byte); truncation favors ships and players over
// the more numerous, lower-value cannonballs.
func WorldToBinarySnapshot(w entities.World, snapID uint16) (proto.Header, []proto.Entity) {
	var records []proto.Entity

	for _, s := range w.Ships {
		if len(records) >= maxSnapshotEntities {
			break
		}
		records = append(records, proto.Entity{
			EntityID: uint16(s.ID),
			PosX:     quantize.QuantizePosition(s.Pos.X),
			PosY:     quantize.QuantizePosition(s.Pos.Y),
			VelX:     quantize.QuantizeVelocity(s.Vel.X),
			VelY:     quantize.QuantizeVelocity(s.Vel.Y),
			Rotation: quantize.QuantizeRotation(s.Rot),
		})
	}
	for _, p := range w.Players {
		if len(records) >= maxSnapshotEntities {
			break
		}
		ship := w.FindShip(p.CarrierShipID)
		pos := p.WorldPos(ship)
		rot := p.WorldRot(ship)
		records = append(records, proto.Entity{
			EntityID: uint16(p.ID),
			PosX:     quantize.QuantizePosition(pos.X),
			PosY:     quantize.QuantizePosition(pos.Y),
			VelX:     quantize.QuantizeVelocity(p.Vel.X),
			VelY:     quantize.QuantizeVelocity(p.Vel.Y),
			Rotation: quantize.QuantizeRotation(rot),
		})
	}
	for _, c := range w.Cannonballs {
		if len(records) >= maxSnapshotEntities {
			break
		}
		records = append(records, proto.Entity{
			EntityID: uint16(c.ID),
			PosX:     quantize.QuantizePosition(c.Pos.X),
			PosY:     quantize.QuantizePosition(c.Pos.Y),
			VelX:     quantize.QuantizeVelocity(c.Vel.X),
			VelY:     quantize.QuantizeVelocity(c.Vel.Y),
		})
	}

	header := proto.Header{
		Type:        proto.PacketServerSnapshot,
		Version:     binaryProtocolVersion,
		ServerTime:  uint32(time.Now().UnixMilli()),
		SnapID:      snapID,
		EntityCount: uint8(len(records)),
	}
	return header, records
}
