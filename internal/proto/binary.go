package proto

import (
	"encoding/binary"
	"fmt"
)

// Binary packet type tags.
const (
	PacketClientHandshake = 1
	PacketServerHandshake = 2
	PacketClientInput     = 3
	PacketServerSnapshot  = 4
	PacketClientAck       = 5
	PacketHeartbeat       = 6
)

// MaxPacketSize bounds a single binary datagram.
const MaxPacketSize = 1400

// Fixed wire-layout sizes, little-endian throughout. The header's field
// list (type, version, serverTime u32, baseId u16, snapId u16, aoiCell u16,
// entityCount u8, flags u8, headerChecksum u16) sums to 16 bytes; that sum,
// not the rounder "14 B" prose figure, is what's implemented here.
const (
	HeaderSize = 16
	EntitySize = 14
	InputSize  = 18
)

// Header is the binary snapshot header.
type Header struct {
	Type           uint8
	Version        uint8
	ServerTime     uint32
	BaseID         uint16 // reference snapshot for delta, or 0 (full snapshots only; see spec notes)
	SnapID         uint16
	AOICell        uint16
	EntityCount    uint8
	Flags          uint8
	HeaderChecksum uint16
}

// MarshalBinary encodes the header into a HeaderSize-byte little-endian
// buffer. The trailing checksum is computed over the preceding bytes.
func (h Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	buf[0] = h.Type
	buf[1] = h.Version
	binary.LittleEndian.PutUint32(buf[2:6], h.ServerTime)
	binary.LittleEndian.PutUint16(buf[6:8], h.BaseID)
	binary.LittleEndian.PutUint16(buf[8:10], h.SnapID)
	binary.LittleEndian.PutUint16(buf[10:12], h.AOICell)
	buf[12] = h.EntityCount
	buf[13] = h.Flags
	checksum := Checksum(buf[:14])
	binary.LittleEndian.PutUint16(buf[14:16], checksum)
	return buf, nil
}

// UnmarshalHeader decodes a HeaderSize-byte header and verifies its checksum.
func UnmarshalHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("header: need %d bytes, got %d", HeaderSize, len(buf))
	}
	h := Header{
		Type:           buf[0],
		Version:        buf[1],
		ServerTime:     binary.LittleEndian.Uint32(buf[2:6]),
		BaseID:         binary.LittleEndian.Uint16(buf[6:8]),
		SnapID:         binary.LittleEndian.Uint16(buf[8:10]),
		AOICell:        binary.LittleEndian.Uint16(buf[10:12]),
		EntityCount:    buf[12],
		Flags:          buf[13],
		HeaderChecksum: binary.LittleEndian.Uint16(buf[14:16]),
	}
	if want := Checksum(buf[:14]); want != h.HeaderChecksum {
		return h, fmt.Errorf("header: checksum mismatch, got %d want %d", h.HeaderChecksum, want)
	}
	return h, nil
}

// Entity is one 14-byte quantized entity record within a binary snapshot.
type Entity struct {
	EntityID    uint16
	PosX, PosY  uint16
	VelX, VelY  uint16
	Rotation    uint16
	StateFlags  uint8
	Reserved    uint8
}

// MarshalBinary encodes the entity into a 14-byte little-endian buffer.
func (e Entity) MarshalBinary() ([]byte, error) {
	buf := make([]byte, EntitySize)
	binary.LittleEndian.PutUint16(buf[0:2], e.EntityID)
	binary.LittleEndian.PutUint16(buf[2:4], e.PosX)
	binary.LittleEndian.PutUint16(buf[4:6], e.PosY)
	binary.LittleEndian.PutUint16(buf[6:8], e.VelX)
	binary.LittleEndian.PutUint16(buf[8:10], e.VelY)
	binary.LittleEndian.PutUint16(buf[10:12], e.Rotation)
	buf[12] = e.StateFlags
	buf[13] = e.Reserved
	return buf, nil
}

// UnmarshalEntity decodes a 14-byte entity record.
func UnmarshalEntity(buf []byte) (Entity, error) {
	if len(buf) < EntitySize {
		return Entity{}, fmt.Errorf("entity: need %d bytes, got %d", EntitySize, len(buf))
	}
	return Entity{
		EntityID:   binary.LittleEndian.Uint16(buf[0:2]),
		PosX:       binary.LittleEndian.Uint16(buf[2:4]),
		PosY:       binary.LittleEndian.Uint16(buf[4:6]),
		VelX:       binary.LittleEndian.Uint16(buf[6:8]),
		VelY:       binary.LittleEndian.Uint16(buf[8:10]),
		Rotation:   binary.LittleEndian.Uint16(buf[10:12]),
		StateFlags: buf[12],
		Reserved:   buf[13],
	}, nil
}

// InputPacket is the 18-byte binary client-input packet.
type InputPacket struct {
	Type       uint8
	Version    uint8
	Seq        uint16
	DtMs       uint16
	ThrustQ15  int16
	TurnQ15    int16
	Actions    uint16
	ClientTime uint32
	Checksum   uint16
}

// MarshalBinary encodes the input packet into an 18-byte little-endian
// buffer, computing the trailing checksum over the preceding 16 bytes.
func (p InputPacket) MarshalBinary() ([]byte, error) {
	buf := make([]byte, InputSize)
	buf[0] = p.Type
	buf[1] = p.Version
	binary.LittleEndian.PutUint16(buf[2:4], p.Seq)
	binary.LittleEndian.PutUint16(buf[4:6], p.DtMs)
	binary.LittleEndian.PutUint16(buf[6:8], uint16(p.ThrustQ15))
	binary.LittleEndian.PutUint16(buf[8:10], uint16(p.TurnQ15))
	binary.LittleEndian.PutUint16(buf[10:12], p.Actions)
	binary.LittleEndian.PutUint32(buf[12:16], p.ClientTime)
	checksum := Checksum(buf[:16])
	binary.LittleEndian.PutUint16(buf[16:18], checksum)
	return buf, nil
}

// UnmarshalInputPacket decodes an 18-byte input packet and verifies its
// checksum.
func UnmarshalInputPacket(buf []byte) (InputPacket, error) {
	if len(buf) < InputSize {
		return InputPacket{}, fmt.Errorf("input packet: need %d bytes, got %d", InputSize, len(buf))
	}
	p := InputPacket{
		Type:       buf[0],
		Version:    buf[1],
		Seq:        binary.LittleEndian.Uint16(buf[2:4]),
		DtMs:       binary.LittleEndian.Uint16(buf[4:6]),
		ThrustQ15:  int16(binary.LittleEndian.Uint16(buf[6:8])),
		TurnQ15:    int16(binary.LittleEndian.Uint16(buf[8:10])),
		Actions:    binary.LittleEndian.Uint16(buf[10:12]),
		ClientTime: binary.LittleEndian.Uint32(buf[12:16]),
		Checksum:   binary.LittleEndian.Uint16(buf[16:18]),
	}
	if want := Checksum(buf[:16]); want != p.Checksum {
		return p, fmt.Errorf("input packet: checksum mismatch, got %d want %d", p.Checksum, want)
	}
	return p, nil
}

// HandshakeRequestSize is the CLIENT_HANDSHAKE packet's fixed size: type,
// version, protocolVersion u16, playerNameLen u8, then a fixed 31-byte
// name field (matching ValidateHandshakeMessage's 1-31 char bound on the
// JSON skin's playerName), checksum u16.
const HandshakeRequestSize = 1 + 1 + 2 + 1 + 31 + 2

// BinaryHandshakeRequest is the CLIENT_HANDSHAKE binary packet.
type BinaryHandshakeRequest struct {
	Type            uint8
	Version         uint8
	ProtocolVersion uint16
	PlayerName      string
}

// MarshalBinary encodes the handshake request. PlayerName longer than 31
// bytes is truncated; shorter names are zero-padded.
func (r BinaryHandshakeRequest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HandshakeRequestSize)
	buf[0] = r.Type
	buf[1] = r.Version
	binary.LittleEndian.PutUint16(buf[2:4], r.ProtocolVersion)
	name := r.PlayerName
	if len(name) > 31 {
		name = name[:31]
	}
	buf[4] = uint8(len(name))
	copy(buf[5:36], name)
	checksum := Checksum(buf[:36])
	binary.LittleEndian.PutUint16(buf[36:38], checksum)
	return buf, nil
}

// UnmarshalBinaryHandshakeRequest decodes a CLIENT_HANDSHAKE packet and
// verifies its checksum.
func UnmarshalBinaryHandshakeRequest(buf []byte) (BinaryHandshakeRequest, error) {
	if len(buf) < HandshakeRequestSize {
		return BinaryHandshakeRequest{}, fmt.Errorf("handshake request: need %d bytes, got %d", HandshakeRequestSize, len(buf))
	}
	nameLen := int(buf[4])
	if nameLen > 31 {
		return BinaryHandshakeRequest{}, fmt.Errorf("handshake request: playerNameLen %d exceeds 31", nameLen)
	}
	checksum := binary.LittleEndian.Uint16(buf[36:38])
	if want := Checksum(buf[:36]); want != checksum {
		return BinaryHandshakeRequest{}, fmt.Errorf("handshake request: checksum mismatch, got %d want %d", checksum, want)
	}
	return BinaryHandshakeRequest{
		Type:            buf[0],
		Version:         buf[1],
		ProtocolVersion: binary.LittleEndian.Uint16(buf[2:4]),
		PlayerName:      string(buf[5 : 5+nameLen]),
	}, nil
}

// Binary handshake status codes, the SERVER_HANDSHAKE analogue of the JSON
// skin's handshake_response status field.
const (
	BinaryStatusConnected   uint8 = 0
	BinaryStatusReconnected uint8 = 1
	BinaryStatusError       uint8 = 2
)

// HandshakeResponseSize is the SERVER_HANDSHAKE packet's fixed size: type,
// version, playerId u32, serverTime u32, status u8, reserved u8, checksum u16.
const HandshakeResponseSize = 1 + 1 + 4 + 4 + 1 + 1 + 2

// BinaryHandshakeResponse is the SERVER_HANDSHAKE binary packet.
type BinaryHandshakeResponse struct {
	Type       uint8
	Version    uint8
	PlayerID   uint32
	ServerTime uint32
	Status     uint8
}

// MarshalBinary encodes the handshake response.
func (r BinaryHandshakeResponse) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HandshakeResponseSize)
	buf[0] = r.Type
	buf[1] = r.Version
	binary.LittleEndian.PutUint32(buf[2:6], r.PlayerID)
	binary.LittleEndian.PutUint32(buf[6:10], r.ServerTime)
	buf[10] = r.Status
	buf[11] = 0
	checksum := Checksum(buf[:12])
	binary.LittleEndian.PutUint16(buf[12:14], checksum)
	return buf, nil
}

// UnmarshalBinaryHandshakeResponse decodes a SERVER_HANDSHAKE packet and
// verifies its checksum.
func UnmarshalBinaryHandshakeResponse(buf []byte) (BinaryHandshakeResponse, error) {
	if len(buf) < HandshakeResponseSize {
		return BinaryHandshakeResponse{}, fmt.Errorf("handshake response: need %d bytes, got %d", HandshakeResponseSize, len(buf))
	}
	checksum := binary.LittleEndian.Uint16(buf[12:14])
	if want := Checksum(buf[:12]); want != checksum {
		return BinaryHandshakeResponse{}, fmt.Errorf("handshake response: checksum mismatch, got %d want %d", checksum, want)
	}
	return BinaryHandshakeResponse{
		Type:       buf[0],
		Version:    buf[1],
		PlayerID:   binary.LittleEndian.Uint32(buf[2:6]),
		ServerTime: binary.LittleEndian.Uint32(buf[6:10]),
		Status:     buf[10],
	}, nil
}

// HeartbeatSize is the HEARTBEAT packet's fixed size: type, version,
// clientTime u32, checksum u16.
const HeartbeatSize = 1 + 1 + 4 + 2

// BinaryHeartbeat is the HEARTBEAT packet, sent either direction to keep a
// UDP session's idle timer alive without carrying input or snapshot data.
type BinaryHeartbeat struct {
	Type       uint8
	Version    uint8
	ClientTime uint32
}

// MarshalBinary encodes the heartbeat packet.
func (h BinaryHeartbeat) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeartbeatSize)
	buf[0] = h.Type
	buf[1] = h.Version
	binary.LittleEndian.PutUint32(buf[2:6], h.ClientTime)
	checksum := Checksum(buf[:6])
	binary.LittleEndian.PutUint16(buf[6:8], checksum)
	return buf, nil
}

// UnmarshalBinaryHeartbeat decodes a HEARTBEAT packet and verifies its
// checksum.
func UnmarshalBinaryHeartbeat(buf []byte) (BinaryHeartbeat, error) {
	if len(buf) < HeartbeatSize {
		return BinaryHeartbeat{}, fmt.Errorf("heartbeat: need %d bytes, got %d", HeartbeatSize, len(buf))
	}
	checksum := binary.LittleEndian.Uint16(buf[6:8])
	if want := Checksum(buf[:6]); want != checksum {
		return BinaryHeartbeat{}, fmt.Errorf("heartbeat: checksum mismatch, got %d want %d", checksum, want)
	}
	return BinaryHeartbeat{
		Type:       buf[0],
		Version:    buf[1],
		ClientTime: binary.LittleEndian.Uint32(buf[2:6]),
	}, nil
}

// Checksum computes a one's-complement 16-bit checksum: sum the bytes as
// little-endian 16-bit words (a trailing odd byte is added as-is), fold the
// carry, then invert.
func Checksum(data []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(data); i += 2 {
		sum += uint32(binary.LittleEndian.Uint16(data[i : i+2]))
	}
	if len(data)%2 == 1 {
		sum += uint32(data[len(data)-1])
	}
	sum = (sum & 0xFFFF) + (sum >> 16)
	return ^uint16(sum)
}

// SequenceGreaterThan implements wrap-aware 16-bit sequence comparison via
// the signed-delta <= 32768 convention.
func SequenceGreaterThan(a, b uint16) bool {
	return int16(a-b) > 0
}
