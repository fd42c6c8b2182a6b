package session

import (
	"fmt"
	"net"
	"time"
)

// MaxSessions bounds the session table to 100 concurrent players by
// default.
const MaxSessions = 100

// ReconnectWindow is how long a disconnected player's slot is held so a
// reconnecting client can resume the same player id.
const ReconnectWindow = 30 * time.Second

// ProtocolFlavor distinguishes the two transport skins sharing one logical
// protocol.
type ProtocolFlavor int

const (
	ProtocolJSON ProtocolFlavor = iota
	ProtocolBinary
)

// PlayerSession is one accepted connection's bookkeeping: peer address,
// assigned player id, display name, outgoing sequence counter, last-seen
// wall time, and protocol flavor. Disconnected sessions are retained (with
// Connected=false) until ReconnectWindow elapses, to support handshake
// reconnection under the same player id.
type PlayerSession struct {
	PlayerID     uint32
	Name         string
	PeerAddr     net.Addr
	OutgoingSeq  uint32
	LastSeen     time.Time
	DisconnectedAt time.Time
	Connected    bool
	Flavor       ProtocolFlavor
	Queue        *CommandQueue
	Limiter      RateLimiter
}

// Registry is a bounded table of PlayerSession records, one entry per
// connected player rather than a single fixed connection slot.
type Registry struct {
	sessions map[uint32]*PlayerSession
	byName   map[string]uint32
	nextID   uint32
}

// NewRegistry creates an empty session registry. Player ids are allocated
// starting at 1000.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[uint32]*PlayerSession),
		byName:   make(map[string]uint32),
		nextID:   1000,
	}
}

// Count returns the number of connected sessions (not counting ones only
// held open for the reconnect window).
func (r *Registry) Count() int {
	n := 0
	for _, s := range r.sessions {
		if s.Connected {
			n++
		}
	}
	return n
}

// Handshake assigns a player id for name, reusing a reserved id if a
// disconnected session for the same name is still within the reconnect
// window; otherwise allocates a fresh one. Returns an error if the table
// is full.
func (r *Registry) Handshake(name string, peer net.Addr, flavor ProtocolFlavor, now time.Time) (*PlayerSession, error) {
	if id, ok := r.byName[name]; ok {
		if existing, ok := r.sessions[id]; ok && !existing.Connected {
			if now.Sub(existing.DisconnectedAt) <= ReconnectWindow {
				existing.Connected = true
				existing.PeerAddr = peer
				existing.Flavor = flavor
				existing.LastSeen = now
				return existing, nil
			}
		}
	}

	if r.Count() >= MaxSessions {
		return nil, fmt.Errorf("session table full: %d/%d", r.Count(), MaxSessions)
	}

	id := r.nextID
	r.nextID++

	ps := &PlayerSession{
		PlayerID:  id,
		Name:      name,
		PeerAddr:  peer,
		LastSeen:  now,
		Connected: true,
		Flavor:    flavor,
		Queue:     NewCommandQueue(64),
	}
	r.sessions[id] = ps
	r.byName[name] = id
	return ps, nil
}

// Get returns the session for a player id.
func (r *Registry) Get(playerID uint32) (*PlayerSession, bool) {
	s, ok := r.sessions[playerID]
	return s, ok
}

// Touch refreshes a session's last-seen time.
func (r *Registry) Touch(playerID uint32, now time.Time) {
	if s, ok := r.sessions[playerID]; ok {
		s.LastSeen = now
	}
}

// Disconnect marks a session disconnected without evicting it, so a
// reconnect within ReconnectWindow can resume the same player id.
func (r *Registry) Disconnect(playerID uint32, now time.Time) {
	if s, ok := r.sessions[playerID]; ok {
		s.Connected = false
		s.DisconnectedAt = now
	}
}

// Evict removes a session for good, past its reconnect window.
func (r *Registry) Evict(playerID uint32) {
	if s, ok := r.sessions[playerID]; ok {
		delete(r.byName, s.Name)
		delete(r.sessions, playerID)
	}
}

// ReapIdle marks connected sessions idle for longer than idleTimeout as
// disconnected (held for the reconnect window, not evicted) and evicts
// disconnected sessions past their reconnect window. It returns the ids of
// both kinds.
func (r *Registry) ReapIdle(now time.Time, idleTimeout time.Duration) []uint32 {
	var reaped []uint32
	for id, s := range r.sessions {
		if s.Connected && now.Sub(s.LastSeen) > idleTimeout {
			s.Connected = false
			s.DisconnectedAt = now
			reaped = append(reaped, id)
			continue
		}
		if !s.Connected && now.Sub(s.DisconnectedAt) > ReconnectWindow {
			reaped = append(reaped, id)
		}
	}
	for _, id := range reaped {
		if s, ok := r.sessions[id]; ok && !s.Connected && now.Sub(s.DisconnectedAt) > ReconnectWindow {
			r.Evict(id)
		}
	}
	return reaped
}

// Connected returns every currently connected session.
func (r *Registry) Connected() []*PlayerSession {
	out := make([]*PlayerSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.Connected {
			out = append(out, s)
		}
	}
	return out
}
