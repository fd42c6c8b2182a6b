package admin

import (
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
	"github.com/kreid06/pirate-game-4/internal/session"
	"github.com/kreid06/pirate-game-4/internal/sim/physics"
)

// messageLogCapacity bounds the admin debug ring buffer.
const messageLogCapacity = 500

// Server serves the read-only admin HTTP surface
// (/api/status, /api/map, /api/messages, /api/physics, /api/network,
// /api/performance), reading the same shared session.Session the game
// transports drive. It never mutates simulator state.
type Server struct {
	session   *session.Session
	wind      physics.Wind
	logger    logr.Logger
	messages  *MessageLog
	startedAt time.Time
}

// NewServer creates an admin Server around sess, reporting wind conditions
// at /api/physics.
func NewServer(sess *session.Session, wind physics.Wind, logger logr.Logger) *Server {
	return &Server{
		session:   sess,
		wind:      wind,
		logger:    logger,
		messages:  NewMessageLog(messageLogCapacity),
		startedAt: time.Now(),
	}
}

// Messages returns the server's debug event ring buffer, so the game
// transports can record connect/disconnect/handshake events into it.
func (a *Server) Messages() *MessageLog {
	return a.messages
}

// Router builds the gorilla/mux router serving every admin endpoint.
func (a *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/status", a.handleStatus).Methods("GET")
	r.HandleFunc("/api/map", a.handleMap).Methods("GET")
	r.HandleFunc("/api/messages", a.handleMessages).Methods("GET")
	r.HandleFunc("/api/messages/{id}", a.handleMessageByID).Methods("GET")
	r.HandleFunc("/api/physics", a.handlePhysics).Methods("GET")
	r.HandleFunc("/api/network", a.handleNetwork).Methods("GET")
	r.HandleFunc("/api/performance", a.handlePerformance).Methods("GET")
	return r
}
