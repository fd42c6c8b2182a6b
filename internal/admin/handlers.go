package admin

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/kreid06/pirate-game-4/internal/observability"
	"github.com/kreid06/pirate-game-4/internal/session"
	"github.com/kreid06/pirate-game-4/internal/sim/entities"
	"github.com/kreid06/pirate-game-4/internal/sim/rules"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

// handleStatus reports process uptime, tick, and session counts.
func (a *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	world := a.session.World()
	writeJSON(w, map[string]interface{}{
		"uptime_seconds":     time.Since(a.startedAt).Seconds(),
		"tick":               world.Tick,
		"ship_count":         len(world.Ships),
		"connected_players":  len(a.session.Registry().Connected()),
		"tick_rate_hz":       rules.TickRate,
	})
}

type mapModule struct {
	ID   uint32 `json:"id"`
	Type string `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type mapShip struct {
	ID       uint32      `json:"id"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Rotation float64     `json:"rotation"`
	Modules  []mapModule `json:"modules"`
}

type mapPlayer struct {
	ID            uint32  `json:"id"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Rotation      float64 `json:"rotation"`
	CarrierShipID uint32  `json:"carrier_ship_id"`
}

// moduleTypeName renders an entities.ModuleType for the debug map view.
func moduleTypeName(t entities.ModuleType) string {
	switch t {
	case entities.ModuleHelm:
		return "helm"
	case entities.ModuleSeat:
		return "seat"
	case entities.ModuleCannon:
		return "cannon"
	case entities.ModuleMast:
		return "mast"
	case entities.ModuleLadder:
		return "ladder"
	case entities.ModulePlank:
		return "plank"
	case entities.ModuleDeck:
		return "deck"
	default:
		return "unknown"
	}
}

// handleMap reports every ship and player's world pose, for a debug
// top-down view of the live world.
func (a *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	world := a.session.World()

	ships := make([]mapShip, 0, len(world.Ships))
	for _, s := range world.Ships {
		modules := make([]mapModule, 0, len(s.Modules))
		for _, m := range s.Modules {
			pos := s.ModuleWorldPos(m)
			modules = append(modules, mapModule{ID: m.ID, Type: moduleTypeName(m.Type), X: pos.X, Y: pos.Y})
		}
		ships = append(ships, mapShip{ID: s.ID, X: s.Pos.X, Y: s.Pos.Y, Rotation: s.Rot, Modules: modules})
	}

	players := make([]mapPlayer, 0, len(world.Players))
	for _, p := range world.Players {
		ship := world.FindShip(p.CarrierShipID)
		pos := p.WorldPos(ship)
		rot := p.WorldRot(ship)
		players = append(players, mapPlayer{ID: p.ID, X: pos.X, Y: pos.Y, Rotation: rot, CarrierShipID: p.CarrierShipID})
	}

	writeJSON(w, map[string]interface{}{
		"tick":    world.Tick,
		"ships":   ships,
		"players": players,
	})
}

// handleMessages lists recent debug events, newest last, optionally
// bounded by a ?limit= query parameter.
func (a *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	entries := a.messages.Snapshot()

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit >= 0 && limit < len(entries) {
			entries = entries[len(entries)-limit:]
		}
	}

	writeJSON(w, map[string]interface{}{"messages": entries})
}

// handleMessageByID looks up a single debug event by its sequence number.
func (a *Server) handleMessageByID(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	seq, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}
	entry, ok := a.messages.Find(seq)
	if !ok {
		http.Error(w, "message not found", http.StatusNotFound)
		return
	}
	writeJSON(w, entry)
}

// handlePhysics reports the wind field and tick-rate constants the
// simulator steps with.
func (a *Server) handlePhysics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"wind_direction":   a.wind.Direction,
		"wind_speed":       a.wind.Speed,
		"tick_rate_hz":     rules.TickRate,
		"tick_duration_s":  rules.TickDuration,
	})
}

// handleNetwork reports session-table and connection-byte statistics.
func (a *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"connected_sessions": a.session.Registry().Count(),
		"max_sessions":       session.MaxSessions,
		"bytes_in":           counterSum(observability.GetConnectionBytesCounter(), "in"),
		"bytes_out":          counterSum(observability.GetConnectionBytesCounter(), "out"),
	})
}

// handlePerformance reports tick-time and GC-pause summary statistics.
func (a *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	metrics := observability.GetHealthMetrics()
	writeJSON(w, map[string]interface{}{
		"uptime_seconds": metrics.UptimeSeconds,
		"queue_depth":    metrics.QueueDepth,
		"tick_time": map[string]interface{}{
			"average_ms": metrics.TickTime.AverageMs,
			"count":      metrics.TickTime.Count,
		},
		"gc_pause": map[string]interface{}{
			"average_ms": metrics.GCPause.AverageMs,
			"count":      metrics.GCPause.Count,
		},
	})
}

// counterSum reads a labeled CounterVec's current value, returning 0 if
// metrics were never initialized.
func counterSum(vec *prometheus.CounterVec, label string) float64 {
	if vec == nil {
		return 0
	}
	var metric dto.Metric
	if err := vec.WithLabelValues(label).Write(&metric); err != nil {
		return 0
	}
	return metric.Counter.GetValue()
}
