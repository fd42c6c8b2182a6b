package session

import (
	"time"

	"github.com/go-logr/logr"
	"github.com/kreid06/pirate-game-4/internal/observability"
	"github.com/kreid06/pirate-game-4/internal/sim/entities"
	"github.com/kreid06/pirate-game-4/internal/sim/physics"
	"github.com/kreid06/pirate-game-4/internal/sim/rules"
)

// Session orchestrates the server-side game loop: it owns the world, the
// session registry (one CommandQueue per connected player), the fixed-rate
// ticker, and the last-known-good snapshot used to recover from numeric
// anomalies.
type Session struct {
	world     entities.World
	registry  *Registry
	ticker    *Ticker
	clock     Clock
	wind      physics.Wind
	snapshots *SnapshotManager
	lastGood  entities.World
	running   bool
	logger    logr.Logger
}

// NewSession creates a new session with the given clock, initial world
// state, and wind conditions.
func NewSession(clock Clock, world entities.World, wind physics.Wind) *Session {
	return &Session{
		world:     world,
		registry:  NewRegistry(),
		ticker:    NewFixedRateTicker(clock),
		clock:     clock,
		wind:      wind,
		snapshots: NewSnapshotManager(),
		lastGood:  world,
		running:   false,
	}
}

// Registry returns the session's player-session table.
func (s *Session) Registry() *Registry {
	return s.registry
}

// AddPlayer appends a freshly connected player's avatar to the live world,
// used by the transport layer right after a handshake assigns a player id.
func (s *Session) AddPlayer(p entities.Player) {
	s.world.AddPlayer(p)
	s.lastGood.AddPlayer(p)
}

// EnqueueInput enqueues a hybrid input for playerID's per-session mailbox.
// Returns false if playerID has no registered session or the input was
// rejected by the queue (duplicate/stale/full).
func (s *Session) EnqueueInput(playerID uint32, seq uint32, input rules.PlayerInput) bool {
	ps, ok := s.registry.Get(playerID)
	if !ok {
		return false
	}
	return ps.Queue.Enqueue(seq, input)
}

// Run executes the tick loop for up to maxTicks iterations, advancing once
// per whole tick interval elapsed on the session's clock, and once when some
// time but less than a full interval has elapsed.
func (s *Session) Run(maxTicks int) error {
	s.running = true
	defer func() { s.running = false }()

	now := s.clock.Now()
	elapsed := now.Sub(s.ticker.lastTick)
	totalTicks := int(elapsed / s.ticker.interval)
	if totalTicks == 0 && elapsed > 0 {
		totalTicks = 1
	}
	if totalTicks > maxTicks {
		totalTicks = maxTicks
	}

	for i := 0; i < totalTicks; i++ {
		s.ticker.lastTick = s.ticker.lastTick.Add(s.ticker.interval)
		s.stepOnce()
	}

	return nil
}

// stepOnce collects queued inputs across every connected session, advances
// the world exactly one tick, and records tick-duration metrics.
func (s *Session) stepOnce() {
	tickStart := time.Now()

	var inputs []rules.PlayerInput
	for _, ps := range s.registry.Connected() {
		for _, queued := range ps.Queue.DequeueAll() {
			inputs = append(inputs, queued.Input)
		}
	}

	wasOnCarrier := make(map[uint32]bool, len(s.world.Players))
	for _, p := range s.world.Players {
		wasOnCarrier[p.ID] = p.IsOnCarrier()
	}

	s.world = rules.Step(s.world, inputs, s.wind, &s.lastGood)
	s.lastGood = copyWorld(s.world)
	s.snapshots.ClearSnapshots()
	s.snapshots.CaptureSnapshot(s.world, s.world.Tick, s.clock)

	for _, p := range s.world.Players {
		switch {
		case !wasOnCarrier[p.ID] && p.IsOnCarrier():
			observability.RecordCarrierTransition("attach")
		case wasOnCarrier[p.ID] && !p.IsOnCarrier():
			observability.RecordCarrierTransition("detach")
		}
	}
	observability.UpdateSessionCount(s.registry.Count())

	tickDurationSeconds := time.Since(tickStart).Seconds()
	if histogram := observability.GetTickDurationHistogram(); histogram != nil {
		histogram.Observe(tickDurationSeconds)
	}

	const thresholdSeconds = 0.01
	if tickDurationSeconds > thresholdSeconds && s.logger.Enabled() {
		s.logger.WithValues(
			"component", "session",
			"tick", s.world.Tick,
			"duration_ms", tickDurationSeconds*1000.0,
			"threshold_ms", thresholdSeconds*1000.0,
		).Info("tick execution exceeded threshold")
	}
}

// World returns the current world state.
func (s *Session) World() entities.World {
	return s.world
}

// IsRunning returns true if the session loop is currently executing Run.
func (s *Session) IsRunning() bool {
	return s.running
}

// Stop marks the session as no longer running. Run does not check this flag
// while it loops, so an in-flight Run call still completes its whole batch.
func (s *Session) Stop() {
	s.running = false
}

// SetLogger sets the logger used for slow-tick diagnostics. Optional; the
// zero logr.Logger is valid and simply stays disabled.
func (s *Session) SetLogger(logger logr.Logger) {
	s.logger = logger
}
