package client

import (
	"errors"
	"time"

	"github.com/kreid06/pirate-game-4/internal/observability"
	"github.com/kreid06/pirate-game-4/internal/proto"
	"github.com/kreid06/pirate-game-4/internal/sim/entities"
	"github.com/kreid06/pirate-game-4/internal/sim/physics"
	"github.com/kreid06/pirate-game-4/internal/sim/rules"
)

// Reconciliation thresholds.
const (
	positionErrorThreshold = 5.0  // world units
	velocityErrorThreshold = 10.0 // units/second
	rollbackBlendAlpha     = 0.15
	networkDelaySmoothing  = 0.1
	maxConsecutiveOversize = 3
	maxPendingInputs       = 60
	minInputIntervalMs     = 1000.0 / 120.0 // 8.33ms floor between locally generated inputs
)

// InputFrame is one tick's worth of locally generated input, queued for
// send and replayed verbatim during rollback.
type InputFrame struct {
	ClientTick uint64
	Movement   entities.Vec2
	Sprint     bool
	Rotation   float64
	Actions    []rules.PlayerInput
}

// ErrInputRateLimited is returned when a caller generates input frames
// faster than minInputIntervalMs allows.
var ErrInputRateLimited = errors.New("client: input generated faster than the allowed cadence")

// Engine is the client-side prediction and reconciliation loop: it
// predicts the local player forward every frame using the same rules.Step
// the server runs, then reconciles against authoritative snapshots as
// they arrive, rolling back and replaying when the divergence is too
// large to paper over with a smoothing blend.
//
// Mirrors session.SnapshotManager's capture/restore discipline, adapted to
// run client-side against a bounded rewind ring instead of the server's
// authoritative per-tick map.
type Engine struct {
	playerID uint32
	wind     physics.Wind

	rewind        *RewindBuffer
	interpolation *InterpolationBuffer
	pending       []InputFrame

	clientTick uint64
	lastInput  time.Time

	avgNetworkDelay   time.Duration
	oversizeStreak    int
	lastAuthoritative entities.World
	haveAuthoritative bool

	metrics *Metrics
}

// NewEngine creates a prediction engine for the given locally-controlled
// player id.
func NewEngine(playerID uint32, wind physics.Wind) *Engine {
	return &Engine{
		playerID:      playerID,
		wind:          wind,
		rewind:        NewRewindBuffer(RewindCapacity),
		interpolation: NewInterpolationBuffer(MinInterpolationSnapshots),
		metrics:       NewMetrics(),
	}
}

// Metrics exposes the engine's rolling statistics.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// RewindBuffer exposes the engine's rewind ring, mainly for tests and the
// admin/debug surface.
func (e *Engine) RewindBuffer() *RewindBuffer { return e.rewind }

// QueueInput validates and enqueues a locally-generated input frame for
// the next predicted step. A frame arriving sooner than minInputIntervalMs
// after the last accepted one is counted as a rate-limit violation and
// rejected with ErrInputRateLimited. When maxPendingInputs frames are
// already queued, the oldest is dropped and counted as discarded.
func (e *Engine) QueueInput(now time.Time, frame InputFrame) error {
	if !e.lastInput.IsZero() && now.Sub(e.lastInput) < time.Duration(minInputIntervalMs*float64(time.Millisecond)) {
		e.metrics.recordRateLimitViolation()
		return ErrInputRateLimited
	}
	if frame.Movement.Length() > proto.MovementMagnitudeLimit {
		frame.Movement = frame.Movement.Normalize().Scale(proto.MovementMagnitudeLimit)
	}
	if len(e.pending) >= maxPendingInputs {
		e.pending = e.pending[1:]
		e.metrics.recordInputDiscarded()
	}
	e.pending = append(e.pending, frame)
	e.lastInput = now
	e.metrics.recordInputGenerated()
	return nil
}

// Step advances the local prediction by one tick: it drains the pending
// input queue, reuses rules.Step to predict forward exactly as the server
// would, and records the resulting frame into the rewind buffer so a
// later correction can replay from it.
func (e *Engine) Step(now time.Time, world entities.World) entities.World {
	started := time.Now()

	var frame InputFrame
	if len(e.pending) > 0 {
		frame = e.pending[0]
		e.pending = e.pending[1:]
	} else {
		frame = InputFrame{ClientTick: e.clientTick}
	}
	frame.ClientTick = e.clientTick

	// rules.Step mutates its world argument's entity slices in place, so a
	// deep copy goes in (protecting whatever the caller's world still
	// aliases, e.g. an earlier rewind entry) and another comes out
	// (protecting this entry from the next tick's in-place Step call).
	inputs := e.toPlayerInputs(frame)
	next := rules.Step(copyWorld(world), inputs, e.wind, nil)

	e.rewind.Push(RewindEntry{
		ClientTick: e.clientTick,
		Timestamp:  now,
		Input:      frame,
		World:      copyWorld(next),
	})

	e.clientTick++
	e.metrics.recordStepDuration(time.Since(started))
	e.metrics.setRewindUtilization(e.rewind.Utilization())
	return next
}

func (e *Engine) toPlayerInputs(frame InputFrame) []rules.PlayerInput {
	inputs := make([]rules.PlayerInput, 0, len(frame.Actions)+2)
	inputs = append(inputs, rules.PlayerInput{
		PlayerID: e.playerID,
		Kind:     rules.InputMovementState,
		MoveDir:  frame.Movement,
		Sprint:   frame.Sprint,
	})
	if frame.Rotation != 0 {
		inputs = append(inputs, rules.PlayerInput{
			PlayerID:      e.playerID,
			Kind:          rules.InputRotationUpdate,
			RotationDelta: frame.Rotation,
		})
	}
	inputs = append(inputs, frame.Actions...)
	return inputs
}

// Reconcile applies an authoritative snapshot received from the server:
// it feeds the interpolation buffer (for remote entities), tracks network
// delay with an exponential moving average, computes the local player's
// prediction error against the matching rewind entry, and schedules a
// rollback-and-replay when that error exceeds the position/velocity
// thresholds. Returns the (possibly corrected) world to keep predicting
// from, and the reconciled prediction error for metrics/telemetry.
func (e *Engine) Reconcile(now time.Time, serverTick uint64, snapshot entities.World, sentAt time.Time) (entities.World, float64) {
	e.interpolation.Add(snapshot, now)
	e.lastAuthoritative = snapshot
	e.haveAuthoritative = true
	e.rewind.MarkConfirmedThrough(serverTick)

	delay := now.Sub(sentAt)
	if delay < 0 {
		delay = 0
	}
	if e.avgNetworkDelay == 0 {
		e.avgNetworkDelay = delay
	} else {
		e.avgNetworkDelay = time.Duration((1-networkDelaySmoothing)*float64(e.avgNetworkDelay) + networkDelaySmoothing*float64(delay))
	}
	e.metrics.recordNetworkDelay(delay)

	idx := e.rewind.FindByClientTick(serverTick)
	if idx < 0 {
		// No local record of this tick survived the rewind window; the
		// correction can't be replayed against, so it's discarded rather
		// than guessed at.
		e.metrics.recordMissingRewindEntry()
		return e.latestPredicted(), 0
	}

	predictedEntry := e.rewind.At(idx)
	predictedPlayer := findPlayer(predictedEntry.World, e.playerID)
	actualPlayer := findPlayer(snapshot, e.playerID)
	if predictedPlayer == nil || actualPlayer == nil {
		return e.latestPredicted(), 0
	}

	posErr := predictedPlayer.Pos.DistanceTo(actualPlayer.Pos)
	velErr := predictedPlayer.Vel.Sub(actualPlayer.Vel).Length()
	predictedEntry.PredictionError = posErr
	predictedEntry.ServerConfirmed = true
	e.rewind.Set(idx, predictedEntry)
	e.metrics.recordPredictionError(posErr)

	if posErr <= positionErrorThreshold && velErr <= velocityErrorThreshold {
		e.oversizeStreak = 0
		return e.latestPredicted(), posErr
	}

	oversize := posErr > positionErrorThreshold*3 || velErr > velocityErrorThreshold*3
	if oversize {
		e.oversizeStreak++
	} else {
		e.oversizeStreak = 0
	}

	if e.oversizeStreak >= maxConsecutiveOversize {
		e.reseed(snapshot, serverTick)
		e.oversizeStreak = 0
		e.metrics.recordRollback()
		observability.RecordRollback()
		return e.latestPredicted(), posErr
	}

	e.rollbackAndReplay(idx, snapshot)
	e.metrics.recordRollback()
	e.metrics.recordCorrectionApplied()
	observability.RecordRollback()
	return e.latestPredicted(), posErr
}

// rollbackAndReplay restores the world at idx to the authoritative
// snapshot, blends it toward the predicted pose by rollbackBlendAlpha to
// avoid a visible pop, then replays every subsequent queued input through
// rules.Step so later entries reflect the corrected trajectory.
func (e *Engine) rollbackAndReplay(idx int, authoritative entities.World) {
	entries := e.rewind.EntriesFrom(idx)
	if len(entries) == 0 {
		return
	}

	corrected := copyWorld(authoritative)
	if predicted := findPlayer(entries[0].World, e.playerID); predicted != nil {
		if actual := findPlayer(corrected, e.playerID); actual != nil {
			actual.Pos = actual.Pos.Lerp(predicted.Pos, rollbackBlendAlpha)
			actual.Rot = lerpAngle(actual.Rot, predicted.Rot, rollbackBlendAlpha)
		}
	}
	entries[0].World = corrected
	entries[0].ServerConfirmed = true
	e.rewind.Set(idx, entries[0])

	// Each Set below must be an independent copy: rules.Step mutates its
	// world argument's slices in place, so without copying, every replayed
	// entry from idx onward would end up aliasing the same backing arrays
	// and collapse to the final iteration's values.
	world := corrected
	for i := 1; i < len(entries); i++ {
		inputs := e.toPlayerInputs(entries[i].Input)
		world = rules.Step(copyWorld(world), inputs, e.wind, nil)
		entries[i].World = copyWorld(world)
		e.rewind.Set(idx+i, entries[i])
	}
}

// reseed performs a full re-seed (soft reset): the entire rewind buffer is
// discarded and replaced with a single entry at the authoritative state,
// used when corrections have been oversized three frames running and
// incremental replay can no longer be trusted.
func (e *Engine) reseed(authoritative entities.World, serverTick uint64) {
	e.rewind = NewRewindBuffer(RewindCapacity)
	e.rewind.Push(RewindEntry{
		ClientTick:      serverTick,
		ServerTick:      serverTick,
		World:           copyWorld(authoritative),
		ServerConfirmed: true,
	})
	e.clientTick = serverTick + 1
}

func (e *Engine) latestPredicted() entities.World {
	if latest, ok := e.rewind.Latest(); ok {
		return latest.World
	}
	if e.haveAuthoritative {
		return e.lastAuthoritative
	}
	return entities.World{}
}

// Render samples the interpolation buffer at the computed render-delay for
// remote entities; the local player is always drawn from the latest
// predicted frame, never interpolated.
func (e *Engine) Render(now time.Time, oneWayLatency, serverTick time.Duration) entities.World {
	delay := RenderDelay(oneWayLatency, serverTick)
	sampled, ok := e.interpolation.Sample(now, delay)
	if !ok {
		return e.latestPredicted()
	}
	// Sample may return a buffered frame's world directly (boundary cases
	// aren't interpolated), so copy before splicing in the local player to
	// avoid corrupting what's still stored in the interpolation buffer.
	world := copyWorld(sampled)
	if predicted := e.latestPredicted(); e.rewind.Len() > 0 {
		if local := findPlayer(predicted, e.playerID); local != nil {
			if idx := findPlayerIndex(world, e.playerID); idx >= 0 {
				world.Players[idx] = *local
			} else {
				world.Players = append(world.Players, *local)
			}
		}
	}
	return world
}

func findPlayerIndex(w entities.World, id uint32) int {
	for i := range w.Players {
		if w.Players[i].ID == id {
			return i
		}
	}
	return -1
}
