package session

import (
	"sort"

	"github.com/kreid06/pirate-game-4/internal/sim/rules"
)

// QueuedInput is a hybrid-protocol input tagged with its client sequence
// number for per-session ordering.
type QueuedInput struct {
	Sequence uint32
	Input    rules.PlayerInput
}

// CommandQueue is a per-session mailbox that stores hybrid inputs keyed by
// sequence number, enforces strictly-increasing delivery order, and
// deduplicates already-processed or repeated sequences. This is the
// ordering guarantee a single connection gets: inputs from one client are
// applied in the order they were sent, never reordered to affect a tick
// that already shipped.
type CommandQueue struct {
	commands     map[uint32]*QueuedInput
	ordered      []uint32
	maxSize      int
	nextSequence uint32
}

// NewCommandQueue creates a new command queue with the specified maximum size.
func NewCommandQueue(maxSize int) *CommandQueue {
	return &CommandQueue{
		commands:     make(map[uint32]*QueuedInput),
		ordered:      make([]uint32, 0),
		maxSize:      maxSize,
		nextSequence: 1,
	}
}

// Enqueue adds an input to the queue with the specified sequence number.
// Returns false if the sequence has already been processed, is a duplicate
// of one still queued, or the queue is full.
func (q *CommandQueue) Enqueue(seq uint32, input rules.PlayerInput) bool {
	if seq < q.nextSequence {
		return false
	}
	if _, exists := q.commands[seq]; exists {
		return false
	}
	if len(q.commands) >= q.maxSize {
		return false
	}

	q.commands[seq] = &QueuedInput{Sequence: seq, Input: input}
	q.ordered = append(q.ordered, seq)
	sort.Slice(q.ordered, func(i, j int) bool { return q.ordered[i] < q.ordered[j] })

	return true
}

// Dequeue removes and returns the next input in sequence order.
func (q *CommandQueue) Dequeue() (*QueuedInput, bool) {
	if len(q.ordered) == 0 {
		return nil, false
	}

	seq := q.ordered[0]
	q.ordered = q.ordered[1:]

	cmd := q.commands[seq]
	delete(q.commands, seq)
	q.nextSequence = seq + 1

	return cmd, true
}

// DequeueAll drains every queued input in sequence order. Used by the
// per-tick input-collection step, since every input that arrived before
// tick-start applies on that tick, not just the oldest one.
func (q *CommandQueue) DequeueAll() []QueuedInput {
	out := make([]QueuedInput, 0, len(q.ordered))
	for {
		cmd, ok := q.Dequeue()
		if !ok {
			break
		}
		out = append(out, *cmd)
	}
	return out
}

// Peek returns the next input without removing it.
func (q *CommandQueue) Peek() (*QueuedInput, bool) {
	if len(q.ordered) == 0 {
		return nil, false
	}
	seq := q.ordered[0]
	return q.commands[seq], true
}

// Size returns the current number of queued inputs.
func (q *CommandQueue) Size() int {
	return len(q.commands)
}

// IsEmpty returns true if the queue is empty.
func (q *CommandQueue) IsEmpty() bool {
	return len(q.commands) == 0
}

// Clear removes all queued inputs without resetting nextSequence.
func (q *CommandQueue) Clear() {
	q.commands = make(map[uint32]*QueuedInput)
	q.ordered = make([]uint32, 0)
}
