package admin

import (
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// LogEntry is one recorded admin-debug event: a connect, disconnect,
// handshake, or rejected message. Entries are stored msgpack-encoded in
// MessageLog's ring to keep the debug buffer compact; JSON is only used at
// the HTTP boundary.
type LogEntry struct {
	Seq       uint64 `msgpack:"seq"`
	Timestamp int64  `msgpack:"ts"`
	Kind      string `msgpack:"kind"`
	PlayerID  uint32 `msgpack:"player_id"`
	Detail    string `msgpack:"detail"`
}

// MessageLog is a bounded ring buffer of recent admin-debug events,
// exposed read-only through /api/messages.
type MessageLog struct {
	mu       sync.Mutex
	entries  [][]byte
	capacity int
	nextSeq  uint64
}

// NewMessageLog creates a ring buffer holding at most capacity entries.
func NewMessageLog(capacity int) *MessageLog {
	if capacity <= 0 {
		capacity = 1
	}
	return &MessageLog{capacity: capacity}
}

// Record appends an event, evicting the oldest entry once the ring is full.
func (l *MessageLog) Record(kind string, playerID uint32, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := LogEntry{
		Seq:       l.nextSeq,
		Timestamp: time.Now().UnixMilli(),
		Kind:      kind,
		PlayerID:  playerID,
		Detail:    detail,
	}
	l.nextSeq++

	data, err := msgpack.Marshal(entry)
	if err != nil {
		return
	}
	l.entries = append(l.entries, data)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[len(l.entries)-l.capacity:]
	}
}

// Snapshot decodes and returns every entry currently held, oldest first.
func (l *MessageLog) Snapshot() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]LogEntry, 0, len(l.entries))
	for _, data := range l.entries {
		var entry LogEntry
		if err := msgpack.Unmarshal(data, &entry); err == nil {
			out = append(out, entry)
		}
	}
	return out
}

// Find returns the entry with the given sequence number, if still retained.
func (l *MessageLog) Find(seq uint64) (LogEntry, bool) {
	for _, entry := range l.Snapshot() {
		if entry.Seq == seq {
			return entry, true
		}
	}
	return LogEntry{}, false
}
