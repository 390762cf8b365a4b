package gateway

import (
	gosync "sync"
	"time"

	"github.com/dgnsrekt/gwsync/internal/data"
)

const (
	DefaultLogCapacity = 1024
	DefaultReplayLimit = 64
	MaxListLimit       = 128
)

// EventLog is a bounded append-only log. IDs start at 1 and are never reused,
// even after old entries fall off the front.
type EventLog struct {
	mu       gosync.RWMutex
	capacity int
	events   []data.Event
	lastID   uint64
	boot     time.Time
}

func NewEventLog(capacity int) *EventLog {
	if capacity < 1 {
		capacity = DefaultLogCapacity
	}
	return &EventLog{
		capacity: capacity,
		events:   make([]data.Event, 0, capacity),
		boot:     time.Now(),
	}
}

// Append assigns the next id and an uptime timestamp to e and stores it.
func (l *EventLog) Append(e data.Event) data.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastID++
	e.ID = l.lastID
	if e.Version == 0 {
		e.Version = 1
	}
	e.Timestamp = time.Since(l.boot).Milliseconds()

	if len(l.events) == l.capacity {
		copy(l.events, l.events[1:])
		l.events = l.events[:len(l.events)-1]
	}
	l.events = append(l.events, e)
	return e
}

// Since returns up to limit events with id > since, oldest first, and the
// newest id in the log.
func (l *EventLog) Since(since uint64, limit int) ([]data.Event, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]data.Event, 0, limit)
	for _, e := range l.events {
		if e.ID <= since {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, e)
	}
	return out, l.lastID
}

func (l *EventLog) LastID() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastID
}

func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// ClampLimit applies the list bounds: 1..128, anything else falls back to
// the default.
func ClampLimit(limit int) int {
	if limit < 1 || limit > MaxListLimit {
		return DefaultReplayLimit
	}
	return limit
}
