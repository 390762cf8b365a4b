package sync

import (
	"sort"
	gosync "sync"

	"github.com/dgnsrekt/gwsync/internal/data"
)

const DefaultCapacity = 200

// Buffer keeps the most recent events ordered by id with no duplicates.
// Accepting an event advances the shared cursor.
type Buffer struct {
	mu       gosync.RWMutex
	capacity int
	events   []data.Event
	index    map[uint64]struct{}
	cursor   *Cursor
}

func NewBuffer(capacity int, cursor *Cursor) *Buffer {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if cursor == nil {
		cursor = NewCursor()
	}
	return &Buffer{
		capacity: capacity,
		events:   make([]data.Event, 0, capacity+1),
		index:    make(map[uint64]struct{}, capacity+1),
		cursor:   cursor,
	}
}

// Accept merges e. It reports false when an event with the same id was
// already accepted and is still buffered.
func (b *Buffer) Accept(e data.Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, dup := b.index[e.ID]; dup {
		return false
	}
	// Older than everything retained in a full buffer: it would be evicted
	// immediately.
	if len(b.events) >= b.capacity && e.ID < b.events[0].ID {
		return false
	}

	i := sort.Search(len(b.events), func(i int) bool { return b.events[i].ID > e.ID })
	b.events = append(b.events, data.Event{})
	copy(b.events[i+1:], b.events[i:])
	b.events[i] = e
	b.index[e.ID] = struct{}{}
	b.cursor.Advance(e.ID)

	if len(b.events) > b.capacity {
		evicted := b.events[0]
		delete(b.index, evicted.ID)
		copy(b.events, b.events[1:])
		b.events = b.events[:len(b.events)-1]
	}
	return true
}

// Events returns a copy of the buffered events in ascending id order.
func (b *Buffer) Events() []data.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]data.Event, len(b.events))
	copy(out, b.events)
	return out
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events)
}

func (b *Buffer) Capacity() int {
	return b.capacity
}

func (b *Buffer) Contains(id uint64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.index[id]
	return ok
}

// Clear drops every event. The cursor is left alone; callers reset it
// together with the buffer.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.events = b.events[:0]
	b.index = make(map[uint64]struct{}, b.capacity+1)
	b.mu.Unlock()
}
