package sync

import gosync "sync"

// Cursor is the highest event id incorporated into the buffer. It only moves
// forward, except on explicit Reset.
type Cursor struct {
	mu gosync.RWMutex
	id uint64
}

func NewCursor() *Cursor {
	return &Cursor{}
}

// Advance moves the cursor to id if id is higher.
func (c *Cursor) Advance(id uint64) {
	c.mu.Lock()
	if id > c.id {
		c.id = id
	}
	c.mu.Unlock()
}

func (c *Cursor) Current() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

func (c *Cursor) Reset() {
	c.mu.Lock()
	c.id = 0
	c.mu.Unlock()
}

// Restore seeds the cursor from a persisted checkpoint.
func (c *Cursor) Restore(id uint64) {
	c.mu.Lock()
	c.id = id
	c.mu.Unlock()
}
