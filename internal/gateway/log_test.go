package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/gwsync/internal/data"
)

func TestEventLog_AssignsIncreasingIDs(t *testing.T) {
	l := NewEventLog(10)
	a := l.Append(data.Event{Type: "a"})
	b := l.Append(data.Event{Type: "b"})

	assert.Equal(t, uint64(1), a.ID)
	assert.Equal(t, uint64(2), b.ID)
	assert.Equal(t, 1, a.Version)
	assert.GreaterOrEqual(t, b.Timestamp, a.Timestamp)
	assert.Equal(t, uint64(2), l.LastID())
}

func TestEventLog_DropsOldestAtCapacity(t *testing.T) {
	l := NewEventLog(3)
	for i := 0; i < 5; i++ {
		l.Append(data.Event{Type: "x"})
	}

	events, last := l.Since(0, 10)
	require.Len(t, events, 3)
	assert.Equal(t, uint64(3), events[0].ID)
	assert.Equal(t, uint64(5), last)
	assert.Equal(t, 3, l.Len())
}

func TestEventLog_SinceIsOldestFirstAndBounded(t *testing.T) {
	l := NewEventLog(100)
	for i := 0; i < 10; i++ {
		l.Append(data.Event{Type: "x"})
	}

	events, last := l.Since(4, 3)
	require.Len(t, events, 3)
	assert.Equal(t, []uint64{5, 6, 7}, []uint64{events[0].ID, events[1].ID, events[2].ID})
	assert.Equal(t, uint64(10), last)

	events, _ = l.Since(10, 3)
	assert.Empty(t, events)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 64, ClampLimit(0))
	assert.Equal(t, 1, ClampLimit(1))
	assert.Equal(t, 128, ClampLimit(128))
	assert.Equal(t, 64, ClampLimit(129))
	assert.Equal(t, 64, ClampLimit(-5))
}
