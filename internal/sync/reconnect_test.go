package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReconnectPolicy_BackoffSequence(t *testing.T) {
	p := NewReconnectPolicy(250*time.Millisecond, 5*time.Second, 5, 0)

	want := []time.Duration{
		250 * time.Millisecond,
		500 * time.Millisecond,
		1000 * time.Millisecond,
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		5000 * time.Millisecond,
		5000 * time.Millisecond,
	}
	for i, w := range want {
		assert.Equal(t, w, p.Next(), "attempt %d", i)
	}
	assert.Equal(t, len(want), p.Attempts())
}

func TestReconnectPolicy_ResetRestartsAtBase(t *testing.T) {
	p := NewReconnectPolicy(250*time.Millisecond, 5*time.Second, 5, 0)
	p.Next()
	p.Next()
	p.Next()

	p.Reset()
	assert.Equal(t, 0, p.Attempts())
	assert.Equal(t, 250*time.Millisecond, p.Next())
}

func TestReconnectPolicy_MaxShiftBoundsGrowth(t *testing.T) {
	p := NewReconnectPolicy(100*time.Millisecond, time.Hour, 2, 0)
	for i := 0; i < 10; i++ {
		p.Next()
	}
	assert.Equal(t, 400*time.Millisecond, p.Next())
	assert.Equal(t, 400*time.Millisecond, p.Delay(50))
}

func TestReconnectPolicy_JitterStaysInBand(t *testing.T) {
	p := NewReconnectPolicy(time.Second, 5*time.Second, 5, 0.1)
	for i := 0; i < 100; i++ {
		p.Reset()
		d := p.Next()
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.LessOrEqual(t, d, 1100*time.Millisecond)
	}
}

func TestJitteredDelay(t *testing.T) {
	assert.Equal(t, 900*time.Millisecond, jitteredDelay(time.Second, 0.1, 0))
	assert.Equal(t, time.Second, jitteredDelay(time.Second, 0.1, 0.5))
	assert.Equal(t, 1100*time.Millisecond, jitteredDelay(time.Second, 0.1, 1))
	assert.Equal(t, time.Millisecond, jitteredDelay(0, 0.1, 0.5))
}
