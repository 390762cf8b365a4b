package sync

import (
	"math/rand"
	gosync "sync"
	"time"
)

const (
	DefaultReconnectBase     = 250 * time.Millisecond
	DefaultReconnectCap      = 5 * time.Second
	DefaultReconnectMaxShift = 5
	DefaultReconnectJitter   = 0.1

	// MaxJitter bounds the jitter ratio; larger values are clamped.
	MaxJitter = 0.5
)

// ReconnectPolicy computes capped exponential backoff for live channel
// retries. The attempt counter resets when the channel reaches live.
type ReconnectPolicy struct {
	base     time.Duration
	cap      time.Duration
	maxShift int
	jitter   float64

	mu       gosync.Mutex
	attempts int
	rng      *rand.Rand
}

func NewReconnectPolicy(base, cap time.Duration, maxShift int, jitter float64) *ReconnectPolicy {
	if base <= 0 {
		base = DefaultReconnectBase
	}
	if cap < base {
		cap = base
	}
	if maxShift < 0 {
		maxShift = 0
	}
	return &ReconnectPolicy{
		base:     base,
		cap:      cap,
		maxShift: maxShift,
		jitter:   clampJitter(jitter),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func clampJitter(ratio float64) float64 {
	if ratio < 0 {
		return 0
	}
	if ratio > MaxJitter {
		return MaxJitter
	}
	return ratio
}

// Next returns the delay before the next attempt and counts the attempt.
func (p *ReconnectPolicy) Next() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	delay := p.backoff(p.attempts)
	p.attempts++
	if p.jitter == 0 {
		return delay
	}
	return jitteredDelay(delay, p.jitter, p.rng.Float64())
}

// Delay returns the pre-jitter delay for a given attempt count.
func (p *ReconnectPolicy) Delay(attempts int) time.Duration {
	return p.backoff(attempts)
}

func (p *ReconnectPolicy) backoff(attempts int) time.Duration {
	shift := attempts
	if shift > p.maxShift {
		shift = p.maxShift
	}
	delay := p.base * time.Duration(1<<shift)
	if delay > p.cap || delay <= 0 {
		delay = p.cap
	}
	return delay
}

// Reset clears the attempt counter.
func (p *ReconnectPolicy) Reset() {
	p.mu.Lock()
	p.attempts = 0
	p.mu.Unlock()
}

func (p *ReconnectPolicy) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

// jitteredDelay spreads base by ±ratio using sample in [0, 1].
func jitteredDelay(base time.Duration, ratio, sample float64) time.Duration {
	if sample < 0 {
		sample = 0
	} else if sample > 1 {
		sample = 1
	}
	factor := 1 + ((sample*2)-1)*ratio
	delay := time.Duration(float64(base) * factor)
	if delay < time.Millisecond {
		return time.Millisecond
	}
	return delay
}
