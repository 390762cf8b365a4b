package sync

import (
	"context"
	gosync "sync"
)

// follower is an unbounded subscription: the engine loop appends without
// blocking and Follow drains at its own pace.
type follower struct {
	mu      gosync.Mutex
	pending []Update
	wake    chan struct{}
}

func newFollower() *follower {
	return &follower{wake: make(chan struct{}, 1)}
}

func (f *follower) push(u Update) {
	f.mu.Lock()
	f.pending = append(f.pending, u)
	f.mu.Unlock()
	f.wakeUp()
}

func (f *follower) wakeUp() {
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

func (f *follower) take() []Update {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := f.pending
	f.pending = nil
	return batch
}

// Follow hands every accepted event to fn, in acceptance order, until ctx is
// done or the engine stops. It never drops updates: fn may block for as long
// as it needs while the engine keeps running. Follow first hands over the
// events already buffered, marked Replayed, so fn must tolerate seeing an
// event twice.
func (e *Engine) Follow(ctx context.Context, fn func(context.Context, Update) error) error {
	f := newFollower()

	e.subsMu.Lock()
	select {
	case <-e.done:
		e.subsMu.Unlock()
		return ErrEngineStopped
	default:
	}
	e.followers[f] = struct{}{}
	e.subsMu.Unlock()

	defer func() {
		e.subsMu.Lock()
		delete(e.followers, f)
		e.subsMu.Unlock()
	}()

	for _, ev := range e.Events() {
		if err := fn(ctx, Update{Event: ev, Replayed: true}); err != nil {
			return err
		}
	}

	deliver := func() error {
		for _, u := range f.take() {
			if err := fn(ctx, u); err != nil {
				return err
			}
		}
		return nil
	}

	for {
		if err := deliver(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-e.done:
			return deliver()
		case <-f.wake:
		}
	}
}
