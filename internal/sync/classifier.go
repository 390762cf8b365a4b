package sync

import "github.com/dgnsrekt/gwsync/internal/data"

// Classifier separates replayed history from new live events on one
// connection. A fresh Classifier is started on every hello acknowledgment.
type Classifier struct {
	serverLast *uint64
	catchingUp bool
}

// Verdict is the outcome of classifying one event.
type Verdict struct {
	// New is true only for events that happened after the connection was
	// established.
	New bool
	// GoLive is set on the event that ends catch-up.
	GoLive bool
}

// NewClassifier starts classification for an acknowledgment. catchingUp is
// false when the channel went straight to live.
func NewClassifier(serverLast *uint64, catchingUp bool) *Classifier {
	return &Classifier{serverLast: serverLast, catchingUp: catchingUp && serverLast != nil}
}

// CatchingUp reports whether replay is still in progress.
func (c *Classifier) CatchingUp() bool {
	return c.catchingUp
}

func (c *Classifier) ServerLast() (uint64, bool) {
	if c.serverLast == nil {
		return 0, false
	}
	return *c.serverLast, true
}

// Classify decides whether e is replay or new. Replay never counts as new;
// the event reaching server_last ends catch-up.
func (c *Classifier) Classify(e data.Event) Verdict {
	if c.serverLast == nil {
		return Verdict{New: true}
	}
	last := *c.serverLast

	if c.catchingUp {
		switch {
		case e.ID < last:
			return Verdict{}
		case e.ID == last:
			c.catchingUp = false
			return Verdict{GoLive: true}
		default:
			c.catchingUp = false
			return Verdict{New: true, GoLive: true}
		}
	}

	return Verdict{New: e.ID > last}
}
