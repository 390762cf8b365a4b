package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	gwsync "github.com/dgnsrekt/gwsync/internal/sync"
	"github.com/dgnsrekt/gwsync/internal/ws"
)

// Monitor turns engine status changes into at most one outage notification
// per outage, followed by one recovery notification.
type Monitor struct {
	notifier      Notifier
	gateway       string
	afterAttempts int
	logger        *zap.Logger

	mu     sync.Mutex
	latest *gwsync.Status
	live   *gwsync.Status
	wake   chan struct{}

	// owned by Run
	notified  bool
	downSince time.Time
}

func NewMonitor(notifier Notifier, gateway string, afterAttempts int, logger *zap.Logger) *Monitor {
	if afterAttempts < 1 {
		afterAttempts = 1
	}
	return &Monitor{
		notifier:      notifier,
		gateway:       gateway,
		afterAttempts: afterAttempts,
		logger:        logger,
		wake:          make(chan struct{}, 1),
	}
}

// Observe records a status snapshot. It never blocks; it is meant to be the
// engine's status listener. Snapshots Run has not seen yet are coalesced to
// the newest one, but the newest live snapshot is kept as well so a recovery
// is never lost.
func (m *Monitor) Observe(s gwsync.Status) {
	m.mu.Lock()
	m.latest = &s
	if s.State == ws.StateLive {
		m.live = &s
	}
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Monitor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.wake:
			m.mu.Lock()
			latest, live := m.latest, m.live
			m.latest, m.live = nil, nil
			m.mu.Unlock()

			if live != nil && live != latest {
				m.handle(ctx, *live)
			}
			if latest != nil {
				m.handle(ctx, *latest)
			}
		}
	}
}

func (m *Monitor) handle(ctx context.Context, s gwsync.Status) {
	if s.State == ws.StateLive {
		if m.notified {
			downtime := time.Since(m.downSince)
			if err := m.notifier.SendRecovered(ctx, m.gateway, downtime, s.Cursor); err != nil {
				m.logger.Warn("failed to send recovery notification", zap.Error(err))
			}
		}
		m.notified = false
		m.downSince = time.Time{}
		return
	}

	if s.Attempts == 0 || s.Paused {
		return
	}
	if m.downSince.IsZero() {
		m.downSince = s.UpdatedAt
	}
	if m.notified || s.Attempts < m.afterAttempts {
		return
	}

	m.notified = true
	m.logger.Warn("gateway unreachable, notifying",
		zap.String("gateway", m.gateway),
		zap.Int("attempts", s.Attempts),
	)
	outage := Outage{
		Gateway:   m.gateway,
		Attempts:  s.Attempts,
		Cursor:    s.Cursor,
		LastError: s.LastError,
		Since:     m.downSince,
	}
	if err := m.notifier.SendDisconnected(ctx, outage); err != nil {
		m.logger.Warn("failed to send outage notification", zap.Error(err))
	}
}
