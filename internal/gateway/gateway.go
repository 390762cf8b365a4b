// Package gateway is a local stand-in for the device gateway: an in-memory
// event log served over the historical HTTP endpoint and the push socket.
package gateway

import (
	"context"
	"encoding/json"
	gosync "sync"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/config"
	"github.com/dgnsrekt/gwsync/internal/data"
	"github.com/dgnsrekt/gwsync/internal/ws"
)

type Gateway struct {
	cfg    config.GatewayServerConfig
	log    *EventLog
	hub    *Hub
	logger *zap.Logger

	// mu orders appends against subscriptions so a subscriber sees every
	// event exactly once across replay and broadcast.
	mu gosync.Mutex
}

func New(cfg config.GatewayServerConfig, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReplayLimit < 1 || cfg.ReplayLimit > MaxListLimit {
		cfg.ReplayLimit = DefaultReplayLimit
	}
	return &Gateway{
		cfg:    cfg,
		log:    NewEventLog(cfg.Capacity),
		hub:    NewHub(logger),
		logger: logger,
	}
}

// Run serves the hub and, when enabled, the synthetic event generator until
// ctx is done.
func (g *Gateway) Run(ctx context.Context) {
	if g.cfg.SeedEvents > 0 {
		g.Seed(g.cfg.SeedEvents)
	}

	if g.cfg.GenerateEnabled {
		gen := NewGenerator(g, g.cfg.GenerateInterval, g.logger)
		go gen.Run(ctx)
	}

	g.hub.Run(ctx)
}

// Publish appends e to the log and pushes it to subscribers.
func (g *Gateway) Publish(e data.Event) data.Event {
	g.mu.Lock()
	defer g.mu.Unlock()

	stored := g.log.Append(e)
	g.hub.Broadcast(ws.TopicEvents, ws.BuildEvent(stored))
	return stored
}

// Seed appends n synthetic events without a generator running.
func (g *Gateway) Seed(n int) {
	gen := NewGenerator(g, 0, g.logger)
	for i := 0; i < n; i++ {
		g.Publish(gen.Next())
	}
	g.logger.Info("event log seeded", zap.Int("events", n), zap.Uint64("last_id", g.log.LastID()))
}

// List returns a page of the log the way both the HTTP endpoint and
// events.list answer it.
func (g *Gateway) List(since uint64, limit int) data.EventPage {
	events, last := g.log.Since(since, ClampLimit(limit))
	return data.EventPage{LastID: last, Events: events}
}

func (g *Gateway) LastID() uint64 {
	return g.log.LastID()
}

func (g *Gateway) ClientCount() int {
	return g.hub.ClientCount()
}

// hello acknowledges the handshake with the current last id, then applies
// the requested subscriptions.
func (g *Gateway) hello(c *Client, h *ws.Hello) {
	g.mu.Lock()
	defer g.mu.Unlock()

	last := g.log.LastID()
	c.reply(ws.BuildHelloAck(ws.ProtocolVersion, map[string]bool{"events": true, "req": true}, &last))

	for _, topic := range h.Subs {
		if topic == ws.TopicEvents {
			g.replayLocked(c, h.Since)
			g.hub.Join(c, ws.TopicEvents)
			return
		}
	}
}

func (g *Gateway) subscribe(c *Client, since uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.replayLocked(c, since)
	g.hub.Join(c, ws.TopicEvents)
}

func (g *Gateway) replayLocked(c *Client, since uint64) {
	events, _ := g.log.Since(since, g.cfg.ReplayLimit)
	for _, e := range events {
		if !c.enqueue(outbound{payload: ws.BuildEvent(e), event: true}) {
			return
		}
	}
	g.logger.Debug("replayed events",
		zap.String("connID", c.connID),
		zap.Uint64("since", since),
		zap.Int("count", len(events)),
	)
}

type listParams struct {
	Since uint64 `json:"since"`
	Limit int    `json:"limit"`
}

func (g *Gateway) handleRequest(req *ws.Request) []byte {
	switch req.Method {
	case "":
		return ws.BuildResponse(req.ID, false, "missing m", nil)

	case ws.MethodEventsList:
		var p listParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				g.logger.Debug("ignoring bad events.list params", zap.Error(err))
				p = listParams{}
			}
		}
		return ws.BuildResponse(req.ID, true, "", g.List(p.Since, p.Limit))

	default:
		return ws.BuildResponse(req.ID, false, "unknown method", nil)
	}
}
