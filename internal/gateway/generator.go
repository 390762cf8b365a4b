package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/data"
)

var sampleDevices = []struct {
	uid   string
	short uint16
}{
	{"0x00124b0012345678", 0x1a2b},
	{"0x00158d0001a2b3c4", 0x3c4d},
	{"0x842e14fffe5d6e7f", 0x5e6f},
}

// Generator produces plausible zigbee traffic.
type Generator struct {
	gw       *Gateway
	interval time.Duration
	rng      *rand.Rand
	logger   *zap.Logger
}

func NewGenerator(gw *Gateway, interval time.Duration, logger *zap.Logger) *Generator {
	return &Generator{
		gw:       gw,
		interval: interval,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logger,
	}
}

func (g *Generator) Run(ctx context.Context) {
	if g.interval <= 0 {
		return
	}
	g.logger.Info("event generator starting", zap.Duration("interval", g.interval))

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.logger.Info("event generator stopping")
			return
		case <-ticker.C:
			e := g.gw.Publish(g.Next())
			g.logger.Debug("generated event", zap.Uint64("id", e.ID), zap.String("type", e.Type))
		}
	}
}

// Next builds one event; the log assigns its id and timestamp.
func (g *Generator) Next() data.Event {
	dev := sampleDevices[g.rng.Intn(len(sampleDevices))]
	e := data.Event{
		Source:    "zigbee",
		Subject:   dev.uid,
		ShortAddr: dev.short,
	}

	switch g.rng.Intn(4) {
	case 0:
		e.Type = "zigbee.attr_report"
		temp := 18 + g.rng.Float64()*8
		e.Msg = fmt.Sprintf("temperature %.2fC", temp)
		e.Payload, _ = json.Marshal(map[string]any{"cluster": "0x0402", "attr": "0x0000", "value": temp})
	case 1:
		e.Type = "zigbee.cmd"
		on := g.rng.Intn(2) == 1
		e.Msg = fmt.Sprintf("onoff %t", on)
		e.Payload, _ = json.Marshal(map[string]any{"cluster": "0x0006", "cmd": "toggle", "on": on})
	case 2:
		e.Type = "device.announce"
		e.Msg = "device announced"
	default:
		e.Type = "rules.fired"
		e.Source = "rules"
		e.Msg = "automation triggered"
		e.Payload, _ = json.Marshal(map[string]any{"automation_id": fmt.Sprintf("auto-%d", g.rng.Intn(5))})
	}
	return e
}
