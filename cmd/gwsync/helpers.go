package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/api"
	"github.com/dgnsrekt/gwsync/internal/config"
	"github.com/dgnsrekt/gwsync/internal/store"
	gwsync "github.com/dgnsrekt/gwsync/internal/sync"
	"github.com/dgnsrekt/gwsync/internal/ws"
)

// newFetcher picks the backfill transport: the HTTP events endpoint or
// events.list requests over the websocket.
func newFetcher(cfg *config.Config, logger *zap.Logger) api.Fetcher {
	if config.BackfillTransport(cfg.Backfill.Transport) == config.TransportWS {
		return api.NewSocketClient(cfg.Gateway.WSURL(), cfg.Backfill.Timeout(), logger)
	}
	return api.NewClient(
		cfg.Gateway.BaseURL,
		cfg.Gateway.EventsPath,
		cfg.Backfill.RatePerSecond,
		cfg.Backfill.Timeout(),
		cfg.Backfill.RetryDelay(),
		cfg.Backfill.RetryCount,
		logger,
	)
}

func channelConfig(cfg *config.Config) ws.ChannelConfig {
	return ws.ChannelConfig{
		URL:              cfg.Gateway.WSURL(),
		Protocol:         cfg.Live.Protocol,
		Subscriptions:    cfg.Live.Subscriptions,
		HandshakeTimeout: cfg.Live.HandshakeTimeout(),
		RequestTimeout:   cfg.Live.RequestTimeout(),
		PingPeriod:       cfg.Live.PingPeriod(),
	}
}

func newReconnectPolicy(cfg *config.Config) *gwsync.ReconnectPolicy {
	return gwsync.NewReconnectPolicy(cfg.Reconnect.Base(), cfg.Reconnect.Cap(), cfg.Reconnect.MaxShift, cfg.Reconnect.Jitter)
}

// openCheckpointer returns the configured checkpoint backend and a close func.
// The sqlite backend is shared with the archive when both point at the same
// file.
func openCheckpointer(cfg *config.Config, archive *store.SQLite, logger *zap.Logger) (store.Checkpointer, func(), error) {
	noop := func() {}
	switch config.CheckpointBackend(cfg.Checkpoint.Backend) {
	case config.CheckpointFile:
		if err := os.MkdirAll(cfg.Checkpoint.Path, 0755); err != nil {
			return nil, noop, fmt.Errorf("creating checkpoint directory: %w", err)
		}
		return store.NewFileCheckpointer(cfg.Checkpoint.Path, logger), noop, nil

	case config.CheckpointSQLite:
		if archive != nil && cfg.Archive.Path == cfg.Checkpoint.Path {
			return archive, noop, nil
		}
		db, err := store.Open(cfg.Checkpoint.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("opening checkpoint database: %w", err)
		}
		return db, func() { _ = db.Close() }, nil

	default:
		return &store.NoopCheckpointer{}, noop, nil
	}
}
