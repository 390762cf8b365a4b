package api

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/data"
	"github.com/dgnsrekt/gwsync/internal/ws"
)

// SocketClient pages the event log with events.list requests, each on its
// own short-lived websocket. It serves gateways that only expose the socket.
type SocketClient struct {
	url     string
	timeout time.Duration
	logger  *zap.Logger
}

var _ Fetcher = (*SocketClient)(nil)

func NewSocketClient(url string, timeout time.Duration, logger *zap.Logger) *SocketClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SocketClient{
		url:     url,
		timeout: timeout,
		logger:  logger,
	}
}

func (c *SocketClient) Fetch(ctx context.Context, since uint64, limit int) (*data.EventPage, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	resp, err := ws.Call(ctx, c.url, ws.MethodEventsList, map[string]any{"since": since, "limit": limit}, c.timeout, c.logger)
	if err != nil {
		return nil, &FetchError{Since: since, Err: err}
	}

	page, err := ws.DecodeEventPage(resp)
	if err != nil {
		return nil, &FetchError{Since: since, Err: err}
	}
	normalizePage(page, since, limit)

	c.logger.Debug("fetched events over socket",
		zap.Uint64("since", since),
		zap.Int("count", len(page.Events)),
		zap.Uint64("last_id", page.LastID),
	)
	return page, nil
}
