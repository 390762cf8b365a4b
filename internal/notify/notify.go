package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/config"
)

// Notifier is the interface for sending connectivity notifications.
type Notifier interface {
	SendDisconnected(ctx context.Context, outage Outage) error
	SendRecovered(ctx context.Context, gateway string, downtime time.Duration, cursor uint64) error
}

// Client implements the ntfy notification client.
type Client struct {
	httpClient *http.Client
	config     config.NotifyConfig
	logger     *zap.Logger
}

// NewClient creates a new ntfy client.
func NewClient(cfg config.NotifyConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
	}
}

// SendDisconnected reports a gateway that stays unreachable.
func (c *Client) SendDisconnected(ctx context.Context, outage Outage) error {
	if !c.config.Enabled {
		return nil
	}

	title := fmt.Sprintf("Gateway unreachable: %s", outage.Gateway)
	message := FormatDisconnectedMessage(outage)
	tags := c.config.Tags + ",x"
	priority := "high" // Override to high priority for outages

	return c.send(ctx, title, message, tags, priority)
}

// SendRecovered reports that the live channel is back.
func (c *Client) SendRecovered(ctx context.Context, gateway string, downtime time.Duration, cursor uint64) error {
	if !c.config.Enabled {
		return nil
	}

	title := fmt.Sprintf("Gateway back online: %s", gateway)
	message := FormatRecoveredMessage(gateway, downtime, cursor)
	tags := c.config.Tags + ",white_check_mark"

	return c.send(ctx, title, message, tags, c.config.Priority)
}

func (c *Client) send(ctx context.Context, title, message, tags, priority string) error {
	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(c.config.Server, "/"), c.config.Topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("failed to send notification", zap.Error(err))
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain response body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("notification failed",
			zap.Int("status", resp.StatusCode),
			zap.String("url", url),
		)
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", zap.String("title", title))
	return nil
}

// NoopNotifier is a no-op implementation for when notifications are disabled.
type NoopNotifier struct{}

func (n *NoopNotifier) SendDisconnected(_ context.Context, _ Outage) error {
	return nil
}

func (n *NoopNotifier) SendRecovered(_ context.Context, _ string, _ time.Duration, _ uint64) error {
	return nil
}

// New creates the appropriate notifier based on config.
func New(cfg config.NotifyConfig, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return &NoopNotifier{}
	}
	return NewClient(cfg, logger)
}
