package config

import (
	"fmt"
	"sort"
	"strings"
)

// InvalidField represents a setting outside its accepted range
type InvalidField struct {
	Key    string
	Reason string
}

// ValidationErrors collects all validation errors
type ValidationErrors struct {
	InvalidFields []InvalidField
	InvalidTopics []string
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.InvalidFields) > 0 || len(e.InvalidTopics) > 0
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")

	if len(e.InvalidFields) > 0 {
		sb.WriteString("\nInvalid settings:\n")
		for _, f := range e.InvalidFields {
			sb.WriteString(fmt.Sprintf("  - %s: %s\n", f.Key, f.Reason))
		}
	}

	if len(e.InvalidTopics) > 0 {
		sb.WriteString("\nInvalid subscriptions:\n")
		for _, t := range e.InvalidTopics {
			sb.WriteString(fmt.Sprintf("  - %s\n", t))
		}
		sb.WriteString(fmt.Sprintf("\nValid subscriptions: %s\n", validTopicsList()))
	}

	return sb.String()
}

func (e *ValidationErrors) add(key, format string, args ...any) {
	e.InvalidFields = append(e.InvalidFields, InvalidField{Key: key, Reason: fmt.Sprintf(format, args...)})
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if c.Gateway.BaseURL == "" {
		errs.add("gateway.base_url", "is required")
	} else if !strings.HasPrefix(c.Gateway.BaseURL, "http://") && !strings.HasPrefix(c.Gateway.BaseURL, "https://") {
		errs.add("gateway.base_url", "must start with http:// or https://, got %q", c.Gateway.BaseURL)
	}

	if !ValidBackfillTransports[BackfillTransport(c.Backfill.Transport)] {
		errs.add("backfill.transport", "must be http or ws, got %q", c.Backfill.Transport)
	}
	if c.Backfill.Limit < 1 || c.Backfill.Limit > 128 {
		errs.add("backfill.limit", "must be between 1 and 128, got %d", c.Backfill.Limit)
	}
	if c.Backfill.MaxPages < 1 {
		errs.add("backfill.max_pages", "must be >= 1, got %d", c.Backfill.MaxPages)
	}
	if c.Backfill.RatePerSecond < 1 {
		errs.add("backfill.rate_per_second", "must be >= 1, got %d", c.Backfill.RatePerSecond)
	}
	if c.Backfill.RetryCount < 0 {
		errs.add("backfill.retry_count", "must be >= 0, got %d", c.Backfill.RetryCount)
	}

	if c.Live.Protocol == "" {
		errs.add("live.protocol", "is required")
	}
	if c.Live.HandshakeTimeoutMS < 1 {
		errs.add("live.handshake_timeout_ms", "must be > 0, got %d", c.Live.HandshakeTimeoutMS)
	}
	if c.Live.RequestTimeoutMS < 1 {
		errs.add("live.request_timeout_ms", "must be > 0, got %d", c.Live.RequestTimeoutMS)
	}
	if c.Live.PingPeriodSec < 1 {
		errs.add("live.ping_period_sec", "must be > 0, got %d", c.Live.PingPeriodSec)
	}
	validateTopics(errs, c.Live.Subscriptions)

	if c.Reconnect.BaseMS < 1 {
		errs.add("reconnect.base_ms", "must be > 0, got %d", c.Reconnect.BaseMS)
	}
	if c.Reconnect.CapMS < c.Reconnect.BaseMS {
		errs.add("reconnect.cap_ms", "must be >= base_ms (%d), got %d", c.Reconnect.BaseMS, c.Reconnect.CapMS)
	}
	if c.Reconnect.MaxShift < 0 || c.Reconnect.MaxShift > 30 {
		errs.add("reconnect.max_shift", "must be between 0 and 30, got %d", c.Reconnect.MaxShift)
	}
	if c.Reconnect.Jitter < 0 || c.Reconnect.Jitter > MaxReconnectJitter {
		errs.add("reconnect.jitter", "must be in [0, %g], got %g", MaxReconnectJitter, c.Reconnect.Jitter)
	}

	if c.Buffer.Capacity < 1 {
		errs.add("buffer.capacity", "must be >= 1, got %d", c.Buffer.Capacity)
	}

	backend := CheckpointBackend(c.Checkpoint.Backend)
	if !ValidCheckpointBackends[backend] {
		errs.add("checkpoint.backend", "must be one of none, file, sqlite, got %q", c.Checkpoint.Backend)
	} else if backend != CheckpointNone && c.Checkpoint.Path == "" {
		errs.add("checkpoint.path", "is required for backend %s", backend)
	}

	if c.Archive.Enabled && c.Archive.Path == "" {
		errs.add("archive.path", "is required when archive is enabled")
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		errs.add("server.addr", "is required when server is enabled")
	}
	if c.Notify.AfterAttempts < 1 {
		errs.add("notify.after_attempts", "must be >= 1, got %d", c.Notify.AfterAttempts)
	}
	if c.Notify.Enabled {
		if c.Notify.Topic == "" {
			errs.add("notify.topic", "is required when notify is enabled")
		}
		if !validPriorities[c.Notify.Priority] {
			errs.add("notify.priority", "must be one of min, low, default, high, urgent, got %q", c.Notify.Priority)
		}
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs.add("logging.level", "must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateTopics(errs *ValidationErrors, topics []string) {
	if len(topics) == 0 {
		errs.add("live.subscriptions", "at least one topic is required")
		return
	}
	for _, topic := range topics {
		if !ValidTopics[topic] {
			errs.InvalidTopics = append(errs.InvalidTopics, topic)
		}
	}
}

func validTopicsList() string {
	topics := make([]string, 0, len(ValidTopics))
	for t := range ValidTopics {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return strings.Join(topics, ", ")
}
