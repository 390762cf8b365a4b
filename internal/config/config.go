package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Gateway    GatewayConfig    `mapstructure:"gateway"`
	Backfill   BackfillConfig   `mapstructure:"backfill"`
	Live       LiveConfig       `mapstructure:"live"`
	Reconnect  ReconnectConfig  `mapstructure:"reconnect"`
	Buffer     BufferConfig     `mapstructure:"buffer"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	Server     HTTPConfig       `mapstructure:"server"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type GatewayConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	WSPath     string `mapstructure:"ws_path"`
	EventsPath string `mapstructure:"events_path"`
}

type BackfillConfig struct {
	Transport     string `mapstructure:"transport"`
	Limit         int    `mapstructure:"limit"`
	MaxPages      int    `mapstructure:"max_pages"`
	RatePerSecond int    `mapstructure:"rate_per_second"`
	TimeoutSec    int    `mapstructure:"timeout_sec"`
	RetryCount    int    `mapstructure:"retry_count"`
	RetryDelayMS  int    `mapstructure:"retry_delay_ms"`
}

type LiveConfig struct {
	Protocol           string   `mapstructure:"protocol"`
	Subscriptions      []string `mapstructure:"subscriptions"`
	HandshakeTimeoutMS int      `mapstructure:"handshake_timeout_ms"`
	RequestTimeoutMS   int      `mapstructure:"request_timeout_ms"`
	PingPeriodSec      int      `mapstructure:"ping_period_sec"`
}

type ReconnectConfig struct {
	BaseMS   int     `mapstructure:"base_ms"`
	CapMS    int     `mapstructure:"cap_ms"`
	MaxShift int     `mapstructure:"max_shift"`
	Jitter   float64 `mapstructure:"jitter"`
}

type BufferConfig struct {
	Capacity int `mapstructure:"capacity"`
}

type CheckpointConfig struct {
	Backend    string `mapstructure:"backend"`
	Path       string `mapstructure:"path"`
	IntervalMS int    `mapstructure:"interval_ms"`
}

type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// NotifyConfig drives ntfy outage alerts.
type NotifyConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Server        string `mapstructure:"server"`
	Topic         string `mapstructure:"topic"`
	Priority      string `mapstructure:"priority"`
	Tags          string `mapstructure:"tags"`
	Token         string `mapstructure:"token"`
	AfterAttempts int    `mapstructure:"after_attempts"`
}

type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("gateway.base_url", "http://localhost:8080")
	v.SetDefault("gateway.ws_path", "/ws")
	v.SetDefault("gateway.events_path", "/api/events")
	v.SetDefault("backfill.transport", string(TransportHTTP))
	v.SetDefault("backfill.limit", 64)
	v.SetDefault("backfill.max_pages", 4)
	v.SetDefault("backfill.rate_per_second", 5)
	v.SetDefault("backfill.timeout_sec", 10)
	v.SetDefault("backfill.retry_count", 2)
	v.SetDefault("backfill.retry_delay_ms", 500)
	v.SetDefault("live.protocol", "gw-ws-1")
	v.SetDefault("live.subscriptions", []string{TopicEvents})
	v.SetDefault("live.handshake_timeout_ms", 3500)
	v.SetDefault("live.request_timeout_ms", 10000)
	v.SetDefault("live.ping_period_sec", 54)
	v.SetDefault("reconnect.base_ms", 250)
	v.SetDefault("reconnect.cap_ms", 5000)
	v.SetDefault("reconnect.max_shift", 5)
	v.SetDefault("reconnect.jitter", 0.1)
	v.SetDefault("buffer.capacity", 200)
	v.SetDefault("checkpoint.backend", string(CheckpointNone))
	v.SetDefault("checkpoint.path", ".gwsync") // directory for file, database for sqlite
	v.SetDefault("checkpoint.interval_ms", 1000)
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.path", "gwsync.db")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.addr", ":8090")
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.server", "https://ntfy.sh")
	v.SetDefault("notify.topic", "")
	v.SetDefault("notify.priority", "default")
	v.SetDefault("notify.tags", "satellite")
	v.SetDefault("notify.token", "")
	v.SetDefault("notify.after_attempts", 5)
	v.SetDefault("logging.enabled", false)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("GWSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// WSURL derives the websocket endpoint from the gateway base URL.
func (g GatewayConfig) WSURL() string {
	base := strings.TrimRight(g.BaseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/" + strings.TrimLeft(g.WSPath, "/")
}

func (b BackfillConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSec) * time.Second
}

func (b BackfillConfig) RetryDelay() time.Duration {
	return time.Duration(b.RetryDelayMS) * time.Millisecond
}

func (l LiveConfig) HandshakeTimeout() time.Duration {
	return time.Duration(l.HandshakeTimeoutMS) * time.Millisecond
}

func (l LiveConfig) RequestTimeout() time.Duration {
	return time.Duration(l.RequestTimeoutMS) * time.Millisecond
}

func (l LiveConfig) PingPeriod() time.Duration {
	return time.Duration(l.PingPeriodSec) * time.Second
}

func (r ReconnectConfig) Base() time.Duration {
	return time.Duration(r.BaseMS) * time.Millisecond
}

func (r ReconnectConfig) Cap() time.Duration {
	return time.Duration(r.CapMS) * time.Millisecond
}

func (c CheckpointConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}
