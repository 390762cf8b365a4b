package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// GatewayServerConfig configures the local gateway double served by fakegw.
type GatewayServerConfig struct {
	Port string
	// Event log
	Capacity    int
	ReplayLimit int
	SeedEvents  int
	// Synthetic traffic
	GenerateEnabled  bool
	GenerateInterval time.Duration
	// Failure injection
	DropAfter int // close every websocket after this many pushed events, 0 disables
}

func LoadGatewayServerConfig() (*GatewayServerConfig, error) {
	interval, err := time.ParseDuration(getEnvOrDefault("FAKEGW_INTERVAL", "1s"))
	if err != nil {
		interval = time.Second // Default to 1s on parse error
	}

	capacity, err := strconv.Atoi(getEnvOrDefault("FAKEGW_CAPACITY", "1024"))
	if err != nil {
		return nil, fmt.Errorf("invalid FAKEGW_CAPACITY: %w", err)
	}
	replay, err := strconv.Atoi(getEnvOrDefault("FAKEGW_REPLAY_LIMIT", "64"))
	if err != nil {
		return nil, fmt.Errorf("invalid FAKEGW_REPLAY_LIMIT: %w", err)
	}
	seed, err := strconv.Atoi(getEnvOrDefault("FAKEGW_SEED_EVENTS", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid FAKEGW_SEED_EVENTS: %w", err)
	}
	dropAfter, err := strconv.Atoi(getEnvOrDefault("FAKEGW_DROP_AFTER", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid FAKEGW_DROP_AFTER: %w", err)
	}

	cfg := &GatewayServerConfig{
		Port:             getEnvOrDefault("PORT", "8080"),
		Capacity:         capacity,
		ReplayLimit:      replay,
		SeedEvents:       seed,
		GenerateEnabled:  getEnvOrDefault("FAKEGW_GENERATE", "true") == "true",
		GenerateInterval: interval,
		DropAfter:        dropAfter,
	}

	// Validate
	if cfg.Capacity < 1 {
		return nil, fmt.Errorf("invalid FAKEGW_CAPACITY: %d (must be >= 1)", cfg.Capacity)
	}
	if cfg.ReplayLimit < 0 {
		return nil, fmt.Errorf("invalid FAKEGW_REPLAY_LIMIT: %d (must be >= 0)", cfg.ReplayLimit)
	}
	if cfg.SeedEvents < 0 || cfg.DropAfter < 0 {
		return nil, fmt.Errorf("FAKEGW_SEED_EVENTS and FAKEGW_DROP_AFTER must be >= 0")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
