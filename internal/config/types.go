package config

// CheckpointBackend selects where the sync cursor is persisted between runs.
type CheckpointBackend string

const (
	CheckpointNone   CheckpointBackend = "none"
	CheckpointFile   CheckpointBackend = "file"
	CheckpointSQLite CheckpointBackend = "sqlite"
)

// ValidCheckpointBackends lists accepted checkpoint.backend values.
var ValidCheckpointBackends = map[CheckpointBackend]bool{
	CheckpointNone:   true,
	CheckpointFile:   true,
	CheckpointSQLite: true,
}

// BackfillTransport selects how history is paged.
type BackfillTransport string

const (
	TransportHTTP BackfillTransport = "http" // GET events_path
	TransportWS   BackfillTransport = "ws"   // events.list over a dedicated socket
)

var ValidBackfillTransports = map[BackfillTransport]bool{
	TransportHTTP: true,
	TransportWS:   true,
}

// MaxReconnectJitter is the largest jitter ratio the reconnect policy honors.
const MaxReconnectJitter = 0.5

var validPriorities = map[string]bool{
	"min": true, "low": true, "default": true, "high": true, "urgent": true,
}

// TopicEvents is the only subscription topic the sync client consumes.
const TopicEvents = "events"

// ValidTopics lists the subscription topics the gateway accepts.
var ValidTopics = map[string]bool{
	TopicEvents: true,
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}
