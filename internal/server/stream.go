package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	gosync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/data"
	gwsync "github.com/dgnsrekt/gwsync/internal/sync"
)

const (
	DefaultStatusInterval = 5 * time.Second
	clientBufferSize      = 64
)

// Snapshot is the first SSE message a subscriber receives.
type Snapshot struct {
	Status gwsync.Status `json:"status"`
	Events []data.Event  `json:"events"`
}

// Stream fans engine updates out to SSE subscribers and emits a periodic
// status message.
type Stream struct {
	engine   Engine
	logger   *zap.Logger
	interval time.Duration

	mu       gosync.RWMutex
	sequence uint64
	clients  map[*sseClient]bool
}

type sseClient struct {
	remote  string
	dataCh  chan []byte
	flusher http.Flusher
	writer  http.ResponseWriter
}

func NewStream(engine Engine, interval time.Duration, logger *zap.Logger) *Stream {
	if interval <= 0 {
		interval = DefaultStatusInterval
	}
	return &Stream{
		engine:   engine,
		logger:   logger,
		interval: interval,
		clients:  make(map[*sseClient]bool),
	}
}

// Run forwards engine updates until ctx is done or the engine stops.
func (s *Stream) Run(ctx context.Context) {
	updates, cancel := s.engine.Subscribe()
	defer cancel()

	s.logger.Info("event stream starting", zap.Duration("status_interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("event stream stopping")
			return
		case u, ok := <-updates:
			if !ok {
				s.logger.Info("engine stopped, event stream closing")
				return
			}
			s.broadcast("event", u)
		case <-ticker.C:
			s.broadcast("status", s.engine.Status())
		}
	}
}

// HandleSSE streams a snapshot followed by event and status messages.
func (s *Stream) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &sseClient{
		remote:  r.RemoteAddr,
		dataCh:  make(chan []byte, clientBufferSize),
		flusher: flusher,
		writer:  w,
	}

	// register before the snapshot so nothing published in between is lost;
	// subscribers dedupe by event id
	s.addClient(client)
	defer s.removeClient(client)

	s.logger.Info("stream client connected", zap.String("remote_addr", client.remote))

	snapshot := Snapshot{Status: s.engine.Status(), Events: s.engine.Events()}
	if err := s.send(client, "snapshot", snapshot); err != nil {
		s.logger.Error("failed to send snapshot", zap.Error(err))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("stream client disconnected", zap.String("remote_addr", client.remote))
			return
		case msg := <-client.dataCh:
			if _, err := client.writer.Write(msg); err != nil {
				s.logger.Debug("failed to write to client", zap.Error(err))
				return
			}
			client.flusher.Flush()
		}
	}
}

func (s *Stream) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Stream) addClient(client *sseClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *Stream) removeClient(client *sseClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, client)
}

func (s *Stream) broadcast(eventType string, v any) {
	s.mu.RLock()
	clients := make([]*sseClient, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	msg, err := s.format(eventType, v)
	if err != nil {
		s.logger.Warn("failed to encode stream message", zap.String("type", eventType), zap.Error(err))
		return
	}

	for _, client := range clients {
		select {
		case client.dataCh <- msg:
		default:
			s.logger.Debug("client channel full, dropping message",
				zap.String("remote_addr", client.remote),
				zap.String("type", eventType),
			)
		}
	}
}

func (s *Stream) send(client *sseClient, eventType string, v any) error {
	msg, err := s.format(eventType, v)
	if err != nil {
		return err
	}
	if _, err := client.writer.Write(msg); err != nil {
		return err
	}
	client.flusher.Flush()
	return nil
}

func (s *Stream) format(eventType string, v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sequence++
	seq := s.sequence
	s.mu.Unlock()

	return []byte(fmt.Sprintf("event: %s\nid: %d\ndata: %s\n\n", eventType, seq, payload)), nil
}
