package gateway

import (
	"context"
	gosync "sync"

	"go.uber.org/zap"
)

// Hub tracks connected clients and their topic subscriptions.
type Hub struct {
	clients    map[*Client]bool
	topics     map[string]map[*Client]bool // topic -> clients
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         gosync.RWMutex
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		topics:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client, 16),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hub shutting down", zap.Int("clients", h.ClientCount()))
			h.shutdown()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", zap.String("connID", client.connID))

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		for topic := range client.topics {
			if clients, ok := h.topics[topic]; ok {
				delete(clients, client)
				if len(clients) == 0 {
					delete(h.topics, topic)
				}
			}
		}
	}
	h.mu.Unlock()
	client.closeSend()
	h.logger.Debug("client unregistered", zap.String("connID", client.connID))
}

func (h *Hub) shutdown() {
	close(h.done)
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
		delete(h.clients, client)
	}
	h.topics = make(map[string]map[*Client]bool)
	h.mu.Unlock()

	for _, client := range clients {
		client.closeSend()
	}
}

// Join subscribes a client to a topic.
func (h *Hub) Join(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]bool)
	}
	h.topics[topic][client] = true
	client.topics[topic] = true

	h.logger.Debug("client joined topic",
		zap.String("connID", client.connID),
		zap.String("topic", topic),
	)
}

// Leave unsubscribes a client from a topic.
func (h *Hub) Leave(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.topics[topic]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.topics, topic)
		}
	}
	delete(client.topics, topic)

	h.logger.Debug("client left topic",
		zap.String("connID", client.connID),
		zap.String("topic", topic),
	)
}

// Broadcast queues an event frame for every subscriber of topic. Clients
// whose send buffer is full are disconnected.
func (h *Hub) Broadcast(topic string, frame []byte) {
	h.mu.RLock()
	clients, ok := h.topics[topic]
	if !ok {
		h.mu.RUnlock()
		return
	}
	clientList := make([]*Client, 0, len(clients))
	for client := range clients {
		clientList = append(clientList, client)
	}
	h.mu.RUnlock()

	for _, client := range clientList {
		if !client.enqueue(outbound{payload: frame, event: true}) {
			h.logger.Warn("client too slow, disconnecting", zap.String("connID", client.connID))
			go h.drop(client)
		}
	}
}

// add registers a client. It reports false once the hub has stopped.
func (h *Hub) add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) drop(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
