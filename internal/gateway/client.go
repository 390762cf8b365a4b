package gateway

import (
	"encoding/json"
	"net/http"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/ws"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024

	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type outbound struct {
	payload []byte
	event   bool
}

// Client is one websocket connection to the gateway.
type Client struct {
	gw     *Gateway
	conn   *websocket.Conn
	connID string
	topics map[string]bool // guarded by the hub lock
	logger *zap.Logger

	mu     gosync.Mutex
	send   chan outbound
	closed bool

	// dropAfter closes the socket after that many event frames; 0 disables
	dropAfter int
}

// HandleWS upgrades the request and starts the client pumps.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		gw:        g,
		conn:      conn,
		connID:    uuid.New().String(),
		topics:    make(map[string]bool),
		logger:    g.logger,
		send:      make(chan outbound, sendBufferSize),
		dropAfter: g.cfg.DropAfter,
	}
	if !g.hub.add(client) {
		conn.Close()
		return
	}

	g.logger.Debug("websocket connected",
		zap.String("connID", client.connID),
		zap.String("remote", r.RemoteAddr),
	)

	go client.writePump()
	go client.readPump()
}

// enqueue queues a frame without blocking. It reports false when the buffer
// is full or the client is gone.
func (c *Client) enqueue(msg outbound) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) reply(frame []byte) {
	if !c.enqueue(outbound{payload: frame}) {
		c.logger.Debug("dropping reply", zap.String("connID", c.connID))
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump reads frames from the connection.
func (c *Client) readPump() {
	defer func() {
		c.gw.hub.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
			}
			break
		}
		c.handleMessage(message)
	}
}

// writePump writes queued frames and keepalive pings to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	sent := 0
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg.payload); err != nil {
				c.logger.Debug("websocket write error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
				return
			}
			if msg.event {
				sent++
				if c.dropAfter > 0 && sent >= c.dropAfter {
					c.logger.Info("dropping connection",
						zap.String("connID", c.connID),
						zap.Int("events", sent),
					)
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes one upstream frame.
func (c *Client) handleMessage(raw []byte) {
	if !json.Valid(raw) {
		c.reply([]byte(`{"t":"rsp","ok":false,"err":"invalid json"}`))
		return
	}

	msg, err := ws.ParseUpstream(raw)
	if err != nil {
		c.logger.Debug("failed to parse upstream frame",
			zap.String("connID", c.connID),
			zap.Error(err),
		)
		return
	}

	switch m := msg.(type) {
	case *ws.Hello:
		c.gw.hello(c, m)

	case *ws.Subscription:
		if m.Topic != ws.TopicEvents {
			c.logger.Debug("ignoring unknown topic",
				zap.String("connID", c.connID),
				zap.String("topic", m.Topic),
			)
			return
		}
		if m.Unsubscribe {
			c.gw.hub.Leave(c, m.Topic)
			return
		}
		c.gw.subscribe(c, m.Since)

	case *ws.Ping:
		c.reply(ws.BuildPong())

	case *ws.Request:
		c.reply(c.gw.handleRequest(m))
	}
}
