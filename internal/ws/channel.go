package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/data"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB

	// Send buffer size per connection.
	sendBufferSize = 256

	DefaultHandshakeTimeout = 3500 * time.Millisecond
	DefaultRequestTimeout   = 10 * time.Second
	DefaultPingPeriod       = 54 * time.Second
)

var (
	ErrNotConnected  = errors.New("live channel not connected")
	ErrChannelClosed = errors.New("live channel closed")
	ErrStaleEpoch    = errors.New("stale connection epoch")
)

// TransportError wraps dial, handshake, read and write failures. It is
// always recoverable by reconnecting.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("live channel %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MessageKind tags what a Message carries.
type MessageKind int

const (
	MessageAck MessageKind = iota
	MessageEvent
	MessageDisconnected
)

func (k MessageKind) String() string {
	switch k {
	case MessageAck:
		return "ack"
	case MessageEvent:
		return "event"
	case MessageDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Message is what a connection reports to its owner. Epoch identifies the
// Open call that produced it.
type Message struct {
	Epoch      uint64
	Kind       MessageKind
	State      ConnectionState
	ServerLast *uint64
	Event      data.Event
	Err        error
}

// Sink receives connection messages in arrival order. It is never called
// with the channel lock held.
type Sink func(Message)

type ChannelConfig struct {
	URL              string
	Protocol         string
	Subscriptions    []string
	HandshakeTimeout time.Duration
	RequestTimeout   time.Duration
	PingPeriod       time.Duration
	Dialer           *websocket.Dialer
}

// Channel is the push side of the sync client. It owns the connection
// state machine; at most one connection is current at any time.
type Channel struct {
	cfg      ChannelConfig
	dialer   *websocket.Dialer
	sink     Sink
	fsm      *StateMachine
	requests *requester
	logger   *zap.Logger

	mu    sync.Mutex
	epoch uint64
	conn  *connection
}

type connection struct {
	epoch  uint64
	since  uint64
	send   chan []byte
	done   chan struct{}
	cancel context.CancelFunc

	mu     sync.Mutex
	ws     *websocket.Conn
	closed bool
}

func NewChannel(cfg ChannelConfig, sink Sink, logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Protocol == "" {
		cfg.Protocol = ProtocolVersion
	}
	if len(cfg.Subscriptions) == 0 {
		cfg.Subscriptions = []string{TopicEvents}
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.PingPeriod <= 0 {
		cfg.PingPeriod = DefaultPingPeriod
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		}
	}
	if sink == nil {
		sink = func(Message) {}
	}

	c := &Channel{
		cfg:      cfg,
		dialer:   dialer,
		sink:     sink,
		requests: newRequester(logger),
		logger:   logger,
	}
	c.fsm = NewStateMachine(logger, c.stateChanged)
	return c
}

func (c *Channel) stateChanged(from, to ConnectionState) {
	c.logger.Info("live channel state changed",
		zap.String("from", string(from)),
		zap.String("state", string(to)),
		zap.String("url", c.cfg.URL),
	)
}

// State returns the current connection state.
func (c *Channel) State() ConnectionState {
	return c.fsm.Current()
}

// Epoch returns the epoch of the most recent Open or Close.
func (c *Channel) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Open starts connecting in the background and returns immediately with the
// epoch that tags every Message of the new connection.
func (c *Channel) Open(ctx context.Context, since uint64) (uint64, error) {
	c.mu.Lock()
	if err := c.fsm.Transition(StateConnecting); err != nil {
		c.mu.Unlock()
		return 0, err
	}
	c.epoch++
	connCtx, cancel := context.WithCancel(ctx)
	conn := &connection{
		epoch:  c.epoch,
		since:  since,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	c.conn = conn
	c.mu.Unlock()

	c.logger.Debug("opening live channel",
		zap.String("url", c.cfg.URL),
		zap.Uint64("since", since),
		zap.Uint64("epoch", conn.epoch),
	)

	go c.run(connCtx, conn)
	return conn.epoch, nil
}

// Close drops the current connection, if any, without reporting a
// disconnect message. It is safe to call in any state.
func (c *Channel) Close() {
	c.mu.Lock()
	c.epoch++
	conn := c.conn
	c.conn = nil
	c.fsm.Disconnect()
	c.mu.Unlock()

	if conn != nil {
		conn.close()
		c.requests.failEpoch(conn.epoch)
	}
}

// MarkLive ends catch-up for the connection opened at epoch.
func (c *Channel) MarkLive(epoch uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.conn.epoch != epoch {
		return ErrStaleEpoch
	}
	return c.fsm.Transition(StateLive)
}

func (c *Channel) current(conn *connection) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn == conn
}

func (c *Channel) run(ctx context.Context, conn *connection) {
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
	wsConn, _, err := c.dialer.DialContext(dialCtx, c.cfg.URL, nil)
	cancel()
	if err != nil {
		c.fail(conn, &TransportError{Op: "dial", Err: err})
		return
	}

	c.mu.Lock()
	if c.conn != conn || !conn.attach(wsConn) {
		c.mu.Unlock()
		_ = wsConn.Close()
		return
	}
	_ = c.fsm.Transition(StateHandshakePending)
	c.mu.Unlock()

	wsConn.SetReadLimit(maxMessageSize)
	go c.writePump(conn, wsConn)

	if err := conn.enqueue(BuildHello(c.cfg.Protocol, c.cfg.Subscriptions, conn.since)); err != nil {
		c.fail(conn, &TransportError{Op: "handshake", Err: err})
		return
	}

	_ = wsConn.SetReadDeadline(time.Now().Add(c.cfg.HandshakeTimeout))
	ack, err := c.awaitAck(wsConn)
	if err != nil {
		c.fail(conn, &TransportError{Op: "handshake", Err: err})
		return
	}

	next := StateCatchingUp
	if ack.EventLastID == nil || conn.since >= *ack.EventLastID {
		next = StateLive
	}

	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	_ = c.fsm.Transition(next)
	c.mu.Unlock()

	c.sink(Message{Epoch: conn.epoch, Kind: MessageAck, State: next, ServerLast: ack.EventLastID})

	pongWait := (c.cfg.PingPeriod * 10) / 9
	_ = wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		return wsConn.SetReadDeadline(time.Now().Add(pongWait))
	})
	c.readPump(conn, wsConn, pongWait)
}

// awaitAck reads until the hello acknowledgment. Anything else that arrives
// first is discarded.
func (c *Channel) awaitAck(wsConn *websocket.Conn) (*HelloAck, error) {
	for {
		_, raw, err := wsConn.ReadMessage()
		if err != nil {
			return nil, err
		}
		msg, err := ParseDownstream(raw)
		if err != nil {
			c.logger.Debug("failed to parse frame during handshake", zap.Error(err))
			continue
		}
		if ack, ok := msg.(*HelloAck); ok {
			if ack.Proto != "" && ack.Proto != c.cfg.Protocol {
				c.logger.Warn("gateway announced a different protocol",
					zap.String("want", c.cfg.Protocol),
					zap.String("got", ack.Proto),
				)
			}
			return ack, nil
		}
		c.logger.Debug("frame before hello ack discarded", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// readPump reads frames until the connection fails or is superseded.
func (c *Channel) readPump(conn *connection, wsConn *websocket.Conn, pongWait time.Duration) {
	for {
		_, raw, err := wsConn.ReadMessage()
		if err != nil {
			c.fail(conn, &TransportError{Op: "read", Err: err})
			return
		}
		_ = wsConn.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := ParseDownstream(raw)
		if err != nil {
			c.logger.Debug("failed to parse frame",
				zap.Uint64("epoch", conn.epoch),
				zap.Error(err),
			)
			continue
		}

		switch m := msg.(type) {
		case *data.Event:
			if !c.current(conn) {
				return
			}
			c.sink(Message{Epoch: conn.epoch, Kind: MessageEvent, Event: *m})
		case *Response:
			c.requests.resolve(m)
		case *HelloAck:
			c.logger.Debug("duplicate hello ack ignored", zap.Uint64("epoch", conn.epoch))
		case *Pong:
		}
	}
}

// writePump owns all data writes on the socket.
func (c *Channel) writePump(conn *connection, wsConn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-conn.done:
			return

		case frame := <-conn.send:
			_ = wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.fail(conn, &TransportError{Op: "write", Err: err})
				return
			}

		case <-ticker.C:
			_ = wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.fail(conn, &TransportError{Op: "ping", Err: err})
				return
			}
		}
	}
}

// fail tears down conn and, if it is still current, reports the loss.
func (c *Channel) fail(conn *connection, err error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		conn.close()
		return
	}
	c.conn = nil
	c.fsm.Disconnect()
	c.mu.Unlock()

	conn.close()
	c.requests.failEpoch(conn.epoch)

	c.logger.Debug("live channel lost",
		zap.Uint64("epoch", conn.epoch),
		zap.Error(err),
	)
	c.sink(Message{Epoch: conn.epoch, Kind: MessageDisconnected, State: StateDisconnected, Err: err})
}

func (cn *connection) attach(ws *websocket.Conn) bool {
	cn.mu.Lock()
	defer cn.mu.Unlock()
	if cn.closed {
		return false
	}
	cn.ws = ws
	return true
}

func (cn *connection) enqueue(frame []byte) error {
	select {
	case <-cn.done:
		return ErrNotConnected
	default:
	}
	select {
	case cn.send <- frame:
		return nil
	case <-cn.done:
		return ErrNotConnected
	default:
		return errors.New("send buffer full")
	}
}

func (cn *connection) close() {
	cn.mu.Lock()
	if cn.closed {
		cn.mu.Unlock()
		return
	}
	cn.closed = true
	ws := cn.ws
	cn.mu.Unlock()

	cn.cancel()
	close(cn.done)
	if ws != nil {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = ws.Close()
	}
}
