package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/data"
)

// MethodEventsList pages the gateway event log over the socket.
const MethodEventsList = "events.list"

var ErrRequestTimeout = errors.New("request timed out")

// RequestError is a response with ok=false.
type RequestError struct {
	Method  string
	Message string
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: request failed", e.Method)
	}
	return fmt.Sprintf("%s: %s", e.Method, e.Message)
}

type pendingRequest struct {
	epoch uint64
	ch    chan *Response
}

// requester correlates responses with in-flight requests by id. Responses
// nobody is waiting for are dropped.
type requester struct {
	mu      sync.Mutex
	pending map[string]pendingRequest
	logger  *zap.Logger
}

func newRequester(logger *zap.Logger) *requester {
	return &requester{
		pending: make(map[string]pendingRequest),
		logger:  logger,
	}
}

func (r *requester) register(epoch uint64) (string, <-chan *Response) {
	id := uuid.New().String()
	ch := make(chan *Response, 1)

	r.mu.Lock()
	r.pending[id] = pendingRequest{epoch: epoch, ch: ch}
	r.mu.Unlock()
	return id, ch
}

func (r *requester) cancel(id string) {
	r.mu.Lock()
	delete(r.pending, id)
	r.mu.Unlock()
}

func (r *requester) resolve(resp *Response) bool {
	r.mu.Lock()
	p, ok := r.pending[resp.ID]
	if ok {
		delete(r.pending, resp.ID)
	}
	r.mu.Unlock()

	if !ok {
		r.logger.Debug("response without pending request ignored", zap.String("id", resp.ID))
		return false
	}
	p.ch <- resp
	return true
}

// failEpoch wakes every request issued on the given connection.
func (r *requester) failEpoch(epoch uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.pending {
		if p.epoch == epoch {
			close(p.ch)
			delete(r.pending, id)
		}
	}
}

func (r *requester) inFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Request sends a one-shot call over the current connection and waits for
// the matching response. Responses never reach the event sink.
func (c *Channel) Request(ctx context.Context, method string, params any) (*Response, error) {
	c.mu.Lock()
	conn := c.conn
	state := c.fsm.Current()
	c.mu.Unlock()

	if conn == nil || (state != StateCatchingUp && state != StateLive) {
		return nil, ErrNotConnected
	}

	id, ch := c.requests.register(conn.epoch)
	defer c.requests.cancel(id)

	frame, err := BuildRequest(id, method, params)
	if err != nil {
		return nil, err
	}
	if err := conn.enqueue(frame); err != nil {
		return nil, &TransportError{Op: "request", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrChannelClosed
		}
		if !resp.OK {
			return resp, &RequestError{Method: method, Message: resp.Err}
		}
		return resp, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w", method, ErrRequestTimeout)
		}
		return nil, ctx.Err()
	}
}

// DecodeEventPage reads an events.list result.
func DecodeEventPage(resp *Response) (*data.EventPage, error) {
	var page data.EventPage
	if len(resp.Result) == 0 {
		return &page, nil
	}
	if err := json.Unmarshal(resp.Result, &page); err != nil {
		return nil, fmt.Errorf("decoding events.list result: %w", err)
	}
	return &page, nil
}
