package ws

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Call performs one request on a dedicated socket: open, send, wait for the
// response with the same id, close. Both the open and the wait are bounded
// by timeout.
func Call(ctx context.Context, url, method string, params any, timeout time.Duration, logger *zap.Logger) (*Response, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.DialContext(dialCtx, url, nil)
	if err != nil {
		return nil, &TransportError{Op: "dial", Err: fmt.Errorf("open timeout or error: %w", err)}
	}
	defer conn.Close()

	id := uuid.New().String()
	frame, err := BuildRequest(id, method, params)
	if err != nil {
		return nil, err
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return nil, &TransportError{Op: "write", Err: err}
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetReadDeadline(deadline)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
				return nil, fmt.Errorf("%s: %w", method, ErrRequestTimeout)
			}
			return nil, &TransportError{Op: "read", Err: err}
		}

		msg, err := ParseDownstream(raw)
		if err != nil {
			logger.Debug("failed to parse frame", zap.String("method", method), zap.Error(err))
			continue
		}
		resp, ok := msg.(*Response)
		if !ok {
			continue
		}
		if resp.ID != id {
			logger.Debug("ignoring response with wrong id",
				zap.String("got", resp.ID),
				zap.String("want", id),
			)
			continue
		}

		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))

		if !resp.OK {
			return resp, &RequestError{Method: method, Message: resp.Err}
		}
		return resp, nil
	}
}
