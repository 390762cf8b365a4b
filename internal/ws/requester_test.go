package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/data"
)

// serveRequests answers req frames: events.list gets a page, "slow" never
// answers, anything else is rejected. Every answer is preceded by a stray
// response that must be ignored.
func serveRequests(t *testing.T, conn *websocket.Conn) {
	readHello(t, conn)
	conn.WriteMessage(websocket.TextMessage, []byte(`{"t":"hello","proto":"gw-ws-1"}`))

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := ParseUpstream(raw)
		if err != nil {
			continue
		}
		req, ok := msg.(*Request)
		if !ok {
			continue
		}

		conn.WriteMessage(websocket.TextMessage, BuildResponse(json.RawMessage(`"stray"`), true, "", nil))
		switch req.Method {
		case MethodEventsList:
			var p struct {
				Since uint64 `json:"since"`
			}
			json.Unmarshal(req.Params, &p)
			page := data.EventPage{LastID: p.Since + 2, Events: []data.Event{{ID: p.Since + 1}, {ID: p.Since + 2}}}
			conn.WriteMessage(websocket.TextMessage, BuildResponse(req.ID, true, "", page))
		case "slow":
		default:
			conn.WriteMessage(websocket.TextMessage, BuildResponse(req.ID, false, "unknown method", nil))
		}
	}
}

func openLive(t *testing.T, ch *Channel, c *collector) {
	t.Helper()
	_, err := ch.Open(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, MessageAck, c.next(t).Kind)
}

func TestChannel_RequestMatchesResponse(t *testing.T) {
	url := newScriptedGateway(t, serveRequests)
	c := newCollector()
	ch := newTestChannel(t, url, c)
	openLive(t, ch, c)

	resp, err := ch.Request(context.Background(), MethodEventsList, map[string]any{"since": 40, "limit": 64})
	require.NoError(t, err)
	page, err := DecodeEventPage(resp)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), page.LastID)
	require.Len(t, page.Events, 2)
	assert.Equal(t, uint64(41), page.Events[0].ID)

	// request traffic never reaches the event sink
	c.none(t, 100*time.Millisecond)
	assert.Equal(t, 0, ch.requests.inFlight())
}

func TestChannel_RequestRejected(t *testing.T) {
	url := newScriptedGateway(t, serveRequests)
	c := newCollector()
	ch := newTestChannel(t, url, c)
	openLive(t, ch, c)

	resp, err := ch.Request(context.Background(), "devices.explode", nil)
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "unknown method", reqErr.Message)
	require.NotNil(t, resp)
	assert.False(t, resp.OK)
}

func TestChannel_RequestTimeout(t *testing.T) {
	url := newScriptedGateway(t, serveRequests)
	c := newCollector()
	ch := NewChannel(ChannelConfig{URL: url, RequestTimeout: 100 * time.Millisecond}, c.sink, zap.NewNop())
	defer ch.Close()
	openLive(t, ch, c)

	_, err := ch.Request(context.Background(), "slow", nil)
	assert.ErrorIs(t, err, ErrRequestTimeout)
	assert.Equal(t, 0, ch.requests.inFlight())
}

func TestChannel_RequestFailsOnClose(t *testing.T) {
	url := newScriptedGateway(t, serveRequests)
	c := newCollector()
	ch := NewChannel(ChannelConfig{URL: url, RequestTimeout: 5 * time.Second}, c.sink, zap.NewNop())
	openLive(t, ch, c)

	go func() {
		time.Sleep(50 * time.Millisecond)
		ch.Close()
	}()

	_, err := ch.Request(context.Background(), "slow", nil)
	assert.ErrorIs(t, err, ErrChannelClosed)
}

func TestChannel_RequestNotConnected(t *testing.T) {
	ch := NewChannel(ChannelConfig{URL: "ws://127.0.0.1:1/ws"}, nil, nil)

	_, err := ch.Request(context.Background(), MethodEventsList, nil)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestRequester_UnmatchedResponseIgnored(t *testing.T) {
	r := newRequester(zap.NewNop())
	id, ch := r.register(1)

	assert.False(t, r.resolve(&Response{ID: "other", OK: true}))
	assert.True(t, r.resolve(&Response{ID: id, OK: true}))
	assert.False(t, r.resolve(&Response{ID: id, OK: true}), "second response for the same id")

	resp := <-ch
	assert.True(t, resp.OK)
}

func TestRequester_FailEpoch(t *testing.T) {
	r := newRequester(zap.NewNop())
	_, old := r.register(1)
	_, cur := r.register(2)

	r.failEpoch(1)

	_, ok := <-old
	assert.False(t, ok)
	select {
	case <-cur:
		t.Fatal("request on a newer epoch must stay pending")
	default:
	}
	assert.Equal(t, 1, r.inFlight())
}

func TestCall_DedicatedSocket(t *testing.T) {
	url := newScriptedGateway(t, func(t *testing.T, conn *websocket.Conn) {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := ParseUpstream(raw)
		if err != nil {
			t.Errorf("parsing request: %v", err)
			return
		}
		req := msg.(*Request)
		conn.WriteMessage(websocket.TextMessage, BuildEvent(data.Event{ID: 1}))
		conn.WriteMessage(websocket.TextMessage, BuildResponse(json.RawMessage(`"wrong"`), true, "", nil))
		conn.WriteMessage(websocket.TextMessage, BuildResponse(req.ID, true, "", map[string]string{"method": req.Method}))
		drain(conn)
	})

	resp, err := Call(context.Background(), url, "devices.list", nil, time.Second, zap.NewNop())
	require.NoError(t, err)
	assert.JSONEq(t, `{"method":"devices.list"}`, string(resp.Result))
}

func TestCall_Timeout(t *testing.T) {
	url := newScriptedGateway(t, func(t *testing.T, conn *websocket.Conn) {
		drain(conn)
	})

	_, err := Call(context.Background(), url, "slow", nil, 100*time.Millisecond, nil)
	assert.ErrorIs(t, err, ErrRequestTimeout)
}
