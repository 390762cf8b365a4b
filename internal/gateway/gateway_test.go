package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/config"
	"github.com/dgnsrekt/gwsync/internal/data"
	"github.com/dgnsrekt/gwsync/internal/ws"
)

// startGateway serves a gateway seeded with n events and no generator.
func startGateway(t *testing.T, n int, dropAfter int) (*Gateway, *httptest.Server) {
	t.Helper()
	logger := zap.NewNop()
	gw := New(config.GatewayServerConfig{
		Capacity:    1024,
		ReplayLimit: 64,
		SeedEvents:  n,
		DropAfter:   dropAfter,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go gw.Run(ctx)

	srv := httptest.NewServer(NewRouter(gw, logger))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})

	require.Eventually(t, func() bool { return gw.LastID() == uint64(n) }, time.Second, 5*time.Millisecond)
	return gw, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := ws.ParseDownstream(raw)
	require.NoError(t, err, "frame %s", raw)
	return msg
}

func readEvent(t *testing.T, conn *websocket.Conn) *data.Event {
	t.Helper()
	e, ok := readFrame(t, conn).(*data.Event)
	require.True(t, ok)
	return e
}

func readResponse(t *testing.T, conn *websocket.Conn) *ws.Response {
	t.Helper()
	resp, ok := readFrame(t, conn).(*ws.Response)
	require.True(t, ok)
	return resp
}

func TestHTTP_ListEvents(t *testing.T) {
	_, srv := startGateway(t, 5, 0)

	resp, err := http.Get(srv.URL + "/api/events?since=2&limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page data.EventPage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, uint64(5), page.LastID)
	require.Len(t, page.Events, 2)
	assert.Equal(t, uint64(3), page.Events[0].ID)
	assert.Equal(t, uint64(4), page.Events[1].ID)
}

func TestHTTP_ListEventsInvalidSince(t *testing.T) {
	_, srv := startGateway(t, 0, 0)

	resp, err := http.Get(srv.URL + "/api/events?since=-1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTP_InjectEvent(t *testing.T) {
	gw, srv := startGateway(t, 2, 0)

	body := `{"type":"zigbee.attr_report","device_uid":"0x01","payload":{"value":21.5}}`
	resp, err := http.Post(srv.URL+"/api/events", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var stored data.Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stored))
	assert.Equal(t, uint64(3), stored.ID)
	assert.Equal(t, "inject", stored.Source)
	assert.True(t, stored.HasPayload())
	assert.Equal(t, uint64(3), gw.LastID())

	resp, err = http.Post(srv.URL+"/api/events", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWS_HelloAckThenReplayThenLive(t *testing.T) {
	gw, srv := startGateway(t, 5, 0)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, ws.BuildHello(ws.ProtocolVersion, []string{ws.TopicEvents}, 2)))

	ack, ok := readFrame(t, conn).(*ws.HelloAck)
	require.True(t, ok)
	assert.Equal(t, ws.ProtocolVersion, ack.Proto)
	require.NotNil(t, ack.EventLastID)
	assert.Equal(t, uint64(5), *ack.EventLastID)
	assert.True(t, ack.Caps["events"])

	for _, want := range []uint64{3, 4, 5} {
		assert.Equal(t, want, readEvent(t, conn).ID)
	}

	gw.Publish(data.Event{Type: "live"})
	e := readEvent(t, conn)
	assert.Equal(t, uint64(6), e.ID)
	assert.Equal(t, "live", e.Type)
}

func TestWS_HelloWithoutSubsDoesNotStream(t *testing.T) {
	gw, srv := startGateway(t, 3, 0)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, ws.BuildHello(ws.ProtocolVersion, nil, 0)))
	_, ok := readFrame(t, conn).(*ws.HelloAck)
	require.True(t, ok)

	gw.Publish(data.Event{Type: "unseen"})

	// a ping round trip proves nothing else was queued before the pong
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, ws.BuildPing()))
	_, ok = readFrame(t, conn).(*ws.Pong)
	assert.True(t, ok)
}

func TestWS_SubAndUnsub(t *testing.T) {
	gw, srv := startGateway(t, 4, 0)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, ws.BuildSubscription(ws.TopicEvents, 3, false)))
	assert.Equal(t, uint64(4), readEvent(t, conn).ID)

	gw.Publish(data.Event{Type: "x"})
	assert.Equal(t, uint64(5), readEvent(t, conn).ID)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, ws.BuildSubscription(ws.TopicEvents, 0, true)))
	require.Eventually(t, func() bool { return gw.hub.Subscribers(ws.TopicEvents) == 0 }, time.Second, 5*time.Millisecond)

	gw.Publish(data.Event{Type: "unseen"})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, ws.BuildPing()))
	_, ok := readFrame(t, conn).(*ws.Pong)
	assert.True(t, ok)
}

func TestWS_Requests(t *testing.T) {
	_, srv := startGateway(t, 5, 0)
	conn := dial(t, srv)

	frame, err := ws.BuildRequest("a1", ws.MethodEventsList, map[string]int{"since": 3, "limit": 1})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))

	resp := readResponse(t, conn)
	assert.Equal(t, "a1", resp.ID)
	require.True(t, resp.OK)
	page, err := ws.DecodeEventPage(resp)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), page.LastID)
	require.Len(t, page.Events, 1)
	assert.Equal(t, uint64(4), page.Events[0].ID)

	frame, err = ws.BuildRequest("a2", "devices.explode", nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
	resp = readResponse(t, conn)
	assert.Equal(t, "a2", resp.ID)
	assert.False(t, resp.OK)
	assert.Equal(t, "unknown method", resp.Err)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"t":"req","id":7}`)))
	resp = readResponse(t, conn)
	assert.Equal(t, "7", resp.ID)
	assert.Equal(t, "missing m", resp.Err)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{nope`)))
	resp = readResponse(t, conn)
	assert.False(t, resp.OK)
	assert.Equal(t, "invalid json", resp.Err)
}

func TestWS_DropAfter(t *testing.T) {
	_, srv := startGateway(t, 5, 2)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, ws.BuildHello(ws.ProtocolVersion, []string{ws.TopicEvents}, 0)))
	_, ok := readFrame(t, conn).(*ws.HelloAck)
	require.True(t, ok)
	assert.Equal(t, uint64(1), readEvent(t, conn).ID)
	assert.Equal(t, uint64(2), readEvent(t, conn).ID)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "connection must be dropped after two events")
}
