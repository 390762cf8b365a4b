package gateway

import (
	"context"
	"strings"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/api"
	"github.com/dgnsrekt/gwsync/internal/data"
	gwsync "github.com/dgnsrekt/gwsync/internal/sync"
	"github.com/dgnsrekt/gwsync/internal/ws"
)

// runSyncEngine wires a real engine to the gateway at srvURL, backfilling
// over HTTP.
func runSyncEngine(t *testing.T, srvURL string, opts ...gwsync.Option) *gwsync.Engine {
	t.Helper()
	fetcher := api.NewClient(srvURL, api.DefaultEventsPath, 100, time.Second, 10*time.Millisecond, 1, zap.NewNop())
	return runSyncEngineWith(t, srvURL, fetcher, opts...)
}

func runSyncEngineWith(t *testing.T, srvURL string, fetcher api.Fetcher, opts ...gwsync.Option) *gwsync.Engine {
	t.Helper()
	logger := zap.NewNop()
	wsURL := socketURL(srvURL)

	policy := gwsync.NewReconnectPolicy(10*time.Millisecond, 100*time.Millisecond, 5, 0)
	opts = append([]gwsync.Option{gwsync.WithLogger(logger), gwsync.WithReconnectPolicy(policy)}, opts...)

	engine := gwsync.NewEngine(fetcher, func(sink ws.Sink) gwsync.LiveChannel {
		return ws.NewChannel(ws.ChannelConfig{URL: wsURL, HandshakeTimeout: time.Second}, sink, logger)
	}, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		engine.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return engine
}

func socketURL(srvURL string) string {
	return "ws" + strings.TrimPrefix(srvURL, "http") + "/ws"
}

func TestSync_SocketBackfillThenLive(t *testing.T) {
	gw, srv := startGateway(t, 150, 0)
	fetcher := api.NewSocketClient(socketURL(srv.URL), time.Second, zap.NewNop())
	engine := runSyncEngineWith(t, srv.URL, fetcher)

	var (
		mu   gosync.Mutex
		seen = map[uint64]bool{}
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Follow(ctx, func(_ context.Context, u gwsync.Update) error {
		mu.Lock()
		seen[u.Event.ID] = true
		mu.Unlock()
		return nil
	})

	require.NoError(t, engine.Start(context.Background()))
	require.Eventually(t, func() bool { return engine.State() == ws.StateLive }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, uint64(150), engine.Cursor())

	gw.Publish(data.Event{Type: "live"})
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen[151]
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for id := uint64(1); id <= 151; id++ {
		assert.True(t, seen[id], "event %d missing", id)
	}
}

func TestSync_BackfillThenLive(t *testing.T) {
	gw, srv := startGateway(t, 10, 0)
	engine := runSyncEngine(t, srv.URL)
	updates, cancel := engine.Subscribe()
	defer cancel()

	require.NoError(t, engine.Start(context.Background()))
	require.Eventually(t, func() bool { return engine.State() == ws.StateLive }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, uint64(10), engine.Cursor())

	for i := 0; i < 10; i++ {
		u := <-updates
		assert.False(t, u.New, "backfilled event %d must not be new", u.Event.ID)
	}

	gw.Publish(data.Event{Type: "live"})
	select {
	case u := <-updates:
		assert.Equal(t, uint64(11), u.Event.ID)
		assert.True(t, u.New)
	case <-time.After(2 * time.Second):
		t.Fatal("live event not delivered")
	}

	resp, err := engine.Request(context.Background(), ws.MethodEventsList, map[string]int{"since": 9})
	require.NoError(t, err)
	page, err := ws.DecodeEventPage(resp)
	require.NoError(t, err)
	assert.Len(t, page.Events, 2)
	assert.Len(t, engine.Events(), 11, "request responses never enter the buffer")
}

func TestSync_ReconnectsWithoutGaps(t *testing.T) {
	gw, srv := startGateway(t, 3, 2)
	engine := runSyncEngine(t, srv.URL)

	require.NoError(t, engine.Start(context.Background()))
	require.Eventually(t, func() bool { return engine.State() == ws.StateLive }, 2*time.Second, 10*time.Millisecond)

	for i := 0; i < 9; i++ {
		gw.Publish(data.Event{Type: "burst"})
		time.Sleep(20 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return engine.Cursor() == 12 }, 5*time.Second, 10*time.Millisecond)
	events := engine.Events()
	require.Len(t, events, 12)
	for i, e := range events {
		assert.Equal(t, uint64(i+1), e.ID)
	}
}

func TestSync_ResetRebuildsFromZero(t *testing.T) {
	_, srv := startGateway(t, 5, 0)
	engine := runSyncEngine(t, srv.URL, gwsync.WithCapacity(3))

	require.NoError(t, engine.Start(context.Background()))
	require.Eventually(t, func() bool { return engine.State() == ws.StateLive }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []uint64{3, 4, 5}, ids(engine.Events()))

	require.NoError(t, engine.Reset(context.Background()))
	require.Eventually(t, func() bool {
		return engine.State() == ws.StateLive && engine.Cursor() == 5
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []uint64{3, 4, 5}, ids(engine.Events()))
}

func ids(events []data.Event) []uint64 {
	out := make([]uint64, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}
