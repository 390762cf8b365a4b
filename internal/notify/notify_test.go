package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/config"
	gwsync "github.com/dgnsrekt/gwsync/internal/sync"
	"github.com/dgnsrekt/gwsync/internal/ws"
)

func TestClient_SendDisconnected(t *testing.T) {
	var gotTitle, gotPriority, gotAuth, gotBody, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTitle = r.Header.Get("Title")
		gotPriority = r.Header.Get("Priority")
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	}))
	defer srv.Close()

	c := NewClient(config.NotifyConfig{Enabled: true, Server: srv.URL + "/", Topic: "gw", Priority: "default", Tags: "satellite", Token: "tk"}, zap.NewNop())
	err := c.SendDisconnected(context.Background(), Outage{
		Gateway:   "gw.local",
		Attempts:  5,
		Cursor:    42,
		LastError: "connection refused",
		Since:     time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, "/gw", gotPath)
	assert.Equal(t, "Gateway unreachable: gw.local", gotTitle)
	assert.Equal(t, "high", gotPriority)
	assert.Equal(t, "Bearer tk", gotAuth)
	assert.Contains(t, gotBody, "Attempts: 5")
	assert.Contains(t, gotBody, "Cursor: 42")
	assert.Contains(t, gotBody, "Error: connection refused")
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(config.NotifyConfig{Enabled: true, Server: srv.URL, Topic: "gw", Priority: "default"}, zap.NewNop())
	err := c.SendRecovered(context.Background(), "gw.local", time.Minute, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestClient_DisabledSendsNothing(t *testing.T) {
	c := NewClient(config.NotifyConfig{Enabled: false, Server: "http://127.0.0.1:1"}, zap.NewNop())
	assert.NoError(t, c.SendDisconnected(context.Background(), Outage{}))
	assert.NoError(t, c.SendRecovered(context.Background(), "", 0, 0))
}

func TestNew_ReturnsNoopWhenDisabled(t *testing.T) {
	_, ok := New(config.NotifyConfig{}, zap.NewNop()).(*NoopNotifier)
	assert.True(t, ok)
}

type recordingNotifier struct {
	mu        gosync.Mutex
	outages   []Outage
	recovered []uint64
}

func (r *recordingNotifier) SendDisconnected(_ context.Context, o Outage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outages = append(r.outages, o)
	return nil
}

func (r *recordingNotifier) SendRecovered(_ context.Context, _ string, _ time.Duration, cursor uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recovered = append(r.recovered, cursor)
	return nil
}

func (r *recordingNotifier) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outages), len(r.recovered)
}

func TestMonitor_NotifiesOncePerOutage(t *testing.T) {
	rec := &recordingNotifier{}
	m := NewMonitor(rec, "gw.local", 3, zap.NewNop())
	ctx := context.Background()
	now := time.Now()

	for attempts := 1; attempts <= 6; attempts++ {
		m.handle(ctx, gwsync.Status{State: ws.StateDisconnected, Attempts: attempts, Cursor: 9, UpdatedAt: now, LastError: "refused"})
	}
	outages, recovered := rec.counts()
	require.Equal(t, 1, outages)
	assert.Equal(t, 0, recovered)
	assert.Equal(t, 3, rec.outages[0].Attempts)
	assert.Equal(t, "refused", rec.outages[0].LastError)

	m.handle(ctx, gwsync.Status{State: ws.StateLive, Cursor: 12})
	outages, recovered = rec.counts()
	assert.Equal(t, 1, outages)
	require.Equal(t, 1, recovered)
	assert.Equal(t, uint64(12), rec.recovered[0])

	// a short blip below the threshold stays quiet
	m.handle(ctx, gwsync.Status{State: ws.StateDisconnected, Attempts: 1, UpdatedAt: now})
	m.handle(ctx, gwsync.Status{State: ws.StateLive})
	outages, recovered = rec.counts()
	assert.Equal(t, 1, outages)
	assert.Equal(t, 1, recovered)
}

func TestMonitor_IgnoresPaused(t *testing.T) {
	rec := &recordingNotifier{}
	m := NewMonitor(rec, "gw.local", 1, zap.NewNop())

	m.handle(context.Background(), gwsync.Status{State: ws.StateDisconnected, Attempts: 4, Paused: true})
	outages, _ := rec.counts()
	assert.Equal(t, 0, outages)
}

func TestMonitor_RunDrainsObserved(t *testing.T) {
	rec := &recordingNotifier{}
	m := NewMonitor(rec, "gw.local", 1, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	m.Observe(gwsync.Status{State: ws.StateDisconnected, Attempts: 1, UpdatedAt: time.Now()})
	require.Eventually(t, func() bool {
		outages, _ := rec.counts()
		return outages == 1
	}, time.Second, 10*time.Millisecond)
}

func TestMonitor_RecoverySurvivesBurst(t *testing.T) {
	rec := &recordingNotifier{}
	m := NewMonitor(rec, "gw.local", 1, zap.NewNop())
	ctx := context.Background()

	m.handle(ctx, gwsync.Status{State: ws.StateDisconnected, Attempts: 2, UpdatedAt: time.Now()})
	outages, _ := rec.counts()
	require.Equal(t, 1, outages)

	// live, then a long burst of fresh disconnects before Run gets a look
	m.Observe(gwsync.Status{State: ws.StateLive, Cursor: 30})
	for i := 0; i < 500; i++ {
		m.Observe(gwsync.Status{State: ws.StateConnecting, Cursor: 30, UpdatedAt: time.Now()})
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go m.Run(runCtx)

	require.Eventually(t, func() bool {
		_, recovered := rec.counts()
		return recovered == 1
	}, time.Second, 10*time.Millisecond)
	rec.mu.Lock()
	assert.Equal(t, uint64(30), rec.recovered[0])
	rec.mu.Unlock()

	// the burst had no attempts yet, so it is not a second outage
	assert.Never(t, func() bool {
		outages, _ := rec.counts()
		return outages > 1
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestMonitor_ObserveCoalescesToLatest(t *testing.T) {
	rec := &recordingNotifier{}
	m := NewMonitor(rec, "gw.local", 3, zap.NewNop())

	for attempts := 1; attempts <= 200; attempts++ {
		m.Observe(gwsync.Status{State: ws.StateDisconnected, Attempts: attempts, UpdatedAt: time.Now()})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	require.Eventually(t, func() bool {
		outages, _ := rec.counts()
		return outages == 1
	}, time.Second, 10*time.Millisecond)
	rec.mu.Lock()
	assert.Equal(t, 200, rec.outages[0].Attempts)
	rec.mu.Unlock()
}

func TestFormatRecoveredMessage(t *testing.T) {
	msg := FormatRecoveredMessage("gw.local", 90*time.Second, 77)
	assert.True(t, strings.HasPrefix(msg, "Gateway: gw.local\n"))
	assert.Contains(t, msg, "Downtime: 1m30s")
	assert.Contains(t, msg, "Resumed from: 77")
}
