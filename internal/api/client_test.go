package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/data"
)

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/events" {
			t.Errorf("expected path /api/events, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("since") != "10" {
			t.Errorf("expected since=10, got %s", r.URL.Query().Get("since"))
		}
		if r.URL.Query().Get("limit") != "64" {
			t.Errorf("expected limit=64, got %s", r.URL.Query().Get("limit"))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(data.EventPage{
			LastID: 14,
			Events: []data.Event{
				{ID: 12, Type: "zigbee.attr", Source: "zigbee"},
				{ID: 11, Type: "zigbee.join", Source: "zigbee", Subject: "0x00124b0001"},
			},
		})
	}))
	defer server.Close()

	logger, _ := zap.NewDevelopment()
	client := NewClient(server.URL, "", 10, 30*time.Second, time.Second, 3, logger)

	page, err := client.Fetch(context.Background(), 10, 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if page.LastID != 14 {
		t.Errorf("expected last_id 14, got %d", page.LastID)
	}
	if len(page.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(page.Events))
	}
	if page.Events[0].ID != 11 || page.Events[1].ID != 12 {
		t.Errorf("expected events sorted by id, got %d,%d", page.Events[0].ID, page.Events[1].ID)
	}
}

func TestFetch_EmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"last_id":5,"events":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 10, 30*time.Second, time.Second, 0, zap.NewNop())

	page, err := client.Fetch(context.Background(), 5, 64)
	if err != nil {
		t.Fatalf("empty page should not be an error, got %v", err)
	}
	if len(page.Events) != 0 {
		t.Errorf("expected no events, got %d", len(page.Events))
	}
}

func TestFetch_DropsEventsAtOrBelowSince(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"last_id":9,"events":[{"id":7},{"id":8},{"id":9}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 10, 30*time.Second, time.Second, 0, zap.NewNop())

	page, err := client.Fetch(context.Background(), 8, 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Events) != 1 || page.Events[0].ID != 9 {
		t.Errorf("expected only event 9, got %+v", page.Events)
	}
}

func TestFetch_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 10, 30*time.Second, time.Second, 0, zap.NewNop())

	_, err := client.Fetch(context.Background(), 0, 64)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", fetchErr.StatusCode)
	}
}

func TestFetch_RateLimited(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 10, 30*time.Second, 10*time.Millisecond, 2, zap.NewNop())

	_, err := client.Fetch(context.Background(), 0, 64)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}

	// Should have attempted 3 times (initial + 2 retries)
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestFetch_ServerErrorRecovers(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "no mem", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"last_id":1,"events":[{"id":1,"type":"system.boot"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 10, 30*time.Second, 10*time.Millisecond, 2, zap.NewNop())

	page, err := client.Fetch(context.Background(), 0, 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Events) != 1 {
		t.Errorf("expected 1 event, got %d", len(page.Events))
	}
}

func TestFetch_ClampsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "128" {
			t.Errorf("expected limit clamped to 128, got %s", got)
		}
		w.Write([]byte(`{"last_id":0,"events":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 10, 30*time.Second, time.Second, 0, zap.NewNop())

	if _, err := client.Fetch(context.Background(), 0, 1000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
