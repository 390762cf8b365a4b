package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/data"
	"github.com/dgnsrekt/gwsync/internal/server"
)

// NewRouter serves the historical endpoint, the push socket and an inject
// endpoint for tests and demos.
func NewRouter(g *Gateway, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(server.CORS)
	r.Use(server.ZapLogger(logger))

	r.Get("/ws", g.HandleWS)
	r.Route("/api", func(r chi.Router) {
		r.Get("/events", g.handleListEvents)
		r.Post("/events", g.handleInjectEvent)
		r.Get("/health", g.handleHealth)
	})

	return r
}

func (g *Gateway) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var since uint64
	if v := q.Get("since"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			server.WriteError(w, http.StatusBadRequest, "invalid since")
			return
		}
		since = parsed
	}

	limit := DefaultReplayLimit
	if v := q.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			server.WriteError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	server.WriteJSON(w, http.StatusOK, g.List(since, limit))
}

func (g *Gateway) handleInjectEvent(w http.ResponseWriter, r *http.Request) {
	var e data.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageSize)).Decode(&e); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid event: "+err.Error())
		return
	}
	if e.Type == "" {
		server.WriteError(w, http.StatusBadRequest, "type is required")
		return
	}
	if e.Source == "" {
		e.Source = "inject"
	}

	stored := g.Publish(e)
	g.logger.Debug("event injected", zap.Uint64("id", stored.ID), zap.String("type", stored.Type))
	server.WriteJSON(w, http.StatusCreated, stored)
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"last_id": g.LastID(),
		"events":  g.log.Len(),
		"clients": g.ClientCount(),
	})
}
