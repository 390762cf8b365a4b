package server

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/api/generated"
	"github.com/dgnsrekt/gwsync/internal/data"
	gwsync "github.com/dgnsrekt/gwsync/internal/sync"
	"github.com/dgnsrekt/gwsync/internal/ws"
)

// Engine is the part of the sync engine the HTTP surface drives.
type Engine interface {
	Events() []data.Event
	Status() gwsync.Status
	Subscribe() (<-chan gwsync.Update, func())
	Request(ctx context.Context, method string, params any) (*ws.Response, error)

	Start(ctx context.Context) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Clear(ctx context.Context) error
	Reset(ctx context.Context) error
	Refresh(ctx context.Context) error
}

var _ Engine = (*gwsync.Engine)(nil)

// Ensure Server implements StrictServerInterface
var _ generated.StrictServerInterface = (*Server)(nil)

type Server struct {
	engine Engine
	logger *zap.Logger
}

func NewServer(engine Engine, logger *zap.Logger) *Server {
	return &Server{
		engine: engine,
		logger: logger,
	}
}

// GetEvents returns the buffered view, optionally filtered to ids > since.
func (s *Server) GetEvents(ctx context.Context, request generated.GetEventsRequestObject) (generated.GetEventsResponseObject, error) {
	var since uint64
	if request.Params.Since != nil {
		since = *request.Params.Since
	}

	all := s.engine.Events()
	events := make([]data.Event, 0, len(all))
	for _, e := range all {
		if e.ID > since {
			events = append(events, e)
		}
	}

	return generated.GetEvents200JSONResponse{
		Cursor: s.engine.Status().Cursor,
		Count:  len(events),
		Events: events,
	}, nil
}

func (s *Server) GetStatus(ctx context.Context, request generated.GetStatusRequestObject) (generated.GetStatusResponseObject, error) {
	return generated.GetStatus200JSONResponse(s.engine.Status()), nil
}

// command runs one engine command and returns the HTTP status it maps to
// together with the body for that status.
func (s *Server) command(ctx context.Context, name string, fn func(context.Context) error) (int, generated.ErrorResponse) {
	err := fn(ctx)
	if err == nil {
		s.logger.Info("command applied", zap.String("command", name))
		return http.StatusOK, generated.ErrorResponse{}
	}

	s.logger.Warn("command failed", zap.String("command", name), zap.Error(err))
	body := generated.ErrorResponse{Error: err.Error()}
	switch {
	case errors.Is(err, gwsync.ErrNotStarted):
		return http.StatusConflict, body
	case errors.Is(err, gwsync.ErrEngineStopped):
		return http.StatusServiceUnavailable, body
	default:
		return http.StatusInternalServerError, body
	}
}

func (s *Server) PostStart(ctx context.Context, request generated.PostStartRequestObject) (generated.PostStartResponseObject, error) {
	switch code, body := s.command(ctx, "start", s.engine.Start); code {
	case http.StatusConflict:
		return generated.PostStart409JSONResponse{CommandConflictJSONResponse: generated.CommandConflictJSONResponse(body)}, nil
	case http.StatusServiceUnavailable:
		return generated.PostStart503JSONResponse{EngineStoppedJSONResponse: generated.EngineStoppedJSONResponse(body)}, nil
	case http.StatusInternalServerError:
		return generated.PostStart500JSONResponse{CommandFailedJSONResponse: generated.CommandFailedJSONResponse(body)}, nil
	}
	return generated.PostStart200JSONResponse{CommandAppliedJSONResponse: generated.CommandAppliedJSONResponse(s.engine.Status())}, nil
}

func (s *Server) PostPause(ctx context.Context, request generated.PostPauseRequestObject) (generated.PostPauseResponseObject, error) {
	switch code, body := s.command(ctx, "pause", s.engine.Pause); code {
	case http.StatusConflict:
		return generated.PostPause409JSONResponse{CommandConflictJSONResponse: generated.CommandConflictJSONResponse(body)}, nil
	case http.StatusServiceUnavailable:
		return generated.PostPause503JSONResponse{EngineStoppedJSONResponse: generated.EngineStoppedJSONResponse(body)}, nil
	case http.StatusInternalServerError:
		return generated.PostPause500JSONResponse{CommandFailedJSONResponse: generated.CommandFailedJSONResponse(body)}, nil
	}
	return generated.PostPause200JSONResponse{CommandAppliedJSONResponse: generated.CommandAppliedJSONResponse(s.engine.Status())}, nil
}

func (s *Server) PostResume(ctx context.Context, request generated.PostResumeRequestObject) (generated.PostResumeResponseObject, error) {
	switch code, body := s.command(ctx, "resume", s.engine.Resume); code {
	case http.StatusConflict:
		return generated.PostResume409JSONResponse{CommandConflictJSONResponse: generated.CommandConflictJSONResponse(body)}, nil
	case http.StatusServiceUnavailable:
		return generated.PostResume503JSONResponse{EngineStoppedJSONResponse: generated.EngineStoppedJSONResponse(body)}, nil
	case http.StatusInternalServerError:
		return generated.PostResume500JSONResponse{CommandFailedJSONResponse: generated.CommandFailedJSONResponse(body)}, nil
	}
	return generated.PostResume200JSONResponse{CommandAppliedJSONResponse: generated.CommandAppliedJSONResponse(s.engine.Status())}, nil
}

func (s *Server) PostClear(ctx context.Context, request generated.PostClearRequestObject) (generated.PostClearResponseObject, error) {
	switch code, body := s.command(ctx, "clear", s.engine.Clear); code {
	case http.StatusConflict:
		return generated.PostClear409JSONResponse{CommandConflictJSONResponse: generated.CommandConflictJSONResponse(body)}, nil
	case http.StatusServiceUnavailable:
		return generated.PostClear503JSONResponse{EngineStoppedJSONResponse: generated.EngineStoppedJSONResponse(body)}, nil
	case http.StatusInternalServerError:
		return generated.PostClear500JSONResponse{CommandFailedJSONResponse: generated.CommandFailedJSONResponse(body)}, nil
	}
	return generated.PostClear200JSONResponse{CommandAppliedJSONResponse: generated.CommandAppliedJSONResponse(s.engine.Status())}, nil
}

func (s *Server) PostReset(ctx context.Context, request generated.PostResetRequestObject) (generated.PostResetResponseObject, error) {
	switch code, body := s.command(ctx, "reset", s.engine.Reset); code {
	case http.StatusConflict:
		return generated.PostReset409JSONResponse{CommandConflictJSONResponse: generated.CommandConflictJSONResponse(body)}, nil
	case http.StatusServiceUnavailable:
		return generated.PostReset503JSONResponse{EngineStoppedJSONResponse: generated.EngineStoppedJSONResponse(body)}, nil
	case http.StatusInternalServerError:
		return generated.PostReset500JSONResponse{CommandFailedJSONResponse: generated.CommandFailedJSONResponse(body)}, nil
	}
	return generated.PostReset200JSONResponse{CommandAppliedJSONResponse: generated.CommandAppliedJSONResponse(s.engine.Status())}, nil
}

func (s *Server) PostRefresh(ctx context.Context, request generated.PostRefreshRequestObject) (generated.PostRefreshResponseObject, error) {
	switch code, body := s.command(ctx, "refresh", s.engine.Refresh); code {
	case http.StatusConflict:
		return generated.PostRefresh409JSONResponse{CommandConflictJSONResponse: generated.CommandConflictJSONResponse(body)}, nil
	case http.StatusServiceUnavailable:
		return generated.PostRefresh503JSONResponse{EngineStoppedJSONResponse: generated.EngineStoppedJSONResponse(body)}, nil
	case http.StatusInternalServerError:
		return generated.PostRefresh500JSONResponse{CommandFailedJSONResponse: generated.CommandFailedJSONResponse(body)}, nil
	}
	return generated.PostRefresh200JSONResponse{CommandAppliedJSONResponse: generated.CommandAppliedJSONResponse(s.engine.Status())}, nil
}

// PostRequest relays a one-shot gateway call over the live channel. The
// validator has already rejected bodies without a method.
func (s *Server) PostRequest(ctx context.Context, request generated.PostRequestRequestObject) (generated.PostRequestResponseObject, error) {
	body := request.Body
	if body == nil || body.Method == "" {
		return generated.PostRequest400JSONResponse{Error: "method is required"}, nil
	}

	var params any
	if len(body.Params) > 0 {
		params = body.Params
	}

	resp, err := s.engine.Request(ctx, body.Method, params)
	if err != nil {
		s.logger.Debug("gateway request failed", zap.String("method", body.Method), zap.Error(err))
		var reqErr *ws.RequestError
		switch {
		case errors.As(err, &reqErr) && resp != nil:
			return generated.PostRequest502JSONResponse(*resp), nil
		case errors.Is(err, ws.ErrNotConnected):
			return generated.PostRequest503JSONResponse{Error: err.Error()}, nil
		case errors.Is(err, ws.ErrRequestTimeout):
			return generated.PostRequest504JSONResponse{Error: err.Error()}, nil
		default:
			return generated.PostRequest502JSONResponse{OK: false, Err: err.Error()}, nil
		}
	}
	return generated.PostRequest200JSONResponse(*resp), nil
}
