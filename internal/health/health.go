package health

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/walter-sobchak-ai/hytopia-chess/internal/obslog"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/room"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/roomstore"
)

// Server is the ops sidecar: liveness plus a read-only room listing fed by
// the Redis mirror. It never touches live match state.
type Server struct {
	rooms *room.Manager
	store *roomstore.Store
	srv   *fasthttp.Server
}

func NewServer(rooms *room.Manager, store *roomstore.Store) *Server {
	s := &Server{rooms: rooms, store: store}
	s.srv = &fasthttp.Server{
		Handler:      s.handle,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	obslog.L().Info("ops endpoint listening", zap.String("addr", addr))
	return s.srv.ListenAndServe(addr)
}

func (s *Server) Shutdown() error {
	return s.srv.Shutdown()
}

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/healthz":
		s.healthz(ctx)
	case "/rooms":
		s.roomList(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

func (s *Server) healthz(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"status": "ok",
		"rooms":  s.rooms.Count(),
	})
}

func (s *Server) roomList(ctx *fasthttp.RequestCtx) {
	if s.store == nil {
		writeJSON(ctx, fasthttp.StatusOK, []roomstore.RoomSummary{})
		return
	}
	reqCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rooms, err := s.store.ListRooms(reqCtx)
	if err != nil {
		obslog.L().Warn("room listing failed", zap.Error(err))
		writeJSON(ctx, fasthttp.StatusInternalServerError, map[string]string{"error": "room listing unavailable"})
		return
	}
	if rooms == nil {
		rooms = []roomstore.RoomSummary{}
	}
	writeJSON(ctx, fasthttp.StatusOK, rooms)
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json; charset=utf-8")
	ctx.SetBody(raw)
}
