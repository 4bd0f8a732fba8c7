package gateway

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/walter-sobchak-ai/hytopia-chess/internal/obslog"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/room"
	"github.com/walter-sobchak-ai/hytopia-chess/pkg/matchdto"
)

const (
	pingInterval = 15 * time.Second
	writeTimeout = 5 * time.Second
	sendBuffer   = 64
)

// Server accepts websocket connections and routes each one to a room. A
// client addresses a room via the `room` query parameter and may carry a
// stable identity in `player`; anonymous connections get a minted guest ID.
type Server struct {
	rooms        *room.Manager
	allowOrigins map[string]bool
}

func NewServer(rooms *room.Manager, allowedOrigins []string) *Server {
	allow := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimSpace(o)
		if o != "" {
			allow[o] = true
		}
	}
	return &Server{rooms: rooms, allowOrigins: allow}
}

// Handler returns the HTTP mux for the websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	return mux
}

// client is one live connection. Send never blocks; a viewer that cannot
// drain its buffer loses intermediate frames, never the connection.
type client struct {
	identity string
	name     string
	send     chan matchdto.ServerEnvelope
}

func (c *client) Send(env matchdto.ServerEnvelope) {
	select {
	case c.send <- env:
	default:
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" && len(s.allowOrigins) > 0 && !s.allowOrigins[origin] {
		http.Error(w, "forbidden origin", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}

	identity := strings.TrimSpace(r.URL.Query().Get("player"))
	if identity == "" {
		identity = uuid.NewString()
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "Guest-" + identity[:min(8, len(identity))]
	}

	rm := s.rooms.GetOrCreate(r.URL.Query().Get("room"))
	c := &client{identity: identity, name: name, send: make(chan matchdto.ServerEnvelope, sendBuffer)}
	c.Send(matchdto.WelcomeMessage(rm.ID(), identity))
	rm.Join(identity, name, c)
	obslog.L().Info("client connected",
		zap.String("room", rm.ID()), zap.String("player", identity))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go s.writeLoop(ctx, conn, c)

	for {
		var env matchdto.ClientEnvelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			break
		}
		rm.Handle(identity, env)
	}

	cancel()
	s.rooms.Leave(rm.ID(), identity, name)
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	obslog.L().Info("client disconnected",
		zap.String("room", rm.ID()), zap.String("player", identity))
}

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, c *client) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, env)
			cancel()
			if err != nil {
				return
			}
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
