package room

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/walter-sobchak-ai/hytopia-chess/internal/engine"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/match"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/msgcat"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/obslog"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/roomstore"
	"github.com/walter-sobchak-ai/hytopia-chess/pkg/matchdto"
)

// Sender delivers outbound envelopes to one connected viewer. The gateway
// client implements it; tests use in-memory fakes.
type Sender interface {
	Send(env matchdto.ServerEnvelope)
}

// Room owns one Match and the viewers connected to it. A single mutex
// serializes every inbound action, including the synchronous computer reply,
// so no two actions against the same match ever interleave.
type Room struct {
	id    string
	cat   *msgcat.Catalog
	store *roomstore.Store

	mu        sync.Mutex
	match     *match.Match
	viewers   map[string]Sender
	joinOrder []string
}

func newRoom(id string, m *match.Match, cat *msgcat.Catalog, store *roomstore.Store) *Room {
	return &Room{
		id:      id,
		cat:     cat,
		store:   store,
		match:   m,
		viewers: make(map[string]Sender),
	}
}

func (r *Room) ID() string { return r.id }

// Join registers a viewer and tries to seat them. Seat conflicts leave the
// viewer spectating rather than rejecting the connection.
func (r *Room) Join(identity, name string, s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, known := r.viewers[identity]; !known {
		r.joinOrder = append(r.joinOrder, identity)
	}
	r.viewers[identity] = s

	if _, err := r.match.AssignSeat(identity); err != nil {
		// Seats are taken or the game is already running; the connection
		// stays open as a spectator.
		r.sendToast(identity, "lobby.spectating", nil)
	}
	r.broadcastToast("lobby.joined", map[string]string{"Name": name})
	r.broadcastState()
}

// Leave drops a viewer and applies the match disconnect policy. It reports
// whether the room is now empty.
func (r *Room) Leave(identity, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, known := r.viewers[identity]; !known {
		return len(r.viewers) == 0
	}
	delete(r.viewers, identity)
	for i, id := range r.joinOrder {
		if id == identity {
			r.joinOrder = append(r.joinOrder[:i], r.joinOrder[i+1:]...)
			break
		}
	}

	wasPlaying := r.match.Status() == match.StatusPlaying
	if r.match.HandleLeave(identity) && wasPlaying && r.match.Status() == match.StatusEnded {
		r.broadcastToast("end.disconnected", nil)
	}
	r.broadcastToast("lobby.left", map[string]string{"Name": name})
	r.broadcastState()
	return len(r.viewers) == 0
}

// Handle dispatches one inbound envelope from identity.
func (r *Room) Handle(identity string, env matchdto.ClientEnvelope) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch env.Kind {
	case matchdto.KindReady:
		r.sendState(identity)
	case matchdto.KindAction:
		action, err := env.DecodeAction()
		if err != nil {
			if errors.Is(err, matchdto.ErrUnknownAction) {
				return
			}
			r.sendToast(identity, "error.badAction", nil)
			return
		}
		r.dispatch(identity, action)
	}
}

func (r *Room) dispatch(identity string, action matchdto.Action) {
	switch action.Name {
	case matchdto.ActionLobbySet:
		r.setSelection(identity, action.LobbySet)
	case matchdto.ActionLobbyStart:
		r.start(identity)
	case matchdto.ActionGameMove:
		r.move(identity, action.Move.UCI)
	case matchdto.ActionRematch:
		r.rematch(identity)
	case matchdto.ActionBackToLobby:
		r.backToLobby(identity)
	}
}

func (r *Room) setSelection(identity string, payload *matchdto.LobbySetPayload) {
	var patch match.SelectionPatch
	if payload.Mode != nil {
		mode := match.ParseMode(*payload.Mode)
		patch.Mode = &mode
	}
	if payload.Difficulty != nil {
		difficulty := engine.ParseDifficulty(*payload.Difficulty)
		patch.Difficulty = &difficulty
	}
	if err := r.match.SetSelection(patch); err != nil {
		r.sendToast(identity, errorKey(err), nil)
		return
	}
	// The selection change cleared all seats; re-seat connected viewers in
	// the order they joined so colors stay predictable.
	for _, id := range r.joinOrder {
		if _, err := r.match.AssignSeat(id); err != nil {
			break
		}
	}
	r.broadcastState()
}

func (r *Room) start(identity string) {
	if err := r.match.Start(identity); err != nil {
		r.sendToast(identity, errorKey(err), nil)
		return
	}
	obslog.L().Info("game started", zap.String("room", r.id),
		zap.String("mode", string(r.match.Selection().Mode)))
	r.broadcastToast("lobby.started", nil)
	r.broadcastState()
}

func (r *Room) move(identity, uci string) {
	if err := r.match.ApplyMove(identity, uci); err != nil {
		r.sendToast(identity, errorKey(err), nil)
		return
	}
	if r.match.Status() == match.StatusEnded {
		r.broadcastToast(endToastKey(r.match.EndReason()),
			map[string]string{"Winner": r.match.Winner().String()})
	} else if r.match.StatusLabel() == "check" {
		r.broadcastToast("game.check", nil)
	}
	r.broadcastState()
}

func (r *Room) rematch(identity string) {
	if err := r.match.Rematch(identity); err != nil {
		r.sendToast(identity, errorKey(err), nil)
		return
	}
	if r.match.Status() == match.StatusPlaying {
		r.broadcastToast("end.rematch", nil)
	}
	r.broadcastState()
}

func (r *Room) backToLobby(identity string) {
	if err := r.match.BackToLobby(); err != nil {
		r.sendToast(identity, errorKey(err), nil)
		return
	}
	// Seats were cleared; reclaim them for everyone still connected.
	for _, id := range r.joinOrder {
		if _, err := r.match.AssignSeat(id); err != nil {
			break
		}
	}
	r.broadcastToast("end.backToLobby", nil)
	r.broadcastState()
}

func (r *Room) sendState(identity string) {
	if s, ok := r.viewers[identity]; ok {
		s.Send(matchdto.StateMessage(r.match.Snapshot(identity)))
	}
}

func (r *Room) broadcastState() {
	for identity, s := range r.viewers {
		s.Send(matchdto.StateMessage(r.match.Snapshot(identity)))
	}
	r.mirror()
}

func (r *Room) sendToast(identity, key string, data any) {
	if s, ok := r.viewers[identity]; ok {
		s.Send(matchdto.ToastMessage(r.cat.Line(key, data)))
	}
}

func (r *Room) broadcastToast(key string, data any) {
	text := r.cat.Line(key, data)
	for _, s := range r.viewers {
		s.Send(matchdto.ToastMessage(text))
	}
}

// mirror pushes the spectator view of the room into the live-state store.
func (r *Room) mirror() {
	if r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.store.SaveSnapshot(ctx, r.id, r.match.Snapshot("")); err != nil {
		obslog.L().Warn("mirror snapshot failed", zap.String("room", r.id), zap.Error(err))
	}
}

func errorKey(err error) string {
	switch {
	case errors.Is(err, match.ErrNotInLobby):
		return "error.notInLobby"
	case errors.Is(err, match.ErrRoomFull):
		return "error.roomFull"
	case errors.Is(err, match.ErrDuplicateSoloPlayer):
		return "error.duplicateSolo"
	case errors.Is(err, match.ErrNotPlaying):
		return "error.notPlaying"
	case errors.Is(err, match.ErrNotEnded):
		return "error.notEnded"
	case errors.Is(err, match.ErrNotYourTurn):
		return "error.notYourTurn"
	case errors.Is(err, match.ErrIllegalMove):
		return "error.illegalMove"
	case errors.Is(err, match.ErrNotReady):
		return "error.notReady"
	case errors.Is(err, match.ErrNotHost):
		return "error.notHost"
	default:
		return "error.badAction"
	}
}

func endToastKey(reason string) string {
	switch reason {
	case match.ReasonCheckmate:
		return "end.checkmate"
	case match.ReasonStalemate:
		return "end.stalemate"
	case match.ReasonInsufficientMaterial:
		return "end.insufficient"
	case match.ReasonThreefold:
		return "end.threefold"
	case match.ReasonDisconnected:
		return "end.disconnected"
	default:
		return "end.draw"
	}
}
