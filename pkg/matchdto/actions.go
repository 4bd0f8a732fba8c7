package matchdto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Client envelope kinds.
const (
	KindReady  = "ui.ready"
	KindAction = "ui.action"
)

// Action names carried inside a ui.action envelope.
const (
	ActionLobbySet    = "lobby.set"
	ActionLobbyStart  = "lobby.start"
	ActionGameMove    = "game.move"
	ActionRematch     = "end.rematch"
	ActionBackToLobby = "end.backToLobby"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrBadPayload    = errors.New("bad action payload")
)

// ClientEnvelope is one inbound websocket message. Payload stays raw until
// the action name selects a shape for it.
type ClientEnvelope struct {
	Kind    string          `json:"kind"`
	Action  string          `json:"action,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type LobbySetPayload struct {
	Mode       *string `json:"mode,omitempty"`
	Difficulty *string `json:"difficulty,omitempty"`
}

type GameMovePayload struct {
	UCI string `json:"uci"`
}

// Action is the decoded, validated form of a ui.action envelope.
type Action struct {
	Name     string
	LobbySet *LobbySetPayload
	Move     *GameMovePayload
}

// DecodeAction validates a ui.action envelope. Unknown action names return
// ErrUnknownAction so the caller can drop them without tearing the
// connection down. A game.move shorter than four characters cannot name two
// squares and is rejected before it reaches the rules layer.
func (e ClientEnvelope) DecodeAction() (Action, error) {
	switch e.Action {
	case ActionLobbySet:
		var p LobbySetPayload
		if len(e.Payload) > 0 {
			if err := json.Unmarshal(e.Payload, &p); err != nil {
				return Action{}, fmt.Errorf("%w: %s", ErrBadPayload, e.Action)
			}
		}
		return Action{Name: e.Action, LobbySet: &p}, nil
	case ActionGameMove:
		var p GameMovePayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return Action{}, fmt.Errorf("%w: %s", ErrBadPayload, e.Action)
		}
		p.UCI = strings.TrimSpace(p.UCI)
		if len(p.UCI) < 4 {
			return Action{}, fmt.Errorf("%w: move %q too short", ErrBadPayload, p.UCI)
		}
		return Action{Name: e.Action, Move: &p}, nil
	case ActionLobbyStart, ActionRematch, ActionBackToLobby:
		return Action{Name: e.Action}, nil
	default:
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, e.Action)
	}
}
