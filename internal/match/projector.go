package match

import (
	"github.com/walter-sobchak-ai/hytopia-chess/internal/rules"
	"github.com/walter-sobchak-ai/hytopia-chess/pkg/matchdto"
)

// Snapshot projects the match for one viewer. Spectators get an empty
// viewerColor; an ended match keeps the final game section visible alongside
// the result until the room resets.
func (m *Match) Snapshot(viewer string) *matchdto.Snapshot {
	switch m.status {
	case StatusLobby:
		return &matchdto.Snapshot{
			Phase: string(StatusLobby),
			Lobby: m.lobbyState(),
		}
	case StatusPlaying:
		return &matchdto.Snapshot{
			Phase: string(StatusPlaying),
			Game:  m.gameState(viewer),
		}
	default:
		return &matchdto.Snapshot{
			Phase: string(StatusEnded),
			Game:  m.gameState(viewer),
			End:   m.endState(),
		}
	}
}

func (m *Match) lobbyState() *matchdto.LobbyState {
	waiting := m.selection.Mode == Duo &&
		(m.seats[rules.White] == "" || m.seats[rules.Black] == "")
	return &matchdto.LobbyState{
		Mode:               string(m.selection.Mode),
		Difficulty:         string(m.selection.Difficulty),
		WaitingForOpponent: waiting,
	}
}

func (m *Match) gameState(viewer string) *matchdto.GameState {
	state := &matchdto.GameState{
		Position:   m.pos.FEN(),
		SideToMove: m.pos.SideToMove().String(),
		Status:     m.StatusLabel(),
		Winner:     m.winner.String(),
		LastMove:   m.lastMove,
	}
	if color, ok := m.SeatOf(viewer); ok {
		state.ViewerColor = color.String()
	}
	return state
}

func (m *Match) endState() *matchdto.EndState {
	result := "draw"
	if m.winner != "" {
		result = m.winner.String()
	}
	return &matchdto.EndState{Result: result, Reason: m.endReason}
}
