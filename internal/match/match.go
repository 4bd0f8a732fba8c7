package match

import (
	"go.uber.org/zap"

	"github.com/walter-sobchak-ai/hytopia-chess/internal/obslog"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/rules"
)

// Match is the aggregate root for one room: selection, seats, position and
// outcome. It is not safe for concurrent use; the owning room controller
// serializes every call.
type Match struct {
	status    Status
	selection Selection
	seats     map[rules.Color]string
	pos       *rules.Position
	searcher  Searcher

	winner    rules.Color
	endReason string
	lastMove  string
}

// New creates a match in the lobby with the given default selection.
func New(searcher Searcher, defaults Selection) *Match {
	return &Match{
		status:    StatusLobby,
		selection: defaults,
		seats:     make(map[rules.Color]string, 2),
		pos:       rules.NewPosition(),
		searcher:  searcher,
	}
}

func (m *Match) Status() Status       { return m.status }
func (m *Match) Selection() Selection { return m.selection }
func (m *Match) Winner() rules.Color  { return m.winner }
func (m *Match) EndReason() string    { return m.endReason }
func (m *Match) LastMove() string     { return m.lastMove }

// SeatOf returns the seat color held by identity, or ok=false.
func (m *Match) SeatOf(identity string) (rules.Color, bool) {
	for color, occupant := range m.seats {
		if occupant == identity && identity != "" {
			return color, true
		}
	}
	return "", false
}

// AssignSeat seats an identity. Reconnecting with a seated identity returns
// the same color at any status; fresh seating happens only in the lobby.
func (m *Match) AssignSeat(identity string) (rules.Color, error) {
	if color, ok := m.SeatOf(identity); ok {
		return color, nil
	}
	if m.status != StatusLobby {
		return "", ErrNotInLobby
	}
	switch m.selection.Mode {
	case Solo:
		if m.seats[rules.White] != "" {
			return "", ErrDuplicateSoloPlayer
		}
		// The human takes white and the computer is seated in the same
		// step; solo never exists with only one seat filled.
		m.seats[rules.White] = identity
		m.seats[rules.Black] = ComputerID
		return rules.White, nil
	default:
		if m.seats[rules.White] == "" {
			m.seats[rules.White] = identity
			return rules.White, nil
		}
		if m.seats[rules.Black] == "" {
			m.seats[rules.Black] = identity
			return rules.Black, nil
		}
		return "", ErrRoomFull
	}
}

// SetSelection merges the patch and clears every seat. Mode and difficulty
// changes invalidate prior color assignments.
func (m *Match) SetSelection(patch SelectionPatch) error {
	if m.status != StatusLobby {
		return ErrNotInLobby
	}
	if patch.Mode != nil && patch.Mode.Valid() {
		m.selection.Mode = *patch.Mode
	}
	if patch.Difficulty != nil && patch.Difficulty.Valid() {
		m.selection.Difficulty = *patch.Difficulty
	}
	m.clearSeats()
	return nil
}

// CanStart reports whether the current seats satisfy the selected mode.
func (m *Match) CanStart() bool {
	if m.selection.Mode == Solo {
		return m.seats[rules.White] != ""
	}
	return m.seats[rules.White] != "" && m.seats[rules.Black] != ""
}

// Start begins the game. Only the white seat may start.
func (m *Match) Start(identity string) error {
	if m.status != StatusLobby {
		return ErrNotInLobby
	}
	if !m.CanStart() {
		return ErrNotReady
	}
	if m.seats[rules.White] != identity {
		return ErrNotHost
	}
	m.beginGame()
	return nil
}

// ApplyMove submits a move for identity. In solo mode a successful human
// move that leaves the game running is answered synchronously by the
// computer before the call returns. Every failure leaves the match
// unchanged.
func (m *Match) ApplyMove(identity, uci string) error {
	if m.status != StatusPlaying {
		return ErrNotPlaying
	}
	mover := m.pos.SideToMove()
	if m.seats[mover] != identity {
		return ErrNotYourTurn
	}
	normalized, err := m.pos.Apply(uci)
	if err != nil {
		return err
	}
	m.lastMove = normalized
	m.maybeFinalize(mover)

	if m.status == StatusPlaying && m.selection.Mode == Solo {
		m.computerReply()
	}
	return nil
}

// computerReply asks the searcher for the computer seat's move and applies
// it through the same oracle path as a human move. A missing reply is
// skipped without error.
func (m *Match) computerReply() {
	engineColor := m.pos.SideToMove()
	if m.seats[engineColor] != ComputerID {
		return
	}
	mv, ok := m.searcher.ChooseMove(m.pos, engineColor, m.selection.Difficulty)
	if !ok {
		return
	}
	normalized, err := m.pos.Apply(mv)
	if err != nil {
		obslog.L().Warn("engine produced an illegal move",
			zap.String("move", mv), zap.Error(err))
		return
	}
	m.lastMove = normalized
	m.maybeFinalize(engineColor)
}

// maybeFinalize ends the match if the position became terminal. Conditions
// are checked in a fixed priority order so overlapping draw classifications
// resolve consistently.
func (m *Match) maybeFinalize(mover rules.Color) {
	switch {
	case m.pos.IsCheckmate():
		m.endGame(mover, ReasonCheckmate)
	case m.pos.IsStalemate():
		m.endGame("", ReasonStalemate)
	case m.pos.IsInsufficientMaterial():
		m.endGame("", ReasonInsufficientMaterial)
	case m.pos.IsThreefoldRepetition():
		m.endGame("", ReasonThreefold)
	case m.pos.IsDraw():
		m.endGame("", ReasonDraw)
	}
}

// StatusLabel derives the display classification from the oracle, in the
// finalize priority order. "check" is reported only when nothing terminal
// holds.
func (m *Match) StatusLabel() string {
	switch {
	case m.pos.IsCheckmate():
		return "checkmate"
	case m.pos.IsStalemate():
		return "stalemate"
	case m.pos.IsDraw():
		return "draw"
	case m.pos.IsCheck():
		return "check"
	default:
		return "playing"
	}
}

// Rematch restarts from the ended state. When the seats still satisfy the
// mode the game restarts immediately; otherwise the match falls back to the
// lobby with the outcome cleared so the room can re-seat.
func (m *Match) Rematch(identity string) error {
	if m.status != StatusEnded {
		return ErrNotEnded
	}
	if _, seated := m.SeatOf(identity); !seated {
		return ErrNotYourTurn
	}
	if m.CanStart() {
		m.beginGame()
		return nil
	}
	m.clearOutcome()
	m.status = StatusLobby
	return nil
}

// BackToLobby clears the outcome and all seats, keeping the selection.
func (m *Match) BackToLobby() error {
	if m.status != StatusEnded {
		return ErrNotEnded
	}
	m.clearOutcome()
	m.clearSeats()
	m.status = StatusLobby
	return nil
}

// HandleLeave applies the disconnect policy for identity. It reports whether
// the match changed. Unseated identities are ignored.
func (m *Match) HandleLeave(identity string) bool {
	color, seated := m.SeatOf(identity)
	if !seated {
		return false
	}
	if m.selection.Mode == Solo {
		// The lone human left: return the room fully to the lobby,
		// keeping only the selection.
		m.clearOutcome()
		m.clearSeats()
		m.pos.Reset()
		m.status = StatusLobby
		return true
	}
	delete(m.seats, color)
	if m.status == StatusPlaying {
		m.endGame("", ReasonDisconnected)
	}
	return true
}

func (m *Match) beginGame() {
	m.pos.Reset()
	m.clearOutcome()
	m.status = StatusPlaying
}

func (m *Match) endGame(winner rules.Color, reason string) {
	m.winner = winner
	m.endReason = reason
	m.status = StatusEnded
	obslog.L().Info("match ended",
		zap.String("winner", winner.String()),
		zap.String("reason", reason),
		zap.Int("moves", m.pos.MoveCount()))
}

func (m *Match) clearOutcome() {
	m.winner = ""
	m.endReason = ""
	m.lastMove = ""
}

func (m *Match) clearSeats() {
	m.seats = make(map[rules.Color]string, 2)
}
