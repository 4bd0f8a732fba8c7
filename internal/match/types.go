package match

import (
	"errors"
	"strings"

	"github.com/walter-sobchak-ai/hytopia-chess/internal/engine"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/rules"
)

// Mode selects who fills the two seats.
type Mode string

const (
	Solo Mode = "solo"
	Duo  Mode = "duo"
)

func (m Mode) Valid() bool { return m == Solo || m == Duo }

// ParseMode normalizes a user-supplied label, falling back to solo.
func ParseMode(s string) Mode {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if m.Valid() {
		return m
	}
	return Solo
}

// Status is the aggregate match lifecycle state.
type Status string

const (
	StatusLobby   Status = "lobby"
	StatusPlaying Status = "playing"
	StatusEnded   Status = "ended"
)

// ComputerID is the sentinel identity seated on the second color in solo
// mode. It is never a valid human identity.
const ComputerID = "@computer"

// Selection is the lobby-configurable mode/difficulty pair.
type Selection struct {
	Mode       Mode
	Difficulty engine.Difficulty
}

// SelectionPatch merges into a Selection; nil fields are left untouched.
type SelectionPatch struct {
	Mode       *Mode
	Difficulty *engine.Difficulty
}

// End reasons, also used as catalog keys for outbound toasts.
const (
	ReasonCheckmate            = "checkmate"
	ReasonStalemate            = "stalemate"
	ReasonInsufficientMaterial = "insufficient material"
	ReasonThreefold            = "threefold repetition"
	ReasonDraw                 = "draw"
	ReasonDisconnected         = "opponent disconnected"
)

var (
	ErrNotInLobby          = errors.New("not in lobby")
	ErrRoomFull            = errors.New("room full")
	ErrDuplicateSoloPlayer = errors.New("room already has a solo player")
	ErrNotPlaying          = errors.New("match is not in progress")
	ErrNotEnded            = errors.New("match has not ended")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrNotReady            = errors.New("seats are not filled")
	ErrNotHost             = errors.New("only the white seat can start")

	// ErrIllegalMove aliases the oracle's sentinel so callers can match it
	// without importing the rules package.
	ErrIllegalMove = rules.ErrIllegalMove
)

// Searcher picks the computer's reply. *engine.Engine satisfies it; tests
// substitute scripted implementations.
type Searcher interface {
	ChooseMove(pos *rules.Position, engineColor rules.Color, difficulty engine.Difficulty) (string, bool)
}
