package rules

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Color identifies a chess side.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string { return string(c) }

var ErrIllegalMove = errors.New("illegal move")

// Position is the rules oracle for one match: a history-aware game wrapper
// around corentings/chess. All legality, terminal detection and canonical
// encoding go through here; nothing above this package touches the chess
// library directly.
type Position struct {
	game *nchess.Game
	seen map[string]int
}

func NewPosition() *Position {
	p := &Position{game: nchess.NewGame()}
	p.resetSeen()
	return p
}

// NewPositionFEN starts a game from an arbitrary FEN layout with a fresh
// history.
func NewPositionFEN(fen string) (*Position, error) {
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen %q: %w", fen, err)
	}
	p := &Position{game: nchess.NewGame(opt)}
	p.resetSeen()
	return p, nil
}

// Reset returns the position to the initial layout, dropping all history.
func (p *Position) Reset() {
	p.game = nchess.NewGame()
	p.resetSeen()
}

func (p *Position) resetSeen() {
	p.seen = map[string]int{repetitionKey(p.game.Position()): 1}
}

func (p *Position) SideToMove() Color {
	return colorFrom(p.game.Position().Turn())
}

// LegalMoves returns every legal move in canonical UCI form.
func (p *Position) LegalMoves() []string {
	valid := p.game.Position().ValidMoves()
	out := make([]string, 0, len(valid))
	for i := range valid {
		out = append(out, strings.ToLower(valid[i].String()))
	}
	return out
}

// Apply submits a UCI move (from-square + to-square + optional promotion
// letter). It returns the normalized move string, or ErrIllegalMove without
// mutating the position when the oracle rejects it.
func (p *Position) Apply(uci string) (string, error) {
	cleaned := strings.ToLower(strings.TrimSpace(uci))
	if cleaned == "" {
		return "", fmt.Errorf("%w: empty move", ErrIllegalMove)
	}
	notation := nchess.UCINotation{}
	mv, err := notation.Decode(p.game.Position(), cleaned)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrIllegalMove, cleaned)
	}
	if err := p.game.Move(mv, nil); err != nil {
		return "", fmt.Errorf("%w: %s", ErrIllegalMove, cleaned)
	}
	p.seen[repetitionKey(p.game.Position())]++
	return strings.ToLower(mv.String()), nil
}

// IsCheck reports whether the side to move is currently in check. Derived
// from the tag on the last applied move; the initial position is never check.
func (p *Position) IsCheck() bool {
	moves := p.game.Moves()
	if len(moves) == 0 {
		return false
	}
	return moves[len(moves)-1].HasTag(nchess.Check)
}

func (p *Position) IsCheckmate() bool {
	return p.game.Position().Status() == nchess.Checkmate ||
		p.game.Method() == nchess.Checkmate
}

func (p *Position) IsStalemate() bool {
	return p.game.Position().Status() == nchess.Stalemate ||
		p.game.Method() == nchess.Stalemate
}

func (p *Position) IsInsufficientMaterial() bool {
	if p.game.Method() == nchess.InsufficientMaterial {
		return true
	}
	return insufficientMaterial(p.game.Position().Board())
}

func (p *Position) IsThreefoldRepetition() bool {
	if p.game.Method() == nchess.ThreefoldRepetition {
		return true
	}
	for _, m := range p.game.EligibleDraws() {
		if m == nchess.ThreefoldRepetition {
			return true
		}
	}
	return false
}

// IsDraw reports any drawing condition, including the automatic ones the
// library declares on its own (seventy-five moves, fivefold repetition).
func (p *Position) IsDraw() bool {
	if p.game.Outcome() == nchess.Draw {
		return true
	}
	if p.IsStalemate() || p.IsInsufficientMaterial() || p.IsThreefoldRepetition() {
		return true
	}
	for _, m := range p.game.EligibleDraws() {
		if m == nchess.FiftyMoveRule {
			return true
		}
	}
	return false
}

func (p *Position) IsTerminal() bool {
	return p.IsCheckmate() || p.IsDraw()
}

// FEN returns the canonical string form of the current position.
func (p *Position) FEN() string {
	return p.game.FEN()
}

func (p *Position) MoveCount() int {
	return len(p.game.Moves())
}

// Node snapshots the current position for the search engine. The snapshot is
// independent of the live game: children are derived functionally, so the
// borrowed position is returned untouched on every search exit path. The
// game's repetition counts are copied in so search lines that complete a
// threefold repetition read as drawn.
func (p *Position) Node() *Node {
	seen := make(map[string]int, len(p.seen)+8)
	for k, v := range p.seen {
		seen[k] = v
	}
	return &Node{pos: p.game.Position(), seen: seen}
}

// repetitionKey identifies a position for repetition counting: placement,
// side to move, castling rights and en passant square, without the move
// clocks.
func repetitionKey(pos *nchess.Position) string {
	fields := strings.Fields(pos.String())
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return strings.Join(fields, " ")
}

func colorFrom(c nchess.Color) Color {
	if c == nchess.White {
		return White
	}
	return Black
}
