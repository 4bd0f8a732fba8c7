package rules

import (
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Kind identifies a piece type for evaluation purposes.
type Kind int

const (
	Pawn Kind = iota
	Knight
	Bishop
	Rook
	Queen
	King
)

// Piece is one occupied square, color plus kind.
type Piece struct {
	Color Color
	Kind  Kind
}

// Move is a legal move at a search node. The underlying library move is kept
// so children can be derived without re-decoding the UCI string.
type Move struct {
	uci     string
	capture bool
	inner   nchess.Move
}

func (m Move) UCI() string     { return m.uci }
func (m Move) IsCapture() bool { return m.capture }

// Node is an immutable search snapshot. Apply derives a child node and leaves
// the receiver untouched, so no undo bookkeeping is needed on any exit path.
// The node carries the repetition counts of the game line it descends from,
// so draws by repetition are visible inside the search.
type Node struct {
	pos  *nchess.Position
	seen map[string]int
}

func (n *Node) SideToMove() Color {
	return colorFrom(n.pos.Turn())
}

func (n *Node) Moves() []Move {
	valid := n.pos.ValidMoves()
	out := make([]Move, 0, len(valid))
	for i := range valid {
		mv := valid[i]
		out = append(out, Move{
			uci:     strings.ToLower(mv.String()),
			capture: mv.HasTag(nchess.Capture) || mv.HasTag(nchess.EnPassant),
			inner:   mv,
		})
	}
	return out
}

func (n *Node) Apply(m Move) *Node {
	child := n.pos.Update(&m.inner)
	seen := make(map[string]int, len(n.seen)+1)
	for k, v := range n.seen {
		seen[k] = v
	}
	seen[repetitionKey(child)]++
	return &Node{pos: child, seen: seen}
}

func (n *Node) IsCheckmate() bool {
	return n.pos.Status() == nchess.Checkmate
}

// IsDrawn reports the draw conditions the search can see: stalemate, a
// completed threefold repetition of the line this node descends from, and
// insufficient mating material.
func (n *Node) IsDrawn() bool {
	if n.pos.Status() == nchess.Stalemate {
		return true
	}
	if n.seen[repetitionKey(n.pos)] >= 3 {
		return true
	}
	return insufficientMaterial(n.pos.Board())
}

func (n *Node) IsTerminal() bool {
	return n.IsCheckmate() || n.IsDrawn()
}

// Pieces lists every piece on the board.
func (n *Node) Pieces() []Piece {
	board := n.pos.Board()
	out := make([]Piece, 0, 32)
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
			piece := board.Piece(nchess.NewSquare(file, rank))
			if piece == nchess.NoPiece {
				continue
			}
			out = append(out, Piece{Color: colorFrom(piece.Color()), Kind: kindFrom(piece.Type())})
		}
	}
	return out
}

func kindFrom(t nchess.PieceType) Kind {
	switch t {
	case nchess.Pawn:
		return Pawn
	case nchess.Knight:
		return Knight
	case nchess.Bishop:
		return Bishop
	case nchess.Rook:
		return Rook
	case nchess.Queen:
		return Queen
	default:
		return King
	}
}

// insufficientMaterial covers the dead positions: bare kings, king and a
// lone minor piece, and kings with bishops all confined to one square color.
// Opposite-colored bishops can still construct a mate, so they keep the game
// alive; so do two knights.
func insufficientMaterial(board *nchess.Board) bool {
	knights := 0
	lightBishops, darkBishops := 0, 0
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
			piece := board.Piece(nchess.NewSquare(file, rank))
			if piece == nchess.NoPiece {
				continue
			}
			switch piece.Type() {
			case nchess.King:
			case nchess.Knight:
				knights++
			case nchess.Bishop:
				if (int(file)+int(rank))%2 == 0 {
					darkBishops++
				} else {
					lightBishops++
				}
			default:
				// Any pawn, rook or queen is mating material.
				return false
			}
		}
	}
	if knights+lightBishops+darkBishops <= 1 {
		return true
	}
	return knights == 0 && (lightBishops == 0 || darkBishops == 0)
}
