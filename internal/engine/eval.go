package engine

import (
	"github.com/walter-sobchak-ai/hytopia-chess/internal/rules"
)

// Material values in centipawns. The king carries no material weight; losing
// it is expressed through the mate score, not through evaluation.
var pieceValues = map[rules.Kind]int{
	rules.Pawn:   100,
	rules.Knight: 320,
	rules.Bishop: 330,
	rules.Rook:   500,
	rules.Queen:  900,
	rules.King:   0,
}

// Evaluate scores a position from the given perspective: signed material sum
// plus a mobility term. Mobility counts the side to move's legal moves and is
// added when that side is the perspective, subtracted otherwise.
func Evaluate(n *rules.Node, perspective rules.Color) int {
	score := 0
	for _, piece := range n.Pieces() {
		value := pieceValues[piece.Kind]
		if piece.Color == perspective {
			score += value
		} else {
			score -= value
		}
	}
	mobility := len(n.Moves())
	if n.SideToMove() == perspective {
		score += mobility
	} else {
		score -= mobility
	}
	return score
}
