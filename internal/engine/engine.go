package engine

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/walter-sobchak-ai/hytopia-chess/internal/obslog"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/rules"
)

const mateScore = 100000

// Engine picks moves for the computer seat. The PRNG is injected so callers
// and tests control determinism; it only breaks ties between equally good
// moves and never affects which score the search settles on.
type Engine struct {
	rng *rand.Rand
}

func New(rng *rand.Rand) *Engine {
	return &Engine{rng: rng}
}

// ChooseMove returns the engine's move for the current position in canonical
// UCI form. It returns ok=false when the position is already terminal or when
// it is not engineColor's turn.
func (e *Engine) ChooseMove(pos *rules.Position, engineColor rules.Color, difficulty Difficulty) (string, bool) {
	if pos.IsTerminal() {
		return "", false
	}
	if pos.SideToMove() != engineColor {
		return "", false
	}
	node := pos.Node()
	moves := node.Moves()
	if len(moves) == 0 {
		return "", false
	}

	var chosen string
	if difficulty == Easy {
		chosen = e.casualMove(moves)
	} else {
		chosen = e.searchRoot(node, engineColor, difficulty.Depth(), moves)
	}
	obslog.L().Debug("engine move chosen",
		zap.String("move", chosen),
		zap.String("color", engineColor.String()),
		zap.String("difficulty", string(difficulty)))
	return chosen, true
}

// casualMove plays without looking ahead: a uniform random capture when one
// exists, otherwise a uniform random legal move.
func (e *Engine) casualMove(moves []rules.Move) string {
	captures := make([]rules.Move, 0, len(moves))
	for _, mv := range moves {
		if mv.IsCapture() {
			captures = append(captures, mv)
		}
	}
	pool := moves
	if len(captures) > 0 {
		pool = captures
	}
	return pool[e.rng.Intn(len(pool))].UCI()
}

func (e *Engine) searchRoot(node *rules.Node, engineColor rules.Color, depth int, moves []rules.Move) string {
	e.shuffle(moves)
	alpha, beta := -mateScore-1, mateScore+1
	best := moves[0]
	bestScore := alpha
	for _, mv := range moves {
		score := e.alphabeta(node.Apply(mv), engineColor, depth-1, alpha, beta, false)
		if score > bestScore {
			bestScore = score
			best = mv
		}
		if score > alpha {
			alpha = score
		}
	}
	return best.UCI()
}

// alphabeta is a plain minimax with alpha-beta pruning, always scoring from
// engineColor's perspective. Checkmate leaves are worth the full mate score;
// every other terminal leaf is a dead draw worth exactly zero.
func (e *Engine) alphabeta(n *rules.Node, engineColor rules.Color, depth, alpha, beta int, maximizing bool) int {
	if n.IsCheckmate() {
		if n.SideToMove() == engineColor {
			return -mateScore
		}
		return mateScore
	}
	if n.IsDrawn() {
		return 0
	}
	if depth <= 0 {
		return Evaluate(n, engineColor)
	}

	moves := n.Moves()
	if len(moves) == 0 {
		return 0
	}
	e.shuffle(moves)

	if maximizing {
		best := -mateScore - 1
		for _, mv := range moves {
			score := e.alphabeta(n.Apply(mv), engineColor, depth-1, alpha, beta, false)
			if score > best {
				best = score
			}
			if best > alpha {
				alpha = best
			}
			if alpha >= beta {
				break
			}
		}
		return best
	}

	best := mateScore + 1
	for _, mv := range moves {
		score := e.alphabeta(n.Apply(mv), engineColor, depth-1, alpha, beta, true)
		if score < best {
			best = score
		}
		if best < beta {
			beta = best
		}
		if alpha >= beta {
			break
		}
	}
	return best
}

func (e *Engine) shuffle(moves []rules.Move) {
	e.rng.Shuffle(len(moves), func(i, j int) {
		moves[i], moves[j] = moves[j], moves[i]
	})
}
