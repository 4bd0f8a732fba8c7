package engine

import (
	"math/rand"
	"testing"

	"github.com/walter-sobchak-ai/hytopia-chess/internal/rules"
)

func newEngine(seed int64) *Engine {
	return New(rand.New(rand.NewSource(seed)))
}

func playOut(t *testing.T, moves ...string) *rules.Position {
	t.Helper()
	p := rules.NewPosition()
	for _, mv := range moves {
		if _, err := p.Apply(mv); err != nil {
			t.Fatalf("Apply(%s): %v", mv, err)
		}
	}
	return p
}

func TestChooseMoveDeclinesTerminalPosition(t *testing.T) {
	p := playOut(t, "f2f3", "e7e5", "g2g4", "d8h4")
	if mv, ok := newEngine(1).ChooseMove(p, rules.White, Hard); ok {
		t.Fatalf("expected no move in a finished game, got %s", mv)
	}
}

func TestChooseMoveDeclinesWrongTurn(t *testing.T) {
	p := rules.NewPosition()
	if mv, ok := newEngine(1).ChooseMove(p, rules.Black, Medium); ok {
		t.Fatalf("expected no move when it is not the engine's turn, got %s", mv)
	}
}

func TestChooseMoveReturnsLegalMove(t *testing.T) {
	for seed := int64(0); seed < 8; seed++ {
		p := rules.NewPosition()
		mv, ok := newEngine(seed).ChooseMove(p, rules.White, Medium)
		if !ok {
			t.Fatalf("seed %d: expected a move from the initial position", seed)
		}
		legal := false
		for _, candidate := range p.LegalMoves() {
			if candidate == mv {
				legal = true
				break
			}
		}
		if !legal {
			t.Fatalf("seed %d: chose illegal move %s", seed, mv)
		}
	}
}

func TestSearchFindsMateInOneUnderShuffling(t *testing.T) {
	// Scholar's mate setup: after 1.e4 e5 2.Bc4 Nc6 3.Qh5 Nf6 the queen
	// mates on f7 and nothing else wins outright. Every seed must find it.
	script := []string{"e2e4", "e7e5", "f1c4", "b8c6", "d1h5", "g8f6"}
	for _, difficulty := range []Difficulty{Medium, Hard} {
		for seed := int64(0); seed < 10; seed++ {
			p := playOut(t, script...)
			mv, ok := newEngine(seed).ChooseMove(p, rules.White, difficulty)
			if !ok {
				t.Fatalf("%s seed %d: expected a move", difficulty, seed)
			}
			if mv != "h5f7" {
				t.Fatalf("%s seed %d: expected mate h5f7, got %s", difficulty, seed, mv)
			}
			if _, err := p.Apply(mv); err != nil {
				t.Fatalf("apply chosen move: %v", err)
			}
			if !p.IsCheckmate() {
				t.Fatalf("%s seed %d: chosen move did not mate", difficulty, seed)
			}
		}
	}
}

func TestSearchSteersIntoRepetitionWhenBehind(t *testing.T) {
	// Black has only a queen against two rooks and a pawn. The queen has
	// shuttled between checks on e1 and e5 twice already, so h4e1 completes a
	// threefold repetition worth a flat zero; every other line leaves black
	// down material.
	line := []string{
		"h4e1", "g1h2", "e1e5", "h2g1",
		"e5e1", "g1h2", "e1e5", "h2h1",
		"e5h4", "h1g1",
	}
	for _, difficulty := range []Difficulty{Medium, Hard} {
		for seed := int64(0); seed < 6; seed++ {
			p, err := rules.NewPositionFEN("7k/1R6/R7/8/7q/8/6P1/6K1 b - - 0 1")
			if err != nil {
				t.Fatalf("NewPositionFEN: %v", err)
			}
			for _, mv := range line {
				if _, err := p.Apply(mv); err != nil {
					t.Fatalf("Apply(%s): %v", mv, err)
				}
			}
			mv, ok := newEngine(seed).ChooseMove(p, rules.Black, difficulty)
			if !ok {
				t.Fatalf("%s seed %d: expected a move", difficulty, seed)
			}
			if mv != "h4e1" {
				t.Fatalf("%s seed %d: expected the repetition h4e1, got %s", difficulty, seed, mv)
			}
			if _, err := p.Apply(mv); err != nil {
				t.Fatalf("apply chosen move: %v", err)
			}
			if !p.IsThreefoldRepetition() {
				t.Fatalf("%s seed %d: chosen move did not complete the repetition", difficulty, seed)
			}
		}
	}
}

func TestEasyPrefersCaptures(t *testing.T) {
	// After 1.e4 d5 the only capture available to white is exd5.
	for seed := int64(0); seed < 10; seed++ {
		p := playOut(t, "e2e4", "d7d5")
		mv, ok := newEngine(seed).ChooseMove(p, rules.White, Easy)
		if !ok {
			t.Fatalf("seed %d: expected a move", seed)
		}
		if mv != "e4d5" {
			t.Fatalf("seed %d: easy mode should take the free pawn, got %s", seed, mv)
		}
	}
}

func TestParseDifficulty(t *testing.T) {
	cases := map[string]Difficulty{
		"easy":    Easy,
		" HARD ":  Hard,
		"medium":  Medium,
		"unknown": Medium,
		"":        Medium,
	}
	for in, want := range cases {
		if got := ParseDifficulty(in); got != want {
			t.Fatalf("ParseDifficulty(%q) = %s, want %s", in, got, want)
		}
	}
	if Easy.Depth() != 1 || Medium.Depth() != 2 || Hard.Depth() != 3 {
		t.Fatalf("unexpected depth mapping: %d/%d/%d", Easy.Depth(), Medium.Depth(), Hard.Depth())
	}
}
