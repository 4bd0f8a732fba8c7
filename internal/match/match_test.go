package match

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/walter-sobchak-ai/hytopia-chess/internal/engine"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/rules"
)

// scripted replays a fixed move list, one move per call.
type scripted struct {
	moves []string
	next  int
}

func (s *scripted) ChooseMove(pos *rules.Position, engineColor rules.Color, difficulty engine.Difficulty) (string, bool) {
	if s.next >= len(s.moves) {
		return "", false
	}
	mv := s.moves[s.next]
	s.next++
	return mv, true
}

func defaults(mode Mode) Selection {
	return Selection{Mode: mode, Difficulty: engine.Medium}
}

func newDuo(t *testing.T) *Match {
	t.Helper()
	m := New(&scripted{}, defaults(Duo))
	seat(t, m, "alice", rules.White)
	seat(t, m, "bob", rules.Black)
	return m
}

func seat(t *testing.T, m *Match, id string, want rules.Color) {
	t.Helper()
	color, err := m.AssignSeat(id)
	if err != nil {
		t.Fatalf("AssignSeat(%s): %v", id, err)
	}
	if color != want {
		t.Fatalf("AssignSeat(%s) = %s, want %s", id, color, want)
	}
}

func TestAssignSeatDuoOrderAndIdempotence(t *testing.T) {
	m := New(&scripted{}, defaults(Duo))
	seat(t, m, "alice", rules.White)
	seat(t, m, "bob", rules.Black)
	// Rejoining keeps the original color.
	seat(t, m, "alice", rules.White)
	seat(t, m, "bob", rules.Black)
	if _, err := m.AssignSeat("carol"); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}
}

func TestAssignSeatSoloSeatsComputerAtomically(t *testing.T) {
	m := New(&scripted{}, defaults(Solo))
	seat(t, m, "alice", rules.White)
	if occupant, ok := m.SeatOf("alice"); !ok || occupant != rules.White {
		t.Fatalf("alice should hold white")
	}
	if color, ok := m.SeatOf(ComputerID); !ok || color != rules.Black {
		t.Fatalf("computer sentinel should hold black immediately")
	}
	if _, err := m.AssignSeat("bob"); !errors.Is(err, ErrDuplicateSoloPlayer) {
		t.Fatalf("expected ErrDuplicateSoloPlayer, got %v", err)
	}
}

func TestSetSelectionClearsSeatsAndIsLobbyOnly(t *testing.T) {
	m := newDuo(t)
	mode := Solo
	if err := m.SetSelection(SelectionPatch{Mode: &mode}); err != nil {
		t.Fatalf("SetSelection: %v", err)
	}
	if _, ok := m.SeatOf("alice"); ok {
		t.Fatalf("selection change must clear seats")
	}
	seat(t, m, "alice", rules.White)
	if err := m.Start("alice"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.SetSelection(SelectionPatch{Mode: &mode}); !errors.Is(err, ErrNotInLobby) {
		t.Fatalf("expected ErrNotInLobby, got %v", err)
	}
}

func TestStartRequiresSeatsAndWhiteSeat(t *testing.T) {
	m := New(&scripted{}, defaults(Duo))
	seat(t, m, "alice", rules.White)
	if err := m.Start("alice"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady with one seat, got %v", err)
	}
	seat(t, m, "bob", rules.Black)
	if err := m.Start("bob"); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost for the black seat, got %v", err)
	}
	if err := m.Start("alice"); err != nil {
		t.Fatalf("Start by white seat: %v", err)
	}
	if m.Status() != StatusPlaying {
		t.Fatalf("status = %s, want playing", m.Status())
	}
	if err := m.Start("alice"); !errors.Is(err, ErrNotInLobby) {
		t.Fatalf("expected ErrNotInLobby when already playing, got %v", err)
	}
}

func TestApplyMoveEnforcesTurnsAndLegality(t *testing.T) {
	m := newDuo(t)
	if err := m.ApplyMove("alice", "e2e4"); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("expected ErrNotPlaying before start, got %v", err)
	}
	if err := m.Start("alice"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.ApplyMove("bob", "e7e5"); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn for black first, got %v", err)
	}
	if err := m.ApplyMove("alice", "e2e5"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	if m.LastMove() != "" {
		t.Fatalf("failed move must not be recorded")
	}
	if err := m.ApplyMove("alice", "e2e4"); err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if err := m.ApplyMove("alice", "d2d4"); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected strict alternation, got %v", err)
	}
	if err := m.ApplyMove("bob", "e7e5"); err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
}

func TestSoloAutoReplyReturnsTurnToHuman(t *testing.T) {
	m := New(&scripted{moves: []string{"e7e5", "d7d5"}}, defaults(Solo))
	seat(t, m, "alice", rules.White)
	if err := m.Start("alice"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.ApplyMove("alice", "e2e4"); err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if got := m.LastMove(); got != "e7e5" {
		t.Fatalf("last move = %s, want the computer reply e7e5", got)
	}
	snap := m.Snapshot("alice")
	if snap.Game == nil || snap.Game.SideToMove != "white" {
		t.Fatalf("turn should return to the human after the auto reply")
	}
}

func TestDuoCheckmateFinalizes(t *testing.T) {
	m := newDuo(t)
	if err := m.Start("alice"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	script := []struct{ id, mv string }{
		{"alice", "f2f3"}, {"bob", "e7e5"},
		{"alice", "g2g4"}, {"bob", "d8h4"},
	}
	for _, step := range script {
		if err := m.ApplyMove(step.id, step.mv); err != nil {
			t.Fatalf("ApplyMove(%s, %s): %v", step.id, step.mv, err)
		}
	}
	if m.Status() != StatusEnded {
		t.Fatalf("status = %s, want ended", m.Status())
	}
	if m.Winner() != rules.Black || m.EndReason() != ReasonCheckmate {
		t.Fatalf("winner=%s reason=%q, want black/checkmate", m.Winner(), m.EndReason())
	}
	if err := m.ApplyMove("alice", "a2a3"); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("moves after the end must fail, got %v", err)
	}
}

func TestThreefoldOutranksGenericDraw(t *testing.T) {
	m := newDuo(t)
	if err := m.Start("alice"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	script := []struct{ id, mv string }{
		{"alice", "g1f3"}, {"bob", "g8f6"},
		{"alice", "f3g1"}, {"bob", "f6g8"},
		{"alice", "g1f3"}, {"bob", "g8f6"},
		{"alice", "f3g1"}, {"bob", "f6g8"},
	}
	for _, step := range script {
		if err := m.ApplyMove(step.id, step.mv); err != nil {
			t.Fatalf("ApplyMove(%s, %s): %v", step.id, step.mv, err)
		}
	}
	if m.Status() != StatusEnded {
		t.Fatalf("status = %s, want ended after the third repetition", m.Status())
	}
	if m.Winner() != "" || m.EndReason() != ReasonThreefold {
		t.Fatalf("winner=%q reason=%q, want no winner and the specific repetition reason", m.Winner(), m.EndReason())
	}
}

func TestStatusLabelReportsCheck(t *testing.T) {
	m := newDuo(t)
	if err := m.Start("alice"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for _, step := range []struct{ id, mv string }{
		{"alice", "e2e4"}, {"bob", "f7f5"}, {"alice", "d1h5"},
	} {
		if err := m.ApplyMove(step.id, step.mv); err != nil {
			t.Fatalf("ApplyMove(%s): %v", step.mv, err)
		}
	}
	if got := m.StatusLabel(); got != "check" {
		t.Fatalf("status label = %q, want check", got)
	}
}

func TestRematchRestartsWithSeatsIntact(t *testing.T) {
	m := newDuo(t)
	playFoolsMate(t, m)
	if err := m.Rematch("bob"); err != nil {
		t.Fatalf("Rematch: %v", err)
	}
	if m.Status() != StatusPlaying {
		t.Fatalf("status = %s, want playing", m.Status())
	}
	if m.Winner() != "" || m.EndReason() != "" || m.LastMove() != "" {
		t.Fatalf("outcome must be cleared on rematch")
	}
	if err := m.ApplyMove("alice", "e2e4"); err != nil {
		t.Fatalf("fresh game should accept white's first move: %v", err)
	}
}

func TestRematchFallsBackToLobbyWhenSeatsBroken(t *testing.T) {
	m := newDuo(t)
	playFoolsMate(t, m)
	if !m.HandleLeave("bob") {
		t.Fatalf("expected leave to change the match")
	}
	if err := m.Rematch("alice"); err != nil {
		t.Fatalf("Rematch: %v", err)
	}
	if m.Status() != StatusLobby {
		t.Fatalf("status = %s, want lobby fallback with a missing seat", m.Status())
	}
}

func TestBackToLobbyKeepsSelection(t *testing.T) {
	m := newDuo(t)
	playFoolsMate(t, m)
	if err := m.BackToLobby(); err != nil {
		t.Fatalf("BackToLobby: %v", err)
	}
	if m.Status() != StatusLobby {
		t.Fatalf("status = %s, want lobby", m.Status())
	}
	if _, ok := m.SeatOf("alice"); ok {
		t.Fatalf("seats must be cleared")
	}
	if m.Selection().Mode != Duo {
		t.Fatalf("selection must survive the reset")
	}
}

func TestDuoDisconnectEndsMatch(t *testing.T) {
	m := newDuo(t)
	if err := m.Start("alice"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !m.HandleLeave("bob") {
		t.Fatalf("expected leave to change the match")
	}
	if m.Status() != StatusEnded {
		t.Fatalf("status = %s, want ended", m.Status())
	}
	if m.Winner() != "" || m.EndReason() != ReasonDisconnected {
		t.Fatalf("winner=%q reason=%q, want no winner and a disconnect reason", m.Winner(), m.EndReason())
	}
}

func TestSoloLeaveResetsToLobby(t *testing.T) {
	m := New(&scripted{moves: []string{"e7e5"}}, defaults(Solo))
	seat(t, m, "alice", rules.White)
	if err := m.Start("alice"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.ApplyMove("alice", "e2e4"); err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if !m.HandleLeave("alice") {
		t.Fatalf("expected leave to change the match")
	}
	if m.Status() != StatusLobby {
		t.Fatalf("status = %s, want lobby", m.Status())
	}
	if _, ok := m.SeatOf(ComputerID); ok {
		t.Fatalf("computer seat must be cleared with the human gone")
	}
	if m.Selection().Mode != Solo {
		t.Fatalf("selection must be retained")
	}
}

func TestSnapshotShapes(t *testing.T) {
	m := New(&scripted{}, defaults(Duo))
	seat(t, m, "alice", rules.White)

	snap := m.Snapshot("alice")
	if snap.Phase != "lobby" || snap.Lobby == nil || snap.Game != nil {
		t.Fatalf("unexpected lobby snapshot: %+v", snap)
	}
	if !snap.Lobby.WaitingForOpponent {
		t.Fatalf("duo with one free seat should be waiting")
	}

	seat(t, m, "bob", rules.Black)
	if m.Snapshot("alice").Lobby.WaitingForOpponent {
		t.Fatalf("full duo lobby should not be waiting")
	}

	if err := m.Start("alice"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	snap = m.Snapshot("bob")
	if snap.Phase != "playing" || snap.Game == nil {
		t.Fatalf("unexpected playing snapshot: %+v", snap)
	}
	if snap.Game.ViewerColor != "black" {
		t.Fatalf("viewer color = %q, want black", snap.Game.ViewerColor)
	}
	if snap.Game.SideToMove != "white" || snap.Game.Status != "playing" {
		t.Fatalf("unexpected game section: %+v", snap.Game)
	}
	if spectator := m.Snapshot("zoe"); spectator.Game.ViewerColor != "" {
		t.Fatalf("spectators have no seat color")
	}

	playFoolsMateMoves(t, m)
	snap = m.Snapshot("alice")
	if snap.Phase != "ended" || snap.End == nil || snap.Game == nil {
		t.Fatalf("ended snapshot must carry both sections: %+v", snap)
	}
	if snap.End.Result != "black" || snap.End.Reason != ReasonCheckmate {
		t.Fatalf("unexpected end section: %+v", snap.End)
	}
	if snap.Game.Status != "checkmate" || snap.Game.LastMove != "d8h4" {
		t.Fatalf("unexpected final game section: %+v", snap.Game)
	}
}

func TestSoloEasyComputerTakesAvailableCaptures(t *testing.T) {
	for seed := int64(0); seed < 5; seed++ {
		eng := engine.New(rand.New(rand.NewSource(seed)))
		m := New(eng, Selection{Mode: Solo, Difficulty: engine.Easy})
		seat(t, m, "alice", rules.White)
		if err := m.Start("alice"); err != nil {
			t.Fatalf("Start: %v", err)
		}

		// The shadow position tracks the game move by move so the test can
		// see which captures the computer had before each reply.
		shadow := rules.NewPosition()
		for turn := 0; turn < 20 && m.Status() == StatusPlaying; turn++ {
			human := shadow.LegalMoves()[0]
			if err := m.ApplyMove("alice", human); err != nil {
				t.Fatalf("seed %d: ApplyMove(%s): %v", seed, human, err)
			}
			if _, err := shadow.Apply(human); err != nil {
				t.Fatalf("seed %d: shadow apply: %v", seed, err)
			}
			if m.Status() != StatusPlaying {
				break
			}

			reply := m.LastMove()
			if reply == human {
				t.Fatalf("seed %d: expected a computer reply after %s", seed, human)
			}
			captures := make(map[string]bool)
			for _, mv := range shadow.Node().Moves() {
				if mv.IsCapture() {
					captures[mv.UCI()] = true
				}
			}
			if len(captures) > 0 && !captures[reply] {
				t.Fatalf("seed %d: easy reply %s ignored available captures %v", seed, reply, captures)
			}
			if _, err := shadow.Apply(reply); err != nil {
				t.Fatalf("seed %d: shadow apply reply: %v", seed, err)
			}
		}
	}
}

func playFoolsMate(t *testing.T, m *Match) {
	t.Helper()
	if err := m.Start("alice"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	playFoolsMateMoves(t, m)
}

func playFoolsMateMoves(t *testing.T, m *Match) {
	t.Helper()
	for _, step := range []struct{ id, mv string }{
		{"alice", "f2f3"}, {"bob", "e7e5"},
		{"alice", "g2g4"}, {"bob", "d8h4"},
	} {
		if err := m.ApplyMove(step.id, step.mv); err != nil {
			t.Fatalf("ApplyMove(%s, %s): %v", step.id, step.mv, err)
		}
	}
}
