package rules

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustMove(t *testing.T, e *Engine, uci string) GameState {
	t.Helper()
	from, to, promo, err := ParseUCI(uci)
	if err != nil {
		t.Fatalf("ParseUCI(%q): %v", uci, err)
	}
	st, err := e.SubmitMove(from, to, promo)
	if err != nil {
		t.Fatalf("SubmitMove(%s): %v", uci, err)
	}
	return st
}

func mustPosition(t *testing.T, placement string, turn Color) *Engine {
	t.Helper()
	e, err := NewEngineFromPosition(mustBoard(t, placement), turn)
	if err != nil {
		t.Fatalf("NewEngineFromPosition: %v", err)
	}
	return e
}

func TestSubmitMove_OpeningPawnPush(t *testing.T) {
	e := NewEngine()
	st := mustMove(t, e, "e2e4")
	if st.Turn != Black || st.MoveCount != 1 || st.Status != StatusOngoing {
		t.Fatalf("after e2e4: turn=%s count=%d status=%s", st.Turn, st.MoveCount, st.Status)
	}
	if len(st.Captured.White) != 0 || len(st.Captured.Black) != 0 {
		t.Fatalf("no captures expected: %+v", st.Captured)
	}
	if p := st.Board.At(Square{Row: 4, Col: 4}); p != (Piece{Type: Pawn, Color: White}) {
		t.Fatalf("e4 holds %v", p)
	}
	if !st.Board.At(Square{Row: 6, Col: 4}).IsEmpty() {
		t.Fatalf("e2 should be empty")
	}
	if last, ok := st.LastMove(); !ok || last.UCI() != "e2e4" || last.Mover != White {
		t.Fatalf("last move: %+v", last)
	}
}

func TestSubmitMove_RejectsIllegalWithoutSideEffects(t *testing.T) {
	e := NewEngine()
	before := e.State()
	cases := []string{"e2e5", "e7e5", "a1a3", "e4e5", "g1g3"}
	for _, uci := range cases {
		from, to, promo, err := ParseUCI(uci)
		if err != nil {
			t.Fatalf("ParseUCI(%q): %v", uci, err)
		}
		if _, err := e.SubmitMove(from, to, promo); !errors.Is(err, ErrIllegalMove) {
			t.Fatalf("%s: want ErrIllegalMove, got %v", uci, err)
		}
	}
	if diff := cmp.Diff(before, e.State()); diff != "" {
		t.Fatalf("state changed after rejected moves (-want +got):\n%s", diff)
	}
}

func TestSubmitMove_MustResolveCheck(t *testing.T) {
	e := mustPosition(t, "k3r3/8/8/8/8/8/P7/4K3", White)
	if e.Status() != StatusCheck {
		t.Fatalf("status: got %s want check", e.Status())
	}
	if _, err := e.SubmitMove(MustSquare("a2"), MustSquare("a3"), NoPieceType); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("pawn push ignoring check: want ErrIllegalMove, got %v", err)
	}
	mustMove(t, e, "e1d2")
}

func TestUndo_RoundTrip(t *testing.T) {
	e := NewEngine()
	initial := e.State()
	moves := []string{"e2e4", "d7d5", "e4d5", "d8d5", "b1c3", "d5a5"}
	states := []GameState{initial}
	for _, mv := range moves {
		states = append(states, mustMove(t, e, mv))
	}
	st := e.State()
	if got := len(st.Captured.White); got != 1 {
		t.Fatalf("white captures: got %d want 1", got)
	}
	if got := len(st.Captured.Black); got != 1 {
		t.Fatalf("black captures: got %d want 1", got)
	}
	for i := len(moves) - 1; i >= 0; i-- {
		got, err := e.Undo()
		if err != nil {
			t.Fatalf("Undo #%d: %v", i, err)
		}
		if diff := cmp.Diff(states[i], got); diff != "" {
			t.Fatalf("undo of %s (-want +got):\n%s", moves[i], diff)
		}
	}
	if _, err := e.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("Undo on empty history: want ErrNothingToUndo, got %v", err)
	}
}

func TestCheckmate_QueenSupportedByRook(t *testing.T) {
	// a8 rook guards the a2 queen so Kxa2 is not available
	e := mustPosition(t, "r6k/8/8/8/8/8/q7/K7", White)
	if e.Status() != StatusCheckmate {
		t.Fatalf("status: got %s want checkmate", e.Status())
	}
	if got := e.Result(); got != "0-1" {
		t.Fatalf("result: got %q want 0-1", got)
	}
	if _, err := e.SubmitMove(MustSquare("a1"), MustSquare("b1"), NoPieceType); !errors.Is(err, ErrGameOver) {
		t.Fatalf("move after mate: want ErrGameOver, got %v", err)
	}
	if got := e.Select(MustSquare("a1")); len(got) != 0 {
		t.Fatalf("select after mate: %v", got)
	}
}

func TestCheckmate_FoolsMate(t *testing.T) {
	e := NewEngine()
	var st GameState
	for _, mv := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		st = mustMove(t, e, mv)
	}
	if st.Status != StatusCheckmate || st.Result != "0-1" {
		t.Fatalf("fool's mate: status=%s result=%s", st.Status, st.Result)
	}
	if w, ok := e.Winner(); !ok || w != Black {
		t.Fatalf("winner: %s %v", w, ok)
	}
	st, err := e.Undo()
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if st.Status != StatusOngoing || st.Turn != Black || st.Result != "*" {
		t.Fatalf("after undoing mate: status=%s turn=%s result=%s", st.Status, st.Turn, st.Result)
	}
}

func TestStalemate_BlockedPawns(t *testing.T) {
	e := mustPosition(t, "7k/8/8/7p/7P/1q6/8/K7", White)
	if e.Status() != StatusStalemate {
		t.Fatalf("status: got %s want stalemate", e.Status())
	}
	if got := e.Result(); got != "*" {
		t.Fatalf("stalemate result: got %q want *", got)
	}
}

func TestPromotion_Choices(t *testing.T) {
	cases := []struct {
		promo    PieceType
		want     PieceType
		status   Status
		notation string
	}{
		{NoPieceType, Queen, StatusCheck, "a8=Q"},
		{Queen, Queen, StatusCheck, "a8=Q"},
		{Rook, Rook, StatusCheck, "a8=R"},
		{Bishop, Bishop, StatusOngoing, "a8=B"},
		{Knight, Knight, StatusOngoing, "a8=N"},
	}
	for _, tc := range cases {
		e := mustPosition(t, "4k3/P7/8/8/8/8/8/4K3", White)
		st, err := e.SubmitMove(MustSquare("a7"), MustSquare("a8"), tc.promo)
		if err != nil {
			t.Fatalf("promote to %s: %v", tc.promo, err)
		}
		got := st.Board.At(MustSquare("a8"))
		if got != (Piece{Type: tc.want, Color: White}) {
			t.Fatalf("promote to %s: a8 holds %v", tc.promo, got)
		}
		if st.Status != tc.status {
			t.Fatalf("promote to %s: status %s want %s", tc.promo, st.Status, tc.status)
		}
		if n := e.ExportNotation(); len(n) != 1 || n[0] != tc.notation {
			t.Fatalf("promote to %s: notation %v", tc.promo, n)
		}
		last, _ := st.LastMove()
		if last.Piece.Type != Pawn {
			t.Fatalf("history should keep the pawn as mover, got %v", last.Piece)
		}
		st, err = e.Undo()
		if err != nil {
			t.Fatalf("Undo: %v", err)
		}
		if p := st.Board.At(MustSquare("a7")); p != (Piece{Type: Pawn, Color: White}) {
			t.Fatalf("undo promotion: a7 holds %v", p)
		}
	}
}

func TestPromotion_InvalidChoice(t *testing.T) {
	e := mustPosition(t, "4k3/P7/8/8/8/8/8/4K3", White)
	before := e.State()
	for _, bad := range []PieceType{King, Pawn, PieceType(42)} {
		if _, err := e.SubmitMove(MustSquare("a7"), MustSquare("a8"), bad); !errors.Is(err, ErrInvalidPromotion) {
			t.Fatalf("promo %d: want ErrInvalidPromotion, got %v", bad, err)
		}
	}
	if diff := cmp.Diff(before, e.State()); diff != "" {
		t.Fatalf("state changed (-want +got):\n%s", diff)
	}
}

func TestPromotion_BlackCaptureOnFirstRank(t *testing.T) {
	e := mustPosition(t, "4k3/8/8/8/8/8/6p1/4K2R", Black)
	st := mustMove(t, e, "g2h1n")
	if p := st.Board.At(MustSquare("h1")); p != (Piece{Type: Knight, Color: Black}) {
		t.Fatalf("h1 holds %v", p)
	}
	if len(st.Captured.Black) != 1 || st.Captured.Black[0] != (Piece{Type: Rook, Color: White}) {
		t.Fatalf("black captures: %+v", st.Captured.Black)
	}
	if got := e.ExportNotation(); got[0] != "gxh1=N" {
		t.Fatalf("notation: %v", got)
	}
}

func TestKingCapture_EndsGame(t *testing.T) {
	// black is left in check with white to move, so the king can be taken
	e := mustPosition(t, "4k3/8/8/8/4R3/8/8/K7", White)
	st := mustMove(t, e, "e4e8")
	if st.Status != StatusKingCaptured || st.Result != "1-0" {
		t.Fatalf("king capture: status=%s result=%s", st.Status, st.Result)
	}
	if _, err := e.SubmitMove(MustSquare("a1"), MustSquare("a2"), NoPieceType); !errors.Is(err, ErrGameOver) {
		t.Fatalf("want ErrGameOver, got %v", err)
	}
}

func TestNewEngineFromPosition_Kings(t *testing.T) {
	e := mustPosition(t, "8/8/8/8/8/8/8/K7", Black)
	if e.Status() != StatusKingCaptured || e.Result() != "1-0" {
		t.Fatalf("missing black king: status=%s result=%s", e.Status(), e.Result())
	}
	_, err := NewEngineFromPosition(mustBoard(t, "k6k/8/8/8/8/8/8/K7"), White)
	var iv *InvariantViolation
	if !errors.As(err, &iv) {
		t.Fatalf("two black kings: want InvariantViolation, got %v", err)
	}
}

func TestSelect_Idempotent(t *testing.T) {
	e := NewEngine()
	a := e.Select(MustSquare("g1"))
	b := e.Select(MustSquare("g1"))
	if len(a) != 2 {
		t.Fatalf("knight g1: got %v", a)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("select not idempotent (-first +second):\n%s", diff)
	}
	if got := e.Select(MustSquare("g8")); got != nil {
		t.Fatalf("black piece on white's turn: %v", got)
	}
	if got := e.Select(MustSquare("e4")); got != nil {
		t.Fatalf("empty square: %v", got)
	}
}

func TestFlag_Timeout(t *testing.T) {
	e := NewEngine()
	mustMove(t, e, "e2e4")
	st, err := e.Flag(Black)
	if err != nil {
		t.Fatalf("Flag: %v", err)
	}
	if st.Status != StatusTimeout || st.Result != "1-0" {
		t.Fatalf("flag: status=%s result=%s", st.Status, st.Result)
	}
	if _, err := e.Flag(White); !errors.Is(err, ErrGameOver) {
		t.Fatalf("second flag: want ErrGameOver, got %v", err)
	}
}

func TestNewGame_Resets(t *testing.T) {
	e := NewEngine()
	mustMove(t, e, "e2e4")
	mustMove(t, e, "e7e5")
	st := e.NewGame()
	if diff := cmp.Diff(NewEngine().State(), st); diff != "" {
		t.Fatalf("NewGame (-want +got):\n%s", diff)
	}
}
