package rules

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNotate(t *testing.T) {
	wp := Piece{Type: Pawn, Color: White}
	bn := Piece{Type: Knight, Color: Black}
	cases := []struct {
		m    Move
		want string
	}{
		{Move{From: MustSquare("e2"), To: MustSquare("e4"), Piece: wp}, "e4"},
		{Move{From: MustSquare("e4"), To: MustSquare("d5"), Piece: wp, Captured: Piece{Type: Pawn, Color: Black}}, "exd5"},
		{Move{From: MustSquare("g8"), To: MustSquare("f6"), Piece: bn, Mover: Black}, "Nf6"},
		{Move{From: MustSquare("f6"), To: MustSquare("e4"), Piece: bn, Captured: wp, Mover: Black}, "Nxe4"},
		{Move{From: MustSquare("b7"), To: MustSquare("a8"), Piece: wp, Captured: Piece{Type: Rook, Color: Black}, Promotion: Queen}, "bxa8=Q"},
	}
	for _, tc := range cases {
		if got := Notate(tc.m); got != tc.want {
			t.Fatalf("Notate(%s): got %q want %q", tc.m.UCI(), got, tc.want)
		}
	}
}

func TestExportNotation_ScholarsMate(t *testing.T) {
	e := NewEngine()
	for _, mv := range []string{"e2e4", "e7e5", "d1h5", "b8c6", "f1c4", "g8f6", "h5f7"} {
		mustMove(t, e, mv)
	}
	want := []string{"e4", "e5", "Qh5", "Nc6", "Bc4", "Nf6", "Qxf7"}
	if diff := cmp.Diff(want, e.ExportNotation()); diff != "" {
		t.Fatalf("notation (-want +got):\n%s", diff)
	}
	if e.Status() != StatusCheckmate || e.Result() != "1-0" {
		t.Fatalf("scholar's mate: status=%s result=%s", e.Status(), e.Result())
	}
}

func TestParseUCI(t *testing.T) {
	from, to, promo, err := ParseUCI(" E7E8q ")
	if err != nil {
		t.Fatalf("ParseUCI: %v", err)
	}
	if from.String() != "e7" || to.String() != "e8" || promo != Queen {
		t.Fatalf("got %s %s %s", from, to, promo)
	}
	if _, _, _, err := ParseUCI("e2"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("short input: %v", err)
	}
	if _, _, _, err := ParseUCI("i2i4"); !errors.Is(err, ErrInvalidSquare) {
		t.Fatalf("bad file: %v", err)
	}
	if _, _, _, err := ParseUCI("e7e8x"); !errors.Is(err, ErrInvalidPromotion) {
		t.Fatalf("bad promo: %v", err)
	}
}

func TestReplay_MatchesLiveGame(t *testing.T) {
	moves := []string{"e2e4", "d7d5", "e4d5", "g8f6", "f1b5", "c7c6", "d5c6", "d8d2"}
	live := NewEngine()
	for _, mv := range moves {
		mustMove(t, live, mv)
	}
	replayed, err := Replay(moves)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if diff := cmp.Diff(live.State(), replayed.State()); diff != "" {
		t.Fatalf("replay diverged (-live +replayed):\n%s", diff)
	}
	if diff := cmp.Diff(moves, replayed.ExportUCI()); diff != "" {
		t.Fatalf("ExportUCI (-want +got):\n%s", diff)
	}
}

func TestReplay_RejectsIllegalPly(t *testing.T) {
	_, err := Replay([]string{"e2e4", "e7e5", "e4e5"})
	if !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("want ErrIllegalMove, got %v", err)
	}
	if !strings.Contains(err.Error(), "ply 3") {
		t.Fatalf("error should name the ply: %v", err)
	}
}

func TestVerifyCaptured_DetectsDrift(t *testing.T) {
	e, err := Replay([]string{"e2e4", "d7d5", "e4d5"})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	e.captured.Black = append(e.captured.Black, Piece{Type: Queen, Color: White})
	var iv *InvariantViolation
	if err := e.verifyCaptured(); !errors.As(err, &iv) {
		t.Fatalf("want InvariantViolation, got %v", err)
	}
}

func TestFEN_RoundTrip(t *testing.T) {
	e := NewEngine()
	mustMove(t, e, "e2e4")
	st := e.State()
	got := FEN(st.Board, st.Turn, st.MoveCount)
	want := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b - - 0 1"
	if got != want {
		t.Fatalf("FEN: got %q want %q", got, want)
	}
	b, err := ParseBoard(strings.Fields(got)[0])
	if err != nil {
		t.Fatalf("ParseBoard: %v", err)
	}
	if b != st.Board {
		t.Fatalf("placement round trip mismatch:\n%s", b.String())
	}
	for _, bad := range []string{"8/8/8", "9/8/8/8/8/8/8/8", "rnbqkbnrr/8/8/8/8/8/8/8", "xnbqkbnr/8/8/8/8/8/8/8"} {
		if _, err := ParseBoard(bad); err == nil {
			t.Fatalf("ParseBoard(%q): want error", bad)
		}
	}
}

func TestSquareNotation(t *testing.T) {
	sq, err := ParseSquare("e4")
	if err != nil || sq != (Square{Row: 4, Col: 4}) {
		t.Fatalf("ParseSquare(e4): %+v %v", sq, err)
	}
	if s := (Square{Row: 0, Col: 0}).String(); s != "a8" {
		t.Fatalf("row0/col0: %s", s)
	}
	if s := (Square{Row: 7, Col: 7}).String(); s != "h1" {
		t.Fatalf("row7/col7: %s", s)
	}
	for _, bad := range []string{"", "a9", "z1", "a", "e44"} {
		if _, err := ParseSquare(bad); !errors.Is(err, ErrInvalidSquare) {
			t.Fatalf("ParseSquare(%q): %v", bad, err)
		}
	}
}
