package rules

import (
	"sort"
	"testing"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/go-cmp/cmp"
)

// oracleMoves lists the from+to pairs corentings/chess accepts for a FEN
// that carries no castling or en passant rights. Promotions collapse into one entry.
func oracleMoves(t *testing.T, fen string) []string {
	t.Helper()
	opt, err := nchess.FEN(fen)
	if err != nil {
		t.Fatalf("chess.FEN(%q): %v", fen, err)
	}
	game := nchess.NewGame(opt)
	seen := map[string]bool{}
	var out []string
	for _, mv := range game.ValidMoves() {
		key := mv.S1().String() + mv.S2().String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func ourMoves(b *Board, turn Color) []string {
	var out []string
	for _, m := range AllLegalMoves(b, turn) {
		out = append(out, m.From.String()+m.To.String())
	}
	sort.Strings(out)
	return out
}

func TestLegalMoves_AgreeWithReferenceLibrary(t *testing.T) {
	lines := [][]string{
		nil,
		{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "g8f6"},
		{"d2d4", "d7d5", "c2c4", "d5c4", "e2e3", "b7b5", "a2a4", "c7c6"},
		{"e2e4", "d7d5", "e4d5", "d8d5", "b1c3", "d5a5", "d2d4", "c7c6", "g1f3", "c8g4"},
		{"f2f3", "e7e5", "g2g4"},
	}
	for _, line := range lines {
		e, err := Replay(line)
		if err != nil {
			t.Fatalf("Replay(%v): %v", line, err)
		}
		st := e.State()
		fen := FEN(st.Board, st.Turn, st.MoveCount)
		if diff := cmp.Diff(oracleMoves(t, fen), ourMoves(&st.Board, st.Turn)); diff != "" {
			t.Fatalf("%s (-reference +ours):\n%s", fen, diff)
		}
	}

	positions := []struct {
		fen  string
		turn Color
	}{
		{"4k3/P7/8/8/8/8/8/4K3 w - - 0 1", White},
		{"4k3/8/8/8/4r3/8/4R3/4K3 w - - 0 1", White},
		{"r6k/8/8/8/8/8/q7/K7 w - - 0 1", White},
		{"7k/8/8/7p/7P/1q6/8/K7 w - - 0 1", White},
		{"4k3/8/8/8/8/8/6p1/4K2R b - - 0 1", Black},
	}
	for _, p := range positions {
		b := mustBoard(t, p.fen[:len(p.fen)-len(" w - - 0 1")])
		if diff := cmp.Diff(oracleMoves(t, p.fen), ourMoves(&b, p.turn)); diff != "" {
			t.Fatalf("%s (-reference +ours):\n%s", p.fen, diff)
		}
	}
}
