package pgn

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRows(t *testing.T) {
	got := Rows([]string{"e4", "e5", "Nf3"})
	want := []Row{{Number: 1, White: "e4", Black: "e5"}, {Number: 2, White: "Nf3"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Rows (-want +got):\n%s", diff)
	}
	if rows := Rows(nil); len(rows) != 0 {
		t.Fatalf("empty input: %v", rows)
	}
}

func TestMoveText_BreaksEveryFiveMoves(t *testing.T) {
	moves := make([]string, 0, 13)
	for i := 0; i < 13; i++ {
		moves = append(moves, "m"+string(rune('a'+i)))
	}
	got := MoveText(moves)
	want := "1. ma mb 2. mc md 3. me mf 4. mg mh 5. mi mj\n6. mk ml 7. mm"
	if got != want {
		t.Fatalf("MoveText:\n got %q\nwant %q", got, want)
	}
}

func TestBuild(t *testing.T) {
	h := Header{
		Event:  "Casual \"Game\"",
		Site:   "Local",
		Date:   time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC),
		White:  "Alice",
		Black:  "Bob\\",
		Result: "1-0",
		ECO:    "C20",
	}
	got := Build(h, []string{"e4", "e5", "Qh5", "Nc6", "Bc4", "Nf6", "Qxf7"})
	for _, line := range []string{
		`[Event "Casual 'Game'"]`,
		`[Site "Local"]`,
		`[Date "2024.03.09"]`,
		`[White "Alice"]`,
		`[Black "Bob"]`,
		`[Result "1-0"]`,
		`[ECO "C20"]`,
	} {
		if !strings.Contains(got, line+"\n") {
			t.Fatalf("missing %s in:\n%s", line, got)
		}
	}
	if strings.Contains(got, "[Opening") || strings.Contains(got, "[TimeControl") {
		t.Fatalf("empty optional tags should be omitted:\n%s", got)
	}
	if !strings.HasSuffix(got, "\n\n1. e4 e5 2. Qh5 Nc6 3. Bc4 Nf6 4. Qxf7 1-0") {
		t.Fatalf("move text:\n%s", got)
	}
}

func TestBuild_EmptyGameDefaultsToOngoing(t *testing.T) {
	got := Build(Header{Event: "E", Site: "S", White: "W", Black: "B"}, nil)
	if !strings.Contains(got, `[Result "*"]`) || !strings.HasSuffix(got, "\n\n*") {
		t.Fatalf("empty game:\n%s", got)
	}
}
