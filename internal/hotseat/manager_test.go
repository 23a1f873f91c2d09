package hotseat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/park285/hotseat-chess/internal/msgcat"
	"github.com/park285/hotseat-chess/internal/rules"
	"github.com/park285/hotseat-chess/pkg/chessdto"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestManager(t *testing.T, opts Options) (*Manager, *fakeClock) {
	t.Helper()
	m, fc, _ := newTestManagerRedis(t, opts)
	return m, fc
}

func newTestManagerRedis(t *testing.T, opts Options) (*Manager, *fakeClock, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	url := fmt.Sprintf("redis://%s/0", mr.Addr())
	store, err := NewRedisStore(context.Background(), url, time.Hour)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	fc := &fakeClock{t: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)}
	opts.Now = fc.Now
	m := NewManager(store, NewMemoryArchive(), msgcat.MustDefault(), opts)
	t.Cleanup(func() { _ = m.Close() })
	return m, fc, mr
}

func play(t *testing.T, m *Manager, id string, moves ...string) *View {
	t.Helper()
	var v *View
	for _, mv := range moves {
		var err error
		v, _, err = m.Move(context.Background(), id, MoveInput{UCI: mv})
		if err != nil {
			t.Fatalf("Move %s: %v", mv, err)
		}
	}
	return v
}

func TestCreateAndMove(t *testing.T) {
	m, _ := newTestManager(t, Options{})
	ctx := context.Background()

	v, err := m.Create(ctx, CreateParams{WhiteName: "Alice", BlackName: "Bob"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if v.Game.ID == "" || v.State.Status != rules.StatusOngoing || v.State.Turn != rules.White {
		t.Fatalf("unexpected new game: id=%q status=%s turn=%s", v.Game.ID, v.State.Status, v.State.Turn)
	}
	if !strings.Contains(v.Message, "Alice") {
		t.Fatalf("new game message should name white: %q", v.Message)
	}

	v, mv, err := m.Move(ctx, v.Game.ID, MoveInput{From: "e2", To: "e4"})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if mv.UCI() != "e2e4" || v.State.Turn != rules.Black {
		t.Fatalf("unexpected move result: %s turn=%s", mv.UCI(), v.State.Turn)
	}

	got, err := m.Get(ctx, v.Game.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff([]string{"e2e4"}, got.Game.MovesUCI); diff != "" {
		t.Fatalf("stored moves mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"e4"}, got.Notation); diff != "" {
		t.Fatalf("notation mismatch (-want +got):\n%s", diff)
	}
}

func TestMove_RejectedLeavesGameUntouched(t *testing.T) {
	m, _ := newTestManager(t, Options{})
	ctx := context.Background()
	v, err := m.Create(ctx, CreateParams{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := v.Game.ID

	cases := []struct {
		in   MoveInput
		code string
	}{
		{MoveInput{UCI: "e2e5"}, chessdto.CodeIllegalMove},
		{MoveInput{UCI: "e7e5"}, chessdto.CodeIllegalMove},
		{MoveInput{From: "e2", To: "z9"}, chessdto.CodeInvalidSquare},
		{MoveInput{From: "e2", To: "e4", Promotion: "x"}, chessdto.CodeInvalidPromotion},
	}
	for _, tc := range cases {
		_, _, err := m.Move(ctx, id, tc.in)
		if err == nil {
			t.Fatalf("%s: expected error", tc.in)
		}
		if de := ToDomainError(err, m.Messages()); de.Code != tc.code {
			t.Fatalf("%s: code=%q want %q (%v)", tc.in, de.Code, tc.code, err)
		}
	}
	_, _, err = m.Move(ctx, id, MoveInput{UCI: "e7e5"})
	if !errors.Is(err, ErrNoPiece) {
		t.Fatalf("moving the opponent's piece: want ErrNoPiece, got %v", err)
	}

	got, err := m.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Game.MovesUCI) != 0 || got.State.Turn != rules.White {
		t.Fatalf("rejected moves changed the game: %v turn=%s", got.Game.MovesUCI, got.State.Turn)
	}
}

func TestFoolsMateArchivesOnce(t *testing.T) {
	m, _ := newTestManager(t, Options{})
	ctx := context.Background()
	v, err := m.Create(ctx, CreateParams{WhiteName: "W", BlackName: "B"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := v.Game.ID

	v = play(t, m, id, "f2f3", "e7e5", "g2g4", "d8h4")
	if v.State.Status != rules.StatusCheckmate || v.State.Result != "0-1" {
		t.Fatalf("expected checkmate 0-1, got %s %s", v.State.Status, v.State.Result)
	}
	if !strings.Contains(v.Message, "B wins") {
		t.Fatalf("checkmate message: %q", v.Message)
	}

	_, _, err = m.Move(ctx, id, MoveInput{UCI: "a2a3"})
	if !errors.Is(err, rules.ErrGameOver) {
		t.Fatalf("want ErrGameOver, got %v", err)
	}
	if de := ToDomainError(err, m.Messages()); de.Code != chessdto.CodeGameOver || !strings.Contains(de.Message, "0-1") {
		t.Fatalf("unexpected domain error: %+v", de)
	}

	// A second read must not archive again.
	if _, err := m.Get(ctx, id); err != nil {
		t.Fatalf("Get: %v", err)
	}
	hist, err := m.History(ctx, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("expected 1 archived game, got %d", len(hist))
	}
	rec := hist[0]
	if rec.ID != id+"-1" || rec.Result != "0-1" || rec.Status != "checkmate" {
		t.Fatalf("unexpected archive record: %+v", rec)
	}
	if !strings.Contains(rec.PGN, `[Result "0-1"]`) || !strings.Contains(rec.PGN, "1. f3 e5 2. g4 Qh4 0-1") {
		t.Fatalf("unexpected PGN:\n%s", rec.PGN)
	}
	if _, err := m.Archived(ctx, rec.ID); err != nil {
		t.Fatalf("Archived: %v", err)
	}
	if _, err := m.Archived(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUndo(t *testing.T) {
	m, _ := newTestManager(t, Options{})
	ctx := context.Background()
	v, _ := m.Create(ctx, CreateParams{})
	id := v.Game.ID

	if _, err := m.Undo(ctx, id); !errors.Is(err, rules.ErrNothingToUndo) {
		t.Fatalf("want ErrNothingToUndo, got %v", err)
	}
	play(t, m, id, "e2e4", "d7d5", "e4d5")
	v, err := m.Undo(ctx, id)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if diff := cmp.Diff([]string{"e2e4", "d7d5"}, v.Game.MovesUCI); diff != "" {
		t.Fatalf("moves after undo (-want +got):\n%s", diff)
	}
	if len(v.State.Captured.White) != 0 || v.State.Turn != rules.White {
		t.Fatalf("undo did not restore captures/turn: %+v", v.State.Captured)
	}
	if !strings.Contains(v.Message, "exd5") {
		t.Fatalf("undo message: %q", v.Message)
	}
}

func TestClockFlagFallAndUndo(t *testing.T) {
	m, fc := newTestManager(t, Options{ClockEnabled: true, ClockBudget: 10 * time.Second})
	ctx := context.Background()
	v, err := m.Create(ctx, CreateParams{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := v.Game.ID

	fc.Advance(2 * time.Second)
	v = play(t, m, id, "e2e4")
	if got := v.Game.Clock.Remaining(rules.White); got != 8*time.Second {
		t.Fatalf("white remaining = %v, want 8s", got)
	}
	if v.Game.Clock.Active != rules.Black {
		t.Fatalf("clock did not switch to black")
	}

	fc.Advance(11 * time.Second)
	v, err = m.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !v.FlagFell || v.State.Status != rules.StatusTimeout || v.State.Result != "1-0" {
		t.Fatalf("expected black flag fall, got status=%s result=%s fell=%v", v.State.Status, v.State.Result, v.FlagFell)
	}
	if v.Game.Clock.Remaining(rules.Black) != 0 || v.Game.Clock.Running {
		t.Fatalf("flagged clock should be stopped at zero: %+v", v.Game.Clock)
	}
	if _, _, err := m.Move(ctx, id, MoveInput{UCI: "e7e5"}); !errors.Is(err, rules.ErrGameOver) {
		t.Fatalf("move after flag: want ErrGameOver, got %v", err)
	}

	v, err = m.Undo(ctx, id)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if v.State.Status != rules.StatusOngoing || v.Game.Flagged != nil {
		t.Fatalf("undo should resume the game: status=%s flagged=%v", v.State.Status, v.Game.Flagged)
	}
	c := v.Game.Clock
	if c.Flagged || !c.Running || c.Active != rules.White {
		t.Fatalf("clock not restarted after undo: %+v", c)
	}
	if c.Remaining(rules.Black) != 10*time.Second || c.Remaining(rules.White) != 8*time.Second {
		t.Fatalf("remaining after undo: white=%s black=%s", c.Remaining(rules.White), c.Remaining(rules.Black))
	}

	// The revived clock still flags.
	fc.Advance(9 * time.Second)
	if v, err = m.Get(ctx, id); err != nil || !v.FlagFell || v.Game.Flagged == nil || *v.Game.Flagged != rules.White {
		t.Fatalf("second flag fall: err=%v fell=%v", err, v != nil && v.FlagFell)
	}
}

// timedOutGame plays 1.e4 on a 10s clock and lets black run out with no
// request in between, so the next command is the first to see the flag.
func timedOutGame(t *testing.T) (*Manager, string, <-chan Event) {
	t.Helper()
	m, fc := newTestManager(t, Options{ClockEnabled: true, ClockBudget: 10 * time.Second})
	v, err := m.Create(context.Background(), CreateParams{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := v.Game.ID
	fc.Advance(2 * time.Second)
	play(t, m, id, "e2e4")
	fc.Advance(11 * time.Second)
	ch, cancel := m.Feed().Subscribe(id)
	t.Cleanup(cancel)
	return m, id, ch
}

func drainEvents(ch <-chan Event) []string {
	var types []string
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return types
			}
			types = append(types, ev.Type)
		default:
			return types
		}
	}
}

func assertTimeoutArchived(t *testing.T, m *Manager) {
	t.Helper()
	games, err := m.History(context.Background(), 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(games) != 1 || games[0].Status != string(rules.StatusTimeout) || games[0].Result != "1-0" {
		t.Fatalf("timeout round not archived: %+v", games)
	}
}

func TestCommandsAfterUnobservedFlagFall(t *testing.T) {
	ctx := context.Background()

	t.Run("undo", func(t *testing.T) {
		m, id, ch := timedOutGame(t)
		v, err := m.Undo(ctx, id)
		if err != nil {
			t.Fatalf("Undo: %v", err)
		}
		if !v.FlagFell || v.State.Status != rules.StatusOngoing || len(v.Game.MovesUCI) != 0 {
			t.Fatalf("undo view: fell=%v status=%s moves=%v", v.FlagFell, v.State.Status, v.Game.MovesUCI)
		}
		if v.Game.Flagged != nil || v.Game.Clock.Flagged || !v.Game.Clock.Running {
			t.Fatalf("clock left flagged: %+v", v.Game.Clock)
		}
		assertTimeoutArchived(t, m)
		if diff := cmp.Diff([]string{EventFlag, EventUndo}, drainEvents(ch)); diff != "" {
			t.Fatalf("events (-want +got):\n%s", diff)
		}
	})

	t.Run("new game", func(t *testing.T) {
		m, id, ch := timedOutGame(t)
		v, err := m.NewGame(ctx, id)
		if err != nil {
			t.Fatalf("NewGame: %v", err)
		}
		if v.Game.Round != 2 || v.State.Status != rules.StatusOngoing || v.Game.Clock.Flagged {
			t.Fatalf("new round: round=%d status=%s clock=%+v", v.Game.Round, v.State.Status, v.Game.Clock)
		}
		assertTimeoutArchived(t, m)
		if diff := cmp.Diff([]string{EventFlag, EventNewGame}, drainEvents(ch)); diff != "" {
			t.Fatalf("events (-want +got):\n%s", diff)
		}
	})

	t.Run("move", func(t *testing.T) {
		m, id, ch := timedOutGame(t)
		if _, _, err := m.Move(ctx, id, MoveInput{UCI: "e7e5"}); !errors.Is(err, rules.ErrGameOver) {
			t.Fatalf("Move: want ErrGameOver, got %v", err)
		}
		v, err := m.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if v.State.Status != rules.StatusTimeout || v.Game.Flagged == nil || *v.Game.Flagged != rules.Black {
			t.Fatalf("flag fall not stored: status=%s flagged=%v", v.State.Status, v.Game.Flagged)
		}
		assertTimeoutArchived(t, m)
		if diff := cmp.Diff([]string{EventFlag}, drainEvents(ch)); diff != "" {
			t.Fatalf("events (-want +got):\n%s", diff)
		}
	})

	t.Run("flip", func(t *testing.T) {
		m, id, ch := timedOutGame(t)
		v, err := m.Flip(ctx, id)
		if err != nil {
			t.Fatalf("Flip: %v", err)
		}
		if !v.Game.Flipped || v.State.Status != rules.StatusTimeout {
			t.Fatalf("flip view: flipped=%v status=%s", v.Game.Flipped, v.State.Status)
		}
		assertTimeoutArchived(t, m)
		if diff := cmp.Diff([]string{EventFlag, EventState}, drainEvents(ch)); diff != "" {
			t.Fatalf("events (-want +got):\n%s", diff)
		}
	})
}

func TestSweepFlagsIdleGames(t *testing.T) {
	m, fc := newTestManager(t, Options{ClockBudget: 5 * time.Second})
	ctx := context.Background()
	on, off := true, false
	if _, err := m.Create(ctx, CreateParams{ClockEnabled: &on}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Create(ctx, CreateParams{ClockEnabled: &off}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	fc.Advance(6 * time.Second)
	n, err := m.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 flagged game, got %d", n)
	}
	if n, _ := m.Sweep(ctx); n != 0 {
		t.Fatalf("flag fall reported twice")
	}
}

func TestSweepLetsIdleGamesExpire(t *testing.T) {
	m, _, mr := newTestManagerRedis(t, Options{})
	ctx := context.Background()
	on, off := true, false
	timed, err := m.Create(ctx, CreateParams{ClockEnabled: &on})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	untimed, err := m.Create(ctx, CreateParams{ClockEnabled: &off})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	mr.FastForward(time.Minute)
	if _, err := m.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if ttl := mr.TTL(keyGame(untimed.Game.ID)); ttl >= time.Hour {
		t.Fatalf("sweep refreshed the TTL: %s", ttl)
	}

	for i := 0; i < 120; i++ {
		mr.FastForward(time.Minute)
		if _, err := m.Sweep(ctx); err != nil {
			t.Fatalf("Sweep: %v", err)
		}
	}
	for _, id := range []string{timed.Game.ID, untimed.Game.ID} {
		if _, err := m.Get(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("game %s outlived its TTL: %v", id, err)
		}
	}
}

func TestNewGameStartsNextRound(t *testing.T) {
	m, _ := newTestManager(t, Options{})
	ctx := context.Background()
	v, _ := m.Create(ctx, CreateParams{})
	id := v.Game.ID
	play(t, m, id, "f2f3", "e7e5", "g2g4", "d8h4")

	v, err := m.NewGame(ctx, id)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if v.Game.Round != 2 || v.Game.Archived || len(v.Game.MovesUCI) != 0 || v.State.Status != rules.StatusOngoing {
		t.Fatalf("unexpected round state: %+v status=%s", v.Game, v.State.Status)
	}
	if v.Game.ArchiveID() != id+"-2" {
		t.Fatalf("archive id = %q", v.Game.ArchiveID())
	}
}

func TestSelectAndHints(t *testing.T) {
	m, _ := newTestManager(t, Options{})
	ctx := context.Background()
	v, _ := m.Create(ctx, CreateParams{})
	id := v.Game.ID

	sel, err := m.Select(ctx, id, "e2")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	dto := SelectionDTO(sel)
	want := []chessdto.Target{{To: "e3"}, {To: "e4"}}
	if diff := cmp.Diff(want, dto.Targets); diff != "" {
		t.Fatalf("targets (-want +got):\n%s", diff)
	}

	sel, err = m.Select(ctx, id, "e7")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(sel.Targets) != 0 || sel.View.Message == "" {
		t.Fatalf("opponent piece should select nothing with a hint: %+v", sel)
	}

	if _, err := m.SetHints(ctx, id, false); err != nil {
		t.Fatalf("SetHints: %v", err)
	}
	sel, err = m.Select(ctx, id, "g1")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(sel.Targets) != 2 {
		t.Fatalf("engine result must not depend on hints, got %d", len(sel.Targets))
	}
	if got := SelectionDTO(sel).Targets; len(got) != 0 {
		t.Fatalf("hints off should hide targets, got %v", got)
	}

	if _, err := m.Select(ctx, id, "k9"); !errors.Is(err, rules.ErrInvalidSquare) {
		t.Fatalf("want ErrInvalidSquare, got %v", err)
	}
}

func TestFlipKeepsPosition(t *testing.T) {
	m, _ := newTestManager(t, Options{})
	ctx := context.Background()
	v, _ := m.Create(ctx, CreateParams{})
	before := ToDTO(v).FEN

	v, err := m.Flip(ctx, v.Game.ID)
	if err != nil {
		t.Fatalf("Flip: %v", err)
	}
	dto := ToDTO(v)
	if dto.Orientation != "black" || dto.FEN != before {
		t.Fatalf("flip changed the wrong thing: orientation=%s fen=%s", dto.Orientation, dto.FEN)
	}
}

func TestDispatch(t *testing.T) {
	m, _ := newTestManager(t, Options{})
	ctx := context.Background()
	v, _ := m.Create(ctx, CreateParams{})
	id := v.Game.ID

	res, err := m.Dispatch(ctx, Command{Kind: CmdMove, GameID: id, Move: MoveInput{UCI: "g1f3"}})
	if err != nil {
		t.Fatalf("Dispatch move: %v", err)
	}
	if res.Move == nil || rules.Notate(*res.Move) != "Nf3" {
		t.Fatalf("unexpected move result: %+v", res.Move)
	}
	res, err = m.Dispatch(ctx, Command{Kind: CmdSelect, GameID: id, Square: "b8"})
	if err != nil || res.Selection == nil || len(res.Selection.Targets) != 2 {
		t.Fatalf("Dispatch select: %+v %v", res, err)
	}
	if _, err := m.Dispatch(ctx, Command{Kind: "resign", GameID: id}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("unknown command: want ErrBadRequest, got %v", err)
	}
	if _, err := m.Dispatch(ctx, Command{Kind: CmdGet}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("missing id: want ErrBadRequest, got %v", err)
	}
	if _, err := m.Dispatch(ctx, Command{Kind: CmdGet, GameID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown game: want ErrNotFound, got %v", err)
	}
}

func TestFeedPublishesMoves(t *testing.T) {
	m, _ := newTestManager(t, Options{})
	ctx := context.Background()
	v, _ := m.Create(ctx, CreateParams{})
	id := v.Game.ID

	ch, cancel := m.Feed().Subscribe(id)
	defer cancel()
	play(t, m, id, "d2d4")
	select {
	case ev := <-ch:
		if ev.Type != EventMove || len(ev.View.Game.MovesUCI) != 1 {
			t.Fatalf("unexpected event: %s %v", ev.Type, ev.View.Game.MovesUCI)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event received")
	}
	// Plain reads are not broadcast.
	if _, err := m.Get(ctx, id); err != nil {
		t.Fatalf("Get: %v", err)
	}
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event after read: %s", ev.Type)
	default:
	}
}

func TestRenderAndPGN(t *testing.T) {
	m, _ := newTestManager(t, Options{Event: "Club Night", Site: "Home"})
	ctx := context.Background()
	v, _ := m.Create(ctx, CreateParams{WhiteName: "Ann", BlackName: "Ben"})
	id := v.Game.ID
	play(t, m, id, "e2e4", "e7e5")

	img, err := m.Render(ctx, id, "g1")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(img, []byte("\x89PNG")) {
		t.Fatalf("render did not produce a PNG")
	}
	if _, err := m.Render(ctx, id, "x0"); !errors.Is(err, rules.ErrInvalidSquare) {
		t.Fatalf("want ErrInvalidSquare, got %v", err)
	}

	text, err := m.PGN(ctx, id)
	if err != nil {
		t.Fatalf("PGN: %v", err)
	}
	for _, want := range []string{`[Event "Club Night"]`, `[White "Ann"]`, `[Date "2026.10.19"]`, "1. e4 e5 *"} {
		if !strings.Contains(text, want) {
			t.Fatalf("PGN missing %q:\n%s", want, text)
		}
	}
}

func TestToDTO(t *testing.T) {
	m, _ := newTestManager(t, Options{ClockEnabled: true})
	ctx := context.Background()
	v, _ := m.Create(ctx, CreateParams{})
	v = play(t, m, v.Game.ID, "e2e4", "d7d5", "e4d5")

	dto := ToDTO(v)
	if dto.Turn != "black" || dto.MoveCount != 3 || dto.Status != "ongoing" {
		t.Fatalf("unexpected header fields: %+v", dto)
	}
	if diff := cmp.Diff([]string{"p"}, dto.Captured.White); diff != "" {
		t.Fatalf("captured (-want +got):\n%s", diff)
	}
	if dto.Material.Diff() != 1 {
		t.Fatalf("material diff = %d", dto.Material.Diff())
	}
	if dto.LastMove == nil || dto.LastMove.Notation != "exd5" || dto.LastMove.Captured != "p" {
		t.Fatalf("last move: %+v", dto.LastMove)
	}
	wantRows := []chessdto.MoveRow{{Number: 1, White: "e4", Black: "d5"}, {Number: 2, White: "exd5"}}
	if diff := cmp.Diff(wantRows, dto.Rows); diff != "" {
		t.Fatalf("rows (-want +got):\n%s", diff)
	}
	if dto.Clock == nil || dto.Clock.White != "10:00" || dto.Clock.Active != "black" {
		t.Fatalf("clock: %+v", dto.Clock)
	}
}
