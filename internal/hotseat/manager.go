package hotseat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/hotseat-chess/internal/clock"
	"github.com/park285/hotseat-chess/internal/domain"
	"github.com/park285/hotseat-chess/internal/msgcat"
	"github.com/park285/hotseat-chess/internal/obslog"
	"github.com/park285/hotseat-chess/internal/opening"
	"github.com/park285/hotseat-chess/internal/pgn"
	"github.com/park285/hotseat-chess/internal/render"
	"github.com/park285/hotseat-chess/internal/rules"
)

// Options holds manager defaults. Zero values are filled in by NewManager.
type Options struct {
	ClockEnabled bool
	ClockBudget  time.Duration
	WhiteName    string
	BlackName    string
	Event        string
	Site         string
	SquareSize   int
	Now          func() time.Time
}

// Manager executes game commands. Every mutating command for one game runs
// under that game's lock and is written back through Store.Update.
type Manager struct {
	store    Store
	archive  Archive
	renderer render.BoardRenderer
	labeler  *opening.Labeler
	msgs     *msgcat.Catalog
	feed     *Feed
	opts     Options
	locks    sync.Map
}

func NewManager(store Store, archive Archive, msgs *msgcat.Catalog, opts Options) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	if archive == nil {
		archive = NewMemoryArchive()
	}
	if msgs == nil {
		msgs = msgcat.MustDefault()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ClockBudget <= 0 {
		opts.ClockBudget = clock.DefaultBudget
	}
	if strings.TrimSpace(opts.WhiteName) == "" {
		opts.WhiteName = "White"
	}
	if strings.TrimSpace(opts.BlackName) == "" {
		opts.BlackName = "Black"
	}
	if strings.TrimSpace(opts.Event) == "" {
		opts.Event = "Casual Game"
	}
	if strings.TrimSpace(opts.Site) == "" {
		opts.Site = "Local"
	}
	return &Manager{
		store:    store,
		archive:  archive,
		renderer: render.NewRenderer(opts.SquareSize),
		labeler:  opening.NewLabeler(),
		msgs:     msgs,
		feed:     NewFeed(),
		opts:     opts,
	}
}

func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	return errors.Join(m.store.Close(), m.archive.Close())
}

// Feed exposes the live event stream.
func (m *Manager) Feed() *Feed { return m.feed }

// Messages returns the catalog used for notifications.
func (m *Manager) Messages() *msgcat.Catalog { return m.msgs }

func (m *Manager) lock(id string) *sync.Mutex {
	v, _ := m.locks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Create starts a board in the initial position.
func (m *Manager) Create(ctx context.Context, p CreateParams) (*View, error) {
	now := m.opts.Now()
	g := &Game{
		ID:           uuid.NewString(),
		Round:        1,
		WhiteName:    firstNonEmpty(p.WhiteName, m.opts.WhiteName),
		BlackName:    firstNonEmpty(p.BlackName, m.opts.BlackName),
		MovesUCI:     []string{},
		ShowHints:    true,
		ClockCharged: now,
		RoundStarted: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	enabled := m.opts.ClockEnabled
	if p.ClockEnabled != nil {
		enabled = *p.ClockEnabled
	}
	if enabled {
		budget := p.ClockBudget
		if budget <= 0 {
			budget = m.opts.ClockBudget
		}
		g.Clock = clock.New(budget)
		g.Clock.Start()
	}
	if err := m.store.Create(ctx, g); err != nil {
		return nil, err
	}

	v := m.view(g, rules.NewEngine(), m.newGameMessage(g))
	obslog.L().Info("game_create",
		zap.String("game_id", g.ID),
		zap.String("white", g.WhiteName),
		zap.String("black", g.BlackName),
		zap.Bool("clock", g.Clock != nil),
	)
	m.feed.Publish(g.ID, Event{Type: EventNewGame, View: v})
	return v, nil
}

// Get returns the current state, charging the running clock first.
func (m *Manager) Get(ctx context.Context, id string) (*View, error) {
	return m.apply(ctx, id, EventState, nil)
}

// Select lists the legal destinations of the piece on square. Nothing is written.
func (m *Manager) Select(ctx context.Context, id, square string) (*Selection, error) {
	sq, err := rules.ParseSquare(square)
	if err != nil {
		return nil, &MoveError{Input: square, Err: err}
	}
	g, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	e, err := g.engine()
	if err != nil {
		m.logInvariant(id, err)
		return nil, err
	}
	m.charge(g, e, m.opts.Now())
	targets := e.Select(sq)

	msg := ""
	board := e.Board()
	if p := board.At(sq); !e.Status().Terminal() && (p.IsEmpty() || p.Color != e.Turn()) {
		msg = m.msgs.Text("move.no_piece", nil, "Select one of your own pieces first.")
	}
	return &Selection{View: m.view(g, e, msg), Square: sq, Targets: targets}, nil
}

// Move commits a move for the side to move.
func (m *Manager) Move(ctx context.Context, id string, in MoveInput) (*View, rules.Move, error) {
	from, to, promo, err := parseMoveInput(in)
	if err != nil {
		return nil, rules.Move{}, &MoveError{Input: in.String(), Err: err}
	}
	var played rules.Move
	v, err := m.apply(ctx, id, EventMove, func(g *Game, e *rules.Engine, _ time.Time) (string, error) {
		if e.Status().Terminal() {
			return "", &MoveError{Input: in.String(), Result: e.Result(), Err: rules.ErrGameOver}
		}
		board := e.Board()
		if p := board.At(from); p.IsEmpty() || p.Color != e.Turn() {
			return "", &MoveError{Input: in.String(), Err: ErrNoPiece}
		}
		st, err := e.SubmitMove(from, to, promo)
		if err != nil {
			return "", &MoveError{Input: in.String(), Result: e.Result(), Err: err}
		}
		played, _ = st.LastMove()
		return "", nil
	})
	if err != nil {
		return nil, rules.Move{}, err
	}
	obslog.L().Info("game_move",
		zap.String("game_id", id),
		zap.String("uci", played.UCI()),
		zap.String("notation", rules.Notate(played)),
		zap.String("mover", played.Mover.String()),
		zap.String("status", string(v.State.Status)),
		zap.String("result", v.State.Result),
	)
	return v, played, nil
}

// undoGrace is the least time a flagged side gets back when its timeout is undone.
const undoGrace = 30 * time.Second

// Undo reverts the last move. A timed-out game resumes without its flag and
// the clock restarts.
func (m *Manager) Undo(ctx context.Context, id string) (*View, error) {
	var undone string
	v, err := m.apply(ctx, id, EventUndo, func(g *Game, e *rules.Engine, _ time.Time) (string, error) {
		notation := e.ExportNotation()
		if _, err := e.Undo(); err != nil {
			return "", &MoveError{Err: err}
		}
		undone = notation[len(notation)-1]
		if g.Clock != nil && g.Clock.Flagged {
			side := g.Clock.Active
			if g.Flagged != nil {
				side = *g.Flagged
			}
			g.Clock.Revive(side, undoGrace)
		}
		g.Flagged = nil
		return m.msgs.Text("undo.done", map[string]any{"Move": undone}, "Move "+undone+" undone."), nil
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("game_undo", zap.String("game_id", id), zap.String("undone", undone), zap.Int("moves", len(v.Game.MovesUCI)))
	return v, nil
}

// NewGame resets the board of an existing game and opens a new round.
func (m *Manager) NewGame(ctx context.Context, id string) (*View, error) {
	v, err := m.apply(ctx, id, EventNewGame, func(g *Game, e *rules.Engine, now time.Time) (string, error) {
		e.NewGame()
		g.Flagged = nil
		g.Round++
		g.Archived = false
		g.RoundStarted = now
		if g.Clock != nil {
			g.Clock.Reset()
		}
		return m.newGameMessage(g), nil
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("game_new_round", zap.String("game_id", id), zap.Int("round", v.Game.Round))
	return v, nil
}

// Flip turns the board view around. The engine board is untouched.
func (m *Manager) Flip(ctx context.Context, id string) (*View, error) {
	return m.apply(ctx, id, EventState, func(g *Game, _ *rules.Engine, _ time.Time) (string, error) {
		g.Flipped = !g.Flipped
		bottom := g.WhiteName
		if g.Flipped {
			bottom = g.BlackName
		}
		return m.msgs.Text("board.flipped", map[string]any{"Bottom": bottom}, "Board flipped."), nil
	})
}

// SetHints toggles destination highlighting for selections.
func (m *Manager) SetHints(ctx context.Context, id string, enabled bool) (*View, error) {
	return m.apply(ctx, id, EventState, func(g *Game, _ *rules.Engine, _ time.Time) (string, error) {
		g.ShowHints = enabled
		if enabled {
			return m.msgs.Text("board.hints_on", nil, "Move hints enabled."), nil
		}
		return m.msgs.Text("board.hints_off", nil, "Move hints disabled."), nil
	})
}

// SetClock enables a fresh clock or removes it.
func (m *Manager) SetClock(ctx context.Context, id string, enabled bool) (*View, error) {
	return m.apply(ctx, id, EventState, func(g *Game, e *rules.Engine, now time.Time) (string, error) {
		if !enabled {
			g.Clock = nil
			return m.statusMessage(g, e.State()), nil
		}
		if g.Clock == nil {
			g.Clock = clock.New(m.opts.ClockBudget)
			g.ClockCharged = now
		}
		return m.clockMessage(g.Clock), nil
	})
}

// Sweep records flag falls without a client request. Games whose clock is
// off, stopped or still has time are only read, so their TTL keeps running
// down. It returns the number of games that timed out.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	ids, err := m.store.IDs(ctx)
	if err != nil {
		return 0, err
	}
	flagged := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return flagged, ctx.Err()
		}
		g, err := m.store.Load(ctx, id)
		if errors.Is(err, ErrNotFound) {
			m.locks.Delete(id)
			continue
		}
		if err != nil {
			obslog.L().Warn("game_sweep_error", zap.String("game_id", id), zap.Error(err))
			continue
		}
		if !flagDue(g, m.opts.Now()) {
			continue
		}
		v, err := m.apply(ctx, id, EventState, nil)
		if errors.Is(err, ErrNotFound) {
			m.locks.Delete(id)
			continue
		}
		if err != nil {
			obslog.L().Warn("game_sweep_error", zap.String("game_id", id), zap.Error(err))
			continue
		}
		if v.FlagFell {
			flagged++
		}
	}
	return flagged, nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n, err := m.Sweep(ctx); err != nil && ctx.Err() == nil {
				obslog.L().Warn("game_sweep_error", zap.Error(err))
			} else if n > 0 {
				obslog.L().Info("game_sweep", zap.Int("flagged", n))
			}
		}
	}
}

// PGN exports the current round.
func (m *Manager) PGN(ctx context.Context, id string) (string, error) {
	v, err := m.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return m.pgnText(v), nil
}

// Render draws the current position. selected may be empty.
func (m *Manager) Render(ctx context.Context, id, selected string) ([]byte, error) {
	v, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	g, st := v.Game, v.State
	opts := render.Options{
		Flipped:   g.Flipped,
		HUDHeader: fmt.Sprintf("%s vs %s", g.WhiteName, g.BlackName),
		HUDTurn:   v.Message,
	}
	if last, ok := st.LastMove(); ok {
		opts.Highlight = &render.MoveHighlight{From: last.From, To: last.To, Mover: last.Mover}
	}
	if st.Status == rules.StatusCheck || st.Status == rules.StatusCheckmate {
		if k, ok := st.Board.FindKing(st.Turn); ok {
			opts.CheckKing = &k
		}
	}
	if strings.TrimSpace(selected) != "" {
		sq, err := rules.ParseSquare(selected)
		if err != nil {
			return nil, &MoveError{Input: selected, Err: err}
		}
		opts.Selected = &sq
		if g.ShowHints && !st.Status.Terminal() {
			if p := st.Board.At(sq); !p.IsEmpty() && p.Color == st.Turn {
				opts.Targets = rules.LegalMoves(&st.Board, sq)
			}
		}
	}
	return m.renderer.RenderPNG(ctx, st.Board, opts)
}

// History lists the most recently archived rounds.
func (m *Manager) History(ctx context.Context, limit int) ([]*domain.ChessGame, error) {
	return m.archive.Recent(ctx, limit)
}

// Archived returns one archived round by archive ID.
func (m *Manager) Archived(ctx context.Context, archiveID string) (*domain.ChessGame, error) {
	g, err := m.archive.Get(ctx, archiveID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNotFound
	}
	return g, nil
}

type step func(g *Game, e *rules.Engine, now time.Time) (string, error)

// apply runs fn against the replayed engine and persists the result.
// A failing fn leaves the stored game untouched. When charging drops a flag,
// the timeout is stored, archived and published on its own before fn runs
// against the finished game. A nil fn only charges the clock.
func (m *Manager) apply(ctx context.Context, id string, kind string, fn step) (*View, error) {
	mu := m.lock(id)
	mu.Lock()
	defer mu.Unlock()

	v, err := m.applyLocked(ctx, id, kind, fn)
	if err != nil || fn == nil || !v.FlagFell {
		return v, err
	}
	v, err = m.applyLocked(ctx, id, kind, fn)
	if err != nil {
		return nil, err
	}
	v.FlagFell = true
	return v, nil
}

func (m *Manager) applyLocked(ctx context.Context, id string, kind string, fn step) (*View, error) {
	var (
		msg     string
		loser   rules.Color
		flagged bool
		eng     *rules.Engine
	)
	g, err := m.store.Update(ctx, id, func(g *Game) error {
		msg = ""
		e, err := g.engine()
		if err != nil {
			return err
		}
		now := m.opts.Now()
		loser, flagged = m.charge(g, e, now)
		if fn != nil && !flagged {
			if msg, err = fn(g, e, now); err != nil {
				return err
			}
		}
		g.MovesUCI = e.ExportUCI()
		syncClock(g, e)
		if kind != EventState || flagged || msg != "" {
			g.UpdatedAt = now
		}
		eng = e
		return nil
	})
	if err != nil {
		m.logInvariant(id, err)
		return nil, err
	}

	v := m.view(g, eng, msg)
	v.FlagFell = flagged
	if flagged {
		obslog.L().Info("game_flag",
			zap.String("game_id", id),
			zap.String("loser", loser.String()),
			zap.String("result", v.State.Result),
		)
		kind = EventFlag
	}
	if v.State.Status.Terminal() && !g.Archived {
		m.archiveRound(ctx, v)
	}
	if kind != EventState || flagged || msg != "" {
		m.feed.Publish(id, Event{Type: kind, View: v})
	}
	return v, nil
}

// charge bills wall time since the last charge to the active side and flags
// the game when that side runs out. It returns the side that lost on time.
func (m *Manager) charge(g *Game, e *rules.Engine, now time.Time) (rules.Color, bool) {
	last := g.ClockCharged
	g.ClockCharged = now
	if g.Clock == nil || !g.Clock.Running || last.IsZero() {
		return 0, false
	}
	side, fell := g.Clock.Tick(now.Sub(last))
	if !fell || e.Status().Terminal() {
		return 0, false
	}
	if _, err := e.Flag(side); err != nil {
		return 0, false
	}
	g.Flagged = &side
	return side, true
}

// flagDue reports whether charging g at now would drop its flag.
func flagDue(g *Game, now time.Time) bool {
	c := g.Clock
	if c == nil || !c.Running || c.Flagged || g.ClockCharged.IsZero() {
		return false
	}
	return now.Sub(g.ClockCharged) >= c.Remaining(c.Active)
}

// syncClock points the clock at the side to move, or stops it once the game ended.
func syncClock(g *Game, e *rules.Engine) {
	if g.Clock == nil {
		return
	}
	if e.Status().Terminal() {
		g.Clock.Stop()
		return
	}
	g.Clock.SetActive(e.Turn())
	g.Clock.Start()
}

func (m *Manager) view(g *Game, e *rules.Engine, msg string) *View {
	v := &View{Game: g, State: e.State(), Notation: e.ExportNotation()}
	if lbl, ok := m.labeler.Label(g.MovesUCI); ok {
		v.Opening = &lbl
	}
	if msg == "" {
		msg = m.statusMessage(g, v.State)
	}
	v.Message = msg
	return v
}

func (m *Manager) archiveRound(ctx context.Context, v *View) {
	g := v.Game
	rec := &domain.ChessGame{
		ID:        g.ArchiveID(),
		GameID:    g.ID,
		Round:     g.Round,
		WhiteName: g.WhiteName,
		BlackName: g.BlackName,
		Result:    v.State.Result,
		Status:    string(v.State.Status),
		MovesUCI:  append([]string(nil), g.MovesUCI...),
		Notation:  append([]string(nil), v.Notation...),
		PGN:       m.pgnText(v),
		StartedAt: g.RoundStarted,
		EndedAt:   g.UpdatedAt,
	}
	if d := rec.EndedAt.Sub(rec.StartedAt); d > 0 {
		rec.Duration = d
	}
	if v.Opening != nil {
		rec.OpeningECO = v.Opening.Code
		rec.OpeningName = v.Opening.Name
	}
	if err := m.archive.Save(ctx, rec); err != nil && !errors.Is(err, ErrDuplicateGame) {
		obslog.L().Error("game_archive_error", zap.String("game_id", g.ID), zap.String("archive_id", rec.ID), zap.Error(err))
		return
	}
	round := g.Round
	if _, err := m.store.Update(ctx, g.ID, func(cur *Game) error {
		if cur.Round == round {
			cur.Archived = true
		}
		return nil
	}); err != nil {
		obslog.L().Warn("game_archive_mark_error", zap.String("game_id", g.ID), zap.Error(err))
		return
	}
	g.Archived = true
	obslog.L().Info("game_archive",
		zap.String("game_id", g.ID),
		zap.String("archive_id", rec.ID),
		zap.String("result", rec.Result),
		zap.String("status", rec.Status),
	)
}

func (m *Manager) pgnText(v *View) string {
	g := v.Game
	h := pgn.Header{
		Event:  m.opts.Event,
		Site:   m.opts.Site,
		Date:   g.RoundStarted,
		White:  g.WhiteName,
		Black:  g.BlackName,
		Result: v.State.Result,
	}
	if v.Opening != nil {
		h.ECO = v.Opening.Code
		h.Opening = v.Opening.Name
	}
	if g.Clock != nil {
		h.TimeControl = strconv.Itoa(int(g.Clock.Budget / time.Second))
	}
	switch v.State.Status {
	case rules.StatusTimeout:
		h.Termination = "time forfeit"
	case rules.StatusCheckmate, rules.StatusStalemate, rules.StatusKingCaptured:
		h.Termination = "normal"
	}
	return pgn.Build(h, v.Notation)
}

func (m *Manager) statusMessage(g *Game, st rules.GameState) string {
	side := g.NameOf(st.Turn)
	switch st.Status {
	case rules.StatusCheck:
		return m.msgs.Text("game.check", map[string]any{"Side": side}, side+" is in check!")
	case rules.StatusCheckmate:
		winner := g.NameOf(st.Turn.Opponent())
		return m.msgs.Text("game.checkmate", map[string]any{"Winner": winner}, "Checkmate! "+winner+" wins.")
	case rules.StatusStalemate:
		return m.msgs.Text("game.stalemate", map[string]any{"Side": side}, "Stalemate.")
	case rules.StatusKingCaptured, rules.StatusTimeout:
		w := rules.White
		if st.Result == "0-1" {
			w = rules.Black
		}
		data := map[string]any{"Winner": g.NameOf(w), "Loser": g.NameOf(w.Opponent())}
		if st.Status == rules.StatusTimeout {
			return m.msgs.Text("game.timeout", data, g.NameOf(w.Opponent())+" ran out of time.")
		}
		return m.msgs.Text("game.king_captured", data, g.NameOf(w)+" wins.")
	}
	return m.msgs.Text("game.turn", map[string]any{"Side": side}, side+" to move.")
}

func (m *Manager) newGameMessage(g *Game) string {
	return m.msgs.Text("game.new", map[string]any{"White": g.WhiteName, "Black": g.BlackName}, "New game started.")
}

func (m *Manager) clockMessage(c *clock.Clock) string {
	w, b := clock.Format(c.Remaining(rules.White)), clock.Format(c.Remaining(rules.Black))
	return m.msgs.Text("clock.status", map[string]any{"White": w, "Black": b}, "White "+w+" / Black "+b)
}

func (m *Manager) logInvariant(id string, err error) {
	var iv *rules.InvariantViolation
	if errors.As(err, &iv) {
		obslog.L().Error("game_invariant_violation", zap.String("game_id", id), zap.Error(err))
	}
}

func parseMoveInput(in MoveInput) (from, to rules.Square, promo rules.PieceType, err error) {
	if strings.TrimSpace(in.UCI) != "" {
		return rules.ParseUCI(in.UCI)
	}
	if from, err = rules.ParseSquare(in.From); err != nil {
		return
	}
	if to, err = rules.ParseSquare(in.To); err != nil {
		return
	}
	if promo, err = rules.ParsePieceType(in.Promotion); err != nil {
		err = fmt.Errorf("%w: %v", rules.ErrInvalidPromotion, err)
	}
	return
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
