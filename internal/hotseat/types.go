// Package hotseat hosts same-device games: it persists each game as its move
// list, rebuilds the engine on every command and serialises writers per game.
package hotseat

import (
	"errors"
	"fmt"
	"time"

	"github.com/park285/hotseat-chess/internal/clock"
	"github.com/park285/hotseat-chess/internal/opening"
	"github.com/park285/hotseat-chess/internal/rules"
)

var (
	ErrNotFound   = errors.New("game not found")
	ErrConflict   = errors.New("game was updated concurrently")
	ErrBadRequest = errors.New("bad request")
	// ErrNoPiece is an illegal move whose origin holds no piece of the side to move.
	ErrNoPiece = fmt.Errorf("%w: no piece of the side to move", rules.ErrIllegalMove)
)

// MoveError carries the user input and game result alongside a rejected command.
type MoveError struct {
	Input  string
	Result string
	Err    error
}

func (e *MoveError) Error() string {
	if e.Input == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Input, e.Err)
}

func (e *MoveError) Unwrap() error { return e.Err }

// Game is the persisted state of one board. The position itself is never
// stored; it is replayed from MovesUCI and the timeout flag.
type Game struct {
	ID           string       `json:"id"`
	Round        int          `json:"round"`
	WhiteName    string       `json:"white_name"`
	BlackName    string       `json:"black_name"`
	MovesUCI     []string     `json:"moves_uci"`
	Flagged      *rules.Color `json:"flagged,omitempty"`
	Flipped      bool         `json:"flipped"`
	ShowHints    bool         `json:"show_hints"`
	Clock        *clock.Clock `json:"clock,omitempty"`
	ClockCharged time.Time    `json:"clock_charged"`
	Archived     bool         `json:"archived"`
	RoundStarted time.Time    `json:"round_started"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (g *Game) clone() *Game {
	if g == nil {
		return nil
	}
	cp := *g
	cp.MovesUCI = append([]string(nil), g.MovesUCI...)
	if g.Flagged != nil {
		f := *g.Flagged
		cp.Flagged = &f
	}
	if g.Clock != nil {
		c := *g.Clock
		cp.Clock = &c
	}
	return &cp
}

// engine replays the recorded moves and reapplies a flag fall.
func (g *Game) engine() (*rules.Engine, error) {
	e, err := rules.Replay(g.MovesUCI)
	if err != nil {
		return nil, err
	}
	if g.Flagged != nil && !e.Status().Terminal() {
		if _, err := e.Flag(*g.Flagged); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// NameOf returns the display name of side.
func (g *Game) NameOf(side rules.Color) string {
	if side == rules.Black {
		return g.BlackName
	}
	return g.WhiteName
}

// ArchiveID is the archive key of the current round.
func (g *Game) ArchiveID() string {
	return fmt.Sprintf("%s-%d", g.ID, g.Round)
}

// View is the outcome of a command: the stored record, the engine snapshot
// and the notification for the players.
type View struct {
	Game     *Game
	State    rules.GameState
	Notation []string
	Opening  *opening.Label
	Message  string
	// FlagFell is set when this command observed the clock running out.
	FlagFell bool
}

// Winner returns the winning side of a decided game.
func (v *View) Winner() (rules.Color, bool) {
	switch v.State.Result {
	case "1-0":
		return rules.White, true
	case "0-1":
		return rules.Black, true
	}
	return rules.White, false
}

// Selection is the legal destination set of one piece.
type Selection struct {
	View    *View
	Square  rules.Square
	Targets []rules.Candidate
}

// CreateParams configures a new board. Zero values fall back to manager defaults.
type CreateParams struct {
	WhiteName    string
	BlackName    string
	ClockEnabled *bool
	ClockBudget  time.Duration
}

// MoveInput is either From/To (+Promotion) or a single long algebraic UCI string.
type MoveInput struct {
	From      string
	To        string
	Promotion string
	UCI       string
}

func (in MoveInput) String() string {
	if in.UCI != "" {
		return in.UCI
	}
	return in.From + in.To + in.Promotion
}
