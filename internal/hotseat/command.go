package hotseat

import (
	"context"
	"fmt"
	"strings"

	"github.com/park285/hotseat-chess/internal/rules"
)

// CommandKind names a player action.
type CommandKind string

const (
	CmdGet     CommandKind = "get"
	CmdSelect  CommandKind = "select"
	CmdMove    CommandKind = "move"
	CmdUndo    CommandKind = "undo"
	CmdNewGame CommandKind = "new_game"
	CmdFlip    CommandKind = "flip"
	CmdHints   CommandKind = "hints"
	CmdClock   CommandKind = "clock"
)

// Command is one player action against a game, as sent by live clients.
type Command struct {
	Kind    CommandKind
	GameID  string
	Square  string
	Move    MoveInput
	Enabled bool
}

// Result is the outcome of Dispatch. Selection is set for CmdSelect and Move
// for CmdMove.
type Result struct {
	View      *View
	Selection *Selection
	Move      *rules.Move
}

// Dispatch runs cmd synchronously and returns once its effect is stored.
func (m *Manager) Dispatch(ctx context.Context, cmd Command) (*Result, error) {
	id := strings.TrimSpace(cmd.GameID)
	if id == "" {
		return nil, fmt.Errorf("%w: game id is required", ErrBadRequest)
	}
	switch cmd.Kind {
	case CmdGet:
		v, err := m.Get(ctx, id)
		return wrap(v, err)
	case CmdSelect:
		sel, err := m.Select(ctx, id, cmd.Square)
		if err != nil {
			return nil, err
		}
		return &Result{View: sel.View, Selection: sel}, nil
	case CmdMove:
		v, mv, err := m.Move(ctx, id, cmd.Move)
		if err != nil {
			return nil, err
		}
		return &Result{View: v, Move: &mv}, nil
	case CmdUndo:
		v, err := m.Undo(ctx, id)
		return wrap(v, err)
	case CmdNewGame:
		v, err := m.NewGame(ctx, id)
		return wrap(v, err)
	case CmdFlip:
		v, err := m.Flip(ctx, id)
		return wrap(v, err)
	case CmdHints:
		v, err := m.SetHints(ctx, id, cmd.Enabled)
		return wrap(v, err)
	case CmdClock:
		v, err := m.SetClock(ctx, id, cmd.Enabled)
		return wrap(v, err)
	}
	return nil, fmt.Errorf("%w: unknown command %q", ErrBadRequest, cmd.Kind)
}

func wrap(v *View, err error) (*Result, error) {
	if err != nil {
		return nil, err
	}
	return &Result{View: v}, nil
}
