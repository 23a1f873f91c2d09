package hotseat

import (
	"errors"
	"strings"

	"github.com/park285/hotseat-chess/internal/clock"
	"github.com/park285/hotseat-chess/internal/domain"
	"github.com/park285/hotseat-chess/internal/msgcat"
	"github.com/park285/hotseat-chess/internal/pgn"
	"github.com/park285/hotseat-chess/internal/rules"
	"github.com/park285/hotseat-chess/pkg/chessdto"
)

var pieceValues = map[rules.PieceType]int{
	rules.Pawn:   1,
	rules.Knight: 3,
	rules.Bishop: 3,
	rules.Rook:   5,
	rules.Queen:  9,
}

// ToDTO converts a view for clients.
func ToDTO(v *View) *chessdto.GameState {
	if v == nil || v.Game == nil {
		return nil
	}
	g, st := v.Game, v.State
	out := &chessdto.GameState{
		ID:          g.ID,
		WhiteName:   g.WhiteName,
		BlackName:   g.BlackName,
		FEN:         rules.FEN(st.Board, st.Turn, st.MoveCount),
		Turn:        st.Turn.String(),
		Status:      string(st.Status),
		Result:      st.Result,
		MoveCount:   st.MoveCount,
		MovesUCI:    append([]string{}, g.MovesUCI...),
		Notation:    append([]string{}, v.Notation...),
		Orientation: "white",
		ShowHints:   g.ShowHints,
		Message:     v.Message,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
	if g.Flipped {
		out.Orientation = "black"
	}
	if w, ok := v.Winner(); ok {
		out.Winner = w.String()
	}
	for _, r := range pgn.Rows(v.Notation) {
		out.Rows = append(out.Rows, chessdto.MoveRow{Number: r.Number, White: r.White, Black: r.Black})
	}
	if last, ok := st.LastMove(); ok {
		lm := &chessdto.LastMove{
			From:     last.From.String(),
			To:       last.To.String(),
			Mover:    last.Mover.String(),
			Notation: rules.Notate(last),
			Captured: last.Captured.String(),
		}
		if last.Promotion != rules.NoPieceType {
			lm.Promotion = strings.ToLower(last.Promotion.Letter())
		}
		out.LastMove = lm
	}
	out.Captured.White, out.Material.White = capturedLetters(st.Captured.White)
	out.Captured.Black, out.Material.Black = capturedLetters(st.Captured.Black)
	if g.Clock != nil {
		out.Clock = clockDTO(g.Clock)
	}
	if v.Opening != nil {
		out.Opening = &chessdto.Opening{Code: v.Opening.Code, Name: v.Opening.Name}
	}
	return out
}

func capturedLetters(pieces []rules.Piece) ([]string, int) {
	letters := make([]string, 0, len(pieces))
	total := 0
	for _, p := range pieces {
		letters = append(letters, p.String())
		total += pieceValues[p.Type]
	}
	return letters, total
}

func clockDTO(c *clock.Clock) *chessdto.ClockState {
	w, b := c.Remaining(rules.White), c.Remaining(rules.Black)
	return &chessdto.ClockState{
		Enabled: true,
		Running: c.Running,
		Active:  c.Active.String(),
		White:   clock.Format(w),
		Black:   clock.Format(b),
		WhiteMS: w.Milliseconds(),
		BlackMS: b.Milliseconds(),
		Flagged: c.Flagged,
	}
}

// SelectionDTO lists highlighted targets; hints off yields an empty list.
func SelectionDTO(sel *Selection) *chessdto.Selection {
	if sel == nil {
		return nil
	}
	out := &chessdto.Selection{Square: sel.Square.String(), Targets: []chessdto.Target{}}
	if sel.View != nil && sel.View.Game != nil && !sel.View.Game.ShowHints {
		return out
	}
	for _, c := range sel.Targets {
		out.Targets = append(out.Targets, chessdto.Target{To: c.To.String(), Capture: c.IsCapture})
	}
	return out
}

// ArchivedDTO converts an archive record.
func ArchivedDTO(g *domain.ChessGame) *chessdto.ArchivedGame {
	if g == nil {
		return nil
	}
	return &chessdto.ArchivedGame{
		ID:         g.ID,
		WhiteName:  g.WhiteName,
		BlackName:  g.BlackName,
		Result:     g.Result,
		Status:     g.Status,
		MovesUCI:   append([]string{}, g.MovesUCI...),
		Notation:   append([]string{}, g.Notation...),
		PGN:        g.PGN,
		StartedAt:  g.StartedAt,
		EndedAt:    g.EndedAt,
		Duration:   g.Duration,
		OpeningECO: g.OpeningECO,
	}
}

// ToDomainError maps manager and rules errors onto client error codes with
// catalog messages.
func ToDomainError(err error, msgs *msgcat.Catalog) chessdto.DomainError {
	if err == nil {
		return chessdto.DomainError{}
	}
	var de chessdto.DomainError
	if errors.As(err, &de) {
		return de
	}
	var me *MoveError
	input, result := "", ""
	if errors.As(err, &me) {
		input, result = me.Input, me.Result
	}
	var iv *rules.InvariantViolation
	switch {
	case errors.As(err, &iv):
		return chessdto.DomainError{Code: chessdto.CodeInvariant, Message: iv.Error()}
	case errors.Is(err, ErrNoPiece):
		return chessdto.DomainError{Code: chessdto.CodeIllegalMove, Message: msgs.Text("move.no_piece", nil, err.Error())}
	case errors.Is(err, rules.ErrInvalidPromotion):
		return chessdto.DomainError{Code: chessdto.CodeInvalidPromotion, Message: msgs.Text("move.bad_promotion", nil, err.Error())}
	case errors.Is(err, rules.ErrInvalidSquare):
		return chessdto.DomainError{Code: chessdto.CodeInvalidSquare, Message: msgs.Text("move.bad_square", map[string]any{"Square": input}, err.Error())}
	case errors.Is(err, rules.ErrIllegalMove):
		return chessdto.DomainError{Code: chessdto.CodeIllegalMove, Message: msgs.Text("move.illegal", map[string]any{"Move": input}, err.Error())}
	case errors.Is(err, rules.ErrGameOver):
		return chessdto.DomainError{Code: chessdto.CodeGameOver, Message: msgs.Text("game.over", map[string]any{"Result": result}, err.Error())}
	case errors.Is(err, rules.ErrNothingToUndo):
		return chessdto.DomainError{Code: chessdto.CodeNothingToUndo, Message: msgs.Text("undo.empty", nil, err.Error())}
	case errors.Is(err, ErrNotFound):
		return chessdto.DomainError{Code: chessdto.CodeNotFound, Message: err.Error()}
	case errors.Is(err, ErrConflict):
		return chessdto.DomainError{Code: chessdto.CodeConflict, Message: err.Error(), Retryable: true}
	case errors.Is(err, ErrBadRequest):
		return chessdto.DomainError{Code: chessdto.CodeBadRequest, Message: err.Error()}
	}
	return chessdto.DomainError{Code: chessdto.CodeInternal, Message: "internal error"}
}
