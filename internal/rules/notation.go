package rules

import (
	"fmt"
	"strings"
)

// Notate renders simplified algebraic notation: piece letter for non-pawns,
// "x" for captures (pawn captures prefixed by the origin file) and "=Q" style
// promotion suffixes. Check marks and disambiguation are not produced.
func Notate(m Move) string {
	var sb strings.Builder
	if m.Piece.Type != Pawn {
		sb.WriteString(m.Piece.Type.Letter())
	}
	if !m.Captured.IsEmpty() {
		if m.Piece.Type == Pawn {
			sb.WriteByte(m.From.File())
		}
		sb.WriteByte('x')
	}
	sb.WriteString(m.To.String())
	if m.Promotion != NoPieceType {
		sb.WriteByte('=')
		sb.WriteString(m.Promotion.Letter())
	}
	return sb.String()
}

// ParseUCI decodes long algebraic input such as "e2e4" or "e7e8q".
func ParseUCI(s string) (from, to Square, promo PieceType, err error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if len(v) != 4 && len(v) != 5 {
		return from, to, NoPieceType, fmt.Errorf("%w: %q", ErrIllegalMove, s)
	}
	if from, err = ParseSquare(v[0:2]); err != nil {
		return from, to, NoPieceType, err
	}
	if to, err = ParseSquare(v[2:4]); err != nil {
		return from, to, NoPieceType, err
	}
	if len(v) == 5 {
		if promo, err = ParsePieceType(v[4:]); err != nil {
			return from, to, NoPieceType, fmt.Errorf("%w: %v", ErrInvalidPromotion, err)
		}
	}
	return from, to, promo, nil
}

// Replay rebuilds an engine from the initial position by applying moves in
// long algebraic form, then checks that the captured lists agree with history.
func Replay(moves []string) (*Engine, error) {
	e := NewEngine()
	for i, mv := range moves {
		from, to, promo, err := ParseUCI(mv)
		if err != nil {
			return nil, fmt.Errorf("replay ply %d: %w", i+1, err)
		}
		if _, err := e.SubmitMove(from, to, promo); err != nil {
			return nil, fmt.Errorf("replay ply %d (%s): %w", i+1, mv, err)
		}
	}
	if err := e.verifyCaptured(); err != nil {
		return nil, err
	}
	return e, nil
}

// verifyCaptured recomputes both capture lists from history.
func (e *Engine) verifyCaptured() error {
	var want CapturedPieces
	for _, m := range e.history {
		if m.Captured.IsEmpty() {
			continue
		}
		if m.Mover == White {
			want.White = append(want.White, m.Captured)
		} else {
			want.Black = append(want.Black, m.Captured)
		}
	}
	if !samePieces(want.White, e.captured.White) || !samePieces(want.Black, e.captured.Black) {
		return invariantf("captured pieces diverge from history")
	}
	return nil
}

func samePieces(a, b []Piece) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
