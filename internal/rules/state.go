package rules

import "strings"

// Status is the lifecycle state of a game.
type Status string

const (
	StatusOngoing      Status = "ongoing"
	StatusCheck        Status = "check"
	StatusCheckmate    Status = "checkmate"
	StatusStalemate    Status = "stalemate"
	StatusKingCaptured Status = "king_captured"
	StatusTimeout      Status = "timeout"
)

// Terminal reports whether no further moves are accepted.
func (s Status) Terminal() bool {
	switch s {
	case StatusCheckmate, StatusStalemate, StatusKingCaptured, StatusTimeout:
		return true
	}
	return false
}

// Move is a committed move. Piece is the piece that left From (a pawn stays a
// pawn here even when it promoted); Promotion is the piece it became.
type Move struct {
	From      Square
	To        Square
	Piece     Piece
	Captured  Piece
	Mover     Color
	Promotion PieceType
}

// UCI returns the move in long algebraic form, e.g. "e2e4" or "e7e8q".
func (m Move) UCI() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != NoPieceType {
		s += strings.ToLower(m.Promotion.Letter())
	}
	return s
}

// CapturedPieces lists captured pieces by capturing side, oldest first.
// White holds black pieces taken by white and vice versa.
type CapturedPieces struct {
	White []Piece
	Black []Piece
}

func (c CapturedPieces) clone() CapturedPieces {
	return CapturedPieces{
		White: append([]Piece(nil), c.White...),
		Black: append([]Piece(nil), c.Black...),
	}
}

// By returns the pieces captured by color.
func (c CapturedPieces) By(color Color) []Piece {
	if color == White {
		return c.White
	}
	return c.Black
}

// GameState is an immutable snapshot of a game.
type GameState struct {
	Board     Board
	Turn      Color
	History   []Move
	Captured  CapturedPieces
	MoveCount int
	Status    Status
	Result    string
}

// LastMove returns the most recent committed move.
func (s GameState) LastMove() (Move, bool) {
	if len(s.History) == 0 {
		return Move{}, false
	}
	return s.History[len(s.History)-1], true
}
