package rules

import (
	"fmt"
	"strings"
)

// Color identifies a chess side.
type Color uint8

const (
	White Color = iota
	Black
)

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// MarshalText encodes the color as "white" or "black".
func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText accepts "white"/"w" and "black"/"b".
func (c *Color) UnmarshalText(b []byte) error {
	parsed, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor parses a textual color.
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	default:
		return White, fmt.Errorf("unknown color %q", s)
	}
}

// PieceType is the kind of a piece. The zero value means "no piece".
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceLetters = [...]string{"", "P", "N", "B", "R", "Q", "K"}
var pieceNames = [...]string{"", "pawn", "knight", "bishop", "rook", "queen", "king"}

// Letter returns the uppercase notation letter ("" for NoPieceType).
func (t PieceType) Letter() string {
	if int(t) >= len(pieceLetters) {
		return ""
	}
	return pieceLetters[t]
}

func (t PieceType) String() string {
	if int(t) >= len(pieceNames) {
		return ""
	}
	return pieceNames[t]
}

// ParsePieceType accepts a letter ("q") or a name ("queen"). Empty input is NoPieceType.
func ParsePieceType(s string) (PieceType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return NoPieceType, nil
	}
	for i := 1; i < len(pieceNames); i++ {
		if v == pieceNames[i] || v == strings.ToLower(pieceLetters[i]) {
			return PieceType(i), nil
		}
	}
	return NoPieceType, fmt.Errorf("unknown piece type %q", s)
}

// Piece is a (type, color) pair. The zero value is the empty square.
type Piece struct {
	Type  PieceType
	Color Color
}

// NoPiece marks an empty square.
var NoPiece = Piece{}

// IsEmpty reports whether p is the empty-square value.
func (p Piece) IsEmpty() bool { return p.Type == NoPieceType }

// String returns the FEN letter: uppercase for white, lowercase for black, "" when empty.
func (p Piece) String() string {
	if p.IsEmpty() {
		return ""
	}
	if p.Color == Black {
		return strings.ToLower(p.Type.Letter())
	}
	return p.Type.Letter()
}

// PieceFromLetter decodes a FEN letter.
func PieceFromLetter(r rune) (Piece, bool) {
	color := White
	if r >= 'a' && r <= 'z' {
		color = Black
		r -= 'a' - 'A'
	}
	for i := 1; i < len(pieceLetters); i++ {
		if pieceLetters[i][0] == byte(r) {
			return Piece{Type: PieceType(i), Color: color}, true
		}
	}
	return NoPiece, false
}

// Square addresses a board cell. Row 0 is rank 8, column 0 is file a.
type Square struct {
	Row int
	Col int
}

// Valid reports whether the square lies on the board.
func (s Square) Valid() bool { return inBounds(s.Row, s.Col) }

// File returns the file letter of the square.
func (s Square) File() byte { return byte('a' + s.Col) }

// Rank returns the rank digit of the square.
func (s Square) Rank() byte { return byte('0' + 8 - s.Row) }

// String returns algebraic notation, e.g. "e4".
func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{s.File(), s.Rank()})
}

// MarshalText encodes the square in algebraic notation.
func (s Square) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes algebraic notation.
func (s *Square) UnmarshalText(b []byte) error {
	parsed, err := ParseSquare(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSquare converts algebraic notation ("a1".."h8") into a Square.
func ParseSquare(s string) (Square, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if len(v) != 2 || v[0] < 'a' || v[0] > 'h' || v[1] < '1' || v[1] > '8' {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	return Square{Row: 8 - int(v[1]-'0'), Col: int(v[0] - 'a')}, nil
}

// MustSquare is ParseSquare for constant input; it panics on malformed notation.
func MustSquare(s string) Square {
	sq, err := ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return sq
}

func inBounds(row, col int) bool {
	return row >= 0 && row <= 7 && col >= 0 && col <= 7
}
