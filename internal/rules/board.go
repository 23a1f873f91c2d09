package rules

import (
	"fmt"
	"strings"
)

// Board is an 8x8 grid of square contents indexed [row][col].
// It is a value type: assigning a Board copies every square.
type Board [8][8]Piece

const startingPlacement = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"

// StartingBoard returns the standard initial position.
func StartingBoard() Board {
	b, err := ParseBoard(startingPlacement)
	if err != nil {
		panic(err)
	}
	return b
}

// At returns the piece on sq, or NoPiece for an empty or off-board square.
func (b *Board) At(sq Square) Piece {
	if !sq.Valid() {
		return NoPiece
	}
	return b[sq.Row][sq.Col]
}

// Set places p on sq. Off-board squares are ignored.
func (b *Board) Set(sq Square, p Piece) {
	if !sq.Valid() {
		return
	}
	b[sq.Row][sq.Col] = p
}

// FindKing returns the first king of color c in row-major order.
func (b *Board) FindKing(c Color) (Square, bool) {
	king := Piece{Type: King, Color: c}
	for r := 0; r < 8; r++ {
		for col := 0; col < 8; col++ {
			if b[r][col] == king {
				return Square{Row: r, Col: col}, true
			}
		}
	}
	return Square{}, false
}

// CountKings returns how many kings of color c are on the board.
func (b *Board) CountKings(c Color) int {
	king := Piece{Type: King, Color: c}
	n := 0
	for r := 0; r < 8; r++ {
		for col := 0; col < 8; col++ {
			if b[r][col] == king {
				n++
			}
		}
	}
	return n
}

// move relocates the occupant of from onto to, overwriting whatever was there.
func (b *Board) move(from, to Square) {
	b[to.Row][to.Col] = b[from.Row][from.Col]
	b[from.Row][from.Col] = NoPiece
}

// ParseBoard decodes the piece-placement field of a FEN record.
func ParseBoard(placement string) (Board, error) {
	var b Board
	rows := strings.Split(strings.TrimSpace(placement), "/")
	if len(rows) != 8 {
		return b, fmt.Errorf("placement %q: want 8 ranks, got %d", placement, len(rows))
	}
	for r, rank := range rows {
		col := 0
		for _, ch := range rank {
			if ch >= '1' && ch <= '8' {
				col += int(ch - '0')
				continue
			}
			p, ok := PieceFromLetter(ch)
			if !ok {
				return b, fmt.Errorf("placement %q: bad piece %q", placement, ch)
			}
			if col > 7 {
				return b, fmt.Errorf("placement %q: rank %d overflows", placement, 8-r)
			}
			b[r][col] = p
			col++
		}
		if col != 8 {
			return b, fmt.Errorf("placement %q: rank %d has %d files", placement, 8-r, col)
		}
	}
	return b, nil
}

// Placement encodes the board as a FEN piece-placement field.
func (b *Board) Placement() string {
	var sb strings.Builder
	for r := 0; r < 8; r++ {
		empty := 0
		for col := 0; col < 8; col++ {
			p := b[r][col]
			if p.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteString(p.String())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if r < 7 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// FEN returns a full FEN record. Castling and en passant fields are always "-"
// because those rules are not played.
func FEN(b Board, turn Color, moveCount int) string {
	side := "w"
	if turn == Black {
		side = "b"
	}
	if moveCount < 0 {
		moveCount = 0
	}
	return fmt.Sprintf("%s %s - - 0 %d", b.Placement(), side, moveCount/2+1)
}

// String draws the board from white's side, one rank per line.
func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < 8; r++ {
		sb.WriteByte(byte('8' - r))
		sb.WriteByte(' ')
		for col := 0; col < 8; col++ {
			p := b[r][col]
			if p.IsEmpty() {
				sb.WriteByte('.')
			} else {
				sb.WriteString(p.String())
			}
			if col < 7 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g h\n")
	return sb.String()
}
