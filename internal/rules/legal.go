package rules

// LegalMoves filters GenerateMoves down to moves that keep the mover's king safe.
// Each candidate is tried on a copy of the board; b itself is never modified.
func LegalMoves(b *Board, from Square) []Candidate {
	p := b.At(from)
	if p.IsEmpty() {
		return nil
	}
	var legal []Candidate
	for _, m := range GenerateMoves(b, from) {
		if !leavesKingInCheck(b, m, p.Color) {
			legal = append(legal, m)
		}
	}
	return legal
}

func leavesKingInCheck(b *Board, m Candidate, mover Color) bool {
	work := *b
	work.move(m.From, m.To)
	return IsInCheck(&work, mover)
}

// HasLegalMoves reports whether color c has at least one legal move anywhere on the board.
func HasLegalMoves(b *Board, c Color) bool {
	for r := 0; r < 8; r++ {
		for col := 0; col < 8; col++ {
			p := b[r][col]
			if p.IsEmpty() || p.Color != c {
				continue
			}
			if len(LegalMoves(b, Square{Row: r, Col: col})) > 0 {
				return true
			}
		}
	}
	return false
}

// AllLegalMoves returns every legal move of color c in row-major square order.
func AllLegalMoves(b *Board, c Color) []Candidate {
	var out []Candidate
	for r := 0; r < 8; r++ {
		for col := 0; col < 8; col++ {
			p := b[r][col]
			if p.IsEmpty() || p.Color != c {
				continue
			}
			out = append(out, LegalMoves(b, Square{Row: r, Col: col})...)
		}
	}
	return out
}

func containsTarget(moves []Candidate, to Square) bool {
	for _, m := range moves {
		if m.To == to {
			return true
		}
	}
	return false
}
