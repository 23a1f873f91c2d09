package rules

// IsInCheck reports whether the king of color c is attacked.
// A board without that king returns false; callers handle king capture first.
func IsInCheck(b *Board, c Color) bool {
	king, ok := b.FindKing(c)
	if !ok {
		return false
	}
	return IsAttacked(b, king, c.Opponent())
}

// IsAttacked reports whether any piece of color by has a pseudo-legal move onto target.
func IsAttacked(b *Board, target Square, by Color) bool {
	for r := 0; r < 8; r++ {
		for col := 0; col < 8; col++ {
			p := b[r][col]
			if p.IsEmpty() || p.Color != by {
				continue
			}
			for _, m := range GenerateMoves(b, Square{Row: r, Col: col}) {
				if m.To == target {
					return true
				}
			}
		}
	}
	return false
}
