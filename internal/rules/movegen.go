package rules

// Candidate is a pseudo-legal destination produced by the move generator.
type Candidate struct {
	From      Square `json:"from"`
	To        Square `json:"to"`
	IsCapture bool   `json:"capture"`
}

type offset struct{ dr, dc int }

var (
	knightOffsets = []offset{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
	kingOffsets   = []offset{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
	diagonals     = []offset{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	orthogonals   = []offset{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	queenRays     = append(append([]offset{}, orthogonals...), diagonals...)
)

// forward is the row delta of a pawn advance.
func forward(c Color) int {
	if c == White {
		return -1
	}
	return 1
}

func homeRow(c Color) int {
	if c == White {
		return 6
	}
	return 1
}

// lastRow is the promotion row for c.
func lastRow(c Color) int {
	if c == White {
		return 0
	}
	return 7
}

// GenerateMoves returns the pseudo-legal moves of the piece on from.
// The result ignores king safety; an empty square yields nil.
func GenerateMoves(b *Board, from Square) []Candidate {
	p := b.At(from)
	if p.IsEmpty() {
		return nil
	}
	switch p.Type {
	case Pawn:
		return pawnMoves(b, from, p.Color)
	case Knight:
		return stepMoves(b, from, p.Color, knightOffsets)
	case Bishop:
		return slideMoves(b, from, p.Color, diagonals)
	case Rook:
		return slideMoves(b, from, p.Color, orthogonals)
	case Queen:
		return slideMoves(b, from, p.Color, queenRays)
	case King:
		return stepMoves(b, from, p.Color, kingOffsets)
	}
	return nil
}

func pawnMoves(b *Board, from Square, c Color) []Candidate {
	var out []Candidate
	dir := forward(c)

	one := Square{Row: from.Row + dir, Col: from.Col}
	if one.Valid() && b.At(one).IsEmpty() {
		out = append(out, Candidate{From: from, To: one})
		two := Square{Row: from.Row + 2*dir, Col: from.Col}
		if from.Row == homeRow(c) && two.Valid() && b.At(two).IsEmpty() {
			out = append(out, Candidate{From: from, To: two})
		}
	}

	for _, dc := range [2]int{-1, 1} {
		diag := Square{Row: from.Row + dir, Col: from.Col + dc}
		if !diag.Valid() {
			continue
		}
		if target := b.At(diag); !target.IsEmpty() && target.Color != c {
			out = append(out, Candidate{From: from, To: diag, IsCapture: true})
		}
	}
	return out
}

func stepMoves(b *Board, from Square, c Color, offsets []offset) []Candidate {
	var out []Candidate
	for _, o := range offsets {
		to := Square{Row: from.Row + o.dr, Col: from.Col + o.dc}
		if !to.Valid() {
			continue
		}
		target := b.At(to)
		switch {
		case target.IsEmpty():
			out = append(out, Candidate{From: from, To: to})
		case target.Color != c:
			out = append(out, Candidate{From: from, To: to, IsCapture: true})
		}
	}
	return out
}

func slideMoves(b *Board, from Square, c Color, rays []offset) []Candidate {
	var out []Candidate
	for _, o := range rays {
		for dist := 1; dist < 8; dist++ {
			to := Square{Row: from.Row + o.dr*dist, Col: from.Col + o.dc*dist}
			if !to.Valid() {
				break
			}
			target := b.At(to)
			if target.IsEmpty() {
				out = append(out, Candidate{From: from, To: to})
				continue
			}
			if target.Color != c {
				out = append(out, Candidate{From: from, To: to, IsCapture: true})
			}
			break
		}
	}
	return out
}
