package rules

import "fmt"

// Engine owns the authoritative board of one game and is its only mutator.
// It is not safe for concurrent use; hosts serialize calls per game.
type Engine struct {
	board     Board
	turn      Color
	history   []Move
	captured  CapturedPieces
	moveCount int
	status    Status
	flagged   Color
}

// NewEngine returns an engine set up with the standard initial position.
func NewEngine() *Engine {
	e := &Engine{}
	e.NewGame()
	return e
}

// NewEngineFromPosition starts a game from an arbitrary board with turn to move.
// A side without a king is treated as an already finished game; more than one
// king of a color is rejected.
func NewEngineFromPosition(b Board, turn Color) (*Engine, error) {
	for _, c := range [2]Color{White, Black} {
		if n := b.CountKings(c); n > 1 {
			return nil, invariantf("%s has %d kings", c, n)
		}
	}
	e := &Engine{board: b, turn: turn}
	if b.CountKings(White) == 0 || b.CountKings(Black) == 0 {
		e.status = StatusKingCaptured
		return e, nil
	}
	e.status = e.evaluate()
	return e, nil
}

// NewGame resets to the standard initial position unconditionally.
func (e *Engine) NewGame() GameState {
	*e = Engine{board: StartingBoard(), turn: White, status: StatusOngoing}
	return e.State()
}

// State returns a deep snapshot of the game.
func (e *Engine) State() GameState {
	return GameState{
		Board:     e.board,
		Turn:      e.turn,
		History:   append([]Move(nil), e.history...),
		Captured:  e.captured.clone(),
		MoveCount: e.moveCount,
		Status:    e.status,
		Result:    e.Result(),
	}
}

func (e *Engine) Turn() Color    { return e.turn }
func (e *Engine) Status() Status { return e.status }
func (e *Engine) Board() Board   { return e.board }

// Select returns the legal moves of the piece on sq when it belongs to the side
// to move. Anything else, including a finished game, yields an empty result.
func (e *Engine) Select(sq Square) []Candidate {
	if e.status.Terminal() {
		return nil
	}
	p := e.board.At(sq)
	if p.IsEmpty() || p.Color != e.turn {
		return nil
	}
	return LegalMoves(&e.board, sq)
}

// SubmitMove commits the move from -> to for the side to move.
// promo picks the promotion piece; NoPieceType promotes to a queen.
// On any error the game is left exactly as it was.
func (e *Engine) SubmitMove(from, to Square, promo PieceType) (GameState, error) {
	if e.status.Terminal() {
		return GameState{}, ErrGameOver
	}
	switch promo {
	case NoPieceType, Queen, Rook, Bishop, Knight:
	default:
		return GameState{}, fmt.Errorf("%w: %s", ErrInvalidPromotion, promo)
	}
	p := e.board.At(from)
	if p.IsEmpty() || p.Color != e.turn {
		return GameState{}, fmt.Errorf("%w: no %s piece on %s", ErrIllegalMove, e.turn, from)
	}
	if !containsTarget(LegalMoves(&e.board, from), to) {
		return GameState{}, fmt.Errorf("%w: %s%s", ErrIllegalMove, from, to)
	}

	saved := e.snapshot()
	m := Move{From: from, To: to, Piece: p, Captured: e.board.At(to), Mover: e.turn}
	if p.Type == Pawn && to.Row == lastRow(p.Color) {
		if promo == NoPieceType {
			promo = Queen
		}
		m.Promotion = promo
	}
	e.commit(m)

	if e.board.CountKings(White) == 0 || e.board.CountKings(Black) == 0 {
		if m.Captured.Type != King {
			e.restore(saved)
			return GameState{}, invariantf("king vanished after %s", m.UCI())
		}
		e.status = StatusKingCaptured
		return e.State(), nil
	}
	e.status = e.evaluate()
	return e.State(), nil
}

func (e *Engine) commit(m Move) {
	placed := m.Piece
	if m.Promotion != NoPieceType {
		placed = Piece{Type: m.Promotion, Color: m.Mover}
	}
	e.board.Set(m.To, placed)
	e.board.Set(m.From, NoPiece)
	if !m.Captured.IsEmpty() {
		if m.Mover == White {
			e.captured.White = append(e.captured.White, m.Captured)
		} else {
			e.captured.Black = append(e.captured.Black, m.Captured)
		}
	}
	e.history = append(e.history, m)
	e.turn = m.Mover.Opponent()
	e.moveCount++
}

// Undo reverts the last committed move. The resulting status is always
// ongoing or check, even when the undone move had ended the game.
func (e *Engine) Undo() (GameState, error) {
	if len(e.history) == 0 {
		return GameState{}, ErrNothingToUndo
	}
	last := e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]

	e.board.Set(last.From, last.Piece)
	e.board.Set(last.To, last.Captured)
	if !last.Captured.IsEmpty() {
		if last.Mover == White {
			e.captured.White = e.captured.White[:len(e.captured.White)-1]
		} else {
			e.captured.Black = e.captured.Black[:len(e.captured.Black)-1]
		}
	}
	e.turn = last.Mover
	if e.moveCount > 0 {
		e.moveCount--
	}
	if IsInCheck(&e.board, e.turn) {
		e.status = StatusCheck
	} else {
		e.status = StatusOngoing
	}
	return e.State(), nil
}

// Flag ends the game on time: c ran out and its opponent wins.
func (e *Engine) Flag(c Color) (GameState, error) {
	if e.status.Terminal() {
		return GameState{}, ErrGameOver
	}
	e.status = StatusTimeout
	e.flagged = c
	return e.State(), nil
}

// evaluate derives the status of the side to move. Both kings must be present.
func (e *Engine) evaluate() Status {
	inCheck := IsInCheck(&e.board, e.turn)
	hasMoves := HasLegalMoves(&e.board, e.turn)
	switch {
	case inCheck && !hasMoves:
		return StatusCheckmate
	case !hasMoves:
		return StatusStalemate
	case inCheck:
		return StatusCheck
	default:
		return StatusOngoing
	}
}

// Result returns the PGN result token: "1-0", "0-1" or "*". Draws are never
// reported, so stalemate yields "*".
func (e *Engine) Result() string {
	switch e.status {
	case StatusCheckmate:
		return winToken(e.turn.Opponent())
	case StatusTimeout:
		return winToken(e.flagged.Opponent())
	}
	if e.board.CountKings(White) == 0 {
		return "0-1"
	}
	if e.board.CountKings(Black) == 0 {
		return "1-0"
	}
	return "*"
}

func winToken(winner Color) string {
	if winner == White {
		return "1-0"
	}
	return "0-1"
}

// Winner returns the winning side of a decided game.
func (e *Engine) Winner() (Color, bool) {
	switch e.Result() {
	case "1-0":
		return White, true
	case "0-1":
		return Black, true
	}
	return White, false
}

// ExportNotation returns the notation of every committed move in order.
func (e *Engine) ExportNotation() []string {
	out := make([]string, len(e.history))
	for i, m := range e.history {
		out[i] = Notate(m)
	}
	return out
}

// ExportUCI returns every committed move in long algebraic form.
func (e *Engine) ExportUCI() []string {
	out := make([]string, len(e.history))
	for i, m := range e.history {
		out[i] = m.UCI()
	}
	return out
}

type engineSnapshot struct {
	board     Board
	turn      Color
	history   int
	captured  [2]int
	moveCount int
	status    Status
}

func (e *Engine) snapshot() engineSnapshot {
	return engineSnapshot{
		board:     e.board,
		turn:      e.turn,
		history:   len(e.history),
		captured:  [2]int{len(e.captured.White), len(e.captured.Black)},
		moveCount: e.moveCount,
		status:    e.status,
	}
}

func (e *Engine) restore(s engineSnapshot) {
	e.board = s.board
	e.turn = s.turn
	e.history = e.history[:s.history]
	e.captured.White = e.captured.White[:s.captured[0]]
	e.captured.Black = e.captured.Black[:s.captured[1]]
	e.moveCount = s.moveCount
	e.status = s.status
}
