package rules

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalMove      = errors.New("illegal move")
	ErrGameOver         = errors.New("game is over")
	ErrNothingToUndo    = errors.New("no moves available to undo")
	ErrInvalidPromotion = errors.New("invalid promotion choice")
	ErrInvalidSquare    = errors.New("invalid square")
)

// InvariantViolation reports a corrupted game: a missing king outside the
// king-capture path, duplicate kings, or history that does not replay.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("rules invariant violated: %s", e.Reason)
}

func invariantf(format string, args ...any) error {
	return &InvariantViolation{Reason: fmt.Sprintf(format, args...)}
}
