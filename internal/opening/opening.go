// Package opening names the opening of a move sequence by ECO code.
package opening

import (
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
)

// Label is an ECO classification.
type Label struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Labeler looks up ECO names. The book is loaded on first use.
type Labeler struct {
	once sync.Once
	book *opening.BookECO
}

// NewLabeler returns a lazily initialised labeler.
func NewLabeler() *Labeler { return &Labeler{} }

// Label classifies the longest legal prefix of moves (long algebraic form).
// ok is false when no book line matches.
func (l *Labeler) Label(moves []string) (Label, bool) {
	if l == nil || len(moves) == 0 {
		return Label{}, false
	}
	l.once.Do(func() { l.book = opening.NewBookECO() })
	if l.book == nil {
		return Label{}, false
	}

	game := nchess.NewGame()
	for _, mv := range moves {
		if err := game.PushNotationMove(strings.ToLower(strings.TrimSpace(mv)), nchess.UCINotation{}, nil); err != nil {
			break
		}
	}
	if len(game.Moves()) == 0 {
		return Label{}, false
	}
	eco := l.book.Find(game.Moves())
	if eco == nil {
		return Label{}, false
	}
	return Label{Code: eco.Code(), Name: eco.Title()}, true
}
