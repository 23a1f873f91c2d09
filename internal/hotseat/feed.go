package hotseat

import "sync"

// Event types published after state changes.
const (
	EventState   = "state"
	EventMove    = "move"
	EventUndo    = "undo"
	EventNewGame = "new_game"
	EventFlag    = "flag"
)

// Event is one state change of a game.
type Event struct {
	Type string
	View *View
}

const feedBuffer = 16

// Feed fans events out to in-process subscribers of a game. Slow subscribers
// lose events rather than block the publisher.
type Feed struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers for events of gameID. The cancel func closes the channel.
func (f *Feed) Subscribe(gameID string) (<-chan Event, func()) {
	ch := make(chan Event, feedBuffer)
	f.mu.Lock()
	set, ok := f.subs[gameID]
	if !ok {
		set = make(map[chan Event]struct{})
		f.subs[gameID] = set
	}
	set[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if set, ok := f.subs[gameID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(f.subs, gameID)
				}
			}
			close(ch)
		})
	}
}

func (f *Feed) Publish(gameID string, ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs[gameID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of listeners of gameID.
func (f *Feed) Subscribers(gameID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[gameID])
}
