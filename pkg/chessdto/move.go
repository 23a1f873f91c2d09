package chessdto

// MoveSummary describes one committed move alongside the resulting state.
type MoveSummary struct {
	State    *GameState `json:"state"`
	UCI      string     `json:"uci"`
	Notation string     `json:"notation"`
	Finished bool       `json:"finished"`
}

// Event is pushed to live-feed subscribers after every state change, and
// answers commands sent over the socket.
type Event struct {
	Type      string       `json:"type"`
	State     *GameState   `json:"state,omitempty"`
	Selection *Selection   `json:"selection,omitempty"`
	Error     *DomainError `json:"error,omitempty"`
}

// Event types.
const (
	EventState     = "state"
	EventMove      = "move"
	EventUndo      = "undo"
	EventNewGame   = "new_game"
	EventFlag      = "flag"
	EventSelection = "selection"
	EventError     = "error"
)
