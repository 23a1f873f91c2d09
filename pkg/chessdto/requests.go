package chessdto

type CreateGameRequest struct {
	WhiteName    string `json:"white_name,omitempty"`
	BlackName    string `json:"black_name,omitempty"`
	ClockEnabled *bool  `json:"clock_enabled,omitempty"`
	ClockSeconds int    `json:"clock_seconds,omitempty"`
}

// MoveRequest accepts either From/To (+Promotion) or a single long-algebraic Move.
type MoveRequest struct {
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Promotion string `json:"promotion,omitempty"`
	Move      string `json:"move,omitempty"`
}

type ToggleRequest struct {
	Enabled bool `json:"enabled"`
}

type HistoryResponse struct {
	Games []*ArchivedGame `json:"games"`
}

type ErrorResponse struct {
	Error DomainError `json:"error"`
}

type SelectRequest struct {
	Square string `json:"square"`
}

// Command is a player action sent over the live socket. Type is one of
// select, move, undo, new_game, flip, hints, clock or get.
type Command struct {
	Type      string `json:"type"`
	Square    string `json:"square,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Promotion string `json:"promotion,omitempty"`
	Move      string `json:"move,omitempty"`
	Enabled   bool   `json:"enabled,omitempty"`
}
