package chessdto

import "time"

// MaterialScore sums the standard values of the pieces each side has captured.
type MaterialScore struct {
	White int `json:"white"`
	Black int `json:"black"`
}

// Diff is white's material lead.
func (m MaterialScore) Diff() int { return m.White - m.Black }

// CapturedPieces lists FEN letters of the pieces taken by each side.
type CapturedPieces struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

type MoveRow struct {
	Number int    `json:"number"`
	White  string `json:"white"`
	Black  string `json:"black,omitempty"`
}

type LastMove struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Mover     string `json:"mover"`
	Notation  string `json:"notation"`
	Captured  string `json:"captured,omitempty"`
	Promotion string `json:"promotion,omitempty"`
}

type ClockState struct {
	Enabled bool   `json:"enabled"`
	Running bool   `json:"running"`
	Active  string `json:"active"`
	White   string `json:"white"`
	Black   string `json:"black"`
	WhiteMS int64  `json:"white_ms"`
	BlackMS int64  `json:"black_ms"`
	Flagged bool   `json:"flagged"`
}

type Opening struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// GameState is the client view of one game.
type GameState struct {
	ID          string         `json:"id"`
	WhiteName   string         `json:"white_name"`
	BlackName   string         `json:"black_name"`
	FEN         string         `json:"fen"`
	Turn        string         `json:"turn"`
	Status      string         `json:"status"`
	Result      string         `json:"result"`
	Winner      string         `json:"winner,omitempty"`
	MoveCount   int            `json:"move_count"`
	MovesUCI    []string       `json:"moves_uci"`
	Notation    []string       `json:"notation"`
	Rows        []MoveRow      `json:"rows"`
	LastMove    *LastMove      `json:"last_move,omitempty"`
	Captured    CapturedPieces `json:"captured"`
	Material    MaterialScore  `json:"material"`
	Orientation string         `json:"orientation"`
	ShowHints   bool           `json:"show_hints"`
	Clock       *ClockState    `json:"clock,omitempty"`
	Opening     *Opening       `json:"opening,omitempty"`
	Message     string         `json:"message,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Target is one highlighted destination of a selected piece.
type Target struct {
	To      string `json:"to"`
	Capture bool   `json:"capture"`
}

type Selection struct {
	Square  string   `json:"square"`
	Targets []Target `json:"targets"`
	Message string   `json:"message,omitempty"`
}
