package chessdto

import "time"

// ArchivedGame is a finished game as stored by the archive.
type ArchivedGame struct {
	ID         string        `json:"id"`
	WhiteName  string        `json:"white_name"`
	BlackName  string        `json:"black_name"`
	Result     string        `json:"result"`
	Status     string        `json:"status"`
	MovesUCI   []string      `json:"moves_uci"`
	Notation   []string      `json:"notation"`
	PGN        string        `json:"pgn"`
	StartedAt  time.Time     `json:"started_at"`
	EndedAt    time.Time     `json:"ended_at"`
	Duration   time.Duration `json:"duration"`
	OpeningECO string        `json:"opening_eco,omitempty"`
}
