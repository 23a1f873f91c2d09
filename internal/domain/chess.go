package domain

import "time"

// ChessGame is a finished hotseat game as kept by the archive.
// ID is the game ID suffixed with the round number, so a board reused through
// New Game produces one record per finished round.
type ChessGame struct {
	ID          string
	GameID      string
	Round       int
	WhiteName   string
	BlackName   string
	Result      string
	Status      string
	MovesUCI    []string
	Notation    []string
	PGN         string
	OpeningECO  string
	OpeningName string
	StartedAt   time.Time
	EndedAt     time.Time
	Duration    time.Duration
}
