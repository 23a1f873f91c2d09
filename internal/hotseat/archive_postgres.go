package hotseat

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/hotseat-chess/internal/domain"
)

// Schema is the table layout expected by PostgresArchive.
const Schema = `
CREATE TABLE IF NOT EXISTS hotseat_games (
	archive_id   TEXT PRIMARY KEY,
	game_id      TEXT NOT NULL,
	round        INTEGER NOT NULL,
	white_name   TEXT NOT NULL,
	black_name   TEXT NOT NULL,
	result       TEXT NOT NULL,
	status       TEXT NOT NULL,
	moves_uci    JSONB NOT NULL,
	notation     JSONB NOT NULL,
	pgn          TEXT NOT NULL,
	opening_eco  TEXT NOT NULL DEFAULT '',
	opening_name TEXT NOT NULL DEFAULT '',
	started_at   TIMESTAMPTZ NOT NULL,
	ended_at     TIMESTAMPTZ NOT NULL,
	duration_ms  BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS hotseat_games_ended_at ON hotseat_games (ended_at DESC);`

type PostgresArchive struct {
	db *sql.DB
}

func NewPostgresArchive(databaseURL string) (*PostgresArchive, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PostgresArchive{db: db}, nil
}

func (r *PostgresArchive) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *PostgresArchive) Save(ctx context.Context, game *domain.ChessGame) error {
	if game == nil {
		return fmt.Errorf("nil archived game payload")
	}
	movesUCI, err := json.Marshal(game.MovesUCI)
	if err != nil {
		return fmt.Errorf("marshal moves_uci: %w", err)
	}
	notation, err := json.Marshal(game.Notation)
	if err != nil {
		return fmt.Errorf("marshal notation: %w", err)
	}

	const query = `
		INSERT INTO hotseat_games (
			archive_id, game_id, round, white_name, black_name,
			result, status, moves_uci, notation, pgn,
			opening_eco, opening_name, started_at, ended_at, duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (archive_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		game.ID, game.GameID, game.Round, game.WhiteName, game.BlackName,
		game.Result, game.Status, movesUCI, notation, game.PGN,
		game.OpeningECO, game.OpeningName, game.StartedAt, game.EndedAt, game.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert archived game: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDuplicateGame
	}
	return nil
}

const selectArchived = `
	SELECT
		archive_id, game_id, round, white_name, black_name,
		result, status, moves_uci, notation, pgn,
		opening_eco, opening_name, started_at, ended_at, duration_ms
	FROM hotseat_games`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArchived(row rowScanner) (*domain.ChessGame, error) {
	var (
		game         domain.ChessGame
		movesUCIJSON []byte
		notationJSON []byte
		durationMS   sql.NullInt64
	)
	if err := row.Scan(
		&game.ID, &game.GameID, &game.Round, &game.WhiteName, &game.BlackName,
		&game.Result, &game.Status, &movesUCIJSON, &notationJSON, &game.PGN,
		&game.OpeningECO, &game.OpeningName, &game.StartedAt, &game.EndedAt, &durationMS,
	); err != nil {
		return nil, err
	}
	if durationMS.Valid {
		game.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	}
	if err := json.Unmarshal(movesUCIJSON, &game.MovesUCI); err != nil {
		return nil, fmt.Errorf("unmarshal moves_uci: %w", err)
	}
	if err := json.Unmarshal(notationJSON, &game.Notation); err != nil {
		return nil, fmt.Errorf("unmarshal notation: %w", err)
	}
	return &game, nil
}

func (r *PostgresArchive) Get(ctx context.Context, id string) (*domain.ChessGame, error) {
	g, err := scanArchived(r.db.QueryRowContext(ctx, selectArchived+` WHERE archive_id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select archived game: %w", err)
	}
	return g, nil
}

func (r *PostgresArchive) Recent(ctx context.Context, limit int) ([]*domain.ChessGame, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := r.db.QueryContext(ctx, selectArchived+` ORDER BY ended_at DESC, archive_id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select archived games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.ChessGame, 0, limit)
	for rows.Next() {
		g, err := scanArchived(rows)
		if err != nil {
			return nil, fmt.Errorf("scan archived game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}
