package hotseat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/park285/hotseat-chess/internal/domain"
)

var ErrDuplicateGame = errors.New("archived game already exists")

// Archive keeps finished rounds. Get returns nil, nil for an unknown ID.
type Archive interface {
	Save(ctx context.Context, game *domain.ChessGame) error
	Get(ctx context.Context, id string) (*domain.ChessGame, error)
	Recent(ctx context.Context, limit int) ([]*domain.ChessGame, error)
	Close() error
}

const defaultHistoryLimit = 10

// OpenArchive prefers Postgres, then a Badger directory, then memory.
func OpenArchive(databaseURL, dir string) (Archive, error) {
	if strings.TrimSpace(databaseURL) != "" {
		return NewPostgresArchive(databaseURL)
	}
	if strings.TrimSpace(dir) != "" {
		return NewBadgerArchive(dir)
	}
	return NewMemoryArchive(), nil
}

// memArchive is the development archive used when nothing is configured.
type memArchive struct {
	mu    sync.RWMutex
	games map[string]*domain.ChessGame
}

func NewMemoryArchive() Archive {
	return &memArchive{games: make(map[string]*domain.ChessGame)}
}

func (m *memArchive) Save(_ context.Context, game *domain.ChessGame) error {
	if game == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[game.ID]; exists {
		return ErrDuplicateGame
	}
	cp := copyArchived(game)
	m.games[game.ID] = cp
	return nil
}

func (m *memArchive) Get(_ context.Context, id string) (*domain.ChessGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	return copyArchived(g), nil
}

func (m *memArchive) Recent(_ context.Context, limit int) ([]*domain.ChessGame, error) {
	m.mu.RLock()
	items := make([]*domain.ChessGame, 0, len(m.games))
	for _, g := range m.games {
		items = append(items, copyArchived(g))
	}
	m.mu.RUnlock()
	sortRecent(items)
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memArchive) Close() error { return nil }

// sortRecent orders by EndedAt desc, then ID desc.
func sortRecent(items []*domain.ChessGame) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
}

func copyArchived(g *domain.ChessGame) *domain.ChessGame {
	cp := *g
	cp.MovesUCI = append([]string(nil), g.MovesUCI...)
	cp.Notation = append([]string(nil), g.Notation...)
	return &cp
}
