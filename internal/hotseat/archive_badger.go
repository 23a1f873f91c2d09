package hotseat

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/park285/hotseat-chess/internal/domain"
)

const badgerPrefix = "archive:"

// BadgerArchive stores finished rounds in an embedded key-value directory.
type BadgerArchive struct {
	db *badger.DB
}

// NewBadgerArchive opens (or creates) the archive under dir.
func NewBadgerArchive(dir string) (*BadgerArchive, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	return openBadger(opts)
}

func openBadger(opts badger.Options) (*BadgerArchive, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerArchive{db: db}, nil
}

func (a *BadgerArchive) Close() error {
	if a != nil && a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *BadgerArchive) Save(_ context.Context, game *domain.ChessGame) error {
	if game == nil {
		return nil
	}
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}
	key := []byte(badgerPrefix + game.ID)
	return a.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return ErrDuplicateGame
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
}

func (a *BadgerArchive) Get(_ context.Context, id string) (*domain.ChessGame, error) {
	var out *domain.ChessGame
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var g domain.ChessGame
			if err := json.Unmarshal(val, &g); err != nil {
				return err
			}
			out = &g
			return nil
		})
	})
	return out, err
}

func (a *BadgerArchive) Recent(_ context.Context, limit int) ([]*domain.ChessGame, error) {
	var items []*domain.ChessGame
	err := a.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(badgerPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var g domain.ChessGame
				if err := json.Unmarshal(val, &g); err != nil {
					return err
				}
				items = append(items, &g)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortRecent(items)
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
