package hotseat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL      = 24 * time.Hour
	maxWatchRetries = 5
)

// Store persists game records. Update applies fn to a private copy and writes
// it back atomically; when fn fails nothing is written.
type Store interface {
	Create(ctx context.Context, g *Game) error
	Load(ctx context.Context, id string) (*Game, error)
	Update(ctx context.Context, id string, fn func(g *Game) error) (*Game, error)
	IDs(ctx context.Context) ([]string, error)
	Close() error
}

// OpenStore returns a Redis store for redisURL, or an in-memory store when it is empty.
func OpenStore(ctx context.Context, redisURL string, ttl time.Duration) (Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		if ttl <= 0 {
			ttl = defaultTTL
		}
		return NewMemoryStore(WithMemoryTTL(ttl)), nil
	}
	return NewRedisStore(ctx, redisURL, ttl)
}

// RedisStore keeps one JSON document per game with a sliding TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func keyGame(id string) string { return "hotseat:game:" + strings.TrimSpace(id) }

const keyIndex = "hotseat:games"

func (s *RedisStore) Create(ctx context.Context, g *Game) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, keyGame(g.ID), raw, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: id %s already in use", ErrConflict, g.ID)
	}
	return s.rdb.SAdd(ctx, keyIndex, g.ID).Err()
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Game, error) {
	raw, err := s.rdb.Get(ctx, keyGame(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	return &g, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, fn func(g *Game) error) (*Game, error) {
	key := keyGame(id)
	var out *Game
	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Bytes()
			if err == redis.Nil {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
			var cur Game
			if err := json.Unmarshal(raw, &cur); err != nil {
				return fmt.Errorf("decode game %s: %w", id, err)
			}
			if err := fn(&cur); err != nil {
				return err
			}
			next, err := json.Marshal(&cur)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, next, s.ttl)
				return nil
			})
			if err == nil {
				out = &cur
			}
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, ErrConflict
}

// IDs lists live games and drops index entries whose record has expired.
func (s *RedisStore) IDs(ctx context.Context) ([]string, error) {
	ids, err := s.rdb.SMembers(ctx, keyIndex).Result()
	if err != nil {
		return nil, err
	}
	live := ids[:0]
	for _, id := range ids {
		n, err := s.rdb.Exists(ctx, keyGame(id)).Result()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			_ = s.rdb.SRem(ctx, keyIndex, id).Err()
			continue
		}
		live = append(live, id)
	}
	sort.Strings(live)
	return live, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}

// MemoryStore is the single-process store used when no Redis is configured.
// With a TTL set it drops games idle for longer, as Redis would.
type MemoryStore struct {
	mu      sync.RWMutex
	games   map[string]*Game
	expires map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

type MemoryOption func(*MemoryStore)

// WithMemoryTTL expires a game ttl after its last write. Zero keeps games forever.
func WithMemoryTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.ttl = ttl }
}

// WithMemoryClock replaces the wall clock used for expiry.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		games:   make(map[string]*Game),
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create(_ context.Context, g *Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(g.ID)
	if _, ok := s.games[g.ID]; ok {
		return fmt.Errorf("%w: id %s already in use", ErrConflict, g.ID)
	}
	s.putLocked(g.ID, g.clone())
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(id)
	g, ok := s.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return g.clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fn func(g *Game) error) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(id)
	g, ok := s.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	cur := g.clone()
	if err := fn(cur); err != nil {
		return nil, err
	}
	s.putLocked(id, cur.clone())
	return cur, nil
}

func (s *MemoryStore) IDs(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		if s.evictLocked(id) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) putLocked(id string, g *Game) {
	s.games[id] = g
	if s.ttl > 0 {
		s.expires[id] = s.now().Add(s.ttl)
	}
}

// evictLocked drops id once its TTL has passed and reports whether it did.
func (s *MemoryStore) evictLocked(id string) bool {
	exp, ok := s.expires[id]
	if !ok || s.now().Before(exp) {
		return false
	}
	delete(s.games, id)
	delete(s.expires, id)
	return true
}

func (s *MemoryStore) Close() error { return nil }
