package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pressquote/quote-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache for the catalog. Writes go to the primary store and invalidate the
// cache; reads check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// readThrough returns the cached value under key or loads and caches it.
func readThrough[T any](ctx context.Context, s *CachedStore, key string, load func() (T, error)) (T, error) {
	if data, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var v T
		if json.Unmarshal(data, &v) == nil {
			return v, nil
		}
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
	return v, nil
}

func (s *CachedStore) invalidate(ctx context.Context, keys ...string) {
	s.rdb.Del(ctx, keys...)
}

// --- Papers ---

func (s *CachedStore) ListPaperTypes(ctx context.Context) ([]model.PaperStock, error) {
	return readThrough(ctx, s, papersKey, func() ([]model.PaperStock, error) {
		return s.primary.ListPaperTypes(ctx)
	})
}

func (s *CachedStore) GetPaperType(ctx context.Context, id int64) (*model.PaperStock, error) {
	return readThrough(ctx, s, paperKey(id), func() (*model.PaperStock, error) {
		return s.primary.GetPaperType(ctx, id)
	})
}

func (s *CachedStore) CreatePaperType(ctx context.Context, p *model.PaperStock) error {
	if err := s.primary.CreatePaperType(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx, papersKey)
	return nil
}

// --- Machines ---

func (s *CachedStore) ListMachines(ctx context.Context) ([]model.Machine, error) {
	return readThrough(ctx, s, machinesKey, func() ([]model.Machine, error) {
		return s.primary.ListMachines(ctx)
	})
}

func (s *CachedStore) GetMachine(ctx context.Context, id int64) (*model.Machine, error) {
	return readThrough(ctx, s, machineKey(id), func() (*model.Machine, error) {
		return s.primary.GetMachine(ctx, id)
	})
}

func (s *CachedStore) CreateMachine(ctx context.Context, m *model.Machine) error {
	if err := s.primary.CreateMachine(ctx, m); err != nil {
		return err
	}
	s.invalidate(ctx, machinesKey)
	return nil
}

// --- Extras ---

func (s *CachedStore) ListExtras(ctx context.Context) ([]model.Extra, error) {
	return readThrough(ctx, s, extrasKey, func() ([]model.Extra, error) {
		return s.primary.ListExtras(ctx)
	})
}

func (s *CachedStore) GetExtra(ctx context.Context, id int64) (*model.Extra, error) {
	return readThrough(ctx, s, extraKey(id), func() (*model.Extra, error) {
		return s.primary.GetExtra(ctx, id)
	})
}

func (s *CachedStore) CreateExtra(ctx context.Context, e *model.Extra) error {
	if err := s.primary.CreateExtra(ctx, e); err != nil {
		return err
	}
	s.invalidate(ctx, extrasKey)
	return nil
}

// --- Saved quotes (immutable, cached per id) ---

func (s *CachedStore) SaveQuote(ctx context.Context, q *model.SavedQuote) error {
	return s.primary.SaveQuote(ctx, q)
}

func (s *CachedStore) GetQuote(ctx context.Context, id string) (*model.SavedQuote, error) {
	return readThrough(ctx, s, quoteKey(id), func() (*model.SavedQuote, error) {
		return s.primary.GetQuote(ctx, id)
	})
}

func (s *CachedStore) ListQuotes(ctx context.Context) ([]model.SavedQuote, error) {
	return s.primary.ListQuotes(ctx)
}

// --- Cache keys ---

const (
	papersKey   = "catalog:papers"
	machinesKey = "catalog:machines"
	extrasKey   = "catalog:extras"
)

func paperKey(id int64) string   { return fmt.Sprintf("paper:%d", id) }
func machineKey(id int64) string { return fmt.Sprintf("machine:%d", id) }
func extraKey(id int64) string   { return fmt.Sprintf("extra:%d", id) }
func quoteKey(id string) string  { return fmt.Sprintf("quote:%s", id) }
