package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pressquote/quote-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu       sync.RWMutex
	papers   map[int64]model.PaperStock
	machines map[int64]model.Machine
	extras   map[int64]model.Extra
	quotes   []model.SavedQuote
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		papers:   make(map[int64]model.PaperStock),
		machines: make(map[int64]model.Machine),
		extras:   make(map[int64]model.Extra),
	}
}

// cloner is implemented by catalog values that own slices.
type cloner[T any] interface {
	Clone() T
}

func nextID[T any](m map[int64]T) int64 {
	var top int64
	for id := range m {
		if id > top {
			top = id
		}
	}
	return top + 1
}

func sortedValues[T cloner[T]](m map[int64]T) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id].Clone())
	}
	return out
}

// --- Papers ---

func (s *MemoryStore) ListPaperTypes(_ context.Context) ([]model.PaperStock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.papers), nil
}

func (s *MemoryStore) GetPaperType(_ context.Context, id int64) (*model.PaperStock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.papers[id]
	if !ok {
		return nil, fmt.Errorf("paper type %d: %w", id, ErrNotFound)
	}
	p = p.Clone()
	return &p, nil
}

func (s *MemoryStore) CreatePaperType(_ context.Context, p *model.PaperStock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == 0 {
		p.ID = nextID(s.papers)
	}
	if _, exists := s.papers[p.ID]; exists {
		return fmt.Errorf("paper type %d already exists", p.ID)
	}
	s.papers[p.ID] = p.Clone()
	return nil
}

// --- Machines ---

func (s *MemoryStore) ListMachines(_ context.Context) ([]model.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.machines), nil
}

func (s *MemoryStore) GetMachine(_ context.Context, id int64) (*model.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.machines[id]
	if !ok {
		return nil, fmt.Errorf("machine %d: %w", id, ErrNotFound)
	}
	m = m.Clone()
	return &m, nil
}

func (s *MemoryStore) CreateMachine(_ context.Context, m *model.Machine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == 0 {
		m.ID = nextID(s.machines)
	}
	if _, exists := s.machines[m.ID]; exists {
		return fmt.Errorf("machine %d already exists", m.ID)
	}
	s.machines[m.ID] = m.Clone()
	return nil
}

// --- Extras ---

func (s *MemoryStore) ListExtras(_ context.Context) ([]model.Extra, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.extras), nil
}

func (s *MemoryStore) GetExtra(_ context.Context, id int64) (*model.Extra, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.extras[id]
	if !ok {
		return nil, fmt.Errorf("extra %d: %w", id, ErrNotFound)
	}
	e = e.Clone()
	return &e, nil
}

func (s *MemoryStore) CreateExtra(_ context.Context, e *model.Extra) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == 0 {
		e.ID = nextID(s.extras)
	}
	if _, exists := s.extras[e.ID]; exists {
		return fmt.Errorf("extra %d already exists", e.ID)
	}
	s.extras[e.ID] = e.Clone()
	return nil
}

// --- Saved quotes ---

func (s *MemoryStore) SaveQuote(_ context.Context, q *model.SavedQuote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.quotes {
		if existing.ID == q.ID {
			return fmt.Errorf("quote %s already exists", q.ID)
		}
	}
	s.quotes = append(s.quotes, q.Clone())
	return nil
}

func (s *MemoryStore) GetQuote(_ context.Context, id string) (*model.SavedQuote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, q := range s.quotes {
		if q.ID == id {
			q = q.Clone()
			return &q, nil
		}
	}
	return nil, fmt.Errorf("quote %s: %w", id, ErrNotFound)
}

func (s *MemoryStore) ListQuotes(_ context.Context) ([]model.SavedQuote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quotes := make([]model.SavedQuote, 0, len(s.quotes))
	for i := len(s.quotes) - 1; i >= 0; i-- {
		quotes = append(quotes, s.quotes[i].Clone())
	}
	return quotes, nil
}
