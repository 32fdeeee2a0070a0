// Package store defines the persistence interface for the quote engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/pressquote/quote-engine/internal/model"
)

// ErrNotFound is returned when a catalog entry or saved quote does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer for the catalog.
type Store interface {
	// --- Paper catalog ---

	// ListPaperTypes returns all papers ordered by id.
	ListPaperTypes(ctx context.Context) ([]model.PaperStock, error)

	// GetPaperType retrieves a paper by id.
	GetPaperType(ctx context.Context, id int64) (*model.PaperStock, error)

	// CreatePaperType persists a paper. A zero id is assigned by the store.
	// The catalog is only ever added to by seeding.
	CreatePaperType(ctx context.Context, p *model.PaperStock) error

	// --- Machine catalog ---

	ListMachines(ctx context.Context) ([]model.Machine, error)
	GetMachine(ctx context.Context, id int64) (*model.Machine, error)
	CreateMachine(ctx context.Context, m *model.Machine) error

	// --- Extras catalog ---

	ListExtras(ctx context.Context) ([]model.Extra, error)
	GetExtra(ctx context.Context, id int64) (*model.Extra, error)
	CreateExtra(ctx context.Context, e *model.Extra) error

	// --- Saved quotes ---

	// SaveQuote persists a calculation snapshot. Quotes are immutable.
	SaveQuote(ctx context.Context, q *model.SavedQuote) error

	// GetQuote retrieves a saved quote by id.
	GetQuote(ctx context.Context, id string) (*model.SavedQuote, error)

	// ListQuotes returns saved quotes, newest first.
	ListQuotes(ctx context.Context) ([]model.SavedQuote, error)
}
