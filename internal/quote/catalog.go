package quote

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pressquote/quote-engine/internal/currency"
	"github.com/pressquote/quote-engine/internal/model"
	"github.com/pressquote/quote-engine/internal/seed"
)

// resource binds one catalog collection of the store to read handlers.
type resource[T any] struct {
	kind string
	list func(context.Context) ([]T, error)
	get  func(context.Context, int64) (*T, error)
}

func (s *Service) notify(kind, action string, id int64) {
	s.wsHub.Broadcast(WSMessage{Type: MsgCatalogUpdated, Kind: kind, Action: action, ID: id})
}

func listEntries[T any](w http.ResponseWriter, r *http.Request, res resource[T]) {
	items, err := res.list(r.Context())
	if err != nil {
		slog.Error("list catalog failed", "kind", res.kind, "err", err)
		writeError(w, "failed to list "+res.kind, http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

func getEntry[T any](w http.ResponseWriter, r *http.Request, res resource[T]) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	item, err := res.get(r.Context(), id)
	if err != nil {
		if statusFor(err) != http.StatusNotFound {
			slog.Error("get catalog failed", "kind", res.kind, "id", id, "err", err)
			writeError(w, "failed to get "+res.kind, http.StatusInternalServerError)
			return
		}
		writeError(w, res.kind+" not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// --- Resources ---

func (s *Service) paperResource() resource[model.PaperStock] {
	return resource[model.PaperStock]{
		kind: "paper_type",
		list: s.store.ListPaperTypes,
		get:  s.store.GetPaperType,
	}
}

func (s *Service) machineResource() resource[model.Machine] {
	return resource[model.Machine]{
		kind: "machine",
		list: s.store.ListMachines,
		get:  s.store.GetMachine,
	}
}

func (s *Service) extraResource() resource[model.Extra] {
	return resource[model.Extra]{
		kind: "extra",
		list: s.store.ListExtras,
		get:  s.store.GetExtra,
	}
}

// ListPaperTypes handles GET /api/v1/paper-types
func (s *Service) ListPaperTypes(w http.ResponseWriter, r *http.Request) {
	listEntries(w, r, s.paperResource())
}

// GetPaperType handles GET /api/v1/paper-types/{id}
func (s *Service) GetPaperType(w http.ResponseWriter, r *http.Request) {
	getEntry(w, r, s.paperResource())
}

// ListMachines handles GET /api/v1/machines
func (s *Service) ListMachines(w http.ResponseWriter, r *http.Request) {
	listEntries(w, r, s.machineResource())
}

// GetMachine handles GET /api/v1/machines/{id}
func (s *Service) GetMachine(w http.ResponseWriter, r *http.Request) {
	getEntry(w, r, s.machineResource())
}

// ListExtras handles GET /api/v1/extras
func (s *Service) ListExtras(w http.ResponseWriter, r *http.Request) {
	listEntries(w, r, s.extraResource())
}

// GetExtra handles GET /api/v1/extras/{id}
func (s *Service) GetExtra(w http.ResponseWriter, r *http.Request) {
	getEntry(w, r, s.extraResource())
}

// InitializeData handles POST /api/v1/initialize-data
// Loads the default catalog; entries that already exist by name are kept.
func (s *Service) InitializeData(w http.ResponseWriter, r *http.Request) {
	stats, err := seed.Run(r.Context(), s.store)
	if err != nil {
		slog.Error("initialize data failed", "err", err)
		writeError(w, "failed to initialize data", http.StatusInternalServerError)
		return
	}

	slog.Info("default catalog loaded", "inserts", stats.Inserts, "existing", stats.Existing)
	if stats.Inserts > 0 {
		s.notify("catalog", "seeded", 0)
	}
	writeJSON(w, http.StatusOK, stats)
}

// ExchangeRatesResponse is the JSON body returned from GET /exchange-rates.
type ExchangeRatesResponse struct {
	BaseCurrency string `json:"base_currency"`
	currency.Snapshot
}

// ExchangeRates handles GET /api/v1/exchange-rates
func (s *Service) ExchangeRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ExchangeRatesResponse{
		BaseCurrency: currency.Base,
		Snapshot:     s.rates.Snapshot(),
	})
}
