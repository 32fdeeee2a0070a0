package quote

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pressquote/quote-engine/internal/metrics"
	"github.com/pressquote/quote-engine/internal/model"
	"github.com/pressquote/quote-engine/internal/store"
)

// SaveQuoteRequest is the JSON body for POST /quotes. Data is the
// calculation snapshot the client wants to keep, stored as given.
type SaveQuoteRequest struct {
	Name         string          `json:"name"`
	Data         json.RawMessage `json:"data"`
	TotalCostEUR decimal.Decimal `json:"total_cost_eur"`
}

// SaveQuote handles POST /api/v1/quotes
func (s *Service) SaveQuote(w http.ResponseWriter, r *http.Request) {
	var req SaveQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, "name is required", http.StatusBadRequest)
		return
	}
	if len(req.Data) == 0 || string(req.Data) == "null" {
		writeError(w, "data is required", http.StatusBadRequest)
		return
	}
	if req.TotalCostEUR.IsNegative() {
		writeError(w, "total_cost_eur must not be negative", http.StatusBadRequest)
		return
	}

	q := &model.SavedQuote{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Data:         req.Data,
		TotalCostEUR: req.TotalCostEUR,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.SaveQuote(r.Context(), q); err != nil {
		slog.Error("save quote failed", "err", err)
		writeError(w, "failed to save quote", http.StatusInternalServerError)
		return
	}
	metrics.SavedQuotes.Inc()

	slog.Info("quote saved",
		"id", q.ID,
		"name", q.Name,
		"total_eur", q.TotalCostEUR.String(),
	)

	writeJSON(w, http.StatusCreated, q)
}

// ListQuotes handles GET /api/v1/quotes
// Returns saved quotes, newest first.
func (s *Service) ListQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.store.ListQuotes(r.Context())
	if err != nil {
		writeError(w, "failed to list quotes", http.StatusInternalServerError)
		return
	}
	if quotes == nil {
		quotes = []model.SavedQuote{}
	}
	writeJSON(w, http.StatusOK, quotes)
}

// GetQuote handles GET /api/v1/quotes/{quoteID}
func (s *Service) GetQuote(w http.ResponseWriter, r *http.Request) {
	quoteID := chi.URLParam(r, "quoteID")
	if _, err := uuid.Parse(quoteID); err != nil {
		writeError(w, "quote not found", http.StatusNotFound)
		return
	}

	q, err := s.store.GetQuote(r.Context(), quoteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "quote not found", http.StatusNotFound)
			return
		}
		writeError(w, "failed to get quote", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
