// Package quote provides the HTTP handlers for the print quote engine:
// catalog reads, flat, booklet and multi-part calculations, exchange rates
// and saved quotes.
//
// All monetary values use shopspring/decimal, never float64.
package quote

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pressquote/quote-engine/internal/currency"
	"github.com/pressquote/quote-engine/internal/estimate"
	"github.com/pressquote/quote-engine/internal/extras"
	"github.com/pressquote/quote-engine/internal/metrics"
	"github.com/pressquote/quote-engine/internal/store"
)

// RateProvider supplies the exchange rate snapshot used for a request.
// *currency.Refresher implements it.
type RateProvider interface {
	Snapshot() currency.Snapshot
}

type fixedRates currency.Snapshot

func (f fixedRates) Snapshot() currency.Snapshot { return currency.Snapshot(f) }

// Service serves quote calculations against the catalog in store.
type Service struct {
	store store.Store
	rates RateProvider
	wsHub *WSHub // optional WebSocket hub for catalog broadcasts
}

// NewService creates a new quote service. A nil rates provider uses the
// fallback rate table; pass nil for hub if broadcasting is not needed.
func NewService(st store.Store, rates RateProvider, hub *WSHub) *Service {
	if rates == nil {
		rates = fixedRates(currency.Snapshot{Rates: currency.FallbackRates(), Fallback: true})
	}
	return &Service{
		store: st,
		rates: rates,
		wsHub: hub,
	}
}

// Routes registers every API handler on r. Mount it under /api/v1.
func (s *Service) Routes(r chi.Router) {
	r.Get("/paper-types", s.ListPaperTypes)
	r.Get("/paper-types/{id}", s.GetPaperType)

	r.Get("/machines", s.ListMachines)
	r.Get("/machines/{id}", s.GetMachine)

	r.Get("/extras", s.ListExtras)
	r.Get("/extras/{id}", s.GetExtra)

	r.Post("/initialize-data", s.InitializeData)
	r.Get("/exchange-rates", s.ExchangeRates)

	r.Post("/calculate", s.Calculate)
	r.Post("/calculate/booklet", s.CalculateBooklet)
	r.Post("/calculate/multipart", s.CalculateMultiPart)

	r.Post("/quotes", s.SaveQuote)
	r.Get("/quotes", s.ListQuotes)
	r.Get("/quotes/{quoteID}", s.GetQuote)

	if s.wsHub != nil {
		r.Get("/ws", s.wsHub.HandleWS)
	}
}

func (s *Service) estimator(snap currency.Snapshot) *estimate.Estimator {
	return estimate.New(snap.RateOf, estimate.WithInfeasibleHook(func(n int) {
		metrics.InfeasibleCombinations.Add(float64(n))
	}))
}

func (s *Service) extrasEvaluator(snap currency.Snapshot) *extras.Evaluator {
	return extras.New(snap.RateOf)
}

// statusFor maps engine and store errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, estimate.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, estimate.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, estimate.ErrNoFeasibleCombination):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// outcome is the metrics label for a calculation result.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch statusFor(err) {
	case http.StatusBadRequest:
		return "invalid"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "infeasible"
	default:
		return "error"
	}
}

func urlID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
