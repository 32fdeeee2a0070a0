package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pressquote/quote-engine/internal/currency"
	"github.com/pressquote/quote-engine/internal/estimate"
	"github.com/pressquote/quote-engine/internal/extras"
	"github.com/pressquote/quote-engine/internal/metrics"
	"github.com/pressquote/quote-engine/internal/model"
)

// --- Request/Response types ---

// CalculateRequest is the JSON body for POST /calculate. The optional ids
// pin the search: a paper, a machine, or a machine and one of its press
// sheet sizes.
type CalculateRequest struct {
	Job              model.Job             `json:"job"`
	PaperTypeID      *int64                `json:"paper_type_id,omitempty"`
	MachineID        *int64                `json:"machine_id,omitempty"`
	PressSheetSizeID *int64                `json:"press_sheet_size_id,omitempty"`
	Extras           []model.SelectedExtra `json:"extras,omitempty"`
}

// CalculateResponse is the JSON body returned from POST /calculate.
// Results are ranked cheapest first; Optimal is Results[0].
type CalculateResponse struct {
	Results     []model.CalculationResult `json:"results"`
	Optimal     model.CalculationResult   `json:"optimal"`
	Extras      extras.Summary            `json:"extras"`
	TotalCost   decimal.Decimal           `json:"total_cost"`
	CostPerUnit decimal.Decimal           `json:"cost_per_unit"`
	Rates       currency.Snapshot         `json:"exchange_rates"`
}

// BookletRequest is the JSON body for POST /calculate/booklet. When
// InnerParts is set the inner pages are priced per part instead of with
// the Inner selection.
type BookletRequest struct {
	Job        model.Job             `json:"job"`
	Cover      estimate.Selection    `json:"cover"`
	Inner      estimate.Selection    `json:"inner"`
	InnerParts []model.Part          `json:"inner_parts,omitempty"`
	Extras     []model.SelectedExtra `json:"extras,omitempty"`
}

// BookletResponse is the JSON body returned from POST /calculate/booklet.
type BookletResponse struct {
	Cover          *model.CoverResult     `json:"cover,omitempty"`
	Inner          *model.InnerResult     `json:"inner,omitempty"`
	InnerParts     *model.MultiPartResult `json:"inner_parts,omitempty"`
	PrintCost      decimal.Decimal        `json:"print_cost"`
	Extras         extras.Summary         `json:"extras"`
	TotalCost      decimal.Decimal        `json:"total_cost"`
	CostPerBooklet decimal.Decimal        `json:"cost_per_booklet"`
	Rates          currency.Snapshot      `json:"exchange_rates"`
}

// MultiPartRequest is the JSON body for POST /calculate/multipart.
type MultiPartRequest struct {
	Job     model.Job    `json:"job"`
	Parts   []model.Part `json:"parts"`
	Booklet bool         `json:"booklet"`
}

// MultiPartResponse is the JSON body returned from POST /calculate/multipart.
type MultiPartResponse struct {
	*model.MultiPartResult
	Rates currency.Snapshot `json:"exchange_rates"`
}

// catalog is the slice of the store one calculation runs against.
type catalog struct {
	papers   []model.PaperStock
	machines []model.Machine
	extras   []model.Extra
}

func (s *Service) loadCatalog(ctx context.Context, withExtras bool) (*catalog, error) {
	c := &catalog{}
	var err error
	if c.papers, err = s.store.ListPaperTypes(ctx); err != nil {
		return nil, fmt.Errorf("list paper types: %w", err)
	}
	if c.machines, err = s.store.ListMachines(ctx); err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}
	if withExtras {
		if c.extras, err = s.store.ListExtras(ctx); err != nil {
			return nil, fmt.Errorf("list extras: %w", err)
		}
	}
	return c, nil
}

func observe(kind string, start time.Time, err error) {
	metrics.QuoteLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	metrics.QuotesTotal.WithLabelValues(kind, outcome(err)).Inc()
}

// writeCalcError writes an engine error. Internal errors are logged and
// hidden from the client.
func writeCalcError(w http.ResponseWriter, kind string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("quote calculation failed", "kind", kind, "err", err)
		writeError(w, "calculation failed", status)
		return
	}
	writeError(w, err.Error(), status)
}

// Calculate handles POST /api/v1/calculate
// Ranks every feasible combination for a flat job and prices its extras
// against the cheapest one.
func (s *Service) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Job.IsBookletMode = false

	cat, err := s.loadCatalog(r.Context(), len(req.Extras) > 0)
	if err != nil {
		writeCalcError(w, "flat", err)
		return
	}

	snap := s.rates.Snapshot()
	start := time.Now()
	results, err := s.flat(s.estimator(snap), req, cat)
	observe("flat", start, err)
	if err != nil {
		writeCalcError(w, "flat", err)
		return
	}

	best := results[0]
	summary := s.extrasEvaluator(snap).Evaluate(extras.Job{
		Job:    req.Job,
		Sheets: extras.Sheets{Flat: &best},
	}, req.Extras, cat.extras)

	total := best.TotalCost.Add(summary.Total)
	resp := CalculateResponse{
		Results:     results,
		Optimal:     best,
		Extras:      summary,
		TotalCost:   total,
		CostPerUnit: estimate.PerUnit(total, req.Job.Quantity),
		Rates:       snap,
	}

	slog.Info("quote calculated",
		"kind", "flat",
		"product", req.Job.ProductName,
		"quantity", req.Job.Quantity,
		"options", len(results),
		"machine", best.MachineName,
		"paper", best.PaperStockName,
		"total_eur", total.String(),
	)

	writeJSON(w, http.StatusOK, resp)
}

// flat dispatches a flat request to the search matching its pins.
func (s *Service) flat(est *estimate.Estimator, req CalculateRequest, cat *catalog) ([]model.CalculationResult, error) {
	if req.PressSheetSizeID != nil && req.MachineID == nil {
		return nil, fmt.Errorf("%w: press_sheet_size_id requires machine_id", estimate.ErrInvalidInput)
	}

	var machine *model.Machine
	var size *model.PressSheetSize
	if req.MachineID != nil {
		m, err := estimate.FindMachine(cat.machines, *req.MachineID)
		if err != nil {
			return nil, err
		}
		machine = m
		if req.PressSheetSizeID != nil {
			ps, ok := m.PressSheet(*req.PressSheetSizeID)
			if !ok {
				return nil, fmt.Errorf("press sheet size %d: %w", *req.PressSheetSizeID, estimate.ErrNotFound)
			}
			size = ps
		}
	}

	switch {
	case req.PaperTypeID != nil:
		p, err := estimate.FindPaper(cat.papers, *req.PaperTypeID)
		if err != nil {
			return nil, err
		}
		return est.FindOptimalForPaper(req.Job, p, cat.machines, machine, size)
	case size != nil:
		return est.FindForPressSheet(req.Job, cat.papers, machine, size)
	case machine != nil:
		return est.FindOptimal(req.Job, cat.papers, []model.Machine{*machine})
	default:
		return est.FindOptimal(req.Job, cat.papers, cat.machines)
	}
}

// CalculateBooklet handles POST /api/v1/calculate/booklet
func (s *Service) CalculateBooklet(w http.ResponseWriter, r *http.Request) {
	var req BookletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Job.IsBookletMode = true
	if err := estimate.ValidateJob(req.Job); err != nil {
		observe("booklet", time.Now(), err)
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	cat, err := s.loadCatalog(r.Context(), len(req.Extras) > 0)
	if err != nil {
		writeCalcError(w, "booklet", err)
		return
	}

	snap := s.rates.Snapshot()
	est := s.estimator(snap)
	start := time.Now()

	resp := BookletResponse{Rates: snap}
	sheets := extras.Sheets{}
	if len(req.InnerParts) > 0 {
		err = s.bookletParts(est, req, cat, &resp, &sheets)
	} else {
		var res *estimate.BookletResult
		res, err = est.Booklet(req.Job, req.Cover, req.Inner, cat.papers, cat.machines)
		if err == nil {
			resp.Cover, resp.Inner, resp.PrintCost = res.Cover, res.Inner, res.TotalCost
			sheets.Cover, sheets.Inner = res.Cover, res.Inner
		}
	}
	observe("booklet", start, err)
	if err != nil {
		writeCalcError(w, "booklet", err)
		return
	}

	resp.Extras = s.extrasEvaluator(snap).Evaluate(extras.Job{
		Job:    req.Job,
		Sheets: sheets,
	}, req.Extras, cat.extras)
	resp.TotalCost = resp.PrintCost.Add(resp.Extras.Total)
	resp.CostPerBooklet = estimate.PerUnit(resp.TotalCost, req.Job.Quantity)

	slog.Info("quote calculated",
		"kind", "booklet",
		"product", req.Job.ProductName,
		"quantity", req.Job.Quantity,
		"pages", req.Job.TotalPages,
		"inner_parts", len(req.InnerParts),
		"total_eur", resp.TotalCost.String(),
	)

	writeJSON(w, http.StatusOK, resp)
}

// bookletParts prices the cover with the Cover selection and the inner
// pages part by part. The inner press sheets of all successful parts are
// summed for sheet-based extras.
func (s *Service) bookletParts(
	est *estimate.Estimator, req BookletRequest, cat *catalog,
	resp *BookletResponse, sheets *extras.Sheets,
) error {
	resp.PrintCost = decimal.Zero
	if req.Job.HasCover {
		p, err := estimate.FindPaper(cat.papers, req.Cover.PaperStockID)
		if err != nil {
			return fmt.Errorf("cover: %w", err)
		}
		m, err := estimate.FindMachine(cat.machines, req.Cover.MachineID)
		if err != nil {
			return fmt.Errorf("cover: %w", err)
		}
		cover, err := est.Cover(req.Job, p, m)
		if err != nil {
			return err
		}
		resp.Cover = cover
		sheets.Cover = cover
		resp.PrintCost = cover.TotalCost
	}

	parts := est.MultiPart(req.Job, req.InnerParts, cat.papers, cat.machines, true)
	resp.InnerParts = parts
	resp.PrintCost = resp.PrintCost.Add(parts.TotalCost)

	// The inner paper weight for per_form extras is the part carrying the
	// most pages; ties keep the earlier part.
	inner := &model.InnerResult{}
	found := false
	mostPages := 0
	for _, pr := range parts.Parts {
		if pr.Result == nil {
			continue
		}
		if !found || pr.Part.PageCount > mostPages {
			inner.PaperGSM = pr.Result.PaperGSM
			mostPages = pr.Part.PageCount
			found = true
		}
		inner.PressSheetsNeeded += pr.Result.PressSheetsNeeded
		inner.InnerPagesPerBooklet += pr.Part.PageCount
	}
	if found {
		sheets.Inner = inner
	}
	return nil
}

// CalculateMultiPart handles POST /api/v1/calculate/multipart
// Each part is priced on its own paper and machine; failed parts are
// reported in place and left out of the total.
func (s *Service) CalculateMultiPart(w http.ResponseWriter, r *http.Request) {
	var req MultiPartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Parts) == 0 {
		writeError(w, "parts is required", http.StatusBadRequest)
		return
	}
	req.Job.IsBookletMode = req.Booklet
	if err := estimate.ValidateJob(req.Job); err != nil {
		observe("multipart", time.Now(), err)
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	cat, err := s.loadCatalog(r.Context(), false)
	if err != nil {
		writeCalcError(w, "multipart", err)
		return
	}

	snap := s.rates.Snapshot()
	start := time.Now()
	res := s.estimator(snap).MultiPart(req.Job, req.Parts, cat.papers, cat.machines, req.Booklet)
	observe("multipart", start, nil)

	slog.Info("quote calculated",
		"kind", "multipart",
		"parts", len(req.Parts),
		"failed", res.Failed,
		"total_eur", res.TotalCost.String(),
	)

	writeJSON(w, http.StatusOK, MultiPartResponse{MultiPartResult: res, Rates: snap})
}
