package estimate

import (
	"errors"
	"fmt"

	"github.com/pressquote/quote-engine/internal/model"
)

var (
	// ErrNoFeasibleCombination is returned when no machine, press sheet,
	// paper and stock sheet combination can produce the job.
	ErrNoFeasibleCombination = errors.New("estimate: no suitable combination found")

	// ErrNotFound is returned when a referenced paper, machine or press
	// sheet size is not in the supplied catalog.
	ErrNotFound = errors.New("estimate: catalog entry not found")

	// ErrInvalidInput is returned for non-positive dimensions, weights,
	// quantities or negative prices.
	ErrInvalidInput = errors.New("estimate: invalid input")
)

func invalid(field string, v any) error {
	return fmt.Errorf("%w: %s=%v", ErrInvalidInput, field, v)
}

// ValidateJob rejects jobs the packing math cannot handle.
func ValidateJob(j model.Job) error {
	switch {
	case j.FinalWidth <= 0:
		return invalid("final_width", j.FinalWidth)
	case j.FinalHeight <= 0:
		return invalid("final_height", j.FinalHeight)
	case j.Quantity <= 0:
		return invalid("quantity", j.Quantity)
	case j.TotalPages < 0:
		return invalid("total_pages", j.TotalPages)
	}
	m := j.Margins
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return invalid("margins", m)
	}
	switch j.BindingEdge {
	case "", model.BindingShort, model.BindingLong:
	default:
		return invalid("binding_edge", j.BindingEdge)
	}
	return nil
}

// ValidatePaper checks gsm, price and every stock sheet size.
func ValidatePaper(p *model.PaperStock) error {
	if p.GSM <= 0 {
		return invalid("gsm", p.GSM)
	}
	if p.PricePerTon.IsNegative() {
		return invalid("price_per_ton", p.PricePerTon)
	}
	for _, s := range p.StockSheetSizes {
		if s.Width <= 0 || s.Height <= 0 {
			return invalid("stock_sheet_size", s.Name)
		}
	}
	return nil
}

// ValidateMachine checks setup cost and every press sheet size.
func ValidateMachine(m *model.Machine) error {
	if m.SetupCost.IsNegative() {
		return invalid("setup_cost", m.SetupCost)
	}
	for _, s := range m.PressSheetSizes {
		if s.Width <= 0 || s.Height <= 0 {
			return invalid("press_sheet_size", s.Name)
		}
		if s.ClickCost.IsNegative() {
			return invalid("click_cost", s.ClickCost)
		}
	}
	return nil
}

// usable drops the catalog entries that fail check, so one malformed entry
// does not block a search across the rest. When every entry fails, the
// first error is returned.
func usable[T any](items []T, check func(*T) error, name func(*T) string) ([]T, error) {
	out := make([]T, 0, len(items))
	var first error
	for i := range items {
		if err := check(&items[i]); err != nil {
			if first == nil {
				first = fmt.Errorf("%s: %w", name(&items[i]), err)
			}
			continue
		}
		out = append(out, items[i])
	}
	if len(out) == 0 && first != nil {
		return nil, first
	}
	return out, nil
}

func usablePapers(papers []model.PaperStock) ([]model.PaperStock, error) {
	return usable(papers, ValidatePaper, func(p *model.PaperStock) string {
		return fmt.Sprintf("paper %d", p.ID)
	})
}

func usableMachines(machines []model.Machine) ([]model.Machine, error) {
	return usable(machines, ValidateMachine, func(m *model.Machine) string {
		return fmt.Sprintf("machine %d", m.ID)
	})
}

// FindPaper looks a paper up by id.
func FindPaper(papers []model.PaperStock, id int64) (*model.PaperStock, error) {
	for i := range papers {
		if papers[i].ID == id {
			return &papers[i], nil
		}
	}
	return nil, fmt.Errorf("paper %d: %w", id, ErrNotFound)
}

// FindMachine looks a machine up by id.
func FindMachine(machines []model.Machine, id int64) (*model.Machine, error) {
	for i := range machines {
		if machines[i].ID == id {
			return &machines[i], nil
		}
	}
	return nil, fmt.Errorf("machine %d: %w", id, ErrNotFound)
}
