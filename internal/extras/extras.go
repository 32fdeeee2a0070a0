// Package extras prices finishing services (lamination, binding, folding)
// selected on top of a print job. Each pricing type has its own model; the
// evaluator resolves selections against the extras catalog, converts prices
// to EUR and sums them per job section.
package extras

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pressquote/quote-engine/internal/currency"
	"github.com/pressquote/quote-engine/internal/model"
)

var (
	// ErrNotFound is returned when a selection names an unknown extra or variant.
	ErrNotFound = errors.New("extras: extra or variant not found")

	// ErrScopeMismatch is returned when a booklet selection is attached to a
	// section the extra does not apply to.
	ErrScopeMismatch = errors.New("extras: extra cannot be applied to this section")
)

// SelectionError ties an evaluation failure to the selection that caused it.
type SelectionError struct {
	Selection model.SelectedExtra
	Err       error
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("extra %d variant %d (%s): %v",
		e.Selection.ExtraID, e.Selection.VariantID, e.Selection.Section, e.Err)
}

func (e *SelectionError) Unwrap() error { return e.Err }

// MarshalJSON renders the failure for API responses.
func (e *SelectionError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		model.SelectedExtra
		Error string `json:"error"`
	}{e.Selection, e.Err.Error()})
}

// Job is the priced context selections are evaluated against.
type Job struct {
	Job    model.Job
	Sheets Sheets
	// GSM of the paper used in each section. Zero values are taken from the
	// matching Sheets result when present.
	PaperGSM float64
	CoverGSM float64
	InnerGSM float64
}

func (j Job) gsm(section model.Section, combined bool) float64 {
	pick := func(v float64, fromResult func() (float64, bool)) float64 {
		if v > 0 {
			return v
		}
		if g, ok := fromResult(); ok {
			return g
		}
		return 0
	}
	flat := func() (float64, bool) {
		if j.Sheets.Flat == nil {
			return 0, false
		}
		return j.Sheets.Flat.PaperGSM, true
	}
	cover := func() (float64, bool) {
		if j.Sheets.Cover == nil {
			return 0, false
		}
		return j.Sheets.Cover.PaperGSM, true
	}
	inner := func() (float64, bool) {
		if j.Sheets.Inner == nil {
			return 0, false
		}
		return j.Sheets.Inner.PaperGSM, true
	}

	if !j.Job.IsBookletMode {
		return pick(j.PaperGSM, flat)
	}
	if section == model.SectionCover && !combined {
		return pick(j.CoverGSM, cover)
	}
	return pick(j.InnerGSM, inner)
}

// Summary is the evaluation of all selections for one job. Totals are EUR.
type Summary struct {
	Items         []model.ExtraCostResult `json:"items"`
	Errors        []*SelectionError       `json:"errors,omitempty"`
	Skipped       []model.SelectedExtra   `json:"skipped,omitempty"`
	NormalTotal   decimal.Decimal         `json:"normal_total"`
	CoverTotal    decimal.Decimal         `json:"cover_total"`
	InnerTotal    decimal.Decimal         `json:"inner_total"`
	CombinedTotal decimal.Decimal         `json:"combined_total"`
	Total         decimal.Decimal         `json:"total"`
}

// Evaluator prices extra selections.
type Evaluator struct {
	rate currency.RateFunc
}

// New creates an Evaluator. A nil rate treats every price as EUR.
func New(rate currency.RateFunc) *Evaluator {
	return &Evaluator{rate: rate}
}

// Evaluate prices each selection in order. A selection that fails does not
// affect the others. In booklet mode an extra priced the same inside and
// outside is evaluated once over the whole booklet, however many sections
// it was selected in.
func (ev *Evaluator) Evaluate(job Job, selections []model.SelectedExtra, catalog []model.Extra) Summary {
	sum := Summary{
		Items:         []model.ExtraCostResult{},
		NormalTotal:   decimal.Zero,
		CoverTotal:    decimal.Zero,
		InnerTotal:    decimal.Zero,
		CombinedTotal: decimal.Zero,
		Total:         decimal.Zero,
	}
	seen := make(map[int64]bool)

	for _, sel := range selections {
		sel.Section = normalizeSection(job.Job, sel.Section)

		extra, variant, err := resolve(catalog, sel)
		if err != nil {
			sum.Errors = append(sum.Errors, &SelectionError{Selection: sel, Err: err})
			continue
		}
		pm, ok := modelFor(extra)
		if !ok {
			sum.Skipped = append(sum.Skipped, sel)
			continue
		}

		combined := job.Job.IsBookletMode && extra.InsideOutsideSame
		if combined {
			if seen[extra.ID] {
				continue
			}
			seen[extra.ID] = true
		} else if job.Job.IsBookletMode && !extra.Scope.Allows(sel.Section) {
			sum.Errors = append(sum.Errors, &SelectionError{Selection: sel, Err: ErrScopeMismatch})
			continue
		}

		res := ev.price(job, sel, extra, variant, pm, combined)
		sum.Items = append(sum.Items, res)

		switch {
		case res.Combined:
			sum.CombinedTotal = sum.CombinedTotal.Add(res.TotalCost)
		case res.Section == model.SectionCover:
			sum.CoverTotal = sum.CoverTotal.Add(res.TotalCost)
		case res.Section == model.SectionInner:
			sum.InnerTotal = sum.InnerTotal.Add(res.TotalCost)
		default:
			sum.NormalTotal = sum.NormalTotal.Add(res.TotalCost)
		}
		sum.Total = sum.Total.Add(res.TotalCost)
	}
	return sum
}

func (ev *Evaluator) price(
	job Job, sel model.SelectedExtra,
	extra *model.Extra, variant *model.ExtraVariant,
	pm pricingModel, combined bool,
) model.ExtraCostResult {
	base := currency.ToEUR(variant.Price, variant.Currency, ev.rate)
	if extra.SupportsDoubleSided && sel.IsDoubleSided {
		base = base.Mul(decimal.NewFromInt(2))
	}

	m := pm.measure(input{
		job:      job.Job,
		section:  sel.Section,
		combined: combined,
		sheets:   job.Sheets,
		gsm:      job.gsm(sel.Section, combined),
	})

	cost := base.Mul(decimal.NewFromInt(int64(m.units)))
	if m.edgeCM > 0 {
		cost = cost.Mul(decimal.NewFromFloat(m.edgeCM))
	}
	setup := currency.ToEUR(extra.SetupCost, extra.SetupCostCurrency, ev.rate)

	return model.ExtraCostResult{
		ExtraID:      extra.ID,
		VariantID:    variant.ID,
		ExtraName:    extra.Name,
		VariantName:  variant.Name,
		Section:      sel.Section,
		PricingType:  extra.PricingType,
		PricePerUnit: base,
		Units:        m.units,
		UnitType:     m.unitType,
		EdgeLength:   m.edgeCM,
		SetupCost:    setup,
		Cost:         cost,
		TotalCost:    cost.Add(setup),
		Combined:     combined,
		Estimated:    m.estimated,
	}
}

func resolve(catalog []model.Extra, sel model.SelectedExtra) (*model.Extra, *model.ExtraVariant, error) {
	for i := range catalog {
		if catalog[i].ID != sel.ExtraID {
			continue
		}
		v, ok := catalog[i].Variant(sel.VariantID)
		if !ok {
			return nil, nil, fmt.Errorf("variant %d: %w", sel.VariantID, ErrNotFound)
		}
		return &catalog[i], v, nil
	}
	return nil, nil, fmt.Errorf("extra %d: %w", sel.ExtraID, ErrNotFound)
}

// normalizeSection maps a selection onto the sections the job has: flat
// jobs only have the normal section, and a booklet selection without a
// section, or tagged cover on a booklet without one, applies to the inner
// pages.
func normalizeSection(j model.Job, s model.Section) model.Section {
	if !j.IsBookletMode {
		return model.SectionNormal
	}
	if s == model.SectionCover && j.HasCover {
		return model.SectionCover
	}
	return model.SectionInner
}
