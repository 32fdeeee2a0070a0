package extras

import (
	"math"

	"github.com/pressquote/quote-engine/internal/estimate"
	"github.com/pressquote/quote-engine/internal/model"
)

const (
	// printSheetEdgeCM is the SRA3 long edge used when an extra is priced
	// along the press sheet rather than the page.
	printSheetEdgeCM = 45.0

	// defaultEdgeCM is used when the bound edge cannot be derived.
	defaultEdgeCM = 21.0

	heavyStockGSM   = 170
	pagesPerFormLow = 12
	pagesPerForm    = 16
)

// input is everything a pricing model may need for one selection.
type input struct {
	job      model.Job
	section  model.Section
	combined bool
	sheets   Sheets
	gsm      float64
}

// pages returns the page count the selection covers for one item. Flat
// jobs without a page count are floored at one page so per_page extras
// still charge once per piece.
func (in input) pages() int {
	j := in.job
	if !j.IsBookletMode {
		return max(j.TotalPages, 1)
	}
	switch {
	case in.combined:
		return max(j.TotalPages, 0)
	case in.section == model.SectionCover:
		return estimate.PagesPerSignature
	default:
		return estimate.InnerPages(j)
	}
}

// quantity is booklets in booklet mode and pieces otherwise.
func (in input) quantity() int {
	return in.job.Quantity
}

// measure is the outcome of a pricing model: units to charge, and the
// edge length in cm for models priced by length (0 otherwise).
type measure struct {
	units     int
	unitType  string
	edgeCM    float64
	estimated bool
}

// pricingModel is implemented once per PricingType.
type pricingModel interface {
	measure(in input) measure
}

type perPage struct{}

func (perPage) measure(in input) measure {
	return measure{units: in.quantity() * in.pages(), unitType: "pages"}
}

type perBooklet struct{}

func (perBooklet) measure(in input) measure {
	label := "items"
	if in.job.IsBookletMode {
		label = "booklets"
	}
	return measure{units: in.quantity(), unitType: label}
}

type perLength struct {
	applyToPrintSheet bool
}

func (m perLength) measure(in input) measure {
	if !m.applyToPrintSheet {
		edge := in.job.BoundEdgeMM() / 10
		if math.IsNaN(edge) || edge <= 0 {
			edge = defaultEdgeCM
		}
		return measure{units: in.quantity(), unitType: "cm per item", edgeCM: edge}
	}
	n, estimated := in.sheets.pressSheets(in)
	return measure{units: n, unitType: "cm per press sheet", edgeCM: printSheetEdgeCM, estimated: estimated}
}

type perForm struct{}

func (perForm) measure(in input) measure {
	divisor := pagesPerForm
	if in.gsm >= heavyStockGSM {
		divisor = pagesPerFormLow
	}
	forms := (in.pages() + divisor - 1) / divisor
	return measure{units: forms * in.quantity(), unitType: "forms"}
}

// modelFor returns the pricing model of an extra. ok is false for pricing
// types this evaluator does not know.
func modelFor(e *model.Extra) (pricingModel, bool) {
	switch e.PricingType {
	case model.PerPage:
		return perPage{}, true
	case model.PerBooklet:
		return perBooklet{}, true
	case model.PerLength:
		return perLength{applyToPrintSheet: e.ApplyToPrintSheet}, true
	case model.PerForm:
		return perForm{}, true
	default:
		return nil, false
	}
}

// Sheets carries press sheet counts from calculations already run for the
// job. Nil entries fall back to estimates.
type Sheets struct {
	Flat  *model.CalculationResult
	Cover *model.CoverResult
	Inner *model.InnerResult
}

func (s Sheets) pressSheets(in input) (n int, estimated bool) {
	j := in.job
	coverFallback := j.Quantity
	innerFallback := estimate.InnerSheets(estimate.InnerPages(j)) * j.Quantity

	if !j.IsBookletMode {
		if s.Flat != nil {
			return s.Flat.PressSheetsNeeded, false
		}
		return j.Quantity, true
	}

	cover := func() (int, bool) {
		if s.Cover != nil {
			return s.Cover.PressSheetsNeeded, false
		}
		return coverFallback, true
	}
	inner := func() (int, bool) {
		if s.Inner != nil {
			return s.Inner.PressSheetsNeeded, false
		}
		return innerFallback, true
	}

	switch {
	case in.combined:
		n, estimated = inner()
		if j.HasCover {
			c, est := cover()
			n += c
			estimated = estimated || est
		}
		return n, estimated
	case in.section == model.SectionCover:
		return cover()
	default:
		return inner()
	}
}
