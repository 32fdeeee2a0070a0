package estimate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pressquote/quote-engine/internal/model"
	"github.com/pressquote/quote-engine/internal/sheet"
)

// PagesPerSignature is the number of page faces on one folded, duplexed sheet.
const PagesPerSignature = 4

// coverMultiplier: covers are always printed on both sides.
const coverMultiplier = 2

// InnerPages returns the inner page count of one booklet. With a cover the
// first four pages are on the cover; without one every page is inner.
func InnerPages(j model.Job) int {
	if !j.HasCover {
		return max(0, j.TotalPages)
	}
	return max(0, j.TotalPages-PagesPerSignature)
}

// InnerSheets returns the signatures needed for one booklet's inner pages.
// Page counts that are not a multiple of four round up.
func InnerSheets(innerPages int) int {
	n, _ := sheet.SheetsNeeded(innerPages, PagesPerSignature)
	return n
}

// Cover prices the cover signatures of a booklet job on one machine,
// choosing the cheapest press sheet and stock sheet.
func (e *Estimator) Cover(j model.Job, paper *model.PaperStock, machine *model.Machine) (*model.CoverResult, error) {
	if err := e.validateBooklet(j, paper, machine); err != nil {
		return nil, err
	}
	w, h := j.PackingSize()
	r := run{
		itemW:      w,
		itemH:      h,
		items:      j.Quantity,
		units:      j.Quantity,
		multiplier: coverMultiplier,
		setup:      j.CoverSetupRequired,
	}
	results := e.search(j, r, []model.PaperStock{*paper}, []model.Machine{*machine}, nil)
	if len(results) == 0 {
		return nil, fmt.Errorf("cover: %w", ErrNoFeasibleCombination)
	}
	best := results[0]
	return &model.CoverResult{
		CalculationResult:   best,
		CoversPerPressSheet: best.ItemsPerPressSheet,
		TotalCoverPages:     j.Quantity * PagesPerSignature,
	}, nil
}

// Inner prices the inner pages of a booklet job on one machine.
func (e *Estimator) Inner(j model.Job, paper *model.PaperStock, machine *model.Machine) (*model.InnerResult, error) {
	return e.inner(j, InnerPages(j), paper, machine)
}

func (e *Estimator) inner(j model.Job, pages int, paper *model.PaperStock, machine *model.Machine) (*model.InnerResult, error) {
	if err := e.validateBooklet(j, paper, machine); err != nil {
		return nil, err
	}
	sheetsPerBooklet := InnerSheets(pages)
	totalSheets := sheetsPerBooklet * j.Quantity

	w, h := j.PackingSize()
	r := run{
		itemW:      w,
		itemH:      h,
		items:      totalSheets,
		units:      j.Quantity,
		multiplier: clickMultiplier(j.IsDoubleSided),
		setup:      j.SetupRequired,
	}
	results := e.search(j, r, []model.PaperStock{*paper}, []model.Machine{*machine}, nil)
	if len(results) == 0 {
		return nil, fmt.Errorf("inner pages: %w", ErrNoFeasibleCombination)
	}
	return &model.InnerResult{
		CalculationResult:      results[0],
		InnerPagesPerBooklet:   pages,
		InnerSheetsPerBooklet:  sheetsPerBooklet,
		TotalInnerSheetsNeeded: totalSheets,
		TotalInnerPages:        pages * j.Quantity,
	}, nil
}

func (e *Estimator) validateBooklet(j model.Job, paper *model.PaperStock, machine *model.Machine) error {
	if err := ValidateJob(j); err != nil {
		return err
	}
	if err := ValidatePaper(paper); err != nil {
		return err
	}
	return ValidateMachine(machine)
}

// Selection names the paper and machine chosen for one booklet section.
type Selection struct {
	PaperStockID int64 `json:"paper_type_id"`
	MachineID    int64 `json:"machine_id"`
}

// BookletResult combines the cover and inner results of a booklet job.
// Cover is nil for jobs without a cover.
type BookletResult struct {
	Cover          *model.CoverResult `json:"cover,omitempty"`
	Inner          *model.InnerResult `json:"inner"`
	TotalCost      decimal.Decimal    `json:"total_cost"`
	CostPerBooklet decimal.Decimal    `json:"cost_per_booklet"`
}

// Booklet resolves the section selections against the catalogs and prices
// the cover (when the job has one) and the inner pages.
func (e *Estimator) Booklet(
	j model.Job, cover, inner Selection,
	papers []model.PaperStock, machines []model.Machine,
) (*BookletResult, error) {
	out := &BookletResult{}

	if j.HasCover {
		p, err := FindPaper(papers, cover.PaperStockID)
		if err != nil {
			return nil, fmt.Errorf("cover: %w", err)
		}
		m, err := FindMachine(machines, cover.MachineID)
		if err != nil {
			return nil, fmt.Errorf("cover: %w", err)
		}
		if out.Cover, err = e.Cover(j, p, m); err != nil {
			return nil, err
		}
		out.TotalCost = out.TotalCost.Add(out.Cover.TotalCost)
	}

	p, err := FindPaper(papers, inner.PaperStockID)
	if err != nil {
		return nil, fmt.Errorf("inner pages: %w", err)
	}
	m, err := FindMachine(machines, inner.MachineID)
	if err != nil {
		return nil, fmt.Errorf("inner pages: %w", err)
	}
	if out.Inner, err = e.Inner(j, p, m); err != nil {
		return nil, err
	}
	out.TotalCost = out.TotalCost.Add(out.Inner.TotalCost)
	out.CostPerBooklet = PerUnit(out.TotalCost, j.Quantity)
	return out, nil
}
