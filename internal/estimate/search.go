// Package estimate prices print jobs. It enumerates every machine, press
// sheet, paper and stock sheet combination, discards the ones that cannot be
// packed and ranks the rest by total cost in EUR.
//
// An Estimator holds no job state; catalogs and the job are passed to every
// call, and the only configuration is the currency rate lookup.
package estimate

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/pressquote/quote-engine/internal/currency"
	"github.com/pressquote/quote-engine/internal/model"
	"github.com/pressquote/quote-engine/internal/sheet"
)

// Estimator runs combination searches against a fixed rate lookup.
type Estimator struct {
	rate       currency.RateFunc
	infeasible func(n int)
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithInfeasibleHook registers fn to receive the number of combinations a
// search excluded. It is called once per search.
func WithInfeasibleHook(fn func(n int)) Option {
	return func(e *Estimator) { e.infeasible = fn }
}

// New creates an Estimator. A nil rate treats every price as EUR.
func New(rate currency.RateFunc, opts ...Option) *Estimator {
	e := &Estimator{rate: rate}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Estimator) eur(amount decimal.Decimal, code string) decimal.Decimal {
	return currency.ToEUR(amount, code, e.rate)
}

func (e *Estimator) reportInfeasible(n int) {
	if e.infeasible != nil && n > 0 {
		e.infeasible(n)
	}
}

// run describes what is being packed for one search: the item placed on
// the press sheet and how many of them are needed.
type run struct {
	itemW, itemH float64
	items        int // items to print
	units        int // divisor for CostPerUnit
	multiplier   int // click passes per press sheet
	setup        bool
}

func flatRun(j model.Job) run {
	return run{
		itemW:      j.FinalWidth,
		itemH:      j.FinalHeight,
		items:      j.Quantity,
		units:      j.Quantity,
		multiplier: clickMultiplier(j.IsDoubleSided),
		setup:      j.SetupRequired,
	}
}

func clickMultiplier(doubleSided bool) int {
	if doubleSided {
		return 2
	}
	return 1
}

// evaluate prices one combination. ok is false when it cannot be packed.
func (e *Estimator) evaluate(
	j model.Job, r run,
	m *model.Machine, size *model.PressSheetSize,
	p *model.PaperStock, stock *model.StockSheetSize,
) (model.CalculationResult, bool) {
	if !sheet.Fits(size.Width, size.Height, stock.Width, stock.Height) {
		return model.CalculationResult{}, false
	}
	perPress := sheet.ItemsPerSheet(size.Width, size.Height, r.itemW, r.itemH, j.Margins)
	if perPress == 0 {
		return model.CalculationResult{}, false
	}
	perStock := sheet.PressSheetsPerStock(stock.Width, stock.Height, size.Width, size.Height)
	if perStock == 0 {
		return model.CalculationResult{}, false
	}

	// Both capacities are positive here, so SheetsNeeded cannot fail.
	pressNeeded, _ := sheet.SheetsNeeded(r.items, perPress)
	stockNeeded, _ := sheet.SheetsNeeded(pressNeeded, perStock)

	weight := PaperWeightKg(stock.Width, stock.Height, p.GSM, stockNeeded)
	paperCost := PaperCost(weight, e.eur(p.PricePerTon, p.Currency))
	clickCost := ClickCost(pressNeeded*r.multiplier, e.eur(size.ClickCost, size.ClickCostCurrency))
	setupCost := SetupCost(r.setup, e.eur(m.SetupCost, m.SetupCostCurrency))
	total := paperCost.Add(clickCost).Add(setupCost)

	return model.CalculationResult{
		MachineID:           m.ID,
		MachineName:         m.Name,
		PressSheetSize:      *size,
		PaperStockID:        p.ID,
		PaperStockName:      p.Name,
		PaperGSM:            p.GSM,
		StockSheetSize:      *stock,
		ItemsPerPressSheet:  perPress,
		PressSheetsNeeded:   pressNeeded,
		PressSheetsPerStock: perStock,
		StockSheetsNeeded:   stockNeeded,
		PaperWeightKg:       weight,
		PaperCost:           paperCost,
		ClickMultiplier:     r.multiplier,
		ClickCost:           clickCost,
		SetupCost:           setupCost,
		TotalCost:           total,
		CostPerUnit:         PerUnit(total, r.units),
		WastePercent:        sheet.WastePercent(stock.Width, stock.Height, r.itemW, r.itemH, perPress, perStock),
	}, true
}

// search enumerates machine × press sheet × paper × stock sheet in input
// order and returns the feasible results sorted by total cost.
func (e *Estimator) search(
	j model.Job, r run,
	papers []model.PaperStock, machines []model.Machine,
	pinnedSize *model.PressSheetSize,
) []model.CalculationResult {
	var results []model.CalculationResult
	skipped := 0
	for mi := range machines {
		m := &machines[mi]
		for si := range m.PressSheetSizes {
			size := &m.PressSheetSizes[si]
			if pinnedSize != nil && size.ID != pinnedSize.ID {
				continue
			}
			for pi := range papers {
				p := &papers[pi]
				for ki := range p.StockSheetSizes {
					res, ok := e.evaluate(j, r, m, size, p, &p.StockSheetSizes[ki])
					if !ok {
						skipped++
						continue
					}
					results = append(results, res)
				}
			}
		}
	}
	e.reportInfeasible(skipped)

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].TotalCost.LessThan(results[b].TotalCost)
	})
	return results
}

// FindOptimal ranks every feasible combination for a flat job, cheapest
// first. Ties keep catalog order. Catalog entries that fail validation are
// left out of the search.
func (e *Estimator) FindOptimal(j model.Job, papers []model.PaperStock, machines []model.Machine) ([]model.CalculationResult, error) {
	if err := ValidateJob(j); err != nil {
		return nil, err
	}
	papers, err := usablePapers(papers)
	if err != nil {
		return nil, err
	}
	machines, err = usableMachines(machines)
	if err != nil {
		return nil, err
	}
	results := e.search(j, flatRun(j), papers, machines, nil)
	if len(results) == 0 {
		return nil, ErrNoFeasibleCombination
	}
	return results, nil
}

// FindOptimalForPaper ranks combinations for a single paper. A non-nil
// machine restricts the search to that machine, and a non-nil size further
// restricts it to that press sheet size.
func (e *Estimator) FindOptimalForPaper(
	j model.Job, paper *model.PaperStock, machines []model.Machine,
	machine *model.Machine, size *model.PressSheetSize,
) ([]model.CalculationResult, error) {
	if err := ValidateJob(j); err != nil {
		return nil, err
	}
	if err := ValidatePaper(paper); err != nil {
		return nil, fmt.Errorf("paper %d: %w", paper.ID, err)
	}
	if machine != nil {
		if err := ValidateMachine(machine); err != nil {
			return nil, fmt.Errorf("machine %d: %w", machine.ID, err)
		}
		machines = []model.Machine{*machine}
	} else {
		var err error
		if machines, err = usableMachines(machines); err != nil {
			return nil, err
		}
	}
	papers := []model.PaperStock{*paper}
	results := e.search(j, flatRun(j), papers, machines, size)
	if len(results) == 0 {
		return nil, ErrNoFeasibleCombination
	}
	return results, nil
}

// FindForPressSheet pins the machine and press sheet size and ranks every
// paper that can carry it.
func (e *Estimator) FindForPressSheet(
	j model.Job, papers []model.PaperStock,
	machine *model.Machine, size *model.PressSheetSize,
) ([]model.CalculationResult, error) {
	if err := ValidateJob(j); err != nil {
		return nil, err
	}
	if err := ValidateMachine(machine); err != nil {
		return nil, fmt.Errorf("machine %d: %w", machine.ID, err)
	}
	machines := []model.Machine{*machine}
	papers, err := usablePapers(papers)
	if err != nil {
		return nil, err
	}
	results := e.search(j, flatRun(j), papers, machines, size)
	if len(results) == 0 {
		return nil, ErrNoFeasibleCombination
	}
	return results, nil
}
