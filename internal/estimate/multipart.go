package estimate

import (
	"github.com/shopspring/decimal"

	"github.com/pressquote/quote-engine/internal/model"
)

// MultiPart prices a job split into parts, each on its own paper and
// machine. In flat mode a part's PageCount is its quantity; in booklet mode
// it is the part's inner pages per booklet. A part that references an
// unknown id or cannot be produced fails on its own entry and is left out
// of TotalCost. Parts keep their input order.
func (e *Estimator) MultiPart(
	j model.Job, parts []model.Part,
	papers []model.PaperStock, machines []model.Machine,
	booklet bool,
) *model.MultiPartResult {
	out := &model.MultiPartResult{
		Parts:     make([]model.PartResult, 0, len(parts)),
		TotalCost: decimal.Zero,
	}
	for i, part := range parts {
		pr := model.PartResult{Index: i, Part: part}
		res, err := e.part(j, part, papers, machines, booklet)
		if err != nil {
			pr.Err = err.Error()
			out.Failed++
		} else {
			pr.Result = res
			out.TotalCost = out.TotalCost.Add(res.TotalCost)
		}
		out.Parts = append(out.Parts, pr)
	}
	return out
}

func (e *Estimator) part(
	j model.Job, part model.Part,
	papers []model.PaperStock, machines []model.Machine,
	booklet bool,
) (*model.CalculationResult, error) {
	p, err := FindPaper(papers, part.PaperStockID)
	if err != nil {
		return nil, err
	}
	m, err := FindMachine(machines, part.MachineID)
	if err != nil {
		return nil, err
	}

	if booklet {
		res, err := e.inner(j, max(0, part.PageCount), p, m)
		if err != nil {
			return nil, err
		}
		return &res.CalculationResult, nil
	}

	pj := j
	pj.Quantity = part.PageCount
	results, err := e.FindOptimalForPaper(pj, p, nil, m, nil)
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}
