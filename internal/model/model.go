// Package model defines the core domain types shared across the quote engine.
// All monetary values use shopspring/decimal, never float64.
// Dimensions are millimetres, paper weight is GSM (grams per square metre).
package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// StockSheetSize is a raw paper sheet size as purchased from the mill.
type StockSheetSize struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PaperStock is a paper type priced per metric ton. It is offered in one or
// more stock sheet sizes.
type PaperStock struct {
	ID              int64            `json:"id" db:"id"`
	Name            string           `json:"name" db:"name"`
	GSM             float64          `json:"gsm" db:"gsm"`
	PricePerTon     decimal.Decimal  `json:"price_per_ton" db:"price_per_ton"`
	Currency        string           `json:"currency" db:"currency"`
	StockSheetSizes []StockSheetSize `json:"stock_sheet_sizes" db:"stock_sheet_sizes"`
}

// PressSheetSize is a sheet size a machine can feed, with its per-pass click cost.
type PressSheetSize struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Width             float64         `json:"width"`
	Height            float64         `json:"height"`
	ClickCost         decimal.Decimal `json:"click_cost"`
	ClickCostCurrency string          `json:"click_cost_currency"`
	DuplexSupport     bool            `json:"duplex_support"`
}

// Machine is a printing press. A machine always carries at least one press
// sheet size; the catalog enforces that, not the engine.
type Machine struct {
	ID                int64            `json:"id" db:"id"`
	Name              string           `json:"name" db:"name"`
	SetupCost         decimal.Decimal  `json:"setup_cost" db:"setup_cost"`
	SetupCostCurrency string           `json:"setup_cost_currency" db:"setup_cost_currency"`
	PressSheetSizes   []PressSheetSize `json:"press_sheet_sizes" db:"press_sheet_sizes"`
}

// PressSheet returns the press sheet size with the given id.
func (m *Machine) PressSheet(id int64) (*PressSheetSize, bool) {
	for i := range m.PressSheetSizes {
		if m.PressSheetSizes[i].ID == id {
			return &m.PressSheetSizes[i], true
		}
	}
	return nil, false
}

// Margins is the non-printable border kept on each side of a press sheet.
type Margins struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// UniformMargins returns margins with the same value on every side.
func UniformMargins(v float64) Margins {
	return Margins{Top: v, Right: v, Bottom: v, Left: v}
}

// BindingEdge is the physical edge a booklet is bound on.
type BindingEdge string

const (
	BindingShort BindingEdge = "short"
	BindingLong  BindingEdge = "long"
)

// Job describes one quote request. In booklet mode Quantity is the number
// of booklets and TotalPages the page count of each booklet.
type Job struct {
	ProductName        string      `json:"product_name"`
	FinalWidth         float64     `json:"final_width"`
	FinalHeight        float64     `json:"final_height"`
	Margins            Margins     `json:"margins"`
	Quantity           int         `json:"quantity"`
	IsDoubleSided      bool        `json:"is_double_sided"`
	SetupRequired      bool        `json:"setup_required"`
	IsBookletMode      bool        `json:"is_booklet_mode"`
	HasCover           bool        `json:"has_cover"`
	CoverSetupRequired bool        `json:"cover_setup_required"`
	TotalPages         int         `json:"total_pages"`
	BindingEdge        BindingEdge `json:"binding_edge"`
}

// BoundEdgeMM returns the length of the bound edge: the final height for
// short-edge binding, the final width otherwise.
func (j Job) BoundEdgeMM() float64 {
	if j.BindingEdge == BindingShort {
		return j.FinalHeight
	}
	return j.FinalWidth
}

// PackingSize returns the final trim size oriented for packing. The bound
// edge runs along the width: long-edge binding keeps the final dimensions,
// short-edge binding swaps them.
func (j Job) PackingSize() (width, height float64) {
	if j.BindingEdge == BindingShort {
		return j.FinalHeight, j.FinalWidth
	}
	return j.FinalWidth, j.FinalHeight
}

// CalculationResult is one ranked (machine, press sheet, paper, stock sheet)
// option. All costs are in EUR.
type CalculationResult struct {
	MachineID           int64           `json:"machine_id"`
	MachineName         string          `json:"machine_name"`
	PressSheetSize      PressSheetSize  `json:"press_sheet_size"`
	PaperStockID        int64           `json:"paper_stock_id"`
	PaperStockName      string          `json:"paper_stock_name"`
	PaperGSM            float64         `json:"paper_gsm"`
	StockSheetSize      StockSheetSize  `json:"stock_sheet_size"`
	ItemsPerPressSheet  int             `json:"items_per_press_sheet"`
	PressSheetsNeeded   int             `json:"press_sheets_needed"`
	PressSheetsPerStock int             `json:"press_sheets_per_stock"`
	StockSheetsNeeded   int             `json:"stock_sheets_needed"`
	PaperWeightKg       decimal.Decimal `json:"paper_weight_kg"`
	PaperCost           decimal.Decimal `json:"paper_cost"`
	ClickMultiplier     int             `json:"click_multiplier"`
	ClickCost           decimal.Decimal `json:"click_cost"`
	SetupCost           decimal.Decimal `json:"setup_cost"`
	TotalCost           decimal.Decimal `json:"total_cost"`
	CostPerUnit         decimal.Decimal `json:"cost_per_unit"`
	WastePercent        float64         `json:"waste_percent"`
}

// CoverResult is the cheapest cover option for a booklet job.
type CoverResult struct {
	CalculationResult
	CoversPerPressSheet int `json:"covers_per_press_sheet"`
	TotalCoverPages     int `json:"total_cover_pages"`
}

// InnerResult is the cheapest inner-pages option for a booklet job.
type InnerResult struct {
	CalculationResult
	InnerPagesPerBooklet   int `json:"inner_pages_per_booklet"`
	InnerSheetsPerBooklet  int `json:"inner_sheets_per_booklet"`
	TotalInnerSheetsNeeded int `json:"total_inner_sheets_needed"`
	TotalInnerPages        int `json:"total_inner_pages"`
}

// Part is one contiguous page range printed on its own paper and machine.
type Part struct {
	PaperStockID int64 `json:"paper_type_id"`
	MachineID    int64 `json:"machine_id"`
	PageCount    int   `json:"page_count"`
}

// PartResult is the outcome of one part. Result is nil when Err is set.
type PartResult struct {
	Index  int                `json:"index"`
	Part   Part               `json:"part"`
	Result *CalculationResult `json:"result,omitempty"`
	Err    string             `json:"error,omitempty"`
}

// MultiPartResult aggregates per-part results in input order.
type MultiPartResult struct {
	Parts     []PartResult    `json:"parts"`
	TotalCost decimal.Decimal `json:"total_cost"`
	Failed    int             `json:"failed"`
}

// SavedQuote is a persisted calculation snapshot.
type SavedQuote struct {
	ID           string          `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Data         json.RawMessage `json:"data" db:"data"`
	TotalCostEUR decimal.Decimal `json:"total_cost_eur" db:"total_cost_eur"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// Clone returns a copy that shares no slices with p.
func (p PaperStock) Clone() PaperStock {
	p.StockSheetSizes = append([]StockSheetSize(nil), p.StockSheetSizes...)
	return p
}

// Clone returns a copy that shares no slices with m.
func (m Machine) Clone() Machine {
	m.PressSheetSizes = append([]PressSheetSize(nil), m.PressSheetSizes...)
	return m
}

// Clone returns a copy that shares no slices with q.
func (q SavedQuote) Clone() SavedQuote {
	q.Data = append(json.RawMessage(nil), q.Data...)
	return q
}
