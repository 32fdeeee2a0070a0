// Package seed loads the default print shop catalog into an empty store.
package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pressquote/quote-engine/internal/model"
	"github.com/pressquote/quote-engine/internal/store"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts  int `json:"inserts"`
	Existing int `json:"existing"`
}

// Run inserts every default catalog entry whose name is not already in the
// store. Running it twice inserts nothing the second time.
func Run(ctx context.Context, st store.Store) (Stats, error) {
	stats := Stats{}
	papers, machines, extras := DefaultCatalog()

	if err := ensurePapers(ctx, st, papers, &stats); err != nil {
		return stats, err
	}
	if err := ensureMachines(ctx, st, machines, &stats); err != nil {
		return stats, err
	}
	if err := ensureExtras(ctx, st, extras, &stats); err != nil {
		return stats, err
	}
	return stats, nil
}

func ensurePapers(ctx context.Context, st store.Store, defaults []model.PaperStock, stats *Stats) error {
	existing, err := st.ListPaperTypes(ctx)
	if err != nil {
		return fmt.Errorf("list paper types: %w", err)
	}
	names := make(map[string]bool)
	ids := make(map[int64]bool)
	for _, p := range existing {
		names[p.Name] = true
		ids[p.ID] = true
	}

	for i := range defaults {
		p := &defaults[i]
		if names[p.Name] {
			stats.Existing++
			continue
		}
		if ids[p.ID] {
			p.ID = 0
		}
		if err := st.CreatePaperType(ctx, p); err != nil {
			return fmt.Errorf("insert default paper %q: %w", p.Name, err)
		}
		ids[p.ID] = true
		stats.Inserts++
	}
	return nil
}

func ensureMachines(ctx context.Context, st store.Store, defaults []model.Machine, stats *Stats) error {
	existing, err := st.ListMachines(ctx)
	if err != nil {
		return fmt.Errorf("list machines: %w", err)
	}
	names := make(map[string]bool)
	ids := make(map[int64]bool)
	for _, m := range existing {
		names[m.Name] = true
		ids[m.ID] = true
	}

	for i := range defaults {
		m := &defaults[i]
		if names[m.Name] {
			stats.Existing++
			continue
		}
		if ids[m.ID] {
			m.ID = 0
		}
		if err := st.CreateMachine(ctx, m); err != nil {
			return fmt.Errorf("insert default machine %q: %w", m.Name, err)
		}
		ids[m.ID] = true
		stats.Inserts++
	}
	return nil
}

func ensureExtras(ctx context.Context, st store.Store, defaults []model.Extra, stats *Stats) error {
	existing, err := st.ListExtras(ctx)
	if err != nil {
		return fmt.Errorf("list extras: %w", err)
	}
	names := make(map[string]bool)
	ids := make(map[int64]bool)
	for _, e := range existing {
		names[e.Name] = true
		ids[e.ID] = true
	}

	for i := range defaults {
		e := &defaults[i]
		if names[e.Name] {
			stats.Existing++
			continue
		}
		if ids[e.ID] {
			e.ID = 0
		}
		if err := st.CreateExtra(ctx, e); err != nil {
			return fmt.Errorf("insert default extra %q: %w", e.Name, err)
		}
		ids[e.ID] = true
		stats.Inserts++
	}
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DefaultCatalog returns fresh copies of the default papers, machines and
// extras.
func DefaultCatalog() ([]model.PaperStock, []model.Machine, []model.Extra) {
	papers := []model.PaperStock{
		{ID: 1, Name: "80g Standard", GSM: 80, PricePerTon: dec("850"), Currency: "USD", StockSheetSizes: []model.StockSheetSize{
			{ID: 1, Name: "A4", Width: 210, Height: 297},
			{ID: 2, Name: "A3", Width: 297, Height: 420},
			{ID: 3, Name: "SRA3", Width: 320, Height: 450},
		}},
		{ID: 2, Name: "120g Premium", GSM: 120, PricePerTon: dec("1200"), Currency: "EUR", StockSheetSizes: []model.StockSheetSize{
			{ID: 4, Name: "A3", Width: 297, Height: 420},
			{ID: 5, Name: "SRA3", Width: 320, Height: 450},
			{ID: 6, Name: "B2", Width: 500, Height: 707},
		}},
		{ID: 3, Name: "90g Letter", GSM: 90, PricePerTon: dec("24000"), Currency: "TRY", StockSheetSizes: []model.StockSheetSize{
			{ID: 7, Name: "Letter", Width: 216, Height: 279},
			{ID: 8, Name: "Legal", Width: 216, Height: 356},
			{ID: 9, Name: "Tabloid", Width: 279, Height: 432},
		}},
		{ID: 4, Name: "100g Coated", GSM: 100, PricePerTon: dec("1000"), Currency: "USD", StockSheetSizes: []model.StockSheetSize{
			{ID: 10, Name: "SRA3", Width: 320, Height: 450},
			{ID: 11, Name: "A2", Width: 420, Height: 594},
			{ID: 12, Name: "B1", Width: 707, Height: 1000},
		}},
	}

	machines := []model.Machine{
		{ID: 1, Name: "Heidelberg SM 52", SetupCost: dec("45"), SetupCostCurrency: "USD", PressSheetSizes: []model.PressSheetSize{
			{ID: 1, Name: "SRA3", Width: 320, Height: 450, ClickCost: dec("0.08"), ClickCostCurrency: "USD", DuplexSupport: true},
			{ID: 2, Name: "A3+", Width: 330, Height: 483, ClickCost: dec("0.09"), ClickCostCurrency: "USD", DuplexSupport: true},
			{ID: 3, Name: "Custom Small", Width: 280, Height: 400, ClickCost: dec("0.06"), ClickCostCurrency: "USD"},
		}},
		{ID: 2, Name: "Komori L528", SetupCost: dec("42"), SetupCostCurrency: "EUR", PressSheetSizes: []model.PressSheetSize{
			{ID: 4, Name: "SRA3", Width: 320, Height: 450, ClickCost: dec("0.07"), ClickCostCurrency: "EUR", DuplexSupport: true},
			{ID: 5, Name: "A3", Width: 297, Height: 420, ClickCost: dec("0.065"), ClickCostCurrency: "EUR", DuplexSupport: true},
			{ID: 6, Name: "Custom Large", Width: 350, Height: 500, ClickCost: dec("0.085"), ClickCostCurrency: "EUR", DuplexSupport: true},
		}},
		{ID: 3, Name: "Digital Press HP", SetupCost: dec("850"), SetupCostCurrency: "TRY", PressSheetSizes: []model.PressSheetSize{
			{ID: 7, Name: "A3", Width: 297, Height: 420, ClickCost: dec("4.0"), ClickCostCurrency: "TRY", DuplexSupport: true},
			{ID: 8, Name: "A4", Width: 210, Height: 297, ClickCost: dec("2.7"), ClickCostCurrency: "TRY", DuplexSupport: true},
			{ID: 9, Name: "Letter", Width: 216, Height: 279, ClickCost: dec("2.9"), ClickCostCurrency: "TRY"},
		}},
	}

	extras := []model.Extra{
		{
			ID: 1, Name: "Cellophane Lamination", PricingType: model.PerPage,
			SetupCost: dec("15"), SetupCostCurrency: "USD",
			SupportsDoubleSided: true, Scope: model.ScopeBoth,
			Variants: []model.ExtraVariant{
				{ID: 1, Name: "Standard", Price: dec("0.15"), Currency: "USD"},
				{ID: 2, Name: "Premium", Price: dec("0.22"), Currency: "EUR"},
			},
		},
		{
			ID: 2, Name: "Staple Binding", PricingType: model.PerBooklet,
			SetupCost: dec("0"), SetupCostCurrency: "USD",
			InsideOutsideSame: true, Scope: model.ScopeCoverOnly,
			Variants: []model.ExtraVariant{
				{ID: 3, Name: "2-Staple", Price: dec("2.50"), Currency: "USD"},
				{ID: 4, Name: "3-Staple", Price: dec("95"), Currency: "TRY"},
			},
		},
		{
			ID: 3, Name: "Spiral Binding", PricingType: model.PerLength,
			SetupCost: dec("25"), SetupCostCurrency: "EUR",
			InsideOutsideSame: true, ApplyToPrintSheet: true, Scope: model.ScopeInnerOnly,
			Variants: []model.ExtraVariant{
				{ID: 5, Name: "Plastic Coil", Price: dec("0.8"), Currency: "USD"},
				{ID: 6, Name: "Metal Wire", Price: dec("1.1"), Currency: "EUR"},
			},
		},
		{
			ID: 4, Name: "Perfect Binding (American)", PricingType: model.PerBooklet,
			SetupCost: dec("50"), SetupCostCurrency: "USD",
			InsideOutsideSame: true, Scope: model.ScopeBoth,
			Variants: []model.ExtraVariant{
				{ID: 7, Name: "Standard", Price: dec("15"), Currency: "USD"},
				{ID: 8, Name: "Premium", Price: dec("620"), Currency: "TRY"},
			},
		},
		{
			ID: 5, Name: "UV Coating", PricingType: model.PerPage,
			SetupCost: dec("30"), SetupCostCurrency: "EUR",
			SupportsDoubleSided: true, Scope: model.ScopeCoverOnly,
			Variants: []model.ExtraVariant{
				{ID: 9, Name: "Matte", Price: dec("0.23"), Currency: "EUR"},
				{ID: 10, Name: "Gloss", Price: dec("8.5"), Currency: "TRY"},
			},
		},
		{
			ID: 6, Name: "Print Sheet Processing", PricingType: model.PerLength,
			SetupCost: dec("0"), SetupCostCurrency: "USD",
			ApplyToPrintSheet: true, Scope: model.ScopeInnerOnly,
			Variants: []model.ExtraVariant{
				{ID: 11, Name: "Standard Processing", Price: dec("0.12"), Currency: "USD"},
				{ID: 12, Name: "Premium Processing", Price: dec("0.18"), Currency: "EUR"},
			},
		},
	}

	return papers, machines, extras
}
