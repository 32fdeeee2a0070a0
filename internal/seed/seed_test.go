package seed

import (
	"context"
	"testing"

	"github.com/pressquote/quote-engine/internal/estimate"
	"github.com/pressquote/quote-engine/internal/model"
	"github.com/pressquote/quote-engine/internal/store"
)

func TestRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	first, err := Run(ctx, st)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Inserts != 13 || first.Existing != 0 {
		t.Errorf("first run: expected 13 inserts, got %+v", first)
	}

	second, err := Run(ctx, st)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Inserts != 0 || second.Existing != 13 {
		t.Errorf("second run should insert nothing, got %+v", second)
	}

	papers, _ := st.ListPaperTypes(ctx)
	if len(papers) != 4 {
		t.Errorf("expected 4 papers, got %d", len(papers))
	}
}

func TestRun_KeepsCustomEntries(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	custom := &model.Machine{ID: 1, Name: "Shop Press"}
	if err := st.CreateMachine(ctx, custom); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := Run(ctx, st); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, err := st.GetMachine(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Shop Press" {
		t.Errorf("seed overwrote machine 1 with %q", got.Name)
	}
	machines, _ := st.ListMachines(ctx)
	if len(machines) != 4 {
		t.Errorf("expected custom machine plus 3 defaults, got %d", len(machines))
	}
}

func TestDefaultCatalog_Valid(t *testing.T) {
	papers, machines, extras := DefaultCatalog()
	for i := range papers {
		if err := estimate.ValidatePaper(&papers[i]); err != nil {
			t.Errorf("paper %q: %v", papers[i].Name, err)
		}
	}
	for i := range machines {
		if len(machines[i].PressSheetSizes) == 0 {
			t.Errorf("machine %q has no press sheet sizes", machines[i].Name)
		}
		if err := estimate.ValidateMachine(&machines[i]); err != nil {
			t.Errorf("machine %q: %v", machines[i].Name, err)
		}
	}
	for _, e := range extras {
		if len(e.Variants) == 0 {
			t.Errorf("extra %q has no variants", e.Name)
		}
	}
}

// The 80g paper offers SRA3 stock, so business cards are priced on it.
func TestDefaultCatalog_BusinessCards(t *testing.T) {
	papers, machines, _ := DefaultCatalog()
	job := model.Job{FinalWidth: 85, FinalHeight: 55, Margins: model.UniformMargins(3), Quantity: 1000}

	results, err := estimate.New(nil).FindOptimalForPaper(job, &papers[0], nil, &machines[0], &machines[0].PressSheetSizes[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].StockSheetSize.Name != "SRA3" || results[0].PressSheetsNeeded != 42 {
		t.Errorf("expected 42 SRA3 press sheets, got %d on %s", results[0].PressSheetsNeeded, results[0].StockSheetSize.Name)
	}
}
