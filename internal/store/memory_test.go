package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pressquote/quote-engine/internal/model"
)

func TestMemoryStore_PaperRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	p := &model.PaperStock{
		Name: "80g Standard", GSM: 80, PricePerTon: decimal.NewFromInt(850), Currency: "USD",
		StockSheetSizes: []model.StockSheetSize{{ID: 1, Name: "SRA3", Width: 320, Height: 450}},
	}
	if err := s.CreatePaperType(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID != 1 {
		t.Errorf("expected assigned id 1, got %d", p.ID)
	}

	got, err := s.GetPaperType(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != p.Name || !got.PricePerTon.Equal(p.PricePerTon) {
		t.Errorf("round trip mismatch: %+v", got)
	}

	got.StockSheetSizes[0].Width = 1
	list, _ := s.ListPaperTypes(ctx)
	if len(list) != 1 || list[0].StockSheetSizes[0].Width != 320 {
		t.Errorf("expected stored paper to be unchanged, got %+v", list)
	}

	if _, err := s.GetPaperType(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown paper, got %v", err)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	m := &model.Machine{ID: 3, Name: "Komori", PressSheetSizes: []model.PressSheetSize{{ID: 4, Name: "SRA3", Width: 320, Height: 450}}}
	if err := s.CreateMachine(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}
	m.PressSheetSizes[0].Width = 1

	got, _ := s.GetMachine(ctx, 3)
	if got.PressSheetSizes[0].Width != 320 {
		t.Errorf("store must not share slices with the caller, got width %v", got.PressSheetSizes[0].Width)
	}
	got.PressSheetSizes[0].Width = 2

	again, _ := s.GetMachine(ctx, 3)
	if again.PressSheetSizes[0].Width != 320 {
		t.Errorf("returned values must be copies, got width %v", again.PressSheetSizes[0].Width)
	}
}

func TestMemoryStore_ListOrderedByID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, id := range []int64{5, 2, 9} {
		if err := s.CreateExtra(ctx, &model.Extra{ID: id, Name: "x"}); err != nil {
			t.Fatalf("create %d: %v", id, err)
		}
	}
	// Next assigned id follows the highest existing one.
	e := &model.Extra{Name: "auto"}
	if err := s.CreateExtra(ctx, e); err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.ID != 10 {
		t.Errorf("expected id 10, got %d", e.ID)
	}

	list, _ := s.ListExtras(ctx)
	want := []int64{2, 5, 9, 10}
	for i, e := range list {
		if e.ID != want[i] {
			t.Errorf("position %d: expected id %d, got %d", i, want[i], e.ID)
		}
	}
}

func TestMemoryStore_DuplicateID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.CreateMachine(ctx, &model.Machine{ID: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateMachine(ctx, &model.Machine{ID: 1}); err == nil {
		t.Error("expected error for duplicate id")
	}
}

func TestMemoryStore_MissingEntries(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.GetMachine(ctx, 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("get missing machine: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetExtra(ctx, 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("get missing extra: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetQuote(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get missing quote: expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_Quotes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	now := time.Now().UTC()
	for i, id := range []string{"a", "b"} {
		q := &model.SavedQuote{
			ID:           id,
			Name:         "quote " + id,
			Data:         json.RawMessage(`{"qty":1000}`),
			TotalCostEUR: decimal.NewFromInt(int64(i + 1)),
			CreatedAt:    now.Add(time.Duration(i) * time.Second),
		}
		if err := s.SaveQuote(ctx, q); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	if err := s.SaveQuote(ctx, &model.SavedQuote{ID: "a"}); err == nil {
		t.Error("expected error saving duplicate quote id")
	}

	list, _ := s.ListQuotes(ctx)
	if len(list) != 2 || list[0].ID != "b" {
		t.Errorf("expected newest first, got %+v", list)
	}

	got, err := s.GetQuote(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Data) != `{"qty":1000}` {
		t.Errorf("unexpected data %s", got.Data)
	}
}
