package sheet

import (
	"math"
	"testing"

	"github.com/pressquote/quote-engine/internal/model"
)

// --- ItemsPerSheet ---

func TestItemsPerSheet_ZeroMarginsIsGridProduct(t *testing.T) {
	tests := []struct {
		sheetW, sheetH, itemW, itemH float64
	}{
		{320, 450, 85, 55},
		{210, 297, 105, 148.5},
		{297, 420, 297, 420},
		{700, 1000, 99, 210},
		{100, 100, 33.3, 12.5},
	}
	for _, tt := range tests {
		got := ItemsPerSheet(tt.sheetW, tt.sheetH, tt.itemW, tt.itemH, model.Margins{})
		want := int(math.Floor(tt.sheetW/tt.itemW)) * int(math.Floor(tt.sheetH/tt.itemH))
		if got != want {
			t.Errorf("ItemsPerSheet(%v,%v,%v,%v) = %d, want %d",
				tt.sheetW, tt.sheetH, tt.itemW, tt.itemH, got, want)
		}
	}
}

func TestItemsPerSheet_BusinessCardsOnSRA3(t *testing.T) {
	// floor((320-6)/85) * floor((450-6)/55) = 3 * 8
	got := ItemsPerSheet(320, 450, 85, 55, model.UniformMargins(3))
	if got != 24 {
		t.Errorf("expected 24 cards per SRA3 sheet, got %d", got)
	}
}

func TestItemsPerSheet_DoesNotFit(t *testing.T) {
	if got := ItemsPerSheet(100, 100, 120, 50, model.Margins{}); got != 0 {
		t.Errorf("item wider than sheet should give 0, got %d", got)
	}
	if got := ItemsPerSheet(100, 100, 50, 50, model.UniformMargins(30)); got != 0 {
		t.Errorf("margins eating the sheet should give 0, got %d", got)
	}
}

func TestItemsPerSheet_NoRotation(t *testing.T) {
	// 60×20 fits 5 times on a 20×300 strip only if rotated; grid packing refuses.
	if got := ItemsPerSheet(20, 300, 60, 20, model.Margins{}); got != 0 {
		t.Errorf("expected 0 without rotation, got %d", got)
	}
}

func TestItemsPerSheet_NonPositiveItem(t *testing.T) {
	if got := ItemsPerSheet(320, 450, 0, 55, model.Margins{}); got != 0 {
		t.Errorf("zero-width item should give 0, got %d", got)
	}
	if got := ItemsPerSheet(320, 450, 85, -1, model.Margins{}); got != 0 {
		t.Errorf("negative-height item should give 0, got %d", got)
	}
}

// --- SheetsNeeded ---

func TestSheetsNeeded(t *testing.T) {
	tests := []struct {
		total, perSheet, want int
	}{
		{0, 5, 0},
		{5, 5, 1},
		{6, 5, 2},
		{1000, 24, 42},
		{1, 1, 1},
		{-3, 4, 0},
	}
	for _, tt := range tests {
		got, err := SheetsNeeded(tt.total, tt.perSheet)
		if err != nil {
			t.Fatalf("SheetsNeeded(%d,%d): unexpected error %v", tt.total, tt.perSheet, err)
		}
		if got != tt.want {
			t.Errorf("SheetsNeeded(%d,%d) = %d, want %d", tt.total, tt.perSheet, got, tt.want)
		}
	}
}

func TestSheetsNeeded_ZeroCapacity(t *testing.T) {
	if _, err := SheetsNeeded(10, 0); err != ErrZeroCapacity {
		t.Errorf("expected ErrZeroCapacity, got %v", err)
	}
	if _, err := SheetsNeeded(10, -2); err != ErrZeroCapacity {
		t.Errorf("expected ErrZeroCapacity for negative capacity, got %v", err)
	}
}

// --- PressSheetsPerStock / Fits ---

func TestPressSheetsPerStock(t *testing.T) {
	tests := []struct {
		name                           string
		stockW, stockH, pressW, pressH float64
		want                           int
	}{
		{"same size", 320, 450, 320, 450, 1},
		{"B1 into SRA3", 707, 1000, 320, 450, 4},
		{"press wider than stock", 210, 297, 320, 450, 0},
		{"press taller than stock", 330, 400, 320, 450, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PressSheetsPerStock(tt.stockW, tt.stockH, tt.pressW, tt.pressH)
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFits(t *testing.T) {
	if !Fits(320, 450, 320, 450) {
		t.Error("equal sizes should fit")
	}
	if Fits(320, 450, 450, 320) {
		t.Error("rotated stock must not count as a fit")
	}
}

func TestWastePercent(t *testing.T) {
	// Four 50×50 items on a 100×100 sheet leave nothing.
	if got := WastePercent(100, 100, 50, 50, 4, 1); math.Abs(got) > 1e-9 {
		t.Errorf("expected 0%% waste, got %v", got)
	}
	if got := WastePercent(100, 100, 50, 50, 2, 1); math.Abs(got-50) > 1e-9 {
		t.Errorf("expected 50%% waste, got %v", got)
	}
	if got := WastePercent(0, 100, 50, 50, 2, 1); got != 0 {
		t.Errorf("degenerate stock should report 0, got %v", got)
	}
}
