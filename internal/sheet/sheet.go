// Package sheet implements the geometric packing used by the quote engine:
// how many trimmed items fit on a press sheet and how many press sheets are
// cut from one stock sheet.
//
// Packing is a strict grid with no rotation or nesting, matching guillotine
// cutting. A result of 0 means the combination is infeasible; callers skip it.
package sheet

import (
	"errors"
	"math"

	"github.com/pressquote/quote-engine/internal/model"
)

// ErrZeroCapacity is returned by SheetsNeeded when nothing fits on a sheet.
var ErrZeroCapacity = errors.New("sheet: items per sheet must be positive")

// ItemsPerSheet returns how many itemW×itemH items fit on a sheetW×sheetH
// sheet after removing the margins:
//
//	floor(usableW / itemW) * floor(usableH / itemH)
func ItemsPerSheet(sheetW, sheetH, itemW, itemH float64, m model.Margins) int {
	if itemW <= 0 || itemH <= 0 {
		return 0
	}
	usableW := sheetW - m.Left - m.Right
	usableH := sheetH - m.Top - m.Bottom
	if usableW <= 0 || usableH <= 0 {
		return 0
	}
	perRow := int(math.Floor(usableW / itemW))
	perCol := int(math.Floor(usableH / itemH))
	return perRow * perCol
}

// SheetsNeeded returns ceil(total / perSheet). A non-positive total needs
// no sheets.
func SheetsNeeded(total, perSheet int) (int, error) {
	if perSheet <= 0 {
		return 0, ErrZeroCapacity
	}
	if total <= 0 {
		return 0, nil
	}
	return (total + perSheet - 1) / perSheet, nil
}

// PressSheetsPerStock returns floor(stockW/pressW) * floor(stockH/pressH).
// A press sheet larger than the stock sheet in either dimension yields 0;
// the press sheet is never rotated.
func PressSheetsPerStock(stockW, stockH, pressW, pressH float64) int {
	if pressW <= 0 || pressH <= 0 {
		return 0
	}
	return int(math.Floor(stockW/pressW)) * int(math.Floor(stockH/pressH))
}

// Fits reports whether a press sheet fits within a stock sheet without rotation.
func Fits(pressW, pressH, stockW, stockH float64) bool {
	return pressW <= stockW && pressH <= stockH
}

// WastePercent is the share of the stock sheet area not covered by final items.
func WastePercent(stockW, stockH, itemW, itemH float64, itemsPerPress, pressPerStock int) float64 {
	stockArea := stockW * stockH
	if stockArea <= 0 {
		return 0
	}
	used := itemW * itemH * float64(itemsPerPress*pressPerStock)
	return (stockArea - used) / stockArea * 100
}
