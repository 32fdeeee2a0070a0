package estimate

import "github.com/shopspring/decimal"

var (
	mm2PerM2  = decimal.NewFromInt(1_000_000)
	gramsPerK = decimal.NewFromInt(1000)
	kgPerTon  = decimal.NewFromInt(1000)

	// CostScale is the number of decimal places kept on per-unit costs.
	CostScale int32 = 6
)

// PaperWeightKg returns the weight of sheets sheets of w×h mm paper at gsm
// grams per square metre:
//
//	(w*h / 1e6) * gsm * sheets / 1000
func PaperWeightKg(w, h, gsm float64, sheets int) decimal.Decimal {
	area := decimal.NewFromFloat(w).Mul(decimal.NewFromFloat(h)).Div(mm2PerM2)
	return area.
		Mul(decimal.NewFromFloat(gsm)).
		Mul(decimal.NewFromInt(int64(sheets))).
		Div(gramsPerK)
}

// PaperCost prices weightKg of paper bought at pricePerTon.
func PaperCost(weightKg, pricePerTon decimal.Decimal) decimal.Decimal {
	return weightKg.Div(kgPerTon).Mul(pricePerTon)
}

// ClickCost is one click charge per press sheet pass. Duplex is accounted
// for by the caller through the number of passes.
func ClickCost(passes int, perClick decimal.Decimal) decimal.Decimal {
	return perClick.Mul(decimal.NewFromInt(int64(passes)))
}

// SetupCost is the machine's flat setup charge when required.
func SetupCost(required bool, machineSetup decimal.Decimal) decimal.Decimal {
	if !required {
		return decimal.Zero
	}
	return machineSetup
}

// PerUnit divides total by units, rounded to CostScale. Zero units yields zero.
func PerUnit(total decimal.Decimal, units int) decimal.Decimal {
	if units <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(units))).Round(CostScale)
}
