// Package currency normalizes prices to EUR against a snapshot of exchange
// rates. The calculation engine only ever sees a RateFunc; fetching and
// refreshing rates is done by the Refresher in the host process.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Base is the currency every computed cost is expressed in.
const Base = "EUR"

// RateFunc returns how many EUR one unit of the given currency is worth.
type RateFunc func(code string) decimal.Decimal

// Table maps a currency code to its EUR rate.
type Table map[string]decimal.Decimal

// FallbackRates is used until the first successful refresh and whenever
// refreshing fails before any rates were loaded.
func FallbackRates() Table {
	return Table{
		"EUR": decimal.NewFromInt(1),
		"USD": decimal.NewFromFloat(0.95),
		"TRY": decimal.NewFromFloat(0.028),
	}
}

// RateOf returns the EUR rate of code. EUR, an empty code and unknown codes
// convert at 1 (no conversion).
func (t Table) RateOf(code string) decimal.Decimal {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || code == Base {
		return decimal.NewFromInt(1)
	}
	if r, ok := t[code]; ok && r.IsPositive() {
		return r
	}
	return decimal.NewFromInt(1)
}

// Clone returns an independent copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// ToEUR converts amount in code to EUR. A nil rate treats every amount as
// already in EUR.
func ToEUR(amount decimal.Decimal, code string, rate RateFunc) decimal.Decimal {
	if rate == nil {
		return amount
	}
	return amount.Mul(rate(code))
}
