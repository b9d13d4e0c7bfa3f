/*
Package generic provides the domain-agnostic building blocks of the payroll
engine.

PURPOSE:
  Types that know nothing about any particular contribution or tax:
  competency periods, effective-dated tables, the shared result contract of
  every calculator, and the error vocabulary.

KEY CONCEPTS IN THIS FILE (types.go):
  - TaxResult: What every calculator reports (rate, base, amount)
  - Decimal helpers: Parsing compiled-in literals, percentage references

DESIGN PRINCIPLES:
  1. Precision: All money and rates are decimal.Decimal, never float64
  2. No rounding during accumulation: Rounding happens only when a value is
     turned into text for display (see render package)
  3. Immutability: Results and tables are read-only once built

SEE ALSO:
  - period.go: CompetencyPeriod
  - effective.go: EffectiveDatedTable
  - errors.go: Sentinel and structured errors
  - taxes/: The concrete calculators
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// TAX RESULT - Shared contract of every calculator
// =============================================================================

// TaxResult is what every contribution/tax calculator reports.
// Calculator-specific details (deductible parcel, dependent deduction) live on
// the concrete result types, not here.
type TaxResult interface {
	// Rate returns the applied rate as a fraction (0.08 for 8%).
	Rate() decimal.Decimal

	// Base returns the base actually used, which may differ from the input
	// (capped at a ceiling, or net of another contribution).
	Base() decimal.Decimal

	// Amount returns the computed contribution/tax. Not rounded.
	Amount() decimal.Decimal
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var hundred = decimal.NewFromInt(100)

// MustDecimal parses a compiled-in literal. Panics on malformed input.
func MustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Sum adds values exactly.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// PercentReference renders a fractional rate as a percentage with two
// decimals, rounding half to even: 0.11 -> "11.00", 0.275 -> "27.50".
// Plain text with a dot separator; localization belongs to display layers.
func PercentReference(rate decimal.Decimal) string {
	return rate.Mul(hundred).RoundBank(2).StringFixed(2)
}
