/*
Package taxes implements the statutory payroll calculators.

PURPOSE:
  Three calculators, each driven by effective-dated tables from generic:

    FundContribution   flat 8% over the fund base (FGTS)
    SocialSecurity     progressive rate capped at a ceiling (INSS)
    Withholding        progressive income-tax withholding with deductible
                       parcel and per-dependent deduction (IRRF)

  Withholding computes its own SocialSecurity over the same earnings: its
  base is earnings minus that contribution.

BRACKET SELECTION:
  Two strategies are kept apart on purpose, because they select different
  rows for the same input:

    selectLastMatch   scan every row; each row whose ceiling covers the base
                      overwrites the selection. With ascending ceilings this
                      always lands on the top row. SocialSecurity uses this by
                      default (PolicyLastMatch).
    selectFirstMatch  stop at the first row whose bound covers the base.
                      Withholding always uses this; SocialSecurity uses it
                      under PolicyFirstMatch.

PRECISION:
  All arithmetic is exact decimal. Nothing here rounds.

SEE ALSO:
  - tables.go: Compiled-in statutory tables
  - schedule.go: Bundles the three calculators
  - payslip/ledger.go: Derives bases and folds results into totals
*/
package taxes

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// TABLE ROWS
// =============================================================================

// RateBracket is one social-security row: Rate applies to bases up to Ceiling.
type RateBracket struct {
	Rate    decimal.Decimal
	Ceiling decimal.Decimal
}

// RateTable is the social-security schedule for one validity window,
// ascending by ceiling.
type RateTable []RateBracket

// Validate checks that the table is non-empty and ascending.
func (t RateTable) Validate() error {
	if len(t) == 0 {
		return &generic.TableError{Table: "social security", Reason: "no brackets"}
	}
	for i := 1; i < len(t); i++ {
		if t[i].Ceiling.LessThan(t[i-1].Ceiling) {
			return &generic.TableError{
				Table:  "social security",
				Reason: fmt.Sprintf("ceiling %s follows %s", t[i].Ceiling, t[i-1].Ceiling),
			}
		}
	}
	return nil
}

// Teto returns the highest ceiling of the table.
func (t RateTable) Teto() decimal.Decimal {
	teto := t[0].Ceiling
	for _, b := range t[1:] {
		if b.Ceiling.GreaterThan(teto) {
			teto = b.Ceiling
		}
	}
	return teto
}

// WithholdingBracket is one income-tax row.
//
// UpperBound is invalid (Valid=false) for the open top row.
// Rate is invalid for the exempt row, which also has no parcel.
type WithholdingBracket struct {
	UpperBound       decimal.NullDecimal
	Rate             decimal.NullDecimal
	DeductibleParcel decimal.Decimal
}

// Covers reports whether base falls at or below this row's upper bound.
func (b WithholdingBracket) Covers(base decimal.Decimal) bool {
	return !b.UpperBound.Valid || base.LessThanOrEqual(b.UpperBound.Decimal)
}

// Exempt reports whether this row carries no rate.
func (b WithholdingBracket) Exempt() bool {
	return !b.Rate.Valid
}

// WithholdingTable is the income-tax schedule for one validity window,
// ascending by upper bound, the last row unbounded.
type WithholdingTable []WithholdingBracket

// Validate checks ordering and that the top row is open, so that every base
// finds a row.
func (t WithholdingTable) Validate() error {
	if len(t) == 0 {
		return &generic.TableError{Table: "withholding", Reason: "no brackets"}
	}
	for i, b := range t {
		last := i == len(t)-1
		if last && b.UpperBound.Valid {
			return &generic.TableError{Table: "withholding", Reason: "top bracket must be unbounded"}
		}
		if !last && !b.UpperBound.Valid {
			return &generic.TableError{Table: "withholding", Reason: fmt.Sprintf("bracket %d is unbounded but not last", i)}
		}
		if i > 0 && !last && b.UpperBound.Decimal.LessThan(t[i-1].UpperBound.Decimal) {
			return &generic.TableError{
				Table:  "withholding",
				Reason: fmt.Sprintf("upper bound %s follows %s", b.UpperBound.Decimal, t[i-1].UpperBound.Decimal),
			}
		}
	}
	return nil
}

// Bounded builds an upper bound.
func Bounded(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(generic.MustDecimal(s))
}

// Unbounded is the upper bound of the top row.
var Unbounded = decimal.NullDecimal{}

// Rated builds a bracket rate.
func Rated(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(generic.MustDecimal(s))
}

// Exempt is the rate of the exempt row.
var Exempt = decimal.NullDecimal{}

// =============================================================================
// BRACKET POLICY
// =============================================================================

// BracketPolicy selects how SocialSecurity picks its rate.
type BracketPolicy string

const (
	// PolicyLastMatch scans without stopping: every row whose ceiling covers
	// the base overwrites the selection. Matches the statutory tables as the
	// payroll history was computed.
	PolicyLastMatch BracketPolicy = "last_match"

	// PolicyFirstMatch applies the rate of the smallest ceiling covering the
	// base.
	PolicyFirstMatch BracketPolicy = "first_match"
)

// ParseBracketPolicy accepts "", "last_match" or "first_match".
func ParseBracketPolicy(s string) (BracketPolicy, error) {
	switch BracketPolicy(s) {
	case "", PolicyLastMatch:
		return PolicyLastMatch, nil
	case PolicyFirstMatch:
		return PolicyFirstMatch, nil
	default:
		return "", fmt.Errorf("unknown bracket policy %q", s)
	}
}

// selectLastMatch returns the rate of the last row whose ceiling covers base,
// and whether any row did.
func selectLastMatch(table RateTable, base decimal.Decimal) (decimal.Decimal, bool) {
	var rate decimal.Decimal
	found := false
	for _, b := range table {
		if base.LessThanOrEqual(b.Ceiling) {
			rate = b.Rate
			found = true
		}
	}
	return rate, found
}

// selectFirstMatch returns the index of the first row whose bound covers base,
// or -1. cover reports whether row i covers base.
func selectFirstMatch(n int, cover func(i int) bool) int {
	for i := 0; i < n; i++ {
		if cover(i) {
			return i
		}
	}
	return -1
}
