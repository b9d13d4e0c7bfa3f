package taxes

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// Withholding computes the progressive income-tax withholding.
//
// ALGORITHM:
//  1. socialSecurity = SocialSecurity.Calculate(earnings, period)
//  2. base = earnings - socialSecurity.Amount
//  3. row = first bracket whose upper bound covers base
//  4. dependentDeduction = deductionPerDependent(period) * dependents
//  5. amount = (base - dependentDeduction) * row.Rate - row.DeductibleParcel
//
// The bracket is chosen on base, before the dependent deduction. The amount
// may come out zero or negative; callers treat that as nothing to withhold.
type Withholding struct {
	SocialSecurity      *SocialSecurity
	Brackets            *generic.EffectiveDatedTable[WithholdingTable]
	DependentDeductions *generic.EffectiveDatedTable[decimal.Decimal]
}

// Calculate computes the withholding over earnings for period.
func (c *Withholding) Calculate(earnings decimal.Decimal, period generic.CompetencyPeriod, dependents int) (WithholdingResult, error) {
	if dependents < 0 {
		return WithholdingResult{}, fmt.Errorf("%w: %d", generic.ErrInvalidDependents, dependents)
	}

	ss, err := c.SocialSecurity.Calculate(earnings, period)
	if err != nil {
		return WithholdingResult{}, err
	}
	base := earnings.Sub(ss.Amount())

	table, err := c.Brackets.Lookup(period)
	if err != nil {
		return WithholdingResult{}, err
	}
	i := selectFirstMatch(len(table), func(i int) bool { return table[i].Covers(base) })
	if i < 0 {
		// Validated tables end with an unbounded row.
		return WithholdingResult{}, &generic.TableError{Table: c.Brackets.Name(), Reason: "no bracket covers base " + base.String()}
	}
	row := table[i]

	perDependent, err := c.DependentDeductions.Lookup(period)
	if err != nil {
		return WithholdingResult{}, err
	}
	deduction := perDependent.Mul(decimal.NewFromInt(int64(dependents)))

	rate := decimal.Zero
	if !row.Exempt() {
		rate = row.Rate.Decimal
	}
	amount := base.Sub(deduction).Mul(rate).Sub(row.DeductibleParcel)

	return WithholdingResult{
		rate:               rate,
		exempt:             row.Exempt(),
		parcel:             row.DeductibleParcel,
		base:               base,
		dependents:         dependents,
		perDependent:       perDependent,
		dependentDeduction: deduction,
		amount:             amount,
		socialSecurity:     ss,
	}, nil
}

// WithholdingResult is the outcome of Withholding.Calculate.
type WithholdingResult struct {
	rate               decimal.Decimal
	exempt             bool
	parcel             decimal.Decimal
	base               decimal.Decimal
	dependents         int
	perDependent       decimal.Decimal
	dependentDeduction decimal.Decimal
	amount             decimal.Decimal
	socialSecurity     SocialSecurityResult
}

// Rate returns the selected bracket's rate; zero for the exempt bracket.
func (r WithholdingResult) Rate() decimal.Decimal { return r.rate }

// Base returns earnings net of the social-security contribution.
func (r WithholdingResult) Base() decimal.Decimal { return r.base }

// Amount returns the raw computed withholding. May be zero or negative.
func (r WithholdingResult) Amount() decimal.Decimal { return r.amount }

// Exempt reports whether the base fell in the exempt bracket.
func (r WithholdingResult) Exempt() bool { return r.exempt }

// DeductibleParcel returns the parcel subtracted after applying the rate.
func (r WithholdingResult) DeductibleParcel() decimal.Decimal { return r.parcel }

// DependentDeduction returns deductionPerDependent * dependents.
func (r WithholdingResult) DependentDeduction() decimal.Decimal { return r.dependentDeduction }

// DeductionPerDependent returns the per-dependent amount in force.
func (r WithholdingResult) DeductionPerDependent() decimal.Decimal { return r.perDependent }

// Dependents returns the dependent count used.
func (r WithholdingResult) Dependents() int { return r.dependents }

// SocialSecurity returns the contribution computed internally for the base.
func (r WithholdingResult) SocialSecurity() SocialSecurityResult { return r.socialSecurity }

// Due reports whether there is anything to withhold.
func (r WithholdingResult) Due() bool { return r.amount.IsPositive() }

var _ generic.TaxResult = WithholdingResult{}
