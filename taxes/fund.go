package taxes

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// DefaultFundRate is the statutory fund contribution rate (8%).
var DefaultFundRate = generic.MustDecimal("0.08")

// FundContribution applies a constant rate to the fund base.
// The contribution is paid by the employer: it never becomes a deduction line.
type FundContribution struct {
	Rate decimal.Decimal
}

// NewFundContribution returns the calculator at the statutory rate.
func NewFundContribution() FundContribution {
	return FundContribution{Rate: DefaultFundRate}
}

// Calculate returns base * rate, unrounded.
func (c FundContribution) Calculate(base decimal.Decimal) FundResult {
	return FundResult{
		rate:   c.Rate,
		base:   base,
		amount: base.Mul(c.Rate),
	}
}

// FundResult is the outcome of FundContribution.Calculate.
type FundResult struct {
	rate   decimal.Decimal
	base   decimal.Decimal
	amount decimal.Decimal
}

func (r FundResult) Rate() decimal.Decimal   { return r.rate }
func (r FundResult) Base() decimal.Decimal   { return r.base }
func (r FundResult) Amount() decimal.Decimal { return r.amount }

var _ generic.TaxResult = FundResult{}
