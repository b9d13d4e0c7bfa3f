package payslip

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/taxes"
)

// Summary is the read-only outcome of Ledger.Compute: everything a display
// layer needs, as exact unrounded decimals.
type Summary struct {
	Period     generic.CompetencyPeriod
	Employee   Employee
	Items      []LineItem // insertion order, synthesized tax lines last
	BaseSalary decimal.Decimal
	Dependents int
	Bases      Bases

	Fund           taxes.FundResult
	SocialSecurity taxes.SocialSecurityResult
	Withholding    taxes.WithholdingResult

	TotalEarnings   decimal.Decimal
	TotalDeductions decimal.Decimal
	NetAmount       decimal.Decimal
}

// Earnings returns the earning lines in insertion order.
func (s *Summary) Earnings() []Earning {
	var out []Earning
	for _, item := range s.Items {
		if e, ok := item.(Earning); ok {
			out = append(out, e)
		}
	}
	return out
}

// Deductions returns the deduction lines in insertion order, including the
// synthesized tax lines.
func (s *Summary) Deductions() []Deduction {
	var out []Deduction
	for _, item := range s.Items {
		if d, ok := item.(Deduction); ok {
			out = append(out, d)
		}
	}
	return out
}

// DisplayItems returns earnings first, then deductions: the order in which a
// payslip lists its lines.
func (s *Summary) DisplayItems() []LineItem {
	out := make([]LineItem, 0, len(s.Items))
	for _, e := range s.Earnings() {
		out = append(out, e)
	}
	for _, d := range s.Deductions() {
		out = append(out, d)
	}
	return out
}

// Taxes returns the three results in computation order: fund, social
// security, withholding.
func (s *Summary) Taxes() []generic.TaxResult {
	return []generic.TaxResult{s.Fund, s.SocialSecurity, s.Withholding}
}
