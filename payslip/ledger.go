/*
ledger.go - Payslip ledger for one employee and one competency

PURPOSE:
  The Ledger holds the itemized earnings and deductions of a payslip,
  derives each calculator's taxable base from them, runs the three
  calculators and folds the results back in as deduction lines before
  computing the totals.

DATA FLOW:
  line items -> bases -> calculators -> synthesized deduction lines -> totals

  1. Bases: sum of earnings by inclusion flag (fund, social security,
     withholding). Deductions never enter a base.
  2. Calculators, in order: fund, social security, withholding. Withholding
     recomputes social security internally from its own base.
  3. For social security and withholding, a strictly positive amount becomes
     a Deduction line (code/description from SetSocialSecurityLine /
     SetWithholdingLine, reference = rate as a percentage).
     The fund contribution is employer-paid and never becomes a line.
  4. totalEarnings, totalDeductions, netAmount = earnings - deductions.

LIFECYCLE:
  Write-once: add items, then Compute once. A second Compute, or any mutation
  after Compute, fails with ErrInvalidState. If Compute fails nothing is
  appended and the ledger can be fixed and computed again.

CONCURRENCY:
  A Ledger belongs to one computation and is not safe for concurrent use.
  The taxes.Schedule it reads is immutable and may be shared.

SEE ALSO:
  - item.go: Earning, Deduction
  - summary.go: Read-only result view
  - taxes/: The calculators
*/
package payslip

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/taxes"
)

// Default identifiers of the synthesized deduction lines.
const (
	DefaultSocialSecurityCode        = "998"
	DefaultSocialSecurityDescription = "INSS"
	DefaultWithholdingCode           = "999"
	DefaultWithholdingDescription    = "IMPOSTO DE RENDA"
)

// LineIdentity is the code and description given to a synthesized line.
type LineIdentity struct {
	Code        string
	Description string
}

// Ledger is the payslip under construction. See the file header.
type Ledger struct {
	period   generic.CompetencyPeriod
	schedule *taxes.Schedule

	items      []LineItem
	baseSalary decimal.NullDecimal
	dependents int
	employee   Employee

	socialSecurityLine LineIdentity
	withholdingLine    LineIdentity

	summary *Summary
}

// NewLedger creates an empty ledger for period. A nil schedule selects
// taxes.DefaultSchedule().
func NewLedger(period generic.CompetencyPeriod, schedule *taxes.Schedule) *Ledger {
	if schedule == nil {
		schedule = taxes.DefaultSchedule()
	}
	return &Ledger{
		period:             period,
		schedule:           schedule,
		socialSecurityLine: LineIdentity{Code: DefaultSocialSecurityCode, Description: DefaultSocialSecurityDescription},
		withholdingLine:    LineIdentity{Code: DefaultWithholdingCode, Description: DefaultWithholdingDescription},
	}
}

// =============================================================================
// BUILDING
// =============================================================================

// AddEarning appends an earning (salary, vacation pay, bonus, ...).
func (l *Ledger) AddEarning(e Earning) error {
	if err := l.writable(); err != nil {
		return err
	}
	l.items = append(l.items, e)
	return nil
}

// AddDeduction appends a deduction (meal voucher, transport, union fee, ...).
func (l *Ledger) AddDeduction(d Deduction) error {
	if err := l.writable(); err != nil {
		return err
	}
	l.items = append(l.items, d)
	return nil
}

// SetBaseSalary overrides the base salary. Without it the amount of the first
// earning is used.
func (l *Ledger) SetBaseSalary(v decimal.Decimal) error {
	if err := l.writable(); err != nil {
		return err
	}
	l.baseSalary = decimal.NewNullDecimal(v)
	return nil
}

// SetDependents sets the dependent count used by the withholding calculator.
func (l *Ledger) SetDependents(n int) error {
	if err := l.writable(); err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("%w: %d", generic.ErrInvalidDependents, n)
	}
	l.dependents = n
	return nil
}

// SetEmployee records the employee identification. Passed through untouched.
func (l *Ledger) SetEmployee(e Employee) error {
	if err := l.writable(); err != nil {
		return err
	}
	l.employee = e
	return nil
}

// SetSocialSecurityLine sets the identity of the synthesized contribution line.
func (l *Ledger) SetSocialSecurityLine(code, description string) error {
	if err := l.writable(); err != nil {
		return err
	}
	l.socialSecurityLine = LineIdentity{Code: code, Description: description}
	return nil
}

// SetWithholdingLine sets the identity of the synthesized withholding line.
func (l *Ledger) SetWithholdingLine(code, description string) error {
	if err := l.writable(); err != nil {
		return err
	}
	l.withholdingLine = LineIdentity{Code: code, Description: description}
	return nil
}

func (l *Ledger) writable() error {
	if l.summary != nil {
		return fmt.Errorf("%w: ledger for %s already computed", generic.ErrInvalidState, l.period)
	}
	return nil
}

// =============================================================================
// READING
// =============================================================================

func (l *Ledger) Period() generic.CompetencyPeriod { return l.period }
func (l *Ledger) Dependents() int                  { return l.dependents }
func (l *Ledger) Employee() Employee               { return l.employee }

// Items returns a copy of the line items in insertion order.
func (l *Ledger) Items() []LineItem {
	out := make([]LineItem, len(l.items))
	copy(out, l.items)
	return out
}

// Summary returns the result of Compute, or nil before it ran.
func (l *Ledger) Summary() *Summary {
	return l.summary
}

// =============================================================================
// COMPUTATION
// =============================================================================

// Bases are the taxable bases derived from the earnings.
type Bases struct {
	Fund           decimal.Decimal
	SocialSecurity decimal.Decimal
	Withholding    decimal.Decimal
}

// bases sums earnings by inclusion flag and finds the first earning's amount.
func (l *Ledger) bases() (Bases, decimal.NullDecimal) {
	b := Bases{Fund: decimal.Zero, SocialSecurity: decimal.Zero, Withholding: decimal.Zero}
	var first decimal.NullDecimal
	for _, item := range l.items {
		e, ok := item.(Earning)
		if !ok {
			continue
		}
		if e.InFundBase {
			b.Fund = b.Fund.Add(e.Amount)
		}
		if e.InSocialSecurityBase {
			b.SocialSecurity = b.SocialSecurity.Add(e.Amount)
		}
		if e.InWithholdingBase {
			b.Withholding = b.Withholding.Add(e.Amount)
		}
		if !first.Valid {
			first = decimal.NewNullDecimal(e.Amount)
		}
	}
	return b, first
}

// Compute runs the calculators, appends the tax lines and computes totals.
// It may only succeed once per ledger.
func (l *Ledger) Compute() (*Summary, error) {
	if err := l.writable(); err != nil {
		return nil, err
	}

	bases, firstEarning := l.bases()

	baseSalary := l.baseSalary
	if !baseSalary.Valid {
		baseSalary = firstEarning
	}
	if !baseSalary.Valid {
		return nil, &generic.MissingContextError{What: "base salary (no explicit value and no earnings)"}
	}

	fund := l.schedule.Fund.Calculate(bases.Fund)

	ss, err := l.schedule.SocialSecurity.Calculate(bases.SocialSecurity, l.period)
	if err != nil {
		return nil, fmt.Errorf("social security: %w", err)
	}

	wh, err := l.schedule.Withholding.Calculate(bases.Withholding, l.period, l.dependents)
	if err != nil {
		return nil, fmt.Errorf("withholding: %w", err)
	}

	// Every calculation succeeded: only now touch the items.
	if ss.Amount().IsPositive() {
		l.items = append(l.items, NewDeduction(
			l.socialSecurityLine.Code,
			l.socialSecurityLine.Description,
			generic.PercentReference(ss.Rate()),
			ss.Amount(),
		))
	}
	if wh.Due() {
		l.items = append(l.items, NewDeduction(
			l.withholdingLine.Code,
			l.withholdingLine.Description,
			generic.PercentReference(wh.Rate()),
			wh.Amount(),
		))
	}

	totalEarnings, totalDeductions := l.totals()

	l.summary = &Summary{
		Period:          l.period,
		Employee:        l.employee,
		Items:           l.Items(),
		BaseSalary:      baseSalary.Decimal,
		Dependents:      l.dependents,
		Bases:           bases,
		Fund:            fund,
		SocialSecurity:  ss,
		Withholding:     wh,
		TotalEarnings:   totalEarnings,
		TotalDeductions: totalDeductions,
		NetAmount:       totalEarnings.Sub(totalDeductions),
	}
	return l.summary, nil
}

func (l *Ledger) totals() (earnings, deductions decimal.Decimal) {
	var e, d []decimal.Decimal
	for _, item := range l.items {
		switch item.Kind() {
		case KindEarning:
			e = append(e, item.Details().Amount)
		case KindDeduction:
			d = append(d, item.Details().Amount)
		}
	}
	return generic.Sum(e...), generic.Sum(d...)
}
