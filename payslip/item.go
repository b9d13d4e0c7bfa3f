package payslip

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// LINE ITEMS
// =============================================================================

// Kind classifies a line item into the earnings or deductions column.
type Kind string

const (
	KindEarning   Kind = "earning"
	KindDeduction Kind = "deduction"
)

// Line holds the attributes common to every line item.
type Line struct {
	Code        string          // e.g. "0001" for regular salary
	Description string          // e.g. "SALÁRIO NORMAL"
	Reference   string          // display label: day count, rate percentage
	Amount      decimal.Decimal // non-negative by convention
}

// LineItem is either an Earning or a Deduction. Sealed.
type LineItem interface {
	Kind() Kind
	Details() Line
	lineItem()
}

// Earning is an amount paid to the employee. Each flag selects whether the
// amount enters the corresponding tax base; NewEarning sets all three.
type Earning struct {
	Line
	InFundBase           bool
	InSocialSecurityBase bool
	InWithholdingBase    bool
}

// EarningOption adjusts an Earning built by NewEarning.
type EarningOption func(*Earning)

// WithoutFund keeps the earning out of the fund base.
func WithoutFund() EarningOption {
	return func(e *Earning) { e.InFundBase = false }
}

// WithoutSocialSecurity keeps the earning out of the social-security base.
func WithoutSocialSecurity() EarningOption {
	return func(e *Earning) { e.InSocialSecurityBase = false }
}

// WithoutWithholding keeps the earning out of the withholding base.
func WithoutWithholding() EarningOption {
	return func(e *Earning) { e.InWithholdingBase = false }
}

// NewEarning builds an earning included in all three bases unless an option
// says otherwise.
func NewEarning(code, description, reference string, amount decimal.Decimal, opts ...EarningOption) Earning {
	e := Earning{
		Line:                 Line{Code: code, Description: description, Reference: reference, Amount: amount},
		InFundBase:           true,
		InSocialSecurityBase: true,
		InWithholdingBase:    true,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func (e Earning) Kind() Kind    { return KindEarning }
func (e Earning) Details() Line { return e.Line }
func (Earning) lineItem()       {}

// Deduction is an amount withheld from the employee. Never part of a tax base.
type Deduction struct {
	Line
}

// NewDeduction builds a deduction line.
func NewDeduction(code, description, reference string, amount decimal.Decimal) Deduction {
	return Deduction{Line: Line{Code: code, Description: description, Reference: reference, Amount: amount}}
}

func (d Deduction) Kind() Kind    { return KindDeduction }
func (d Deduction) Details() Line { return d.Line }
func (Deduction) lineItem()       {}

// =============================================================================
// EMPLOYEE - Opaque pass-through for display layers
// =============================================================================

// Employee identifies who the payslip is for. The engine never reads it.
type Employee struct {
	Name       string
	Code       string
	Role       string
	Occupation string // occupation classification code (CBO)
	Admission  string
}

// IsZero reports whether no employee fields were set.
func (e Employee) IsZero() bool {
	return e == Employee{}
}
