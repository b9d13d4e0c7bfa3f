package taxes

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// SocialSecurity computes the progressive social-security contribution.
//
// The rate table for the competency is looked up, a row is selected according
// to Policy, and when the base exceeds the table's highest ceiling (teto) the
// base is capped at teto and the top row's rate applies.
//
// Stateless apart from its read-only tables: one value may be shared by
// concurrent computations.
type SocialSecurity struct {
	Tables *generic.EffectiveDatedTable[RateTable]
	Policy BracketPolicy
}

// NewSocialSecurity returns a calculator over tables with PolicyLastMatch.
func NewSocialSecurity(tables *generic.EffectiveDatedTable[RateTable]) *SocialSecurity {
	return &SocialSecurity{Tables: tables, Policy: PolicyLastMatch}
}

// Calculate computes the contribution over base for period.
func (c *SocialSecurity) Calculate(base decimal.Decimal, period generic.CompetencyPeriod) (SocialSecurityResult, error) {
	table, err := c.Tables.Lookup(period)
	if err != nil {
		return SocialSecurityResult{}, err
	}

	var rate decimal.Decimal
	switch c.Policy {
	case PolicyFirstMatch:
		if i := selectFirstMatch(len(table), func(i int) bool {
			return base.LessThanOrEqual(table[i].Ceiling)
		}); i >= 0 {
			rate = table[i].Rate
		}
	default:
		rate, _ = selectLastMatch(table, base)
	}

	used := base
	teto := table.Teto()
	capped := base.GreaterThan(teto)
	if capped {
		rate = table[len(table)-1].Rate
		used = teto
	}

	return SocialSecurityResult{
		rate:     rate,
		base:     used,
		amount:   rate.Mul(used),
		earnings: base,
		teto:     teto,
		capped:   capped,
		policy:   c.policy(),
	}, nil
}

func (c *SocialSecurity) policy() BracketPolicy {
	if c.Policy == "" {
		return PolicyLastMatch
	}
	return c.Policy
}

// SocialSecurityResult is the outcome of SocialSecurity.Calculate.
type SocialSecurityResult struct {
	rate     decimal.Decimal
	base     decimal.Decimal
	amount   decimal.Decimal
	earnings decimal.Decimal
	teto     decimal.Decimal
	capped   bool
	policy   BracketPolicy
}

func (r SocialSecurityResult) Rate() decimal.Decimal   { return r.rate }
func (r SocialSecurityResult) Base() decimal.Decimal   { return r.base }
func (r SocialSecurityResult) Amount() decimal.Decimal { return r.amount }

// Earnings returns the uncapped input base.
func (r SocialSecurityResult) Earnings() decimal.Decimal { return r.earnings }

// Teto returns the highest ceiling of the table that was applied.
func (r SocialSecurityResult) Teto() decimal.Decimal { return r.teto }

// Capped reports whether the base was limited to Teto.
func (r SocialSecurityResult) Capped() bool { return r.capped }

// Policy returns the bracket policy the result was computed under.
func (r SocialSecurityResult) Policy() BracketPolicy { return r.policy }

var _ generic.TaxResult = SocialSecurityResult{}
