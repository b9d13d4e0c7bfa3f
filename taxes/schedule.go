package taxes

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// Schedule bundles the three calculators over one consistent set of tables.
// Read-only after construction; share it across computations.
type Schedule struct {
	Fund           FundContribution
	SocialSecurity *SocialSecurity
	Withholding    *Withholding
}

// NewSchedule wires the calculators together. The withholding calculator uses
// the same social-security calculator (tables and policy) as the ledger does.
func NewSchedule(
	fundRate decimal.Decimal,
	social *generic.EffectiveDatedTable[RateTable],
	policy BracketPolicy,
	withholding *generic.EffectiveDatedTable[WithholdingTable],
	dependents *generic.EffectiveDatedTable[decimal.Decimal],
) *Schedule {
	ss := &SocialSecurity{Tables: social, Policy: policy}
	return &Schedule{
		Fund:           FundContribution{Rate: fundRate},
		SocialSecurity: ss,
		Withholding: &Withholding{
			SocialSecurity:      ss,
			Brackets:            withholding,
			DependentDeductions: dependents,
		},
	}
}

// DefaultSchedule returns the compiled-in statutory schedule under
// PolicyLastMatch.
func DefaultSchedule() *Schedule {
	return DefaultScheduleWithPolicy(PolicyLastMatch)
}

// DefaultScheduleWithPolicy returns the compiled-in schedule with the given
// social-security bracket policy.
func DefaultScheduleWithPolicy(policy BracketPolicy) *Schedule {
	return NewSchedule(
		DefaultFundRate,
		DefaultSocialSecurityTables(),
		policy,
		DefaultWithholdingTables(),
		DefaultDependentDeductions(),
	)
}
