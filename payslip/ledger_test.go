package payslip_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payslip"
	"github.com/warp/payroll-engine/taxes"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func dec(s string) decimal.Decimal {
	return generic.MustDecimal(s)
}

func newLedger(t *testing.T, competency string) *payslip.Ledger {
	t.Helper()
	p, err := generic.ParseCompetency(competency)
	require.NoError(t, err)
	return payslip.NewLedger(p, nil)
}

func salary(amount string, opts ...payslip.EarningOption) payslip.Earning {
	return payslip.NewEarning("0001", "SALARY", "30", dec(amount), opts...)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, what string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: expected %s, got %s", what, want, got)
}

// =============================================================================
// CONCRETE SCENARIOS
// =============================================================================

func TestCompute_Salary2000_January2017(t *testing.T) {
	// GIVEN: Base salary 2000.00, one SALARY line, no dependents
	ledger := newLedger(t, "2017-01")
	require.NoError(t, ledger.SetBaseSalary(dec("2000.00")))
	require.NoError(t, ledger.AddEarning(salary("2000.00")))

	// WHEN
	s, err := ledger.Compute()
	require.NoError(t, err)

	// THEN: fund 8%, social security at the top 2017 rate (11%),
	// withholding base 1780 falls in the exempt bracket
	assertDecimal(t, "160", s.Fund.Amount(), "fund")
	assertDecimal(t, "0.11", s.SocialSecurity.Rate(), "social security rate")
	assertDecimal(t, "220", s.SocialSecurity.Amount(), "social security")
	assertDecimal(t, "1780", s.Withholding.Base(), "withholding base")
	assert.False(t, s.Withholding.Due())

	assertDecimal(t, "2000", s.TotalEarnings, "total earnings")
	assertDecimal(t, "220", s.TotalDeductions, "total deductions")
	assertDecimal(t, "1780", s.NetAmount, "net")
	assertDecimal(t, "2000", s.BaseSalary, "base salary")

	// Only the social-security line was synthesized
	require.Len(t, s.Items, 2)
	line := s.Items[1].Details()
	assert.Equal(t, payslip.KindDeduction, s.Items[1].Kind())
	assert.Equal(t, "998", line.Code)
	assert.Equal(t, "INSS", line.Description)
	assert.Equal(t, "11.00", line.Reference)
	assertDecimal(t, "220", line.Amount, "line amount")
}

func TestCompute_Salary2000_January2017_FirstMatchPolicy(t *testing.T) {
	p := generic.MustCompetencyPeriod("2017", "01")
	ledger := payslip.NewLedger(p, taxes.DefaultScheduleWithPolicy(taxes.PolicyFirstMatch))
	require.NoError(t, ledger.AddEarning(salary("2000.00")))

	s, err := ledger.Compute()
	require.NoError(t, err)

	// 9% bracket: 180; withholding base 1820 still exempt
	assertDecimal(t, "180", s.SocialSecurity.Amount(), "social security")
	assert.Equal(t, "9.00", s.Items[1].Details().Reference)
	assertDecimal(t, "1820", s.NetAmount, "net")
}

func TestCompute_WithholdingLineAppended(t *testing.T) {
	ledger := newLedger(t, "2017-01")
	require.NoError(t, ledger.AddEarning(salary("5000.00")))

	s, err := ledger.Compute()
	require.NoError(t, err)

	require.Len(t, s.Items, 3)
	wh := s.Items[2].Details()
	assert.Equal(t, "999", wh.Code)
	assert.Equal(t, "IMPOSTO DE RENDA", wh.Description)
	assert.Equal(t, "22.50", wh.Reference)
	assertDecimal(t, "365.12", wh.Amount, "withholding line")

	assertDecimal(t, "915.12", s.TotalDeductions, "total deductions")
	assertDecimal(t, "4084.88", s.NetAmount, "net")
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestCompute_FundNeverAffectsNet(t *testing.T) {
	// GIVEN: Earnings summing to 5000 with every flag set, no deductions
	ledger := newLedger(t, "2017-01")
	require.NoError(t, ledger.AddEarning(salary("3000.00")))
	require.NoError(t, ledger.AddEarning(payslip.NewEarning("0150", "OVERTIME", "10h", dec("2000.00"))))

	s, err := ledger.Compute()
	require.NoError(t, err)

	// THEN: net = E - social security - withholding, fund is not a line
	assertDecimal(t, "5000", s.TotalEarnings, "total earnings")
	assertDecimal(t, "400", s.Fund.Amount(), "fund")
	expected := dec("5000").Sub(s.SocialSecurity.Amount()).Sub(s.Withholding.Amount())
	assert.True(t, expected.Equal(s.NetAmount), "net %s, expected %s", s.NetAmount, expected)

	for _, item := range s.Items {
		assert.NotEqual(t, s.Fund.Amount().String(), item.Details().Amount.String())
	}
}

func TestCompute_NoWithholdingLineWhenDependentsExhaustBase(t *testing.T) {
	ledger := newLedger(t, "2017-01")
	require.NoError(t, ledger.AddEarning(salary("5000.00")))
	require.NoError(t, ledger.SetDependents(15))

	s, err := ledger.Compute()
	require.NoError(t, err)

	assert.True(t, s.Withholding.Amount().IsNegative())
	require.Len(t, s.Deductions(), 1, "only the social-security line")
	assert.Equal(t, "998", s.Deductions()[0].Code)
	assertDecimal(t, "4450", s.NetAmount, "net")
}

func TestCompute_InclusionFlagsSelectBases(t *testing.T) {
	// GIVEN: A regular salary and an allowance outside fund/social security
	ledger := newLedger(t, "2017-01")
	require.NoError(t, ledger.AddEarning(salary("3000.00")))
	require.NoError(t, ledger.AddEarning(payslip.NewEarning("0300", "ALLOWANCE", "", dec("1000.00"),
		payslip.WithoutFund(), payslip.WithoutSocialSecurity())))

	s, err := ledger.Compute()
	require.NoError(t, err)

	assertDecimal(t, "3000", s.Bases.Fund, "fund base")
	assertDecimal(t, "3000", s.Bases.SocialSecurity, "social security base")
	assertDecimal(t, "4000", s.Bases.Withholding, "withholding base")

	// The ledger's contribution line uses its own base...
	assertDecimal(t, "330", s.SocialSecurity.Amount(), "social security")
	// ...while withholding recomputes the contribution over 4000 (440):
	// base 3560 -> 15%, parcel 354.80 -> 179.20
	assertDecimal(t, "440", s.Withholding.SocialSecurity().Amount(), "internal social security")
	assertDecimal(t, "179.20", s.Withholding.Amount(), "withholding")

	assertDecimal(t, "4000", s.TotalEarnings, "total earnings")
	assertDecimal(t, "509.20", s.TotalDeductions, "total deductions")
	assertDecimal(t, "3490.80", s.NetAmount, "net")
}

func TestCompute_WithholdingOnlyEarning(t *testing.T) {
	ledger := newLedger(t, "2017-01")
	require.NoError(t, ledger.AddEarning(salary("1000.00", payslip.WithoutFund(), payslip.WithoutSocialSecurity(), payslip.WithoutWithholding())))

	s, err := ledger.Compute()
	require.NoError(t, err)

	assertDecimal(t, "0", s.Fund.Amount(), "fund")
	assertDecimal(t, "0", s.SocialSecurity.Amount(), "social security")
	assert.Empty(t, s.Deductions())
	assertDecimal(t, "1000", s.NetAmount, "net")
}

func TestCompute_CallerDeductionsCountInTotalsNotBases(t *testing.T) {
	ledger := newLedger(t, "2017-01")
	require.NoError(t, ledger.AddEarning(salary("5000.00")))
	require.NoError(t, ledger.AddDeduction(payslip.NewDeduction("0500", "TRANSPORT", "6%", dec("300.00"))))

	s, err := ledger.Compute()
	require.NoError(t, err)

	assertDecimal(t, "5000", s.Bases.Withholding, "withholding base")
	assertDecimal(t, "1215.12", s.TotalDeductions, "total deductions")
	assertDecimal(t, "3784.88", s.NetAmount, "net")

	// Caller's deduction keeps its place, tax lines follow
	deductions := s.Deductions()
	require.Len(t, deductions, 3)
	assert.Equal(t, []string{"0500", "998", "999"},
		[]string{deductions[0].Code, deductions[1].Code, deductions[2].Code})
}

// =============================================================================
// BASE SALARY
// =============================================================================

func TestBaseSalary_DefaultsToFirstEarning(t *testing.T) {
	ledger := newLedger(t, "2017-01")
	require.NoError(t, ledger.AddDeduction(payslip.NewDeduction("0500", "ADVANCE", "", dec("100.00"))))
	require.NoError(t, ledger.AddEarning(salary("1500.00")))
	require.NoError(t, ledger.AddEarning(payslip.NewEarning("0150", "OVERTIME", "", dec("700.00"))))

	s, err := ledger.Compute()
	require.NoError(t, err)
	assertDecimal(t, "1500", s.BaseSalary, "base salary")
}

func TestBaseSalary_ExplicitOverrideWins(t *testing.T) {
	ledger := newLedger(t, "2017-01")
	require.NoError(t, ledger.AddEarning(salary("1500.00")))
	require.NoError(t, ledger.SetBaseSalary(dec("1800.00")))

	s, err := ledger.Compute()
	require.NoError(t, err)
	assertDecimal(t, "1800", s.BaseSalary, "base salary")
}

func TestBaseSalary_ExplicitWithoutEarnings(t *testing.T) {
	ledger := newLedger(t, "2017-01")
	require.NoError(t, ledger.SetBaseSalary(dec("1800.00")))

	s, err := ledger.Compute()
	require.NoError(t, err)
	assertDecimal(t, "0", s.TotalEarnings, "total earnings")
	assert.Empty(t, s.Items)
}

func TestCompute_MissingBaseSalary(t *testing.T) {
	ledger := newLedger(t, "2017-01")
	require.NoError(t, ledger.AddDeduction(payslip.NewDeduction("0500", "ADVANCE", "", dec("100.00"))))

	s, err := ledger.Compute()
	assert.Nil(t, s)
	assert.ErrorIs(t, err, generic.ErrMissingRequiredContext)

	var mc *generic.MissingContextError
	require.ErrorAs(t, err, &mc)
	assert.Contains(t, mc.What, "base salary")
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestCompute_SecondCallRejected(t *testing.T) {
	// GIVEN: A computed ledger
	ledger := newLedger(t, "2017-01")
	require.NoError(t, ledger.AddEarning(salary("5000.00")))
	first, err := ledger.Compute()
	require.NoError(t, err)

	// WHEN: Computing again
	again, err := ledger.Compute()

	// THEN: Rejected, no duplicated tax lines, first result untouched
	assert.Nil(t, again)
	assert.ErrorIs(t, err, generic.ErrInvalidState)
	assert.Len(t, ledger.Items(), 3)
	assert.Same(t, first, ledger.Summary())
	assertDecimal(t, "915.12", ledger.Summary().TotalDeductions, "total deductions")
}

func TestLedger_ReadOnlyAfterCompute(t *testing.T) {
	ledger := newLedger(t, "2017-01")
	require.NoError(t, ledger.AddEarning(salary("2000.00")))
	_, err := ledger.Compute()
	require.NoError(t, err)

	assert.ErrorIs(t, ledger.AddEarning(salary("1.00")), generic.ErrInvalidState)
	assert.ErrorIs(t, ledger.AddDeduction(payslip.NewDeduction("1", "X", "", dec("1"))), generic.ErrInvalidState)
	assert.ErrorIs(t, ledger.SetBaseSalary(dec("1")), generic.ErrInvalidState)
	assert.ErrorIs(t, ledger.SetDependents(1), generic.ErrInvalidState)
	assert.ErrorIs(t, ledger.SetEmployee(payslip.Employee{Name: "X"}), generic.ErrInvalidState)
	assert.ErrorIs(t, ledger.SetSocialSecurityLine("1", "X"), generic.ErrInvalidState)
	assert.ErrorIs(t, ledger.SetWithholdingLine("1", "X"), generic.ErrInvalidState)
}

func TestCompute_FailureAppendsNothing(t *testing.T) {
	// GIVEN: A competency after the last social-security window
	ledger := newLedger(t, "2018-01")
	require.NoError(t, ledger.AddEarning(salary("5000.00")))

	// WHEN
	s, err := ledger.Compute()

	// THEN: Nothing synthesized, no summary
	assert.Nil(t, s)
	assert.ErrorIs(t, err, generic.ErrNoApplicableTable)
	assert.Len(t, ledger.Items(), 1)
	assert.Nil(t, ledger.Summary())

	// The ledger is still writable
	assert.NoError(t, ledger.AddEarning(salary("1.00")))
}

func TestSetDependents_Negative(t *testing.T) {
	ledger := newLedger(t, "2017-01")
	assert.ErrorIs(t, ledger.SetDependents(-2), generic.ErrInvalidDependents)
	assert.Equal(t, 0, ledger.Dependents())
}

// =============================================================================
// PRESENTATION CONTEXT
// =============================================================================

func TestCompute_CustomLineIdentities(t *testing.T) {
	ledger := newLedger(t, "2017-01")
	require.NoError(t, ledger.AddEarning(salary("5000.00")))
	require.NoError(t, ledger.SetSocialSecurityLine("901", "SOCIAL SECURITY"))
	require.NoError(t, ledger.SetWithholdingLine("902", "INCOME TAX"))

	s, err := ledger.Compute()
	require.NoError(t, err)

	deductions := s.Deductions()
	require.Len(t, deductions, 2)
	assert.Equal(t, "901", deductions[0].Code)
	assert.Equal(t, "SOCIAL SECURITY", deductions[0].Description)
	assert.Equal(t, "902", deductions[1].Code)
	assert.Equal(t, "INCOME TAX", deductions[1].Description)
}

func TestSummary_DisplayOrderAndPassThrough(t *testing.T) {
	employee := payslip.Employee{Name: "Maria Silva", Code: "0042", Role: "Analyst", Occupation: "2521-05", Admission: "2015-03-02"}

	ledger := newLedger(t, "2017-01")
	require.NoError(t, ledger.SetEmployee(employee))
	require.NoError(t, ledger.AddDeduction(payslip.NewDeduction("0500", "ADVANCE", "", dec("100.00"))))
	require.NoError(t, ledger.AddEarning(salary("2000.00")))
	require.NoError(t, ledger.AddEarning(payslip.NewEarning("0150", "OVERTIME", "", dec("100.00"))))

	s, err := ledger.Compute()
	require.NoError(t, err)

	assert.Equal(t, employee, s.Employee)
	assert.Equal(t, "2017-01", s.Period.String())

	var codes []string
	for _, item := range s.DisplayItems() {
		codes = append(codes, item.Details().Code)
	}
	assert.Equal(t, []string{"0001", "0150", "0500", "998"}, codes)

	results := s.Taxes()
	require.Len(t, results, 3)
	assert.True(t, results[0].Amount().Equal(s.Fund.Amount()))
	assert.True(t, results[2].Base().Equal(s.Withholding.Base()))
}
