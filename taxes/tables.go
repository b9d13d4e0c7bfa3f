package taxes

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// COMPILED-IN STATUTORY TABLES
// =============================================================================
// Social security: monthly contribution table, one window per calendar year.
// Withholding: monthly incidence table and per-dependent deduction, windows
// ending when the published values changed. The last window is bounded at
// 2031-09.
//
// Lookup compares year and month separately (CompetencyPeriod.CoveredBy), so
// a bound only covers months up to its own month number in every year:
//   - October to December of 2016 through 2031 match no withholding or
//     dependent-deduction window (10..12 > 09).
//   - Periods after 2017-12 have no social-security window.
// Both fail with ErrNoApplicableTable unless other tables are supplied
// through the factory package.

const (
	TableSocialSecurity     = "social security"
	TableWithholding        = "withholding"
	TableDependentDeduction = "dependent deduction"
)

func rateRow(rate, ceiling string) RateBracket {
	return RateBracket{Rate: generic.MustDecimal(rate), Ceiling: generic.MustDecimal(ceiling)}
}

func rateWindow(until string, rows ...RateBracket) generic.EffectiveEntry[RateTable] {
	table := RateTable(rows)
	if err := table.Validate(); err != nil {
		panic(err)
	}
	return generic.EffectiveEntry[RateTable]{Until: mustPeriod(until), Value: table}
}

func exemptRow(upper string) WithholdingBracket {
	return WithholdingBracket{UpperBound: Bounded(upper), Rate: Exempt}
}

func taxRow(rate, upper, parcel string) WithholdingBracket {
	return WithholdingBracket{UpperBound: Bounded(upper), Rate: Rated(rate), DeductibleParcel: generic.MustDecimal(parcel)}
}

func topRow(rate, parcel string) WithholdingBracket {
	return WithholdingBracket{UpperBound: Unbounded, Rate: Rated(rate), DeductibleParcel: generic.MustDecimal(parcel)}
}

func taxWindow(until string, rows ...WithholdingBracket) generic.EffectiveEntry[WithholdingTable] {
	table := WithholdingTable(rows)
	if err := table.Validate(); err != nil {
		panic(err)
	}
	return generic.EffectiveEntry[WithholdingTable]{Until: mustPeriod(until), Value: table}
}

func deductionWindow(until, amount string) generic.EffectiveEntry[decimal.Decimal] {
	return generic.EffectiveEntry[decimal.Decimal]{Until: mustPeriod(until), Value: generic.MustDecimal(amount)}
}

func mustPeriod(s string) generic.CompetencyPeriod {
	p, err := generic.ParseCompetency(s)
	if err != nil {
		panic(err)
	}
	return p
}

// DefaultSocialSecurityTables returns the compiled-in contribution tables.
func DefaultSocialSecurityTables() *generic.EffectiveDatedTable[RateTable] {
	return generic.MustEffectiveDatedTable(TableSocialSecurity,
		rateWindow("2012-12",
			rateRow("0.08", "1174.86"),
			rateRow("0.09", "1958.10"),
			rateRow("0.11", "3916.20"),
		),
		rateWindow("2013-12",
			rateRow("0.08", "1247.70"),
			rateRow("0.09", "2079.50"),
			rateRow("0.11", "4159.00"),
		),
		rateWindow("2014-12",
			rateRow("0.08", "1317.07"),
			rateRow("0.09", "2195.12"),
			rateRow("0.11", "4390.24"),
		),
		rateWindow("2015-12",
			rateRow("0.08", "1399.12"),
			rateRow("0.09", "2331.88"),
			rateRow("0.11", "4663.75"),
		),
		rateWindow("2016-12",
			rateRow("0.08", "1556.94"),
			rateRow("0.09", "2594.92"),
			rateRow("0.11", "5189.82"),
		),
		rateWindow("2017-12",
			rateRow("0.08", "1659.38"),
			rateRow("0.09", "2765.66"),
			rateRow("0.11", "5531.31"),
		),
	)
}

// DefaultWithholdingTables returns the compiled-in income-tax tables.
func DefaultWithholdingTables() *generic.EffectiveDatedTable[WithholdingTable] {
	return generic.MustEffectiveDatedTable(TableWithholding,
		taxWindow("2006-01",
			exemptRow("1164.00"),
			taxRow("0.150", "2326.00", "174.60"),
			topRow("0.275", "465.35"),
		),
		taxWindow("2006-12",
			exemptRow("1257.12"),
			taxRow("0.150", "2512.08", "188.57"),
			topRow("0.275", "502.58"),
		),
		taxWindow("2007-12",
			exemptRow("1313.69"),
			taxRow("0.150", "2625.12", "197.05"),
			topRow("0.275", "525.19"),
		),
		taxWindow("2008-12",
			exemptRow("1372.81"),
			taxRow("0.150", "2743.25", "205.92"),
			topRow("0.275", "548.82"),
		),
		taxWindow("2009-12",
			exemptRow("1434.59"),
			taxRow("0.075", "2150.00", "107.59"),
			taxRow("0.150", "2866.70", "268.84"),
			taxRow("0.225", "3582.00", "483.84"),
			topRow("0.275", "662.94"),
		),
		taxWindow("2011-03",
			exemptRow("1499.15"),
			taxRow("0.075", "2246.75", "112.43"),
			taxRow("0.150", "2995.70", "280.94"),
			taxRow("0.225", "3743.19", "505.62"),
			topRow("0.275", "692.78"),
		),
		taxWindow("2011-12",
			exemptRow("1566.61"),
			taxRow("0.075", "2347.85", "117.49"),
			taxRow("0.150", "3130.51", "293.58"),
			taxRow("0.225", "3911.63", "528.37"),
			topRow("0.275", "723.95"),
		),
		taxWindow("2012-12",
			exemptRow("1637.11"),
			taxRow("0.075", "2453.50", "122.78"),
			taxRow("0.150", "3271.38", "306.80"),
			taxRow("0.225", "4087.65", "552.15"),
			topRow("0.275", "756.53"),
		),
		taxWindow("2013-12",
			exemptRow("1710.78"),
			taxRow("0.075", "2563.91", "128.31"),
			taxRow("0.150", "3418.59", "320.60"),
			taxRow("0.225", "4271.59", "577.00"),
			topRow("0.275", "790.58"),
		),
		taxWindow("2015-03",
			exemptRow("1787.77"),
			taxRow("0.075", "2679.29", "134.08"),
			taxRow("0.150", "3572.43", "335.03"),
			taxRow("0.225", "4463.81", "602.96"),
			topRow("0.275", "826.15"),
		),
		taxWindow("2031-09",
			exemptRow("1903.98"),
			taxRow("0.075", "2826.65", "142.80"),
			taxRow("0.150", "3751.05", "354.80"),
			taxRow("0.225", "4664.68", "636.13"),
			topRow("0.275", "869.36"),
		),
	)
}

// DefaultDependentDeductions returns the compiled-in per-dependent deduction.
func DefaultDependentDeductions() *generic.EffectiveDatedTable[decimal.Decimal] {
	return generic.MustEffectiveDatedTable(TableDependentDeduction,
		deductionWindow("2007-12", "132.05"),
		deductionWindow("2008-12", "137.99"),
		deductionWindow("2009-12", "144.20"),
		deductionWindow("2011-03", "150.69"),
		deductionWindow("2011-12", "157.47"),
		deductionWindow("2012-12", "164.56"),
		deductionWindow("2013-12", "171.97"),
		deductionWindow("2015-03", "179.71"),
		deductionWindow("2031-09", "189.59"),
	)
}
