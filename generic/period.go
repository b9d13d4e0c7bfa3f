package generic

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// =============================================================================
// COMPETENCY PERIOD - The (year, month) a payroll calculation applies to
// =============================================================================

// CompetencyPeriod identifies the month a payslip refers to.
// Both components are kept as zero-padded text ("2017", "01") because the
// effective-dated lookup compares them as stored.
//
// Immutable once built. The zero value is not a valid period.
type CompetencyPeriod struct {
	year  string
	month string
}

var yearPattern = regexp.MustCompile(`^[0-9]{4}$`)

var validMonths = map[string]bool{
	"01": true, "02": true, "03": true, "04": true, "05": true, "06": true,
	"07": true, "08": true, "09": true, "10": true, "11": true, "12": true,
}

// NewCompetencyPeriod validates and builds a period.
// yearText must be exactly four digits. monthText is left-padded with zeros
// to two characters and must then be one of "01".."12" ("1" is accepted,
// "001" is not).
func NewCompetencyPeriod(yearText, monthText string) (CompetencyPeriod, error) {
	if !yearPattern.MatchString(yearText) {
		return CompetencyPeriod{}, &InvalidPeriodError{Year: yearText, Month: monthText, Reason: "year must have four digits"}
	}
	month := monthText
	if len(month) < 2 {
		month = strings.Repeat("0", 2-len(month)) + month
	}
	if !validMonths[month] {
		return CompetencyPeriod{}, &InvalidPeriodError{Year: yearText, Month: monthText, Reason: "month must be 01-12"}
	}
	return CompetencyPeriod{year: yearText, month: month}, nil
}

// MustCompetencyPeriod is NewCompetencyPeriod for compiled-in values.
// Panics on invalid input.
func MustCompetencyPeriod(yearText, monthText string) CompetencyPeriod {
	p, err := NewCompetencyPeriod(yearText, monthText)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseCompetency parses the "YYYY-MM" form produced by String.
func ParseCompetency(s string) (CompetencyPeriod, error) {
	year, month, ok := strings.Cut(s, "-")
	if !ok {
		return CompetencyPeriod{}, &InvalidPeriodError{Year: s, Reason: "expected YYYY-MM"}
	}
	return NewCompetencyPeriod(year, month)
}

// CurrentCompetency returns the period containing now.
func CurrentCompetency(now time.Time) CompetencyPeriod {
	return CompetencyPeriod{
		year:  fmt.Sprintf("%04d", now.Year()),
		month: fmt.Sprintf("%02d", int(now.Month())),
	}
}

func (p CompetencyPeriod) Year() string  { return p.year }
func (p CompetencyPeriod) Month() string { return p.month }

// IsZero reports whether p was never built.
func (p CompetencyPeriod) IsZero() bool { return p.year == "" }

// MonthNumber returns the month as 1-12.
func (p CompetencyPeriod) MonthNumber() time.Month {
	var m int
	fmt.Sscanf(p.month, "%d", &m)
	return time.Month(m)
}

// String returns "YYYY-MM".
func (p CompetencyPeriod) String() string {
	return p.year + "-" + p.month
}

// Label returns "MM/YYYY", the neutral competency label for display layers.
func (p CompetencyPeriod) Label() string {
	return p.month + "/" + p.year
}

// CoveredBy reports whether bound is a validity upper bound covering p.
//
// This is the only period comparison the engine performs. Year and month are
// compared independently as text and both must hold, so a request whose year
// is below the bound's year but whose month is above the bound's month is
// NOT covered (2010-05 is not covered by 2011-03). Tables rely on this exact
// rule; do not replace it with a calendar comparison.
func (p CompetencyPeriod) CoveredBy(bound CompetencyPeriod) bool {
	return p.year <= bound.year && p.month <= bound.month
}

// before is a true chronological ordering, used only to validate that table
// bounds are stored ascending.
func (p CompetencyPeriod) before(q CompetencyPeriod) bool {
	if p.year != q.year {
		return p.year < q.year
	}
	return p.month < q.month
}
