// Package render turns a computed payslip.Summary into printable output.
//
// All rounding happens here: amounts are rounded half-even to two places and
// formatted with Brazilian separators ("1.234,56"). The engine's numbers stay
// exact up to this point.
package render

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var groupSeparator, decimalSeparator = separators(message.NewPrinter(language.BrazilianPortuguese))

// separators reads the locale's grouping and decimal marks off a formatted
// sample ("1.234.567,5" in pt-BR).
func separators(p *message.Printer) (group, dec string) {
	sample := []rune(p.Sprint(number.Decimal(1234567.5, number.Scale(1))))
	return string(sample[1]), string(sample[len(sample)-2])
}

// Decimal formats an amount as pt-BR text with two decimal places. The
// digits come from the decimal itself; no float conversion is involved.
func Decimal(d decimal.Decimal) string {
	text := d.RoundBank(2).StringFixed(2)

	sign := ""
	if strings.HasPrefix(text, "-") {
		sign, text = "-", text[1:]
	}
	intPart, fracPart, _ := strings.Cut(text, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(groupSeparator)
		}
		b.WriteRune(digit)
	}
	b.WriteString(decimalSeparator)
	b.WriteString(fracPart)
	return b.String()
}

// Percent formats a rate as a percentage without the sign: 0.11 -> "11,00".
func Percent(rate decimal.Decimal) string {
	return Decimal(rate.Mul(decimal.NewFromInt(100)))
}

var plainReference = regexp.MustCompile(`^-?[0-9]+\.[0-9]{2}$`)

// Reference localizes a line reference when it is plain decimal text
// ("11.00" -> "11,00"). Anything else ("30", "10h", "6%") is shown as is.
func Reference(ref string) string {
	if !plainReference.MatchString(ref) {
		return ref
	}
	d, err := decimal.NewFromString(ref)
	if err != nil {
		return ref
	}
	return Decimal(d)
}

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthName returns the Portuguese month name.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// CompetencyLabel returns the printed competency: "Janeiro de 2017".
func CompetencyLabel(p generic.CompetencyPeriod) string {
	return MonthName(p.MonthNumber()) + " de " + p.Year()
}
