package render_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payslip"
	"github.com/warp/payroll-engine/render"
)

func TestDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0,00"},
		{"1780", "1.780,00"},
		{"4084.88", "4.084,88"},
		{"613.3178725", "613,32"},
		{"0.125", "0,12"}, // half-even
		{"0.135", "0,14"}, // half-even
		{"1234567.891", "1.234.567,89"},
		{"999.999", "1.000,00"},
		{"100000", "100.000,00"},
		{"-1234.5", "-1.234,50"},
		{"-0.001", "0,00"},
		// Beyond float64 precision: every digit kept
		{"123456789012345678.125", "123.456.789.012.345.678,12"},
		{"90071992547409.93", "90.071.992.547.409,93"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, render.Decimal(generic.MustDecimal(tt.in)))
		})
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "11,00", render.Percent(generic.MustDecimal("0.11")))
	assert.Equal(t, "27,50", render.Percent(generic.MustDecimal("0.275")))
	assert.Equal(t, "0,00", render.Percent(generic.MustDecimal("0")))
}

func TestReference(t *testing.T) {
	assert.Equal(t, "11,00", render.Reference("11.00"))
	assert.Equal(t, "22,50", render.Reference("22.50"))
	assert.Equal(t, "30", render.Reference("30"))
	assert.Equal(t, "10h", render.Reference("10h"))
	assert.Equal(t, "", render.Reference(""))
}

func TestCompetencyLabel(t *testing.T) {
	assert.Equal(t, "Janeiro de 2017", render.CompetencyLabel(generic.MustCompetencyPeriod("2017", "1")))
	assert.Equal(t, "Março de 2016", render.CompetencyLabel(generic.MustCompetencyPeriod("2016", "03")))
	assert.Equal(t, "Dezembro de 2012", render.CompetencyLabel(generic.MustCompetencyPeriod("2012", "12")))
	assert.Equal(t, "", render.MonthName(time.Month(13)))
}

// =============================================================================
// PDF
// =============================================================================

func computed(t *testing.T, employee payslip.Employee, extraItems int) *payslip.Summary {
	t.Helper()
	ledger := payslip.NewLedger(generic.MustCompetencyPeriod("2017", "01"), nil)
	require.NoError(t, ledger.SetEmployee(employee))
	require.NoError(t, ledger.AddEarning(payslip.NewEarning("0001", "SALÁRIO NORMAL", "30", generic.MustDecimal("5000.00"))))
	for i := 0; i < extraItems; i++ {
		require.NoError(t, ledger.AddDeduction(payslip.NewDeduction("0500", "VALE TRANSPORTE", "6%", generic.MustDecimal("10.00"))))
	}
	s, err := ledger.Compute()
	require.NoError(t, err)
	return s
}

var maria = payslip.Employee{Name: "Maria da Conceição", Code: "0042", Role: "Analista", Occupation: "2521-05", Admission: "02/03/2015"}

func TestRender_PDF(t *testing.T) {
	// GIVEN: A computed payslip with employee identification
	s := computed(t, maria, 0)
	r := render.NewPDFRenderer(render.Options{
		LeftHeader: [3]string{"ACME LTDA", "CNPJ 00.000.000/0001-00", "São Paulo - SP"},
	})

	// WHEN
	data, err := r.RenderBytes(s)

	// THEN
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "PDF header")
	assert.Contains(t, string(data), "%%EOF")
}

func TestRender_ManyItemsSplitsCopies(t *testing.T) {
	s := computed(t, maria, 20)

	var buf bytes.Buffer
	err := render.NewPDFRenderer(render.Options{}).Render(&buf, s)

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestRender_RequiresEmployee(t *testing.T) {
	tests := []struct {
		name     string
		employee payslip.Employee
	}{
		{"no employee", payslip.Employee{}},
		{"no code", payslip.Employee{Name: "Maria"}},
		{"no name", payslip.Employee{Code: "0042"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := computed(t, tt.employee, 0)

			data, err := render.NewPDFRenderer(render.Options{}).RenderBytes(s)

			assert.Nil(t, data)
			assert.ErrorIs(t, err, generic.ErrMissingRequiredContext)
		})
	}
}

func TestRender_NilSummary(t *testing.T) {
	_, err := render.NewPDFRenderer(render.Options{}).RenderBytes(nil)
	assert.ErrorIs(t, err, generic.ErrMissingRequiredContext)
}
