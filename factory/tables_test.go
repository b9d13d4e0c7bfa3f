package factory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/taxes"
)

const tables2018 = `
fund_rate: "0.08"
social_security_policy: first_match
social_security:
  - until: "2018-12"
    brackets:
      - {rate: "0.08", ceiling: "1693.72"}
      - {rate: "0.09", ceiling: "2822.90"}
      - {rate: "0.11", ceiling: "5645.80"}
`

func TestParseYAML_NewSocialSecurityWindow(t *testing.T) {
	// GIVEN: A document with only a 2018 social-security table
	f := factory.NewScheduleFactory()

	// WHEN
	schedule, err := f.ParseYAML([]byte(tables2018))
	require.NoError(t, err)

	// THEN: 2018 resolves under first-match
	p := generic.MustCompetencyPeriod("2018", "03")
	r, err := schedule.SocialSecurity.Calculate(generic.MustDecimal("2000"), p)
	require.NoError(t, err)
	assert.True(t, generic.MustDecimal("0.09").Equal(r.Rate()))
	assert.True(t, generic.MustDecimal("180").Equal(r.Amount()))
	assert.Equal(t, taxes.PolicyFirstMatch, r.Policy())

	// Withholding falls back to the compiled-in tables
	wh, err := schedule.Withholding.Calculate(generic.MustDecimal("2000"), p, 0)
	require.NoError(t, err)
	assert.True(t, wh.Exempt())

	// The document replaced the social-security section: 2017 is gone
	_, err = schedule.SocialSecurity.Calculate(generic.MustDecimal("2000"), generic.MustCompetencyPeriod("2019", "01"))
	assert.ErrorIs(t, err, generic.ErrNoApplicableTable)
}

func TestParseYAML_UnquotedNumbers(t *testing.T) {
	doc := `
fund_rate: 0.085
dependent_deduction:
  - {until: "2031-09", amount: 200}
`
	schedule, err := factory.NewScheduleFactory().ParseYAML([]byte(doc))
	require.NoError(t, err)

	assert.True(t, generic.MustDecimal("0.085").Equal(schedule.Fund.Rate))
	entries := schedule.Withholding.DependentDeductions.Entries()
	require.Len(t, entries, 1)
	assert.True(t, generic.MustDecimal("200").Equal(entries[0].Value))
}

func TestBuild_EmptyDocumentIsDefault(t *testing.T) {
	schedule, err := factory.NewScheduleFactory().Build(factory.ScheduleDocument{})
	require.NoError(t, err)

	p := generic.MustCompetencyPeriod("2017", "01")
	r, err := schedule.SocialSecurity.Calculate(generic.MustDecimal("2000"), p)
	require.NoError(t, err)
	assert.True(t, generic.MustDecimal("220").Equal(r.Amount()))
	assert.Equal(t, taxes.PolicyLastMatch, r.Policy())
}

func TestExport_RoundTripsDefaults(t *testing.T) {
	// GIVEN: The compiled-in schedule exported as a document
	f := factory.NewScheduleFactory()
	doc := f.Export(taxes.DefaultSchedule())

	assert.Equal(t, "0.08", doc.FundRate)
	assert.Equal(t, "last_match", doc.SocialSecurityPolicy)
	assert.NotEmpty(t, doc.SocialSecurity)
	assert.Equal(t, "2031-09", doc.Withholding[len(doc.Withholding)-1].Until)

	// Exempt and top rows serialize with empty fields
	first := doc.Withholding[0].Brackets[0]
	assert.Empty(t, first.Rate)
	assert.NotEmpty(t, first.UpperBound)
	top := doc.Withholding[0].Brackets[len(doc.Withholding[0].Brackets)-1]
	assert.Empty(t, top.UpperBound)

	// WHEN: Serialized, parsed and rebuilt
	data, err := f.EncodeYAML(doc)
	require.NoError(t, err)
	rebuilt, err := f.ParseYAML(data)
	require.NoError(t, err)

	// THEN: Same results as the compiled-in schedule
	p := generic.MustCompetencyPeriod("2017", "01")
	want, err := taxes.DefaultSchedule().Withholding.Calculate(generic.MustDecimal("6000"), p, 2)
	require.NoError(t, err)
	got, err := rebuilt.Withholding.Calculate(generic.MustDecimal("6000"), p, 2)
	require.NoError(t, err)
	assert.True(t, want.Amount().Equal(got.Amount()), "want %s, got %s", want.Amount(), got.Amount())
	assert.Equal(t, doc, f.Export(rebuilt))
}

func TestDecodeJSON(t *testing.T) {
	doc := `{
		"withholding": [{
			"until": "2031-09",
			"brackets": [
				{"upper_bound": "2000.00"},
				{"rate": "0.10", "deductible_parcel": "200"}
			]
		}]
	}`
	f := factory.NewScheduleFactory()
	parsed, err := f.DecodeJSON([]byte(doc))
	require.NoError(t, err)

	schedule, err := f.Build(parsed)
	require.NoError(t, err)

	// 5000 - 550 = 4450; 4450 * 0.10 - 200 = 245
	wh, err := schedule.Withholding.Calculate(generic.MustDecimal("5000"), generic.MustCompetencyPeriod("2017", "01"), 0)
	require.NoError(t, err)
	assert.True(t, generic.MustDecimal("245").Equal(wh.Amount()), "got %s", wh.Amount())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	f := factory.NewScheduleFactory()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "tables.yaml")
		require.NoError(t, os.WriteFile(path, []byte(tables2018), 0o600))

		schedule, err := f.LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, taxes.PolicyFirstMatch, schedule.SocialSecurity.Policy)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "tables.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"fund_rate":"0.07"}`), 0o600))

		schedule, err := f.LoadFile(path)
		require.NoError(t, err)
		assert.True(t, generic.MustDecimal("0.07").Equal(schedule.Fund.Rate))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := f.LoadFile(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestBuild_RejectsMalformedTables(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "bad decimal",
			doc: `
social_security:
  - until: "2018-12"
    brackets: [{rate: "abc", ceiling: "1000"}]`,
		},
		{
			name: "negative ceiling",
			doc: `
social_security:
  - until: "2018-12"
    brackets: [{rate: "0.08", ceiling: "-1"}]`,
		},
		{
			name: "bad until",
			doc: `
dependent_deduction:
  - {until: "2018/12", amount: "100"}`,
		},
		{
			name: "windows out of order",
			doc: `
dependent_deduction:
  - {until: "2019-12", amount: "100"}
  - {until: "2018-12", amount: "110"}`,
		},
		{
			name: "empty window",
			doc: `
social_security:
  - until: "2018-12"
    brackets: []`,
		},
		{
			name: "bounded top withholding row",
			doc: `
withholding:
  - until: "2031-09"
    brackets:
      - {upper_bound: "1000"}
      - {upper_bound: "2000", rate: "0.1", deductible_parcel: "100"}`,
		},
		{
			name: "unknown policy",
			doc:  `social_security_policy: middle_match`,
		},
	}

	f := factory.NewScheduleFactory()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseYAML([]byte(tt.doc))
			assert.ErrorIs(t, err, generic.ErrInvalidTable)
		})
	}
}

func TestParseYAML_Malformed(t *testing.T) {
	_, err := factory.NewScheduleFactory().ParseYAML([]byte("social_security: [unterminated"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, generic.ErrInvalidTable)
}
