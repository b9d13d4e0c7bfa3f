/*
Package factory converts rate-table documents into taxes.Schedule values.

PURPOSE:
  The compiled-in statutory tables end where the payroll history ended.
  New competencies need new tables, and they should not need a release:
  the factory reads a YAML or JSON document describing the tables and builds
  the same effective-dated structures taxes.DefaultSchedule() builds.

DOCUMENT SCHEMA (YAML; JSON uses the same keys):
  fund_rate: "0.08"
  social_security_policy: last_match      # or first_match
  social_security:
    - until: "2018-12"
      brackets:
        - {rate: "0.08", ceiling: "1693.72"}
        - {rate: "0.09", ceiling: "2822.90"}
        - {rate: "0.11", ceiling: "5645.80"}
  withholding:
    - until: "2031-09"
      brackets:
        - {upper_bound: "1903.98"}                                   # exempt
        - {upper_bound: "2826.65", rate: "0.075", deductible_parcel: "142.80"}
        - {rate: "0.275", deductible_parcel: "869.36"}               # top
  dependent_deduction:
    - {until: "2031-09", amount: "189.59"}

  Amounts are decimal strings. Unquoted YAML numbers are accepted too.
  A section left out of the document falls back to the compiled-in tables.

VALIDATION:
  - "until" must be a YYYY-MM competency, windows strictly ascending
  - Every window has at least one bracket
  - Withholding: last row unbounded, every other row bounded, ascending
  - Rates are non-negative
  Failures wrap generic.ErrInvalidTable.

USAGE:
  factory := NewScheduleFactory()

  schedule, err := factory.LoadFile("config/tables.yaml")

  // Publish the active tables (GET /api/tables)
  doc := factory.Export(schedule)

SEE ALSO:
  - taxes/tables.go: Compiled-in tables
  - taxes/schedule.go: Schedule
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/taxes"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// ScheduleDocument is the serialized form of a taxes.Schedule.
type ScheduleDocument struct {
	FundRate             string              `json:"fund_rate,omitempty" yaml:"fund_rate,omitempty"`
	SocialSecurityPolicy string              `json:"social_security_policy,omitempty" yaml:"social_security_policy,omitempty"`
	SocialSecurity       []RateWindow        `json:"social_security,omitempty" yaml:"social_security,omitempty"`
	Withholding          []WithholdingWindow `json:"withholding,omitempty" yaml:"withholding,omitempty"`
	DependentDeduction   []DeductionWindow   `json:"dependent_deduction,omitempty" yaml:"dependent_deduction,omitempty"`
}

// RateWindow is one social-security table and the last competency it covers.
type RateWindow struct {
	Until    string    `json:"until" yaml:"until"`
	Brackets []RateRow `json:"brackets" yaml:"brackets"`
}

// RateRow is one social-security bracket.
type RateRow struct {
	Rate    string `json:"rate" yaml:"rate"`
	Ceiling string `json:"ceiling" yaml:"ceiling"`
}

// WithholdingWindow is one income-tax table and the last competency it covers.
type WithholdingWindow struct {
	Until    string           `json:"until" yaml:"until"`
	Brackets []WithholdingRow `json:"brackets" yaml:"brackets"`
}

// WithholdingRow is one income-tax bracket. An empty UpperBound marks the top
// row; an empty Rate marks the exempt row.
type WithholdingRow struct {
	UpperBound       string `json:"upper_bound,omitempty" yaml:"upper_bound,omitempty"`
	Rate             string `json:"rate,omitempty" yaml:"rate,omitempty"`
	DeductibleParcel string `json:"deductible_parcel,omitempty" yaml:"deductible_parcel,omitempty"`
}

// DeductionWindow is the per-dependent deduction up to a competency.
type DeductionWindow struct {
	Until  string `json:"until" yaml:"until"`
	Amount string `json:"amount" yaml:"amount"`
}

// =============================================================================
// SCHEDULE FACTORY
// =============================================================================

// ScheduleFactory converts documents to schedules and back.
type ScheduleFactory struct{}

// NewScheduleFactory creates a new schedule factory.
func NewScheduleFactory() *ScheduleFactory {
	return &ScheduleFactory{}
}

// DecodeYAML parses a YAML document.
func (f *ScheduleFactory) DecodeYAML(data []byte) (ScheduleDocument, error) {
	var doc ScheduleDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return ScheduleDocument{}, fmt.Errorf("failed to parse tables YAML: %w", err)
	}
	return doc, nil
}

// DecodeJSON parses a JSON document.
func (f *ScheduleFactory) DecodeJSON(data []byte) (ScheduleDocument, error) {
	var doc ScheduleDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return ScheduleDocument{}, fmt.Errorf("failed to parse tables JSON: %w", err)
	}
	return doc, nil
}

// ReadFile decodes a document from disk. ".json" files are read as JSON,
// anything else as YAML.
func (f *ScheduleFactory) ReadFile(path string) (ScheduleDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ScheduleDocument{}, fmt.Errorf("failed to read tables file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return f.DecodeJSON(data)
	}
	return f.DecodeYAML(data)
}

// LoadFile reads a document from disk and builds its schedule.
func (f *ScheduleFactory) LoadFile(path string) (*taxes.Schedule, error) {
	doc, err := f.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return f.Build(doc)
}

// ParseYAML decodes and builds in one step.
func (f *ScheduleFactory) ParseYAML(data []byte) (*taxes.Schedule, error) {
	doc, err := f.DecodeYAML(data)
	if err != nil {
		return nil, err
	}
	return f.Build(doc)
}

// Build converts a document into a schedule. Omitted sections use the
// compiled-in tables.
func (f *ScheduleFactory) Build(doc ScheduleDocument) (*taxes.Schedule, error) {
	fundRate := taxes.DefaultFundRate
	if doc.FundRate != "" {
		rate, err := parseRate("fund", doc.FundRate)
		if err != nil {
			return nil, err
		}
		fundRate = rate
	}

	policy, err := taxes.ParseBracketPolicy(doc.SocialSecurityPolicy)
	if err != nil {
		return nil, &generic.TableError{Table: taxes.TableSocialSecurity, Reason: err.Error()}
	}

	social := taxes.DefaultSocialSecurityTables()
	if len(doc.SocialSecurity) > 0 {
		if social, err = buildSocialSecurity(doc.SocialSecurity); err != nil {
			return nil, err
		}
	}

	withholding := taxes.DefaultWithholdingTables()
	if len(doc.Withholding) > 0 {
		if withholding, err = buildWithholding(doc.Withholding); err != nil {
			return nil, err
		}
	}

	dependents := taxes.DefaultDependentDeductions()
	if len(doc.DependentDeduction) > 0 {
		if dependents, err = buildDeductions(doc.DependentDeduction); err != nil {
			return nil, err
		}
	}

	return taxes.NewSchedule(fundRate, social, policy, withholding, dependents), nil
}

// Export converts a schedule into a complete document.
func (f *ScheduleFactory) Export(s *taxes.Schedule) ScheduleDocument {
	policy := s.SocialSecurity.Policy
	if policy == "" {
		policy = taxes.PolicyLastMatch
	}

	doc := ScheduleDocument{
		FundRate:             s.Fund.Rate.String(),
		SocialSecurityPolicy: string(policy),
	}

	for _, e := range s.SocialSecurity.Tables.Entries() {
		w := RateWindow{Until: e.Until.String()}
		for _, b := range e.Value {
			w.Brackets = append(w.Brackets, RateRow{Rate: b.Rate.String(), Ceiling: b.Ceiling.String()})
		}
		doc.SocialSecurity = append(doc.SocialSecurity, w)
	}

	for _, e := range s.Withholding.Brackets.Entries() {
		w := WithholdingWindow{Until: e.Until.String()}
		for _, b := range e.Value {
			var row WithholdingRow
			if b.UpperBound.Valid {
				row.UpperBound = b.UpperBound.Decimal.String()
			}
			if b.Rate.Valid {
				row.Rate = b.Rate.Decimal.String()
				row.DeductibleParcel = b.DeductibleParcel.String()
			}
			w.Brackets = append(w.Brackets, row)
		}
		doc.Withholding = append(doc.Withholding, w)
	}

	for _, e := range s.Withholding.DependentDeductions.Entries() {
		doc.DependentDeduction = append(doc.DependentDeduction, DeductionWindow{
			Until:  e.Until.String(),
			Amount: e.Value.String(),
		})
	}

	return doc
}

// EncodeYAML serializes a document.
func (f *ScheduleFactory) EncodeYAML(doc ScheduleDocument) ([]byte, error) {
	return yaml.Marshal(doc)
}

// =============================================================================
// BUILD HELPERS
// =============================================================================

func buildSocialSecurity(windows []RateWindow) (*generic.EffectiveDatedTable[taxes.RateTable], error) {
	entries := make([]generic.EffectiveEntry[taxes.RateTable], 0, len(windows))
	for _, w := range windows {
		until, err := parseUntil(taxes.TableSocialSecurity, w.Until)
		if err != nil {
			return nil, err
		}
		table := make(taxes.RateTable, 0, len(w.Brackets))
		for _, row := range w.Brackets {
			rate, err := parseRate(taxes.TableSocialSecurity, row.Rate)
			if err != nil {
				return nil, err
			}
			ceiling, err := parseAmount(taxes.TableSocialSecurity, "ceiling", row.Ceiling)
			if err != nil {
				return nil, err
			}
			table = append(table, taxes.RateBracket{Rate: rate, Ceiling: ceiling})
		}
		if err := table.Validate(); err != nil {
			return nil, fmt.Errorf("window until %s: %w", w.Until, err)
		}
		entries = append(entries, generic.EffectiveEntry[taxes.RateTable]{Until: until, Value: table})
	}
	return generic.NewEffectiveDatedTable(taxes.TableSocialSecurity, entries...)
}

func buildWithholding(windows []WithholdingWindow) (*generic.EffectiveDatedTable[taxes.WithholdingTable], error) {
	entries := make([]generic.EffectiveEntry[taxes.WithholdingTable], 0, len(windows))
	for _, w := range windows {
		until, err := parseUntil(taxes.TableWithholding, w.Until)
		if err != nil {
			return nil, err
		}
		table := make(taxes.WithholdingTable, 0, len(w.Brackets))
		for _, row := range w.Brackets {
			b, err := buildWithholdingRow(row)
			if err != nil {
				return nil, err
			}
			table = append(table, b)
		}
		if err := table.Validate(); err != nil {
			return nil, fmt.Errorf("window until %s: %w", w.Until, err)
		}
		entries = append(entries, generic.EffectiveEntry[taxes.WithholdingTable]{Until: until, Value: table})
	}
	return generic.NewEffectiveDatedTable(taxes.TableWithholding, entries...)
}

func buildWithholdingRow(row WithholdingRow) (taxes.WithholdingBracket, error) {
	b := taxes.WithholdingBracket{UpperBound: taxes.Unbounded, Rate: taxes.Exempt, DeductibleParcel: decimal.Zero}

	if row.UpperBound != "" {
		upper, err := parseAmount(taxes.TableWithholding, "upper_bound", row.UpperBound)
		if err != nil {
			return b, err
		}
		b.UpperBound = decimal.NewNullDecimal(upper)
	}

	// Exempt row: no rate, parcel ignored.
	if row.Rate == "" {
		return b, nil
	}

	rate, err := parseRate(taxes.TableWithholding, row.Rate)
	if err != nil {
		return b, err
	}
	b.Rate = decimal.NewNullDecimal(rate)

	if row.DeductibleParcel != "" {
		parcel, err := parseAmount(taxes.TableWithholding, "deductible_parcel", row.DeductibleParcel)
		if err != nil {
			return b, err
		}
		b.DeductibleParcel = parcel
	}
	return b, nil
}

func buildDeductions(windows []DeductionWindow) (*generic.EffectiveDatedTable[decimal.Decimal], error) {
	entries := make([]generic.EffectiveEntry[decimal.Decimal], 0, len(windows))
	for _, w := range windows {
		until, err := parseUntil(taxes.TableDependentDeduction, w.Until)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(taxes.TableDependentDeduction, "amount", w.Amount)
		if err != nil {
			return nil, err
		}
		entries = append(entries, generic.EffectiveEntry[decimal.Decimal]{Until: until, Value: amount})
	}
	return generic.NewEffectiveDatedTable(taxes.TableDependentDeduction, entries...)
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseUntil(table, s string) (generic.CompetencyPeriod, error) {
	p, err := generic.ParseCompetency(s)
	if err != nil {
		return generic.CompetencyPeriod{}, &generic.TableError{Table: table, Reason: fmt.Sprintf("until %q: %v", s, err)}
	}
	return p, nil
}

func parseAmount(table, field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, &generic.TableError{Table: table, Reason: fmt.Sprintf("%s %q is not a decimal", field, s)}
	}
	if d.IsNegative() {
		return decimal.Decimal{}, &generic.TableError{Table: table, Reason: fmt.Sprintf("%s %s is negative", field, d)}
	}
	return d, nil
}

func parseRate(table, s string) (decimal.Decimal, error) {
	return parseAmount(table, "rate", s)
}
