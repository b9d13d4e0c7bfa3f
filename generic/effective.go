/*
effective.go - Effective-dated tables

PURPOSE:
  Statutory rates change over time. An EffectiveDatedTable stores one payload
  per validity window, keyed by the window's upper bound (a competency
  period), ordered ascending. Looking up a period returns the payload of the
  FIRST entry whose bound covers it.

LOOKUP RULE:
  An entry covers period (y, m) when y <= boundYear AND m <= boundMonth,
  compared as zero-padded text. See CompetencyPeriod.CoveredBy.

  Bounds: [2012-12, 2013-12]
    2012-12 -> 2012-12 entry (bound is inclusive)
    2013-01 -> 2013-12 entry
    2014-01 -> ErrNoApplicableTable

  With bounds that are not at December the rule skips entries across year
  boundaries: with [2011-03, 2011-12], 2010-05 resolves to 2011-12 even
  though 2011-03 is the chronologically earlier cover.

PAYLOADS:
  Any type. The engine uses slices of bracket rows and plain decimals.
  Tables are read-only after construction and safe to share.
*/
package generic

import "fmt"

// EffectiveEntry is one validity window of an EffectiveDatedTable.
type EffectiveEntry[T any] struct {
	Until CompetencyPeriod
	Value T
}

// EffectiveDatedTable is an ascending sequence of validity windows.
type EffectiveDatedTable[T any] struct {
	name    string
	entries []EffectiveEntry[T]
}

// NewEffectiveDatedTable builds a table. Entries must be non-empty and
// strictly ascending by bound.
func NewEffectiveDatedTable[T any](name string, entries ...EffectiveEntry[T]) (*EffectiveDatedTable[T], error) {
	if len(entries) == 0 {
		return nil, &TableError{Table: name, Reason: "no entries"}
	}
	for i, e := range entries {
		if e.Until.IsZero() {
			return nil, &TableError{Table: name, Reason: fmt.Sprintf("entry %d has no bound", i)}
		}
		if i > 0 && !entries[i-1].Until.before(e.Until) {
			return nil, &TableError{
				Table:  name,
				Reason: fmt.Sprintf("bound %s does not follow %s", e.Until, entries[i-1].Until),
			}
		}
	}
	stored := make([]EffectiveEntry[T], len(entries))
	copy(stored, entries)
	return &EffectiveDatedTable[T]{name: name, entries: stored}, nil
}

// MustEffectiveDatedTable panics if the table is malformed.
// Meant for compiled-in tables.
func MustEffectiveDatedTable[T any](name string, entries ...EffectiveEntry[T]) *EffectiveDatedTable[T] {
	t, err := NewEffectiveDatedTable(name, entries...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name identifies the table in errors.
func (t *EffectiveDatedTable[T]) Name() string { return t.name }

// Lookup returns the payload of the first entry covering period.
func (t *EffectiveDatedTable[T]) Lookup(period CompetencyPeriod) (T, error) {
	for _, e := range t.entries {
		if period.CoveredBy(e.Until) {
			return e.Value, nil
		}
	}
	var zero T
	return zero, &NoApplicableTableError{Table: t.name, Period: period}
}

// Entries returns a copy of the stored windows, ascending.
func (t *EffectiveDatedTable[T]) Entries() []EffectiveEntry[T] {
	out := make([]EffectiveEntry[T], len(t.entries))
	copy(out, t.entries)
	return out
}
