/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Input errors - Malformed competency period, negative dependents
  2. Configuration errors - No table covers the period, malformed tables
  3. State errors - Missing context, ledger computed twice
  4. Archive errors - Payslip persistence lookups

USAGE:
  Callers check with errors.Is against the sentinels:

    if errors.Is(err, generic.ErrNoApplicableTable) {
        // the configured tables end before the requested period
    }

  Or extract the structured error for details:

    var nt *generic.NoApplicableTableError
    if errors.As(err, &nt) {
        log.Printf("table %s has no entry for %s", nt.Table, nt.Period)
    }

SEE ALSO:
  - period.go: Raises InvalidPeriodError
  - effective.go: Raises NoApplicableTableError
  - payslip/ledger.go: Raises MissingContextError and ErrInvalidState
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned when a competency year or month is malformed.
	ErrInvalidPeriod = errors.New("invalid competency period")

	// ErrNoApplicableTable is returned when no effective-dated entry covers
	// the requested competency period. This is a configuration error.
	ErrNoApplicableTable = errors.New("no applicable table for competency period")

	// ErrMissingRequiredContext is returned when a computation lacks the
	// context it needs (no base salary can be inferred, no employee to print).
	ErrMissingRequiredContext = errors.New("missing required context")

	// ErrInvalidState is returned when an operation is not allowed in the
	// current lifecycle state (e.g. computing a ledger twice).
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidTable is returned when a rate table is malformed.
	ErrInvalidTable = errors.New("invalid rate table")

	// ErrInvalidDependents is returned for a negative dependent count.
	ErrInvalidDependents = errors.New("dependent count must not be negative")

	// ErrPayslipNotFound is returned when an archived payslip doesn't exist.
	ErrPayslipNotFound = errors.New("payslip not found")

	// ErrDuplicatePayslip is returned when a payslip for the same employee
	// and competency was already issued.
	ErrDuplicatePayslip = errors.New("payslip already issued for employee and competency")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidPeriodError describes a rejected year/month pair.
type InvalidPeriodError struct {
	Year   string
	Month  string
	Reason string
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid competency period %q/%q: %s", e.Year, e.Month, e.Reason)
}

func (e *InvalidPeriodError) Unwrap() error {
	return ErrInvalidPeriod
}

// NoApplicableTableError names the table and the period that fell outside it.
type NoApplicableTableError struct {
	Table  string
	Period CompetencyPeriod
}

func (e *NoApplicableTableError) Error() string {
	return fmt.Sprintf("no %s table covers competency %s", e.Table, e.Period)
}

func (e *NoApplicableTableError) Unwrap() error {
	return ErrNoApplicableTable
}

// MissingContextError names what was missing.
type MissingContextError struct {
	What string
}

func (e *MissingContextError) Error() string {
	return "missing required context: " + e.What
}

func (e *MissingContextError) Unwrap() error {
	return ErrMissingRequiredContext
}

// TableError describes why a table was rejected at construction.
type TableError struct {
	Table  string
	Reason string
}

func (e *TableError) Error() string {
	return fmt.Sprintf("invalid %s table: %s", e.Table, e.Reason)
}

func (e *TableError) Unwrap() error {
	return ErrInvalidTable
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidDependents) ||
		errors.Is(err, ErrInvalidState)
}

// IsConfigurationError returns true if the configured tables or the supplied
// context cannot serve the request. Not retryable.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrNoApplicableTable) ||
		errors.Is(err, ErrMissingRequiredContext) ||
		errors.Is(err, ErrInvalidTable)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPayslipNotFound)
}
