/*
archive.go - Persistence interface for issued payslips

PURPOSE:
  Computing a payslip is pure; issuing one is not. Once a payslip is issued
  to an employee for a competency, the input document, the rate tables in
  force and the totals are archived so the same payslip can be shown or
  printed again later with the same amounts, whatever tables the server
  runs with by then.

  The Ledger never touches the Archive. The API layer computes first and
  archives the result.

UNIQUENESS:
  One payslip per (employee code, competency). A second Save for the same
  pair fails with generic.ErrDuplicatePayslip.

IMPLEMENTATIONS:
  - store/sqlite: SQLite-backed
  - store/memory: In-memory for tests and development

SEE ALSO:
  - api/handlers.go: Issues and re-renders archived payslips
*/
package payslip

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Record is an archived payslip.
type Record struct {
	ID              string
	EmployeeCode    string
	Competency      string // "YYYY-MM"
	Document        []byte // input document the payslip was computed from (JSON)
	Tables          []byte // factory.ScheduleDocument in force at issue (JSON); nil if unknown
	TotalEarnings   decimal.Decimal
	TotalDeductions decimal.Decimal
	NetAmount       decimal.Decimal
	CreatedAt       time.Time
}

// Archive stores issued payslips. Append-only: no update, no delete.
type Archive interface {
	// Save persists a record. Fails with ErrDuplicatePayslip when the
	// employee already has a payslip for the competency.
	Save(ctx context.Context, r Record) error

	// Get returns a record by ID, or ErrPayslipNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// ListByEmployee returns an employee's records, newest competency first.
	ListByEmployee(ctx context.Context, employeeCode string) ([]Record, error)
}
