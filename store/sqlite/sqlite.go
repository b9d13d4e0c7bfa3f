/*
Package sqlite provides a SQLite-backed payslip archive.

PURPOSE:
  Implements payslip.Archive using SQLite. Issued payslips are stored with
  the input document they were computed from and the rate tables in force
  at issue, so they can be recomputed, shown or printed again later.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the payslips table
  - No DELETE statements on the payslips table
  - A corrected payslip is a new competency or a new employee code, never an
    overwrite

KEY TABLES:
  payslips: One row per issued payslip

INDEXES:
  - idx_payslips_employee_competency: UNIQUE, one payslip per employee and
    month. Violations map to generic.ErrDuplicatePayslip.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite serializes writers anyway; the
  mutex keeps the duplicate check and the insert in one critical section.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

DECIMALS:
  Amounts are stored as TEXT (decimal.Decimal.String()) so no precision is
  lost on the way through REAL.

USAGE:
  // Missing parent directories are created.
  archive, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer archive.Close()

SEE ALSO:
  - payslip/archive.go: Interface definition
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payslip"
)

// Store implements payslip.Archive using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ payslip.Archive = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: ":memory:" databases are per-connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable. Used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS payslips (
		id TEXT PRIMARY KEY,
		employee_code TEXT NOT NULL,
		competency TEXT NOT NULL,
		document_json TEXT NOT NULL,
		tables_json TEXT NOT NULL DEFAULT '',
		total_earnings TEXT NOT NULL,
		total_deductions TEXT NOT NULL,
		net_amount TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- One payslip per employee and month
	CREATE UNIQUE INDEX IF NOT EXISTS idx_payslips_employee_competency
		ON payslips(employee_code, competency);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ARCHIVE
// =============================================================================

// Save inserts a payslip record.
func (s *Store) Save(ctx context.Context, r payslip.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO payslips (
			id, employee_code, competency, document_json, tables_json,
			total_earnings, total_deductions, net_amount, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.EmployeeCode, r.Competency, string(r.Document), string(r.Tables),
		r.TotalEarnings.String(), r.TotalDeductions.String(), r.NetAmount.String(),
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: employee %s, competency %s", generic.ErrDuplicatePayslip, r.EmployeeCode, r.Competency)
		}
		return fmt.Errorf("failed to save payslip: %w", err)
	}
	return nil
}

// Get retrieves a payslip record by ID.
func (s *Store) Get(ctx context.Context, id string) (*payslip.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_code, competency, document_json, tables_json,
			total_earnings, total_deductions, net_amount, created_at
		FROM payslips WHERE id = ?`, id)

	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", generic.ErrPayslipNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListByEmployee returns an employee's payslips, newest competency first.
func (s *Store) ListByEmployee(ctx context.Context, employeeCode string) ([]payslip.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_code, competency, document_json, tables_json,
			total_earnings, total_deductions, net_amount, created_at
		FROM payslips
		WHERE employee_code = ?
		ORDER BY competency DESC`, employeeCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []payslip.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (payslip.Record, error) {
	var r payslip.Record
	var document, tables, earnings, deductions, net, createdAt string

	if err := row.Scan(&r.ID, &r.EmployeeCode, &r.Competency, &document, &tables,
		&earnings, &deductions, &net, &createdAt); err != nil {
		return payslip.Record{}, err
	}

	var err error
	r.Document = []byte(document)
	if tables != "" {
		r.Tables = []byte(tables)
	}
	if r.TotalEarnings, err = decimal.NewFromString(earnings); err != nil {
		return payslip.Record{}, fmt.Errorf("payslip %s: total_earnings: %w", r.ID, err)
	}
	if r.TotalDeductions, err = decimal.NewFromString(deductions); err != nil {
		return payslip.Record{}, fmt.Errorf("payslip %s: total_deductions: %w", r.ID, err)
	}
	if r.NetAmount, err = decimal.NewFromString(net); err != nil {
		return payslip.Record{}, fmt.Errorf("payslip %s: net_amount: %w", r.ID, err)
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return r, nil
}

// Helper functions

// ensureDir creates the database file's parent directory.
func ensureDir(dbPath string) error {
	if dbPath == ":memory:" || strings.HasPrefix(dbPath, "file:") {
		return nil
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
