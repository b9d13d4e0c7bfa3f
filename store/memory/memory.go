// Package memory provides an in-memory payslip archive.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payslip"
)

// =============================================================================
// MEMORY ARCHIVE - In-memory implementation (for testing/dev)
// =============================================================================

type Archive struct {
	mu      sync.RWMutex
	records map[string]payslip.Record
	issued  map[key]string
}

type key struct {
	EmployeeCode string
	Competency   string
}

var _ payslip.Archive = (*Archive)(nil)

func NewArchive() *Archive {
	return &Archive{
		records: make(map[string]payslip.Record),
		issued:  make(map[key]string),
	}
}

// Save stores a record. Append-only.
func (a *Archive) Save(_ context.Context, r payslip.Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	k := key{EmployeeCode: r.EmployeeCode, Competency: r.Competency}
	if _, ok := a.issued[k]; ok {
		return fmt.Errorf("%w: employee %s, competency %s", generic.ErrDuplicatePayslip, r.EmployeeCode, r.Competency)
	}
	if _, ok := a.records[r.ID]; ok {
		return fmt.Errorf("%w: id %s", generic.ErrDuplicatePayslip, r.ID)
	}

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.Document = append([]byte(nil), r.Document...)
	if r.Tables != nil {
		r.Tables = append([]byte(nil), r.Tables...)
	}
	a.records[r.ID] = r
	a.issued[k] = r.ID
	return nil
}

func (a *Archive) Get(_ context.Context, id string) (*payslip.Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	r, ok := a.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", generic.ErrPayslipNotFound, id)
	}
	return &r, nil
}

// ListByEmployee returns an employee's records, newest competency first.
func (a *Archive) ListByEmployee(_ context.Context, employeeCode string) ([]payslip.Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []payslip.Record
	for _, r := range a.records {
		if r.EmployeeCode == employeeCode {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Competency > out[j].Competency
	})
	return out, nil
}
