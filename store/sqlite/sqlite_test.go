package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payslip"
	"github.com/warp/payroll-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func record(id, employee, competency string) payslip.Record {
	return payslip.Record{
		ID:              id,
		EmployeeCode:    employee,
		Competency:      competency,
		Document:        []byte(`{"competency":"` + competency + `"}`),
		Tables:          []byte(`{"social_security_policy":"last_match"}`),
		TotalEarnings:   generic.MustDecimal("5000"),
		TotalDeductions: generic.MustDecimal("915.12"),
		NetAmount:       generic.MustDecimal("4084.88"),
		CreatedAt:       time.Date(2017, 2, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	// GIVEN: An issued payslip
	require.NoError(t, store.Save(ctx, record("p-1", "0042", "2017-01")))

	// WHEN
	got, err := store.Get(ctx, "p-1")

	// THEN: Amounts round-trip exactly
	require.NoError(t, err)
	assert.Equal(t, "0042", got.EmployeeCode)
	assert.Equal(t, "2017-01", got.Competency)
	assert.JSONEq(t, `{"competency":"2017-01"}`, string(got.Document))
	assert.JSONEq(t, `{"social_security_policy":"last_match"}`, string(got.Tables))
	assert.True(t, generic.MustDecimal("915.12").Equal(got.TotalDeductions))
	assert.True(t, generic.MustDecimal("4084.88").Equal(got.NetAmount))
	assert.True(t, got.CreatedAt.Equal(time.Date(2017, 2, 1, 9, 30, 0, 0, time.UTC)))
}

func TestGet_NotFound(t *testing.T) {
	store := newStore(t)

	got, err := store.Get(context.Background(), "missing")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, generic.ErrPayslipNotFound)
	assert.True(t, generic.IsNotFound(err))
}

func TestSave_DuplicateEmployeeCompetency(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Save(ctx, record("p-1", "0042", "2017-01")))

	// WHEN: Same employee and month under a new ID
	err := store.Save(ctx, record("p-2", "0042", "2017-01"))

	// THEN
	assert.ErrorIs(t, err, generic.ErrDuplicatePayslip)

	// Another month or another employee is fine
	assert.NoError(t, store.Save(ctx, record("p-3", "0042", "2017-02")))
	assert.NoError(t, store.Save(ctx, record("p-4", "0043", "2017-01")))
}

func TestSave_DuplicateID(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Save(ctx, record("p-1", "0042", "2017-01")))

	err := store.Save(ctx, record("p-1", "0042", "2017-02"))
	assert.ErrorIs(t, err, generic.ErrDuplicatePayslip)
}

func TestListByEmployee_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Save(ctx, record("p-1", "0042", "2016-12")))
	require.NoError(t, store.Save(ctx, record("p-2", "0042", "2017-02")))
	require.NoError(t, store.Save(ctx, record("p-3", "0042", "2017-01")))
	require.NoError(t, store.Save(ctx, record("p-4", "0099", "2017-01")))

	records, err := store.ListByEmployee(ctx, "0042")
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, "2017-02", records[0].Competency)
	assert.Equal(t, "2017-01", records[1].Competency)
	assert.Equal(t, "2016-12", records[2].Competency)

	none, err := store.ListByEmployee(ctx, "0000")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSave_WithoutTables(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	r := record("p-1", "0042", "2017-01")
	r.Tables = nil
	require.NoError(t, store.Save(ctx, r))

	got, err := store.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Nil(t, got.Tables)
}

func TestNew_CreatesMissingDirectory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "nested", "payroll.db")

	// GIVEN: A database path under directories that don't exist
	store, err := sqlite.New(path)

	// THEN: They are created and the store works
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, record("p-1", "0042", "2017-01")))
	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	// Reopening keeps the archive
	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "0042", got.EmployeeCode)
}

func TestPing(t *testing.T) {
	store := newStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
