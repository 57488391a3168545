package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/cache"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/domain"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/scope"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/writer"
)

const (
	project = "proj-1"
	day     = "2025-03-10"
)

// fakeRemote implements writer.Remote with scripted outcomes.
type fakeRemote struct {
	mu         sync.Mutex
	failNext   bool
	attendance int
	shifts     int
}

func (f *fakeRemote) SubmitAttendance(ctx context.Context, m domain.Mutation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.New("rejected")
	}
	f.attendance++
	return nil
}

func (f *fakeRemote) SubmitShift(ctx context.Context, m domain.Mutation) (domain.ShiftEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return domain.ShiftEntry{}, errors.New("rejected")
	}
	f.shifts++
	return domain.ShiftEntry{
		ProjectID: m.ProjectID, EmployeeID: m.EmployeeID, Date: m.Date,
		ShiftCount: m.ShiftCount, PerShiftRate: m.PerShiftRate,
		TotalPay: m.ShiftCount * m.PerShiftRate,
	}, nil
}

func (f *fakeRemote) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attendance, f.shifts
}

// nullStore satisfies scope.SnapshotStore with no durable backing.
type nullStore struct{}

func (nullStore) SaveSnapshot(ctx context.Context, snap *domain.ProjectSnapshot) error { return nil }
func (nullStore) LoadSnapshot(ctx context.Context, projectID string) (*domain.ProjectSnapshot, bool, error) {
	return nil, false, nil
}

// nullReconciler satisfies scope.Reconciler without polling.
type nullReconciler struct{}

func (nullReconciler) Start(projectID, date string) {}
func (nullReconciler) Stop()                        {}

func setup(t *testing.T) (*LedgerService, *cache.LedgerCache, *fakeRemote) {
	t.Helper()

	c := cache.New()
	remote := &fakeRemote{}
	w := writer.New(c, remote)
	scopes := scope.NewManager(c, nullStore{}, nullReconciler{})
	svc := NewLedgerService(c, scopes, w)

	require.NoError(t, svc.ActivateProjectForDate(context.Background(), project, day))

	// Seed the roster the way a reconciliation fetch would.
	snap := domain.NewProjectSnapshot(project)
	snap.Employees = []domain.Employee{
		{ID: "emp-monthly", CompensationType: domain.CompensationMonthly, BaseRate: 30000},
		{ID: "emp-shift", CompensationType: domain.CompensationShift, BaseRate: 500},
		{ID: "emp-daily", CompensationType: domain.CompensationDaily, BaseRate: 800},
	}
	c.ReplaceAll(project, snap)

	return svc, c, remote
}

func TestMarkAttendance_ScenarioPresentThenAbsent(t *testing.T) {
	svc, c, _ := setup(t)
	ctx := context.Background()

	entry, err := svc.MarkAttendance(ctx, project, "emp-monthly", day, domain.StatusPresent)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPresent, entry.Status)
	require.NotNil(t, entry.CheckIn)

	entry, err = svc.MarkAttendance(ctx, project, "emp-monthly", day, domain.StatusAbsent)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAbsent, entry.Status)
	assert.Nil(t, entry.CheckIn)

	cached, ok := c.GetAttendance(domain.EntryKey{ProjectID: project, EmployeeID: "emp-monthly", Date: day})
	require.True(t, ok)
	assert.Equal(t, domain.StatusAbsent, cached.Status)
}

func TestMarkAttendance_RejectsShiftEmployeeWithoutSideEffects(t *testing.T) {
	svc, c, remote := setup(t)

	_, err := svc.MarkAttendance(context.Background(), project, "emp-shift", day, domain.StatusPresent)
	assert.ErrorIs(t, err, domain.ErrNotMonthlyEmployee)

	_, ok := c.GetAttendance(domain.EntryKey{ProjectID: project, EmployeeID: "emp-shift", Date: day})
	assert.False(t, ok, "a rejected transition must not touch the cache")

	att, shifts := remote.calls()
	assert.Zero(t, att, "a rejected transition must not reach the network")
	assert.Zero(t, shifts)
}

func TestMarkAttendance_UnknownEmployee(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.MarkAttendance(context.Background(), project, "emp-ghost", day, domain.StatusPresent)
	assert.ErrorIs(t, err, domain.ErrEmployeeNotFound)
}

func TestMarkAttendance_InactiveProject(t *testing.T) {
	svc, _, remote := setup(t)
	_, err := svc.MarkAttendance(context.Background(), "proj-other", "emp-monthly", day, domain.StatusPresent)
	assert.ErrorIs(t, err, domain.ErrScopeMismatch)

	att, _ := remote.calls()
	assert.Zero(t, att)
}

func TestLogShift_DerivesTotal(t *testing.T) {
	svc, c, _ := setup(t)

	entry, err := svc.LogShift(context.Background(), project, "emp-shift", day, 1.5, 500)
	require.NoError(t, err)
	assert.Equal(t, 750.0, entry.TotalPay)

	cached, ok := c.GetShift(domain.EntryKey{ProjectID: project, EmployeeID: "emp-shift", Date: day})
	require.True(t, ok)
	assert.Equal(t, 750.0, cached.TotalPay)
}

func TestLogShift_DefaultsToBaseRate(t *testing.T) {
	svc, _, _ := setup(t)

	entry, err := svc.LogShift(context.Background(), project, "emp-daily", day, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 800.0, entry.PerShiftRate)
	assert.Equal(t, 1600.0, entry.TotalPay)
}

func TestLogShift_RejectsOutOfRangeCount(t *testing.T) {
	svc, c, remote := setup(t)

	for _, count := range []float64{-0.5, 3.5, 1.25} {
		_, err := svc.LogShift(context.Background(), project, "emp-shift", day, count, 500)
		assert.ErrorIs(t, err, domain.ErrShiftCountOutOfRange)
	}

	_, ok := c.GetShift(domain.EntryKey{ProjectID: project, EmployeeID: "emp-shift", Date: day})
	assert.False(t, ok)
	_, shifts := remote.calls()
	assert.Zero(t, shifts)
}

func TestLogShift_RejectsMonthlyEmployee(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.LogShift(context.Background(), project, "emp-monthly", day, 1, 0)
	assert.ErrorIs(t, err, domain.ErrNotShiftEmployee)
}

func TestLogShift_ServerFailureRollsBack(t *testing.T) {
	svc, c, remote := setup(t)
	ctx := context.Background()

	_, err := svc.LogShift(ctx, project, "emp-shift", day, 1, 500)
	require.NoError(t, err)

	remote.mu.Lock()
	remote.failNext = true
	remote.mu.Unlock()

	_, err = svc.LogShift(ctx, project, "emp-shift", day, 2, 500)
	require.Error(t, err)

	cached, ok := c.GetShift(domain.EntryKey{ProjectID: project, EmployeeID: "emp-shift", Date: day})
	require.True(t, ok)
	assert.Equal(t, 1.0, cached.ShiftCount, "cache equals the value before the failed mutation")
	assert.Equal(t, 500.0, cached.TotalPay)
}

func TestProjectWorkforce_DispatchesByCompensationType(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.MarkAttendance(ctx, project, "emp-monthly", day, domain.StatusOnDuty)
	require.NoError(t, err)
	_, err = svc.LogShift(ctx, project, "emp-shift", day, 0.5, 600)
	require.NoError(t, err)

	rows, err := svc.ProjectWorkforce(project, day)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byID := make(map[string]WorkforceRow)
	for _, row := range rows {
		byID[row.Employee.ID] = row
	}

	assert.Equal(t, "on_duty", byID["emp-monthly"].Status)
	require.NotNil(t, byID["emp-shift"].Shift)
	assert.Equal(t, 300.0, byID["emp-shift"].Shift.TotalPay)
	assert.Empty(t, byID["emp-daily"].Status, "status is an attendance concept")
	assert.Nil(t, byID["emp-daily"].Shift)
}

func TestSubscribe_LocalWriteNotifies(t *testing.T) {
	svc, _, _ := setup(t)

	var mu sync.Mutex
	var kinds []domain.ChangeKind
	svc.Subscribe(func(e domain.ChangeEvent) {
		mu.Lock()
		kinds = append(kinds, e.Kind)
		mu.Unlock()
	})

	_, err := svc.LogShift(context.Background(), project, "emp-shift", day, 1, 500)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, kinds)
	assert.Equal(t, domain.ChangeLocalWrite, kinds[0])
}

func TestDeactivateBlocksReadsAndWrites(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	svc.DeactivateProject(ctx)

	_, err := svc.MarkAttendance(ctx, project, "emp-monthly", day, domain.StatusPresent)
	assert.ErrorIs(t, err, domain.ErrNoActiveScope)

	_, err = svc.ProjectWorkforce(project, day)
	assert.ErrorIs(t, err, domain.ErrNoActiveScope)
}
