package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/domain"
)

func shiftEntry(projectID, employeeID string, count float64) domain.ShiftEntry {
	return domain.ShiftEntry{
		ProjectID:    projectID,
		EmployeeID:   employeeID,
		Date:         "2025-03-10",
		ShiftCount:   count,
		PerShiftRate: 500,
		TotalPay:     count * 500,
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	c := New()
	entry := shiftEntry("proj-1", "emp-1", 1.5)

	c.PutShift(entry, domain.ChangeLocalWrite)

	got, ok := c.GetShift(entry.Key())
	require.True(t, ok)
	assert.Equal(t, entry, got)
}

func TestGetMissesAcrossProjects(t *testing.T) {
	c := New()
	c.PutShift(shiftEntry("proj-1", "emp-1", 1), domain.ChangeLocalWrite)

	otherKey := domain.EntryKey{ProjectID: "proj-2", EmployeeID: "emp-1", Date: "2025-03-10"}
	_, ok := c.GetShift(otherKey)
	assert.False(t, ok, "an entry must never be visible under another project")
}

func TestPutReplacesSameKey(t *testing.T) {
	c := New()
	c.PutShift(shiftEntry("proj-1", "emp-1", 1), domain.ChangeLocalWrite)
	c.PutShift(shiftEntry("proj-1", "emp-1", 2), domain.ChangeLocalWrite)

	snap, ok := c.Snapshot("proj-1")
	require.True(t, ok)
	assert.Len(t, snap.Shifts, 1, "a later write for the same key replaces, never appends")

	got, ok := c.GetShift(domain.EntryKey{ProjectID: "proj-1", EmployeeID: "emp-1", Date: "2025-03-10"})
	require.True(t, ok)
	assert.Equal(t, 2.0, got.ShiftCount)
}

func TestReplaceAllFullOverwrite(t *testing.T) {
	c := New()
	c.PutShift(shiftEntry("proj-1", "emp-1", 1), domain.ChangeLocalWrite)
	c.PutShift(shiftEntry("proj-1", "emp-2", 2), domain.ChangeLocalWrite)

	// Authoritative state no longer contains emp-2 (reassigned elsewhere).
	snap := domain.NewProjectSnapshot("proj-1")
	fresh := shiftEntry("proj-1", "emp-1", 1.5)
	snap.Shifts[fresh.Key().String()] = fresh
	snap.FetchedAt = time.Now()

	c.ReplaceAll("proj-1", snap)

	_, ok := c.GetShift(domain.EntryKey{ProjectID: "proj-1", EmployeeID: "emp-2", Date: "2025-03-10"})
	assert.False(t, ok, "orphaned keys must not survive a replace")

	got, ok := c.GetShift(fresh.Key())
	require.True(t, ok)
	assert.Equal(t, 1.5, got.ShiftCount)
}

func TestReplaceAllCopiesInput(t *testing.T) {
	c := New()
	snap := domain.NewProjectSnapshot("proj-1")
	entry := shiftEntry("proj-1", "emp-1", 1)
	snap.Shifts[entry.Key().String()] = entry

	c.ReplaceAll("proj-1", snap)

	// Mutating the caller's snapshot must not reach the cache.
	entry.ShiftCount = 3
	snap.Shifts[entry.Key().String()] = entry

	got, ok := c.GetShift(entry.Key())
	require.True(t, ok)
	assert.Equal(t, 1.0, got.ShiftCount)
}

func TestRemoveRestoresUnset(t *testing.T) {
	c := New()
	key := domain.EntryKey{ProjectID: "proj-1", EmployeeID: "emp-1", Date: "2025-03-10"}
	c.PutAttendance(domain.AttendanceEntry{
		ProjectID: "proj-1", EmployeeID: "emp-1", Date: "2025-03-10",
		Status: domain.StatusPresent,
	}, domain.ChangeLocalWrite)

	c.RemoveAttendance(key, domain.ChangeRollback)

	_, ok := c.GetAttendance(key)
	assert.False(t, ok)
}

func TestDropClearsProjectOnly(t *testing.T) {
	c := New()
	c.PutShift(shiftEntry("proj-1", "emp-1", 1), domain.ChangeLocalWrite)
	c.PutShift(shiftEntry("proj-2", "emp-1", 2), domain.ChangeLocalWrite)

	c.Drop("proj-1")

	_, ok := c.Snapshot("proj-1")
	assert.False(t, ok)

	got, ok := c.GetShift(domain.EntryKey{ProjectID: "proj-2", EmployeeID: "emp-1", Date: "2025-03-10"})
	require.True(t, ok)
	assert.Equal(t, 2.0, got.ShiftCount)
}

func TestObserversReceiveChangeEvents(t *testing.T) {
	c := New()
	var events []domain.ChangeEvent
	c.Subscribe(func(e domain.ChangeEvent) { events = append(events, e) })

	entry := shiftEntry("proj-1", "emp-1", 1.5)
	c.PutShift(entry, domain.ChangeLocalWrite)
	c.ReplaceAll("proj-1", domain.NewProjectSnapshot("proj-1"))

	require.Len(t, events, 2)
	assert.Equal(t, domain.ChangeLocalWrite, events[0].Kind)
	assert.Equal(t, entry.Key(), events[0].Key)
	assert.Equal(t, domain.ChangeSnapshotReplaced, events[1].Kind)
	assert.NotEmpty(t, events[0].ID)
}
