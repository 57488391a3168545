// Package cache holds the process-local ledger state, partitioned by
// project. The cache owns what the UI displays; the server of record owns
// the truth. Reconciliation replaces a project's slice wholesale, never
// merges partially, so deleted or reassigned records cannot leave
// orphaned keys behind.
package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/domain"
)

// Observer receives change notifications. Observers are called
// synchronously after the cache mutation commits; they must not call back
// into the cache.
type Observer func(domain.ChangeEvent)

// LedgerCache is a project-keyed store of attendance and shift entries.
// Safe for concurrent use.
type LedgerCache struct {
	mu        sync.RWMutex
	snapshots map[string]*domain.ProjectSnapshot

	obsMu     sync.RWMutex
	observers []Observer
}

// New creates an empty cache.
func New() *LedgerCache {
	return &LedgerCache{
		snapshots: make(map[string]*domain.ProjectSnapshot),
	}
}

// Subscribe registers an observer for all subsequent changes.
func (c *LedgerCache) Subscribe(obs Observer) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, obs)
}

func (c *LedgerCache) notify(kind domain.ChangeKind, projectID string, key domain.EntryKey) {
	event := domain.ChangeEvent{
		ID:        uuid.New().String(),
		Kind:      kind,
		ProjectID: projectID,
		Key:       key,
		At:        time.Now(),
	}

	c.obsMu.RLock()
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.obsMu.RUnlock()

	for _, obs := range observers {
		obs(event)
	}
}

// GetAttendance returns the attendance entry for a key, if present.
func (c *LedgerCache) GetAttendance(key domain.EntryKey) (domain.AttendanceEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap, ok := c.snapshots[key.ProjectID]
	if !ok {
		return domain.AttendanceEntry{}, false
	}
	entry, ok := snap.Attendance[key.String()]
	return entry, ok
}

// GetShift returns the shift entry for a key, if present.
func (c *LedgerCache) GetShift(key domain.EntryKey) (domain.ShiftEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap, ok := c.snapshots[key.ProjectID]
	if !ok {
		return domain.ShiftEntry{}, false
	}
	entry, ok := snap.Shifts[key.String()]
	return entry, ok
}

// PutAttendance stores an attendance entry and notifies observers with
// the given change kind.
func (c *LedgerCache) PutAttendance(entry domain.AttendanceEntry, kind domain.ChangeKind) {
	key := entry.Key()

	c.mu.Lock()
	snap := c.ensureSnapshotLocked(entry.ProjectID)
	snap.Attendance[key.String()] = entry
	c.mu.Unlock()

	c.notify(kind, entry.ProjectID, key)
}

// PutShift stores a shift entry and notifies observers with the given
// change kind.
func (c *LedgerCache) PutShift(entry domain.ShiftEntry, kind domain.ChangeKind) {
	key := entry.Key()

	c.mu.Lock()
	snap := c.ensureSnapshotLocked(entry.ProjectID)
	snap.Shifts[key.String()] = entry
	c.mu.Unlock()

	c.notify(kind, entry.ProjectID, key)
}

// RemoveAttendance deletes the entry for a key, restoring the unset
// state. Used by the writer when rolling back a first write for a day.
func (c *LedgerCache) RemoveAttendance(key domain.EntryKey, kind domain.ChangeKind) {
	c.mu.Lock()
	if snap, ok := c.snapshots[key.ProjectID]; ok {
		delete(snap.Attendance, key.String())
	}
	c.mu.Unlock()

	c.notify(kind, key.ProjectID, key)
}

// RemoveShift deletes the shift entry for a key.
func (c *LedgerCache) RemoveShift(key domain.EntryKey, kind domain.ChangeKind) {
	c.mu.Lock()
	if snap, ok := c.snapshots[key.ProjectID]; ok {
		delete(snap.Shifts, key.String())
	}
	c.mu.Unlock()

	c.notify(kind, key.ProjectID, key)
}

// ReplaceAll swaps in a project's snapshot wholesale. This is the only
// operation a reconciliation fetch may call.
func (c *LedgerCache) ReplaceAll(projectID string, snap *domain.ProjectSnapshot) {
	clone := cloneSnapshot(snap)
	clone.ProjectID = projectID

	c.mu.Lock()
	c.snapshots[projectID] = clone
	c.mu.Unlock()

	c.notify(domain.ChangeSnapshotReplaced, projectID, domain.EntryKey{})
}

// AnnounceExternal emits an external-change notification for a key whose
// value reconciliation found altered by another actor. The value itself
// lands through ReplaceAll; this only feeds the notification stream the
// UI layer uses for its "changed elsewhere" toast.
func (c *LedgerCache) AnnounceExternal(key domain.EntryKey) {
	c.notify(domain.ChangeExternal, key.ProjectID, key)
}

// Snapshot returns a copy of a project's snapshot, if the project is
// loaded. Callers may retain and mutate the copy freely.
func (c *LedgerCache) Snapshot(projectID string) (*domain.ProjectSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap, ok := c.snapshots[projectID]
	if !ok {
		return nil, false
	}
	return cloneSnapshot(snap), true
}

// Employees returns the cached roster for a project.
func (c *LedgerCache) Employees(projectID string) []domain.Employee {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap, ok := c.snapshots[projectID]
	if !ok {
		return nil
	}
	out := make([]domain.Employee, len(snap.Employees))
	copy(out, snap.Employees)
	return out
}

// Drop discards a project's in-memory state. Called on scope switch so
// no stale reference can leak into the next project's view.
func (c *LedgerCache) Drop(projectID string) {
	c.mu.Lock()
	delete(c.snapshots, projectID)
	c.mu.Unlock()
}

func (c *LedgerCache) ensureSnapshotLocked(projectID string) *domain.ProjectSnapshot {
	snap, ok := c.snapshots[projectID]
	if !ok {
		snap = domain.NewProjectSnapshot(projectID)
		c.snapshots[projectID] = snap
	}
	return snap
}

func cloneSnapshot(snap *domain.ProjectSnapshot) *domain.ProjectSnapshot {
	if snap == nil {
		return domain.NewProjectSnapshot("")
	}
	clone := &domain.ProjectSnapshot{
		ProjectID:  snap.ProjectID,
		FetchedAt:  snap.FetchedAt,
		Attendance: make(map[string]domain.AttendanceEntry, len(snap.Attendance)),
		Shifts:     make(map[string]domain.ShiftEntry, len(snap.Shifts)),
	}
	for k, v := range snap.Attendance {
		clone.Attendance[k] = v
	}
	for k, v := range snap.Shifts {
		clone.Shifts[k] = v
	}
	if len(snap.Employees) > 0 {
		clone.Employees = make([]domain.Employee, len(snap.Employees))
		copy(clone.Employees, snap.Employees)
	}
	return clone
}
