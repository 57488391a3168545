// Package scope tracks which project is active and fences all cached
// workforce data to it. Every badge and shift value the UI renders must
// come from the active project's slice; protecting that boundary is the
// reason this subsystem exists.
package scope

import (
	"context"
	"log"
	"sync"

	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/cache"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/domain"
)

// SnapshotStore persists per-project snapshots across scope switches and
// session reloads. Implemented by the repository session store.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *domain.ProjectSnapshot) error
	LoadSnapshot(ctx context.Context, projectID string) (*domain.ProjectSnapshot, bool, error)
}

// Reconciler is the polling loop the manager starts and stops as scopes
// come and go. Implemented by the poller.
type Reconciler interface {
	Start(projectID, date string)
	Stop()
}

// Manager owns the active project scope.
type Manager struct {
	cache      *cache.LedgerCache
	store      SnapshotStore
	reconciler Reconciler

	mu     sync.Mutex
	active string
	date   string
}

// NewManager creates a manager with no active scope.
func NewManager(c *cache.LedgerCache, store SnapshotStore, reconciler Reconciler) *Manager {
	return &Manager{
		cache:      c,
		store:      store,
		reconciler: reconciler,
	}
}

// Active returns the active project ID, if any.
func (m *Manager) Active() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active, m.active != ""
}

// ActiveDate returns the ledger date the active scope is viewing.
func (m *Manager) ActiveDate() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.date
}

// Activate switches the active scope to projectID for today's ledger
// date. Activating the already-active project is a no-op.
func (m *Manager) Activate(ctx context.Context, projectID string) error {
	return m.ActivateForDate(ctx, projectID, domain.Today())
}

// ActivateForDate switches the active scope to projectID viewing the
// given date. In order: the outgoing scope's snapshot is persisted, its
// in-memory slice dropped so nothing stale can leak through, the
// incoming scope is rehydrated from durable storage, and an immediate
// reconciliation fetch is kicked off. Rehydration means the UI shows the
// last-known state, never a blank one, while the network catches up.
func (m *Manager) ActivateForDate(ctx context.Context, projectID, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if projectID == "" {
		return domain.ErrNoActiveScope
	}
	if m.active == projectID && m.date == date {
		return nil
	}

	m.suspendLocked(ctx)

	m.active = projectID
	m.date = date

	snap, ok, err := m.store.LoadSnapshot(ctx, projectID)
	if err != nil {
		log.Printf("[warn] operation=activate project_id=%s rehydration failed, starting empty: %v", projectID, err)
	} else if ok {
		m.cache.ReplaceAll(projectID, snap)
	}

	m.reconciler.Start(projectID, date)
	return nil
}

// Deactivate clears the active scope, persisting its snapshot first and
// cancelling any outstanding reconciliation fetch.
func (m *Manager) Deactivate(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suspendLocked(ctx)
}

// suspendLocked tears down the current scope: stop polling, persist the
// snapshot, drop the in-memory slice.
func (m *Manager) suspendLocked(ctx context.Context) {
	if m.active == "" {
		return
	}

	m.reconciler.Stop()

	if snap, ok := m.cache.Snapshot(m.active); ok {
		if err := m.store.SaveSnapshot(ctx, snap); err != nil {
			// Persist failure must not wedge the scope switch; the next
			// reconciliation rebuilds the same state from the server.
			log.Printf("[warn] operation=deactivate project_id=%s snapshot persist failed: %v", m.active, err)
		}
	}

	m.cache.Drop(m.active)
	m.active = ""
	m.date = ""
}

// Guard returns ErrScopeMismatch when projectID is not the active scope.
// Mutating operations call this before touching the cache.
func (m *Manager) Guard(projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == "" {
		return domain.ErrNoActiveScope
	}
	if m.active != projectID {
		return domain.ErrScopeMismatch
	}
	return nil
}
