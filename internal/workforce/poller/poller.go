// Package poller periodically fetches authoritative ledger state for the
// active project and reconciles it into the local cache. Polling is the
// only channel through which another supervisor's or an admin's edits
// become visible; there is no push subscription.
package poller

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/cache"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/domain"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/metrics"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/pay"
)

// failureEscalation is how many consecutive fetch failures are tolerated
// before the log level moves from warn to error.
const failureEscalation = 3

// Fetcher reads authoritative state from the server of record.
// Implemented by the ledger client adapter.
type Fetcher interface {
	FetchAttendance(ctx context.Context, projectID, date string) ([]domain.AttendanceEntry, error)
	FetchShifts(ctx context.Context, projectID, date string) ([]domain.ShiftEntry, error)
	FetchEmployees(ctx context.Context, projectID string) ([]domain.Employee, error)
}

// PendingChecker reports whether a key has an optimistic write still in
// flight. Implemented by the writer.
type PendingChecker interface {
	HasPending(key domain.EntryKey) bool
}

// Poller reconciles the active project on a fixed interval. It is
// suspended entirely while no scope is active.
type Poller struct {
	cache    *cache.LedgerCache
	remote   Fetcher
	pending  PendingChecker
	interval time.Duration

	mu         sync.Mutex
	cron       *cron.Cron
	cancel     context.CancelFunc
	projectID  string
	date       string
	generation uint64
	inFlight   bool
	failures   int
}

// New creates a stopped poller.
func New(c *cache.LedgerCache, remote Fetcher, pending PendingChecker, interval time.Duration) *Poller {
	return &Poller{
		cache:    c,
		remote:   remote,
		pending:  pending,
		interval: interval,
	}
}

// Start begins polling the given project and date, replacing any prior
// schedule. The first fetch is issued immediately rather than waiting a
// full interval.
func (p *Poller) Start(projectID, date string) {
	p.Stop()

	ctx, cancel := context.WithCancel(context.Background())

	p.mu.Lock()
	p.cancel = cancel
	p.projectID = projectID
	p.date = date
	p.generation++
	gen := p.generation
	p.failures = 0

	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(fmt.Sprintf("@every %s", p.interval), func() {
		p.tick(ctx, gen)
	})
	if err != nil {
		p.mu.Unlock()
		log.Printf("[error] operation=poller_start project_id=%s failed to schedule: %v", projectID, err)
		return
	}
	p.cron = c
	p.mu.Unlock()

	c.Start()
	go p.tick(ctx, gen)
}

// Stop suspends polling and cancels any outstanding fetch. A result that
// arrives after Stop is discarded, never applied to the wrong scope.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cron != nil {
		p.cron.Stop()
		p.cron = nil
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.projectID = ""
	p.date = ""
}

// tick runs one scheduled reconciliation pass. Ticks are single-flight:
// if the previous fetch for this project is still outstanding the tick
// is skipped, not queued.
func (p *Poller) tick(ctx context.Context, gen uint64) {
	p.mu.Lock()
	if gen != p.generation || p.projectID == "" {
		p.mu.Unlock()
		return
	}
	if p.inFlight {
		p.mu.Unlock()
		metrics.RecordPollSkipped()
		return
	}
	p.inFlight = true
	projectID, date := p.projectID, p.date
	p.mu.Unlock()

	err := p.reconcile(ctx, gen, projectID, date)

	p.mu.Lock()
	p.inFlight = false
	if err != nil {
		p.failures++
		if p.failures >= failureEscalation {
			log.Printf("[error] operation=reconcile project_id=%s %d consecutive fetch failures: %v", projectID, p.failures, err)
		} else if ctx.Err() == nil {
			log.Printf("[warn] operation=reconcile project_id=%s fetch failed, keeping cached state: %v", projectID, err)
		}
	} else {
		p.failures = 0
	}
	p.mu.Unlock()
}

// Reconcile runs one immediate pass outside the schedule. The scope
// manager calls this right after activation so the rehydrated view is
// refreshed as soon as the network answers.
func (p *Poller) Reconcile(ctx context.Context) error {
	p.mu.Lock()
	if p.projectID == "" {
		p.mu.Unlock()
		return domain.ErrNoActiveScope
	}
	gen, projectID, date := p.generation, p.projectID, p.date
	p.mu.Unlock()

	return p.reconcile(ctx, gen, projectID, date)
}

// reconcile fetches the project's authoritative slices and swaps them
// into the cache. The cache is never cleared on a failed fetch:
// stale-but-present beats empty.
func (p *Poller) reconcile(ctx context.Context, gen uint64, projectID, date string) error {
	start := time.Now()

	attendance, err := p.remote.FetchAttendance(ctx, projectID, date)
	if err != nil {
		metrics.RecordPoll(time.Since(start), err)
		return fmt.Errorf("attendance fetch failed: %w", err)
	}

	shifts, err := p.remote.FetchShifts(ctx, projectID, date)
	if err != nil {
		metrics.RecordPoll(time.Since(start), err)
		return fmt.Errorf("shift fetch failed: %w", err)
	}

	// The roster is display support, not ledger truth; a directory
	// hiccup does not fail the pass.
	employees, err := p.remote.FetchEmployees(ctx, projectID)
	if err != nil {
		log.Printf("[warn] operation=reconcile project_id=%s roster fetch failed: %v", projectID, err)
		if current, ok := p.cache.Snapshot(projectID); ok {
			employees = current.Employees
		}
	}
	metrics.RecordPoll(time.Since(start), nil)

	p.mu.Lock()
	stale := gen != p.generation || projectID != p.projectID
	p.mu.Unlock()
	if stale || ctx.Err() != nil {
		metrics.RecordStaleDiscard()
		log.Printf("[info] operation=reconcile project_id=%s discarding late result for deactivated scope", projectID)
		return nil
	}

	next := domain.NewProjectSnapshot(projectID)
	next.FetchedAt = time.Now()
	next.Employees = employees

	for _, entry := range attendance {
		entry.ProjectID = projectID
		entry.Date = date
		next.Attendance[entry.Key().String()] = entry
	}
	for _, entry := range shifts {
		entry.ProjectID = projectID
		entry.Date = date
		// Totals are always derived from count and rate, even when the
		// server sent one.
		derived := pay.ComputeTotal(entry.ShiftCount, entry.PerShiftRate)
		if !pay.ConsistentTotal(entry.ShiftCount, entry.PerShiftRate, entry.TotalPay) {
			log.Printf("[warn] operation=reconcile project_id=%s employee_id=%s date=%s stored total %.2f disagrees with derived %.2f",
				projectID, entry.EmployeeID, entry.Date, entry.TotalPay, derived)
		}
		entry.TotalPay = derived
		next.Shifts[entry.Key().String()] = entry
	}

	changed := p.mergePending(projectID, next)

	p.cache.ReplaceAll(projectID, next)
	for _, key := range changed {
		metrics.RecordExternalChange()
		p.cache.AnnounceExternal(key)
	}

	return nil
}

// mergePending carries the current cache value over the fetched one for
// any key with an optimistic write still in flight, and returns the keys
// whose authoritative value differs from the displayed one. Held keys
// are reconciled on a later pass, after their write resolves.
func (p *Poller) mergePending(projectID string, next *domain.ProjectSnapshot) []domain.EntryKey {
	current, ok := p.cache.Snapshot(projectID)
	if !ok {
		return nil
	}

	var changed []domain.EntryKey

	for keyStr, fetched := range next.Attendance {
		cached, had := current.Attendance[keyStr]
		if p.pending != nil && p.pending.HasPending(fetched.Key()) {
			if had {
				next.Attendance[keyStr] = cached
			} else {
				delete(next.Attendance, keyStr)
			}
			continue
		}
		if had && !attendanceEqual(cached, fetched) {
			changed = append(changed, fetched.Key())
		}
	}
	for keyStr, cached := range current.Attendance {
		if _, still := next.Attendance[keyStr]; still {
			continue
		}
		if p.pending != nil && p.pending.HasPending(cached.Key()) {
			next.Attendance[keyStr] = cached
			continue
		}
		// Authoritative record disappeared out from under the display.
		changed = append(changed, cached.Key())
	}

	for keyStr, fetched := range next.Shifts {
		cached, had := current.Shifts[keyStr]
		if p.pending != nil && p.pending.HasPending(fetched.Key()) {
			if had {
				next.Shifts[keyStr] = cached
			} else {
				delete(next.Shifts, keyStr)
			}
			continue
		}
		if had && !shiftEqual(cached, fetched) {
			changed = append(changed, fetched.Key())
		}
	}
	for keyStr, cached := range current.Shifts {
		if _, still := next.Shifts[keyStr]; still {
			continue
		}
		if p.pending != nil && p.pending.HasPending(cached.Key()) {
			next.Shifts[keyStr] = cached
			continue
		}
		changed = append(changed, cached.Key())
	}

	return changed
}

func attendanceEqual(a, b domain.AttendanceEntry) bool {
	return a.Status == b.Status && timePtrEqual(a.CheckIn, b.CheckIn) && timePtrEqual(a.CheckOut, b.CheckOut)
}

func shiftEqual(a, b domain.ShiftEntry) bool {
	return a.ShiftCount == b.ShiftCount && a.PerShiftRate == b.PerShiftRate && a.TotalPay == b.TotalPay
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
