// Package writer applies ledger mutations optimistically: the cache is
// updated first so the UI reacts instantly, the server of record is told
// second, and a rejected write is rolled back to the pre-mutation value.
package writer

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/cache"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/domain"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/pay"
)

// Remote is the server-of-record surface the writer needs. Implemented
// by the ledger client adapter.
type Remote interface {
	SubmitAttendance(ctx context.Context, m domain.Mutation) error
	SubmitShift(ctx context.Context, m domain.Mutation) (domain.ShiftEntry, error)
}

// keyState serializes in-flight writes for one ledger key. Writes to the
// same key must not interleave: an earlier response arriving after a
// later write could otherwise revert state the later write established.
// pending counts submits that are queued or awaiting their response.
type keyState struct {
	mu      sync.Mutex
	pending int
}

// Writer performs optimistic ledger writes. Safe for concurrent use;
// writes to distinct keys proceed independently, writes to the same key
// run one at a time in arrival order.
type Writer struct {
	cache  *cache.LedgerCache
	remote Remote

	mu   sync.Mutex
	keys map[string]*keyState
}

// New creates a writer over the given cache and remote.
func New(c *cache.LedgerCache, remote Remote) *Writer {
	return &Writer{
		cache:  c,
		remote: remote,
		keys:   make(map[string]*keyState),
	}
}

// HasPending reports whether a write for the key is queued or awaiting
// its server response. The reconciliation poller holds off replacing
// such keys until the write resolves.
func (w *Writer) HasPending(key domain.EntryKey) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	ks, ok := w.keys[key.String()]
	return ok && ks.pending > 0
}

// SubmitAttendance applies entry to the cache immediately and sends the
// mutation to the server of record. On rejection the cache is reverted
// and the error returned; the write is not retried automatically.
func (w *Writer) SubmitAttendance(ctx context.Context, m domain.Mutation, entry domain.AttendanceEntry) error {
	m.ID = uuid.New().String()
	m.Kind = domain.MutationAttendance
	key := m.Key()

	ks := w.enter(key)
	ks.mu.Lock()
	defer func() {
		ks.mu.Unlock()
		w.leave(key)
	}()

	prev, hadPrev := w.cache.GetAttendance(key)
	w.cache.PutAttendance(entry, domain.ChangeLocalWrite)

	if err := w.remote.SubmitAttendance(ctx, m); err != nil {
		if hadPrev {
			w.cache.PutAttendance(prev, domain.ChangeRollback)
		} else {
			w.cache.RemoveAttendance(key, domain.ChangeRollback)
		}
		return fmt.Errorf("attendance write failed: %w", err)
	}

	return nil
}

// SubmitShift applies entry to the cache immediately and sends the
// mutation to the server of record. The server's echoed total is checked
// against the derived value; a mismatch is logged as a data-integrity
// signal but the write still counts as confirmed.
func (w *Writer) SubmitShift(ctx context.Context, m domain.Mutation, entry domain.ShiftEntry) error {
	m.ID = uuid.New().String()
	m.Kind = domain.MutationShift
	key := m.Key()

	ks := w.enter(key)
	ks.mu.Lock()
	defer func() {
		ks.mu.Unlock()
		w.leave(key)
	}()

	prev, hadPrev := w.cache.GetShift(key)
	w.cache.PutShift(entry, domain.ChangeLocalWrite)

	confirmed, err := w.remote.SubmitShift(ctx, m)
	if err != nil {
		if hadPrev {
			w.cache.PutShift(prev, domain.ChangeRollback)
		} else {
			w.cache.RemoveShift(key, domain.ChangeRollback)
		}
		return fmt.Errorf("shift write failed: %w", err)
	}

	if !pay.ConsistentTotal(confirmed.ShiftCount, confirmed.PerShiftRate, confirmed.TotalPay) {
		log.Printf("[warn] operation=submit_shift project_id=%s employee_id=%s date=%s server total %.2f disagrees with %.2f x %.2f",
			m.ProjectID, m.EmployeeID, m.Date, confirmed.TotalPay, confirmed.ShiftCount, confirmed.PerShiftRate)
	}

	return nil
}

// enter registers intent to write the key and returns its serializer.
func (w *Writer) enter(key domain.EntryKey) *keyState {
	w.mu.Lock()
	defer w.mu.Unlock()

	ks, ok := w.keys[key.String()]
	if !ok {
		ks = &keyState{}
		w.keys[key.String()] = ks
	}
	ks.pending++
	return ks
}

// leave unregisters a resolved write and drops idle key state.
func (w *Writer) leave(key domain.EntryKey) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ks, ok := w.keys[key.String()]
	if !ok {
		return
	}
	ks.pending--
	if ks.pending <= 0 {
		delete(w.keys, key.String())
	}
}
