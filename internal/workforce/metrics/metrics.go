// Package metrics tracks sync-core counters. Fetch failures never reach
// the user directly; these counters and logs are their only surface.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics is a snapshot of the core's counters.
type Metrics struct {
	PollTicks       int64
	PollSkipped     int64 // ticks skipped because a fetch was still in flight
	PollErrors      int64
	PollLatency     int64 // total fetch latency in nanoseconds
	Writes          int64
	WriteErrors     int64
	Rollbacks       int64
	ExternalChanges int64
	StaleDiscards   int64 // late results dropped after a scope switch
}

var global = &Metrics{}

// Get returns the current counter snapshot.
func Get() Metrics {
	return Metrics{
		PollTicks:       atomic.LoadInt64(&global.PollTicks),
		PollSkipped:     atomic.LoadInt64(&global.PollSkipped),
		PollErrors:      atomic.LoadInt64(&global.PollErrors),
		PollLatency:     atomic.LoadInt64(&global.PollLatency),
		Writes:          atomic.LoadInt64(&global.Writes),
		WriteErrors:     atomic.LoadInt64(&global.WriteErrors),
		Rollbacks:       atomic.LoadInt64(&global.Rollbacks),
		ExternalChanges: atomic.LoadInt64(&global.ExternalChanges),
		StaleDiscards:   atomic.LoadInt64(&global.StaleDiscards),
	}
}

// Reset zeroes all counters. Useful for tests.
func Reset() {
	atomic.StoreInt64(&global.PollTicks, 0)
	atomic.StoreInt64(&global.PollSkipped, 0)
	atomic.StoreInt64(&global.PollErrors, 0)
	atomic.StoreInt64(&global.PollLatency, 0)
	atomic.StoreInt64(&global.Writes, 0)
	atomic.StoreInt64(&global.WriteErrors, 0)
	atomic.StoreInt64(&global.Rollbacks, 0)
	atomic.StoreInt64(&global.ExternalChanges, 0)
	atomic.StoreInt64(&global.StaleDiscards, 0)
}

// RecordPoll records one reconciliation fetch.
func RecordPoll(duration time.Duration, err error) {
	atomic.AddInt64(&global.PollTicks, 1)
	atomic.AddInt64(&global.PollLatency, duration.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&global.PollErrors, 1)
	}
}

// RecordPollSkipped records a tick skipped for single-flight.
func RecordPollSkipped() {
	atomic.AddInt64(&global.PollSkipped, 1)
}

// RecordWrite records one optimistic write attempt.
func RecordWrite(err error) {
	atomic.AddInt64(&global.Writes, 1)
	if err != nil {
		atomic.AddInt64(&global.WriteErrors, 1)
		atomic.AddInt64(&global.Rollbacks, 1)
	}
}

// RecordExternalChange records one externally-made change noticed by
// reconciliation.
func RecordExternalChange() {
	atomic.AddInt64(&global.ExternalChanges, 1)
}

// RecordStaleDiscard records a late fetch result dropped because its
// scope had been deactivated.
func RecordStaleDiscard() {
	atomic.AddInt64(&global.StaleDiscards, 1)
}
