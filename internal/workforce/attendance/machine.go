// Package attendance validates and applies status transitions for
// monthly employees. The model is a status overwrite, not a strict
// progression: a supervisor may correct a mistaken "present" to "absent"
// at any time on the same day.
package attendance

import (
	"time"

	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/domain"
)

// Machine applies attendance transitions. The zero value is not usable;
// construct with NewMachine.
type Machine struct {
	now func() time.Time
}

// NewMachine creates a state machine stamping times with the wall clock.
func NewMachine() *Machine {
	return &Machine{now: time.Now}
}

// NewMachineAt creates a state machine with a custom clock. Used in tests.
func NewMachineAt(now func() time.Time) *Machine {
	return &Machine{now: now}
}

// ValidStatus reports whether s is a settable attendance status.
// StatusUnset is not settable; it only ever arises from a missing record.
func ValidStatus(s domain.AttendanceStatus) bool {
	switch s {
	case domain.StatusPresent, domain.StatusAbsent, domain.StatusOnDuty:
		return true
	}
	return false
}

// Apply validates a transition for emp and returns the replacement entry
// for the key. current carries the existing entry when one exists;
// hasCurrent is false for the unset state. Apply never mutates current
// and performs no I/O; rejection happens before any write is attempted.
func (m *Machine) Apply(emp *domain.Employee, key domain.EntryKey, current domain.AttendanceEntry, hasCurrent bool, status domain.AttendanceStatus) (domain.AttendanceEntry, error) {
	if emp == nil {
		return domain.AttendanceEntry{}, domain.ErrEmployeeNotFound
	}
	if emp.CompensationType != domain.CompensationMonthly {
		return domain.AttendanceEntry{}, domain.ErrNotMonthlyEmployee
	}
	if !ValidStatus(status) {
		return domain.AttendanceEntry{}, domain.ErrUnknownStatus
	}

	now := m.now()
	next := domain.AttendanceEntry{
		ProjectID:  key.ProjectID,
		EmployeeID: key.EmployeeID,
		Date:       key.Date,
		Status:     status,
		UpdatedAt:  now,
	}

	switch status {
	case domain.StatusPresent, domain.StatusOnDuty:
		// Keep the first check-in of the day across corrections.
		if hasCurrent && current.CheckIn != nil {
			next.CheckIn = current.CheckIn
			next.CheckOut = current.CheckOut
		} else {
			checkIn := now
			next.CheckIn = &checkIn
		}
	case domain.StatusAbsent:
		// Absent carries no check-in/out expectation.
	}

	return next, nil
}
