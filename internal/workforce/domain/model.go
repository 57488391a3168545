package domain

import (
	"fmt"
	"time"
)

// CompensationType determines which ledger applies to an employee
type CompensationType string

const (
	CompensationMonthly CompensationType = "monthly"
	CompensationShift   CompensationType = "shift"
	CompensationDaily   CompensationType = "daily"
)

// UsesShiftLedger reports whether the employee is paid per shift/day
// rather than by attendance status.
func (c CompensationType) UsesShiftLedger() bool {
	return c == CompensationShift || c == CompensationDaily
}

// AttendanceStatus values for monthly employees. StatusUnset is the
// no-record state; it is inferred from the absence of an entry and is
// never persisted.
type AttendanceStatus string

const (
	StatusUnset   AttendanceStatus = ""
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusOnDuty  AttendanceStatus = "on_duty"
)

// Employee represents one workforce member. An employee may be assigned
// to zero, one, or several projects at the same time.
type Employee struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name,omitempty"`
	CompensationType   CompensationType `json:"compensation_type"`
	BaseRate           float64          `json:"base_rate"`
	ProjectAssignments []string         `json:"project_assignments,omitempty"`
}

// AssignedTo reports whether the employee belongs to the given project.
func (e *Employee) AssignedTo(projectID string) bool {
	for _, id := range e.ProjectAssignments {
		if id == projectID {
			return true
		}
	}
	return false
}

// EntryKey identifies one ledger record. Date is an ISO calendar date
// (2006-01-02); at most one entry exists per key, a later write for the
// same key replaces the earlier one.
type EntryKey struct {
	ProjectID  string `json:"project_id"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
}

// String renders the key in a form usable as a map key.
func (k EntryKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.ProjectID, k.EmployeeID, k.Date)
}

// AttendanceEntry is the ledger record for monthly employees.
type AttendanceEntry struct {
	ProjectID  string           `json:"project_id"`
	EmployeeID string           `json:"employee_id"`
	Date       string           `json:"date"`
	Status     AttendanceStatus `json:"status"`
	CheckIn    *time.Time       `json:"check_in,omitempty"`
	CheckOut   *time.Time       `json:"check_out,omitempty"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Key returns the record's ledger key.
func (a AttendanceEntry) Key() EntryKey {
	return EntryKey{ProjectID: a.ProjectID, EmployeeID: a.EmployeeID, Date: a.Date}
}

// ShiftEntry is the ledger record for shift/daily employees. TotalPay is
// derived from ShiftCount and PerShiftRate and is never independently set.
type ShiftEntry struct {
	ProjectID    string    `json:"project_id"`
	EmployeeID   string    `json:"employee_id"`
	Date         string    `json:"date"`
	ShiftCount   float64   `json:"shift_count"`
	PerShiftRate float64   `json:"per_shift_rate"`
	TotalPay     float64   `json:"total_pay"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Key returns the record's ledger key.
func (s ShiftEntry) Key() EntryKey {
	return EntryKey{ProjectID: s.ProjectID, EmployeeID: s.EmployeeID, Date: s.Date}
}

// ProjectSnapshot is a point-in-time copy of everything visible for one
// project, tagged with the fetch time used for staleness decisions. It is
// replaced wholesale on every successful reconciliation.
type ProjectSnapshot struct {
	ProjectID  string                     `json:"project_id"`
	FetchedAt  time.Time                  `json:"fetched_at"`
	Attendance map[string]AttendanceEntry `json:"attendance"` // keyed by EntryKey.String()
	Shifts     map[string]ShiftEntry      `json:"shifts"`     // keyed by EntryKey.String()
	Employees  []Employee                 `json:"employees,omitempty"`
}

// NewProjectSnapshot creates an empty snapshot for a project.
func NewProjectSnapshot(projectID string) *ProjectSnapshot {
	return &ProjectSnapshot{
		ProjectID:  projectID,
		Attendance: make(map[string]AttendanceEntry),
		Shifts:     make(map[string]ShiftEntry),
	}
}

// MutationKind distinguishes the two write paths.
type MutationKind string

const (
	MutationAttendance MutationKind = "attendance"
	MutationShift      MutationKind = "shift"
)

// Mutation represents one user-intended ledger write. ID is assigned by
// the writer when the mutation is accepted.
type Mutation struct {
	ID           string           `json:"id"`
	Kind         MutationKind     `json:"kind"`
	ProjectID    string           `json:"project_id"`
	EmployeeID   string           `json:"employee_id"`
	Date         string           `json:"date"`
	Status       AttendanceStatus `json:"status,omitempty"`
	ShiftCount   float64          `json:"shift_count,omitempty"`
	PerShiftRate float64          `json:"per_shift_rate,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
}

// Key returns the ledger key the mutation targets.
func (m Mutation) Key() EntryKey {
	return EntryKey{ProjectID: m.ProjectID, EmployeeID: m.EmployeeID, Date: m.Date}
}

// ChangeKind classifies cache change notifications.
type ChangeKind string

const (
	// ChangeLocalWrite is emitted when an optimistic write lands in the cache.
	ChangeLocalWrite ChangeKind = "local_write"
	// ChangeRollback is emitted when a failed write is reverted.
	ChangeRollback ChangeKind = "rollback"
	// ChangeExternal is emitted when reconciliation observes a value changed
	// by another actor (another supervisor, an admin override).
	ChangeExternal ChangeKind = "external"
	// ChangeSnapshotReplaced is emitted after a full snapshot replace.
	ChangeSnapshotReplaced ChangeKind = "snapshot_replaced"
)

// ChangeEvent is delivered to cache observers. Key is zero-valued for
// snapshot-level events.
type ChangeEvent struct {
	ID        string     `json:"id"`
	Kind      ChangeKind `json:"kind"`
	ProjectID string     `json:"project_id"`
	Key       EntryKey   `json:"key,omitempty"`
	At        time.Time  `json:"at"`
}

// DateFormat is the ISO calendar date layout used for all ledger dates.
const DateFormat = "2006-01-02"

// Today returns the current date in ledger format.
func Today() string {
	return time.Now().Format(DateFormat)
}
