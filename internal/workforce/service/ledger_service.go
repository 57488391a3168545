package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/attendance"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/cache"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/domain"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/metrics"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/pay"
	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/scope"
)

// Submitter is the optimistic write path. Implemented by the writer.
type Submitter interface {
	SubmitAttendance(ctx context.Context, m domain.Mutation, entry domain.AttendanceEntry) error
	SubmitShift(ctx context.Context, m domain.Mutation, entry domain.ShiftEntry) error
}

// LedgerService is the facade the portal surface talks to. It validates
// every mutation locally before anything reaches the cache or the
// network, then hands it to the optimistic writer.
type LedgerService struct {
	cache   *cache.LedgerCache
	scopes  *scope.Manager
	writer  Submitter
	machine *attendance.Machine
	now     func() time.Time
}

// NewLedgerService creates the service facade.
func NewLedgerService(c *cache.LedgerCache, scopes *scope.Manager, w Submitter) *LedgerService {
	return &LedgerService{
		cache:   c,
		scopes:  scopes,
		writer:  w,
		machine: attendance.NewMachine(),
		now:     time.Now,
	}
}

// ActivateProject makes projectID the active scope for today's ledger.
func (s *LedgerService) ActivateProject(ctx context.Context, projectID string) error {
	return s.scopes.Activate(ctx, projectID)
}

// ActivateProjectForDate makes projectID the active scope viewing date.
func (s *LedgerService) ActivateProjectForDate(ctx context.Context, projectID, date string) error {
	return s.scopes.ActivateForDate(ctx, projectID, date)
}

// DeactivateProject clears the active scope.
func (s *LedgerService) DeactivateProject(ctx context.Context) {
	s.scopes.Deactivate(ctx)
}

// ActiveProject returns the active scope, if any.
func (s *LedgerService) ActiveProject() (string, bool) {
	return s.scopes.Active()
}

// ActiveDate returns the ledger date the active scope is viewing.
func (s *LedgerService) ActiveDate() string {
	return s.scopes.ActiveDate()
}

// Subscribe registers an observer on the cache's change feed. The portal
// UI uses this for instant re-render and "changed elsewhere" toasts.
func (s *LedgerService) Subscribe(obs cache.Observer) {
	s.cache.Subscribe(obs)
}

// MarkAttendance sets an attendance status for a monthly employee on the
// active project. Validation failures are rejected before any cache
// change or network call.
func (s *LedgerService) MarkAttendance(ctx context.Context, projectID, employeeID, date string, status domain.AttendanceStatus) (domain.AttendanceEntry, error) {
	logger := NewLogger(ctx)

	if err := s.scopes.Guard(projectID); err != nil {
		return domain.AttendanceEntry{}, err
	}

	emp, err := s.findEmployee(projectID, employeeID)
	if err != nil {
		return domain.AttendanceEntry{}, err
	}

	key := domain.EntryKey{ProjectID: projectID, EmployeeID: employeeID, Date: date}
	current, hasCurrent := s.cache.GetAttendance(key)

	entry, err := s.machine.Apply(emp, key, current, hasCurrent, status)
	if err != nil {
		return domain.AttendanceEntry{}, err
	}

	m := domain.Mutation{
		ProjectID:  projectID,
		EmployeeID: employeeID,
		Date:       date,
		Status:     status,
		Timestamp:  s.now(),
	}

	err = s.writer.SubmitAttendance(ctx, m, entry)
	metrics.RecordWrite(err)
	if err != nil {
		logger.LogError("mark_attendance", err)
		return domain.AttendanceEntry{}, err
	}

	logger.LogInfof("mark_attendance", "project_id=%s employee_id=%s date=%s status=%s", projectID, employeeID, date, status)
	return entry, nil
}

// LogShift records a fractional shift for a shift/daily employee on the
// active project. perShiftRate <= 0 means "use the employee's base
// rate". The total is derived here and never accepted from the caller.
func (s *LedgerService) LogShift(ctx context.Context, projectID, employeeID, date string, shiftCount, perShiftRate float64) (domain.ShiftEntry, error) {
	logger := NewLogger(ctx)

	if err := s.scopes.Guard(projectID); err != nil {
		return domain.ShiftEntry{}, err
	}

	emp, err := s.findEmployee(projectID, employeeID)
	if err != nil {
		return domain.ShiftEntry{}, err
	}
	if !emp.CompensationType.UsesShiftLedger() {
		return domain.ShiftEntry{}, domain.ErrNotShiftEmployee
	}

	if !pay.ValidShiftCount(shiftCount) {
		return domain.ShiftEntry{}, fmt.Errorf("%w: %v", domain.ErrShiftCountOutOfRange, shiftCount)
	}
	if perShiftRate <= 0 {
		perShiftRate = emp.BaseRate
	}

	entry := domain.ShiftEntry{
		ProjectID:    projectID,
		EmployeeID:   employeeID,
		Date:         date,
		ShiftCount:   shiftCount,
		PerShiftRate: perShiftRate,
		TotalPay:     pay.ComputeTotal(shiftCount, perShiftRate),
		UpdatedAt:    s.now(),
	}
	m := domain.Mutation{
		ProjectID:    projectID,
		EmployeeID:   employeeID,
		Date:         date,
		ShiftCount:   shiftCount,
		PerShiftRate: perShiftRate,
		Timestamp:    s.now(),
	}

	err = s.writer.SubmitShift(ctx, m, entry)
	metrics.RecordWrite(err)
	if err != nil {
		logger.LogError("log_shift", err)
		return domain.ShiftEntry{}, err
	}

	logger.LogInfof("log_shift", "project_id=%s employee_id=%s date=%s shifts=%.1f total=%.2f", projectID, employeeID, date, shiftCount, entry.TotalPay)
	return entry, nil
}

// WorkforceRow is one employee's ledger state as the dashboard shows it.
type WorkforceRow struct {
	Employee domain.Employee         `json:"employee"`
	Status   string                  `json:"status,omitempty"`
	Entry    *domain.AttendanceEntry `json:"attendance,omitempty"`
	Shift    *domain.ShiftEntry      `json:"shift,omitempty"`
}

// ProjectWorkforce returns one row per rostered employee of the active
// project for the given date, dispatched by compensation type: monthly
// employees carry their attendance entry (or unset), shift/daily
// employees their shift entry.
func (s *LedgerService) ProjectWorkforce(projectID, date string) ([]WorkforceRow, error) {
	if err := s.scopes.Guard(projectID); err != nil {
		return nil, err
	}

	employees := s.cache.Employees(projectID)
	rows := make([]WorkforceRow, 0, len(employees))
	for _, emp := range employees {
		row := WorkforceRow{Employee: emp}
		key := domain.EntryKey{ProjectID: projectID, EmployeeID: emp.ID, Date: date}

		if emp.CompensationType.UsesShiftLedger() {
			if entry, ok := s.cache.GetShift(key); ok {
				row.Shift = &entry
			}
		} else {
			if entry, ok := s.cache.GetAttendance(key); ok {
				row.Entry = &entry
				row.Status = string(entry.Status)
			} else {
				row.Status = "unset"
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ProjectLedger returns a copy of the active project's snapshot.
func (s *LedgerService) ProjectLedger(projectID string) (*domain.ProjectSnapshot, error) {
	if err := s.scopes.Guard(projectID); err != nil {
		return nil, err
	}
	snap, ok := s.cache.Snapshot(projectID)
	if !ok {
		return domain.NewProjectSnapshot(projectID), nil
	}
	return snap, nil
}

// findEmployee resolves an employee from the cached roster and verifies
// the project assignment when the roster carries one.
func (s *LedgerService) findEmployee(projectID, employeeID string) (*domain.Employee, error) {
	for _, emp := range s.cache.Employees(projectID) {
		if emp.ID == employeeID {
			if len(emp.ProjectAssignments) > 0 && !emp.AssignedTo(projectID) {
				return nil, domain.ErrEmployeeNotFound
			}
			e := emp
			return &e, nil
		}
	}
	return nil, domain.ErrEmployeeNotFound
}
