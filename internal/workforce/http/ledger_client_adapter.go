package http

import (
	"context"

	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/domain"
)

// LedgerClientAdapter adapts the wire-level client to the domain-typed
// interfaces the writer and poller consume.
type LedgerClientAdapter struct {
	client *LedgerClient
}

// NewLedgerClientAdapter creates a new adapter.
func NewLedgerClientAdapter(client *LedgerClient) *LedgerClientAdapter {
	return &LedgerClientAdapter{client: client}
}

// FetchAttendance fetches attendance rows and converts to domain entries.
func (a *LedgerClientAdapter) FetchAttendance(ctx context.Context, projectID, date string) ([]domain.AttendanceEntry, error) {
	records, err := a.client.FetchAttendance(ctx, projectID, date)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.AttendanceEntry, len(records))
	for i, r := range records {
		entries[i] = domain.AttendanceEntry{
			ProjectID:  projectID,
			EmployeeID: r.EmployeeID,
			Date:       date,
			Status:     domain.AttendanceStatus(r.Status),
			CheckIn:    r.CheckIn,
			CheckOut:   r.CheckOut,
		}
	}
	return entries, nil
}

// FetchShifts fetches shift rows and converts to domain entries. Totals
// are passed through as stored; the poller recomputes and verifies them.
func (a *LedgerClientAdapter) FetchShifts(ctx context.Context, projectID, date string) ([]domain.ShiftEntry, error) {
	records, err := a.client.FetchShifts(ctx, projectID, date)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.ShiftEntry, len(records))
	for i, r := range records {
		entries[i] = domain.ShiftEntry{
			ProjectID:    projectID,
			EmployeeID:   r.EmployeeID,
			Date:         date,
			ShiftCount:   r.ShiftCount,
			PerShiftRate: r.PerShiftRate,
			TotalPay:     r.TotalPay,
		}
	}
	return entries, nil
}

// FetchEmployees fetches the project roster and converts to domain
// employees.
func (a *LedgerClientAdapter) FetchEmployees(ctx context.Context, projectID string) ([]domain.Employee, error) {
	records, err := a.client.FetchEmployees(ctx, projectID)
	if err != nil {
		return nil, err
	}

	employees := make([]domain.Employee, len(records))
	for i, r := range records {
		employees[i] = domain.Employee{
			ID:               r.ID,
			Name:             r.Name,
			CompensationType: domain.CompensationType(r.CompensationType),
			BaseRate:         r.BaseRate,
		}
	}
	return employees, nil
}

// SubmitAttendance forwards one attendance write.
func (a *LedgerClientAdapter) SubmitAttendance(ctx context.Context, m domain.Mutation) error {
	return a.client.SubmitAttendance(ctx, m)
}

// SubmitShift forwards one shift write and converts the confirmed row.
func (a *LedgerClientAdapter) SubmitShift(ctx context.Context, m domain.Mutation) (domain.ShiftEntry, error) {
	record, err := a.client.SubmitShift(ctx, m)
	if err != nil {
		return domain.ShiftEntry{}, err
	}
	return domain.ShiftEntry{
		ProjectID:    m.ProjectID,
		EmployeeID:   record.EmployeeID,
		Date:         m.Date,
		ShiftCount:   record.ShiftCount,
		PerShiftRate: record.PerShiftRate,
		TotalPay:     record.TotalPay,
	}, nil
}
