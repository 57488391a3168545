package domain

import "errors"

var (
	ErrNotMonthlyEmployee   = errors.New("attendance status applies to monthly employees only")
	ErrNotShiftEmployee     = errors.New("shift entries apply to shift/daily employees only")
	ErrUnknownStatus        = errors.New("unknown attendance status")
	ErrShiftCountOutOfRange = errors.New("shift count out of range")
	ErrEmployeeNotFound     = errors.New("employee not found")
	ErrEntryNotFound        = errors.New("ledger entry not found")
	ErrNoActiveScope        = errors.New("no project scope is active")
	ErrScopeMismatch        = errors.New("project does not match the active scope")
	ErrWriteRejected        = errors.New("server rejected the write")
)
