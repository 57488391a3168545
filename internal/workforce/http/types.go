package http

import (
	"github.com/gin-gonic/gin"

	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/service"
)

// Handler handles portal-facing HTTP requests for the workforce ledger.
type Handler struct {
	ledger *service.LedgerService
}

// New creates a new Handler.
func New(ledger *service.LedgerService) *Handler {
	return &Handler{ledger: ledger}
}

// Register registers the workforce ledger routes.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/scope/:projectId", h.ActivateScope)
	rg.DELETE("/scope", h.DeactivateScope)
	rg.GET("/scope", h.ActiveScope)
	rg.GET("/projects/:projectId/workforce", h.ProjectWorkforce)
	rg.GET("/projects/:projectId/ledger", h.ProjectLedger)
	rg.POST("/projects/:projectId/attendance", h.MarkAttendance)
	rg.PUT("/projects/:projectId/shifts", h.LogShift)
}

// markAttendanceRequest is the body for POST attendance.
type markAttendanceRequest struct {
	EmployeeID string `json:"employee_id" binding:"required"`
	Date       string `json:"date" binding:"required"`
	Status     string `json:"status" binding:"required"`
}

// logShiftRequest is the body for PUT shifts. PerShiftRate omitted or
// zero falls back to the employee's base rate.
type logShiftRequest struct {
	EmployeeID   string  `json:"employee_id" binding:"required"`
	Date         string  `json:"date" binding:"required"`
	ShiftCount   float64 `json:"shift_count"`
	PerShiftRate float64 `json:"per_shift_rate"`
}

// activeScopeResponse reports the active project, if any.
type activeScopeResponse struct {
	Active    bool   `json:"active"`
	ProjectID string `json:"project_id,omitempty"`
	Date      string `json:"date,omitempty"`
}
