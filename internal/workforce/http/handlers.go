package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/domain"
)

// ActivateScope makes a project the active scope. An optional ?date=
// query selects the ledger date; it defaults to today.
func (h *Handler) ActivateScope(c *gin.Context) {
	projectID := c.Param("projectId")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project id is required"})
		return
	}

	var err error
	if date := c.Query("date"); date != "" {
		err = h.ledger.ActivateProjectForDate(c.Request.Context(), projectID, date)
	} else {
		err = h.ledger.ActivateProject(c.Request.Context(), projectID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to activate project scope"})
		return
	}

	c.JSON(http.StatusOK, activeScopeResponse{
		Active:    true,
		ProjectID: projectID,
		Date:      h.ledger.ActiveDate(),
	})
}

// DeactivateScope clears the active scope.
func (h *Handler) DeactivateScope(c *gin.Context) {
	h.ledger.DeactivateProject(c.Request.Context())
	c.JSON(http.StatusOK, activeScopeResponse{Active: false})
}

// ActiveScope reports the active scope.
func (h *Handler) ActiveScope(c *gin.Context) {
	projectID, ok := h.ledger.ActiveProject()
	c.JSON(http.StatusOK, activeScopeResponse{
		Active:    ok,
		ProjectID: projectID,
		Date:      h.ledger.ActiveDate(),
	})
}

// ProjectWorkforce returns one ledger row per rostered employee for the
// active project. ?date= defaults to the scope's date.
func (h *Handler) ProjectWorkforce(c *gin.Context) {
	projectID := c.Param("projectId")
	date := c.Query("date")
	if date == "" {
		date = h.ledger.ActiveDate()
	}

	rows, err := h.ledger.ProjectWorkforce(projectID, date)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workforce": rows, "date": date})
}

// ProjectLedger returns the active project's full cached snapshot.
func (h *Handler) ProjectLedger(c *gin.Context) {
	snap, err := h.ledger.ProjectLedger(c.Param("projectId"))
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ledger": snap})
}

// MarkAttendance sets an attendance status for a monthly employee.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var body markAttendanceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	entry, err := h.ledger.MarkAttendance(
		c.Request.Context(),
		c.Param("projectId"),
		body.EmployeeID,
		body.Date,
		domain.AttendanceStatus(body.Status),
	)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// LogShift records a fractional shift for a shift/daily employee.
func (h *Handler) LogShift(c *gin.Context) {
	var body logShiftRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	entry, err := h.ledger.LogShift(
		c.Request.Context(),
		c.Param("projectId"),
		body.EmployeeID,
		body.Date,
		body.ShiftCount,
		body.PerShiftRate,
	)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// respondLedgerError maps domain errors onto HTTP statuses. Validation
// failures are the caller's fault; a rejected server write surfaces as
// a bad gateway so the portal can tell "fix your input" from "try again".
func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotMonthlyEmployee),
		errors.Is(err, domain.ErrNotShiftEmployee),
		errors.Is(err, domain.ErrUnknownStatus),
		errors.Is(err, domain.ErrShiftCountOutOfRange):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrEmployeeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNoActiveScope), errors.Is(err, domain.ErrScopeMismatch):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
