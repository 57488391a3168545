package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/domain"
)

// LedgerClient handles communication with the server of record. The
// server owns the truth; this client only reads authoritative slices and
// submits individual writes.
type LedgerClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewLedgerClient creates a new server-of-record client.
func NewLedgerClient(baseURL string) *LedgerClient {
	return &LedgerClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// AttendanceRecord is the wire form of one authoritative attendance row.
type AttendanceRecord struct {
	EmployeeID string     `json:"employeeId"`
	Status     string     `json:"status"`
	CheckIn    *time.Time `json:"checkIn,omitempty"`
	CheckOut   *time.Time `json:"checkOut,omitempty"`
}

// ShiftRecord is the wire form of one authoritative shift row.
type ShiftRecord struct {
	EmployeeID   string  `json:"employeeId"`
	ShiftCount   float64 `json:"shiftCount"`
	PerShiftRate float64 `json:"perShiftRate"`
	TotalPay     float64 `json:"totalPay"`
}

// EmployeeRecord is the wire form of one directory roster row.
type EmployeeRecord struct {
	ID               string  `json:"id"`
	Name             string  `json:"name,omitempty"`
	CompensationType string  `json:"compensationType"`
	BaseRate         float64 `json:"baseRate"`
}

// submitAttendanceRequest is the body for POST attendance.
type submitAttendanceRequest struct {
	EmployeeID string    `json:"employeeId"`
	ProjectID  string    `json:"projectId"`
	Date       string    `json:"date"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// submitAttendanceResponse is the body returned by POST attendance.
type submitAttendanceResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// submitShiftRequest is the body for PUT shifts.
type submitShiftRequest struct {
	EmployeeID   string  `json:"employeeId"`
	ProjectID    string  `json:"projectId"`
	Date         string  `json:"date"`
	ShiftCount   float64 `json:"shiftCount"`
	PerShiftRate float64 `json:"perShiftRate"`
}

// FetchAttendance retrieves the authoritative attendance rows for one
// project and date.
func (c *LedgerClient) FetchAttendance(ctx context.Context, projectID, date string) ([]AttendanceRecord, error) {
	var records []AttendanceRecord
	if err := c.getJSON(ctx, "/attendance", projectID, date, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// FetchShifts retrieves the authoritative shift rows for one project
// and date.
func (c *LedgerClient) FetchShifts(ctx context.Context, projectID, date string) ([]ShiftRecord, error) {
	var records []ShiftRecord
	if err := c.getJSON(ctx, "/shifts", projectID, date, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// FetchEmployees retrieves the project's workforce roster from the
// directory collaborator.
func (c *LedgerClient) FetchEmployees(ctx context.Context, projectID string) ([]EmployeeRecord, error) {
	reqURL := fmt.Sprintf("%s/employees?projectId=%s", c.baseURL, url.QueryEscape(projectID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call server of record: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server of record returned status %d: %s", resp.StatusCode, string(body))
	}

	var records []EmployeeRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return records, nil
}

// SubmitAttendance sends one attendance write to the server of record.
func (c *LedgerClient) SubmitAttendance(ctx context.Context, m domain.Mutation) error {
	reqBody := submitAttendanceRequest{
		EmployeeID: m.EmployeeID,
		ProjectID:  m.ProjectID,
		Date:       m.Date,
		Status:     string(m.Status),
		Timestamp:  m.Timestamp,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	reqURL := c.baseURL + "/attendance"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call server of record: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("server of record returned status %d: %s", resp.StatusCode, string(body))
	}

	var submitResp submitAttendanceResponse
	if err := json.Unmarshal(body, &submitResp); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !submitResp.Success {
		return fmt.Errorf("%w: %s", domain.ErrWriteRejected, submitResp.Message)
	}

	return nil
}

// SubmitShift sends one shift write and returns the authoritative row,
// including the server-computed total.
func (c *LedgerClient) SubmitShift(ctx context.Context, m domain.Mutation) (ShiftRecord, error) {
	reqBody := submitShiftRequest{
		EmployeeID:   m.EmployeeID,
		ProjectID:    m.ProjectID,
		Date:         m.Date,
		ShiftCount:   m.ShiftCount,
		PerShiftRate: m.PerShiftRate,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return ShiftRecord{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqURL := c.baseURL + "/shifts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, reqURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return ShiftRecord{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ShiftRecord{}, fmt.Errorf("failed to call server of record: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ShiftRecord{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return ShiftRecord{}, fmt.Errorf("server of record returned status %d: %s", resp.StatusCode, string(body))
	}

	var record ShiftRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return ShiftRecord{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return record, nil
}

func (c *LedgerClient) getJSON(ctx context.Context, path, projectID, date string, out interface{}) error {
	reqURL := fmt.Sprintf("%s%s?date=%s&projectId=%s",
		c.baseURL, path, url.QueryEscape(date), url.QueryEscape(projectID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call server of record: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server of record returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
