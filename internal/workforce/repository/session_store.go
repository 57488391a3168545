package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/domain"
)

const (
	attendanceCachePrefix = "attendanceCache:" // attendanceCache:{project_id}
	shiftCachePrefix      = "shiftCache:"      // shiftCache:{project_id}
	defaultSnapshotTTL    = 7 * 24 * time.Hour
)

// SessionStore persists per-project ledger snapshots to Redis so a scope
// switched away from (or a reloaded session) can rehydrate its last-known
// state before the network catches up. It is written once on scope
// deactivation and read once on activation.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a session store over an existing Redis client.
// A zero ttl falls back to the default of seven days.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

// attendancePayload is the stored form of a project's attendance slice.
type attendancePayload struct {
	FetchedAt time.Time                         `json:"fetched_at"`
	Entries   map[string]domain.AttendanceEntry `json:"entries"`
	Employees []domain.Employee                 `json:"employees,omitempty"`
}

// shiftPayload is the stored form of a project's shift slice.
type shiftPayload struct {
	FetchedAt time.Time                    `json:"fetched_at"`
	Entries   map[string]domain.ShiftEntry `json:"entries"`
}

// SaveSnapshot stores both ledger slices for the snapshot's project.
func (s *SessionStore) SaveSnapshot(ctx context.Context, snap *domain.ProjectSnapshot) error {
	if snap == nil || snap.ProjectID == "" {
		return fmt.Errorf("cannot persist snapshot without a project id")
	}

	attData, err := json.Marshal(attendancePayload{
		FetchedAt: snap.FetchedAt,
		Entries:   snap.Attendance,
		Employees: snap.Employees,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal attendance cache: %w", err)
	}

	shiftData, err := json.Marshal(shiftPayload{
		FetchedAt: snap.FetchedAt,
		Entries:   snap.Shifts,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal shift cache: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, attendanceCachePrefix+snap.ProjectID, attData, s.ttl)
	pipe.Set(ctx, shiftCachePrefix+snap.ProjectID, shiftData, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}

	return nil
}

// LoadSnapshot rehydrates a project's snapshot. The second return value
// is false when nothing usable is stored; a payload that fails to
// deserialize is treated as absent, not as an error.
func (s *SessionStore) LoadSnapshot(ctx context.Context, projectID string) (*domain.ProjectSnapshot, bool, error) {
	snap := domain.NewProjectSnapshot(projectID)
	found := false

	attData, err := s.client.Get(ctx, attendanceCachePrefix+projectID).Result()
	if err != nil && err != redis.Nil {
		return nil, false, fmt.Errorf("failed to load attendance cache: %w", err)
	}
	if err == nil {
		var payload attendancePayload
		if jsonErr := json.Unmarshal([]byte(attData), &payload); jsonErr != nil {
			log.Printf("[warn] operation=load_snapshot project_id=%s discarding undecodable attendance cache: %v", projectID, jsonErr)
		} else {
			if payload.Entries != nil {
				snap.Attendance = payload.Entries
			}
			snap.Employees = payload.Employees
			snap.FetchedAt = payload.FetchedAt
			found = true
		}
	}

	shiftData, err := s.client.Get(ctx, shiftCachePrefix+projectID).Result()
	if err != nil && err != redis.Nil {
		return nil, false, fmt.Errorf("failed to load shift cache: %w", err)
	}
	if err == nil {
		var payload shiftPayload
		if jsonErr := json.Unmarshal([]byte(shiftData), &payload); jsonErr != nil {
			log.Printf("[warn] operation=load_snapshot project_id=%s discarding undecodable shift cache: %v", projectID, jsonErr)
		} else {
			if payload.Entries != nil {
				snap.Shifts = payload.Entries
			}
			if payload.FetchedAt.After(snap.FetchedAt) {
				snap.FetchedAt = payload.FetchedAt
			}
			found = true
		}
	}

	if !found {
		return nil, false, nil
	}
	return snap, true, nil
}

// DeleteSnapshot removes a project's stored slices. Used when a project
// is archived or a session is deliberately reset.
func (s *SessionStore) DeleteSnapshot(ctx context.Context, projectID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, attendanceCachePrefix+projectID)
	pipe.Del(ctx, shiftCachePrefix+projectID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Ping verifies the backing store is reachable.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
