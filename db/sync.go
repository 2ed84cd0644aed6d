// ABOUTME: Database operations for sync_state and sync_log tables
// ABOUTME: Tracks per-survey pending submissions, stale remote copies, and the last sync error
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sync statuses.
const (
	SyncStatusIdle          = "idle"
	SyncStatusPendingSubmit = "pending_submit"
	SyncStatusError         = "error"
	SyncStatusSubmitted     = "submitted"
)

// SyncState is the persisted sync bookkeeping for one survey.
type SyncState struct {
	SurveyID      string
	Status        string
	SubmitPending bool
	RemoteStale   bool
	LastSyncTime  *time.Time
	ErrorMessage  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SyncStateStore reads and writes sync_state rows.
type SyncStateStore struct {
	db *sql.DB
}

func NewSyncStateStore(db *sql.DB) *SyncStateStore {
	return &SyncStateStore{db: db}
}

const syncStateColumns = `survey_id, status, submit_pending, remote_stale, last_sync_time, error_message, created_at, updated_at`

func scanSyncState(row interface{ Scan(...any) error }) (*SyncState, error) {
	var state SyncState
	var lastSyncTime sql.NullTime
	var errorMessage sql.NullString

	if err := row.Scan(
		&state.SurveyID,
		&state.Status,
		&state.SubmitPending,
		&state.RemoteStale,
		&lastSyncTime,
		&errorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lastSyncTime.Valid {
		state.LastSyncTime = &lastSyncTime.Time
	}
	if errorMessage.Valid {
		state.ErrorMessage = &errorMessage.String
	}
	return &state, nil
}

// Get returns the sync state for a survey, or nil if none was recorded.
func (s *SyncStateStore) Get(ctx context.Context, surveyID string) (*SyncState, error) {
	state, err := scanSyncState(s.db.QueryRowContext(ctx, `SELECT `+syncStateColumns+` FROM sync_state WHERE survey_id = ?`, surveyID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}
	return state, nil
}

// All returns every recorded sync state ordered by survey id.
func (s *SyncStateStore) All(ctx context.Context) ([]SyncState, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+syncStateColumns+` FROM sync_state ORDER BY survey_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var states []SyncState
	for rows.Next() {
		state, err := scanSyncState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}
		states = append(states, *state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync states: %w", err)
	}
	return states, nil
}

// SetFlags records whether a submit is waiting for connectivity and whether the remote copy is stale.
func (s *SyncStateStore) SetFlags(ctx context.Context, surveyID string, submitPending, remoteStale bool) error {
	status := SyncStatusIdle
	if submitPending {
		status = SyncStatusPendingSubmit
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (survey_id, status, submit_pending, remote_stale, created_at, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(survey_id) DO UPDATE SET
			status = CASE WHEN sync_state.status = 'error' AND excluded.status = 'idle' THEN sync_state.status ELSE excluded.status END,
			submit_pending = excluded.submit_pending,
			remote_stale = excluded.remote_stale,
			updated_at = CURRENT_TIMESTAMP
	`, surveyID, status, submitPending, remoteStale)
	if err != nil {
		return fmt.Errorf("failed to update sync flags: %w", err)
	}
	return nil
}

// RecordError keeps the last failure reason until the next successful sync.
func (s *SyncStateStore) RecordError(ctx context.Context, surveyID, message string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (survey_id, status, error_message, created_at, updated_at)
		VALUES (?, 'error', ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(survey_id) DO UPDATE SET
			status = 'error',
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, surveyID, message)
	if err != nil {
		return fmt.Errorf("failed to record sync error: %w", err)
	}
	return nil
}

// RecordSuccess stamps the sync time and clears any retained error.
func (s *SyncStateStore) RecordSuccess(ctx context.Context, surveyID, status string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (survey_id, status, last_sync_time, created_at, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(survey_id) DO UPDATE SET
			status = excluded.status,
			last_sync_time = CURRENT_TIMESTAMP,
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, surveyID, status)
	if err != nil {
		return fmt.Errorf("failed to record sync success: %w", err)
	}
	return nil
}

// Delete forgets a survey's sync state.
func (s *SyncStateStore) Delete(ctx context.Context, surveyID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sync_state WHERE survey_id = ?`, surveyID); err != nil {
		return fmt.Errorf("failed to delete sync state: %w", err)
	}
	return nil
}

// SyncLogEntry is one recorded save or submission.
type SyncLogEntry struct {
	ID             string
	SurveyID       string
	OrganizationID string
	Action         string
	OccurredAt     time.Time
	Metadata       string
}

// AppendLog records a sync action for a survey.
func (s *SyncStateStore) AppendLog(ctx context.Context, surveyID, organizationID, action, metadata string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_log (id, survey_id, organization_id, action, occurred_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), surveyID, organizationID, action, time.Now().UTC(), metadata)
	if err != nil {
		return fmt.Errorf("failed to create sync log: %w", err)
	}
	return nil
}

// RecentLog returns the newest log entries first.
func (s *SyncStateStore) RecentLog(ctx context.Context, limit int) ([]SyncLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, survey_id, COALESCE(organization_id, ''), action, occurred_at, COALESCE(metadata, '')
		FROM sync_log
		ORDER BY occurred_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SyncLogEntry
	for rows.Next() {
		var e SyncLogEntry
		if err := rows.Scan(&e.ID, &e.SurveyID, &e.OrganizationID, &e.Action, &e.OccurredAt, &e.Metadata); err != nil {
			return nil, fmt.Errorf("failed to scan sync log: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
