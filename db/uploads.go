// ABOUTME: Durable storage for photo upload queue entries
// ABOUTME: Keeps queued photos and their retry state across process restarts
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/markahope-aag/hazardos-sub000/models"
)

// UploadQueueStore persists upload entries in the photo_upload_queue table.
type UploadQueueStore struct {
	db *sql.DB
}

func NewUploadQueueStore(db *sql.DB) *UploadQueueStore {
	return &UploadQueueStore{db: db}
}

// SaveEntry inserts or replaces the entry keyed by (survey, photo).
func (s *UploadQueueStore) SaveEntry(ctx context.Context, e models.UploadEntry) error {
	photo, err := json.Marshal(e.Photo)
	if err != nil {
		return fmt.Errorf("failed to encode queued photo: %w", err)
	}

	var lastError, remoteURL sql.NullString
	if e.LastError != "" {
		lastError = sql.NullString{String: e.LastError, Valid: true}
	}
	if e.RemoteURL != "" {
		remoteURL = sql.NullString{String: e.RemoteURL, Valid: true}
	}
	var nextAttempt sql.NullTime
	if e.NextAttemptAt != nil {
		nextAttempt = sql.NullTime{Time: *e.NextAttemptAt, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO photo_upload_queue (survey_id, photo_id, state, attempt_count, last_error, next_attempt_at, remote_url, photo, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(survey_id, photo_id) DO UPDATE SET
			state = excluded.state,
			attempt_count = excluded.attempt_count,
			last_error = excluded.last_error,
			next_attempt_at = excluded.next_attempt_at,
			remote_url = excluded.remote_url,
			photo = excluded.photo,
			updated_at = excluded.updated_at
	`, e.SurveyID, e.PhotoID, string(e.State), e.AttemptCount, lastError, nextAttempt, remoteURL, string(photo), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save upload entry: %w", err)
	}
	return nil
}

// DeleteEntry removes one entry. Missing entries are not an error.
func (s *UploadQueueStore) DeleteEntry(ctx context.Context, surveyID, photoID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM photo_upload_queue WHERE survey_id = ? AND photo_id = ?`, surveyID, photoID)
	if err != nil {
		return fmt.Errorf("failed to delete upload entry: %w", err)
	}
	return nil
}

// DeleteSurveyEntries removes every entry for a survey.
func (s *UploadQueueStore) DeleteSurveyEntries(ctx context.Context, surveyID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM photo_upload_queue WHERE survey_id = ?`, surveyID)
	if err != nil {
		return fmt.Errorf("failed to clear upload entries: %w", err)
	}
	return nil
}

// LoadEntries returns every queued entry, oldest first.
func (s *UploadQueueStore) LoadEntries(ctx context.Context) ([]models.UploadEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT survey_id, photo_id, state, attempt_count, last_error, next_attempt_at, remote_url, photo, created_at, updated_at
		FROM photo_upload_queue
		ORDER BY created_at, photo_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query upload entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []models.UploadEntry
	for rows.Next() {
		var e models.UploadEntry
		var state, photo string
		var lastError, remoteURL sql.NullString
		var nextAttempt sql.NullTime

		if err := rows.Scan(&e.SurveyID, &e.PhotoID, &state, &e.AttemptCount, &lastError, &nextAttempt, &remoteURL, &photo, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload entry: %w", err)
		}
		e.State = models.UploadState(state)
		e.LastError = lastError.String
		e.RemoteURL = remoteURL.String
		if nextAttempt.Valid {
			t := nextAttempt.Time
			e.NextAttemptAt = &t
		}
		if err := json.Unmarshal([]byte(photo), &e.Photo); err != nil {
			return nil, fmt.Errorf("failed to decode queued photo %s: %w", e.PhotoID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating upload entries: %w", err)
	}
	return entries, nil
}

// CountByState aggregates entry counts for one survey.
func (s *UploadQueueStore) CountByState(ctx context.Context, surveyID string) (map[models.UploadState]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT state, COUNT(*) FROM photo_upload_queue WHERE survey_id = ? GROUP BY state
	`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to count upload entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := map[models.UploadState]int{}
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("failed to scan upload count: %w", err)
		}
		counts[models.UploadState(state)] = n
	}
	return counts, rows.Err()
}

// PruneUploaded drops uploaded entries older than cutoff.
func (s *UploadQueueStore) PruneUploaded(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM photo_upload_queue WHERE state = ? AND updated_at < ?
	`, string(models.UploadUploaded), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune upload entries: %w", err)
	}
	return res.RowsAffected()
}
