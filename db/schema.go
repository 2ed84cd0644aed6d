// ABOUTME: Database schema definitions
// ABOUTME: Upload queue, per-survey sync state, and the sync activity log
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS photo_upload_queue (
	survey_id TEXT NOT NULL,
	photo_id TEXT NOT NULL,
	state TEXT NOT NULL,
	attempt_count INTEGER NOT NULL DEFAULT 0,
	last_error TEXT,
	next_attempt_at DATETIME,
	remote_url TEXT,
	photo TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (survey_id, photo_id)
);

CREATE INDEX IF NOT EXISTS idx_upload_queue_state ON photo_upload_queue(survey_id, state);

CREATE TABLE IF NOT EXISTS sync_state (
	survey_id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	submit_pending INTEGER NOT NULL DEFAULT 0,
	remote_stale INTEGER NOT NULL DEFAULT 0,
	last_sync_time DATETIME,
	error_message TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_log (
	id TEXT PRIMARY KEY,
	survey_id TEXT NOT NULL,
	organization_id TEXT,
	action TEXT NOT NULL,
	occurred_at DATETIME NOT NULL,
	metadata TEXT
);

CREATE INDEX IF NOT EXISTS idx_sync_log_survey ON sync_log(survey_id);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
