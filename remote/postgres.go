// ABOUTME: Postgres-backed survey record store using pgx through database/sql
// ABOUTME: Keeps each record as a JSONB payload in the site_surveys table
package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/markahope-aag/hazardos-sub000/records"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/hazardos?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

const surveysDDL = `CREATE TABLE IF NOT EXISTS site_surveys (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	status TEXT NOT NULL,
	payload JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore persists survey records in Postgres.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStore opens dsn (or the local default), pings it, and ensures the table exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, surveysDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure site_surveys table: %w", err)
	}
	return &PostgresStore{db: db, now: time.Now}, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *PostgresStore) DB() *sql.DB { return s.db }

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) Create(ctx context.Context, orgID string, rec records.SurveyRecord) (records.SurveyRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := s.now().UTC()
	rec.OrganizationID = orgID
	rec.CreatedAt = &now
	rec.UpdatedAt = &now

	payload, err := json.Marshal(rec)
	if err != nil {
		return records.SurveyRecord{}, fmt.Errorf("encode record: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO site_surveys (id, organization_id, status, payload, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, rec.ID, orgID, string(rec.Status), string(payload), now)
	if err != nil {
		return records.SurveyRecord{}, fmt.Errorf("insert survey: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return records.SurveyRecord{}, ErrConflict
	}
	return rec, nil
}

func (s *PostgresStore) Get(ctx context.Context, orgID, id string) (records.SurveyRecord, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM site_surveys WHERE id = $1 AND organization_id = $2
	`, id, orgID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return records.SurveyRecord{}, records.ErrNotFound
	}
	if err != nil {
		return records.SurveyRecord{}, fmt.Errorf("select survey: %w", err)
	}
	var rec records.SurveyRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return records.SurveyRecord{}, fmt.Errorf("decode survey %s: %w", id, err)
	}
	return rec, nil
}

func (s *PostgresStore) Update(ctx context.Context, orgID string, rec records.SurveyRecord) (records.SurveyRecord, error) {
	existing, err := s.Get(ctx, orgID, rec.ID)
	if err != nil {
		return records.SurveyRecord{}, err
	}
	now := s.now().UTC()
	rec.OrganizationID = orgID
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = &now

	payload, err := json.Marshal(rec)
	if err != nil {
		return records.SurveyRecord{}, fmt.Errorf("encode record: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE site_surveys SET status = $1, payload = $2, updated_at = $3
		WHERE id = $4 AND organization_id = $5
	`, string(rec.Status), string(payload), now, rec.ID, orgID)
	if err != nil {
		return records.SurveyRecord{}, fmt.Errorf("update survey: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return records.SurveyRecord{}, records.ErrNotFound
	}
	return rec, nil
}
