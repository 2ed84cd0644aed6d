// ABOUTME: Remote survey record store contract and driver selection
// ABOUTME: Records are scoped to an organization and keyed by survey id
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/markahope-aag/hazardos-sub000/config"
	"github.com/markahope-aag/hazardos-sub000/records"
)

// ErrConflict is returned by Create when a record with the same id exists.
var ErrConflict = errors.New("survey record already exists")

// Store reads and writes survey records on the remote backend.
type Store interface {
	Create(ctx context.Context, orgID string, rec records.SurveyRecord) (records.SurveyRecord, error)
	Get(ctx context.Context, orgID, id string) (records.SurveyRecord, error)
	Update(ctx context.Context, orgID string, rec records.SurveyRecord) (records.SurveyRecord, error)
}

// APIError carries a failure reported by the remote backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote store returned status %d", e.StatusCode)
	}
	return e.Message
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.RemoteConfig) (Store, error) {
	switch cfg.Driver {
	case "", config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverREST:
		return NewRESTStore(ctx, cfg)
	case config.DriverPostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	}
	return nil, fmt.Errorf("unknown remote driver %q", cfg.Driver)
}

// Upsert updates the record, creating it when the backend has never seen it.
func Upsert(ctx context.Context, s Store, orgID string, rec records.SurveyRecord) (records.SurveyRecord, error) {
	saved, err := s.Update(ctx, orgID, rec)
	if errors.Is(err, records.ErrNotFound) {
		return s.Create(ctx, orgID, rec)
	}
	return saved, err
}
