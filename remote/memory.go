// ABOUTME: In-memory remote survey store
// ABOUTME: Used by tests and when no remote backend is configured
package remote

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/markahope-aag/hazardos-sub000/records"
)

// MemoryStore keeps records in process. Stored values are deep copies.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]records.SurveyRecord
	now     func() time.Time
	fail    error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]records.SurveyRecord{}, now: time.Now}
}

func copyRecord(rec records.SurveyRecord) records.SurveyRecord {
	data, err := json.Marshal(rec)
	if err != nil {
		return rec
	}
	var out records.SurveyRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return rec
	}
	return out
}

func memKey(orgID, id string) string {
	return orgID + "/" + id
}

func (m *MemoryStore) Create(_ context.Context, orgID string, rec records.SurveyRecord) (records.SurveyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return records.SurveyRecord{}, m.fail
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, exists := m.records[memKey(orgID, rec.ID)]; exists {
		return records.SurveyRecord{}, ErrConflict
	}
	now := m.now().UTC()
	rec.OrganizationID = orgID
	rec.CreatedAt = &now
	rec.UpdatedAt = &now
	m.records[memKey(orgID, rec.ID)] = copyRecord(rec)
	return copyRecord(rec), nil
}

func (m *MemoryStore) Get(_ context.Context, orgID, id string) (records.SurveyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail != nil {
		return records.SurveyRecord{}, m.fail
	}
	rec, ok := m.records[memKey(orgID, id)]
	if !ok {
		return records.SurveyRecord{}, records.ErrNotFound
	}
	return copyRecord(rec), nil
}

func (m *MemoryStore) Update(_ context.Context, orgID string, rec records.SurveyRecord) (records.SurveyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return records.SurveyRecord{}, m.fail
	}
	existing, ok := m.records[memKey(orgID, rec.ID)]
	if !ok {
		return records.SurveyRecord{}, records.ErrNotFound
	}
	now := m.now().UTC()
	rec.OrganizationID = orgID
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = &now
	m.records[memKey(orgID, rec.ID)] = copyRecord(rec)
	return copyRecord(rec), nil
}

// SetFailure makes every call return err until cleared with nil.
func (m *MemoryStore) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// Len reports how many records are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
