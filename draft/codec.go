// ABOUTME: Serialization of the persisted draft subset for the local durable cache
// ABOUTME: Validation caches are rebuilt on demand and never written out
package draft

import (
	"encoding/json"
	"fmt"

	"github.com/markahope-aag/hazardos-sub000/models"
)

const envelopeVersion = 1

type envelope struct {
	Version int                `json:"version"`
	Draft   models.SurveyDraft `json:"draft"`
}

// Encode serializes a draft for the local cache.
func Encode(d models.SurveyDraft) ([]byte, error) {
	data, err := json.Marshal(envelope{Version: envelopeVersion, Draft: d})
	if err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}
	return data, nil
}

// Decode reads a cached draft and restores its shape invariants.
func Decode(data []byte) (models.SurveyDraft, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return models.SurveyDraft{}, fmt.Errorf("decode draft: %w", err)
	}
	if env.Version != envelopeVersion {
		return models.SurveyDraft{}, fmt.Errorf("decode draft: unsupported version %d", env.Version)
	}
	return normalize(env.Draft), nil
}

// Marshal serializes the current draft.
func (s *Store) Marshal() ([]byte, error) {
	return Encode(s.Snapshot())
}

// Restore hydrates the store from cached bytes. Unlike Load, the cached dirty flag survives
// so an unsaved draft recovered after a restart still counts as unsaved.
func (s *Store) Restore(data []byte) error {
	d, err := Decode(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d = d
	s.rev++
	return nil
}
