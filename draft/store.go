// ABOUTME: Authoritative in-memory container for one survey in progress
// ABOUTME: Merge-patch setters, dirty tracking with revisions, and snapshot reads for background work
package draft

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/markahope-aag/hazardos-sub000/hazards"
	"github.com/markahope-aag/hazardos-sub000/models"
)

var (
	// ErrHazardNotSelected is returned when editing detail for a hazard type that is not selected.
	ErrHazardNotSelected = errors.New("hazard type not selected")
	// ErrNotFound is returned when an entity id does not exist in the draft.
	ErrNotFound = errors.New("not found")
	// ErrUnknownHazard is returned for hazard types outside the known set.
	ErrUnknownHazard = errors.New("unknown hazard type")
)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for startedAt and photo timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the generator used for survey and entity ids.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// Store holds one SurveyDraft. A single writer mutates it; any goroutine may take snapshots.
// Mutation callbacks run under the write lock and must not call back into the Store.
type Store struct {
	mu    sync.RWMutex
	d     models.SurveyDraft
	rev   uint64
	now   func() time.Time
	newID func() string
}

// New creates a Store holding a default draft.
func New(opts ...Option) *Store {
	s := &Store{
		d:     models.NewSurveyDraft(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// touch records a user mutation. Caller holds the write lock.
func (s *Store) touch() {
	s.rev++
	s.d.IsDirty = true
	if s.d.StartedAt == nil {
		t := s.now()
		s.d.StartedAt = &t
	}
}

func (s *Store) mutate(fn func(d *models.SurveyDraft) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(&s.d); err != nil {
		return err
	}
	s.touch()
	return nil
}

// Snapshot returns a deep copy safe to read from any goroutine.
func (s *Store) Snapshot() models.SurveyDraft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.Clone()
}

// Checkpoint returns a snapshot and the revision it reflects, for use with MarkSaved.
func (s *Store) Checkpoint() (models.SurveyDraft, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.Clone(), s.rev
}

// Revision is incremented by every user mutation, reset and load.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

func (s *Store) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.IsDirty
}

func (s *Store) CurrentSection() models.SurveySection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.CurrentSection
}

// SurveyID returns the assigned survey id, if any.
func (s *Store) SurveyID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.d.SurveyID == nil {
		return "", false
	}
	return *s.d.SurveyID, true
}

func (s *Store) Property() models.PropertyData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.Property.Clone()
}

func (s *Store) Access() models.AccessData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.Access.Clone()
}

func (s *Store) Environment() models.EnvironmentData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.Environment.Clone()
}

func (s *Store) Hazards() models.HazardsData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.Hazards.Clone()
}

func (s *Store) Notes() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.Notes
}

// UpdateProperty applies fn to the property section. Fields fn leaves alone are kept.
func (s *Store) UpdateProperty(fn func(p *models.PropertyData)) {
	_ = s.mutate(func(d *models.SurveyDraft) error {
		fn(&d.Property)
		// Build year drives the lead RRP rule.
		hazards.ApplyLead(d.Hazards.Lead, d.Property.YearBuilt)
		return nil
	})
}

func (s *Store) UpdateAccess(fn func(a *models.AccessData)) {
	_ = s.mutate(func(d *models.SurveyDraft) error {
		fn(&d.Access)
		return nil
	})
}

func (s *Store) UpdateEnvironment(fn func(e *models.EnvironmentData)) {
	_ = s.mutate(func(d *models.SurveyDraft) error {
		fn(&d.Environment)
		return nil
	})
}

func (s *Store) SetNotes(notes string) {
	_ = s.mutate(func(d *models.SurveyDraft) error {
		d.Notes = notes
		return nil
	})
}

// SetCustomer links the draft to a customer and organization. Empty strings clear the link.
func (s *Store) SetCustomer(customerID, organizationID string) {
	_ = s.mutate(func(d *models.SurveyDraft) error {
		d.CustomerID = optional(customerID)
		d.OrganizationID = optional(organizationID)
		return nil
	})
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// SetCurrentSection moves the navigation cursor. Cursor moves are not edits.
func (s *Store) SetCurrentSection(section models.SurveySection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.CurrentSection = section
}

// SetValidation caches one section's verdict.
func (s *Store) SetValidation(section models.SurveySection, v models.SectionValidation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.d.Validation == nil {
		s.d.Validation = map[models.SurveySection]models.SectionValidation{}
	}
	s.d.Validation[section] = v
}

// SetValidationMap replaces the cached verdicts for every section in m.
func (s *Store) SetValidationMap(m map[models.SurveySection]models.SectionValidation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.d.Validation == nil {
		s.d.Validation = map[models.SurveySection]models.SectionValidation{}
	}
	for k, v := range m {
		s.d.Validation[k] = v
	}
}

// Validation returns a copy of the cached verdicts.
func (s *Store) Validation() map[models.SurveySection]models.SectionValidation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.Clone().Validation
}

// EnsureSurveyID assigns a client-generated survey id on first persist and returns it.
func (s *Store) EnsureSurveyID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.d.SurveyID == nil {
		id := s.newID()
		s.d.SurveyID = &id
	}
	return *s.d.SurveyID
}

// AssignSurveyID records the id the draft is persisted under.
func (s *Store) AssignSurveyID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.SurveyID = &id
}

// MarkSaved stamps lastSavedAt and clears the dirty flag if nothing changed since rev.
func (s *Store) MarkSaved(rev uint64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.LastSavedAt = &at
	if rev == s.rev {
		s.d.IsDirty = false
	}
}

// Reset returns the store to a default draft.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d = models.NewSurveyDraft()
	s.rev++
}

// Load replaces the draft with d (typically mapped from a remote record) and clears dirty.
func (s *Store) Load(d models.SurveyDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d = normalize(d.Clone())
	s.d.IsDirty = false
	s.d.Validation = map[models.SurveySection]models.SectionValidation{}
	s.rev++
}

// RecomputeThresholds rederives every hazard's computed fields from stored inputs.
func (s *Store) RecomputeThresholds() {
	s.mu.Lock()
	defer s.mu.Unlock()
	hazards.ApplyAll(&s.d.Hazards, s.d.Property.YearBuilt)
}

// normalize restores the shape invariants a draft from outside the store may lack.
func normalize(d models.SurveyDraft) models.SurveyDraft {
	if models.SectionIndex(d.CurrentSection) < 0 {
		d.CurrentSection = models.SectionProperty
	}
	if d.Photos == nil {
		d.Photos = []models.PhotoRecord{}
	}
	if d.Environment.MoistureIssues == nil {
		d.Environment.MoistureIssues = []string{}
	}
	if d.Validation == nil {
		d.Validation = map[models.SurveySection]models.SectionValidation{}
	}
	reconcileHazards(&d.Hazards)
	hazards.ApplyAll(&d.Hazards, d.Property.YearBuilt)
	return d
}
