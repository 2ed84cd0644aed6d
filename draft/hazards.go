// ABOUTME: Hazard selection and child entity CRUD on the draft store
// ABOUTME: Selecting a hazard initializes its detail; deselecting discards it
package draft

import (
	"fmt"
	"slices"

	"github.com/markahope-aag/hazardos-sub000/hazards"
	"github.com/markahope-aag/hazardos-sub000/models"
)

// reconcileHazards dedupes the selection and makes detail presence match it.
func reconcileHazards(h *models.HazardsData) {
	seen := make(map[models.HazardType]bool, len(h.Types))
	types := make([]models.HazardType, 0, len(h.Types))
	for _, t := range h.Types {
		if t.Valid() && !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	h.Types = types

	if !seen[models.HazardAsbestos] {
		h.Asbestos = nil
	} else if h.Asbestos == nil {
		h.Asbestos = models.DefaultAsbestosDetail()
	}
	if !seen[models.HazardMold] {
		h.Mold = nil
	} else if h.Mold == nil {
		h.Mold = models.DefaultMoldDetail()
	}
	if !seen[models.HazardLead] {
		h.Lead = nil
	} else if h.Lead == nil {
		h.Lead = models.DefaultLeadDetail()
	}
	if !seen[models.HazardOther] {
		h.OtherDescription = ""
	}
}

// ToggleHazardType flips t's selection. Turning it on starts from the default detail.
func (s *Store) ToggleHazardType(t models.HazardType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownHazard, t)
	}
	return s.mutate(func(d *models.SurveyDraft) error {
		h := &d.Hazards
		if i := slices.Index(h.Types, t); i >= 0 {
			h.Types = slices.Delete(h.Types, i, i+1)
		} else {
			h.Types = append(h.Types, t)
			switch t {
			case models.HazardAsbestos:
				h.Asbestos = models.DefaultAsbestosDetail()
			case models.HazardMold:
				h.Mold = models.DefaultMoldDetail()
			case models.HazardLead:
				h.Lead = models.DefaultLeadDetail()
			}
		}
		reconcileHazards(h)
		return nil
	})
}

// SetHazardTypes replaces the selection. Types that stay selected keep their detail.
func (s *Store) SetHazardTypes(types []models.HazardType) error {
	for _, t := range types {
		if !t.Valid() {
			return fmt.Errorf("%w: %s", ErrUnknownHazard, t)
		}
	}
	return s.mutate(func(d *models.SurveyDraft) error {
		d.Hazards.Types = slices.Clone(types)
		reconcileHazards(&d.Hazards)
		return nil
	})
}

// SetOtherDescription describes a hazard outside the known categories.
func (s *Store) SetOtherDescription(desc string) error {
	return s.mutate(func(d *models.SurveyDraft) error {
		if !d.Hazards.Has(models.HazardOther) {
			return fmt.Errorf("%w: %s", ErrHazardNotSelected, models.HazardOther)
		}
		d.Hazards.OtherDescription = desc
		return nil
	})
}

// UpdateAsbestos merges detail-level asbestos fields and rederives thresholds.
func (s *Store) UpdateAsbestos(fn func(a *models.AsbestosDetail)) error {
	return s.mutate(func(d *models.SurveyDraft) error {
		if d.Hazards.Asbestos == nil {
			return fmt.Errorf("%w: %s", ErrHazardNotSelected, models.HazardAsbestos)
		}
		fn(d.Hazards.Asbestos)
		hazards.ApplyAsbestos(d.Hazards.Asbestos)
		return nil
	})
}

// UpdateMold merges detail-level mold fields (moisture source, HVAC, odor).
func (s *Store) UpdateMold(fn func(m *models.MoldDetail)) error {
	return s.mutate(func(d *models.SurveyDraft) error {
		if d.Hazards.Mold == nil {
			return fmt.Errorf("%w: %s", ErrHazardNotSelected, models.HazardMold)
		}
		fn(d.Hazards.Mold)
		hazards.ApplyMold(d.Hazards.Mold)
		return nil
	})
}

// UpdateLead merges detail-level lead fields (children present, scope, work method).
func (s *Store) UpdateLead(fn func(l *models.LeadDetail)) error {
	return s.mutate(func(d *models.SurveyDraft) error {
		if d.Hazards.Lead == nil {
			return fmt.Errorf("%w: %s", ErrHazardNotSelected, models.HazardLead)
		}
		fn(d.Hazards.Lead)
		hazards.ApplyLead(d.Hazards.Lead, d.Property.YearBuilt)
		return nil
	})
}

// AddMaterial appends an asbestos material under a fresh id and returns the id.
func (s *Store) AddMaterial(m models.AsbestosMaterial) (string, error) {
	var id string
	err := s.UpdateAsbestos(func(a *models.AsbestosDetail) {
		id = s.newID()
		m.ID = id
		a.Materials = append(a.Materials, m)
	})
	return id, err
}

// UpdateMaterial merges changes into the material with the given id.
func (s *Store) UpdateMaterial(id string, fn func(m *models.AsbestosMaterial)) error {
	return s.mutate(func(d *models.SurveyDraft) error {
		a := d.Hazards.Asbestos
		if a == nil {
			return fmt.Errorf("%w: %s", ErrHazardNotSelected, models.HazardAsbestos)
		}
		i := slices.IndexFunc(a.Materials, func(m models.AsbestosMaterial) bool { return m.ID == id })
		if i < 0 {
			return fmt.Errorf("material %s: %w", id, ErrNotFound)
		}
		fn(&a.Materials[i])
		a.Materials[i].ID = id
		hazards.ApplyAsbestos(a)
		return nil
	})
}

// RemoveMaterial drops the material with the given id.
func (s *Store) RemoveMaterial(id string) error {
	return s.mutate(func(d *models.SurveyDraft) error {
		a := d.Hazards.Asbestos
		if a == nil {
			return fmt.Errorf("%w: %s", ErrHazardNotSelected, models.HazardAsbestos)
		}
		n := len(a.Materials)
		a.Materials = slices.DeleteFunc(a.Materials, func(m models.AsbestosMaterial) bool { return m.ID == id })
		if len(a.Materials) == n {
			return fmt.Errorf("material %s: %w", id, ErrNotFound)
		}
		hazards.ApplyAsbestos(a)
		return nil
	})
}

// AddAffectedArea appends a mold affected area under a fresh id and returns the id.
func (s *Store) AddAffectedArea(area models.MoldAffectedArea) (string, error) {
	var id string
	err := s.UpdateMold(func(m *models.MoldDetail) {
		id = s.newID()
		area.ID = id
		m.AffectedAreas = append(m.AffectedAreas, area)
	})
	return id, err
}

func (s *Store) UpdateAffectedArea(id string, fn func(a *models.MoldAffectedArea)) error {
	return s.mutate(func(d *models.SurveyDraft) error {
		m := d.Hazards.Mold
		if m == nil {
			return fmt.Errorf("%w: %s", ErrHazardNotSelected, models.HazardMold)
		}
		i := slices.IndexFunc(m.AffectedAreas, func(a models.MoldAffectedArea) bool { return a.ID == id })
		if i < 0 {
			return fmt.Errorf("affected area %s: %w", id, ErrNotFound)
		}
		fn(&m.AffectedAreas[i])
		m.AffectedAreas[i].ID = id
		hazards.ApplyMold(m)
		return nil
	})
}

func (s *Store) RemoveAffectedArea(id string) error {
	return s.mutate(func(d *models.SurveyDraft) error {
		m := d.Hazards.Mold
		if m == nil {
			return fmt.Errorf("%w: %s", ErrHazardNotSelected, models.HazardMold)
		}
		n := len(m.AffectedAreas)
		m.AffectedAreas = slices.DeleteFunc(m.AffectedAreas, func(a models.MoldAffectedArea) bool { return a.ID == id })
		if len(m.AffectedAreas) == n {
			return fmt.Errorf("affected area %s: %w", id, ErrNotFound)
		}
		hazards.ApplyMold(m)
		return nil
	})
}

// AddLeadComponent appends a lead component under a fresh id and returns the id.
func (s *Store) AddLeadComponent(c models.LeadComponent) (string, error) {
	var id string
	err := s.UpdateLead(func(l *models.LeadDetail) {
		id = s.newID()
		c.ID = id
		l.Components = append(l.Components, c)
	})
	return id, err
}

func (s *Store) UpdateLeadComponent(id string, fn func(c *models.LeadComponent)) error {
	return s.mutate(func(d *models.SurveyDraft) error {
		l := d.Hazards.Lead
		if l == nil {
			return fmt.Errorf("%w: %s", ErrHazardNotSelected, models.HazardLead)
		}
		i := slices.IndexFunc(l.Components, func(c models.LeadComponent) bool { return c.ID == id })
		if i < 0 {
			return fmt.Errorf("lead component %s: %w", id, ErrNotFound)
		}
		fn(&l.Components[i])
		l.Components[i].ID = id
		hazards.ApplyLead(l, d.Property.YearBuilt)
		return nil
	})
}

func (s *Store) RemoveLeadComponent(id string) error {
	return s.mutate(func(d *models.SurveyDraft) error {
		l := d.Hazards.Lead
		if l == nil {
			return fmt.Errorf("%w: %s", ErrHazardNotSelected, models.HazardLead)
		}
		n := len(l.Components)
		l.Components = slices.DeleteFunc(l.Components, func(c models.LeadComponent) bool { return c.ID == id })
		if len(l.Components) == n {
			return fmt.Errorf("lead component %s: %w", id, ErrNotFound)
		}
		hazards.ApplyLead(l, d.Property.YearBuilt)
		return nil
	})
}
