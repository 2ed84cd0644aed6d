// ABOUTME: JSON merge patches against individual survey sections
// ABOUTME: Keys absent from the patch keep their value; explicit nulls clear optional fields
package draft

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/markahope-aag/hazardos-sub000/hazards"
	"github.com/markahope-aag/hazardos-sub000/models"
)

// ErrNotPatchable is returned for sections that have no patchable data.
var ErrNotPatchable = errors.New("section does not accept patches")

func decodeStrict(patch []byte, into any) error {
	dec := json.NewDecoder(bytes.NewReader(patch))
	dec.DisallowUnknownFields()
	return dec.Decode(into)
}

// PatchSection merges a JSON object into one section. The draft is untouched on error.
func (s *Store) PatchSection(section models.SurveySection, patch []byte) error {
	return s.mutate(func(d *models.SurveyDraft) error {
		switch section {
		case models.SectionProperty:
			p := d.Property.Clone()
			if err := decodeStrict(patch, &p); err != nil {
				return fmt.Errorf("patch property: %w", err)
			}
			d.Property = p
			hazards.ApplyLead(d.Hazards.Lead, d.Property.YearBuilt)
		case models.SectionAccess:
			a := d.Access.Clone()
			if err := decodeStrict(patch, &a); err != nil {
				return fmt.Errorf("patch access: %w", err)
			}
			d.Access = a
		case models.SectionEnvironment:
			e := d.Environment.Clone()
			if err := decodeStrict(patch, &e); err != nil {
				return fmt.Errorf("patch environment: %w", err)
			}
			if e.MoistureIssues == nil {
				e.MoistureIssues = []string{}
			}
			d.Environment = e
		case models.SectionHazards:
			h := d.Hazards.Clone()
			if err := dropPatchedLists(patch, &h); err != nil {
				return fmt.Errorf("patch hazards: %w", err)
			}
			if err := decodeStrict(patch, &h); err != nil {
				return fmt.Errorf("patch hazards: %w", err)
			}
			for _, t := range h.Types {
				if !t.Valid() {
					return fmt.Errorf("%w: %s", ErrUnknownHazard, t)
				}
			}
			reconcileHazards(&h)
			s.assignEntityIDs(&h)
			hazards.ApplyAll(&h, d.Property.YearBuilt)
			d.Hazards = h
		case models.SectionReview:
			var r struct {
				Notes *string `json:"notes"`
			}
			if err := decodeStrict(patch, &r); err != nil {
				return fmt.Errorf("patch review: %w", err)
			}
			if r.Notes != nil {
				d.Notes = *r.Notes
			}
		default:
			return fmt.Errorf("%w: %s", ErrNotPatchable, section)
		}
		return nil
	})
}

// dropPatchedLists empties every entity list the patch supplies, so the patch
// replaces the list instead of decoding over the existing elements.
func dropPatchedLists(patch []byte, h *models.HazardsData) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(patch, &top); err != nil {
		return err
	}
	supplies := func(detail, list string) (bool, error) {
		raw, ok := top[detail]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return false, nil
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return false, fmt.Errorf("%s: %w", detail, err)
		}
		_, ok = fields[list]
		return ok, nil
	}

	if ok, err := supplies("asbestos", "materials"); err != nil {
		return err
	} else if ok && h.Asbestos != nil {
		h.Asbestos.Materials = nil
	}
	if ok, err := supplies("mold", "affected_areas"); err != nil {
		return err
	} else if ok && h.Mold != nil {
		h.Mold.AffectedAreas = nil
	}
	if ok, err := supplies("lead", "components"); err != nil {
		return err
	} else if ok && h.Lead != nil {
		h.Lead.Components = nil
	}
	return nil
}

// assignEntityIDs gives a fresh id to every entity whose id is empty or repeated in its list.
func (s *Store) assignEntityIDs(h *models.HazardsData) {
	if h.Asbestos != nil {
		h.Asbestos.Materials = uniqueIDs(h.Asbestos.Materials, s.newID, func(m *models.AsbestosMaterial) *string { return &m.ID })
	}
	if h.Mold != nil {
		h.Mold.AffectedAreas = uniqueIDs(h.Mold.AffectedAreas, s.newID, func(a *models.MoldAffectedArea) *string { return &a.ID })
	}
	if h.Lead != nil {
		h.Lead.Components = uniqueIDs(h.Lead.Components, s.newID, func(c *models.LeadComponent) *string { return &c.ID })
	}
}

func uniqueIDs[T any](items []T, newID func() string, id func(*T) *string) []T {
	if items == nil {
		return []T{}
	}
	seen := make(map[string]bool, len(items))
	for i := range items {
		p := id(&items[i])
		if *p == "" || seen[*p] {
			*p = newID()
		}
		seen[*p] = true
	}
	return items
}
