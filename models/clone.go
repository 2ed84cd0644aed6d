// ABOUTME: Deep copy helpers for survey drafts
// ABOUTME: Snapshots handed to background readers must share no mutable memory with the store
package models

import "slices"

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Clone returns a deep copy of the draft. Nil slices stay nil.
func (d SurveyDraft) Clone() SurveyDraft {
	out := d
	out.SurveyID = clonePtr(d.SurveyID)
	out.CustomerID = clonePtr(d.CustomerID)
	out.OrganizationID = clonePtr(d.OrganizationID)
	out.StartedAt = clonePtr(d.StartedAt)
	out.LastSavedAt = clonePtr(d.LastSavedAt)

	out.Property = d.Property.Clone()
	out.Access = d.Access.Clone()
	out.Environment = d.Environment.Clone()
	out.Hazards = d.Hazards.Clone()

	if d.Photos != nil {
		out.Photos = make([]PhotoRecord, len(d.Photos))
		for i, p := range d.Photos {
			out.Photos[i] = p.Clone()
		}
	}

	if d.Validation != nil {
		out.Validation = make(map[SurveySection]SectionValidation, len(d.Validation))
		for k, v := range d.Validation {
			out.Validation[k] = SectionValidation{IsValid: v.IsValid, Errors: slices.Clone(v.Errors)}
		}
	}
	return out
}

func (p PropertyData) Clone() PropertyData {
	out := p
	out.BuildingType = clonePtr(p.BuildingType)
	out.YearBuilt = clonePtr(p.YearBuilt)
	out.SquareFootage = clonePtr(p.SquareFootage)
	out.Stories = clonePtr(p.Stories)
	out.ConstructionType = clonePtr(p.ConstructionType)
	out.OccupancyStatus = clonePtr(p.OccupancyStatus)
	return out
}

func (a AccessData) Clone() AccessData {
	out := a
	out.HasRestrictions = clonePtr(a.HasRestrictions)
	out.ParkingAvailable = clonePtr(a.ParkingAvailable)
	out.LoadingZoneAvailable = clonePtr(a.LoadingZoneAvailable)
	out.EquipmentAccess = clonePtr(a.EquipmentAccess)
	out.ElevatorAvailable = clonePtr(a.ElevatorAvailable)
	out.MinDoorwayWidth = clonePtr(a.MinDoorwayWidth)
	return out
}

func (e EnvironmentData) Clone() EnvironmentData {
	out := e
	out.Temperature = clonePtr(e.Temperature)
	out.Humidity = clonePtr(e.Humidity)
	out.MoistureIssues = slices.Clone(e.MoistureIssues)
	out.HasStructuralConcerns = clonePtr(e.HasStructuralConcerns)
	out.UtilityShutoffsLocated = clonePtr(e.UtilityShutoffsLocated)
	return out
}

func (h HazardsData) Clone() HazardsData {
	out := h
	out.Types = slices.Clone(h.Types)
	if h.Asbestos != nil {
		a := *h.Asbestos
		if h.Asbestos.Materials != nil {
			a.Materials = make([]AsbestosMaterial, len(h.Asbestos.Materials))
			for i, m := range h.Asbestos.Materials {
				m.PipeDiameter = clonePtr(m.PipeDiameter)
				m.PipeThickness = clonePtr(m.PipeThickness)
				a.Materials[i] = m
			}
		}
		out.Asbestos = &a
	}
	if h.Mold != nil {
		m := *h.Mold
		m.MoistureSource = clonePtr(h.Mold.MoistureSource)
		m.MoistureSourceStatus = clonePtr(h.Mold.MoistureSourceStatus)
		m.HVACContaminated = clonePtr(h.Mold.HVACContaminated)
		m.OdorLevel = clonePtr(h.Mold.OdorLevel)
		if h.Mold.AffectedAreas != nil {
			m.AffectedAreas = make([]MoldAffectedArea, len(h.Mold.AffectedAreas))
			for i, area := range h.Mold.AffectedAreas {
				area.MaterialsAffected = slices.Clone(area.MaterialsAffected)
				area.MoistureReading = clonePtr(area.MoistureReading)
				m.AffectedAreas[i] = area
			}
		}
		out.Mold = &m
	}
	if h.Lead != nil {
		l := *h.Lead
		l.ChildrenUnder6Present = clonePtr(h.Lead.ChildrenUnder6Present)
		l.WorkScope = clonePtr(h.Lead.WorkScope)
		l.WorkMethod = clonePtr(h.Lead.WorkMethod)
		l.Components = slices.Clone(h.Lead.Components)
		out.Lead = &l
	}
	return out
}

func (p PhotoRecord) Clone() PhotoRecord {
	out := p
	out.Data = slices.Clone(p.Data)
	if p.GPS != nil {
		g := *p.GPS
		g.Accuracy = clonePtr(p.GPS.Accuracy)
		out.GPS = &g
	}
	return out
}

// Ptr returns a pointer to v. Handy for optional survey fields.
func Ptr[T any](v T) *T {
	return &v
}
