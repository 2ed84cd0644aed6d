// ABOUTME: Conversions between survey drafts and remote survey records
// ABOUTME: Lossless for every section field; local photo payloads are the only thing left behind
package records

import (
	"slices"

	"github.com/markahope-aag/hazardos-sub000/models"
)

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func castPtr[From ~string, To ~string](p *From) *To {
	if p == nil {
		return nil
	}
	v := To(*p)
	return &v
}

// ToRecord flattens a draft into the remote record layout.
func ToRecord(d models.SurveyDraft, orgID string, opts Options) SurveyRecord {
	d = d.Clone()
	if opts.Status == "" {
		opts.Status = StatusDraft
	}

	rec := SurveyRecord{
		ID:             deref(d.SurveyID),
		OrganizationID: orgID,
		CustomerID:     d.CustomerID,
		Status:         opts.Status,

		SiteAddress:      nonEmpty(d.Property.Address),
		SiteCity:         nonEmpty(d.Property.City),
		SiteState:        nonEmpty(d.Property.State),
		SiteZip:          nonEmpty(d.Property.Zip),
		BuildingType:     castPtr[models.BuildingType, string](d.Property.BuildingType),
		YearBuilt:        d.Property.YearBuilt,
		BuildingSqFt:     d.Property.SquareFootage,
		Stories:          d.Property.Stories,
		ConstructionType: d.Property.ConstructionType,
		OccupancyStatus:  castPtr[models.OccupancyStatus, string](d.Property.OccupancyStatus),
		OwnerName:        nonEmpty(d.Property.OwnerName),
		OwnerPhone:       nonEmpty(d.Property.OwnerPhone),
		OwnerEmail:       nonEmpty(d.Property.OwnerEmail),

		AccessInfo: AccessInfo{
			HasRestrictions:      d.Access.HasRestrictions,
			RestrictionNotes:     nonEmpty(d.Access.RestrictionNotes),
			ParkingAvailable:     d.Access.ParkingAvailable,
			LoadingZoneAvailable: d.Access.LoadingZoneAvailable,
			EquipmentAccess:      castPtr[models.EquipmentAccess, string](d.Access.EquipmentAccess),
			ElevatorAvailable:    d.Access.ElevatorAvailable,
			MinDoorwayWidth:      d.Access.MinDoorwayWidth,
			Notes:                nonEmpty(d.Access.Notes),
		},
		EnvironmentInfo: EnvironmentInfo{
			Temperature:            d.Environment.Temperature,
			Humidity:               d.Environment.Humidity,
			MoistureIssues:         d.Environment.MoistureIssues,
			HasStructuralConcerns:  d.Environment.HasStructuralConcerns,
			StructuralConcernNotes: nonEmpty(d.Environment.StructuralConcernNotes),
			UtilityShutoffsLocated: d.Environment.UtilityShutoffsLocated,
			Notes:                  nonEmpty(d.Environment.Notes),
		},
		HazardAssessments: HazardAssessments{
			Types:    make([]string, 0, len(d.Hazards.Types)),
			Asbestos: d.Hazards.Asbestos,
			Mold:     d.Hazards.Mold,
			Lead:     d.Hazards.Lead,
		},
		PhotoMetadata: make([]PhotoMetadata, 0, len(d.Photos)),
		Notes:         nonEmpty(d.Notes),
		StartedAt:     d.StartedAt,
		SubmittedAt:   opts.SubmittedAt,
	}
	if rec.EnvironmentInfo.MoistureIssues == nil {
		rec.EnvironmentInfo.MoistureIssues = []string{}
	}

	for _, t := range d.Hazards.Types {
		rec.HazardAssessments.Types = append(rec.HazardAssessments.Types, string(t))
	}
	if len(d.Hazards.Types) > 0 {
		rec.HazardType = nonEmpty(string(d.Hazards.Types[0]))
	}
	if d.Hazards.Has(models.HazardOther) {
		rec.HazardAssessments.Other = &OtherAssessment{Description: d.Hazards.OtherDescription}
	}

	for _, p := range d.Photos {
		// Incomplete captures carry nothing worth keeping.
		if !p.HasPayload() && p.Caption == "" && p.PreviewURL == "" {
			continue
		}
		rec.PhotoMetadata = append(rec.PhotoMetadata, PhotoMetadata{
			ID:        p.ID,
			URL:       nonEmpty(p.PreviewURL),
			Timestamp: p.Timestamp,
			GPS:       p.GPS,
			Category:  string(p.Category),
			Location:  nonEmpty(p.Location),
			Caption:   nonEmpty(p.Caption),
		})
	}
	return rec
}

// FromRecord rebuilds a draft from a possibly partial remote record.
// Missing fields fall back to section defaults; nothing is guessed.
func FromRecord(rec SurveyRecord) models.SurveyDraft {
	d := models.NewSurveyDraft()
	d.SurveyID = nonEmpty(rec.ID)
	d.OrganizationID = nonEmpty(rec.OrganizationID)
	d.CustomerID = rec.CustomerID
	d.StartedAt = rec.StartedAt
	d.Notes = deref(rec.Notes)

	d.Property = models.PropertyData{
		Address:          deref(rec.SiteAddress),
		City:             deref(rec.SiteCity),
		State:            deref(rec.SiteState),
		Zip:              deref(rec.SiteZip),
		BuildingType:     castPtr[string, models.BuildingType](rec.BuildingType),
		YearBuilt:        rec.YearBuilt,
		SquareFootage:    rec.BuildingSqFt,
		Stories:          rec.Stories,
		ConstructionType: rec.ConstructionType,
		OccupancyStatus:  castPtr[string, models.OccupancyStatus](rec.OccupancyStatus),
		OwnerName:        deref(rec.OwnerName),
		OwnerPhone:       deref(rec.OwnerPhone),
		OwnerEmail:       deref(rec.OwnerEmail),
	}

	a := rec.AccessInfo
	d.Access = models.AccessData{
		HasRestrictions:      a.HasRestrictions,
		RestrictionNotes:     deref(a.RestrictionNotes),
		ParkingAvailable:     a.ParkingAvailable,
		LoadingZoneAvailable: a.LoadingZoneAvailable,
		EquipmentAccess:      castPtr[string, models.EquipmentAccess](a.EquipmentAccess),
		ElevatorAvailable:    a.ElevatorAvailable,
		MinDoorwayWidth:      a.MinDoorwayWidth,
		Notes:                deref(a.Notes),
	}

	e := rec.EnvironmentInfo
	d.Environment = models.EnvironmentData{
		Temperature:            e.Temperature,
		Humidity:               e.Humidity,
		MoistureIssues:         slices.Clone(e.MoistureIssues),
		HasStructuralConcerns:  e.HasStructuralConcerns,
		StructuralConcernNotes: deref(e.StructuralConcernNotes),
		UtilityShutoffsLocated: e.UtilityShutoffsLocated,
		Notes:                  deref(e.Notes),
	}
	if d.Environment.MoistureIssues == nil {
		d.Environment.MoistureIssues = []string{}
	}

	h := rec.HazardAssessments
	types := h.Types
	if len(types) == 0 && rec.HazardType != nil {
		// Records written before multi-hazard support only carry the legacy column.
		types = []string{*rec.HazardType}
	}
	for _, t := range types {
		if ht := models.HazardType(t); ht.Valid() && !d.Hazards.Has(ht) {
			d.Hazards.Types = append(d.Hazards.Types, ht)
		}
	}
	d.Hazards.Asbestos = h.Asbestos
	d.Hazards.Mold = h.Mold
	d.Hazards.Lead = h.Lead
	if h.Other != nil {
		d.Hazards.OtherDescription = h.Other.Description
	}
	d.Hazards = d.Hazards.Clone()

	for _, p := range rec.PhotoMetadata {
		d.Photos = append(d.Photos, models.PhotoRecord{
			ID:         p.ID,
			PreviewURL: deref(p.URL),
			Timestamp:  p.Timestamp,
			GPS:        p.GPS,
			Category:   models.PhotoCategory(p.Category),
			Location:   deref(p.Location),
			Caption:    deref(p.Caption),
		})
	}
	return d
}

// NewInitialRecord returns the smallest valid record: every blob present, every key set.
func NewInitialRecord(orgID string, customerID *string) SurveyRecord {
	return SurveyRecord{
		OrganizationID:  orgID,
		CustomerID:      customerID,
		Status:          StatusDraft,
		AccessInfo:      AccessInfo{},
		EnvironmentInfo: EnvironmentInfo{MoistureIssues: []string{}},
		HazardAssessments: HazardAssessments{
			Types: []string{},
		},
		PhotoMetadata: []PhotoMetadata{},
	}
}
