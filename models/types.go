// ABOUTME: Data models for site survey drafts
// ABOUTME: Defines survey sections, the draft aggregate, and the flat site-description records
package models

import (
	"fmt"
	"time"
)

type SurveySection string

const (
	SectionProperty    SurveySection = "property"
	SectionAccess      SurveySection = "access"
	SectionEnvironment SurveySection = "environment"
	SectionHazards     SurveySection = "hazards"
	SectionPhotos      SurveySection = "photos"
	SectionReview      SurveySection = "review"
)

// SectionOrder is the fixed wizard sequence. Review must stay last.
var SectionOrder = []SurveySection{
	SectionProperty,
	SectionAccess,
	SectionEnvironment,
	SectionHazards,
	SectionPhotos,
	SectionReview,
}

// SectionIndex returns the position of s in SectionOrder, or -1.
func SectionIndex(s SurveySection) int {
	for i, sec := range SectionOrder {
		if sec == s {
			return i
		}
	}
	return -1
}

// ParseSection converts a user-supplied name into a SurveySection.
func ParseSection(name string) (SurveySection, error) {
	s := SurveySection(name)
	if SectionIndex(s) < 0 {
		return "", fmt.Errorf("unknown survey section: %s", name)
	}
	return s, nil
}

// Title is the human label used in review errors and the progress indicator.
func (s SurveySection) Title() string {
	switch s {
	case SectionProperty:
		return "Property"
	case SectionAccess:
		return "Access"
	case SectionEnvironment:
		return "Environment"
	case SectionHazards:
		return "Hazards"
	case SectionPhotos:
		return "Photos"
	case SectionReview:
		return "Review"
	}
	return string(s)
}

// BuildingType constants.
type BuildingType string

const (
	BuildingResidentialSingle BuildingType = "residential_single"
	BuildingResidentialMulti  BuildingType = "residential_multi"
	BuildingCommercial        BuildingType = "commercial"
	BuildingIndustrial        BuildingType = "industrial"
	BuildingInstitutional     BuildingType = "institutional"
)

// OccupancyStatus constants.
type OccupancyStatus string

const (
	OccupancyOccupied  OccupancyStatus = "occupied"
	OccupancyVacant    OccupancyStatus = "vacant"
	OccupancyPartially OccupancyStatus = "partially_occupied"
)

// EquipmentAccess constants.
type EquipmentAccess string

const (
	EquipmentAccessEasy      EquipmentAccess = "easy"
	EquipmentAccessModerate  EquipmentAccess = "moderate"
	EquipmentAccessDifficult EquipmentAccess = "difficult"
)

type PropertyData struct {
	Address          string           `json:"address" validate:"notblank"`
	City             string           `json:"city" validate:"notblank"`
	State            string           `json:"state" validate:"notblank"`
	Zip              string           `json:"zip" validate:"notblank"`
	BuildingType     *BuildingType    `json:"building_type" validate:"required"`
	YearBuilt        *int             `json:"year_built"`
	SquareFootage    *float64         `json:"square_footage"`
	Stories          *int             `json:"stories"`
	ConstructionType *string          `json:"construction_type"`
	OccupancyStatus  *OccupancyStatus `json:"occupancy_status"`
	OwnerName        string           `json:"owner_name"`
	OwnerPhone       string           `json:"owner_phone"`
	OwnerEmail       string           `json:"owner_email"`
}

type AccessData struct {
	HasRestrictions      *bool            `json:"has_restrictions" validate:"required"`
	RestrictionNotes     string           `json:"restriction_notes"`
	ParkingAvailable     *bool            `json:"parking_available" validate:"required"`
	LoadingZoneAvailable *bool            `json:"loading_zone_available"`
	EquipmentAccess      *EquipmentAccess `json:"equipment_access" validate:"required"`
	ElevatorAvailable    *bool            `json:"elevator_available"`
	MinDoorwayWidth      *float64         `json:"min_doorway_width"`
	Notes                string           `json:"notes"`
}

type EnvironmentData struct {
	Temperature            *float64 `json:"temperature" validate:"required"`
	Humidity               *float64 `json:"humidity" validate:"required"`
	MoistureIssues         []string `json:"moisture_issues"`
	HasStructuralConcerns  *bool    `json:"has_structural_concerns" validate:"required"`
	StructuralConcernNotes string   `json:"structural_concern_notes"`
	UtilityShutoffsLocated *bool    `json:"utility_shutoffs_located" validate:"required"`
	Notes                  string   `json:"notes"`
}

// SectionValidation is the cached verdict for one section.
type SectionValidation struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// SurveyDraft is the in-progress survey held on the device.
type SurveyDraft struct {
	SurveyID       *string `json:"survey_id"`
	CustomerID     *string `json:"customer_id"`
	OrganizationID *string `json:"organization_id"`

	CurrentSection SurveySection `json:"current_section"`

	Property    PropertyData    `json:"property"`
	Access      AccessData      `json:"access"`
	Environment EnvironmentData `json:"environment"`
	Hazards     HazardsData     `json:"hazards"`
	Photos      []PhotoRecord   `json:"photos"`
	Notes       string          `json:"notes"`

	StartedAt   *time.Time `json:"started_at"`
	LastSavedAt *time.Time `json:"last_saved_at"`
	IsDirty     bool       `json:"is_dirty"`

	Validation map[SurveySection]SectionValidation `json:"-"`
}

// NewSurveyDraft returns a draft with every section at its default.
func NewSurveyDraft() SurveyDraft {
	return SurveyDraft{
		CurrentSection: SectionProperty,
		Environment:    EnvironmentData{MoistureIssues: []string{}},
		Hazards:        HazardsData{Types: []HazardType{}},
		Photos:         []PhotoRecord{},
		Validation:     map[SurveySection]SectionValidation{},
	}
}
