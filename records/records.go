// ABOUTME: Remote survey record shape and its mapping to and from drafts
// ABOUTME: Property fields flatten into columns; other sections travel as typed JSON blobs
package records

import (
	"errors"
	"time"

	"github.com/markahope-aag/hazardos-sub000/models"
)

// ErrNotFound is returned by record stores when no record has the requested id.
var ErrNotFound = errors.New("survey record not found")

type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
)

// SurveyRecord is one row of the remote site survey table.
type SurveyRecord struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id"`
	CustomerID     *string `json:"customer_id"`
	Status         Status  `json:"status"`

	SiteAddress      *string  `json:"site_address"`
	SiteCity         *string  `json:"site_city"`
	SiteState        *string  `json:"site_state"`
	SiteZip          *string  `json:"site_zip"`
	BuildingType     *string  `json:"building_type"`
	YearBuilt        *int     `json:"year_built"`
	BuildingSqFt     *float64 `json:"building_sq_ft"`
	Stories          *int     `json:"stories"`
	ConstructionType *string  `json:"construction_type"`
	OccupancyStatus  *string  `json:"occupancy_status"`
	OwnerName        *string  `json:"owner_name"`
	OwnerPhone       *string  `json:"owner_phone"`
	OwnerEmail       *string  `json:"owner_email"`

	// HazardType is the legacy single-hazard column, filled from the first selected type.
	HazardType *string `json:"hazard_type"`

	AccessInfo        AccessInfo        `json:"access_info"`
	EnvironmentInfo   EnvironmentInfo   `json:"environment_info"`
	HazardAssessments HazardAssessments `json:"hazard_assessments"`
	PhotoMetadata     []PhotoMetadata   `json:"photo_metadata"`
	Notes             *string           `json:"notes"`

	StartedAt   *time.Time `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

type AccessInfo struct {
	HasRestrictions      *bool    `json:"has_restrictions"`
	RestrictionNotes     *string  `json:"restriction_notes"`
	ParkingAvailable     *bool    `json:"parking_available"`
	LoadingZoneAvailable *bool    `json:"loading_zone_available"`
	EquipmentAccess      *string  `json:"equipment_access"`
	ElevatorAvailable    *bool    `json:"elevator_available"`
	MinDoorwayWidth      *float64 `json:"min_doorway_width"`
	Notes                *string  `json:"notes"`
}

type EnvironmentInfo struct {
	Temperature            *float64 `json:"temperature"`
	Humidity               *float64 `json:"humidity"`
	MoistureIssues         []string `json:"moisture_issues"`
	HasStructuralConcerns  *bool    `json:"has_structural_concerns"`
	StructuralConcernNotes *string  `json:"structural_concern_notes"`
	UtilityShutoffsLocated *bool    `json:"utility_shutoffs_located"`
	Notes                  *string  `json:"notes"`
}

type HazardAssessments struct {
	Types    []string               `json:"types"`
	Asbestos *models.AsbestosDetail `json:"asbestos"`
	Mold     *models.MoldDetail     `json:"mold"`
	Lead     *models.LeadDetail     `json:"lead"`
	Other    *OtherAssessment       `json:"other"`
}

type OtherAssessment struct {
	Description string `json:"description"`
}

type PhotoMetadata struct {
	ID        string                 `json:"id"`
	URL       *string                `json:"url"`
	Timestamp time.Time              `json:"timestamp"`
	GPS       *models.GPSCoordinates `json:"gps"`
	Category  string                 `json:"category"`
	Location  *string                `json:"location"`
	Caption   *string                `json:"caption"`
}

// Options controls lifecycle columns on a mapped record.
type Options struct {
	Status      Status
	SubmittedAt *time.Time
}
