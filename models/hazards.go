// ABOUTME: Hazard selection and per-hazard detail records
// ABOUTME: Asbestos materials, mold affected areas, and lead components with their defaults
package models

type HazardType string

const (
	HazardAsbestos HazardType = "asbestos"
	HazardMold     HazardType = "mold"
	HazardLead     HazardType = "lead"
	HazardOther    HazardType = "other"
)

// HazardTypes lists every selectable hazard in display order.
var HazardTypes = []HazardType{HazardAsbestos, HazardMold, HazardLead, HazardOther}

// Valid reports whether h is a known hazard type.
func (h HazardType) Valid() bool {
	for _, t := range HazardTypes {
		if t == h {
			return true
		}
	}
	return false
}

// HazardsData holds the ordered selection and one detail record per selected type.
// A detail pointer is non-nil if and only if its type is in Types.
type HazardsData struct {
	Types            []HazardType    `json:"types"`
	Asbestos         *AsbestosDetail `json:"asbestos"`
	Mold             *MoldDetail     `json:"mold"`
	Lead             *LeadDetail     `json:"lead"`
	OtherDescription string          `json:"other_description"`
}

// Has reports whether t is selected.
func (h HazardsData) Has(t HazardType) bool {
	for _, sel := range h.Types {
		if sel == t {
			return true
		}
	}
	return false
}

// MaterialUnit constants.
type MaterialUnit string

const (
	UnitSquareFeet MaterialUnit = "sq_ft"
	UnitLinearFeet MaterialUnit = "linear_ft"
	UnitCubicFeet  MaterialUnit = "cu_ft"
	UnitEach       MaterialUnit = "each"
)

// MaterialCondition constants.
type MaterialCondition string

const (
	ConditionGood              MaterialCondition = "good"
	ConditionMinorDamage       MaterialCondition = "minor_damage"
	ConditionSignificantDamage MaterialCondition = "significant_damage"
	ConditionSevereDamage      MaterialCondition = "severe_damage"
)

// ContainmentLevel is the 1-4 asbestos work-area isolation scale.
type ContainmentLevel int

const (
	ContainmentMinimal  ContainmentLevel = 1
	ContainmentLimited  ContainmentLevel = 2
	ContainmentFull     ContainmentLevel = 3
	ContainmentCritical ContainmentLevel = 4
)

func (c ContainmentLevel) String() string {
	switch c {
	case ContainmentMinimal:
		return "minimal"
	case ContainmentLimited:
		return "limited"
	case ContainmentFull:
		return "full"
	case ContainmentCritical:
		return "critical"
	}
	return "unknown"
}

type AsbestosMaterial struct {
	ID            string            `json:"id"`
	MaterialType  string            `json:"material_type"`
	Quantity      float64           `json:"quantity"`
	Unit          MaterialUnit      `json:"unit"`
	Location      string            `json:"location"`
	Condition     MaterialCondition `json:"condition"`
	Friable       bool              `json:"friable"`
	PipeDiameter  *float64          `json:"pipe_diameter"`
	PipeThickness *float64          `json:"pipe_thickness"`
	Notes         string            `json:"notes"`
}

type AsbestosDetail struct {
	Materials               []AsbestosMaterial `json:"materials"`
	EstimatedWasteVolume    float64            `json:"estimated_waste_volume"`
	ContainmentLevel        ContainmentLevel   `json:"containment_level"`
	EPANotificationRequired bool               `json:"epa_notification_required"`
}

// DefaultAsbestosDetail is the shape a freshly selected asbestos hazard starts with.
func DefaultAsbestosDetail() *AsbestosDetail {
	return &AsbestosDetail{
		Materials:        []AsbestosMaterial{},
		ContainmentLevel: ContainmentMinimal,
	}
}

// MoldSizeCategory constants.
type MoldSizeCategory string

const (
	MoldSizeSmall  MoldSizeCategory = "small"
	MoldSizeMedium MoldSizeCategory = "medium"
	MoldSizeLarge  MoldSizeCategory = "large"
)

// OdorLevel constants.
type OdorLevel string

const (
	OdorNone     OdorLevel = "none"
	OdorMild     OdorLevel = "mild"
	OdorModerate OdorLevel = "moderate"
	OdorStrong   OdorLevel = "strong"
)

type MoldAffectedArea struct {
	ID                string   `json:"id"`
	Location          string   `json:"location"`
	SquareFootage     float64  `json:"square_footage"`
	MaterialType      string   `json:"material_type"`
	MaterialsAffected []string `json:"materials_affected"`
	Severity          string   `json:"severity"`
	MoistureReading   *float64 `json:"moisture_reading"`
}

type MoldDetail struct {
	MoistureSource       *string            `json:"moisture_source"`
	MoistureSourceStatus *string            `json:"moisture_source_status"`
	MoistureSourceNotes  string             `json:"moisture_source_notes"`
	AffectedAreas        []MoldAffectedArea `json:"affected_areas"`
	HVACContaminated     *bool              `json:"hvac_contaminated"`
	OdorLevel            *OdorLevel         `json:"odor_level"`
	SizeCategory         MoldSizeCategory   `json:"size_category"`
}

// DefaultMoldDetail is the shape a freshly selected mold hazard starts with.
func DefaultMoldDetail() *MoldDetail {
	return &MoldDetail{
		AffectedAreas: []MoldAffectedArea{},
		SizeCategory:  MoldSizeSmall,
	}
}

// LeadWorkScope constants.
type LeadWorkScope string

const (
	LeadScopeInterior LeadWorkScope = "interior"
	LeadScopeExterior LeadWorkScope = "exterior"
	LeadScopeBoth     LeadWorkScope = "both"
)

// Lead component types counted as interior surfaces.
const (
	ComponentInteriorWalls  = "interior_walls"
	ComponentWindowsTrim    = "windows_trim"
	ComponentDoorsFrames    = "doors_frames"
	ComponentBaseboards     = "baseboards"
	ComponentStairsRailings = "stairs_railings"
	ComponentCabinets       = "cabinets"
	ComponentExteriorSiding = "exterior_siding"
	ComponentPorchesDecks   = "porches_decks"
	ComponentFencing        = "fencing"
)

// Lead work methods derived from the RRP decision.
const (
	LeadMethodRRPLeadSafe = "rrp_lead_safe_practices"
	LeadMethodMinorRepair = "minor_repair_maintenance"
)

type LeadComponent struct {
	ID            string       `json:"id"`
	ComponentType string       `json:"component_type"`
	Location      string       `json:"location"`
	Quantity      float64      `json:"quantity"`
	Unit          MaterialUnit `json:"unit"`
	Condition     string       `json:"condition"`
}

type LeadDetail struct {
	ChildrenUnder6Present *bool           `json:"children_under_6_present"`
	WorkScope             *LeadWorkScope  `json:"work_scope"`
	Components            []LeadComponent `json:"components"`
	RRPRuleApplies        bool            `json:"rrp_rule_applies"`
	WorkMethod            *string         `json:"work_method"`
	TotalWorkArea         float64         `json:"total_work_area"`
}

// DefaultLeadDetail is the shape a freshly selected lead hazard starts with.
func DefaultLeadDetail() *LeadDetail {
	return &LeadDetail{
		Components: []LeadComponent{},
	}
}
