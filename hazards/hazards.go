// ABOUTME: Regulatory threshold calculations for asbestos, mold, and lead hazards
// ABOUTME: Pure functions over section data; callers write results back into detail records
package hazards

import (
	"math"

	"github.com/markahope-aag/hazardos-sub000/models"
)

// Regulatory limits. Every comparison against these is strict.
const (
	AsbestosSqFtThreshold     = 160.0
	AsbestosLinearFtThreshold = 260.0

	MoldSmallUpperSqFt  = 10.0
	MoldMediumUpperSqFt = 100.0

	LeadRRPYearCutoff     = 1978
	LeadInteriorSqFtLimit = 6.0
	LeadExteriorSqFtLimit = 20.0
)

// Waste volume factors in cubic feet.
const (
	sqFtWasteDepthFt        = 1.0 / 12.0
	defaultLinearFtWaste    = 0.1
	eachWasteCuFt           = 1.0
	squareInchesPerSquareFt = 144.0
)

var interiorLeadComponents = map[string]bool{
	models.ComponentInteriorWalls:  true,
	models.ComponentWindowsTrim:    true,
	models.ComponentDoorsFrames:    true,
	models.ComponentBaseboards:     true,
	models.ComponentStairsRailings: true,
	models.ComponentCabinets:       true,
}

// IsInteriorComponent reports whether a lead component type counts toward interior area.
func IsInteriorComponent(componentType string) bool {
	return interiorLeadComponents[componentType]
}

type AsbestosResult struct {
	TotalSqFt               float64                 `json:"total_sq_ft"`
	TotalLinearFt           float64                 `json:"total_linear_ft"`
	TotalCuFt               float64                 `json:"total_cu_ft"`
	HasFriable              bool                    `json:"has_friable"`
	HasSignificantDamage    bool                    `json:"has_significant_damage"`
	ContainmentLevel        models.ContainmentLevel `json:"containment_level"`
	EPANotificationRequired bool                    `json:"epa_notification_required"`
	EstimatedWasteVolume    float64                 `json:"estimated_waste_volume"`
}

// CalculateAsbestos derives containment level, EPA notification, and waste volume.
func CalculateAsbestos(materials []models.AsbestosMaterial) AsbestosResult {
	var r AsbestosResult
	var waste float64

	for _, m := range materials {
		switch m.Unit {
		case models.UnitSquareFeet:
			r.TotalSqFt += m.Quantity
			waste += m.Quantity * sqFtWasteDepthFt
		case models.UnitLinearFeet:
			r.TotalLinearFt += m.Quantity
			waste += m.Quantity * linearWastePerFoot(m)
		case models.UnitCubicFeet:
			r.TotalCuFt += m.Quantity
			waste += m.Quantity
		case models.UnitEach:
			waste += m.Quantity * eachWasteCuFt
		}
		if m.Friable {
			r.HasFriable = true
		}
		if m.Condition == models.ConditionSignificantDamage || m.Condition == models.ConditionSevereDamage {
			r.HasSignificantDamage = true
		}
	}

	overThreshold := r.TotalSqFt > AsbestosSqFtThreshold || r.TotalLinearFt > AsbestosLinearFtThreshold

	r.ContainmentLevel = models.ContainmentMinimal
	if overThreshold || r.HasFriable {
		r.ContainmentLevel = models.ContainmentLimited
	}
	if overThreshold && r.HasFriable {
		r.ContainmentLevel = models.ContainmentFull
	}
	if overThreshold && r.HasFriable && r.HasSignificantDamage {
		r.ContainmentLevel = models.ContainmentCritical
	}

	r.EPANotificationRequired = r.HasFriable && overThreshold
	r.EstimatedWasteVolume = round2(waste)
	return r
}

// linearWastePerFoot uses the insulation annulus when pipe dimensions (inches) are known.
func linearWastePerFoot(m models.AsbestosMaterial) float64 {
	if m.PipeDiameter == nil || m.PipeThickness == nil || *m.PipeDiameter <= 0 || *m.PipeThickness <= 0 {
		return defaultLinearFtWaste
	}
	r := *m.PipeDiameter / 2
	outer := r + *m.PipeThickness
	return math.Pi * (outer*outer - r*r) / squareInchesPerSquareFt
}

type MoldResult struct {
	TotalSqFt    float64                 `json:"total_sq_ft"`
	SizeCategory models.MoldSizeCategory `json:"size_category"`
}

// CalculateMold sizes the remediation. HVAC contamination always escalates to large.
func CalculateMold(areas []models.MoldAffectedArea, hvacContaminated bool) MoldResult {
	var r MoldResult
	for _, a := range areas {
		r.TotalSqFt += a.SquareFootage
	}

	switch {
	case hvacContaminated || r.TotalSqFt > MoldMediumUpperSqFt:
		r.SizeCategory = models.MoldSizeLarge
	case r.TotalSqFt >= MoldSmallUpperSqFt:
		r.SizeCategory = models.MoldSizeMedium
	default:
		r.SizeCategory = models.MoldSizeSmall
	}
	return r
}

type LeadResult struct {
	IsPre1978         bool    `json:"is_pre_1978"`
	TotalInteriorSqFt float64 `json:"total_interior_sq_ft"`
	TotalExteriorSqFt float64 `json:"total_exterior_sq_ft"`
	TotalWorkArea     float64 `json:"total_work_area"`
	RRPRuleApplies    bool    `json:"rrp_rule_applies"`
	// WorkMethod is empty when the building is not known to predate 1978.
	WorkMethod string `json:"work_method,omitempty"`
}

// CalculateLead decides RRP applicability. An unknown build year never triggers the rule.
func CalculateLead(components []models.LeadComponent, yearBuilt *int) LeadResult {
	var r LeadResult
	r.IsPre1978 = yearBuilt != nil && *yearBuilt < LeadRRPYearCutoff

	for _, c := range components {
		if IsInteriorComponent(c.ComponentType) && c.Unit == models.UnitSquareFeet {
			r.TotalInteriorSqFt += c.Quantity
		} else {
			r.TotalExteriorSqFt += c.Quantity
		}
	}
	r.TotalWorkArea = r.TotalInteriorSqFt + r.TotalExteriorSqFt
	r.RRPRuleApplies = r.IsPre1978 &&
		(r.TotalInteriorSqFt > LeadInteriorSqFtLimit || r.TotalExteriorSqFt > LeadExteriorSqFtLimit)
	switch {
	case r.RRPRuleApplies:
		r.WorkMethod = models.LeadMethodRRPLeadSafe
	case r.IsPre1978:
		r.WorkMethod = models.LeadMethodMinorRepair
	}
	return r
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
