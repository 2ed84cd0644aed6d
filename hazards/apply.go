// ABOUTME: Writes threshold results back into hazard detail records
// ABOUTME: Called after entity mutations and authoritatively before submission
package hazards

import "github.com/markahope-aag/hazardos-sub000/models"

// ApplyAsbestos updates the derived asbestos fields in place. Nil detail is a no-op.
func ApplyAsbestos(d *models.AsbestosDetail) {
	if d == nil {
		return
	}
	r := CalculateAsbestos(d.Materials)
	d.ContainmentLevel = r.ContainmentLevel
	d.EPANotificationRequired = r.EPANotificationRequired
	d.EstimatedWasteVolume = r.EstimatedWasteVolume
}

// ApplyMold updates the derived size category in place.
func ApplyMold(d *models.MoldDetail) {
	if d == nil {
		return
	}
	hvac := d.HVACContaminated != nil && *d.HVACContaminated
	d.SizeCategory = CalculateMold(d.AffectedAreas, hvac).SizeCategory
}

// ApplyLead updates RRP applicability, work method and work area in place.
func ApplyLead(d *models.LeadDetail, yearBuilt *int) {
	if d == nil {
		return
	}
	r := CalculateLead(d.Components, yearBuilt)
	d.RRPRuleApplies = r.RRPRuleApplies
	d.TotalWorkArea = r.TotalWorkArea
	d.WorkMethod = nil
	if r.WorkMethod != "" {
		method := r.WorkMethod
		d.WorkMethod = &method
	}
}

// ApplyAll recomputes every selected hazard's derived fields.
func ApplyAll(h *models.HazardsData, yearBuilt *int) {
	ApplyAsbestos(h.Asbestos)
	ApplyMold(h.Mold)
	ApplyLead(h.Lead, yearBuilt)
}
