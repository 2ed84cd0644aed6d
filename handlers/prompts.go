// ABOUTME: MCP prompt handlers for survey review workflows
// ABOUTME: Builds a reviewer prompt from a cached draft and its threshold results
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/markahope-aag/hazardos-sub000/hazards"
	"github.com/markahope-aag/hazardos-sub000/models"
	"github.com/markahope-aag/hazardos-sub000/validation"
)

const SurveyReviewPrompt = "survey-review"

type PromptHandlers struct {
	surveys *SurveyHandlers
}

func NewPromptHandlers(surveys *SurveyHandlers) *PromptHandlers {
	return &PromptHandlers{surveys: surveys}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case SurveyReviewPrompt:
		return h.getSurveyReviewPrompt(request.Params.Arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getSurveyReviewPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	id, d, err := h.surveys.loadDraft(args["survey_id"])
	if err != nil {
		return nil, err
	}

	var promptText strings.Builder
	promptText.WriteString("Site survey to review:\n\n")
	p := d.Property
	if p.Address != "" {
		promptText.WriteString(fmt.Sprintf("Address: %s, %s, %s %s\n", p.Address, p.City, p.State, p.Zip))
	}
	if p.YearBuilt != nil {
		promptText.WriteString(fmt.Sprintf("Year Built: %d\n", *p.YearBuilt))
	}
	if p.BuildingType != nil {
		promptText.WriteString(fmt.Sprintf("Building Type: %s\n", *p.BuildingType))
	}

	hz := d.Hazards
	if hz.Asbestos != nil {
		r := hazards.CalculateAsbestos(hz.Asbestos.Materials)
		promptText.WriteString(fmt.Sprintf("\nAsbestos: %d material(s), %.1f sq ft, %.1f linear ft, containment %s",
			len(hz.Asbestos.Materials), r.TotalSqFt, r.TotalLinearFt, r.ContainmentLevel))
		if r.EPANotificationRequired {
			promptText.WriteString(", EPA notification required")
		}
		promptText.WriteString("\n")
	}
	if hz.Mold != nil {
		hvac := hz.Mold.HVACContaminated != nil && *hz.Mold.HVACContaminated
		r := hazards.CalculateMold(hz.Mold.AffectedAreas, hvac)
		promptText.WriteString(fmt.Sprintf("Mold: %d area(s), %.1f sq ft, %s\n", len(hz.Mold.AffectedAreas), r.TotalSqFt, r.SizeCategory))
	}
	if hz.Lead != nil {
		r := hazards.CalculateLead(hz.Lead.Components, p.YearBuilt)
		promptText.WriteString(fmt.Sprintf("Lead: %d component(s), RRP rule applies: %t\n", len(hz.Lead.Components), r.RRPRuleApplies))
	}
	if hz.Has(models.HazardOther) && hz.OtherDescription != "" {
		promptText.WriteString(fmt.Sprintf("Other hazard: %s\n", hz.OtherDescription))
	}

	promptText.WriteString(fmt.Sprintf("\nPhotos: %d\n", len(d.Photos)))
	if d.Notes != "" {
		promptText.WriteString(fmt.Sprintf("\nNotes: %s\n", d.Notes))
	}

	if invalid := validation.Invalid(validation.All(d)); len(invalid) > 0 {
		promptText.WriteString("\nIncomplete sections:")
		for _, s := range invalid {
			promptText.WriteString(fmt.Sprintf(" %s", s.Title()))
		}
		promptText.WriteString("\n")
	}

	promptText.WriteString("\nPlease review this survey and provide:")
	promptText.WriteString("\n1. Any missing information the technician should capture before leaving the site")
	promptText.WriteString("\n2. Whether the containment and work method look consistent with the findings")
	promptText.WriteString("\n3. Safety concerns the remediation crew should know about")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review for survey %s", id),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}
