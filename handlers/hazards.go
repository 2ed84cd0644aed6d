// ABOUTME: MCP tool handlers for the hazard threshold calculations
// ABOUTME: Stateless wrappers so an assistant can size asbestos, mold and lead work
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/markahope-aag/hazardos-sub000/hazards"
	"github.com/markahope-aag/hazardos-sub000/models"
)

type HazardHandlers struct{}

func NewHazardHandlers() *HazardHandlers {
	return &HazardHandlers{}
}

// MaterialInput is one asbestos material as an assistant describes it.
type MaterialInput struct {
	MaterialType  string   `json:"material_type,omitempty" jsonschema:"Material type such as pipe_insulation or floor_tile"`
	Quantity      float64  `json:"quantity" jsonschema:"Amount of material"`
	Unit          string   `json:"unit" jsonschema:"One of sq_ft, linear_ft, cu_ft, each"`
	Condition     string   `json:"condition,omitempty" jsonschema:"One of good, minor_damage, significant_damage, severe_damage"`
	Friable       bool     `json:"friable,omitempty" jsonschema:"Whether the material crumbles under hand pressure"`
	PipeDiameter  *float64 `json:"pipe_diameter,omitempty" jsonschema:"Pipe diameter in inches for linear insulation"`
	PipeThickness *float64 `json:"pipe_thickness,omitempty" jsonschema:"Insulation thickness in inches"`
}

type CalculateAsbestosInput struct {
	Materials []MaterialInput `json:"materials" jsonschema:"Asbestos-containing materials"`
}

type CalculateAsbestosOutput struct {
	Result           hazards.AsbestosResult `json:"result"`
	ContainmentLabel string                 `json:"containment_label"`
}

func (h *HazardHandlers) CalculateAsbestos(ctx context.Context, req *mcp.CallToolRequest, input CalculateAsbestosInput) (*mcp.CallToolResult, CalculateAsbestosOutput, error) {
	materials := make([]models.AsbestosMaterial, 0, len(input.Materials))
	for i, m := range input.Materials {
		if m.Quantity < 0 {
			return nil, CalculateAsbestosOutput{}, fmt.Errorf("material %d: quantity must not be negative", i)
		}
		materials = append(materials, models.AsbestosMaterial{
			MaterialType:  m.MaterialType,
			Quantity:      m.Quantity,
			Unit:          models.MaterialUnit(m.Unit),
			Condition:     models.MaterialCondition(m.Condition),
			Friable:       m.Friable,
			PipeDiameter:  m.PipeDiameter,
			PipeThickness: m.PipeThickness,
		})
	}
	r := hazards.CalculateAsbestos(materials)
	return nil, CalculateAsbestosOutput{Result: r, ContainmentLabel: r.ContainmentLevel.String()}, nil
}

type AreaInput struct {
	Location      string  `json:"location,omitempty" jsonschema:"Where the growth is"`
	SquareFootage float64 `json:"square_footage" jsonschema:"Affected square footage"`
}

type CalculateMoldInput struct {
	Areas            []AreaInput `json:"areas" jsonschema:"Affected areas with square footage"`
	HVACContaminated bool        `json:"hvac_contaminated,omitempty" jsonschema:"Whether the HVAC system is contaminated"`
}

func (h *HazardHandlers) CalculateMold(ctx context.Context, req *mcp.CallToolRequest, input CalculateMoldInput) (*mcp.CallToolResult, hazards.MoldResult, error) {
	areas := make([]models.MoldAffectedArea, 0, len(input.Areas))
	for i, a := range input.Areas {
		if a.SquareFootage < 0 {
			return nil, hazards.MoldResult{}, fmt.Errorf("area %d: square footage must not be negative", i)
		}
		areas = append(areas, models.MoldAffectedArea{Location: a.Location, SquareFootage: a.SquareFootage})
	}
	return nil, hazards.CalculateMold(areas, input.HVACContaminated), nil
}

type ComponentInput struct {
	ComponentType string  `json:"component_type" jsonschema:"Component such as interior_walls, windows_trim or exterior_siding"`
	Quantity      float64 `json:"quantity" jsonschema:"Amount of painted surface"`
	Unit          string  `json:"unit" jsonschema:"One of sq_ft, linear_ft, cu_ft, each"`
}

type CalculateLeadInput struct {
	Components []ComponentInput `json:"components" jsonschema:"Painted components with type, quantity and unit"`
	YearBuilt  *int             `json:"year_built,omitempty" jsonschema:"Year the building was constructed"`
}

func (h *HazardHandlers) CalculateLead(ctx context.Context, req *mcp.CallToolRequest, input CalculateLeadInput) (*mcp.CallToolResult, hazards.LeadResult, error) {
	components := make([]models.LeadComponent, 0, len(input.Components))
	for i, c := range input.Components {
		if c.Quantity < 0 {
			return nil, hazards.LeadResult{}, fmt.Errorf("component %d: quantity must not be negative", i)
		}
		components = append(components, models.LeadComponent{
			ComponentType: c.ComponentType,
			Quantity:      c.Quantity,
			Unit:          models.MaterialUnit(c.Unit),
		})
	}
	return nil, hazards.CalculateLead(components, input.YearBuilt), nil
}
