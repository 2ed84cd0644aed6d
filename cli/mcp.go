// ABOUTME: MCP server subcommand
// ABOUTME: Exposes hazard calculators, cached draft validation and status over stdio
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/markahope-aag/hazardos-sub000/handlers"
	"github.com/markahope-aag/hazardos-sub000/logging"
)

// Version is reported to MCP clients and by --version.
const Version = "0.1.0"

// NewMCPServer registers every tool, resource and prompt on a new server.
func NewMCPServer(app *App) *mcp.Server {
	hazardHandlers := handlers.NewHazardHandlers()
	surveyHandlers := handlers.NewSurveyHandlers(app.DB, app.Cache)
	resourceHandlers := handlers.NewResourceHandlers(app.Cache, app.Config.OrganizationID)
	promptHandlers := handlers.NewPromptHandlers(surveyHandlers)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "hazardos",
		Version: Version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "calculate_asbestos",
		Description: "Total asbestos quantities and derive containment level, EPA notification and waste volume",
	}, hazardHandlers.CalculateAsbestos)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "calculate_mold",
		Description: "Total mold affected area and derive the remediation size category",
	}, hazardHandlers.CalculateMold)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "calculate_lead",
		Description: "Total lead work area and decide whether the RRP rule applies",
	}, hazardHandlers.CalculateLead)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_survey",
		Description: "Validate every section of a cached survey draft (defaults to the active draft)",
	}, surveyHandlers.ValidateSurvey)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "survey_status",
		Description: "Report save, sync and photo upload status of a cached survey draft",
	}, surveyHandlers.SurveyStatus)

	server.AddResource(&mcp.Resource{
		URI:         handlers.DraftsURI,
		Name:        "drafts",
		Description: "Survey drafts cached on this device",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: handlers.DraftURITemplate,
		Name:        "draft",
		Description: "One cached survey draft rendered as its remote record",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        handlers.SurveyReviewPrompt,
		Description: "Review a site survey draft before submission",
		Arguments: []*mcp.PromptArgument{
			{Name: "survey_id", Description: "Survey to review (defaults to the active draft)"},
		},
	}, promptHandlers.GetPrompt)

	return server
}

// MCPCommand starts the MCP server on stdio
func MCPCommand(app *App) error {
	logging.For("mcp").Info("starting hazardos MCP server")
	server := NewMCPServer(app)
	return server.Run(context.Background(), &mcp.StdioTransport{})
}
