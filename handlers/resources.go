// ABOUTME: MCP resource handlers for exposing cached survey drafts
// ABOUTME: Provides read-only access to the draft list and individual drafts via URI
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/markahope-aag/hazardos-sub000/draft"
	"github.com/markahope-aag/hazardos-sub000/records"
)

const (
	resourceScheme = "survey://"
	// DraftsURI lists every cached draft.
	DraftsURI = resourceScheme + "drafts"
	// DraftURITemplate addresses one draft.
	DraftURITemplate = resourceScheme + "drafts/{id}"
)

type ResourceHandlers struct {
	drafts DraftSource
	orgID  string
}

func NewResourceHandlers(drafts DraftSource, orgID string) *ResourceHandlers {
	return &ResourceHandlers{drafts: drafts, orgID: orgID}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	if parts[0] != "drafts" {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	if len(parts) == 1 || parts[1] == "" {
		return h.readAllDrafts()
	}
	return h.readDraft(uri, parts[1])
}

type draftSummary struct {
	SurveyID string `json:"survey_id"`
	Address  string `json:"address,omitempty"`
	Section  string `json:"current_section"`
	IsDirty  bool   `json:"is_dirty"`
	Active   bool   `json:"active"`
}

func (h *ResourceHandlers) readAllDrafts() (*mcp.ReadResourceResult, error) {
	ids, err := h.drafts.ListDrafts()
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	active, err := h.drafts.ActiveDraft()
	if err != nil {
		return nil, fmt.Errorf("failed to read active draft: %w", err)
	}

	summaries := make([]draftSummary, 0, len(ids))
	for _, id := range ids {
		data, err := h.drafts.LoadDraft(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load draft %s: %w", id, err)
		}
		d, err := draft.Decode(data)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, draftSummary{
			SurveyID: id,
			Address:  d.Property.Address,
			Section:  string(d.CurrentSection),
			IsDirty:  d.IsDirty,
			Active:   id == active,
		})
	}

	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal drafts: %w", err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      DraftsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

// readDraft renders the draft in its remote record shape so consumers see what would be submitted.
func (h *ResourceHandlers) readDraft(uri, surveyID string) (*mcp.ReadResourceResult, error) {
	data, err := h.drafts.LoadDraft(surveyID)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	d, err := draft.Decode(data)
	if err != nil {
		return nil, err
	}
	orgID := h.orgID
	if d.OrganizationID != nil {
		orgID = *d.OrganizationID
	}
	rec := records.ToRecord(d, orgID, records.Options{Status: records.StatusDraft})

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft: %w", err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}}, nil
}
