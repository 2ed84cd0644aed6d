// ABOUTME: MCP tool handlers for cached survey drafts
// ABOUTME: Validates drafts and reports their save, sync and photo upload status
package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/markahope-aag/hazardos-sub000/db"
	"github.com/markahope-aag/hazardos-sub000/draft"
	"github.com/markahope-aag/hazardos-sub000/models"
	"github.com/markahope-aag/hazardos-sub000/validation"
)

// DraftSource reads serialized drafts from the local cache.
type DraftSource interface {
	LoadDraft(surveyID string) ([]byte, error)
	ListDrafts() ([]string, error)
	ActiveDraft() (string, error)
}

type SurveyHandlers struct {
	drafts  DraftSource
	uploads *db.UploadQueueStore
	sync    *db.SyncStateStore
}

func NewSurveyHandlers(database *sql.DB, drafts DraftSource) *SurveyHandlers {
	return &SurveyHandlers{
		drafts:  drafts,
		uploads: db.NewUploadQueueStore(database),
		sync:    db.NewSyncStateStore(database),
	}
}

// loadDraft resolves an empty id to the active draft.
func (h *SurveyHandlers) loadDraft(surveyID string) (string, models.SurveyDraft, error) {
	if surveyID == "" {
		active, err := h.drafts.ActiveDraft()
		if err != nil {
			return "", models.SurveyDraft{}, fmt.Errorf("failed to read active draft: %w", err)
		}
		if active == "" {
			return "", models.SurveyDraft{}, errors.New("no survey_id given and no active draft")
		}
		surveyID = active
	}
	data, err := h.drafts.LoadDraft(surveyID)
	if err != nil {
		return "", models.SurveyDraft{}, fmt.Errorf("failed to load draft %s: %w", surveyID, err)
	}
	d, err := draft.Decode(data)
	if err != nil {
		return "", models.SurveyDraft{}, err
	}
	return surveyID, d, nil
}

type ValidateSurveyInput struct {
	SurveyID string `json:"survey_id,omitempty" jsonschema:"Survey ID (defaults to the active draft)"`
}

type SectionResult struct {
	Section string   `json:"section"`
	Title   string   `json:"title"`
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

type ValidateSurveyOutput struct {
	SurveyID        string          `json:"survey_id"`
	ReadyToSubmit   bool            `json:"ready_to_submit"`
	Sections        []SectionResult `json:"sections"`
	InvalidSections []string        `json:"invalid_sections"`
}

func (h *SurveyHandlers) ValidateSurvey(ctx context.Context, req *mcp.CallToolRequest, input ValidateSurveyInput) (*mcp.CallToolResult, ValidateSurveyOutput, error) {
	id, d, err := h.loadDraft(input.SurveyID)
	if err != nil {
		return nil, ValidateSurveyOutput{}, err
	}

	all := validation.All(d)
	out := ValidateSurveyOutput{SurveyID: id, InvalidSections: []string{}}
	for _, s := range models.SectionOrder {
		v := all[s]
		out.Sections = append(out.Sections, SectionResult{
			Section: string(s),
			Title:   s.Title(),
			IsValid: v.IsValid,
			Errors:  v.Errors,
		})
	}
	for _, s := range validation.Invalid(all) {
		out.InvalidSections = append(out.InvalidSections, string(s))
	}
	out.ReadyToSubmit = len(out.InvalidSections) == 0
	return nil, out, nil
}

type SurveyStatusInput struct {
	SurveyID string `json:"survey_id,omitempty" jsonschema:"Survey ID (defaults to the active draft)"`
}

type PhotoCounts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Uploading int `json:"uploading"`
	Uploaded  int `json:"uploaded"`
	Failed    int `json:"failed"`
}

type SurveyStatusOutput struct {
	SurveyID       string      `json:"survey_id"`
	CurrentSection string      `json:"current_section"`
	Address        string      `json:"address,omitempty"`
	HazardTypes    []string    `json:"hazard_types"`
	IsDirty        bool        `json:"is_dirty"`
	StartedAt      *time.Time  `json:"started_at,omitempty"`
	LastSavedAt    *time.Time  `json:"last_saved_at,omitempty"`
	SyncStatus     string      `json:"sync_status"`
	SubmitPending  bool        `json:"submit_pending"`
	RemoteStale    bool        `json:"remote_stale"`
	LastSyncTime   *time.Time  `json:"last_sync_time,omitempty"`
	SyncError      string      `json:"sync_error,omitempty"`
	Photos         PhotoCounts `json:"photos"`
}

func (h *SurveyHandlers) SurveyStatus(ctx context.Context, req *mcp.CallToolRequest, input SurveyStatusInput) (*mcp.CallToolResult, SurveyStatusOutput, error) {
	id, d, err := h.loadDraft(input.SurveyID)
	if err != nil {
		return nil, SurveyStatusOutput{}, err
	}

	out := SurveyStatusOutput{
		SurveyID:       id,
		CurrentSection: string(d.CurrentSection),
		Address:        d.Property.Address,
		HazardTypes:    []string{},
		IsDirty:        d.IsDirty,
		StartedAt:      d.StartedAt,
		LastSavedAt:    d.LastSavedAt,
		SyncStatus:     db.SyncStatusIdle,
	}
	for _, t := range d.Hazards.Types {
		out.HazardTypes = append(out.HazardTypes, string(t))
	}

	state, err := h.sync.Get(ctx, id)
	if err != nil {
		return nil, SurveyStatusOutput{}, err
	}
	if state != nil {
		out.SyncStatus = state.Status
		out.SubmitPending = state.SubmitPending
		out.RemoteStale = state.RemoteStale
		out.LastSyncTime = state.LastSyncTime
		if state.ErrorMessage != nil {
			out.SyncError = *state.ErrorMessage
		}
	}

	counts, err := h.uploads.CountByState(ctx, id)
	if err != nil {
		return nil, SurveyStatusOutput{}, err
	}
	out.Photos = PhotoCounts{
		Total:     len(d.Photos),
		Pending:   counts[models.UploadPending],
		Uploading: counts[models.UploadUploading],
		Uploaded:  counts[models.UploadUploaded],
		Failed:    counts[models.UploadFailed],
	}
	return nil, out, nil
}
