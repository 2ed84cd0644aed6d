// ABOUTME: Captured photo records and their upload queue tracking entries
// ABOUTME: A photo holds a local payload until its upload replaces it with a remote URL
package models

import "time"

// PhotoCategory constants.
type PhotoCategory string

const (
	PhotoExterior PhotoCategory = "exterior"
	PhotoInterior PhotoCategory = "interior"
	PhotoHazard   PhotoCategory = "hazard"
	PhotoDamage   PhotoCategory = "damage"
	PhotoOther    PhotoCategory = "other"
)

// MinExteriorPhotos is the number of exterior shots a survey needs.
const MinExteriorPhotos = 4

type GPSCoordinates struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

type PhotoRecord struct {
	ID         string          `json:"id"`
	Data       []byte          `json:"data,omitempty"`
	PreviewURL string          `json:"preview_url,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	GPS        *GPSCoordinates `json:"gps,omitempty"`
	Category   PhotoCategory   `json:"category"`
	Location   string          `json:"location"`
	Caption    string          `json:"caption"`
}

// HasPayload reports whether the photo still holds its local bytes.
func (p PhotoRecord) HasPayload() bool {
	return len(p.Data) > 0
}

// IsUploaded reports whether the local payload has been replaced by a remote URL.
func (p PhotoRecord) IsUploaded() bool {
	return len(p.Data) == 0 && p.PreviewURL != ""
}

// UploadState constants.
type UploadState string

const (
	UploadPending   UploadState = "pending"
	UploadUploading UploadState = "uploading"
	UploadUploaded  UploadState = "uploaded"
	UploadFailed    UploadState = "failed"
)

// UploadEntry tracks one photo's upload lifecycle, keyed by (SurveyID, PhotoID).
type UploadEntry struct {
	SurveyID      string      `json:"survey_id"`
	PhotoID       string      `json:"photo_id"`
	State         UploadState `json:"state"`
	AttemptCount  int         `json:"attempt_count"`
	LastError     string      `json:"last_error,omitempty"`
	NextAttemptAt *time.Time  `json:"next_attempt_at,omitempty"`
	RemoteURL     string      `json:"remote_url,omitempty"`
	Photo         PhotoRecord `json:"photo"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
