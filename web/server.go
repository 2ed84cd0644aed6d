// ABOUTME: Read-only status server run by the sync daemon
// ABOUTME: Serves a survey sync dashboard, a JSON status feed, a health check, and Prometheus metrics
package web

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/markahope-aag/hazardos-sub000/db"
	"github.com/markahope-aag/hazardos-sub000/logging"
	"github.com/markahope-aag/hazardos-sub000/models"
	"github.com/markahope-aag/hazardos-sub000/wizard"
)

//go:embed templates/*
var templatesFS embed.FS

const recentLogLimit = 20

type Server struct {
	syncStates *db.SyncStateStore
	uploads    *db.UploadQueueStore
	gatherer   prometheus.Gatherer
	live       func() wizard.Status
	templates  *template.Template
	log        *logrus.Entry
}

type Option func(*Server)

// WithLiveStatus adds the in-memory state of the running wizard to every page.
func WithLiveStatus(fn func() wizard.Status) Option {
	return func(s *Server) { s.live = fn }
}

func NewServer(database *sql.DB, gatherer prometheus.Gatherer, opts ...Option) (*Server, error) {
	funcMap := template.FuncMap{
		"when": func(t *time.Time) string {
			if t == nil {
				return "never"
			}
			return t.Local().Format("2006-01-02 15:04:05")
		},
		"stamp": func(t time.Time) string {
			return t.Local().Format("2006-01-02 15:04:05")
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		syncStates: db.NewSyncStateStore(database),
		uploads:    db.NewUploadQueueStore(database),
		gatherer:   gatherer,
		templates:  tmpl,
		log:        logging.For("web"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler routes every endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleDashboard)
	mux.HandleFunc("/status.json", s.handleStatusJSON)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

type PhotoCounts struct {
	Pending  int `json:"pending"`
	Uploaded int `json:"uploaded"`
	Failed   int `json:"failed"`
}

type SurveyStatus struct {
	SurveyID      string      `json:"survey_id"`
	Status        string      `json:"status"`
	SubmitPending bool        `json:"submit_pending"`
	RemoteStale   bool        `json:"remote_stale"`
	LastSyncTime  *time.Time  `json:"last_sync_time"`
	Error         *string     `json:"error"`
	Photos        PhotoCounts `json:"photos"`
}

type ActiveStatus struct {
	SurveyID    string     `json:"survey_id"`
	Section     string     `json:"section"`
	Online      bool       `json:"online"`
	Dirty       bool       `json:"dirty"`
	LastSavedAt *time.Time `json:"last_saved_at"`
	SyncError   string     `json:"sync_error,omitempty"`
}

type LogEntry struct {
	SurveyID   string    `json:"survey_id"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
	Metadata   string    `json:"metadata,omitempty"`
}

type Snapshot struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Active      *ActiveStatus  `json:"active,omitempty"`
	Surveys     []SurveyStatus `json:"surveys"`
	Recent      []LogEntry     `json:"recent"`
}

// Snapshot gathers everything the dashboard shows.
func (s *Server) Snapshot(ctx context.Context) (*Snapshot, error) {
	states, err := s.syncStates.All(ctx)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		GeneratedAt: time.Now(),
		Surveys:     make([]SurveyStatus, 0, len(states)),
		Recent:      []LogEntry{},
	}
	for _, st := range states {
		counts, err := s.uploads.CountByState(ctx, st.SurveyID)
		if err != nil {
			return nil, err
		}
		snap.Surveys = append(snap.Surveys, SurveyStatus{
			SurveyID:      st.SurveyID,
			Status:        st.Status,
			SubmitPending: st.SubmitPending,
			RemoteStale:   st.RemoteStale,
			LastSyncTime:  st.LastSyncTime,
			Error:         st.ErrorMessage,
			Photos: PhotoCounts{
				Pending:  counts[models.UploadPending] + counts[models.UploadUploading],
				Uploaded: counts[models.UploadUploaded],
				Failed:   counts[models.UploadFailed],
			},
		})
	}

	entries, err := s.syncStates.RecentLog(ctx, recentLogLimit)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		snap.Recent = append(snap.Recent, LogEntry{
			SurveyID:   e.SurveyID,
			Action:     e.Action,
			OccurredAt: e.OccurredAt,
			Metadata:   e.Metadata,
		})
	}

	if s.live != nil {
		st := s.live()
		if st.SurveyID != "" {
			snap.Active = &ActiveStatus{
				SurveyID:    st.SurveyID,
				Section:     string(st.Section),
				Online:      st.Online,
				Dirty:       st.Dirty,
				LastSavedAt: st.LastSavedAt,
				SyncError:   st.SyncError,
			}
		}
	}
	return snap, nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	snap, err := s.Snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Title":    "Sync status",
		"Snapshot": snap,
	}
	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.log.WithError(err).WithField("template", name).Error("template render failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleStatusJSON(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.log.WithError(err).Warn("failed to write status")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok\n"))
}
