// ABOUTME: Wizard controller owning one survey session on the device
// ABOUTME: Ties the draft store, local cache, upload queue, remote store and connectivity together
package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/markahope-aag/hazardos-sub000/config"
	"github.com/markahope-aag/hazardos-sub000/db"
	"github.com/markahope-aag/hazardos-sub000/draft"
	"github.com/markahope-aag/hazardos-sub000/logging"
	"github.com/markahope-aag/hazardos-sub000/metrics"
	"github.com/markahope-aag/hazardos-sub000/models"
	"github.com/markahope-aag/hazardos-sub000/remote"
	"github.com/markahope-aag/hazardos-sub000/uploads"
)

// LocalCache persists serialized drafts across restarts.
type LocalCache interface {
	SaveDraft(surveyID string, data []byte) error
	LoadDraft(surveyID string) ([]byte, error)
	DeleteDraft(surveyID string) error
}

// Signal reports connectivity and explicit sync requests.
type Signal interface {
	Online() bool
	Subscribe() <-chan bool
	Unsubscribe(sub <-chan bool)
	SyncNow()
	SyncRequests() <-chan struct{}
}

// UploadQueue is the subset of the photo queue the controller drives.
type UploadQueue interface {
	Enqueue(ctx context.Context, surveyID string, photo models.PhotoRecord) error
	Process(ctx context.Context, surveyID string) error
	ProcessAll(ctx context.Context) error
	Retry(ctx context.Context, surveyID, photoID string) error
	Remove(ctx context.Context, surveyID, photoID string) error
	ClearSurveyPhotos(ctx context.Context, surveyID string) error
	WaitForUploads(ctx context.Context, surveyID string, timeout time.Duration) uploads.WaitOutcome
	Counts(surveyID string) uploads.Counts
	Entries(surveyID string) []models.UploadEntry
	SetUploadedHook(h uploads.UploadedHook)
}

// SyncStates records per-survey sync bookkeeping. *db.SyncStateStore implements it.
type SyncStates interface {
	Get(ctx context.Context, surveyID string) (*db.SyncState, error)
	SetFlags(ctx context.Context, surveyID string, submitPending, remoteStale bool) error
	RecordError(ctx context.Context, surveyID, message string) error
	RecordSuccess(ctx context.Context, surveyID, status string) error
	Delete(ctx context.Context, surveyID string) error
	AppendLog(ctx context.Context, surveyID, organizationID, action, metadata string) error
}

// Deps are the collaborators a Controller orchestrates.
type Deps struct {
	Store  *draft.Store
	Cache  LocalCache
	Queue  UploadQueue
	Remote remote.Store
	Signal Signal
	// Sync is optional; without it flags live only in memory.
	Sync SyncStates
}

// Settings are the controller's tunables.
type Settings struct {
	OrganizationID   string
	AutosaveInterval time.Duration
	SubmitTimeout    time.Duration
	SwipeThreshold   float64
}

// SettingsFrom picks the controller tunables out of the application config.
func SettingsFrom(cfg *config.Config) Settings {
	return Settings{
		OrganizationID:   cfg.OrganizationID,
		AutosaveInterval: cfg.AutosaveInterval,
		SubmitTimeout:    cfg.SubmitTimeout,
		SwipeThreshold:   cfg.SwipeThreshold,
	}
}

type Option func(*Controller)

func WithLogger(l *logrus.Entry) Option {
	return func(c *Controller) { c.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithSubmitHook receives the result of submissions started by a reconnect.
func WithSubmitHook(h func(SubmitResult)) Option {
	return func(c *Controller) { c.onSubmit = h }
}

// Controller is the single writer for the active survey. UI code mutates the draft
// through it; background work only reads snapshots.
type Controller struct {
	deps     Deps
	settings Settings
	log      *logrus.Entry
	metrics  *metrics.Metrics
	now      func() time.Time
	onSubmit func(SubmitResult)

	saveMu sync.Mutex
	// cacheMu serializes rewrites of cached drafts that are not the open one.
	cacheMu sync.Mutex

	mu            sync.Mutex
	syncErr       string
	submitPending bool
	remoteStale   bool
	submitting    bool

	bgMu     sync.Mutex
	bgCtx    context.Context
	bgCancel context.CancelFunc
	wg       sync.WaitGroup
}

// New wires a controller and registers the queue's upload hook on the store.
func New(deps Deps, settings Settings, opts ...Option) *Controller {
	d := config.Default()
	if settings.AutosaveInterval <= 0 {
		settings.AutosaveInterval = d.AutosaveInterval
	}
	if settings.SubmitTimeout <= 0 {
		settings.SubmitTimeout = d.SubmitTimeout
	}
	if settings.SwipeThreshold <= 0 {
		settings.SwipeThreshold = d.SwipeThreshold
	}
	c := &Controller{
		deps:     deps,
		settings: settings,
		log:      logging.For("wizard"),
		now:      time.Now,
	}
	c.bgCtx, c.bgCancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(c)
	}
	deps.Queue.SetUploadedHook(c.photoUploaded)
	return c
}

// Store exposes the draft for read-model rendering.
func (c *Controller) Store() *draft.Store {
	return c.deps.Store
}

// photoUploaded swaps a photo's payload for its URL. Uploads for a survey that is
// not open are written into that survey's cached draft.
func (c *Controller) photoUploaded(surveyID, photoID, url string) {
	if c.markOpenPhotoUploaded(surveyID, photoID, url) {
		return
	}
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	// the survey may have been resumed while waiting for the lock
	if c.markOpenPhotoUploaded(surveyID, photoID, url) {
		return
	}
	if err := c.markCachedPhotoUploaded(surveyID, photoID, url); err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"survey_id": surveyID, "photo_id": photoID}).
			Warn("failed to record uploaded photo in cached draft")
	}
}

func (c *Controller) markOpenPhotoUploaded(surveyID, photoID, url string) bool {
	id, ok := c.deps.Store.SurveyID()
	if !ok || id != surveyID {
		return false
	}
	if err := c.deps.Store.MarkPhotoUploaded(photoID, url); err != nil && !errors.Is(err, draft.ErrNotFound) {
		c.log.WithError(err).WithField("photo_id", photoID).Warn("failed to record uploaded photo")
	}
	return true
}

func (c *Controller) markCachedPhotoUploaded(surveyID, photoID, url string) error {
	data, err := c.deps.Cache.LoadDraft(surveyID)
	if err != nil {
		return err
	}
	d, err := draft.Decode(data)
	if err != nil {
		return err
	}
	if !draft.MarkUploaded(&d, photoID, url) {
		return nil
	}
	if data, err = draft.Encode(d); err != nil {
		return err
	}
	return c.deps.Cache.SaveDraft(surveyID, data)
}

// applyUploadedURLs copies the URL of every finished upload onto open-draft photos
// that still hold their payload.
func (c *Controller) applyUploadedURLs(surveyID string) {
	for _, e := range c.deps.Queue.Entries(surveyID) {
		if e.State != models.UploadUploaded || e.RemoteURL == "" {
			continue
		}
		if p, ok := c.deps.Store.Photo(e.PhotoID); !ok || !p.HasPayload() {
			continue
		}
		if err := c.deps.Store.MarkPhotoUploaded(e.PhotoID, e.RemoteURL); err != nil {
			c.log.WithError(err).WithField("photo_id", e.PhotoID).Warn("failed to apply uploaded photo")
		}
	}
}

// background runs fn beyond the caller's context. Run cancels it on shutdown.
func (c *Controller) background(ctx context.Context, fn func(ctx context.Context)) {
	c.bgMu.Lock()
	parent := c.bgCtx
	c.bgMu.Unlock()

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(parent, cancel)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		defer stop()
		fn(ctx)
	}()
}

// stopBackground cancels running background work and waits for it to return.
// Work started after this sees a cancelled context until Run starts again.
func (c *Controller) stopBackground() {
	c.bgMu.Lock()
	cancel := c.bgCancel
	c.bgMu.Unlock()
	cancel()
	c.wg.Wait()
}

func (c *Controller) restartBackground() {
	c.bgMu.Lock()
	defer c.bgMu.Unlock()
	if c.bgCtx.Err() != nil {
		c.bgCtx, c.bgCancel = context.WithCancel(context.Background())
	}
}

// Wait blocks until background work started by the controller has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// SyncError is the last save or sync failure, kept until the next success.
func (c *Controller) SyncError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncErr
}

// DismissSyncError clears the banner without retrying.
func (c *Controller) DismissSyncError() {
	c.mu.Lock()
	c.syncErr = ""
	c.mu.Unlock()
}

func (c *Controller) organizationID(d models.SurveyDraft) string {
	if d.OrganizationID != nil && *d.OrganizationID != "" {
		return *d.OrganizationID
	}
	return c.settings.OrganizationID
}

// Status is the read model for status banners.
type Status struct {
	SurveyID       string
	Section        models.SurveySection
	Position       Position
	Dirty          bool
	Online         bool
	LastSavedAt    *time.Time
	SyncError      string
	SubmitPending  bool
	RemoteStale    bool
	PendingPhotos  int
	FailedPhotos   int
	UploadedPhotos int
}

func (c *Controller) Status() Status {
	snap := c.deps.Store.Snapshot()
	s := Status{
		Section:     snap.CurrentSection,
		Position:    positionOf(snap.CurrentSection),
		Dirty:       snap.IsDirty,
		Online:      c.deps.Signal.Online(),
		LastSavedAt: snap.LastSavedAt,
	}
	if snap.SurveyID != nil {
		s.SurveyID = *snap.SurveyID
		counts := c.deps.Queue.Counts(s.SurveyID)
		s.PendingPhotos = counts.Pending + counts.Uploading
		s.FailedPhotos = counts.Failed
		s.UploadedPhotos = counts.Uploaded
	}
	c.mu.Lock()
	s.SyncError = c.syncErr
	s.SubmitPending = c.submitPending
	s.RemoteStale = c.remoteStale
	c.mu.Unlock()
	return s
}

// NewSurvey discards the current draft and starts a fresh one for a customer.
func (c *Controller) NewSurvey(customerID string) string {
	c.deps.Store.Reset()
	if customerID != "" || c.settings.OrganizationID != "" {
		c.deps.Store.SetCustomer(customerID, c.settings.OrganizationID)
	}
	c.setFlags(false, false)
	return c.deps.Store.EnsureSurveyID()
}

// Resume hydrates the store from the local cache and the persisted sync flags.
// Uploads that finished while the survey was closed are applied to its photos.
func (c *Controller) Resume(ctx context.Context, surveyID string) error {
	c.cacheMu.Lock()
	data, err := c.deps.Cache.LoadDraft(surveyID)
	if err == nil {
		err = c.deps.Store.Restore(data)
	}
	if err == nil {
		c.deps.Store.AssignSurveyID(surveyID)
	}
	c.cacheMu.Unlock()
	if err != nil {
		return err
	}
	c.applyUploadedURLs(surveyID)

	pending, stale := false, false
	if c.deps.Sync != nil {
		state, err := c.deps.Sync.Get(ctx, surveyID)
		if err != nil {
			return err
		}
		if state != nil {
			pending, stale = state.SubmitPending, state.RemoteStale
			if state.ErrorMessage != nil {
				c.mu.Lock()
				c.syncErr = *state.ErrorMessage
				c.mu.Unlock()
			}
		}
	}
	c.mu.Lock()
	c.submitPending, c.remoteStale = pending, stale
	c.mu.Unlock()
	return nil
}

// setFlags updates the in-memory flags without touching persistence.
func (c *Controller) setFlags(submitPending, remoteStale bool) {
	c.mu.Lock()
	c.submitPending, c.remoteStale = submitPending, remoteStale
	c.mu.Unlock()
}

func (c *Controller) persistFlags(ctx context.Context, surveyID string, submitPending, remoteStale bool) {
	c.setFlags(submitPending, remoteStale)
	if c.deps.Sync == nil {
		return
	}
	if err := c.deps.Sync.SetFlags(ctx, surveyID, submitPending, remoteStale); err != nil {
		c.log.WithError(err).Warn("failed to persist sync flags")
	}
}

func (c *Controller) flags() (submitPending, remoteStale bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitPending, c.remoteStale
}

func (c *Controller) recordFailure(ctx context.Context, surveyID, message string) {
	c.mu.Lock()
	c.syncErr = message
	c.mu.Unlock()
	if c.deps.Sync != nil && surveyID != "" {
		if err := c.deps.Sync.RecordError(ctx, surveyID, message); err != nil {
			c.log.WithError(err).Warn("failed to record sync error")
		}
	}
}

func (c *Controller) recordSuccess(ctx context.Context, surveyID, status string) {
	c.mu.Lock()
	c.syncErr = ""
	c.mu.Unlock()
	if c.deps.Sync != nil {
		if err := c.deps.Sync.RecordSuccess(ctx, surveyID, status); err != nil {
			c.log.WithError(err).Warn("failed to record sync success")
		}
	}
}

func (c *Controller) appendLog(ctx context.Context, surveyID, orgID, action, metadata string) {
	if c.deps.Sync == nil {
		return
	}
	if err := c.deps.Sync.AppendLog(ctx, surveyID, orgID, action, metadata); err != nil {
		c.log.WithError(err).Warn("failed to append sync log")
	}
}
