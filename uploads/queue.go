// ABOUTME: Photo upload queue with per-entry state machine and exponential retry
// ABOUTME: Processing is idempotent per survey and waits are notification driven
package uploads

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/markahope-aag/hazardos-sub000/config"
	"github.com/markahope-aag/hazardos-sub000/logging"
	"github.com/markahope-aag/hazardos-sub000/metrics"
	"github.com/markahope-aag/hazardos-sub000/models"
)

var (
	ErrNotFound  = errors.New("upload entry not found")
	ErrNotFailed = errors.New("upload entry is not in failed state")
	ErrClosed    = errors.New("upload queue closed")
)

// Transferer moves one photo payload to durable storage and returns its URL.
type Transferer interface {
	Upload(ctx context.Context, surveyID string, photo models.PhotoRecord) (string, error)
}

// EntryStore persists queue entries across restarts.
type EntryStore interface {
	SaveEntry(ctx context.Context, e models.UploadEntry) error
	DeleteEntry(ctx context.Context, surveyID, photoID string) error
	DeleteSurveyEntries(ctx context.Context, surveyID string) error
	LoadEntries(ctx context.Context) ([]models.UploadEntry, error)
}

// UploadedHook is told about a finished upload before the entry is marked uploaded.
type UploadedHook func(surveyID, photoID, url string)

type key struct {
	survey string
	photo  string
}

type Option func(*Queue)

func WithStore(s EntryStore) Option {
	return func(q *Queue) { q.store = s }
}

func WithLogger(l *logrus.Entry) Option {
	return func(q *Queue) { q.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(q *Queue) { q.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// Queue tracks photo uploads keyed by (survey, photo).
type Queue struct {
	transfer Transferer
	cfg      config.UploadConfig
	store    EntryStore
	log      *logrus.Entry
	metrics  *metrics.Metrics
	now      func() time.Time
	flight   singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	entries    map[key]*models.UploadEntry
	order      []key
	backoffs   map[key]*backoff.ExponentialBackOff
	timers     map[key]*time.Timer
	changed    chan struct{}
	onUploaded UploadedHook
	closed     bool
}

// New builds a queue. Zero values in cfg fall back to the config defaults.
func New(transfer Transferer, cfg config.UploadConfig, opts ...Option) *Queue {
	d := config.Default().Upload
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = d.MaxAttempts
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = d.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = d.MaxInterval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = d.Concurrency
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		transfer: transfer,
		cfg:      cfg,
		log:      logging.For("uploads"),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		entries:  map[key]*models.UploadEntry{},
		backoffs: map[key]*backoff.ExponentialBackOff{},
		timers:   map[key]*time.Timer{},
		changed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// SetUploadedHook installs the callback that swaps a photo payload for its URL.
func (q *Queue) SetUploadedHook(h UploadedHook) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onUploaded = h
}

// Close stops scheduled retries. In-flight transfers finish but are not retried.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cancel()
	for k, t := range q.timers {
		t.Stop()
		delete(q.timers, k)
	}
}

// notifyLocked wakes every waiter.
func (q *Queue) notifyLocked() {
	close(q.changed)
	q.changed = make(chan struct{})
}

func (q *Queue) persist(ctx context.Context, e models.UploadEntry) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveEntry(ctx, e); err != nil {
		q.log.WithError(err).WithField("photo_id", e.PhotoID).Warn("failed to persist upload entry")
	}
}

func (q *Queue) forget(ctx context.Context, k key) {
	if q.store == nil {
		return
	}
	if err := q.store.DeleteEntry(ctx, k.survey, k.photo); err != nil {
		q.log.WithError(err).WithField("photo_id", k.photo).Warn("failed to delete upload entry")
	}
}

// Restore reloads persisted entries. Entries interrupted mid-upload go back to pending
// and failed entries with a scheduled retry are rescheduled.
func (q *Queue) Restore(ctx context.Context) error {
	if q.store == nil {
		return nil
	}
	loaded, err := q.store.LoadEntries(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore upload queue: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range loaded {
		e := e
		k := key{e.SurveyID, e.PhotoID}
		if e.State == models.UploadUploading {
			e.State = models.UploadPending
		}
		if _, exists := q.entries[k]; !exists {
			q.order = append(q.order, k)
		}
		q.entries[k] = &e
		if e.State == models.UploadFailed && e.NextAttemptAt != nil {
			q.scheduleLocked(k, e.NextAttemptAt.Sub(q.now()))
		}
	}
	q.notifyLocked()
	q.log.WithField("entries", len(loaded)).Debug("upload queue restored")
	return nil
}

// Enqueue adds a photo for upload. Re-enqueueing a waiting entry refreshes its payload;
// entries that are uploading or already uploaded are left alone.
func (q *Queue) Enqueue(ctx context.Context, surveyID string, photo models.PhotoRecord) error {
	if surveyID == "" || photo.ID == "" {
		return errors.New("upload entry needs a survey id and photo id")
	}
	k := key{surveyID, photo.ID}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	now := q.now()
	e, exists := q.entries[k]
	switch {
	case exists && (e.State == models.UploadUploading || e.State == models.UploadUploaded):
		q.mu.Unlock()
		return nil
	case exists:
		e.Photo = photo.Clone()
		e.UpdatedAt = now
	default:
		e = &models.UploadEntry{
			SurveyID:  surveyID,
			PhotoID:   photo.ID,
			State:     models.UploadPending,
			Photo:     photo.Clone(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		q.entries[k] = e
		q.order = append(q.order, k)
	}
	snapshot := *e
	q.notifyLocked()
	q.mu.Unlock()

	if q.store != nil {
		if err := q.store.SaveEntry(ctx, snapshot); err != nil {
			return fmt.Errorf("failed to persist upload entry: %w", err)
		}
	}
	return nil
}

// eligibleLocked reports whether an entry should be picked up by a processing round.
// The first round of an invocation also takes failed entries that have attempts left.
func (q *Queue) eligibleLocked(e *models.UploadEntry, includeFailed bool) bool {
	switch e.State {
	case models.UploadPending:
		return true
	case models.UploadFailed:
		return includeFailed && e.AttemptCount < q.cfg.MaxAttempts
	}
	return false
}

// claimLocked moves eligible entries for a survey to uploading and returns copies.
func (q *Queue) claimLocked(surveyID string, includeFailed bool) []models.UploadEntry {
	var batch []models.UploadEntry
	now := q.now()
	for _, k := range q.order {
		if k.survey != surveyID {
			continue
		}
		e := q.entries[k]
		if e == nil || !q.eligibleLocked(e, includeFailed) {
			continue
		}
		if t, ok := q.timers[k]; ok {
			t.Stop()
			delete(q.timers, k)
		}
		e.State = models.UploadUploading
		e.NextAttemptAt = nil
		e.UpdatedAt = now
		batch = append(batch, *e)
	}
	if len(batch) > 0 {
		q.notifyLocked()
	}
	return batch
}

// Process uploads every waiting entry for a survey. Concurrent calls for the same
// survey share one run, and an entry is only ever claimed by one worker.
func (q *Queue) Process(ctx context.Context, surveyID string) error {
	_, err, shared := q.flight.Do(surveyID, func() (any, error) {
		return nil, q.process(ctx, surveyID)
	})
	// a joined run may have finished claiming before our entries became pending
	if err == nil && shared && q.hasPending(surveyID) {
		return q.process(ctx, surveyID)
	}
	return err
}

func (q *Queue) hasPending(surveyID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.countsLocked(surveyID).Pending > 0
}

func (q *Queue) process(ctx context.Context, surveyID string) error {
	for round := 0; ; round++ {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return ErrClosed
		}
		batch := q.claimLocked(surveyID, round == 0)
		q.mu.Unlock()

		if len(batch) == 0 {
			return nil
		}
		for _, e := range batch {
			q.persist(ctx, e)
		}

		var g errgroup.Group
		g.SetLimit(q.cfg.Concurrency)
		for _, e := range batch {
			e := e
			g.Go(func() error {
				url, err := q.transfer.Upload(ctx, e.SurveyID, e.Photo)
				q.finish(ctx, key{e.SurveyID, e.PhotoID}, url, err)
				return nil
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// finish records the outcome of one transfer.
func (q *Queue) finish(ctx context.Context, k key, url string, uploadErr error) {
	q.metrics.UploadAttempt(uploadErr)
	log := q.log.WithFields(logrus.Fields{"survey_id": k.survey, "photo_id": k.photo})

	if uploadErr == nil {
		q.mu.Lock()
		hook := q.onUploaded
		_, exists := q.entries[k]
		q.mu.Unlock()
		if exists && hook != nil {
			hook(k.survey, k.photo, url)
		}
	}

	q.mu.Lock()
	e, exists := q.entries[k]
	if !exists {
		// removed while uploading
		q.mu.Unlock()
		return
	}
	now := q.now()
	e.AttemptCount++
	e.UpdatedAt = now

	if uploadErr == nil {
		e.State = models.UploadUploaded
		e.RemoteURL = url
		e.LastError = ""
		e.NextAttemptAt = nil
		e.Photo.Data = nil
		delete(q.backoffs, k)
		log.Debug("photo uploaded")
	} else {
		e.State = models.UploadFailed
		e.LastError = uploadErr.Error()
		if e.AttemptCount < q.cfg.MaxAttempts && !q.closed {
			delay := q.backoffLocked(k).NextBackOff()
			next := now.Add(delay)
			e.NextAttemptAt = &next
			q.scheduleLocked(k, delay)
			log.WithError(uploadErr).WithField("retry_in", delay).Info("photo upload failed, retry scheduled")
		} else {
			e.NextAttemptAt = nil
			q.metrics.UploadExhausted()
			log.WithError(uploadErr).WithField("attempts", e.AttemptCount).Warn("photo upload failed, manual retry required")
		}
	}
	snapshot := *e
	q.notifyLocked()
	q.mu.Unlock()

	q.persist(ctx, snapshot)
}

func (q *Queue) backoffLocked(k key) *backoff.ExponentialBackOff {
	b, ok := q.backoffs[k]
	if !ok {
		b = backoff.NewExponentialBackOff()
		b.InitialInterval = q.cfg.InitialInterval
		b.MaxInterval = q.cfg.MaxInterval
		q.backoffs[k] = b
	}
	return b
}

// scheduleLocked arranges an automatic retry: failed goes back to pending and the survey is processed.
func (q *Queue) scheduleLocked(k key, delay time.Duration) {
	if q.closed {
		return
	}
	if delay < 0 {
		delay = 0
	}
	if t, ok := q.timers[k]; ok {
		t.Stop()
	}
	q.timers[k] = time.AfterFunc(delay, func() {
		q.mu.Lock()
		delete(q.timers, k)
		e, ok := q.entries[k]
		if !ok || q.closed || e.State != models.UploadFailed {
			q.mu.Unlock()
			return
		}
		e.State = models.UploadPending
		e.NextAttemptAt = nil
		e.UpdatedAt = q.now()
		snapshot := *e
		q.notifyLocked()
		q.mu.Unlock()

		q.persist(q.ctx, snapshot)
		if err := q.process(q.ctx, k.survey); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrClosed) {
			q.log.WithError(err).Warn("scheduled upload retry failed")
		}
	})
}

// ProcessAll processes every survey that has waiting entries.
func (q *Queue) ProcessAll(ctx context.Context) error {
	q.mu.Lock()
	seen := map[string]bool{}
	var surveys []string
	for _, k := range q.order {
		e := q.entries[k]
		if e == nil || seen[k.survey] || !q.eligibleLocked(e, true) {
			continue
		}
		seen[k.survey] = true
		surveys = append(surveys, k.survey)
	}
	q.mu.Unlock()

	var errs []error
	for _, s := range surveys {
		if err := q.Process(ctx, s); err != nil {
			errs = append(errs, fmt.Errorf("survey %s: %w", s, err))
		}
	}
	return errors.Join(errs...)
}

// Retry returns a failed entry to pending with a fresh attempt budget.
func (q *Queue) Retry(ctx context.Context, surveyID, photoID string) error {
	k := key{surveyID, photoID}
	q.mu.Lock()
	e, ok := q.entries[k]
	if !ok {
		q.mu.Unlock()
		return ErrNotFound
	}
	if e.State != models.UploadFailed {
		q.mu.Unlock()
		return ErrNotFailed
	}
	if t, ok := q.timers[k]; ok {
		t.Stop()
		delete(q.timers, k)
	}
	delete(q.backoffs, k)
	e.State = models.UploadPending
	e.AttemptCount = 0
	e.LastError = ""
	e.NextAttemptAt = nil
	e.UpdatedAt = q.now()
	snapshot := *e
	q.notifyLocked()
	q.mu.Unlock()

	q.persist(ctx, snapshot)
	return nil
}

func (q *Queue) removeLocked(k key) {
	if t, ok := q.timers[k]; ok {
		t.Stop()
		delete(q.timers, k)
	}
	delete(q.backoffs, k)
	delete(q.entries, k)
	for i, o := range q.order {
		if o == k {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// Remove drops one entry regardless of state.
func (q *Queue) Remove(ctx context.Context, surveyID, photoID string) error {
	k := key{surveyID, photoID}
	q.mu.Lock()
	if _, ok := q.entries[k]; !ok {
		q.mu.Unlock()
		return ErrNotFound
	}
	q.removeLocked(k)
	q.notifyLocked()
	q.mu.Unlock()

	q.forget(ctx, k)
	return nil
}

// ClearSurveyPhotos drops every entry for a survey.
func (q *Queue) ClearSurveyPhotos(ctx context.Context, surveyID string) error {
	q.mu.Lock()
	for _, k := range append([]key(nil), q.order...) {
		if k.survey == surveyID {
			q.removeLocked(k)
		}
	}
	q.notifyLocked()
	q.mu.Unlock()

	if q.store != nil {
		if err := q.store.DeleteSurveyEntries(ctx, surveyID); err != nil {
			return fmt.Errorf("failed to clear persisted uploads: %w", err)
		}
	}
	return nil
}

// Entries returns copies of a survey's entries in enqueue order.
func (q *Queue) Entries(surveyID string) []models.UploadEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []models.UploadEntry
	for _, k := range q.order {
		if k.survey == surveyID {
			out = append(out, *q.entries[k])
		}
	}
	return out
}

// Entry returns a copy of one entry.
func (q *Queue) Entry(surveyID, photoID string) (models.UploadEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[key{surveyID, photoID}]
	if !ok {
		return models.UploadEntry{}, false
	}
	return *e, true
}

// Counts summarizes a survey's entries.
type Counts struct {
	Pending   int
	Uploading int
	Uploaded  int
	Failed    int
	Exhausted int
}

func (q *Queue) countsLocked(surveyID string) Counts {
	var c Counts
	for _, k := range q.order {
		if k.survey != surveyID {
			continue
		}
		e := q.entries[k]
		switch e.State {
		case models.UploadPending:
			c.Pending++
		case models.UploadUploading:
			c.Uploading++
		case models.UploadUploaded:
			c.Uploaded++
		case models.UploadFailed:
			c.Failed++
			if e.AttemptCount >= q.cfg.MaxAttempts || q.timers[k] == nil {
				c.Exhausted++
			}
		}
	}
	return c
}

// Counts returns the per-state totals for a survey.
func (q *Queue) Counts(surveyID string) Counts {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.countsLocked(surveyID)
}

// PendingCount is the number of entries not yet finished, including ones mid-upload.
func (q *Queue) PendingCount(surveyID string) int {
	c := q.Counts(surveyID)
	return c.Pending + c.Uploading
}

// FailedCount is the number of entries in the failed state.
func (q *Queue) FailedCount(surveyID string) int {
	return q.Counts(surveyID).Failed
}
