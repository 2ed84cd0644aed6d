// ABOUTME: Survey submission
// ABOUTME: Validation gate, offline deferral, photo reconciliation, then the remote write
package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/markahope-aag/hazardos-sub000/db"
	"github.com/markahope-aag/hazardos-sub000/models"
	"github.com/markahope-aag/hazardos-sub000/records"
	"github.com/markahope-aag/hazardos-sub000/remote"
	"github.com/markahope-aag/hazardos-sub000/uploads"
	"github.com/markahope-aag/hazardos-sub000/validation"
)

var (
	ErrIncompleteSections = errors.New("incomplete sections")
	ErrPhotosFailed       = errors.New("photos failed to upload")
	ErrPhotosNotUploaded  = errors.New("photos still hold local data")
	ErrUploadTimeout      = errors.New("photo uploads did not finish in time")
	ErrSubmitInProgress   = errors.New("a submission is already running")
	ErrRemoteSubmit       = errors.New("remote submit failed")
)

// Outcome classifies how a submit attempt ended.
type Outcome int

const (
	OutcomeSubmitted Outcome = iota
	// OutcomeSavedOffline is a soft success: the draft is cached and will be submitted on reconnect.
	OutcomeSavedOffline
	OutcomeIncomplete
	OutcomePhotosFailed
	OutcomeUploadTimeout
	OutcomeRemoteFailed
	OutcomeSaveFailed
	OutcomeBusy
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSubmitted:
		return "submitted"
	case OutcomeSavedOffline:
		return "saved_offline"
	case OutcomeIncomplete:
		return "incomplete"
	case OutcomePhotosFailed:
		return "photos_failed"
	case OutcomeUploadTimeout:
		return "upload_timeout"
	case OutcomeRemoteFailed:
		return "remote_failed"
	case OutcomeSaveFailed:
		return "save_failed"
	case OutcomeBusy:
		return "busy"
	}
	return "unknown"
}

// SubmitResult is what the UI shows after a submit.
type SubmitResult struct {
	Outcome         Outcome
	SurveyID        string
	OrganizationID  string
	Message         string
	InvalidSections []models.SurveySection
	FailedPhotos    int
	PendingPhotos   int
	Err             error
}

// OK reports whether the draft left the device or was queued to.
func (r SubmitResult) OK() bool {
	return r.Outcome == OutcomeSubmitted || r.Outcome == OutcomeSavedOffline
}

func (c *Controller) finishSubmit(res SubmitResult) SubmitResult {
	c.metrics.Submission(res.Outcome.String())
	entry := c.log.WithField("outcome", res.Outcome.String())
	if res.SurveyID != "" {
		entry = entry.WithField("survey_id", res.SurveyID)
	}
	if res.Err != nil {
		entry.WithError(res.Err).Warn("submit did not complete")
	} else {
		entry.Info("submit finished")
	}
	return res
}

// Submit runs the submission protocol. Each step that fails stops the rest and the
// draft stays intact so the user can fix and resubmit.
func (c *Controller) Submit(ctx context.Context) SubmitResult {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return SubmitResult{Outcome: OutcomeBusy, Message: "Submission already in progress", Err: ErrSubmitInProgress}
	}
	c.submitting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	// thresholds are rederived before the hard gate so derived fields cannot be stale
	all := c.Validate()
	if invalid := validation.Invalid(all); len(invalid) > 0 {
		return c.finishSubmit(SubmitResult{
			Outcome:         OutcomeIncomplete,
			Message:         "Please complete all required sections",
			InvalidSections: invalid,
			Err:             ErrIncompleteSections,
		})
	}

	id := c.deps.Store.EnsureSurveyID()
	orgID := c.organizationID(c.deps.Store.Snapshot())
	res := SubmitResult{SurveyID: id, OrganizationID: orgID}

	if !c.deps.Signal.Online() {
		if _, err := c.saveLocal(ctx); err != nil {
			res.Outcome, res.Message, res.Err = OutcomeSaveFailed, "Failed to save locally", err
			return c.finishSubmit(res)
		}
		c.persistFlags(ctx, id, true, true)
		res.Outcome = OutcomeSavedOffline
		res.Message = "Saved locally. Will submit when online."
		res.PendingPhotos = c.deps.Queue.Counts(id).Pending
		return c.finishSubmit(res)
	}

	if counts := c.deps.Queue.Counts(id); counts.Pending+counts.Uploading+counts.Failed > 0 {
		if out, err := c.reconcilePhotos(ctx, id); err != nil {
			counts = c.deps.Queue.Counts(id)
			res.FailedPhotos = counts.Failed
			res.PendingPhotos = counts.Pending + counts.Uploading
			res.Err = err
			switch {
			case errors.Is(err, ErrPhotosFailed):
				res.Outcome = OutcomePhotosFailed
				res.Message = fmt.Sprintf("%d photo(s) failed to upload. Please retry.", res.FailedPhotos)
			default:
				res.Outcome = OutcomeUploadTimeout
				res.Message = fmt.Sprintf("Photo uploads did not finish (%s). Please try again.", out)
			}
			return c.finishSubmit(res)
		}
	}

	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.applyUploadedURLs(id)
	if n := c.requeueUnsentPhotos(ctx, id); n > 0 {
		res.Outcome = OutcomePhotosFailed
		res.PendingPhotos = n
		res.Message = fmt.Sprintf("%d photo(s) have not been uploaded. Please retry.", n)
		res.Err = fmt.Errorf("%w: %d photo(s)", ErrPhotosNotUploaded, n)
		return c.finishSubmit(res)
	}

	snap := c.deps.Store.Snapshot()
	submittedAt := c.now()
	rec := records.ToRecord(snap, orgID, records.Options{Status: records.StatusSubmitted, SubmittedAt: &submittedAt})
	saved, err := remote.Upsert(ctx, c.deps.Remote, orgID, rec)
	if err != nil {
		res.Outcome = OutcomeRemoteFailed
		res.Message = remoteMessage(err, "Failed to submit survey. Please try again.")
		res.Err = fmt.Errorf("%w: %w", ErrRemoteSubmit, err)
		c.recordFailure(ctx, id, res.Message)
		return c.finishSubmit(res)
	}
	if saved.ID != "" {
		res.SurveyID = saved.ID
	}

	if err := c.deps.Queue.ClearSurveyPhotos(ctx, id); err != nil {
		c.log.WithError(err).Warn("failed to clear photo queue after submit")
	}
	if err := c.deps.Cache.DeleteDraft(id); err != nil {
		c.log.WithError(err).Warn("failed to drop cached draft after submit")
	}
	c.persistFlags(ctx, id, false, false)
	c.recordSuccess(ctx, id, db.SyncStatusSubmitted)
	c.appendLog(ctx, id, orgID, "submit", string(records.StatusSubmitted))
	c.deps.Store.Reset()

	res.Outcome = OutcomeSubmitted
	res.Message = "Survey submitted"
	return c.finishSubmit(res)
}

// reconcilePhotos uploads what is waiting and blocks up to the submit timeout.
// Giving up on the wait leaves the transfers running.
func (c *Controller) reconcilePhotos(ctx context.Context, surveyID string) (uploads.WaitOutcome, error) {
	c.background(ctx, func(ctx context.Context) {
		if err := c.deps.Queue.Process(ctx, surveyID); err != nil {
			c.log.WithError(err).Warn("photo upload before submit failed")
		}
	})
	out := c.deps.Queue.WaitForUploads(ctx, surveyID, c.settings.SubmitTimeout)
	switch {
	case out == uploads.WaitDrained:
		return out, nil
	case c.deps.Queue.Counts(surveyID).Failed > 0:
		return out, ErrPhotosFailed
	}
	return out, fmt.Errorf("%w: %s", ErrUploadTimeout, out)
}

// requeueUnsentPhotos counts photos that still carry a payload and queues the
// ones the upload queue has lost track of.
func (c *Controller) requeueUnsentPhotos(ctx context.Context, surveyID string) int {
	queued := map[string]bool{}
	for _, e := range c.deps.Queue.Entries(surveyID) {
		queued[e.PhotoID] = true
	}
	unsent := 0
	for _, p := range c.deps.Store.Photos() {
		if !p.HasPayload() {
			continue
		}
		unsent++
		if queued[p.ID] {
			continue
		}
		if err := c.deps.Queue.Enqueue(ctx, surveyID, p); err != nil {
			c.log.WithError(err).WithField("photo_id", p.ID).Warn("failed to queue unsent photo")
		}
	}
	if unsent > 0 {
		c.kick(ctx, surveyID)
	}
	return unsent
}
