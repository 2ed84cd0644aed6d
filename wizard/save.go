// ABOUTME: Local saves, remote sync, and the autosave loop
// ABOUTME: Reconnects flush waiting photos and deferred submits
package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/markahope-aag/hazardos-sub000/db"
	"github.com/markahope-aag/hazardos-sub000/draft"
	"github.com/markahope-aag/hazardos-sub000/records"
	"github.com/markahope-aag/hazardos-sub000/remote"
	"github.com/markahope-aag/hazardos-sub000/validation"
)

// saveLocal writes the current draft to the local cache and clears dirty if no edit raced it.
func (c *Controller) saveLocal(ctx context.Context) (string, error) {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	return c.saveLocalLocked(ctx)
}

func (c *Controller) saveLocalLocked(ctx context.Context) (string, error) {
	id := c.deps.Store.EnsureSurveyID()
	c.deps.Store.SetValidationMap(validation.All(c.deps.Store.Snapshot()))
	snap, rev := c.deps.Store.Checkpoint()

	at := c.now()
	snap.IsDirty = false
	snap.LastSavedAt = &at
	data, err := draft.Encode(snap)
	if err == nil {
		err = c.deps.Cache.SaveDraft(id, data)
	}
	c.metrics.Save("local", err)
	if err != nil {
		c.recordFailure(ctx, id, "Failed to save locally")
		return id, fmt.Errorf("save draft %s locally: %w", id, err)
	}
	c.deps.Store.MarkSaved(rev, at)

	pending, _ := c.flags()
	c.persistFlags(ctx, id, pending, true)
	return id, nil
}

// syncRemote pushes the current draft to the remote store as an in-progress record.
func (c *Controller) syncRemote(ctx context.Context, surveyID string) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	return c.syncRemoteLocked(ctx, surveyID)
}

// syncRemoteLocked is a no-op once the draft no longer belongs to surveyID, so a
// sync racing a submit cannot overwrite the submitted record.
func (c *Controller) syncRemoteLocked(ctx context.Context, surveyID string) error {
	snap := c.deps.Store.Snapshot()
	if snap.SurveyID == nil || *snap.SurveyID != surveyID {
		return nil
	}
	orgID := c.organizationID(snap)
	rec := records.ToRecord(snap, orgID, records.Options{Status: records.StatusInProgress})
	_, err := remote.Upsert(ctx, c.deps.Remote, orgID, rec)
	c.metrics.Save("remote", err)
	if err != nil {
		c.recordFailure(ctx, surveyID, remoteMessage(err, "Failed to sync survey"))
		return fmt.Errorf("sync survey %s: %w", surveyID, err)
	}

	pending, _ := c.flags()
	c.persistFlags(ctx, surveyID, pending, false)
	c.recordSuccess(ctx, surveyID, db.SyncStatusIdle)
	c.appendLog(ctx, surveyID, orgID, "sync", string(records.StatusInProgress))
	return nil
}

// Save persists locally and, when online, also syncs the remote copy.
func (c *Controller) Save(ctx context.Context) error {
	id, err := c.saveLocal(ctx)
	if err != nil {
		return err
	}
	if !c.deps.Signal.Online() {
		return nil
	}
	return c.syncRemote(ctx, id)
}

// autosave runs on each tick. A clean draft is only re-sent when a previous
// remote sync failed.
func (c *Controller) autosave(ctx context.Context) {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	id, hasID := c.deps.Store.SurveyID()
	if c.deps.Store.IsDirty() {
		var err error
		if id, err = c.saveLocalLocked(ctx); err != nil {
			c.log.WithError(err).Warn("autosave failed")
			return
		}
		hasID = true
	}
	if _, stale := c.flags(); !hasID || !stale || !c.deps.Signal.Online() {
		return
	}
	if err := c.syncRemoteLocked(ctx, id); err != nil {
		c.log.WithError(err).Warn("autosave sync failed")
	}
}

// Run drives autosave and reacts to connectivity until ctx ends. On the way out it
// cancels the background work it started and waits for it.
func (c *Controller) Run(ctx context.Context) error {
	c.restartBackground()
	ticker := time.NewTicker(c.settings.AutosaveInterval)
	defer ticker.Stop()

	sub := c.deps.Signal.Subscribe()
	defer c.deps.Signal.Unsubscribe(sub)
	online := c.deps.Signal.Online()

	for {
		select {
		case <-ctx.Done():
			c.stopBackground()
			return ctx.Err()
		case <-ticker.C:
			c.autosave(ctx)
		case now := <-sub:
			if now && !online {
				c.log.Info("connection restored")
				c.background(ctx, c.Flush)
			}
			online = now
		case <-c.deps.Signal.SyncRequests():
			if c.deps.Signal.Online() {
				c.background(ctx, c.Flush)
			}
		}
	}
}

// Flush catches up after being offline: uploads waiting photos, resyncs a stale
// remote copy and completes a submit that was deferred while offline.
func (c *Controller) Flush(ctx context.Context) {
	if err := c.deps.Queue.ProcessAll(ctx); err != nil {
		c.log.WithError(err).Warn("photo upload after reconnect failed")
	}

	id, ok := c.deps.Store.SurveyID()
	if !ok {
		return
	}
	pending, stale := c.flags()
	if pending {
		res := c.Submit(ctx)
		if c.onSubmit != nil {
			c.onSubmit(res)
		}
		return
	}
	if stale || c.deps.Store.IsDirty() {
		if err := c.Save(ctx); err != nil {
			c.log.WithError(err).WithField("survey_id", id).Warn("sync after reconnect failed")
		}
	}
}

func remoteMessage(err error, fallback string) string {
	var apiErr *remote.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
