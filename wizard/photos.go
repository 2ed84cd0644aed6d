// ABOUTME: Photo capture through the controller
// ABOUTME: Queues uploads and starts them when online
package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/markahope-aag/hazardos-sub000/models"
	"github.com/markahope-aag/hazardos-sub000/uploads"
)

// AddPhoto stores a captured photo on the draft and queues its upload. Uploads
// start right away when online and never block the caller.
func (c *Controller) AddPhoto(ctx context.Context, p models.PhotoRecord) (models.PhotoRecord, error) {
	id := c.deps.Store.EnsureSurveyID()
	stored := c.deps.Store.AddPhoto(p)
	if !stored.HasPayload() {
		return stored, nil
	}
	if err := c.deps.Queue.Enqueue(ctx, id, stored); err != nil {
		return stored, fmt.Errorf("queue photo %s: %w", stored.ID, err)
	}
	c.kick(ctx, id)
	return stored, nil
}

// RemovePhoto deletes a photo and drops any queued upload for it.
func (c *Controller) RemovePhoto(ctx context.Context, photoID string) error {
	if err := c.deps.Store.RemovePhoto(photoID); err != nil {
		return err
	}
	id, ok := c.deps.Store.SurveyID()
	if !ok {
		return nil
	}
	if err := c.deps.Queue.Remove(ctx, id, photoID); err != nil && !errors.Is(err, uploads.ErrNotFound) {
		return err
	}
	return nil
}

// RetryPhoto moves a failed upload back to pending.
func (c *Controller) RetryPhoto(ctx context.Context, photoID string) error {
	id, ok := c.deps.Store.SurveyID()
	if !ok {
		return uploads.ErrNotFound
	}
	if err := c.deps.Queue.Retry(ctx, id, photoID); err != nil {
		return err
	}
	c.kick(ctx, id)
	return nil
}

// kick starts background processing for a survey when online.
func (c *Controller) kick(ctx context.Context, surveyID string) {
	if !c.deps.Signal.Online() {
		return
	}
	c.background(ctx, func(ctx context.Context) {
		if err := c.deps.Queue.Process(ctx, surveyID); err != nil {
			c.log.WithError(err).WithField("survey_id", surveyID).Warn("photo upload run failed")
		}
	})
}
