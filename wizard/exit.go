// ABOUTME: Leaving the wizard
// ABOUTME: Asks for a choice only when the draft has unsaved changes
package wizard

import (
	"context"
	"fmt"
)

type ExitDecision int

const (
	// ExitAllowed means nothing is unsaved.
	ExitAllowed ExitDecision = iota
	// ExitNeedsChoice means the user must pick an ExitChoice.
	ExitNeedsChoice
)

type ExitChoice int

const (
	SaveAndExit ExitChoice = iota
	DiscardAndExit
	ContinueEditing
)

func (c ExitChoice) String() string {
	switch c {
	case SaveAndExit:
		return "save"
	case DiscardAndExit:
		return "discard"
	case ContinueEditing:
		return "continue"
	}
	return "unknown"
}

// RequestExit never discards silently: a dirty draft needs an explicit choice.
func (c *Controller) RequestExit() ExitDecision {
	if c.deps.Store.IsDirty() {
		return ExitNeedsChoice
	}
	return ExitAllowed
}

// ResolveExit applies the user's choice and reports whether the wizard may close.
// A failed local save keeps the wizard open.
func (c *Controller) ResolveExit(ctx context.Context, choice ExitChoice) (bool, error) {
	switch choice {
	case SaveAndExit:
		id, err := c.saveLocal(ctx)
		if err != nil {
			return false, err
		}
		if c.deps.Signal.Online() {
			if err := c.syncRemote(ctx, id); err != nil {
				c.log.WithError(err).Warn("sync on exit failed; remote copy left stale")
			}
		}
		return true, nil
	case DiscardAndExit:
		return true, c.Discard(ctx)
	case ContinueEditing:
		return false, nil
	}
	return false, fmt.Errorf("unknown exit choice %d", choice)
}

// Discard drops the draft, its cached copy, its queued photos and its sync state.
func (c *Controller) Discard(ctx context.Context) error {
	id, ok := c.deps.Store.SurveyID()
	c.deps.Store.Reset()
	c.setFlags(false, false)
	c.DismissSyncError()
	if !ok {
		return nil
	}
	if err := c.deps.Queue.ClearSurveyPhotos(ctx, id); err != nil {
		return err
	}
	if err := c.deps.Cache.DeleteDraft(id); err != nil {
		return fmt.Errorf("delete cached draft %s: %w", id, err)
	}
	if c.deps.Sync != nil {
		if err := c.deps.Sync.Delete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
