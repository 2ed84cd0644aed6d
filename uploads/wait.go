// ABOUTME: Waiting for a survey's uploads to settle
// ABOUTME: Wakes on queue changes and reports drained, failed, timed out, or cancelled
package uploads

import (
	"context"
	"time"
)

// WaitOutcome is how WaitForUploads ended.
type WaitOutcome int

const (
	// WaitDrained means every entry for the survey is uploaded (or there were none).
	WaitDrained WaitOutcome = iota
	// WaitSettledWithFailures means nothing is in flight or scheduled, but some entries failed for good.
	WaitSettledWithFailures
	// WaitTimedOut means the bound elapsed first. Entries are left as they were.
	WaitTimedOut
	// WaitCancelled means the caller's context ended first.
	WaitCancelled
)

func (o WaitOutcome) String() string {
	switch o {
	case WaitDrained:
		return "drained"
	case WaitSettledWithFailures:
		return "settled_with_failures"
	case WaitTimedOut:
		return "timed_out"
	case WaitCancelled:
		return "cancelled"
	}
	return "unknown"
}

// WaitForUploads blocks until the survey's entries are all uploaded, until only
// failures needing manual action remain, or until timeout elapses. It wakes on
// queue state changes rather than polling.
func (q *Queue) WaitForUploads(ctx context.Context, surveyID string, timeout time.Duration) WaitOutcome {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		q.mu.Lock()
		c := q.countsLocked(surveyID)
		changed := q.changed
		q.mu.Unlock()

		if c.Pending+c.Uploading == 0 {
			if c.Failed == 0 {
				return WaitDrained
			}
			if c.Failed == c.Exhausted {
				return WaitSettledWithFailures
			}
		}

		select {
		case <-changed:
		case <-timer.C:
			return WaitTimedOut
		case <-ctx.Done():
			return WaitCancelled
		}
	}
}
