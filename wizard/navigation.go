// ABOUTME: Section navigation and swipe handling
package wizard

import (
	"fmt"

	"github.com/markahope-aag/hazardos-sub000/models"
	"github.com/markahope-aag/hazardos-sub000/validation"
)

// Position locates a section in the fixed wizard order.
type Position struct {
	Section models.SurveySection
	Index   int
	Total   int
	IsFirst bool
	IsLast  bool
}

func positionOf(s models.SurveySection) Position {
	i := models.SectionIndex(s)
	if i < 0 {
		i = 0
		s = models.SectionOrder[0]
	}
	n := len(models.SectionOrder)
	return Position{Section: s, Index: i, Total: n, IsFirst: i == 0, IsLast: i == n-1}
}

// Position reports where the wizard currently is.
func (c *Controller) Position() Position {
	return positionOf(c.deps.Store.CurrentSection())
}

// Next validates the current section and advances when it is not the last.
// Errors are recorded for display but never block the move.
func (c *Controller) Next() (Position, models.SectionValidation) {
	current := c.deps.Store.CurrentSection()
	v := validation.Section(c.deps.Store.Snapshot(), current)
	c.deps.Store.SetValidation(current, v)

	pos := positionOf(current)
	if !pos.IsLast {
		c.deps.Store.SetCurrentSection(models.SectionOrder[pos.Index+1])
	}
	return c.Position(), v
}

// Back moves to the previous section unless already at the first.
func (c *Controller) Back() Position {
	pos := c.Position()
	if !pos.IsFirst {
		c.deps.Store.SetCurrentSection(models.SectionOrder[pos.Index-1])
	}
	return c.Position()
}

// JumpTo moves directly to any section.
func (c *Controller) JumpTo(s models.SurveySection) (Position, error) {
	if models.SectionIndex(s) < 0 {
		return c.Position(), fmt.Errorf("unknown section %q", s)
	}
	c.deps.Store.SetCurrentSection(s)
	return c.Position(), nil
}

// Swipe maps a horizontal drag to Next (leftward) or Back (rightward) once it
// passes the threshold, reporting whether the wizard moved.
func (c *Controller) Swipe(dx float64) (Position, bool) {
	before := c.Position()
	switch {
	case dx < -c.settings.SwipeThreshold:
		c.Next()
	case dx > c.settings.SwipeThreshold:
		c.Back()
	default:
		return before, false
	}
	after := c.Position()
	return after, after.Section != before.Section
}

// Validate recomputes the cached verdict for every section.
func (c *Controller) Validate() map[models.SurveySection]models.SectionValidation {
	c.deps.Store.RecomputeThresholds()
	all := validation.All(c.deps.Store.Snapshot())
	c.deps.Store.SetValidationMap(all)
	return all
}
