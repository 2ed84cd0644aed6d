// ABOUTME: Section view for the survey wizard
// ABOUTME: Renders tabs, the status banner, and each section's body
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markahope-aag/hazardos-sub000/draft"
	"github.com/markahope-aag/hazardos-sub000/hazards"
	"github.com/markahope-aag/hazardos-sub000/models"
)

var hazardKeys = []struct {
	key  string
	kind models.HazardType
}{
	{"a", models.HazardAsbestos},
	{"m", models.HazardMold},
	{"l", models.HazardLead},
	{"o", models.HazardOther},
}

func (m Model) renderSectionView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("HAZARDOS SITE SURVEY"))
	s.WriteString("\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")
	s.WriteString(m.renderBanner())
	s.WriteString("\n")

	switch m.status.Section {
	case models.SectionHazards:
		s.WriteString(m.renderHazards())
	case models.SectionPhotos:
		s.WriteString(m.renderPhotos())
	case models.SectionReview:
		s.WriteString(m.renderReview())
	default:
		s.WriteString(m.renderFields())
	}

	if v, ok := m.deps.Ctrl.Store().Validation()[m.status.Section]; ok && !v.IsValid {
		s.WriteString("\n")
		for _, e := range v.Errors {
			s.WriteString(errorStyle.Render("  ✗ " + e))
			s.WriteString("\n")
		}
	}
	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	} else if m.message != "" {
		s.WriteString("\n")
		s.WriteString(messageStyle.Render(m.message))
		s.WriteString("\n")
	}

	s.WriteString(m.renderSectionHelp())
	return s.String()
}

func (m Model) renderTabs() string {
	validity := m.deps.Ctrl.Store().Validation()
	rendered := make([]string, 0, len(models.SectionOrder))
	for _, section := range models.SectionOrder {
		label := section.Title()
		if v, ok := validity[section]; ok {
			if v.IsValid {
				label += " ✓"
			} else {
				label += " ✗"
			}
		}
		if section == m.status.Section {
			rendered = append(rendered, tabActiveStyle.Render(label))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderBanner() string {
	st := m.status
	var parts []string
	if st.Online {
		parts = append(parts, okStyle.Render("● online"))
	} else {
		parts = append(parts, warnStyle.Render("○ offline"))
	}
	parts = append(parts, fmt.Sprintf("%d of %d", st.Position.Index+1, st.Position.Total))
	switch {
	case st.Dirty:
		parts = append(parts, "unsaved changes")
	case st.LastSavedAt != nil:
		parts = append(parts, "saved "+st.LastSavedAt.Local().Format("15:04:05"))
	}
	if st.PendingPhotos > 0 {
		parts = append(parts, fmt.Sprintf("%d photo(s) uploading", st.PendingPhotos))
	}
	if st.FailedPhotos > 0 {
		parts = append(parts, errorStyle.Render(fmt.Sprintf("%d photo(s) failed", st.FailedPhotos)))
	}
	if st.SubmitPending {
		parts = append(parts, warnStyle.Render("submit waiting for connection"))
	}
	line := strings.Join(parts, " • ")
	if st.SyncError != "" {
		line += "\n" + errorStyle.Render("Sync error: "+st.SyncError+" (e to dismiss)")
	}
	return line + "\n"
}

// editableFields lists the keys the current section edits as text.
func (m Model) editableFields() []draft.Field {
	section := m.status.Section
	switch section {
	case models.SectionPhotos:
		return nil
	case models.SectionHazards:
		if !m.deps.Ctrl.Store().Hazards().Has(models.HazardOther) {
			return nil
		}
		f, _ := draft.LookupField(section, "other_description")
		return []draft.Field{f}
	}
	return draft.Fields(section)
}

func (m Model) renderFields() string {
	var s strings.Builder
	values, _ := m.deps.Ctrl.Store().FieldValues(m.status.Section)
	for i, f := range m.editableFields() {
		line := labelStyle.Render(fieldLabel(f.Key)) + values[f.Key]
		if i == m.cursor {
			s.WriteString(selectedStyle.Render("> " + line))
		} else {
			s.WriteString("  " + line)
		}
		s.WriteString("\n")
	}
	return s.String()
}

func fieldLabel(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if i == 0 && w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func (m Model) renderHazards() string {
	var s strings.Builder
	h := m.deps.Ctrl.Store().Hazards()
	for _, hk := range hazardKeys {
		box := "[ ]"
		if h.Has(hk.kind) {
			box = "[x]"
		}
		s.WriteString(fmt.Sprintf("  %s %-10s (%s)\n", box, hk.kind, hk.key))
	}
	s.WriteString("\n")

	if h.Asbestos != nil {
		r := hazards.CalculateAsbestos(h.Asbestos.Materials)
		s.WriteString(fmt.Sprintf("  Asbestos: %d material(s), containment %d (%s), EPA notification %v\n",
			len(h.Asbestos.Materials), r.ContainmentLevel, r.ContainmentLevel, r.EPANotificationRequired))
	}
	if h.Mold != nil {
		hvac := h.Mold.HVACContaminated != nil && *h.Mold.HVACContaminated
		r := hazards.CalculateMold(h.Mold.AffectedAreas, hvac)
		s.WriteString(fmt.Sprintf("  Mold: %.0f sq ft, %s\n", r.TotalSqFt, r.SizeCategory))
	}
	if h.Lead != nil {
		r := hazards.CalculateLead(h.Lead.Components, m.deps.Ctrl.Store().Property().YearBuilt)
		s.WriteString(fmt.Sprintf("  Lead: %.0f sq ft work area, RRP rule %v\n", r.TotalWorkArea, r.RRPRuleApplies))
	}
	if h.Has(models.HazardOther) {
		s.WriteString("\n")
		s.WriteString(m.renderFields())
	}
	return s.String()
}

func (m Model) photoState(surveyID string, p models.PhotoRecord) string {
	if m.deps.Uploads != nil {
		if e, ok := m.deps.Uploads.Entry(surveyID, p.ID); ok {
			if e.LastError != "" {
				return string(e.State) + ": " + e.LastError
			}
			return string(e.State)
		}
	}
	if p.IsUploaded() {
		return "uploaded"
	}
	return "local"
}

func (m Model) renderPhotos() string {
	photos := m.deps.Ctrl.Store().Photos()
	if len(photos) == 0 {
		return messageStyle.Render("No photos yet. Add them with 'hazardos survey photo add'.") + "\n"
	}
	var s strings.Builder
	for i, p := range photos {
		line := fmt.Sprintf("%-9s %-24s %s", p.Category, p.Location, m.photoState(m.status.SurveyID, p))
		if i == m.cursor {
			s.WriteString(selectedStyle.Render("> " + line))
		} else {
			s.WriteString("  " + line)
		}
		s.WriteString("\n")
	}
	return s.String()
}

func (m Model) renderReview() string {
	var s strings.Builder
	validity := m.deps.Ctrl.Store().Validation()
	for _, section := range models.SectionOrder[:len(models.SectionOrder)-1] {
		v, checked := validity[section]
		switch {
		case !checked:
			s.WriteString("  · " + section.Title() + "\n")
		case v.IsValid:
			s.WriteString(okStyle.Render("  ✓ "+section.Title()) + "\n")
		default:
			s.WriteString(errorStyle.Render(fmt.Sprintf("  ✗ %s (%d issue(s))", section.Title(), len(v.Errors))) + "\n")
		}
	}
	s.WriteString("\n")
	s.WriteString(m.renderFields())
	return s.String()
}

func (m Model) renderSectionHelp() string {
	help := []string{"←/→: Section", "↑/↓: Select"}
	if len(m.editableFields()) > 0 {
		help = append(help, "Enter: Edit")
	}
	switch m.status.Section {
	case models.SectionHazards:
		help = append(help, "a/m/l/o: Toggle hazard")
	case models.SectionPhotos:
		help = append(help, "r: Retry", "x: Remove")
	case models.SectionReview:
		help = append(help, "v: Validate", "s: Submit")
	}
	help = append(help, "ctrl+s: Save", "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleSectionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctrl := m.deps.Ctrl
	m.err = nil

	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m.requestExit()
	case "right", "n", "tab":
		_, v := ctrl.Next()
		m.cursor = 0
		m.message = ""
		if !v.IsValid {
			m.message = fmt.Sprintf("%d issue(s) left on the previous section", len(v.Errors))
		}
		m.refresh()
		return m, nil
	case "left", "p", "shift+tab":
		ctrl.Back()
		m.cursor = 0
		m.message = ""
		m.refresh()
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < m.rowCount()-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		return m.startEdit()
	case "e":
		ctrl.DismissSyncError()
		m.refresh()
		return m, nil
	case "ctrl+s":
		if err := ctrl.Save(m.ctx); err != nil {
			m.err = err
		} else {
			m.message = "Saved"
		}
		m.refresh()
		return m, nil
	}

	switch m.status.Section {
	case models.SectionHazards:
		return m.handleHazardKeys(msg)
	case models.SectionPhotos:
		return m.handlePhotoKeys(msg)
	case models.SectionReview:
		return m.handleReviewKeys(msg)
	}
	return m, nil
}

func (m Model) rowCount() int {
	if m.status.Section == models.SectionPhotos {
		return len(m.deps.Ctrl.Store().Photos())
	}
	return len(m.editableFields())
}

func (m Model) handleHazardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	for _, hk := range hazardKeys {
		if msg.String() != hk.key {
			continue
		}
		if err := m.deps.Ctrl.Store().ToggleHazardType(hk.kind); err != nil {
			m.err = err
		}
		m.cursor = 0
		m.refresh()
	}
	return m, nil
}

func (m Model) handlePhotoKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	photos := m.deps.Ctrl.Store().Photos()
	if m.cursor >= len(photos) {
		return m, nil
	}
	p := photos[m.cursor]
	switch msg.String() {
	case "r":
		if err := m.deps.Ctrl.RetryPhoto(m.ctx, p.ID); err != nil {
			m.err = err
		} else {
			m.message = "Retrying upload"
		}
	case "x":
		if err := m.deps.Ctrl.RemovePhoto(m.ctx, p.ID); err != nil {
			m.err = err
		} else if m.cursor > 0 && m.cursor >= len(photos)-1 {
			m.cursor--
		}
	}
	m.refresh()
	return m, nil
}

func (m Model) handleReviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "v":
		all := m.deps.Ctrl.Validate()
		bad := 0
		for _, v := range all {
			if !v.IsValid {
				bad++
			}
		}
		if bad == 0 {
			m.message = "Ready to submit"
		} else {
			m.message = fmt.Sprintf("%d section(s) incomplete", bad)
		}
		return m, nil
	case "s":
		m.viewMode = ViewSubmitting
		m.message = ""
		return m, tea.Batch(m.spinner.Tick, m.submit())
	}
	return m, nil
}
