// ABOUTME: Field editor view
// ABOUTME: Edits one section field through a merge patch
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markahope-aag/hazardos-sub000/draft"
	"github.com/markahope-aag/hazardos-sub000/validation"
)

func (m Model) startEdit() (tea.Model, tea.Cmd) {
	fields := m.editableFields()
	if m.cursor >= len(fields) {
		return m, nil
	}
	f := fields[m.cursor]
	values, err := m.deps.Ctrl.Store().FieldValues(m.status.Section)
	if err != nil {
		m.err = err
		return m, nil
	}

	m.editKey = f.Key
	m.input.Reset()
	m.input.Placeholder = fieldLabel(f.Key)
	m.input.SetValue(values[f.Key])
	m.input.CursorEnd()
	m.viewMode = ViewEdit
	return m, m.input.Focus()
}

func (m Model) renderEditView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("EDIT " + strings.ToUpper(m.status.Section.Title())))
	s.WriteString("\n\n")
	s.WriteString(labelStyle.Render(fieldLabel(m.editKey)))
	s.WriteString("\n")
	s.WriteString(m.input.View())
	s.WriteString("\n")

	if f, ok := draft.LookupField(m.status.Section, m.editKey); ok && f.Nullable {
		s.WriteString(messageStyle.Render("Enter null to clear this field"))
		s.WriteString("\n")
	}
	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	}

	help := []string{"Enter: Save", "Esc: Cancel"}
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return s.String()
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.err = nil
		m.viewMode = ViewSection
		return m, nil
	case "enter":
		if err := m.applyEdit(); err != nil {
			m.err = err
			return m, nil
		}
		m.input.Blur()
		m.err = nil
		m.viewMode = ViewSection
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) applyEdit() error {
	section := m.status.Section
	patch, err := draft.FieldPatch(section, map[string]string{m.editKey: m.input.Value()})
	if err != nil {
		return err
	}
	store := m.deps.Ctrl.Store()
	if err := store.PatchSection(section, patch); err != nil {
		return err
	}
	store.SetValidation(section, validation.Section(store.Snapshot(), section))
	return nil
}
