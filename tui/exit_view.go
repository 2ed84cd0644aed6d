// ABOUTME: Exit dialog view
// ABOUTME: Save, discard, or keep editing when the draft has unsaved changes
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markahope-aag/hazardos-sub000/wizard"
)

var exitChoices = []struct {
	choice wizard.ExitChoice
	label  string
	key    string
}{
	{wizard.SaveAndExit, "Save and exit", "s"},
	{wizard.DiscardAndExit, "Discard survey and exit", "d"},
	{wizard.ContinueEditing, "Keep editing", "c"},
}

type exitDoneMsg struct {
	choice wizard.ExitChoice
	closed bool
	err    error
}

func (m Model) requestExit() (tea.Model, tea.Cmd) {
	if m.deps.Ctrl.RequestExit() == wizard.ExitAllowed {
		return m, tea.Quit
	}
	m.viewMode = ViewExit
	m.exitCursor = 0
	return m, nil
}

func (m Model) resolveExit(choice wizard.ExitChoice) tea.Cmd {
	ctrl, ctx := m.deps.Ctrl, m.ctx
	return func() tea.Msg {
		closed, err := ctrl.ResolveExit(ctx, choice)
		return exitDoneMsg{choice: choice, closed: closed, err: err}
	}
}

func (m Model) renderExitView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("UNSAVED CHANGES"))
	s.WriteString("\n\n")
	s.WriteString("This survey has changes that are not saved yet.\n\n")

	for i, c := range exitChoices {
		line := c.label + " (" + c.key + ")"
		if i == m.exitCursor {
			s.WriteString(selectedStyle.Render("> " + line))
		} else {
			s.WriteString("  " + line)
		}
		s.WriteString("\n")
	}
	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("↑/↓: Select • Enter: Confirm • Esc: Keep editing"))
	return s.String()
}

func (m Model) handleExitKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewSection
		return m, nil
	case "up", "k":
		if m.exitCursor > 0 {
			m.exitCursor--
		}
		return m, nil
	case "down", "j":
		if m.exitCursor < len(exitChoices)-1 {
			m.exitCursor++
		}
		return m, nil
	case "enter":
		return m, m.resolveExit(exitChoices[m.exitCursor].choice)
	}
	for _, c := range exitChoices {
		if msg.String() == c.key {
			return m, m.resolveExit(c.choice)
		}
	}
	return m, nil
}

func (m Model) handleExitDone(msg exitDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}
	if msg.closed {
		return m, tea.Quit
	}
	m.err = nil
	m.viewMode = ViewSection
	m.refresh()
	return m, nil
}
