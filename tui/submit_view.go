// ABOUTME: Submit progress and result views
// ABOUTME: Shows why a submit stopped and offers to jump to the problem
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markahope-aag/hazardos-sub000/models"
	"github.com/markahope-aag/hazardos-sub000/wizard"
)

type submitDoneMsg struct {
	result wizard.SubmitResult
}

func (m Model) submit() tea.Cmd {
	ctrl, ctx := m.deps.Ctrl, m.ctx
	return func() tea.Msg {
		return submitDoneMsg{result: ctrl.Submit(ctx)}
	}
}

func (m Model) handleSubmitDone(msg submitDoneMsg) (tea.Model, tea.Cmd) {
	res := msg.result
	m.result = &res
	m.viewMode = ViewResult
	m.refresh()
	return m, nil
}

func (m Model) renderSubmittingView() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("SUBMITTING SURVEY"))
	s.WriteString("\n\n")
	s.WriteString(m.spinner.View())
	s.WriteString(" Uploading photos and sending the survey...\n")
	return s.String()
}

func (m Model) renderResultView() string {
	var s strings.Builder
	res := m.result

	if res.OK() {
		s.WriteString(titleStyle.Render("SURVEY SENT"))
		s.WriteString("\n\n")
		s.WriteString(okStyle.Render("✓ " + res.Message))
	} else {
		s.WriteString(titleStyle.Render("NOT SUBMITTED"))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render("✗ " + res.Message))
	}
	s.WriteString("\n")
	if res.SurveyID != "" {
		s.WriteString("  Survey: " + res.SurveyID + "\n")
	}
	for _, section := range res.InvalidSections {
		s.WriteString(fmt.Sprintf("  - %s section is incomplete\n", section.Title()))
	}
	if res.FailedPhotos > 0 {
		s.WriteString(fmt.Sprintf("  Failed photos:  %d\n", res.FailedPhotos))
	}
	if res.PendingPhotos > 0 {
		s.WriteString(fmt.Sprintf("  Pending photos: %d\n", res.PendingPhotos))
	}

	var help []string
	switch res.Outcome {
	case wizard.OutcomeSubmitted:
		help = []string{"n: New survey", "q: Quit"}
	case wizard.OutcomeSavedOffline:
		help = []string{"q: Quit"}
	default:
		help = []string{"Enter: Back to survey", "q: Quit"}
	}
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return s.String()
}

func (m Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	res := m.result
	switch msg.String() {
	case "q", "ctrl+c":
		if res.OK() {
			return m, tea.Quit
		}
		m.viewMode = ViewSection
		return m.requestExit()
	case "n":
		if res.Outcome != wizard.OutcomeSubmitted {
			return m, nil
		}
		return m.startNewSurvey()
	case "enter", "esc":
		if res.OK() {
			return m, nil
		}
		m.viewMode = ViewSection
		m.cursor = 0
		m.jumpToProblem(*res)
		m.refresh()
		return m, nil
	}
	return m, nil
}

// jumpToProblem moves the wizard to the first place the user can fix a failed submit.
func (m Model) jumpToProblem(res wizard.SubmitResult) {
	switch {
	case len(res.InvalidSections) > 0:
		_, _ = m.deps.Ctrl.JumpTo(res.InvalidSections[0])
	case res.FailedPhotos > 0 || res.PendingPhotos > 0:
		_, _ = m.deps.Ctrl.JumpTo(models.SectionPhotos)
	}
}

func (m Model) startNewSurvey() (tea.Model, tea.Cmd) {
	id := m.deps.Ctrl.NewSurvey("")
	if err := m.deps.Ctrl.Save(m.ctx); err != nil && m.deps.Ctrl.Store().IsDirty() {
		m.err = err
	}
	if m.deps.Drafts != nil {
		if err := m.deps.Drafts.SetActiveDraft(id); err != nil {
			m.err = err
		}
	}
	m.result = nil
	m.cursor = 0
	m.message = "Started survey " + id
	m.viewMode = ViewSection
	m.refresh()
	return m, nil
}
