// ABOUTME: Terminal front end for the survey wizard
// ABOUTME: Wraps a wizard.Controller with section views, a status banner, and the exit dialog
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markahope-aag/hazardos-sub000/models"
	"github.com/markahope-aag/hazardos-sub000/wizard"
)

type ViewMode int

const (
	ViewSection ViewMode = iota
	ViewEdit
	ViewExit
	ViewSubmitting
	ViewResult
)

// ActiveDrafts records which draft the CLI commands operate on.
type ActiveDrafts interface {
	SetActiveDraft(surveyID string) error
}

// UploadStates reports the queue entry for a photo, if it has one.
type UploadStates interface {
	Entry(surveyID, photoID string) (models.UploadEntry, bool)
}

type Deps struct {
	Ctrl    *wizard.Controller
	Drafts  ActiveDrafts
	Uploads UploadStates
}

type Model struct {
	ctx  context.Context
	deps Deps

	viewMode   ViewMode
	cursor     int
	exitCursor int
	input      textinput.Model
	editKey    string
	spinner    spinner.Model

	dragStart int
	dragging  bool

	status  wizard.Status
	result  *wizard.SubmitResult
	message string
	err     error

	width  int
	height int
}

func NewModel(ctx context.Context, deps Deps) Model {
	ti := textinput.New()
	ti.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	m := Model{
		ctx:      ctx,
		deps:     deps,
		viewMode: ViewSection,
		input:    ti,
		spinner:  sp,
	}
	m.refresh()
	return m
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) refresh() {
	m.status = m.deps.Ctrl.Status()
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		m.refresh()
		return m, tick()
	case spinner.TickMsg:
		if m.viewMode != ViewSubmitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case submitDoneMsg:
		return m.handleSubmitDone(msg)
	case exitDoneMsg:
		return m.handleExitDone(msg)
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewSection:
		return m.renderSectionView()
	case ViewEdit:
		return m.renderEditView()
	case ViewExit:
		return m.renderExitView()
	case ViewSubmitting:
		return m.renderSubmittingView()
	case ViewResult:
		return m.renderResultView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.viewMode {
	case ViewSection:
		return m.handleSectionKeys(msg)
	case ViewEdit:
		return m.handleEditKeys(msg)
	case ViewExit:
		return m.handleExitKeys(msg)
	case ViewSubmitting:
		// The submit protocol owns the draft until it reports back.
		return m, nil
	case ViewResult:
		return m.handleResultKeys(msg)
	}
	return m, nil
}

// cellWidth converts terminal columns into the pixel distance swipes are measured in.
const cellWidth = 8

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.viewMode != ViewSection {
		return m, nil
	}
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		m.dragStart = msg.X
		m.dragging = true
	case tea.MouseActionRelease:
		if !m.dragging {
			return m, nil
		}
		m.dragging = false
		dx := float64((msg.X - m.dragStart) * cellWidth)
		if _, moved := m.deps.Ctrl.Swipe(dx); moved {
			m.cursor = 0
			m.message = ""
			m.refresh()
		}
	}
	return m, nil
}

// Run drives the wizard in the terminal until the user leaves it.
func Run(ctx context.Context, deps Deps) error {
	p := tea.NewProgram(NewModel(ctx, deps),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Width(26)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)
