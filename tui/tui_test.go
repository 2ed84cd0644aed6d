// ABOUTME: Tests for the survey wizard terminal views
// ABOUTME: Drives the model with key and mouse messages against a real controller
package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markahope-aag/hazardos-sub000/charm"
	"github.com/markahope-aag/hazardos-sub000/config"
	"github.com/markahope-aag/hazardos-sub000/connectivity"
	"github.com/markahope-aag/hazardos-sub000/db"
	"github.com/markahope-aag/hazardos-sub000/draft"
	"github.com/markahope-aag/hazardos-sub000/models"
	"github.com/markahope-aag/hazardos-sub000/remote"
	"github.com/markahope-aag/hazardos-sub000/uploads"
	"github.com/markahope-aag/hazardos-sub000/wizard"
)

type nopTransfer struct{}

func (nopTransfer) Upload(_ context.Context, surveyID string, p models.PhotoRecord) (string, error) {
	return "https://cdn.test/" + surveyID + "/" + p.ID, nil
}

type testEnv struct {
	ctrl   *wizard.Controller
	cache  *charm.Client
	remote *remote.MemoryStore
	queue  *uploads.Queue
}

func setupModel(t *testing.T) (Model, *testEnv) {
	t.Helper()
	conn, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open test db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	cfg := config.Default()
	cfg.OrganizationID = "org-1"
	cfg.SubmitTimeout = time.Second

	env := &testEnv{
		cache:  charm.NewTestClient(t),
		remote: remote.NewMemoryStore(),
		queue:  uploads.New(nopTransfer{}, cfg.Upload),
	}
	t.Cleanup(env.queue.Close)
	env.ctrl = wizard.New(wizard.Deps{
		Store:  draft.New(),
		Cache:  env.cache,
		Queue:  env.queue,
		Remote: env.remote,
		Signal: connectivity.NewMonitor(true),
		Sync:   db.NewSyncStateStore(conn),
	}, wizard.SettingsFrom(cfg))
	t.Cleanup(env.ctrl.Wait)

	env.ctrl.NewSurvey("")
	if err := env.ctrl.Save(context.Background()); err != nil {
		t.Fatalf("Failed to save new survey: %v", err)
	}
	return NewModel(context.Background(), Deps{Ctrl: env.ctrl, Drafts: env.cache, Uploads: env.queue}), env
}

func press(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestSectionViewRendering(t *testing.T) {
	m, _ := setupModel(t)

	output := m.View()
	if output == "" {
		t.Fatal("Section view should not be empty")
	}
	for _, want := range []string{"HAZARDOS SITE SURVEY", "Property", "Review", "online", "1 of 6", "Address"} {
		if !strings.Contains(output, want) {
			t.Errorf("Section view should contain %q", want)
		}
	}
}

func TestNavigationKeys(t *testing.T) {
	m, env := setupModel(t)

	m, _ = press(t, m, "right")
	if got := env.ctrl.Position().Section; got != models.SectionAccess {
		t.Fatalf("Expected access after right, got %s", got)
	}
	if !strings.Contains(m.View(), "issue(s) left") {
		t.Error("Leaving an incomplete section should report its issues")
	}

	m, _ = press(t, m, "left")
	if got := env.ctrl.Position().Section; got != models.SectionProperty {
		t.Fatalf("Expected property after left, got %s", got)
	}

	m, _ = press(t, m, "left")
	if got := m.status.Position.Index; got != 0 {
		t.Errorf("Back on the first section should stay put, got index %d", got)
	}
}

func TestMouseSwipe(t *testing.T) {
	m, env := setupModel(t)

	next, _ := m.Update(tea.MouseMsg{X: 40, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	next, _ = next.Update(tea.MouseMsg{X: 38, Action: tea.MouseActionRelease})
	if got := env.ctrl.Position().Section; got != models.SectionProperty {
		t.Fatalf("A short drag should not move, got %s", got)
	}

	next, _ = next.Update(tea.MouseMsg{X: 40, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	next, _ = next.Update(tea.MouseMsg{X: 20, Action: tea.MouseActionRelease})
	if got := env.ctrl.Position().Section; got != models.SectionAccess {
		t.Fatalf("A leftward swipe should advance, got %s", got)
	}

	next, _ = next.Update(tea.MouseMsg{X: 10, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	_, _ = next.Update(tea.MouseMsg{X: 30, Action: tea.MouseActionRelease})
	if got := env.ctrl.Position().Section; got != models.SectionProperty {
		t.Fatalf("A rightward swipe should go back, got %s", got)
	}
}

func TestEditFieldPatchesDraft(t *testing.T) {
	m, env := setupModel(t)

	m, _ = press(t, m, "enter")
	if m.viewMode != ViewEdit {
		t.Fatalf("Enter should open the editor, got mode %d", m.viewMode)
	}
	m, _ = press(t, m, "12 Elm St")
	m, _ = press(t, m, "enter")
	if m.viewMode != ViewSection {
		t.Fatalf("Saving should return to the section, got mode %d", m.viewMode)
	}
	if got := env.ctrl.Store().Property().Address; got != "12 Elm St" {
		t.Errorf("Expected address to be patched, got %q", got)
	}
	if !strings.Contains(m.View(), "City is required") {
		t.Error("Editing should refresh the section's validation errors")
	}

	// year_built is the sixth property field
	for i := 0; i < 5; i++ {
		m, _ = press(t, m, "down")
	}
	m, _ = press(t, m, "enter")
	m, _ = press(t, m, "nineteen")
	m, _ = press(t, m, "enter")
	if m.viewMode != ViewEdit || m.err == nil {
		t.Fatal("A non-numeric year should keep the editor open with an error")
	}
	m, _ = press(t, m, "esc")
	if env.ctrl.Store().Property().YearBuilt != nil {
		t.Error("A rejected edit must leave the draft untouched")
	}
}

func TestHazardToggle(t *testing.T) {
	m, env := setupModel(t)
	if _, err := env.ctrl.JumpTo(models.SectionHazards); err != nil {
		t.Fatal(err)
	}
	m.refresh()

	m, _ = press(t, m, "a")
	m, _ = press(t, m, "o")
	h := env.ctrl.Store().Hazards()
	if !h.Has(models.HazardAsbestos) || !h.Has(models.HazardOther) {
		t.Fatalf("Expected asbestos and other selected, got %v", h.Types)
	}
	output := m.View()
	if !strings.Contains(output, "[x] asbestos") || !strings.Contains(output, "containment") {
		t.Error("Hazards view should show the selection and asbestos thresholds")
	}
	if !strings.Contains(output, "Other description") {
		t.Error("Selecting other should expose its description field")
	}

	_, _ = press(t, m, "a")
	if env.ctrl.Store().Hazards().Asbestos != nil {
		t.Error("Toggling asbestos off should drop its detail")
	}
}

func TestExitWithoutChangesQuits(t *testing.T) {
	m, _ := setupModel(t)

	_, cmd := press(t, m, "q")
	if !isQuit(cmd) {
		t.Error("A clean draft should exit immediately")
	}
}

func TestExitDialog(t *testing.T) {
	m, env := setupModel(t)
	env.ctrl.Store().SetNotes("changed")

	m, cmd := press(t, m, "q")
	if m.viewMode != ViewExit || cmd != nil {
		t.Fatalf("A dirty draft must ask before exiting, got mode %d", m.viewMode)
	}
	if !strings.Contains(m.View(), "Save and exit") {
		t.Error("Exit dialog should offer to save")
	}

	m, cmd = press(t, m, "c")
	next, cmd := m.Update(cmd())
	m = next.(Model)
	if m.viewMode != ViewSection || isQuit(cmd) {
		t.Fatal("Keep editing should return to the wizard")
	}

	m, _ = press(t, m, "q")
	m, cmd = press(t, m, "s")
	_, cmd = m.Update(cmd())
	if !isQuit(cmd) {
		t.Fatal("Save and exit should close the wizard")
	}
	id := m.status.SurveyID
	if _, err := env.cache.LoadDraft(id); err != nil {
		t.Errorf("Draft should be cached after save and exit: %v", err)
	}
	if env.ctrl.Store().IsDirty() {
		t.Error("Draft should be clean after save and exit")
	}
}

func TestSubmitIncompleteShowsResult(t *testing.T) {
	m, env := setupModel(t)
	if _, err := env.ctrl.JumpTo(models.SectionReview); err != nil {
		t.Fatal(err)
	}
	m.refresh()

	m, cmd := press(t, m, "s")
	if m.viewMode != ViewSubmitting || cmd == nil {
		t.Fatalf("Submit should start in the background, got mode %d", m.viewMode)
	}
	if !strings.Contains(m.View(), "SUBMITTING") {
		t.Error("Submitting view should say so")
	}

	next, _ := m.Update(m.submit()())
	m = next.(Model)
	if m.viewMode != ViewResult {
		t.Fatalf("Expected result view, got mode %d", m.viewMode)
	}
	output := m.View()
	if !strings.Contains(output, "NOT SUBMITTED") || !strings.Contains(output, "Property section is incomplete") {
		t.Errorf("Result should list incomplete sections, got:\n%s", output)
	}
	if env.remote.Len() != 0 {
		t.Error("Nothing should reach the remote store")
	}

	m, _ = press(t, m, "enter")
	if m.viewMode != ViewSection || env.ctrl.Position().Section != models.SectionProperty {
		t.Errorf("Enter should jump to the first incomplete section, got %s", env.ctrl.Position().Section)
	}
}
