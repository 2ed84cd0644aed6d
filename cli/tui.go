// ABOUTME: survey tui command
// ABOUTME: Runs the wizard UI next to the connectivity monitor and autosave loop
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/markahope-aag/hazardos-sub000/tui"
)

// TUICommand opens the interactive survey wizard on the active draft, starting
// a new one when none is active.
func TUICommand(app *App, args []string) error {
	fs := flag.NewFlagSet("survey tui", flag.ExitOnError)
	customer := fs.String("customer", "", "Customer ID for a new survey")
	_ = fs.Parse(args)

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("survey tui needs an interactive terminal")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := app.Open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, ok := s.Ctrl.Store().SurveyID(); !ok {
		id := s.Ctrl.NewSurvey(*customer)
		if err := s.Ctrl.Save(ctx); err != nil && s.Ctrl.Store().IsDirty() {
			return fmt.Errorf("failed to save new survey: %w", err)
		}
		if err := app.Cache.SetActiveDraft(id); err != nil {
			return fmt.Errorf("failed to set active survey: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	g.Go(func() error {
		s.Monitor.Run(runCtx)
		return nil
	})
	g.Go(func() error {
		if err := s.Ctrl.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	uiErr := tui.Run(runCtx, tui.Deps{Ctrl: s.Ctrl, Drafts: app.Cache, Uploads: s.Queue})
	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	return uiErr
}
