// ABOUTME: Sync subcommands for the remote backend and background catch-up
// ABOUTME: Manual sync, status report, client-credentials login and the sync daemon
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/markahope-aag/hazardos-sub000/charm"
	"github.com/markahope-aag/hazardos-sub000/config"
	"github.com/markahope-aag/hazardos-sub000/db"
	"github.com/markahope-aag/hazardos-sub000/logging"
	"github.com/markahope-aag/hazardos-sub000/models"
	"github.com/markahope-aag/hazardos-sub000/remote"
	"github.com/markahope-aag/hazardos-sub000/web"
	"github.com/markahope-aag/hazardos-sub000/wizard"
)

// MinDaemonInterval is the shortest catch-up interval the daemon accepts.
const MinDaemonInterval = 30 * time.Second

// uploadedRetention is how long finished queue rows are kept for status reports.
const uploadedRetention = 24 * time.Hour

// SyncNowCommand uploads waiting photos, pushes stale drafts, completes deferred
// submits and syncs the draft cache.
func SyncNowCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("sync now", flag.ExitOnError)
	_ = fs.Parse(args)

	ctx := context.Background()
	var submitted *wizard.SubmitResult
	s, err := app.Open(ctx, wizard.WithSubmitHook(func(res wizard.SubmitResult) {
		submitted = &res
	}))
	if err != nil {
		return err
	}
	defer s.Close()

	if !s.Monitor.Online() {
		app.printf("Offline: nothing was sent. Changes stay queued on this device.\n")
	} else {
		app.printf("Syncing...\n")
		s.Ctrl.Flush(ctx)
		s.Ctrl.Wait()
		if submitted != nil {
			printSubmitResult(app, *submitted)
		} else if msg := s.Ctrl.SyncError(); msg != "" {
			app.printf("✗ %s\n", msg)
		} else {
			app.printf("✓ Remote copy up to date\n")
		}
	}

	if err := app.Cache.Sync(); err != nil {
		app.printf("! Draft cache sync failed: %v\n", err)
	} else {
		app.printf("✓ Draft cache synced\n")
	}
	return nil
}

// SyncStatusCommand prints backend settings, per-survey sync state and recent activity.
func SyncStatusCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("sync status", flag.ExitOnError)
	limit := fs.Int("log", 10, "Number of recent sync log entries to show")
	_ = fs.Parse(args)

	ctx := context.Background()
	cfg := app.Config

	app.printf("Remote\n")
	app.printf("  Driver:        %s\n", cfg.Remote.Driver)
	if cfg.Remote.BaseURL != "" {
		app.printf("  Base URL:      %s\n", cfg.Remote.BaseURL)
	}
	if cfg.Remote.Driver == config.DriverREST && cfg.Remote.TokenURL != "" {
		if tok, err := remote.LoadToken(remote.TokenPath()); err != nil {
			app.printf("  Token:         none (run 'hazardos sync login')\n")
		} else {
			app.printf("  Token expires: %s\n", tok.Expiry.Local().Format(time.RFC3339))
		}
	}
	if cfg.OrganizationID != "" {
		app.printf("  Organization:  %s\n", cfg.OrganizationID)
	}
	if app.Probe != nil {
		state := "offline"
		if app.Probe(ctx) {
			state = "online"
		}
		app.printf("  Network:       %s\n", state)
	}
	if cfg.Storage.Bucket != "" {
		app.printf("  Photo bucket:  %s\n", cfg.Storage.Bucket)
	} else {
		app.printf("  Photo bucket:  not configured\n")
	}

	states, err := db.NewSyncStateStore(app.DB).All(ctx)
	if err != nil {
		return err
	}
	uploadStore := db.NewUploadQueueStore(app.DB)
	app.printf("\nSurveys\n")
	if len(states) == 0 {
		app.printf("  (none)\n")
	}
	for _, st := range states {
		counts, err := uploadStore.CountByState(ctx, st.SurveyID)
		if err != nil {
			return err
		}
		flags := []string{}
		if st.SubmitPending {
			flags = append(flags, "submit pending")
		}
		if st.RemoteStale {
			flags = append(flags, "remote stale")
		}
		last := "never"
		if st.LastSyncTime != nil {
			last = st.LastSyncTime.Local().Format("2006-01-02 15:04")
		}
		app.printf("  %s  %-14s last sync %s  photos %d/%d/%d (pending/uploaded/failed)",
			st.SurveyID, st.Status, last,
			counts[models.UploadPending]+counts[models.UploadUploading],
			counts[models.UploadUploaded], counts[models.UploadFailed])
		if len(flags) > 0 {
			app.printf("  [%s]", strings.Join(flags, ", "))
		}
		app.printf("\n")
		if st.ErrorMessage != nil {
			app.printf("      error: %s\n", *st.ErrorMessage)
		}
	}

	entries, err := db.NewSyncStateStore(app.DB).RecentLog(ctx, *limit)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		app.printf("\nRecent activity\n")
		for _, e := range entries {
			app.printf("  %s  %-7s %s %s\n", e.OccurredAt.Local().Format("2006-01-02 15:04:05"), e.Action, e.SurveyID, e.Metadata)
		}
	}

	app.printf("\n")
	return charm.StatusCommand(app.Cache, app.Out, nil)
}

// readSecret reads a secret without echo when stdin is a terminal, or one line otherwise.
func readSecret(in *os.File, out io.Writer, prompt string) (string, error) {
	_, _ = fmt.Fprint(out, prompt)
	if term.IsTerminal(int(in.Fd())) {
		b, err := term.ReadPassword(int(in.Fd()))
		_, _ = fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// SyncLoginCommand stores REST backend credentials and verifies them by fetching a token.
func SyncLoginCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("sync login", flag.ExitOnError)
	baseURL := fs.String("base-url", app.Config.Remote.BaseURL, "Survey API base URL")
	tokenURL := fs.String("token-url", app.Config.Remote.TokenURL, "OAuth2 token endpoint")
	clientID := fs.String("client-id", app.Config.Remote.ClientID, "OAuth2 client ID")
	org := fs.String("org", app.Config.OrganizationID, "Organization ID surveys are filed under")
	_ = fs.Parse(args)

	if *baseURL == "" || *tokenURL == "" || *clientID == "" {
		return errors.New("--base-url, --token-url and --client-id are required")
	}

	secret, err := readSecret(os.Stdin, app.Out, "Client secret: ")
	if err != nil {
		return fmt.Errorf("failed to read client secret: %w", err)
	}
	if secret == "" {
		return errors.New("client secret is required")
	}

	cc := &clientcredentials.Config{ClientID: *clientID, ClientSecret: secret, TokenURL: *tokenURL}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	tok, err := cc.Token(ctx)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	if err := remote.SaveToken(remote.TokenPath(), tok); err != nil {
		return err
	}

	cfg := app.Config
	cfg.Remote.Driver = config.DriverREST
	cfg.Remote.BaseURL = *baseURL
	cfg.Remote.TokenURL = *tokenURL
	cfg.Remote.ClientID = *clientID
	cfg.Remote.ClientSecret = secret
	cfg.OrganizationID = *org
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	app.printf("✓ Authentication successful\n")
	app.printf("✓ Token expires: %s\n", tok.Expiry.Local().Format(time.RFC3339))
	app.printf("✓ Configuration saved to %s\n", config.Path())
	return nil
}

// parseDaemonInterval parses the daemon catch-up interval and enforces the minimum.
func parseDaemonInterval(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", s, err)
	}
	if d < MinDaemonInterval {
		return 0, fmt.Errorf("interval must be at least %s", MinDaemonInterval)
	}
	return d, nil
}

// SyncDaemonCommand keeps the active draft autosaved, uploads photos as the
// connection allows and serves metrics until interrupted.
func SyncDaemonCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("sync daemon", flag.ExitOnError)
	intervalStr := fs.String("interval", "5m", "Catch-up sync interval (minimum 30s)")
	httpAddr := fs.String("http-addr", "", "Serve the status dashboard and metrics on this address (e.g. :8080)")
	_ = fs.Parse(args)

	interval, err := parseDaemonInterval(*intervalStr)
	if err != nil {
		return err
	}

	log := logging.For("daemon")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := app.Open(ctx, wizard.WithSubmitHook(func(res wizard.SubmitResult) {
		log.WithField("outcome", res.Outcome.String()).WithField("survey_id", res.SurveyID).Info(res.Message)
	}))
	if err != nil {
		return err
	}
	defer s.Close()

	log.WithField("interval", interval).Info("sync daemon started")
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.Monitor.Run(gctx)
		return nil
	})
	g.Go(func() error {
		if err := s.Ctrl.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		uploads := db.NewUploadQueueStore(app.DB)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s.Monitor.SyncNow()
				if err := app.Cache.Sync(); err != nil {
					log.WithError(err).Warn("draft cache sync failed")
				}
				if n, err := uploads.PruneUploaded(gctx, time.Now().Add(-uploadedRetention)); err != nil {
					log.WithError(err).Warn("failed to prune upload queue")
				} else if n > 0 {
					log.WithField("rows", n).Debug("pruned uploaded queue entries")
				}
			}
		}
	})

	if *httpAddr != "" {
		status, err := web.NewServer(app.DB, app.Registry, web.WithLiveStatus(s.Ctrl.Status))
		if err != nil {
			return err
		}
		srv := &http.Server{
			Addr:              *httpAddr,
			Handler:           status.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.WithField("addr", *httpAddr).Info("serving status dashboard")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	log.Info("sync daemon stopped")
	return err
}
