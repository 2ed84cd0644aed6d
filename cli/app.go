// ABOUTME: Shared wiring for CLI commands
// ABOUTME: Opens the remote store, photo storage and a wizard session around the active draft
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/markahope-aag/hazardos-sub000/charm"
	"github.com/markahope-aag/hazardos-sub000/config"
	"github.com/markahope-aag/hazardos-sub000/connectivity"
	"github.com/markahope-aag/hazardos-sub000/db"
	"github.com/markahope-aag/hazardos-sub000/draft"
	"github.com/markahope-aag/hazardos-sub000/metrics"
	"github.com/markahope-aag/hazardos-sub000/models"
	"github.com/markahope-aag/hazardos-sub000/remote"
	"github.com/markahope-aag/hazardos-sub000/storage"
	"github.com/markahope-aag/hazardos-sub000/uploads"
	"github.com/markahope-aag/hazardos-sub000/wizard"
)

// ErrNoActiveDraft is returned by commands that need a draft when none is selected.
var ErrNoActiveDraft = errors.New("no active survey; run 'hazardos survey new' first")

// errNoStorage is what queued uploads fail with when no bucket is configured.
var errNoStorage = errors.New("photo storage is not configured")

type noStorage struct{}

func (noStorage) Upload(context.Context, string, models.PhotoRecord) (string, error) {
	return "", errNoStorage
}

// App carries the local stores opened for one invocation.
type App struct {
	Config   *config.Config
	DB       *sql.DB
	Cache    *charm.Client
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Out      io.Writer

	// OpenRemote and OpenTransfer are swapped out in tests.
	OpenRemote   func(ctx context.Context) (remote.Store, error)
	OpenTransfer func(ctx context.Context) (uploads.Transferer, error)
	Probe        connectivity.ProbeFunc
}

// NewApp registers the engine metrics on a private registry served by the sync daemon.
func NewApp(cfg *config.Config, database *sql.DB, cache *charm.Client) *App {
	reg := prometheus.NewRegistry()
	a := &App{
		Config:   cfg,
		DB:       database,
		Cache:    cache,
		Metrics:  metrics.New(reg),
		Registry: reg,
		Out:      os.Stdout,
	}
	a.OpenRemote = func(ctx context.Context) (remote.Store, error) {
		return remote.Open(ctx, cfg.Remote)
	}
	a.OpenTransfer = func(ctx context.Context) (uploads.Transferer, error) {
		if cfg.Storage.Bucket == "" {
			return noStorage{}, nil
		}
		return storage.NewS3Transferer(ctx, cfg.Storage)
	}
	if cfg.HealthURL != "" {
		a.Probe = connectivity.HTTPProbe(nil, cfg.HealthURL)
	}
	return a
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.Out, format, args...)
}

// Session is a wizard controller bound to the app's stores.
type Session struct {
	Ctrl    *wizard.Controller
	Queue   *uploads.Queue
	Monitor *connectivity.Monitor
	Sync    *db.SyncStateStore
}

// Close waits for background uploads and stops the queue.
func (s *Session) Close() {
	s.Ctrl.Wait()
	s.Queue.Close()
}

// Open builds a session and resumes the active draft when there is one.
func (a *App) Open(ctx context.Context, opts ...wizard.Option) (*Session, error) {
	rs, err := a.OpenRemote(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote store: %w", err)
	}
	transfer, err := a.OpenTransfer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open photo storage: %w", err)
	}

	queue := uploads.New(transfer, a.Config.Upload,
		uploads.WithStore(db.NewUploadQueueStore(a.DB)),
		uploads.WithMetrics(a.Metrics))
	if err := queue.Restore(ctx); err != nil {
		queue.Close()
		return nil, fmt.Errorf("failed to restore upload queue: %w", err)
	}

	monOpts := []connectivity.Option{connectivity.WithMetrics(a.Metrics)}
	if a.Probe != nil {
		monOpts = append(monOpts, connectivity.WithProbe(a.Probe, a.Config.ProbeInterval))
	}
	monitor := connectivity.NewMonitor(true, monOpts...)
	monitor.Check(ctx)

	syncStates := db.NewSyncStateStore(a.DB)
	opts = append([]wizard.Option{wizard.WithMetrics(a.Metrics)}, opts...)
	ctrl := wizard.New(wizard.Deps{
		Store:  draft.New(),
		Cache:  a.Cache,
		Queue:  queue,
		Remote: rs,
		Signal: monitor,
		Sync:   syncStates,
	}, wizard.SettingsFrom(a.Config), opts...)

	s := &Session{Ctrl: ctrl, Queue: queue, Monitor: monitor, Sync: syncStates}

	active, err := a.Cache.ActiveDraft()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to read active draft: %w", err)
	}
	if active != "" {
		if err := ctrl.Resume(ctx, active); err != nil && !errors.Is(err, charm.ErrNotFound) {
			s.Close()
			return nil, fmt.Errorf("failed to resume draft %s: %w", active, err)
		}
	}
	return s, nil
}

// OpenActive is Open for commands that edit the current draft.
func (a *App) OpenActive(ctx context.Context) (*Session, error) {
	s, err := a.Open(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := s.Ctrl.Store().SurveyID(); !ok {
		s.Close()
		return nil, ErrNoActiveDraft
	}
	return s, nil
}
