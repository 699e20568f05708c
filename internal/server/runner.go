package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reeler/reeler/internal/download"
)

// Config for the runner.
type Config struct {
	ListenAddr   string
	PollInterval time.Duration
}

// Runner owns the HTTP server and the status poller and ties their
// lifetimes together: either one failing tears both down.
type Runner struct {
	cfg       Config
	api       *API
	pipeline  *Pipeline
	downloads *download.Manager
	log       *slog.Logger
}

// NewRunner creates a runner.
func NewRunner(cfg Config, api *API, pipeline *Pipeline, downloads *download.Manager, log *slog.Logger) *Runner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	return &Runner{
		cfg:       cfg,
		api:       api,
		pipeline:  pipeline,
		downloads: downloads,
		log:       log.With("component", "runner"),
	}
}

// Run blocks until the context is canceled or a component fails.
func (r *Runner) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	r.api.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              r.cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.log.Info("http server listening", "addr", r.cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return r.pollLoop(ctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// pollLoop periodically syncs download statuses from the torrent engine
// and pushes freshly completed downloads into the pipeline. One pass
// runs immediately on startup so downloads that completed while the
// daemon was down are picked up without waiting a full interval.
func (r *Runner) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	r.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.pollOnce(ctx)
		}
	}
}

func (r *Runner) pollOnce(ctx context.Context) {
	if _, err := r.downloads.Refresh(ctx); err != nil {
		r.log.Error("refresh failed", "error", err)
	}

	// Process everything sitting in completed, including downloads left
	// there by a previous run (validation kept failing, or the daemon
	// restarted mid-pipeline).
	status := download.StatusCompleted
	completed, err := r.downloads.Store().List(download.Filter{Status: &status})
	if err != nil {
		r.log.Error("list completed failed", "error", err)
		return
	}
	for _, d := range completed {
		r.pipeline.ProcessCompleted(ctx, d)
	}
}
