package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/qualify/internal/backend"
	"github.com/Veraticus/qualify/internal/config"
	"github.com/Veraticus/qualify/internal/export"
	"github.com/Veraticus/qualify/internal/metrics"
	"github.com/Veraticus/qualify/internal/qualification"
	"github.com/Veraticus/qualify/internal/storage"
)

// appRuntime bundles what every command needs to build sessions.
type appRuntime struct {
	cfg      *config.Config
	journal  *storage.SQLiteStorage
	backend  *backend.Client
	renderer *export.Renderer
	metrics  *metrics.Metrics
	registry *prometheus.Registry
}

// newRuntime loads configuration and opens the journal. A missing service
// URL is only an error once something is submitted.
func newRuntime(ctx context.Context) (*appRuntime, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	journal, err := storage.Open(ctx, cfg.JournalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	reg := prometheus.NewRegistry()
	rt := &appRuntime{
		cfg:      cfg,
		journal:  journal,
		renderer: export.NewRenderer(cfg.PDFTimeout),
		metrics:  metrics.New(reg),
		registry: reg,
	}

	if cfg.BackendURL != "" {
		client, err := backend.NewClient(cfg.Backend())
		if err != nil {
			_ = journal.Close()
			return nil, err
		}
		rt.backend = client
	}
	return rt, nil
}

func (rt *appRuntime) newSession(ctx context.Context) (*qualification.Session, error) {
	deps := qualification.Deps{
		Journal:  rt.journal,
		Renderer: rt.renderer,
		Metrics:  rt.metrics,
	}
	// Assigned only when set so the interface stays nil without a client.
	if rt.backend != nil {
		deps.Backend = rt.backend
	}
	return qualification.New(ctx, deps)
}

func (rt *appRuntime) Close() error {
	return rt.journal.Close()
}

// startSession creates a session and optionally replays a saved response.
func (rt *appRuntime) startSession(ctx context.Context, replay string) (*qualification.Session, error) {
	s, err := rt.newSession(ctx)
	if err != nil {
		return nil, err
	}
	if replay == "" {
		return s, nil
	}

	body, err := os.ReadFile(replay) //nolint:gosec // path comes from the user
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to read %s: %w", replay, err)
	}
	if _, err := s.Ingest(ctx, body); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// applyOutputFlag lets a command's --output flag override export.dir.
func (rt *appRuntime) applyOutputFlag(cmd *cobra.Command) {
	if dir, err := cmd.Flags().GetString("output"); err == nil && dir != "" {
		rt.cfg.ExportDir = config.ExpandPath(dir)
	}
}
