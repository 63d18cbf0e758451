package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/qualify/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the qualification session API",
		Long: `Serve qualification sessions over HTTP under /api, with Prometheus
metrics on /metrics.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default 127.0.0.1:8080)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	if rt.backend == nil {
		slog.Warn("No qualification service configured; only replays will work")
	}

	h, err := server.New(server.Config{
		Logger:     slog.Default(),
		Gatherer:   rt.registry,
		Events:     rt.journal,
		NewSession: rt.newSession,
	})
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	h.Register(r)

	srv := &http.Server{
		Addr:              rt.cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: rt.cfg.ReadHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Serving session API", "addr", rt.cfg.ServerAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}
