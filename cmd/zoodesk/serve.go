package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/smileynet/zoodesk"
	"github.com/smileynet/zoodesk/internal/config"
	"github.com/smileynet/zoodesk/internal/logging"
	"github.com/smileynet/zoodesk/internal/server"
	"github.com/smileynet/zoodesk/internal/store"
	"github.com/smileynet/zoodesk/internal/zoo"
)

// shutdownTimeout bounds how long in-flight requests get on exit.
const shutdownTimeout = 10 * time.Second

// ServeCmd runs the services API over a chosen store.
type ServeCmd struct {
	Addr  string `help:"Listen address."`
	Store string `help:"Store backend: memory, file, sqlite or postgres."`
	DSN   string `help:"File path or connection string for the store."`
}

// Run executes the serve command.
func (s *ServeCmd) Run(g *Globals) error {
	cfg, err := g.load(s.override)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger := logging.New(cfg.LogOptions(os.Stderr))

	ctx, cancel := commandContext()
	defer cancel()

	schema := zoodesk.OverlayFS(".zoodesk/schema", zoodesk.Schema)
	repo, closeStore, err := store.Open(ctx, cfg.Server.Store, cfg.Server.DSN, schema)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("closing store", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.handler(cfg, repo, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("serving", "addr", cfg.Server.Addr, "store", cfg.Server.Store, "metrics", cfg.Server.Metrics)
	return serve(ctx, srv)
}

// override applies flag values on top of the loaded config.
func (s *ServeCmd) override(cfg *config.Config) {
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}
	if s.Store != "" {
		cfg.Server.Store = s.Store
	}
	if s.DSN != "" {
		cfg.Server.DSN = s.DSN
	}
}

// handler builds the API handler for repo.
func (s *ServeCmd) handler(cfg *config.Config, repo zoo.Repository, logger *slog.Logger) http.Handler {
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithToken(cfg.Server.Token),
	}
	if cfg.Server.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, server.WithMetrics(reg))
	}
	return server.New(repo, opts...)
}

// serve runs srv until ctx is cancelled, then drains it.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("serve: shutdown: %w", err)
	}
	return nil
}
