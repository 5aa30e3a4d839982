package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"zmodels/internal/handler"
	"zmodels/internal/hub"
	"zmodels/internal/service"
	"zmodels/internal/watcher"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return a.serve(cmd.Context(), addr, watch)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the schema file when it changes")
	return cmd
}

func (a *app) serve(parent context.Context, addr string, watch bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sseHub := hub.New(a.log)
	go sseHub.Run(ctx)

	eventChan := make(chan service.Event, 100)
	defer a.events.Subscribe(eventChan)()
	go func() {
		for {
			select {
			case event := <-eventChan:
				sseHub.Broadcast(hub.Message{Event: string(event.Type), Model: event.Model, Data: event})
			case <-ctx.Done():
				return
			}
		}
	}()

	if watch {
		path := a.cfg.Schema.Path
		w := watcher.New(path, func() {
			if err := a.catalog.LoadFile(ctx, path); err != nil {
				a.log.Error().Err(err).Msg("schema reload failed, keeping previous schemas")
			}
		}, a.log)
		go func() {
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error().Err(err).Msg("schema watcher stopped")
			}
		}()
	}

	mux := http.NewServeMux()
	handler.NewModelHandler(a.catalog, a.db, a.log).Routes(mux, sseHub)

	// No write timeout: the event stream is long-lived
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.RequestLogger(a.log, mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", addr).Strs("models", a.catalog.Models()).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	a.log.Info().Msg("server stopped")
	return nil
}
