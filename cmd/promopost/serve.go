package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dlemos/promopost/internal/ingest"
	"github.com/dlemos/promopost/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web interface",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		handlers := server.NewHandlers(
			a.scraper,
			a.compositor,
			a.store,
			ingest.NewLoader(a.logger),
			a.cfg.Paths.InputCSV,
			a.cfg.Paths.ImagesDir,
			a.cfg.Paths.TempDir,
			a.logger,
		)

		srv := server.New(server.Config{
			Host:         a.cfg.Server.Host,
			Port:         a.cfg.Server.Port,
			ReadTimeout:  a.cfg.Server.ReadTimeout,
			WriteTimeout: a.cfg.Server.WriteTimeout,
		}, handlers, a.logger)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
