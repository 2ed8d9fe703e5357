package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dlemos/promopost/internal/ingest"
	"github.com/dlemos/promopost/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the URL worklist and generate one image per product",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		loader := ingest.NewLoader(a.logger)
		entries, err := loader.Load(a.cfg.Paths.InputCSV)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			a.logger.Info("worklist is empty, nothing to do", "file", a.cfg.Paths.InputCSV)
			return nil
		}

		p := pipeline.New(
			a.scraper,
			a.compositor,
			a.store,
			a.cfg.Paths.ImagesDir,
			a.cfg.Paths.TempDir,
			a.cfg.Scraper.ScrapeDelay,
			a.logger,
		)

		result, err := p.Run(ctx, entries)
		if err != nil {
			return err
		}

		fmt.Printf("Processed %d products: %d successful, %d failed, %d skipped\n",
			result.Total(), result.Successful, result.Failed, result.Skipped)
		return nil
	},
}
