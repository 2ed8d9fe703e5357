// Package pipeline drives the batch: for each input URL, scrape, render and
// persist, strictly one item at a time.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dlemos/promopost/internal/ingest"
	"github.com/dlemos/promopost/internal/models"
)

// Scraper is the product-extraction side of the pipeline.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*models.Product, error)
}

// Compositor renders one image per job, reporting success as a bool.
type Compositor interface {
	Generate(ctx context.Context, job *models.RenderJob) bool
}

// Store is the persisted product index.
type Store interface {
	Has(url string) bool
	Upsert(product *models.Product) error
}

// Result tallies one run.
type Result struct {
	Successful int
	Failed     int
	Skipped    int
}

func (r Result) Total() int { return r.Successful + r.Failed + r.Skipped }

type Pipeline struct {
	scraper    Scraper
	compositor Compositor
	store      Store
	imagesDir  string
	tempDir    string
	delay      time.Duration
	logger     *slog.Logger
}

func New(scraper Scraper, compositor Compositor, store Store, imagesDir, tempDir string, delay time.Duration, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		scraper:    scraper,
		compositor: compositor,
		store:      store,
		imagesDir:  imagesDir,
		tempDir:    tempDir,
		delay:      delay,
		logger:     logger.With("component", "pipeline"),
	}
}

// Run processes the entries in order. Each item is independent: a failure is
// counted and the run continues. A fixed delay follows every non-last item
// that actually hit the network (skipped items pause nothing).
func (p *Pipeline) Run(ctx context.Context, entries []ingest.Entry) (Result, error) {
	var result Result

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if p.store.Has(entry.URL) {
			p.logger.Info("already processed, skipping", "id", entry.ID, "url", entry.URL)
			result.Skipped++
			continue
		}

		p.processOne(ctx, entry, &result)

		if i < len(entries)-1 {
			time.Sleep(p.delay)
		}
	}

	p.logger.Info("run finished",
		"successful", result.Successful,
		"failed", result.Failed,
		"skipped", result.Skipped,
	)

	return result, nil
}

func (p *Pipeline) processOne(ctx context.Context, entry ingest.Entry, result *Result) {
	product, err := p.scraper.Scrape(ctx, entry.URL)
	if err != nil {
		p.logger.Warn("scrape failed", "id", entry.ID, "url", entry.URL, "error", err)
		result.Failed++
		return
	}

	outputPath := filepath.Join(p.imagesDir, fmt.Sprintf("product_%d.jpg", entry.ID))
	ok := p.compositor.Generate(ctx, &models.RenderJob{
		Product:    product,
		OutputPath: outputPath,
		TempDir:    p.tempDir,
	})
	if !ok {
		p.logger.Warn("image generation failed", "id", entry.ID, "url", entry.URL)
		result.Failed++
		return
	}

	product.ID = entry.ID
	product.ImagePath = outputPath
	if err := p.store.Upsert(product); err != nil {
		p.logger.Warn("persist failed", "id", entry.ID, "url", entry.URL, "error", err)
		result.Failed++
		return
	}

	p.logger.Info("product processed", "id", entry.ID, "title", product.Title, "image", outputPath)
	result.Successful++
}
