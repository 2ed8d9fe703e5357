// Package render composes the final 1080x1080 promo image for a product.
// Two back ends converge on the same output: a template-driven renderer that
// screenshots an HTML layout in a headless browser, and a direct-drawing
// fallback that paints the same layout onto a raster canvas.
package render

import (
	"context"
	"log/slog"
	"time"

	"github.com/dlemos/promopost/internal/browser"
	"github.com/dlemos/promopost/internal/models"
)

// Options holds the layout and encoding knobs shared by both back ends.
type Options struct {
	CanvasWidth  int
	CanvasHeight int
	JPEGQuality  int
	TitleMaxLen  int
	BadgeText    string
	CTAText      string
	Currency     string
	AssetsDir    string
}

// currencyFor returns the product currency, or the configured default when
// extraction left it empty.
func (o Options) currencyFor(product *models.Product) string {
	if product.Currency != "" {
		return product.Currency
	}
	return o.Currency
}

// Compositor renders one product image per job. Generate reports success as
// a bool: every nested error is logged and absorbed, never propagated, and a
// preferred-renderer failure automatically switches to the fallback.
type Compositor struct {
	template *TemplateRenderer // nil when the browser capability is unavailable
	fallback *FallbackRenderer
	logger   *slog.Logger
}

// New builds a compositor. Pass a nil browser when the capability probe
// failed; only the direct-drawing fallback will run.
func New(b *browser.Browser, opts Options, requestTimeout, settleDelay time.Duration, userAgent string, logger *slog.Logger) *Compositor {
	fetcher := newImageFetcher(requestTimeout, userAgent)

	c := &Compositor{
		fallback: NewFallbackRenderer(fetcher, opts, logger),
		logger:   logger.With("component", "compositor"),
	}
	if b != nil {
		c.template = NewTemplateRenderer(b, fetcher, opts, settleDelay, logger)
	}

	return c
}

func (c *Compositor) Generate(ctx context.Context, job *models.RenderJob) bool {
	if c.template != nil {
		if err := c.template.Render(ctx, job); err != nil {
			c.logger.Warn("template renderer failed, using fallback",
				"output", job.OutputPath, "error", err)
		} else {
			c.logger.Info("image generated", "output", job.OutputPath, "renderer", "template")
			return true
		}
	}

	if err := c.fallback.Render(ctx, job); err != nil {
		c.logger.Error("fallback renderer failed", "output", job.OutputPath, "error", err)
		return false
	}

	c.logger.Info("image generated", "output", job.OutputPath, "renderer", "fallback")
	return true
}
