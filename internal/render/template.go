package render

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/dlemos/promopost/internal/browser"
	"github.com/dlemos/promopost/internal/models"
	"github.com/dlemos/promopost/internal/money"
)

//go:embed template.html
var postTemplateHTML string

var postTemplate = template.Must(template.New("post").Parse(postTemplateHTML))

// templateData carries the named slots of the visual template.
type templateData struct {
	Badge       string
	Currency    string
	Price       string
	ProductName string
	CTA         string
	ImageSrc    template.URL
	LogoSrc     template.URL
}

// TemplateRenderer produces the promo image by rendering the HTML template
// in a headless browser and screenshotting the post element. Product image
// and logo are inlined as data URLs so the page never touches the network.
type TemplateRenderer struct {
	browser     *browser.Browser
	fetcher     *imageFetcher
	opts        Options
	settleDelay time.Duration
	logger      *slog.Logger
}

func NewTemplateRenderer(b *browser.Browser, fetcher *imageFetcher, opts Options, settleDelay time.Duration, logger *slog.Logger) *TemplateRenderer {
	return &TemplateRenderer{
		browser:     b,
		fetcher:     fetcher,
		opts:        opts,
		settleDelay: settleDelay,
		logger:      logger.With("component", "template_renderer"),
	}
}

func (r *TemplateRenderer) Render(ctx context.Context, job *models.RenderJob) error {
	htmlPath, err := r.writeFilledTemplate(ctx, job)
	if err != nil {
		return err
	}
	defer os.Remove(htmlPath)

	shot, err := r.capture(htmlPath)
	if err != nil {
		return err
	}

	img, err := decodeImage(shot)
	if err != nil {
		return fmt.Errorf("failed to decode screenshot: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != r.opts.CanvasWidth || bounds.Dy() != r.opts.CanvasHeight {
		r.logger.Warn("screenshot size drifted, resizing",
			"width", bounds.Dx(), "height", bounds.Dy())
		img = resizeExact(img, r.opts.CanvasWidth, r.opts.CanvasHeight)
	}

	return saveJPEG(job.OutputPath, flattenOnWhite(img), r.opts.JPEGQuality)
}

// writeFilledTemplate executes the template with the product's data and
// writes it to a uniquely named file under the job's temp dir.
func (r *TemplateRenderer) writeFilledTemplate(ctx context.Context, job *models.RenderJob) (string, error) {
	product := job.Product

	data := templateData{
		Badge:       r.opts.BadgeText,
		Currency:    r.opts.currencyFor(product),
		ProductName: money.Truncate(product.Title, r.opts.TitleMaxLen),
		CTA:         r.opts.CTAText,
	}
	if product.CurrentPrice != nil {
		data.Price = money.FormatAmount(*product.CurrentPrice)
	}

	if product.ImageURL != "" {
		raw, err := r.fetcher.fetch(ctx, product.ImageURL)
		if err != nil {
			r.logger.Warn("product image unavailable, rendering without it",
				"url", product.ImageURL, "error", err)
		} else {
			data.ImageSrc = template.URL(dataURL(raw))
		}
	}

	if logoPath := findLogo(r.opts.AssetsDir); logoPath != "" {
		raw, err := os.ReadFile(logoPath)
		if err != nil {
			r.logger.Warn("logo asset unreadable, omitting", "path", logoPath, "error", err)
		} else {
			data.LogoSrc = template.URL(dataURL(raw))
		}
	}

	var buf bytes.Buffer
	if err := postTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	if err := os.MkdirAll(job.TempDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	htmlPath := filepath.Join(job.TempDir, fmt.Sprintf("post_%s.html", uuid.NewString()))
	if err := os.WriteFile(htmlPath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write template file: %w", err)
	}

	return htmlPath, nil
}

// capture loads the filled template in a fresh page, forces the post element
// to the exact canvas size and screenshots just that element.
func (r *TemplateRenderer) capture(htmlPath string) ([]byte, error) {
	page, err := r.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open render page: %w", err)
	}
	defer page.Close()

	absPath, err := filepath.Abs(htmlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve template path: %w", err)
	}

	if _, err := page.Goto("file://"+absPath, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return nil, fmt.Errorf("failed to load template page: %w", err)
	}

	element, err := page.WaitForSelector("#post", playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(15000),
	})
	if err != nil {
		return nil, fmt.Errorf("post element never appeared: %w", err)
	}

	if _, err := page.Evaluate(fmt.Sprintf(`() => {
		const post = document.getElementById('post');
		post.style.width = '%dpx';
		post.style.height = '%dpx';
	}`, r.opts.CanvasWidth, r.opts.CanvasHeight)); err != nil {
		return nil, fmt.Errorf("failed to force post dimensions: %w", err)
	}

	// Let fonts and inlined images settle before capturing.
	time.Sleep(r.settleDelay)

	shot, err := element.Screenshot(playwright.ElementHandleScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to capture post element: %w", err)
	}

	return shot, nil
}
