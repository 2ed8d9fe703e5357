package render

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/fogleman/gg"

	"github.com/dlemos/promopost/internal/models"
	"github.com/dlemos/promopost/internal/money"
)

// Palette of the promo layout.
const (
	colorBackground = "#F4F4F6"
	colorRibbon     = "#FFCC00"
	colorBadge      = "#0F1014"
	colorStar       = "#FFD400"
	colorCard       = "#FFFFFF"
	colorPricePanel = "#19B45A"
	colorFlame      = "#FF6B00"
	colorCTA        = "#1A1B20"
	colorTextDark   = "#1A1B20"
	colorTextWhite  = "#FFFFFF"
)

// FallbackRenderer paints the promo layout directly onto a raster canvas.
// It needs no browser and is the path of last resort, so it degrades instead
// of failing: a missing product image or logo leaves its slot empty.
type FallbackRenderer struct {
	fetcher *imageFetcher
	opts    Options
	logger  *slog.Logger
}

func NewFallbackRenderer(fetcher *imageFetcher, opts Options, logger *slog.Logger) *FallbackRenderer {
	return &FallbackRenderer{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger.With("component", "fallback_renderer"),
	}
}

func (r *FallbackRenderer) Render(ctx context.Context, job *models.RenderJob) error {
	w, h := r.opts.CanvasWidth, r.opts.CanvasHeight
	dc := gg.NewContext(w, h)

	dc.SetHexColor(colorBackground)
	dc.Clear()

	r.drawRibbon(dc)
	r.drawBadge(dc)
	r.drawProductCard(ctx, dc, job.Product)
	r.drawPricePanel(dc, job.Product)
	r.drawNamePlaque(dc, job.Product)
	r.drawCTAPlaque(dc)
	r.drawLogo(dc)

	img := flattenOnWhite(dc.Image())
	if err := saveJPEG(job.OutputPath, img, r.opts.JPEGQuality); err != nil {
		return fmt.Errorf("failed to save rendered image: %w", err)
	}

	return nil
}

// drawRibbon paints the diagonal banner strip along the top edge.
func (r *FallbackRenderer) drawRibbon(dc *gg.Context) {
	w := float64(r.opts.CanvasWidth)

	dc.MoveTo(0, 0)
	dc.LineTo(w, 0)
	dc.LineTo(w, 110)
	dc.LineTo(0, 150)
	dc.ClosePath()
	dc.SetHexColor(colorRibbon)
	dc.Fill()
}

// drawBadge paints the dark badge pill with a star glyph and the badge text.
func (r *FallbackRenderer) drawBadge(dc *gg.Context) {
	const x, y, w, h = 60.0, 40.0, 420.0, 76.0

	dc.DrawRoundedRectangle(x, y, w, h, h/2)
	dc.SetHexColor(colorBadge)
	dc.Fill()

	drawStar(dc, x+52, y+h/2, 22, colorStar)

	dc.SetFontFace(loadBoldFace(34))
	dc.SetHexColor(colorTextWhite)
	dc.DrawStringAnchored(r.opts.BadgeText, x+92, y+h/2, 0, 0.35)
}

// drawProductCard paints the rounded white card and the product image inside
// it, aspect-fit and centered, never stretched.
func (r *FallbackRenderer) drawProductCard(ctx context.Context, dc *gg.Context, product *models.Product) {
	const x, y, w, h = 60.0, 200.0, 600.0, 600.0
	const inset = 30.0

	dc.DrawRoundedRectangle(x, y, w, h, 36)
	dc.SetHexColor(colorCard)
	dc.Fill()

	if product.ImageURL == "" {
		return
	}

	img, err := r.fetcher.fetchDecoded(ctx, product.ImageURL)
	if err != nil {
		r.logger.Warn("product image unavailable, rendering without it",
			"url", product.ImageURL, "error", err)
		return
	}

	fitted := fitInside(img, int(w-2*inset), int(h-2*inset))
	bounds := fitted.Bounds()
	px := x + (w-float64(bounds.Dx()))/2
	py := y + (h-float64(bounds.Dy()))/2
	dc.DrawImage(fitted, int(px), int(py))
}

// drawPricePanel paints the green price panel: currency, amount and, when a
// discount exists, the percentage underneath.
func (r *FallbackRenderer) drawPricePanel(dc *gg.Context, product *models.Product) {
	const x, y, w, h = 680.0, 220.0, 340.0, 260.0

	dc.DrawRoundedRectangle(x, y, w, h, 28)
	dc.SetHexColor(colorPricePanel)
	dc.Fill()

	if product.CurrentPrice == nil {
		return
	}

	formatted := money.FormatPrice(*product.CurrentPrice, r.opts.currencyFor(product))

	dc.SetHexColor(colorTextWhite)
	dc.SetFontFace(loadRegularFace(30))
	dc.DrawStringAnchored("Por:", x+w/2, y+56, 0.5, 0.35)

	dc.SetFontFace(loadBoldFace(54))
	dc.DrawStringAnchored(formatted, x+w/2, y+h/2, 0.5, 0.35)

	if product.DiscountPercentage > 0 {
		drawFlame(dc, x+44, y+h-76, 30, colorFlame)
		dc.SetFontFace(loadBoldFace(30))
		off := fmt.Sprintf("-%.0f%% OFF", math.Round(product.DiscountPercentage))
		dc.DrawStringAnchored(off, x+w/2, y+h-48, 0.5, 0.35)
	}
}

// drawNamePlaque paints the rounded plaque with the truncated product title.
func (r *FallbackRenderer) drawNamePlaque(dc *gg.Context, product *models.Product) {
	const x, y, w, h = 60.0, 840.0, 600.0, 120.0

	dc.DrawRoundedRectangle(x, y, w, h, 24)
	dc.SetHexColor(colorCard)
	dc.Fill()

	title := money.Truncate(product.Title, r.opts.TitleMaxLen)
	dc.SetHexColor(colorTextDark)
	dc.SetFontFace(loadBoldFace(32))
	dc.DrawStringWrapped(title, x+w/2, y+h/2, 0.5, 0.5, w-60, 1.3, gg.AlignCenter)
}

func (r *FallbackRenderer) drawCTAPlaque(dc *gg.Context) {
	const x, y, w, h = 680.0, 840.0, 340.0, 120.0

	dc.DrawRoundedRectangle(x, y, w, h, 24)
	dc.SetHexColor(colorCTA)
	dc.Fill()

	dc.SetHexColor(colorTextWhite)
	dc.SetFontFace(loadRegularFace(28))
	dc.DrawStringWrapped(r.opts.CTAText, x+w/2, y+h/2, 0.5, 0.5, w-40, 1.3, gg.AlignCenter)
}

// drawLogo anchors the brand logo bottom-right when the asset exists, or a
// procedural link mark when it does not.
func (r *FallbackRenderer) drawLogo(dc *gg.Context) {
	path := findLogo(r.opts.AssetsDir)
	if path == "" {
		drawLinkGlyph(dc,
			float64(r.opts.CanvasWidth)-110,
			float64(r.opts.CanvasHeight)-56,
			22, colorPricePanel)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Warn("logo asset unreadable, omitting", "path", path, "error", err)
		return
	}
	logo, err := decodeImage(data)
	if err != nil {
		r.logger.Warn("logo asset undecodable, omitting", "path", path, "error", err)
		return
	}

	fitted := fitInside(logo, 180, 70)
	bounds := fitted.Bounds()
	px := r.opts.CanvasWidth - bounds.Dx() - 40
	py := r.opts.CanvasHeight - bounds.Dy() - 30
	dc.DrawImage(fitted, px, py)
}

// drawStar paints a five-pointed star centered at (cx, cy).
func drawStar(dc *gg.Context, cx, cy, size float64, hexColor string) {
	for i := 0; i < 10; i++ {
		angle := math.Pi/2 + float64(i)*math.Pi/5
		radius := size
		if i%2 != 0 {
			radius = size / 2
		}
		px := cx + radius*math.Cos(angle)
		py := cy - radius*math.Sin(angle)
		if i == 0 {
			dc.MoveTo(px, py)
		} else {
			dc.LineTo(px, py)
		}
	}
	dc.ClosePath()
	dc.SetHexColor(hexColor)
	dc.Fill()
}

// drawFlame paints a teardrop flame with (x, y) at its top-left corner.
func drawFlame(dc *gg.Context, x, y, size float64, hexColor string) {
	dc.MoveTo(x+size/2, y)
	dc.QuadraticTo(x+size, y+size/3, x+size*0.85, y+size*0.75)
	dc.QuadraticTo(x+size*0.75, y+size, x+size/2, y+size)
	dc.QuadraticTo(x+size*0.1, y+size*0.9, x+size*0.15, y+size*0.55)
	dc.QuadraticTo(x+size*0.2, y+size/4, x+size/2, y)
	dc.ClosePath()
	dc.SetHexColor(hexColor)
	dc.Fill()
}

// drawLinkGlyph paints two chained rings with (x, y) at the left ring's
// top-left corner.
func drawLinkGlyph(dc *gg.Context, x, y, size float64, hexColor string) {
	dc.SetHexColor(hexColor)
	dc.SetLineWidth(size / 5)
	dc.DrawCircle(x+size/2, y+size/2, size/2)
	dc.Stroke()
	dc.DrawCircle(x+size*1.2, y+size/2, size/2)
	dc.Stroke()
}
