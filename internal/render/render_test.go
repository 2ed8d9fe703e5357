package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fogleman/gg"

	"github.com/dlemos/promopost/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(assetsDir string) Options {
	return Options{
		CanvasWidth:  1080,
		CanvasHeight: 1080,
		JPEGQuality:  95,
		TitleMaxLen:  50,
		BadgeText:    "ACHADO DO DIA",
		CTAText:      "Vale muito a pena",
		Currency:     "R$",
		AssetsDir:    assetsDir,
	}
}

func testProduct(imageURL string) *models.Product {
	p := models.NewProduct("https://produto.mercadolivre.com.br/MLB-1")
	p.Title = "Fone Bluetooth XYZ com cancelamento de ruído"
	price := 99.90
	p.CurrentPrice = &price
	orig := 149.90
	p.OriginalPrice = &orig
	p.RecomputeDiscount()
	p.ImageURL = imageURL
	return p
}

func decodeOutput(t *testing.T, path string) image.Image {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestFallbackRendererWithoutProductImage(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "product_1.jpg")

	c := New(nil, testOptions(dir), 5*time.Second, 0, "test-agent", slog.Default())
	ok := c.Generate(context.Background(), &models.RenderJob{
		Product:    testProduct(""),
		OutputPath: out,
		TempDir:    dir,
	})
	require.True(t, ok)

	img := decodeOutput(t, out)
	assert.Equal(t, 1080, img.Bounds().Dx())
	assert.Equal(t, 1080, img.Bounds().Dy())
}

func TestFallbackRendererWithProductImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		src := image.NewRGBA(image.Rect(0, 0, 800, 600))
		for y := 0; y < 600; y++ {
			for x := 0; x < 800; x++ {
				src.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
			}
		}
		w.Header().Set("Content-Type", "image/png")
		png.Encode(w, src)
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	out := filepath.Join(dir, "product_1.jpg")

	c := New(nil, testOptions(dir), 5*time.Second, 0, "test-agent", slog.Default())
	ok := c.Generate(context.Background(), &models.RenderJob{
		Product:    testProduct(server.URL + "/D_1-O.png"),
		OutputPath: out,
		TempDir:    dir,
	})
	require.True(t, ok)

	img := decodeOutput(t, out)
	assert.Equal(t, 1080, img.Bounds().Dx())
	assert.Equal(t, 1080, img.Bounds().Dy())
}

func TestFallbackRendererImageDownloadFailureStillRenders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	out := filepath.Join(dir, "product_1.jpg")

	c := New(nil, testOptions(dir), 5*time.Second, 0, "test-agent", slog.Default())
	ok := c.Generate(context.Background(), &models.RenderJob{
		Product:    testProduct(server.URL + "/missing.png"),
		OutputPath: out,
		TempDir:    dir,
	})

	assert.True(t, ok)
	assert.FileExists(t, out)
}

func TestWriteFilledTemplateUsesDefaultCurrency(t *testing.T) {
	dir := t.TempDir()
	r := NewTemplateRenderer(nil, newImageFetcher(time.Second, "test-agent"),
		testOptions(dir), 0, slog.Default())

	product := testProduct("")
	product.Currency = ""

	htmlPath, err := r.writeFilledTemplate(context.Background(), &models.RenderJob{
		Product:    product,
		OutputPath: filepath.Join(dir, "product_1.jpg"),
		TempDir:    dir,
	})
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(htmlPath) })

	data, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "R$")
	assert.Contains(t, string(data), "99,90")
}

func TestFilledTemplateHasNamedSlots(t *testing.T) {
	var buf bytes.Buffer
	err := postTemplate.Execute(&buf, templateData{
		Badge:       "ACHADO DO DIA",
		Currency:    "R$",
		Price:       "99,90",
		ProductName: "Fone Bluetooth XYZ",
		CTA:         "Vale muito a pena",
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, `id="post"`)
	assert.Contains(t, html, "ACHADO DO DIA")
	assert.Contains(t, html, "99,90")
	assert.Contains(t, html, "Fone Bluetooth XYZ")
	assert.Contains(t, html, "Vale muito a pena")
	// No product image slot filled, no img tag inside the card.
	assert.NotContains(t, html, `class="logo"`)
}

func TestFilledTemplateEscapesMarkup(t *testing.T) {
	var buf bytes.Buffer
	err := postTemplate.Execute(&buf, templateData{
		ProductName: `Produto <script>alert("x")</script>`,
	})
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "<script>alert")
}

func TestProceduralGlyphs(t *testing.T) {
	dc := gg.NewContext(120, 120)
	dc.SetHexColor("#FFFFFF")
	dc.Clear()

	drawFlame(dc, 10, 10, 40, colorFlame)
	drawLinkGlyph(dc, 10, 60, 20, "#19B45A")
	img := dc.Image()

	// Flame body is orange.
	r, g, b, _ := img.At(30, 30).RGBA()
	assert.True(t, r > g && g > b, "expected orange flame pixel, got %d %d %d", r, g, b)

	// Left ring's stroke is green.
	r, g, b, _ = img.At(30, 70).RGBA()
	assert.True(t, g > r && g > b, "expected green ring pixel, got %d %d %d", r, g, b)
}

func TestFitInside(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 800, 600))

	fitted := fitInside(src, 540, 540)
	assert.Equal(t, 540, fitted.Bounds().Dx())
	assert.Equal(t, 405, fitted.Bounds().Dy())

	// Smaller images are left alone, never upscaled.
	small := image.NewRGBA(image.Rect(0, 0, 100, 50))
	assert.Equal(t, small.Bounds(), fitInside(small, 540, 540).Bounds())
}

func TestFlattenOnWhite(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	// Fully transparent pixel should come out white.
	flat := flattenOnWhite(src)

	r, g, b, a := flat.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
	assert.Equal(t, uint32(0xffff), a)
}

func TestFindLogo(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, findLogo(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.jpg"), []byte("x"), 0644))
	assert.Equal(t, filepath.Join(dir, "logo.jpg"), findLogo(dir))

	// png outranks jpg.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte("x"), 0644))
	assert.Equal(t, filepath.Join(dir, "logo.png"), findLogo(dir))
}
