package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dlemos/promopost/internal/ingest"
	"github.com/dlemos/promopost/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScraper struct {
	product *models.Product
	err     error
}

func (f *fakeScraper) Scrape(ctx context.Context, url string) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := *f.product
	p.URL = url
	return &p, nil
}

type fakeCompositor struct {
	fail bool
}

func (f *fakeCompositor) Generate(ctx context.Context, job *models.RenderJob) bool {
	if f.fail {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0755); err != nil {
		return false
	}
	return os.WriteFile(job.OutputPath, []byte("jpeg-bytes"), 0644) == nil
}

type fakeStore struct {
	saved []*models.Product
}

func (f *fakeStore) Upsert(p *models.Product) error { f.saved = append(f.saved, p); return nil }
func (f *fakeStore) All() []*models.Product         { return f.saved }
func (f *fakeStore) Count() int                     { return len(f.saved) }

type testEnv struct {
	handler http.Handler
	store   *fakeStore
	dir     string
}

func newTestServer(t *testing.T, scraper Scraper, compositor Compositor) *testEnv {
	t.Helper()
	dir := t.TempDir()
	store := &fakeStore{}

	handlers := NewHandlers(
		scraper,
		compositor,
		store,
		ingest.NewLoader(slog.Default()),
		filepath.Join(dir, "products.csv"),
		filepath.Join(dir, "images"),
		filepath.Join(dir, "temp"),
		slog.Default(),
	)

	srv := New(Config{
		Host:         "127.0.0.1",
		Port:         "0",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}, handlers, slog.Default())

	return &testEnv{handler: srv.Handler(), store: store, dir: dir}
}

func defaultProduct() *models.Product {
	p := models.NewProduct("")
	p.Title = "Fone Bluetooth XYZ"
	price := 99.90
	p.CurrentPrice = &price
	return p
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestGetStatus(t *testing.T) {
	env := newTestServer(t, &fakeScraper{product: defaultProduct()}, &fakeCompositor{})

	rec := env.do(t, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, false, status["csv_exists"])
}

func TestURLsRoundTrip(t *testing.T) {
	env := newTestServer(t, &fakeScraper{product: defaultProduct()}, &fakeCompositor{})

	rec := env.do(t, http.MethodGet, "/api/urls", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/urls", AddURLRequest{
		URL: "https://produto.mercadolivre.com.br/MLB-1-fone",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/urls", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []URLEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "https://produto.mercadolivre.com.br/MLB-1-fone", entries[0].URL)
}

func TestAddURLRejectsNonProduct(t *testing.T) {
	env := newTestServer(t, &fakeScraper{product: defaultProduct()}, &fakeCompositor{})

	rec := env.do(t, http.MethodPost, "/api/urls", AddURLRequest{URL: "https://example.com/x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ingest", body["stage"])
}

func TestGenerate(t *testing.T) {
	env := newTestServer(t, &fakeScraper{product: defaultProduct()}, &fakeCompositor{})

	rec := env.do(t, http.MethodPost, "/api/generate", GenerateRequest{
		ProductURL:    "https://produto.mercadolivre.com.br/MLB-1",
		AffiliateLink: "https://www.mercadolivre.com.br/social/loja?mlm=1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))

	require.Len(t, env.store.saved, 1)
	saved := env.store.saved[0]
	assert.Equal(t, "https://www.mercadolivre.com.br/social/loja?mlm=1", saved.AffiliateLink)
	assert.Equal(t, 1, saved.ID)
	assert.FileExists(t, saved.ImagePath)
}

func TestGenerateScrapeFailure(t *testing.T) {
	env := newTestServer(t, &fakeScraper{err: fmt.Errorf("could not extract")}, &fakeCompositor{})

	rec := env.do(t, http.MethodPost, "/api/generate", GenerateRequest{
		ProductURL: "https://produto.mercadolivre.com.br/MLB-1",
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "scrape", body["stage"])
}

func TestGenerateRenderFailure(t *testing.T) {
	env := newTestServer(t, &fakeScraper{product: defaultProduct()}, &fakeCompositor{fail: true})

	rec := env.do(t, http.MethodPost, "/api/generate", GenerateRequest{
		ProductURL: "https://produto.mercadolivre.com.br/MLB-1",
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "render", body["stage"])
	assert.Empty(t, env.store.saved)
}

func TestAffiliateLinkEndpoint(t *testing.T) {
	env := newTestServer(t, &fakeScraper{product: defaultProduct()}, &fakeCompositor{})

	rec := env.do(t, http.MethodPost, "/api/affiliate-link", AffiliateLinkRequest{
		ProductURL: "https://produto.mercadolivre.com.br/MLB-4049279695",
		SocialCode: "https://www.mercadolivre.com.br/social/loja",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["affiliate_link"], "mlm=4049279695")
}

func TestServeImage(t *testing.T) {
	env := newTestServer(t, &fakeScraper{product: defaultProduct()}, &fakeCompositor{})

	imagesDir := filepath.Join(env.dir, "images")
	require.NoError(t, os.MkdirAll(imagesDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(imagesDir, "product_1.jpg"), []byte("jpeg"), 0644))

	rec := env.do(t, http.MethodGet, "/images/product_1.jpg", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/images/missing.jpg", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
