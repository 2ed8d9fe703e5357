package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalogAPI(t *testing.T, handler http.HandlerFunc) *CatalogAPI {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	api := NewCatalogAPI(NewClient(5*time.Second, "test-agent"), slog.Default())
	api.baseURL = server.URL
	return api
}

func TestCatalogLookup(t *testing.T) {
	api := newTestCatalogAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items/MLB4049279695", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"title": "Mouse Sem Fio Ergonômico",
			"price": 89.90,
			"currency_id": "BRL",
			"pictures": [{"url": "http://http2.mlstatic.com/D_1-O.jpg", "secure_url": "https://http2.mlstatic.com/D_1-O.jpg"}]
		}`))
	})

	product, err := api.Lookup(context.Background(), "4049279695")
	require.NoError(t, err)

	assert.Equal(t, "Mouse Sem Fio Ergonômico", product.Title)
	require.NotNil(t, product.CurrentPrice)
	assert.InDelta(t, 89.90, *product.CurrentPrice, 0.0001)
	assert.Equal(t, "R$", product.Currency)
	assert.Equal(t, "https://http2.mlstatic.com/D_1-O.jpg", product.ImageURL)
	assert.Equal(t, "https://produto.mercadolivre.com.br/MLB-4049279695", product.URL)
}

func TestCatalogLookupMissingPrice(t *testing.T) {
	api := newTestCatalogAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title": "Produto Sem Preço"}`))
	})

	_, err := api.Lookup(context.Background(), "123")
	assert.ErrorContains(t, err, "missing title or price")
}

func TestCatalogLookupNotFound(t *testing.T) {
	api := newTestCatalogAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	})

	_, err := api.Lookup(context.Background(), "999")
	assert.ErrorContains(t, err, "catalog lookup failed")
}
