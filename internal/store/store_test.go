package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dlemos/promopost/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProduct(url, title string, price float64) *models.Product {
	p := models.NewProduct(url)
	p.Title = title
	p.CurrentPrice = &price
	return p
}

func TestStoreRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "data", "products.json")

	s, err := New(filename, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count())

	require.NoError(t, s.Upsert(newTestProduct("https://example.com/MLB-1", "Produto Um", 10.0)))
	require.NoError(t, s.Upsert(newTestProduct("https://example.com/MLB-2", "Produto Dois", 20.0)))

	assert.True(t, s.Has("https://example.com/MLB-1"))
	assert.False(t, s.Has("https://example.com/MLB-3"))

	// Reopen from disk.
	reopened, err := New(filename, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Count())

	p, ok := reopened.Get("https://example.com/MLB-2")
	require.True(t, ok)
	assert.Equal(t, "Produto Dois", p.Title)
	require.NotNil(t, p.CurrentPrice)
	assert.InDelta(t, 20.0, *p.CurrentPrice, 0.0001)
}

func TestStoreUpsertReplaces(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "products.json")

	s, err := New(filename, slog.Default())
	require.NoError(t, err)

	require.NoError(t, s.Upsert(newTestProduct("u", "Versão Antiga", 10.0)))
	require.NoError(t, s.Upsert(newTestProduct("u", "Versão Nova", 15.0)))

	assert.Equal(t, 1, s.Count())
	p, ok := s.Get("u")
	require.True(t, ok)
	assert.Equal(t, "Versão Nova", p.Title)
}

func TestStoreUpsertRequiresURL(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "products.json"), slog.Default())
	require.NoError(t, err)

	err = s.Upsert(models.NewProduct(""))
	assert.ErrorContains(t, err, "URL is required")
}

func TestStoreCorruptFileStartsEmpty(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(filename, []byte("{not json"), 0644))

	s, err := New(filename, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count())

	// A save replaces the corrupt document.
	require.NoError(t, s.Upsert(newTestProduct("u", "Produto Novo", 5.0)))
	reopened, err := New(filename, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Count())
}

func TestStoreOrderPreserved(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "products.json")

	s, err := New(filename, slog.Default())
	require.NoError(t, err)

	urls := []string{"u1", "u2", "u3"}
	for i, u := range urls {
		require.NoError(t, s.Upsert(newTestProduct(u, "Produto", float64(i+1))))
	}

	reopened, err := New(filename, slog.Default())
	require.NoError(t, err)

	all := reopened.All()
	require.Len(t, all, 3)
	for i, u := range urls {
		assert.Equal(t, u, all[i].URL)
	}
}
