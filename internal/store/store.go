// Package store persists scraped products as a single JSON document so that
// reruns can skip URLs that already produced an image.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dlemos/promopost/internal/models"
)

// document is the on-disk shape of the product store.
type document struct {
	Products    []*models.Product `json:"products"`
	LastUpdated time.Time         `json:"last_updated"`
}

type Store struct {
	mu       sync.RWMutex
	products []*models.Product
	byURL    map[string]int
	filename string
	logger   *slog.Logger
}

// New opens the store at filename, loading any existing document. A missing
// file starts an empty store; a corrupt one is logged and replaced on the
// next save rather than aborting the run.
func New(filename string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		byURL:    make(map[string]int),
		filename: filename,
		logger:   logger.With("component", "store"),
	}

	if err := s.load(); err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		s.logger.Warn("could not load existing product data, starting empty",
			"file", filename, "error", err)
	}

	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.filename)
	if err != nil {
		return err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", s.filename, err)
	}

	s.products = doc.Products
	for i, p := range s.products {
		if p != nil && p.URL != "" {
			s.byURL[p.URL] = i
		}
	}

	return nil
}

// Has reports whether a product with this URL is already persisted.
func (s *Store) Has(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.byURL[url]
	return exists
}

// Get returns the persisted product for a URL.
func (s *Store) Get(url string) (*models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, exists := s.byURL[url]
	if !exists {
		return nil, false
	}
	return s.products[i], true
}

// Upsert adds or replaces the product keyed by its URL and saves the
// document.
func (s *Store) Upsert(product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.URL == "" {
		return fmt.Errorf("product URL is required")
	}

	if i, exists := s.byURL[product.URL]; exists {
		s.products[i] = product
	} else {
		s.byURL[product.URL] = len(s.products)
		s.products = append(s.products, product)
	}

	return s.save()
}

// All returns a copy of the persisted product list in insertion order.
func (s *Store) All() []*models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.products)
}

func (s *Store) save() error {
	doc := document{
		Products:    s.products,
		LastUpdated: time.Now(),
	}
	if doc.Products == nil {
		doc.Products = []*models.Product{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal product data: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filename), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Write to temp file first for atomicity.
	tmpFile := s.filename + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	return os.Rename(tmpFile, s.filename)
}
