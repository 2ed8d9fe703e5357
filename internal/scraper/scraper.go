// Package scraper extracts a product record from a marketplace URL through
// ordered fallback strategies: rendered browser, embedded structured data,
// DOM selectors with an aggressive pass, and finally the public catalog API.
package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dlemos/promopost/internal/models"
)

type Scraper struct {
	client      *Client
	structured  *StructuredExtractor
	dom         *DOMExtractor
	rendered    *RenderedExtractor // nil when the browser capability probe failed
	api         *CatalogAPI
	minTitleLen int
	logger      *slog.Logger
}

func New(client *Client, rendered *RenderedExtractor, minTitleLen int, logger *slog.Logger) *Scraper {
	return &Scraper{
		client:      client,
		structured:  NewStructuredExtractor(minTitleLen, logger),
		dom:         NewDOMExtractor(minTitleLen, logger),
		rendered:    rendered,
		api:         NewCatalogAPI(client, logger),
		minTitleLen: minTitleLen,
		logger:      logger.With("component", "scraper"),
	}
}

// Scrape tries each strategy in priority order and returns the first complete
// record. Strategy errors are soft: they are logged and the next strategy
// runs. An error comes back only when every strategy came up short.
func (s *Scraper) Scrape(ctx context.Context, url string) (*models.Product, error) {
	cleanURL := NormalizeURL(url)
	s.logger.Info("scraping product", "url", cleanURL)

	if s.rendered != nil {
		product, err := s.rendered.Extract(ctx, cleanURL)
		if err != nil {
			s.logger.Warn("rendered extraction failed, falling through", "url", cleanURL, "error", err)
		} else if product.IsComplete(s.minTitleLen) {
			return product, nil
		}
	}

	product := s.scrapeStatic(ctx, cleanURL)
	if product != nil && product.IsComplete(s.minTitleLen) {
		return product, nil
	}

	if itemID := ExtractItemID(cleanURL); itemID != "" {
		apiProduct, err := s.api.Lookup(ctx, itemID)
		if err != nil {
			s.logger.Warn("catalog API fallback failed", "itemID", itemID, "error", err)
		} else {
			apiProduct.RecomputeDiscount()
			return apiProduct, nil
		}
	}

	return nil, fmt.Errorf("could not extract title and price from %s", cleanURL)
}

// scrapeStatic fetches the document once and runs the structured-data and
// DOM-selector strategies over it: structured first, then selectors for the
// missing fields, then the aggressive pass for anything left.
func (s *Scraper) scrapeStatic(ctx context.Context, url string) *models.Product {
	doc, err := s.client.FetchDocument(ctx, url)
	if err != nil {
		s.logger.Warn("document fetch failed", "url", url, "error", err)
		return nil
	}

	product := s.structured.Extract(doc, url)
	if product == nil {
		product = models.NewProduct(url)
	}

	if !product.IsComplete(s.minTitleLen) {
		s.dom.Fill(doc, product)
	}

	if !product.IsComplete(s.minTitleLen) {
		s.logger.Info("selector chains incomplete, running aggressive pass",
			"url", url,
			"hasTitle", product.Title != "",
			"hasPrice", product.CurrentPrice != nil,
		)
		s.dom.FillAggressive(doc, product)
	}

	product.RecomputeDiscount()
	return product
}
