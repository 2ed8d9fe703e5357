package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dlemos/promopost/internal/models"
)

const defaultCatalogBase = "https://api.mercadolivre.com"

// CatalogAPI is the last-resort lookup against the public item endpoint,
// keyed by the numeric identifier parsed from the product URL.
type CatalogAPI struct {
	client  *Client
	baseURL string
	logger  *slog.Logger
}

func NewCatalogAPI(client *Client, logger *slog.Logger) *CatalogAPI {
	return &CatalogAPI{
		client:  client,
		baseURL: defaultCatalogBase,
		logger:  logger.With("component", "catalog_api"),
	}
}

type catalogItem struct {
	Title      string  `json:"title"`
	Price      float64 `json:"price"`
	CurrencyID string  `json:"currency_id"`
	Pictures   []struct {
		URL       string `json:"url"`
		SecureURL string `json:"secure_url"`
	} `json:"pictures"`
}

// Lookup fetches one item by its numeric identifier. The result is accepted
// only when both title and price are present.
func (a *CatalogAPI) Lookup(ctx context.Context, itemID string) (*models.Product, error) {
	url := fmt.Sprintf("%s/items/MLB%s", a.baseURL, itemID)

	var item catalogItem
	if err := a.client.GetJSON(ctx, url, &item); err != nil {
		return nil, fmt.Errorf("catalog lookup failed: %w", err)
	}

	if item.Title == "" || item.Price <= 0 {
		return nil, fmt.Errorf("catalog item MLB%s missing title or price", itemID)
	}

	price := item.Price
	product := models.NewProduct(fmt.Sprintf("https://produto.mercadolivre.com.br/MLB-%s", itemID))
	product.Title = item.Title
	product.CurrentPrice = &price
	product.Currency = currencySymbol(item.CurrencyID)

	if len(item.Pictures) > 0 {
		if item.Pictures[0].SecureURL != "" {
			product.ImageURL = item.Pictures[0].SecureURL
		} else {
			product.ImageURL = item.Pictures[0].URL
		}
	}

	return product, nil
}
