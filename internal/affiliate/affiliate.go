// Package affiliate derives partner tracking links from product URLs. Pure
// string and query-parameter transformations, no network calls.
package affiliate

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dlemos/promopost/internal/scraper"
)

// ProductID returns the catalog identifier in canonical MLB-<digits> form,
// or "" when the URL carries none.
func ProductID(productURL string) string {
	id := scraper.ExtractItemID(productURL)
	if id == "" {
		return ""
	}
	return "MLB-" + id
}

// Link combines a partner social-code URL with the product identifier parsed
// from productURL. The social code's own tracking parameters are preserved;
// the product reference rides along as the mlm parameter.
func Link(productURL, socialCode string) (string, error) {
	id := scraper.ExtractItemID(productURL)
	if id == "" {
		return "", fmt.Errorf("could not extract product id from %s", productURL)
	}

	parsed, err := url.Parse(strings.TrimSpace(socialCode))
	if err != nil {
		return "", fmt.Errorf("invalid social code url: %w", err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("social code is not an absolute url: %s", socialCode)
	}

	query := parsed.Query()
	query.Set("mlm", id)
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}
