package scraper

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dlemos/promopost/internal/models"
)

// Plausible bounds for a price found by brute-force pattern matching.
const (
	minPlausiblePrice = 1
	maxPlausiblePrice = 1_000_000
)

// StructuredExtractor reads machine-readable product data embedded in the
// page: JSON-LD product/offer blocks, the preloaded-state script variable,
// and as a last resort key patterns anywhere in script text.
type StructuredExtractor struct {
	minTitleLen int
	logger      *slog.Logger

	preloadedState *regexp.Regexp
	pricePatterns  []*regexp.Regexp
	titlePatterns  []*regexp.Regexp
}

func NewStructuredExtractor(minTitleLen int, logger *slog.Logger) *StructuredExtractor {
	return &StructuredExtractor{
		minTitleLen:    minTitleLen,
		logger:         logger.With("component", "structured_extractor"),
		preloadedState: regexp.MustCompile(`(?s)window\.__PRELOADED_STATE__\s*=\s*(\{.*?\});`),
		pricePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)"price"\s*:\s*(\d+(?:\.\d+)?)`),
			regexp.MustCompile(`(?i)"amount"\s*:\s*(\d+(?:\.\d+)?)`),
			regexp.MustCompile(`(?i)"value"\s*:\s*(\d+(?:\.\d+)?)`),
			regexp.MustCompile(`(?i)price["']?\s*:\s*["']?(\d+(?:\.\d+)?)`),
		},
		titlePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)"title"\s*:\s*"([^"]+)"`),
			regexp.MustCompile(`(?i)"name"\s*:\s*"([^"]+)"`),
			regexp.MustCompile(`(?i)"productName"\s*:\s*"([^"]+)"`),
		},
	}
}

// Candidate key paths into the preloaded-state object, tried in order.
var preloadedStatePaths = [][]string{
	{"initialState", "components", "product"},
	{"initialState", "product"},
	{"product"},
	{"item", "product"},
}

// Extract fills a product record from embedded JSON. A field populated by a
// higher-priority pattern is never overwritten by a later one. Returns nil
// when neither title nor price could be found.
func (e *StructuredExtractor) Extract(doc *goquery.Document, url string) *models.Product {
	product := models.NewProduct(url)

	e.extractJSONLD(doc, product)
	e.extractPreloadedState(doc, product)
	e.extractScriptPatterns(doc, product)

	if product.Title == "" && product.CurrentPrice == nil {
		return nil
	}

	return product
}

func (e *StructuredExtractor) extractJSONLD(doc *goquery.Document, product *models.Product) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		var data map[string]any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}

		typ, _ := data["@type"].(string)
		if typ != "Product" && typ != "Offer" {
			return
		}

		if name, ok := data["name"].(string); ok && product.Title == "" {
			product.Title = name
		}

		if img := jsonLDImage(data["image"]); img != "" && product.ImageURL == "" {
			product.ImageURL = img
		}

		offers := data["offers"]
		if list, ok := offers.([]any); ok && len(list) > 0 {
			offers = list[0]
		}
		if offer, ok := offers.(map[string]any); ok {
			if price, ok := asFloat(offer["price"]); ok && product.CurrentPrice == nil {
				product.CurrentPrice = &price
			}
			if cur, ok := offer["priceCurrency"].(string); ok && cur != "" {
				product.Currency = currencySymbol(cur)
			}
		}
	})
}

func (e *StructuredExtractor) extractPreloadedState(doc *goquery.Document, product *models.Product) {
	doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "__PRELOADED_STATE__") {
			return true
		}

		jsonStr := ""
		if m := e.preloadedState.FindStringSubmatch(text); len(m) > 1 {
			jsonStr = m[1]
		} else {
			start := strings.Index(text, "{")
			end := strings.LastIndex(text, "}")
			if start < 0 || end <= start {
				return true
			}
			jsonStr = text[start : end+1]
		}

		var data map[string]any
		if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
			return true
		}

		for _, path := range preloadedStatePaths {
			node := lookupPath(data, path)
			if node == nil {
				continue
			}
			e.fillFromStateNode(node, product)
			break
		}

		return false
	})
}

func (e *StructuredExtractor) fillFromStateNode(node map[string]any, product *models.Product) {
	if title, ok := node["title"].(string); ok && product.Title == "" {
		product.Title = title
	}

	if pics, ok := node["pictures"].([]any); ok && len(pics) > 0 && product.ImageURL == "" {
		switch first := pics[0].(type) {
		case map[string]any:
			if u, ok := first["url"].(string); ok {
				product.ImageURL = u
			}
		case string:
			product.ImageURL = first
		}
	}

	if product.CurrentPrice == nil {
		switch price := node["price"].(type) {
		case float64:
			product.CurrentPrice = &price
		case map[string]any:
			if amount, ok := asFloat(price["amount"]); ok {
				product.CurrentPrice = &amount
			}
		}
	}
}

func (e *StructuredExtractor) extractScriptPatterns(doc *goquery.Document, product *models.Product) {
	doc.Find("script").Each(func(i int, s *goquery.Selection) {
		text := s.Text()
		if text == "" {
			return
		}

		if product.CurrentPrice == nil {
			for _, pattern := range e.pricePatterns {
				m := pattern.FindStringSubmatch(text)
				if len(m) < 2 {
					continue
				}
				value, err := strconv.ParseFloat(m[1], 64)
				if err != nil || value < minPlausiblePrice || value > maxPlausiblePrice {
					continue
				}
				product.CurrentPrice = &value
				break
			}
		}

		if product.Title == "" {
			for _, pattern := range e.titlePatterns {
				m := pattern.FindStringSubmatch(text)
				if len(m) < 2 {
					continue
				}
				title := m[1]
				if len([]rune(title)) < e.minTitleLen || strings.Contains(strings.ToLower(title), "mercado livre") {
					continue
				}
				product.Title = title
				break
			}
		}
	})
}

func jsonLDImage(v any) string {
	if list, ok := v.([]any); ok && len(list) > 0 {
		v = list[0]
	}
	switch img := v.(type) {
	case string:
		return img
	case map[string]any:
		if u, ok := img["url"].(string); ok {
			return u
		}
		if u, ok := img["@id"].(string); ok {
			return u
		}
	}
	return ""
}

func lookupPath(data map[string]any, path []string) map[string]any {
	current := data
	for _, key := range path {
		next, ok := current[key].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

func asFloat(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case string:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func currencySymbol(code string) string {
	if code == "BRL" || code == "" {
		return "R$"
	}
	return code
}
