package scraper

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dlemos/promopost/internal/models"
	"github.com/dlemos/promopost/internal/money"
)

var (
	currencyPattern      = regexp.MustCompile(`R\$\s*(\d{1,3}(?:\.\d{3})*(?:,\d{2})?)`)
	shortCurrencyPattern = regexp.MustCompile(`R\$\s*(\d+(?:,\d{2})?)`)
	wasPricePattern      = regexp.MustCompile(`(?i)de\s+R\$\s*(\d{1,3}(?:\.\d{3})*(?:,\d{2})?)`)
	titleSuffixPattern   = regexp.MustCompile(`(?i)\s*[-|]\s*Mercado Livre.*$`)
)

// DOMExtractor pulls product fields out of a parsed document with ordered
// CSS-selector chains. Fill only touches fields the caller has not populated
// yet, so it can run after the structured extractor.
type DOMExtractor struct {
	minTitleLen int
	logger      *slog.Logger
}

func NewDOMExtractor(minTitleLen int, logger *slog.Logger) *DOMExtractor {
	return &DOMExtractor{
		minTitleLen: minTitleLen,
		logger:      logger.With("component", "dom_extractor"),
	}
}

// Fill walks the per-field selector chains and fills missing fields on the
// record. First non-empty, length-validated match wins.
func (e *DOMExtractor) Fill(doc *goquery.Document, product *models.Product) {
	if product.Title == "" {
		product.Title = e.extractTitle(doc)
	}

	if product.ImageURL == "" {
		product.ImageURL = e.extractImage(doc)
	}

	if product.CurrentPrice == nil {
		if price, ok := e.extractPrice(doc); ok {
			product.CurrentPrice = &price
		}
	}

	if product.OriginalPrice == nil {
		if price, ok := e.extractOriginalPrice(doc); ok {
			product.OriginalPrice = &price
		}
	}
}

// FillAggressive is the fallback pass over page metadata and raw text, used
// only for fields the selector chains could not resolve.
func (e *DOMExtractor) FillAggressive(doc *goquery.Document, product *models.Product) {
	if product.Title == "" {
		product.Title = e.extractTitleAggressive(doc)
	}

	if product.ImageURL == "" {
		product.ImageURL = e.extractImageAggressive(doc)
	}

	if product.CurrentPrice == nil {
		if price, ok := e.extractPriceAggressive(doc); ok {
			product.CurrentPrice = &price
		}
	}
}

func (e *DOMExtractor) extractTitle(doc *goquery.Document) string {
	for _, selector := range titleSelectors {
		title := strings.TrimSpace(doc.Find(selector).First().Text())
		if len([]rune(title)) >= e.minTitleLen {
			return title
		}
	}
	return ""
}

func (e *DOMExtractor) extractTitleAggressive(doc *goquery.Document) string {
	if content, exists := doc.Find(`meta[property="og:title"]`).Attr("content"); exists {
		title := strings.TrimSpace(content)
		if title != "" {
			return title
		}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	title = titleSuffixPattern.ReplaceAllString(title, "")
	if len([]rune(title)) >= e.minTitleLen {
		return title
	}

	title = strings.TrimSpace(doc.Find("h1").First().Text())
	if len([]rune(title)) >= e.minTitleLen {
		return title
	}

	return ""
}

func (e *DOMExtractor) extractImage(doc *goquery.Document) string {
	for _, selector := range imageSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		for _, attr := range imageSrcAttrs {
			if src, exists := sel.Attr(attr); exists && src != "" {
				return absoluteImageURL(src)
			}
		}
	}

	// Any image whose URL looks product-like.
	found := ""
	doc.Find("img").EachWithBreak(func(i int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if src == "" {
			src, _ = s.Attr("data-src")
		}
		if src == "" {
			return true
		}
		lower := strings.ToLower(src)
		for _, keyword := range imageURLKeywords {
			if strings.Contains(lower, keyword) {
				found = absoluteImageURL(src)
				return false
			}
		}
		return true
	})

	return found
}

// extractImageAggressive prefers the og:image meta tag, then the largest
// keyword-matching image by declared width*height.
func (e *DOMExtractor) extractImageAggressive(doc *goquery.Document) string {
	if content, exists := doc.Find(`meta[property="og:image"]`).Attr("content"); exists && content != "" {
		return absoluteImageURL(content)
	}

	largest := ""
	largestSize := 0
	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		var src string
		for _, attr := range imageSrcAttrs {
			if v, exists := s.Attr(attr); exists && v != "" {
				src = v
				break
			}
		}
		if src == "" {
			return
		}

		lower := strings.ToLower(src)
		matched := false
		for _, keyword := range imageURLKeywords {
			if strings.Contains(lower, keyword) {
				matched = true
				break
			}
		}
		if !matched {
			return
		}

		w, errW := strconv.Atoi(s.AttrOr("width", ""))
		h, errH := strconv.Atoi(s.AttrOr("height", ""))
		if errW == nil && errH == nil {
			if size := w * h; size > largestSize {
				largestSize = size
				largest = src
			}
		} else if largest == "" {
			largest = src
		}
	})

	if largest == "" {
		return ""
	}
	return absoluteImageURL(largest)
}

func (e *DOMExtractor) extractPrice(doc *goquery.Document) (float64, bool) {
	for _, selector := range priceSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		if price, ok := money.ParsePrice(text); ok && price > 0 {
			return price, true
		}
	}

	if m := currencyPattern.FindStringSubmatch(doc.Text()); len(m) > 1 {
		if price, ok := money.ParsePrice(m[1]); ok && price > 0 {
			return price, true
		}
	}

	return 0, false
}

func (e *DOMExtractor) extractPriceAggressive(doc *goquery.Document) (float64, bool) {
	if content, exists := doc.Find(`meta[property="product:price:amount"]`).Attr("content"); exists {
		if price, err := strconv.ParseFloat(content, 64); err == nil && price > 0 {
			return price, true
		}
	}

	text := doc.Text()
	for _, pattern := range []*regexp.Regexp{currencyPattern, shortCurrencyPattern} {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			if price, ok := money.ParsePrice(m[1]); ok && price > 0 {
				return price, true
			}
		}
	}

	return 0, false
}

func (e *DOMExtractor) extractOriginalPrice(doc *goquery.Document) (float64, bool) {
	for _, selector := range originalPriceSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		if price, ok := money.ParsePrice(text); ok && price > 0 {
			return price, true
		}
	}

	if m := wasPricePattern.FindStringSubmatch(doc.Text()); len(m) > 1 {
		if price, ok := money.ParsePrice(m[1]); ok && price > 0 {
			return price, true
		}
	}

	return 0, false
}
