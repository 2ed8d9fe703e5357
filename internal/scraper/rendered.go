package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dlemos/promopost/internal/browser"
	"github.com/dlemos/promopost/internal/models"
	"github.com/dlemos/promopost/internal/money"
	"github.com/playwright-community/playwright-go"
)

// RenderedExtractor reads the product page from a live browser DOM after the
// page's client-side scripts have run. It applies the same selector chains as
// the static extractor, with an XPath large-image lookup first.
type RenderedExtractor struct {
	browser     *browser.Browser
	settleDelay time.Duration
	minTitleLen int
	logger      *slog.Logger
}

func NewRenderedExtractor(b *browser.Browser, settleDelay time.Duration, minTitleLen int, logger *slog.Logger) *RenderedExtractor {
	return &RenderedExtractor{
		browser:     b,
		settleDelay: settleDelay,
		minTitleLen: minTitleLen,
		logger:      logger.With("component", "rendered_extractor"),
	}
}

func (e *RenderedExtractor) Extract(ctx context.Context, url string) (*models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := e.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}

	if _, err := page.WaitForSelector("body", playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(15000),
	}); err != nil {
		e.logger.Warn("body never appeared", "url", url, "error", err)
	}

	// Let the client-side rendering settle before reading the DOM.
	time.Sleep(e.settleDelay)

	product := models.NewProduct(url)

	e.extractTitle(page, product)
	e.extractPrices(page, product)
	e.extractImage(page, product)
	product.RecomputeDiscount()

	e.logger.Info("rendered extraction finished",
		"url", url,
		"hasTitle", product.Title != "",
		"hasPrice", product.CurrentPrice != nil,
		"hasImage", product.ImageURL != "",
	)

	if !product.IsComplete(e.minTitleLen) {
		return nil, fmt.Errorf("rendered extraction incomplete for %s", url)
	}

	return product, nil
}

func (e *RenderedExtractor) extractTitle(page playwright.Page, product *models.Product) {
	for _, selector := range titleSelectors {
		el, err := page.QuerySelector(selector)
		if err != nil || el == nil {
			continue
		}
		text, _ := el.TextContent()
		text = strings.TrimSpace(text)
		if len([]rune(text)) >= e.minTitleLen {
			product.Title = text
			return
		}
	}
}

func (e *RenderedExtractor) extractPrices(page playwright.Page, product *models.Product) {
	for _, selector := range priceSelectors {
		el, err := page.QuerySelector(selector)
		if err != nil || el == nil {
			continue
		}
		text, _ := el.TextContent()
		if price, ok := money.ParsePrice(strings.TrimSpace(text)); ok && price > 0 {
			product.CurrentPrice = &price
			break
		}
	}

	// Fall back to a currency-pattern scan over the rendered markup.
	if product.CurrentPrice == nil {
		if content, err := page.Content(); err == nil {
			for _, m := range currencyPattern.FindAllStringSubmatch(content, -1) {
				if price, ok := money.ParsePrice(m[1]); ok && price > 0 {
					product.CurrentPrice = &price
					break
				}
			}
		}
	}

	for _, selector := range originalPriceSelectors {
		el, err := page.QuerySelector(selector)
		if err != nil || el == nil {
			continue
		}
		text, _ := el.TextContent()
		if price, ok := money.ParsePrice(strings.TrimSpace(text)); ok && price > 0 {
			product.OriginalPrice = &price
			break
		}
	}
}

func (e *RenderedExtractor) extractImage(page playwright.Page, product *models.Product) {
	// Largest image with declared dimensions first, via XPath.
	if src := e.largestDeclaredImage(page); src != "" {
		product.ImageURL = src
		return
	}

	for _, selector := range imageSelectors {
		el, err := page.QuerySelector(selector)
		if err != nil || el == nil {
			continue
		}
		src := firstImageAttr(el)
		if src == "" {
			continue
		}
		src = absoluteImageURL(src)
		lower := strings.ToLower(src)
		for _, keyword := range imageURLKeywords {
			if strings.Contains(lower, keyword) {
				product.ImageURL = src
				return
			}
		}
	}

	if el, err := page.QuerySelector(`meta[property="og:image"]`); err == nil && el != nil {
		if content, err := el.GetAttribute("content"); err == nil && content != "" {
			product.ImageURL = absoluteImageURL(content)
		}
	}
}

func (e *RenderedExtractor) largestDeclaredImage(page playwright.Page) string {
	handles, err := page.QuerySelectorAll("xpath=//img[@width and @height]")
	if err != nil {
		return ""
	}

	largest := ""
	largestSize := 0
	for _, el := range handles {
		src := firstImageAttr(el)
		if src == "" {
			continue
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
			continue
		}

		w, errW := attrInt(el, "width")
		h, errH := attrInt(el, "height")
		if errW != nil || errH != nil {
			continue
		}
		if size := w * h; size > largestSize {
			largestSize = size
			largest = src
		}
	}

	if largest == "" {
		return ""
	}
	return absoluteImageURL(largest)
}

func firstImageAttr(el playwright.ElementHandle) string {
	for _, attr := range imageSrcAttrs {
		if v, err := el.GetAttribute(attr); err == nil && v != "" {
			return v
		}
	}
	return ""
}

func attrInt(el playwright.ElementHandle, name string) (int, error) {
	v, err := el.GetAttribute(name)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(v))
}
