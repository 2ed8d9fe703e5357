package scraper

// Ordered selector chains, most specific first. The same chains drive both
// the static DOM extractor and the rendered-browser extractor.

var titleSelectors = []string{
	"h1.ui-pdp-title",
	"h1[class*='ui-pdp-title']",
	"h1[class*='title']",
	"h1.andes-visually-hidden",
	".ui-pdp-title",
	"[data-testid='title']",
	"h1",
}

var priceSelectors = []string{
	".ui-pdp-price__second-line .andes-money-amount__fraction",
	".ui-pdp-price .andes-money-amount__fraction",
	"[class*='price'] [class*='fraction']",
	".andes-money-amount__fraction",
	"[data-testid='price']",
	".price-tag-fraction",
}

var originalPriceSelectors = []string{
	".ui-pdp-price__original .andes-money-amount__fraction",
	".andes-money-amount--previous-price .andes-money-amount__fraction",
	"[class*='price'] [class*='original'] [class*='fraction']",
	"s .andes-money-amount__fraction",
	"del .andes-money-amount__fraction",
	"[class*='strikethrough'] [class*='fraction']",
}

var imageSelectors = []string{
	"img.ui-pdp-image",
	"img[class*='ui-pdp-image']",
	"img[data-zoom]",
	"img[class*='gallery']",
	".ui-pdp-image img",
	".ui-pdp-gallery img",
	"img[alt*='produto']",
	"img[alt*='product']",
}

// Attributes that may carry the real image source on lazy-loaded pages.
var imageSrcAttrs = []string{"src", "data-src", "data-zoom", "data-lazy-src"}

// Keywords that mark a URL as a plausible product image.
var imageURLKeywords = []string{"mlb", "produto", "product", "item", "o-l", "o-f"}
