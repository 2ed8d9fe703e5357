package scraper

import "regexp"

// Accepted identifier shapes: MLB-4049279695, MLB4049279695, /p/MLB4049279695
// and the produto.mercadolivre.com.br host form.
var itemIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)produto\.mercadolivre\.com\.br/MLB-?(\d+)`),
	regexp.MustCompile(`(?i)/p/MLB-?(\d+)`),
	regexp.MustCompile(`(?i)MLB-(\d+)`),
	regexp.MustCompile(`(?i)MLB(\d+)`),
}

// ExtractItemID pulls the numeric catalog identifier out of a product URL.
// Returns "" when no accepted shape matches.
func ExtractItemID(url string) string {
	for _, pattern := range itemIDPatterns {
		if m := pattern.FindStringSubmatch(url); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}
