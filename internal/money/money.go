// Package money holds locale-aware price parsing and formatting helpers.
// Prices on Brazilian marketplace pages use "." as the thousands separator
// and "," as the decimal separator.
package money

import (
	"math"
	"strconv"
	"strings"
)

// ParsePrice parses a Brazilian-formatted price string such as "R$ 1.234,56".
// The second return value is false when the text does not contain a parseable
// amount.
func ParsePrice(text string) (float64, bool) {
	text = strings.ReplaceAll(text, "R$", "")
	text = strings.ReplaceAll(text, "$", "")
	text = strings.TrimSpace(text)

	if text == "" {
		return 0, false
	}

	hasComma := strings.Contains(text, ",")
	hasDot := strings.Contains(text, ".")

	switch {
	case hasComma && hasDot:
		// 1.234,56 -> 1234.56
		text = strings.ReplaceAll(text, ".", "")
		text = strings.ReplaceAll(text, ",", ".")
	case hasComma:
		// 99,90 -> 99.90
		text = strings.ReplaceAll(text, ",", ".")
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}

	return value, true
}

// FormatPrice renders an amount with two decimal places, comma as the decimal
// separator and dot as the thousands separator, prefixed by the currency
// symbol: FormatPrice(1234.56, "R$") == "R$ 1.234,56".
func FormatPrice(amount float64, currency string) string {
	return currency + " " + FormatAmount(amount)
}

// FormatAmount renders the amount alone: FormatAmount(1234.56) == "1.234,56".
func FormatAmount(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	raw := strconv.FormatFloat(amount, 'f', 2, 64)
	intPart, fracPart, _ := strings.Cut(raw, ".")

	var sb strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte('.')
		}
		sb.WriteRune(digit)
	}

	sign := ""
	if negative {
		sign = "-"
	}

	return sign + sb.String() + "," + fracPart
}

// Discount returns the discount percentage between an original and a current
// price, rounded to two decimals. It is zero whenever there is no real
// discount: non-positive original, or current at or above original.
func Discount(original, current float64) float64 {
	if original <= 0 || current >= original {
		return 0
	}

	pct := (original - current) / original * 100
	pct = math.Round(pct*100) / 100
	if pct < 0 {
		return 0
	}

	return pct
}

// Truncate shortens text to at most maxLen characters, ending the result with
// "..." when truncation happened. Counting is rune-based so accented product
// titles are not cut mid-character.
func Truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}

	if maxLen <= 3 {
		return string(runes[:maxLen])
	}

	return string(runes[:maxLen-3]) + "..."
}
