package resolver

import (
	"strconv"
	"strings"
)

// ParsePrice extracts a numeric price from an element's text: currency symbol
// and thousands separators stripped, whitespace trimmed. Returns nil when the
// text does not parse as a price.
func ParsePrice(text string) *float64 {
	cleaned := strings.ReplaceAll(text, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &price
}
