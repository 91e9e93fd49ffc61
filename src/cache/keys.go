package cache

import (
	"fmt"
	"strings"
)

// Cache key fingerprints. One key space shared by both store tiers.
const (
	overviewKey  = "overview"
	maxSymbolLen = 10
)

// -----------------------------------------------------------------------------

// NormalizeSymbol uppercases and validates a user-supplied symbol.
// Symbols are case-insensitive at the API surface and uppercase everywhere
// inside the system.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" || len(s) > maxSymbolLen {
		return "", fmt.Errorf("invalid symbol %q", symbol)
	}
	return s, nil
}

// -----------------------------------------------------------------------------

// NormalizeQuery lowercases and trims a search query so that equivalent
// queries share one cache entry.
func NormalizeQuery(query string) (string, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return "", fmt.Errorf("empty search query")
	}
	return q, nil
}

// -----------------------------------------------------------------------------

func QuoteKey(symbol string) string {
	return "quote:" + symbol
}

func SearchKey(query string) string {
	return "search:" + query
}

func ChartKey(symbol string) string {
	return "chart:" + symbol
}

func OverviewKey() string {
	return overviewKey
}
