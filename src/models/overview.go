package models

// MMarketOverview is the quote snapshot of the popular + watched symbols.
type MMarketOverview struct {
	Quotes      []MQuote `json:"data"`
	GeneratedAt int64    `json:"generated_at"`
}
