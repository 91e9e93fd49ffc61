package models

// MQuote represents a single stock quote as served to clients.
// TradingDay is the upstream trading-day stamp, FetchedAt the local unix
// time we received it.
type MQuote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent string  `json:"change_percent"`
	Volume        int64   `json:"volume"`
	TradingDay    string  `json:"timestamp"`
	FetchedAt     int64   `json:"fetched_at"`
}
