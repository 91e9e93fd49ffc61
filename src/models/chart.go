package models

// MChartPoint is one daily candle. Date format is YYYY-MM-DD.
type MChartPoint struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// MChartSeries holds the daily series for a symbol, ascending by date.
type MChartSeries struct {
	Symbol string        `json:"symbol"`
	Points []MChartPoint `json:"data"`
}
