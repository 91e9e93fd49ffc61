package models

// MSearchResult is one row of a symbol search, in provider relevance order.
type MSearchResult struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Region   string `json:"region"`
	Currency string `json:"currency"`
}

// MSearchResultSet keeps the normalized query together with its matches.
type MSearchResultSet struct {
	Query   string          `json:"query"`
	Results []MSearchResult `json:"results"`
}
