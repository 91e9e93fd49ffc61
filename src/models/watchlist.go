package models

import "time"

// MWatchlistEntry ties a symbol to a user. (UserID, Symbol) is unique.
type MWatchlistEntry struct {
	UserID  string    `json:"user_id"`
	Symbol  string    `json:"symbol"`
	AddedAt time.Time `json:"added_at"`
}
