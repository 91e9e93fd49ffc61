package interfaces

import (
	"context"

	"stock-watch/src/models"
)

// -----------------------------------------------------------------------------
// ICacheCoordinator is what the rest of the application consumes: every
// read goes fast store -> durable store -> upstream, and each answer is
// tagged with the tier that produced it.
// -----------------------------------------------------------------------------

type ICacheCoordinator interface {

	// -----------------------------------------------------------------------------

	// GetQuote returns the current quote for a symbol (case-insensitive).
	GetQuote(ctx context.Context, symbol string) (models.MQuote, models.CacheOrigin, error)

	// -----------------------------------------------------------------------------

	// Search returns symbol matches for a free-text query.
	Search(ctx context.Context, query string) (models.MSearchResultSet, models.CacheOrigin, error)

	// -----------------------------------------------------------------------------

	// GetChart returns the recent daily series for a symbol.
	GetChart(ctx context.Context, symbol string) (models.MChartSeries, models.CacheOrigin, error)

	// -----------------------------------------------------------------------------

	// GetMarketOverview returns quotes for the popular + watched symbols.
	GetMarketOverview(ctx context.Context) (models.MMarketOverview, models.CacheOrigin, error)
}

// -----------------------------------------------------------------------------
// IWatchlistGuard enforces the per-user watchlist invariants in front of
// the persistence collaborator.
// -----------------------------------------------------------------------------

type IWatchlistGuard interface {

	// -----------------------------------------------------------------------------

	// Add inserts (userID, symbol). Fails with AlreadyWatchedError or
	// WatchlistFullError; both are user-correctable.
	Add(userID, symbol string) (models.MWatchlistEntry, error)

	// -----------------------------------------------------------------------------

	// Remove deletes (userID, symbol). Removing an absent entry is a no-op.
	Remove(userID, symbol string) error

	// -----------------------------------------------------------------------------

	// List returns the user's entries in insertion order.
	List(userID string) ([]models.MWatchlistEntry, error)
}
