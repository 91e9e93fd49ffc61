package interfaces

import (
	"context"

	"stock-watch/src/models"
)

// -----------------------------------------------------------------------------
// IUpstreamSource fetches from the external market-data provider and maps
// its wire format into domain records. No caching and no retries here;
// both belong to the coordinator.
// -----------------------------------------------------------------------------

type IUpstreamSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchQuote retrieves the current quote for one symbol.
	FetchQuote(ctx context.Context, symbol string) (*models.MQuote, error)

	// -----------------------------------------------------------------------------

	// FetchSearch retrieves symbol matches for a free-text query.
	FetchSearch(ctx context.Context, query string) (*models.MSearchResultSet, error)

	// -----------------------------------------------------------------------------

	// FetchChart retrieves the recent daily series for one symbol.
	FetchChart(ctx context.Context, symbol string) (*models.MChartSeries, error)
}
