package interfaces

import "context"

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for HTTP requests to the provider.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// Get performs a GET request to the specified URL with parameters.
	// Returns the response body as bytes or an error. HTTP 429 surfaces
	// as a ProviderThrottledError so callers can fall back to cache.
	Get(ctx context.Context, url string, params map[string]string) ([]byte, error)
}
