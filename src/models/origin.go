package models

// CacheOrigin tags where a response was served from. Useful for
// observability and for asserting cache behavior in tests.
type CacheOrigin string

const (
	OriginFastHit       CacheOrigin = "FAST_HIT"
	OriginDurableHit    CacheOrigin = "DURABLE_HIT"
	OriginUpstreamFetch CacheOrigin = "UPSTREAM_FETCH"
	OriginStaleFallback CacheOrigin = "STALE_FALLBACK"
)
