package interfaces

import "time"

// -----------------------------------------------------------------------------
// IFastStore is the volatile L1 cache. Implementations are allowed to lose
// data at any time, so every operation degrades to a miss instead of an
// error. Payloads are opaque JSON blobs owned by the coordinator.
// -----------------------------------------------------------------------------

type IFastStore interface {

	// -----------------------------------------------------------------------------

	// Get returns the payload and the time it was stored. An expired or
	// missing entry reports found=false.
	Get(key string) (payload []byte, storedAt time.Time, found bool)

	// -----------------------------------------------------------------------------

	// Put stores the payload under key with a per-entry TTL.
	Put(key string, payload []byte, ttl time.Duration)

	// -----------------------------------------------------------------------------

	// Ping reports whether the store is reachable (health endpoint).
	Ping() error
}

// -----------------------------------------------------------------------------
// IDurableStore is the persistent L2 cache: one row per key, upserted on
// every successful upstream fetch, surviving restarts.
// -----------------------------------------------------------------------------

type IDurableStore interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// Get returns the most recent payload for key with its update time.
	// found=false means the key was never written.
	Get(key string) (payload []byte, updatedAt time.Time, found bool, err error)

	// -----------------------------------------------------------------------------

	// Put upserts the payload for key, stamping it with the current time.
	Put(key string, payload []byte) error

	// -----------------------------------------------------------------------------

	// Ping reports whether the store is reachable (health endpoint).
	Ping() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
