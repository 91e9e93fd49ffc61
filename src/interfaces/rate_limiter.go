package interfaces

// -----------------------------------------------------------------------------
// IRateLimiter gates outbound provider calls. Callers must treat a denial
// as "use cached data", never as "retry until admitted".
// -----------------------------------------------------------------------------

type IRateLimiter interface {

	// -----------------------------------------------------------------------------

	// TryAdmit atomically checks the trailing window and, when below
	// budget, records the call. Returns false on denial.
	TryAdmit() bool

	// -----------------------------------------------------------------------------

	// Remaining returns how many calls are still admissible right now.
	Remaining() int
}
