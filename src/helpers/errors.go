package helpers

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type StockWatchError struct {
	Message string
	Cause   error
}

func (e *StockWatchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *StockWatchError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As assertions.
// None of these is process-fatal; all are scoped to a single request.

// UpstreamUnavailableError: no cached value exists and the provider is
// unreachable or denied. Retryable by the caller.
type UpstreamUnavailableError struct{ StockWatchError }

// SymbolNotFoundError: the provider definitively does not know the symbol.
// Never cached.
type SymbolNotFoundError struct{ StockWatchError }

// ProviderThrottledError: the provider itself signaled throttling. Distinct
// from a local rate-limit denial; always converted into a stale fallback
// before it could surface.
type ProviderThrottledError struct{ StockWatchError }

// MalformedResponseError: the provider answered with something we cannot
// parse. Logged and treated as upstream-unavailable for that call.
type MalformedResponseError struct{ StockWatchError }

// NetworkError: transport failure or timeout talking to the provider.
type NetworkError struct{ StockWatchError }

// WatchlistFullError: the user already holds the maximum number of entries.
type WatchlistFullError struct{ StockWatchError }

// AlreadyWatchedError: (user, symbol) is already on the watchlist.
type AlreadyWatchedError struct{ StockWatchError }

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewUpstreamUnavailable(msg string, cause error) error {
	return &UpstreamUnavailableError{StockWatchError{Message: msg, Cause: cause}}
}

func NewSymbolNotFound(symbol string) error {
	return &SymbolNotFoundError{StockWatchError{Message: fmt.Sprintf("symbol %q not found", symbol)}}
}

func NewProviderThrottled(msg string) error {
	return &ProviderThrottledError{StockWatchError{Message: msg}}
}

func NewMalformedResponse(msg string, cause error) error {
	return &MalformedResponseError{StockWatchError{Message: msg, Cause: cause}}
}

func NewNetworkError(msg string, cause error) error {
	return &NetworkError{StockWatchError{Message: msg, Cause: cause}}
}

func NewWatchlistFull(max int) error {
	return &WatchlistFullError{StockWatchError{Message: fmt.Sprintf("watchlist limit of %d reached", max)}}
}

func NewAlreadyWatched(symbol string) error {
	return &AlreadyWatchedError{StockWatchError{Message: fmt.Sprintf("%s already in watchlist", symbol)}}
}

// -----------------------------------------------------------------------------
// Predicates
// -----------------------------------------------------------------------------

func IsUpstreamUnavailable(err error) bool {
	var e *UpstreamUnavailableError
	return errors.As(err, &e)
}

func IsSymbolNotFound(err error) bool {
	var e *SymbolNotFoundError
	return errors.As(err, &e)
}

func IsProviderThrottled(err error) bool {
	var e *ProviderThrottledError
	return errors.As(err, &e)
}

func IsMalformedResponse(err error) bool {
	var e *MalformedResponseError
	return errors.As(err, &e)
}

func IsNetworkError(err error) bool {
	var e *NetworkError
	return errors.As(err, &e)
}

func IsWatchlistFull(err error) bool {
	var e *WatchlistFullError
	return errors.As(err, &e)
}

func IsAlreadyWatched(err error) bool {
	var e *AlreadyWatchedError
	return errors.As(err, &e)
}
