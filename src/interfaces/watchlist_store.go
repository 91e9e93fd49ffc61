package interfaces

import "stock-watch/src/models"

// -----------------------------------------------------------------------------
// IWatchlistStore is the persistence collaborator behind the watchlist
// guard. It only moves rows; the size limit and duplicate policy live in
// the guard.
// -----------------------------------------------------------------------------

type IWatchlistStore interface {

	// -----------------------------------------------------------------------------

	// List returns the user's entries ordered by AddedAt ascending.
	List(userID string) ([]models.MWatchlistEntry, error)

	// -----------------------------------------------------------------------------

	// Count returns the number of entries for the user.
	Count(userID string) (int, error)

	// -----------------------------------------------------------------------------

	// Exists reports whether (userID, symbol) is already present.
	Exists(userID, symbol string) (bool, error)

	// -----------------------------------------------------------------------------

	// Insert adds the pair. The store enforces (userID, symbol) uniqueness.
	Insert(entry models.MWatchlistEntry) error

	// -----------------------------------------------------------------------------

	// Delete removes the pair and reports whether a row was removed.
	Delete(userID, symbol string) (bool, error)

	// -----------------------------------------------------------------------------

	// DistinctSymbols returns every symbol watched by at least one user.
	// Feeds the market overview and the background refresher.
	DistinctSymbols() ([]string, error)
}
