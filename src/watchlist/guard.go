package watchlist

import (
	"sync"
	"time"

	"stock-watch/src/cache"
	"stock-watch/src/helpers"
	"stock-watch/src/interfaces"
	"stock-watch/src/logger"
	"stock-watch/src/models"
)

// -----------------------------------------------------------------------------
// Guard enforces the watchlist policy in front of the store: per-user size
// cap, no duplicate pairs, idempotent removal. Check-then-insert for one
// user runs under that user's mutex, so two concurrent adds cannot both
// squeeze past the cap.
// -----------------------------------------------------------------------------

type Guard struct {
	Config *models.MConfig
	Store  interfaces.IWatchlistStore
	Logger *logger.Logger

	mu    sync.Mutex
	users map[string]*sync.Mutex
	now   func() time.Time
}

// -----------------------------------------------------------------------------

func NewGuard(cfg *models.MConfig, store interfaces.IWatchlistStore, log *logger.Logger) *Guard {
	return &Guard{
		Config: cfg,
		Store:  store,
		Logger: log,
		users:  make(map[string]*sync.Mutex),
		now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

// Add appends a symbol to the user's watchlist. Duplicate adds and adds
// beyond the size cap fail with typed errors the API layer maps to 409.
func (g *Guard) Add(userID, symbol string) (models.MWatchlistEntry, error) {
	var entry models.MWatchlistEntry

	sym, err := cache.NormalizeSymbol(symbol)
	if err != nil {
		return entry, err
	}

	lock := g.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	exists, err := g.Store.Exists(userID, sym)
	if err != nil {
		return entry, err
	}
	if exists {
		return entry, helpers.NewAlreadyWatched(sym)
	}

	count, err := g.Store.Count(userID)
	if err != nil {
		return entry, err
	}
	if count >= g.Config.Watchlist.MaxSize {
		return entry, helpers.NewWatchlistFull(g.Config.Watchlist.MaxSize)
	}

	entry = models.MWatchlistEntry{
		UserID:  userID,
		Symbol:  sym,
		AddedAt: g.now(),
	}
	if err := g.Store.Insert(entry); err != nil {
		return models.MWatchlistEntry{}, err
	}

	g.Logger.Debug("Watchlist add %s for user %s (%d/%d)", sym, userID, count+1, g.Config.Watchlist.MaxSize)
	return entry, nil
}

// -----------------------------------------------------------------------------

// Remove deletes the pair if present. Removing an absent symbol is not an
// error; the end state is the same either way.
func (g *Guard) Remove(userID, symbol string) error {
	sym, err := cache.NormalizeSymbol(symbol)
	if err != nil {
		return err
	}

	lock := g.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	removed, err := g.Store.Delete(userID, sym)
	if err != nil {
		return err
	}
	if removed {
		g.Logger.Debug("Watchlist remove %s for user %s", sym, userID)
	}
	return nil
}

// -----------------------------------------------------------------------------

// List returns the user's entries in insertion order.
func (g *Guard) List(userID string) ([]models.MWatchlistEntry, error) {
	return g.Store.List(userID)
}

// -----------------------------------------------------------------------------

func (g *Guard) userLock(userID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()

	lock, ok := g.users[userID]
	if !ok {
		lock = &sync.Mutex{}
		g.users[userID] = lock
	}
	return lock
}

// -----------------------------------------------------------------------------

// SetClock replaces the time source for tests.
func (g *Guard) SetClock(now func() time.Time) {
	g.now = now
}
