package watchlist

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-watch/src/helpers"
	"stock-watch/src/logger"
	"stock-watch/src/models"
)

// -----------------------------------------------------------------------------
// Fake store
// -----------------------------------------------------------------------------

type fakeStore struct {
	mu      sync.Mutex
	entries []models.MWatchlistEntry
}

func (f *fakeStore) List(userID string) ([]models.MWatchlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.MWatchlistEntry, 0)
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) Count(userID string) (int, error) {
	list, _ := f.List(userID)
	return len(list), nil
}

func (f *fakeStore) Exists(userID, symbol string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.UserID == userID && e.Symbol == symbol {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Insert(entry models.MWatchlistEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeStore) Delete(userID, symbol string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.entries {
		if e.UserID == userID && e.Symbol == symbol {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) DistinctSymbols() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, e := range f.entries {
		if _, dup := seen[e.Symbol]; !dup {
			seen[e.Symbol] = struct{}{}
			out = append(out, e.Symbol)
		}
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func newTestGuard(maxSize int) (*Guard, *fakeStore) {
	cfg := &models.MConfig{Watchlist: models.MWatchlistConfig{MaxSize: maxSize}}
	store := &fakeStore{}
	return NewGuard(cfg, store, logger.NewLogger("ERROR", "test")), store
}

// -----------------------------------------------------------------------------
// Tests
// -----------------------------------------------------------------------------

func TestAddNormalizesAndLists(t *testing.T) {
	g, _ := newTestGuard(50)

	entry, err := g.Add("u1", " aapl ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", entry.Symbol)

	list, err := g.List("u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "AAPL", list[0].Symbol)
}

// -----------------------------------------------------------------------------

func TestDuplicateAddFails(t *testing.T) {
	g, _ := newTestGuard(50)

	_, err := g.Add("u1", "AAPL")
	require.NoError(t, err)

	_, err = g.Add("u1", "aapl")
	require.Error(t, err)
	assert.True(t, helpers.IsAlreadyWatched(err))

	// Another user may watch the same symbol.
	_, err = g.Add("u2", "AAPL")
	assert.NoError(t, err)
}

// -----------------------------------------------------------------------------

func TestSizeCapEnforced(t *testing.T) {
	g, _ := newTestGuard(50)

	for i := 0; i < 50; i++ {
		_, err := g.Add("u1", fmt.Sprintf("S%d", i))
		require.NoError(t, err)
	}

	_, err := g.Add("u1", "ONEMORE")
	require.Error(t, err)
	assert.True(t, helpers.IsWatchlistFull(err))

	// Removing one entry frees a slot.
	require.NoError(t, g.Remove("u1", "S0"))
	_, err = g.Add("u1", "ONEMORE")
	assert.NoError(t, err)
}

// -----------------------------------------------------------------------------

func TestRemoveIsIdempotent(t *testing.T) {
	g, _ := newTestGuard(50)

	require.NoError(t, g.Remove("u1", "NEVERADDED"))

	_, err := g.Add("u1", "AAPL")
	require.NoError(t, err)
	require.NoError(t, g.Remove("u1", "AAPL"))
	require.NoError(t, g.Remove("u1", "AAPL"))

	list, err := g.List("u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

// -----------------------------------------------------------------------------

func TestConcurrentAddsRespectCap(t *testing.T) {
	g, store := newTestGuard(10)

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g.Add("u1", fmt.Sprintf("S%d", i))
		}(i)
	}
	wg.Wait()

	count, err := store.Count("u1")
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}

// -----------------------------------------------------------------------------

func TestAddStampsTime(t *testing.T) {
	g, _ := newTestGuard(50)

	fixed := time.Unix(1_700_000_000, 0)
	g.SetClock(func() time.Time { return fixed })

	entry, err := g.Add("u1", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, fixed, entry.AddedAt)
}
