package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-watch/src/helpers"
	"stock-watch/src/logger"
	"stock-watch/src/models"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type fakeCoordinator struct {
	quote    models.MQuote
	origin   models.CacheOrigin
	quoteErr error
}

func (f *fakeCoordinator) GetQuote(ctx context.Context, symbol string) (models.MQuote, models.CacheOrigin, error) {
	return f.quote, f.origin, f.quoteErr
}

func (f *fakeCoordinator) Search(ctx context.Context, query string) (models.MSearchResultSet, models.CacheOrigin, error) {
	return models.MSearchResultSet{Query: query, Results: []models.MSearchResult{{Symbol: "AAPL"}}}, f.origin, nil
}

func (f *fakeCoordinator) GetChart(ctx context.Context, symbol string) (models.MChartSeries, models.CacheOrigin, error) {
	return models.MChartSeries{Symbol: symbol, Points: []models.MChartPoint{}}, f.origin, nil
}

func (f *fakeCoordinator) GetMarketOverview(ctx context.Context) (models.MMarketOverview, models.CacheOrigin, error) {
	return models.MMarketOverview{Quotes: []models.MQuote{f.quote}}, f.origin, nil
}

// -----------------------------------------------------------------------------

type fakeGuard struct {
	addErr  error
	entries []models.MWatchlistEntry
	lastUID string
}

func (f *fakeGuard) Add(userID, symbol string) (models.MWatchlistEntry, error) {
	f.lastUID = userID
	if f.addErr != nil {
		return models.MWatchlistEntry{}, f.addErr
	}
	entry := models.MWatchlistEntry{UserID: userID, Symbol: strings.ToUpper(symbol), AddedAt: time.Now()}
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeGuard) Remove(userID, symbol string) error {
	f.lastUID = userID
	return nil
}

func (f *fakeGuard) List(userID string) ([]models.MWatchlistEntry, error) {
	f.lastUID = userID
	return f.entries, nil
}

// -----------------------------------------------------------------------------

type fakeFast struct{ err error }

func (f *fakeFast) Get(key string) ([]byte, time.Time, bool)          { return nil, time.Time{}, false }
func (f *fakeFast) Put(key string, payload []byte, ttl time.Duration) {}
func (f *fakeFast) Ping() error                                       { return f.err }

type fakeDurable struct{ err error }

func (f *fakeDurable) Initialize() error                            { return nil }
func (f *fakeDurable) Get(key string) ([]byte, time.Time, bool, error) { return nil, time.Time{}, false, nil }
func (f *fakeDurable) Put(key string, payload []byte) error         { return nil }
func (f *fakeDurable) Ping() error                                  { return f.err }
func (f *fakeDurable) Close() error                                 { return nil }

type fakeLimiter struct{ remaining int }

func (f *fakeLimiter) TryAdmit() bool { return f.remaining > 0 }
func (f *fakeLimiter) Remaining() int { return f.remaining }

// -----------------------------------------------------------------------------

func newTestServer(coord *fakeCoordinator, guard *fakeGuard) *APIServer {
	cfg := &models.MConfig{Name: "test", Host: "127.0.0.1", Port: 8000, LogLevel: "ERROR"}
	return NewAPIServer(cfg, coord, guard, &fakeFast{}, &fakeDurable{}, &fakeLimiter{remaining: 5}, logger.NewLogger("ERROR", "test"))
}

func doRequest(s *APIServer, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

// -----------------------------------------------------------------------------
// Tests
// -----------------------------------------------------------------------------

func TestGetStockIncludesOrigin(t *testing.T) {
	coord := &fakeCoordinator{
		quote:  models.MQuote{Symbol: "AAPL", Price: 187.44},
		origin: models.OriginFastHit,
	}
	s := newTestServer(coord, &fakeGuard{})

	w := doRequest(s, http.MethodGet, "/api/stock/AAPL", "", nil)
	require.Equal(t, 200, w.Code)

	var resp struct {
		Quote  models.MQuote `json:"quote"`
		Origin string        `json:"origin"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "FAST_HIT", resp.Origin)
	assert.Equal(t, 187.44, resp.Quote.Price)
}

// -----------------------------------------------------------------------------

func TestUnknownSymbolIs404(t *testing.T) {
	coord := &fakeCoordinator{quoteErr: helpers.NewSymbolNotFound("NOPE")}
	s := newTestServer(coord, &fakeGuard{})

	w := doRequest(s, http.MethodGet, "/api/stock/NOPE", "", nil)
	assert.Equal(t, 404, w.Code)
}

// -----------------------------------------------------------------------------

func TestExhaustedBudgetIs503(t *testing.T) {
	coord := &fakeCoordinator{quoteErr: helpers.NewUpstreamUnavailable("rate limit budget exhausted", nil)}
	s := newTestServer(coord, &fakeGuard{})

	w := doRequest(s, http.MethodGet, "/api/stock/AAPL", "", nil)
	assert.Equal(t, 503, w.Code)
}

// -----------------------------------------------------------------------------

func TestWatchlistAddAndConflicts(t *testing.T) {
	guard := &fakeGuard{}
	s := newTestServer(&fakeCoordinator{}, guard)

	w := doRequest(s, http.MethodPost, "/api/watchlist", `{"symbol":"aapl"}`, nil)
	assert.Equal(t, 201, w.Code)

	guard.addErr = helpers.NewAlreadyWatched("AAPL")
	w = doRequest(s, http.MethodPost, "/api/watchlist", `{"symbol":"aapl"}`, nil)
	assert.Equal(t, 409, w.Code)

	guard.addErr = helpers.NewWatchlistFull(50)
	w = doRequest(s, http.MethodPost, "/api/watchlist", `{"symbol":"msft"}`, nil)
	assert.Equal(t, 409, w.Code)
}

// -----------------------------------------------------------------------------

func TestWatchlistAddRequiresSymbol(t *testing.T) {
	s := newTestServer(&fakeCoordinator{}, &fakeGuard{})

	w := doRequest(s, http.MethodPost, "/api/watchlist", `{}`, nil)
	assert.Equal(t, 400, w.Code)
}

// -----------------------------------------------------------------------------

func TestUserIDHeaderSelectsUser(t *testing.T) {
	guard := &fakeGuard{}
	s := newTestServer(&fakeCoordinator{}, guard)

	doRequest(s, http.MethodGet, "/api/watchlist", "", map[string]string{"X-User-ID": "alice"})
	assert.Equal(t, "alice", guard.lastUID)

	doRequest(s, http.MethodGet, "/api/watchlist", "", nil)
	assert.Equal(t, "anonymous", guard.lastUID)
}

// -----------------------------------------------------------------------------

func TestDeleteWatchlistAlwaysSucceeds(t *testing.T) {
	s := newTestServer(&fakeCoordinator{}, &fakeGuard{})

	w := doRequest(s, http.MethodDelete, "/api/watchlist/AAPL", "", nil)
	assert.Equal(t, 200, w.Code)
}

// -----------------------------------------------------------------------------

func TestHealthReportsStores(t *testing.T) {
	s := newTestServer(&fakeCoordinator{}, &fakeGuard{})

	w := doRequest(s, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, 200, w.Code)

	var resp struct {
		Status          string `json:"status"`
		FastStore       bool   `json:"fast_store"`
		DurableStore    bool   `json:"durable_store"`
		BudgetRemaining int    `json:"budget_remaining"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.FastStore)
	assert.True(t, resp.DurableStore)
	assert.Equal(t, 5, resp.BudgetRemaining)
}

// -----------------------------------------------------------------------------

func TestSearchEndpoint(t *testing.T) {
	coord := &fakeCoordinator{origin: models.OriginUpstreamFetch}
	s := newTestServer(coord, &fakeGuard{})

	w := doRequest(s, http.MethodGet, "/api/search/apple", "", nil)
	require.Equal(t, 200, w.Code)

	var resp struct {
		Results []models.MSearchResult `json:"results"`
		Origin  string                 `json:"origin"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "UPSTREAM_FETCH", resp.Origin)
	require.Len(t, resp.Results, 1)
}
