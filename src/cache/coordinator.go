package cache

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"stock-watch/src/helpers"
	"stock-watch/src/interfaces"
	"stock-watch/src/logger"
	"stock-watch/src/models"
)

// -----------------------------------------------------------------------------
// Coordinator decides, per request, whether to answer from the fast store,
// the durable store, or the upstream provider. One instance is constructed
// at process start and shared by every handler.
//
// Read path: fast hit -> durable hit (promote, refresh async when the
// primary TTL lapsed) -> rate-limit admission -> upstream fetch ->
// write-back. A denied or failed upstream call falls back to the newest
// durable row regardless of its age.
// -----------------------------------------------------------------------------

type Coordinator struct {
	Config    *models.MConfig
	Fast      interfaces.IFastStore
	Durable   interfaces.IDurableStore
	Upstream  interfaces.IUpstreamSource
	Limiter   interfaces.IRateLimiter
	Watchlist interfaces.IWatchlistStore // optional, enriches the overview
	Logger    *logger.Logger

	// One in-flight upstream fetch per key; concurrent requests for the
	// same key share the leader's result instead of burning budget.
	group singleflight.Group
	now   func() time.Time
}

// -----------------------------------------------------------------------------

func NewCoordinator(
	cfg *models.MConfig,
	fast interfaces.IFastStore,
	durable interfaces.IDurableStore,
	upstream interfaces.IUpstreamSource,
	limiter interfaces.IRateLimiter,
	watchlist interfaces.IWatchlistStore,
	log *logger.Logger,
) *Coordinator {
	return &Coordinator{
		Config:    cfg,
		Fast:      fast,
		Durable:   durable,
		Upstream:  upstream,
		Limiter:   limiter,
		Watchlist: watchlist,
		Logger:    log,
		now:       time.Now,
	}
}

// -----------------------------------------------------------------------------
// Public operations
// -----------------------------------------------------------------------------

func (c *Coordinator) GetQuote(ctx context.Context, symbol string) (models.MQuote, models.CacheOrigin, error) {
	var quote models.MQuote

	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return quote, "", err
	}

	payload, origin, err := c.lookup(ctx, QuoteKey(sym), c.quoteTTL(), true, func(ctx context.Context) ([]byte, error) {
		q, err := c.Upstream.FetchQuote(ctx, sym)
		if err != nil {
			return nil, err
		}
		return json.Marshal(q)
	})
	if err != nil {
		return quote, origin, err
	}

	if err := json.Unmarshal(payload, &quote); err != nil {
		return quote, origin, helpers.NewMalformedResponse("corrupt cached quote", err)
	}
	return quote, origin, nil
}

// -----------------------------------------------------------------------------

func (c *Coordinator) Search(ctx context.Context, query string) (models.MSearchResultSet, models.CacheOrigin, error) {
	var set models.MSearchResultSet

	q, err := NormalizeQuery(query)
	if err != nil {
		return set, "", err
	}

	payload, origin, err := c.lookup(ctx, SearchKey(q), c.ttl(c.Config.TTL.SearchSeconds), true, func(ctx context.Context) ([]byte, error) {
		res, err := c.Upstream.FetchSearch(ctx, q)
		if err != nil {
			return nil, err
		}
		return json.Marshal(res)
	})
	if err != nil {
		return set, origin, err
	}

	if err := json.Unmarshal(payload, &set); err != nil {
		return set, origin, helpers.NewMalformedResponse("corrupt cached search", err)
	}
	return set, origin, nil
}

// -----------------------------------------------------------------------------

func (c *Coordinator) GetChart(ctx context.Context, symbol string) (models.MChartSeries, models.CacheOrigin, error) {
	var series models.MChartSeries

	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return series, "", err
	}

	payload, origin, err := c.lookup(ctx, ChartKey(sym), c.ttl(c.Config.TTL.ChartSeconds), true, func(ctx context.Context) ([]byte, error) {
		ch, err := c.Upstream.FetchChart(ctx, sym)
		if err != nil {
			return nil, err
		}
		return json.Marshal(ch)
	})
	if err != nil {
		return series, origin, err
	}

	if err := json.Unmarshal(payload, &series); err != nil {
		return series, origin, helpers.NewMalformedResponse("corrupt cached chart", err)
	}
	return series, origin, nil
}

// -----------------------------------------------------------------------------

func (c *Coordinator) GetMarketOverview(ctx context.Context) (models.MMarketOverview, models.CacheOrigin, error) {
	var overview models.MMarketOverview

	// The overview is a composite: every nested quote lookup is budgeted
	// on its own, so the assembly itself is not.
	payload, origin, err := c.lookup(ctx, OverviewKey(), c.ttl(c.Config.TTL.OverviewSeconds), false, func(ctx context.Context) ([]byte, error) {
		ov, err := c.assembleOverview(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(ov)
	})
	if err != nil {
		return overview, origin, err
	}

	if err := json.Unmarshal(payload, &overview); err != nil {
		return overview, origin, helpers.NewMalformedResponse("corrupt cached overview", err)
	}
	return overview, origin, nil
}

// -----------------------------------------------------------------------------

// OverviewSymbols is the popular list merged with every watched symbol,
// deduplicated, popular first.
func (c *Coordinator) OverviewSymbols() []string {
	seen := make(map[string]struct{})
	symbols := make([]string, 0, len(c.Config.Market.PopularSymbols))

	for _, s := range c.Config.Market.PopularSymbols {
		sym, err := NormalizeSymbol(s)
		if err != nil {
			continue
		}
		if _, dup := seen[sym]; !dup {
			seen[sym] = struct{}{}
			symbols = append(symbols, sym)
		}
	}

	if c.Watchlist != nil {
		watched, err := c.Watchlist.DistinctSymbols()
		if err != nil {
			c.Logger.Warning("Could not read watched symbols: %v", err)
			return symbols
		}
		for _, sym := range watched {
			if _, dup := seen[sym]; !dup {
				seen[sym] = struct{}{}
				symbols = append(symbols, sym)
			}
		}
	}

	return symbols
}

// -----------------------------------------------------------------------------

// assembleOverview gathers one quote per overview symbol through the
// normal cached path, so a warm cache costs zero provider calls.
func (c *Coordinator) assembleOverview(ctx context.Context) (*models.MMarketOverview, error) {
	symbols := c.OverviewSymbols()
	quotes := make([]models.MQuote, 0, len(symbols))

	var lastErr error
	for _, sym := range symbols {
		quote, _, err := c.GetQuote(ctx, sym)
		if err != nil {
			c.Logger.Debug("Overview skipping %s: %v", sym, err)
			lastErr = err
			continue
		}
		quotes = append(quotes, quote)
	}

	if len(quotes) == 0 {
		return nil, helpers.NewUpstreamUnavailable("no overview data available", lastErr)
	}

	return &models.MMarketOverview{
		Quotes:      quotes,
		GeneratedAt: c.now().Unix(),
	}, nil
}

// -----------------------------------------------------------------------------
// Core lookup
// -----------------------------------------------------------------------------

type flightResult struct {
	payload []byte
	origin  models.CacheOrigin
}

// lookup runs the tiered read for one key. fetch maps the upstream record
// to its JSON payload; it runs at most once per key across all concurrent
// callers.
func (c *Coordinator) lookup(
	ctx context.Context,
	key string,
	fastTTL time.Duration,
	budgeted bool,
	fetch func(ctx context.Context) ([]byte, error),
) ([]byte, models.CacheOrigin, error) {

	// 1. Fast store. The store owns expiry, so found means fresh.
	if payload, _, found := c.Fast.Get(key); found {
		return payload, models.OriginFastHit, nil
	}

	// 2. Durable store under the relaxed staleness bound. A row older
	// than the primary TTL is still served, but kicks off a background
	// refresh (serve-stale-while-refresh).
	durableTTL := c.durableTTL(fastTTL)
	payload, updatedAt, found, err := c.Durable.Get(key)
	if err != nil {
		c.Logger.Error("Durable get error for %s: %v", key, err)
		found = false
	}
	if found {
		age := c.now().Sub(updatedAt)
		if age <= durableTTL {
			if age <= fastTTL {
				// Promote with the freshness it has left.
				c.Fast.Put(key, payload, fastTTL-age)
			} else {
				c.refreshAsync(key, fastTTL, budgeted, fetch)
			}
			return payload, models.OriginDurableHit, nil
		}
	}

	// 3+4. Admission and upstream fetch, deduplicated per key.
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// The leader's result is shared with waiting callers, so its
		// lifetime must not be bound to whichever request got here first.
		return c.fetchWithBudget(context.WithoutCancel(ctx), key, fastTTL, budgeted, fetch)
	})
	if err != nil {
		// Definitive answers and validation pass through untouched.
		if helpers.IsSymbolNotFound(err) {
			return nil, "", err
		}

		// Anything else (denied admission, provider throttling, network,
		// malformed payload) tries the stale fallback first.
		if found {
			c.Logger.Info("Serving stale %s after upstream failure: %v", key, err)
			return payload, models.OriginStaleFallback, nil
		}
		if helpers.IsUpstreamUnavailable(err) {
			return nil, "", err
		}
		return nil, "", helpers.NewUpstreamUnavailable("no cached value for "+key, err)
	}

	res := v.(*flightResult)
	return res.payload, res.origin, nil
}

// -----------------------------------------------------------------------------

// fetchWithBudget asks the limiter for one slot and, if admitted, performs
// the upstream fetch and writes the result to both tiers.
func (c *Coordinator) fetchWithBudget(
	ctx context.Context,
	key string,
	fastTTL time.Duration,
	budgeted bool,
	fetch func(ctx context.Context) ([]byte, error),
) (*flightResult, error) {

	if budgeted && !c.Limiter.TryAdmit() {
		return nil, helpers.NewUpstreamUnavailable("rate limit budget exhausted", nil)
	}

	payload, err := fetch(ctx)
	if err != nil {
		if helpers.IsMalformedResponse(err) {
			c.Logger.Error("Malformed upstream response for %s: %v", key, err)
		}
		return nil, err
	}

	// Durable first: it is the source of truth for restarts and stale
	// fallbacks. A write failure is logged, not fatal to the request.
	if err := c.Durable.Put(key, payload); err != nil {
		c.Logger.Error("Durable put error for %s: %v", key, err)
	}
	c.Fast.Put(key, payload, fastTTL)

	return &flightResult{payload: payload, origin: models.OriginUpstreamFetch}, nil
}

// -----------------------------------------------------------------------------

// refreshAsync re-fetches a key in the background after a stale durable
// hit. Shares the same single-flight slot as foreground fetches.
func (c *Coordinator) refreshAsync(key string, fastTTL time.Duration, budgeted bool, fetch func(ctx context.Context) ([]byte, error)) {
	go func() {
		_, err, _ := c.group.Do(key, func() (interface{}, error) {
			return c.fetchWithBudget(context.Background(), key, fastTTL, budgeted, fetch)
		})
		if err != nil {
			c.Logger.Debug("Background refresh of %s skipped: %v", key, err)
		}
	}()
}

// -----------------------------------------------------------------------------
// TTL policy
// -----------------------------------------------------------------------------

func (c *Coordinator) ttl(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

func (c *Coordinator) quoteTTL() time.Duration {
	return c.ttl(c.Config.TTL.QuoteSeconds)
}

// durableTTL is the relaxed bound for serving a durable row without any
// provider contact. Never tighter than the primary TTL.
func (c *Coordinator) durableTTL(fastTTL time.Duration) time.Duration {
	d := c.ttl(c.Config.TTL.DurableSeconds)
	if d < fastTTL {
		return fastTTL
	}
	return d
}

// -----------------------------------------------------------------------------

// SetClock replaces the time source for tests.
func (c *Coordinator) SetClock(now func() time.Time) {
	c.now = now
}
