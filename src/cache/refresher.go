package cache

import (
	"context"
	"time"

	"stock-watch/src/logger"
	"stock-watch/src/models"
	"stock-watch/src/utils"
)

// Slots the refresher always leaves for user-facing requests.
const refreshBudgetReserve = 2

// -----------------------------------------------------------------------------
// Refresher re-warms the quotes of popular and watched symbols on an
// interval so that app opens during trading hours mostly hit the fast
// store. It rides the normal coordinator path: a symbol that is still
// fresh costs nothing, and every upstream call goes through the shared
// rate-limit budget.
// -----------------------------------------------------------------------------

// QuotePublisher receives quotes the refresher pulled from upstream.
// The websocket hub implements it.
type QuotePublisher interface {
	PublishQuote(quote models.MQuote)
}

type Refresher struct {
	Config      *models.MConfig
	Coordinator *Coordinator
	Scheduler   *utils.MarketScheduler
	Publisher   QuotePublisher // optional
	Logger      *logger.Logger

	stop chan struct{}
	done chan struct{}
}

// -----------------------------------------------------------------------------

func NewRefresher(
	cfg *models.MConfig,
	coord *Coordinator,
	scheduler *utils.MarketScheduler,
	publisher QuotePublisher,
	log *logger.Logger,
) *Refresher {
	return &Refresher{
		Config:      cfg,
		Coordinator: coord,
		Scheduler:   scheduler,
		Publisher:   publisher,
		Logger:      log,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------

// Start runs the refresh loop until Stop is called.
func (r *Refresher) Start() {
	interval := time.Duration(r.Config.Market.RefreshIntervalSeconds) * time.Second
	r.Logger.Info("Refresher started (interval %v)", interval)

	go func() {
		defer close(r.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				r.tick()
			}
		}
	}()
}

// -----------------------------------------------------------------------------

// Stop halts the loop and waits for an in-progress tick to finish.
func (r *Refresher) Stop() {
	close(r.stop)
	<-r.done
	r.Logger.Info("Refresher stopped")
}

// -----------------------------------------------------------------------------

func (r *Refresher) tick() {
	symbols := r.Coordinator.OverviewSymbols()
	if len(symbols) == 0 {
		return
	}

	r.Scheduler.UpdateSymbols(symbols)
	if !r.Scheduler.AnyMarketOpen() {
		r.Logger.Debug("Refresher idle: all markets closed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.Config.Market.RefreshIntervalSeconds)*time.Second)
	defer cancel()

	refreshed := 0
	for _, sym := range symbols {
		// Stop early rather than eat the budget user requests need.
		if r.Coordinator.Limiter.Remaining() <= refreshBudgetReserve {
			r.Logger.Debug("Refresher pausing: budget reserve reached")
			break
		}
		if !r.Scheduler.IsSymbolMarketOpen(sym) {
			continue
		}

		quote, origin, err := r.Coordinator.GetQuote(ctx, sym)
		if err != nil {
			r.Logger.Debug("Refresher skipping %s: %v", sym, err)
			continue
		}
		if origin == models.OriginUpstreamFetch {
			refreshed++
			if r.Publisher != nil {
				r.Publisher.PublishQuote(quote)
			}
		}
	}

	if refreshed > 0 {
		r.Logger.Info("Refresher updated %d quotes", refreshed)
	}
}
