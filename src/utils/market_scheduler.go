package utils

import (
	"sync"
	"time"

	"stock-watch/src/logger"
)

// -----------------------------------------------------------------------------
// MarketScheduler maps tracked symbols to their venue calendars so the
// background refresher can stay idle outside trading hours. The symbol
// set changes at runtime as watchlists grow.
// -----------------------------------------------------------------------------

type MarketScheduler struct {
	Calendars map[string]*TradingCalendar
	Logger    *logger.Logger
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(symbols []string, l *logger.Logger) *MarketScheduler {
	ms := &MarketScheduler{
		Calendars: make(map[string]*TradingCalendar),
		Logger:    l,
	}
	ms.UpdateSymbols(symbols)
	return ms
}

// -----------------------------------------------------------------------------

// UpdateSymbols replaces the tracked set with a new list of symbols.
func (ms *MarketScheduler) UpdateSymbols(symbols []string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.Calendars = make(map[string]*TradingCalendar)
	for _, symbol := range symbols {
		if cal := GetCalendar(symbol); cal != nil {
			ms.Calendars[symbol] = cal
		}
	}

	ms.Logger.Debug("MarketScheduler tracking %d symbols", len(ms.Calendars))
}

// -----------------------------------------------------------------------------

// AnyMarketOpen reports whether at least one tracked venue is open now.
func (ms *MarketScheduler) AnyMarketOpen() bool {
	now := time.Now().UTC()

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	uniqueCals := make(map[*TradingCalendar]bool)
	for _, cal := range ms.Calendars {
		uniqueCals[cal] = true
	}

	for cal := range uniqueCals {
		if cal.IsOpenOnMinute(now) {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

// IsSymbolMarketOpen reports whether the venue of one symbol is open now.
// Unknown symbols use the default NYSE calendar.
func (ms *MarketScheduler) IsSymbolMarketOpen(symbol string) bool {
	ms.mu.RLock()
	cal, ok := ms.Calendars[symbol]
	ms.mu.RUnlock()

	if !ok {
		cal = GetCalendar(symbol)
	}
	return cal.IsOpenOnMinute(time.Now().UTC())
}
