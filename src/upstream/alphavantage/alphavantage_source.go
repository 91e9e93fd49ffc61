package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"stock-watch/src/helpers"
	"stock-watch/src/interfaces"
	"stock-watch/src/logger"
	"stock-watch/src/models"
)

// Response limits matching the provider's free-tier dataset.
const (
	maxSearchResults = 10
	maxChartPoints   = 30
)

type AlphaVantageSource struct {
	Config  *models.MConfig
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAlphaVantageSource(cfg *models.MConfig, netMgr interfaces.INetworkManager) *AlphaVantageSource {
	return &AlphaVantageSource{
		Config:  cfg,
		Network: netMgr,
		Logger:  logger.NewLogger(cfg.LogLevel, "AlphaVantageSource"),
	}
}

// -----------------------------------------------------------------------------

func (s *AlphaVantageSource) Name() string {
	return "alphavantage"
}

// -----------------------------------------------------------------------------

// query performs one provider call and screens the body for the provider's
// in-band error signals before handing it to a parser.
func (s *AlphaVantageSource) query(ctx context.Context, params map[string]string) ([]byte, error) {
	params["apikey"] = s.Config.Upstream.APIKey

	body, err := s.Network.Get(ctx, s.Config.Upstream.BaseURL, params)
	if err != nil {
		return nil, err
	}

	// The provider reports problems inside a 200 response:
	// "Error Message" for unknown symbols / bad requests,
	// "Note" / "Information" when the free-tier budget is exhausted.
	var envelope struct {
		ErrorMessage string `json:"Error Message"`
		Note         string `json:"Note"`
		Information  string `json:"Information"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, helpers.NewMalformedResponse("invalid response body", err)
	}
	if envelope.Note != "" || envelope.Information != "" {
		s.Logger.Info("Provider signaled throttling")
		return nil, helpers.NewProviderThrottled("provider call budget exhausted")
	}
	if envelope.ErrorMessage != "" {
		return nil, helpers.NewSymbolNotFound(params["symbol"])
	}

	return body, nil
}

// -----------------------------------------------------------------------------
// Quote (GLOBAL_QUOTE)
// -----------------------------------------------------------------------------

func (s *AlphaVantageSource) FetchQuote(ctx context.Context, symbol string) (*models.MQuote, error) {
	body, err := s.query(ctx, map[string]string{
		"function": "GLOBAL_QUOTE",
		"symbol":   symbol,
	})
	if err != nil {
		return nil, err
	}

	return s.parseQuoteResponse(symbol, body)
}

// -----------------------------------------------------------------------------

func (s *AlphaVantageSource) parseQuoteResponse(symbol string, data []byte) (*models.MQuote, error) {
	var resp struct {
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, helpers.NewMalformedResponse("json unmarshal failed", err)
	}

	// An empty quote object is how the provider answers for symbols
	// outside its dataset.
	if len(resp.GlobalQuote) == 0 {
		return nil, helpers.NewSymbolNotFound(symbol)
	}

	q := resp.GlobalQuote

	price, err := strconv.ParseFloat(q["05. price"], 64)
	if err != nil {
		return nil, helpers.NewMalformedResponse(fmt.Sprintf("unparseable price for %s", symbol), err)
	}
	if price < 0 {
		return nil, helpers.NewMalformedResponse(fmt.Sprintf("negative price for %s", symbol), nil)
	}

	// Optional fields fall back to zero values rather than failing the
	// whole request.
	change, _ := strconv.ParseFloat(q["09. change"], 64)
	volume, _ := strconv.ParseInt(q["06. volume"], 10, 64)
	changePercent := strings.TrimSuffix(q["10. change percent"], "%")

	quote := &models.MQuote{
		Symbol:        q["01. symbol"],
		Price:         price,
		Change:        change,
		ChangePercent: changePercent,
		Volume:        volume,
		TradingDay:    q["07. latest trading day"],
		FetchedAt:     time.Now().Unix(),
	}
	if quote.Symbol == "" {
		quote.Symbol = symbol
	}

	s.Logger.Debug("Fetched quote %s: %.2f", quote.Symbol, quote.Price)
	return quote, nil
}

// -----------------------------------------------------------------------------
// Search (SYMBOL_SEARCH)
// -----------------------------------------------------------------------------

func (s *AlphaVantageSource) FetchSearch(ctx context.Context, query string) (*models.MSearchResultSet, error) {
	body, err := s.query(ctx, map[string]string{
		"function": "SYMBOL_SEARCH",
		"keywords": query,
	})
	if err != nil {
		return nil, err
	}

	return s.parseSearchResponse(query, body)
}

// -----------------------------------------------------------------------------

func (s *AlphaVantageSource) parseSearchResponse(query string, data []byte) (*models.MSearchResultSet, error) {
	var resp struct {
		BestMatches []map[string]string `json:"bestMatches"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, helpers.NewMalformedResponse("json unmarshal failed", err)
	}

	// No matches is a valid answer, not an error.
	set := &models.MSearchResultSet{
		Query:   query,
		Results: make([]models.MSearchResult, 0, maxSearchResults),
	}

	for i, match := range resp.BestMatches {
		if i >= maxSearchResults {
			break
		}
		set.Results = append(set.Results, models.MSearchResult{
			Symbol:   match["1. symbol"],
			Name:     match["2. name"],
			Type:     match["3. type"],
			Region:   match["4. region"],
			Currency: match["8. currency"],
		})
	}

	s.Logger.Debug("Search %q: %d matches", query, len(set.Results))
	return set, nil
}

// -----------------------------------------------------------------------------
// Chart (TIME_SERIES_DAILY)
// -----------------------------------------------------------------------------

func (s *AlphaVantageSource) FetchChart(ctx context.Context, symbol string) (*models.MChartSeries, error) {
	body, err := s.query(ctx, map[string]string{
		"function":   "TIME_SERIES_DAILY",
		"symbol":     symbol,
		"outputsize": "compact",
	})
	if err != nil {
		return nil, err
	}

	return s.parseChartResponse(symbol, body)
}

// -----------------------------------------------------------------------------

func (s *AlphaVantageSource) parseChartResponse(symbol string, data []byte) (*models.MChartSeries, error) {
	var resp struct {
		TimeSeries map[string]map[string]string `json:"Time Series (Daily)"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, helpers.NewMalformedResponse("json unmarshal failed", err)
	}

	if len(resp.TimeSeries) == 0 {
		return nil, helpers.NewSymbolNotFound(symbol)
	}

	points := make([]models.MChartPoint, 0, len(resp.TimeSeries))
	for date, values := range resp.TimeSeries {
		closeVal, err := strconv.ParseFloat(values["4. close"], 64)
		if err != nil {
			s.Logger.Debug("Skipping %s point %s: unparseable close", symbol, date)
			continue
		}

		open, _ := strconv.ParseFloat(values["1. open"], 64)
		high, _ := strconv.ParseFloat(values["2. high"], 64)
		low, _ := strconv.ParseFloat(values["3. low"], 64)
		volume, _ := strconv.ParseInt(values["5. volume"], 10, 64)

		points = append(points, models.MChartPoint{
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closeVal,
			Volume: volume,
		})
	}

	if len(points) == 0 {
		return nil, helpers.NewMalformedResponse(fmt.Sprintf("no valid points for %s", symbol), nil)
	}

	// Ascending by date; the wire format is an unordered object.
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})

	if len(points) > maxChartPoints {
		points = points[len(points)-maxChartPoints:]
	}

	s.Logger.Debug("Fetched chart %s: %d points [%s -> %s]",
		symbol, len(points), points[0].Date, points[len(points)-1].Date)

	return &models.MChartSeries{Symbol: symbol, Points: points}, nil
}
