package alphavantage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-watch/src/helpers"
	"stock-watch/src/models"
)

// -----------------------------------------------------------------------------
// Fake network manager
// -----------------------------------------------------------------------------

type fakeNetwork struct {
	body   []byte
	err    error
	params map[string]string
}

func (f *fakeNetwork) Get(ctx context.Context, url string, params map[string]string) ([]byte, error) {
	f.params = params
	return f.body, f.err
}

func newTestSource(body string) (*AlphaVantageSource, *fakeNetwork) {
	cfg := &models.MConfig{
		LogLevel: "ERROR",
		Upstream: models.MUpstreamConfig{
			BaseURL: "https://example.test/query",
			APIKey:  "k",
		},
	}
	netMgr := &fakeNetwork{body: []byte(body)}
	return NewAlphaVantageSource(cfg, netMgr), netMgr
}

// -----------------------------------------------------------------------------
// Quote
// -----------------------------------------------------------------------------

const quoteBody = `{
	"Global Quote": {
		"01. symbol": "AAPL",
		"05. price": "187.4400",
		"06. volume": "54321000",
		"07. latest trading day": "2024-03-15",
		"09. change": "-1.2300",
		"10. change percent": "-0.6519%"
	}
}`

func TestFetchQuoteParsesNumberedKeys(t *testing.T) {
	src, netMgr := newTestSource(quoteBody)

	quote, err := src.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, 187.44, quote.Price)
	assert.Equal(t, -1.23, quote.Change)
	assert.Equal(t, "-0.6519", quote.ChangePercent, "percent suffix is stripped")
	assert.Equal(t, int64(54321000), quote.Volume)
	assert.Equal(t, "2024-03-15", quote.TradingDay)

	assert.Equal(t, "GLOBAL_QUOTE", netMgr.params["function"])
	assert.Equal(t, "k", netMgr.params["apikey"])
}

// -----------------------------------------------------------------------------

func TestFetchQuoteEmptyObjectMeansUnknownSymbol(t *testing.T) {
	src, _ := newTestSource(`{"Global Quote": {}}`)

	_, err := src.FetchQuote(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, helpers.IsSymbolNotFound(err))
}

// -----------------------------------------------------------------------------

func TestFetchQuoteUnparseablePrice(t *testing.T) {
	src, _ := newTestSource(`{"Global Quote": {"01. symbol": "AAPL", "05. price": "n/a"}}`)

	_, err := src.FetchQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.True(t, helpers.IsMalformedResponse(err))
}

// -----------------------------------------------------------------------------

func TestFetchQuoteMissingOptionalFields(t *testing.T) {
	src, _ := newTestSource(`{"Global Quote": {"05. price": "10.00"}}`)

	quote, err := src.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", quote.Symbol, "symbol falls back to the request")
	assert.Zero(t, quote.Change)
	assert.Zero(t, quote.Volume)
}

// -----------------------------------------------------------------------------
// In-band provider errors
// -----------------------------------------------------------------------------

func TestErrorMessageMapsToSymbolNotFound(t *testing.T) {
	src, _ := newTestSource(`{"Error Message": "Invalid API call."}`)

	_, err := src.FetchQuote(context.Background(), "BAD")
	require.Error(t, err)
	assert.True(t, helpers.IsSymbolNotFound(err))
}

// -----------------------------------------------------------------------------

func TestNoteMapsToProviderThrottled(t *testing.T) {
	src, _ := newTestSource(`{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`)

	_, err := src.FetchQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.True(t, helpers.IsProviderThrottled(err))
}

// -----------------------------------------------------------------------------

func TestInformationMapsToProviderThrottled(t *testing.T) {
	src, _ := newTestSource(`{"Information": "API key limit reached."}`)

	_, err := src.FetchSearch(context.Background(), "apple")
	require.Error(t, err)
	assert.True(t, helpers.IsProviderThrottled(err))
}

// -----------------------------------------------------------------------------
// Search
// -----------------------------------------------------------------------------

func TestFetchSearchCapsResults(t *testing.T) {
	body := `{"bestMatches": [`
	for i := 0; i < 15; i++ {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(`{"1. symbol": "S%d", "2. name": "Company %d", "3. type": "Equity", "4. region": "United States", "8. currency": "USD"}`, i, i)
	}
	body += `]}`

	src, _ := newTestSource(body)

	set, err := src.FetchSearch(context.Background(), "comp")
	require.NoError(t, err)
	require.Len(t, set.Results, 10)
	assert.Equal(t, "S0", set.Results[0].Symbol)
	assert.Equal(t, "Company 0", set.Results[0].Name)
	assert.Equal(t, "USD", set.Results[0].Currency)
}

// -----------------------------------------------------------------------------

func TestFetchSearchNoMatchesIsValid(t *testing.T) {
	src, _ := newTestSource(`{"bestMatches": []}`)

	set, err := src.FetchSearch(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.NotNil(t, set.Results)
	assert.Empty(t, set.Results)
}

// -----------------------------------------------------------------------------
// Chart
// -----------------------------------------------------------------------------

func TestFetchChartSortsAndTrims(t *testing.T) {
	body := `{"Time Series (Daily)": {`
	for i := 0; i < 40; i++ {
		if i > 0 {
			body += ","
		}
		// Days counted backwards so the wire order is descending.
		body += fmt.Sprintf(`"2024-03-%02d": {"1. open": "1", "2. high": "2", "3. low": "0.5", "4. close": "%d.0", "5. volume": "100"}`, 40-i, 40-i)
	}
	body += `}}`

	src, _ := newTestSource(body)

	series, err := src.FetchChart(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, series.Points, 30, "series is trimmed to the newest 30 points")

	assert.Equal(t, "2024-03-11", series.Points[0].Date)
	assert.Equal(t, "2024-03-40", series.Points[29].Date)
	for i := 1; i < len(series.Points); i++ {
		assert.Less(t, series.Points[i-1].Date, series.Points[i].Date, "points are ascending")
	}
}

// -----------------------------------------------------------------------------

func TestFetchChartSkipsUnparseablePoints(t *testing.T) {
	body := `{"Time Series (Daily)": {
		"2024-03-14": {"4. close": "101.5", "5. volume": "100"},
		"2024-03-15": {"4. close": "bogus", "5. volume": "100"}
	}}`

	src, _ := newTestSource(body)

	series, err := src.FetchChart(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, series.Points, 1)
	assert.Equal(t, 101.5, series.Points[0].Close)
}

// -----------------------------------------------------------------------------

func TestFetchChartEmptySeriesMeansUnknownSymbol(t *testing.T) {
	src, _ := newTestSource(`{"Time Series (Daily)": {}}`)

	_, err := src.FetchChart(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, helpers.IsSymbolNotFound(err))
}
