package price

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const requestTimeout = 5 * time.Second

// Client resolves a ticker symbol to a current USD price. It consults a
// Binance-style ticker endpoint first and falls back to CoinPaprika; both
// failing resolves to "unavailable" rather than an error. Unsupported
// symbols are indistinguishable from source outages for callers.
type Client struct {
	httpClient *http.Client
	primaryURL string
	paprika    *coinpaprika.Client
}

func NewClient(primaryURL string) *Client {
	httpClient := &http.Client{Timeout: requestTimeout}
	return &Client{
		httpClient: httpClient,
		primaryURL: primaryURL,
		paprika:    coinpaprika.NewClient(httpClient),
	}
}

// Quote returns the current price for an uppercase symbol, or false when
// neither source can resolve it. It never returns an error.
func (c *Client) Quote(ctx context.Context, symbol string) (float64, bool) {
	if p, err := c.primaryQuote(ctx, symbol); err == nil {
		return p, true
	} else {
		log.Debugf("primary quote source failed for %s: %v", symbol, err)
	}

	if p, err := c.secondaryQuote(symbol); err == nil {
		return p, true
	} else {
		log.Debugf("secondary quote source failed for %s: %v", symbol, err)
	}

	return 0, false
}

// primaryQuote asks the Binance-style endpoint for SYMBOL+USDT.
func (c *Client) primaryQuote(ctx context.Context, symbol string) (float64, error) {
	u := c.primaryURL + "?symbol=" + url.QueryEscape(strings.ToUpper(symbol)+"USDT")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, errors.Wrap(err, "could not build quote request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "quote request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("quote request returned status %d", resp.StatusCode)
	}

	var payload struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, errors.Wrap(err, "could not parse quote response")
	}

	p, err := strconv.ParseFloat(payload.Price, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "malformed price %q", payload.Price)
	}
	return p, nil
}

// secondaryQuote searches CoinPaprika by lowercased symbol and reads the
// USD quote of the best match.
func (c *Client) secondaryQuote(symbol string) (float64, error) {
	searchOpts := &coinpaprika.SearchOptions{
		Query:      strings.ToLower(symbol),
		Categories: "currencies",
		Modifier:   "symbol_search",
	}
	result, err := c.paprika.Search.Search(searchOpts)
	if err != nil {
		return 0, errors.Wrap(err, "paprika search failed")
	}
	if len(result.Currencies) == 0 || result.Currencies[0].ID == nil {
		return 0, errors.Errorf("no paprika match for symbol: %s", symbol)
	}

	tickerOpts := &coinpaprika.TickersOptions{Quotes: "USD"}
	ticker, err := c.paprika.Tickers.GetByID(*result.Currencies[0].ID, tickerOpts)
	if err != nil {
		return 0, errors.Wrap(err, "paprika ticker fetch failed")
	}

	quote, ok := ticker.Quotes["USD"]
	if !ok || quote.Price == nil {
		return 0, errors.Errorf("paprika ticker has no USD quote: %s", symbol)
	}
	return *quote.Price, nil
}
