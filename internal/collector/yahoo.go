package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"OptionsFlowMap/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultYahooBaseURL = "https://query2.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL string
	Client  *http.Client
	limiter *rate.Limiter
}

// NewYahooFetcher creates a new Yahoo Finance fetcher. Outbound requests are
// throttled to rps requests per second with the given burst.
func NewYahooFetcher(baseURL, proxyURL string, rps float64, burst int) *YahooFetcher {
	if baseURL == "" {
		baseURL = defaultYahooBaseURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if rps <= 0 {
		rps = 2
	}
	if burst <= 0 {
		burst = 1
	}
	return &YahooFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooError is the error object embedded in Yahoo responses.
type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// yahooContract is one row of a call or put chain.
type yahooContract struct {
	Strike       decimal.Decimal `json:"strike"`
	OpenInterest int64           `json:"openInterest"`
}

// yahooOptionChain is the response structure from the Yahoo options API.
type yahooOptionChain struct {
	OptionChain struct {
		Result []struct {
			UnderlyingSymbol string  `json:"underlyingSymbol"`
			ExpirationDates  []int64 `json:"expirationDates"`
			Quote            struct {
				RegularMarketPrice decimal.Decimal `json:"regularMarketPrice"`
			} `json:"quote"`
			Options []struct {
				ExpirationDate int64           `json:"expirationDate"`
				Calls          []yahooContract `json:"calls"`
				Puts           []yahooContract `json:"puts"`
			} `json:"options"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"optionChain"`
}

// yahooChart is the response structure from the Yahoo chart API, used as a
// spot-price fallback when the options payload carries no quote.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice decimal.Decimal `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

// getJSON performs a rate-limited GET and decodes the body into out. The body
// is decoded even on non-200 status because Yahoo carries its error object in
// the payload.
func (f *YahooFetcher) getJSON(ctx context.Context, u string, out interface{}) (int, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: read body: %v", ErrProviderUnavailable, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return resp.StatusCode, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: decode: %v", ErrProviderUnavailable, err)
	}
	return resp.StatusCode, nil
}

// FetchChain fetches the options chain and underlying quote for ticker. A
// zero expiration requests the nearest chain.
func (f *YahooFetcher) FetchChain(ctx context.Context, ticker string, expiration time.Time) (*model.OiSnapshot, error) {
	u := fmt.Sprintf("%s/v7/finance/options/%s", f.BaseURL, url.PathEscape(ticker))
	if !expiration.IsZero() {
		u = fmt.Sprintf("%s?date=%d", u, expiration.UTC().Unix())
	}

	var chain yahooOptionChain
	status, err := f.getJSON(ctx, u, &chain)
	if err != nil {
		return nil, err
	}
	if e := chain.OptionChain.Error; e != nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrTickerNotFound, ticker, e.Description)
	}
	if status != http.StatusOK || len(chain.OptionChain.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}

	result := chain.OptionChain.Result[0]
	if len(result.ExpirationDates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoOptions, ticker)
	}

	expirations := make(model.ExpirationSet, 0, len(result.ExpirationDates))
	for _, ts := range result.ExpirationDates {
		expirations = append(expirations, time.Unix(ts, 0).UTC())
	}
	sort.Slice(expirations, func(i, j int) bool { return expirations[i].Before(expirations[j]) })

	snap := &model.OiSnapshot{
		Ticker:      ticker,
		Expirations: expirations,
		FetchedAt:   time.Now().UTC(),
	}

	if len(result.Options) > 0 {
		opt := result.Options[0]
		snap.Expiration = time.Unix(opt.ExpirationDate, 0).UTC()
		snap.Calls = toQuotes(opt.Calls, model.SideCall)
		snap.Puts = toQuotes(opt.Puts, model.SidePut)
	} else if !expiration.IsZero() {
		snap.Expiration = expiration.UTC()
	} else {
		snap.Expiration = expirations[0]
	}

	spot := result.Quote.RegularMarketPrice
	if spot.IsZero() {
		// Some symbols omit the quote block here; fall back to the chart API.
		if p, err := f.fetchSpot(ctx, ticker); err == nil {
			spot = p
		}
	}
	snap.Spot = spot
	snap.HasSpot = !spot.IsZero()

	return snap, nil
}

// FetchExpirations fetches just the available expiration dates for ticker.
func (f *YahooFetcher) FetchExpirations(ctx context.Context, ticker string) (model.ExpirationSet, error) {
	snap, err := f.FetchChain(ctx, ticker, time.Time{})
	if err != nil {
		return nil, err
	}
	return snap.Expirations, nil
}

func (f *YahooFetcher) fetchSpot(ctx context.Context, ticker string) (decimal.Decimal, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", f.BaseURL, url.PathEscape(ticker))

	var chart yahooChart
	status, err := f.getJSON(ctx, u, &chart)
	if err != nil {
		return decimal.Zero, err
	}
	if chart.Chart.Error != nil || status != http.StatusOK || len(chart.Chart.Result) == 0 {
		return decimal.Zero, fmt.Errorf("yahoo chart: no price data for %s", ticker)
	}
	return chart.Chart.Result[0].Meta.RegularMarketPrice, nil
}

func toQuotes(contracts []yahooContract, side model.Side) []model.OptionQuote {
	quotes := make([]model.OptionQuote, 0, len(contracts))
	for _, c := range contracts {
		oi := c.OpenInterest
		if oi < 0 {
			oi = 0
		}
		quotes = append(quotes, model.OptionQuote{
			Strike:       c.Strike,
			OpenInterest: oi,
			Side:         side,
		})
	}
	return quotes
}
