package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"OptionsFlowMap/internal/collector"
	"OptionsFlowMap/internal/model"
)

func testSnapshot(ticker string, expirations model.ExpirationSet) *model.OiSnapshot {
	return &model.OiSnapshot{
		Ticker:     ticker,
		Expiration: expirations[0],
		Spot:       decimal.NewFromInt(102),
		HasSpot:    true,
		Calls: []model.OptionQuote{
			{Strike: decimal.NewFromInt(100), OpenInterest: 50, Side: model.SideCall},
		},
		Puts: []model.OptionQuote{
			{Strike: decimal.NewFromInt(100), OpenInterest: 30, Side: model.SidePut},
			{Strike: decimal.NewFromInt(105), OpenInterest: 10, Side: model.SidePut},
		},
		Expirations: expirations,
		FetchedAt:   time.Now().UTC(),
	}
}

func newTestServer(fetcher collector.Fetcher) *httptest.Server {
	col := collector.NewCollector(fetcher, nil)
	s := New(col, Options{Addr: ":0", DefaultTicker: "SPY", DefaultRange: 100})
	return httptest.NewServer(s.Handler())
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp.StatusCode
}

func TestOpenInterestPivotExample(t *testing.T) {
	exps := model.ExpirationSet{time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)}
	fetcher := &collector.MockFetcher{
		Chains: map[string]*model.OiSnapshot{"SPY": testSnapshot("SPY", exps)},
	}
	srv := newTestServer(fetcher)
	defer srv.Close()

	var resp openInterestResponse
	status := getJSON(t, srv.URL+"/api/openinterest?ticker=SPY", &resp)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	if len(resp.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(resp.Rows))
	}
	r0, r1 := resp.Rows[0], resp.Rows[1]
	if r0.Strike.String() != "100" || r0.CallOI != 50 || r0.PutOI != 30 || r0.NetDelta != 20 {
		t.Errorf("unexpected row 0: %+v", r0)
	}
	if r1.Strike.String() != "105" || r1.CallOI != 0 || r1.PutOI != 10 || r1.NetDelta != -10 {
		t.Errorf("unexpected row 1: %+v", r1)
	}
	if resp.Spot == nil || *resp.Spot != 102 {
		t.Errorf("spot = %v, want 102", resp.Spot)
	}
	if resp.Chart == nil || len(resp.Chart.Layout.Shapes) != 1 || resp.Chart.Layout.Shapes[0].Y0 != 102 {
		t.Error("expected spot marker at 102 in chart layout")
	}
	if resp.Expiration != "2026-09-18" {
		t.Errorf("expiration = %s, want 2026-09-18", resp.Expiration)
	}
}

func TestExpirationsFollowTicker(t *testing.T) {
	spyExps := model.ExpirationSet{
		time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 25, 0, 0, 0, 0, time.UTC),
	}
	qqqExps := model.ExpirationSet{time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)}
	fetcher := &collector.MockFetcher{
		Chains: map[string]*model.OiSnapshot{
			"SPY": testSnapshot("SPY", spyExps),
			"QQQ": testSnapshot("QQQ", qqqExps),
		},
	}
	srv := newTestServer(fetcher)
	defer srv.Close()

	var spy expirationsResponse
	getJSON(t, srv.URL+"/api/expirations?ticker=SPY", &spy)
	if len(spy.Expirations) != 2 || spy.Expirations[0] != "2026-09-18" {
		t.Errorf("unexpected SPY expirations: %v", spy.Expirations)
	}

	// Switching tickers must repopulate from the new ticker's set, not
	// reuse the previous one.
	var qqq expirationsResponse
	getJSON(t, srv.URL+"/api/expirations?ticker=QQQ", &qqq)
	if len(qqq.Expirations) != 1 || qqq.Expirations[0] != "2026-10-16" {
		t.Errorf("unexpected QQQ expirations: %v", qqq.Expirations)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"ticker not found", collector.ErrTickerNotFound, http.StatusNotFound, "ticker_not_found"},
		{"no options", collector.ErrNoOptions, http.StatusNotFound, "no_options"},
		{"provider down", collector.ErrProviderUnavailable, http.StatusBadGateway, "provider_unreachable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(&collector.MockFetcher{Err: tc.err})
			defer srv.Close()

			var resp errorResponse
			status := getJSON(t, srv.URL+"/api/openinterest?ticker=SPY", &resp)
			if status != tc.wantStatus {
				t.Errorf("status = %d, want %d", status, tc.wantStatus)
			}
			if resp.Error != tc.wantCode {
				t.Errorf("code = %s, want %s", resp.Error, tc.wantCode)
			}
			if resp.Message == "" {
				t.Error("expected a user-visible message")
			}
		})
	}
}

func TestNoDataResponse(t *testing.T) {
	exps := model.ExpirationSet{time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)}
	empty := testSnapshot("SPY", exps)
	empty.Calls = nil
	empty.Puts = nil
	fetcher := &collector.MockFetcher{Chains: map[string]*model.OiSnapshot{"SPY": empty}}
	srv := newTestServer(fetcher)
	defer srv.Close()

	var resp openInterestResponse
	status := getJSON(t, srv.URL+"/api/openinterest?ticker=SPY", &resp)
	if status != http.StatusOK {
		t.Fatalf("empty result must not be an error, got status %d", status)
	}
	if !resp.NoData {
		t.Error("expected no_data signal")
	}
	if len(resp.Rows) != 0 || resp.Chart != nil {
		t.Error("expected empty rows and no chart")
	}
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(&collector.MockFetcher{})
	defer srv.Close()

	cases := []struct {
		name string
		url  string
	}{
		{"missing ticker", "/api/openinterest"},
		{"bad expiration", "/api/openinterest?ticker=SPY&expiration=18-09-2026"},
		{"bad range", "/api/openinterest?ticker=SPY&range=-5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var resp errorResponse
			status := getJSON(t, srv.URL+tc.url, &resp)
			if status != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", status)
			}
			if resp.Error != "bad_request" {
				t.Errorf("code = %s, want bad_request", resp.Error)
			}
		})
	}
}

func TestHealthAndIndex(t *testing.T) {
	srv := newTestServer(&collector.MockFetcher{})
	defer srv.Close()

	var health map[string]string
	if status := getJSON(t, srv.URL+"/healthz", &health); status != http.StatusOK {
		t.Errorf("healthz status = %d", status)
	}
	if health["status"] != "ok" {
		t.Errorf("health = %v", health)
	}

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("index status = %d", resp.StatusCode)
	}
}
