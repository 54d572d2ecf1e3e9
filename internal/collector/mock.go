package collector

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"OptionsFlowMap/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Chains maps ticker to a prepared snapshot; unknown tickers get a generated
// demo chain unless Err is set.
type MockFetcher struct {
	Chains map[string]*model.OiSnapshot
	Err    error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchChain(_ context.Context, ticker string, expiration time.Time) (*model.OiSnapshot, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if snap, ok := m.Chains[ticker]; ok {
		out := *snap
		out.Ticker = ticker
		if !expiration.IsZero() {
			out.Expiration = expiration.UTC()
		}
		return &out, nil
	}
	return generateMockChain(ticker, expiration), nil
}

func (m *MockFetcher) FetchExpirations(ctx context.Context, ticker string) (model.ExpirationSet, error) {
	snap, err := m.FetchChain(ctx, ticker, time.Time{})
	if err != nil {
		return nil, err
	}
	return snap.Expirations, nil
}

// generateMockChain builds a plausible chain around a spot of 100: call open
// interest tapering off above spot, put open interest below.
func generateMockChain(ticker string, expiration time.Time) *model.OiSnapshot {
	expirations := nextFridays(4)
	if expiration.IsZero() {
		expiration = expirations[0]
	}

	spot := decimal.NewFromInt(100)
	var calls, puts []model.OptionQuote
	for strike := int64(80); strike <= 120; strike += 5 {
		s := decimal.NewFromInt(strike)
		calls = append(calls, model.OptionQuote{
			Strike:       s,
			OpenInterest: (130 - strike) * 40,
			Side:         model.SideCall,
		})
		puts = append(puts, model.OptionQuote{
			Strike:       s,
			OpenInterest: (strike - 70) * 40,
			Side:         model.SidePut,
		})
	}

	return &model.OiSnapshot{
		Ticker:      ticker,
		Expiration:  expiration.UTC(),
		Spot:        spot,
		HasSpot:     true,
		Calls:       calls,
		Puts:        puts,
		Expirations: expirations,
		FetchedAt:   time.Now().UTC(),
	}
}

func nextFridays(n int) model.ExpirationSet {
	d := time.Now().UTC().Truncate(24 * time.Hour)
	out := make(model.ExpirationSet, 0, n)
	for len(out) < n {
		d = d.AddDate(0, 0, 1)
		if d.Weekday() == time.Friday {
			out = append(out, d)
		}
	}
	return out
}
