package collector

import (
	"context"
	"errors"
	"time"

	"OptionsFlowMap/internal/model"
)

// Failure classes surfaced to the user. Callers distinguish them with
// errors.Is; none of them are retried automatically.
var (
	// ErrProviderUnavailable covers network failures and provider outages.
	ErrProviderUnavailable = errors.New("market data provider unavailable")
	// ErrTickerNotFound means the provider does not recognize the symbol.
	ErrTickerNotFound = errors.New("ticker not found")
	// ErrNoOptions means the ticker exists but lists no options product.
	ErrNoOptions = errors.New("no options listed for ticker")
)

// Fetcher defines the interface for fetching options-chain data.
type Fetcher interface {
	// FetchChain returns the open-interest snapshot for ticker at the given
	// expiration. A zero expiration requests the provider's default chain
	// (nearest expiration).
	FetchChain(ctx context.Context, ticker string, expiration time.Time) (*model.OiSnapshot, error)
	// FetchExpirations returns the expiration dates available for ticker.
	FetchExpirations(ctx context.Context, ticker string) (model.ExpirationSet, error)
	Name() string
}
