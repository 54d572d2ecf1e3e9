package collector

import (
	"context"
	"errors"
	"strings"
	"time"

	"OptionsFlowMap/internal/cache"
	"OptionsFlowMap/internal/logger"
	"OptionsFlowMap/internal/model"
)

// ErrEmptyTicker is returned before any provider call is made.
var ErrEmptyTicker = errors.New("ticker must not be empty")

// Collector orchestrates chain fetching and the optional snapshot cache.
type Collector struct {
	Fetcher Fetcher
	Cache   cache.Cache
	log     *logger.Entry
}

// NewCollector creates a new Collector. A nil cache means no caching.
func NewCollector(fetcher Fetcher, c cache.Cache) *Collector {
	if c == nil {
		c = cache.NewNoopCache()
	}
	return &Collector{
		Fetcher: fetcher,
		Cache:   c,
		log:     logger.GetLogger().WithComponent("collector"),
	}
}

// Snapshot returns the open-interest snapshot for ticker at expiration. A
// zero expiration resolves to the nearest available date.
func (c *Collector) Snapshot(ctx context.Context, ticker string, expiration time.Time) (*model.OiSnapshot, error) {
	ticker = normalizeTicker(ticker)
	if ticker == "" {
		return nil, ErrEmptyTicker
	}

	key := snapshotKey(ticker, expiration)
	if snap, ok := c.Cache.Get(ctx, key); ok {
		c.log.WithFields(logger.Fields{"ticker": ticker, "key": key}).Debug("cache hit")
		return snap, nil
	}

	start := time.Now()
	snap, err := c.Fetcher.FetchChain(ctx, ticker, expiration)
	if err != nil {
		return nil, err
	}
	c.log.WithFields(logger.Fields{
		"ticker":      ticker,
		"expiration":  snap.Expiration.Format(model.DateLayout),
		"calls":       len(snap.Calls),
		"puts":        len(snap.Puts),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("chain fetched")

	if err := c.Cache.Put(ctx, key, snap); err != nil {
		c.log.WithError(err).Warn("cache put failed")
	}
	return snap, nil
}

// Expirations returns the available expiration dates for ticker.
func (c *Collector) Expirations(ctx context.Context, ticker string) (model.ExpirationSet, error) {
	ticker = normalizeTicker(ticker)
	if ticker == "" {
		return nil, ErrEmptyTicker
	}
	return c.Fetcher.FetchExpirations(ctx, ticker)
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

func snapshotKey(ticker string, expiration time.Time) string {
	if expiration.IsZero() {
		return ticker + "|nearest"
	}
	return ticker + "|" + expiration.UTC().Format(model.DateLayout)
}
