package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"OptionsFlowMap/internal/cache"
	"OptionsFlowMap/internal/collector"
	"OptionsFlowMap/internal/config"
	"OptionsFlowMap/internal/logger"
	"OptionsFlowMap/internal/model"
	"OptionsFlowMap/internal/presenter"
	"OptionsFlowMap/internal/server"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("error loading .env file")
	}

	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	oneTicker := flag.String("ticker", "", "one-shot mode: print the open-interest table for this ticker and exit")
	oneExpiration := flag.String("expiration", "", "one-shot mode: expiration date (YYYY-MM-DD), default nearest")
	flag.Parse()

	if v := os.Getenv("CONFIG_PATH"); v != "" {
		*configPath = v
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("configuration validation failed")
		os.Exit(1)
	}
	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("failed to configure logger")
		os.Exit(1)
	}

	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "mock":
		fetcher = &collector.MockFetcher{}
	default:
		fetcher = collector.NewYahooFetcher(
			cfg.DataSource.BaseURL,
			cfg.DataSource.Proxy,
			cfg.RateLimit.RequestsPerSecond,
			cfg.RateLimit.Burst,
		)
	}
	log.WithFields(logger.Fields{"provider": fetcher.Name()}).Info("data source selected")

	var snapCache cache.Cache = cache.NewNoopCache()
	if cfg.Cache.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, time.Duration(cfg.Cache.TTLHours)*time.Hour)
		cancel()
		if err != nil {
			log.WithError(err).Warn("redis cache unavailable, running without cache")
		} else {
			snapCache = rc
			log.WithFields(logger.Fields{"ttl_hours": cfg.Cache.TTLHours}).Info("snapshot cache enabled")
		}
	}
	defer snapCache.Close()

	col := collector.NewCollector(fetcher, snapCache)

	if *oneTicker != "" {
		os.Exit(runOnce(col, cfg, *oneTicker, *oneExpiration))
	}

	srv := server.New(col, server.Options{
		Addr:          cfg.Server.Listen,
		DefaultTicker: cfg.Server.DefaultTicker,
		DefaultRange:  cfg.Server.DefaultRange,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("server failed")
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
	log.Info("dashboard stopped")
}

// runOnce fetches a single snapshot and prints the strike table, for use
// without the web UI.
func runOnce(col *collector.Collector, cfg *config.Config, ticker, expiration string) int {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var expDate time.Time
	if expiration != "" {
		d, err := time.ParseInLocation(model.DateLayout, expiration, time.UTC)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid expiration %q, want YYYY-MM-DD\n", expiration)
			return 2
		}
		expDate = d
	}

	snap, err := col.Snapshot(ctx, ticker, expDate)
	if err != nil {
		switch {
		case errors.Is(err, collector.ErrTickerNotFound):
			fmt.Fprintf(os.Stderr, "ticker not found: %s\n", ticker)
		case errors.Is(err, collector.ErrNoOptions):
			fmt.Fprintf(os.Stderr, "no options listed for %s\n", ticker)
		case errors.Is(err, collector.ErrProviderUnavailable):
			fmt.Fprintf(os.Stderr, "market data provider unavailable: %v\n", err)
		default:
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		return 1
	}

	view := presenter.Present(snap, presenter.Options{
		StrikeRange: decimal.NewFromInt(int64(cfg.Server.DefaultRange)),
	})
	if view.NoData {
		fmt.Printf("no open interest for %s at %s\n", snap.Ticker, snap.Expiration.Format(model.DateLayout))
		return 0
	}

	fmt.Printf("%s  expiration %s", snap.Ticker, snap.Expiration.Format(model.DateLayout))
	if snap.HasSpot {
		fmt.Printf("  spot %s", snap.Spot.StringFixed(2))
	}
	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "STRIKE\tCALL OI\tPUT OI\tNET DELTA\t")
	for _, r := range view.Rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%+d\t\n", r.Strike.String(), r.CallOI, r.PutOI, r.NetDelta)
	}
	tw.Flush()
	return 0
}
