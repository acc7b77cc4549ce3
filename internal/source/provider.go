package source

import (
	"context"
	"fmt"
	"strings"

	"dcatool/internal/logger"
	"dcatool/internal/market"
	"dcatool/internal/source/binance"
	"dcatool/internal/source/yahoo"
)

const (
	ProviderBinance = "binance"
	ProviderYahoo   = "yahoo"
)

// Provider routes bar requests to the named upstream and keeps the cache
// warm. When the upstream is down the last cached series is served
// instead of an error.
type Provider struct {
	cache   *BarCache
	binance *binance.Source
	yahoo   *yahoo.Source
}

func NewProvider(cache *BarCache, bn *binance.Source, yh *yahoo.Source) *Provider {
	return &Provider{cache: cache, binance: bn, yahoo: yh}
}

// DailyBars fetches up to limit daily bars for symbol from the named
// provider, oldest first.
func (p *Provider) DailyBars(ctx context.Context, provider, symbol string, limit int) ([]market.PriceBar, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		provider = ProviderBinance
	}
	bars, err := p.fetch(ctx, provider, symbol, limit)
	if err != nil {
		if cached := p.cached(ctx, provider, symbol); len(cached) > 0 {
			logger.Warnf("source %s %s unavailable, serving %d cached bars: %v",
				provider, symbol, len(cached), err)
			return cached, nil
		}
		return nil, err
	}
	if p.cache != nil && len(bars) > 0 {
		if err := p.cache.Put(ctx, provider, symbol, bars); err != nil {
			logger.Warnf("bar cache write for %s %s failed: %v", provider, symbol, err)
		}
	}
	return bars, nil
}

func (p *Provider) fetch(ctx context.Context, provider, symbol string, limit int) ([]market.PriceBar, error) {
	switch provider {
	case ProviderBinance:
		if p.binance == nil {
			return nil, fmt.Errorf("binance source not configured")
		}
		return p.binance.DailyBars(ctx, symbol, limit)
	case ProviderYahoo:
		if p.yahoo == nil {
			return nil, fmt.Errorf("yahoo source not configured")
		}
		return p.yahoo.DailyBars(ctx, symbol, rangeFor(limit))
	default:
		return nil, fmt.Errorf("unknown price source %q", provider)
	}
}

func (p *Provider) cached(ctx context.Context, provider, symbol string) []market.PriceBar {
	if p.cache == nil {
		return nil
	}
	bars, err := p.cache.Get(ctx, provider, symbol)
	if err != nil {
		return nil
	}
	return bars
}

// rangeFor maps a bar count onto Yahoo's coarse range buckets.
func rangeFor(limit int) string {
	switch {
	case limit <= 0 || limit <= 260:
		return "1y"
	case limit <= 1300:
		return "5y"
	default:
		return "max"
	}
}
