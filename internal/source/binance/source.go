// Package binance supplies daily close series for crypto symbols. The
// replay core never fetches data itself; this is the data-supply
// collaborator feeding it.
package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"

	"dcatool/internal/market"
)

const (
	maxKlineLimit = 1000
	dailyInterval = "1d"
)

type Config struct {
	RESTBaseURL string
	HTTPTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 15 * time.Second
	}
	return c
}

// Source fetches daily klines through the go-binance SDK.
type Source struct {
	cfg    Config
	client *binance.Client
}

func New(cfg Config) *Source {
	final := cfg.withDefaults()
	client := binance.NewClient("", "")
	if base := strings.TrimSpace(final.RESTBaseURL); base != "" {
		client.BaseURL = base
	}
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &Source{cfg: final, client: client}
}

// DailyBars fetches up to limit daily bars for symbol, oldest first.
// Binance wants bare symbols (ETHUSDT, no slash).
func (s *Source) DailyBars(ctx context.Context, symbol string, limit int) ([]market.PriceBar, error) {
	symbol = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(symbol), "/", ""))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if limit <= 0 {
		limit = 365
	}
	if limit > maxKlineLimit {
		limit = maxKlineLimit
	}
	kls, err := s.client.NewKlinesService().
		Symbol(symbol).Interval(dailyInterval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
	}
	bars := make([]market.PriceBar, 0, len(kls))
	now := time.Now().UnixMilli()
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		// Drop the still-forming daily candle.
		if kl.CloseTime > now {
			continue
		}
		bars = append(bars, market.PriceBar{
			Date:  market.Day(time.UnixMilli(kl.OpenTime)),
			Close: parseFloat(kl.Close),
		})
	}
	market.SortBars(bars)
	return bars, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
