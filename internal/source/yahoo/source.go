// Package yahoo supplies daily close series for stock symbols via the
// Yahoo Finance v8 chart API. No third-party SDK exists for it; a plain
// HTTP client against the chart endpoint is the established approach.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dcatool/internal/market"
)

var ErrNoResult = errors.New("yahoo: no result")

type Source struct {
	cli     *http.Client
	baseURL string
}

func New() *Source {
	return &Source{
		cli:     &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://query2.finance.yahoo.com",
	}
}

// NewWithBaseURL points the source at a different host, for tests.
func NewWithBaseURL(base string) *Source {
	s := New()
	s.baseURL = strings.TrimRight(base, "/")
	return s
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// DailyBars fetches daily history for symbol over rng ("1y", "5y", "max").
func (s *Source) DailyBars(ctx context.Context, symbol, rng string) ([]market.PriceBar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if rng == "" {
		rng = "1y"
	}
	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s&events=div%%2Csplit", s.baseURL, symbol, rng)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "dcatool/1.0")

	resp, err := s.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo http %d for %s", resp.StatusCode, symbol)
	}

	var raw chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	if len(raw.Chart.Result) == 0 {
		return nil, ErrNoResult
	}
	result := raw.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, ErrNoResult
	}
	closes := result.Indicators.Quote[0].Close
	var adj []float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]market.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] <= 0 {
			continue
		}
		bar := market.PriceBar{
			Date:  market.Day(time.Unix(ts, 0)),
			Close: closes[i],
		}
		if i < len(adj) && adj[i] > 0 {
			bar.AdjClose = adj[i]
		}
		bars = append(bars, bar)
	}
	market.SortBars(bars)
	return bars, nil
}
