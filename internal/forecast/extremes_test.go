package forecast

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"dcatool/internal/market"
)

func barsFromCloses(closes []float64) []market.PriceBar {
	bars := make([]market.PriceBar, 0, len(closes))
	for i, c := range closes {
		bars = append(bars, market.PriceBar{
			Date:  fmt.Sprintf("2024-01-%02d", i+1),
			Close: c,
		})
	}
	return bars
}

func TestWindowExtremes_ShortSeries(t *testing.T) {
	bars := barsFromCloses([]float64{100, 95, 105, 98})
	peak, bottom := WindowExtremes(bars, 20)
	assert.InDelta(t, 105, peak, 1e-9)
	assert.InDelta(t, 95, bottom, 1e-9)
}

func TestWindowExtremes_RollingWindow(t *testing.T) {
	// 30 bars; only the last 5 matter for a 5-day window.
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 200 // old extreme outside the window
	}
	copy(closes[25:], []float64{101, 99, 104, 97, 102})
	peak, bottom := WindowExtremes(barsFromCloses(closes), 5)
	assert.InDelta(t, 104, peak, 1e-9)
	assert.InDelta(t, 97, bottom, 1e-9)
}

func TestWindowExtremes_Empty(t *testing.T) {
	peak, bottom := WindowExtremes(nil, 5)
	assert.Zero(t, peak)
	assert.Zero(t, bottom)
}

func TestWindowExtremes_AdjustedCloseWins(t *testing.T) {
	bars := []market.PriceBar{
		{Date: "2024-01-01", Close: 100, AdjClose: 50},
		{Date: "2024-01-02", Close: 90, AdjClose: 45},
	}
	peak, bottom := WindowExtremes(bars, 10)
	assert.InDelta(t, 50, peak, 1e-9)
	assert.InDelta(t, 45, bottom, 1e-9)
}
