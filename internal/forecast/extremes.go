package forecast

import (
	talib "github.com/markcheno/go-talib"

	"dcatool/internal/market"
)

const defaultExtremeWindow = 20

// WindowExtremes derives the recent peak and bottom from the tail of a
// daily series, for projections where the engine supplied no reference.
func WindowExtremes(bars []market.PriceBar, window int) (peak, bottom float64) {
	if window <= 0 {
		window = defaultExtremeWindow
	}
	closes := market.Closes(bars)
	if len(closes) == 0 {
		return 0, 0
	}
	if len(closes) <= window {
		return scanExtremes(closes)
	}
	highs := talib.Max(closes, window)
	lows := talib.Min(closes, window)
	return highs[len(highs)-1], lows[len(lows)-1]
}

func scanExtremes(closes []float64) (peak, bottom float64) {
	peak, bottom = closes[0], closes[0]
	for _, c := range closes[1:] {
		if c > peak {
			peak = c
		}
		if c < bottom {
			bottom = c
		}
	}
	return peak, bottom
}
