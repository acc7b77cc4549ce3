package replay

import (
	"math"

	"github.com/shopspring/decimal"
)

// Valuation is the mark-to-market of a set of open positions. For shorts,
// MarketValue is the cost to cover rather than a holding value.
type Valuation struct {
	MarketValue   float64
	UnrealizedPNL float64
	// ValidCount is the number of positions that carried a usable entry
	// price; capital-deployed math counts only these.
	ValidCount int
}

func decFromFloat(val float64) decimal.Decimal {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(val)
}

func decToFloat(val decimal.Decimal) float64 {
	f, _ := val.Float64()
	return f
}

// ValuePositions marks positions to currentPrice. Shares are re-derived as
// lotSizeUSD / entryPrice on every call so stored share counts can never
// drift from the fixed-dollar sizing. Short polarity inverts the P&L sign:
// a short profits when price falls. Positions without a positive entry
// price are skipped with a diagnostic.
func ValuePositions(positions []Position, currentPrice, lotSizeUSD float64, short bool, rec *Recorder) Valuation {
	if len(positions) == 0 {
		return Valuation{}
	}
	price := decFromFloat(currentPrice)
	lot := decFromFloat(lotSizeUSD)
	marketValue := decimal.Zero
	valid := 0
	for _, pos := range positions {
		if pos.EntryPrice <= 0 {
			rec.Warnf(DiagMalformedPosition, pos.EntryDate,
				"position without entry price excluded from valuation")
			continue
		}
		shares := lot.Div(decFromFloat(pos.EntryPrice))
		marketValue = marketValue.Add(shares.Mul(price))
		valid++
	}
	deployed := lot.Mul(decimal.NewFromInt(int64(valid)))
	var unrealized decimal.Decimal
	if short {
		unrealized = deployed.Sub(marketValue)
	} else {
		unrealized = marketValue.Sub(deployed)
	}
	return Valuation{
		MarketValue:   decToFloat(marketValue),
		UnrealizedPNL: decToFloat(unrealized),
		ValidCount:    valid,
	}
}
