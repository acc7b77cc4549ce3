package replay

import (
	"dcatool/internal/market"
	"dcatool/internal/params"
)

// Input is the triple the replay is a pure function of. Transactions may
// be unsorted and may contain aborted events. SnapshotsAvailable is false
// when only the basic transaction log (no positionsAfter field) was
// supplied; holdings valuation is degraded then.
type Input struct {
	Bars               []market.PriceBar
	Transactions       []Transaction
	Params             params.Strategy
	SnapshotsAvailable bool
}

// Result is one full replay pass: a strictly date-ordered DayState per
// input bar, plus every soft warning hit along the way.
type Result struct {
	Days        []DayState   `json:"days"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	// Degraded is set when holdings values could not be reconstructed
	// because the log carried no position snapshots.
	Degraded bool `json:"degraded,omitempty"`
}

// Replay walks the price series in date order and reconstructs the
// portfolio state at every close. Deterministic and idempotent: the same
// input triple always yields bit-identical output.
func Replay(in Input) Result {
	rec := &Recorder{}
	bars := append([]market.PriceBar(nil), in.Bars...)
	market.SortBars(bars)

	idx := NewIndex(in.Transactions, rec)
	warnMissingBars(idx, bars, rec)

	short := in.Params.Short()
	lotSize := in.Params.LotSizeUSD

	var startPrice float64
	if len(bars) > 0 {
		startPrice = bars[0].EffectiveClose()
	}

	tracker := &CapitalTracker{}
	days := make([]DayState, 0, len(bars))
	for _, bar := range bars {
		price := bar.EffectiveClose()
		day := DayState{
			Date:              bar.Date,
			StockPrice:        price,
			BuyAndHoldPercent: BuyAndHoldPercent(price, startPrice),
		}

		var positions []Position
		var realized float64
		if tx, ok := idx.OnDate(bar.Date); ok {
			// Exact-date match always wins over the fallback path. The
			// transaction's TotalPNL is taken verbatim: it was valued at
			// the instant of execution, which may differ from the close.
			positions = tx.Positions()
			realized = tx.RealizedPNL
			day.TotalPNL = tx.TotalPNL
			day.HasBuy = tx.Type.Opens()
			day.HasSell = tx.Type.Closes()
			val := ValuePositions(positions, price, lotSize, short, rec)
			day.HoldingsValue = val.MarketValue
			day.OpenPositionCount = val.ValidCount
		} else if tx, ok := idx.LatestOnOrBefore(bar.Date); ok {
			// No trade today: carry the most recent prior state but
			// re-mark it to today's close. The prior TotalPNL reflects
			// valuation at its own execution price and must not be reused.
			positions = tx.Positions()
			realized = tx.RealizedPNL
			val := ValuePositions(positions, price, lotSize, short, rec)
			day.TotalPNL = val.UnrealizedPNL + realized
			day.HoldingsValue = val.MarketValue
			day.OpenPositionCount = val.ValidCount
		}

		day.RealizedPNL = realized
		day.CapitalDeployed = float64(day.OpenPositionCount) * lotSize
		day.MaxCapitalDeployed = tracker.Observe(day.CapitalDeployed)
		day.TotalPNLPercent = tracker.PercentOf(day.TotalPNL)
		day.BreakEvenValue = breakEvenValue(day.CapitalDeployed, realized, short)
		if in.Params.MaxPositions > 0 {
			day.LotsDeployedPercent = float64(day.OpenPositionCount) / float64(in.Params.MaxPositions) * 100
		}
		days = append(days, day)
	}

	return Result{
		Days:        days,
		Diagnostics: rec.Diagnostics(),
		Degraded:    !in.SnapshotsAvailable && idx.Len() > 0,
	}
}

// breakEvenValue is the holdings value (cost to cover, for shorts) at
// which total P&L crosses zero given the realized P&L booked so far.
func breakEvenValue(capitalDeployed, realized float64, short bool) float64 {
	if short {
		return capitalDeployed + realized
	}
	return capitalDeployed - realized
}

// warnMissingBars flags executed transactions whose date never shows up in
// the price series. Their state still flows in through the fallback path;
// valuation on such a day would have used the transaction's own price.
func warnMissingBars(idx *Index, bars []market.PriceBar, rec *Recorder) {
	if idx.Len() == 0 || len(bars) == 0 {
		return
	}
	barDates := make(map[string]bool, len(bars))
	for _, b := range bars {
		barDates[b.Date] = true
	}
	for _, tx := range idx.Ordered() {
		if !barDates[tx.Date] {
			rec.Warnf(DiagMissingPriceData, tx.Date,
				"transaction %s references a date absent from the price series", tx.Type)
		}
	}
}
