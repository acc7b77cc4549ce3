package forecast

import (
	"dcatool/internal/params"
)

// Direction of the projected next trade.
type Direction string

const (
	DirBuy   Direction = "BUY"
	DirSell  Direction = "SELL"
	DirShort Direction = "SHORT"
	DirCover Direction = "COVER"
)

// StopState mirrors an armed trailing-stop order as the backtest engine
// reports it. The projector only reads it; ownership stays with the
// engine.
type StopState struct {
	Active         bool    `json:"active"`
	StopPrice      float64 `json:"stop_price"`
	LimitPrice     float64 `json:"limit_price,omitempty"`
	ReferencePrice float64 `json:"reference_price"` // peak or bottom the stop trails from
	LastPrice      float64 `json:"last_price,omitempty"`
}

// OrderState is the optional open-order context for a projection.
type OrderState struct {
	EntryStop    *StopState `json:"entry_stop,omitempty"`
	ExitStop     *StopState `json:"exit_stop,omitempty"`
	RecentPeak   float64    `json:"recent_peak,omitempty"`
	RecentBottom float64    `json:"recent_bottom,omitempty"`
}

// Forecast is a human-interpretable "next trade" projection. When Active,
// TriggerPrice is the live stop price of an armed order; otherwise it is
// the theoretical activation price derived from the configured percents.
type Forecast struct {
	Direction      Direction `json:"direction"`
	Active         bool      `json:"active"`
	TriggerPrice   float64   `json:"trigger_price"`
	LimitPrice     float64   `json:"limit_price,omitempty"`
	ReferencePrice float64   `json:"reference_price"`
	ActivationPct  float64   `json:"activation_pct"`
	PullbackPct    float64   `json:"pullback_pct"`
	Distance       float64   `json:"distance"`
	DistancePct    float64   `json:"distance_pct"`
}

// Input for one projection. OpenPositionCount gates the exit side: with
// nothing held there is nothing to protect and no sell/cover forecast.
type Input struct {
	CurrentPrice      float64
	Params            params.Strategy
	Orders            OrderState
	OpenPositionCount int
}

// Project derives the entry- and exit-side forecasts. Entry is BUY in
// LONG mode and SHORT in SHORT_DCA mode; exit is SELL or COVER. The exit
// forecast is nil, not zero-filled, when no position is open: a caller
// must be able to tell "no position to protect" from "stop at $0".
func Project(in Input) (entry, exit *Forecast) {
	entry = projectEntry(in)
	if in.OpenPositionCount > 0 {
		exit = projectExit(in)
	}
	return entry, exit
}

func projectEntry(in Input) *Forecast {
	p := in.Params
	dir := DirBuy
	if p.Short() {
		dir = DirShort
	}
	if s := in.Orders.EntryStop; s != nil && s.Active {
		return passThrough(dir, s, p.EntryActivationPct, p.EntryPullbackPct, in.CurrentPrice)
	}
	var ref, trigger float64
	if p.Short() {
		// Short entries arm after the price rises off a recent bottom.
		ref = fallback(in.Orders.RecentBottom, in.CurrentPrice)
		trigger = triggerAbove(ref, p.EntryActivationPct)
	} else {
		// Long entries arm after the price falls off a recent peak.
		ref = fallback(in.Orders.RecentPeak, in.CurrentPrice)
		trigger = triggerBelow(ref, p.EntryActivationPct)
	}
	return theoretical(dir, trigger, ref, p.EntryActivationPct, p.EntryPullbackPct, in.CurrentPrice)
}

func projectExit(in Input) *Forecast {
	p := in.Params
	dir := DirSell
	if p.Short() {
		dir = DirCover
	}
	if s := in.Orders.ExitStop; s != nil && s.Active {
		return passThrough(dir, s, p.ExitActivationPct, p.ExitPullbackPct, in.CurrentPrice)
	}
	var ref, trigger float64
	if p.Short() {
		// Covers arm after the price falls off a recent peak.
		ref = fallback(in.Orders.RecentPeak, in.CurrentPrice)
		trigger = triggerBelow(ref, p.ExitActivationPct)
	} else {
		// Sells arm after the price rebounds off a recent bottom.
		ref = fallback(in.Orders.RecentBottom, in.CurrentPrice)
		trigger = triggerAbove(ref, p.ExitActivationPct)
	}
	return theoretical(dir, trigger, ref, p.ExitActivationPct, p.ExitPullbackPct, in.CurrentPrice)
}

// passThrough surfaces an armed order's live state without recomputing it.
func passThrough(dir Direction, s *StopState, activationPct, pullbackPct, current float64) *Forecast {
	abs, pct := distanceTo(current, s.StopPrice)
	return &Forecast{
		Direction:      dir,
		Active:         true,
		TriggerPrice:   s.StopPrice,
		LimitPrice:     s.LimitPrice,
		ReferencePrice: s.ReferencePrice,
		ActivationPct:  activationPct,
		PullbackPct:    pullbackPct,
		Distance:       abs,
		DistancePct:    pct,
	}
}

func theoretical(dir Direction, trigger, ref, activationPct, pullbackPct, current float64) *Forecast {
	abs, pct := distanceTo(current, trigger)
	return &Forecast{
		Direction:      dir,
		Active:         false,
		TriggerPrice:   trigger,
		ReferencePrice: ref,
		ActivationPct:  activationPct,
		PullbackPct:    pullbackPct,
		Distance:       abs,
		DistancePct:    pct,
	}
}

func fallback(ref, current float64) float64 {
	if ref > 0 {
		return ref
	}
	return current
}
