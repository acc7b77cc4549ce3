package replay

import "fmt"

// TxType is the closed discriminant of the transaction variant. The two
// ABORTED types record a rejected attempt and never change portfolio state.
type TxType string

const (
	TxBuy                    TxType = "BUY"
	TxInitialBuy             TxType = "INITIAL_BUY"
	TxSell                   TxType = "SELL"
	TxTrailingStopLimitBuy   TxType = "TRAILING_STOP_LIMIT_BUY"
	TxShort                  TxType = "SHORT"
	TxTrailingStopLimitShort TxType = "TRAILING_STOP_LIMIT_SHORT"
	TxCover                  TxType = "COVER"
	TxEmergencyCover         TxType = "EMERGENCY_COVER"
	TxAbortedBuy             TxType = "ABORTED_BUY"
	TxAbortedSell            TxType = "ABORTED_SELL"
)

var knownTxTypes = map[TxType]bool{
	TxBuy: true, TxInitialBuy: true, TxSell: true, TxTrailingStopLimitBuy: true,
	TxShort: true, TxTrailingStopLimitShort: true, TxCover: true,
	TxEmergencyCover: true, TxAbortedBuy: true, TxAbortedSell: true,
}

// Aborted reports whether the event is a rejected attempt.
func (t TxType) Aborted() bool {
	return t == TxAbortedBuy || t == TxAbortedSell
}

// Opens reports whether the event opened a position (lot or short).
func (t TxType) Opens() bool {
	switch t {
	case TxBuy, TxInitialBuy, TxTrailingStopLimitBuy, TxShort, TxTrailingStopLimitShort:
		return true
	}
	return false
}

// Closes reports whether the event closed positions.
func (t TxType) Closes() bool {
	switch t {
	case TxSell, TxCover, TxEmergencyCover:
		return true
	}
	return false
}

// Position is one immutable open lot or short. Shares are informational:
// valuation always re-derives them from lot size / entry price.
type Position struct {
	EntryDate  string  `json:"entry_date"`
	EntryPrice float64 `json:"entry_price"`
	Shares     float64 `json:"shares,omitempty"`
}

// Transaction is one executed (or aborted) event of the backtest log.
// RealizedPNL is cumulative up to this event; TotalPNL is realized plus
// unrealized valued at the instant of execution. Exactly one of Lots or
// Shorts may be populated, depending on strategy polarity.
type Transaction struct {
	Type        TxType  `json:"type"`
	Date        string  `json:"date"`
	Price       float64 `json:"price"`
	Shares      float64 `json:"shares,omitempty"`
	RealizedPNL float64 `json:"realized_pnl"`
	TotalPNL    float64 `json:"total_pnl"`

	Lots   []Position `json:"lots_after_transaction,omitempty"`
	Shorts []Position `json:"shorts_after_transaction,omitempty"`
}

// Positions returns whichever snapshot side is populated.
func (t Transaction) Positions() []Position {
	if len(t.Shorts) > 0 {
		return t.Shorts
	}
	return t.Lots
}

// Validate rejects unknown discriminants and mixed lot/short snapshots.
func (t Transaction) Validate() error {
	if !knownTxTypes[t.Type] {
		return fmt.Errorf("unknown transaction type %q", t.Type)
	}
	if t.Date == "" {
		return fmt.Errorf("transaction of type %s has no date", t.Type)
	}
	if len(t.Lots) > 0 && len(t.Shorts) > 0 {
		return fmt.Errorf("transaction on %s mixes lot and short snapshots", t.Date)
	}
	return nil
}
