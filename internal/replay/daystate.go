package replay

// DayState is the reconstructed portfolio state at one price bar's close.
// One record per input bar, computed once and never mutated.
type DayState struct {
	Date       string  `json:"date"`
	StockPrice float64 `json:"stock_price"`

	TotalPNL float64 `json:"total_pnl"`
	// TotalPNLPercent is nil until the first trade establishes a capital
	// watermark; nil means "undefined", not zero.
	TotalPNLPercent    *float64 `json:"total_pnl_percent"`
	CapitalDeployed    float64  `json:"capital_deployed"`
	MaxCapitalDeployed float64  `json:"max_capital_deployed"`
	HoldingsValue      float64  `json:"holdings_value"`
	RealizedPNL        float64  `json:"realized_pnl"`
	BreakEvenValue     float64  `json:"break_even_value"`

	LotsDeployedPercent float64 `json:"lots_deployed_percent"`
	BuyAndHoldPercent   float64 `json:"buy_and_hold_percent"`

	OpenPositionCount int  `json:"open_position_count"`
	HasBuy            bool `json:"has_buy"`
	HasSell           bool `json:"has_sell"`
}
