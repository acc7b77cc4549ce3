package store

import (
	"gorm.io/datatypes"
)

// RunModel is one persisted replay pass over a symbol's price series.
type RunModel struct {
	ID               string  `gorm:"column:id;primaryKey" json:"id"`
	Symbol           string  `gorm:"column:symbol;index" json:"symbol"`
	Preset           string  `gorm:"column:preset" json:"preset,omitempty"`
	Mode             string  `gorm:"column:mode" json:"mode"`
	LotSizeUSD       float64 `gorm:"column:lot_size_usd" json:"lot_size_usd"`
	MaxPositions     int     `gorm:"column:max_positions" json:"max_positions"`
	BarCount         int     `gorm:"column:bar_count" json:"bar_count"`
	TransactionCount int     `gorm:"column:transaction_count" json:"transaction_count"`
	Degraded         bool    `gorm:"column:degraded" json:"degraded"`

	FinalTotalPNL        float64  `gorm:"column:final_total_pnl" json:"final_total_pnl"`
	FinalTotalPNLPercent *float64 `gorm:"column:final_total_pnl_percent" json:"final_total_pnl_percent"`
	MaxCapitalDeployed   float64  `gorm:"column:max_capital_deployed" json:"max_capital_deployed"`

	Diagnostics datatypes.JSON `gorm:"column:diagnostics_json" json:"diagnostics,omitempty"`

	CreatedAtUnix int64 `gorm:"column:created_at" json:"created_at"`
}

func (RunModel) TableName() string { return "replay_runs" }

// DayStateModel is one reconstructed day of a run.
type DayStateModel struct {
	ID    int64  `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	RunID string `gorm:"column:run_id;index" json:"run_id"`
	Date  string `gorm:"column:date" json:"date"`

	StockPrice         float64  `gorm:"column:stock_price" json:"stock_price"`
	TotalPNL           float64  `gorm:"column:total_pnl" json:"total_pnl"`
	TotalPNLPercent    *float64 `gorm:"column:total_pnl_percent" json:"total_pnl_percent"`
	CapitalDeployed    float64  `gorm:"column:capital_deployed" json:"capital_deployed"`
	MaxCapitalDeployed float64  `gorm:"column:max_capital_deployed" json:"max_capital_deployed"`
	HoldingsValue      float64  `gorm:"column:holdings_value" json:"holdings_value"`
	RealizedPNL        float64  `gorm:"column:realized_pnl" json:"realized_pnl"`
	BreakEvenValue     float64  `gorm:"column:break_even_value" json:"break_even_value"`

	LotsDeployedPercent float64 `gorm:"column:lots_deployed_percent" json:"lots_deployed_percent"`
	BuyAndHoldPercent   float64 `gorm:"column:buy_and_hold_percent" json:"buy_and_hold_percent"`

	OpenPositionCount int  `gorm:"column:open_position_count" json:"open_position_count"`
	HasBuy            bool `gorm:"column:has_buy" json:"has_buy"`
	HasSell           bool `gorm:"column:has_sell" json:"has_sell"`
}

func (DayStateModel) TableName() string { return "replay_day_states" }

// TransactionModel is one executed transaction of a run's log, kept so
// the UI's transaction table can re-query without re-parsing the payload.
type TransactionModel struct {
	ID          int64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	RunID       string         `gorm:"column:run_id;index" json:"run_id"`
	Date        string         `gorm:"column:date" json:"date"`
	Type        string         `gorm:"column:type" json:"type"`
	Price       float64        `gorm:"column:price" json:"price"`
	Shares      float64        `gorm:"column:shares" json:"shares,omitempty"`
	RealizedPNL float64        `gorm:"column:realized_pnl" json:"realized_pnl"`
	TotalPNL    float64        `gorm:"column:total_pnl" json:"total_pnl"`
	Positions   datatypes.JSON `gorm:"column:positions_json" json:"positions,omitempty"`
}

func (TransactionModel) TableName() string { return "replay_transactions" }
