package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcatool/internal/params"
	"dcatool/internal/replay"
)

const sampleResult = `{
	"symbol": "aapl",
	"priceSeries": [
		{"date": "2024-01-01", "close": 100},
		{"date": "2024-01-02", "close": 90, "adjustedClose": 89.5},
		{"date": "2024-01-03", "close": 95}
	],
	"transactions": [
		{"type": "BUY", "date": "2024-01-02", "price": 90, "shares": 111.11}
	],
	"enhancedTransactions": [
		{
			"type": "BUY", "date": "2024-01-02", "price": 90,
			"realizedPNL": 0, "totalPNL": 0,
			"lotsAfterTransaction": [
				{"entryDate": "2024-01-02", "entryPrice": 90, "shares": 111.11}
			]
		},
		{"type": "ABORTED_BUY", "date": "2024-01-03"}
	],
	"openOrders": {
		"activeTrailingStopBuy": {
			"isActive": true, "stopPrice": 96.5,
			"referenceExtremePrice": 101, "lastUpdatePrice": 98
		},
		"recentPeak": 101,
		"recentBottom": 88
	},
	"strategyParameters": {
		"lotSizeUsd": 10000, "maxPositions": 10, "strategyMode": "LONG",
		"buyActivationPercent": 0.05, "sellActivationPercent": 0.1
	}
}`

func TestParse_PrefersEnhancedLog(t *testing.T) {
	p, err := Parse(sampleResult)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", p.Symbol)
	assert.True(t, p.SnapshotsAvailable)
	require.Len(t, p.Bars, 3)
	assert.InDelta(t, 89.5, p.Bars[1].AdjClose, 1e-9)

	require.Len(t, p.Transactions, 2)
	buy := p.Transactions[0]
	assert.Equal(t, replay.TxBuy, buy.Type)
	require.Len(t, buy.Lots, 1)
	assert.InDelta(t, 90, buy.Lots[0].EntryPrice, 1e-9)
	assert.True(t, p.Transactions[1].Type.Aborted())

	require.NotNil(t, p.Orders.EntryStop)
	assert.True(t, p.Orders.EntryStop.Active)
	assert.InDelta(t, 96.5, p.Orders.EntryStop.StopPrice, 1e-9)
	assert.InDelta(t, 88, p.Orders.RecentBottom, 1e-9)
}

func TestParse_BasicLogFallback(t *testing.T) {
	raw := `{
		"symbol": "AAPL",
		"priceSeries": [{"date": "2024-01-01", "close": 100}],
		"transactions": [{"type": "SELL", "date": "2024-01-01", "price": 100}]
	}`
	p, err := Parse(raw)
	require.NoError(t, err)
	assert.False(t, p.SnapshotsAvailable)
	require.Len(t, p.Transactions, 1)
	assert.Equal(t, replay.TxSell, p.Transactions[0].Type)
}

func TestParse_Rejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"invalid json", "{nope"},
		{"array root", "[]"},
		{"missing price series", `{"symbol": "A"}`},
		{"bad date", `{"priceSeries": [{"date": "01/02/2024", "close": 1}]}`},
		{"missing type", `{
			"priceSeries": [{"date": "2024-01-01", "close": 1}],
			"transactions": [{"date": "2024-01-01"}]
		}`},
		{"mixed lots and shorts", `{
			"priceSeries": [{"date": "2024-01-01", "close": 1}],
			"transactions": [{
				"type": "BUY", "date": "2024-01-01",
				"lotsAfterTransaction": [{"entryPrice": 1}],
				"shortsAfterTransaction": [{"entryPrice": 1}]
			}]
		}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.raw)
			assert.Error(t, err)
		})
	}
}

func TestParseStrategyParams(t *testing.T) {
	t.Run("camelCase document", func(t *testing.T) {
		s, found, err := ParseStrategyParams(sampleResult)
		require.NoError(t, err)
		require.True(t, found)
		assert.InDelta(t, 10000, s.LotSizeUSD, 1e-9)
		assert.Equal(t, 10, s.MaxPositions)
		assert.Equal(t, params.ModeLong, s.Mode)
		assert.InDelta(t, 0.05, s.EntryActivationPct, 1e-9)
		assert.InDelta(t, 0.1, s.ExitActivationPct, 1e-9)
	})

	t.Run("absent", func(t *testing.T) {
		_, found, err := ParseStrategyParams(`{"symbol": "A"}`)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("invalid lot size", func(t *testing.T) {
		_, found, err := ParseStrategyParams(`{"strategyParameters": {"lotSizeUsd": 0}}`)
		assert.True(t, found)
		assert.Error(t, err)
	})
}
