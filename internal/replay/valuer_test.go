package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValuePositions_LongShortSignInversion(t *testing.T) {
	// One position entered at $100 with lot size $10k holds 100 shares.
	positions := []Position{{EntryDate: "2024-01-02", EntryPrice: 100}}

	t.Run("long loses when price falls", func(t *testing.T) {
		val := ValuePositions(positions, 80, 10000, false, nil)
		assert.InDelta(t, 8000, val.MarketValue, 1e-9)
		assert.InDelta(t, -2000, val.UnrealizedPNL, 1e-9)
		assert.Equal(t, 1, val.ValidCount)
	})

	t.Run("short gains when price falls", func(t *testing.T) {
		val := ValuePositions(positions, 80, 10000, true, nil)
		assert.InDelta(t, 8000, val.MarketValue, 1e-9)
		assert.InDelta(t, 2000, val.UnrealizedPNL, 1e-9)
	})

	t.Run("short loses when price rises", func(t *testing.T) {
		val := ValuePositions(positions, 120, 10000, true, nil)
		assert.InDelta(t, -2000, val.UnrealizedPNL, 1e-9)
	})
}

func TestValuePositions_SharesRederivedFromLotSize(t *testing.T) {
	// A stored share count that disagrees with lot/entry must not leak
	// into the valuation.
	positions := []Position{{EntryDate: "2024-01-02", EntryPrice: 50, Shares: 999}}
	val := ValuePositions(positions, 60, 10000, false, nil)
	assert.InDelta(t, 12000, val.MarketValue, 1e-6)
	assert.InDelta(t, 2000, val.UnrealizedPNL, 1e-6)
}

func TestValuePositions_EmptyList(t *testing.T) {
	val := ValuePositions(nil, 100, 10000, false, nil)
	assert.Zero(t, val.MarketValue)
	assert.Zero(t, val.UnrealizedPNL)
	assert.Zero(t, val.ValidCount)
}

func TestValuePositions_MalformedPositionExcluded(t *testing.T) {
	rec := &Recorder{}
	positions := []Position{
		{EntryDate: "2024-01-02", EntryPrice: 100},
		{EntryDate: "2024-01-03"}, // no entry price
	}
	val := ValuePositions(positions, 110, 10000, false, rec)
	assert.Equal(t, 1, val.ValidCount)
	assert.InDelta(t, 11000, val.MarketValue, 1e-6)
	assert.InDelta(t, 1000, val.UnrealizedPNL, 1e-6)

	diags := rec.Diagnostics()
	assert.Len(t, diags, 1)
	assert.Equal(t, DiagMalformedPosition, diags[0].Kind)
}

func TestValuePositions_MultipleLots(t *testing.T) {
	positions := []Position{
		{EntryPrice: 100},
		{EntryPrice: 200},
	}
	// 100 + 50 shares at $150: 15000 + 7500 against 20000 deployed.
	val := ValuePositions(positions, 150, 10000, false, nil)
	assert.InDelta(t, 22500, val.MarketValue, 1e-6)
	assert.InDelta(t, 2500, val.UnrealizedPNL, 1e-6)
	assert.Equal(t, 2, val.ValidCount)
}
