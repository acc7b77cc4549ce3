package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIndex_DropsAbortedAndSorts(t *testing.T) {
	rec := &Recorder{}
	idx := NewIndex([]Transaction{
		{Type: TxSell, Date: "2024-03-01", RealizedPNL: 120},
		{Type: TxAbortedBuy, Date: "2024-02-15"},
		{Type: TxBuy, Date: "2024-01-10"},
		{Type: TxAbortedSell, Date: "2024-01-10"},
	}, rec)

	assert.Equal(t, 2, idx.Len())
	ordered := idx.Ordered()
	assert.Equal(t, "2024-01-10", ordered[0].Date)
	assert.Equal(t, "2024-03-01", ordered[1].Date)

	_, ok := idx.OnDate("2024-02-15")
	assert.False(t, ok, "aborted event must not be indexed")
	assert.Empty(t, rec.Diagnostics())
}

func TestNewIndex_DuplicateDateLastWins(t *testing.T) {
	rec := &Recorder{}
	idx := NewIndex([]Transaction{
		{Type: TxBuy, Date: "2024-01-10", Price: 90},
		{Type: TxSell, Date: "2024-01-10", Price: 95},
	}, rec)

	tx, ok := idx.OnDate("2024-01-10")
	require.True(t, ok)
	assert.Equal(t, TxSell, tx.Type)

	diags := rec.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, DiagAmbiguousTransactionDate, diags[0].Kind)
	assert.Equal(t, "2024-01-10", diags[0].Date)
}

func TestNewIndex_DropsMixedSnapshots(t *testing.T) {
	rec := &Recorder{}
	idx := NewIndex([]Transaction{
		{
			Type: TxBuy, Date: "2024-01-10",
			Lots:   []Position{{EntryPrice: 90}},
			Shorts: []Position{{EntryPrice: 90}},
		},
	}, rec)
	assert.Zero(t, idx.Len())
	require.Len(t, rec.Diagnostics(), 1)
}

func TestIndex_LatestOnOrBefore(t *testing.T) {
	idx := NewIndex([]Transaction{
		{Type: TxBuy, Date: "2024-01-10"},
		{Type: TxBuy, Date: "2024-02-10"},
		{Type: TxSell, Date: "2024-03-10"},
	}, nil)

	t.Run("before first", func(t *testing.T) {
		_, ok := idx.LatestOnOrBefore("2024-01-09")
		assert.False(t, ok)
	})
	t.Run("exact date counts", func(t *testing.T) {
		tx, ok := idx.LatestOnOrBefore("2024-02-10")
		require.True(t, ok)
		assert.Equal(t, "2024-02-10", tx.Date)
	})
	t.Run("between transactions", func(t *testing.T) {
		tx, ok := idx.LatestOnOrBefore("2024-02-20")
		require.True(t, ok)
		assert.Equal(t, "2024-02-10", tx.Date)
	})
	t.Run("after last", func(t *testing.T) {
		tx, ok := idx.LatestOnOrBefore("2030-01-01")
		require.True(t, ok)
		assert.Equal(t, "2024-03-10", tx.Date)
	})
}
