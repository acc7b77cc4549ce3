package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapitalTracker_WatermarkNeverDecreases(t *testing.T) {
	tracker := &CapitalTracker{}
	deployments := []float64{0, 10000, 30000, 20000, 0, 5000}
	expected := []float64{0, 10000, 30000, 30000, 30000, 30000}
	for i, d := range deployments {
		assert.Equal(t, expected[i], tracker.Observe(d))
	}
	assert.Equal(t, 30000.0, tracker.Watermark())
}

func TestCapitalTracker_PercentOf(t *testing.T) {
	tracker := &CapitalTracker{}

	t.Run("undefined while watermark is zero", func(t *testing.T) {
		assert.Nil(t, tracker.PercentOf(500))
	})

	t.Run("percent of watermark after first trade", func(t *testing.T) {
		tracker.Observe(10000)
		pct := tracker.PercentOf(555.5555)
		require.NotNil(t, pct)
		assert.InDelta(t, 5.555555, *pct, 1e-6)
	})

	t.Run("zero value is zero percent, not nil", func(t *testing.T) {
		pct := tracker.PercentOf(0)
		require.NotNil(t, pct)
		assert.Zero(t, *pct)
	})
}
