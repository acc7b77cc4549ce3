package replay

// CapitalTracker carries the high-water mark of capital ever deployed.
// The watermark, not the instantaneous deployment, is the denominator for
// normalized returns: performance is measured against the largest
// commitment the strategy ever made. It never decreases, even on days
// where every position is closed.
type CapitalTracker struct {
	watermark float64
}

// Observe folds one day's deployed capital into the watermark and returns
// the updated watermark.
func (c *CapitalTracker) Observe(deployed float64) float64 {
	if deployed > c.watermark {
		c.watermark = deployed
	}
	return c.watermark
}

func (c *CapitalTracker) Watermark() float64 { return c.watermark }

// PercentOf divides value by the watermark, as a percentage. Returns nil
// while the watermark is zero (no trade has ever executed): the figure is
// undefined then, never zero.
func (c *CapitalTracker) PercentOf(value float64) *float64 {
	if c.watermark <= 0 {
		return nil
	}
	pct := value / c.watermark * 100
	return &pct
}
