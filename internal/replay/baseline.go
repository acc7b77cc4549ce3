package replay

// BuyAndHoldPercent is the return of buying once at startPrice and
// holding, in percent. Zero when the window has no usable start price.
func BuyAndHoldPercent(currentPrice, startPrice float64) float64 {
	if startPrice <= 0 {
		return 0
	}
	return (currentPrice - startPrice) / startPrice * 100
}
