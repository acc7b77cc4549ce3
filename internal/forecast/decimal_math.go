package forecast

import (
	"math"

	"github.com/shopspring/decimal"
)

var decOne = decimal.NewFromInt(1)

func decFromFloat(val float64) decimal.Decimal {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(val)
}

func decToFloat(val decimal.Decimal) float64 {
	f, _ := val.Float64()
	return f
}

// triggerBelow derives a trigger pct below the reference extreme,
// ref * (1 - pct). Zero when no usable reference exists.
func triggerBelow(ref, pct float64) float64 {
	if ref <= 0 {
		return 0
	}
	return decToFloat(decFromFloat(ref).Mul(decOne.Sub(decFromFloat(pct))))
}

// triggerAbove derives a trigger pct above the reference extreme,
// ref * (1 + pct).
func triggerAbove(ref, pct float64) float64 {
	if ref <= 0 {
		return 0
	}
	return decToFloat(decFromFloat(ref).Mul(decOne.Add(decFromFloat(pct))))
}

// distanceTo reports trigger-current as absolute and percent-of-current,
// signed by the direction the price must move to reach the trigger.
func distanceTo(current, trigger float64) (abs, pct float64) {
	if current <= 0 || trigger <= 0 {
		return 0, 0
	}
	cur := decFromFloat(current)
	diff := decFromFloat(trigger).Sub(cur)
	abs = decToFloat(diff)
	pct = decToFloat(diff.Div(cur).Mul(decimal.NewFromInt(100)))
	return abs, pct
}
