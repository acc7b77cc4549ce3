package input

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"dcatool/internal/params"
)

// ParseStrategyParams pulls the strategyParameters object out of a
// backtest-result document. The surrounding app writes camelCase names;
// snake_case is accepted too so hand-written payloads round-trip. The
// second return is false when the document carries no parameters at all.
func ParseStrategyParams(raw string) (params.Strategy, bool, error) {
	node := gjson.Get(raw, "strategyParameters")
	if !node.Exists() {
		node = gjson.Get(raw, "strategy_parameters")
	}
	if !node.Exists() || !node.IsObject() {
		return params.Strategy{}, false, nil
	}
	mode, err := params.ParseMode(pick(node, "strategyMode", "mode").String())
	if err != nil {
		return params.Strategy{}, true, err
	}
	s := params.Strategy{
		LotSizeUSD:         pick(node, "lotSizeUsd", "lot_size_usd").Float(),
		MaxPositions:       int(pick(node, "maxPositions", "max_positions").Int()),
		Mode:               mode,
		EntryActivationPct: pick(node, "buyActivationPercent", "entry_activation_pct").Float(),
		EntryPullbackPct:   pick(node, "buyPullbackPercent", "entry_pullback_pct").Float(),
		ExitActivationPct:  pick(node, "sellActivationPercent", "exit_activation_pct").Float(),
		ExitPullbackPct:    pick(node, "sellPullbackPercent", "exit_pullback_pct").Float(),
	}
	norm, err := s.Normalized()
	if err != nil {
		return params.Strategy{}, true, fmt.Errorf("strategyParameters invalid: %w", err)
	}
	return norm, true, nil
}

func pick(node gjson.Result, names ...string) gjson.Result {
	for _, name := range names {
		if v := node.Get(strings.TrimSpace(name)); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
