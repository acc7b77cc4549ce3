// Package input decodes the backtest-result payload produced by the
// surrounding application. The payload is duck-typed JSON: camelCase field
// names, optional fields per transaction variant, and two parallel
// transaction logs ("transactions" and "enhancedTransactions") of which
// only the enhanced one carries position snapshots. gjson keeps the
// decode tolerant of fields this core does not know about.
package input

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"dcatool/internal/forecast"
	"dcatool/internal/market"
	"dcatool/internal/replay"
)

// Payload is a decoded backtest result, ready for replay.
type Payload struct {
	Symbol       string
	Bars         []market.PriceBar
	Transactions []replay.Transaction
	// SnapshotsAvailable is true when the enhanced log was present;
	// the basic log is a degraded fallback without positionsAfter.
	SnapshotsAvailable bool
	Orders             forecast.OrderState
}

// Parse decodes a backtest-result document.
func Parse(raw string) (Payload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Payload{}, fmt.Errorf("backtest result is empty")
	}
	if !gjson.Valid(raw) {
		return Payload{}, fmt.Errorf("backtest result is not valid JSON")
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return Payload{}, fmt.Errorf("backtest result root must be an object")
	}

	p := Payload{Symbol: strings.ToUpper(strings.TrimSpace(doc.Get("symbol").String()))}

	bars, err := parseBars(doc.Get("priceSeries"))
	if err != nil {
		return Payload{}, err
	}
	p.Bars = bars

	// Prefer the enhanced log: it carries the positionsAfter snapshots
	// the valuer needs. The basic log only degrades gracefully.
	txNode := doc.Get("enhancedTransactions")
	if txNode.Exists() && txNode.IsArray() && len(txNode.Array()) > 0 {
		p.SnapshotsAvailable = true
	} else {
		txNode = doc.Get("transactions")
	}
	txs, err := parseTransactions(txNode)
	if err != nil {
		return Payload{}, err
	}
	p.Transactions = txs

	p.Orders = parseOrderState(doc.Get("openOrders"))
	return p, nil
}

func parseBars(node gjson.Result) ([]market.PriceBar, error) {
	if !node.Exists() {
		return nil, fmt.Errorf("priceSeries is required")
	}
	if !node.IsArray() {
		return nil, fmt.Errorf("priceSeries must be an array")
	}
	var bars []market.PriceBar
	var badDate error
	node.ForEach(func(_, item gjson.Result) bool {
		date := strings.TrimSpace(item.Get("date").String())
		if _, err := market.ParseDay(date); err != nil {
			badDate = err
			return false
		}
		bars = append(bars, market.PriceBar{
			Date:     date,
			Close:    item.Get("close").Float(),
			AdjClose: item.Get("adjustedClose").Float(),
		})
		return true
	})
	if badDate != nil {
		return nil, fmt.Errorf("priceSeries: %w", badDate)
	}
	return bars, nil
}

func parseTransactions(node gjson.Result) ([]replay.Transaction, error) {
	if !node.Exists() {
		return nil, nil
	}
	if !node.IsArray() {
		return nil, fmt.Errorf("transaction log must be an array")
	}
	var txs []replay.Transaction
	var parseErr error
	idx := 0
	node.ForEach(func(_, item gjson.Result) bool {
		idx++
		tx, err := parseTransaction(item)
		if err != nil {
			parseErr = fmt.Errorf("transaction #%d: %w", idx, err)
			return false
		}
		txs = append(txs, tx)
		return true
	})
	return txs, parseErr
}

func parseTransaction(item gjson.Result) (replay.Transaction, error) {
	typ := replay.TxType(strings.ToUpper(strings.TrimSpace(item.Get("type").String())))
	if typ == "" {
		return replay.Transaction{}, fmt.Errorf("missing type discriminant")
	}
	tx := replay.Transaction{
		Type:        typ,
		Date:        strings.TrimSpace(item.Get("date").String()),
		Price:       item.Get("price").Float(),
		Shares:      item.Get("shares").Float(),
		RealizedPNL: item.Get("realizedPNL").Float(),
		TotalPNL:    item.Get("totalPNL").Float(),
		Lots:        parsePositions(item.Get("lotsAfterTransaction")),
		Shorts:      parsePositions(item.Get("shortsAfterTransaction")),
	}
	// Aborted events carry no state; skip structural validation so a
	// half-filled aborted record cannot sink the whole parse.
	if tx.Type.Aborted() {
		return tx, nil
	}
	if err := tx.Validate(); err != nil {
		return replay.Transaction{}, err
	}
	return tx, nil
}

func parsePositions(node gjson.Result) []replay.Position {
	if !node.Exists() || !node.IsArray() {
		return nil
	}
	var out []replay.Position
	node.ForEach(func(_, item gjson.Result) bool {
		out = append(out, replay.Position{
			EntryDate:  strings.TrimSpace(item.Get("entryDate").String()),
			EntryPrice: item.Get("entryPrice").Float(),
			Shares:     item.Get("shares").Float(),
		})
		return true
	})
	return out
}

func parseOrderState(node gjson.Result) forecast.OrderState {
	if !node.Exists() || !node.IsObject() {
		return forecast.OrderState{}
	}
	return forecast.OrderState{
		EntryStop:    parseStop(node.Get("activeTrailingStopBuy")),
		ExitStop:     parseStop(node.Get("activeTrailingStopSell")),
		RecentPeak:   node.Get("recentPeak").Float(),
		RecentBottom: node.Get("recentBottom").Float(),
	}
}

func parseStop(node gjson.Result) *forecast.StopState {
	if !node.Exists() || !node.IsObject() {
		return nil
	}
	return &forecast.StopState{
		Active:         node.Get("isActive").Bool(),
		StopPrice:      node.Get("stopPrice").Float(),
		LimitPrice:     node.Get("limitPrice").Float(),
		ReferencePrice: node.Get("referenceExtremePrice").Float(),
		LastPrice:      node.Get("lastUpdatePrice").Float(),
	}
}
