// Package report renders a replay run as an echarts page: strategy P&L
// percent against the buy-and-hold baseline, plus capital deployment.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"dcatool/internal/replay"
)

const (
	colorStrategy  = "#3b82f6"
	colorBaseline  = "#9ca3af"
	colorPrice     = "#fbbf24"
	colorDeployed  = "#34d399"
	colorWatermark = "#f87171"

	chartWidth  = "1400px"
	chartHeight = "420px"
)

// RenderHTML builds the report page for one run's day series.
func RenderHTML(symbol string, days []replay.DayState) ([]byte, error) {
	if len(days) == 0 {
		return nil, fmt.Errorf("report: no day states to render")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	dates := make([]string, 0, len(days))
	strategyPct := make([]opts.LineData, 0, len(days))
	baselinePct := make([]opts.LineData, 0, len(days))
	price := make([]opts.LineData, 0, len(days))
	deployed := make([]opts.LineData, 0, len(days))
	watermark := make([]opts.LineData, 0, len(days))
	for _, d := range days {
		dates = append(dates, d.Date)
		// Undefined percent (no trade yet) renders as a gap, not a zero.
		if d.TotalPNLPercent != nil {
			strategyPct = append(strategyPct, opts.LineData{Value: *d.TotalPNLPercent})
		} else {
			strategyPct = append(strategyPct, opts.LineData{Value: nil})
		}
		baselinePct = append(baselinePct, opts.LineData{Value: d.BuyAndHoldPercent})
		price = append(price, opts.LineData{Value: d.StockPrice})
		deployed = append(deployed, opts.LineData{Value: d.CapitalDeployed})
		watermark = append(watermark, opts.LineData{Value: d.MaxCapitalDeployed})
	}

	perf := charts.NewLine()
	perf.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros, Width: chartWidth, Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s strategy vs buy & hold (%%)", symbol)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	perf.SetXAxis(dates)
	perf.AddSeries("Strategy %", strategyPct,
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorStrategy, Width: 2}))
	perf.AddSeries("Buy & Hold %", baselinePct,
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorBaseline, Width: 2}))

	priceLine := charts.NewLine()
	priceLine.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros, Width: chartWidth, Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s close price", symbol)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	priceLine.SetXAxis(dates)
	priceLine.AddSeries("Close", price,
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorPrice, Width: 2}))

	capital := charts.NewLine()
	capital.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros, Width: chartWidth, Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s capital deployed", symbol)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	capital.SetXAxis(dates)
	capital.AddSeries("Deployed", deployed,
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorDeployed, Width: 2}))
	capital.AddSeries("Watermark", watermark,
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorWatermark, Width: 2}))

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(perf, priceLine, capital)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, fmt.Errorf("report: render failed: %w", err)
	}
	return buf.Bytes(), nil
}
