package market

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DayLayout is the calendar-date form used everywhere in the replay core.
// Lexicographic order equals chronological order, which the transaction
// index relies on for binary search.
const DayLayout = "2006-01-02"

// PriceBar is one trading day of a daily close series.
type PriceBar struct {
	Date     string  `json:"date"`
	Close    float64 `json:"close"`
	AdjClose float64 `json:"adj_close,omitempty"`
}

// EffectiveClose prefers the adjusted close when the feed provides one.
func (b PriceBar) EffectiveClose() float64 {
	if b.AdjClose > 0 {
		return b.AdjClose
	}
	return b.Close
}

// Day formats t as a calendar date in UTC.
func Day(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// ParseDay validates a calendar-date string.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid calendar date %q: %w", s, err)
	}
	return t, nil
}

// SortBars orders a series by date ascending, in place.
func SortBars(bars []PriceBar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date < bars[j].Date
	})
}

// Closes extracts the effective close column, oldest first.
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, 0, len(bars))
	for _, b := range bars {
		out = append(out, b.EffectiveClose())
	}
	return out
}
