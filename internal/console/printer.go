// Package console pretty-prints engine stats, adapted from the teacher's
// internal/storage/console.go opportunity printer down to a periodic
// stats dump since there is no opportunity object left to render.
package console

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/kryptostream/obengine/internal/orderbook"
)

const (
	timeLayout    = "2006-01-02 15:04:05"
	notYetAvail   = "not yet available"
	separatorLine = "────────────────────────────────────────────────────────"
)

// PrintStats renders a StatsView snapshot to w as of now.
func PrintStats(w io.Writer, stats orderbook.StatsView, now time.Time) {
	fmt.Fprintln(w, separatorLine)
	fmt.Fprintf(w, "ORDER BOOK STATS  %s\n", now.Format(timeLayout))
	fmt.Fprintln(w, separatorLine)

	fmt.Fprintf(w, "Highest bid:   %s\n", formatOrder(stats.CurrentHighestBid.Price, stats.CurrentHighestBid.Qty, stats.CurrentHighestBid.IsMissing()))
	fmt.Fprintf(w, "Lowest ask:    %s\n", formatOrder(stats.CurrentLowestAsk.Price, stats.CurrentLowestAsk.Qty, stats.CurrentLowestAsk.IsMissing()))

	diff := stats.MaxAskBidDiff.Diff()
	if math.IsNaN(diff) {
		fmt.Fprintf(w, "Max spread:    %s\n", notYetAvail)
	} else {
		fmt.Fprintf(w, "Max spread:    %.8f  (bid %.8f / ask %.8f @ %s)\n",
			diff, stats.MaxAskBidDiff.HighestBidPrice, stats.MaxAskBidDiff.LowestAskPrice,
			stats.MaxAskBidDiff.ObservedAt.Format(timeLayout))
	}

	fmt.Fprintf(w, "Forecast mid:  %s\n", formatFloat(stats.ForecastedMidPrice))

	fmt.Fprintln(w, separatorLine)
	fmt.Fprintln(w, "Mid price by window (seconds):")
	for _, sec := range sortedKeys(stats.MidPrices) {
		fmt.Fprintf(w, "  %5ds: %s\n", sec, formatFloat(stats.MidPrices[sec]))
	}

	fmt.Fprintln(w, "Forecast error by window (seconds):")
	for _, sec := range sortedKeys(stats.ForecastErrors) {
		fmt.Fprintf(w, "  %5ds: %s\n", sec, formatFloat(stats.ForecastErrors[sec]))
	}
	fmt.Fprintln(w, separatorLine)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return notYetAvail
	}
	return fmt.Sprintf("%.8f", v)
}

func formatOrder(price, qty float64, missing bool) string {
	if missing {
		return notYetAvail
	}
	return fmt.Sprintf("%.8f @ %.8f", price, qty)
}

func sortedKeys(m map[int]float64) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
