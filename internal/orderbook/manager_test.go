package orderbook

import (
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/kryptostream/obengine/pkg/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig(t *testing.T) Config {
	return Config{
		Logger:         zaptest.NewLogger(t),
		SampleInterval: time.Second,
		ForecastWindow: 60 * time.Second,
		Seasonality:    10,
		Windows:        []time.Duration{60 * time.Second, 300 * time.Second, 900 * time.Second},
	}
}

func fstr(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func level(price, qty float64) types.RawLevel {
	return types.RawLevel{Price: fstr(price), Qty: fstr(qty)}
}

func change(side string, price, qty float64) types.RawChange {
	return types.RawChange{Side: side, Price: fstr(price), Qty: fstr(qty)}
}

var t0 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

func TestOrderBookSnapshotAlone(t *testing.T) {
	ob := New(testConfig(t))

	snap := types.Snapshot{
		ProductID: "BTC-USD",
		Time:      t0,
		Bids: []types.RawLevel{
			level(10, 1.1), level(2.1, 2.0), level(3.5, 0), level(14, 14),
		},
		Asks: []types.RawLevel{
			level(100, 10.1), level(20.1, 20), level(30.5, 0), level(400, 400),
		},
	}
	require.NoError(t, ob.ApplySnapshot(snap))

	bids, asks := ob.TakeSnapshot()
	require.Equal(t, 3, bids.Len())
	require.Equal(t, 3, asks.Len())

	stats := ob.GetStats()
	require.Equal(t, types.Order{Price: 14, Qty: 14}, stats.CurrentHighestBid)
	require.Equal(t, types.Order{Price: 20.1, Qty: 20}, stats.CurrentLowestAsk)
	require.InDelta(t, 6.1, stats.MaxAskBidDiff.Diff(), 1e-9)
	require.True(t, math.IsNaN(stats.ForecastedMidPrice))

	for _, w := range []int{60, 300, 900} {
		require.InDelta(t, 17.05, stats.MidPrices[w], 1e-9, "window %ds", w)
	}
}

func TestOrderBookEmptySnapshotThenZeroedUpdates(t *testing.T) {
	ob := New(testConfig(t))

	require.NoError(t, ob.ApplySnapshot(types.Snapshot{Time: t0}))

	require.NoError(t, ob.ApplyUpdate(types.L2Update{
		Time: t0.Add(time.Second),
		Changes: []types.RawChange{
			change("sell", 10, 1),
			change("buy", 2, 0.2),
			change("sell", 13.3, 3),
			change("buy", 4, 4),
		},
	}))

	require.NoError(t, ob.ApplyUpdate(types.L2Update{
		Time: t0.Add(2 * time.Second),
		Changes: []types.RawChange{
			change("sell", 10, 0),
			change("buy", 2, 0),
			change("sell", 13.3, 0),
			change("buy", 4, 0),
		},
	}))

	stats := ob.GetStats()
	require.True(t, stats.CurrentHighestBid.IsMissing())
	require.True(t, stats.CurrentLowestAsk.IsMissing())
	require.Equal(t, 4.0, stats.MaxAskBidDiff.HighestBidPrice)
	require.Equal(t, 10.0, stats.MaxAskBidDiff.LowestAskPrice)
	require.InDelta(t, 6.0, stats.MaxAskBidDiff.Diff(), 1e-9)

	for _, w := range []int{60, 300, 900} {
		require.InDelta(t, 7.0, stats.MidPrices[w], 1e-9, "window %ds", w)
	}
}

func TestOrderBookWideningSpread(t *testing.T) {
	ob := New(testConfig(t))

	require.NoError(t, ob.ApplySnapshot(types.Snapshot{
		Time: t0,
		Bids: []types.RawLevel{level(10, 1.1), level(2.1, 2.0), level(3.5, 0), level(14, 14)},
		Asks: []types.RawLevel{level(100, 10.1), level(20.1, 20), level(30.5, 0), level(400, 400)},
	}))

	laterTime := t0.Add(time.Minute + time.Second)
	require.NoError(t, ob.ApplyUpdate(types.L2Update{
		Time: laterTime,
		Changes: []types.RawChange{
			change("buy", 15, 5),
			change("sell", 40.6, 0.6),
			change("sell", 20.1, 0),
			change("sell", 100, 5),
		},
	}))

	stats := ob.GetStats()
	require.Equal(t, types.Order{Price: 15, Qty: 5}, stats.CurrentHighestBid)
	require.Equal(t, types.Order{Price: 40.6, Qty: 0.6}, stats.CurrentLowestAsk)
	require.Equal(t, 15.0, stats.MaxAskBidDiff.HighestBidPrice)
	require.Equal(t, 40.6, stats.MaxAskBidDiff.LowestAskPrice)
	require.Equal(t, laterTime, stats.MaxAskBidDiff.ObservedAt)

	want := (60*17.05 + 27.8) / 61.0
	require.InDelta(t, want, stats.MidPrices[60], 1e-9)
}

func TestOrderBookLateUpdateDoesNotRegressLastUpdate(t *testing.T) {
	ob := New(testConfig(t))

	require.NoError(t, ob.ApplySnapshot(types.Snapshot{
		Time: t0,
		Bids: []types.RawLevel{level(14, 14)},
		Asks: []types.RawLevel{level(20.1, 20)},
	}))

	err := ob.ApplyUpdate(types.L2Update{
		Time:    t0.Add(-time.Second),
		Changes: []types.RawChange{change("buy", 13, 1)},
	})
	require.NoError(t, err)
	require.Equal(t, t0, ob.lastUpdate)

	stats := ob.GetStats()
	require.False(t, math.IsNaN(stats.MidPrices[60]))
}

func TestOrderBookRepeatedUpdateIsIdempotent(t *testing.T) {
	ob := New(testConfig(t))
	require.NoError(t, ob.ApplySnapshot(types.Snapshot{
		Time: t0,
		Bids: []types.RawLevel{level(14, 14)},
		Asks: []types.RawLevel{level(20.1, 20)},
	}))

	upd := types.L2Update{
		Time:    t0.Add(time.Second),
		Changes: []types.RawChange{change("buy", 15, 2)},
	}
	require.NoError(t, ob.ApplyUpdate(upd))
	first := ob.GetStats()

	require.NoError(t, ob.ApplyUpdate(upd))
	second := ob.GetStats()

	require.Equal(t, first.CurrentHighestBid, second.CurrentHighestBid)
	require.Equal(t, first.MidPrices, second.MidPrices)
}

func TestOrderBookMaxSpreadIsMonotonic(t *testing.T) {
	ob := New(testConfig(t))
	require.NoError(t, ob.ApplySnapshot(types.Snapshot{
		Time: t0,
		Bids: []types.RawLevel{level(10, 1)},
		Asks: []types.RawLevel{level(12, 1)},
	}))
	require.InDelta(t, 2.0, ob.GetStats().MaxAskBidDiff.Diff(), 1e-9)

	// Widen the spread: drop the 10 bid, add a lower 8 bid.
	require.NoError(t, ob.ApplyUpdate(types.L2Update{
		Time: t0.Add(time.Second),
		Changes: []types.RawChange{
			change("buy", 10, 0),
			change("buy", 8, 1),
		},
	}))
	require.InDelta(t, 4.0, ob.GetStats().MaxAskBidDiff.Diff(), 1e-9)

	// Narrow the spread again: best bid improves to 11.
	require.NoError(t, ob.ApplyUpdate(types.L2Update{
		Time:    t0.Add(2 * time.Second),
		Changes: []types.RawChange{change("buy", 11, 1)},
	}))
	require.Equal(t, 11.0, ob.GetStats().CurrentHighestBid.Price)
	require.InDelta(t, 4.0, ob.GetStats().MaxAskBidDiff.Diff(), 1e-9, "spread must not shrink back")
}

func TestOrderBookTakeSnapshotRoundTrip(t *testing.T) {
	ob := New(testConfig(t))
	require.NoError(t, ob.ApplySnapshot(types.Snapshot{
		Time: t0,
		Bids: []types.RawLevel{level(14, 14), level(10, 1.1)},
		Asks: []types.RawLevel{level(20.1, 20), level(100, 10.1)},
	}))

	bids, asks := ob.TakeSnapshot()

	reconstructed := NewPriceBook(types.SideBid)
	reconstructed.Insert(14, 14)
	reconstructed.Insert(10, 1.1)
	require.True(t, bids.Equal(reconstructed))

	reconstructedAsks := NewPriceBook(types.SideAsk)
	reconstructedAsks.Insert(20.1, 20)
	reconstructedAsks.Insert(100, 10.1)
	require.True(t, asks.Equal(reconstructedAsks))
}

func TestOrderBookUnknownSideIsParseError(t *testing.T) {
	ob := New(testConfig(t))
	require.NoError(t, ob.ApplySnapshot(types.Snapshot{Time: t0}))

	err := ob.ApplyUpdate(types.L2Update{
		Time:    t0.Add(time.Second),
		Changes: []types.RawChange{change("hold", 10, 1)},
	})
	require.Error(t, err)
	var parseErr *types.ParseError
	require.ErrorAs(t, err, &parseErr)
}
