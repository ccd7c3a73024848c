// Package orderbook implements the core engine: two PriceBooks (bids,
// asks), the mid-price and forecast time series that ride alongside them,
// and the forecaster that drives the seasonal prediction. OrderBook is the
// single orchestrator that owns all of this state behind one coarse
// mutex, mirroring the teacher's map+mutex+channel-fanout manager shape
// generalized from "one book per token" down to "one book, richer
// derived state."
package orderbook

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/kryptostream/obengine/internal/forecast"
	"github.com/kryptostream/obengine/internal/timeseries"
	"github.com/kryptostream/obengine/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Config configures a new OrderBook engine.
type Config struct {
	Logger *zap.Logger

	SampleInterval   time.Duration // MidPriceSeries grid, default 50ms
	ForecastWindow   time.Duration // default 60s
	Seasonality      int           // m, default 10
	Windows          []time.Duration
	RefitShutdownWait time.Duration
}

// DefaultWindows is the spec's default stats aggregation windows.
var DefaultWindows = []time.Duration{60 * time.Second, 300 * time.Second, 900 * time.Second}

// OrderBook is the orchestrator: it owns both PriceBooks, the MidPriceSeries,
// the ForecastTable, and the Forecaster. All mutation and all reads go
// through mu, so GetStats/TakeSnapshot observe a consistent cross-structure
// view.
type OrderBook struct {
	logger *zap.Logger

	mu   sync.RWMutex
	bids *PriceBook
	asks *PriceBook

	lastUpdate    time.Time
	maxAskBidDiff types.BidAskDiff

	midSeries     *timeseries.MidPriceSeries
	forecastTable *timeseries.ForecastTable
	forecaster    *forecast.Forecaster

	coarseInitialized bool
	openCoarseTick    int64

	windows           []time.Duration
	maxWindow         time.Duration
	forecastWindow    time.Duration
	refitShutdownWait time.Duration
}

// New creates an empty OrderBook engine. It has no book state until
// ApplySnapshot is called.
func New(cfg Config) *OrderBook {
	windows := cfg.Windows
	if len(windows) == 0 {
		windows = DefaultWindows
	}
	sampleInterval := cfg.SampleInterval
	if sampleInterval <= 0 {
		sampleInterval = 50 * time.Millisecond
	}
	forecastWindow := cfg.ForecastWindow
	if forecastWindow <= 0 {
		forecastWindow = 60 * time.Second
	}
	m := cfg.Seasonality
	if m <= 0 {
		m = 10
	}
	refitWait := cfg.RefitShutdownWait
	if refitWait <= 0 {
		refitWait = 5 * time.Second
	}

	maxWindow := windows[0]
	for _, w := range windows {
		if w > maxWindow {
			maxWindow = w
		}
	}

	forecastInterval := forecastWindow / time.Duration(m)

	ob := &OrderBook{
		logger:            cfg.Logger,
		bids:              NewPriceBook(types.SideBid),
		asks:              NewPriceBook(types.SideAsk),
		maxAskBidDiff:     types.BidAskDiff{HighestBidPrice: math.NaN(), LowestAskPrice: math.NaN()},
		midSeries:         timeseries.New(sampleInterval),
		forecastTable:     timeseries.NewForecastTable(forecastInterval),
		forecaster:        forecast.New(cfg.Logger, m),
		windows:           windows,
		maxWindow:         maxWindow,
		forecastWindow:    forecastWindow,
		refitShutdownWait: refitWait,
	}
	BooksActive.Set(1)
	return ob
}

// ApplySnapshot replaces both PriceBooks from a full-book message and runs
// the update pipeline for its timestamp.
func (ob *OrderBook) ApplySnapshot(snap types.Snapshot) error {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	timer := prometheus.NewTimer(UpdateProcessingDuration)
	defer timer.ObserveDuration()

	bids := NewPriceBook(types.SideBid)
	asks := NewPriceBook(types.SideAsk)

	for _, lvl := range snap.Bids {
		o, err := lvl.Parse()
		if err != nil {
			return fmt.Errorf("snapshot bid: %w", err)
		}
		bids.Insert(o.Price, o.Qty)
	}
	for _, lvl := range snap.Asks {
		o, err := lvl.Parse()
		if err != nil {
			return fmt.Errorf("snapshot ask: %w", err)
		}
		asks.Insert(o.Price, o.Qty)
	}

	ob.bids = bids
	ob.asks = asks
	ob.lastUpdate = snap.Time

	ob.runPipeline(snap.Time)
	UpdatesTotal.WithLabelValues("snapshot").Inc()
	return nil
}

// ApplyUpdate applies an incremental l2update and runs the pipeline for
// its timestamp. last_update never regresses: a late update's own
// timestamp is what's replayed into the time series, but the engine's
// notion of "now" only advances.
func (ob *OrderBook) ApplyUpdate(upd types.L2Update) error {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	timer := prometheus.NewTimer(UpdateProcessingDuration)
	defer timer.ObserveDuration()

	for _, change := range upd.Changes {
		side, order, err := change.Parse()
		if err != nil {
			return err
		}
		ob.bookFor(side).Insert(order.Price, order.Qty)
	}

	if upd.Time.After(ob.lastUpdate) {
		ob.lastUpdate = upd.Time
	}

	ob.runPipeline(upd.Time)
	UpdatesTotal.WithLabelValues("l2update").Inc()
	return nil
}

func (ob *OrderBook) bookFor(side types.Side) *PriceBook {
	if side == types.SideBid {
		return ob.bids
	}
	return ob.asks
}

// runPipeline implements steps 1-7 of the update pipeline: recompute the
// spread, extend the resampled series, fold any newly closed coarse bucket
// into the forecaster, and trim bounded history. Called with mu held.
func (ob *OrderBook) runPipeline(at time.Time) {
	highBid := ob.bids.Best()
	lowAsk := ob.asks.Best()

	diff := types.BidAskDiff{HighestBidPrice: highBid.Price, LowestAskPrice: lowAsk.Price, ObservedAt: at}
	if !math.IsNaN(diff.Diff()) {
		if math.IsNaN(ob.maxAskBidDiff.Diff()) || diff.Diff() > ob.maxAskBidDiff.Diff() {
			ob.maxAskBidDiff = diff
			MaxAskBidDiff.Set(diff.Diff())
		}
	}

	mid := (highBid.Price + lowAsk.Price) / 2
	if !math.IsNaN(mid) {
		ob.midSeries.Append(at, mid)
		ob.closeElapsedCoarseBuckets()
	}

	ob.midSeries.TrimBefore(ob.lastUpdate.Add(-ob.maxWindow - ob.midSeries.Interval()))
	ob.forecastTable.TrimBefore(ob.lastUpdate.Add(-ob.maxWindow - ob.forecastTable.Interval()))
}

// closeElapsedCoarseBuckets detects every coarse ForecastTable bucket that
// has fully elapsed since the previous fine-grid sample and closes it:
// mean of its fine-grained mid-prices becomes the observed row, which is
// then folded into the Forecaster and a fresh forecast is materialized.
func (ob *OrderBook) closeElapsedCoarseBuckets() {
	last, ok := ob.midSeries.Last()
	if !ok {
		return
	}
	sampleTime := last.Time(ob.midSeries.Interval())
	currentCoarse := ob.forecastTable.TickForTime(sampleTime)

	if !ob.coarseInitialized {
		ob.openCoarseTick = currentCoarse
		ob.coarseInitialized = true
		return
	}

	for tick := ob.openCoarseTick; tick < currentCoarse; tick++ {
		ob.closeCoarseBucket(tick)
	}
	ob.openCoarseTick = currentCoarse
}

func (ob *OrderBook) closeCoarseBucket(tick int64) {
	from := ob.forecastTable.TimeForTick(tick)
	to := ob.forecastTable.TimeForTick(tick + 1)

	mean, n := ob.midSeries.MeanBetween(from, to)
	if n == 0 {
		return
	}
	ob.forecastTable.SetObservedMidPrice(tick, mean)

	history := ob.forecastTable.ObservedMidPrices()
	ob.forecaster.ObserveBucket(history, mean, ob.onRefitDone(tick))
	PendingTrainingRows.Set(float64(len(ob.forecastTable.PendingTrainingRows())))

	ob.materializeForecast(tick)
}

// onRefitDone returns the callback handed to Forecaster.ObserveBucket for
// the bucket at tick. It only fires if that call is the one that schedules
// a refit, from the background goroutine running it, well after
// closeCoarseBucket has returned and released mu — so it must reacquire
// the lock itself. A successful refit folded in every pending row up to
// and including tick at once, so those rows are marked used in training
// together; a failed refit leaves them pending for the next attempt.
func (ob *OrderBook) onRefitDone(tick int64) func(success bool) {
	return func(success bool) {
		if !success {
			return
		}
		ob.mu.Lock()
		defer ob.mu.Unlock()
		ob.forecastTable.MarkAllUsedUpTo(tick)
		PendingTrainingRows.Set(float64(len(ob.forecastTable.PendingTrainingRows())))
	}
}

// materializeForecast writes forecast_mid_price for the forecast_window
// worth of coarse buckets ahead of baseTick, recomputing forecast_error on
// any row whose observation is already known.
func (ob *OrderBook) materializeForecast(baseTick int64) {
	horizonBuckets := int(math.Ceil(float64(ob.forecastWindow) / float64(ob.forecastTable.Interval())))
	for k := 1; k <= horizonBuckets; k++ {
		v := ob.forecaster.Forecast(k)
		if math.IsNaN(v) {
			continue
		}
		ob.forecastTable.SetForecast(baseTick+int64(k), v)
	}
}

// AwaitForecasterIdle blocks, up to the configured shutdown timeout, until
// any in-flight background refit completes. Called during graceful
// shutdown.
func (ob *OrderBook) AwaitForecasterIdle() bool {
	return ob.forecaster.AwaitIdle(ob.refitShutdownWait)
}

// TakeSnapshot returns deep copies of both PriceBooks so callers cannot
// alias engine-owned memory.
func (ob *OrderBook) TakeSnapshot() (bids, asks *PriceBook) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.bids.Clone(), ob.asks.Clone()
}
