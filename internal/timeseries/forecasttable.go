package timeseries

import (
	"math"
	"sort"
	"time"
)

// Row is one coarse-bucket entry in a ForecastTable. MidPrice is the
// observed mean mid-price for the bucket (NaN until the bucket has
// closed), ForecastMidPrice is the model's prediction for that bucket
// (NaN until predicted, and may be written before the bucket is
// observed), and ForecastError is |forecast - observed| (NaN until both
// are known).
type Row struct {
	Tick             int64
	MidPrice         float64
	ForecastMidPrice float64
	ForecastError    float64
	UsedInTraining   bool
}

func newRow(tick int64) Row {
	return Row{
		Tick:             tick,
		MidPrice:         math.NaN(),
		ForecastMidPrice: math.NaN(),
		ForecastError:    math.NaN(),
	}
}

// ForecastTable holds one row per coarse ("forecast_sample_interval")
// bucket: observed mid-price, forecast mid-price, and the derived
// forecast error. Rows are kept sorted by Tick and may be created out of
// order, since forecasts materialize ahead of the observation that will
// eventually close them out.
type ForecastTable struct {
	interval time.Duration
	rows     []Row
}

// NewForecastTable creates an empty table sampled on the given coarse
// interval.
func NewForecastTable(interval time.Duration) *ForecastTable {
	return &ForecastTable{interval: interval}
}

// Interval returns the table's coarse sample interval.
func (t *ForecastTable) Interval() time.Duration {
	return t.interval
}

// Len returns the number of retained rows.
func (t *ForecastTable) Len() int {
	return len(t.rows)
}

// TickForTime returns the coarse bucket tick containing wall-clock time ts.
func (t *ForecastTable) TickForTime(ts time.Time) int64 {
	return ts.Sub(epoch).Nanoseconds() / t.interval.Nanoseconds()
}

// TimeForTick returns the wall-clock start time of the given coarse bucket.
func (t *ForecastTable) TimeForTick(tick int64) time.Time {
	return epoch.Add(time.Duration(tick) * t.interval)
}

func (t *ForecastTable) search(tick int64) int {
	return sort.Search(len(t.rows), func(i int) bool { return t.rows[i].Tick >= tick })
}

func (t *ForecastTable) ensure(tick int64) int {
	i := t.search(tick)
	if i < len(t.rows) && t.rows[i].Tick == tick {
		return i
	}
	t.rows = append(t.rows, Row{})
	copy(t.rows[i+1:], t.rows[i:])
	t.rows[i] = newRow(tick)
	return i
}

// SetObservedMidPrice records the observed mean mid-price for the bucket at
// tick, recomputing the forecast error if a forecast for that bucket is
// already known.
func (t *ForecastTable) SetObservedMidPrice(tick int64, value float64) {
	i := t.ensure(tick)
	t.rows[i].MidPrice = value
	t.recomputeError(i)
}

// SetForecast records the model's prediction for the bucket at tick,
// recomputing the forecast error if the bucket has already been observed.
func (t *ForecastTable) SetForecast(tick int64, value float64) {
	i := t.ensure(tick)
	t.rows[i].ForecastMidPrice = value
	t.recomputeError(i)
}

func (t *ForecastTable) recomputeError(i int) {
	row := &t.rows[i]
	if math.IsNaN(row.MidPrice) || math.IsNaN(row.ForecastMidPrice) {
		row.ForecastError = math.NaN()
		return
	}
	row.ForecastError = math.Abs(row.ForecastMidPrice - row.MidPrice)
}

// PendingTrainingRows returns observed-but-unused rows in tick order. Rows
// are marked used only once a successful refit has folded them in (see
// MarkAllUsedUpTo); the forecaster's online update does not mark them.
func (t *ForecastTable) PendingTrainingRows() []int64 {
	var ticks []int64
	for _, row := range t.rows {
		if !math.IsNaN(row.MidPrice) && !row.UsedInTraining {
			ticks = append(ticks, row.Tick)
		}
	}
	return ticks
}

// MarkUsedInTraining flags the rows at the given ticks as consumed by the
// forecaster.
func (t *ForecastTable) MarkUsedInTraining(ticks []int64) {
	for _, tick := range ticks {
		i := t.search(tick)
		if i < len(t.rows) && t.rows[i].Tick == tick {
			t.rows[i].UsedInTraining = true
		}
	}
}

// MarkAllUsedUpTo flags every row with Tick <= tick as used in training;
// called after a successful full refit, which folds in the entire observed
// history at once.
func (t *ForecastTable) MarkAllUsedUpTo(tick int64) {
	for i := range t.rows {
		if t.rows[i].Tick > tick {
			break
		}
		if !math.IsNaN(t.rows[i].MidPrice) {
			t.rows[i].UsedInTraining = true
		}
	}
}

// ObservedMidPrices returns a detached copy of every observed mid_price in
// tick order, for handing to a background refit.
func (t *ForecastTable) ObservedMidPrices() []float64 {
	out := make([]float64, 0, len(t.rows))
	for _, row := range t.rows {
		if !math.IsNaN(row.MidPrice) {
			out = append(out, row.MidPrice)
		}
	}
	return out
}

// LastForecast returns the most recent row's forecast_mid_price, or NaN if
// the table is empty.
func (t *ForecastTable) LastForecast() float64 {
	if len(t.rows) == 0 {
		return math.NaN()
	}
	return t.rows[len(t.rows)-1].ForecastMidPrice
}

// WindowErrorMean returns the mean forecast_error over rows within
// [lastKnownTick-w, lastKnownTick] that have an observed mid_price. Returns
// NaN if no such row exists.
func (t *ForecastTable) WindowErrorMean(w time.Duration) float64 {
	lastKnown := -1
	for i := len(t.rows) - 1; i >= 0; i-- {
		if !math.IsNaN(t.rows[i].MidPrice) && !math.IsNaN(t.rows[i].ForecastError) {
			lastKnown = i
			break
		}
	}
	if lastKnown == -1 {
		return math.NaN()
	}

	cutoffTick := t.rows[lastKnown].Tick - int64(w/t.interval)
	var sum float64
	var n int
	for i := lastKnown; i >= 0; i-- {
		if t.rows[i].Tick < cutoffTick {
			break
		}
		if math.IsNaN(t.rows[i].ForecastError) {
			continue
		}
		sum += t.rows[i].ForecastError
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// TrimBefore discards every row strictly older than cutoff.
func (t *ForecastTable) TrimBefore(cutoff time.Time) {
	cutoffTick := t.TickForTime(cutoff)
	keepFrom := 0
	for i, row := range t.rows {
		if row.Tick >= cutoffTick {
			keepFrom = i
			break
		}
		keepFrom = i + 1
	}
	t.rows = t.rows[keepFrom:]
}
