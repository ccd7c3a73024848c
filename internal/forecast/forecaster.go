package forecast

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// State is the forecaster's lifecycle state.
type State int32

const (
	// StateUninitialized means no model has ever been fit; Forecast returns NaN.
	StateUninitialized State = iota
	// StateFitting means the first fit is running in the background.
	StateFitting
	// StateReady means a fit model exists and serves forecasts.
	StateReady
	// StateUpdating means a background refit is running against an
	// already-Ready model; the previous model keeps serving forecasts
	// until the refit completes.
	StateUpdating
)

// Forecaster owns the seasonal Model's lifecycle: synchronous online
// updates on the ingest path, and a background refit triggered once enough
// new buckets have accumulated. Refits are guarded by retrainMu with
// try-lock semantics so a slow refit is never piled up behind another; a
// trigger that finds one already running is simply skipped and picked up
// by the next one.
type Forecaster struct {
	logger *zap.Logger
	params Params

	state atomic.Int32

	mu    sync.RWMutex // guards model reads/writes on the ingest path
	model Model
	// newModel supplies the instance each background refit fits.
	newModel func() Model

	retrainMu sync.Mutex // guards background refit; try-lock from the ingest path
	wg        sync.WaitGroup

	updatesSinceRefit atomic.Int64
	// refitThresholdBump accumulates m for every failed refit, delaying the
	// next attempt instead of immediately retrying against the same
	// too-short or otherwise unfit history.
	refitThresholdBump atomic.Int64
}

// New creates a Forecaster with the default seasonal model and refit
// threshold for a seasonal period of m buckets.
func New(logger *zap.Logger, m int) *Forecaster {
	f := NewWithModel(NewSeasonalModel(), DefaultParams(m), logger)
	f.newModel = NewSeasonalModel
	return f
}

// NewWithModel creates a Forecaster around a caller-supplied Model, letting
// tests substitute a stub oracle. Every refit calls Fit on that same
// instance, so it keeps serving forecasts while it is being refit.
func NewWithModel(model Model, params Params, logger *zap.Logger) *Forecaster {
	f := &Forecaster{
		logger:   logger,
		params:   params,
		model:    model,
		newModel: func() Model { return model },
	}
	f.state.Store(int32(StateUninitialized))
	ForecasterState.Set(float64(StateUninitialized))
	return f
}

// State returns the forecaster's current lifecycle state.
func (f *Forecaster) State() State {
	return State(f.state.Load())
}

// ObserveBucket folds one newly observed coarse bucket into the forecaster.
// history is a detached, ascending-order copy of every observed bucket to
// date (including the new one); latest is history's last element. The
// training-data counter always advances, whether or not a model is Ready
// yet: this is what lets the forecaster bootstrap from Uninitialized,
// since the online Update branch below never fires until a first fit has
// succeeded.
//
// onRefitDone, if non-nil, is called exactly once, from a background
// goroutine, if (and only if) this call is the one that wins the race to
// schedule a refit — with true if the refit's Fit(history) succeeded, false
// otherwise. A call that does not trigger a refit never invokes it.
// Callers use it to mark the caller-side bookkeeping rows folded into
// history as consumed once the refit resolves.
func (f *Forecaster) ObserveBucket(history []float64, latest float64, onRefitDone func(success bool)) {
	if f.State() == StateReady {
		f.mu.Lock()
		if err := f.model.Update(latest); err != nil {
			f.logger.Warn("forecast-online-update-failed", zap.Error(err))
		} else {
			ForecasterUpdatesTotal.Inc()
		}
		f.mu.Unlock()
	}

	n := f.updatesSinceRefit.Add(1)
	threshold := int64(f.params.RefitThreshold) + f.refitThresholdBump.Load()
	if n >= threshold {
		f.maybeScheduleRefit(history, onRefitDone)
	}
}

// maybeScheduleRefit tries to claim the retrain lock and, if successful,
// runs a refit in the background. A trigger that loses the race is
// dropped; the next ObserveBucket call will try again.
func (f *Forecaster) maybeScheduleRefit(history []float64, onRefitDone func(success bool)) {
	if !f.retrainMu.TryLock() {
		ForecasterRefitSkippedTotal.Inc()
		return
	}

	prevState := f.State()
	nextState := StateUpdating
	if prevState == StateUninitialized {
		nextState = StateFitting
	}
	f.state.Store(int32(nextState))
	ForecasterState.Set(float64(nextState))
	ForecasterRefitsScheduled.Inc()

	f.wg.Add(1)
	go f.runRefit(history, prevState, onRefitDone)
}

func (f *Forecaster) runRefit(history []float64, prevState State, onRefitDone func(success bool)) {
	defer f.wg.Done()
	defer f.retrainMu.Unlock()

	start := time.Now()
	freshModel := f.newModel()
	err := freshModel.Fit(history, f.params)
	ForecasterRefitDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		f.logger.Warn("forecast-refit-failed", zap.Error(err))
		ForecasterRefitFailuresTotal.Inc()
		f.refitThresholdBump.Add(int64(f.params.Seasonality))
		f.state.Store(int32(prevState))
		ForecasterState.Set(float64(prevState))
		if onRefitDone != nil {
			onRefitDone(false)
		}
		return
	}

	f.mu.Lock()
	f.model = freshModel
	f.mu.Unlock()

	f.updatesSinceRefit.Store(0)
	f.state.Store(int32(StateReady))
	ForecasterState.Set(float64(StateReady))
	ForecasterRefitsSucceeded.Inc()
	if onRefitDone != nil {
		onRefitDone(true)
	}
}

// Forecast returns the model's prediction stepsAhead buckets past the last
// observed point, or NaN if the forecaster has never completed a fit.
func (f *Forecaster) Forecast(stepsAhead int) float64 {
	if f.State() == StateUninitialized {
		return math.NaN()
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	value, err := f.model.Forecast(stepsAhead)
	if err != nil {
		return math.NaN()
	}
	return value
}

// AwaitIdle blocks until any in-flight background refit completes, up to
// timeout. It returns false if the timeout elapsed first. Used during
// graceful shutdown so a refit is not abandoned mid-write.
func (f *Forecaster) AwaitIdle(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
