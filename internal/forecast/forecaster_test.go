package forecast

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// stubModel lets the lifecycle tests assert on Forecaster state transitions
// without depending on seasonalModel's arithmetic.
type stubModel struct {
	mu       sync.Mutex
	fitCalls int
	fitErr   error
	lastFit  []float64
}

func (s *stubModel) Fit(history []float64, _ Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitCalls++
	s.lastFit = append([]float64(nil), history...)
	return s.fitErr
}

func (s *stubModel) Update(float64) error { return nil }

func (s *stubModel) Forecast(int) (float64, error) { return 42, nil }

func TestForecasterStartsUninitialized(t *testing.T) {
	f := New(zaptest.NewLogger(t), 4)
	require.Equal(t, StateUninitialized, f.State())
	require.True(t, math.IsNaN(f.Forecast(1)))
}

func TestForecasterBootstrapsFromUninitialized(t *testing.T) {
	model := &stubModel{}
	params := DefaultParams(2) // RefitThreshold = 2*2+1 = 5
	f := NewWithModel(model, params, zaptest.NewLogger(t))

	for i := 0; i < params.RefitThreshold; i++ {
		f.ObserveBucket([]float64{1, 2, 3}, 3, nil)
	}
	require.True(t, f.AwaitIdle(time.Second))

	require.Equal(t, StateReady, f.State())
	require.Equal(t, 1, model.fitCalls)
	require.Equal(t, 42.0, f.Forecast(1))
}

func TestForecasterRefitFailureKeepsPreviousState(t *testing.T) {
	model := &stubModel{fitErr: errors.New("boom")}
	params := DefaultParams(2) // RefitThreshold = 5
	f := NewWithModel(model, params, zaptest.NewLogger(t))

	for i := 0; i < params.RefitThreshold; i++ {
		f.ObserveBucket([]float64{1, 2, 3}, 3, nil)
	}
	require.True(t, f.AwaitIdle(time.Second))

	require.Equal(t, StateUninitialized, f.State())
	require.True(t, math.IsNaN(f.Forecast(1)))
}

func TestForecasterRefitFailureDelaysNextAttemptByM(t *testing.T) {
	model := &stubModel{fitErr: errors.New("boom")}
	params := DefaultParams(2) // m=2, RefitThreshold = 5
	f := NewWithModel(model, params, zaptest.NewLogger(t))

	for i := 0; i < params.RefitThreshold; i++ {
		f.ObserveBucket([]float64{1, 2, 3}, 3, nil)
	}
	require.True(t, f.AwaitIdle(time.Second))
	require.Equal(t, 1, model.fitCalls)

	// The failed attempt bumps the threshold by m=2: the next m-1 buckets
	// must not trigger another attempt.
	for i := 0; i < params.Seasonality-1; i++ {
		f.ObserveBucket([]float64{1, 2, 3}, 3, nil)
	}
	require.True(t, f.AwaitIdle(time.Second))
	require.Equal(t, 1, model.fitCalls, "must wait m more buckets before retrying a failed refit")

	f.ObserveBucket([]float64{1, 2, 3}, 3, nil)
	require.True(t, f.AwaitIdle(time.Second))
	require.Equal(t, 2, model.fitCalls, "retry fires once the bumped threshold is reached")
}

func TestForecasterSchedulesRefitAtThreshold(t *testing.T) {
	model := &stubModel{}
	params := DefaultParams(2) // RefitThreshold = 5
	f := NewWithModel(model, params, zaptest.NewLogger(t))

	for i := 0; i < params.RefitThreshold-1; i++ {
		f.ObserveBucket([]float64{1, 2, 3}, 3, nil)
	}
	require.True(t, f.AwaitIdle(time.Second))
	require.Equal(t, 0, model.fitCalls, "must not fit before 2m+1 buckets have accumulated")
	require.Equal(t, StateUninitialized, f.State())

	f.ObserveBucket([]float64{1, 2, 3, 4}, 4, nil)
	require.True(t, f.AwaitIdle(time.Second))
	require.Equal(t, 1, model.fitCalls)
	require.Equal(t, StateReady, f.State())
}

func TestForecasterOnRefitDoneCalledOnSuccessAndFailure(t *testing.T) {
	model := &stubModel{}
	params := DefaultParams(2) // RefitThreshold = 5
	f := NewWithModel(model, params, zaptest.NewLogger(t))

	var mu sync.Mutex
	var results []bool
	onDone := func(success bool) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, success)
	}

	for i := 0; i < params.RefitThreshold-1; i++ {
		f.ObserveBucket([]float64{1, 2, 3}, 3, onDone)
	}
	require.True(t, f.AwaitIdle(time.Second))
	mu.Lock()
	require.Empty(t, results, "onRefitDone must not fire before a refit is actually scheduled")
	mu.Unlock()

	f.ObserveBucket([]float64{1, 2, 3, 4}, 4, onDone)
	require.True(t, f.AwaitIdle(time.Second))
	mu.Lock()
	require.Equal(t, []bool{true}, results)
	mu.Unlock()

	model.fitErr = errors.New("boom")
	for i := 0; i < params.RefitThreshold; i++ {
		f.ObserveBucket([]float64{1, 2, 3}, 3, onDone)
	}
	require.True(t, f.AwaitIdle(time.Second))
	mu.Lock()
	require.Equal(t, []bool{true, false}, results)
	mu.Unlock()
}

func TestForecasterOnlineUpdateOnlyWhenReady(t *testing.T) {
	model := &stubModel{}
	f := NewWithModel(model, Params{RefitThreshold: 1000}, zaptest.NewLogger(t))

	// Not ready yet: ObserveBucket must not call Update (stub always succeeds,
	// so this only matters for the state machine, asserted via metrics not
	// exposed here; we assert no panic and state remains uninitialized).
	f.ObserveBucket([]float64{1}, 1, nil)
	require.Equal(t, StateUninitialized, f.State())
}

func TestForecasterAwaitIdleTimesOutWhileRefitRunning(t *testing.T) {
	block := make(chan struct{})
	model := &blockingModel{release: block}
	params := DefaultParams(2) // RefitThreshold = 5
	f := NewWithModel(model, params, zaptest.NewLogger(t))

	for i := 0; i < params.RefitThreshold; i++ {
		f.ObserveBucket([]float64{1, 2, 3}, 3, nil)
	}

	require.False(t, f.AwaitIdle(10*time.Millisecond))
	close(block)
	require.True(t, f.AwaitIdle(time.Second))
}

type blockingModel struct {
	release chan struct{}
}

func (b *blockingModel) Fit(_ []float64, _ Params) error {
	<-b.release
	return nil
}

func (b *blockingModel) Update(float64) error { return nil }

func (b *blockingModel) Forecast(int) (float64, error) { return 0, nil }
