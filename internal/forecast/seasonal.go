package forecast

import (
	"errors"

	"gonum.org/v1/gonum/stat"
)

// seasonalModel is an additive trend-plus-seasonal model: a linear trend
// fit with gonum/stat's least-squares regression, plus one additive
// seasonal offset per position in the m-bucket cycle, averaged over every
// point at that position seen during Fit. There is no ARIMA implementation in the
// dependency set this module draws on, so the trend component here stands
// in for the AR/MA search the params describe: Fit always uses ordinary
// least squares rather than actually stepping through StartP..MaxP.
type seasonalModel struct {
	params Params

	trendAlpha float64
	trendBeta  float64
	seasonal   []float64 // offset per position 0..m-1, additive

	n int // number of points the model was last fit/updated against
}

// NewSeasonalModel constructs an unfit seasonal model.
func NewSeasonalModel() Model {
	return &seasonalModel{}
}

func (m *seasonalModel) Fit(history []float64, params Params) error {
	if len(history) < 2 {
		return errors.New("seasonal model: need at least 2 points to fit")
	}
	m.params = params

	xs := make([]float64, len(history))
	for i := range history {
		xs[i] = float64(i)
	}
	m.trendAlpha, m.trendBeta = stat.LinearRegression(xs, history, nil, false)

	period := params.Seasonality
	if !params.Seasonal || period <= 1 {
		m.seasonal = nil
	} else {
		sums := make([]float64, period)
		counts := make([]int, period)
		for i, v := range history {
			trend := m.trendAlpha + m.trendBeta*float64(i)
			sums[i%period] += v - trend
			counts[i%period]++
		}
		m.seasonal = make([]float64, period)
		for i := range sums {
			if counts[i] > 0 {
				m.seasonal[i] = sums[i] / float64(counts[i])
			}
		}
	}

	m.n = len(history)
	return nil
}

func (m *seasonalModel) Update(value float64) error {
	if m.n == 0 {
		return errors.New("seasonal model: Update called before Fit")
	}
	// Online update: refresh the seasonal offset at this cycle position
	// with an exponentially weighted blend of the residual; a model with no
	// seasonal component nudges the trend line's intercept toward the
	// residual instead. A full re-estimate happens on the next background
	// refit.
	trend := m.trendAlpha + m.trendBeta*float64(m.n)
	resid := value - trend

	const blend = 0.1
	if len(m.seasonal) > 0 {
		idx := m.n % len(m.seasonal)
		m.seasonal[idx] = (1-blend)*m.seasonal[idx] + blend*resid
	} else {
		m.trendAlpha += blend * resid
	}

	m.n++
	return nil
}

func (m *seasonalModel) Forecast(stepsAhead int) (float64, error) {
	if m.n == 0 {
		return 0, errors.New("seasonal model: Forecast called before Fit")
	}
	step := m.n + stepsAhead - 1
	trend := m.trendAlpha + m.trendBeta*float64(step)
	if len(m.seasonal) == 0 {
		return trend, nil
	}
	return trend + m.seasonal[step%len(m.seasonal)], nil
}
