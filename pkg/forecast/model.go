// pkg/forecast/model.go
package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Forecaster fits a yearly series and predicts future values with a
// prediction interval.
type Forecaster interface {
	Fit(years []int, values []float64) error
	Predict(years []int) ([]Prediction, error)
}

// Prediction is one forecast year. Bounds may be negative; callers decide
// whether their domain admits negative values.
type Prediction struct {
	Year  int
	Point float64
	Lower float64
	Upper float64
}

// TrendModel is a piecewise-linear trend fit. A base regression captures the
// global slope; hinge terms at candidate changepoints absorb trend shifts,
// damped by the flexibility parameter so sparse yearly data cannot whip the
// extrapolation around. Intervals come from the residual spread, widening
// with forecast distance.
type TrendModel struct {
	// Changepoints is the number of candidate trend-shift years, spread
	// evenly over the first 80% of the training range.
	Changepoints int
	// Flexibility in (0, 1] scales how much of each observed slope shift
	// the model adopts.
	Flexibility float64
	// IntervalWidth is the nominal coverage of the prediction interval,
	// e.g. 0.95.
	IntervalWidth float64

	fitted      bool
	intercept   float64
	slope       float64
	hinges      []hinge
	residualStd float64
	lastYear    float64
	trainSpan   float64
}

type hinge struct {
	year  float64
	delta float64
}

// NewTrendModel creates a TrendModel with the given shape parameters.
func NewTrendModel(changepoints int, flexibility, intervalWidth float64) (*TrendModel, error) {
	if changepoints < 0 {
		return nil, errors.New("changepoints cannot be negative")
	}
	if flexibility <= 0 || flexibility > 1 {
		return nil, fmt.Errorf("flexibility must be in (0, 1], got %v", flexibility)
	}
	if intervalWidth <= 0 || intervalWidth >= 1 {
		return nil, fmt.Errorf("interval width must be in (0, 1), got %v", intervalWidth)
	}
	return &TrendModel{
		Changepoints:  changepoints,
		Flexibility:   flexibility,
		IntervalWidth: intervalWidth,
	}, nil
}

// Fit estimates the trend from a yearly series. At least three points are
// required; years need not be contiguous.
func (m *TrendModel) Fit(years []int, values []float64) error {
	if len(years) != len(values) {
		return fmt.Errorf("mismatched series lengths: %d years, %d values", len(years), len(values))
	}
	if len(years) < 3 {
		return fmt.Errorf("need at least 3 training points, got %d", len(years))
	}

	xs := make([]float64, len(years))
	for i, y := range years {
		xs[i] = float64(y)
	}
	first, last := xs[0], xs[0]
	for _, x := range xs {
		first = math.Min(first, x)
		last = math.Max(last, x)
	}
	m.lastYear = last
	m.trainSpan = math.Max(last-first, 1)

	m.intercept, m.slope = stat.LinearRegression(xs, values, nil, false)

	residuals := make([]float64, len(xs))
	for i := range xs {
		residuals[i] = values[i] - (m.intercept + m.slope*xs[i])
	}

	// Stagewise hinge fit: each candidate changepoint absorbs a damped
	// share of whatever slope remains in the residuals beyond it.
	m.hinges = m.hinges[:0]
	for _, cp := range m.changepointYears(first, last) {
		var hx, hr []float64
		for i := range xs {
			if xs[i] >= cp {
				hx = append(hx, xs[i]-cp)
				hr = append(hr, residuals[i])
			}
		}
		if len(hx) < 3 {
			continue
		}
		_, gamma := stat.LinearRegression(hx, hr, nil, false)
		delta := gamma * m.Flexibility
		if delta == 0 || math.IsNaN(delta) {
			continue
		}
		m.hinges = append(m.hinges, hinge{year: cp, delta: delta})
		for i := range xs {
			if xs[i] >= cp {
				residuals[i] -= delta * (xs[i] - cp)
			}
		}
	}

	if len(residuals) > 1 {
		m.residualStd = stat.StdDev(residuals, nil)
	}
	m.fitted = true
	return nil
}

// Predict extrapolates the fitted trend to the given years.
func (m *TrendModel) Predict(years []int) ([]Prediction, error) {
	if !m.fitted {
		return nil, errors.New("model has not been fitted")
	}

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.5 + m.IntervalWidth/2)
	out := make([]Prediction, 0, len(years))
	for _, y := range years {
		x := float64(y)
		point := m.trend(x)
		// Uncertainty grows with distance from the training data.
		spread := z * m.residualStd * math.Sqrt(1+math.Max(x-m.lastYear, 0)/m.trainSpan)
		out = append(out, Prediction{
			Year:  y,
			Point: point,
			Lower: point - spread,
			Upper: point + spread,
		})
	}
	return out, nil
}

func (m *TrendModel) trend(x float64) float64 {
	v := m.intercept + m.slope*x
	for _, h := range m.hinges {
		if x >= h.year {
			v += h.delta * (x - h.year)
		}
	}
	return v
}

// changepointYears spreads candidates evenly across the first 80% of the
// training range, excluding the endpoints.
func (m *TrendModel) changepointYears(first, last float64) []float64 {
	if m.Changepoints == 0 {
		return nil
	}
	span := (last - first) * 0.8
	if span <= 0 {
		return nil
	}
	step := span / float64(m.Changepoints+1)
	cps := make([]float64, 0, m.Changepoints)
	for i := 1; i <= m.Changepoints; i++ {
		cps = append(cps, first+step*float64(i))
	}
	return cps
}
