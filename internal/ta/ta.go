// Package ta holds the volatility estimators the stop and signal logic build
// on. All functions are pure; bar sequences are oldest-first.
package ta

import (
	"math"

	"capital-trading-bot/internal/types"
)

// Volatility bands for the stop-distance multiplier. Policy constants, not
// derived from data.
const (
	highVolThreshold   = 0.02
	mediumVolThreshold = 0.01
)

// ATR returns the arithmetic mean of the true range over the most recent
// period bars. The first bar has no previous close and is discarded, so
// period+1 bars are required.
func ATR(bars []types.PriceBar, period int) (float64, error) {
	if period <= 0 || len(bars) < period+1 {
		return 0, types.ErrInsufficientData
	}
	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		prevClose := bars[i-1].Close
		tr := math.Max(bars[i].High-bars[i].Low,
			math.Max(math.Abs(bars[i].High-prevClose), math.Abs(bars[i].Low-prevClose)))
		sum += tr
	}
	return sum / float64(period), nil
}

// LogReturnVolatility returns the population standard deviation (divide by N,
// no Bessel correction) of the most recent period log returns.
func LogReturnVolatility(bars []types.PriceBar, period int) (float64, error) {
	if period <= 0 || len(bars) < period+1 {
		return 0, types.ErrInsufficientData
	}
	returns := make([]float64, 0, period)
	for i := len(bars) - period; i < len(bars); i++ {
		returns = append(returns, math.Log(bars[i].Close/bars[i-1].Close))
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	ss := 0.0
	for _, r := range returns {
		d := r - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(returns))), nil
}

// VolatilityMultiplier classifies 20-period return volatility into the stop
// distance bands: high 2.0, medium 1.5, low 1.0.
func VolatilityMultiplier(bars []types.PriceBar) (float64, error) {
	vol, err := LogReturnVolatility(bars, 20)
	if err != nil {
		return 0, err
	}
	switch {
	case vol > highVolThreshold:
		return 2.0, nil
	case vol > mediumVolThreshold:
		return 1.5, nil
	default:
		return 1.0, nil
	}
}

// SMA over the trailing n closes. NaN when there is not enough data, matching
// how the signal code treats indicators it cannot compute.
func SMA(closes []float64, n int) float64 {
	if len(closes) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(n)
}

// Closes extracts the close series from a bar window.
func Closes(bars []types.PriceBar) []float64 {
	cl := make([]float64, len(bars))
	for i, b := range bars {
		cl[i] = b.Close
	}
	return cl
}
