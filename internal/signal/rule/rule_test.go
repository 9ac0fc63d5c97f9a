package rule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capital-trading-bot/internal/types"
)

func trendBars(n int, start, step float64) []types.PriceBar {
	bars := make([]types.PriceBar, n)
	price := start
	for i := range bars {
		bars[i] = types.PriceBar{Ts: int64(i), Open: price, High: price, Low: price, Close: price}
		price += step
	}
	return bars
}

// setHighs overwrites the highs of the last five bars.
func setHighs(bars []types.PriceBar, highs [5]float64) {
	last := bars[len(bars)-5:]
	for i := range last {
		last[i].High = highs[i]
	}
}

func TestEvaluateBullishTrend(t *testing.T) {
	src := New(20, 50)
	bars := trendBars(60, 1.2000, 0.0010)

	sig, err := src.Evaluate(context.Background(), "EURUSD", bars)
	require.NoError(t, err)
	assert.True(t, sig.ShouldTrade)
	assert.Equal(t, types.Long, sig.Direction)
	assert.Equal(t, "bullish_trend", sig.Reason)
}

func TestEvaluateBearishHeadAndShoulders(t *testing.T) {
	src := New(20, 50)
	bars := trendBars(60, 1.5000, -0.0050)
	// Left shoulder above neckline, head above both shoulders.
	setHighs(bars, [5]float64{1.30, 1.28, 1.35, 1.25, 1.29})

	sig, err := src.Evaluate(context.Background(), "EURUSD", bars)
	require.NoError(t, err)
	assert.True(t, sig.ShouldTrade)
	assert.Equal(t, types.Short, sig.Direction)
	assert.Equal(t, "bearish_head_and_shoulders", sig.Reason)
}

func TestEvaluateNoSetup(t *testing.T) {
	src := New(20, 50)

	// Downtrend without a reversal pattern: stay out.
	sig, err := src.Evaluate(context.Background(), "EURUSD", trendBars(60, 1.5000, -0.0050))
	require.NoError(t, err)
	assert.False(t, sig.ShouldTrade)
	assert.Equal(t, "no_setup", sig.Reason)

	// Uptrend with a head-and-shoulders top: conflicting reads, stay out.
	bars := trendBars(60, 1.2000, 0.0010)
	setHighs(bars, [5]float64{1.30, 1.28, 1.35, 1.25, 1.29})
	sig, err = src.Evaluate(context.Background(), "EURUSD", bars)
	require.NoError(t, err)
	assert.False(t, sig.ShouldTrade)
	assert.Equal(t, "no_setup", sig.Reason)
}

func TestEvaluateInsufficientData(t *testing.T) {
	src := New(20, 50)
	_, err := src.Evaluate(context.Background(), "EURUSD", trendBars(30, 1.2, 0.001))
	assert.ErrorIs(t, err, types.ErrInsufficientData)
}

func TestScreenPatterns(t *testing.T) {
	// Too few bars defaults to neutral.
	assert.Equal(t, patternNeutral, screenPatterns(trendBars(3, 1.2, 0.001)))

	// Flat candles: tiny bodies against wide wicks.
	flat := make([]types.PriceBar, 5)
	for i := range flat {
		flat[i] = types.PriceBar{Open: 1.2000, Close: 1.2001, High: 1.2050, Low: 1.1950}
	}
	assert.Equal(t, patternWait, screenPatterns(flat))
}
