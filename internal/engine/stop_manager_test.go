package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capital-trading-bot/internal/types"
)

func testPolicy() stopPolicy {
	return stopPolicy{
		ATRPeriod:          14,
		RewardMultiple:     2.5,
		TrailingATRMult:    1.5,
		BreakevenThreshold: 0.3,
		TrailingActivation: 0.5,
		VolatilityPeriod:   20,
	}
}

// steadyBars yields n bars with constant close and a fixed high-low range, so
// ATR equals the range and log-return volatility is zero.
func steadyBars(n int, close, rng float64) []types.PriceBar {
	bars := make([]types.PriceBar, n)
	for i := range bars {
		bars[i] = types.PriceBar{
			Ts:    int64(i),
			Open:  close,
			High:  close + rng/2,
			Low:   close - rng/2,
			Close: close,
		}
	}
	return bars
}

func testPosition() types.Position {
	return types.Position{
		Symbol:     "EURUSD",
		Direction:  types.Long,
		EntryPrice: 1.2000,
		StopLoss:   1.1990,
		TakeProfit: 1.2025,
		ATR:        0.0010,
	}
}

func TestInitialStopsLong(t *testing.T) {
	sm := newStopManager(testPolicy())
	bars := steadyBars(60, 1.2000, 0.0010)

	plan, err := sm.InitialStops(bars, types.Long, 1.2000)
	require.NoError(t, err)

	assert.InDelta(t, 0.0010, plan.ATR, 1e-9)
	assert.InDelta(t, 1.1990, plan.StopLoss, 1e-9)
	assert.InDelta(t, 1.2025, plan.TakeProfit, 1e-9)
	assert.InDelta(t, 0.0010, plan.InitialRisk, 1e-9)
}

func TestInitialStopsShort(t *testing.T) {
	sm := newStopManager(testPolicy())
	bars := steadyBars(60, 1.2000, 0.0010)

	plan, err := sm.InitialStops(bars, types.Short, 1.2000)
	require.NoError(t, err)

	assert.InDelta(t, 1.2010, plan.StopLoss, 1e-9)
	assert.InDelta(t, 1.1975, plan.TakeProfit, 1e-9)
}

func TestInitialStopsInsufficientData(t *testing.T) {
	sm := newStopManager(testPolicy())
	_, err := sm.InitialStops(steadyBars(5, 1.2, 0.001), types.Long, 1.2)
	assert.ErrorIs(t, err, types.ErrInsufficientData)
}

func TestEvaluateTrailingBelowBreakeven(t *testing.T) {
	sm := newStopManager(testPolicy())
	pos := testPosition()

	// 20% of the way to target: no move.
	_, ok := sm.EvaluateTrailing(pos, 1.2005)
	assert.False(t, ok)

	// Losing position: definitely no move.
	_, ok = sm.EvaluateTrailing(pos, 1.1995)
	assert.False(t, ok)
}

func TestEvaluateTrailingBreakevenBand(t *testing.T) {
	sm := newStopManager(testPolicy())
	pos := testPosition()

	// 32% of the way to target: stop moves to entry, no further.
	candidate, ok := sm.EvaluateTrailing(pos, 1.2008)
	require.True(t, ok)
	assert.InDelta(t, pos.EntryPrice, candidate, 1e-9)
}

func TestEvaluateTrailingActivation(t *testing.T) {
	sm := newStopManager(testPolicy())
	pos := testPosition()

	// Exactly at activation the trail sits behind entry, so the clamp holds
	// the candidate at breakeven.
	candidate, ok := sm.EvaluateTrailing(pos, 1.20125)
	require.True(t, ok)
	assert.InDelta(t, pos.EntryPrice, candidate, 1e-9)

	// Further along, the trail leads: price - 1.5*ATR.
	candidate, ok = sm.EvaluateTrailing(pos, 1.2030)
	require.True(t, ok)
	assert.InDelta(t, 1.2015, candidate, 1e-9)
}

func TestEvaluateTrailingShort(t *testing.T) {
	sm := newStopManager(testPolicy())
	pos := types.Position{
		Symbol:     "EURUSD",
		Direction:  types.Short,
		EntryPrice: 1.2000,
		StopLoss:   1.2010,
		TakeProfit: 1.1975,
		ATR:        0.0010,
	}

	// Breakeven band.
	candidate, ok := sm.EvaluateTrailing(pos, 1.1992)
	require.True(t, ok)
	assert.InDelta(t, 1.2000, candidate, 1e-9)

	// Trailing: price + 1.5*ATR, below entry.
	candidate, ok = sm.EvaluateTrailing(pos, 1.1970)
	require.True(t, ok)
	assert.InDelta(t, 1.1985, candidate, 1e-9)
}

// The trailing evaluator is memoryless, so monotonicity comes from the caller
// never applying a candidate that loosens the stop. This mirrors that
// filtering over a rising then retracing price path.
func TestTrailingStopNeverLoosens(t *testing.T) {
	sm := newStopManager(testPolicy())
	pos := testPosition()

	prices := []float64{1.2008, 1.2015, 1.2030, 1.2040, 1.2020, 1.2050}
	for _, p := range prices {
		candidate, ok := sm.EvaluateTrailing(pos, p)
		if !ok || !improvesStop(pos.Direction, candidate, pos.StopLoss) {
			continue
		}
		assert.Greater(t, candidate, pos.StopLoss, "price %v", p)
		pos.StopLoss = candidate
	}
	assert.InDelta(t, 1.2035, pos.StopLoss, 1e-9)
}

func TestEvaluateTrailingDegenerateTarget(t *testing.T) {
	sm := newStopManager(testPolicy())
	pos := testPosition()
	pos.TakeProfit = pos.EntryPrice

	_, ok := sm.EvaluateTrailing(pos, 1.2100)
	assert.False(t, ok)
}

func TestImprovesStop(t *testing.T) {
	assert.True(t, improvesStop(types.Long, 1.2000, 1.1990))
	assert.False(t, improvesStop(types.Long, 1.1990, 1.1990))
	assert.False(t, improvesStop(types.Long, 1.1980, 1.1990))

	assert.True(t, improvesStop(types.Short, 1.2000, 1.2010))
	assert.False(t, improvesStop(types.Short, 1.2010, 1.2010))
	assert.False(t, improvesStop(types.Short, 1.2020, 1.2010))
}

func TestVolatilityStopPolicy(t *testing.T) {
	pol := testPolicy()
	pol.UseVolatilityStop = true
	sm := newStopManager(pol)

	// Constant closes have zero return volatility, so the stop distance
	// collapses to zero and the stop sits at entry.
	bars := steadyBars(60, 1.2000, 0.0010)
	plan, err := sm.InitialStops(bars, types.Long, 1.2000)
	require.NoError(t, err)
	assert.InDelta(t, 1.2000, plan.StopLoss, 1e-9)
	assert.InDelta(t, 0.0010, plan.ATR, 1e-9)

	stop, err := sm.VolatilityStop(bars, 1.2000, types.Short)
	require.NoError(t, err)
	assert.InDelta(t, 1.2000, stop, 1e-9)
}
