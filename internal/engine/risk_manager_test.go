package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capital-trading-bot/internal/types"
)

func testRiskConfig() types.RiskConfig {
	return types.RiskConfig{
		AccountBalance:     10000,
		MaxRiskPerTrade:    0.02,
		MinRiskRewardRatio: 2.0,
		MaxPositionsOpen:   3,
	}
}

func TestValidateTrade(t *testing.T) {
	rm := newRiskManager(testRiskConfig(), newLedger())
	cfg := rm.Snapshot()

	// 2.5:1 passes the 2.0 minimum.
	v, err := rm.ValidateTrade(cfg, 1.2000, 1.1990, 1.2025)
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.InDelta(t, 2.5, v.Ratio, 1e-9)

	// 1:1 is rejected, not an error.
	v, err = rm.ValidateTrade(cfg, 1.2000, 1.1990, 1.2010)
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Equal(t, types.RatioBelowMinimum, v.Reason)
	assert.InDelta(t, 1.0, v.Ratio, 1e-9)
}

func TestValidateTradeDegenerateLevels(t *testing.T) {
	rm := newRiskManager(testRiskConfig(), newLedger())
	_, err := rm.ValidateTrade(rm.Snapshot(), 1.2000, 1.2000, 1.2025)
	assert.ErrorIs(t, err, types.ErrInvalidLevels)
}

func TestSizePosition(t *testing.T) {
	rm := newRiskManager(testRiskConfig(), newLedger())
	cfg := rm.Snapshot()

	// 10000 * 2% = 200 risk budget over a 0.0010 stop distance.
	res, err := rm.SizePosition(cfg, 1.2000, 1.1990, "EURUSD")
	require.NoError(t, err)
	assert.True(t, res.CanTrade)
	assert.InDelta(t, 200000, res.Size, lotStep+1e-9)
	assert.InDelta(t, 200, res.MaxRiskAmount, 1e-9)
	assert.InDelta(t, 0.0010, res.PipRisk, 1e-9)

	// Size times stop distance never exceeds the budget.
	assert.LessOrEqual(t, res.Size*res.PipRisk, res.MaxRiskAmount+1e-9)
}

func TestSizePositionFloorsToLotStep(t *testing.T) {
	cfg := types.RiskConfig{AccountBalance: 100, MaxRiskPerTrade: 0.01, MinRiskRewardRatio: 2, MaxPositionsOpen: 3}
	rm := newRiskManager(cfg, newLedger())

	// Budget 1.0 over stop distance 0.3: raw size 3.333..., floored to 3.33.
	res, err := rm.SizePosition(cfg, 10.0, 9.7, "XAUUSD")
	require.NoError(t, err)
	assert.True(t, res.CanTrade)
	assert.InDelta(t, 3.33, res.Size, 1e-9)
}

func TestSizePositionTooSmall(t *testing.T) {
	cfg := types.RiskConfig{AccountBalance: 100, MaxRiskPerTrade: 0.02, MinRiskRewardRatio: 2, MaxPositionsOpen: 3}
	rm := newRiskManager(cfg, newLedger())

	// Budget 2.0 over a 300-point stop distance floors to zero lots.
	res, err := rm.SizePosition(cfg, 50000, 49700, "BTCUSD")
	require.NoError(t, err)
	assert.False(t, res.CanTrade)
	assert.Equal(t, types.SizeTooSmall, res.Reason)
}

func TestSizePositionDegenerateLevels(t *testing.T) {
	rm := newRiskManager(testRiskConfig(), newLedger())
	_, err := rm.SizePosition(rm.Snapshot(), 1.2000, 1.2000, "EURUSD")
	assert.ErrorIs(t, err, types.ErrInvalidLevels)
}

func TestSizePositionMaxPositionsReached(t *testing.T) {
	led := newLedger()
	for _, sym := range []string{"EURUSD", "GBPUSD", "BTCUSD"} {
		led.Add(types.Position{Symbol: sym, RiskAmount: 100})
	}
	rm := newRiskManager(testRiskConfig(), led)

	res, err := rm.SizePosition(rm.Snapshot(), 1.2000, 1.1990, "USDJPY")
	require.NoError(t, err)
	assert.False(t, res.CanTrade)
	assert.Equal(t, types.MaxPositionsReached, res.Reason)

	// The cap binds at entry only: existing positions stay even when the cap
	// later tightens below the open count.
	tighter := testRiskConfig()
	tighter.MaxPositionsOpen = 1
	rm.Replace(tighter)
	assert.Equal(t, 3, led.Count())
}

func TestReplaceIsWholeStruct(t *testing.T) {
	rm := newRiskManager(testRiskConfig(), newLedger())

	next := types.RiskConfig{AccountBalance: 5000, MaxRiskPerTrade: 0.01, MinRiskRewardRatio: 3, MaxPositionsOpen: 1}
	rm.Replace(next)
	assert.Equal(t, next, rm.Snapshot())
}

func TestDrawdownPercent(t *testing.T) {
	led := newLedger()
	rm := newRiskManager(testRiskConfig(), led)
	assert.Zero(t, rm.DrawdownPercent())

	led.Add(types.Position{Symbol: "EURUSD", RiskAmount: 100})
	led.Add(types.Position{Symbol: "GBPUSD", RiskAmount: 50})
	assert.InDelta(t, 1.5, rm.DrawdownPercent(), 1e-9)

	led.Remove("EURUSD")
	assert.InDelta(t, 0.5, rm.DrawdownPercent(), 1e-9)
}
