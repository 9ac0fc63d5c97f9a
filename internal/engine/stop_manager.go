package engine

import (
	"math"

	"capital-trading-bot/internal/ta"
	"capital-trading-bot/internal/types"
)

// stopPolicy carries the exit-plan constants. Defaults match the stock
// policy: 2.5x reward multiple, 1.5x ATR trail, breakeven at 30% and trailing
// at 50% of the way to target.
type stopPolicy struct {
	ATRPeriod          int
	RewardMultiple     float64
	TrailingATRMult    float64
	BreakevenThreshold float64
	TrailingActivation float64
	UseVolatilityStop  bool
	VolatilityPeriod   int
}

// stopManager derives initial stop/target levels and evaluates trailing-stop
// moves for open positions.
type stopManager struct {
	pol stopPolicy
}

func newStopManager(pol stopPolicy) *stopManager {
	return &stopManager{pol: pol}
}

// InitialStops computes the exit plan for a candidate entry. The stop sits an
// ATR-scaled distance on the adverse side, the target a fixed multiple of the
// initial risk on the favorable side. When the volatility-stop policy is
// selected the stop distance comes from 2 standard deviations of log returns
// instead; the ATR is still computed because the trailing logic needs it.
func (sm *stopManager) InitialStops(bars []types.PriceBar, direction types.Direction, entryPrice float64) (types.StopPlan, error) {
	atr, err := ta.ATR(bars, sm.pol.ATRPeriod)
	if err != nil {
		return types.StopPlan{}, err
	}

	var stopDistance float64
	if sm.pol.UseVolatilityStop {
		vol, err := ta.LogReturnVolatility(bars, sm.pol.VolatilityPeriod)
		if err != nil {
			return types.StopPlan{}, err
		}
		stopDistance = vol * 2
	} else {
		mult, err := ta.VolatilityMultiplier(bars)
		if err != nil {
			return types.StopPlan{}, err
		}
		stopDistance = atr * mult
	}

	var stopLoss float64
	if direction == types.Long {
		stopLoss = entryPrice - stopDistance
	} else {
		stopLoss = entryPrice + stopDistance
	}

	initialRisk := math.Abs(entryPrice - stopLoss)

	var takeProfit float64
	if direction == types.Long {
		takeProfit = entryPrice + initialRisk*sm.pol.RewardMultiple
	} else {
		takeProfit = entryPrice - initialRisk*sm.pol.RewardMultiple
	}

	return types.StopPlan{
		StopLoss:    stopLoss,
		TakeProfit:  takeProfit,
		InitialRisk: initialRisk,
		ATR:         atr,
	}, nil
}

// VolatilityStop derives a stop purely from return volatility, without ATR.
// Alternative policy, never combined with InitialStops.
func (sm *stopManager) VolatilityStop(bars []types.PriceBar, entryPrice float64, direction types.Direction) (float64, error) {
	vol, err := ta.LogReturnVolatility(bars, sm.pol.VolatilityPeriod)
	if err != nil {
		return 0, err
	}
	stopDistance := vol * 2
	if direction == types.Long {
		return entryPrice - stopDistance, nil
	}
	return entryPrice + stopDistance, nil
}

// EvaluateTrailing decides whether the protective stop should move, purely
// from the current price. The state is implicit: below the breakeven
// threshold nothing happens, between the thresholds the candidate is the
// entry price, and past the activation threshold the stop follows price at a
// fixed ATR multiple, clamped so it never retreats past breakeven. There is
// no memory of past peaks; a favorable spike that retraces before the next
// evaluation leaves no residue.
func (sm *stopManager) EvaluateTrailing(pos types.Position, currentPrice float64) (float64, bool) {
	targetProfit := math.Abs(pos.TakeProfit - pos.EntryPrice)
	if targetProfit == 0 {
		return 0, false
	}

	var profitAmount float64
	if pos.Direction == types.Long {
		profitAmount = currentPrice - pos.EntryPrice
	} else {
		profitAmount = pos.EntryPrice - currentPrice
	}

	progress := profitAmount / targetProfit
	if progress < sm.pol.BreakevenThreshold {
		return 0, false
	}

	newStop := pos.EntryPrice
	if progress >= sm.pol.TrailingActivation {
		trailingDistance := pos.ATR * sm.pol.TrailingATRMult
		if pos.Direction == types.Long {
			newStop = math.Max(currentPrice-trailingDistance, newStop)
		} else {
			newStop = math.Min(currentPrice+trailingDistance, newStop)
		}
	}
	return newStop, true
}

// improvesStop reports whether a candidate stop is strictly better than the
// current one for the direction. The stop only ever tightens.
func improvesStop(direction types.Direction, candidate, current float64) bool {
	if direction == types.Long {
		return candidate > current
	}
	return candidate < current
}
