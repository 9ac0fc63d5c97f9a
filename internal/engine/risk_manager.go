package engine

import (
	"math"
	"sync"

	"capital-trading-bot/internal/types"
)

// lotStep is the minimum size increment the broker accepts.
const lotStep = 0.01

// riskManager validates candidate trades against the risk budget and sizes
// positions from account equity. Sizing and validation are pure queries; the
// orchestrator commits to the ledger only after the broker confirms.
type riskManager struct {
	mu     sync.RWMutex
	cfg    types.RiskConfig
	ledger *ledger
}

func newRiskManager(cfg types.RiskConfig, led *ledger) *riskManager {
	return &riskManager{cfg: cfg, ledger: led}
}

// Snapshot returns the current config. Each cycle reads it exactly once, so a
// concurrent Replace is only observed by cycles that start afterwards.
func (rm *riskManager) Snapshot() types.RiskConfig {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.cfg
}

// Replace swaps the whole config. Partial field updates are not supported.
func (rm *riskManager) Replace(cfg types.RiskConfig) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.cfg = cfg
}

// ValidateTrade checks the reward:risk ratio against the configured minimum.
// A ratio below the minimum is an expected rejection, not an error; a
// degenerate entry==stop is a caller bug and fails with ErrInvalidLevels.
func (rm *riskManager) ValidateTrade(cfg types.RiskConfig, entryPrice, stopLoss, takeProfit float64) (types.Validation, error) {
	risk := math.Abs(entryPrice - stopLoss)
	if risk == 0 {
		return types.Validation{}, types.ErrInvalidLevels
	}
	ratio := math.Abs(takeProfit-entryPrice) / risk
	if ratio < cfg.MinRiskRewardRatio {
		return types.Validation{Valid: false, Ratio: ratio, Reason: types.RatioBelowMinimum}, nil
	}
	return types.Validation{Valid: true, Ratio: ratio}, nil
}

// SizePosition computes how large a position may be for the given levels.
// The open-position cap is enforced here, at entry time only; tightening the
// cap later does not force existing positions out.
func (rm *riskManager) SizePosition(cfg types.RiskConfig, entryPrice, stopLoss float64, symbol string) (types.SizingResult, error) {
	if rm.ledger.Count() >= cfg.MaxPositionsOpen {
		return types.SizingResult{CanTrade: false, Reason: types.MaxPositionsReached}, nil
	}

	maxRiskAmount := cfg.AccountBalance * cfg.MaxRiskPerTrade
	pipRisk := math.Abs(entryPrice - stopLoss)
	if pipRisk == 0 {
		return types.SizingResult{}, types.ErrInvalidLevels
	}

	// Floor to the lot step so size × pipRisk never exceeds the risk budget.
	size := math.Floor(maxRiskAmount/pipRisk/lotStep) * lotStep
	if size < lotStep {
		return types.SizingResult{CanTrade: false, Reason: types.SizeTooSmall, MaxRiskAmount: maxRiskAmount, PipRisk: pipRisk}, nil
	}

	return types.SizingResult{
		CanTrade:      true,
		Size:          size,
		MaxRiskAmount: maxRiskAmount,
		PipRisk:       pipRisk,
	}, nil
}

// DrawdownPercent reports total entry-time risk of open positions as a
// percentage of the account balance. Recomputed on demand, never cached.
func (rm *riskManager) DrawdownPercent() float64 {
	cfg := rm.Snapshot()
	if cfg.AccountBalance <= 0 {
		return 0
	}
	return rm.ledger.TotalRiskAmount() / cfg.AccountBalance * 100.0
}
