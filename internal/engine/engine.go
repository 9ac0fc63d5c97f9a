package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"context"

	"capital-trading-bot/internal/interfaces"
	"capital-trading-bot/internal/logger"
	"capital-trading-bot/internal/monitoring"
	"capital-trading-bot/internal/store"
	"capital-trading-bot/internal/tradelog"
	"capital-trading-bot/internal/types"
)

// Engine runs one decision cycle per symbol: open a risk-checked position
// when flat, tighten the protective stop when not. Cycles for different
// symbols run concurrently; two cycles for the same symbol never interleave.
type Engine struct {
	cfg    *store.Config
	brk    interfaces.Broker
	signal interfaces.SignalSource
	risk   *riskManager
	stops  *stopManager
	ledger *ledger

	running atomic.Bool

	mu      sync.Mutex
	symbols []string
	cycleMu map[string]*sync.Mutex
}

func New(cfg *store.Config, brk interfaces.Broker, sig interfaces.SignalSource) *Engine {
	led := newLedger()
	return &Engine{
		cfg:    cfg,
		brk:    brk,
		signal: sig,
		risk:   newRiskManager(cfg.Risk, led),
		stops: newStopManager(stopPolicy{
			ATRPeriod:          cfg.Stops.ATRPeriod,
			RewardMultiple:     cfg.Stops.RewardMultiple,
			TrailingATRMult:    cfg.Stops.TrailingATRMult,
			BreakevenThreshold: cfg.Stops.BreakevenThreshold,
			TrailingActivation: cfg.Stops.TrailingActivation,
			UseVolatilityStop:  cfg.Stops.UseVolatilityStop,
			VolatilityPeriod:   cfg.Stops.VolatilityPeriod,
		}),
		ledger:  led,
		symbols: append([]string(nil), cfg.Symbols...),
		cycleMu: make(map[string]*sync.Mutex),
	}
}

var _ interfaces.Engine = (*Engine)(nil)

// symbolLock returns the mutex serializing cycles for one symbol.
func (e *Engine) symbolLock(symbol string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.cycleMu[symbol]
	if !ok {
		m = &sync.Mutex{}
		e.cycleMu[symbol] = m
	}
	return m
}

// Step runs one cycle for a symbol. Any failure aborts this symbol's cycle
// only; the ledger is written strictly after the broker confirms.
func (e *Engine) Step(ctx context.Context, symbol string) (*types.CycleResult, error) {
	lock := e.symbolLock(symbol)
	lock.Lock()
	defer lock.Unlock()

	// One snapshot per cycle; a concurrent settings replace is only seen by
	// cycles starting after it.
	riskCfg := e.risk.Snapshot()

	if pos, open := e.ledger.Get(symbol); open {
		return e.updateOpenPosition(ctx, pos)
	}
	return e.tryOpenPosition(ctx, symbol, riskCfg)
}

func (e *Engine) tryOpenPosition(ctx context.Context, symbol string, riskCfg types.RiskConfig) (*types.CycleResult, error) {
	bars, err := e.brk.PriceHistory(ctx, symbol, e.cfg.Interval, e.cfg.HistoryBars)
	if err != nil {
		monitoring.RecordCycleError("data_unavailable")
		return nil, fmt.Errorf("%w: %s: %v", types.ErrDataUnavailable, symbol, err)
	}
	if len(bars) == 0 {
		monitoring.RecordCycleError("data_unavailable")
		return nil, fmt.Errorf("%w: %s: empty history", types.ErrDataUnavailable, symbol)
	}

	latest := bars[len(bars)-1]
	entryPrice := latest.Close
	monitoring.SetCurrentPrice(symbol, entryPrice)

	// A failing signal source means "no trade", never a failed cycle.
	sig, err := e.signal.Evaluate(ctx, symbol, bars)
	if err != nil {
		logger.Warn(ctx, "Signal source failed, treating as no trade", "symbol", symbol, "error", err)
		sig = types.Signal{ShouldTrade: false, Reason: "signal_error"}
	}
	if !sig.ShouldTrade {
		logger.Debug(ctx, "No trade signal", "symbol", symbol, "reason", sig.Reason)
		return &types.CycleResult{Symbol: symbol, State: types.CycleSkipped, Price: entryPrice, Time: latest.Ts, Signal: sig, Reason: sig.Reason}, nil
	}

	plan, err := e.stops.InitialStops(bars, sig.Direction, entryPrice)
	if err != nil {
		monitoring.RecordCycleError("insufficient_data")
		return nil, fmt.Errorf("computing stops for %s: %w", symbol, err)
	}

	validation, err := e.risk.ValidateTrade(riskCfg, entryPrice, plan.StopLoss, plan.TakeProfit)
	if err != nil {
		monitoring.RecordCycleError("invalid_levels")
		return nil, fmt.Errorf("validating %s: %w", symbol, err)
	}
	if !validation.Valid {
		logger.Risk(ctx, symbol, "TRADE_REJECTED",
			"reason", string(validation.Reason),
			"ratio", validation.Ratio,
			"min_ratio", riskCfg.MinRiskRewardRatio,
		)
		monitoring.RecordTradeSkip(string(validation.Reason))
		return &types.CycleResult{Symbol: symbol, State: types.CycleSkipped, Price: entryPrice, Time: latest.Ts, Signal: sig, Reason: string(validation.Reason)}, nil
	}

	sizing, err := e.risk.SizePosition(riskCfg, entryPrice, plan.StopLoss, symbol)
	if err != nil {
		monitoring.RecordCycleError("invalid_levels")
		return nil, fmt.Errorf("sizing %s: %w", symbol, err)
	}
	if !sizing.CanTrade {
		logger.Risk(ctx, symbol, "TRADE_REJECTED",
			"reason", string(sizing.Reason),
			"open_positions", e.ledger.Count(),
		)
		monitoring.RecordTradeSkip(string(sizing.Reason))
		return &types.CycleResult{Symbol: symbol, State: types.CycleSkipped, Price: entryPrice, Time: latest.Ts, Signal: sig, Sizing: &sizing, Reason: string(sizing.Reason)}, nil
	}

	resp, err := e.brk.PlaceOrder(ctx, types.OrderReq{
		Symbol:           symbol,
		Direction:        sig.Direction,
		Size:             sizing.Size,
		StopLoss:         plan.StopLoss,
		TakeProfit:       plan.TakeProfit,
		TrailingDistance: plan.ATR * e.stops.pol.TrailingATRMult,
		Tag:              "ENTRY",
	})
	if err != nil {
		monitoring.RecordCycleError("order_rejected")
		return nil, fmt.Errorf("%w: %s: %v", types.ErrOrderRejected, symbol, err)
	}

	// Commit only after the broker accepted the order.
	pos := types.Position{
		Symbol:     symbol,
		Direction:  sig.Direction,
		EntryPrice: entryPrice,
		StopLoss:   plan.StopLoss,
		TakeProfit: plan.TakeProfit,
		Size:       sizing.Size,
		RiskAmount: sizing.Size * sizing.PipRisk,
		ATR:        plan.ATR,
		OrderID:    resp.OrderID,
		OpenedAt:   latest.Ts,
	}
	e.ledger.Add(pos)

	logger.Trade(ctx, symbol, string(sig.Direction), sizing.Size, entryPrice, resp.OrderID,
		"stop_loss", plan.StopLoss,
		"take_profit", plan.TakeProfit,
		"atr", plan.ATR,
		"ratio", validation.Ratio,
	)
	_ = tradelog.Append(tradelog.Entry{
		Symbol:     symbol,
		Direction:  string(sig.Direction),
		Size:       sizing.Size,
		Price:      entryPrice,
		StopLoss:   plan.StopLoss,
		TakeProfit: plan.TakeProfit,
		OrderID:    resp.OrderID,
		Reason:     sig.Reason,
	})
	monitoring.RecordTrade(symbol, string(sig.Direction))
	monitoring.SetOpenPositions(e.ledger.Count())
	monitoring.SetDrawdown(e.risk.DrawdownPercent())

	return &types.CycleResult{Symbol: symbol, State: types.CycleOpened, Price: entryPrice, Time: latest.Ts, Signal: sig, Sizing: &sizing}, nil
}

func (e *Engine) updateOpenPosition(ctx context.Context, pos types.Position) (*types.CycleResult, error) {
	price, err := e.brk.CurrentPrice(ctx, pos.Symbol)
	if err != nil {
		monitoring.RecordCycleError("data_unavailable")
		return nil, fmt.Errorf("%w: %s: %v", types.ErrDataUnavailable, pos.Symbol, err)
	}
	monitoring.SetCurrentPrice(pos.Symbol, price)

	candidate, ok := e.stops.EvaluateTrailing(pos, price)
	if !ok || candidate == pos.StopLoss || !improvesStop(pos.Direction, candidate, pos.StopLoss) {
		// No move, or a tie: re-submitting the same level to the broker would
		// be a redundant amendment.
		return &types.CycleResult{Symbol: pos.Symbol, State: types.CycleHolding, Price: price}, nil
	}

	if err := e.brk.AmendStopLoss(ctx, pos.Symbol, candidate); err != nil {
		monitoring.RecordCycleError("order_rejected")
		return nil, fmt.Errorf("%w: amending stop for %s: %v", types.ErrOrderRejected, pos.Symbol, err)
	}

	// Ledger reflects the amendment only once the broker confirmed it.
	e.ledger.UpdateStop(pos.Symbol, candidate)

	logger.Info(ctx, "Stop loss tightened",
		"symbol", pos.Symbol,
		"old_stop", pos.StopLoss,
		"new_stop", candidate,
		"current_price", price,
		"entry_price", pos.EntryPrice,
	)
	_ = tradelog.AppendStop(tradelog.StopEntry{
		Symbol:  pos.Symbol,
		OldStop: pos.StopLoss,
		NewStop: candidate,
		Price:   price,
		OrderID: pos.OrderID,
	})
	monitoring.RecordStopAmendment(pos.Symbol)

	return &types.CycleResult{Symbol: pos.Symbol, State: types.CycleStopAmended, Price: price, NewStop: candidate}, nil
}

// RunCycle runs one pass over all symbols, each cycle in its own goroutine.
// Failures are logged and isolated; the slice holds the results of the
// cycles that completed.
func (e *Engine) RunCycle(ctx context.Context) []types.CycleResult {
	if !e.running.Load() {
		return nil
	}

	e.mu.Lock()
	symbols := append([]string(nil), e.symbols...)
	e.mu.Unlock()

	var (
		wg      sync.WaitGroup
		resMu   sync.Mutex
		results []types.CycleResult
	)
	for _, sym := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			res, err := e.Step(ctx, symbol)
			if err != nil {
				logger.ErrorWithErr(ctx, "Cycle failed", err, "symbol", symbol)
				return
			}
			resMu.Lock()
			results = append(results, *res)
			resMu.Unlock()
		}(sym)
	}
	wg.Wait()
	return results
}

// Start enables cycling, optionally replacing the symbol universe.
func (e *Engine) Start(ctx context.Context, symbols []string) error {
	if len(symbols) > 0 {
		e.mu.Lock()
		e.symbols = append([]string(nil), symbols...)
		e.mu.Unlock()
	}
	e.mu.Lock()
	current := append([]string(nil), e.symbols...)
	e.mu.Unlock()
	if err := e.brk.Start(ctx, current); err != nil {
		return fmt.Errorf("starting broker feed: %w", err)
	}
	e.running.Store(true)
	logger.Info(ctx, "Engine started", "symbols", current)
	return nil
}

func (e *Engine) Stop(ctx context.Context) {
	e.running.Store(false)
	e.brk.Stop(ctx)
	logger.Info(ctx, "Engine stopped")
}

func (e *Engine) Running() bool {
	return e.running.Load()
}

func (e *Engine) Symbols() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.symbols...)
}

// Positions exposes the ledger for the admin layer.
func (e *Engine) Positions() map[string]types.Position {
	return e.ledger.Snapshot()
}

func (e *Engine) DrawdownPercent() float64 {
	return e.risk.DrawdownPercent()
}

func (e *Engine) RiskSnapshot() types.RiskConfig {
	return e.risk.Snapshot()
}

// UpdateRiskConfig replaces the whole risk config. Running cycles keep the
// snapshot they started with.
func (e *Engine) UpdateRiskConfig(cfg types.RiskConfig) {
	e.risk.Replace(cfg)
}

// ClosePosition drops a position the outer layer observed closed at the
// broker. The engine does not detect closure on its own.
func (e *Engine) ClosePosition(ctx context.Context, symbol string) {
	lock := e.symbolLock(symbol)
	lock.Lock()
	defer lock.Unlock()
	e.ledger.Remove(symbol)
	monitoring.SetOpenPositions(e.ledger.Count())
	monitoring.SetDrawdown(e.risk.DrawdownPercent())
	logger.Info(ctx, "Position removed from ledger", "symbol", symbol)
}
