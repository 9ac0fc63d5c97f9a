package engineobs

import (
	"context"
	"time"

	"capital-trading-bot/internal/interfaces"
	"capital-trading-bot/internal/logger"
	"capital-trading-bot/internal/trace"
	"capital-trading-bot/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{engine: eng}
}

func (oe *observableEngine) Step(ctx context.Context, symbol string) (*types.CycleResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Step")
	defer span.End()

	start := time.Now()

	logger.DebugSkip(ctx, 1, "Starting trading cycle", "symbol", symbol)

	result, err := oe.engine.Step(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Trading cycle failed", err,
			"symbol", symbol,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Trading cycle completed",
		"symbol", symbol,
		"state", string(result.State),
		"price", result.Price,
		"reason", result.Reason,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (oe *observableEngine) RunCycle(ctx context.Context) []types.CycleResult {
	ctx, span := trace.StartSpan(ctx, "engine.RunCycle")
	defer span.End()

	start := time.Now()
	results := oe.engine.RunCycle(ctx)
	logger.DebugSkip(ctx, 1, "Cycle pass completed",
		"results", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results
}

func (oe *observableEngine) Start(ctx context.Context, symbols []string) error {
	ctx, span := trace.StartSpan(ctx, "engine.Start")
	defer span.End()
	return oe.engine.Start(ctx, symbols)
}

func (oe *observableEngine) Stop(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "engine.Stop")
	defer span.End()
	oe.engine.Stop(ctx)
}

func (oe *observableEngine) Running() bool { return oe.engine.Running() }

func (oe *observableEngine) Symbols() []string { return oe.engine.Symbols() }

func (oe *observableEngine) Positions() map[string]types.Position {
	return oe.engine.Positions()
}

func (oe *observableEngine) ClosePosition(ctx context.Context, symbol string) {
	ctx, span := trace.StartSpan(ctx, "engine.ClosePosition")
	defer span.End()
	oe.engine.ClosePosition(ctx, symbol)
}

func (oe *observableEngine) DrawdownPercent() float64 { return oe.engine.DrawdownPercent() }

func (oe *observableEngine) RiskSnapshot() types.RiskConfig { return oe.engine.RiskSnapshot() }

func (oe *observableEngine) UpdateRiskConfig(cfg types.RiskConfig) {
	oe.engine.UpdateRiskConfig(cfg)
}
