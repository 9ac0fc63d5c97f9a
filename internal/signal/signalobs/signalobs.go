package signalobs

import (
	"context"
	"time"

	"capital-trading-bot/internal/interfaces"
	"capital-trading-bot/internal/logger"
	"capital-trading-bot/internal/trace"
	"capital-trading-bot/internal/types"
)

type observableSource struct {
	src interfaces.SignalSource
}

var _ interfaces.SignalSource = (*observableSource)(nil)

func Wrap(src interfaces.SignalSource) interfaces.SignalSource {
	return &observableSource{src: src}
}

func (os *observableSource) Evaluate(ctx context.Context, symbol string, bars []types.PriceBar) (types.Signal, error) {
	ctx, span := trace.StartSpan(ctx, "signal.Evaluate")
	defer span.End()

	start := time.Now()

	sig, err := os.src.Evaluate(ctx, symbol, bars)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Signal evaluation failed", err,
			"symbol", symbol,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return sig, err
	}

	logger.DebugSkip(ctx, 1, "Signal evaluated",
		"symbol", symbol,
		"should_trade", sig.ShouldTrade,
		"direction", string(sig.Direction),
		"reason", sig.Reason,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return sig, nil
}
