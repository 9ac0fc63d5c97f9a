package noop

import (
	"context"

	"capital-trading-bot/internal/logger"
	"capital-trading-bot/internal/types"
)

// Source is the fallback signal source used when no provider is configured.
type Source struct{}

// New returns a source that never recommends a trade.
func New() *Source {
	return &Source{}
}

func (s *Source) Evaluate(ctx context.Context, symbol string, bars []types.PriceBar) (types.Signal, error) {
	logger.Debug(ctx, "Noop signal source called - never trades", "symbol", symbol)
	return types.Signal{ShouldTrade: false, Reason: "noop_source"}, nil
}
