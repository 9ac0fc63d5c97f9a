package interfaces

import (
	"context"

	"capital-trading-bot/internal/types"
)

// SignalSource decides whether and in which direction to consider a trade.
// Implementations are opaque to the engine; an error is treated as "no trade".
type SignalSource interface {
	Evaluate(ctx context.Context, symbol string, bars []types.PriceBar) (types.Signal, error)
}
