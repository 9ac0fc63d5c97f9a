package interfaces

import (
	"context"

	"capital-trading-bot/internal/types"
)

// Broker is the gateway to the brokerage. Retries are the implementation's
// concern, never the engine's.
type Broker interface {
	PriceHistory(ctx context.Context, symbol, interval string, limit int) ([]types.PriceBar, error)
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
	PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error)
	AmendStopLoss(ctx context.Context, symbol string, newStop float64) error
	Start(ctx context.Context, symbols []string) error
	Stop(ctx context.Context)
}
