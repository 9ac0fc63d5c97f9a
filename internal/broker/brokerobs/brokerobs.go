// Package brokerobs wraps a Broker with tracing and structured logging.
package brokerobs

import (
	"context"
	"time"

	"capital-trading-bot/internal/interfaces"
	"capital-trading-bot/internal/logger"
	"capital-trading-bot/internal/trace"
	"capital-trading-bot/internal/types"
)

type observableBroker struct {
	broker interfaces.Broker
}

var _ interfaces.Broker = (*observableBroker)(nil)

func Wrap(brk interfaces.Broker) interfaces.Broker {
	return &observableBroker{broker: brk}
}

func (ob *observableBroker) PriceHistory(ctx context.Context, symbol, interval string, limit int) ([]types.PriceBar, error) {
	ctx, span := trace.StartSpan(ctx, "broker.PriceHistory")
	defer span.End()

	start := time.Now()
	bars, err := ob.broker.PriceHistory(ctx, symbol, interval, limit)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Price history fetch failed", err,
			"symbol", symbol,
			"interval", interval,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Price history fetched",
		"symbol", symbol,
		"interval", interval,
		"bars", len(bars),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return bars, nil
}

func (ob *observableBroker) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "broker.CurrentPrice")
	defer span.End()

	price, err := ob.broker.CurrentPrice(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Price fetch failed", err, "symbol", symbol)
		return 0, err
	}
	return price, nil
}

func (ob *observableBroker) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceOrder")
	defer span.End()

	start := time.Now()
	resp, err := ob.broker.PlaceOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Order placement failed", err,
			"symbol", req.Symbol,
			"direction", string(req.Direction),
			"size", req.Size,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return types.OrderResp{}, err
	}

	logger.InfoSkip(ctx, 1, "Order placed",
		"symbol", req.Symbol,
		"direction", string(req.Direction),
		"size", req.Size,
		"stop_loss", req.StopLoss,
		"take_profit", req.TakeProfit,
		"order_id", resp.OrderID,
		"status", resp.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func (ob *observableBroker) AmendStopLoss(ctx context.Context, symbol string, newStop float64) error {
	ctx, span := trace.StartSpan(ctx, "broker.AmendStopLoss")
	defer span.End()

	if err := ob.broker.AmendStopLoss(ctx, symbol, newStop); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Stop amendment failed", err,
			"symbol", symbol,
			"new_stop", newStop,
		)
		return err
	}

	logger.InfoSkip(ctx, 1, "Stop amended", "symbol", symbol, "new_stop", newStop)
	return nil
}

func (ob *observableBroker) Start(ctx context.Context, symbols []string) error {
	ctx, span := trace.StartSpan(ctx, "broker.Start")
	defer span.End()
	return ob.broker.Start(ctx, symbols)
}

func (ob *observableBroker) Stop(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "broker.Stop")
	defer span.End()
	ob.broker.Stop(ctx)
}
