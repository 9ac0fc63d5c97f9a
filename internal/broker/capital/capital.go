// Package capital is the Capital.com gateway. LIVE mode talks to the REST
// API; DRY_RUN simulates fills against synthetic prices so the engine can run
// without touching the exchange.
package capital

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"capital-trading-bot/internal/api"
	"capital-trading-bot/internal/interfaces"
	"capital-trading-bot/internal/logger"
	"capital-trading-bot/internal/types"
)

const (
	demoBaseURL = "https://demo-api-capital.backend-capital.com/api/v1/"
	liveBaseURL = "https://api-capital.backend-capital.com/api/v1/"
)

type Params struct {
	Mode   string // DRY_RUN or LIVE
	APIKey string
	Demo   bool
}

type Capital struct {
	p      Params
	client *api.Client

	mu    sync.Mutex
	deals map[string]string // symbol -> deal reference, for stop amendments
}

var _ interfaces.Broker = (*Capital)(nil)

func New(p Params) *Capital {
	baseURL := liveBaseURL
	if p.Demo {
		baseURL = demoBaseURL
	}
	return &Capital{
		p: p,
		client: api.NewClient(
			api.WithBaseURL(baseURL),
			api.WithHeader("X-CAP-API-KEY", p.APIKey),
			api.WithHeader("Content-Type", "application/json"),
			api.WithLogging(true),
		),
		deals: make(map[string]string),
	}
}

func (c *Capital) dryRun() bool {
	return c.p.Mode == "DRY_RUN"
}

type priceQuote struct {
	Bid float64 `json:"bid"`
	Ask float64 `json:"ask"`
}

func (q priceQuote) mid() float64 {
	if q.Ask > 0 {
		return (q.Bid + q.Ask) / 2
	}
	return q.Bid
}

type historyResponse struct {
	Prices []struct {
		SnapshotTimeUTC string     `json:"snapshotTimeUTC"`
		OpenPrice       priceQuote `json:"openPrice"`
		HighPrice       priceQuote `json:"highPrice"`
		LowPrice        priceQuote `json:"lowPrice"`
		ClosePrice      priceQuote `json:"closePrice"`
	} `json:"prices"`
}

func (c *Capital) PriceHistory(ctx context.Context, symbol, interval string, limit int) ([]types.PriceBar, error) {
	if c.dryRun() {
		return syntheticBars(symbol, limit), nil
	}

	resp, err := c.client.GET(ctx, fmt.Sprintf("prices/%s?resolution=%s&max=%d", symbol, interval, limit))
	if err != nil {
		return nil, fmt.Errorf("fetching prices for %s: %w", symbol, err)
	}
	var hist historyResponse
	if err := resp.ParseJSON(&hist); err != nil {
		return nil, err
	}

	bars := make([]types.PriceBar, 0, len(hist.Prices))
	for _, p := range hist.Prices {
		ts, _ := time.Parse("2006-01-02T15:04:05", p.SnapshotTimeUTC)
		bars = append(bars, types.PriceBar{
			Ts:    ts.Unix(),
			Open:  p.OpenPrice.mid(),
			High:  p.HighPrice.mid(),
			Low:   p.LowPrice.mid(),
			Close: p.ClosePrice.mid(),
		})
	}
	return bars, nil
}

type marketResponse struct {
	Snapshot struct {
		Bid   float64 `json:"bid"`
		Offer float64 `json:"offer"`
	} `json:"snapshot"`
}

func (c *Capital) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if c.dryRun() {
		return syntheticPrice(symbol), nil
	}

	resp, err := c.client.GET(ctx, "markets/"+symbol)
	if err != nil {
		return 0, fmt.Errorf("fetching market %s: %w", symbol, err)
	}
	var m marketResponse
	if err := resp.ParseJSON(&m); err != nil {
		return 0, err
	}
	return (m.Snapshot.Bid + m.Snapshot.Offer) / 2, nil
}

type dealResponse struct {
	DealReference string `json:"dealReference"`
}

func (c *Capital) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	if c.dryRun() {
		ref := "paper-" + uuid.NewString()
		c.rememberDeal(req.Symbol, ref)
		logger.Info(ctx, "DRY_RUN order simulated",
			"symbol", req.Symbol,
			"direction", string(req.Direction),
			"size", req.Size,
			"stop_loss", req.StopLoss,
			"take_profit", req.TakeProfit,
		)
		return types.OrderResp{OrderID: ref, Status: "FILLED"}, nil
	}

	payload := map[string]any{
		"epic":         req.Symbol,
		"direction":    strings.ToUpper(string(req.Direction)),
		"size":         req.Size,
		"stopLevel":    req.StopLoss,
		"profitLevel":  req.TakeProfit,
		"trailingStop": req.TrailingDistance > 0,
	}
	if req.TrailingDistance > 0 {
		payload["trailingStopDistance"] = req.TrailingDistance
	}

	resp, err := c.client.POST(ctx, "positions", payload)
	if err != nil {
		return types.OrderResp{}, fmt.Errorf("placing order for %s: %w", req.Symbol, err)
	}
	var deal dealResponse
	if err := resp.ParseJSON(&deal); err != nil {
		return types.OrderResp{}, err
	}
	c.rememberDeal(req.Symbol, deal.DealReference)
	return types.OrderResp{OrderID: deal.DealReference, Status: "OPEN"}, nil
}

func (c *Capital) AmendStopLoss(ctx context.Context, symbol string, newStop float64) error {
	if c.dryRun() {
		logger.Debug(ctx, "DRY_RUN stop amendment simulated", "symbol", symbol, "new_stop", newStop)
		return nil
	}

	dealRef, ok := c.lookupDeal(symbol)
	if !ok {
		return fmt.Errorf("no open deal reference for %s", symbol)
	}
	_, err := c.client.PUT(ctx, "positions/"+dealRef, map[string]any{"stopLevel": newStop})
	if err != nil {
		return fmt.Errorf("amending stop for %s: %w", symbol, err)
	}
	return nil
}

func (c *Capital) Start(ctx context.Context, symbols []string) error {
	logger.Info(ctx, "Capital.com gateway ready", "mode", c.p.Mode, "demo", c.p.Demo, "symbols", symbols)
	return nil
}

func (c *Capital) Stop(ctx context.Context) {}

func (c *Capital) rememberDeal(symbol, ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deals[symbol] = ref
}

func (c *Capital) lookupDeal(symbol string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ref, ok := c.deals[symbol]
	return ref, ok
}

// Synthetic prices for DRY_RUN: a gentle random walk around a per-symbol
// anchor, forex scale.

func symbolAnchor(symbol string) float64 {
	anchor := 1.0
	for _, r := range symbol {
		anchor += float64(r%7) / 100.0
	}
	return anchor
}

func syntheticBars(symbol string, n int) []types.PriceBar {
	base := symbolAnchor(symbol)
	now := time.Now().Unix()
	bars := make([]types.PriceBar, 0, n)
	price := base
	for i := n; i > 0; i-- {
		price += (rand.Float64() - 0.5) * 0.002
		high := price + rand.Float64()*0.001
		low := price - rand.Float64()*0.001
		bars = append(bars, types.PriceBar{
			Ts:    now - int64(i*3600),
			Open:  price - 0.0002,
			High:  high,
			Low:   low,
			Close: price,
		})
	}
	return bars
}

func syntheticPrice(symbol string) float64 {
	return symbolAnchor(symbol) + (rand.Float64()-0.5)*0.002
}
