package capital

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capital-trading-bot/internal/types"
)

func dryRunBroker() *Capital {
	return New(Params{Mode: "DRY_RUN", Demo: true})
}

func TestDryRunPriceHistory(t *testing.T) {
	c := dryRunBroker()
	bars, err := c.PriceHistory(context.Background(), "EURUSD", "HOUR", 100)
	require.NoError(t, err)
	require.Len(t, bars, 100)

	for i, b := range bars {
		assert.GreaterOrEqual(t, b.High, b.Close, "bar %d", i)
		assert.LessOrEqual(t, b.Low, b.Close, "bar %d", i)
		if i > 0 {
			assert.Greater(t, b.Ts, bars[i-1].Ts, "bars must be oldest-first")
		}
	}
}

func TestDryRunPlaceOrderAndAmend(t *testing.T) {
	c := dryRunBroker()
	ctx := context.Background()

	resp, err := c.PlaceOrder(ctx, types.OrderReq{
		Symbol:    "EURUSD",
		Direction: types.Long,
		Size:      1000,
		StopLoss:  1.1990,
	})
	require.NoError(t, err)
	assert.Equal(t, "FILLED", resp.Status)
	assert.NotEmpty(t, resp.OrderID)

	ref, ok := c.lookupDeal("EURUSD")
	require.True(t, ok)
	assert.Equal(t, resp.OrderID, ref)

	assert.NoError(t, c.AmendStopLoss(ctx, "EURUSD", 1.2000))
}

func TestDryRunOrderIDsAreUnique(t *testing.T) {
	c := dryRunBroker()
	ctx := context.Background()

	a, err := c.PlaceOrder(ctx, types.OrderReq{Symbol: "EURUSD", Direction: types.Long, Size: 1})
	require.NoError(t, err)
	b, err := c.PlaceOrder(ctx, types.OrderReq{Symbol: "GBPUSD", Direction: types.Short, Size: 1})
	require.NoError(t, err)
	assert.NotEqual(t, a.OrderID, b.OrderID)
}
