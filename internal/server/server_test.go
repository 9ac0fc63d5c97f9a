package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capital-trading-bot/internal/monitoring"
	"capital-trading-bot/internal/types"
)

type stubEngine struct {
	running   bool
	symbols   []string
	positions map[string]types.Position
	risk      types.RiskConfig
	replaced  *types.RiskConfig
}

func (s *stubEngine) Step(ctx context.Context, symbol string) (*types.CycleResult, error) {
	return nil, nil
}

func (s *stubEngine) RunCycle(ctx context.Context) []types.CycleResult { return nil }

func (s *stubEngine) Start(ctx context.Context, symbols []string) error {
	s.running = true
	s.symbols = symbols
	return nil
}

func (s *stubEngine) Stop(ctx context.Context) { s.running = false }

func (s *stubEngine) Running() bool { return s.running }

func (s *stubEngine) Symbols() []string { return s.symbols }

func (s *stubEngine) Positions() map[string]types.Position { return s.positions }

func (s *stubEngine) ClosePosition(ctx context.Context, symbol string) {
	delete(s.positions, symbol)
}

func (s *stubEngine) DrawdownPercent() float64 { return 2.0 }

func (s *stubEngine) RiskSnapshot() types.RiskConfig { return s.risk }
func (s *stubEngine) UpdateRiskConfig(cfg types.RiskConfig) {
	s.risk = cfg
	s.replaced = &cfg
}

func newTestServer() (*Server, *stubEngine) {
	eng := &stubEngine{
		symbols: []string{"EURUSD", "GBPUSD"},
		positions: map[string]types.Position{
			"EURUSD": {Symbol: "EURUSD", Direction: types.Long, EntryPrice: 1.2, StopLoss: 1.199, RiskAmount: 200},
		},
		risk: types.RiskConfig{
			AccountBalance:     10000,
			MaxRiskPerTrade:    0.02,
			MinRiskRewardRatio: 2.0,
			MaxPositionsOpen:   3,
		},
	}
	return New(":0", eng, monitoring.NewHealthChecker()), eng
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestPositionsEndpoint(t *testing.T) {
	s, _ := newTestServer()
	rec := doRequest(t, s, http.MethodGet, "/api/positions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Positions []types.Position `json:"positions"`
		Count     int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "EURUSD", resp.Positions[0].Symbol)
}

func TestAccountEndpoint(t *testing.T) {
	s, _ := newTestServer()
	rec := doRequest(t, s, http.MethodGet, "/api/account", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 10000.0, resp["account_balance"])
	assert.Equal(t, 2.0, resp["drawdown_percent"])
	assert.Equal(t, 1.0, resp["open_positions"])
}

func TestBotStartStop(t *testing.T) {
	s, eng := newTestServer()

	rec := doRequest(t, s, http.MethodPost, "/api/bot/start", `{"symbols":["BTCUSD"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, eng.running)
	assert.Equal(t, []string{"BTCUSD"}, eng.symbols)

	rec = doRequest(t, s, http.MethodPost, "/api/bot/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, eng.running)
}

func TestBotStartDefaultsToConfiguredSymbols(t *testing.T) {
	s, eng := newTestServer()
	rec := doRequest(t, s, http.MethodPost, "/api/bot/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"EURUSD", "GBPUSD"}, eng.symbols)
}

func TestSettingsReplace(t *testing.T) {
	s, eng := newTestServer()

	body := `{"account_balance":5000,"max_risk_per_trade":0.01,"min_risk_reward_ratio":3,"max_positions_open":1}`
	rec := doRequest(t, s, http.MethodPost, "/api/settings", body)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, eng.replaced)
	assert.Equal(t, types.RiskConfig{
		AccountBalance:     5000,
		MaxRiskPerTrade:    0.01,
		MinRiskRewardRatio: 3,
		MaxPositionsOpen:   1,
	}, *eng.replaced)
}

func TestSettingsRejectsPartialOrInvalid(t *testing.T) {
	s, eng := newTestServer()

	cases := []string{
		`{"max_risk_per_trade":0.01}`, // missing balance
		`{"account_balance":5000,"max_risk_per_trade":1.5,"min_risk_reward_ratio":3,"max_positions_open":1}`,
		`{"account_balance":5000,"max_risk_per_trade":0.01,"min_risk_reward_ratio":0,"max_positions_open":1}`,
		`{"account_balance":5000,"max_risk_per_trade":0.01,"min_risk_reward_ratio":3,"max_positions_open":0}`,
		`not json`,
	}
	for _, body := range cases {
		rec := doRequest(t, s, http.MethodPost, "/api/settings", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
	assert.Nil(t, eng.replaced)
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer()
	rec := doRequest(t, s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}
