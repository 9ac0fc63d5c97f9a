// Package server exposes the admin HTTP API: bot control, position and
// account queries, risk settings, health and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"capital-trading-bot/internal/interfaces"
	"capital-trading-bot/internal/logger"
	"capital-trading-bot/internal/monitoring"
	"capital-trading-bot/internal/types"
)

type Server struct {
	engine interfaces.Engine
	health *monitoring.HealthChecker
	srv    *http.Server
}

func New(addr string, eng interfaces.Engine, health *monitoring.HealthChecker) *Server {
	s := &Server{engine: eng, health: health}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/positions", s.handlePositions)
	mux.HandleFunc("GET /api/account", s.handleAccount)
	mux.HandleFunc("GET /api/symbols", s.handleSymbols)
	mux.HandleFunc("GET /api/bot/status", s.handleStatus)
	mux.HandleFunc("POST /api/bot/start", s.handleStart)
	mux.HandleFunc("POST /api/bot/stop", s.handleStop)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("POST /api/settings", s.handleUpdateSettings)
	mux.Handle("GET /healthz", health)
	mux.Handle("GET /metrics", monitoring.MetricsHandler())

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	logger.Info(context.Background(), "Admin API listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions := s.engine.Positions()
	out := make([]types.Position, 0, len(positions))
	for _, p := range positions {
		out = append(out, p)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"positions": out,
		"count":     len(out),
	})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	risk := s.engine.RiskSnapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"account_balance":  risk.AccountBalance,
		"drawdown_percent": s.engine.DrawdownPercent(),
		"open_positions":   len(s.engine.Positions()),
		"max_positions":    risk.MaxPositionsOpen,
	})
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"symbols": s.engine.Symbols()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"running": s.engine.Running(),
		"symbols": s.engine.Symbols(),
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbols []string `json:"symbols"`
	}
	if r.Body != nil {
		// Body is optional; an empty start reuses the configured symbols.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if len(req.Symbols) == 0 {
		req.Symbols = s.engine.Symbols()
	}
	if err := s.engine.Start(r.Context(), req.Symbols); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.health.NoteRunning(true)
	writeJSON(w, http.StatusOK, map[string]any{"running": true, "symbols": req.Symbols})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.engine.Stop(r.Context())
	s.health.NoteRunning(false)
	writeJSON(w, http.StatusOK, map[string]any{"running": false})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.RiskSnapshot())
}

// handleUpdateSettings replaces the risk config as a whole. Partial updates
// are not supported; callers send every field.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var cfg types.RiskConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if cfg.AccountBalance <= 0 {
		writeError(w, http.StatusBadRequest, "account_balance must be positive")
		return
	}
	if cfg.MaxRiskPerTrade <= 0 || cfg.MaxRiskPerTrade > 1 {
		writeError(w, http.StatusBadRequest, "max_risk_per_trade must be in (0, 1]")
		return
	}
	if cfg.MinRiskRewardRatio <= 0 {
		writeError(w, http.StatusBadRequest, "min_risk_reward_ratio must be positive")
		return
	}
	if cfg.MaxPositionsOpen <= 0 {
		writeError(w, http.StatusBadRequest, "max_positions_open must be positive")
		return
	}

	s.engine.UpdateRiskConfig(cfg)
	logger.Info(r.Context(), "Risk settings replaced",
		"account_balance", cfg.AccountBalance,
		"max_risk_per_trade", cfg.MaxRiskPerTrade,
		"min_risk_reward_ratio", cfg.MinRiskRewardRatio,
		"max_positions_open", cfg.MaxPositionsOpen,
	)
	writeJSON(w, http.StatusOK, cfg)
}
