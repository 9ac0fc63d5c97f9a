package interfaces

import (
	"context"

	"capital-trading-bot/internal/types"
)

// Engine drives the per-symbol trading cycles and exposes the queries the
// admin layer needs.
type Engine interface {
	Step(ctx context.Context, symbol string) (*types.CycleResult, error)
	RunCycle(ctx context.Context) []types.CycleResult

	Start(ctx context.Context, symbols []string) error
	Stop(ctx context.Context)
	Running() bool
	Symbols() []string

	Positions() map[string]types.Position
	ClosePosition(ctx context.Context, symbol string)
	DrawdownPercent() float64
	RiskSnapshot() types.RiskConfig
	UpdateRiskConfig(cfg types.RiskConfig)
}
