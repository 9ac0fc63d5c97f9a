package types

// Direction is the side of a trade.
type Direction string

const (
	Long  Direction = "buy"
	Short Direction = "sell"
)

// Favorable reports whether a move from entry to price is profit for the direction.
func (d Direction) Favorable(entry, price float64) bool {
	if d == Long {
		return price > entry
	}
	return price < entry
}

// PriceBar is a single OHLC bar. Sequences are ordered oldest-first.
type PriceBar struct {
	Ts                     int64
	Open, High, Low, Close float64
}

// Signal is a directional trade recommendation from a SignalSource.
type Signal struct {
	ShouldTrade bool      `json:"should_trade"`
	Direction   Direction `json:"direction,omitempty"`
	Reason      string    `json:"reason"`
}

// StopPlan holds the exit levels computed at entry. StopLoss is the only field
// that moves afterwards; everything else is frozen.
type StopPlan struct {
	StopLoss    float64 `json:"stop_loss"`
	TakeProfit  float64 `json:"take_profit"`
	InitialRisk float64 `json:"initial_risk"`
	ATR         float64 `json:"atr"`
}

// SkipReason codes the expected, non-error trade rejections.
type SkipReason string

const (
	MaxPositionsReached SkipReason = "max_positions_reached"
	SizeTooSmall        SkipReason = "size_too_small"
	RatioBelowMinimum   SkipReason = "ratio_below_minimum"
)

// SizingResult is the outcome of a position-size query. Reason is set iff
// CanTrade is false.
type SizingResult struct {
	CanTrade      bool       `json:"can_trade"`
	Size          float64    `json:"size"`
	MaxRiskAmount float64    `json:"max_risk_amount"`
	PipRisk       float64    `json:"pip_risk"`
	Reason        SkipReason `json:"reason,omitempty"`
}

// Validation is the outcome of a reward:risk check.
type Validation struct {
	Valid  bool       `json:"valid"`
	Ratio  float64    `json:"ratio"`
	Reason SkipReason `json:"reason,omitempty"`
}

// Position is an open position as the ledger tracks it. RiskAmount is the risk
// budget consumed at entry and never changes while the stop moves.
type Position struct {
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"`
	EntryPrice float64   `json:"entry_price"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	Size       float64   `json:"size"`
	RiskAmount float64   `json:"risk_amount"`
	ATR        float64   `json:"atr"`
	OrderID    string    `json:"order_id"`
	OpenedAt   int64     `json:"opened_at"`
}

// RiskConfig is the process-wide risk budget. Replaced whole, never field by
// field, and snapshot-read once per cycle.
type RiskConfig struct {
	AccountBalance     float64 `json:"account_balance" yaml:"account_balance"`
	MaxRiskPerTrade    float64 `json:"max_risk_per_trade" yaml:"max_risk_per_trade"`
	MinRiskRewardRatio float64 `json:"min_risk_reward_ratio" yaml:"min_risk_reward_ratio"`
	MaxPositionsOpen   int     `json:"max_positions_open" yaml:"max_positions_open"`
}

type OrderReq struct {
	Symbol           string
	Direction        Direction
	Size             float64
	StopLoss         float64
	TakeProfit       float64
	TrailingDistance float64
	Tag              string
}

type OrderResp struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// CycleState tags what a symbol's cycle did this pass.
type CycleState string

const (
	CycleSkipped     CycleState = "skipped"
	CycleOpened      CycleState = "opened"
	CycleHolding     CycleState = "holding"
	CycleStopAmended CycleState = "stop_amended"
)

// CycleResult summarizes one per-symbol pass of the orchestrator.
type CycleResult struct {
	Symbol  string        `json:"symbol"`
	State   CycleState    `json:"state"`
	Price   float64       `json:"price"`
	Time    int64         `json:"time"`
	Signal  Signal        `json:"signal"`
	Sizing  *SizingResult `json:"sizing,omitempty"`
	NewStop float64       `json:"new_stop,omitempty"`
	Reason  string        `json:"reason,omitempty"`
}
