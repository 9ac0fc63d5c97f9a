package engine

import (
	"sync"

	"capital-trading-bot/internal/types"
)

// ledger is the authoritative record of open positions, one per symbol.
// Cycles for different symbols run concurrently, so every access goes through
// the lock; reads that span the whole ledger (count, total risk) take a
// consistent point-in-time view under the read lock.
type ledger struct {
	mu        sync.RWMutex
	positions map[string]types.Position
}

func newLedger() *ledger {
	return &ledger{positions: make(map[string]types.Position)}
}

// Get returns a copy of the position for a symbol.
func (l *ledger) Get(symbol string) (types.Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.positions[symbol]
	return p, ok
}

// Add commits a position. Last write wins; the orchestrator never opens a
// second position for a symbol that already has one.
func (l *ledger) Add(pos types.Position) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.positions[pos.Symbol] = pos
}

func (l *ledger) Remove(symbol string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.positions, symbol)
}

// UpdateStop overwrites the stop level. StopLoss is the only mutable field of
// a committed position.
func (l *ledger) UpdateStop(symbol string, newStop float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.positions[symbol]
	if !ok {
		return false
	}
	p.StopLoss = newStop
	l.positions[symbol] = p
	return true
}

func (l *ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.positions)
}

// Snapshot copies the ledger out for display and whole-ledger checks.
func (l *ledger) Snapshot() map[string]types.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]types.Position, len(l.positions))
	for sym, p := range l.positions {
		out[sym] = p
	}
	return out
}

// TotalRiskAmount sums the frozen entry-time risk of all open positions.
func (l *ledger) TotalRiskAmount() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := 0.0
	for _, p := range l.positions {
		total += p.RiskAmount
	}
	return total
}
